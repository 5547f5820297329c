package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	// Source tables. A path set to "none" disables that table.
	CasesGlobalPath  string
	DeathsGlobalPath string
	CasesUSPath      string
	DeathsUSPath     string
	GlobePath        string

	HTTPAddr        string
	CORSOrigins     []string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	TopK       int
	JitterSeed uint64

	// Optional Kafka sink for aggregated series.
	KafkaEnabled   bool
	KafkaBrokers   []string
	KafkaSinkTopic string

	// Mapbox geocoding configuration.
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration
	MapboxCacheSize int
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	mapboxTimeoutStr := sharedcfg.EnvOrDefault("MAPBOX_TIMEOUT", "5s")
	mapboxTimeout, err := time.ParseDuration(mapboxTimeoutStr)
	if err != nil || mapboxTimeout <= 0 {
		return nil, errors.New("invalid MAPBOX_TIMEOUT")
	}

	topK, err := parsePositiveInt("TOP_K", 20)
	if err != nil {
		return nil, err
	}

	seed, err := strconv.ParseUint(sharedcfg.EnvOrDefault("JITTER_SEED", "1"), 10, 64)
	if err != nil {
		return nil, errors.New("invalid JITTER_SEED")
	}

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	mapboxEnabled := mapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		mapboxEnabled = v == "true"
	}

	cfg := &Config{
		CasesGlobalPath:  optionalPath("CASES_GLOBAL_PATH", "data/time_series_covid19_confirmed_global.csv"),
		DeathsGlobalPath: optionalPath("DEATHS_GLOBAL_PATH", "data/time_series_covid19_deaths_global.csv"),
		CasesUSPath:      optionalPath("CASES_US_PATH", "data/time_series_covid19_confirmed_US.csv"),
		DeathsUSPath:     optionalPath("DEATHS_US_PATH", "data/time_series_covid19_deaths_US.csv"),
		GlobePath:        optionalPath("GLOBE_PATH", "data/globe_totals.csv"),

		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		CORSOrigins:     splitList(sharedcfg.EnvOrDefault("CORS_ORIGINS", "*")),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		TopK:       topK,
		JitterSeed: seed,

		KafkaEnabled:   os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers:   sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSinkTopic: sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "pandemic-series"),

		MapboxToken:     mapboxToken,
		MapboxEnabled:   mapboxEnabled,
		MapboxTimeout:   mapboxTimeout,
		MapboxCacheSize: parseMapboxCacheSize(),
	}

	if cfg.CasesGlobalPath == "" && cfg.CasesUSPath == "" && cfg.GlobePath == "" {
		return nil, errors.New("at least one of CASES_GLOBAL_PATH, CASES_US_PATH, GLOBE_PATH is required")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
	}
	if cfg.KafkaEnabled && cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required when KAFKA_ENABLED is true")
	}
	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}

	return cfg, nil
}

func parsePositiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive integer", key)
	}
	return n, nil
}

func parseMapboxCacheSize() int {
	if s := os.Getenv("MAPBOX_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}

// optionalPath reads a source path; the literal "none" disables the source.
func optionalPath(key, def string) string {
	v := sharedcfg.EnvOrDefault(key, def)
	if strings.EqualFold(v, "none") {
		return ""
	}
	return v
}

// splitList parses a comma-separated list, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
