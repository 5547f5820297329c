package domain

import "sort"

// DefaultTopK is used when a caller asks for a non-positive K.
const DefaultTopK = 20

// RankingRow is one bar of the ranking chart.
type RankingRow struct {
	Entity string  `json:"entity"`
	Value  float64 `json:"value"`
	Rank   int     `json:"rank"`
}

// GrowthCurve is the full series of one ranked entity.
type GrowthCurve struct {
	Entity string      `json:"entity"`
	Cases  TimeSeries  `json:"cases"`
	Deaths *TimeSeries `json:"deaths,omitempty"`
}

// Ranking holds the bar dataset (descending) and the growth curves of the
// same entities in the same order.
type Ranking struct {
	Dataset Dataset       `json:"dataset"`
	Latest  string        `json:"latest"`
	Rows    []RankingRow  `json:"rows"`
	Growth  []GrowthCurve `json:"growth"`
}

// BuildRanking ranks entities by their latest cumulative case count and keeps
// the top k. Ties keep input order. When fewer than k entities exist all of
// them are returned. deaths may be nil; when present its series are attached
// to the growth curves of matching entities.
func BuildRanking(cases SeriesTable, deaths *SeriesTable, k int) Ranking {
	if k <= 0 {
		k = DefaultTopK
	}

	r := Ranking{Dataset: cases.Dataset}
	latest, ok := cases.Axis.Latest()
	if !ok {
		return r
	}
	r.Latest = cases.Axis.Headers[latest]

	ranked := make([]AggregatedSeries, len(cases.Rows))
	copy(ranked, cases.Rows)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Values[latest] > ranked[j].Values[latest]
	})
	if k < len(ranked) {
		ranked = ranked[:k]
	}

	r.Rows = make([]RankingRow, len(ranked))
	r.Growth = make([]GrowthCurve, len(ranked))
	for i, s := range ranked {
		r.Rows[i] = RankingRow{Entity: s.Entity, Value: s.Values[latest], Rank: i + 1}
		r.Growth[i] = growthCurve(cases, deaths, s)
	}
	return r
}

// CompareEntities returns growth curves for the named entities, in the order
// requested. Names not present in the table are skipped.
func CompareEntities(cases SeriesTable, deaths *SeriesTable, entities []string) []GrowthCurve {
	out := make([]GrowthCurve, 0, len(entities))
	for _, name := range entities {
		s, ok := cases.Find(Canonicalize(name, ""))
		if !ok {
			continue
		}
		out = append(out, growthCurve(cases, deaths, s))
	}
	return out
}

func growthCurve(cases SeriesTable, deaths *SeriesTable, s AggregatedSeries) GrowthCurve {
	gc := GrowthCurve{Entity: s.Entity, Cases: cases.Axis.Series(s.Values)}
	if deaths != nil {
		if d, ok := deaths.Find(s.Entity); ok {
			ds := deaths.Axis.Series(d.Values)
			gc.Deaths = &ds
		}
	}
	return gc
}
