package main

import (
	"os"

	"github.com/couchcryptid/pandemic-map-etl/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
