// Command genmock writes a sample prefecture page and both source workbooks
// to a directory, so the ETL can run locally against a static file server.
//
// Usage:
//
//	go run ./cmd/genmock -out data/mock
//	python3 -m http.server -d data/mock 8000 &
//	SOURCE_URL=http://localhost:8000/index.html go run ./cmd/etl -o data/data.json
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/couchcryptid/covid19-data-etl/internal/mock"
)

const (
	inspectionsFile = "kensa.xlsx"
	casesFile       = "hassei.xlsx"
	indexFile       = "index.html"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "data/mock", "output directory for the page and workbooks")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}
	if err := os.MkdirAll(*out, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	inspections, err := mock.InspectionWorkbook(mock.SampleInspections())
	if err != nil {
		return fmt.Errorf("build inspections workbook: %w", err)
	}
	cases, err := mock.CaseWorkbook(mock.SampleCases())
	if err != nil {
		return fmt.Errorf("build cases workbook: %w", err)
	}

	files := []struct {
		name string
		data []byte
	}{
		{inspectionsFile, inspections},
		{casesFile, cases},
		{indexFile, []byte(mock.IndexPage(inspectionsFile, casesFile))},
	}
	for _, f := range files {
		path := filepath.Join(*out, f.name)
		if err := os.WriteFile(path, f.data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		log.Printf("wrote %s (%d bytes)", path, len(f.data))
	}

	log.Printf("sample: %d inspection days, %d case rows", len(mock.SampleInspections()), len(mock.SampleCases()))
	return nil
}
