// Command surveylint checks a groundwater survey CSV for integrity problems
// before it is shipped to a deployment: header shape, unparseable rows,
// out-of-range coordinates, negative depths, and duplicate coordinates. Rows
// the service would silently skip at load time are reported here.
//
// Usage:
//
//	go run ./cmd/surveylint -csv data/survey.csv
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// phase tracks pass/fail for one validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func (p *phase) report() {
	if p.passed() {
		fmt.Printf("PASS  %s\n", p.name)
		return
	}
	fmt.Printf("FAIL  %s\n", p.name)
	for _, e := range p.errors {
		fmt.Printf("      %s\n", e)
	}
}

func main() {
	csvPath := flag.String("csv", "", "path to survey CSV")
	flag.Parse()

	if *csvPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*csvPath); code != 0 {
		os.Exit(code)
	}
}

func run(path string) int {
	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: open survey CSV: %v\n", err)
		return 1
	}
	defer f.Close()

	fmt.Println("=== Survey Dataset Integrity Check ===")
	fmt.Println()

	phases := lint(f)

	failed := false
	for _, p := range phases {
		p.report()
		if !p.passed() {
			failed = true
		}
	}
	if failed {
		return 1
	}
	return 0
}

func lint(r io.Reader) []*phase {
	header := &phase{name: "header"}
	rows := &phase{name: "row parsing"}
	ranges := &phase{name: "value ranges"}
	dupes := &phase{name: "duplicate coordinates"}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	head, err := cr.Read()
	if err != nil {
		header.errorf("read header: %v", err)
		return []*phase{header}
	}

	latCol, lonCol, depthCol := -1, -1, -1
	for i, name := range head {
		switch strings.ToUpper(strings.TrimSpace(name)) {
		case "LATITUDE":
			latCol = i
		case "LONGITUDE":
			lonCol = i
		case "WL(MBGL)":
			depthCol = i
		}
	}
	if latCol < 0 || lonCol < 0 || depthCol < 0 {
		header.errorf("missing required columns (need LATITUDE, LONGITUDE, WL(mbgl)), got %v", head)
		return []*phase{header}
	}

	seen := map[string]int{}
	line := 1
	total, valid := 0, 0
	for {
		line++
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			rows.errorf("line %d: %v", line, err)
			continue
		}
		total++

		if len(rec) <= latCol || len(rec) <= lonCol || len(rec) <= depthCol {
			rows.errorf("line %d: too few fields (%d)", line, len(rec))
			continue
		}
		lat, errLat := strconv.ParseFloat(strings.TrimSpace(rec[latCol]), 64)
		lon, errLon := strconv.ParseFloat(strings.TrimSpace(rec[lonCol]), 64)
		depth, errDepth := strconv.ParseFloat(strings.TrimSpace(rec[depthCol]), 64)
		if errLat != nil || errLon != nil || errDepth != nil {
			rows.errorf("line %d: unparseable numeric field", line)
			continue
		}
		valid++

		if lat < -90 || lat > 90 {
			ranges.errorf("line %d: latitude %v out of range", line, lat)
		}
		if lon < -180 || lon > 180 {
			ranges.errorf("line %d: longitude %v out of range", line, lon)
		}
		if depth < 0 {
			ranges.errorf("line %d: negative depth %v", line, depth)
		}

		key := rec[latCol] + "," + rec[lonCol]
		if prev, ok := seen[key]; ok {
			dupes.errorf("line %d: duplicate of line %d (%s)", line, prev, key)
		} else {
			seen[key] = line
		}
	}

	if total == 0 {
		rows.errorf("dataset has no data rows")
	}
	fmt.Printf("rows: %d total, %d valid\n\n", total, valid)

	return []*phase{header, rows, ranges, dupes}
}
