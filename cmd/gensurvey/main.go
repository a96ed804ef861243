// Command gensurvey generates a synthetic groundwater survey CSV for local
// development and load testing. Records cluster around a handful of urban
// centers with noise, mimicking the density profile of a real survey.
//
// Usage:
//
//	go run ./cmd/gensurvey -out data/survey.csv -count 5000 -seed 42
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"strconv"
)

// cluster is a survey density center: most records fall within a few tenths
// of a degree of one of these.
type cluster struct {
	lat, lon  float64
	meanDepth float64
}

var clusters = []cluster{
	{lat: 19.076, lon: 72.877, meanDepth: 4.5},  // Mumbai
	{lat: 18.520, lon: 73.856, meanDepth: 7.2},  // Pune
	{lat: 28.613, lon: 77.209, meanDepth: 12.8}, // Delhi
	{lat: 12.971, lon: 77.594, meanDepth: 18.4}, // Bengaluru
	{lat: 13.082, lon: 80.270, meanDepth: 3.9},  // Chennai
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output CSV path")
	count := flag.Int("count", 5000, "number of survey records")
	seed := flag.Int64("seed", 42, "PRNG seed for reproducible output")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}
	if *count < 1 {
		return fmt.Errorf("-count must be positive, got %d", *count)
	}

	rng := rand.New(rand.NewSource(*seed))

	f, err := os.Create(*out)
	if err != nil {
		return fmt.Errorf("create %s: %w", *out, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"LATITUDE", "LONGITUDE", "WL(mbgl)"}); err != nil {
		return err
	}

	for i := 0; i < *count; i++ {
		c := clusters[rng.Intn(len(clusters))]

		lat := c.lat + rng.NormFloat64()*0.15
		lon := c.lon + rng.NormFloat64()*0.15
		depth := c.meanDepth + rng.NormFloat64()*2.0
		if depth < 0.1 {
			depth = 0.1
		}

		rec := []string{
			strconv.FormatFloat(lat, 'f', 6, 64),
			strconv.FormatFloat(lon, 'f', 6, 64),
			strconv.FormatFloat(depth, 'f', 2, 64),
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}

	log.Printf("wrote %d survey records to %s", *count, *out)
	return nil
}
