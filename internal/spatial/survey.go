package spatial

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/hydroforecast/prediction-service/internal/domain"
)

// Survey CSV column headers, matching the original survey export.
const (
	colLatitude  = "LATITUDE"
	colLongitude = "LONGITUDE"
	colDepth     = "WL(mbgl)"
)

// LoadSurveyCSV reads the groundwater survey table. Rows with unparseable
// coordinates or depth are skipped; survey exports routinely contain blank
// cells and a partial dataset is better than none. Missing required columns
// fail the load.
func LoadSurveyCSV(path string) ([]domain.SurveyRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open survey dataset: %w", err)
	}
	defer f.Close()

	return ReadSurvey(f)
}

// ReadSurvey parses survey records from CSV data.
func ReadSurvey(r io.Reader) ([]domain.SurveyRecord, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read survey header: %w", err)
	}

	latIdx, lonIdx, depthIdx := -1, -1, -1
	for i, name := range header {
		switch strings.ToUpper(strings.TrimSpace(name)) {
		case colLatitude:
			latIdx = i
		case colLongitude:
			lonIdx = i
		case strings.ToUpper(colDepth):
			depthIdx = i
		}
	}
	if latIdx < 0 || lonIdx < 0 || depthIdx < 0 {
		return nil, fmt.Errorf("survey header missing required columns %s, %s, %s", colLatitude, colLongitude, colDepth)
	}

	var records []domain.SurveyRecord
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read survey row: %w", err)
		}

		lat, ok1 := parseField(row, latIdx)
		lon, ok2 := parseField(row, lonIdx)
		depth, ok3 := parseField(row, depthIdx)
		if !ok1 || !ok2 || !ok3 {
			continue
		}

		records = append(records, domain.SurveyRecord{
			Point:     domain.GeoPoint{Lat: lat, Lon: lon},
			DepthMBGL: depth,
		})
	}

	return records, nil
}

func parseField(row []string, idx int) (float64, bool) {
	if idx >= len(row) {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(row[idx]), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
