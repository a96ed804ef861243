// Package forecast fits a trend+seasonality model to a tank's level history
// and extrapolates future daily levels.
//
// The model is deliberately closed-form: readings are averaged onto a daily
// cadence, gap days are filled by linear interpolation, an ordinary
// least-squares line captures the trend, and mean detrended residuals per
// weekday capture weekly seasonality once enough history exists. Closed-form
// fitting keeps forecasts bit-reproducible for a given input, which iterative
// optimizers do not guarantee.
package forecast

import (
	"fmt"
	"math"
	"time"

	"github.com/hydroforecast/prediction-service/internal/domain"
)

const (
	// MinObservations is the minimum number of distinct readings required to fit.
	MinObservations = 5

	// seasonalMinDays is the daily-series length below which weekly
	// seasonality is not estimated. Under two full weeks the per-weekday means
	// are mostly noise.
	seasonalMinDays = 14

	// z80 is the two-sided 80% standard normal quantile used for the
	// uncertainty interval.
	z80 = 1.2816
)

// Forecaster projects tank levels forward on a daily cadence.
type Forecaster struct{}

// New creates a Forecaster.
func New() *Forecaster {
	return &Forecaster{}
}

// FitAndPredict fits the model to the series and predicts the next
// horizonDays calendar days, starting the day after the last observation.
//
// The series must hold at least MinObservations entries with strictly
// increasing timestamps; duplicate timestamps are the caller's problem
// (domain.NormalizeLogs resolves them). Violations fail with
// domain.ErrInsufficientHistory and never produce partial output.
func (f *Forecaster) FitAndPredict(series []domain.TankLogEntry, horizonDays int) (domain.ForecastResult, error) {
	if horizonDays <= 0 {
		return domain.ForecastResult{}, fmt.Errorf("horizon must be positive, got %d", horizonDays)
	}
	if len(series) < MinObservations {
		return domain.ForecastResult{}, fmt.Errorf("%w: %d readings, need %d", domain.ErrInsufficientHistory, len(series), MinObservations)
	}
	for i := 1; i < len(series); i++ {
		if !series[i-1].Timestamp.Before(series[i].Timestamp) {
			return domain.ForecastResult{}, fmt.Errorf("%w: timestamps must be strictly increasing", domain.ErrInsufficientHistory)
		}
	}

	firstDay, daily, err := toDailySeries(series)
	if err != nil {
		return domain.ForecastResult{}, err
	}

	slope, intercept := fitTrend(daily)
	seasonal := fitWeeklySeasonality(daily, firstDay, slope, intercept)
	sigma := residualStdDev(daily, firstDay, slope, intercept, seasonal)

	n := len(daily)
	result := domain.ForecastResult{
		Dates:  make([]time.Time, horizonDays),
		Values: make([]float64, horizonDays),
		Lower:  make([]float64, horizonDays),
		Upper:  make([]float64, horizonDays),
	}
	for h := 0; h < horizonDays; h++ {
		dayIdx := n + h
		date := firstDay.AddDate(0, 0, dayIdx)
		v := intercept + slope*float64(dayIdx) + seasonal[int(date.Weekday())]

		result.Dates[h] = date
		result.Values[h] = v
		result.Lower[h] = v - z80*sigma
		result.Upper[h] = v + z80*sigma
	}
	return result, nil
}

// toDailySeries averages readings per UTC calendar day and linearly
// interpolates any gap days, producing one value per day from the first to the
// last observed day.
func toDailySeries(series []domain.TankLogEntry) (time.Time, []float64, error) {
	type bucket struct {
		sum   float64
		count int
	}

	firstDay := civilDay(series[0].Timestamp)
	lastDay := civilDay(series[len(series)-1].Timestamp)
	span := daysBetween(firstDay, lastDay) + 1

	if span < 2 {
		return time.Time{}, nil, fmt.Errorf("%w: readings span fewer than 2 distinct days", domain.ErrInsufficientHistory)
	}

	buckets := make([]bucket, span)
	for _, e := range series {
		i := daysBetween(firstDay, civilDay(e.Timestamp))
		buckets[i].sum += e.Level
		buckets[i].count++
	}

	daily := make([]float64, span)
	lastObserved := -1
	for i, b := range buckets {
		if b.count == 0 {
			continue
		}
		daily[i] = b.sum / float64(b.count)

		// Fill the gap since the previous observed day by straight-line
		// interpolation.
		if lastObserved >= 0 && i-lastObserved > 1 {
			step := (daily[i] - daily[lastObserved]) / float64(i-lastObserved)
			for j := lastObserved + 1; j < i; j++ {
				daily[j] = daily[lastObserved] + step*float64(j-lastObserved)
			}
		}
		lastObserved = i
	}

	return firstDay, daily, nil
}

// fitTrend computes the ordinary least-squares line over (dayIndex, level).
func fitTrend(daily []float64) (slope, intercept float64) {
	n := float64(len(daily))
	var sumX, sumY, sumXY, sumXX float64
	for i, y := range daily {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}

	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0, sumY / n
	}
	slope = (n*sumXY - sumX*sumY) / denom
	intercept = (sumY - slope*sumX) / n
	return slope, intercept
}

// fitWeeklySeasonality returns the mean detrended residual per weekday,
// centered to zero mean. Below seasonalMinDays of history all components are
// zero and the model degrades to a pure trend.
func fitWeeklySeasonality(daily []float64, firstDay time.Time, slope, intercept float64) [7]float64 {
	var seasonal [7]float64
	if len(daily) < seasonalMinDays {
		return seasonal
	}

	var sums, counts [7]float64
	for i, y := range daily {
		wd := int(firstDay.AddDate(0, 0, i).Weekday())
		sums[wd] += y - (intercept + slope*float64(i))
		counts[wd]++
	}

	var mean float64
	for wd := range seasonal {
		if counts[wd] > 0 {
			seasonal[wd] = sums[wd] / counts[wd]
		}
		mean += seasonal[wd]
	}
	mean /= 7

	for wd := range seasonal {
		seasonal[wd] -= mean
	}
	return seasonal
}

// residualStdDev computes the sample standard deviation of the model
// residuals, the basis of the uncertainty interval.
func residualStdDev(daily []float64, firstDay time.Time, slope, intercept float64, seasonal [7]float64) float64 {
	if len(daily) < 2 {
		return 0
	}
	var ss float64
	for i, y := range daily {
		wd := int(firstDay.AddDate(0, 0, i).Weekday())
		r := y - (intercept + slope*float64(i) + seasonal[wd])
		ss += r * r
	}
	return math.Sqrt(ss / float64(len(daily)-1))
}

func civilDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}
