package domain

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(ts string, level float64) TankLogEntry {
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		panic(err)
	}
	return TankLogEntry{Timestamp: t, Level: level}
}

func TestNormalizeLogs_SortsAscending(t *testing.T) {
	in := []TankLogEntry{
		entry("2026-03-03T08:00:00Z", 30),
		entry("2026-03-01T08:00:00Z", 10),
		entry("2026-03-02T08:00:00Z", 20),
	}

	out := NormalizeLogs(in)

	require.Len(t, out, 3)
	assert.Equal(t, 10.0, out[0].Level)
	assert.Equal(t, 20.0, out[1].Level)
	assert.Equal(t, 30.0, out[2].Level)
}

func TestNormalizeLogs_DuplicateTimestampLastWriteWins(t *testing.T) {
	in := []TankLogEntry{
		entry("2026-03-01T08:00:00Z", 10),
		entry("2026-03-02T08:00:00Z", 20),
		entry("2026-03-01T08:00:00Z", 15), // later write for the same instant
	}

	out := NormalizeLogs(in)

	require.Len(t, out, 2)
	assert.Equal(t, 15.0, out[0].Level)
	assert.Equal(t, 20.0, out[1].Level)
}

func TestNormalizeLogs_Empty(t *testing.T) {
	assert.Nil(t, NormalizeLogs(nil))
	assert.Nil(t, NormalizeLogs([]TankLogEntry{}))
}

// Property check: for any input, output timestamps are strictly increasing and
// one entry survives per distinct timestamp.
func TestNormalizeLogs_RandomizedStrictOrder(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	var in []TankLogEntry
	for i := 0; i < 200; i++ {
		in = append(in, TankLogEntry{
			Timestamp: base.AddDate(0, 0, rng.Intn(40)),
			Level:     rng.Float64() * 100,
		})
	}

	out := NormalizeLogs(in)

	distinct := make(map[int64]bool)
	for _, e := range in {
		distinct[e.Timestamp.UnixNano()] = true
	}
	assert.Len(t, out, len(distinct))

	for i := 1; i < len(out); i++ {
		assert.True(t, out[i-1].Timestamp.Before(out[i].Timestamp),
			"timestamps must be strictly increasing")
	}
}

func TestCivilDate_MarshalJSON(t *testing.T) {
	d := CivilDate{time.Date(2026, 4, 26, 15, 10, 0, 0, time.UTC)}
	b, err := d.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"2026-04-26"`, string(b))
}

func TestCivilDate_UnmarshalJSON(t *testing.T) {
	var d CivilDate
	require.NoError(t, d.UnmarshalJSON([]byte(`"2026-04-26"`)))
	assert.Equal(t, time.Date(2026, 4, 26, 0, 0, 0, 0, time.UTC), d.Time)
}
