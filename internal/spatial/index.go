// Package spatial answers nearest-neighbor queries over the groundwater
// survey dataset. The index is built once at startup and is safe for
// concurrent readers; there is no insert or remove path, a changed dataset
// means a rebuild.
package spatial

import (
	"fmt"

	"github.com/dhconnelly/rtreego"
	"github.com/umahmood/haversine"

	"github.com/hydroforecast/prediction-service/internal/domain"
)

// pointExtent is the side length of the degenerate rectangle a survey point is
// stored as. rtreego indexes rectangles, not points.
const pointExtent = 1e-9

// candidateCount is how many R-tree neighbors are pulled per query before
// exact re-ranking. More than one so equidistant records can be tie-broken by
// dataset position.
const candidateCount = 16

type surveyItem struct {
	rect   rtreego.Rect
	record domain.SurveyRecord
	pos    int // position in the backing dataset, used for tie-breaking
}

func (it *surveyItem) Bounds() rtreego.Rect {
	return it.rect
}

// Index is a read-only nearest-neighbor index over survey records.
type Index struct {
	tree    *rtreego.Rtree
	records []domain.SurveyRecord
}

// NewIndex builds the index from the full survey dataset. An empty dataset is
// a configuration error (domain.ErrEmptyIndex), fatal at startup.
func NewIndex(records []domain.SurveyRecord) (*Index, error) {
	if len(records) == 0 {
		return nil, domain.ErrEmptyIndex
	}

	tree := rtreego.NewTree(2, 2, 32)
	for i, rec := range records {
		rect, err := rtreego.NewRect(
			rtreego.Point{rec.Point.Lat, rec.Point.Lon},
			[]float64{pointExtent, pointExtent},
		)
		if err != nil {
			return nil, fmt.Errorf("index survey record %d: %w", i, err)
		}
		tree.Insert(&surveyItem{rect: rect, record: rec, pos: i})
	}

	stored := make([]domain.SurveyRecord, len(records))
	copy(stored, records)

	return &Index{tree: tree, records: stored}, nil
}

// Size returns the number of indexed records.
func (x *Index) Size() int {
	return len(x.records)
}

// Nearest returns the survey record minimizing Euclidean distance over
// (lat, lon) to p. Exact ties resolve to the record encountered first in the
// dataset's iteration order.
func (x *Index) Nearest(p domain.GeoPoint) domain.SurveyRecord {
	k := candidateCount
	if k > len(x.records) {
		k = len(x.records)
	}

	candidates := x.tree.NearestNeighbors(k, rtreego.Point{p.Lat, p.Lon})

	best, bestDist := rerank(p, candidates)
	if !allAtDistance(p, candidates, bestDist) {
		return best
	}

	// Every candidate ties at the minimum distance, so records outside the
	// candidate set may tie too. Scan the dataset in order; strict < keeps the
	// first-encountered record on ties.
	bestIdx := 0
	scanDist := sqDist(p, x.records[0].Point)
	for i := 1; i < len(x.records); i++ {
		if d := sqDist(p, x.records[i].Point); d < scanDist {
			bestIdx, scanDist = i, d
		}
	}
	return x.records[bestIdx]
}

func rerank(p domain.GeoPoint, candidates []rtreego.Spatial) (domain.SurveyRecord, float64) {
	var best *surveyItem
	bestDist := 0.0
	for _, c := range candidates {
		it, ok := c.(*surveyItem)
		if !ok {
			continue
		}
		d := sqDist(p, it.record.Point)
		if best == nil || d < bestDist || (d == bestDist && it.pos < best.pos) {
			best, bestDist = it, d
		}
	}
	return best.record, bestDist
}

func allAtDistance(p domain.GeoPoint, candidates []rtreego.Spatial, dist float64) bool {
	for _, c := range candidates {
		it, ok := c.(*surveyItem)
		if !ok {
			continue
		}
		if sqDist(p, it.record.Point) != dist {
			return false
		}
	}
	return true
}

func sqDist(a, b domain.GeoPoint) float64 {
	dLat := a.Lat - b.Lat
	dLon := a.Lon - b.Lon
	return dLat*dLat + dLon*dLon
}

// DistanceKm returns the great-circle distance between two points in
// kilometers. Used for reporting how far the matched survey point is from the
// queried location, not for nearest-neighbor ranking.
func DistanceKm(a, b domain.GeoPoint) float64 {
	_, km := haversine.Distance(
		haversine.Coord{Lat: a.Lat, Lon: a.Lon},
		haversine.Coord{Lat: b.Lat, Lon: b.Lon},
	)
	return km
}
