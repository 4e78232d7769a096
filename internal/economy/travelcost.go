package economy

import (
	"fmt"
	"math"

	"github.com/soupworks/lettermarket/internal/auction"
	"github.com/soupworks/lettermarket/internal/world"
)

// MaxTravelStations bounds the word-station set: the table holds one entry
// per subset, so the set must stay small.
const MaxTravelStations = 20

// TravelCostTable precomputes, for every subset of the word stations, the
// travel distance to visit exactly that subset (greedily in station-index
// order, not re-optimized per subset) and the subset's entry station. Built
// once when the station set is finalized, read-only afterwards.
type TravelCostTable struct {
	costs   []float64
	entries []world.Point
	index   map[auction.ParticipantID]uint
}

// NewTravelCostTable builds the table for the given stations, in order.
// Station locations are visited in index order; the first station of a
// subset is its entry point and contributes no distance.
func NewTravelCostTable(stations []auction.ParticipantID, locations []world.Point) (*TravelCostTable, error) {
	if len(stations) != len(locations) {
		return nil, fmt.Errorf("travel table: %d stations but %d locations", len(stations), len(locations))
	}
	if len(stations) > MaxTravelStations {
		return nil, fmt.Errorf("travel table: %d stations exceeds limit %d", len(stations), MaxTravelStations)
	}

	n := 1 << len(stations)
	t := &TravelCostTable{
		costs:   make([]float64, n),
		entries: make([]world.Point, n),
		index:   make(map[auction.ParticipantID]uint, len(stations)),
	}
	for i, s := range stations {
		t.index[s] = uint(i)
	}

	for mask := 1; mask < n; mask++ {
		total := 0.0
		started := false
		var at world.Point
		for i := range stations {
			if mask&(1<<i) == 0 {
				continue
			}
			if !started {
				at = locations[i]
				t.entries[mask] = at
				started = true
				continue
			}
			total += at.DistanceTo(locations[i])
			at = locations[i]
		}
		t.costs[mask] = total
	}
	return t, nil
}

// StationBit returns the bit index for a station, false if the station is
// not in the table.
func (t *TravelCostTable) StationBit(s auction.ParticipantID) (uint, bool) {
	i, ok := t.index[s]
	return i, ok
}

// Cost returns the travel distance for the subset encoded by mask and the
// subset's entry location. The empty subset costs +Inf: a route visiting
// nowhere earns nothing and must never be chosen.
func (t *TravelCostTable) Cost(mask int) (float64, world.Point) {
	if mask == 0 || mask >= len(t.costs) {
		return math.Inf(1), world.Point{}
	}
	return t.costs[mask], t.entries[mask]
}
