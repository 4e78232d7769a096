package agents

import (
	"sort"

	"github.com/soupworks/lettermarket/internal/auction"
	"github.com/soupworks/lettermarket/internal/world"
)

// StorageManager owns the bucket storage waypoints. Each cycle it posts one
// ask at value zero per unoccupied waypoint into the storage market, so the
// waypoint goes to whichever bucket bids the most.
type StorageManager struct {
	dir *Directory
	id  auction.ParticipantID

	unused map[world.WaypointID]world.Waypoint
	used   map[auction.ParticipantID]world.Waypoint

	profit  float64
	lastAct float64
}

// NewStorageManager builds and registers the storage manager.
func NewStorageManager(dir *Directory) *StorageManager {
	m := &StorageManager{
		dir:    dir,
		unused: make(map[world.WaypointID]world.Waypoint),
		used:   make(map[auction.ParticipantID]world.Waypoint),
	}
	m.id = dir.Economy.RegisterAgent(m)
	dir.Storage = m
	return m
}

// ID returns the manager's market identity.
func (m *StorageManager) ID() auction.ParticipantID { return m.id }

// AddUnused records a free storage waypoint.
func (m *StorageManager) AddUnused(w world.Waypoint) {
	m.unused[w.ID] = w
}

// AddUsed records a waypoint already occupied by the given bucket.
func (m *StorageManager) AddUsed(bucket auction.ParticipantID, w world.Waypoint) {
	m.used[bucket] = w
}

// UsedWaypoint returns the waypoint occupied by the given bucket.
func (m *StorageManager) UsedWaypoint(bucket auction.ParticipantID) (world.Waypoint, bool) {
	w, ok := m.used[bucket]
	return w, ok
}

// UnusedSorted returns the free waypoints in ID order.
func (m *StorageManager) UnusedSorted() []world.Waypoint {
	out := make([]world.Waypoint, 0, len(m.unused))
	for _, w := range m.unused {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// UsedSorted returns the occupied waypoints in ID order.
func (m *StorageManager) UsedSorted() []world.Waypoint {
	out := make([]world.Waypoint, 0, len(m.used))
	for _, w := range m.used {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Claim moves a free waypoint to the given bucket.
func (m *StorageManager) Claim(bucket auction.ParticipantID, id world.WaypointID) {
	w, ok := m.unused[id]
	if !ok {
		return
	}
	delete(m.unused, id)
	m.used[bucket] = w
}

// Release frees the waypoint occupied by the given bucket. Releasing a
// bucket that holds nothing is a no-op.
func (m *StorageManager) Release(bucket auction.ParticipantID) {
	w, ok := m.used[bucket]
	if !ok {
		return
	}
	delete(m.used, bucket)
	m.unused[w.ID] = w
}

// AddProfit adjusts the manager's ledger.
func (m *StorageManager) AddProfit(v float64) { m.profit += v }

// Profit returns the manager's ledger balance.
func (m *StorageManager) Profit() float64 { return m.profit }

// NextEventTime reports the next ask refresh.
func (m *StorageManager) NextEventTime(now float64) float64 {
	return m.lastAct + m.dir.Params.BidInterval
}

// Update refreshes the standing asks: one per free waypoint, at zero.
func (m *StorageManager) Update(last, now float64) {
	if now < m.lastAct+m.dir.Params.BidInterval {
		return
	}
	m.lastAct = now

	markets := m.dir.Economy.StorageMarkets()
	if len(markets) == 0 {
		return
	}
	for _, sm := range markets {
		sm.WithdrawAsks(m.id)
	}
	sm := markets[0]
	for _, w := range m.UnusedSorted() {
		sm.SubmitAsk(m.id, auction.ItemType(w.ID), auction.ItemRef(w.ID), 0)
	}
}
