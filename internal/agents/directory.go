// Package agents implements the facility's market participants: buckets,
// bucketbots, word and letter stations, and the three managers that feed
// them orders, letters, and storage. Agents reach the engine only through
// the economy's public surface; they hold handles and IDs, never
// references into its state.
package agents

import (
	"math/rand"
	"sync/atomic"

	"github.com/soupworks/lettermarket/internal/auction"
	"github.com/soupworks/lettermarket/internal/economy"
	"github.com/soupworks/lettermarket/internal/world"
)

// Params holds the agent-side tunables.
type Params struct {
	BidInterval float64 // cadence for refreshing standing orders

	BucketCapacity int
	BundleSize     int

	BotSpeed           float64 // floor distance per time unit
	PickupSetdownTime  float64
	LetterTransferTime float64

	WordStationCapacity   int
	LetterStationCapacity int

	LetterBundleCost float64
}

// DefaultParams returns the stock agent tuning.
func DefaultParams() Params {
	return Params{
		BidInterval:           0.5,
		BucketCapacity:        12,
		BundleSize:            2,
		BotSpeed:              8,
		PickupSetdownTime:     0.5,
		LetterTransferTime:    0.5,
		WordStationCapacity:   3,
		LetterStationCapacity: 6,
		LetterBundleCost:      4,
	}
}

// Directory is the shared context threaded through every agent: the economy,
// the facility, the word list, the managers, and the live agent rosters.
// It replaces any global lookup; agents receive it at construction.
type Directory struct {
	Params   Params
	Economy  *economy.Economy
	Facility *world.Facility
	Words    *world.WordList
	Rand     *rand.Rand

	Storage    *StorageManager
	WordOrders *WordOrderManager
	Letters    *LetterManager

	Buckets        []*Bucket
	Bots           []*Bucketbot
	WordStations   []*WordStation
	LetterStations []*LetterStation

	letterSeq atomic.Int32
}

// NextLetter mints a fresh letter instance of the given type. IDs are
// never reused within a run.
func (d *Directory) NextLetter(t world.LetterType) world.Letter {
	return world.Letter{ID: world.LetterID(d.letterSeq.Add(1)), Type: t}
}

// MaxFloorDistance is the facility diagonal, used as a price ceiling in
// storage bids.
func (d *Directory) MaxFloorDistance() float64 {
	return world.Point{}.DistanceTo(world.Point{X: d.Facility.Width, Y: d.Facility.Height})
}

// Roster lookups. Rosters are small, so linear scans suffice.

func (d *Directory) bucketByID(id auction.ParticipantID) *Bucket {
	for _, b := range d.Buckets {
		if b.ID() == id {
			return b
		}
	}
	return nil
}

func (d *Directory) botByID(id auction.ParticipantID) *Bucketbot {
	for _, b := range d.Bots {
		if b.ID() == id {
			return b
		}
	}
	return nil
}

func (d *Directory) wordStationByID(id auction.ParticipantID) *WordStation {
	for _, s := range d.WordStations {
		if s.ID() == id {
			return s
		}
	}
	return nil
}

func (d *Directory) letterStationByID(id auction.ParticipantID) *LetterStation {
	for _, s := range d.LetterStations {
		if s.ID() == id {
			return s
		}
	}
	return nil
}
