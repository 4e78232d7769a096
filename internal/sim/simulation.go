// Package sim assembles a runnable facility: it generates the floor layout,
// builds the economy and its markets, creates every agent, and drives the
// whole thing from one discrete-event clock.
package sim

import (
	"fmt"
	"log/slog"
	"math/rand"
	"sync"

	"github.com/soupworks/lettermarket/internal/agents"
	"github.com/soupworks/lettermarket/internal/auction"
	"github.com/soupworks/lettermarket/internal/economy"
	"github.com/soupworks/lettermarket/internal/engine"
	"github.com/soupworks/lettermarket/internal/world"
)

// Options collects everything needed to build a simulation.
type Options struct {
	Seed       int64
	Layout     world.LayoutConfig
	Economy    economy.Config
	Params     agents.Params
	Dictionary []string
	OpenWords  int

	// Letters each bucket starts with, drawn from the dictionary's letter
	// distribution.
	InitialBucketLetters int
}

// DefaultOptions returns the stock facility setup.
func DefaultOptions() Options {
	return Options{
		Seed:                 1,
		Layout:               world.DefaultLayoutConfig(),
		Economy:              economy.DefaultConfig(),
		Params:               agents.DefaultParams(),
		Dictionary:           []string{"cat", "dog", "soup", "word", "market", "letter"},
		OpenWords:            6,
		InitialBucketLetters: 4,
	}
}

// Simulation is one assembled facility. The clock loop and HTTP observers
// run on different goroutines; Step takes the write lock and the snapshot
// accessors (Stats, Profits, MarketSummaries, OpenWords) take the read
// lock, so observers never see a half-mutated facility.
type Simulation struct {
	Opts     Options
	Facility *world.Facility
	Economy  *economy.Economy
	Dir      *agents.Directory
	Clock    *engine.Clock

	mu sync.RWMutex
}

// New builds the facility: layout, markets, managers, stations, buckets,
// and bucketbots, all registered on the clock in a fixed order.
func New(opts Options) (*Simulation, error) {
	if len(opts.Dictionary) == 0 {
		return nil, fmt.Errorf("sim: empty dictionary")
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	opts.Layout.Seed = opts.Seed

	facility := world.GenerateFacility(opts.Layout)
	if len(facility.Storage) < opts.Layout.Bucketbots {
		return nil, fmt.Errorf("sim: %d storage waypoints cannot hold %d buckets",
			len(facility.Storage), opts.Layout.Bucketbots)
	}

	ec := economy.New(opts.Economy, rng)
	dir := &agents.Directory{
		Params:   opts.Params,
		Economy:  ec,
		Facility: facility,
		Words:    world.NewWordList(opts.Dictionary, opts.OpenWords, rng),
		Rand:     rng,
	}

	storage := agents.NewStorageManager(dir)
	wordOrders := agents.NewWordOrderManager(dir)
	letters := agents.NewLetterManager(dir)

	for _, c := range facility.WordStations {
		agents.NewWordStation(dir, c)
	}
	for _, c := range facility.LetterStations {
		agents.NewLetterStation(dir, c)
	}
	if err := ec.FinalizeWordStations(); err != nil {
		return nil, fmt.Errorf("sim: %w", err)
	}

	ec.AddStorageMarket(facility.Center())
	for _, w := range facility.Storage {
		ec.AddTransportationMarket(w)
	}

	// Buckets start parked at the first waypoints; the rest stay free.
	alphabet := letterPool(opts.Dictionary)
	for i := 0; i < opts.Layout.Bucketbots; i++ {
		w := facility.Storage[i]
		b := agents.NewBucket(dir, world.Circle{Center: w.Loc, Radius: 1})
		dir.Storage.AddUsed(b.ID(), w)
		b.SetStorage(w.ID)
		for j := 0; j < opts.InitialBucketLetters; j++ {
			t := alphabet[rng.Intn(len(alphabet))]
			b.AddLetter(dir.NextLetter(t))
		}
	}
	for _, w := range facility.Storage[opts.Layout.Bucketbots:] {
		dir.Storage.AddUnused(w)
	}

	for _, p := range facility.BucketbotStarts {
		agents.NewBucketbot(dir, p)
	}

	clock := engine.NewClock()
	clock.Register(ec)
	clock.Register(storage)
	clock.Register(wordOrders)
	clock.Register(letters)
	for _, s := range dir.WordStations {
		clock.Register(s)
	}
	for _, s := range dir.LetterStations {
		clock.Register(s)
	}
	for _, b := range dir.Buckets {
		clock.Register(b)
	}
	for _, b := range dir.Bots {
		clock.Register(b)
	}

	slog.Info("facility assembled",
		"word_stations", len(dir.WordStations),
		"letter_stations", len(dir.LetterStations),
		"buckets", len(dir.Buckets),
		"bucketbots", len(dir.Bots),
		"storage_waypoints", len(facility.Storage),
		"dictionary", len(opts.Dictionary),
	)

	return &Simulation{
		Opts:     opts,
		Facility: facility,
		Economy:  ec,
		Dir:      dir,
		Clock:    clock,
	}, nil
}

func letterPool(dictionary []string) []world.LetterType {
	var pool []world.LetterType
	for _, w := range dictionary {
		for _, r := range w {
			pool = append(pool, world.LetterType(r))
		}
	}
	return pool
}

// Stats is one snapshot of the facility's headline numbers.
type Stats struct {
	Time           float64 `json:"time"`
	CompletedWords int     `json:"completed_words"`
	TotalProfit    float64 `json:"total_profit"`
}

// Step advances the clock by one event and returns the new time.
func (s *Simulation) Step() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Clock.Step()
}

// Now returns the current simulation time.
func (s *Simulation) Now() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Clock.Now()
}

// Stats snapshots the facility.
func (s *Simulation) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := 0.0
	for _, p := range s.profits() {
		total += p.Profit
	}
	return Stats{
		Time:           s.Clock.Now(),
		CompletedWords: s.Dir.Words.CompletedCount(),
		TotalProfit:    total,
	}
}

// MarketSummaries snapshots every market's standing orders.
func (s *Simulation) MarketSummaries() []economy.MarketFamilySummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Economy.MarketSummaries()
}

// WordStatus is one open word's assembly progress.
type WordStatus struct {
	ID    int32  `json:"id"`
	Text  string `json:"text"`
	Slots int    `json:"slots"`
	Open  int    `json:"open"`
}

// OpenWords snapshots the open word orders and the completed-word count.
func (s *Simulation) OpenWords() ([]WordStatus, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var open []WordStatus
	for _, word := range s.Dir.Words.Available() {
		open = append(open, WordStatus{
			ID:    int32(word.ID),
			Text:  word.Text,
			Slots: len(word.Slots),
			Open:  word.OpenSlotCount(),
		})
	}
	return open, s.Dir.Words.CompletedCount()
}

// AgentProfit is one agent's ledger balance.
type AgentProfit struct {
	ID     auction.ParticipantID `json:"id"`
	Kind   string                `json:"kind"`
	Profit float64               `json:"profit"`
}

// Profits lists every agent's balance, managers first, in creation order.
func (s *Simulation) Profits() []AgentProfit {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profits()
}

func (s *Simulation) profits() []AgentProfit {
	out := []AgentProfit{
		{ID: s.Dir.Storage.ID(), Kind: "storage_manager", Profit: s.Dir.Storage.Profit()},
		{ID: s.Dir.WordOrders.ID(), Kind: "word_order_manager", Profit: s.Dir.WordOrders.Profit()},
		{ID: s.Dir.Letters.ID(), Kind: "letter_manager", Profit: s.Dir.Letters.Profit()},
	}
	for _, a := range s.Dir.WordStations {
		out = append(out, AgentProfit{ID: a.ID(), Kind: "word_station", Profit: a.Profit()})
	}
	for _, a := range s.Dir.LetterStations {
		out = append(out, AgentProfit{ID: a.ID(), Kind: "letter_station", Profit: a.Profit()})
	}
	for _, a := range s.Dir.Buckets {
		out = append(out, AgentProfit{ID: a.ID(), Kind: "bucket", Profit: a.Profit()})
	}
	for _, a := range s.Dir.Bots {
		out = append(out, AgentProfit{ID: a.ID(), Kind: "bucketbot", Profit: a.Profit()})
	}
	return out
}
