package economy

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"sort"

	"github.com/soupworks/lettermarket/internal/auction"
	"github.com/soupworks/lettermarket/internal/world"
)

// Config holds the economy's tunables, consumed read-only at construction.
type Config struct {
	// Revenue for a completed word: base plus marginal per letter.
	WordBaseRevenue       float64
	LetterMarginalRevenue float64

	// Clearing cadence in simulation time units.
	ClearingInterval float64

	AllocatorTrials     int
	AllocatorCostWeight float64
}

// DefaultConfig returns the stock tuning.
func DefaultConfig() Config {
	return Config{
		WordBaseRevenue:       20,
		LetterMarginalRevenue: 10,
		ClearingInterval:      0.5,
		AllocatorTrials:       DefaultAllocatorTrials,
		AllocatorCostWeight:   DefaultCostWeight,
	}
}

// ExchangeKind labels which market family produced an exchange.
type ExchangeKind string

const (
	KindTransportation ExchangeKind = "transportation"
	KindLetter         ExchangeKind = "letter"
	KindBundle         ExchangeKind = "bundle"
)

// Economy owns every market and participant record. Agents hold IDs and
// router handles, never references into the economy's state.
type Economy struct {
	cfg Config
	rng *rand.Rand

	participants []participant

	buckets        []auction.ParticipantID
	bucketbots     []auction.ParticipantID
	wordStations   []auction.ParticipantID
	letterStations []auction.ParticipantID

	letterToWordMarkets  []*auction.Router
	letterStationMarkets []*auction.Router
	transportationByID   map[world.WaypointID]*auction.Router
	transportation       []*auction.Router
	storageMarkets       []*auction.Router

	// Side table: one router implementation serves every family, so the
	// location annotation lives here rather than on the router.
	marketLocation map[*auction.Router]world.Point

	wordStationLocs []world.Point

	allocator    *Allocator
	bundleOffers map[auction.ParticipantID]BundleOffer

	lastClear float64

	onExchange func(kind ExchangeKind, e auction.Exchange)
}

// New builds an empty economy. The rng drives allocator trials; pass a
// seeded source for reproducible runs.
func New(cfg Config, rng *rand.Rand) *Economy {
	return &Economy{
		cfg:                cfg,
		rng:                rng,
		transportationByID: make(map[world.WaypointID]*auction.Router),
		marketLocation:     make(map[*auction.Router]world.Point),
		bundleOffers:       make(map[auction.ParticipantID]BundleOffer),
		lastClear:          math.Inf(-1),
	}
}

// SetExchangeHook installs an observer invoked after each settled exchange.
func (ec *Economy) SetExchangeHook(fn func(kind ExchangeKind, e auction.Exchange)) {
	ec.onExchange = fn
}

func (ec *Economy) register(agent any) auction.ParticipantID {
	id := auction.ParticipantID(len(ec.participants))
	ec.participants = append(ec.participants, participant{id: id, agent: agent})
	return id
}

func (ec *Economy) agent(id auction.ParticipantID) any {
	if id < 0 || int(id) >= len(ec.participants) {
		return nil
	}
	return ec.participants[id].agent
}

func (ec *Economy) situate(m *auction.Router, loc world.Point) *auction.Router {
	ec.marketLocation[m] = loc
	return m
}

// RegisterBucket records a bucket participant.
func (ec *Economy) RegisterBucket(agent any) auction.ParticipantID {
	id := ec.register(agent)
	ec.buckets = append(ec.buckets, id)
	return id
}

// RegisterBucketbot records a bucketbot participant.
func (ec *Economy) RegisterBucketbot(agent BucketbotParticipant) auction.ParticipantID {
	id := ec.register(agent)
	ec.bucketbots = append(ec.bucketbots, id)
	return id
}

// RegisterWordStation records a word station at the given location and
// creates its situated letter market. The returned router is where buckets
// sell letters to this station.
func (ec *Economy) RegisterWordStation(agent WordStationParticipant, loc world.Point) (auction.ParticipantID, *auction.Router) {
	id := ec.register(agent)
	ec.wordStations = append(ec.wordStations, id)
	ec.wordStationLocs = append(ec.wordStationLocs, loc)
	m := ec.situate(auction.NewRouter(), loc)
	ec.letterToWordMarkets = append(ec.letterToWordMarkets, m)
	return id, m
}

// RegisterLetterStation records a letter station and creates its situated
// bundle market, where buckets buy letter bundles from the station.
func (ec *Economy) RegisterLetterStation(agent any, loc world.Point) (auction.ParticipantID, *auction.Router) {
	id := ec.register(agent)
	ec.letterStations = append(ec.letterStations, id)
	m := ec.situate(auction.NewRouter(), loc)
	ec.letterStationMarkets = append(ec.letterStationMarkets, m)
	return id, m
}

// RegisterAgent records a participant that trades only through accept
// paths (the storage manager, the order managers).
func (ec *Economy) RegisterAgent(agent any) auction.ParticipantID {
	return ec.register(agent)
}

// AddTransportationMarket creates the situated transportation market
// co-located with one storage waypoint.
func (ec *Economy) AddTransportationMarket(w world.Waypoint) *auction.Router {
	m := ec.situate(auction.NewRouter(), w.Loc)
	ec.transportation = append(ec.transportation, m)
	ec.transportationByID[w.ID] = m
	return m
}

// AddStorageMarket creates a situated storage market.
func (ec *Economy) AddStorageMarket(loc world.Point) *auction.Router {
	m := ec.situate(auction.NewRouter(), loc)
	ec.storageMarkets = append(ec.storageMarkets, m)
	return m
}

// TransportationMarketAt returns the transportation market co-located with
// the given storage waypoint, nil when none exists.
func (ec *Economy) TransportationMarketAt(id world.WaypointID) *auction.Router {
	return ec.transportationByID[id]
}

// TransportationMarkets returns every transportation market in creation
// order.
func (ec *Economy) TransportationMarkets() []*auction.Router {
	return ec.transportation
}

// StorageMarkets returns every storage market in creation order.
func (ec *Economy) StorageMarkets() []*auction.Router {
	return ec.storageMarkets
}

// LetterToWordMarkets returns the per-word-station letter markets in
// registration order.
func (ec *Economy) LetterToWordMarkets() []*auction.Router {
	return ec.letterToWordMarkets
}

// LetterStationMarkets returns the per-letter-station bundle markets in
// registration order.
func (ec *Economy) LetterStationMarkets() []*auction.Router {
	return ec.letterStationMarkets
}

// MarketLocation returns a market's fixed location.
func (ec *Economy) MarketLocation(m *auction.Router) (world.Point, bool) {
	loc, ok := ec.marketLocation[m]
	return loc, ok
}

// FinalizeWordStations builds the travel-cost table and the allocator once
// every word station has been registered. Must be called before the first
// clearing cycle; the station set cannot change afterwards.
func (ec *Economy) FinalizeWordStations() error {
	table, err := NewTravelCostTable(ec.wordStations, ec.wordStationLocs)
	if err != nil {
		return fmt.Errorf("finalize word stations: %w", err)
	}
	ec.allocator = NewAllocator(table, ec.cfg.AllocatorTrials, ec.cfg.AllocatorCostWeight,
		ec.cfg.LetterMarginalRevenue, ec.rng)
	return nil
}

// RevenueForWord returns the revenue generated by completing a word of the
// given letter count.
func (ec *Economy) RevenueForWord(letterCount int) float64 {
	return ec.cfg.WordBaseRevenue + ec.cfg.LetterMarginalRevenue*float64(letterCount)
}

// MarginalLetterRevenue returns the per-letter revenue rate.
func (ec *Economy) MarginalLetterRevenue() float64 {
	return ec.cfg.LetterMarginalRevenue
}

// SubmitBundleOffer replaces the bucket's bundle offer for this cycle.
func (ec *Economy) SubmitBundleOffer(o BundleOffer) {
	ec.bundleOffers[o.Bucket] = o
}

// WithdrawBundleOffer removes the bucket's standing bundle offer.
// Withdrawing an absent offer is a no-op.
func (ec *Economy) WithdrawBundleOffer(bucket auction.ParticipantID) {
	delete(ec.bundleOffers, bucket)
}

// NextEventTime reports when the next clearing cycle is due.
func (ec *Economy) NextEventTime(now float64) float64 {
	return ec.lastClear + ec.cfg.ClearingInterval
}

// Update runs one clearing cycle when the cadence is due: the bundle
// allocator first, then the transportation markets, then the letter
// station markets. Letter-to-word markets clear only through the
// allocator.
func (ec *Economy) Update(last, now float64) {
	if now < ec.lastClear+ec.cfg.ClearingInterval {
		return
	}
	ec.lastClear = now

	ec.clearBundleOffers()
	ec.clearTransportation()
	ec.clearLetterStationMarkets()
}

func (ec *Economy) emit(kind ExchangeKind, e auction.Exchange) {
	if ec.onExchange != nil {
		ec.onExchange(kind, e)
	}
}

// settleTransportation dispatches one transportation exchange, buyer first.
func (ec *Economy) settleTransportation(e auction.Exchange) {
	if b, ok := ec.agent(e.Buyer).(TransportationBuyer); ok {
		b.TransportationBought(e)
	}
	if s, ok := ec.agent(e.Seller).(TransportationSeller); ok {
		s.TransportationSold(e)
	}
	ec.emit(KindTransportation, e)
}

func (ec *Economy) settleLetter(e auction.Exchange) {
	if b, ok := ec.agent(e.Buyer).(LetterBuyer); ok {
		b.LetterBought(e)
	}
	if s, ok := ec.agent(e.Seller).(LetterSeller); ok {
		s.LetterSold(e)
	}
	ec.emit(KindLetter, e)
}

func (ec *Economy) settleBundle(e auction.Exchange) {
	if b, ok := ec.agent(e.Buyer).(BundleBuyer); ok {
		b.LetterBundleBought(e)
	}
	if s, ok := ec.agent(e.Seller).(BundleSeller); ok {
		s.LetterBundleSold(e)
	}
	ec.emit(KindBundle, e)
}

// clearBundleOffers snapshots the combinatorial inputs, runs the
// allocator, and settles the winning awards as synthesized transportation
// and letter exchanges. Offers are discarded afterwards regardless of
// outcome.
func (ec *Economy) clearBundleOffers() {
	if ec.allocator == nil {
		return
	}

	var outstanding []OutstandingLetter
	for _, id := range ec.wordStations {
		if ws, ok := ec.agent(id).(WordStationParticipant); ok {
			outstanding = append(outstanding, ws.OutstandingLetters()...)
		}
	}

	var freeBots []auction.ParticipantID
	for _, id := range ec.bucketbots {
		if bb, ok := ec.agent(id).(BucketbotParticipant); ok && bb.Available() {
			freeBots = append(freeBots, id)
		}
	}

	offers := make([]BundleOffer, 0, len(ec.bundleOffers))
	for _, id := range sortedOfferKeys(ec.bundleOffers) {
		offers = append(offers, ec.bundleOffers[id])
	}
	ec.bundleOffers = make(map[auction.ParticipantID]BundleOffer)

	awards := ec.allocator.Allocate(outstanding, freeBots, offers)
	if len(awards) > 0 {
		slog.Debug("bundle awards", "count", len(awards), "offers", len(offers),
			"outstanding", len(outstanding), "free_bots", len(freeBots))
	}

	for i := range awards {
		a := &awards[i]
		ec.settleTransportation(auction.Exchange{
			Seller:     a.Bot,
			SellerItem: auction.NoItem,
			Buyer:      a.Bucket,
			BuyerItem:  auction.NoItem,
			Value:      a.BotCost,
		})
		for _, d := range a.Deliveries {
			ec.settleLetter(auction.Exchange{
				Seller:     a.Bucket,
				SellerItem: auction.ItemRef(d.BucketLetter.ID),
				Buyer:      d.Station,
				BuyerItem:  auction.ItemRef(d.StationLetter.ID),
				Value:      d.Value,
			})
		}
	}
}

func sortedOfferKeys(m map[auction.ParticipantID]BundleOffer) []auction.ParticipantID {
	keys := make([]auction.ParticipantID, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func idSet(ids []auction.ParticipantID) map[auction.ParticipantID]bool {
	set := make(map[auction.ParticipantID]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

func (ec *Economy) clearTransportation() {
	buyers := idSet(ec.buckets)
	sellers := idSet(ec.bucketbots)
	for _, m := range ec.transportation {
		for _, e := range m.Clear(buyers, sellers) {
			ec.settleTransportation(e)
		}
	}
}

func (ec *Economy) clearLetterStationMarkets() {
	buyers := idSet(ec.buckets)
	sellers := idSet(ec.letterStations)
	for _, m := range ec.letterStationMarkets {
		for _, e := range m.Clear(buyers, sellers) {
			ec.settleBundle(e)
		}
	}
}

// MarketFamilySummary reports one family's standing books for the API.
type MarketFamilySummary struct {
	Family   string                `json:"family"`
	Location world.Point           `json:"location"`
	Books    []auction.BookSummary `json:"books"`
}

// MarketSummaries reports every market's standing orders, family by
// family, in creation order.
func (ec *Economy) MarketSummaries() []MarketFamilySummary {
	var out []MarketFamilySummary
	add := func(family string, markets []*auction.Router) {
		for _, m := range markets {
			out = append(out, MarketFamilySummary{
				Family:   family,
				Location: ec.marketLocation[m],
				Books:    m.Summaries(),
			})
		}
	}
	add("letter_to_word", ec.letterToWordMarkets)
	add("letter_station", ec.letterStationMarkets)
	add("transportation", ec.transportation)
	add("storage", ec.storageMarkets)
	return out
}
