package economy

import (
	"math/rand"
	"testing"

	"github.com/soupworks/lettermarket/internal/auction"
	"github.com/soupworks/lettermarket/internal/world"
)

// Stub participants recording settlement callbacks in arrival order.

type stubStation struct {
	log         *[]string
	outstanding []OutstandingLetter
}

func (s *stubStation) LetterBought(e auction.Exchange) {
	*s.log = append(*s.log, "station.letterBought")
}
func (s *stubStation) OutstandingLetters() []OutstandingLetter {
	return s.outstanding
}

type stubBot struct {
	log       *[]string
	available bool
}

func (b *stubBot) TransportationSold(e auction.Exchange) {
	*b.log = append(*b.log, "bot.transportationSold")
}
func (b *stubBot) Available() bool { return b.available }

type stubBucket struct{ log *[]string }

func (b *stubBucket) TransportationBought(e auction.Exchange) {
	*b.log = append(*b.log, "bucket.transportationBought")
}
func (b *stubBucket) LetterSold(e auction.Exchange) { *b.log = append(*b.log, "bucket.letterSold") }
func (b *stubBucket) LetterBundleBought(e auction.Exchange) {
	*b.log = append(*b.log, "bucket.bundleBought")
}

type stubLetterStation struct{ log *[]string }

func (s *stubLetterStation) LetterBundleSold(e auction.Exchange) {
	*s.log = append(*s.log, "letterstation.bundleSold")
}

func testEconomy() *Economy {
	cfg := DefaultConfig()
	cfg.AllocatorTrials = 20
	return New(cfg, rand.New(rand.NewSource(7)))
}

func TestRevenueForWord(t *testing.T) {
	ec := testEconomy()
	// base 20 + 10 per letter
	if got := ec.RevenueForWord(4); got != 60 {
		t.Errorf("RevenueForWord(4) = %v, want 60", got)
	}
}

func TestEconomyCycleOrderAndSettlement(t *testing.T) {
	ec := testEconomy()
	var log []string

	bucket := &stubBucket{log: &log}
	bot := &stubBot{log: &log, available: true}
	ws := &stubStation{log: &log}
	ls := &stubLetterStation{log: &log}

	bucketID := ec.RegisterBucket(bucket)
	botID := ec.RegisterBucketbot(bot)
	wsID, _ := ec.RegisterWordStation(ws, world.Point{X: 0, Y: 0})
	lsID, bundleMarket := ec.RegisterLetterStation(ls, world.Point{X: 20, Y: 0})
	if err := ec.FinalizeWordStations(); err != nil {
		t.Fatalf("FinalizeWordStations: %v", err)
	}

	// Outstanding request the allocator can serve.
	ws.outstanding = []OutstandingLetter{
		{Letter: letter(1, 'a'), Word: 1, Station: wsID},
	}
	ec.SubmitBundleOffer(BundleOffer{
		Bucket:  bucketID,
		Loc:     world.Point{X: 1, Y: 0},
		Bots:    []BotOption{{Bot: botID, Cost: 2, Loc: world.Point{X: 1, Y: 1}}},
		Letters: []LetterOffer{{Letter: letter(100, 'a'), Value: 1}},
	})

	// Ordinary transportation pairing at a storage waypoint.
	tm := ec.AddTransportationMarket(world.Waypoint{ID: 0, Loc: world.Point{X: 5, Y: 5}})
	tm.SubmitAsk(botID, 0, auction.NoItem, 3)
	tm.SubmitBid(bucketID, 0, auction.NoItem, 4)

	// Ordinary bundle pairing at the letter station.
	bundleMarket.SubmitAsk(lsID, auction.ItemType('a'), auction.NoItem, 1)
	bundleMarket.SubmitBid(bucketID, auction.ItemType('a'), auction.NoItem, 2)

	ec.Update(0, 0)

	want := []string{
		// Allocator awards settle first, buyer before seller.
		"bucket.transportationBought",
		"bot.transportationSold",
		"station.letterBought",
		"bucket.letterSold",
		// Then the transportation markets.
		"bucket.transportationBought",
		"bot.transportationSold",
		// Then the letter-station markets.
		"bucket.bundleBought",
		"letterstation.bundleSold",
	}
	if len(log) != len(want) {
		t.Fatalf("settlement log = %v, want %v", log, want)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Fatalf("settlement log = %v, want %v", log, want)
		}
	}
}

func TestEconomyHonorsCadence(t *testing.T) {
	ec := testEconomy()
	var log []string
	bucket := &stubBucket{log: &log}
	bot := &stubBot{log: &log, available: true}
	bucketID := ec.RegisterBucket(bucket)
	botID := ec.RegisterBucketbot(bot)

	tm := ec.AddTransportationMarket(world.Waypoint{ID: 0, Loc: world.Point{}})
	tm.SubmitAsk(botID, 0, auction.NoItem, 3)
	tm.SubmitBid(bucketID, 0, auction.NoItem, 4)

	ec.Update(0, 0) // first cycle always due
	if len(log) != 2 {
		t.Fatalf("first cycle settled %d callbacks, want 2", len(log))
	}

	tm2 := ec.AddTransportationMarket(world.Waypoint{ID: 1, Loc: world.Point{}})
	tm2.SubmitAsk(botID, 1, auction.NoItem, 3)
	tm2.SubmitBid(bucketID, 1, auction.NoItem, 4)

	ec.Update(0, 0.3) // within the 0.5 interval
	if len(log) != 2 {
		t.Fatalf("early update cleared markets; log = %v", log)
	}
	if got := ec.NextEventTime(0.3); got != 0.5 {
		t.Errorf("NextEventTime = %v, want 0.5", got)
	}

	ec.Update(0.3, 0.5)
	if len(log) != 4 {
		t.Fatalf("due update settled %d callbacks total, want 4", len(log))
	}
}

func TestBundleOffersDiscardedEachCycle(t *testing.T) {
	ec := testEconomy()
	var log []string

	bucket := &stubBucket{log: &log}
	bot := &stubBot{log: &log, available: true}
	ws := &stubStation{log: &log}

	bucketID := ec.RegisterBucket(bucket)
	botID := ec.RegisterBucketbot(bot)
	wsID, _ := ec.RegisterWordStation(ws, world.Point{})
	if err := ec.FinalizeWordStations(); err != nil {
		t.Fatalf("FinalizeWordStations: %v", err)
	}

	ws.outstanding = []OutstandingLetter{{Letter: letter(1, 'a'), Word: 1, Station: wsID}}
	ec.SubmitBundleOffer(BundleOffer{
		Bucket:  bucketID,
		Loc:     world.Point{X: 1, Y: 0},
		Bots:    []BotOption{{Bot: botID, Cost: 2, Loc: world.Point{X: 1, Y: 1}}},
		Letters: []LetterOffer{{Letter: letter(100, 'a'), Value: 1}},
	})

	ec.Update(0, 0)
	settled := len(log)
	if settled == 0 {
		t.Fatal("first cycle produced no settlements")
	}

	// Same outstanding letter, but the offer was consumed: nothing new.
	ec.Update(0, 1)
	if len(log) != settled {
		t.Errorf("second cycle re-used a discarded offer; log = %v", log)
	}
}

func TestExchangeHookSeesEveryExchange(t *testing.T) {
	ec := testEconomy()
	var log []string
	var kinds []ExchangeKind
	ec.SetExchangeHook(func(kind ExchangeKind, e auction.Exchange) {
		kinds = append(kinds, kind)
	})

	bucket := &stubBucket{log: &log}
	bot := &stubBot{log: &log, available: true}
	bucketID := ec.RegisterBucket(bucket)
	botID := ec.RegisterBucketbot(bot)

	tm := ec.AddTransportationMarket(world.Waypoint{ID: 0, Loc: world.Point{}})
	tm.SubmitAsk(botID, 0, auction.NoItem, 3)
	tm.SubmitBid(bucketID, 0, auction.NoItem, 4)

	ec.Update(0, 0)
	if len(kinds) != 1 || kinds[0] != KindTransportation {
		t.Errorf("hook kinds = %v, want [transportation]", kinds)
	}
}

func TestMarketSummaries(t *testing.T) {
	ec := testEconomy()
	botID := ec.RegisterBucketbot(&stubBot{log: new([]string), available: true})
	tm := ec.AddTransportationMarket(world.Waypoint{ID: 0, Loc: world.Point{X: 3, Y: 4}})
	tm.SubmitAsk(botID, 0, auction.NoItem, 2)

	sums := ec.MarketSummaries()
	if len(sums) != 1 {
		t.Fatalf("got %d summaries, want 1", len(sums))
	}
	s := sums[0]
	if s.Family != "transportation" || s.Location.X != 3 || len(s.Books) != 1 {
		t.Errorf("summary = %+v", s)
	}
	if s.Books[0].Asks != 1 || s.Books[0].AskPrice != 2 {
		t.Errorf("book summary = %+v", s.Books[0])
	}
}
