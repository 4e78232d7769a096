package agents

import (
	"sort"

	"github.com/soupworks/lettermarket/internal/auction"
	"github.com/soupworks/lettermarket/internal/world"
)

// LetterStation holds dispensed letter bundles and sells them to buckets
// through its situated market, asking zero so a bundle goes to the highest
// bidder. It bids into the letter manager's dispensing books priced by the
// letter's value at nearby word stations, weighted inversely by distance.
type LetterStation struct {
	dir    *Directory
	id     auction.ParticipantID
	body   world.Circle
	market *auction.Router

	// Bundles on the market, keyed by their bundle letter.
	bundles []world.Letter
	// Bundles sold to a bucket, waiting for the bucketbot to arrive.
	awaitingPickup map[world.LetterID]world.Letter

	profit  float64
	lastBid float64
}

// NewLetterStation builds a letter station, registers it, and adds it to
// the directory roster.
func NewLetterStation(dir *Directory, body world.Circle) *LetterStation {
	s := &LetterStation{
		dir:            dir,
		body:           body,
		awaitingPickup: make(map[world.LetterID]world.Letter),
	}
	s.id, s.market = dir.Economy.RegisterLetterStation(s, body.Center)
	dir.LetterStations = append(dir.LetterStations, s)
	return s
}

// ID returns the station's market identity.
func (s *LetterStation) ID() auction.ParticipantID { return s.id }

// Location returns the station's floor position.
func (s *LetterStation) Location() world.Point { return s.body.Center }

// Profit returns the station's ledger balance.
func (s *LetterStation) Profit() float64 { return s.profit }

// AddProfit adjusts the station's ledger.
func (s *LetterStation) AddProfit(v float64) { s.profit += v }

// HasCapacity reports whether the station can take another bundle from
// the letter manager.
func (s *LetterStation) HasCapacity() bool {
	return len(s.bundles)+len(s.awaitingPickup) < s.dir.Params.LetterStationCapacity
}

// AddBundle accepts one dispensed bundle for sale.
func (s *LetterStation) AddBundle(l world.Letter) {
	s.bundles = append(s.bundles, l)
}

// LetterBundleSold settles a bundle sale: the bundle leaves the market and
// waits for its buyer's bucketbot.
func (s *LetterStation) LetterBundleSold(e auction.Exchange) {
	id := world.LetterID(e.SellerItem)
	for i, l := range s.bundles {
		if l.ID == id {
			s.bundles = append(s.bundles[:i], s.bundles[i+1:]...)
			s.awaitingPickup[id] = l
			break
		}
	}
	s.profit += e.Value
}

// TakeBundle hands a sold bundle over: the bundle letter plus the rest of
// the bundle, minted at pickup.
func (s *LetterStation) TakeBundle(id world.LetterID) []world.Letter {
	l, ok := s.awaitingPickup[id]
	if !ok {
		return nil
	}
	delete(s.awaitingPickup, id)
	letters := []world.Letter{l}
	for i := 1; i < s.dir.Params.BundleSize; i++ {
		letters = append(letters, s.dir.NextLetter(l.Type))
	}
	return letters
}

// NextEventTime reports the next bid refresh.
func (s *LetterStation) NextEventTime(now float64) float64 {
	return s.lastBid + s.dir.Params.BidInterval
}

// Update refreshes standing orders: an ask at zero per held bundle, and a
// bid per letter type the letter manager is dispensing.
func (s *LetterStation) Update(last, now float64) {
	if now < s.lastBid+s.dir.Params.BidInterval {
		return
	}
	s.lastBid = now

	s.market.WithdrawAsks(s.id)
	for _, l := range s.bundles {
		s.market.SubmitAsk(s.id, auction.ItemType(l.Type), auction.ItemRef(l.ID), 0)
	}

	books := s.dir.Letters.Books()
	types := make([]world.LetterType, 0, len(books))
	for t := range books {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	for _, t := range types {
		b := books[t]
		b.WithdrawBids(s.id)
		b.SubmitBid(s.id, auction.NoItem, s.dispensingBid(t))
	}
}

// dispensingBid prices one letter type by its bid at each word station's
// letter market, weighted inversely by distance. Prices are rescaled
// toward the bundle cost and never bid below it.
func (s *LetterStation) dispensingBid(t world.LetterType) float64 {
	cost := s.dir.Params.LetterBundleCost
	total := 0.0
	weight := 0.0
	for _, m := range s.dir.Economy.LetterToWordMarkets() {
		loc, ok := s.dir.Economy.MarketLocation(m)
		if !ok {
			continue
		}
		dist := 1 / loc.DistanceTo(s.body.Center)
		price := (m.BidPrice(auction.ItemType(t))-cost)/3 + cost
		if price < cost {
			price = cost
		}
		total += dist * price
		weight += dist
	}
	if weight == 0 {
		return cost
	}
	return total / weight
}
