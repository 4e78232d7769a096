package agents

import (
	"sort"

	"github.com/soupworks/lettermarket/internal/auction"
	"github.com/soupworks/lettermarket/internal/economy"
	"github.com/soupworks/lettermarket/internal/world"
)

// WordStation assembles words from delivered letters. It bids the marginal
// letter revenue for every letter it still needs in its situated market,
// and asks into the word-order books priced by what each word's letters
// would cost it.
type WordStation struct {
	dir    *Directory
	id     auction.ParticipantID
	body   world.Circle
	market *auction.Router

	assigned []*world.Word

	// Market-side: letters not yet claimed by any bucket.
	outstanding map[world.LetterID]economy.OutstandingLetter
	// Physical side: where each requested letter lands when it arrives.
	claims map[world.LetterID]slotClaim

	profit  float64
	lastBid float64
}

type slotClaim struct {
	word *world.Word
	slot int
}

// NewWordStation builds a word station, registers it, and adds it to the
// directory roster.
func NewWordStation(dir *Directory, body world.Circle) *WordStation {
	s := &WordStation{
		dir:         dir,
		body:        body,
		outstanding: make(map[world.LetterID]economy.OutstandingLetter),
		claims:      make(map[world.LetterID]slotClaim),
	}
	s.id, s.market = dir.Economy.RegisterWordStation(s, body.Center)
	dir.WordStations = append(dir.WordStations, s)
	return s
}

// ID returns the station's market identity.
func (s *WordStation) ID() auction.ParticipantID { return s.id }

// Location returns the station's floor position.
func (s *WordStation) Location() world.Point { return s.body.Center }

// Profit returns the station's ledger balance.
func (s *WordStation) Profit() float64 { return s.profit }

// AddProfit adjusts the station's ledger.
func (s *WordStation) AddProfit(v float64) { s.profit += v }

// HasCapacity reports whether the station can take another word order.
func (s *WordStation) HasCapacity() bool {
	return len(s.assigned) < s.dir.Params.WordStationCapacity
}

// AssignWord accepts a word order: one letter request is minted per slot.
func (s *WordStation) AssignWord(w *world.Word) {
	s.assigned = append(s.assigned, w)
	for i, slot := range w.Slots {
		l := s.dir.NextLetter(slot.Type)
		s.outstanding[l.ID] = economy.OutstandingLetter{Letter: l, Word: w.ID, Station: s.id}
		s.claims[l.ID] = slotClaim{word: w, slot: i}
	}
}

// OutstandingLetters snapshots the station's unclaimed letter requests in
// letter-ID order.
func (s *WordStation) OutstandingLetters() []economy.OutstandingLetter {
	out := make([]economy.OutstandingLetter, 0, len(s.outstanding))
	for _, o := range s.outstanding {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Letter.ID < out[j].Letter.ID })
	return out
}

// LetterBought settles a letter claim: the request leaves the market and
// the station pays. The physical letter arrives later, by bucketbot.
func (s *WordStation) LetterBought(e auction.Exchange) {
	delete(s.outstanding, world.LetterID(e.BuyerItem))
	s.profit -= e.Value
}

// ReceiveLetter takes one delivered letter, fills its word slot, and
// retires the word when its last slot fills.
func (s *WordStation) ReceiveLetter(stationLetter world.LetterID) {
	c, ok := s.claims[stationLetter]
	if !ok {
		return
	}
	delete(s.claims, stationLetter)
	c.word.Slots[c.slot].Filled = true
	if !c.word.Completed() {
		return
	}

	s.dir.Words.RecordCompleted()
	for i, w := range s.assigned {
		if w == c.word {
			s.assigned = append(s.assigned[:i], s.assigned[i+1:]...)
			break
		}
	}
}

// marketValueOfLetter prices one needed letter: the going ask in the
// station's own market when that undercuts the marginal revenue, otherwise
// the marginal revenue shaved by a random factor so stations spread their
// word asks apart.
func (s *WordStation) marketValueOfLetter(t world.LetterType) float64 {
	marginal := s.dir.Economy.MarginalLetterRevenue()
	if p := s.market.AskPrice(auction.ItemType(t)); p < marginal {
		return p
	}
	return marginal * (1 - 0.5*s.dir.Rand.Float64())
}

// NextEventTime reports the next bid refresh.
func (s *WordStation) NextEventTime(now float64) float64 {
	return s.lastBid + s.dir.Params.BidInterval
}

// Update refreshes the station's standing orders: a bid per outstanding
// letter, and an ask per marketed word order.
func (s *WordStation) Update(last, now float64) {
	if now < s.lastBid+s.dir.Params.BidInterval {
		return
	}
	s.lastBid = now

	marginal := s.dir.Economy.MarginalLetterRevenue()
	s.market.WithdrawBids(s.id)
	for _, o := range s.OutstandingLetters() {
		s.market.SubmitBid(s.id, auction.ItemType(o.Letter.Type), auction.ItemRef(o.Letter.ID), marginal)
	}

	for _, id := range s.dir.WordOrders.MarketWordIDs() {
		book, w := s.dir.WordOrders.Market(id)
		if book == nil || w == nil {
			continue
		}
		book.WithdrawAsks(s.id)
		ask := 0.0
		for _, slot := range w.Slots {
			ask += s.marketValueOfLetter(slot.Type)
		}
		book.SubmitAsk(s.id, auction.NoItem, ask)
	}
}
