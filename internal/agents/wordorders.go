package agents

import (
	"sort"

	"github.com/soupworks/lettermarket/internal/auction"
	"github.com/soupworks/lettermarket/internal/world"
)

// WordOrderManager dispenses incoming word orders to word stations through
// one single-item book per word: the manager bids the word's completion
// revenue, stations ask their cost to build it, and a station winning the
// seller band takes the word with the largest bid-ask spread when it has
// capacity.
type WordOrderManager struct {
	dir *Directory
	id  auction.ParticipantID

	markets map[world.WordID]*auction.Book
	words   map[world.WordID]*world.Word

	profit  float64
	lastAct float64
}

// NewWordOrderManager builds and registers the word order manager.
func NewWordOrderManager(dir *Directory) *WordOrderManager {
	m := &WordOrderManager{
		dir:     dir,
		markets: make(map[world.WordID]*auction.Book),
		words:   make(map[world.WordID]*world.Word),
	}
	m.id = dir.Economy.RegisterAgent(m)
	dir.WordOrders = m
	return m
}

// ID returns the manager's market identity.
func (m *WordOrderManager) ID() auction.ParticipantID { return m.id }

// Profit returns the manager's ledger balance.
func (m *WordOrderManager) Profit() float64 { return m.profit }

// MarketWordIDs returns the words currently on the market in ID order, so
// stations can sweep the books deterministically.
func (m *WordOrderManager) MarketWordIDs() []world.WordID {
	ids := make([]world.WordID, 0, len(m.markets))
	for id := range m.markets {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Market returns the book for one word order.
func (m *WordOrderManager) Market(id world.WordID) (*auction.Book, *world.Word) {
	return m.markets[id], m.words[id]
}

// openMarket puts a new word order on the market, bidding its full
// completion revenue.
func (m *WordOrderManager) openMarket(w *world.Word) {
	if _, ok := m.markets[w.ID]; ok {
		return
	}
	b := auction.NewBook()
	revenue := m.dir.Economy.RevenueForWord(len(w.Slots))
	b.SubmitBid(m.id, auction.NoItem, revenue)
	m.profit += revenue
	m.markets[w.ID] = b
	m.words[w.ID] = w
}

// NextEventTime reports the next dispensing pass.
func (m *WordOrderManager) NextEventTime(now float64) float64 {
	return m.lastAct + m.dir.Params.BidInterval
}

// Update markets any new word orders, then hands words to stations that
// have capacity and are winning their auctions.
func (m *WordOrderManager) Update(last, now float64) {
	if now < m.lastAct+m.dir.Params.BidInterval {
		return
	}
	m.lastAct = now

	for _, w := range m.dir.Words.Available() {
		m.openMarket(w)
	}

	for _, ws := range m.dir.WordStations {
		if !ws.HasCapacity() {
			continue
		}

		// Among auctions this station is winning, take the word with
		// the largest bid-ask spread.
		available := m.dir.Words.Available()
		best := -1
		largestSpread := 0.0
		for i, w := range available {
			book, ok := m.markets[w.ID]
			if !ok || !book.SellerInTradingSet(ws.ID()) {
				continue
			}
			spread := book.AskPrice() - book.BidPrice()
			if spread > largestSpread {
				largestSpread = spread
				best = i
			}
		}
		if best < 0 {
			continue
		}

		w := m.dir.Words.Take(best)
		m.openMarket(m.dir.Words.Available()[best])

		book := m.markets[w.ID]
		e, ok := book.AcceptNextSellerExchange(ws.ID())
		delete(m.markets, w.ID)
		delete(m.words, w.ID)
		if !ok {
			continue
		}

		ws.AssignWord(w)
		ws.AddProfit(e.Value)
		m.profit -= e.Value

		m.dir.Letters.NewWordAssigned(ws, w)
	}
}
