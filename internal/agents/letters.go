package agents

import (
	"github.com/soupworks/lettermarket/internal/auction"
	"github.com/soupworks/lettermarket/internal/world"
)

// LetterManager dispenses letter bundles to letter stations. When a word
// is assigned it mints the letters the facility now owes: one marketed
// bundle per letter not already covered by surplus, with the rest of each
// bundle recorded as surplus for future words.
type LetterManager struct {
	dir *Directory
	id  auction.ParticipantID

	books map[world.LetterType]*auction.Book

	required []world.Letter
	surplus  []world.Letter

	profit  float64
	lastAct float64
}

// NewLetterManager builds and registers the letter manager.
func NewLetterManager(dir *Directory) *LetterManager {
	m := &LetterManager{
		dir:   dir,
		books: make(map[world.LetterType]*auction.Book),
	}
	m.id = dir.Economy.RegisterAgent(m)
	dir.Letters = m
	return m
}

// ID returns the manager's market identity.
func (m *LetterManager) ID() auction.ParticipantID { return m.id }

// Profit returns the manager's ledger balance.
func (m *LetterManager) Profit() float64 { return m.profit }

// BundleCost returns the fixed cost of one letter bundle.
func (m *LetterManager) BundleCost() float64 { return m.dir.Params.LetterBundleCost }

// Books returns the per-letter-type dispensing books. Letter stations bid
// into these.
func (m *LetterManager) Books() map[world.LetterType]*auction.Book {
	return m.books
}

// NewWordAssigned records the letters a newly assigned word requires.
// Letters already dispensed as surplus are consumed; every other letter
// opens an ask at the bundle cost, with the bundle's remainder going to
// surplus.
func (m *LetterManager) NewWordAssigned(ws *WordStation, w *world.Word) {
	for _, s := range w.Slots {
		if m.takeSurplus(s.Type) {
			continue
		}

		b, ok := m.books[s.Type]
		if !ok {
			b = auction.NewBook()
			m.books[s.Type] = b
		}
		b.SubmitAsk(m.id, auction.NoItem, m.dir.Params.LetterBundleCost)
		m.profit -= m.dir.Params.LetterBundleCost

		m.required = append(m.required, m.dir.NextLetter(s.Type))
		for i := 1; i < m.dir.Params.BundleSize; i++ {
			m.surplus = append(m.surplus, m.dir.NextLetter(s.Type))
		}
	}
}

func (m *LetterManager) takeSurplus(t world.LetterType) bool {
	for i, l := range m.surplus {
		if l.Type == t {
			m.surplus = append(m.surplus[:i], m.surplus[i+1:]...)
			return true
		}
	}
	return false
}

// NextEventTime reports the next dispensing pass.
func (m *LetterManager) NextEventTime(now float64) float64 {
	return m.lastAct + m.dir.Params.BidInterval
}

// Update gives each letter station with free capacity the required letter
// it is winning at the highest price.
func (m *LetterManager) Update(last, now float64) {
	if now < m.lastAct+m.dir.Params.BidInterval {
		return
	}
	m.lastAct = now

	if len(m.books) == 0 {
		return
	}

	for _, ls := range m.dir.LetterStations {
		if !ls.HasCapacity() {
			continue
		}

		best := -1
		highest := 0.0
		for i, l := range m.required {
			b, ok := m.books[l.Type]
			if !ok || !b.BuyerInTradingSet(ls.ID()) {
				continue
			}
			if p := b.BidPrice(); best < 0 || p > highest {
				highest = p
				best = i
			}
		}
		if best < 0 {
			continue
		}

		l := m.required[best]
		m.required = append(m.required[:best], m.required[best+1:]...)

		b := m.books[l.Type]
		e, ok := b.AcceptNextBuyerExchange(ls.ID())
		if b.Asks() == 0 {
			delete(m.books, l.Type)
		}
		if !ok {
			continue
		}

		ls.AddBundle(l)
		ls.AddProfit(-e.Value)
		m.profit += e.Value
	}
}
