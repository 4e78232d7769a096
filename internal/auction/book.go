package auction

import (
	"math"
	"sort"
)

// Book is a single-item continuous double auction. Bids and asks live in one
// sequence sorted descending by value, ties broken by insertion order
// (earlier first). With M asks in the book, the Mth-ranked value is the ask
// price and the (M+1)th the bid price.
type Book struct {
	orders []Order
	asks   int // count of Ask entries; must always match the sequence
}

// NewBook returns an empty order book.
func NewBook() *Book {
	return &Book{}
}

// insert places o at the position that keeps the sequence sorted descending
// by value, after all entries of equal or greater value.
func (b *Book) insert(o Order) {
	i := sort.Search(len(b.orders), func(i int) bool {
		return b.orders[i].Value < o.Value
	})
	b.orders = append(b.orders, Order{})
	copy(b.orders[i+1:], b.orders[i:])
	b.orders[i] = o
}

// insertAt restores a previously removed order to its exact old index.
// Used by the accept family so a failed pairing leaves the sequence
// byte-for-byte as it was.
func (b *Book) insertAt(i int, o Order) {
	b.orders = append(b.orders, Order{})
	copy(b.orders[i+1:], b.orders[i:])
	b.orders[i] = o
}

func (b *Book) removeAt(i int) Order {
	o := b.orders[i]
	b.orders = append(b.orders[:i], b.orders[i+1:]...)
	return o
}

// SubmitBid adds a buy bid for the given buyer at the given value.
func (b *Book) SubmitBid(buyer ParticipantID, item ItemRef, value float64) {
	b.insert(Order{Role: Bid, Owner: buyer, Item: item, Value: value})
}

// SubmitAsk adds a sell ask for the given seller at the given value.
func (b *Book) SubmitAsk(seller ParticipantID, item ItemRef, value float64) {
	b.insert(Order{Role: Ask, Owner: seller, Item: item, Value: value})
	b.asks++
}

// WithdrawBids removes every bid owned by the given buyer. Withdrawing when
// nothing is present is a valid no-op.
func (b *Book) WithdrawBids(buyer ParticipantID) {
	kept := b.orders[:0]
	for _, o := range b.orders {
		if o.Role == Bid && o.Owner == buyer {
			continue
		}
		kept = append(kept, o)
	}
	b.orders = kept
}

// WithdrawAsks removes every ask owned by the given seller.
func (b *Book) WithdrawAsks(seller ParticipantID) {
	kept := b.orders[:0]
	for _, o := range b.orders {
		if o.Role == Ask && o.Owner == seller {
			b.asks--
			continue
		}
		kept = append(kept, o)
	}
	b.orders = kept
}

// AskPrice returns the value at rank M, the lowest-ranked order still within
// the top-M band. +Inf when nothing is for sale.
func (b *Book) AskPrice() float64 {
	if b.asks == 0 {
		return math.Inf(1)
	}
	return b.orders[b.asks-1].Value
}

// BidPrice returns the value at rank M+1. A book holding only asks quotes 0;
// a completely empty book quotes -Inf.
func (b *Book) BidPrice() float64 {
	if b.asks == len(b.orders) {
		if b.asks > 0 {
			return 0
		}
		return math.Inf(-1)
	}
	return b.orders[b.asks].Value
}

// BuyerInTradingSet reports whether the buyer holds an order in ranks 1..M,
// the band currently allocated an item.
func (b *Book) BuyerInTradingSet(buyer ParticipantID) bool {
	for i := 0; i < b.asks; i++ {
		if b.orders[i].Role == Bid && b.orders[i].Owner == buyer {
			return true
		}
	}
	return false
}

// SellerInTradingSet reports whether the seller holds an order in ranks
// M..N. Rank M belongs to both trading bands; the marginal unit is counted
// on both sides.
func (b *Book) SellerInTradingSet(seller ParticipantID) bool {
	for i := len(b.orders) - 1; i >= b.asks-1 && i >= 0; i-- {
		if b.orders[i].Role == Ask && b.orders[i].Owner == seller {
			return true
		}
	}
	return false
}

// AcceptNextBuyerExchange matches the buyer's highest-ranked winning bid
// against the cheapest ask, clearing at the bid price quoted before any
// removal. Returns false with the book untouched when no pairing exists, so
// callers may retry safely.
func (b *Book) AcceptNextBuyerExchange(buyer ParticipantID) (Exchange, bool) {
	price := b.BidPrice()

	bi := -1
	for i := 0; i < b.asks; i++ {
		if b.orders[i].Role == Bid && b.orders[i].Owner == buyer {
			bi = i
			break
		}
	}
	if bi < 0 {
		return Exchange{}, false
	}
	bid := b.removeAt(bi)

	si := -1
	for i := len(b.orders) - 1; i >= b.asks-1 && i >= 0; i-- {
		if b.orders[i].Role == Ask {
			si = i
			break
		}
	}
	if si < 0 {
		b.insertAt(bi, bid)
		return Exchange{}, false
	}
	ask := b.removeAt(si)
	b.asks--

	return Exchange{
		Seller:     ask.Owner,
		SellerItem: ask.Item,
		Buyer:      bid.Owner,
		BuyerItem:  bid.Item,
		Value:      price,
	}, true
}

// AcceptNextSellerExchange is the seller-side mirror: the seller's
// lowest-ranked winning ask against the highest bid, clearing at the ask
// price.
func (b *Book) AcceptNextSellerExchange(seller ParticipantID) (Exchange, bool) {
	price := b.AskPrice()

	si := -1
	for i := len(b.orders) - 1; i >= b.asks-1 && i >= 0; i-- {
		if b.orders[i].Role == Ask && b.orders[i].Owner == seller {
			si = i
			break
		}
	}
	if si < 0 {
		return Exchange{}, false
	}
	ask := b.removeAt(si)
	b.asks--

	bi := -1
	for i := 0; i < b.asks; i++ {
		if b.orders[i].Role == Bid {
			bi = i
			break
		}
	}
	if bi < 0 {
		b.insertAt(si, ask)
		b.asks++
		return Exchange{}, false
	}
	bid := b.removeAt(bi)

	return Exchange{
		Seller:     ask.Owner,
		SellerItem: ask.Item,
		Buyer:      bid.Owner,
		BuyerItem:  bid.Item,
		Value:      price,
	}, true
}

// AcceptAllExchanges repeatedly pairs a winning buyer from the given buyer
// set with the cheapest eligible seller from the seller set, clearing every
// pair at the fixed price. When a winning buyer has no seller left to match,
// that buyer's order is restored and the loop stops; exchanges already made
// are kept.
func (b *Book) AcceptAllExchanges(buyers, sellers map[ParticipantID]bool, price float64) []Exchange {
	var exchanges []Exchange

	for {
		bi := -1
		for i := 0; i < b.asks; i++ {
			if b.orders[i].Role == Bid && buyers[b.orders[i].Owner] {
				bi = i
				break
			}
		}
		if bi < 0 {
			break
		}
		bid := b.removeAt(bi)

		si := -1
		for i := len(b.orders) - 1; i >= b.asks-1 && i >= 0; i-- {
			if b.orders[i].Role == Ask && sellers[b.orders[i].Owner] {
				si = i
				break
			}
		}
		if si < 0 {
			b.insertAt(bi, bid)
			break
		}
		ask := b.removeAt(si)
		b.asks--

		exchanges = append(exchanges, Exchange{
			Seller:     ask.Owner,
			SellerItem: ask.Item,
			Buyer:      bid.Owner,
			BuyerItem:  bid.Item,
			Value:      price,
		})
	}

	return exchanges
}

// Asks returns the tracked count of sell asks, the M of the M-price rule.
func (b *Book) Asks() int {
	return b.asks
}

// Bids returns the count of buy bids.
func (b *Book) Bids() int {
	return len(b.orders) - b.asks
}

// Len returns the total number of orders in the book.
func (b *Book) Len() int {
	return len(b.orders)
}

// Orders returns a copy of the full order sequence in rank order.
func (b *Book) Orders() []Order {
	out := make([]Order, len(b.orders))
	copy(out, b.orders)
	return out
}
