package auction

import (
	"math"
	"sort"
)

// Router is a multi-item double auction: one Book per item type, created
// lazily on first submit and dropped as soon as it holds no orders. A router
// never retains an empty book.
type Router struct {
	books map[ItemType]*Book
}

// NewRouter returns an empty multi-item auction.
func NewRouter() *Router {
	return &Router{books: make(map[ItemType]*Book)}
}

func (r *Router) book(t ItemType) *Book {
	b, ok := r.books[t]
	if !ok {
		b = NewBook()
		r.books[t] = b
	}
	return b
}

// sortedTypes returns the current item-type keys in ascending order, so
// sweeps and clearing visit books deterministically.
func (r *Router) sortedTypes() []ItemType {
	types := make([]ItemType, 0, len(r.books))
	for t := range r.books {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// SubmitBid adds a bid for an item of the given type.
func (r *Router) SubmitBid(buyer ParticipantID, t ItemType, item ItemRef, value float64) {
	r.book(t).SubmitBid(buyer, item, value)
}

// SubmitAsk adds an ask for an item of the given type.
func (r *Router) SubmitAsk(seller ParticipantID, t ItemType, item ItemRef, value float64) {
	r.book(t).SubmitAsk(seller, item, value)
}

// WithdrawBids removes the buyer's bids from every book, dropping books left
// empty.
func (r *Router) WithdrawBids(buyer ParticipantID) {
	for _, t := range r.sortedTypes() {
		b := r.books[t]
		b.WithdrawBids(buyer)
		if b.Len() == 0 {
			delete(r.books, t)
		}
	}
}

// WithdrawAsks removes the seller's asks from every book, dropping books
// left empty.
func (r *Router) WithdrawAsks(seller ParticipantID) {
	for _, t := range r.sortedTypes() {
		b := r.books[t]
		b.WithdrawAsks(seller)
		if b.Len() == 0 {
			delete(r.books, t)
		}
	}
}

// ItemTypesWithBids lists every item type that currently has a buy bid.
func (r *Router) ItemTypesWithBids() []ItemType {
	var types []ItemType
	for _, t := range r.sortedTypes() {
		if r.books[t].Bids() > 0 {
			types = append(types, t)
		}
	}
	return types
}

// ItemTypesWithAsks lists every item type currently being sold.
func (r *Router) ItemTypesWithAsks() []ItemType {
	var types []ItemType
	for _, t := range r.sortedTypes() {
		if r.books[t].Asks() > 0 {
			types = append(types, t)
		}
	}
	return types
}

// BidPrice quotes the (M+1)th price for the given item type, 0 when the type
// is unknown.
func (r *Router) BidPrice(t ItemType) float64 {
	if b, ok := r.books[t]; ok {
		return b.BidPrice()
	}
	return 0
}

// AskPrice quotes the Mth price for the given item type, +Inf when the type
// is unknown.
func (r *Router) AskPrice(t ItemType) float64 {
	if b, ok := r.books[t]; ok {
		return b.AskPrice()
	}
	return math.Inf(1)
}

// BuyerInTradingSet reports whether the buyer is winning an item of the
// given type.
func (r *Router) BuyerInTradingSet(buyer ParticipantID, t ItemType) bool {
	b, ok := r.books[t]
	return ok && b.BuyerInTradingSet(buyer)
}

// SellerInTradingSet reports whether the seller would sell an item of the
// given type.
func (r *Router) SellerInTradingSet(seller ParticipantID, t ItemType) bool {
	b, ok := r.books[t]
	return ok && b.SellerInTradingSet(seller)
}

// AcceptNextBuyerExchange delegates to the book for the given item type.
func (r *Router) AcceptNextBuyerExchange(buyer ParticipantID, t ItemType) (Exchange, bool) {
	b, ok := r.books[t]
	if !ok {
		return Exchange{}, false
	}
	e, ok := b.AcceptNextBuyerExchange(buyer)
	if b.Len() == 0 {
		delete(r.books, t)
	}
	return e, ok
}

// Clear runs AcceptAllExchanges on every book, restricted to the given
// buyers and sellers, each book clearing at its own current bid price.
// Books emptied by clearing are dropped.
func (r *Router) Clear(buyers, sellers map[ParticipantID]bool) []Exchange {
	var exchanges []Exchange
	for _, t := range r.sortedTypes() {
		b := r.books[t]
		exchanges = append(exchanges, b.AcceptAllExchanges(buyers, sellers, b.BidPrice())...)
		if b.Len() == 0 {
			delete(r.books, t)
		}
	}
	return exchanges
}

// BookSummary describes one book's standing orders for reporting.
type BookSummary struct {
	Type     ItemType `json:"type"`
	Asks     int      `json:"asks"`
	Bids     int      `json:"bids"`
	AskPrice float64  `json:"ask_price"`
	BidPrice float64  `json:"bid_price"`
}

// Summaries reports every book's standing state in item-type order.
func (r *Router) Summaries() []BookSummary {
	var out []BookSummary
	for _, t := range r.sortedTypes() {
		b := r.books[t]
		out = append(out, BookSummary{
			Type:     t,
			Asks:     b.Asks(),
			Bids:     b.Bids(),
			AskPrice: b.AskPrice(),
			BidPrice: b.BidPrice(),
		})
	}
	return out
}
