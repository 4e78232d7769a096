package auction

import (
	"math"
	"reflect"
	"testing"
)

const (
	letterQ ItemType = iota + 100
	letterR
	letterS
)

func TestRouterLazyBookCreation(t *testing.T) {
	r := NewRouter()
	if got := r.ItemTypesWithAsks(); got != nil {
		t.Fatalf("fresh router has item types %v", got)
	}
	r.SubmitAsk(traderA, letterQ, NoItem, 3)
	r.SubmitBid(traderB, letterR, NoItem, 5)

	if got := r.ItemTypesWithAsks(); !reflect.DeepEqual(got, []ItemType{letterQ}) {
		t.Errorf("ItemTypesWithAsks = %v, want [Q]", got)
	}
	if got := r.ItemTypesWithBids(); !reflect.DeepEqual(got, []ItemType{letterR}) {
		t.Errorf("ItemTypesWithBids = %v, want [R]", got)
	}
}

func TestRouterDropsEmptyBooks(t *testing.T) {
	r := NewRouter()
	r.SubmitAsk(traderA, letterQ, NoItem, 3)
	r.SubmitAsk(traderA, letterR, NoItem, 2)
	r.SubmitBid(traderB, letterR, NoItem, 4)

	r.WithdrawAsks(traderA)

	// Q's book emptied and must be gone; R still has B's bid.
	if got := r.AskPrice(letterQ); !math.IsInf(got, 1) {
		t.Errorf("AskPrice(Q) = %v, want +Inf for unknown type", got)
	}
	if got := r.BidPrice(letterQ); got != 0 {
		t.Errorf("BidPrice(Q) = %v, want 0 for unknown type", got)
	}
	if got := r.ItemTypesWithBids(); !reflect.DeepEqual(got, []ItemType{letterR}) {
		t.Errorf("ItemTypesWithBids = %v, want [R]", got)
	}
	if len(r.books) != 1 {
		t.Errorf("router holds %d books, want 1 (empty books must be dropped)", len(r.books))
	}
}

func TestRouterTradingSets(t *testing.T) {
	r := NewRouter()
	r.SubmitAsk(traderA, letterQ, NoItem, 3)
	r.SubmitBid(traderB, letterQ, NoItem, 5)

	if !r.BuyerInTradingSet(traderB, letterQ) {
		t.Error("B should be winning Q")
	}
	if r.BuyerInTradingSet(traderB, letterS) {
		t.Error("unknown type should never report a winner")
	}
	if !r.SellerInTradingSet(traderA, letterQ) {
		t.Error("A should be selling Q")
	}
}

func TestRouterClearUsesPerBookBidPrice(t *testing.T) {
	r := NewRouter()
	// Q: sequence [12, 4] with M=1, so its bid price (rank M+1) is 4.
	r.SubmitAsk(traderA, letterQ, NoItem, 4)
	r.SubmitBid(traderB, letterQ, NoItem, 12)
	// R: D bids 9 over C's ask 2; bid price = rank 2 = 2.
	r.SubmitAsk(traderC, letterR, NoItem, 2)
	r.SubmitBid(traderD, letterR, NoItem, 9)

	buyers := map[ParticipantID]bool{traderB: true, traderD: true}
	sellers := map[ParticipantID]bool{traderA: true, traderC: true}

	exchanges := r.Clear(buyers, sellers)
	if len(exchanges) != 2 {
		t.Fatalf("got %d exchanges, want 2", len(exchanges))
	}
	// Item-type order: Q then R.
	if exchanges[0].Value != 4 || exchanges[1].Value != 2 {
		t.Errorf("clearing values = %v, %v; want 4, 2 (per-book bid prices)",
			exchanges[0].Value, exchanges[1].Value)
	}
	if len(r.books) != 0 {
		t.Errorf("router holds %d books after full clear, want 0", len(r.books))
	}
}

func TestRouterWithdrawBothSidesLeavesNoBooks(t *testing.T) {
	r := NewRouter()
	for _, lt := range []ItemType{letterQ, letterR, letterS} {
		r.SubmitBid(traderA, lt, NoItem, 1)
		r.SubmitAsk(traderB, lt, NoItem, 2)
	}
	r.WithdrawBids(traderA)
	r.WithdrawAsks(traderB)
	if len(r.books) != 0 {
		t.Errorf("router holds %d books, want 0", len(r.books))
	}
}
