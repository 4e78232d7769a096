package auction

// Exchange records one completed trade. It is constructed only by a
// successful match and never mutated afterwards; both parties' settlement
// callbacks receive the same record.
type Exchange struct {
	Seller     ParticipantID
	SellerItem ItemRef
	Buyer      ParticipantID
	BuyerItem  ItemRef
	Value      float64
}
