// Package auction implements the continuous double-auction machinery the
// economy clears: a single-item order book using the M-price rule and a
// multi-item router that owns one book per item type.
package auction

// ParticipantID identifies a market participant. IDs are issued by the
// economy's registry, which owns the agent records; the book never inspects
// an ID beyond equality.
type ParticipantID int32

// NoParticipant marks the absent side of a one-sided order.
const NoParticipant ParticipantID = -1

// ItemRef is an opaque handle to a specific item instance (a letter, a
// storage waypoint). The book carries it through to the exchange unchanged.
type ItemRef int32

// NoItem marks an order with no item instance attached.
const NoItem ItemRef = -1

// ItemType keys a router to one of its books. Letter markets use the letter
// type, waypoint markets use the waypoint ID.
type ItemType int32

// Role tags an order as a buy bid or a sell ask.
type Role uint8

const (
	Bid Role = iota
	Ask
)

// Order is one declared willingness to trade. Orders are ephemeral: created
// on submit, destroyed on match or withdrawal.
type Order struct {
	Role  Role
	Owner ParticipantID
	Item  ItemRef
	Value float64
}
