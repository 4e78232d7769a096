// Package feed publishes settled exchanges and stats snapshots to live
// subscribers, including a websocket fanout for dashboards.
package feed

import (
	"sync"

	"github.com/soupworks/lettermarket/internal/auction"
	"github.com/soupworks/lettermarket/internal/economy"
	"github.com/soupworks/lettermarket/internal/sim"
)

// Event is one published item. Exactly one payload field is set.
type Event struct {
	Time     float64        `json:"time"`
	Kind     string         `json:"kind"`
	Exchange *ExchangeEvent `json:"exchange,omitempty"`
	Stats    *sim.Stats     `json:"stats,omitempty"`
}

// ExchangeEvent is one settled exchange on the wire.
type ExchangeEvent struct {
	Market string  `json:"market"`
	Seller int32   `json:"seller"`
	Buyer  int32   `json:"buyer"`
	Value  float64 `json:"value"`
}

// Bus fans events out to subscribers. Slow subscribers drop events rather
// than stall the publisher.
type Bus struct {
	mu   sync.Mutex
	subs map[chan Event]struct{}
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[chan Event]struct{})}
}

// Subscribe registers a new subscriber channel.
func (b *Bus) Subscribe() chan Event {
	ch := make(chan Event, 256)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *Bus) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	if _, ok := b.subs[ch]; ok {
		delete(b.subs, ch)
		close(ch)
	}
	b.mu.Unlock()
}

// Publish delivers an event to every subscriber with room for it.
func (b *Bus) Publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// PublishExchange publishes one settled exchange.
func (b *Bus) PublishExchange(time float64, kind economy.ExchangeKind, e auction.Exchange) {
	b.Publish(Event{
		Time: time,
		Kind: "exchange",
		Exchange: &ExchangeEvent{
			Market: string(kind),
			Seller: int32(e.Seller),
			Buyer:  int32(e.Buyer),
			Value:  e.Value,
		},
	})
}

// PublishStats publishes one stats snapshot.
func (b *Bus) PublishStats(s sim.Stats) {
	b.Publish(Event{Time: s.Time, Kind: "stats", Stats: &s})
}
