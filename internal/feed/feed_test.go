package feed

import (
	"testing"

	"github.com/soupworks/lettermarket/internal/auction"
	"github.com/soupworks/lettermarket/internal/economy"
	"github.com/soupworks/lettermarket/internal/sim"
)

func TestBusDeliversToAllSubscribers(t *testing.T) {
	bus := NewBus()
	a := bus.Subscribe()
	b := bus.Subscribe()

	bus.PublishExchange(1.5, economy.KindLetter, auction.Exchange{Seller: 3, Buyer: 4, Value: 2.5})

	for _, ch := range []chan Event{a, b} {
		select {
		case ev := <-ch:
			if ev.Kind != "exchange" || ev.Exchange == nil {
				t.Fatalf("event = %+v", ev)
			}
			if ev.Exchange.Market != "letter" || ev.Exchange.Value != 2.5 {
				t.Fatalf("exchange payload = %+v", ev.Exchange)
			}
		default:
			t.Fatalf("subscriber got nothing")
		}
	}
}

func TestBusDropsWhenSubscriberFull(t *testing.T) {
	bus := NewBus()
	ch := bus.Subscribe()

	// Publishing past the buffer must not block.
	for i := 0; i < cap(ch)+10; i++ {
		bus.PublishStats(sim.Stats{Time: float64(i)})
	}
	if len(ch) != cap(ch) {
		t.Fatalf("buffered = %d, want %d", len(ch), cap(ch))
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	bus := NewBus()
	ch := bus.Subscribe()
	bus.Unsubscribe(ch)

	if _, ok := <-ch; ok {
		t.Fatalf("channel not closed")
	}

	// Publishing after unsubscribe must not panic.
	bus.PublishStats(sim.Stats{Time: 1})
	// Double unsubscribe is a no-op.
	bus.Unsubscribe(ch)
}
