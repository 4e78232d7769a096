package agents

import (
	"math"

	"github.com/soupworks/lettermarket/internal/auction"
	"github.com/soupworks/lettermarket/internal/world"
)

type taskKind int

const (
	taskNone taskKind = iota
	taskFetch
	taskDeliver
	taskPickup
	taskStore
)

type botTask struct {
	kind     taskKind
	target   world.Point
	delivery Delivery
	pickup   Pickup
	storeAt  world.Waypoint
}

// Bucketbot moves buckets across the floor. It sells transportation at the
// used waypoint where its service is worth the most, and once reserved it
// works its bucket's queue: fetch, deliver, pick up, then set the bucket
// back down in storage.
type Bucketbot struct {
	dir *Directory
	id  auction.ParticipantID
	loc world.Point

	reserved *Bucket
	carrying *Bucket

	current   botTask
	busyUntil float64

	profit  float64
	lastBid float64
}

// NewBucketbot builds a bucketbot, registers it, and adds it to the roster.
func NewBucketbot(dir *Directory, loc world.Point) *Bucketbot {
	b := &Bucketbot{
		dir:       dir,
		loc:       loc,
		busyUntil: math.Inf(1),
	}
	b.id = dir.Economy.RegisterBucketbot(b)
	dir.Bots = append(dir.Bots, b)
	return b
}

// ID returns the bucketbot's market identity.
func (b *Bucketbot) ID() auction.ParticipantID { return b.id }

// Location returns the bucketbot's floor position.
func (b *Bucketbot) Location() world.Point { return b.loc }

// Profit returns the bucketbot's ledger balance.
func (b *Bucketbot) Profit() float64 { return b.profit }

// Available reports whether the bucketbot can take new work.
func (b *Bucketbot) Available() bool {
	return b.reserved == nil && b.carrying == nil
}

// TransportationSold reserves the bucketbot for the winning bucket.
func (b *Bucketbot) TransportationSold(e auction.Exchange) {
	b.reserved = b.dir.bucketByID(e.Buyer)
	b.profit += e.Value
}

// NextEventTime reports the earlier of the next bid refresh and the end of
// the current task.
func (b *Bucketbot) NextEventTime(now float64) float64 {
	return math.Min(b.lastBid+b.dir.Params.BidInterval, b.busyUntil)
}

// Update refreshes the bucketbot's asks on the bid cadence, and when the
// current task finishes, completes it and starts the next one.
func (b *Bucketbot) Update(last, now float64) {
	if now >= b.lastBid+b.dir.Params.BidInterval {
		b.lastBid = now
		b.rebidAsks()
	}
	switch {
	case now >= b.busyUntil:
		b.completeTask()
		b.startNextTask(now)
	case b.current.kind == taskNone && b.reserved != nil:
		// Reservation landed while idle.
		b.startNextTask(now)
	}
}

// rebidAsks offers transportation at the one used waypoint where the net,
// bid price less travel, is highest. A reserved bucketbot withdraws.
func (b *Bucketbot) rebidAsks() {
	ec := b.dir.Economy
	for _, m := range ec.TransportationMarkets() {
		m.WithdrawAsks(b.id)
	}
	if b.reserved != nil {
		return
	}

	var bestW world.Waypoint
	bestNet := math.Inf(-1)
	found := false
	for _, w := range b.dir.Storage.UsedSorted() {
		m := ec.TransportationMarketAt(w.ID)
		if m == nil {
			continue
		}
		net := m.BidPrice(auction.ItemType(w.ID)) - 0.1*b.loc.DistanceTo(w.Loc)
		if net >= bestNet {
			bestNet = net
			bestW = w
			found = true
		}
	}
	if !found {
		return
	}
	m := ec.TransportationMarketAt(bestW.ID)
	m.SubmitAsk(b.id, auction.ItemType(bestW.ID), auction.ItemRef(bestW.ID),
		0.1*b.loc.DistanceTo(bestW.Loc))
}

// completeTask applies the effects of the task that just finished.
func (b *Bucketbot) completeTask() {
	t := b.current
	b.current = botTask{}
	b.busyUntil = math.Inf(1)

	switch t.kind {
	case taskFetch:
		b.loc = t.target
		b.carrying = b.reserved
		b.carrying.PickedUp()

	case taskDeliver:
		b.loc = t.target
		b.carrying.SetLocation(t.target)
		t.delivery.Station.ReceiveLetter(t.delivery.StationLetter)
		b.carrying.RemoveLetter(t.delivery.BucketLetter.ID)

	case taskPickup:
		b.loc = t.target
		b.carrying.SetLocation(t.target)
		for _, l := range t.pickup.Station.TakeBundle(t.pickup.Bundle) {
			b.carrying.AddLetter(l)
		}

	case taskStore:
		b.loc = t.target
		b.carrying.SetLocation(t.target)
		b.carrying.SetStorage(t.storeAt.ID)
		b.carrying.SetDown()
		b.reserved = nil
		b.carrying = nil
	}
}

// startNextTask picks the bucketbot's next task from its bucket's queue.
// With no bucket it idles until the next reservation.
func (b *Bucketbot) startNextTask(now float64) {
	if b.reserved == nil {
		return
	}

	if b.carrying == nil {
		target := b.reserved.Location()
		b.current = botTask{kind: taskFetch, target: target}
		b.busyUntil = now + b.travelTime(target) + b.dir.Params.PickupSetdownTime
		return
	}

	if d, ok := b.carrying.TakeBestDelivery(); ok {
		target := d.Station.Location()
		b.current = botTask{kind: taskDeliver, target: target, delivery: d}
		b.busyUntil = now + b.travelTime(target) + b.dir.Params.LetterTransferTime
		return
	}

	if p, ok := b.carrying.TakeBestPickup(); ok {
		target := p.Station.Location()
		b.current = botTask{kind: taskPickup, target: target, pickup: p}
		b.busyUntil = now + b.travelTime(target) + b.dir.Params.LetterTransferTime
		return
	}

	w, ok := b.carrying.EnsureStorage()
	if !ok {
		// Nowhere to set the bucket down. Hold it and retry next cycle.
		b.busyUntil = now + b.dir.Params.BidInterval
		return
	}
	b.current = botTask{kind: taskStore, target: w.Loc, storeAt: w}
	b.busyUntil = now + b.travelTime(w.Loc) + b.dir.Params.PickupSetdownTime
}

func (b *Bucketbot) travelTime(to world.Point) float64 {
	return b.loc.DistanceTo(to) / b.dir.Params.BotSpeed
}
