package agents

import (
	"math"
	"sort"

	"github.com/soupworks/lettermarket/internal/auction"
	"github.com/soupworks/lettermarket/internal/economy"
	"github.com/soupworks/lettermarket/internal/world"
)

// Delivery is one letter a bucket owes a word station.
type Delivery struct {
	BucketLetter  world.Letter
	StationLetter world.LetterID
	Station       *WordStation
}

// Pickup is one bundle a bucket owes itself from a letter station.
type Pickup struct {
	Bundle  world.LetterID
	Station *LetterStation
}

// Bucket carries letters between stations. It sells its unassigned letters
// into word-station markets, buys bundles from letter stations, buys
// transportation when it has work, and submits one combinatorial bundle
// offer per cycle so shared travel cost is priced jointly.
type Bucket struct {
	dir  *Directory
	id   auction.ParticipantID
	body world.Circle

	letters    []world.Letter
	unassigned map[world.LetterID]world.Letter

	toDeliver []Delivery
	toPickup  []Pickup

	bot     *Bucketbot
	storage world.WaypointID

	profit  float64
	lastBid float64
}

// NewBucket builds a bucket, registers it, and adds it to the roster.
func NewBucket(dir *Directory, body world.Circle) *Bucket {
	b := &Bucket{
		dir:        dir,
		body:       body,
		unassigned: make(map[world.LetterID]world.Letter),
		storage:    world.NoWaypoint,
	}
	b.id = dir.Economy.RegisterBucket(b)
	dir.Buckets = append(dir.Buckets, b)
	return b
}

// ID returns the bucket's market identity.
func (b *Bucket) ID() auction.ParticipantID { return b.id }

// Location returns the bucket's floor position.
func (b *Bucket) Location() world.Point { return b.body.Center }

// SetLocation moves the bucket (it travels on a bucketbot).
func (b *Bucket) SetLocation(p world.Point) { b.body.Center = p }

// Profit returns the bucket's ledger balance.
func (b *Bucket) Profit() float64 { return b.profit }

// Letters returns the bucket's current contents.
func (b *Bucket) Letters() []world.Letter { return b.letters }

// AddLetter stores one letter, initially unassigned to any word.
func (b *Bucket) AddLetter(l world.Letter) {
	b.letters = append(b.letters, l)
	b.unassigned[l.ID] = l
}

// RemoveLetter takes one letter out of the bucket.
func (b *Bucket) RemoveLetter(id world.LetterID) {
	for i, l := range b.letters {
		if l.ID == id {
			b.letters = append(b.letters[:i], b.letters[i+1:]...)
			break
		}
	}
	delete(b.unassigned, id)
}

func (b *Bucket) unassignedSorted() []world.Letter {
	out := make([]world.Letter, 0, len(b.unassigned))
	for _, l := range b.unassigned {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ProbabilityContainsALetter estimates the chance any letter in the bucket
// is needed by some word, from the dictionary's letter frequencies.
func (b *Bucket) ProbabilityContainsALetter() float64 {
	prob := 0.0
	for _, l := range b.letters {
		lp := b.dir.Words.LetterProbability(l.Type)
		prob = prob + lp - prob*lp
	}
	return prob
}

// Settlement callbacks.

// LetterSold records a won letter delivery.
func (b *Bucket) LetterSold(e auction.Exchange) {
	l, ok := b.unassigned[world.LetterID(e.SellerItem)]
	if !ok {
		return
	}
	delete(b.unassigned, l.ID)
	b.toDeliver = append(b.toDeliver, Delivery{
		BucketLetter:  l,
		StationLetter: world.LetterID(e.BuyerItem),
		Station:       b.dir.wordStationByID(e.Buyer),
	})
	b.profit += e.Value
}

// LetterBundleBought records a won bundle pickup.
func (b *Bucket) LetterBundleBought(e auction.Exchange) {
	b.toPickup = append(b.toPickup, Pickup{
		Bundle:  world.LetterID(e.SellerItem),
		Station: b.dir.letterStationByID(e.Seller),
	})
	b.profit -= e.Value
}

// TransportationBought reserves the winning bucketbot.
func (b *Bucket) TransportationBought(e auction.Exchange) {
	b.bot = b.dir.botByID(e.Seller)
	b.profit -= e.Value
}

// distanceToEndPosition sums the bucket's planned route, deliveries then
// pickups then storage, ending at the destination. Reaching the
// destination mid-route cuts the sum short.
func (b *Bucket) distanceToEndPosition(dest world.Point) float64 {
	total := 0.0
	at := b.body.Center
	step := func(next world.Point) (float64, bool) {
		d := at.DistanceTo(next)
		if d == 0 {
			return total, true
		}
		total += d
		at = next
		return 0, false
	}
	for _, d := range b.toDeliver {
		if v, done := step(d.Station.Location()); done {
			return v
		}
	}
	for _, p := range b.toPickup {
		if v, done := step(p.Station.Location()); done {
			return v
		}
	}
	if w, ok := b.dir.Storage.UsedWaypoint(b.id); ok && b.storage != world.NoWaypoint {
		if v, done := step(w.Loc); done {
			return v
		}
	}
	return total + at.DistanceTo(dest)
}

// travelCost prices a trip to dest: a small per-distance rate over the
// whole remaining route, plus the going transportation ask at the
// bucket's waypoint when it has no bucketbot yet.
func (b *Bucket) travelCost(dest world.Point) float64 {
	cost := 0.02 * b.distanceToEndPosition(dest)
	if b.bot == nil {
		if w, ok := b.dir.Storage.UsedWaypoint(b.id); ok {
			if m := b.dir.Economy.TransportationMarketAt(w.ID); m != nil {
				if ask := m.AskPrice(auction.ItemType(w.ID)); !math.IsInf(ask, 1) {
					cost += ask
				}
			}
		}
	}
	return cost
}

// TakeBestDelivery pops the bucket's next delivery. It defers to a pickup
// when the first pickup is closer than the delivery and there is ample
// space for another bundle.
func (b *Bucket) TakeBestDelivery() (Delivery, bool) {
	if len(b.toDeliver) == 0 {
		return Delivery{}, false
	}
	if len(b.toPickup) > 0 {
		dDist := b.body.Center.DistanceTo(b.toDeliver[0].Station.Location())
		pDist := b.body.Center.DistanceTo(b.toPickup[0].Station.Location())
		if dDist > pDist && b.dir.Params.BucketCapacity-len(b.letters) > b.dir.Params.BundleSize {
			return Delivery{}, false
		}
	}
	d := b.toDeliver[0]
	b.toDeliver = b.toDeliver[1:]
	return d, true
}

// DeliveryFailed requeues a delivery.
func (b *Bucket) DeliveryFailed(d Delivery) {
	b.toDeliver = append(b.toDeliver, d)
}

// TakeBestPickup pops the bucket's next pickup, if a full bundle fits.
func (b *Bucket) TakeBestPickup() (Pickup, bool) {
	if len(b.toPickup) == 0 || b.dir.Params.BucketCapacity-len(b.letters) < b.dir.Params.BundleSize {
		return Pickup{}, false
	}
	p := b.toPickup[0]
	b.toPickup = b.toPickup[1:]
	return p, true
}

// PickupFailed requeues a pickup.
func (b *Bucket) PickupFailed(p Pickup) {
	b.toPickup = append(b.toPickup, p)
}

// PickedUp releases the bucket's storage waypoint back to the pool.
func (b *Bucket) PickedUp() {
	if b.storage != world.NoWaypoint {
		b.dir.Storage.Release(b.id)
		b.storage = world.NoWaypoint
	}
}

// SetDown drops the bucket's bucketbot reservation.
func (b *Bucket) SetDown() {
	b.bot = nil
}

// SetStorage records the bucket's initial waypoint at facility setup.
func (b *Bucket) SetStorage(id world.WaypointID) {
	if b.storage == world.NoWaypoint {
		b.storage = id
	}
}

// EnsureStorage finds the bucket a storage waypoint, preferring one it is
// winning in the storage market, otherwise the cheapest free one. The
// winning price moves from the bucket's ledger to the storage manager's.
func (b *Bucket) EnsureStorage() (world.Waypoint, bool) {
	if b.storage != world.NoWaypoint {
		if w, ok := b.dir.Storage.UsedWaypoint(b.id); ok {
			return w, true
		}
	}
	markets := b.dir.Economy.StorageMarkets()
	if len(markets) == 0 {
		return world.Waypoint{}, false
	}
	m := markets[0]

	pick := func(requireWinning bool) (world.Waypoint, float64, bool) {
		bestPrice := math.Inf(1)
		var bestW world.Waypoint
		found := false
		for _, w := range b.dir.Storage.UnusedSorted() {
			t := auction.ItemType(w.ID)
			if requireWinning && !m.BuyerInTradingSet(b.id, t) {
				continue
			}
			if price := m.BidPrice(t); price < bestPrice {
				bestPrice = price
				bestW = w
				found = true
			}
		}
		return bestW, bestPrice, found
	}

	w, price, ok := pick(true)
	if !ok {
		w, price, ok = pick(false)
	}
	if !ok {
		return world.Waypoint{}, false
	}

	// The manager's ask for the claimed waypoint goes stale until its next
	// refresh; only our own bids come out now.
	m.WithdrawBids(b.id)
	b.profit -= price
	b.dir.Storage.AddProfit(price)
	b.dir.Storage.Claim(b.id, w.ID)
	b.storage = w.ID
	return w, true
}

// NextEventTime reports the next bid refresh.
func (b *Bucket) NextEventTime(now float64) float64 {
	return b.lastBid + b.dir.Params.BidInterval
}

// Update refreshes all of the bucket's standing orders and submits this
// cycle's bundle offer.
func (b *Bucket) Update(last, now float64) {
	if now < b.lastBid+b.dir.Params.BidInterval {
		return
	}
	b.lastBid = now

	letterAsks := b.rebidLetterAsks()
	b.rebidTransportation()
	b.rebidPickups()
	b.rebidStorage()
	b.submitBundleOffer(letterAsks)
}

// rebidLetterAsks places one ask per unassigned letter in the word-station
// market where it expects the most profit, discounted by travel cost. The
// distance discount shrinks when the bucket is fuller and its contents
// likelier to be wanted, since one trip can then serve several letters.
func (b *Bucket) rebidLetterAsks() map[world.LetterID]float64 {
	ec := b.dir.Economy
	for _, m := range ec.LetterToWordMarkets() {
		m.WithdrawAsks(b.id)
	}

	fracCapacity := float64(len(b.letters)) / float64(b.dir.Params.BucketCapacity)
	distMultiplier := 1 - fracCapacity*b.ProbabilityContainsALetter()

	asks := make(map[world.LetterID]float64, len(b.unassigned))
	for _, l := range b.unassignedSorted() {
		var best *auction.Router
		bestProfit := 0.0
		bestAsk := 0.0
		for _, m := range ec.LetterToWordMarkets() {
			loc, ok := ec.MarketLocation(m)
			if !ok {
				continue
			}
			distCost := distMultiplier * b.travelCost(loc)
			profit := m.BidPrice(auction.ItemType(l.Type)) - distCost + 0.5
			if profit >= bestProfit {
				best = m
				bestAsk = distCost + 0.5
				bestProfit = profit
			}
		}
		if best != nil {
			best.SubmitAsk(b.id, auction.ItemType(l.Type), auction.ItemRef(l.ID), bestAsk)
			asks[l.ID] = bestAsk
		}
	}
	return asks
}

// rebidTransportation bids for a bucketbot at the bucket's own waypoint
// when it has work and no bot, scaled by how much work is queued.
func (b *Bucket) rebidTransportation() {
	if b.bot != nil || len(b.toDeliver)+len(b.toPickup) == 0 {
		return
	}
	w, ok := b.dir.Storage.UsedWaypoint(b.id)
	if !ok {
		return
	}
	m := b.dir.Economy.TransportationMarketAt(w.ID)
	if m == nil {
		return
	}
	m.WithdrawBids(b.id)
	m.SubmitBid(b.id, auction.ItemType(w.ID), auction.ItemRef(w.ID),
		300*float64(len(b.toDeliver)+len(b.toPickup)))
}

// rebidPickups places bundle bids at random letter-station markets, as
// many as fit the bucket's uncommitted space, priced down by fullness and
// travel.
func (b *Bucket) rebidPickups() {
	ec := b.dir.Economy
	markets := ec.LetterStationMarkets()
	for _, m := range markets {
		m.WithdrawBids(b.id)
	}
	if len(markets) == 0 {
		return
	}

	bundleSize := b.dir.Params.BundleSize
	committed := len(b.letters) + bundleSize*len(b.toPickup)
	numBids := (b.dir.Params.BucketCapacity - committed) / bundleSize
	fracCapacity := float64(committed) / float64(b.dir.Params.BucketCapacity)

	for i := 0; i < numBids-1; i++ {
		m := markets[b.dir.Rand.Intn(len(markets))]
		types := m.ItemTypesWithAsks()
		if len(types) == 0 {
			continue
		}
		t := types[b.dir.Rand.Intn(len(types))]
		loc, ok := ec.MarketLocation(m)
		if !ok {
			continue
		}
		m.SubmitBid(b.id, t, auction.NoItem, 100-fracCapacity*b.travelCost(loc))
	}
}

// rebidStorage bids on every free waypoint when the bucket has none,
// valuing closer waypoints higher against a facility-diagonal ceiling.
func (b *Bucket) rebidStorage() {
	markets := b.dir.Economy.StorageMarkets()
	for _, m := range markets {
		m.WithdrawBids(b.id)
	}
	if b.storage != world.NoWaypoint || len(markets) == 0 {
		return
	}
	m := markets[0]
	maxDist := b.dir.MaxFloorDistance()
	for _, w := range b.dir.Storage.UnusedSorted() {
		m.SubmitBid(b.id, auction.ItemType(w.ID), auction.ItemRef(w.ID),
			0.1*maxDist-b.travelCost(w.Loc))
	}
}

// submitBundleOffer files this cycle's combinatorial offer: the bucket's
// unassigned letters at their current asking values, plus candidate bots,
// its own reserved bot free of charge or every available bot at a
// distance cost.
func (b *Bucket) submitBundleOffer(letterAsks map[world.LetterID]float64) {
	if len(b.unassigned) == 0 && b.bot == nil {
		b.dir.Economy.WithdrawBundleOffer(b.id)
		return
	}

	offer := economy.BundleOffer{
		Bucket:            b.id,
		Loc:               b.body.Center,
		BucketLetterCount: len(b.letters),
		LetterProbability: b.ProbabilityContainsALetter(),
	}
	if b.bot != nil {
		offer.Bots = []economy.BotOption{{Bot: b.bot.ID(), Cost: 0, Loc: b.bot.Location()}}
	} else {
		for _, bot := range b.dir.Bots {
			if !bot.Available() {
				continue
			}
			offer.Bots = append(offer.Bots, economy.BotOption{
				Bot:  bot.ID(),
				Cost: 0.1 * bot.Location().DistanceTo(b.body.Center),
				Loc:  bot.Location(),
			})
		}
	}
	for _, l := range b.unassignedSorted() {
		ask, ok := letterAsks[l.ID]
		if !ok {
			continue
		}
		offer.Letters = append(offer.Letters, economy.LetterOffer{Letter: l, Value: ask})
	}
	if len(offer.Bots) == 0 || len(offer.Letters) == 0 {
		b.dir.Economy.WithdrawBundleOffer(b.id)
		return
	}
	b.dir.Economy.SubmitBundleOffer(offer)
}
