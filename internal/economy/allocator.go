package economy

import (
	"math"
	"math/rand"
	"sort"

	"github.com/soupworks/lettermarket/internal/auction"
	"github.com/soupworks/lettermarket/internal/world"
)

// DefaultAllocatorTrials is the number of randomized greedy passes per
// clearing cycle.
const DefaultAllocatorTrials = 300

// DefaultCostWeight scales combined letter-value-plus-travel cost in the
// allocator's profit comparison. A tunable constant, not a law.
const DefaultCostWeight = 0.1

// BotOption is one candidate bucketbot in a bundle offer, with the
// incremental cost of using it and its current location.
type BotOption struct {
	Bot  auction.ParticipantID
	Cost float64
	Loc  world.Point
}

// LetterOffer is one letter a bucket offers to deliver, at its asking
// value.
type LetterOffer struct {
	Letter world.Letter
	Value  float64
}

// BundleOffer is one bucket's joint claim on a transportation unit and a
// subset of its letters. Offers are per-cycle messages: submitted fresh
// each cycle and discarded after award computation.
type BundleOffer struct {
	Bucket auction.ParticipantID
	Loc    world.Point

	Bots    []BotOption
	Letters []LetterOffer

	// Priority inputs for the offer comparator: how many letters the
	// bucket holds and the chance any one of them is needed.
	BucketLetterCount int
	LetterProbability float64
}

// ownBotFree reports whether the offer's sole candidate is the bucket's
// already-reserved bot at zero incremental cost. Such an offer may proceed
// even when no free bot remains.
func (o *BundleOffer) ownBotFree() bool {
	return len(o.Bots) == 1 && o.Bots[0].Cost == 0
}

// Delivery is one letter claim inside an award: the requesting station and
// word, the station's requested letter, the bucket letter covering it, and
// the letter's asking value.
type Delivery struct {
	Station       auction.ParticipantID
	Word          world.WordID
	StationLetter world.Letter
	BucketLetter  world.Letter
	Value         float64
}

// Award pairs one bundle offer with a bucketbot and the letters it won.
type Award struct {
	Bucket     auction.ParticipantID
	Bot        auction.ParticipantID
	BotLoc     world.Point
	BucketLoc  world.Point
	BotCost    float64
	Deliveries []Delivery
}

// Allocator runs the randomized greedy search over bundle offers.
type Allocator struct {
	table           *TravelCostTable
	trials          int
	costWeight      float64
	marginalRevenue float64
	rng             *rand.Rand
}

// NewAllocator builds an allocator over the finalized travel-cost table.
func NewAllocator(table *TravelCostTable, trials int, costWeight, marginalRevenue float64, rng *rand.Rand) *Allocator {
	if trials <= 0 {
		trials = DefaultAllocatorTrials
	}
	return &Allocator{
		table:           table,
		trials:          trials,
		costWeight:      costWeight,
		marginalRevenue: marginalRevenue,
		rng:             rng,
	}
}

// sortOffers orders offers by priority: an offer running on its own
// already-reserved bot at zero cost first, then by expected usefulness,
// letter count times the probability the bucket holds a needed letter,
// descending.
func sortOffers(offers []BundleOffer) {
	sort.SliceStable(offers, func(i, j int) bool {
		a, b := &offers[i], &offers[j]
		if a.ownBotFree() != b.ownBotFree() {
			return a.ownBotFree()
		}
		av := float64(a.BucketLetterCount) * a.LetterProbability
		bv := float64(b.BucketLetterCount) * b.LetterProbability
		return av > bv
	})
}

// greedyPass walks the offers once in the given order, claiming bots and
// letters from the working sets. Both slices are consumed destructively;
// callers pass per-trial copies.
func (al *Allocator) greedyPass(outstanding []OutstandingLetter, freeBots []auction.ParticipantID, offers []BundleOffer) []Award {
	var awards []Award

	free := make(map[auction.ParticipantID]bool, len(freeBots))
	for _, b := range freeBots {
		free[b] = true
	}

	claimed := make([]bool, len(outstanding))

	for oi := range offers {
		o := &offers[oi]
		if len(free) == 0 && !o.ownBotFree() {
			continue
		}

		// Cheapest candidate bot still available. The bucket's own
		// reserved bot at zero cost is always usable.
		best := -1
		bestCost := math.Inf(1)
		for i, opt := range o.Bots {
			if !free[opt.Bot] && !o.ownBotFree() {
				continue
			}
			if opt.Cost >= bestCost {
				continue
			}
			best = i
			bestCost = opt.Cost
		}
		if best < 0 {
			continue
		}

		var deliveries []Delivery
		for _, lo := range o.Letters {
			for i, out := range outstanding {
				if claimed[i] || out.Letter.Type != lo.Letter.Type {
					continue
				}
				claimed[i] = true
				deliveries = append(deliveries, Delivery{
					Station:       out.Station,
					Word:          out.Word,
					StationLetter: out.Letter,
					BucketLetter:  lo.Letter,
					Value:         lo.Value,
				})
				break
			}
		}
		if len(deliveries) == 0 {
			continue
		}

		delete(free, o.Bots[best].Bot)
		awards = append(awards, Award{
			Bucket:     o.Bucket,
			Bot:        o.Bots[best].Bot,
			BotLoc:     o.Bots[best].Loc,
			BucketLoc:  o.Loc,
			BotCost:    bestCost,
			Deliveries: deliveries,
		})
	}
	return awards
}

// travelCost returns the award's full travel distance: table distance over
// the visited-station subset, plus the bucket's distance to the subset's
// entry station, plus the bot's distance to the bucket.
func (al *Allocator) travelCost(a *Award) float64 {
	mask := 0
	for _, d := range a.Deliveries {
		bit, ok := al.table.StationBit(d.Station)
		if !ok {
			return math.Inf(1)
		}
		mask |= 1 << bit
	}
	cost, entry := al.table.Cost(mask)
	if math.IsInf(cost, 1) {
		return cost
	}
	return cost + a.BucketLoc.DistanceTo(entry) + a.BotLoc.DistanceTo(a.BucketLoc)
}

// profit scores one trial's award set: marginal revenue per delivered
// letter minus the weighted sum of letter asking values and travel cost.
func (al *Allocator) profit(awards []Award) float64 {
	total := 0.0
	for i := range awards {
		a := &awards[i]
		letterValues := 0.0
		for _, d := range a.Deliveries {
			letterValues += d.Value
		}
		total += float64(len(a.Deliveries)) * al.marginalRevenue
		total -= al.costWeight * (letterValues + al.travelCost(a))
	}
	return total
}

// Allocate runs the full randomized search: offers are priority-sorted,
// then each trial independently shuffles the outstanding letters, the free
// bots, and the offers, runs one greedy pass, and scores it. The trial
// with the strictly greatest profit wins; ties keep the earliest best.
// Zero awards is a normal outcome, not an error.
func (al *Allocator) Allocate(outstanding []OutstandingLetter, freeBots []auction.ParticipantID, offers []BundleOffer) []Award {
	sortOffers(offers)

	bestProfit := math.Inf(-1)
	var bestAwards []Award

	for trial := 0; trial < al.trials; trial++ {
		letters := make([]OutstandingLetter, len(outstanding))
		copy(letters, outstanding)
		bots := make([]auction.ParticipantID, len(freeBots))
		copy(bots, freeBots)
		offerOrder := make([]BundleOffer, len(offers))
		copy(offerOrder, offers)

		al.rng.Shuffle(len(letters), func(i, j int) {
			letters[i], letters[j] = letters[j], letters[i]
		})
		al.rng.Shuffle(len(bots), func(i, j int) {
			bots[i], bots[j] = bots[j], bots[i]
		})
		al.rng.Shuffle(len(offerOrder), func(i, j int) {
			offerOrder[i], offerOrder[j] = offerOrder[j], offerOrder[i]
		})

		awards := al.greedyPass(letters, bots, offerOrder)
		if p := al.profit(awards); p > bestProfit {
			bestProfit = p
			bestAwards = awards
		}
	}
	return bestAwards
}
