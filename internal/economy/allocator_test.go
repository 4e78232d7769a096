package economy

import (
	"math/rand"
	"testing"

	"github.com/soupworks/lettermarket/internal/auction"
	"github.com/soupworks/lettermarket/internal/world"
)

const (
	stationA auction.ParticipantID = 1
	stationB auction.ParticipantID = 2
	bucketX  auction.ParticipantID = 10
	bucketY  auction.ParticipantID = 11
	botOne   auction.ParticipantID = 20
	botTwo   auction.ParticipantID = 21
	botThree auction.ParticipantID = 22
)

func testAllocator(t *testing.T, trials int) *Allocator {
	t.Helper()
	table := mustTable(t,
		[]auction.ParticipantID{stationA, stationB},
		[]world.Point{{X: 0, Y: 0}, {X: 10, Y: 0}})
	return NewAllocator(table, trials, DefaultCostWeight, 10, rand.New(rand.NewSource(42)))
}

func letter(id world.LetterID, r rune) world.Letter {
	return world.Letter{ID: id, Type: world.LetterType(r)}
}

func TestAllocatorNeverClaimsALetterTwice(t *testing.T) {
	al := testAllocator(t, 300)

	// Two offers both able to cover the single outstanding letter, each
	// with its own bot, so nothing but the letter is contested.
	outstanding := []OutstandingLetter{
		{Letter: letter(1, 'a'), Word: 1, Station: stationA},
	}
	freeBots := []auction.ParticipantID{botOne, botTwo}
	offers := []BundleOffer{
		{
			Bucket:  bucketX,
			Loc:     world.Point{X: 1, Y: 0},
			Bots:    []BotOption{{Bot: botOne, Cost: 2, Loc: world.Point{X: 1, Y: 1}}},
			Letters: []LetterOffer{{Letter: letter(100, 'a'), Value: 1}},
		},
		{
			Bucket:  bucketY,
			Loc:     world.Point{X: 2, Y: 0},
			Bots:    []BotOption{{Bot: botTwo, Cost: 2, Loc: world.Point{X: 2, Y: 1}}},
			Letters: []LetterOffer{{Letter: letter(101, 'a'), Value: 1}},
		},
	}

	awards := al.Allocate(outstanding, freeBots, offers)

	claimedStation := map[world.LetterID]int{}
	botAwards := map[auction.ParticipantID]int{}
	for _, a := range awards {
		botAwards[a.Bot]++
		for _, d := range a.Deliveries {
			claimedStation[d.StationLetter.ID]++
		}
	}
	for id, n := range claimedStation {
		if n > 1 {
			t.Errorf("outstanding letter %d claimed %d times", id, n)
		}
	}
	for bot, n := range botAwards {
		if n > 1 {
			t.Errorf("bot %d appears in %d awards", bot, n)
		}
	}
	if len(claimedStation) != 1 {
		t.Errorf("winning trial claimed %d letters, want exactly 1", len(claimedStation))
	}
}

func TestAllocatorZeroAwardsWhenNothingMatches(t *testing.T) {
	al := testAllocator(t, 50)

	outstanding := []OutstandingLetter{
		{Letter: letter(1, 'z'), Word: 1, Station: stationA},
	}
	offers := []BundleOffer{{
		Bucket:  bucketX,
		Bots:    []BotOption{{Bot: botOne, Cost: 1}},
		Letters: []LetterOffer{{Letter: letter(100, 'a'), Value: 1}},
	}}

	awards := al.Allocate(outstanding, []auction.ParticipantID{botOne}, offers)
	if len(awards) != 0 {
		t.Fatalf("got %d awards, want 0 (no letter type matches)", len(awards))
	}
}

func TestAllocatorOwnBotUsableWithNoFreeBots(t *testing.T) {
	al := testAllocator(t, 50)

	outstanding := []OutstandingLetter{
		{Letter: letter(1, 'a'), Word: 1, Station: stationA},
	}
	offers := []BundleOffer{{
		Bucket:  bucketX,
		Loc:     world.Point{X: 1, Y: 0},
		Bots:    []BotOption{{Bot: botOne, Cost: 0, Loc: world.Point{X: 1, Y: 0}}},
		Letters: []LetterOffer{{Letter: letter(100, 'a'), Value: 1}},
	}}

	awards := al.Allocate(outstanding, nil, offers)
	if len(awards) != 1 {
		t.Fatalf("got %d awards, want 1 (own reserved bot at zero cost)", len(awards))
	}
	if awards[0].Bot != botOne || awards[0].BotCost != 0 {
		t.Errorf("award bot = %d cost %v, want own bot at 0", awards[0].Bot, awards[0].BotCost)
	}
}

func TestAllocatorPicksCheapestCandidateBot(t *testing.T) {
	al := testAllocator(t, 50)

	outstanding := []OutstandingLetter{
		{Letter: letter(1, 'a'), Word: 1, Station: stationA},
	}
	offers := []BundleOffer{{
		Bucket: bucketX,
		Loc:    world.Point{X: 1, Y: 0},
		Bots: []BotOption{
			{Bot: botOne, Cost: 5, Loc: world.Point{X: 0, Y: 1}},
			{Bot: botTwo, Cost: 2, Loc: world.Point{X: 0, Y: 2}},
		},
		Letters: []LetterOffer{{Letter: letter(100, 'a'), Value: 1}},
	}}

	awards := al.Allocate(outstanding, []auction.ParticipantID{botOne, botTwo}, offers)
	if len(awards) != 1 {
		t.Fatalf("got %d awards, want 1", len(awards))
	}
	if awards[0].Bot != botTwo || awards[0].BotCost != 2 {
		t.Errorf("award bot = %d cost %v, want cheapest candidate (bot %d at 2)",
			awards[0].Bot, awards[0].BotCost, botTwo)
	}
}

func TestSortOffersPriority(t *testing.T) {
	offers := []BundleOffer{
		{Bucket: 1, BucketLetterCount: 2, LetterProbability: 0.5,
			Bots: []BotOption{{Bot: botOne, Cost: 3}}},
		{Bucket: 2, BucketLetterCount: 4, LetterProbability: 0.5,
			Bots: []BotOption{{Bot: botOne, Cost: 3}}},
		{Bucket: 3, BucketLetterCount: 1, LetterProbability: 0.1,
			Bots: []BotOption{{Bot: botTwo, Cost: 0}}},
	}
	sortOffers(offers)

	if offers[0].Bucket != 3 {
		t.Errorf("own-zero-cost-bot offer ranked %d, want first", offers[0].Bucket)
	}
	if offers[1].Bucket != 2 || offers[2].Bucket != 1 {
		t.Errorf("remaining order = %d,%d, want 2,1 (letters x probability desc)",
			offers[1].Bucket, offers[2].Bucket)
	}
}

func TestSortOffersOrdersMultipleOwnBotOffers(t *testing.T) {
	offers := []BundleOffer{
		{Bucket: 1, BucketLetterCount: 2, LetterProbability: 0.5,
			Bots: []BotOption{{Bot: botOne, Cost: 3}}},
		{Bucket: 2, BucketLetterCount: 1, LetterProbability: 0.1,
			Bots: []BotOption{{Bot: botTwo, Cost: 0}}},
		{Bucket: 3, BucketLetterCount: 2, LetterProbability: 0.5,
			Bots: []BotOption{{Bot: botThree, Cost: 0}}},
	}
	sortOffers(offers)

	// Both own-bot offers lead, ordered by letters x probability among
	// themselves, before any offer needing a free bot.
	want := []auction.ParticipantID{3, 2, 1}
	for i, w := range want {
		if offers[i].Bucket != w {
			t.Errorf("offers[%d].Bucket = %d, want %d", i, offers[i].Bucket, w)
		}
	}
}

func TestAllocatorClaimsAreSubsetOfOutstanding(t *testing.T) {
	al := testAllocator(t, 100)

	outstanding := []OutstandingLetter{
		{Letter: letter(1, 'a'), Word: 1, Station: stationA},
		{Letter: letter(2, 'b'), Word: 1, Station: stationA},
		{Letter: letter(3, 'a'), Word: 2, Station: stationB},
	}
	offers := []BundleOffer{
		{
			Bucket: bucketX,
			Loc:    world.Point{X: 1, Y: 0},
			Bots:   []BotOption{{Bot: botOne, Cost: 1, Loc: world.Point{X: 1, Y: 1}}},
			Letters: []LetterOffer{
				{Letter: letter(100, 'a'), Value: 1},
				{Letter: letter(101, 'a'), Value: 1},
				{Letter: letter(102, 'c'), Value: 1},
			},
		},
	}

	awards := al.Allocate(outstanding, []auction.ParticipantID{botOne}, offers)

	valid := map[world.LetterID]world.LetterType{}
	for _, o := range outstanding {
		valid[o.Letter.ID] = o.Letter.Type
	}
	for _, a := range awards {
		for _, d := range a.Deliveries {
			wantType, ok := valid[d.StationLetter.ID]
			if !ok {
				t.Errorf("claimed letter %d not in outstanding set", d.StationLetter.ID)
			}
			if d.BucketLetter.Type != wantType {
				t.Errorf("delivery pairs bucket type %v with station type %v",
					d.BucketLetter.Type, wantType)
			}
		}
	}
}
