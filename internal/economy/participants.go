// Package economy provides the market orchestrator: situated double-auction
// markets for letters, transportation, and storage, a periodic clearing
// cycle, settlement dispatch, and the combinatorial bundle allocator.
package economy

import (
	"github.com/soupworks/lettermarket/internal/auction"
	"github.com/soupworks/lettermarket/internal/world"
)

// Settlement callback interfaces, one pair per market family. Participants
// implement the pairs for the roles they play; the economy invokes the
// buyer's callback before the seller's for every exchange. Callbacks must
// not re-enter the clearing path.
type (
	TransportationBuyer interface {
		TransportationBought(e auction.Exchange)
	}
	TransportationSeller interface {
		TransportationSold(e auction.Exchange)
	}
	LetterBuyer interface {
		LetterBought(e auction.Exchange)
	}
	LetterSeller interface {
		LetterSold(e auction.Exchange)
	}
	BundleBuyer interface {
		LetterBundleBought(e auction.Exchange)
	}
	BundleSeller interface {
		LetterBundleSold(e auction.Exchange)
	}
)

// OutstandingLetter is one letter request a word station has not yet had
// claimed by any bucket: the concrete letter wanted, the word it belongs
// to, and the requesting station.
type OutstandingLetter struct {
	Letter  world.Letter
	Word    world.WordID
	Station auction.ParticipantID
}

// WordStationParticipant is implemented by word-station agents so the
// allocator can snapshot their unclaimed letter requests each cycle.
type WordStationParticipant interface {
	LetterBuyer
	OutstandingLetters() []OutstandingLetter
}

// BucketbotParticipant is implemented by bucketbot agents. Available
// reports whether the bot has no bucket reserved and may be allocated.
type BucketbotParticipant interface {
	TransportationSeller
	Available() bool
}

// participant is one registered agent record in the economy's arena.
// Role-specific behavior is reached by interface assertion at settlement
// time; an agent not implementing a callback is skipped.
type participant struct {
	id    auction.ParticipantID
	agent any
}
