package world

import "math/rand"

// WordID identifies one word order.
type WordID int32

// Slot is one letter position in a word order. It is filled when the
// matching letter has been delivered to the assembling station.
type Slot struct {
	Type   LetterType `json:"type"`
	Filled bool       `json:"filled"`
}

// Word is one outstanding word order.
type Word struct {
	ID    WordID `json:"id"`
	Text  string `json:"text"`
	Slots []Slot `json:"slots"`
}

func newWord(id WordID, text string) *Word {
	w := &Word{ID: id, Text: text}
	for _, r := range text {
		w.Slots = append(w.Slots, Slot{Type: LetterType(r)})
	}
	return w
}

// Completed reports whether every slot has been filled.
func (w *Word) Completed() bool {
	for _, s := range w.Slots {
		if !s.Filled {
			return false
		}
	}
	return true
}

// OpenSlotOfType returns the index of the first unfilled slot needing the
// given letter type, or -1.
func (w *Word) OpenSlotOfType(t LetterType) int {
	for i, s := range w.Slots {
		if !s.Filled && s.Type == t {
			return i
		}
	}
	return -1
}

// OpenSlotCount returns the number of unfilled slots.
func (w *Word) OpenSlotCount() int {
	n := 0
	for _, s := range w.Slots {
		if !s.Filled {
			n++
		}
	}
	return n
}

// WordList manages the stream of word orders. A fixed number of orders is
// kept open: taking an available word immediately draws a replacement from
// the dictionary, so the order book never drains.
type WordList struct {
	rng        *rand.Rand
	dictionary []string
	letterProb map[LetterType]float64

	available []*Word
	completed int
	nextID    WordID
}

// NewWordList builds a word list over the given dictionary and keeps open
// random word orders drawn with rng. Letter probabilities are letter-type
// frequencies across the dictionary.
func NewWordList(dictionary []string, open int, rng *rand.Rand) *WordList {
	wl := &WordList{
		rng:        rng,
		dictionary: dictionary,
		letterProb: make(map[LetterType]float64),
	}
	total := 0
	for _, text := range dictionary {
		for _, r := range text {
			wl.letterProb[LetterType(r)]++
			total++
		}
	}
	for t := range wl.letterProb {
		wl.letterProb[t] /= float64(total)
	}
	for i := 0; i < open; i++ {
		wl.available = append(wl.available, wl.draw())
	}
	return wl
}

func (wl *WordList) draw() *Word {
	text := wl.dictionary[wl.rng.Intn(len(wl.dictionary))]
	wl.nextID++
	return newWord(wl.nextID, text)
}

// LetterProbability returns the frequency of the given letter type across
// the dictionary, 0 for a type the dictionary never uses.
func (wl *WordList) LetterProbability(t LetterType) float64 {
	return wl.letterProb[t]
}

// Available returns the currently open word orders in stable order.
func (wl *WordList) Available() []*Word {
	return wl.available
}

// Take removes the available word at index i, handing it to a station, and
// draws a replacement into the same position.
func (wl *WordList) Take(i int) *Word {
	w := wl.available[i]
	wl.available[i] = wl.draw()
	return w
}

// RecordCompleted counts one finished word.
func (wl *WordList) RecordCompleted() {
	wl.completed++
}

// CompletedCount returns the number of words finished so far.
func (wl *WordList) CompletedCount() int {
	return wl.completed
}
