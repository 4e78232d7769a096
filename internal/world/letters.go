package world

// LetterType identifies a kind of letter (the rune it prints as). Markets
// key letter books by this type.
type LetterType int32

// LetterID identifies one physical letter instance. IDs are issued once by
// the simulation and never reused.
type LetterID int32

// NoLetter marks an absent letter reference.
const NoLetter LetterID = -1

// Letter is one physical letter tile moving through the facility.
type Letter struct {
	ID   LetterID   `json:"id"`
	Type LetterType `json:"type"`
}

func (t LetterType) String() string {
	return string(rune(t))
}
