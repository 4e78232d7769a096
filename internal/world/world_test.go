package world

import (
	"math"
	"math/rand"
	"reflect"
	"testing"
)

func TestDistance(t *testing.T) {
	p := Point{X: 0, Y: 0}
	q := Point{X: 3, Y: 4}
	if d := p.DistanceTo(q); d != 5 {
		t.Errorf("DistanceTo = %v, want 5", d)
	}
	c := Circle{Center: p, Radius: 1}
	o := Circle{Center: q, Radius: 2}
	if d := c.DistanceTo(o); d != 5 {
		t.Errorf("Circle.DistanceTo = %v, want 5 (center to center)", d)
	}
}

func TestWordSlots(t *testing.T) {
	w := newWord(1, "soup")
	if w.Completed() {
		t.Error("fresh word reports completed")
	}
	if got := w.OpenSlotCount(); got != 4 {
		t.Errorf("OpenSlotCount = %d, want 4", got)
	}
	i := w.OpenSlotOfType(LetterType('o'))
	if i != 1 {
		t.Fatalf("OpenSlotOfType('o') = %d, want 1", i)
	}
	w.Slots[i].Filled = true
	if got := w.OpenSlotOfType(LetterType('o')); got != -1 {
		t.Errorf("second 'o' slot found at %d, want -1", got)
	}
	for i := range w.Slots {
		w.Slots[i].Filled = true
	}
	if !w.Completed() {
		t.Error("fully filled word not completed")
	}
}

func TestWordListKeepsOpenOrderCount(t *testing.T) {
	wl := NewWordList([]string{"cat", "dog", "bird"}, 5, rand.New(rand.NewSource(7)))
	if got := len(wl.Available()); got != 5 {
		t.Fatalf("open orders = %d, want 5", got)
	}
	seen := map[WordID]bool{}
	for i := 0; i < 20; i++ {
		w := wl.Take(i % 5)
		if seen[w.ID] {
			t.Fatalf("word id %d handed out twice", w.ID)
		}
		seen[w.ID] = true
		if got := len(wl.Available()); got != 5 {
			t.Fatalf("open orders = %d after take, want 5", got)
		}
	}
}

func TestLetterProbabilities(t *testing.T) {
	// "aab" + "b": a appears 2/4, b 2/4.
	wl := NewWordList([]string{"aab", "b"}, 1, rand.New(rand.NewSource(1)))
	if got := wl.LetterProbability(LetterType('a')); got != 0.5 {
		t.Errorf("P(a) = %v, want 0.5", got)
	}
	if got := wl.LetterProbability(LetterType('b')); got != 0.5 {
		t.Errorf("P(b) = %v, want 0.5", got)
	}
	if got := wl.LetterProbability(LetterType('z')); got != 0 {
		t.Errorf("P(z) = %v, want 0", got)
	}
}

func TestGenerateFacilityDeterministic(t *testing.T) {
	cfg := DefaultLayoutConfig()
	a := GenerateFacility(cfg)
	b := GenerateFacility(cfg)
	if !reflect.DeepEqual(a, b) {
		t.Error("same seed produced different facilities")
	}
	cfg.Seed = 2
	c := GenerateFacility(cfg)
	if reflect.DeepEqual(a.BucketbotStarts, c.BucketbotStarts) {
		t.Error("different seeds produced identical bucketbot starts")
	}
}

func TestGenerateFacilityBounds(t *testing.T) {
	cfg := DefaultLayoutConfig()
	f := GenerateFacility(cfg)

	if got := len(f.WordStations); got != cfg.WordStations {
		t.Errorf("word stations = %d, want %d", got, cfg.WordStations)
	}
	if got := len(f.LetterStations); got != cfg.LetterStations {
		t.Errorf("letter stations = %d, want %d", got, cfg.LetterStations)
	}
	if len(f.Storage) == 0 || len(f.Storage) > cfg.StorageRows*cfg.StorageCols {
		t.Errorf("storage count = %d, want 1..%d", len(f.Storage), cfg.StorageRows*cfg.StorageCols)
	}

	inBounds := func(p Point) bool {
		return p.X >= 0 && p.X <= cfg.Width && p.Y >= 0 && p.Y <= cfg.Height
	}
	for _, s := range f.WordStations {
		if !inBounds(s.Center) {
			t.Errorf("word station out of bounds: %+v", s.Center)
		}
	}
	for _, s := range f.LetterStations {
		if !inBounds(s.Center) {
			t.Errorf("letter station out of bounds: %+v", s.Center)
		}
	}
	seen := map[WaypointID]bool{}
	for _, w := range f.Storage {
		if !inBounds(w.Loc) {
			t.Errorf("storage waypoint out of bounds: %+v", w.Loc)
		}
		if seen[w.ID] {
			t.Errorf("duplicate waypoint id %d", w.ID)
		}
		seen[w.ID] = true
	}
	for _, p := range f.BucketbotStarts {
		if !inBounds(p) {
			t.Errorf("bucketbot start out of bounds: %+v", p)
		}
	}

	center := f.Center()
	if math.Abs(center.X-cfg.Width/2) > 1e-9 || math.Abs(center.Y-cfg.Height/2) > 1e-9 {
		t.Errorf("Center = %+v", center)
	}
}
