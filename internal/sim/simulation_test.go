package sim

import (
	"testing"
)

func smallOptions() Options {
	o := DefaultOptions()
	o.Layout.WordStations = 2
	o.Layout.LetterStations = 2
	o.Layout.StorageRows = 4
	o.Layout.StorageCols = 4
	o.Layout.AisleThreshold = 1
	o.Layout.Bucketbots = 3
	o.Dictionary = []string{"cat", "act", "tack"}
	o.OpenWords = 3
	return o
}

func TestNewBuildsFullRoster(t *testing.T) {
	s, err := New(smallOptions())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if got := len(s.Dir.WordStations); got != 2 {
		t.Fatalf("word stations = %d, want 2", got)
	}
	if got := len(s.Dir.LetterStations); got != 2 {
		t.Fatalf("letter stations = %d, want 2", got)
	}
	if got := len(s.Dir.Buckets); got != 3 {
		t.Fatalf("buckets = %d, want 3", got)
	}
	if got := len(s.Dir.Bots); got != 3 {
		t.Fatalf("bucketbots = %d, want 3", got)
	}

	// Every bucket starts parked with letters in hand.
	for _, b := range s.Dir.Buckets {
		if _, ok := s.Dir.Storage.UsedWaypoint(b.ID()); !ok {
			t.Fatalf("bucket %d has no storage waypoint", b.ID())
		}
		if len(b.Letters()) != smallOptions().InitialBucketLetters {
			t.Fatalf("bucket %d letters = %d", b.ID(), len(b.Letters()))
		}
	}

	// Managers first, then stations, buckets, bots.
	profits := s.Profits()
	want := 3 + 2 + 2 + 3 + 3
	if len(profits) != want {
		t.Fatalf("profit entries = %d, want %d", len(profits), want)
	}
	if profits[0].Kind != "storage_manager" || profits[len(profits)-1].Kind != "bucketbot" {
		t.Fatalf("profit ordering wrong: %s .. %s", profits[0].Kind, profits[len(profits)-1].Kind)
	}
}

func TestNewRejectsEmptyDictionary(t *testing.T) {
	o := smallOptions()
	o.Dictionary = nil
	if _, err := New(o); err == nil {
		t.Fatalf("expected error for empty dictionary")
	}
}

func TestRunIsDeterministic(t *testing.T) {
	run := func() Stats {
		s, err := New(smallOptions())
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		for i := 0; i < 200; i++ {
			s.Clock.Step()
		}
		return s.Stats()
	}

	a := run()
	b := run()
	if a != b {
		t.Fatalf("same seed diverged: %+v vs %+v", a, b)
	}
	if a.Time <= 0 {
		t.Fatalf("clock did not advance")
	}
}

// Observers poll over HTTP while the clock loop mutates markets and
// agents; every read must go through the simulation's lock. Run with
// -race to catch unlocked access paths.
func TestObserversSafeDuringRun(t *testing.T) {
	s, err := New(smallOptions())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			s.Step()
		}
	}()

	for {
		select {
		case <-done:
			if s.Now() <= 0 {
				t.Fatalf("clock did not advance")
			}
			return
		default:
			s.Stats()
			s.MarketSummaries()
			s.Profits()
			s.OpenWords()
		}
	}
}

func TestClockAdvancesOnBidCadence(t *testing.T) {
	s, err := New(smallOptions())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	first := s.Clock.Step()
	if first != s.Opts.Params.BidInterval {
		t.Fatalf("first step landed at %v, want %v", first, s.Opts.Params.BidInterval)
	}
}
