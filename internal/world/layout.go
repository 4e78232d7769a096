package world

import (
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// LayoutConfig holds facility generation parameters.
type LayoutConfig struct {
	Width  float64
	Height float64

	WordStations   int // placed along the left wall
	LetterStations int // placed along the right wall

	StorageRows int
	StorageCols int
	// Congestion threshold in [0,1]: storage cells whose noise sample
	// exceeds it are left open as aisles. 1 keeps the full grid.
	AisleThreshold float64

	StationRadius   float64
	BucketRadius    float64
	BucketbotRadius float64
	Bucketbots      int

	Seed int64
}

// DefaultLayoutConfig returns a facility sized for a small run.
func DefaultLayoutConfig() LayoutConfig {
	return LayoutConfig{
		Width:           100,
		Height:          100,
		WordStations:    4,
		LetterStations:  4,
		StorageRows:     8,
		StorageCols:     8,
		AisleThreshold:  0.85,
		StationRadius:   2.5,
		BucketRadius:    1.0,
		BucketbotRadius: 1.0,
		Bucketbots:      6,
		Seed:            1,
	}
}

// Facility is the generated floor plan. Word stations line the left wall,
// letter stations the right, and bucket storage fills a noise-thinned grid
// between them.
type Facility struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`

	WordStations    []Circle   `json:"word_stations"`
	LetterStations  []Circle   `json:"letter_stations"`
	Storage         []Waypoint `json:"storage"`
	BucketbotStarts []Point    `json:"bucketbot_starts"`

	StationRadius   float64 `json:"station_radius"`
	BucketRadius    float64 `json:"bucket_radius"`
	BucketbotRadius float64 `json:"bucketbot_radius"`
}

// GenerateFacility lays out a facility from the config. Generation is fully
// determined by cfg.Seed.
func GenerateFacility(cfg LayoutConfig) *Facility {
	rng := rand.New(rand.NewSource(cfg.Seed))
	noise := opensimplex.NewNormalized(cfg.Seed)

	f := &Facility{
		Width:           cfg.Width,
		Height:          cfg.Height,
		StationRadius:   cfg.StationRadius,
		BucketRadius:    cfg.BucketRadius,
		BucketbotRadius: cfg.BucketbotRadius,
	}

	// Stations sit flush against their wall, evenly spaced vertically.
	for i := 0; i < cfg.WordStations; i++ {
		y := cfg.Height * (float64(i) + 0.5) / float64(cfg.WordStations)
		f.WordStations = append(f.WordStations, Circle{
			Center: Point{X: cfg.StationRadius, Y: y},
			Radius: cfg.StationRadius,
		})
	}
	for i := 0; i < cfg.LetterStations; i++ {
		y := cfg.Height * (float64(i) + 0.5) / float64(cfg.LetterStations)
		f.LetterStations = append(f.LetterStations, Circle{
			Center: Point{X: cfg.Width - cfg.StationRadius, Y: y},
			Radius: cfg.StationRadius,
		})
	}

	// Storage grid occupies the middle band of the floor, inset from both
	// station walls. Cells with a high noise sample are skipped, carving
	// irregular aisles the way terrain generation carves coastlines.
	insetX := cfg.Width * 0.2
	insetY := cfg.Height * 0.1
	var id WaypointID
	for row := 0; row < cfg.StorageRows; row++ {
		for col := 0; col < cfg.StorageCols; col++ {
			x := insetX + (cfg.Width-2*insetX)*(float64(col)+0.5)/float64(cfg.StorageCols)
			y := insetY + (cfg.Height-2*insetY)*(float64(row)+0.5)/float64(cfg.StorageRows)
			if noise.Eval2(x*0.1, y*0.1) > cfg.AisleThreshold {
				continue
			}
			f.Storage = append(f.Storage, Waypoint{ID: id, Loc: Point{X: x, Y: y}})
			id++
		}
	}

	// Bucketbots start at random open positions.
	for i := 0; i < cfg.Bucketbots; i++ {
		f.BucketbotStarts = append(f.BucketbotStarts, Point{
			X: insetX + rng.Float64()*(cfg.Width-2*insetX),
			Y: rng.Float64() * cfg.Height,
		})
	}

	return f
}

// Center returns the middle of the floor. The storage market is situated
// here.
func (f *Facility) Center() Point {
	return Point{X: f.Width / 2, Y: f.Height / 2}
}
