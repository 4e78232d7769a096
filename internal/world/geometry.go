// Facility floor model: flat 2D geometry, letters and words, storage
// waypoints, and noise-driven layout generation.
package world

import "math"

// Point is a fixed location on the facility floor.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// DistanceTo returns the euclidean distance to q.
func (p Point) DistanceTo(q Point) float64 {
	dx := p.X - q.X
	dy := p.Y - q.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Circle is a located body with a footprint radius. Stations, buckets, and
// bucketbots all occupy circles on the floor.
type Circle struct {
	Center Point   `json:"center"`
	Radius float64 `json:"radius"`
}

// DistanceTo returns the center-to-center distance to o.
func (c Circle) DistanceTo(o Circle) float64 {
	return c.Center.DistanceTo(o.Center)
}

// DistanceToPoint returns the center distance to p.
func (c Circle) DistanceToPoint(p Point) float64 {
	return c.Center.DistanceTo(p)
}
