// Package engine provides the discrete-event simulation clock. Components
// report when they next need to act; the clock jumps straight to the
// earliest such time and updates every component in registration order.
package engine

import (
	"context"
	"log/slog"
	"math"
)

// Updateable is one clock-driven component. NextEventTime returns the
// absolute time the component next needs to act given the current time, or
// +Inf when it is idle. Update advances the component from last to now.
type Updateable interface {
	NextEventTime(now float64) float64
	Update(last, now float64)
}

// Clock drives a set of Updateables. Registration order is update order,
// which keeps runs with the same components and seed deterministic.
type Clock struct {
	components []Updateable
	now        float64

	// MaxStep bounds one advance so the clock cannot stall when every
	// component reports +Inf.
	MaxStep float64
}

// NewClock returns a clock at time zero.
func NewClock() *Clock {
	return &Clock{MaxStep: 1.0}
}

// Register appends a component to the update sequence.
func (c *Clock) Register(u Updateable) {
	c.components = append(c.components, u)
}

// Now returns the current simulation time.
func (c *Clock) Now() float64 {
	return c.now
}

// Step advances to the earliest pending event, capped at MaxStep ahead,
// then updates every component. Returns the new current time.
func (c *Clock) Step() float64 {
	next := c.now + c.MaxStep
	for _, u := range c.components {
		if t := u.NextEventTime(c.now); t > c.now && t < next {
			next = t
		}
	}
	last := c.now
	c.now = next
	for _, u := range c.components {
		u.Update(last, c.now)
	}
	return c.now
}

// RunUntil steps the clock until the given end time or ctx cancellation.
func (c *Clock) RunUntil(ctx context.Context, end float64) {
	slog.Info("clock started", "now", c.now, "end", end, "components", len(c.components))
	for c.now < end {
		if ctx.Err() != nil {
			slog.Info("clock cancelled", "now", c.now)
			return
		}
		if next := c.Step(); math.IsInf(next, 1) {
			return
		}
	}
	slog.Info("clock finished", "now", c.now)
}
