// Package orbit advances point masses around a fixed central body using
// fixed-step semi-implicit Euler integration. Velocity is updated from the
// current acceleration first, then position from the updated velocity.
//
// Orbiting bodies feel only the central mass; they never attract each other.
// Proximity between their trajectories is checked after propagation by
// DetectCollisions.
package orbit

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Sentinel errors returned by the integrator.
var (
	ErrInvalidInput   = errors.New("orbit: invalid input")
	ErrSingular       = errors.New("orbit: singular configuration")
	ErrNoRandomSource = errors.New("orbit: perturbation requires a random source")
)

// SingularError reports that an orbiting body sat exactly on the central mass,
// where the acceleration -G*M/r^3 is undefined.
type SingularError struct {
	Body int // index of the orbiting body (0 for single-body runs)
	Step int // step at which r == 0 was observed
}

func (e *SingularError) Error() string {
	return fmt.Sprintf("orbit: singular configuration: body %d at r=0 on step %d", e.Body, e.Step)
}

// Unwrap lets errors.Is match ErrSingular.
func (e *SingularError) Unwrap() error { return ErrSingular }

// Params are the integration settings shared by every body in a run.
// G is always supplied by the caller; see UnitSystem.
type Params struct {
	G     float64
	Steps int
	Dt    float64
}

// Validate rejects parameters that would produce empty or degenerate output.
func (p Params) Validate() error {
	if !(p.G > 0) || math.IsInf(p.G, 0) {
		return fmt.Errorf("%w: G must be positive and finite, got %v", ErrInvalidInput, p.G)
	}
	if p.Steps <= 0 {
		return fmt.Errorf("%w: steps must be positive, got %d", ErrInvalidInput, p.Steps)
	}
	if !(p.Dt > 0) || math.IsInf(p.Dt, 0) {
		return fmt.Errorf("%w: dt must be positive and finite, got %v", ErrInvalidInput, p.Dt)
	}
	return nil
}

// Body is a gravitating point mass. Radius only matters for collision
// thresholds.
type Body struct {
	Mass   float64
	Radius float64
}

func (b Body) validate(label string) error {
	if !(b.Mass > 0) || math.IsInf(b.Mass, 0) {
		return fmt.Errorf("%w: %s mass must be positive, got %v", ErrInvalidInput, label, b.Mass)
	}
	if b.Radius < 0 || math.IsNaN(b.Radius) {
		return fmt.Errorf("%w: %s radius must be non-negative, got %v", ErrInvalidInput, label, b.Radius)
	}
	return nil
}

// Planet is an orbiting body for system runs. It starts at (Distance, 0).
type Planet struct {
	Body
	Distance float64
}

// TrajectoryPoint is one integration frame for one body.
type TrajectoryPoint struct {
	Pos  r2.Vec
	Vel  r2.Vec
	Step int
}

// Trajectory holds one point per step, in step order.
type Trajectory []TrajectoryPoint

// Positions returns the position of every point.
func (t Trajectory) Positions() []r2.Vec {
	out := make([]r2.Vec, len(t))
	for i, pt := range t {
		out[i] = pt.Pos
	}
	return out
}

// EnergySeries holds the mechanical energy recorded at each step.
type EnergySeries []float64

// CollisionEvent records every step at which bodies I and J were closer than
// the sum of their radii. I is always less than J.
type CollisionEvent struct {
	I     int
	J     int
	Steps []int
}

// CircularSpeed is the speed of a circular orbit of radius d around mass m.
func CircularSpeed(g, m, d float64) float64 {
	return math.Sqrt(g * m / d)
}

// EnergyDrift is |E[n-1] - E[0]| / |E[0]|. It returns 0 for series shorter
// than two samples and +Inf when E[0] is zero but the energy moved.
func EnergyDrift(series EnergySeries) float64 {
	if len(series) < 2 {
		return 0
	}
	first, last := series[0], series[len(series)-1]
	diff := math.Abs(last - first)
	if first == 0 {
		if diff == 0 {
			return 0
		}
		return math.Inf(1)
	}
	return diff / math.Abs(first)
}
