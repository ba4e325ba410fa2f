package orbit

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/spatial/r2"
)

// Single-body start state: unit distance on the x axis, unit speed along y.
var (
	SingleStart    = r2.Vec{X: 1, Y: 0}
	SingleVelocity = r2.Vec{X: 0, Y: 1}
)

// IntegrateSingle runs one body from SingleStart with SingleVelocity.
// perturbation is the standard deviation of the Gaussian noise added to each
// acceleration component; rng may be nil when perturbation is zero.
//
// The start state is not a circular orbit for most G*M, so the body may spiral
// or escape.
func IntegrateSingle(p Params, centralMass, bodyMass, perturbation float64, rng *rand.Rand) (Trajectory, EnergySeries, error) {
	if perturbation < 0 || math.IsNaN(perturbation) || math.IsInf(perturbation, 0) {
		return nil, nil, fmt.Errorf("%w: perturbation must be a non-negative finite value, got %v", ErrInvalidInput, perturbation)
	}
	in := Integrator{
		Params:      p,
		CentralMass: centralMass,
		Seed:        FixedVelocity{V: SingleVelocity},
		Perturb:     ScaledNoise{Sigma: perturbation},
		Rand:        rng,
	}
	return in.Run(SingleStart, bodyMass)
}

// SystemResult is the output of IntegrateMulti. Trajectories and Energies are
// indexed like the input planets.
type SystemResult struct {
	Trajectories []Trajectory
	Energies     []EnergySeries
	Collisions   []CollisionEvent
}

// IntegrateMulti propagates each planet independently on a circular-orbit seed
// and then checks every pair for proximity. When usePerturbation is set each
// acceleration gets FixedNoise; rng must then be non-nil.
func IntegrateMulti(p Params, centralMass float64, planets []Planet, usePerturbation bool, rng *rand.Rand) (*SystemResult, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := (Body{Mass: centralMass}).validate("central"); err != nil {
		return nil, err
	}
	for i, pl := range planets {
		if err := pl.validate(fmt.Sprintf("planet %d", i)); err != nil {
			return nil, err
		}
		if !(pl.Distance > 0) || math.IsInf(pl.Distance, 0) {
			return nil, fmt.Errorf("%w: planet %d distance must be positive, got %v", ErrInvalidInput, i, pl.Distance)
		}
	}

	var perturb Perturbation = NoPerturbation{}
	if usePerturbation {
		perturb = FixedNoise{}
	}
	in := Integrator{
		Params:      p,
		CentralMass: centralMass,
		Seed:        CircularVelocity{},
		Perturb:     perturb,
		Rand:        rng,
	}

	res := &SystemResult{
		Trajectories: make([]Trajectory, len(planets)),
		Energies:     make([]EnergySeries, len(planets)),
	}
	radii := make([]float64, len(planets))
	for i, pl := range planets {
		traj, energy, err := in.Run(r2.Vec{X: pl.Distance}, pl.Mass)
		if err != nil {
			var se *SingularError
			if errors.As(err, &se) {
				se.Body = i
			}
			return nil, err
		}
		res.Trajectories[i] = traj
		res.Energies[i] = energy
		radii[i] = pl.Radius
	}
	res.Collisions = DetectCollisions(res.Trajectories, radii)
	return res, nil
}

// DetectCollisions compares every unordered pair of trajectories step by step
// and reports the pairs whose distance drops strictly below the sum of their
// radii. Only steps present in both trajectories are compared. A trajectory
// without a matching entry in radii is a point body of radius 0.
func DetectCollisions(trajs []Trajectory, radii []float64) []CollisionEvent {
	radius := func(i int) float64 {
		if i < len(radii) {
			return radii[i]
		}
		return 0
	}
	var events []CollisionEvent
	for i := 0; i < len(trajs); i++ {
		for j := i + 1; j < len(trajs); j++ {
			threshold := radius(i) + radius(j)
			n := min(len(trajs[i]), len(trajs[j]))

			var steps []int
			for k := 0; k < n; k++ {
				if r2.Norm(r2.Sub(trajs[i][k].Pos, trajs[j][k].Pos)) < threshold {
					steps = append(steps, trajs[i][k].Step)
				}
			}
			if len(steps) > 0 {
				events = append(events, CollisionEvent{I: i, J: j, Steps: steps})
			}
		}
	}
	return events
}
