package scenario

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/papapumpkin/orbitflow/internal/orbit"
	"github.com/papapumpkin/orbitflow/internal/spacetime"
)

// Outcome is the result of running a scenario. Orbit runs have exactly one
// trajectory and no collisions.
type Outcome struct {
	Scenario     string
	Kind         string
	Seed         uint64
	Params       orbit.Params
	CentralMass  float64
	Trajectories []orbit.Trajectory
	Energies     []orbit.EnergySeries
	Collisions   []orbit.CollisionEvent
}

// MaxDrift is the largest relative energy drift across all bodies. Bodies
// whose energy overflowed to NaN are skipped.
func (o *Outcome) MaxDrift() float64 {
	var worst float64
	for _, e := range o.Energies {
		if d := orbit.EnergyDrift(e); !math.IsNaN(d) {
			worst = max(worst, d)
		}
	}
	return worst
}

// Run executes the scenario with a generator seeded from Seed.
func (s *Scenario) Run() (*Outcome, error) {
	return s.RunWith(s.Seed, s.Rand())
}

// RunWith executes the scenario with an explicit generator. seed is only
// recorded on the outcome.
func (s *Scenario) RunWith(seed uint64, rng *rand.Rand) (*Outcome, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	out := &Outcome{
		Scenario:    s.Name,
		Kind:        s.Kind,
		Seed:        seed,
		Params:      s.Params(),
		CentralMass: s.CentralMass,
	}

	switch s.Kind {
	case KindOrbit:
		traj, energy, err := orbit.IntegrateSingle(out.Params, s.CentralMass, s.Bodies[0].Mass, s.Perturbation, rng)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: %w", s.Name, err)
		}
		out.Trajectories = []orbit.Trajectory{traj}
		out.Energies = []orbit.EnergySeries{energy}
	default:
		res, err := orbit.IntegrateMulti(out.Params, s.CentralMass, s.Planets(), s.UsesPerturbation(), rng)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: %w", s.Name, err)
		}
		out.Trajectories = res.Trajectories
		out.Energies = res.Energies
		out.Collisions = res.Collisions
	}
	return out, nil
}

// UsesPerturbation reports whether the run injects random accelerations.
func (s *Scenario) UsesPerturbation() bool {
	if s.Kind == KindOrbit {
		return s.Perturbation > 0
	}
	return s.ModelValue() == spacetime.ModelFlux
}
