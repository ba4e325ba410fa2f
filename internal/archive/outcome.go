package archive

import "github.com/papapumpkin/orbitflow/internal/scenario"

// FromOutcome summarises a finished run for SaveRun.
func FromOutcome(o *scenario.Outcome, perturbed bool) Run {
	return Run{
		Scenario:       o.Scenario,
		Kind:           o.Kind,
		G:              o.Params.G,
		CentralMass:    o.CentralMass,
		Steps:          o.Params.Steps,
		Dt:             o.Params.Dt,
		Seed:           o.Seed,
		Perturbed:      perturbed,
		Bodies:         len(o.Trajectories),
		EnergyDrift:    o.MaxDrift(),
		CollisionPairs: len(o.Collisions),
	}
}
