package orbit

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/spatial/r2"
)

// FixedNoiseSigma is the standard deviation used by FixedNoise.
const FixedNoiseSigma = 1e-6

// VelocitySeed picks the initial velocity of a body starting at pos.
type VelocitySeed interface {
	Velocity(g, centralMass float64, pos r2.Vec) r2.Vec
}

// FixedVelocity starts every body with the same velocity V.
type FixedVelocity struct {
	V r2.Vec
}

func (s FixedVelocity) Velocity(_, _ float64, _ r2.Vec) r2.Vec { return s.V }

// CircularVelocity starts a body on a counter-clockwise circular orbit:
// speed sqrt(G*M/r), perpendicular to the radius vector. A body at (d, 0)
// gets (0, sqrt(G*M/d)).
type CircularVelocity struct{}

func (CircularVelocity) Velocity(g, centralMass float64, pos r2.Vec) r2.Vec {
	r := r2.Norm(pos)
	v := CircularSpeed(g, centralMass, r)
	return r2.Vec{X: -pos.Y / r * v, Y: pos.X / r * v}
}

// Perturbation injects a random acceleration term each step.
type Perturbation interface {
	// Active reports whether Sample must be called at all. Inactive
	// perturbations never touch the random source.
	Active() bool
	Sample(rng *rand.Rand) r2.Vec
}

// NoPerturbation leaves the acceleration purely central.
type NoPerturbation struct{}

func (NoPerturbation) Active() bool             { return false }
func (NoPerturbation) Sample(*rand.Rand) r2.Vec { return r2.Vec{} }

// ScaledNoise adds Sigma * N(0, 1) to each acceleration component. This is
// the user-controlled knob of single-body runs.
type ScaledNoise struct {
	Sigma float64
}

func (s ScaledNoise) Active() bool { return s.Sigma != 0 }

func (s ScaledNoise) Sample(rng *rand.Rand) r2.Vec {
	return r2.Scale(s.Sigma, gaussian2(rng))
}

// FixedNoise adds N(0, FixedNoiseSigma) to each acceleration component. It is
// the switch-only mode of system runs and has no magnitude parameter.
type FixedNoise struct{}

func (FixedNoise) Active() bool { return true }

func (FixedNoise) Sample(rng *rand.Rand) r2.Vec {
	return r2.Scale(FixedNoiseSigma, gaussian2(rng))
}

func gaussian2(rng *rand.Rand) r2.Vec {
	return r2.Vec{X: rng.NormFloat64(), Y: rng.NormFloat64()}
}

// Integrator propagates one body at a time around a fixed central mass at the
// origin. It holds no state between calls to Run.
type Integrator struct {
	Params
	CentralMass float64
	Seed        VelocitySeed
	Perturb     Perturbation
	Rand        *rand.Rand
}

// Run integrates a body of the given mass starting at start. The body index
// reported in a SingularError is always 0; IntegrateMulti rewrites it.
func (in *Integrator) Run(start r2.Vec, mass float64) (Trajectory, EnergySeries, error) {
	if err := in.Params.Validate(); err != nil {
		return nil, nil, err
	}
	if err := (Body{Mass: in.CentralMass}).validate("central"); err != nil {
		return nil, nil, err
	}
	if err := (Body{Mass: mass}).validate("body"); err != nil {
		return nil, nil, err
	}

	perturb := in.Perturb
	if perturb == nil {
		perturb = NoPerturbation{}
	}
	noisy := perturb.Active()
	if noisy && in.Rand == nil {
		return nil, nil, ErrNoRandomSource
	}
	seed := in.Seed
	if seed == nil {
		seed = FixedVelocity{}
	}

	if r2.Norm(start) == 0 {
		return nil, nil, &SingularError{Step: 0}
	}

	gm := in.G * in.CentralMass
	pos := start
	vel := seed.Velocity(in.G, in.CentralMass, start)

	traj := make(Trajectory, 0, in.Steps)
	energy := make(EnergySeries, 0, in.Steps)
	for step := 0; step < in.Steps; step++ {
		r := r2.Norm(pos)
		if r == 0 {
			return nil, nil, &SingularError{Step: step}
		}

		acc := r2.Scale(-gm/math.Pow(r, 3), pos)
		if noisy {
			acc = r2.Add(acc, perturb.Sample(in.Rand))
		}
		vel = r2.Add(vel, r2.Scale(in.Dt, acc))
		pos = r2.Add(pos, r2.Scale(in.Dt, vel))

		traj = append(traj, TrajectoryPoint{Pos: pos, Vel: vel, Step: step})
		energy = append(energy, 0.5*mass*r2.Norm2(vel)-gm*mass/r)
	}
	return traj, energy, nil
}
