package orbit

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownUnits is returned by LookupUnits for unrecognised names.
var ErrUnknownUnits = errors.New("orbit: unknown unit system")

// UnitSystem names the gravitational constant a run is expressed in.
//
// The single-body start state (1, 0)/(0, 1) is unit-scale. Combined with SI
// masses (~1e30 kg) it yields accelerations around 1e19, so the body is flung
// away on the first step. That combination is allowed, not corrected; pick
// UnitsNatural for a bound orbit.
type UnitSystem struct {
	Name string
	G    float64
}

// Built-in unit systems.
var (
	UnitsSI      = UnitSystem{Name: "si", G: 6.67430e-11}
	UnitsNatural = UnitSystem{Name: "natural", G: 1}
)

// LookupUnits resolves a unit system by name, case-insensitively.
func LookupUnits(name string) (UnitSystem, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "si", "":
		return UnitsSI, nil
	case "natural":
		return UnitsNatural, nil
	}
	return UnitSystem{}, fmt.Errorf("%w: %q", ErrUnknownUnits, name)
}

// Gravity returns override when it is positive, otherwise the unit system's G.
func (u UnitSystem) Gravity(override float64) float64 {
	if override > 0 {
		return override
	}
	return u.G
}
