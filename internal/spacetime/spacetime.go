// Package spacetime computes the per-body summary figures that accompany a
// planetary system run: a weak-field space-time distortion estimate and a
// mass-over-distance field proxy.
package spacetime

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Physical constants used by the distortion models.
const (
	SpeedOfLight = 3e8      // m/s
	LightYear    = 9.461e15 // m
)

// fluxScale is the e-folding length of the flux model, in metres.
const fluxScale = 1e9 * LightYear

// ErrUnknownModel is returned by ParseModel for unrecognised names.
var ErrUnknownModel = errors.New("spacetime: unknown model")

// Model selects how distortion is computed. ModelFlux also switches system runs
// to fixed-magnitude perturbation.
type Model string

const (
	ModelClassic Model = "classic" // inverse-distance distortion
	ModelFlux    Model = "flux"    // exponential decay over fluxScale
)

// ParseModel resolves a model name. The empty string means ModelClassic.
func ParseModel(name string) (Model, error) {
	switch Model(strings.ToLower(strings.TrimSpace(name))) {
	case ModelClassic, "":
		return ModelClassic, nil
	case ModelFlux:
		return ModelFlux, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownModel, name)
}

// Distortion returns 2GM/(c^2 d). The flux model damps it by
// exp(-d / 1e9 light-years). Non-positive distances yield 0.
func Distortion(m Model, g, mass, distance float64) float64 {
	if distance <= 0 {
		return 0
	}
	d := 2 * g * mass / (SpeedOfLight * SpeedOfLight * distance)
	if m == ModelFlux {
		d *= math.Exp(-distance / fluxScale)
	}
	return d
}

// FieldProxy is mass/distance, or 0 at zero distance.
func FieldProxy(mass, distance float64) float64 {
	if distance == 0 {
		return 0
	}
	return mass / distance
}

// Entry describes one body for Table. Size is in light-years; Distance is in
// the run's length unit.
type Entry struct {
	Name     string
	Mass     float64
	Size     float64
	Distance float64
}

// Row is one line of the body summary table.
type Row struct {
	Name       string
	Mass       float64
	Distortion float64
	Field      float64
}

// Table evaluates Distortion at each body's own size (converted from
// light-years to metres) and FieldProxy at its orbital distance.
func Table(m Model, g float64, entries []Entry) []Row {
	rows := make([]Row, len(entries))
	for i, e := range entries {
		rows[i] = Row{
			Name:       e.Name,
			Mass:       e.Mass,
			Distortion: Distortion(m, g, e.Mass, e.Size*LightYear),
			Field:      FieldProxy(e.Mass, e.Distance),
		}
	}
	return rows
}
