// Package scenario describes simulation runs as TOML files. A scenario fixes
// the unit system, the central mass, the orbiting bodies and the integration
// settings, so the same run can be repeated, swept over seeds or re-run when
// the file changes.
package scenario

import (
	"bytes"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/papapumpkin/orbitflow/internal/orbit"
	"github.com/papapumpkin/orbitflow/internal/spacetime"
)

// Run kinds.
const (
	KindOrbit  = "orbit"
	KindSystem = "system"
)

// Defaults applied to fields left unset in a scenario file.
const (
	DefaultSteps = 1000
	DefaultDt    = 0.05
)

// ErrInvalidScenario wraps every validation failure reported by Validate.
var ErrInvalidScenario = errors.New("scenario: invalid")

// Scenario is the on-disk description of a run.
type Scenario struct {
	Name         string     `toml:"name"`
	Kind         string     `toml:"kind"`
	Units        string     `toml:"units"`
	G            float64    `toml:"g,omitempty"`
	Model        string     `toml:"model"`
	CentralMass  float64    `toml:"central_mass"`
	CentralSize  float64    `toml:"central_size,omitempty"`
	Steps        int        `toml:"steps"`
	Dt           float64    `toml:"dt"`
	Seed         uint64     `toml:"seed"`
	Perturbation float64    `toml:"perturbation,omitempty"`
	Bodies       []BodySpec `toml:"body"`
}

// BodySpec is one orbiting body. Distance is ignored for orbit runs, which
// always start at unit distance.
type BodySpec struct {
	Name     string  `toml:"name"`
	Mass     float64 `toml:"mass"`
	Distance float64 `toml:"distance,omitempty"`
	Size     float64 `toml:"size,omitempty"`
}

// setKeys records which optional integration keys a file spells out, so an
// explicit zero reaches Validate instead of being defaulted.
type setKeys struct {
	Steps *int     `toml:"steps"`
	Dt    *float64 `toml:"dt"`
}

// Parse decodes a scenario, applies defaults to absent keys and validates it.
// Unknown keys are rejected so typos do not silently fall back to defaults.
func Parse(data []byte) (*Scenario, error) {
	var sc Scenario
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&sc); err != nil {
		return nil, fmt.Errorf("scenario: parse: %w", err)
	}
	var set setKeys
	if err := toml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("scenario: parse: %w", err)
	}
	sc.applyDefaults(set)
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Load reads and parses the scenario at path. A missing name defaults to the
// file name without extension.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scenario: read %s: %w", path, err)
	}
	sc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if sc.Name == "" {
		sc.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return sc, nil
}

// Save writes the scenario to path, creating parent directories as needed.
func Save(path string, sc *Scenario) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("scenario: create directory %s: %w", dir, err)
	}
	data, err := toml.Marshal(sc)
	if err != nil {
		return fmt.Errorf("scenario: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("scenario: write %s: %w", path, err)
	}
	return nil
}

func (s *Scenario) applyDefaults(set setKeys) {
	if s.Kind == "" {
		s.Kind = KindSystem
	}
	if s.Units == "" {
		s.Units = orbit.UnitsSI.Name
	}
	if s.Model == "" {
		s.Model = string(spacetime.ModelClassic)
	}
	if set.Steps == nil {
		s.Steps = DefaultSteps
	}
	if set.Dt == nil {
		s.Dt = DefaultDt
	}
}

// Validate checks the scenario without running it.
func (s *Scenario) Validate() error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	switch s.Kind {
	case KindOrbit, KindSystem:
	default:
		add("kind must be %q or %q, got %q", KindOrbit, KindSystem, s.Kind)
	}
	if _, err := orbit.LookupUnits(s.Units); err != nil {
		add("units %q not recognised", s.Units)
	}
	if _, err := spacetime.ParseModel(s.Model); err != nil {
		add("model %q not recognised", s.Model)
	}
	if s.G < 0 {
		add("g must not be negative")
	}
	if s.CentralMass <= 0 {
		add("central_mass must be positive")
	}
	if s.CentralSize < 0 {
		add("central_size must not be negative")
	}
	if s.Steps <= 0 {
		add("steps must be positive")
	}
	if s.Dt <= 0 {
		add("dt must be positive")
	}
	if s.Perturbation < 0 {
		add("perturbation must not be negative")
	}
	if len(s.Bodies) == 0 {
		add("at least one [[body]] is required")
	}
	if s.Kind == KindOrbit && len(s.Bodies) > 1 {
		add("orbit scenarios take exactly one [[body]], got %d", len(s.Bodies))
	}
	for i, b := range s.Bodies {
		if b.Mass <= 0 {
			add("body %d: mass must be positive", i+1)
		}
		if b.Size < 0 {
			add("body %d: size must not be negative", i+1)
		}
		if s.Kind == KindSystem && b.Distance <= 0 {
			add("body %d: distance must be positive", i+1)
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidScenario, strings.Join(problems, "; "))
	}
	return nil
}

// Gravity resolves G from the explicit override or the unit system.
func (s *Scenario) Gravity() float64 {
	u, err := orbit.LookupUnits(s.Units)
	if err != nil {
		u = orbit.UnitsSI
	}
	return u.Gravity(s.G)
}

// Params returns the integration parameters.
func (s *Scenario) Params() orbit.Params {
	return orbit.Params{G: s.Gravity(), Steps: s.Steps, Dt: s.Dt}
}

// ModelValue returns the parsed model, defaulting to classic.
func (s *Scenario) ModelValue() spacetime.Model {
	m, err := spacetime.ParseModel(s.Model)
	if err != nil {
		return spacetime.ModelClassic
	}
	return m
}

// Planets converts the bodies for orbit.IntegrateMulti.
func (s *Scenario) Planets() []orbit.Planet {
	out := make([]orbit.Planet, len(s.Bodies))
	for i, b := range s.Bodies {
		out[i] = orbit.Planet{
			Body:     orbit.Body{Mass: b.Mass, Radius: b.Size},
			Distance: b.Distance,
		}
	}
	return out
}

// BodyName returns the display name of body i.
func (s *Scenario) BodyName(i int) string {
	if i >= 0 && i < len(s.Bodies) && s.Bodies[i].Name != "" {
		return s.Bodies[i].Name
	}
	return fmt.Sprintf("Body %d", i+1)
}

// Rand returns a generator seeded from Seed. Each call returns a fresh
// generator so repeated runs see the same sequence.
func (s *Scenario) Rand() *rand.Rand {
	return NewRand(s.Seed)
}

// NewRand builds the PCG generator used for a seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// BodyTable summarises the central body and every orbiting body.
func (s *Scenario) BodyTable() []spacetime.Row {
	entries := make([]spacetime.Entry, 0, len(s.Bodies)+1)
	entries = append(entries, spacetime.Entry{Name: "Central", Mass: s.CentralMass, Size: s.CentralSize})
	for i, b := range s.Bodies {
		entries = append(entries, spacetime.Entry{
			Name:     s.BodyName(i),
			Mass:     b.Mass,
			Size:     b.Size,
			Distance: b.Distance,
		})
	}
	return spacetime.Table(s.ModelValue(), s.Gravity(), entries)
}

// Example returns a two-planet system in natural units that stays bound for
// the default step count.
func Example() *Scenario {
	return &Scenario{
		Name:        "two-planets",
		Kind:        KindSystem,
		Units:       orbit.UnitsNatural.Name,
		Model:       string(spacetime.ModelClassic),
		CentralMass: 1,
		CentralSize: 0.01,
		Steps:       2000,
		Dt:          0.01,
		Seed:        42,
		Bodies: []BodySpec{
			{Name: "Planet 1", Mass: 1e-6, Distance: 1, Size: 0.0001},
			{Name: "Planet 2", Mass: 3e-6, Distance: 1.5, Size: 0.0001},
		},
	}
}
