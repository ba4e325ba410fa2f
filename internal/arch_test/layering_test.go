package arch_test

import (
	"strings"
	"testing"
)

// layers orders the internal packages. A package may import only packages on
// a strictly lower layer, so the simulation core never sees storage or output.
var layers = map[string]int{
	"ansi":      0,
	"orbit":     0,
	"spacetime": 0,
	"telemetry": 0,

	"config":   1,
	"export":   1,
	"scenario": 1,

	"archive": 2,
	"sweep":   2,

	"ui": 3,
}

func TestDependencyLayering(t *testing.T) {
	t.Parallel()
	for _, pkg := range packages(t) {
		own, ok := layers[pkg]
		if !ok {
			t.Errorf("package %s has no layer; add it to the layers map", pkg)
			continue
		}
		for _, dep := range internalImports(t, pkg) {
			if layers[dep] >= own {
				t.Errorf("%s (layer %d) imports %s (layer %d)", pkg, own, dep, layers[dep])
			}
		}
	}
}

func TestLayersNameRealPackages(t *testing.T) {
	t.Parallel()
	present := make(map[string]bool)
	for _, pkg := range packages(t) {
		present[pkg] = true
	}
	for pkg := range layers {
		if !present[pkg] {
			t.Errorf("layers lists %s but internal/%s does not exist", pkg, pkg)
		}
	}
}

// The integrator is pure: no internal packages, no I/O, no global randomness.
func TestOrbitIsSelfContained(t *testing.T) {
	t.Parallel()
	if deps := internalImports(t, "orbit"); len(deps) > 0 {
		t.Errorf("orbit imports internal packages %v", deps)
	}
	for path := range imports(t, "orbit") {
		switch path {
		case "os", "io", "log", "log/slog", "math/rand", "time":
			t.Errorf("orbit imports %q", path)
		}
	}
}

// Only cmd wires the CLI; only config reads viper.
func TestCLIStackStaysInCmd(t *testing.T) {
	t.Parallel()
	for _, pkg := range packages(t) {
		for path := range imports(t, pkg) {
			if strings.HasPrefix(path, "github.com/spf13/cobra") {
				t.Errorf("%s imports cobra", pkg)
			}
			if strings.HasPrefix(path, "github.com/spf13/viper") && pkg != "config" {
				t.Errorf("%s imports viper; read settings through config", pkg)
			}
		}
	}
}
