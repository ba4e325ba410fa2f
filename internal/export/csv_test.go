package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/papapumpkin/orbitflow/internal/orbit"
	"github.com/papapumpkin/orbitflow/internal/spacetime"
)

func readCSV(t *testing.T, b []byte) [][]string {
	t.Helper()
	records, err := csv.NewReader(bytes.NewReader(b)).ReadAll()
	require.NoError(t, err)
	return records
}

func TestWriteEnergy(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	require.NoError(t, WriteEnergy(&buf, orbit.EnergySeries{-0.5, -0.49995}))

	assert.Equal(t, [][]string{
		{"step", "energy_j"},
		{"0", "-0.5"},
		{"1", "-0.49995"},
	}, readCSV(t, buf.Bytes()))
}

func TestWriteTrajectories(t *testing.T) {
	t.Parallel()
	trajs := []orbit.Trajectory{
		{{Pos: r2.Vec{X: 1, Y: 2}, Vel: r2.Vec{X: 3, Y: 4}, Step: 0}},
		{{Pos: r2.Vec{X: 5}, Vel: r2.Vec{Y: 6}, Step: 0}, {Pos: r2.Vec{X: 7}, Step: 1}},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteTrajectories(&buf, trajs))

	records := readCSV(t, buf.Bytes())
	require.Len(t, records, 4)
	assert.Equal(t, []string{"body", "step", "x", "y", "vx", "vy"}, records[0])
	assert.Equal(t, []string{"0", "0", "1", "2", "3", "4"}, records[1])
	assert.Equal(t, []string{"1", "1", "7", "0", "0", "0"}, records[3])
}

func TestWriteCollisions(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	require.NoError(t, WriteCollisions(&buf, []orbit.CollisionEvent{{I: 0, J: 2, Steps: []int{4, 9}}}))

	assert.Equal(t, [][]string{
		{"body_i", "body_j", "step"},
		{"0", "2", "4"},
		{"0", "2", "9"},
	}, readCSV(t, buf.Bytes()))
}

func TestWriteBodyTable(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	require.NoError(t, WriteBodyTable(&buf, []spacetime.Row{{Name: "Central, inner", Mass: 1e30, Distortion: 2.5e-5}}))

	records := readCSV(t, buf.Bytes())
	require.Len(t, records, 2)
	assert.Equal(t, []string{"Central, inner", "1e+30", "2.5e-05", "0"}, records[1])
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWrite_PropagatesWriterErrors(t *testing.T) {
	t.Parallel()
	err := WriteEnergy(failingWriter{}, orbit.EnergySeries{1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "export:")
}
