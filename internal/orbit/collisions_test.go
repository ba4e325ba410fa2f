package orbit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"
)

func line(points ...r2.Vec) Trajectory {
	t := make(Trajectory, len(points))
	for i, p := range points {
		t[i] = TrajectoryPoint{Pos: p, Step: i}
	}
	return t
}

func TestTrajectoryPositions(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []r2.Vec{{X: 1}, {Y: 2}}, line(r2.Vec{X: 1}, r2.Vec{Y: 2}).Positions())
	assert.Empty(t, Trajectory(nil).Positions())
}

func TestDetectCollisions(t *testing.T) {
	t.Parallel()

	t.Run("sum of radii, not max", func(t *testing.T) {
		a := line(r2.Vec{X: 0}, r2.Vec{X: 0}, r2.Vec{X: 0})
		b := line(r2.Vec{X: 5}, r2.Vec{X: 1.5}, r2.Vec{X: 3})
		events := DetectCollisions([]Trajectory{a, b}, []float64{1, 1})
		require.Len(t, events, 1)
		assert.Equal(t, []int{1}, events[0].Steps)
	})

	t.Run("strict threshold", func(t *testing.T) {
		a := line(r2.Vec{X: 0})
		b := line(r2.Vec{X: 2})
		assert.Empty(t, DetectCollisions([]Trajectory{a, b}, []float64{1, 1}))
	})

	t.Run("all matching steps recorded", func(t *testing.T) {
		a := line(r2.Vec{}, r2.Vec{}, r2.Vec{}, r2.Vec{})
		b := line(r2.Vec{X: 0.1}, r2.Vec{X: 9}, r2.Vec{X: 0.2}, r2.Vec{X: 0.3})
		events := DetectCollisions([]Trajectory{a, b}, []float64{0.5, 0})
		require.Len(t, events, 1)
		assert.Equal(t, []int{0, 2, 3}, events[0].Steps)
	})

	t.Run("missing radii are point bodies", func(t *testing.T) {
		a := line(r2.Vec{}, r2.Vec{X: 1})
		b := line(r2.Vec{X: 0.5}, r2.Vec{X: 5})
		events := DetectCollisions([]Trajectory{a, b}, []float64{1})
		require.Len(t, events, 1)
		assert.Equal(t, []int{0}, events[0].Steps)
		assert.Empty(t, DetectCollisions([]Trajectory{a, b}, nil))
	})

	t.Run("pairs are unordered and never self", func(t *testing.T) {
		same := line(r2.Vec{X: 1}, r2.Vec{X: 1})
		events := DetectCollisions([]Trajectory{same, same, same}, []float64{1, 1, 1})
		require.Len(t, events, 3)
		seen := map[[2]int]bool{}
		for _, ev := range events {
			assert.Less(t, ev.I, ev.J)
			key := [2]int{ev.I, ev.J}
			assert.False(t, seen[key], "duplicate pair %v", key)
			seen[key] = true
		}
	})

	t.Run("single body", func(t *testing.T) {
		assert.Empty(t, DetectCollisions([]Trajectory{line(r2.Vec{})}, []float64{10}))
	})
}
