package collision

import (
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/voxel-blast/internal/physics"
	"github.com/annel0/voxel-blast/internal/vec"
)

func collect(from, to mgl64.Vec3) []vec.Vec3 {
	var cells []vec.Vec3
	Trace(from, to, func(cell vec.Vec3) bool {
		cells = append(cells, cell)
		return false
	})
	return cells
}

func manhattan(a, b vec.Vec3) int {
	return abs(a.X-b.X) + abs(a.Y-b.Y) + abs(a.Z-b.Z)
}

func TestTrace_StraightLine(t *testing.T) {
	cells := collect(mgl64.Vec3{0.5, 0.5, 0.5}, mgl64.Vec3{4.5, 0.5, 0.5})
	require.Len(t, cells, 5)
	for i, c := range cells {
		assert.Equal(t, vec.Vec3{X: i, Y: 0, Z: 0}, c)
	}
}

func TestTrace_DegenerateSegment(t *testing.T) {
	p := mgl64.Vec3{1.5, 2.5, 3.5}
	assert.Empty(t, collect(p, p), "Нулевой отрезок не посещает клеток")
}

func TestTrace_StopsOnHit(t *testing.T) {
	target := vec.Vec3{X: 2, Y: 0, Z: 0}
	visited := 0
	cell, hit := Trace(mgl64.Vec3{0.5, 0.5, 0.5}, mgl64.Vec3{9.5, 0.5, 0.5}, func(c vec.Vec3) bool {
		visited++
		return c == target
	})
	assert.True(t, hit)
	assert.Equal(t, target, cell)
	assert.Equal(t, 3, visited)
}

func TestTrace_OrderedAndBounded(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 500; i++ {
		from := mgl64.Vec3{rng.Float64()*40 - 20, rng.Float64()*40 - 20, rng.Float64()*40 - 20}
		to := mgl64.Vec3{rng.Float64()*40 - 20, rng.Float64()*40 - 20, rng.Float64()*40 - 20}
		cells := collect(from, to)
		require.NotEmpty(t, cells)

		assert.Equal(t, vec.Floor(from), cells[0])
		assert.Equal(t, vec.Floor(to), cells[len(cells)-1])
		assert.LessOrEqual(t, len(cells), manhattan(vec.Floor(from), vec.Floor(to))+1+traceSlack)

		// Соседние клетки отличаются ровно на один шаг по одной оси,
		// а точка входа луча в клетку не убывает
		prevT := 0.0
		for j := 1; j < len(cells); j++ {
			require.Equal(t, 1, manhattan(cells[j-1], cells[j]))
			box := physics.UnitBox().Move(float64(cells[j].X), float64(cells[j].Y), float64(cells[j].Z))
			if tEnter, _, ok := box.Clip(from, to); ok {
				assert.GreaterOrEqual(t, tEnter, prevT-1e-9)
				prevT = tEnter
			}
		}
	}
}

func TestTrace_Symmetric(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for i := 0; i < 500; i++ {
		a := mgl64.Vec3{rng.Float64()*30 - 15, rng.Float64()*30 - 15, rng.Float64()*30 - 15}
		b := mgl64.Vec3{rng.Float64()*30 - 15, rng.Float64()*30 - 15, rng.Float64()*30 - 15}

		forward := collect(a, b)
		backward := collect(b, a)
		require.Equal(t, len(forward), len(backward), "Отрезок %v -> %v", a, b)
		for j := range forward {
			assert.Equal(t, forward[j], backward[len(backward)-1-j])
		}
	}
}
