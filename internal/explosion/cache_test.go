package explosion

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/voxel-blast/internal/physics"
	"github.com/annel0/voxel-blast/internal/vec"
	"github.com/annel0/voxel-blast/internal/world"
	"github.com/annel0/voxel-blast/internal/world/block"
)

func TestRays(t *testing.T) {
	rays := Rays()
	require.Len(t, rays, 1352)
	for _, r := range rays {
		assert.InDelta(t, RayStep, r.Len(), 1e-12)
	}

	// Rays отдаёт копию
	rays[0] = mgl64.Vec3{}
	assert.NotEqual(t, mgl64.Vec3{}, Rays()[0])
}

func TestBlockCache_Resolve(t *testing.T) {
	w := newTestWorld(t)
	fill(t, w, 0, 5, 0, 0, 5, 0, block.StoneBlockID)
	c := NewBlockCache(w)

	stone := c.Get(vec.Vec3{X: 0, Y: 5, Z: 0}, false)
	assert.Equal(t, block.StoneBlockID, stone.Block)
	assert.InDelta(t, (6+0.3)*0.3, stone.Cost, 1e-12)
	assert.True(t, stone.Shape().IsFull())
	assert.Same(t, stone, c.Get(vec.Vec3{X: 0, Y: 5, Z: 0}, true))

	air := c.Get(vec.Vec3{X: 1, Y: 5, Z: 0}, false)
	assert.InDelta(t, 0.09, air.Cost, 1e-12)
	assert.True(t, air.Shape().IsEmpty())

	below := c.Get(vec.Vec3{X: 0, Y: -1, Z: 0}, true)
	assert.True(t, below.OutOfWorld)
	assert.True(t, c.Get(vec.Vec3{X: 0, Y: 64, Z: 0}, true).OutOfWorld)

	// Клетки, делящие слот переднего массива, не путаются
	alias := c.Get(vec.Vec3{X: 8, Y: 5, Z: 0}, false)
	assert.Equal(t, block.AirBlockID, alias.Block)
	assert.Equal(t, block.StoneBlockID, c.Get(vec.Vec3{X: 0, Y: 5, Z: 0}, false).Block)
	assert.Equal(t, 5, c.Len())
}

func TestBlockCache_Unloaded(t *testing.T) {
	w := world.NewWorld("gen", 0, 16, world.FlatGenerator{Layers: []block.BlockID{block.StoneBlockID}})
	c := NewBlockCache(w)
	cell := vec.Vec3{X: 200, Y: 0, Z: 200}

	e := c.Get(cell, false)
	assert.True(t, e.Unloaded)
	assert.True(t, e.Shape().IsFull(), "Незагруженная клетка считается полной")
	assert.False(t, world.IsChunkLoaded(w, cell.Chunk()))

	e = c.Get(cell, true)
	assert.False(t, e.Unloaded)
	assert.Equal(t, block.StoneBlockID, e.Block)
	assert.True(t, world.IsChunkLoaded(w, cell.Chunk()))
}

func TestDensityCache(t *testing.T) {
	d := NewDensityCache()
	box := physics.NewBox(0, 0, 0, 1, 2, 1)
	origin := mgl64.Vec3{0.5, 0.5, 0.5}

	_, ok := d.Get("w", origin, box)
	assert.False(t, ok)

	d.Put("w", origin, box, 0.25)
	v, ok := d.Get("w", origin, box)
	assert.True(t, ok)
	assert.Equal(t, 0.25, v)

	_, ok = d.Get("other", origin, box)
	assert.False(t, ok)
	_, ok = d.Get("w", origin, box.Move(0, 1, 0))
	assert.False(t, ok)
	assert.Equal(t, 1, d.Hits())

	d.Reset()
	assert.Equal(t, 0, d.Len())
	assert.Equal(t, 0, d.Hits())
}
