package collision

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/annel0/voxel-blast/internal/vec"
	"github.com/annel0/voxel-blast/internal/world"
	"github.com/annel0/voxel-blast/internal/world/block"
	_ "github.com/annel0/voxel-blast/internal/world/block/implementations"
	"github.com/annel0/voxel-blast/internal/world/entity"
)

// newTestWorld создаёт пустой мир высотой 64 с загруженными чанками -2..2
func newTestWorld(t *testing.T) *world.World {
	t.Helper()
	w := world.NewWorld("test", 0, 64, nil)
	for cx := -2; cx <= 2; cx++ {
		for cz := -2; cz <= 2; cz++ {
			_, err := w.LoadChunk(vec.ChunkPos{X: cx, Z: cz})
			require.NoError(t, err)
		}
	}
	return w
}

func setBlock(t *testing.T, w *world.World, x, y, z int, id block.BlockID) {
	t.Helper()
	require.NoError(t, w.SetBlock(vec.Vec3{X: x, Y: y, Z: z}, id))
}

func newTestEngine(t *testing.T) (*Engine, *world.World, *entity.EntityManager) {
	t.Helper()
	w := newTestWorld(t)
	em := entity.NewEntityManager()
	return NewEngine(w, em.Index(), Config{}, nil), w, em
}
