package explosion

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
	w := world.NewWorld("blast-test", 0, 64, nil)
	for cx := -2; cx <= 2; cx++ {
		for cz := -2; cz <= 2; cz++ {
			_, err := w.LoadChunk(vec.ChunkPos{X: cx, Z: cz})
			require.NoError(t, err)
		}
	}
	return w
}

// fill заполняет включительный параллелепипед клеток
func fill(t *testing.T, w *world.World, x1, y1, z1, x2, y2, z2 int, id block.BlockID) {
	t.Helper()
	for x := x1; x <= x2; x++ {
		for y := y1; y <= y2; y++ {
			for z := z1; z <= z2; z++ {
				require.NoError(t, w.SetBlock(vec.Vec3{X: x, Y: y, Z: z}, id))
			}
		}
	}
}

func blockAt(t *testing.T, w *world.World, x, y, z int) block.BlockID {
	t.Helper()
	id, err := w.BlockAt(vec.Vec3{X: x, Y: y, Z: z})
	require.NoError(t, err)
	return id
}

func newTestSimulator(t *testing.T, w *world.World, cfg Config) (*Simulator, *entity.EntityManager) {
	t.Helper()
	em := entity.NewEntityManager()
	return NewSimulator(w, em.Index(), cfg), em
}

// stubPolicy — политика с подменяемыми решениями
type stubPolicy struct {
	DefaultPolicy
	deny    bool
	veto    bool
	approve func(fx *Effects)
	asked   int
}

func (p *stubPolicy) ShouldBlockExplode(vec.Vec3, block.BlockID, float64) bool {
	p.asked++
	return !p.deny
}

func (p *stubPolicy) ApproveEffects(fx *Effects) bool {
	if p.approve != nil {
		p.approve(fx)
	}
	return !p.veto
}
