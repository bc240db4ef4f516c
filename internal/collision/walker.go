package collision

import (
	"math"

	"github.com/annel0/voxel-blast/internal/logging"
	"github.com/annel0/voxel-blast/internal/physics"
	"github.com/annel0/voxel-blast/internal/vec"
	"github.com/annel0/voxel-blast/internal/world"
	"github.com/annel0/voxel-blast/internal/world/block"
)

// cellBounds — включительные границы перебора клеток
type cellBounds struct {
	minX, minY, minZ int
	maxX, maxY, maxZ int
}

// expandedBounds возвращает клетки floor(min-eps)-1 .. floor(max+eps)+1
func expandedBounds(b physics.Box) cellBounds {
	return cellBounds{
		minX: int(math.Floor(b.Min[0]-physics.Epsilon)) - 1,
		minY: int(math.Floor(b.Min[1]-physics.Epsilon)) - 1,
		minZ: int(math.Floor(b.Min[2]-physics.Epsilon)) - 1,
		maxX: int(math.Floor(b.Max[0]+physics.Epsilon)) + 1,
		maxY: int(math.Floor(b.Max[1]+physics.Epsilon)) + 1,
		maxZ: int(math.Floor(b.Max[2]+physics.Epsilon)) + 1,
	}
}

// edgeCount считает, на скольких осях клетка лежит на внешнем кольце
func (cb cellBounds) edgeCount(x, y, z int) int {
	n := 0
	if x == cb.minX || x == cb.maxX {
		n++
	}
	if y == cb.minY || y == cb.maxY {
		n++
	}
	if z == cb.minZ || z == cb.maxZ {
		n++
	}
	return n
}

// walker перебирает клетки, которые могут пересекать бокс запроса.
// Создаётся на один запрос.
type walker struct {
	grid world.Grid
	ctx  Context

	lastPos   vec.ChunkPos
	lastChunk *world.Chunk
	hasLast   bool

	unknown bool // Встретился незагруженный чанк при политике UnloadedUnknown
	visited int  // Сколько клеток проверено
}

func newWalker(grid world.Grid, ctx Context) *walker {
	return &walker{grid: grid, ctx: ctx}
}

// chunk возвращает чанк клетки по политике контекста.
// nil без unknown означает «считать клетку полной».
func (w *walker) chunk(x, z int) *world.Chunk {
	pos := vec.ChunkPosOf(x, z)
	if w.hasLast && pos == w.lastPos {
		return w.lastChunk
	}

	c := w.grid.ChunkIfLoaded(pos)
	if c == nil {
		switch w.ctx.Chunks {
		case UnloadedLoad:
			loaded, err := w.grid.LoadChunk(pos)
			if err != nil {
				logging.Warn("Не удалось загрузить чанк %v мира %s: %v", pos, w.grid.ID(), err)
			} else {
				c = loaded
			}
		case UnloadedUnknown:
			w.unknown = true
		}
	}

	w.lastPos, w.lastChunk, w.hasLast = pos, c, true
	return c
}

// skipsLeaves проверяет правило прохода сквозь листву для актора
func (w *walker) skipsLeaves(props block.Properties) bool {
	return props.LeafLike && w.ctx.Actor != nil && w.ctx.Actor.PassThroughLeaves
}

// walk вызывает visit для каждой клетки, чья форма пересекает box.
// Форма передаётся в мировых координатах. visit возвращает false, чтобы остановить обход.
// walk возвращает false, если обход был остановлен (visit или незагруженный чанк).
func (w *walker) walk(box physics.Box, visit func(cell vec.Vec3, shape physics.Shape) bool) bool {
	cb := expandedBounds(box)
	minY := max(cb.minY, w.grid.MinY())
	maxY := min(cb.maxY, w.grid.MaxY()-1)

	for z := cb.minZ; z <= cb.maxZ; z++ {
		for x := cb.minX; x <= cb.maxX; x++ {
			for y := minY; y <= maxY; y++ {
				edges := cb.edgeCount(x, y, z)
				if edges == 3 {
					continue
				}
				w.visited++

				c := w.chunk(x, z)
				if w.unknown {
					return false
				}
				cell := vec.Vec3{X: x, Y: y, Z: z}

				var props block.Properties
				if c == nil {
					// Незагруженное пространство твёрдое, но выступать за клетку не может
					if edges > 0 {
						continue
					}
					props = block.Properties{Shape: physics.Full(), Solid: true}
				} else {
					props = block.PropertiesOf(world.BlockIn(c, cell))
				}

				if props.Shape.IsEmpty() {
					continue
				}
				if edges > 0 && !props.LargeShape {
					continue
				}
				if w.skipsLeaves(props) {
					continue
				}

				if props.Shape.IsFull() {
					cellBox := physics.UnitBox().Move(float64(x), float64(y), float64(z))
					if !cellBox.Intersects(box) {
						continue
					}
				}
				moved := props.Shape.MoveTo(cell)
				if !props.Shape.IsFull() && !moved.Intersects(box) {
					continue
				}
				if !visit(cell, moved) {
					return false
				}
			}
		}
	}
	return true
}
