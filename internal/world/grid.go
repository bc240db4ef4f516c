package world

import (
	"github.com/annel0/voxel-blast/internal/physics"
	"github.com/annel0/voxel-blast/internal/vec"
	"github.com/annel0/voxel-blast/internal/world/block"
)

// Grid — представление мира, через которое работают запросы столкновений и взрывы.
// Клетки с Y вне [MinY, MaxY) считаются воздухом.
type Grid interface {
	// ID возвращает идентификатор мира
	ID() string
	// MinY возвращает нижнюю границу высоты (включительно)
	MinY() int
	// MaxY возвращает верхнюю границу высоты (не включительно)
	MaxY() int
	// ChunkIfLoaded возвращает чанк, только если он уже загружен
	ChunkIfLoaded(pos vec.ChunkPos) *Chunk
	// LoadChunk загружает или генерирует чанк
	LoadChunk(pos vec.ChunkPos) (*Chunk, error)
	// Border возвращает границу игровой области
	Border() Border
}

// IsChunkLoaded проверяет, загружен ли чанк
func IsChunkLoaded(g Grid, pos vec.ChunkPos) bool {
	return g.ChunkIfLoaded(pos) != nil
}

// IsOutsideBuildHeight проверяет, лежит ли высота вне колонны
func IsOutsideBuildHeight(g Grid, y int) bool {
	return y < g.MinY() || y >= g.MaxY()
}

// BlockIn возвращает блок клетки из уже найденного чанка
func BlockIn(c *Chunk, cell vec.Vec3) block.BlockID {
	lx, lz := vec.LocalInChunk(cell.X, cell.Z)
	return c.Block(lx, cell.Y, lz)
}

// BlockAt возвращает блок клетки без загрузки чанка. loaded=false для незагруженного чанка.
func BlockAt(g Grid, cell vec.Vec3) (id block.BlockID, loaded bool) {
	if IsOutsideBuildHeight(g, cell.Y) {
		return block.AirBlockID, true
	}
	c := g.ChunkIfLoaded(cell.Chunk())
	if c == nil {
		return block.AirBlockID, false
	}
	return BlockIn(c, cell), true
}

// ShapeAt возвращает форму клетки в локальных координатах без загрузки чанка
func ShapeAt(g Grid, cell vec.Vec3) (shape physics.Shape, loaded bool) {
	id, loaded := BlockAt(g, cell)
	if !loaded {
		return physics.Empty(), false
	}
	return block.PropertiesOf(id).Shape, true
}
