package world

import (
	"fmt"

	"github.com/annel0/voxel-blast/internal/vec"
	"github.com/annel0/voxel-blast/internal/world/block"
)

// ChunkSize — размер чанка по X и Z
const ChunkSize = 16

// Chunk представляет колонну мира 16x16xHeight клеток.
// Чанк принадлежит горутине региона и не защищён мьютексом.
type Chunk struct {
	Coords vec.ChunkPos // Координаты чанка в мире
	MinY   int          // Нижняя клетка колонны
	Height int          // Высота колонны в клетках

	blocks        []block.BlockID
	dirty         bool
	ChangeCounter int // Счетчик изменений
}

// NewChunk создаёт пустой (заполненный воздухом) чанк
func NewChunk(coords vec.ChunkPos, minY, height int) *Chunk {
	return &Chunk{
		Coords: coords,
		MinY:   minY,
		Height: height,
		blocks: make([]block.BlockID, ChunkSize*ChunkSize*height),
	}
}

func (c *Chunk) index(lx, y, lz int) (int, bool) {
	ly := y - c.MinY
	if lx < 0 || lx >= ChunkSize || lz < 0 || lz >= ChunkSize || ly < 0 || ly >= c.Height {
		return 0, false
	}
	return (ly*ChunkSize+lz)*ChunkSize + lx, true
}

// Block возвращает блок по локальным X/Z и мировой Y. За пределами колонны — воздух.
func (c *Chunk) Block(lx, y, lz int) block.BlockID {
	i, ok := c.index(lx, y, lz)
	if !ok {
		return block.AirBlockID
	}
	return c.blocks[i]
}

// SetBlock устанавливает блок по локальным X/Z и мировой Y.
// Возвращает false, если клетка вне колонны.
func (c *Chunk) SetBlock(lx, y, lz int, id block.BlockID) bool {
	i, ok := c.index(lx, y, lz)
	if !ok {
		return false
	}
	if c.blocks[i] != id {
		c.blocks[i] = id
		c.dirty = true
		c.ChangeCounter++
	}
	return true
}

// Fill заполняет горизонтальный слой одним блоком
func (c *Chunk) Fill(y int, id block.BlockID) {
	for lz := 0; lz < ChunkSize; lz++ {
		for lx := 0; lx < ChunkSize; lx++ {
			c.SetBlock(lx, y, lz, id)
		}
	}
}

// IsDirty сообщает, есть ли несохранённые изменения
func (c *Chunk) IsDirty() bool {
	return c.dirty
}

// MarkClean сбрасывает флаг изменений после сохранения
func (c *Chunk) MarkClean() {
	c.dirty = false
}

// Blocks возвращает сырые данные колонны для сериализации
func (c *Chunk) Blocks() []block.BlockID {
	return c.blocks
}

// LoadBlocks заменяет содержимое колонны данными из хранилища
func (c *Chunk) LoadBlocks(data []block.BlockID) error {
	if len(data) != len(c.blocks) {
		return fmt.Errorf("chunk %v: expected %d blocks, got %d", c.Coords, len(c.blocks), len(data))
	}
	copy(c.blocks, data)
	c.dirty = false
	return nil
}
