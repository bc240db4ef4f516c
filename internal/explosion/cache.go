package explosion

import (
	"github.com/annel0/voxel-blast/internal/logging"
	"github.com/annel0/voxel-blast/internal/physics"
	"github.com/annel0/voxel-blast/internal/vec"
	"github.com/annel0/voxel-blast/internal/world"
	"github.com/annel0/voxel-blast/internal/world/block"
)

const (
	frontShift = 3
	frontMask  = 1<<frontShift - 1
	frontWidth = 1 << frontShift

	chunkCacheShift = 2
	chunkCacheMask  = 1<<chunkCacheShift - 1
	chunkCacheWidth = 1 << chunkCacheShift
)

// decision — ленивое булево значение
type decision int8

const (
	undecided decision = iota
	decidedNo
	decidedYes
)

// CacheEntry — состояние клетки, запомненное на время одного взрыва
type CacheEntry struct {
	Key        int64
	Cell       vec.Vec3
	Block      block.BlockID
	Props      block.Properties
	Cost       float64 // Во сколько обходится шаг луча через клетку
	OutOfWorld bool
	Unloaded   bool // Чанк не был загружен; клетка считается полной

	shouldExplode decision
}

// Shape возвращает форму столкновения клетки. Незагруженная клетка полная.
func (e *CacheEntry) Shape() physics.Shape {
	switch {
	case e.OutOfWorld:
		return physics.Empty()
	case e.Unloaded:
		return physics.Full()
	default:
		return e.Props.Shape
	}
}

// BlockCache — кэш клеток одного взрыва. Основное хранилище — map по ключу клетки,
// перед ним стоит массив 8×8×8 с прямым отображением по младшим битам координат.
// Последние чанки держатся в таблице 4×4 по младшим битам координат чанка.
// Кэш не синхронизирован и не переживает взрыв.
type BlockCache struct {
	grid world.Grid

	entries map[int64]*CacheEntry
	front   [frontWidth * frontWidth * frontWidth]*CacheEntry

	chunkPos    [chunkCacheWidth * chunkCacheWidth]vec.ChunkPos
	chunkValid  [chunkCacheWidth * chunkCacheWidth]bool
	chunkLoaded [chunkCacheWidth * chunkCacheWidth]*world.Chunk

	hits   int
	misses int
}

// NewBlockCache создаёт пустой кэш над миром
func NewBlockCache(grid world.Grid) *BlockCache {
	return &BlockCache{grid: grid, entries: make(map[int64]*CacheEntry, 256)}
}

// Len возвращает число закэшированных клеток
func (c *BlockCache) Len() int {
	return len(c.entries)
}

// Get возвращает запись клетки. При load=true незагруженный чанк загружается,
// иначе клетка помечается как Unloaded.
func (c *BlockCache) Get(cell vec.Vec3, load bool) *CacheEntry {
	key := cell.Key()
	slot := (cell.X & frontMask) |
		(cell.Y&frontMask)<<frontShift |
		(cell.Z&frontMask)<<(2*frontShift)

	if e := c.front[slot]; e != nil && e.Key == key && (!e.Unloaded || !load) {
		c.hits++
		return e
	}
	e, ok := c.entries[key]
	if !ok || (e.Unloaded && load) {
		c.misses++
		e = c.resolve(cell, key, load)
		c.entries[key] = e
	} else {
		c.hits++
	}
	c.front[slot] = e
	return e
}

func (c *BlockCache) resolve(cell vec.Vec3, key int64, load bool) *CacheEntry {
	if !cell.InBounds() || world.IsOutsideBuildHeight(c.grid, cell.Y) {
		return &CacheEntry{Key: key, Cell: cell, OutOfWorld: true}
	}

	ch := c.chunk(cell.Chunk(), load)
	if ch == nil {
		return &CacheEntry{Key: key, Cell: cell, Unloaded: true, Props: block.PropertiesOf(block.BedrockBlockID)}
	}

	id := world.BlockIn(ch, cell)
	props := block.PropertiesOf(id)
	return &CacheEntry{
		Key:   key,
		Cell:  cell,
		Block: id,
		Props: props,
		Cost:  stepCost(props.Resistance),
	}
}

// stepCost — цена шага через клетку с данной прочностью
func stepCost(resistance float64) float64 {
	return (resistance + RayStep) * RayStep
}

func (c *BlockCache) chunk(pos vec.ChunkPos, load bool) *world.Chunk {
	slot := (pos.X & chunkCacheMask) | (pos.Z&chunkCacheMask)<<chunkCacheShift
	if c.chunkValid[slot] && c.chunkPos[slot] == pos {
		return c.chunkLoaded[slot]
	}

	ch := c.grid.ChunkIfLoaded(pos)
	if ch == nil && load {
		loaded, err := c.grid.LoadChunk(pos)
		if err != nil {
			logging.Warn("Взрыв: не удалось загрузить чанк %v мира %s: %v", pos, c.grid.ID(), err)
		} else {
			ch = loaded
		}
	}
	if ch == nil {
		// Незагруженный чанк не кэшируем: следующий запрос может разрешить загрузку
		return nil
	}
	c.chunkPos[slot], c.chunkValid[slot], c.chunkLoaded[slot] = pos, true, ch
	return ch
}
