package world

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/annel0/voxel-blast/internal/logging"
	"github.com/annel0/voxel-blast/internal/vec"
	"github.com/annel0/voxel-blast/internal/world/block"
)

// ErrChunkNotFound возвращается хранилищем, если чанк ещё не сохранялся
var ErrChunkNotFound = errors.New("chunk not found")

// ChunkStore — постоянное хранилище чанков
type ChunkStore interface {
	LoadChunk(ctx context.Context, worldID string, pos vec.ChunkPos, minY, height int) (*Chunk, error)
	SaveChunk(ctx context.Context, worldID string, c *Chunk) error
}

// Generator заполняет только что созданный чанк
type Generator interface {
	Generate(c *Chunk)
}

// World хранит загруженные чанки одного мира и реализует Grid.
// Все методы вызываются из горутины региона, владеющего миром.
type World struct {
	id        string
	minY      int
	height    int
	chunks    map[int64]*Chunk
	generator Generator
	store     ChunkStore
	border    Border
}

// NewWorld создаёт мир с колоннами высоты height, начиная с minY
func NewWorld(id string, minY, height int, generator Generator) *World {
	return &World{
		id:        id,
		minY:      minY,
		height:    height,
		chunks:    make(map[int64]*Chunk),
		generator: generator,
		border:    DefaultBorder(),
	}
}

// SetStore подключает постоянное хранилище
func (w *World) SetStore(store ChunkStore) {
	w.store = store
}

// SetBorder задаёт границу игровой области
func (w *World) SetBorder(b Border) {
	w.border = b
}

func (w *World) ID() string     { return w.id }
func (w *World) MinY() int      { return w.minY }
func (w *World) MaxY() int      { return w.minY + w.height }
func (w *World) Border() Border { return w.border }

// ChunkIfLoaded возвращает чанк, только если он уже загружен
func (w *World) ChunkIfLoaded(pos vec.ChunkPos) *Chunk {
	return w.chunks[pos.Key()]
}

// LoadChunk возвращает чанк, загружая его из хранилища или генерируя
func (w *World) LoadChunk(pos vec.ChunkPos) (*Chunk, error) {
	if c, ok := w.chunks[pos.Key()]; ok {
		return c, nil
	}

	if w.store != nil {
		c, err := w.store.LoadChunk(context.Background(), w.id, pos, w.minY, w.height)
		switch {
		case err == nil:
			w.chunks[pos.Key()] = c
			logging.Trace("Чанк %v мира %s загружен из хранилища", pos, w.id)
			return c, nil
		case !errors.Is(err, ErrChunkNotFound):
			return nil, fmt.Errorf("load chunk %v: %w", pos, err)
		}
	}

	c := NewChunk(pos, w.minY, w.height)
	if w.generator != nil {
		w.generator.Generate(c)
	}
	w.chunks[pos.Key()] = c
	logging.Trace("Чанк %v мира %s сгенерирован", pos, w.id)
	return c, nil
}

// BlockAt возвращает блок клетки, загружая чанк при необходимости
func (w *World) BlockAt(cell vec.Vec3) (block.BlockID, error) {
	if IsOutsideBuildHeight(w, cell.Y) {
		return block.AirBlockID, nil
	}
	c, err := w.LoadChunk(cell.Chunk())
	if err != nil {
		return block.AirBlockID, err
	}
	return BlockIn(c, cell), nil
}

// SetBlock устанавливает блок, загружая чанк при необходимости
func (w *World) SetBlock(cell vec.Vec3, id block.BlockID) error {
	if IsOutsideBuildHeight(w, cell.Y) {
		return fmt.Errorf("set block %v: %w", cell, vec.ErrCoordinateOverflow)
	}
	c, err := w.LoadChunk(cell.Chunk())
	if err != nil {
		return err
	}
	lx, lz := vec.LocalInChunk(cell.X, cell.Z)
	c.SetBlock(lx, cell.Y, lz, id)
	return nil
}

// LoadedChunks возвращает координаты загруженных чанков в стабильном порядке
func (w *World) LoadedChunks() []vec.ChunkPos {
	out := make([]vec.ChunkPos, 0, len(w.chunks))
	for _, c := range w.chunks {
		out = append(out, c.Coords)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].X != out[j].X {
			return out[i].X < out[j].X
		}
		return out[i].Z < out[j].Z
	})
	return out
}

// Unload выгружает чанк из памяти. Несохранённые изменения теряются.
func (w *World) Unload(pos vec.ChunkPos) {
	delete(w.chunks, pos.Key())
}

// Save сохраняет изменённые чанки в хранилище
func (w *World) Save(ctx context.Context) (int, error) {
	if w.store == nil {
		return 0, nil
	}
	saved := 0
	for _, pos := range w.LoadedChunks() {
		c := w.chunks[pos.Key()]
		if !c.IsDirty() {
			continue
		}
		if err := w.store.SaveChunk(ctx, w.id, c); err != nil {
			return saved, fmt.Errorf("save chunk %v: %w", pos, err)
		}
		c.MarkClean()
		saved++
	}
	logging.Debug("Мир %s: сохранено чанков: %d", w.id, saved)
	return saved, nil
}
