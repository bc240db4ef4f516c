package world

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/voxel-blast/internal/physics"
	"github.com/annel0/voxel-blast/internal/vec"
	"github.com/annel0/voxel-blast/internal/world/block"
	_ "github.com/annel0/voxel-blast/internal/world/block/implementations"
	"github.com/annel0/voxel-blast/internal/world/entity"
)

func TestChunk_BlockAccess(t *testing.T) {
	c := NewChunk(vec.ChunkPos{X: 1, Z: -1}, -16, 32)

	assert.Equal(t, block.AirBlockID, c.Block(3, 0, 4), "Новый чанк заполнен воздухом")
	assert.False(t, c.IsDirty())

	require.True(t, c.SetBlock(3, -16, 4, block.StoneBlockID))
	assert.Equal(t, block.StoneBlockID, c.Block(3, -16, 4))
	assert.True(t, c.IsDirty())
	assert.Equal(t, 1, c.ChangeCounter)

	assert.False(t, c.SetBlock(3, 16, 4, block.StoneBlockID), "Y выше колонны")
	assert.False(t, c.SetBlock(16, 0, 0, block.StoneBlockID), "X вне чанка")
	assert.Equal(t, block.AirBlockID, c.Block(0, 100, 0))

	err := c.LoadBlocks(make([]block.BlockID, 3))
	assert.Error(t, err)
}

// countingStore — хранилище в памяти для тестов
type countingStore struct {
	saved map[vec.ChunkPos][]block.BlockID
	fail  error
}

func (s *countingStore) LoadChunk(_ context.Context, _ string, pos vec.ChunkPos, minY, height int) (*Chunk, error) {
	if s.fail != nil {
		return nil, s.fail
	}
	data, ok := s.saved[pos]
	if !ok {
		return nil, ErrChunkNotFound
	}
	c := NewChunk(pos, minY, height)
	return c, c.LoadBlocks(data)
}

func (s *countingStore) SaveChunk(_ context.Context, _ string, c *Chunk) error {
	s.saved[c.Coords] = append([]block.BlockID(nil), c.Blocks()...)
	return nil
}

func TestWorld_LoadGenerateSave(t *testing.T) {
	store := &countingStore{saved: make(map[vec.ChunkPos][]block.BlockID)}
	w := NewWorld("overworld", 0, 16, FlatGenerator{Layers: []block.BlockID{block.BedrockBlockID, block.StoneBlockID}})
	w.SetStore(store)

	pos := vec.ChunkPos{X: 0, Z: 0}
	assert.Nil(t, w.ChunkIfLoaded(pos))
	assert.False(t, IsChunkLoaded(w, pos))

	id, err := w.BlockAt(vec.Vec3{X: 5, Y: 1, Z: 5})
	require.NoError(t, err)
	assert.Equal(t, block.StoneBlockID, id)
	assert.True(t, IsChunkLoaded(w, pos))

	require.NoError(t, w.SetBlock(vec.Vec3{X: 5, Y: 2, Z: 5}, block.DirtBlockID))
	saved, err := w.Save(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, saved)

	// После выгрузки чанк читается из хранилища, а не генерируется заново
	w.Unload(pos)
	id, err = w.BlockAt(vec.Vec3{X: 5, Y: 2, Z: 5})
	require.NoError(t, err)
	assert.Equal(t, block.DirtBlockID, id)

	assert.Error(t, w.SetBlock(vec.Vec3{X: 0, Y: 99, Z: 0}, block.StoneBlockID))
}

func TestWorld_StoreFailure(t *testing.T) {
	w := NewWorld("broken", 0, 16, nil)
	w.SetStore(&countingStore{fail: errors.New("disk on fire")})
	_, err := w.LoadChunk(vec.ChunkPos{})
	assert.Error(t, err)
}

func TestGrid_ShapeAt(t *testing.T) {
	w := NewWorld("w", 0, 16, nil)
	cell := vec.Vec3{X: -1, Y: 3, Z: -1}

	_, loaded := ShapeAt(w, cell)
	assert.False(t, loaded, "Незагруженный чанк отличается от пустого")

	require.NoError(t, w.SetBlock(cell, block.SlabBlockID))
	shape, loaded := ShapeAt(w, cell)
	require.True(t, loaded)
	assert.InDelta(t, 0.5, shape.Bounds().Max[1], 1e-9)

	shape, loaded = ShapeAt(w, vec.Vec3{X: 0, Y: -5, Z: 0})
	assert.True(t, loaded)
	assert.True(t, shape.IsEmpty(), "Ниже мира — воздух")
}

func TestBorder(t *testing.T) {
	b := Border{Radius: 10}
	inside := physics.BoxAround(mgl64.Vec3{0, 0, 0}, 1, 2)
	crossing := physics.BoxAround(mgl64.Vec3{9.8, 0, 0}, 1, 2)

	assert.True(t, b.Contains(inside))
	assert.False(t, b.Collides(inside))
	assert.False(t, b.Contains(crossing))
	assert.True(t, b.Collides(crossing))
	assert.True(t, b.Shape().Intersects(crossing))
	assert.False(t, b.Shape().Intersects(inside))

	assert.True(t, b.ContainsCell(vec.Vec3{X: 9, Y: 0, Z: -10}))
	assert.False(t, b.ContainsCell(vec.Vec3{X: 10, Y: 0, Z: 0}))
}

func TestTerrainGenerator_Deterministic(t *testing.T) {
	a := NewChunk(vec.ChunkPos{X: 3, Z: 7}, 0, 128)
	b := NewChunk(vec.ChunkPos{X: 3, Z: 7}, 0, 128)
	NewTerrainGenerator(42).Generate(a)
	NewTerrainGenerator(42).Generate(b)
	assert.Equal(t, a.Blocks(), b.Blocks())
	assert.Equal(t, block.BedrockBlockID, a.Block(0, 0, 0))
	assert.NotEqual(t, block.AirBlockID, a.Block(8, SeaLevel, 8), "На уровне моря либо вода, либо суша")
}

func TestRegion_DoAndTicks(t *testing.T) {
	w := NewWorld("w", 0, 16, nil)
	r := NewRegion(w, entity.NewEntityManager(), 5*time.Millisecond)

	var mu sync.Mutex
	ticks := 0
	r.OnTick(func(uint64) {
		mu.Lock()
		ticks++
		mu.Unlock()
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	err := r.Do(ctx, func() error {
		return r.World().SetBlock(vec.Vec3{X: 1, Y: 1, Z: 1}, block.StoneBlockID)
	})
	require.NoError(t, err)

	sentinel := errors.New("boom")
	assert.ErrorIs(t, r.Do(ctx, func() error { return sentinel }), sentinel)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return ticks >= 2
	}, time.Second, 5*time.Millisecond)
	assert.GreaterOrEqual(t, r.Tick(), uint64(2))

	cancel()
	<-done
	assert.ErrorIs(t, r.Do(context.Background(), func() error { return nil }), ErrRegionStopped)
}

func TestRegion_SkipsExpiredTask(t *testing.T) {
	w := NewWorld("w", 0, 16, nil)
	r := NewRegion(w, entity.NewEntityManager(), time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Run(ctx)

	// Первая задача держит регион, пока вторая ждёт в очереди
	started := make(chan struct{})
	release := make(chan struct{})
	holdDone := make(chan error, 1)
	go func() {
		holdDone <- r.Do(ctx, func() error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	var ran atomic.Bool
	pos := vec.Vec3{X: 2, Y: 2, Z: 2}
	short, cancelShort := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancelShort()
	err := r.Do(short, func() error {
		ran.Store(true)
		return r.World().SetBlock(pos, block.StoneBlockID)
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	require.NoError(t, <-holdDone)
	var got block.BlockID
	require.NoError(t, r.Do(ctx, func() (err error) {
		got, err = w.BlockAt(pos)
		return err
	}))

	assert.False(t, ran.Load(), "Просроченная задача не должна выполняться")
	assert.Equal(t, block.AirBlockID, got)
}
