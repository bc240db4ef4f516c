package collision

import (
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/voxel-blast/internal/physics"
	"github.com/annel0/voxel-blast/internal/vec"
	"github.com/annel0/voxel-blast/internal/world"
	"github.com/annel0/voxel-blast/internal/world/block"
	"github.com/annel0/voxel-blast/internal/world/entity"
)

// bruteForceBlocks перебирает все клетки в широком окне без каких-либо оптимизаций
func bruteForceBlocks(g world.Grid, box physics.Box) int {
	n := 0
	lo, hi := vec.Floor(box.Min), vec.Floor(box.Max)
	for x := lo.X - 3; x <= hi.X+3; x++ {
		for y := lo.Y - 3; y <= hi.Y+3; y++ {
			for z := lo.Z - 3; z <= hi.Z+3; z++ {
				cell := vec.Vec3{X: x, Y: y, Z: z}
				shape, loaded := world.ShapeAt(g, cell)
				if loaded && shape.MoveTo(cell).Intersects(box) {
					n++
				}
			}
		}
	}
	return n
}

func TestCollisionsFor_MatchesBruteForce(t *testing.T) {
	e, w, _ := newTestEngine(t)
	rng := rand.New(rand.NewSource(3))
	palette := []block.BlockID{
		block.StoneBlockID, block.SlabBlockID, block.FenceBlockID,
		block.CactusBlockID, block.LeavesBlockID, block.WaterBlockID,
	}
	for x := -6; x <= 6; x++ {
		for y := 1; y <= 12; y++ {
			for z := -6; z <= 6; z++ {
				if rng.Float64() < 0.3 {
					setBlock(t, w, x, y, z, palette[rng.Intn(len(palette))])
				}
			}
		}
	}

	for i := 0; i < 400; i++ {
		min := mgl64.Vec3{rng.Float64()*10 - 5, rng.Float64() * 10, rng.Float64()*10 - 5}
		size := mgl64.Vec3{rng.Float64()*3 + 0.01, rng.Float64()*3 + 0.01, rng.Float64()*3 + 0.01}
		if i%10 == 0 {
			// Боксы, выровненные по сетке, проверяют касание граней
			min = mgl64.Vec3{float64(rng.Intn(10) - 5), float64(rng.Intn(10)), float64(rng.Intn(10) - 5)}
			size = mgl64.Vec3{1, 1, 1}
		}
		box := physics.Box{Min: min, Max: min.Add(size)}

		shapes := e.CollisionsFor(Context{}, box)
		require.Equal(t, bruteForceBlocks(w, box), len(shapes), "Бокс %v", box)
		for _, s := range shapes {
			assert.True(t, s.Intersects(box))
		}
		assert.Equal(t, len(shapes) == 0, e.NoCollision(Context{}, box))
	}
}

func TestCollisionsFor_Entities(t *testing.T) {
	e, _, em := newTestEngine(t)
	actor := em.Spawn(entity.EntityTypePlayer, mgl64.Vec3{0.5, 10, 0.5})
	boat := em.Spawn(entity.EntityTypeVehicle, mgl64.Vec3{1.0, 10, 0.5})
	em.Spawn(entity.EntityTypeAnimal, mgl64.Vec3{0.2, 10, 0.5})
	em.Spawn(entity.EntityTypeItem, mgl64.Vec3{0.5, 10.5, 0.5})
	spectator := em.Spawn(entity.EntityTypeVehicle, mgl64.Vec3{0.5, 10, 1.0})
	spectator.Spectator = true

	shapes := e.CollisionsFor(Context{Actor: actor}, actor.Box())
	require.Len(t, shapes, 1, "Только твёрдые тела: животное, предмет и наблюдатель не мешают")
	assert.Equal(t, boat.Box(), shapes[0].Bounds())
	assert.False(t, e.NoCollision(Context{Actor: actor}, actor.Box()))

	require.NoError(t, em.Mount(actor.ID, boat))
	assert.Empty(t, e.CollisionsFor(Context{Actor: actor}, actor.Box()), "Свой транспорт не мешает")
	assert.True(t, e.NoCollision(Context{Actor: actor}, actor.Box()))

	// Касание граней не даёт столкновения
	touching := physics.Box{Min: mgl64.Vec3{boat.Box().Max[0], 10, 0}, Max: mgl64.Vec3{boat.Box().Max[0] + 1, 11, 1}}
	assert.Empty(t, e.CollisionsFor(Context{}, touching))

	assert.Empty(t, e.CollisionsFor(Context{}, physics.NewBox(0, 0, 0, 1, 0, 1)), "Вырожденный бокс")
}

func TestCollisionsFor_AgreesWithNoCollision(t *testing.T) {
	e, w, em := newTestEngine(t)
	rng := rand.New(rand.NewSource(11))
	for i := 0; i < 40; i++ {
		setBlock(t, w, rng.Intn(12)-6, rng.Intn(8)+1, rng.Intn(12)-6, block.StoneBlockID)
	}
	types := []entity.EntityType{
		entity.EntityTypePlayer, entity.EntityTypeAnimal, entity.EntityTypeItem,
		entity.EntityTypeVehicle, entity.EntityTypePrimedTNT, entity.EntityTypeProjectile,
	}
	var spawned []*entity.Entity
	for i := 0; i < 30; i++ {
		pos := mgl64.Vec3{rng.Float64()*10 - 5, rng.Float64()*8 + 1, rng.Float64()*10 - 5}
		spawned = append(spawned, em.Spawn(types[rng.Intn(len(types))], pos))
	}

	for i := 0; i < 300; i++ {
		var actor *entity.Entity
		if i%2 == 0 {
			actor = spawned[rng.Intn(len(spawned))]
		}
		min := mgl64.Vec3{rng.Float64()*10 - 5, rng.Float64() * 8, rng.Float64()*10 - 5}
		size := mgl64.Vec3{rng.Float64()*2 + 0.05, rng.Float64()*2 + 0.05, rng.Float64()*2 + 0.05}
		box := physics.Box{Min: min, Max: min.Add(size)}
		ctx := Context{Actor: actor}

		shapes := e.CollisionsFor(ctx, box)
		require.Equal(t, len(shapes) == 0, e.NoCollision(ctx, box), "Бокс %v, актор %v", box, actor)
	}
}

func TestCollisionsFor_LeavesAndActors(t *testing.T) {
	e, w, em := newTestEngine(t)
	setBlock(t, w, 0, 5, 0, block.LeavesBlockID)
	box := physics.NewBox(0.2, 5.2, 0.2, 0.8, 5.8, 0.8)

	assert.Len(t, e.CollisionsFor(Context{}, box), 1)

	climber := em.Spawn(entity.EntityTypeMonster, mgl64.Vec3{10, 10, 10})
	climber.PassThroughLeaves = true
	assert.Empty(t, e.CollisionsFor(Context{Actor: climber}, box))
}

func TestCollisionsForIfLoaded(t *testing.T) {
	e, _, _ := newTestEngine(t)
	far := physics.NewBox(1000, 5, 1000, 1001, 6, 1001)

	shapes, ok := e.CollisionsForIfLoaded(Context{}, far)
	assert.False(t, ok)
	assert.Empty(t, shapes)

	shapes, ok = e.CollisionsForIfLoaded(Context{}, physics.NewBox(0, 5, 0, 1, 6, 1))
	assert.True(t, ok)
	assert.Empty(t, shapes)

	// Без загрузки незагруженное считается твёрдым
	assert.NotEmpty(t, e.CollisionsFor(Context{}, far))
	assert.False(t, e.NoCollision(Context{}, far))
	assert.Equal(t, OutcomeUnknown, e.NoCollisionIfLoaded(Context{}, far))
}

func TestCollisionsFor_LoadPolicy(t *testing.T) {
	w := world.NewWorld("gen", 0, 16, world.FlatGenerator{Layers: []block.BlockID{block.StoneBlockID}})
	e := NewEngine(w, entity.NewSpatialIndex(16), Config{}, nil)

	box := physics.NewBox(500.2, 1, 500.2, 500.8, 2, 500.8)
	assert.True(t, e.NoCollision(Context{Chunks: UnloadedLoad}, box))
	assert.True(t, world.IsChunkLoaded(w, vec.ChunkPosOf(500, 500)), "Политика загрузки загружает чанк")

	assert.False(t, e.NoCollision(Context{}, physics.NewBox(500.2, 0.5, 500.2, 500.8, 1.5, 500.8)))
}

func TestNoCollision_BorderAndHardEntities(t *testing.T) {
	e, w, em := newTestEngine(t)
	w.SetBorder(world.Border{Radius: 10})
	actor := em.Spawn(entity.EntityTypePlayer, mgl64.Vec3{0, 10, 0})

	crossing := physics.BoxAround(mgl64.Vec3{9.9, 10, 0}, 0.6, 1.8)
	assert.False(t, e.NoCollision(Context{Actor: actor}, crossing))
	assert.True(t, e.NoCollision(Context{}, crossing), "Граница проверяется только для актора")

	shapes := e.CollisionsFor(Context{Actor: actor}, crossing)
	require.Len(t, shapes, 1)

	boat := em.Spawn(entity.EntityTypeVehicle, mgl64.Vec3{3, 10, 3})
	assert.False(t, e.NoCollision(Context{Actor: actor}, boat.Box()))

	require.NoError(t, em.Mount(actor.ID, boat))
	assert.True(t, e.NoCollision(Context{Actor: actor}, boat.Box()), "Пассажир не сталкивается со своим транспортом")

	// Игрок не является твёрдым телом для NoCollision
	other := em.Spawn(entity.EntityTypePlayer, mgl64.Vec3{-3, 10, -3})
	assert.True(t, e.NoCollision(Context{}, other.Box()))
}

func TestIsUnobstructed(t *testing.T) {
	e, _, em := newTestEngine(t)

	assert.False(t, e.IsUnobstructed(nil, physics.Empty()), "Пустая форма никогда не свободна")
	assert.False(t, e.IsObstructed(nil, physics.Empty()))

	cell := physics.Full().MoveTo(vec.Vec3{X: 0, Y: 10, Z: 0})
	assert.True(t, e.IsUnobstructed(nil, cell))

	player := em.Spawn(entity.EntityTypePlayer, mgl64.Vec3{0.5, 10, 0.5})
	assert.False(t, e.IsUnobstructed(nil, cell))
	assert.True(t, e.IsObstructed(nil, cell))
	assert.True(t, e.IsUnobstructed(player, cell), "Исключённая сущность не мешает")

	player.Spectator = true
	assert.True(t, e.IsUnobstructed(nil, cell))
	player.Spectator = false

	item := em.Spawn(entity.EntityTypeItem, mgl64.Vec3{0.5, 10, 0.5})
	assert.False(t, item.BlocksBuilding)
	em.Despawn(player.ID)
	assert.True(t, e.IsUnobstructed(nil, cell), "Предметы не мешают установке блоков")

	// Пассажиры общего транспорта
	boat := em.Spawn(entity.EntityTypeVehicle, mgl64.Vec3{20.5, 10, 20.5})
	rider := em.Spawn(entity.EntityTypePlayer, mgl64.Vec3{30, 10, 30})
	require.NoError(t, em.Mount(rider.ID, boat))
	boatCell := physics.Full().MoveTo(vec.Vec3{X: 20, Y: 10, Z: 20})
	assert.True(t, e.IsUnobstructed(rider, boatCell))
	assert.False(t, e.IsUnobstructed(nil, boatCell))
}

func TestIsUnobstructed_ExactShape(t *testing.T) {
	e, _, em := newTestEngine(t)

	// Г-образная форма: сущность в пустом углу не мешает
	shape := physics.Union(
		physics.NewBox(0, 10, 0, 4, 11, 1),
		physics.NewBox(0, 10, 0, 1, 11, 4),
	)
	em.Spawn(entity.EntityTypeItem, mgl64.Vec3{3, 10, 3}).BlocksBuilding = true
	assert.True(t, e.IsUnobstructed(nil, shape))

	em.Spawn(entity.EntityTypeItem, mgl64.Vec3{3, 10, 0.5}).BlocksBuilding = true
	assert.False(t, e.IsUnobstructed(nil, shape))
}

func TestIsUnobstructed_WithoutEntityIndex(t *testing.T) {
	e := NewEngine(newTestWorld(t), nil, Config{}, nil)
	cell := physics.Full().MoveTo(vec.Vec3{X: 0, Y: 10, Z: 0})
	assert.NotPanics(t, func() {
		assert.True(t, e.IsUnobstructed(nil, cell))
	})
	assert.True(t, e.NoCollision(Context{}, physics.NewBox(0.2, 10, 0.2, 0.8, 11, 0.8)))
}

func TestIsUnobstructed_UnloadedObstructs(t *testing.T) {
	w := newTestWorld(t)
	e := NewEngine(w, entity.NewSpatialIndex(16), Config{UnloadedObstructs: true}, nil)
	assert.False(t, e.IsUnobstructed(nil, physics.Full().MoveTo(vec.Vec3{X: 1000, Y: 5, Z: 1000})))
	assert.True(t, e.IsUnobstructed(nil, physics.Full().MoveTo(vec.Vec3{X: 0, Y: 5, Z: 0})))
}

func TestFindSupportingCell(t *testing.T) {
	e, w, em := newTestEngine(t)
	setBlock(t, w, 0, 4, 0, block.StoneBlockID)
	setBlock(t, w, 1, 4, 0, block.StoneBlockID)

	player := em.Spawn(entity.EntityTypePlayer, mgl64.Vec3{0.3, 5, 0.5})
	ctx := Context{Actor: player}
	cell, outcome := e.FindSupportingCell(ctx, SupportProbe(player.Box()))
	require.Equal(t, OutcomeYes, outcome)
	assert.Equal(t, vec.Vec3{X: 0, Y: 4, Z: 0}, cell)

	// Ровно посередине: при равенстве выбирается большая клетка
	require.NoError(t, em.Move(player.ID, mgl64.Vec3{1.0, 5, 0.5}))
	cell, outcome = e.FindSupportingCell(ctx, SupportProbe(player.Box()))
	require.Equal(t, OutcomeYes, outcome)
	assert.Equal(t, vec.Vec3{X: 1, Y: 4, Z: 0}, cell)

	// В воздухе опоры нет
	require.NoError(t, em.Move(player.ID, mgl64.Vec3{5.5, 20, 5.5}))
	_, outcome = e.FindSupportingCell(ctx, SupportProbe(player.Box()))
	assert.Equal(t, OutcomeNo, outcome)
}

func TestFindSupportingCell_LargeShape(t *testing.T) {
	e, w, em := newTestEngine(t)
	setBlock(t, w, 3, 4, 3, block.FenceBlockID)

	player := em.Spawn(entity.EntityTypePlayer, mgl64.Vec3{3.5, 5.5, 3.5})
	cell, outcome := e.FindSupportingCell(Context{Actor: player}, SupportProbe(player.Box()))
	require.Equal(t, OutcomeYes, outcome, "Забор из соседней снизу клетки держит актора")
	assert.Equal(t, vec.Vec3{X: 3, Y: 4, Z: 3}, cell)
}

func TestFindSupportingCell_Unloaded(t *testing.T) {
	e, _, _ := newTestEngine(t)
	probe := SupportProbe(physics.BoxAround(mgl64.Vec3{1000.5, 5, 1000.5}, 0.6, 1.8))

	_, outcome := e.FindSupportingCell(Context{Chunks: UnloadedUnknown}, probe)
	assert.Equal(t, OutcomeUnknown, outcome)

	cell, outcome := e.FindSupportingCell(Context{}, probe)
	assert.Equal(t, OutcomeYes, outcome, "Незагруженное пространство держит актора")
	assert.Equal(t, vec.Vec3{X: 1000, Y: 4, Z: 1000}, cell)
}

func TestClipRay(t *testing.T) {
	e, w, _ := newTestEngine(t)
	setBlock(t, w, 0, 5, 0, block.StoneBlockID)

	// Луч через центр клетки попадает
	res := e.ClipRay(Context{}, mgl64.Vec3{-5, 5.5, 0.5}, mgl64.Vec3{5, 5.5, 0.5})
	require.True(t, res.Hit)
	assert.Equal(t, vec.Vec3{X: 0, Y: 5, Z: 0}, res.Info.Cell)
	assert.Equal(t, physics.FaceWest, res.Info.Face)
	assert.InDelta(t, 0.0, res.End[0], 1e-9)

	// Луч в 0.6 от центра проходит мимо
	res = e.ClipRay(Context{}, mgl64.Vec3{-5, 5.5, 1.1}, mgl64.Vec3{5, 5.5, 1.1})
	assert.False(t, res.Hit)
	assert.Equal(t, mgl64.Vec3{5, 5.5, 1.1}, res.End)

	assert.False(t, e.HasLineOfSight(mgl64.Vec3{0.5, 10, 0.5}, mgl64.Vec3{0.5, 0.5, 0.5}))
	assert.True(t, e.HasLineOfSight(mgl64.Vec3{3.5, 10, 0.5}, mgl64.Vec3{3.5, 0.5, 0.5}))

	// Незагруженные клетки пропускаются
	assert.True(t, e.HasLineOfSight(mgl64.Vec3{990, 5, 990}, mgl64.Vec3{1010, 5, 1010}))
}

func TestEngine_CoordinateOverflowPanics(t *testing.T) {
	e, _, _ := newTestEngine(t)
	assert.Panics(t, func() {
		e.NoCollision(Context{}, physics.NewBox(4e7, 0, 0, 4e7+1, 1, 1))
	})
}

func TestEngine_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	w := newTestWorld(t)
	e := NewEngine(w, entity.NewSpatialIndex(16), Config{}, NewMetrics(reg))

	e.NoCollision(Context{}, physics.NewBox(0, 5, 0, 1, 6, 1))
	e.NoCollisionIfLoaded(Context{}, physics.NewBox(1000, 5, 1000, 1001, 6, 1001))

	m := e.metrics
	assert.Equal(t, 1.0, testutil.ToFloat64(m.queries.WithLabelValues("no_collision")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.unknown))
}
