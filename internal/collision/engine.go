package collision

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/annel0/voxel-blast/internal/physics"
	"github.com/annel0/voxel-blast/internal/vec"
	"github.com/annel0/voxel-blast/internal/world"
	"github.com/annel0/voxel-blast/internal/world/block"
	"github.com/annel0/voxel-blast/internal/world/entity"
)

// Config задаёт поведение движка столкновений
type Config struct {
	// UnloadedObstructs: незагруженный чанк под формой считается препятствием в IsUnobstructed
	UnloadedObstructs bool
}

// Engine отвечает на запросы столкновений над миром и индексом сущностей.
// Движок ничего не блокирует сам: вызывающий гарантирует, что регион
// не меняется во время запроса. Запросы только читают мир, кроме
// политики UnloadedLoad, которая может загрузить чанк.
//
// Методы без возврата ошибки паникуют с vec.ErrCoordinateOverflow,
// если бокс выходит за поддерживаемые границы мира.
type Engine struct {
	grid     world.Grid
	entities EntityIndex
	cfg      Config
	metrics  *Metrics
}

// NewEngine создаёт движок. metrics может быть nil.
func NewEngine(grid world.Grid, entities EntityIndex, cfg Config, metrics *Metrics) *Engine {
	return &Engine{grid: grid, entities: entities, cfg: cfg, metrics: metrics}
}

// Grid возвращает мир, над которым работает движок
func (e *Engine) Grid() world.Grid {
	return e.grid
}

func mustCheck(b physics.Box) {
	if err := physics.CheckBox(b); err != nil {
		panic(err)
	}
}

// IsUnobstructed возвращает true, если форму не пересекает ни одна сущность,
// мешающая установке блоков. Пропускаются наблюдатели, удалённые сущности,
// сам except и пассажиры его транспорта. Пустая форма всегда даёт false.
func (e *Engine) IsUnobstructed(except *entity.Entity, shape physics.Shape) bool {
	e.metrics.observe("is_unobstructed", nil)
	if shape.IsEmpty() {
		return false
	}
	mustCheck(shape.Bounds())

	if e.cfg.UnloadedObstructs && !e.shapeChunksLoaded(shape) {
		return false
	}

	if e.entities == nil {
		return true
	}
	query := shape.Bounds()
	if shape.SingleBox() {
		query = query.Deflate(physics.Epsilon)
	}
	for _, other := range e.entities.Query(query, except, nil) {
		if other.Spectator || other.Removed || !other.BlocksBuilding {
			continue
		}
		if except != nil && other.IsPassengerOfSameVehicle(except) {
			continue
		}
		if !shape.SingleBox() && !shape.Intersects(other.Box()) {
			continue
		}
		return false
	}
	return true
}

// IsObstructed — отрицание IsUnobstructed для непустых форм. Пустая форма не загорожена.
func (e *Engine) IsObstructed(except *entity.Entity, shape physics.Shape) bool {
	if shape.IsEmpty() {
		return false
	}
	return !e.IsUnobstructed(except, shape)
}

func (e *Engine) shapeChunksLoaded(shape physics.Shape) bool {
	b := shape.Bounds()
	minC := vec.Floor(b.Min).Chunk()
	maxC := vec.Floor(b.Max).Chunk()
	for cz := minC.Z; cz <= maxC.Z; cz++ {
		for cx := minC.X; cx <= maxC.X; cx++ {
			if !world.IsChunkLoaded(e.grid, vec.ChunkPos{X: cx, Z: cz}) {
				return false
			}
		}
	}
	return true
}

// entityShapes собирает формы твёрдых сущностей, пересекающих бокс, сжатый на эпсилон.
// Для актора учитываются только те, с кем он сталкивается, без актора — все твёрдые тела.
// limit > 0 останавливает сбор после limit форм.
func (e *Engine) entityShapes(ctx Context, box physics.Box, limit int, out []physics.Shape) []physics.Shape {
	if e.entities == nil {
		return out
	}
	query := box.Deflate(physics.Epsilon)
	if query.IsEmpty() {
		return out
	}
	found := 0
	for _, other := range e.entities.Query(query, ctx.Actor, nil) {
		if other.Spectator || !other.CanBeCollidedWith() {
			continue
		}
		if ctx.Actor != nil && !ctx.Actor.CanCollideWith(other) {
			continue
		}
		out = append(out, physics.FromBox(other.Box()))
		if found++; limit > 0 && found >= limit {
			break
		}
	}
	return out
}

func (e *Engine) collisions(ctx Context, box physics.Box, op string) ([]physics.Shape, *walker) {
	w := newWalker(e.grid, ctx)
	defer e.metrics.observe(op, w)

	if box.IsEmpty() {
		return nil, w
	}
	mustCheck(box)

	var shapes []physics.Shape
	w.walk(box, func(_ vec.Vec3, shape physics.Shape) bool {
		shapes = append(shapes, shape)
		return true
	})
	if w.unknown {
		return nil, w
	}
	if border := e.grid.Border(); ctx.Actor != nil && border.Collides(box) {
		shapes = append(shapes, border.Shape())
	}
	return e.entityShapes(ctx, box, 0, shapes), w
}

// CollisionsFor возвращает формы блоков, сущностей и границы мира, пересекающие box.
// Формы блоков в мировых координатах. Вырожденный бокс даёт пустой список.
func (e *Engine) CollisionsFor(ctx Context, box physics.Box) []physics.Shape {
	if ctx.Chunks == UnloadedUnknown {
		ctx.Chunks = UnloadedSolid
	}
	shapes, _ := e.collisions(ctx, box, "collisions_for")
	return shapes
}

// CollisionsForIfLoaded работает как CollisionsFor, но не загружает чанки.
// false означает, что под боксом есть незагруженный чанк.
func (e *Engine) CollisionsForIfLoaded(ctx Context, box physics.Box) ([]physics.Shape, bool) {
	ctx.Chunks = UnloadedUnknown
	shapes, w := e.collisions(ctx, box, "collisions_for_if_loaded")
	return shapes, !w.unknown
}

func (e *Engine) noCollision(ctx Context, box physics.Box, op string) Outcome {
	w := newWalker(e.grid, ctx)
	defer e.metrics.observe(op, w)

	if box.IsEmpty() {
		return OutcomeYes
	}
	mustCheck(box)

	if !w.walk(box, func(vec.Vec3, physics.Shape) bool { return false }) {
		if w.unknown {
			return OutcomeUnknown
		}
		return OutcomeNo
	}
	if ctx.Actor != nil && e.grid.Border().Collides(box) {
		return OutcomeNo
	}
	if len(e.entityShapes(ctx, box, 1, nil)) > 0 {
		return OutcomeNo
	}
	return OutcomeYes
}

// NoCollision проверяет, что бокс свободен от блоков, границы мира и твёрдых сущностей.
// Останавливается на первой найденной форме.
func (e *Engine) NoCollision(ctx Context, box physics.Box) bool {
	if ctx.Chunks == UnloadedUnknown {
		ctx.Chunks = UnloadedSolid
	}
	return e.noCollision(ctx, box, "no_collision") == OutcomeYes
}

// NoCollisionIfLoaded работает как NoCollision, но не загружает чанки
// и возвращает OutcomeUnknown при незагруженном чанке
func (e *Engine) NoCollisionIfLoaded(ctx Context, box physics.Box) Outcome {
	ctx.Chunks = UnloadedUnknown
	return e.noCollision(ctx, box, "no_collision_if_loaded")
}

// supportDepth — толщина щупа под ногами актора
const supportDepth = 1.0e-6

// SupportProbe возвращает тонкий бокс под нижней гранью хитбокса, которым
// ищется опора стоящего на земле актора
func SupportProbe(box physics.Box) physics.Box {
	return physics.Box{
		Min: mgl64.Vec3{box.Min[0], box.Min[1] - supportDepth, box.Min[2]},
		Max: mgl64.Vec3{box.Max[0], box.Min[1], box.Max[2]},
	}
}

// FindSupportingCell ищет клетку, на которую опирается актор с хитбоксом box.
// Из клеток, чья форма пересекает box, выбирается ближайшая центром к позиции
// актора (или к центру низа бокса без актора); при равенстве побеждает большая
// в порядке Y, Z, X. Угловые клетки внешнего кольца не рассматриваются,
// рёберные только для форм, выступающих за клетку.
func (e *Engine) FindSupportingCell(ctx Context, box physics.Box) (vec.Vec3, Outcome) {
	w := newWalker(e.grid, ctx)
	defer e.metrics.observe("find_supporting_cell", w)

	if box.IsEmpty() {
		return vec.Vec3{}, OutcomeNo
	}
	mustCheck(box)

	ref := mgl64.Vec3{(box.Min[0] + box.Max[0]) / 2, box.Min[1], (box.Min[2] + box.Max[2]) / 2}
	if ctx.Actor != nil {
		ref = ctx.Actor.Position
	}

	var selected vec.Vec3
	found := false
	best := 0.0

	cb := expandedBounds(box)
	for z := cb.minZ; z <= cb.maxZ; z++ {
		for x := cb.minX; x <= cb.maxX; x++ {
			for y := max(cb.minY, e.grid.MinY()); y <= min(cb.maxY, e.grid.MaxY()-1); y++ {
				edges := cb.edgeCount(x, y, z)
				if edges == 3 {
					continue
				}
				cell := vec.Vec3{X: x, Y: y, Z: z}
				dist := cell.DistToCenterSqr(ref)
				if found && (dist > best || (dist == best && !selected.Less(cell))) {
					continue
				}
				w.visited++

				c := w.chunk(x, z)
				if w.unknown {
					return vec.Vec3{}, OutcomeUnknown
				}
				var props block.Properties
				if c == nil {
					if edges > 0 {
						continue
					}
					props = block.Properties{Shape: physics.Full()}
				} else {
					props = block.PropertiesOf(world.BlockIn(c, cell))
				}
				if props.Shape.IsEmpty() || (edges > 0 && !props.LargeShape) || w.skipsLeaves(props) {
					continue
				}

				// Сдвигаем бокс актора в локальные координаты клетки вместо сдвига формы
				shifted := box.Move(-float64(x), -float64(y), -float64(z))
				if !props.Shape.Intersects(shifted) {
					continue
				}
				selected, best, found = cell, dist, true
			}
		}
	}

	if !found {
		return vec.Vec3{}, OutcomeNo
	}
	return selected, OutcomeYes
}

// HitResult — результат ClipRay
type HitResult struct {
	Hit  bool
	Info physics.Hit // Заполнено при Hit
	End  mgl64.Vec3  // Точка остановки: попадание или конец отрезка
}

// ClipRay трассирует отрезок и возвращает первое попадание в форму блока.
// Чанки не загружаются: незагруженные клетки пропускаются.
func (e *Engine) ClipRay(ctx Context, from, to mgl64.Vec3) HitResult {
	e.metrics.observe("clip_ray", nil)
	mustCheck(physics.Box{Min: from, Max: from})
	mustCheck(physics.Box{Min: to, Max: to})

	var hit physics.Hit
	walkerCtx := ctx
	walkerCtx.Chunks = UnloadedSolid
	w := newWalker(e.grid, walkerCtx)

	_, ok := Trace(from, to, func(cell vec.Vec3) bool {
		if world.IsOutsideBuildHeight(e.grid, cell.Y) {
			return false
		}
		c := w.chunk(cell.X, cell.Z)
		if c == nil {
			return false
		}
		props := block.PropertiesOf(world.BlockIn(c, cell))
		if props.Shape.IsEmpty() || w.skipsLeaves(props) {
			return false
		}
		h, clipped := props.Shape.Clip(from, to, cell)
		if clipped {
			hit = h
		}
		return clipped
	})
	if !ok {
		return HitResult{End: to}
	}
	return HitResult{Hit: true, Info: hit, End: hit.Point}
}

// HasLineOfSight проверяет, что между точками нет форм блоков
func (e *Engine) HasLineOfSight(from, to mgl64.Vec3) bool {
	return !e.ClipRay(Context{}, from, to).Hit
}
