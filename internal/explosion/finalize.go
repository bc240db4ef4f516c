package explosion

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"

	"github.com/annel0/voxel-blast/internal/vec"
	"github.com/annel0/voxel-blast/internal/world"
	"github.com/annel0/voxel-blast/internal/world/block"
)

// maxDropStack — сколько одинаковых предметов объединяется в одну стопку
const maxDropStack = 16

// Drop — выпавшие предметы
type Drop struct {
	Block block.BlockID
	Cell  vec.Vec3 // Клетка, где появилась стопка
	Count int
}

// Result — итог взрыва
type Result struct {
	ID          uuid.UUID
	World       string
	Origin      mgl64.Vec3
	Radius      float64
	Interaction Interaction

	NoOp      bool // Радиус меньше MinRadius
	Cancelled bool // Политика отменила последствия

	Destroyed []vec.Vec3            // Клетки после одобрения политикой
	Knockback map[uint64]mgl64.Vec3 // Отдача по ID сущности
	Damage    map[uint64]float64    // Урон по ID сущности

	Removed int // Сколько блоков удалено из мира
	Drops   []Drop
	Ignited []vec.Vec3

	CachedCells int // Сколько клеток прочитал взрыв
}

func addDrop(drops []Drop, id block.BlockID, cell vec.Vec3) []Drop {
	for i := range drops {
		if drops[i].Block == id && drops[i].Count < maxDropStack {
			drops[i].Count++
			return drops
		}
	}
	return append(drops, Drop{Block: id, Cell: cell, Count: 1})
}

// Finalize применяет последствия взрыва. Сначала их одобряет политика;
// до этого момента мир и сущности не меняются, отказ просто отбрасывает результат.
func (x *Explosion) Finalize() (*Result, error) {
	if err := x.advance(StateDamage, StateFinalized); err != nil {
		return nil, err
	}

	res := &Result{
		ID:          x.ID,
		World:       x.grid.ID(),
		Origin:      x.req.Origin,
		Radius:      x.radius,
		Interaction: x.req.Interaction,
		NoOp:        x.NoOp(),
		CachedCells: x.cache.Len(),
	}
	if res.NoOp {
		return res, nil
	}

	cells := x.DestroyedCells()
	x.rng.Shuffle(len(cells), func(i, j int) { cells[i], cells[j] = cells[j], cells[i] })

	yield := 1.0
	if x.req.Interaction == DestroyWithDecay {
		yield = 1 / x.radius
	}
	fx := &Effects{
		Cells:     cells,
		Knockback: x.Knockback(),
		Damage:    x.Damage(),
		Yield:     yield,
	}
	if !x.policy.ApproveEffects(fx) {
		res.Cancelled = true
		return res, nil
	}
	res.Destroyed, res.Knockback, res.Damage = fx.Cells, fx.Knockback, fx.Damage

	if x.req.Interaction != Keep {
		if err := x.removeBlocks(res, fx); err != nil {
			return nil, err
		}
	}
	if x.req.Fire {
		if err := x.ignite(res, fx.Cells); err != nil {
			return nil, err
		}
	}

	for id, kb := range fx.Knockback {
		if e, ok := x.affected[id]; ok {
			e.Push(kb)
		}
	}
	for id, dmg := range fx.Damage {
		if e, ok := x.affected[id]; ok {
			e.Hurt(dmg)
		}
	}
	return res, nil
}

func (x *Explosion) removeBlocks(res *Result, fx *Effects) error {
	for _, cell := range fx.Cells {
		id, loaded := world.BlockAt(x.grid, cell)
		if !loaded || id.IsAir() {
			continue
		}
		props := block.PropertiesOf(id)
		if !props.Destroyable {
			continue
		}
		if !props.Drop.IsAir() && x.rng.Float64() < fx.Yield {
			res.Drops = addDrop(res.Drops, props.Drop, cell)
		}
		if err := x.grid.SetBlock(cell, block.AirBlockID); err != nil {
			return fmt.Errorf("remove block %v: %w", cell, err)
		}
		res.Removed++
	}
	return nil
}

func (x *Explosion) ignite(res *Result, cells []vec.Vec3) error {
	chance := x.cfg.FireChance
	if chance <= 0 {
		chance = DefaultFireChance
	}
	for _, cell := range cells {
		if x.rng.Intn(chance) != 0 {
			continue
		}
		id, loaded := world.BlockAt(x.grid, cell)
		if !loaded || !id.IsAir() {
			continue
		}
		below, loaded := world.BlockAt(x.grid, cell.Below())
		if !loaded {
			continue
		}
		if props := block.PropertiesOf(below); !props.Solid || !props.Shape.IsFull() {
			continue
		}
		if !x.policy.AllowIgnite(cell) {
			continue
		}
		if err := x.grid.SetBlock(cell, block.FireBlockID); err != nil {
			return fmt.Errorf("ignite %v: %w", cell, err)
		}
		res.Ignited = append(res.Ignited, cell)
	}
	return nil
}
