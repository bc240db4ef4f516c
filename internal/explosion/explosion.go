package explosion

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"

	"github.com/annel0/voxel-blast/internal/collision"
	"github.com/annel0/voxel-blast/internal/vec"
	"github.com/annel0/voxel-blast/internal/world"
	"github.com/annel0/voxel-blast/internal/world/block"
	"github.com/annel0/voxel-blast/internal/world/entity"
)

// MinRadius — взрыв меньшего радиуса ничего не делает
const MinRadius = 0.1

// ErrInvalidState возвращается при вызове фазы взрыва не по порядку
var ErrInvalidState = errors.New("explosion: invalid state")

// Interaction определяет, что взрыв делает с блоками
type Interaction uint8

const (
	Keep             Interaction = iota // Блоки не трогаются
	Destroy                             // Блоки разрушаются, весь дроп выпадает
	DestroyWithDecay                    // Блоки разрушаются, дроп выпадает с вероятностью 1/радиус
)

func (i Interaction) String() string {
	switch i {
	case Keep:
		return "keep"
	case Destroy:
		return "destroy"
	case DestroyWithDecay:
		return "destroy_with_decay"
	default:
		return fmt.Sprintf("Interaction(%d)", i)
	}
}

// ParseInteraction разбирает имя режима
func ParseInteraction(s string) (Interaction, bool) {
	switch strings.ToLower(s) {
	case "keep", "none":
		return Keep, true
	case "destroy":
		return Destroy, true
	case "destroy_with_decay", "decay", "":
		return DestroyWithDecay, true
	}
	return Keep, false
}

// State — фаза, которую взрыв уже прошёл
type State uint8

const (
	StateCreated State = iota
	StateDestruction
	StateDamage
	StateFinalized
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateDestruction:
		return "destruction"
	case StateDamage:
		return "damage"
	case StateFinalized:
		return "finalized"
	default:
		return fmt.Sprintf("State(%d)", s)
	}
}

// Request описывает взрыв
type Request struct {
	Origin      mgl64.Vec3
	Power       float64
	Source      *entity.Entity // Может быть nil. Источник не получает урона.
	Interaction Interaction
	Fire        bool
	Seed        int64
	Policy      Policy // nil — DefaultPolicy
}

// MutableGrid — мир, в котором финализация может менять блоки
type MutableGrid interface {
	world.Grid
	SetBlock(cell vec.Vec3, id block.BlockID) error
}

// Explosion — один взрыв. Фазы вызываются строго по порядку:
// ComputeDestruction, ComputeDamage, Finalize. Объект не потокобезопасен.
type Explosion struct {
	ID     uuid.UUID
	req    Request
	radius float64

	grid     MutableGrid
	entities collision.EntityIndex
	cfg      Config
	density  *DensityCache
	policy   Policy
	rng      *rand.Rand

	state State
	cache *BlockCache

	destroyed    []vec.Vec3
	destroyedSet map[int64]struct{}

	knockback map[uint64]mgl64.Vec3
	damage    map[uint64]float64
	exposure  map[uint64]float64
	affected  map[uint64]*entity.Entity
}

func newExplosion(grid MutableGrid, entities collision.EntityIndex, cfg Config, density *DensityCache, req Request) *Explosion {
	radius := req.Power
	if !(radius > 0) {
		radius = 0
	}
	policy := req.Policy
	if policy == nil {
		policy = DefaultPolicy{}
	}
	return &Explosion{
		ID:           uuid.New(),
		req:          req,
		radius:       radius,
		grid:         grid,
		entities:     entities,
		cfg:          cfg,
		density:      density,
		policy:       policy,
		rng:          rand.New(rand.NewSource(req.Seed)),
		cache:        NewBlockCache(grid),
		destroyedSet: make(map[int64]struct{}),
		knockback:    make(map[uint64]mgl64.Vec3),
		damage:       make(map[uint64]float64),
		exposure:     make(map[uint64]float64),
		affected:     make(map[uint64]*entity.Entity),
	}
}

// State возвращает пройденную фазу
func (x *Explosion) State() State { return x.state }

// Radius возвращает радиус взрыва
func (x *Explosion) Radius() float64 { return x.radius }

// Request возвращает исходный запрос
func (x *Explosion) Request() Request { return x.req }

// NoOp сообщает, что радиус слишком мал и взрыв ничего не делает
func (x *Explosion) NoOp() bool { return x.radius < MinRadius }

// DestroyedCells возвращает копию найденных клеток в порядке обнаружения
func (x *Explosion) DestroyedCells() []vec.Vec3 {
	out := make([]vec.Vec3, len(x.destroyed))
	copy(out, x.destroyed)
	return out
}

// Knockback возвращает копию отдачи по ID сущности
func (x *Explosion) Knockback() map[uint64]mgl64.Vec3 {
	out := make(map[uint64]mgl64.Vec3, len(x.knockback))
	for id, v := range x.knockback {
		out[id] = v
	}
	return out
}

// Damage возвращает копию урона по ID сущности
func (x *Explosion) Damage() map[uint64]float64 {
	out := make(map[uint64]float64, len(x.damage))
	for id, v := range x.damage {
		out[id] = v
	}
	return out
}

// Exposure возвращает долю открытости сущности, посчитанную в фазе урона
func (x *Explosion) Exposure(id uint64) (float64, bool) {
	v, ok := x.exposure[id]
	return v, ok
}

// Cache возвращает кэш клеток взрыва
func (x *Explosion) Cache() *BlockCache { return x.cache }

func (x *Explosion) advance(from, to State) error {
	if x.state != from {
		return fmt.Errorf("%w: %s requires %s, got %s", ErrInvalidState, to, from, x.state)
	}
	x.state = to
	return nil
}

// ComputeDestruction пускает лучи из центра и собирает клетки, которые будут разрушены.
// Мир не меняется; незагруженные чанки загружаются.
func (x *Explosion) ComputeDestruction() error {
	if err := x.advance(StateCreated, StateDestruction); err != nil {
		return err
	}
	if x.NoOp() {
		return nil
	}

	origin := x.req.Origin
	initial := x.cache.Get(vec.Floor(origin), true)

	for _, ray := range cachedRays {
		entry := initial
		power := x.radius * (0.7 + x.rng.Float64()*0.6)
		pos := origin

		for power > 0 {
			cell := vec.Floor(pos)
			if cell != entry.Cell {
				entry = x.cache.Get(cell, true)
			}
			if entry.OutOfWorld || entry.Unloaded {
				break
			}

			// Неразрушаемая клетка забирает силу луча, но в набор не попадает
			power -= entry.Cost
			if power > 0 && entry.Props.Destroyable && entry.shouldExplode == undecided {
				if x.policy.ShouldBlockExplode(cell, entry.Block, power) {
					entry.shouldExplode = decidedYes
					if x.req.Fire || !entry.Block.IsAir() {
						x.addDestroyed(entry)
					}
				} else {
					entry.shouldExplode = decidedNo
				}
			}

			pos = pos.Add(ray)
			power -= x.cfg.StepDecay
		}
	}
	return nil
}

func (x *Explosion) addDestroyed(e *CacheEntry) {
	if _, ok := x.destroyedSet[e.Key]; ok {
		return
	}
	x.destroyedSet[e.Key] = struct{}{}
	x.destroyed = append(x.destroyed, e.Cell)
}

// cubeAround возвращает целочисленный куб поиска сущностей
func cubeAround(origin mgl64.Vec3, reach float64) (mgl64.Vec3, mgl64.Vec3) {
	lo := mgl64.Vec3{
		math.Floor(origin[0] - reach - 1),
		math.Floor(origin[1] - reach - 1),
		math.Floor(origin[2] - reach - 1),
	}
	hi := mgl64.Vec3{
		math.Floor(origin[0] + reach + 1),
		math.Floor(origin[1] + reach + 1),
		math.Floor(origin[2] + reach + 1),
	}
	return lo, hi
}
