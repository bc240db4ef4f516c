package entity

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/annel0/voxel-blast/internal/physics"
)

// EntityType представляет тип сущности
type EntityType uint16

const (
	EntityTypePlayer EntityType = iota
	EntityTypeNPC
	EntityTypeMonster
	EntityTypeItem
	EntityTypeProjectile
	EntityTypeAnimal  // Животное
	EntityTypeVehicle // Транспорт (лодка, вагонетка)
	EntityTypePrimedTNT
)

// String возвращает имя типа сущности
func (t EntityType) String() string {
	switch t {
	case EntityTypePlayer:
		return "player"
	case EntityTypeNPC:
		return "npc"
	case EntityTypeMonster:
		return "monster"
	case EntityTypeItem:
		return "item"
	case EntityTypeProjectile:
		return "projectile"
	case EntityTypeAnimal:
		return "animal"
	case EntityTypeVehicle:
		return "vehicle"
	case EntityTypePrimedTNT:
		return "primed_tnt"
	default:
		return "unknown"
	}
}

// ParseEntityType возвращает тип по имени
func ParseEntityType(name string) (EntityType, bool) {
	for t := EntityTypePlayer; t <= EntityTypePrimedTNT; t++ {
		if t.String() == name {
			return t, true
		}
	}
	return 0, false
}

// Entity представляет сущность (актора) в трёхмерном мире
type Entity struct {
	ID       uint64     // Уникальный идентификатор сущности
	Type     EntityType // Тип сущности
	Position mgl64.Vec3 // Позиция ног
	Velocity mgl64.Vec3 // Текущая скорость

	Width     float64 // Ширина хитбокса по X/Z
	Height    float64 // Высота хитбокса
	EyeHeight float64 // Высота глаз над ногами
	Health    float64

	Spectator           bool    // Наблюдатель не участвует в столкновениях
	Removed             bool    // Сущность удалена из мира
	BlocksBuilding      bool    // Мешает установке блоков
	HardCollides        bool    // Другие сущности сталкиваются с ней как с твёрдым телом
	Living              bool    // Живое существо (получает урон, гасит отдачу)
	IgnoresExplosion    bool    // Взрывы не действуют на сущность
	PassThroughLeaves   bool    // Может проходить сквозь листву
	KnockbackResistance float64 // Доля гашения отдачи от 0 до 1

	Vehicle *Entity // Транспорт, на котором едет сущность

	Payload map[string]interface{} // Дополнительные данные сущности
}

type typeDefaults struct {
	width, height, eye float64
	health             float64
	living             bool
	blocksBuilding     bool
	hardCollides       bool
}

var defaults = map[EntityType]typeDefaults{
	EntityTypePlayer:     {width: 0.6, height: 1.8, eye: 1.62, health: 20, living: true, blocksBuilding: true},
	EntityTypeNPC:        {width: 0.6, height: 1.95, eye: 1.62, health: 20, living: true, blocksBuilding: true},
	EntityTypeMonster:    {width: 0.6, height: 1.95, eye: 1.74, health: 20, living: true, blocksBuilding: true},
	EntityTypeAnimal:     {width: 0.9, height: 1.4, eye: 1.3, health: 10, living: true, blocksBuilding: true},
	EntityTypeItem:       {width: 0.25, height: 0.25, eye: 0.2125, health: 5},
	EntityTypeProjectile: {width: 0.5, height: 0.5, eye: 0.13},
	EntityTypeVehicle:    {width: 1.375, height: 0.5625, eye: 0.5, health: 40, blocksBuilding: true, hardCollides: true},
	EntityTypePrimedTNT:  {width: 0.98, height: 0.98, eye: 0.15, blocksBuilding: true},
}

// NewEntity создаёт новую сущность с размерами по умолчанию для её типа
func NewEntity(id uint64, entityType EntityType, position mgl64.Vec3) *Entity {
	d := defaults[entityType]
	return &Entity{
		ID:             id,
		Type:           entityType,
		Position:       position,
		Width:          d.width,
		Height:         d.height,
		EyeHeight:      d.eye,
		Health:         d.health,
		Living:         d.living,
		BlocksBuilding: d.blocksBuilding,
		HardCollides:   d.hardCollides,
		Payload:        make(map[string]interface{}),
	}
}

// Box возвращает хитбокс сущности в мировых координатах
func (e *Entity) Box() physics.Box {
	return physics.BoxAround(e.Position, e.Width, e.Height)
}

// Eye возвращает позицию глаз
func (e *Entity) Eye() mgl64.Vec3 {
	return e.Position.Add(mgl64.Vec3{0, e.EyeHeight, 0})
}

// ExplosionY возвращает высоту, от которой считается направление отдачи.
// Для неживых снарядов вроде подожжённого динамита это ноги.
func (e *Entity) ExplosionY() float64 {
	if e.Type == EntityTypePrimedTNT {
		return e.Position[1]
	}
	return e.Position[1] + e.EyeHeight
}

// Alive проверяет, что сущность в мире и (для живых) не мертва
func (e *Entity) Alive() bool {
	if e.Removed {
		return false
	}
	return !e.Living || e.Health > 0
}

// RootVehicle возвращает нижний транспорт в цепочке. Сущность без транспорта
// является корнем сама для себя. Зацикленная цепочка обрывается на первой
// повторно встреченной сущности.
func (e *Entity) RootVehicle() *Entity {
	root := e
	var seen map[*Entity]struct{}
	for root.Vehicle != nil && root.Vehicle != e {
		if seen == nil {
			seen = make(map[*Entity]struct{})
		}
		if _, loop := seen[root]; loop {
			break
		}
		seen[root] = struct{}{}
		root = root.Vehicle
	}
	return root
}

// IsPassengerOfSameVehicle проверяет, едут ли сущности на одном транспорте
// (или одна из них является транспортом другой)
func (e *Entity) IsPassengerOfSameVehicle(other *Entity) bool {
	if other == nil {
		return false
	}
	return e.RootVehicle() == other.RootVehicle()
}

// CanBeCollidedWith возвращает true для сущностей с твёрдым телом
func (e *Entity) CanBeCollidedWith() bool {
	return e.HardCollides && !e.Removed
}

// CanCollideWith проверяет, сталкивается ли e с other
func (e *Entity) CanCollideWith(other *Entity) bool {
	return other.CanBeCollidedWith() && !e.IsPassengerOfSameVehicle(other)
}

// Hurt наносит урон живой сущности
func (e *Entity) Hurt(amount float64) {
	if !e.Living || amount <= 0 {
		return
	}
	e.Health -= amount
	if e.Health < 0 {
		e.Health = 0
	}
}

// Push добавляет импульс к скорости
func (e *Entity) Push(impulse mgl64.Vec3) {
	e.Velocity = e.Velocity.Add(impulse)
}
