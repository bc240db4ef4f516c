package block

import (
	"github.com/annel0/voxel-blast/internal/physics"
)

// Сопротивление взрыву для блоков, которые взрыв не может пробить
const IndestructibleResistance = 3_600_000.0

// Properties описывает физические свойства блока, важные для столкновений и взрывов
type Properties struct {
	Resistance  float64       // Сопротивление взрыву
	Shape       physics.Shape // Форма столкновения в локальных координатах клетки
	Solid       bool          // Полная непрозрачная опора (на ней может гореть огонь)
	Destroyable bool          // Может быть разрушен взрывом
	Fluid       bool          // Жидкость: формы нет, но лучи взрыва гаснут
	LeafLike    bool          // Листва
	LargeShape  bool          // Форма выступает за пределы клетки
	Drop        BlockID       // Что выпадает при разрушении (AirBlockID — ничего)
}

var unknownProperties = Properties{
	Resistance: IndestructibleResistance,
	Shape:      physics.Full(),
	Solid:      true,
}

// BlockBehavior определяет поведение блока
type BlockBehavior interface {
	ID() BlockID
	Name() string
	Properties() Properties
}
