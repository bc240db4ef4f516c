package implementations

import (
	"github.com/annel0/voxel-blast/internal/physics"
	"github.com/annel0/voxel-blast/internal/world/block"
)

// AirBehavior реализует поведение пустого блока (воздуха)
type AirBehavior struct{}

// ID возвращает идентификатор блока
func (b *AirBehavior) ID() block.BlockID {
	return block.AirBlockID
}

// Name возвращает имя блока
func (b *AirBehavior) Name() string {
	return "Air"
}

// Properties возвращает свойства воздуха: без формы и без сопротивления
func (b *AirBehavior) Properties() block.Properties {
	return block.Properties{
		Shape:       physics.Empty(),
		Destroyable: true,
	}
}

// FireBehavior реализует огонь. Формы нет, взрыв его просто гасит.
type FireBehavior struct{}

func (b *FireBehavior) ID() block.BlockID {
	return block.FireBlockID
}

func (b *FireBehavior) Name() string {
	return "Fire"
}

func (b *FireBehavior) Properties() block.Properties {
	return block.Properties{
		Shape:       physics.Empty(),
		Destroyable: true,
	}
}
