package implementations

import (
	"github.com/annel0/voxel-blast/internal/physics"
	"github.com/annel0/voxel-blast/internal/world/block"
)

// WaterBehavior реализует воду. Столкновений нет, но лучи взрыва в воде
// быстро теряют силу.
type WaterBehavior struct{}

// ID возвращает идентификатор блока
func (b *WaterBehavior) ID() block.BlockID {
	return block.WaterBlockID
}

// Name возвращает имя блока
func (b *WaterBehavior) Name() string {
	return "Water"
}

// Properties возвращает свойства воды
func (b *WaterBehavior) Properties() block.Properties {
	return block.Properties{
		Resistance:  100,
		Shape:       physics.Empty(),
		Destroyable: true,
		Fluid:       true,
	}
}
