package implementations

import (
	"github.com/annel0/voxel-blast/internal/physics"
	"github.com/annel0/voxel-blast/internal/world/block"
)

var (
	slabShape = physics.FromBox(physics.NewBox(0, 0, 0, 1, 0.5, 1))

	// Столб забора выше клетки на половину, чтобы через него нельзя было перепрыгнуть
	fenceShape = physics.FromBox(physics.NewBox(0.375, 0, 0.375, 0.625, 1.5, 0.625))
)

// SlabBehavior реализует нижнюю каменную плиту
type SlabBehavior struct{}

// ID возвращает идентификатор блока
func (b *SlabBehavior) ID() block.BlockID {
	return block.SlabBlockID
}

// Name возвращает имя блока
func (b *SlabBehavior) Name() string {
	return "Slab"
}

// Properties возвращает свойства плиты
func (b *SlabBehavior) Properties() block.Properties {
	return block.Properties{
		Resistance:  6,
		Shape:       slabShape,
		Destroyable: true,
		Drop:        block.SlabBlockID,
	}
}

// FenceBehavior реализует деревянный забор
type FenceBehavior struct{}

// ID возвращает идентификатор блока
func (b *FenceBehavior) ID() block.BlockID {
	return block.FenceBlockID
}

// Name возвращает имя блока
func (b *FenceBehavior) Name() string {
	return "Fence"
}

// Properties возвращает свойства забора
func (b *FenceBehavior) Properties() block.Properties {
	return block.Properties{
		Resistance:  3,
		Shape:       fenceShape,
		Destroyable: true,
		LargeShape:  true,
		Drop:        block.FenceBlockID,
	}
}
