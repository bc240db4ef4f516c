package implementations

import (
	"github.com/annel0/voxel-blast/internal/physics"
	"github.com/annel0/voxel-blast/internal/world/block"
)

// DirtBehavior реализует поведение блока земли
type DirtBehavior struct{}

// ID возвращает идентификатор блока
func (b *DirtBehavior) ID() block.BlockID {
	return block.DirtBlockID
}

// Name возвращает имя блока
func (b *DirtBehavior) Name() string {
	return "Dirt"
}

// Properties возвращает свойства земли
func (b *DirtBehavior) Properties() block.Properties {
	return block.Properties{
		Resistance:  0.5,
		Shape:       physics.Full(),
		Solid:       true,
		Destroyable: true,
		Drop:        block.DirtBlockID,
	}
}

// GrassBehavior реализует блок травы. При разрушении выпадает земля.
type GrassBehavior struct{}

func (b *GrassBehavior) ID() block.BlockID {
	return block.GrassBlockID
}

func (b *GrassBehavior) Name() string {
	return "Grass"
}

func (b *GrassBehavior) Properties() block.Properties {
	return block.Properties{
		Resistance:  0.6,
		Shape:       physics.Full(),
		Solid:       true,
		Destroyable: true,
		Drop:        block.DirtBlockID,
	}
}

// SandBehavior реализует блок песка
type SandBehavior struct{}

func (b *SandBehavior) ID() block.BlockID {
	return block.SandBlockID
}

func (b *SandBehavior) Name() string {
	return "Sand"
}

func (b *SandBehavior) Properties() block.Properties {
	return block.Properties{
		Resistance:  0.5,
		Shape:       physics.Full(),
		Solid:       true,
		Destroyable: true,
		Drop:        block.SandBlockID,
	}
}
