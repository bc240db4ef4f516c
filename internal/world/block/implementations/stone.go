package implementations

import (
	"github.com/annel0/voxel-blast/internal/physics"
	"github.com/annel0/voxel-blast/internal/world/block"
)

// StoneBehavior реализует поведение блока камня
type StoneBehavior struct{}

// ID возвращает идентификатор блока
func (b *StoneBehavior) ID() block.BlockID {
	return block.StoneBlockID
}

// Name возвращает имя блока
func (b *StoneBehavior) Name() string {
	return "Stone"
}

// Properties возвращает свойства камня
func (b *StoneBehavior) Properties() block.Properties {
	return block.Properties{
		Resistance:  6,
		Shape:       physics.Full(),
		Solid:       true,
		Destroyable: true,
		Drop:        block.StoneBlockID,
	}
}

// ObsidianBehavior реализует обсидиан: полный блок с огромным сопротивлением
type ObsidianBehavior struct{}

func (b *ObsidianBehavior) ID() block.BlockID {
	return block.ObsidianBlockID
}

func (b *ObsidianBehavior) Name() string {
	return "Obsidian"
}

func (b *ObsidianBehavior) Properties() block.Properties {
	return block.Properties{
		Resistance:  1200,
		Shape:       physics.Full(),
		Solid:       true,
		Destroyable: true,
		Drop:        block.ObsidianBlockID,
	}
}

// BedrockBehavior реализует коренную породу, которую нельзя разрушить
type BedrockBehavior struct{}

func (b *BedrockBehavior) ID() block.BlockID {
	return block.BedrockBlockID
}

func (b *BedrockBehavior) Name() string {
	return "Bedrock"
}

func (b *BedrockBehavior) Properties() block.Properties {
	return block.Properties{
		Resistance: block.IndestructibleResistance,
		Shape:      physics.Full(),
		Solid:      true,
	}
}
