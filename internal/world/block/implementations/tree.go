package implementations

import (
	"github.com/annel0/voxel-blast/internal/physics"
	"github.com/annel0/voxel-blast/internal/world/block"
)

// LogBehavior реализует ствол дерева
type LogBehavior struct{}

// ID возвращает идентификатор блока
func (b *LogBehavior) ID() block.BlockID {
	return block.LogBlockID
}

// Name возвращает имя блока
func (b *LogBehavior) Name() string {
	return "Log"
}

// Properties возвращает свойства ствола
func (b *LogBehavior) Properties() block.Properties {
	return block.Properties{
		Resistance:  2,
		Shape:       physics.Full(),
		Solid:       true,
		Destroyable: true,
		Drop:        block.LogBlockID,
	}
}

// LeavesBehavior реализует листву. Форма полная, но отдельные сущности
// могут проходить сквозь неё.
type LeavesBehavior struct{}

// ID возвращает идентификатор блока
func (b *LeavesBehavior) ID() block.BlockID {
	return block.LeavesBlockID
}

// Name возвращает имя блока
func (b *LeavesBehavior) Name() string {
	return "Leaves"
}

// Properties возвращает свойства листвы
func (b *LeavesBehavior) Properties() block.Properties {
	return block.Properties{
		Resistance:  0.2,
		Shape:       physics.Full(),
		Destroyable: true,
		LeafLike:    true,
	}
}
