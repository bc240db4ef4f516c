package implementations

import (
	"github.com/annel0/voxel-blast/internal/physics"
	"github.com/annel0/voxel-blast/internal/world/block"
)

// cactusInset — отступ формы кактуса от краёв клетки
const cactusInset = 1.0 / 16.0

var cactusShape = physics.FromBox(physics.NewBox(cactusInset, 0, cactusInset, 1-cactusInset, 1-cactusInset, 1-cactusInset))

// CactusBehavior реализует кактус: форма чуть меньше клетки
type CactusBehavior struct{}

// ID возвращает идентификатор блока
func (b *CactusBehavior) ID() block.BlockID {
	return block.CactusBlockID
}

// Name возвращает имя блока
func (b *CactusBehavior) Name() string {
	return "Cactus"
}

// Properties возвращает свойства кактуса
func (b *CactusBehavior) Properties() block.Properties {
	return block.Properties{
		Resistance:  0.4,
		Shape:       cactusShape,
		Destroyable: true,
		Drop:        block.CactusBlockID,
	}
}
