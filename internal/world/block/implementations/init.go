package implementations

import "github.com/annel0/voxel-blast/internal/world/block"

// Регистрируем все типы блоков при импорте пакета
func init() {
	// Базовые блоки
	block.Register(block.AirBlockID, &AirBehavior{})
	block.Register(block.StoneBlockID, &StoneBehavior{})
	block.Register(block.GrassBlockID, &GrassBehavior{})
	block.Register(block.WaterBlockID, &WaterBehavior{})
	block.Register(block.SandBlockID, &SandBehavior{})
	block.Register(block.DirtBlockID, &DirtBehavior{})

	// Растительность
	block.Register(block.LogBlockID, &LogBehavior{})
	block.Register(block.LeavesBlockID, &LeavesBehavior{})
	block.Register(block.CactusBlockID, &CactusBehavior{})

	// Постройки
	block.Register(block.SlabBlockID, &SlabBehavior{})
	block.Register(block.FenceBlockID, &FenceBehavior{})

	// Специальные
	block.Register(block.BedrockBlockID, &BedrockBehavior{})
	block.Register(block.ObsidianBlockID, &ObsidianBehavior{})
	block.Register(block.FireBlockID, &FireBehavior{})
}
