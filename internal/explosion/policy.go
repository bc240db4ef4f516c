package explosion

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/annel0/voxel-blast/internal/vec"
	"github.com/annel0/voxel-blast/internal/world/block"
)

// Effects — последствия взрыва, которые ещё не применены к миру
type Effects struct {
	Cells     []vec.Vec3            // Клетки, которые будут разрушены
	Knockback map[uint64]mgl64.Vec3 // Отдача по ID сущности
	Damage    map[uint64]float64    // Урон по ID сущности
	Yield     float64               // Вероятность выпадения дропа с клетки
}

// Policy — внешние правила игры, которые взрыв спрашивает, но не реализует
type Policy interface {
	// ShouldBlockExplode решает, разрушается ли разрушаемая клетка.
	// Вызывается не более одного раза на клетку за взрыв, результат не должен зависеть от power.
	ShouldBlockExplode(cell vec.Vec3, id block.BlockID, power float64) bool
	// ApproveEffects может изменить последствия; false отменяет их целиком
	ApproveEffects(fx *Effects) bool
	// AllowIgnite разрешает поджечь клетку
	AllowIgnite(cell vec.Vec3) bool
}

// DefaultPolicy разрешает всё
type DefaultPolicy struct{}

func (DefaultPolicy) ShouldBlockExplode(vec.Vec3, block.BlockID, float64) bool { return true }
func (DefaultPolicy) ApproveEffects(*Effects) bool                             { return true }
func (DefaultPolicy) AllowIgnite(vec.Vec3) bool                                { return true }
