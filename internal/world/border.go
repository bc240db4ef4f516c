package world

import (
	"github.com/annel0/voxel-blast/internal/physics"
	"github.com/annel0/voxel-blast/internal/vec"
)

// DefaultBorderRadius — радиус границы по умолчанию, чуть меньше предела координат
const DefaultBorderRadius = vec.MaxHorizontal - 16

// Border представляет квадратную границу игровой области
type Border struct {
	CenterX float64
	CenterZ float64
	Radius  float64 // Половина стороны квадрата
}

// DefaultBorder возвращает границу на весь поддерживаемый мир
func DefaultBorder() Border {
	return Border{Radius: DefaultBorderRadius}
}

// MinX возвращает западную границу
func (b Border) MinX() float64 { return b.CenterX - b.Radius }

// MaxX возвращает восточную границу
func (b Border) MaxX() float64 { return b.CenterX + b.Radius }

// MinZ возвращает северную границу
func (b Border) MinZ() float64 { return b.CenterZ - b.Radius }

// MaxZ возвращает южную границу
func (b Border) MaxZ() float64 { return b.CenterZ + b.Radius }

// Contains проверяет, что бокс целиком внутри границы
func (b Border) Contains(box physics.Box) bool {
	return box.Min[0] >= b.MinX() && box.Max[0] <= b.MaxX() &&
		box.Min[2] >= b.MinZ() && box.Max[2] <= b.MaxZ()
}

// ContainsCell проверяет, что клетка внутри границы
func (b Border) ContainsCell(cell vec.Vec3) bool {
	x, z := float64(cell.X), float64(cell.Z)
	return x >= b.MinX() && x+1 <= b.MaxX() && z >= b.MinZ() && z+1 <= b.MaxZ()
}

// Collides проверяет, пересекает ли бокс область за границей
// (по тому же правилу допуска, что и пересечение боксов)
func (b Border) Collides(box physics.Box) bool {
	return box.Min[0]-b.MinX() < -physics.Epsilon || box.Max[0]-b.MaxX() > physics.Epsilon ||
		box.Min[2]-b.MinZ() < -physics.Epsilon || box.Max[2]-b.MaxZ() > physics.Epsilon
}

// Shape возвращает форму «стены»: четыре плиты снаружи игровой области
func (b Border) Shape() physics.Shape {
	const far = vec.MaxHorizontal * 2
	minY, maxY := float64(vec.MinVertical-1), float64(vec.MaxVertical+2)
	return physics.Union(
		physics.NewBox(-far, minY, -far, b.MinX(), maxY, far),
		physics.NewBox(b.MaxX(), minY, -far, far, maxY, far),
		physics.NewBox(b.MinX(), minY, -far, b.MaxX(), maxY, b.MinZ()),
		physics.NewBox(b.MinX(), minY, b.MaxZ(), b.MaxX(), maxY, far),
	)
}
