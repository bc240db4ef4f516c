package vec

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Границы поддерживаемого мира. Всё, что выходит за них, не может быть
// упаковано в ключ клетки.
const (
	MaxHorizontal = 30_000_000
	MinVertical   = -2048
	MaxVertical   = 2047

	packedXZBits = 26
	packedYBits  = 12
	packedXZMask = 1<<packedXZBits - 1
	packedYMask  = 1<<packedYBits - 1
)

// ErrCoordinateOverflow возвращается, когда координата выходит за границы мира
var ErrCoordinateOverflow = errors.New("coordinate outside supported world bound")

// Vec3 представляет целочисленные координаты клетки мира
type Vec3 struct {
	X int
	Y int
	Z int
}

// Floor возвращает клетку, содержащую точку
func Floor(p mgl64.Vec3) Vec3 {
	return Vec3{
		X: int(math.Floor(p[0])),
		Y: int(math.Floor(p[1])),
		Z: int(math.Floor(p[2])),
	}
}

// Chunk возвращает координаты чанка клетки
func (v Vec3) Chunk() ChunkPos {
	return ChunkPosOf(v.X, v.Z)
}

// Add складывает два вектора
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{
		X: v.X + other.X,
		Y: v.Y + other.Y,
		Z: v.Z + other.Z,
	}
}

// Below возвращает клетку под текущей
func (v Vec3) Below() Vec3 {
	return Vec3{X: v.X, Y: v.Y - 1, Z: v.Z}
}

// Vec возвращает минимальный угол клетки как точку
func (v Vec3) Vec() mgl64.Vec3 {
	return mgl64.Vec3{float64(v.X), float64(v.Y), float64(v.Z)}
}

// Center возвращает центр клетки
func (v Vec3) Center() mgl64.Vec3 {
	return mgl64.Vec3{float64(v.X) + 0.5, float64(v.Y) + 0.5, float64(v.Z) + 0.5}
}

// DistToCenterSqr возвращает квадрат расстояния от центра клетки до точки
func (v Vec3) DistToCenterSqr(p mgl64.Vec3) float64 {
	d := v.Center().Sub(p)
	return d.Dot(d)
}

// Less задаёт порядок клеток: сначала Y, затем Z, затем X
func (v Vec3) Less(other Vec3) bool {
	if v.Y != other.Y {
		return v.Y < other.Y
	}
	if v.Z != other.Z {
		return v.Z < other.Z
	}
	return v.X < other.X
}

// Key упаковывает клетку в int64: 26 бит X, 26 бит Z, 12 бит Y
func (v Vec3) Key() int64 {
	return (int64(v.X)&packedXZMask)<<(packedXZBits+packedYBits) |
		(int64(v.Z)&packedXZMask)<<packedYBits |
		int64(v.Y)&packedYMask
}

// InBounds проверяет, что клетка лежит внутри поддерживаемых границ
func (v Vec3) InBounds() bool {
	return v.X >= -MaxHorizontal && v.X <= MaxHorizontal &&
		v.Z >= -MaxHorizontal && v.Z <= MaxHorizontal &&
		v.Y >= MinVertical && v.Y <= MaxVertical
}

func (v Vec3) String() string {
	return fmt.Sprintf("(%d, %d, %d)", v.X, v.Y, v.Z)
}

// CheckPoint проверяет точку на выход за границы мира. NaN в любой оси
// считается выходом за границы.
func CheckPoint(p mgl64.Vec3) error {
	if math.IsNaN(p[0]) || math.IsNaN(p[1]) || math.IsNaN(p[2]) ||
		math.Abs(p[0]) > MaxHorizontal+1 || math.Abs(p[2]) > MaxHorizontal+1 ||
		p[1] < MinVertical-1 || p[1] > MaxVertical+1 {
		return fmt.Errorf("%w: %.2f %.2f %.2f", ErrCoordinateOverflow, p[0], p[1], p[2])
	}
	return nil
}
