package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Epsilon — допуск для сравнения границ. Касание граней на расстоянии меньше
// Epsilon пересечением не считается.
const Epsilon = 1.0e-7

// Box представляет выровненный по осям параллелепипед (AABB)
type Box struct {
	Min mgl64.Vec3
	Max mgl64.Vec3
}

// NewBox создаёт бокс, упорядочивая углы по каждой оси
func NewBox(x1, y1, z1, x2, y2, z2 float64) Box {
	return Box{
		Min: mgl64.Vec3{math.Min(x1, x2), math.Min(y1, y2), math.Min(z1, z2)},
		Max: mgl64.Vec3{math.Max(x1, x2), math.Max(y1, y2), math.Max(z1, z2)},
	}
}

// BoxAround возвращает бокс ширины width и высоты height, стоящий на точке feet
func BoxAround(feet mgl64.Vec3, width, height float64) Box {
	hw := width / 2
	return Box{
		Min: mgl64.Vec3{feet[0] - hw, feet[1], feet[2] - hw},
		Max: mgl64.Vec3{feet[0] + hw, feet[1] + height, feet[2] + hw},
	}
}

// UnitBox возвращает бокс единичной клетки [0,1]^3
func UnitBox() Box {
	return Box{Max: mgl64.Vec3{1, 1, 1}}
}

// IsEmpty возвращает true для вырожденного бокса: нулевой объём хотя бы по
// одной оси или NaN в координатах
func (b Box) IsEmpty() bool {
	for i := 0; i < 3; i++ {
		if math.IsNaN(b.Min[i]) || math.IsNaN(b.Max[i]) {
			return true
		}
		if b.Max[i]-b.Min[i] < Epsilon {
			return true
		}
	}
	return false
}

// Intersects проверяет пересечение двух боксов с допуском Epsilon
func (b Box) Intersects(o Box) bool {
	return b.Min[0]-o.Max[0] < -Epsilon && b.Max[0]-o.Min[0] > Epsilon &&
		b.Min[1]-o.Max[1] < -Epsilon && b.Max[1]-o.Min[1] > Epsilon &&
		b.Min[2]-o.Max[2] < -Epsilon && b.Max[2]-o.Min[2] > Epsilon
}

// Move возвращает бокс, сдвинутый на (dx, dy, dz)
func (b Box) Move(dx, dy, dz float64) Box {
	d := mgl64.Vec3{dx, dy, dz}
	return Box{Min: b.Min.Add(d), Max: b.Max.Add(d)}
}

// Inflate расширяет бокс на заданные величины в обе стороны по каждой оси.
// Отрицательные значения сжимают бокс.
func (b Box) Inflate(x, y, z float64) Box {
	d := mgl64.Vec3{x, y, z}
	return Box{Min: b.Min.Sub(d), Max: b.Max.Add(d)}
}

// Deflate сжимает бокс на одинаковую величину по всем осям
func (b Box) Deflate(amount float64) Box {
	return b.Inflate(-amount, -amount, -amount)
}

// Union возвращает наименьший бокс, содержащий оба
func (b Box) Union(o Box) Box {
	return Box{
		Min: mgl64.Vec3{math.Min(b.Min[0], o.Min[0]), math.Min(b.Min[1], o.Min[1]), math.Min(b.Min[2], o.Min[2])},
		Max: mgl64.Vec3{math.Max(b.Max[0], o.Max[0]), math.Max(b.Max[1], o.Max[1]), math.Max(b.Max[2], o.Max[2])},
	}
}

// Contains проверяет, лежит ли точка строго внутри бокса
func (b Box) Contains(p mgl64.Vec3) bool {
	return p[0] > b.Min[0] && p[0] < b.Max[0] &&
		p[1] > b.Min[1] && p[1] < b.Max[1] &&
		p[2] > b.Min[2] && p[2] < b.Max[2]
}

// Center возвращает центр бокса
func (b Box) Center() mgl64.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Size возвращает размеры бокса по осям
func (b Box) Size() mgl64.Vec3 {
	return b.Max.Sub(b.Min)
}

// Clip ищет первую точку входа отрезка from→to в бокс.
// Возвращает параметр t ∈ [0,1] и грань, через которую отрезок входит.
// Отрезок, начинающийся внутри бокса, попаданием не считается.
func (b Box) Clip(from, to mgl64.Vec3) (float64, Face, bool) {
	d := to.Sub(from)
	tEnter, tExit := math.Inf(-1), math.Inf(1)
	face := FaceDown

	for axis := 0; axis < 3; axis++ {
		if d[axis] == 0 {
			if from[axis] <= b.Min[axis] || from[axis] >= b.Max[axis] {
				return 0, face, false
			}
			continue
		}
		inv := 1 / d[axis]
		t1 := (b.Min[axis] - from[axis]) * inv
		t2 := (b.Max[axis] - from[axis]) * inv
		entering := minFace(axis)
		if t1 > t2 {
			t1, t2 = t2, t1
			entering = maxFace(axis)
		}
		if t1 > tEnter {
			tEnter = t1
			face = entering
		}
		if t2 < tExit {
			tExit = t2
		}
	}

	if tEnter > tExit || tEnter < 0 || tEnter > 1 {
		return 0, face, false
	}
	return tEnter, face, true
}
