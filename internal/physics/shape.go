package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/annel0/voxel-blast/internal/vec"
)

// ShapeKind определяет вид формы
type ShapeKind uint8

const (
	ShapeEmpty ShapeKind = iota // Пустая форма (воздух)
	ShapeFull                   // Полный куб одной клетки
	ShapeBoxes                  // Объединение произвольных боксов
)

// Shape — форма столкновения клетки или сущности.
// Форма неизменяема после создания и может разделяться между горутинами.
type Shape struct {
	kind   ShapeKind
	boxes  []Box
	bounds Box
}

var (
	emptyShape = Shape{kind: ShapeEmpty}
	fullShape  = Shape{kind: ShapeFull, boxes: []Box{UnitBox()}, bounds: UnitBox()}
)

// Empty возвращает пустую форму
func Empty() Shape { return emptyShape }

// Full возвращает полный куб [0,1]^3
func Full() Shape { return fullShape }

// FromBox создаёт форму из одного бокса. Вырожденный бокс даёт пустую форму.
func FromBox(b Box) Shape {
	if b.IsEmpty() {
		return emptyShape
	}
	if b == UnitBox() {
		return fullShape
	}
	return Shape{kind: ShapeBoxes, boxes: []Box{b}, bounds: b}
}

// Union объединяет несколько боксов в одну форму, отбрасывая вырожденные
func Union(boxes ...Box) Shape {
	kept := make([]Box, 0, len(boxes))
	for _, b := range boxes {
		if !b.IsEmpty() {
			kept = append(kept, b)
		}
	}
	switch len(kept) {
	case 0:
		return emptyShape
	case 1:
		return FromBox(kept[0])
	}
	bounds := kept[0]
	for _, b := range kept[1:] {
		bounds = bounds.Union(b)
	}
	return Shape{kind: ShapeBoxes, boxes: kept, bounds: bounds}
}

// Kind возвращает вид формы
func (s Shape) Kind() ShapeKind { return s.kind }

// IsEmpty проверяет, пуста ли форма
func (s Shape) IsEmpty() bool { return s.kind == ShapeEmpty }

// IsFull проверяет, является ли форма полным кубом клетки
func (s Shape) IsFull() bool { return s.kind == ShapeFull }

// Bounds возвращает описывающий бокс формы
func (s Shape) Bounds() Box { return s.bounds }

// Boxes возвращает боксы формы. Срез нельзя изменять.
func (s Shape) Boxes() []Box { return s.boxes }

// SingleBox возвращает true, если форма состоит ровно из одного бокса
func (s Shape) SingleBox() bool { return len(s.boxes) == 1 }

// Move сдвигает форму. Сдвинутый полный куб становится формой из одного бокса.
func (s Shape) Move(dx, dy, dz float64) Shape {
	switch s.kind {
	case ShapeEmpty:
		return s
	case ShapeFull:
		b := UnitBox().Move(dx, dy, dz)
		return Shape{kind: ShapeBoxes, boxes: []Box{b}, bounds: b}
	default:
		moved := make([]Box, len(s.boxes))
		for i, b := range s.boxes {
			moved[i] = b.Move(dx, dy, dz)
		}
		return Shape{kind: ShapeBoxes, boxes: moved, bounds: s.bounds.Move(dx, dy, dz)}
	}
}

// MoveTo сдвигает форму в мировые координаты клетки
func (s Shape) MoveTo(cell vec.Vec3) Shape {
	return s.Move(float64(cell.X), float64(cell.Y), float64(cell.Z))
}

// Intersects проверяет пересечение формы с боксом
func (s Shape) Intersects(b Box) bool {
	switch s.kind {
	case ShapeEmpty:
		return false
	case ShapeFull:
		return fullShape.bounds.Intersects(b)
	case ShapeBoxes:
		if !s.bounds.Intersects(b) {
			return false
		}
		for _, sb := range s.boxes {
			if sb.Intersects(b) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// Contains проверяет, лежит ли точка внутри формы
func (s Shape) Contains(p mgl64.Vec3) bool {
	for _, b := range s.boxes {
		if b.Contains(p) {
			return true
		}
	}
	return false
}

// Hit описывает попадание луча в форму
type Hit struct {
	Point  mgl64.Vec3
	Face   Face
	Cell   vec.Vec3
	Inside bool // Луч начался внутри формы
}

// Clip пересекает отрезок from→to с формой, расположенной в клетке cell.
// Координаты отрезка мировые, форма задана в локальных координатах клетки.
func (s Shape) Clip(from, to mgl64.Vec3, cell vec.Vec3) (Hit, bool) {
	if s.kind == ShapeEmpty {
		return Hit{}, false
	}
	d := to.Sub(from)
	if d.Dot(d) < Epsilon {
		return Hit{}, false
	}

	origin := cell.Vec()
	localFrom := from.Sub(origin)
	localTo := to.Sub(origin)

	probe := localFrom.Add(d.Mul(0.001))
	if s.Contains(probe) {
		return Hit{
			Point:  probe.Add(origin),
			Face:   FaceFromVector(d.Mul(-1)),
			Cell:   cell,
			Inside: true,
		}, true
	}

	best := math.Inf(1)
	var bestFace Face
	for _, b := range s.boxes {
		t, face, ok := b.Clip(localFrom, localTo)
		if ok && t < best {
			best, bestFace = t, face
		}
	}
	if math.IsInf(best, 1) {
		return Hit{}, false
	}
	return Hit{
		Point: from.Add(d.Mul(best)),
		Face:  bestFace,
		Cell:  cell,
	}, true
}

// CheckBox проверяет бокс на выход за поддерживаемые границы мира
func CheckBox(b Box) error {
	if err := vec.CheckPoint(b.Min); err != nil {
		return err
	}
	return vec.CheckPoint(b.Max)
}
