package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Face определяет грань клетки
type Face uint8

const (
	FaceDown  Face = iota // -Y
	FaceUp                // +Y
	FaceNorth             // -Z
	FaceSouth             // +Z
	FaceWest              // -X
	FaceEast              // +X
)

// String возвращает строковое представление грани
func (f Face) String() string {
	switch f {
	case FaceDown:
		return "down"
	case FaceUp:
		return "up"
	case FaceNorth:
		return "north"
	case FaceSouth:
		return "south"
	case FaceWest:
		return "west"
	case FaceEast:
		return "east"
	default:
		return "unknown"
	}
}

// minFace возвращает грань, обращённую в минус по оси
func minFace(axis int) Face {
	switch axis {
	case 0:
		return FaceWest
	case 1:
		return FaceDown
	default:
		return FaceNorth
	}
}

// maxFace возвращает грань, обращённую в плюс по оси
func maxFace(axis int) Face {
	switch axis {
	case 0:
		return FaceEast
	case 1:
		return FaceUp
	default:
		return FaceSouth
	}
}

// FaceFromVector возвращает грань, ближайшую к направлению вектора
func FaceFromVector(v mgl64.Vec3) Face {
	axis := 0
	for i := 1; i < 3; i++ {
		if math.Abs(v[i]) > math.Abs(v[axis]) {
			axis = i
		}
	}
	if v[axis] < 0 {
		return minFace(axis)
	}
	return maxFace(axis)
}
