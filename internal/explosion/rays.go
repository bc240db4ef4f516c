package explosion

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// RayStep — длина одного шага луча разрушения
const RayStep = 0.3

// rayLattice — размер решётки, с поверхности которой берутся направления
const rayLattice = 16

var cachedRays = buildRays()

// buildRays строит направления по поверхности куба 16×16×16 над [-1,1]³,
// нормализованные и умноженные на RayStep
func buildRays() []mgl64.Vec3 {
	const last = rayLattice - 1
	rays := make([]mgl64.Vec3, 0, 1352)
	for x := 0; x <= last; x++ {
		for y := 0; y <= last; y++ {
			for z := 0; z <= last; z++ {
				if x != 0 && x != last && y != 0 && y != last && z != 0 && z != last {
					continue
				}
				dir := mgl64.Vec3{
					float64(x)/last*2 - 1,
					float64(y)/last*2 - 1,
					float64(z)/last*2 - 1,
				}
				mag := math.Sqrt(dir.Dot(dir))
				rays = append(rays, dir.Mul(RayStep/mag))
			}
		}
	}
	return rays
}

// Rays возвращает копию направлений лучей разрушения
func Rays() []mgl64.Vec3 {
	out := make([]mgl64.Vec3, len(cachedRays))
	copy(out, cachedRays)
	return out
}
