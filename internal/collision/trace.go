package collision

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/annel0/voxel-blast/internal/physics"
	"github.com/annel0/voxel-blast/internal/vec"
)

// traceSlack — запас шагов сверх манхэттенского расстояния между клетками концов
const traceSlack = 4

func frac(v float64) float64 {
	return v - math.Floor(v)
}

// Trace проходит клетки отрезка from→to в порядке удаления от from (DDA).
// visit вызывается для каждой клетки; true останавливает обход, и Trace
// возвращает эту клетку и true. Оба конца слегка отодвигаются друг от друга,
// чтобы не попадать точно на границу клетки.
func Trace(from, to mgl64.Vec3, visit func(cell vec.Vec3) bool) (vec.Vec3, bool) {
	adj := from.Sub(to).Mul(physics.Epsilon)
	if adj[0] == 0 && adj[1] == 0 && adj[2] == 0 {
		return vec.Vec3{}, false
	}
	fromAdj := from.Add(adj)
	toAdj := to.Sub(adj)

	curr := vec.Floor(fromAdj)
	end := vec.Floor(toAdj)
	diff := toAdj.Sub(fromAdj)

	var step [3]int
	var normDiff, normCurr [3]float64
	for axis := 0; axis < 3; axis++ {
		sign := 0.0
		switch {
		case diff[axis] > 0:
			sign = 1
		case diff[axis] < 0:
			sign = -1
		}
		step[axis] = int(sign)
		if diff[axis] == 0 {
			// По этой оси отрезок не движется
			normDiff[axis] = math.Inf(1)
			normCurr[axis] = math.Inf(1)
			continue
		}
		normDiff[axis] = sign / diff[axis]
		f := frac(fromAdj[axis])
		if diff[axis] > 0 {
			normCurr[axis] = normDiff[axis] * (1 - f)
		} else {
			normCurr[axis] = normDiff[axis] * f
		}
	}

	limit := abs(end.X-curr.X) + abs(end.Y-curr.Y) + abs(end.Z-curr.Z) + traceSlack

	for steps := 0; steps <= limit; steps++ {
		if visit(curr) {
			return curr, true
		}
		if normCurr[0] > 1 && normCurr[1] > 1 && normCurr[2] > 1 {
			return curr, false
		}

		// Шагаем по оси с наименьшим накопленным расстоянием
		if normCurr[0] < normCurr[1] {
			if normCurr[0] < normCurr[2] {
				curr.X += step[0]
				normCurr[0] += normDiff[0]
			} else {
				curr.Z += step[2]
				normCurr[2] += normDiff[2]
			}
		} else if normCurr[1] < normCurr[2] {
			curr.Y += step[1]
			normCurr[1] += normDiff[1]
		} else {
			curr.Z += step[2]
			normCurr[2] += normDiff[2]
		}
	}
	return curr, false
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
