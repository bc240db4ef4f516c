package explosion

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/annel0/voxel-blast/internal/collision"
	"github.com/annel0/voxel-blast/internal/physics"
	"github.com/annel0/voxel-blast/internal/vec"
	"github.com/annel0/voxel-blast/internal/world/entity"
)

// ComputeDamage считает урон и отдачу для сущностей в радиусе 2·r.
// Результаты только запоминаются; чанки не загружаются.
func (x *Explosion) ComputeDamage() error {
	if err := x.advance(StateDestruction, StateDamage); err != nil {
		return err
	}
	if x.NoOp() || x.entities == nil {
		return nil
	}

	origin := x.req.Origin
	reach := x.radius * 2
	lo, hi := cubeAround(origin, reach)

	for _, e := range x.entities.Query(physics.Box{Min: lo, Max: hi}, x.req.Source, nil) {
		if !e.Alive() || e.Spectator || e.IgnoresExplosion {
			continue
		}
		dist := e.Position.Sub(origin).Len() / reach
		if dist > 1 {
			continue
		}

		dir := mgl64.Vec3{
			e.Position[0] - origin[0],
			e.ExplosionY() - origin[1],
			e.Position[2] - origin[2],
		}
		length := dir.Len()
		if length == 0 {
			continue
		}
		dir = dir.Mul(1 / length)

		exposure := x.exposureOf(e)
		impact := (1 - dist) * exposure

		strength := impact
		if e.Living {
			strength = impact * (1 - clamp01(e.KnockbackResistance))
		}

		x.exposure[e.ID] = exposure
		x.damage[e.ID] = math.Floor((impact*impact+impact)/2*7*reach + 1)
		x.knockback[e.ID] = dir.Mul(strength)
		x.affected[e.ID] = e
	}
	return nil
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func (x *Explosion) exposureOf(target *entity.Entity) float64 {
	if !x.cfg.OptimizeExplosions || x.density == nil {
		return x.ExposureFraction(target)
	}
	box := target.Box()
	if v, ok := x.density.Get(x.grid.ID(), x.req.Origin, box); ok {
		return v
	}
	v := x.ExposureFraction(target)
	x.density.Put(x.grid.ID(), x.req.Origin, box, v)
	return v
}

// ExposureFraction возвращает долю точек решётки на хитбоксе сущности,
// из которых виден центр взрыва. Шаг решётки 1/(2·размер+1) по каждой оси.
func (x *Explosion) ExposureFraction(target *entity.Entity) float64 {
	box := target.Box()
	size := box.Size()

	incX := 1 / (size[0]*2 + 1)
	incY := 1 / (size[1]*2 + 1)
	incZ := 1 / (size[2]*2 + 1)
	if !(incX > 0 && incY > 0 && incZ > 0) {
		return 0
	}

	// Решётка центрируется по X и Z
	offX := (1-math.Floor(1/incX)*incX)*0.5 + box.Min[0]
	offY := box.Min[1]
	offZ := (1-math.Floor(1/incZ)*incZ)*0.5 + box.Min[2]

	total, missed := 0, 0
	for dx := 0.0; dx <= 1; dx += incX {
		fromX := math.FMA(dx, size[0], offX)
		for dy := 0.0; dy <= 1; dy += incY {
			fromY := math.FMA(dy, size[1], offY)
			for dz := 0.0; dz <= 1; dz += incZ {
				total++
				from := mgl64.Vec3{fromX, fromY, math.FMA(dz, size[2], offZ)}
				if !x.clipsAnything(from, x.req.Origin, target) {
					missed++
				}
			}
		}
	}
	return float64(missed) / float64(total)
}

// clipsAnything проверяет, пересекает ли отрезок форму какого-либо блока.
// Незагруженные клетки считаются полными, жидкости не учитываются.
func (x *Explosion) clipsAnything(from, to mgl64.Vec3, target *entity.Entity) bool {
	_, hit := collision.Trace(from, to, func(cell vec.Vec3) bool {
		e := x.cache.Get(cell, false)
		shape := e.Shape()
		if shape.IsEmpty() {
			return false
		}
		if !e.Unloaded && e.Props.LeafLike && target != nil && target.PassThroughLeaves {
			return false
		}
		_, clipped := shape.Clip(from, to, cell)
		return clipped
	})
	return hit
}
