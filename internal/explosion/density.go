package explosion

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/annel0/voxel-blast/internal/physics"
)

// densityKey — мир, центр взрыва и хитбокс сущности
type densityKey struct {
	world  string
	origin mgl64.Vec3
	box    physics.Box
}

// DensityCache запоминает долю открытости сущности в пределах одного тика.
// Принадлежит горутине региона и сбрасывается каждый тик.
type DensityCache struct {
	values map[densityKey]float64
	hits   int
}

// NewDensityCache создаёт пустой кэш
func NewDensityCache() *DensityCache {
	return &DensityCache{values: make(map[densityKey]float64)}
}

// Get возвращает сохранённое значение
func (d *DensityCache) Get(worldID string, origin mgl64.Vec3, box physics.Box) (float64, bool) {
	v, ok := d.values[densityKey{worldID, origin, box}]
	if ok {
		d.hits++
	}
	return v, ok
}

// Put сохраняет значение
func (d *DensityCache) Put(worldID string, origin mgl64.Vec3, box physics.Box, exposure float64) {
	d.values[densityKey{worldID, origin, box}] = exposure
}

// Len возвращает число записей
func (d *DensityCache) Len() int {
	return len(d.values)
}

// Hits возвращает число попаданий с последнего сброса
func (d *DensityCache) Hits() int {
	return d.hits
}

// Reset очищает кэш. Вызывается в начале тика региона.
func (d *DensityCache) Reset() {
	clear(d.values)
	d.hits = 0
}
