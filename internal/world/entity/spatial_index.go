package entity

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/annel0/voxel-blast/internal/physics"
)

// SpatialIndex представляет пространственный индекс для быстрого поиска сущностей.
// Сетка хеширует только X/Z, высоту проверяет уже сам запрос.
type SpatialIndex struct {
	cellSize float64
	cells    map[cellKey]map[uint64]*indexedEntity
	entities map[uint64]*indexedEntity
	mu       sync.RWMutex
}

// cellKey представляет ключ ячейки в пространственной сетке
type cellKey struct {
	x, z int
}

// indexedEntity представляет индексированную сущность
type indexedEntity struct {
	entity *Entity
	cells  []cellKey
}

// NewSpatialIndex создаёт новый пространственный индекс
func NewSpatialIndex(cellSize float64) *SpatialIndex {
	if cellSize <= 0 {
		cellSize = 16.0 // Размер чанка по умолчанию
	}

	return &SpatialIndex{
		cellSize: cellSize,
		cells:    make(map[cellKey]map[uint64]*indexedEntity),
		entities: make(map[uint64]*indexedEntity),
	}
}

// Insert добавляет сущность в индекс
func (si *SpatialIndex) Insert(e *Entity) {
	si.mu.Lock()
	defer si.mu.Unlock()

	if old, exists := si.entities[e.ID]; exists {
		si.unlink(old)
	}
	indexed := &indexedEntity{entity: e, cells: si.cellsForBox(e.Box())}
	for _, key := range indexed.cells {
		cell, ok := si.cells[key]
		if !ok {
			cell = make(map[uint64]*indexedEntity)
			si.cells[key] = cell
		}
		cell[e.ID] = indexed
	}
	si.entities[e.ID] = indexed
}

// Update обновляет позицию сущности в индексе
func (si *SpatialIndex) Update(e *Entity) {
	si.Insert(e)
}

// Remove удаляет сущность из индекса
func (si *SpatialIndex) Remove(entityID uint64) {
	si.mu.Lock()
	defer si.mu.Unlock()

	indexed, exists := si.entities[entityID]
	if !exists {
		return
	}
	si.unlink(indexed)
	delete(si.entities, entityID)
}

// Query возвращает сущности, чей хитбокс пересекает box.
// except исключается из результата, filter (если задан) отбрасывает лишние.
// Результат упорядочен по ID.
func (si *SpatialIndex) Query(box physics.Box, except *Entity, filter func(*Entity) bool) []*Entity {
	if box.IsEmpty() {
		return nil
	}

	si.mu.RLock()
	seen := make(map[uint64]struct{})
	var result []*Entity
	for _, key := range si.cellsForBox(box) {
		for id, indexed := range si.cells[key] {
			if _, wasSeen := seen[id]; wasSeen {
				continue
			}
			seen[id] = struct{}{}
			e := indexed.entity
			if e == except {
				continue
			}
			if !e.Box().Intersects(box) {
				continue
			}
			if filter != nil && !filter(e) {
				continue
			}
			result = append(result, e)
		}
	}
	si.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// GetEntityCount возвращает количество индексированных сущностей
func (si *SpatialIndex) GetEntityCount() int {
	si.mu.RLock()
	defer si.mu.RUnlock()
	return len(si.entities)
}

// GetStats возвращает статистику индекса
func (si *SpatialIndex) GetStats() string {
	si.mu.RLock()
	defer si.mu.RUnlock()

	maxPerCell := 0
	total := 0
	for _, cell := range si.cells {
		total += len(cell)
		if len(cell) > maxPerCell {
			maxPerCell = len(cell)
		}
	}
	avg := 0.0
	if len(si.cells) > 0 {
		avg = float64(total) / float64(len(si.cells))
	}
	return fmt.Sprintf("SpatialIndex Stats: %d entities, %d cells, avg %.2f entities/cell, max %d entities/cell",
		len(si.entities), len(si.cells), avg, maxPerCell)
}

func (si *SpatialIndex) unlink(indexed *indexedEntity) {
	for _, key := range indexed.cells {
		if cell, ok := si.cells[key]; ok {
			delete(cell, indexed.entity.ID)
			if len(cell) == 0 {
				delete(si.cells, key)
			}
		}
	}
}

// cellsForBox возвращает ключи ячеек, которые пересекаются с боксом
func (si *SpatialIndex) cellsForBox(b physics.Box) []cellKey {
	minCellX := int(math.Floor(b.Min[0] / si.cellSize))
	minCellZ := int(math.Floor(b.Min[2] / si.cellSize))
	maxCellX := int(math.Floor(b.Max[0] / si.cellSize))
	maxCellZ := int(math.Floor(b.Max[2] / si.cellSize))

	cells := make([]cellKey, 0, (maxCellX-minCellX+1)*(maxCellZ-minCellZ+1))
	for x := minCellX; x <= maxCellX; x++ {
		for z := minCellZ; z <= maxCellZ; z++ {
			cells = append(cells, cellKey{x: x, z: z})
		}
	}
	return cells
}
