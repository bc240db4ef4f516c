package entity

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl64"
)

// EntityManager управляет всеми сущностями мира и поддерживает их индекс
type EntityManager struct {
	entities     map[uint64]*Entity
	index        *SpatialIndex
	nextEntityID uint64
	mu           sync.RWMutex
}

// NewEntityManager создаёт новый менеджер сущностей
func NewEntityManager() *EntityManager {
	return &EntityManager{
		entities: make(map[uint64]*Entity),
		index:    NewSpatialIndex(16),
	}
}

// Index возвращает пространственный индекс
func (em *EntityManager) Index() *SpatialIndex {
	return em.index
}

// Spawn создаёт новую сущность в мире
func (em *EntityManager) Spawn(entityType EntityType, position mgl64.Vec3) *Entity {
	id := atomic.AddUint64(&em.nextEntityID, 1)
	e := NewEntity(id, entityType, position)
	em.Add(e)
	return e
}

// Add регистрирует заранее построенную сущность. Нулевой ID заменяется новым.
func (em *EntityManager) Add(e *Entity) {
	if e.ID == 0 {
		e.ID = atomic.AddUint64(&em.nextEntityID, 1)
	}
	em.mu.Lock()
	em.entities[e.ID] = e
	em.mu.Unlock()
	em.index.Insert(e)
}

// Move перемещает сущность и обновляет индекс
func (em *EntityManager) Move(id uint64, position mgl64.Vec3) error {
	e, ok := em.Get(id)
	if !ok {
		return fmt.Errorf("entity %d not found", id)
	}
	e.Position = position
	em.index.Update(e)
	return nil
}

// Mount сажает сущность на транспорт. nil снимает с транспорта.
func (em *EntityManager) Mount(passengerID uint64, vehicle *Entity) error {
	e, ok := em.Get(passengerID)
	if !ok {
		return fmt.Errorf("entity %d not found", passengerID)
	}
	if vehicle != nil && (vehicle == e || vehicle.RootVehicle() == e) {
		return fmt.Errorf("entity %d cannot ride itself", passengerID)
	}
	e.Vehicle = vehicle
	return nil
}

// Despawn удаляет сущность из мира
func (em *EntityManager) Despawn(id uint64) bool {
	em.mu.Lock()
	e, exists := em.entities[id]
	if exists {
		delete(em.entities, id)
	}
	em.mu.Unlock()
	if !exists {
		return false
	}
	e.Removed = true
	em.index.Remove(id)
	return true
}

// Get возвращает сущность по ID
func (em *EntityManager) Get(id uint64) (*Entity, bool) {
	em.mu.RLock()
	defer em.mu.RUnlock()
	e, ok := em.entities[id]
	return e, ok
}

// All возвращает все сущности, упорядоченные по ID
func (em *EntityManager) All() []*Entity {
	em.mu.RLock()
	out := make([]*Entity, 0, len(em.entities))
	for _, e := range em.entities {
		out = append(out, e)
	}
	em.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Count возвращает количество сущностей
func (em *EntityManager) Count() int {
	em.mu.RLock()
	defer em.mu.RUnlock()
	return len(em.entities)
}
