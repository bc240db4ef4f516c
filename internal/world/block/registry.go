package block

import "sync"

var (
	registryMu sync.RWMutex
	registry   = make(map[BlockID]BlockBehavior)
)

// Register добавляет поведение блока в регистр
func Register(id BlockID, behavior BlockBehavior) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[id] = behavior
}

// Get возвращает поведение для указанного ID
func Get(id BlockID) (BlockBehavior, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	behavior, exists := registry[id]
	return behavior, exists
}

// IsValidBlockID проверяет, является ли ID допустимым идентификатором блока
func IsValidBlockID(id BlockID) bool {
	_, exists := Get(id)
	return exists
}

// PropertiesOf возвращает свойства блока. Незарегистрированный ID считается
// неразрушимым полным блоком, чтобы неизвестные данные не превращались в пустоту.
func PropertiesOf(id BlockID) Properties {
	if behavior, ok := Get(id); ok {
		return behavior.Properties()
	}
	return unknownProperties
}

// All возвращает копию регистра
func All() map[BlockID]BlockBehavior {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make(map[BlockID]BlockBehavior, len(registry))
	for id, b := range registry {
		out[id] = b
	}
	return out
}

// BlockID представляет идентификатор блока
type BlockID uint16

// Константы ID блоков
const (
	// Базовые типы блоков
	AirBlockID   BlockID = iota // 0
	StoneBlockID                // 1
	GrassBlockID                // 2
	WaterBlockID                // 3
	SandBlockID                 // 4
	DirtBlockID                 // 5

	// Растительность (начиная с 100)
	LogBlockID    BlockID = 100 // Ствол дерева
	LeavesBlockID BlockID = 101 // Листва, сквозь неё могут проходить некоторые сущности
	CactusBlockID BlockID = 102 // Кактус, форма уже клетки

	// Постройки (начиная с 200)
	SlabBlockID  BlockID = 200 // Нижняя плита
	FenceBlockID BlockID = 201 // Забор, форма выше клетки

	// Специальные блоки (начиная с 1000)
	BedrockBlockID  BlockID = 1000 // Коренная порода
	ObsidianBlockID BlockID = 1001 // Обсидиан
	FireBlockID     BlockID = 1002 // Огонь
)

// IsAir проверяет, является ли блок воздухом
func (id BlockID) IsAir() bool {
	return id == AirBlockID
}
