package collision

import (
	"github.com/annel0/voxel-blast/internal/physics"
	"github.com/annel0/voxel-blast/internal/world/entity"
)

// ChunkPolicy определяет, как запрос обращается с незагруженными чанками.
// Выбирается для каждого вызова отдельно.
type ChunkPolicy uint8

const (
	// UnloadedSolid считает незагруженные клетки полными блоками
	UnloadedSolid ChunkPolicy = iota
	// UnloadedLoad синхронно загружает чанк (только для горутины, владеющей миром)
	UnloadedLoad
	// UnloadedUnknown прерывает запрос с результатом OutcomeUnknown
	UnloadedUnknown
)

// String возвращает имя политики
func (p ChunkPolicy) String() string {
	switch p {
	case UnloadedSolid:
		return "solid"
	case UnloadedLoad:
		return "load"
	case UnloadedUnknown:
		return "unknown"
	default:
		return "invalid"
	}
}

// ParseChunkPolicy разбирает имя политики. Пустая строка даёт UnloadedSolid.
func ParseChunkPolicy(s string) (ChunkPolicy, bool) {
	switch s {
	case "", "solid":
		return UnloadedSolid, true
	case "load":
		return UnloadedLoad, true
	case "unknown":
		return UnloadedUnknown, true
	default:
		return UnloadedSolid, false
	}
}

// Context описывает, для кого выполняется запрос
type Context struct {
	Actor  *entity.Entity // Сущность, исключаемая из проверок; nil для запросов без актора
	Chunks ChunkPolicy
}

// Outcome — результат запроса, который может быть неизвестен из-за незагруженных чанков
type Outcome uint8

const (
	OutcomeNo Outcome = iota
	OutcomeYes
	OutcomeUnknown
)

// String возвращает строковое представление результата
func (o Outcome) String() string {
	switch o {
	case OutcomeNo:
		return "no"
	case OutcomeYes:
		return "yes"
	default:
		return "unknown"
	}
}

// OutcomeOf переводит bool в Outcome
func OutcomeOf(v bool) Outcome {
	if v {
		return OutcomeYes
	}
	return OutcomeNo
}

// EntityIndex — пространственный индекс сущностей
type EntityIndex interface {
	Query(box physics.Box, except *entity.Entity, filter func(*entity.Entity) bool) []*entity.Entity
}
