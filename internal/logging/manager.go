package logging

import (
	"fmt"
	"os"
	"sort"
	"sync"
)

// Журналы компонентов пишутся в отдельные файлы рядом с основным логом.
// Сейчас так живёт журнал событий шины (компонент "events").
const EventsComponent = "events"

// LoggerManager хранит логгеры компонентов
type LoggerManager struct {
	mu      sync.Mutex
	loggers map[string]*Logger
	level   LogLevel
}

// NewLoggerManager создаёт пустой менеджер. level применяется к файлам новых логгеров.
func NewLoggerManager(level LogLevel) *LoggerManager {
	return &LoggerManager{loggers: make(map[string]*Logger), level: level}
}

var (
	componentsMu sync.RWMutex
	components   = NewLoggerManager(TRACE)
)

// Components возвращает глобальный менеджер
func Components() *LoggerManager {
	componentsMu.RLock()
	defer componentsMu.RUnlock()
	return components
}

// SetComponents заменяет глобальный менеджер и возвращает прежний
func SetComponents(lm *LoggerManager) *LoggerManager {
	componentsMu.Lock()
	defer componentsMu.Unlock()
	prev := components
	components = lm
	return prev
}

// Component возвращает логгер компонента из глобального менеджера
func Component(name string) *Logger {
	return Components().Get(name)
}

// Get возвращает логгер компонента, создавая файл при первом обращении.
// Если файл создать не удалось, компонент пишет только в консоль.
func (lm *LoggerManager) Get(name string) *Logger {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	if l, ok := lm.loggers[name]; ok {
		return l
	}
	l, err := NewLogger(name)
	if err != nil {
		Warn("Журнал %s без файла: %v", name, err)
		l = NewConsoleLogger(name, os.Stdout)
	}
	// В консоль журналы компонентов не дублируются, там уже пишет основной логгер
	l.SetLevels(ERROR, lm.level)
	lm.loggers[name] = l
	return l
}

// Register подставляет готовый логгер компонента
func (lm *LoggerManager) Register(name string, l *Logger) {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	lm.loggers[name] = l
}

// Names возвращает имена компонентов в алфавитном порядке
func (lm *LoggerManager) Names() []string {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	names := make([]string, 0, len(lm.loggers))
	for name := range lm.loggers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CloseAll закрывает все логгеры и очищает менеджер
func (lm *LoggerManager) CloseAll() error {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	var lastErr error
	for name, l := range lm.loggers {
		if err := l.Close(); err != nil {
			lastErr = fmt.Errorf("failed to close logger for %s: %w", name, err)
		}
	}
	lm.loggers = make(map[string]*Logger)
	return lastErr
}
