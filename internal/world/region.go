package world

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/annel0/voxel-blast/internal/logging"
	"github.com/annel0/voxel-blast/internal/world/entity"
)

// ErrRegionStopped возвращается при попытке выполнить задачу в остановленном регионе
var ErrRegionStopped = errors.New("region stopped")

// DefaultTickInterval — длительность тика по умолчанию (20 тиков в секунду)
const DefaultTickInterval = 50 * time.Millisecond

type regionTask struct {
	ctx  context.Context
	fn   func() error
	done chan error
}

// Region владеет миром и его сущностями. Все изменения и запросы выполняются
// последовательно в одной горутине, поэтому движку столкновений не нужны блокировки.
type Region struct {
	world    *World
	entities *entity.EntityManager

	tasks        chan regionTask
	tickInterval time.Duration
	tick         atomic.Uint64
	onTick       []func(tick uint64)
	hooksMu      sync.Mutex
	stopped      chan struct{}
}

// NewRegion создаёт регион. Горутина запускается методом Run.
func NewRegion(world *World, entities *entity.EntityManager, tickInterval time.Duration) *Region {
	if tickInterval <= 0 {
		tickInterval = DefaultTickInterval
	}
	return &Region{
		world:        world,
		entities:     entities,
		tasks:        make(chan regionTask, 64),
		tickInterval: tickInterval,
		stopped:      make(chan struct{}),
	}
}

// World возвращает мир региона. Использовать только внутри Do.
func (r *Region) World() *World { return r.world }

// Entities возвращает менеджер сущностей региона. Использовать только внутри Do.
func (r *Region) Entities() *entity.EntityManager { return r.entities }

// Tick возвращает номер текущего тика
func (r *Region) Tick() uint64 { return r.tick.Load() }

// OnTick регистрирует обработчик, вызываемый в начале каждого тика
// в горутине региона. Используется для сброса потиковых кешей.
func (r *Region) OnTick(fn func(tick uint64)) {
	r.hooksMu.Lock()
	defer r.hooksMu.Unlock()
	r.onTick = append(r.onTick, fn)
}

// Run обрабатывает задачи и тики до отмены контекста
func (r *Region) Run(ctx context.Context) {
	ticker := time.NewTicker(r.tickInterval)
	defer ticker.Stop()
	defer close(r.stopped)

	logging.Debug("Регион мира %s запущен, тик %v", r.world.ID(), r.tickInterval)

	for {
		select {
		case <-ctx.Done():
			r.drain()
			logging.Debug("Регион мира %s остановлен на тике %d", r.world.ID(), r.Tick())
			return
		case <-ticker.C:
			r.advance()
		case task := <-r.tasks:
			// Вызывающий уже не ждёт результата, задачу не выполняем
			if err := task.ctx.Err(); err != nil {
				task.done <- err
				continue
			}
			task.done <- task.fn()
		}
	}
}

// Do выполняет fn в горутине региона и ждёт результата.
// Если ctx отменён до начала выполнения, fn не вызывается.
func (r *Region) Do(ctx context.Context, fn func() error) error {
	select {
	case <-r.stopped:
		return ErrRegionStopped
	default:
	}

	task := regionTask{ctx: ctx, fn: fn, done: make(chan error, 1)}
	select {
	case r.tasks <- task:
	case <-r.stopped:
		return ErrRegionStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-task.done:
		return err
	case <-r.stopped:
		return ErrRegionStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Region) advance() {
	tick := r.tick.Add(1)
	r.hooksMu.Lock()
	hooks := append([]func(uint64){}, r.onTick...)
	r.hooksMu.Unlock()
	for _, fn := range hooks {
		fn(tick)
	}
}

// drain отклоняет задачи, поставленные в очередь до остановки
func (r *Region) drain() {
	for {
		select {
		case task := <-r.tasks:
			task.done <- ErrRegionStopped
		default:
			return
		}
	}
}
