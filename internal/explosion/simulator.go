package explosion

import (
	"context"
	"fmt"
	"slices"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/annel0/voxel-blast/internal/collision"
	"github.com/annel0/voxel-blast/internal/eventbus"
	"github.com/annel0/voxel-blast/internal/logging"
	"github.com/annel0/voxel-blast/internal/vec"
)

// DefaultFireChance — огонь появляется в одной из трёх подходящих клеток
const DefaultFireChance = 3

// EventCommitted — тип события шины о применённом взрыве
const EventCommitted = "ExplosionCommitted"

// Config — настраиваемые константы взрыва
type Config struct {
	// StepDecay дополнительно вычитается из силы луча на каждом шаге.
	// 0 оставляет только цену клетки (для воздуха 0.09).
	StepDecay float64
	// FireChance: поджигается одна из FireChance клеток
	FireChance int
	// OptimizeExplosions включает кэш открытости в пределах тика
	OptimizeExplosions bool
}

// DefaultConfig возвращает конфигурацию по умолчанию
func DefaultConfig() Config {
	return Config{FireChance: DefaultFireChance}
}

// CommittedEvent — полезная нагрузка события EventCommitted
type CommittedEvent struct {
	ID        string     `msgpack:"id"`
	World     string     `msgpack:"world"`
	Origin    [3]float64 `msgpack:"origin"`
	Radius    float64    `msgpack:"radius"`
	Destroyed int        `msgpack:"destroyed"`
	Removed   int        `msgpack:"removed"`
	Ignited   int        `msgpack:"ignited"`
	Entities  []uint64   `msgpack:"entities"`
}

// Simulator запускает взрывы над одним миром. Все вызовы должны идти
// из горутины, владеющей регионом мира.
type Simulator struct {
	grid     MutableGrid
	entities collision.EntityIndex
	cfg      Config
	density  *DensityCache
	metrics  *Metrics
	bus      eventbus.EventBus
	tracer   trace.Tracer
}

// NewSimulator создаёт симулятор
func NewSimulator(grid MutableGrid, entities collision.EntityIndex, cfg Config) *Simulator {
	if cfg.FireChance <= 0 {
		cfg.FireChance = DefaultFireChance
	}
	return &Simulator{
		grid:     grid,
		entities: entities,
		cfg:      cfg,
		density:  NewDensityCache(),
		tracer:   otel.Tracer("voxel-blast/explosion"),
	}
}

// SetMetrics подключает метрики
func (s *Simulator) SetMetrics(m *Metrics) { s.metrics = m }

// SetEventBus подключает шину, в которую публикуются применённые взрывы
func (s *Simulator) SetEventBus(bus eventbus.EventBus) { s.bus = bus }

// Density возвращает кэш открытости. Его нужно сбрасывать каждый тик.
func (s *Simulator) Density() *DensityCache { return s.density }

// Config возвращает конфигурацию
func (s *Simulator) Config() Config { return s.cfg }

// New создаёт взрыв без запуска фаз
func (s *Simulator) New(req Request) (*Explosion, error) {
	if err := vec.CheckPoint(req.Origin); err != nil {
		return nil, fmt.Errorf("explosion origin: %w", err)
	}
	return newExplosion(s.grid, s.entities, s.cfg, s.density, req), nil
}

// Explode выполняет фазы разрушения и урона, не меняя мир
func (s *Simulator) Explode(ctx context.Context, req Request) (*Explosion, error) {
	_, span := s.tracer.Start(ctx, "explosion.Explode")
	defer span.End()

	x, err := s.New(req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(
		attribute.String("explosion.id", x.ID.String()),
		attribute.Float64("explosion.power", req.Power),
		attribute.String("explosion.interaction", req.Interaction.String()),
	)

	if err := x.ComputeDestruction(); err != nil {
		return nil, err
	}
	if err := x.ComputeDamage(); err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.Int("explosion.cells", len(x.destroyed)),
		attribute.Int("explosion.entities", len(x.knockback)),
	)
	return x, nil
}

// Finalize применяет последствия взрыва и публикует событие
func (s *Simulator) Finalize(ctx context.Context, x *Explosion) (*Result, error) {
	ctx, span := s.tracer.Start(ctx, "explosion.Finalize")
	defer span.End()

	res, err := x.Finalize()
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(
		attribute.Int("explosion.removed", res.Removed),
		attribute.Bool("explosion.cancelled", res.Cancelled),
	)

	if !res.NoOp && !res.Cancelled {
		s.publish(ctx, res)
	}
	return res, nil
}

// Run выполняет взрыв целиком: разрушение, урон и применение
func (s *Simulator) Run(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	x, err := s.Explode(ctx, req)
	if err != nil {
		return nil, err
	}
	res, err := s.Finalize(ctx, x)
	if err != nil {
		return nil, err
	}
	elapsed := time.Since(start)
	s.metrics.observe(res, elapsed.Seconds())

	logging.Debug("Взрыв %s в %.1f %.1f %.1f: r=%.2f клеток=%d удалено=%d сущностей=%d за %v",
		res.ID, req.Origin[0], req.Origin[1], req.Origin[2], res.Radius,
		len(res.Destroyed), res.Removed, len(res.Knockback), elapsed)
	return res, nil
}

func (s *Simulator) publish(ctx context.Context, res *Result) {
	if s.bus == nil {
		return
	}
	ev := CommittedEvent{
		ID:        res.ID.String(),
		World:     res.World,
		Origin:    [3]float64{res.Origin[0], res.Origin[1], res.Origin[2]},
		Radius:    res.Radius,
		Destroyed: len(res.Destroyed),
		Removed:   res.Removed,
		Ignited:   len(res.Ignited),
	}
	for id := range res.Knockback {
		ev.Entities = append(ev.Entities, id)
	}
	slices.Sort(ev.Entities)

	env, err := eventbus.NewEnvelope("explosion", EventCommitted, ev)
	if err != nil {
		logging.Warn("Не удалось упаковать событие взрыва %s: %v", res.ID, err)
		return
	}
	env.CorrelationID = res.ID.String()
	if err := s.bus.Publish(ctx, env); err != nil {
		logging.Warn("Не удалось опубликовать событие взрыва %s: %v", res.ID, err)
	}
}
