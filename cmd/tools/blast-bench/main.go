// blast-bench запускает взрывы в нескольких независимых мирах параллельно
// и печатает сводку по времени и разрушениям.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"slices"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-gl/mathgl/mgl64"
	"golang.org/x/sync/errgroup"

	"github.com/annel0/voxel-blast/internal/collision"
	"github.com/annel0/voxel-blast/internal/explosion"
	"github.com/annel0/voxel-blast/internal/logging"
	"github.com/annel0/voxel-blast/internal/vec"
	"github.com/annel0/voxel-blast/internal/world"
	_ "github.com/annel0/voxel-blast/internal/world/block/implementations"
	"github.com/annel0/voxel-blast/internal/world/entity"
)

type options struct {
	worlds      int
	explosions  int
	power       float64
	interaction explosion.Interaction
	fire        bool
	optimize    bool
	entities    int
	radius      int
	seed        int64
}

type totals struct {
	explosions atomic.Int64
	destroyed  atomic.Int64
	removed    atomic.Int64
	affected   atomic.Int64
	cached     atomic.Int64
}

func main() {
	var (
		opts        options
		interaction string
	)
	flag.IntVar(&opts.worlds, "worlds", 4, "число независимых миров (горутин)")
	flag.IntVar(&opts.explosions, "n", 100, "взрывов на мир")
	flag.Float64Var(&opts.power, "power", 4, "мощность взрыва")
	flag.StringVar(&interaction, "interaction", "destroy_with_decay", "keep | destroy | destroy_with_decay")
	flag.BoolVar(&opts.fire, "fire", false, "поджигать клетки")
	flag.BoolVar(&opts.optimize, "optimize", false, "кешировать экспозицию сущностей")
	flag.IntVar(&opts.entities, "entities", 32, "сущностей на мир")
	flag.IntVar(&opts.radius, "chunks", 3, "радиус предзагрузки в чанках")
	flag.Int64Var(&opts.seed, "seed", 1, "зерно генератора мира и взрывов")
	flag.Parse()

	var ok bool
	if opts.interaction, ok = explosion.ParseInteraction(interaction); !ok {
		log.Fatalf("❌ Неизвестный режим %q", interaction)
	}

	logging.Default().SetLevels(logging.WARN, logging.WARN)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var sum totals
	latencies := make([][]time.Duration, opts.worlds)

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < opts.worlds; i++ {
		g.Go(func() error {
			lat, err := runWorld(gctx, i, opts, &sum)
			latencies[i] = lat
			return err
		})
	}
	if err := g.Wait(); err != nil {
		log.Fatalf("❌ %v", err)
	}
	elapsed := time.Since(start)

	all := slices.Concat(latencies...)
	slices.Sort(all)
	report(opts, &sum, all, elapsed)
}

// runWorld строит мир и выполняет в нём серию взрывов
func runWorld(ctx context.Context, idx int, opts options, sum *totals) ([]time.Duration, error) {
	seed := opts.seed + int64(idx)
	w := world.NewWorld(fmt.Sprintf("bench-%d", idx), -64, 384, world.NewTerrainGenerator(seed))
	gen := world.NewTerrainGenerator(seed)
	for cx := -opts.radius; cx <= opts.radius; cx++ {
		for cz := -opts.radius; cz <= opts.radius; cz++ {
			if _, err := w.LoadChunk(vec.ChunkPos{X: cx, Z: cz}); err != nil {
				return nil, fmt.Errorf("world %d: %w", idx, err)
			}
		}
	}

	rng := rand.New(rand.NewSource(seed))
	span := float64(opts.radius * world.ChunkSize)
	randomXZ := func() (float64, float64) {
		return (rng.Float64()*2 - 1) * span, (rng.Float64()*2 - 1) * span
	}

	em := entity.NewEntityManager()
	engine := collision.NewEngine(w, em.Index(), collision.Config{}, nil)
	for i := 0; i < opts.entities; i++ {
		x, z := randomXZ()
		feet := mgl64.Vec3{x, float64(gen.SurfaceHeight(int(x), int(z)) + 1), z}
		e := em.Spawn(entity.EntityTypeMonster, feet)
		// Сущности без опоры всё равно участвуют, но это признак расхождения с генератором
		if _, outcome := engine.FindSupportingCell(collision.Context{Actor: e}, collision.SupportProbe(e.Box())); outcome != collision.OutcomeYes {
			logging.Debug("Сущность %d без опоры в %v", e.ID, feet)
		}
	}

	cfg := explosion.DefaultConfig()
	cfg.OptimizeExplosions = opts.optimize
	sim := explosion.NewSimulator(w, em.Index(), cfg)

	lat := make([]time.Duration, 0, opts.explosions)
	for n := 0; n < opts.explosions; n++ {
		if err := ctx.Err(); err != nil {
			return lat, err
		}
		x, z := randomXZ()
		origin := mgl64.Vec3{x, float64(gen.SurfaceHeight(int(x), int(z))) + 0.5, z}

		t0 := time.Now()
		res, err := sim.Run(ctx, explosion.Request{
			Origin:      origin,
			Power:       opts.power,
			Interaction: opts.interaction,
			Fire:        opts.fire,
			Seed:        rng.Int63(),
		})
		if err != nil {
			return lat, fmt.Errorf("world %d explosion %d: %w", idx, n, err)
		}
		lat = append(lat, time.Since(t0))
		sim.Density().Reset()

		sum.explosions.Add(1)
		sum.destroyed.Add(int64(len(res.Destroyed)))
		sum.removed.Add(int64(res.Removed))
		sum.affected.Add(int64(len(res.Knockback)))
		sum.cached.Add(int64(res.CachedCells))
	}
	return lat, nil
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	i := int(p * float64(len(sorted)-1))
	return sorted[i]
}

func report(opts options, sum *totals, lat []time.Duration, elapsed time.Duration) {
	n := sum.explosions.Load()
	fmt.Printf("💥 %s взрывов в %d мирах за %v (%s/с)\n",
		humanize.Comma(n), opts.worlds, elapsed.Round(time.Millisecond),
		humanize.CommafWithDigits(float64(n)/elapsed.Seconds(), 1))
	fmt.Printf("   мощность %.1f, режим %s, огонь %v, кеш экспозиции %v\n",
		opts.power, opts.interaction, opts.fire, opts.optimize)
	fmt.Printf("   клеток разрушено: %s, удалено блоков: %s, задето сущностей: %s\n",
		humanize.Comma(sum.destroyed.Load()), humanize.Comma(sum.removed.Load()), humanize.Comma(sum.affected.Load()))
	if n > 0 {
		fmt.Printf("   клеток прочитано на взрыв: %s\n", humanize.Comma(sum.cached.Load()/n))
	}
	fmt.Printf("   задержка p50=%v p90=%v p99=%v max=%v\n",
		percentile(lat, 0.5), percentile(lat, 0.9), percentile(lat, 0.99), percentile(lat, 1))
}
