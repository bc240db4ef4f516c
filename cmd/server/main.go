package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/annel0/voxel-blast/internal/api"
	"github.com/annel0/voxel-blast/internal/collision"
	"github.com/annel0/voxel-blast/internal/config"
	"github.com/annel0/voxel-blast/internal/eventbus"
	"github.com/annel0/voxel-blast/internal/explosion"
	"github.com/annel0/voxel-blast/internal/logging"
	"github.com/annel0/voxel-blast/internal/observability"
	"github.com/annel0/voxel-blast/internal/storage"
	"github.com/annel0/voxel-blast/internal/vec"
	"github.com/annel0/voxel-blast/internal/world"
	_ "github.com/annel0/voxel-blast/internal/world/block/implementations"
	"github.com/annel0/voxel-blast/internal/world/entity"
)

func main() {
	configPath := flag.String("config", "", "путь к YAML конфигурации (по умолчанию $BLAST_CONFIG)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Ошибка загрузки конфигурации: %v", err)
	}

	logging.SetLogDir(cfg.Logging.Dir)
	if err := logging.InitDefaultLogger(cfg.Logging.Component); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseLogger()
	level := logging.ParseLevel(cfg.Logging.Level)
	logging.Default().SetLevels(level, level)
	logging.SetComponents(logging.NewLoggerManager(level))
	defer logging.Components().CloseAll()

	logging.Info("💥 Запуск сервера взрывов, мир %s", cfg.World.ID)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// === ТЕЛЕМЕТРИЯ ===
	if cfg.Telemetry.Enabled {
		shutdown, err := observability.InitTelemetry(ctx, observability.Options{
			ServiceName: cfg.Telemetry.ServiceName,
			Endpoint:    cfg.Telemetry.Endpoint,
			Insecure:    cfg.Telemetry.Insecure,
			SampleRatio: cfg.Telemetry.SampleRatio,
			WorldID:     cfg.World.ID,
		})
		if err != nil {
			logging.Warn("OpenTelemetry не инициализирован: %v", err)
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logging.Warn("Ошибка остановки OpenTelemetry: %v", err)
				}
			}()
		}
	}

	// === МИР ===
	w := world.NewWorld(cfg.World.ID, cfg.World.MinY, cfg.World.Height, world.NewTerrainGenerator(cfg.World.Seed))
	if cfg.Store.Enabled() {
		store, err := storage.Open(storage.Config{
			Backend: cfg.Store.Backend,
			DataDir: cfg.World.DataDir,
			Redis: storage.RedisConfig{
				Addr:     cfg.Store.RedisAddr,
				Password: cfg.Store.RedisPassword,
				DB:       cfg.Store.RedisDB,
			},
			Maria: storage.MariaConfig{DSN: cfg.Store.MariaDSN},
			Mongo: storage.MongoConfig{URI: cfg.Store.MongoURI, Database: cfg.Store.MongoDatabase},
		})
		if err != nil {
			log.Fatalf("❌ Ошибка открытия хранилища: %v", err)
		}
		defer store.Close()
		w.SetStore(store)
	}

	r := cfg.World.PreloadRadius
	for cx := -r; cx <= r; cx++ {
		for cz := -r; cz <= r; cz++ {
			if _, err := w.LoadChunk(vec.ChunkPos{X: cx, Z: cz}); err != nil {
				log.Fatalf("❌ Ошибка загрузки чанка %d,%d: %v", cx, cz, err)
			}
		}
	}
	logging.Info("🌍 Загружено чанков: %d", len(w.LoadedChunks()))

	entities := entity.NewEntityManager()
	region := world.NewRegion(w, entities, cfg.World.TickInterval())

	// === ДВИЖКИ ===
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	engine := collision.NewEngine(w, entities.Index(), collision.Config{
		UnloadedObstructs: cfg.Collision.UnloadedObstructs,
	}, collision.NewMetrics(reg))

	simulator := explosion.NewSimulator(w, entities.Index(), explosion.Config{
		StepDecay:          cfg.Explosion.StepDecay,
		FireChance:         cfg.Explosion.FireChance,
		OptimizeExplosions: cfg.Explosion.OptimizeExplosions,
	})
	simulator.SetMetrics(explosion.NewMetrics(reg))
	region.OnTick(func(uint64) { simulator.Density().Reset() })

	// === ШИНА СОБЫТИЙ ===
	var bus eventbus.EventBus
	switch cfg.EventBus.Backend {
	case "jetstream":
		bus, err = eventbus.NewJetStreamBus(cfg.EventBus.URL, cfg.EventBus.Stream, cfg.EventBus.RetentionDuration())
		if err != nil {
			log.Fatalf("❌ Ошибка подключения к JetStream: %v", err)
		}
	default:
		bus = eventbus.NewMemoryBus(cfg.EventBus.Capacity)
	}
	defer bus.Close()
	simulator.SetEventBus(bus)

	if _, err := eventbus.StartLoggingListener(ctx, bus); err != nil {
		logging.Warn("Логирующий подписчик не запущен: %v", err)
	}
	exporter := eventbus.NewMetricsExporter(bus, reg)
	exporter.Start()
	defer exporter.Stop()

	// === REGION + REST API ===
	regionDone := make(chan struct{})
	go func() {
		region.Run(ctx)
		close(regionDone)
	}()

	port := ":" + strconv.Itoa(cfg.Server.GetRESTPort())
	server := api.NewRestServer(api.Config{
		Port:      port,
		Region:    region,
		Engine:    engine,
		Simulator: simulator,
		Registry:  reg,
	})
	go func() {
		if err := server.Start(); err != nil {
			logging.Error("❌ %v", err)
			stop()
		}
	}()

	logging.Info("✅ Сервер готов")
	logging.Info("   🌐 REST API: http://localhost%s", port)
	logging.Info("   ❤️  Health check: http://localhost%s/health", port)
	logging.Info("   💡 curl -X POST http://localhost%s/api/explosions -d '{\"origin\":[0.5,80,0.5],\"power\":4}'", port)

	<-ctx.Done()
	logging.Info("📡 Получен сигнал завершения, останавливаемся...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Error("❌ Ошибка остановки REST API: %v", err)
	}
	<-regionDone

	// Регион остановлен, мир больше никто не трогает
	if saved, err := w.Save(shutdownCtx); err != nil {
		logging.Error("❌ Ошибка сохранения мира: %v", err)
	} else if cfg.Store.Enabled() {
		logging.Info("💾 Сохранено чанков: %d", saved)
	}

	logging.Info("👋 Сервер успешно остановлен")
}
