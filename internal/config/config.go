package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config корневая структура конфигурации сервера взрывов.
type Config struct {
	World     WorldConfig     `yaml:"world"`
	Collision CollisionConfig `yaml:"collision"`
	Explosion ExplosionConfig `yaml:"explosion"`
	Store     StoreConfig     `yaml:"store"`
	EventBus  EventBusConfig  `yaml:"eventbus"`
	Server    ServerConfig    `yaml:"server"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type WorldConfig struct {
	ID            string `yaml:"id"`
	MinY          int    `yaml:"min_y"`
	Height        int    `yaml:"height"`
	Seed          int64  `yaml:"seed"`
	DataDir       string `yaml:"data_dir"`       // Каталог BadgerDB, пусто — в памяти
	PreloadRadius int    `yaml:"preload_radius"` // В чанках вокруг (0, 0)
	TickMillis    int    `yaml:"tick_ms"`
}

type CollisionConfig struct {
	UnloadedObstructs bool `yaml:"unloaded_obstructs"`
}

type ExplosionConfig struct {
	StepDecay          float64 `yaml:"step_decay"`
	FireChance         int     `yaml:"fire_chance"`
	OptimizeExplosions bool    `yaml:"optimize_explosions"`
}

// StoreConfig выбирает хранилище колонн чанков.
// Для badger каталог берётся из world.data_dir.
type StoreConfig struct {
	Backend       string `yaml:"backend"` // none | badger | redis | mariadb | mongo
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	MariaDSN      string `yaml:"maria_dsn"`
	MongoURI      string `yaml:"mongo_uri"`
	MongoDatabase string `yaml:"mongo_database"`
}

// Enabled сообщает, нужно ли вообще сохранять чанки
func (s *StoreConfig) Enabled() bool {
	return s.Backend != "" && s.Backend != "none"
}

type EventBusConfig struct {
	Backend   string `yaml:"backend"` // memory | jetstream
	URL       string `yaml:"url"`
	Stream    string `yaml:"stream"`
	Retention int    `yaml:"retention_hours"`
	Capacity  int    `yaml:"capacity"`
}

type ServerConfig struct {
	RESTPort int `yaml:"rest_port"`
}

type TelemetryConfig struct {
	Enabled     bool    `yaml:"enabled"`
	ServiceName string  `yaml:"service_name"`
	Endpoint    string  `yaml:"endpoint"`
	Insecure    bool    `yaml:"insecure"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

type LoggingConfig struct {
	Component string `yaml:"component"`
	Dir       string `yaml:"dir"`
	Level     string `yaml:"level"`
}

// Default возвращает конфигурацию по умолчанию
func Default() *Config {
	return &Config{
		World: WorldConfig{
			ID:            "overworld",
			MinY:          -64,
			Height:        384,
			Seed:          1,
			PreloadRadius: 4,
			TickMillis:    50,
		},
		Explosion: ExplosionConfig{
			FireChance: 3,
		},
		Store: StoreConfig{
			Backend:       "none",
			RedisAddr:     "localhost:6379",
			MongoURI:      "mongodb://localhost:27017",
			MongoDatabase: "voxel_blast",
		},
		EventBus: EventBusConfig{
			Backend:   "memory",
			URL:       "nats://127.0.0.1:4222",
			Stream:    "BLAST",
			Retention: 24,
			Capacity:  1024,
		},
		Telemetry: TelemetryConfig{ServiceName: "voxel-blast", SampleRatio: 1},
		Logging:   LoggingConfig{Component: "server", Dir: "logs", Level: "INFO"},
	}
}

// TickInterval возвращает период тика региона
func (w *WorldConfig) TickInterval() time.Duration {
	if w.TickMillis <= 0 {
		return 50 * time.Millisecond
	}
	return time.Duration(w.TickMillis) * time.Millisecond
}

// RetentionDuration возвращает срок хранения событий в JetStream
func (e *EventBusConfig) RetentionDuration() time.Duration {
	return time.Duration(e.Retention) * time.Hour
}

// GetRESTPort возвращает REST API порт с поддержкой fallback значений
func (s *ServerConfig) GetRESTPort() int {
	return getPortWithEnvFallback(s.RESTPort, "BLAST_REST_PORT", 8088)
}

// getPortWithEnvFallback возвращает порт с приоритетом: config -> env -> default
func getPortWithEnvFallback(configPort int, envVar string, defaultPort int) int {
	if configPort > 0 {
		return configPort
	}
	if envVal := os.Getenv(envVar); envVal != "" {
		if port, err := strconv.Atoi(envVal); err == nil && port > 0 {
			return port
		}
	}
	return defaultPort
}

// Load читает YAML файл конфигурации поверх Default().
// Если path == "", берётся BLAST_CONFIG; если и он пуст, возвращаются значения по умолчанию.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv("BLAST_CONFIG")
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate проверяет значения, без которых сервер не запустится
func (c *Config) Validate() error {
	if c.World.Height <= 0 {
		return fmt.Errorf("world.height must be positive, got %d", c.World.Height)
	}
	if c.Explosion.FireChance <= 0 {
		return fmt.Errorf("explosion.fire_chance must be positive, got %d", c.Explosion.FireChance)
	}
	if c.Explosion.StepDecay < 0 {
		return fmt.Errorf("explosion.step_decay must not be negative")
	}
	switch c.Store.Backend {
	case "", "none", "badger", "redis", "mongo":
	case "mariadb", "mysql":
		if c.Store.MariaDSN == "" {
			return fmt.Errorf("store.maria_dsn is required for backend %q", c.Store.Backend)
		}
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	switch c.EventBus.Backend {
	case "memory", "jetstream":
	default:
		return fmt.Errorf("unknown eventbus backend %q", c.EventBus.Backend)
	}
	return nil
}
