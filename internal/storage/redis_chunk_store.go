package storage

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/annel0/voxel-blast/internal/logging"
	"github.com/annel0/voxel-blast/internal/vec"
	"github.com/annel0/voxel-blast/internal/world"
)

// RedisConfig содержит настройки подключения к Redis
type RedisConfig struct {
	Addr      string        // Адрес Redis сервера
	Password  string        // Пароль (пустой если не требуется)
	DB        int           // Номер базы данных
	KeyPrefix string        // Префикс для ключей
	TTL       time.Duration // 0 — чанки хранятся бессрочно
}

// DefaultRedisConfig возвращает конфигурацию по умолчанию
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:      "localhost:6379",
		KeyPrefix: "blast:",
	}
}

// RedisChunkStore хранит колонны чанков в Redis
type RedisChunkStore struct {
	client *redis.Client
	cfg    RedisConfig
	codec  *chunkCodec
	closed atomic.Bool
}

var _ Store = (*RedisChunkStore)(nil)

// NewRedisChunkStore подключается к Redis и проверяет соединение
func NewRedisChunkStore(cfg RedisConfig) (*RedisChunkStore, error) {
	def := DefaultRedisConfig()
	if cfg.Addr == "" {
		cfg.Addr = def.Addr
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = def.KeyPrefix
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	codec, err := newChunkCodec()
	if err != nil {
		client.Close()
		return nil, err
	}

	logging.Info("💾 Хранилище чанков Redis: %s (db=%d)", cfg.Addr, cfg.DB)
	return &RedisChunkStore{client: client, cfg: cfg, codec: codec}, nil
}

func (rs *RedisChunkStore) key(worldID string, pos vec.ChunkPos) string {
	return rs.cfg.KeyPrefix + chunkKey(worldID, pos)
}

// SaveChunk сохраняет колонну чанка
func (rs *RedisChunkStore) SaveChunk(ctx context.Context, worldID string, c *world.Chunk) error {
	if rs.closed.Load() {
		return ErrStoreClosed
	}
	data, err := rs.codec.encode(c)
	if err != nil {
		return err
	}
	if err := rs.client.Set(ctx, rs.key(worldID, c.Coords), data, rs.cfg.TTL).Err(); err != nil {
		return fmt.Errorf("redis set chunk %v: %w", c.Coords, err)
	}
	return nil
}

// LoadChunk читает колонну чанка
func (rs *RedisChunkStore) LoadChunk(ctx context.Context, worldID string, pos vec.ChunkPos, minY, height int) (*world.Chunk, error) {
	if rs.closed.Load() {
		return nil, ErrStoreClosed
	}
	data, err := rs.client.Get(ctx, rs.key(worldID, pos)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, world.ErrChunkNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get chunk %v: %w", pos, err)
	}
	return rs.codec.decode(data, pos, minY, height)
}

// DeleteWorld удаляет чанки мира через SCAN, не блокируя Redis
func (rs *RedisChunkStore) DeleteWorld(ctx context.Context, worldID string) (int, error) {
	if rs.closed.Load() {
		return 0, ErrStoreClosed
	}
	pattern := rs.cfg.KeyPrefix + fmt.Sprintf("chunk:%s:*", worldID)

	deleted := 0
	var cursor uint64
	for {
		keys, next, err := rs.client.Scan(ctx, cursor, pattern, 256).Result()
		if err != nil {
			return deleted, fmt.Errorf("redis scan: %w", err)
		}
		if len(keys) > 0 {
			n, err := rs.client.Del(ctx, keys...).Result()
			if err != nil {
				return deleted, fmt.Errorf("redis del: %w", err)
			}
			deleted += int(n)
		}
		if next == 0 {
			return deleted, nil
		}
		cursor = next
	}
}

// Close закрывает соединение с Redis
func (rs *RedisChunkStore) Close() error {
	if !rs.closed.CompareAndSwap(false, true) {
		return nil
	}
	rs.codec.close()
	return rs.client.Close()
}
