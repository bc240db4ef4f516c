// Package storage содержит постоянные хранилища колонн чанков.
// Все бэкенды пишут одну и ту же запись (msgpack + zstd), так что мир
// можно перенести между ними побайтово.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/annel0/voxel-blast/internal/world"
)

// ErrStoreClosed возвращается при обращении к закрытому хранилищу
var ErrStoreClosed = errors.New("chunk store closed")

// Store — хранилище чанков с управлением жизненным циклом
type Store interface {
	world.ChunkStore
	DeleteWorld(ctx context.Context, worldID string) (int, error)
	Close() error
}

// Config выбирает и настраивает бэкенд
type Config struct {
	Backend string // badger | redis | mariadb | mongo
	DataDir string // badger: каталог, пусто — в памяти
	Redis   RedisConfig
	Maria   MariaConfig
	Mongo   MongoConfig
}

// Open открывает хранилище выбранного бэкенда
func Open(cfg Config) (Store, error) {
	switch cfg.Backend {
	case "", "badger":
		return NewWorldStorage(cfg.DataDir)
	case "redis":
		return NewRedisChunkStore(cfg.Redis)
	case "mariadb", "mysql":
		return NewMariaChunkStore(cfg.Maria)
	case "mongo":
		return NewMongoChunkStore(cfg.Mongo)
	default:
		return nil, fmt.Errorf("unknown chunk store backend %q", cfg.Backend)
	}
}
