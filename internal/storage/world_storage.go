package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/dgraph-io/badger/v3"

	"github.com/annel0/voxel-blast/internal/logging"
	"github.com/annel0/voxel-blast/internal/vec"
	"github.com/annel0/voxel-blast/internal/world"
)

// WorldStorage хранит колонны чанков в BadgerDB и реализует world.ChunkStore
type WorldStorage struct {
	db      *badger.DB
	dbPath  string
	codec   *chunkCodec
	mutex   sync.RWMutex
	isReady bool
}

var _ Store = (*WorldStorage)(nil)

// NewWorldStorage открывает хранилище в dataPath/world.
// Пустой dataPath открывает BadgerDB в памяти.
func NewWorldStorage(dataPath string) (*WorldStorage, error) {
	var opts badger.Options
	dbPath := ""
	if dataPath == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		dbPath = filepath.Join(dataPath, "world")
		opts = badger.DefaultOptions(dbPath)
	}
	opts.Logger = nil // Отключаем логирование BadgerDB

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	codec, err := newChunkCodec()
	if err != nil {
		db.Close()
		return nil, err
	}

	if dbPath == "" {
		logging.Info("💾 Хранилище чанков BadgerDB в памяти")
	} else {
		logging.Info("💾 Хранилище чанков BadgerDB: %s", dbPath)
	}
	return &WorldStorage{
		db:      db,
		dbPath:  dbPath,
		codec:   codec,
		isReady: true,
	}, nil
}

// Close закрывает хранилище данных
func (ws *WorldStorage) Close() error {
	ws.mutex.Lock()
	defer ws.mutex.Unlock()

	if !ws.isReady {
		return nil
	}

	ws.isReady = false
	ws.codec.close()
	return ws.db.Close()
}

func chunkKey(worldID string, pos vec.ChunkPos) string {
	return fmt.Sprintf("chunk:%s:%d:%d", worldID, pos.X, pos.Z)
}

// SaveChunk сохраняет колонну чанка целиком
func (ws *WorldStorage) SaveChunk(ctx context.Context, worldID string, c *world.Chunk) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ws.mutex.RLock()
	defer ws.mutex.RUnlock()

	if !ws.isReady {
		return ErrStoreClosed
	}

	data, err := ws.codec.encode(c)
	if err != nil {
		return err
	}
	err = ws.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(chunkKey(worldID, c.Coords)), data)
	})
	if err != nil {
		return fmt.Errorf("badger set chunk %v: %w", c.Coords, err)
	}
	logging.Trace("Чанк %v мира %s сохранён: %d байт", c.Coords, worldID, len(data))
	return nil
}

// LoadChunk читает колонну чанка. Если чанк не сохранялся, возвращает world.ErrChunkNotFound.
func (ws *WorldStorage) LoadChunk(ctx context.Context, worldID string, pos vec.ChunkPos, minY, height int) (*world.Chunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ws.mutex.RLock()
	defer ws.mutex.RUnlock()

	if !ws.isReady {
		return nil, ErrStoreClosed
	}

	var data []byte
	err := ws.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(chunkKey(worldID, pos)))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, world.ErrChunkNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("badger get chunk %v: %w", pos, err)
	}
	return ws.codec.decode(data, pos, minY, height)
}

// DeleteWorld удаляет все чанки мира и возвращает их количество
func (ws *WorldStorage) DeleteWorld(ctx context.Context, worldID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	ws.mutex.RLock()
	defer ws.mutex.RUnlock()

	if !ws.isReady {
		return 0, ErrStoreClosed
	}

	prefix := []byte(fmt.Sprintf("chunk:%s:", worldID))
	var keys [][]byte
	err := ws.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("scan world %s: %w", worldID, err)
	}

	wb := ws.db.NewWriteBatch()
	defer wb.Cancel()
	for _, k := range keys {
		if err := wb.Delete(k); err != nil {
			return 0, fmt.Errorf("delete chunk: %w", err)
		}
	}
	if err := wb.Flush(); err != nil {
		return 0, fmt.Errorf("flush delete: %w", err)
	}
	return len(keys), nil
}
