package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/annel0/voxel-blast/internal/logging"
	"github.com/annel0/voxel-blast/internal/vec"
	"github.com/annel0/voxel-blast/internal/world"
)

// MariaConfig содержит настройки подключения к MariaDB/MySQL
type MariaConfig struct {
	DSN   string // user:pass@tcp(host:port)/dbname
	Table string
}

// MariaChunkStore хранит колонны чанков в таблице MariaDB/MySQL.
// Записи те же, что у остальных бэкендов, в колонке BLOB.
type MariaChunkStore struct {
	db     *sql.DB
	table  string
	codec  *chunkCodec
	closed atomic.Bool
}

var _ Store = (*MariaChunkStore)(nil)

// NewMariaChunkStore подключается к базе и создаёт таблицу, если её нет
func NewMariaChunkStore(cfg MariaConfig) (*MariaChunkStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("mariadb dsn is empty")
	}
	if cfg.Table == "" {
		cfg.Table = "chunks"
	}

	db, err := sql.Open("mysql", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("не удалось подключиться к MariaDB: %w", err)
	}
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("не удалось проверить соединение с MariaDB: %w", err)
	}

	store := &MariaChunkStore{db: db, table: cfg.Table}
	if err := store.createTable(ctx); err != nil {
		db.Close()
		return nil, err
	}
	if store.codec, err = newChunkCodec(); err != nil {
		db.Close()
		return nil, err
	}

	logging.Info("💾 Хранилище чанков MariaDB, таблица %s", cfg.Table)
	return store, nil
}

func (ms *MariaChunkStore) createTable(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			world_id   VARCHAR(64)  NOT NULL,
			cx         INT          NOT NULL,
			cz         INT          NOT NULL,
			data       MEDIUMBLOB   NOT NULL,
			updated_at TIMESTAMP    DEFAULT CURRENT_TIMESTAMP
			           ON UPDATE    CURRENT_TIMESTAMP,
			PRIMARY KEY (world_id, cx, cz)
		) ENGINE=InnoDB
	`, ms.table)
	if _, err := ms.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("ошибка создания таблицы %s: %w", ms.table, err)
	}
	return nil
}

// SaveChunk сохраняет колонну чанка (INSERT ... ON DUPLICATE KEY UPDATE)
func (ms *MariaChunkStore) SaveChunk(ctx context.Context, worldID string, c *world.Chunk) error {
	if ms.closed.Load() {
		return ErrStoreClosed
	}
	data, err := ms.codec.encode(c)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`
		INSERT INTO %s (world_id, cx, cz, data) VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE data = VALUES(data)
	`, ms.table)
	if _, err := ms.db.ExecContext(ctx, query, worldID, c.Coords.X, c.Coords.Z, data); err != nil {
		return fmt.Errorf("mariadb save chunk %v: %w", c.Coords, err)
	}
	return nil
}

// LoadChunk читает колонну чанка
func (ms *MariaChunkStore) LoadChunk(ctx context.Context, worldID string, pos vec.ChunkPos, minY, height int) (*world.Chunk, error) {
	if ms.closed.Load() {
		return nil, ErrStoreClosed
	}
	query := fmt.Sprintf(`SELECT data FROM %s WHERE world_id = ? AND cx = ? AND cz = ?`, ms.table)

	var data []byte
	err := ms.db.QueryRowContext(ctx, query, worldID, pos.X, pos.Z).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, world.ErrChunkNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mariadb load chunk %v: %w", pos, err)
	}
	return ms.codec.decode(data, pos, minY, height)
}

// DeleteWorld удаляет все чанки мира
func (ms *MariaChunkStore) DeleteWorld(ctx context.Context, worldID string) (int, error) {
	if ms.closed.Load() {
		return 0, ErrStoreClosed
	}
	res, err := ms.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE world_id = ?`, ms.table), worldID)
	if err != nil {
		return 0, fmt.Errorf("mariadb delete world %s: %w", worldID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// Close закрывает пул соединений
func (ms *MariaChunkStore) Close() error {
	if !ms.closed.CompareAndSwap(false, true) {
		return nil
	}
	ms.codec.close()
	return ms.db.Close()
}
