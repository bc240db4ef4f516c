package storage

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/annel0/voxel-blast/internal/logging"
	"github.com/annel0/voxel-blast/internal/vec"
	"github.com/annel0/voxel-blast/internal/world"
)

// MongoConfig contains connection settings for MongoDB chunk store.
type MongoConfig struct {
	URI        string // e.g. mongodb://localhost:27017
	Database   string // e.g. voxel_blast
	Collection string // e.g. chunks
}

// MongoChunkStore хранит колонны чанков документами MongoDB
type MongoChunkStore struct {
	client     *mongo.Client
	collection *mongo.Collection
	codec      *chunkCodec
	closed     atomic.Bool
}

var _ Store = (*MongoChunkStore)(nil)

type chunkDocument struct {
	World     string    `bson:"world"`
	X         int       `bson:"x"`
	Z         int       `bson:"z"`
	Data      []byte    `bson:"data"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// NewMongoChunkStore establishes connection and ensures the (world, x, z) index.
func NewMongoChunkStore(cfg MongoConfig) (*MongoChunkStore, error) {
	if cfg.URI == "" {
		cfg.URI = "mongodb://localhost:27017"
	}
	if cfg.Database == "" {
		cfg.Database = "voxel_blast"
	}
	if cfg.Collection == "" {
		cfg.Collection = "chunks"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	coll := client.Database(cfg.Database).Collection(cfg.Collection)
	idx := mongo.IndexModel{
		Keys:    bson.D{{Key: "world", Value: 1}, {Key: "x", Value: 1}, {Key: "z", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("chunk_unique"),
	}
	if _, err := coll.Indexes().CreateOne(ctx, idx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ensure index: %w", err)
	}

	codec, err := newChunkCodec()
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	logging.Info("💾 Хранилище чанков MongoDB: %s.%s", cfg.Database, cfg.Collection)
	return &MongoChunkStore{client: client, collection: coll, codec: codec}, nil
}

func chunkFilter(worldID string, pos vec.ChunkPos) bson.M {
	return bson.M{"world": worldID, "x": pos.X, "z": pos.Z}
}

// SaveChunk сохраняет колонну чанка (upsert)
func (ms *MongoChunkStore) SaveChunk(ctx context.Context, worldID string, c *world.Chunk) error {
	if ms.closed.Load() {
		return ErrStoreClosed
	}
	data, err := ms.codec.encode(c)
	if err != nil {
		return err
	}
	doc := chunkDocument{World: worldID, X: c.Coords.X, Z: c.Coords.Z, Data: data, UpdatedAt: time.Now().UTC()}
	_, err = ms.collection.ReplaceOne(ctx, chunkFilter(worldID, c.Coords), doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("mongo save chunk %v: %w", c.Coords, err)
	}
	return nil
}

// LoadChunk читает колонну чанка
func (ms *MongoChunkStore) LoadChunk(ctx context.Context, worldID string, pos vec.ChunkPos, minY, height int) (*world.Chunk, error) {
	if ms.closed.Load() {
		return nil, ErrStoreClosed
	}
	var doc chunkDocument
	err := ms.collection.FindOne(ctx, chunkFilter(worldID, pos)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, world.ErrChunkNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mongo load chunk %v: %w", pos, err)
	}
	return ms.codec.decode(doc.Data, pos, minY, height)
}

// DeleteWorld удаляет все чанки мира
func (ms *MongoChunkStore) DeleteWorld(ctx context.Context, worldID string) (int, error) {
	if ms.closed.Load() {
		return 0, ErrStoreClosed
	}
	res, err := ms.collection.DeleteMany(ctx, bson.M{"world": worldID})
	if err != nil {
		return 0, fmt.Errorf("mongo delete world %s: %w", worldID, err)
	}
	return int(res.DeletedCount), nil
}

// Close отключается от MongoDB
func (ms *MongoChunkStore) Close() error {
	if !ms.closed.CompareAndSwap(false, true) {
		return nil
	}
	ms.codec.close()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return ms.client.Disconnect(ctx)
}
