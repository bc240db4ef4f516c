package storage

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/annel0/voxel-blast/internal/vec"
	"github.com/annel0/voxel-blast/internal/world"
	"github.com/annel0/voxel-blast/internal/world/block"
)

// chunkRecordVersion растёт при несовместимых изменениях формата записи
const chunkRecordVersion = 1

// chunkRecord — запись колонны чанка (msgpack, затем zstd).
// Формат общий для всех бэкендов.
type chunkRecord struct {
	Version int             `msgpack:"v"`
	X       int             `msgpack:"x"`
	Z       int             `msgpack:"z"`
	MinY    int             `msgpack:"min_y"`
	Height  int             `msgpack:"height"`
	Blocks  []block.BlockID `msgpack:"blocks"`
}

// chunkCodec кодирует колонны. Encoder и Decoder zstd безопасны
// для параллельных EncodeAll/DecodeAll.
type chunkCodec struct {
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

func newChunkCodec() (*chunkCodec, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		encoder.Close()
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &chunkCodec{encoder: encoder, decoder: decoder}, nil
}

func (cc *chunkCodec) close() {
	cc.encoder.Close()
	cc.decoder.Close()
}

func (cc *chunkCodec) encode(c *world.Chunk) ([]byte, error) {
	rec := chunkRecord{
		Version: chunkRecordVersion,
		X:       c.Coords.X,
		Z:       c.Coords.Z,
		MinY:    c.MinY,
		Height:  c.Height,
		Blocks:  c.Blocks(),
	}
	raw, err := msgpack.Marshal(&rec)
	if err != nil {
		return nil, fmt.Errorf("encode chunk %v: %w", c.Coords, err)
	}
	return cc.encoder.EncodeAll(raw, nil), nil
}

func (cc *chunkCodec) decode(data []byte, pos vec.ChunkPos, minY, height int) (*world.Chunk, error) {
	raw, err := cc.decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress chunk %v: %w", pos, err)
	}
	var rec chunkRecord
	if err := msgpack.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode chunk %v: %w", pos, err)
	}
	if rec.Version != chunkRecordVersion {
		return nil, fmt.Errorf("chunk %v: unsupported record version %d", pos, rec.Version)
	}
	if rec.X != pos.X || rec.Z != pos.Z {
		return nil, fmt.Errorf("chunk %v: record belongs to %d,%d", pos, rec.X, rec.Z)
	}
	if rec.MinY != minY || rec.Height != height {
		return nil, fmt.Errorf("chunk %v: stored column %d+%d does not match world %d+%d",
			pos, rec.MinY, rec.Height, minY, height)
	}

	c := world.NewChunk(pos, minY, height)
	if err := c.LoadBlocks(rec.Blocks); err != nil {
		return nil, err
	}
	return c, nil
}
