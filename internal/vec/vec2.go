package vec

// ChunkPos представляет координаты колонки-чанка (16x16 клеток по X/Z)
type ChunkPos struct {
	X, Z int
}

// ChunkPosOf возвращает чанк, содержащий клетку с мировыми координатами x/z
func ChunkPosOf(x, z int) ChunkPos {
	return ChunkPos{X: x >> 4, Z: z >> 4} // Деление на 16
}

// MinCell возвращает минимальные мировые X/Z координаты чанка
func (c ChunkPos) MinCell() (x, z int) {
	return c.X << 4, c.Z << 4
}

// Key упаковывает координаты чанка в одно 64-битное значение
func (c ChunkPos) Key() int64 {
	return int64(uint32(c.X)) | int64(uint32(c.Z))<<32
}

// LocalInChunk возвращает локальные координаты внутри чанка
func LocalInChunk(x, z int) (lx, lz int) {
	return x & 0xF, z & 0xF // Модуль 16
}
