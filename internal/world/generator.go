package world

import (
	"math/rand"

	"github.com/aquilax/go-perlin"

	"github.com/annel0/voxel-blast/internal/world/block"
)

// FlatGenerator заполняет нижние слои колонны заданными блоками
type FlatGenerator struct {
	Layers []block.BlockID // Слои снизу вверх, начиная с MinY
}

// Generate заполняет чанк слоями
func (g FlatGenerator) Generate(c *Chunk) {
	for i, id := range g.Layers {
		c.Fill(c.MinY+i, id)
	}
}

// Константы высот для генерации
const (
	SeaLevel      = 62 // Уровень моря
	BaseHeight    = 64 // Средняя высота суши
	HeightScale   = 24 // Амплитуда рельефа
	DirtDepth     = 3  // Толщина слоя земли
	BeachMaxDelta = 2  // Насколько выше моря ещё бывает песок
)

// TerrainGenerator генерирует рельеф на шуме Перлина
type TerrainGenerator struct {
	Seed          int64   // Сид для генерации шума
	NoiseScale    float64 // Масштаб основного шума (высота)
	ForestDensity float64 // Шанс дерева на клетку травы

	noise *perlin.Perlin
}

// NewTerrainGenerator создаёт генератор рельефа
func NewTerrainGenerator(seed int64) *TerrainGenerator {
	alpha := 2.0  // Сглаживание шума
	beta := 2.0   // Частота шума
	n := int32(3) // Количество октав
	return &TerrainGenerator{
		Seed:          seed,
		NoiseScale:    0.02,
		ForestDensity: 0.02,
		noise:         perlin.NewPerlin(alpha, beta, n, seed),
	}
}

// SurfaceHeight возвращает высоту поверхности в колонне x/z
func (g *TerrainGenerator) SurfaceHeight(x, z int) int {
	n := g.noise.Noise2D(float64(x)*g.NoiseScale, float64(z)*g.NoiseScale) // от -1 до 1
	return BaseHeight + int(n*HeightScale)
}

// Generate заполняет чанк рельефом
func (g *TerrainGenerator) Generate(c *Chunk) {
	// Для каждого чанка свой сид, чтобы генерация не зависела от порядка загрузки
	chunkSeed := g.Seed + int64(c.Coords.X)*341873128712 + int64(c.Coords.Z)*132897987541
	rng := rand.New(rand.NewSource(chunkSeed))

	startX, startZ := c.Coords.MinCell()
	maxY := c.MinY + c.Height

	for lz := 0; lz < ChunkSize; lz++ {
		for lx := 0; lx < ChunkSize; lx++ {
			surface := g.SurfaceHeight(startX+lx, startZ+lz)
			if surface >= maxY {
				surface = maxY - 1
			}

			c.SetBlock(lx, c.MinY, lz, block.BedrockBlockID)
			for y := c.MinY + 1; y <= surface; y++ {
				c.SetBlock(lx, y, lz, g.blockForDepth(surface, y))
			}
			for y := surface + 1; y <= SeaLevel && y < maxY; y++ {
				c.SetBlock(lx, y, lz, block.WaterBlockID)
			}

			// Деревья только целиком внутри чанка
			if surface > SeaLevel+BeachMaxDelta && lx >= 2 && lx <= 13 && lz >= 2 && lz <= 13 &&
				surface+7 < maxY && rng.Float64() < g.ForestDensity {
				g.placeTree(c, lx, surface+1, lz, rng)
			}
		}
	}
}

func (g *TerrainGenerator) blockForDepth(surface, y int) block.BlockID {
	beach := surface <= SeaLevel+BeachMaxDelta
	switch {
	case y == surface && beach:
		return block.SandBlockID
	case y == surface:
		return block.GrassBlockID
	case surface-y <= DirtDepth && beach:
		return block.SandBlockID
	case surface-y <= DirtDepth:
		return block.DirtBlockID
	default:
		return block.StoneBlockID
	}
}

// placeTree ставит ствол 4-6 клеток и крону из листвы
func (g *TerrainGenerator) placeTree(c *Chunk, lx, baseY, lz int, rng *rand.Rand) {
	trunk := 4 + rng.Intn(3)
	top := baseY + trunk
	for dy := -2; dy <= 1; dy++ {
		radius := 2
		if dy == 1 {
			radius = 1
		}
		for dx := -radius; dx <= radius; dx++ {
			for dz := -radius; dz <= radius; dz++ {
				if c.Block(lx+dx, top+dy, lz+dz) == block.AirBlockID {
					c.SetBlock(lx+dx, top+dy, lz+dz, block.LeavesBlockID)
				}
			}
		}
	}
	for y := baseY; y < top; y++ {
		c.SetBlock(lx, y, lz, block.LogBlockID)
	}
}
