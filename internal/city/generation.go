// Map generation using layered simplex noise.
// Produces a height field, levels it around the midpoint, then thresholds it
// into water, grass and forest.
package city

import (
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// GenConfig holds map generation parameters.
type GenConfig struct {
	Seed        int64   // Noise seed (0 = random)
	WaterOffset int     // Shifts both thresholds; positive means more water
	Octaves     int     // Noise layers
	Frequency   float64 // Base frequency in tiles⁻¹
	Persistence float64 // Amplitude falloff per octave
}

// DefaultGenConfig returns a reasonable starting configuration.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		Seed:        0,
		WaterOffset: 0,
		Octaves:     4,
		Frequency:   0.06,
		Persistence: 0.5,
	}
}

// Terrain thresholds before the water offset is applied.
const (
	waterLevel  = 128
	forestLevel = 152
)

// Generate creates a map of water, grass and forest. The same seed always
// yields the same map.
func Generate(cfg GenConfig) *Grid {
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Int63()
	}
	if cfg.Octaves <= 0 {
		cfg.Octaves = 1
	}

	noise := opensimplex.NewNormalized(seed)

	var height [Width * Height]int
	sum := 0
	for y := 0; y < Height; y++ {
		for x := 0; x < Width; x++ {
			v := int(octaveNoise(noise, float64(x), float64(y), cfg.Octaves, cfg.Frequency, cfg.Persistence) * 255)
			height[y*Width+x] = clampByte(v)
			sum += height[y*Width+x]
		}
	}

	// Level the field so the mean sits at the water line.
	shift := 128 - sum/(Width*Height)
	for i := range height {
		height[i] = clampByte(height[i] + shift)
	}

	smooth(&height)
	smooth(&height)

	g := NewGrid()
	for i, h := range height {
		switch {
		case h < waterLevel+cfg.WaterOffset:
			g.Tiles[i] = Tile{Kind: KindWater}
		case h < forestLevel+cfg.WaterOffset:
			g.Tiles[i] = Tile{Kind: KindGrass}
		default:
			g.Tiles[i] = Tile{Kind: KindForest}
		}
	}

	removeLoneTiles(g)
	return g
}

// smooth averages each cell with its four neighbours, reading edges clamped.
func smooth(h *[Width * Height]int) {
	src := *h
	at := func(x, y int) int {
		x = min(max(x, 0), Width-1)
		y = min(max(y, 0), Height-1)
		return src[y*Width+x]
	}
	for y := 0; y < Height; y++ {
		for x := 0; x < Width; x++ {
			n := (at(x-1, y) + at(x, y-1) + at(x+1, y) + at(x, y+1)) / 4
			h[y*Width+x] = (n + at(x, y)) / 2
		}
	}
}

// removeLoneTiles replaces single cells that differ from all four
// neighbours with the most common neighbouring terrain.
func removeLoneTiles(g *Grid) {
	src := g.Clone()
	for y := 0; y < Height; y++ {
		for x := 0; x < Width; x++ {
			k := src.At(x, y).Kind
			var seen [3]int // grass, forest, water
			alone := true
			for _, d := range [4][2]int{{0, -1}, {1, 0}, {0, 1}, {-1, 0}} {
				nx, ny := x+d[0], y+d[1]
				if !InBounds(nx, ny) {
					continue
				}
				nk := src.At(nx, ny).Kind
				if nk == k {
					alone = false
					break
				}
				seen[terrainIndex(nk)]++
			}
			if !alone {
				continue
			}
			best := 0
			for i := 1; i < len(seen); i++ {
				if seen[i] > seen[best] {
					best = i
				}
			}
			g.Set(x, y, Tile{Kind: [3]Kind{KindGrass, KindForest, KindWater}[best]})
		}
	}
}

func terrainIndex(k Kind) int {
	switch k {
	case KindForest:
		return 1
	case KindWater:
		return 2
	}
	return 0
}

func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}

func clampByte(v int) int {
	return min(max(v, 0), 255)
}

// TerrainCounts returns how many tiles of each kind the grid holds.
func TerrainCounts(g *Grid) map[Kind]int {
	counts := make(map[Kind]int)
	for _, t := range g.Tiles {
		counts[t.Kind]++
	}
	return counts
}
