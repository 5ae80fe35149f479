package city

import "fmt"

// Point is a grid coordinate.
type Point struct {
	X, Y int
}

// Dir is a 4-bit set of orthogonal neighbours.
type Dir uint8

const (
	DirUp Dir = 1 << iota
	DirRight
	DirDown
	DirLeft
)

// Shape classifies a network tile by how many neighbours it links to.
type Shape uint8

const (
	ShapeStraight Shape = iota
	ShapeCorner
	ShapeTee
	ShapeCross
)

// Shape derives the network shape from a link set. Dead ends and opposite
// pairs count as straight.
func (d Dir) Shape() Shape {
	n := 0
	for b := d; b != 0; b &= b - 1 {
		n++
	}
	switch n {
	case 0, 1:
		return ShapeStraight
	case 2:
		if d == DirUp|DirDown || d == DirLeft|DirRight {
			return ShapeStraight
		}
		return ShapeCorner
	case 3:
		return ShapeTee
	}
	return ShapeCross
}

// Grid is the city map. The zero value is an all-grass city.
type Grid struct {
	Tiles [Width * Height]Tile
}

// NewGrid returns an empty grass map.
func NewGrid() *Grid {
	return &Grid{}
}

// InBounds reports whether (x, y) lies on the grid.
func InBounds(x, y int) bool {
	return x >= 0 && x < Width && y >= 0 && y < Height
}

// At returns the tile at (x, y). Off-grid access is a programming error.
func (g *Grid) At(x, y int) Tile {
	if !InBounds(x, y) {
		panic(fmt.Sprintf("city: tile (%d,%d) out of bounds", x, y))
	}
	return g.Tiles[y*Width+x]
}

// Set overwrites the tile at (x, y).
func (g *Grid) Set(x, y int, t Tile) {
	if !InBounds(x, y) {
		panic(fmt.Sprintf("city: tile (%d,%d) out of bounds", x, y))
	}
	g.Tiles[y*Width+x] = t
}

// TypeAt returns the packed type at (x, y). Off-grid queries clamp to the
// nearest tile and collapse to plain Water or Field without flags.
func (g *Grid) TypeAt(x, y int) Type {
	if InBounds(x, y) {
		return g.Tiles[y*Width+x].Type()
	}
	return MakeType(g.edge(x, y), 0)
}

// TileAndType is At and TypeAt in one call, with the same clamping. Off-grid
// tiles are reported as plain grass or water.
func (g *Grid) TileAndType(x, y int) (Tile, Type) {
	if InBounds(x, y) {
		t := g.Tiles[y*Width+x]
		return t, t.Type()
	}
	if g.edge(x, y) == Water {
		return Tile{Kind: KindWater}, MakeType(Water, 0)
	}
	return Tile{Kind: KindGrass}, MakeType(Field, 0)
}

func (g *Grid) edge(x, y int) Category {
	cx := min(max(x, 0), Width-1)
	cy := min(max(y, 0), Height-1)
	if g.Tiles[cy*Width+cx].Kind.Category() == Water {
		return Water
	}
	return Field
}

// Origin returns the top-left cell of the footprint containing (x, y).
func (g *Grid) Origin(x, y int) (int, int) {
	t := g.At(x, y)
	return x - int(t.DX), y - int(t.DY)
}

// Footprint returns the origin and size of the footprint containing (x, y).
func (g *Grid) Footprint(x, y int) (ox, oy, w, h int) {
	t := g.At(x, y)
	ox, oy = x-int(t.DX), y-int(t.DY)
	w, h = t.Kind.Size()
	return ox, oy, w, h
}

// Links returns the in-bounds neighbours of (x, y) that carry f.
func (g *Grid) Links(x, y int, f Flags) Dir {
	var d Dir
	if y > 0 && g.At(x, y-1).Flags&f != 0 {
		d |= DirUp
	}
	if x < Width-1 && g.At(x+1, y).Flags&f != 0 {
		d |= DirRight
	}
	if y < Height-1 && g.At(x, y+1).Flags&f != 0 {
		d |= DirDown
	}
	if x > 0 && g.At(x-1, y).Flags&f != 0 {
		d |= DirLeft
	}
	return d
}

// Clone returns a deep copy of the grid.
func (g *Grid) Clone() *Grid {
	c := *g
	return &c
}

// Each calls fn for every tile in raster order.
func (g *Grid) Each(fn func(x, y int, t Tile)) {
	for y := 0; y < Height; y++ {
		for x := 0; x < Width; x++ {
			fn(x, y, g.Tiles[y*Width+x])
		}
	}
}
