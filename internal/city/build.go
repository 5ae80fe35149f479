package city

import "errors"

// Edit rejections. A rejected edit never mutates the grid.
var (
	ErrOutOfBounds  = errors.New("city: outside the map")
	ErrBlocked      = errors.New("city: site is not clear")
	ErrNetwork      = errors.New("city: networks cannot be combined there")
	ErrNothing      = errors.New("city: nothing to remove")
	ErrNotPlaceable = errors.New("city: kind cannot be placed by hand")
)

// Placeable reports whether k can be built from the build menu.
func Placeable(k Kind) bool {
	return k >= KindZoneR && k <= KindPowerFusion && k != KindDock
}

func (g *Grid) clear(x, y int) bool {
	t := g.At(x, y)
	return (t.Kind == KindGrass || t.Kind == KindDemolished) && t.Flags&NetworkMask == 0
}

// CanPlace checks that k fits with its top-left corner at (x, y).
func (g *Grid) CanPlace(k Kind, x, y int) error {
	if !Placeable(k) {
		return ErrNotPlaceable
	}
	w, h := k.Size()
	if !InBounds(x, y) || !InBounds(x+w-1, y+h-1) {
		return ErrOutOfBounds
	}
	for dy := 0; dy < h; dy++ {
		for dx := 0; dx < w; dx++ {
			if !g.clear(x+dx, y+dy) {
				return ErrBlocked
			}
		}
	}
	if k == KindPort && len(g.dockSites(x, y, w, h)) == 0 {
		return ErrBlocked
	}
	return nil
}

// Place stamps k at (x, y) without any checks. A port also claims every
// plain water cell beside it as a dock.
func (g *Grid) Place(k Kind, variant uint8, x, y int) {
	w, h := k.Size()
	g.stamp(k, variant, x, y, w, h)
	if k == KindPort {
		for _, p := range g.dockSites(x, y, w, h) {
			g.Set(p.X, p.Y, Tile{Kind: KindDock})
		}
	}
}

func (g *Grid) stamp(k Kind, variant uint8, x, y, w, h int) {
	for dy := 0; dy < h; dy++ {
		for dx := 0; dx < w; dx++ {
			g.Set(x+dx, y+dy, Tile{Kind: k, Variant: variant & 3, DX: uint8(dx), DY: uint8(dy)})
		}
	}
}

// dockSites lists the plain water cells orthogonally adjacent to a footprint.
func (g *Grid) dockSites(x, y, w, h int) []Point {
	var out []Point
	try := func(px, py int) {
		if !InBounds(px, py) {
			return
		}
		t := g.At(px, py)
		if t.Kind == KindWater && t.Flags&NetworkMask == 0 {
			out = append(out, Point{px, py})
		}
	}
	for dx := 0; dx < w; dx++ {
		try(x+dx, y-1)
		try(x+dx, y+h)
	}
	for dy := 0; dy < h; dy++ {
		try(x-1, y+dy)
		try(x+w, y+dy)
	}
	return out
}

// ownDocks lists the docks adjacent to a port footprint.
func (g *Grid) ownDocks(x, y, w, h int) []Point {
	var out []Point
	try := func(px, py int) {
		if InBounds(px, py) && g.At(px, py).Kind == KindDock {
			out = append(out, Point{px, py})
		}
	}
	for dx := 0; dx < w; dx++ {
		try(x+dx, y-1)
		try(x+dx, y+h)
	}
	for dy := 0; dy < h; dy++ {
		try(x-1, y+dy)
		try(x+w, y+dy)
	}
	return out
}

// PlaceNetwork lays a road, rail or power line on (x, y). Land accepts any
// two networks on the same tile; plain water gets a bridge oriented along
// its connected neighbours.
func (g *Grid) PlaceNetwork(x, y int, f Flags) error {
	if !InBounds(x, y) {
		return ErrOutOfBounds
	}
	t := g.At(x, y)
	switch {
	case t.Kind == KindGrass || t.Kind == KindDemolished:
		if t.Flags&f != 0 {
			return ErrBlocked
		}
		nf := t.Flags&NetworkMask | f
		if nf == NetworkMask {
			return ErrNetwork
		}
		g.Set(x, y, Tile{Kind: KindGrass, Flags: nf})
	case t.Kind == KindWater && t.Flags&NetworkMask == 0:
		nf := f
		links := g.Links(x, y, f)
		if links&(DirUp|DirDown) != 0 && links&(DirLeft|DirRight) == 0 {
			nf |= FlagVertical
		}
		g.Set(x, y, Tile{Kind: KindWater, Flags: nf})
	case t.IsBridge():
		return ErrNetwork
	default:
		return ErrBlocked
	}
	return nil
}

// Bulldoze removes whatever stands on (x, y): networks, zones, forest and
// rubble clear to grass, bridges fall back to water and buildings leave
// rubble over their whole footprint. Docks go with their port; fire and
// radiation cannot be bulldozed.
func (g *Grid) Bulldoze(x, y int) error {
	if !InBounds(x, y) {
		return ErrOutOfBounds
	}
	t := g.At(x, y)
	switch {
	case t.IsBridge():
		g.Set(x, y, Tile{Kind: KindWater})
	case t.Flags&NetworkMask != 0:
		g.Set(x, y, Tile{Kind: KindGrass})
	case t.Kind == KindForest || t.Kind == KindDemolished ||
		t.Kind == KindZoneR || t.Kind == KindZoneC || t.Kind == KindZoneI:
		g.Set(x, y, Tile{Kind: KindGrass})
	case t.Kind == KindGrass || t.Kind == KindWater || t.Kind == KindDock:
		return ErrNothing
	case t.Kind.Category() == Fire || t.Kind.Category() == Radiation:
		return ErrBlocked
	default:
		g.Clear(x, y)
	}
	return nil
}

// Clear wipes the footprint containing (x, y) to rubble and returns it.
// Bridges and docks revert to water; a port takes its docks with it.
func (g *Grid) Clear(x, y int) (ox, oy, w, h int) {
	ox, oy, w, h = g.Footprint(x, y)
	t := g.At(x, y)
	if t.Kind == KindPort {
		for _, p := range g.ownDocks(ox, oy, w, h) {
			g.Set(p.X, p.Y, Tile{Kind: KindWater})
		}
	}
	for dy := 0; dy < h; dy++ {
		for dx := 0; dx < w; dx++ {
			c := g.At(ox+dx, oy+dy)
			if c.Kind.Category() == Water || c.Kind == KindDock {
				g.Set(ox+dx, oy+dy, Tile{Kind: KindWater})
				continue
			}
			g.Set(ox+dx, oy+dy, Tile{Kind: KindDemolished})
		}
	}
	return ox, oy, w, h
}

// RevertToZone turns the grown building containing (x, y) back into empty
// zone tiles of its category.
func (g *Grid) RevertToZone(x, y int) {
	ox, oy, w, h := g.Footprint(x, y)
	zone := ZoneKind(g.At(x, y).Kind.Category())
	for dy := 0; dy < h; dy++ {
		for dx := 0; dx < w; dx++ {
			g.Set(ox+dx, oy+dy, Tile{Kind: zone})
		}
	}
}

// Grow stamps the level-sized building of category c at (x, y).
func (g *Grid) Grow(c Category, level int, variant uint8, x, y int) {
	g.stamp(GrownKind(c, level), variant, x, y, level, level)
}
