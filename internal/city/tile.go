// Package city holds the 64×64 tile grid, the static building tables and the
// edit operations (zoning, networks, bulldozer) that hosts apply between ticks.
package city

import "fmt"

// Grid dimensions in tiles.
const (
	Width  = 64
	Height = 64
)

// Category is the simulation-level class of a tile. Values are stable and
// occupy the low 5 bits of a Type.
type Category uint8

const (
	Field Category = iota
	Forest
	Water
	Residential
	Industrial
	Commercial
	Police
	FireDept
	Hospital
	Park
	Stadium
	School
	HighSchool
	University
	Museum
	Library
	Airport
	Port
	Dock
	PowerPlant
	Fire
	Radiation

	categoryCount
)

var categoryNames = [categoryCount]string{
	"field", "forest", "water", "residential", "industrial", "commercial",
	"police", "fire_dept", "hospital", "park", "stadium", "school",
	"high_school", "university", "museum", "library", "airport", "port",
	"dock", "power_plant", "fire", "radiation",
}

func (c Category) String() string {
	if c >= categoryCount {
		return fmt.Sprintf("category(%d)", uint8(c))
	}
	return categoryNames[c]
}

// IsZone reports whether c is one of the three zonable categories.
func (c Category) IsZone() bool {
	return c == Residential || c == Industrial || c == Commercial
}

// Flags are per-tile connectivity bits. FlagRoad, FlagTrain and FlagPower
// share the top three bits of a Type; FlagVertical only orients bridges.
type Flags uint8

const (
	FlagVertical Flags = 1 << 0
	FlagPower    Flags = 1 << 5
	FlagTrain    Flags = 1 << 6
	FlagRoad     Flags = 1 << 7

	NetworkMask = FlagRoad | FlagTrain | FlagPower
)

// Type is a tile's category with its connectivity flags packed on top.
type Type uint8

// MakeType packs a category and network flags.
func MakeType(c Category, f Flags) Type {
	return Type(uint8(c)&0x1F | uint8(f&NetworkMask))
}

func (t Type) Category() Category { return Category(t & 0x1F) }
func (t Type) Flags() Flags       { return Flags(t) & NetworkMask }

// Has reports whether every bit of f is set.
func (t Type) Has(f Flags) bool { return Flags(t)&f == f }

// HasAny reports whether any bit of f is set.
func (t Type) HasAny(f Flags) bool { return Flags(t)&f != 0 }

// Tile is one grid cell. DX/DY locate the cell inside its building's
// footprint; the origin is the top-left cell (0, 0).
type Tile struct {
	Kind    Kind  `json:"kind"`
	Flags   Flags `json:"flags,omitempty"`
	Variant uint8 `json:"variant,omitempty"` // 0..3, cosmetic variant of grown buildings
	DX      uint8 `json:"dx,omitempty"`
	DY      uint8 `json:"dy,omitempty"`
}

// Type returns the packed category and network flags.
func (t Tile) Type() Type {
	return MakeType(t.Kind.Category(), t.Flags)
}

// IsOrigin reports whether t is the top-left cell of its footprint.
func (t Tile) IsOrigin() bool { return t.DX == 0 && t.DY == 0 }

// IsBridge reports whether t is a network crossing over water.
func (t Tile) IsBridge() bool {
	return t.Kind == KindWater && t.Flags&NetworkMask != 0
}

// VerticalBridge reports whether t is a bridge running top to bottom.
func (t Tile) VerticalBridge() bool {
	return t.IsBridge() && t.Flags&FlagVertical != 0
}

// HorizontalBridge reports whether t is a bridge running left to right.
func (t Tile) HorizontalBridge() bool {
	return t.IsBridge() && t.Flags&FlagVertical == 0
}

// Conducts reports whether power flows through t: power lines, and every
// building that consumes or produces power. Bare road and rail do not.
func (t Tile) Conducts() bool {
	if t.Flags&FlagPower != 0 {
		return true
	}
	if t.Flags&NetworkMask != 0 {
		return false
	}
	c := t.Kind.Category()
	return c >= Residential && c <= Port || c == PowerPlant
}

// Density returns the static per-tile attributes of t.
func (t Tile) Density() Density {
	if t.Flags&NetworkMask != 0 {
		return networkDensity(t)
	}
	return kinds[t.Kind].Density[t.Variant&3]
}

// Money returns the per-tile quarterly amount booked to t's account:
// income for the tax accounts, upkeep for the rest.
func (t Tile) Money() int {
	if t.Flags&NetworkMask != 0 {
		return networkMoney(t)
	}
	return kinds[t.Kind].Money[t.Variant&3]
}

// Position bits used by the growth eligibility tables. Each names the cell
// of a 3×3 footprint that a tile may occupy.
const (
	PosTL uint8 = 1 << iota
	PosTC
	PosTR
	PosCL
	PosCR
	PosBL
	PosBC
	PosBR

	PosCC uint8 = 0xFF
)

var growth2x2 = [2][2]uint8{
	{PosTL | PosTC | PosCL, PosCL | PosBL | PosBC}, // DX 0: DY 0, DY 1
	{PosTC | PosTR | PosCR, PosCR | PosBC | PosBR}, // DX 1
}

// Growth returns the position mask and size level a zone tile contributes
// to footprint tests. Empty zones are level 0 and fit anywhere; 3×3
// buildings fit nowhere.
func (t Tile) Growth() (mask uint8, level int) {
	info := &kinds[t.Kind]
	if !info.Category.IsZone() {
		return 0, 0
	}
	switch info.Level {
	case 0, 1:
		return PosCC, info.Level
	case 2:
		return growth2x2[t.DX&1][t.DY&1], 2
	default:
		return 0, info.Level
	}
}
