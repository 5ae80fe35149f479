package engine

import (
	"github.com/talgya/mini-city/internal/city"
)

// Growth commands decided at the end of one tick and executed at the start
// of the next.
const (
	cmdNone uint8 = iota
	cmdBuild
	cmdDemolish
)

type zoneRule struct {
	needed  Happiness
	desired Happiness
}

var zoneRules = map[city.Category]zoneRule{
	city.Residential: {
		needed:  HappyPower | HappyPollution | HappyTraffic,
		desired: HappyAll,
	},
	city.Commercial: {
		needed:  HappyPower | HappyServices | HappyPollution | HappyTraffic,
		desired: HappyPower | HappyPollution | HappyTraffic,
	},
	city.Industrial: {
		needed:  HappyPower | HappyServices | HappyTraffic,
		desired: HappyPower | HappyTraffic,
	},
}

// Build and demolish odds out of 256, indexed by the adjusted tax rate.
var (
	createProbability = [21]uint8{
		0xFF, 0xFF, 0xFE, 0xFE, 0xFB, 0xFB, 0xF8, 0xF8, 0xF3, 0xF3, 0xEE,
		0xEE, 0xE7, 0xE7, 0xE0, 0xE0, 0xD8, 0xD8, 0xD0, 0xD0, 0xC6,
	}
	demolishProbability = [21]uint8{
		0x04, 0x04, 0x05, 0x05, 0x07, 0x07, 0x0A, 0x0A, 0x0F, 0x0F, 0x14,
		0x14, 0x1B, 0x1B, 0x22, 0x22, 0x2A, 0x2A, 0x32, 0x32, 0x3C,
	}
)

type footprintCheck struct {
	dx, dy int
	mask   uint8
}

var (
	checks3x3 = []footprintCheck{
		{2, 2, city.PosBR}, {1, 2, city.PosBC}, {2, 1, city.PosCR},
		{0, 2, city.PosBL}, {2, 0, city.PosTR}, {1, 1, city.PosCC},
		{0, 1, city.PosCL}, {1, 0, city.PosTC}, {0, 0, city.PosTL},
	}
	checks2x2 = []footprintCheck{
		{1, 1, city.PosCR | city.PosBC | city.PosBR},
		{0, 1, city.PosCL | city.PosBL | city.PosBC},
		{1, 0, city.PosTC | city.PosTR | city.PosCR},
		{0, 0, city.PosTL | city.PosTC | city.PosCL},
	}
	checks1x1 = []footprintCheck{{0, 0, city.PosCC}}
)

// flagBuildings decides, for every zone tile, whether it should grow, hold
// or decay next tick.
func (s *Simulation) flagBuildings() {
	for i, t := range s.Grid.Tiles {
		rule, ok := zoneRules[t.Kind.Category()]
		if !ok {
			s.command[i] = cmdNone
			continue
		}
		h := s.happy[i]
		switch {
		case h&rule.desired == rule.desired:
			s.command[i] = cmdBuild
		case h&rule.needed == rule.needed:
			s.command[i] = cmdNone
		default:
			s.command[i] = cmdDemolish
		}
	}
}

// growthIndex is the tax rate pushed up by pollution and traffic.
func (s *Simulation) growthIndex() int {
	return min(s.Tax+(s.pollutionTotal>>17)+(s.trafficJamPercent>>4), len(createProbability)-1)
}

// createBuildings carries out last tick's decisions: zones grow into the
// largest building that fits, and unhappy buildings fall back to zones.
func (s *Simulation) createBuildings() {
	n := s.growthIndex()
	create, demolish := createProbability[n], demolishProbability[n]

	grown, removed := 0, 0
	for y := 0; y < city.Height; y++ {
		for x := 0; x < city.Width; x++ {
			if s.command[idx(x, y)] != cmdBuild {
				continue
			}
			if create <= s.rng.Byte() {
				continue
			}
			c := s.Grid.At(x, y).Kind.Category()
			switch {
			case x <= city.Width-3 && y <= city.Height-3 && s.footprintFits(x, y, c, 3, checks3x3):
				s.grow(x, y, c, 3)
			case x <= city.Width-2 && y <= city.Height-2 && s.footprintFits(x, y, c, 2, checks2x2):
				s.grow(x, y, c, 2)
			case s.footprintFits(x, y, c, 1, checks1x1):
				s.grow(x, y, c, 1)
			default:
				continue
			}
			grown++
		}
	}

	for y := 0; y < city.Height; y++ {
		for x := 0; x < city.Width; x++ {
			if s.command[idx(x, y)] != cmdDemolish {
				continue
			}
			t := s.Grid.At(x, y)
			if _, level := t.Growth(); level == 0 {
				continue
			}
			if demolish <= s.rng.Byte() {
				continue
			}
			ox, oy, w, h := s.Grid.Footprint(x, y)
			s.Grid.RevertToZone(x, y)
			s.clearCommands(ox, oy, w, h)
			removed++
		}
	}

	if grown > 0 || removed > 0 {
		s.Counts = city.CountBuildings(s.Grid)
	}
}

// positionTest reports whether the tile at (x, y) may become part of a new
// building of the given level occupying position mask.
func (s *Simulation) positionTest(x, y int, c city.Category, mask uint8, level int) bool {
	t := s.Grid.At(x, y)
	if t.Kind.Category() != c || s.command[idx(x, y)] != cmdBuild {
		return false
	}
	m, l := t.Growth()
	return m&mask != 0 && l < level
}

func (s *Simulation) footprintFits(x, y int, c city.Category, level int, checks []footprintCheck) bool {
	for _, ch := range checks {
		if !s.positionTest(x+ch.dx, y+ch.dy, c, ch.mask, level) {
			return false
		}
	}
	return true
}

func (s *Simulation) grow(x, y int, c city.Category, level int) {
	variant := uint8(s.rng.Slow() & 3)
	s.Grid.Grow(c, level, variant, x, y)
	s.clearCommands(x, y, level, level)
}

func (s *Simulation) clearCommands(x, y, w, h int) {
	for dy := 0; dy < h; dy++ {
		for dx := 0; dx < w; dx++ {
			s.command[idx(x+dx, y+dy)] = cmdNone
		}
	}
}
