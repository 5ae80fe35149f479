package engine

import (
	"log/slog"

	"github.com/talgya/mini-city/internal/city"
)

const radiationDraws = 16

// meltdownTryStart may blow up a nuclear plant. forced always picks the
// first plant in raster order.
func (s *Simulation) meltdownTryStart(forced bool) {
	if s.disaster != DisasterNone || s.Counts.NuclearPlants == 0 {
		return
	}

	target := 0
	if !forced {
		target = -1
		for i := 0; i < s.Counts.NuclearPlants; i++ {
			if s.rng.Byte() == 0 {
				target = i
				break
			}
		}
		if target < 0 {
			return
		}
		if s.rng.Slow()&7 != 0 {
			return
		}
	}

	x, y, ok := s.nthNuclearPlant(target)
	if !ok {
		return
	}
	s.burnBuilding(x, y)
	s.fireStations = s.Counts.FireStations
	s.disaster = DisasterMeltdown
	s.Messages.Push(MsgNuclearMeltdown)
	s.recenter(x+1, y+1)
	slog.Warn("nuclear meltdown", "x", x, "y", y)
}

func (s *Simulation) nthNuclearPlant(n int) (int, int, bool) {
	for y := 0; y < city.Height; y++ {
		for x := 0; x < city.Width; x++ {
			t := s.Grid.At(x, y)
			if t.Kind != city.KindPowerNuclear || !t.IsOrigin() {
				continue
			}
			if n == 0 {
				return x, y, true
			}
			n--
		}
	}
	return 0, 0, false
}

// spreadRadiation contaminates up to 16 random tiles in the 16×16 box
// starting 8 tiles up and left of (cx, cy).
func (s *Simulation) spreadRadiation(cx, cy int) {
	for i := 0; i < radiationDraws; i++ {
		r := s.rng.Slow()
		x := cx + int(r&15) - 8
		y := cy + int((r>>4)&15) - 8
		if !city.InBounds(x, y) {
			continue
		}
		t := s.Grid.At(x, y)
		if t.Kind.Category() == city.Radiation {
			continue
		}
		if t.Density().Fire > 0 {
			s.burnBuilding(x, y)
			t = s.Grid.At(x, y)
		}
		if t.Kind.Category() == city.Water || t.Kind == city.KindDock {
			s.Grid.Set(x, y, city.Tile{Kind: city.KindRadiationWater})
		} else {
			s.Grid.Set(x, y, city.Tile{Kind: city.KindRadiationGround})
		}
	}
}

// decayRadiation lets each contaminated tile recover with chance 1/256.
func (s *Simulation) decayRadiation() {
	for y := 0; y < city.Height; y++ {
		for x := 0; x < city.Width; x++ {
			switch s.Grid.At(x, y).Kind {
			case city.KindRadiationGround:
				if s.rng.Byte() == 0 {
					s.Grid.Set(x, y, city.Tile{Kind: city.KindGrass})
				}
			case city.KindRadiationWater:
				if s.rng.Byte() == 0 {
					s.Grid.Set(x, y, city.Tile{Kind: city.KindWater})
				}
			}
		}
	}
}
