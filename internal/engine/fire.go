package engine

import (
	"log/slog"

	"github.com/talgya/mini-city/internal/city"
)

// Disaster is the city-wide emergency state.
type Disaster uint8

const (
	DisasterNone Disaster = iota
	DisasterFire
	DisasterMeltdown
)

func (d Disaster) String() string {
	switch d {
	case DisasterFire:
		return "fire"
	case DisasterMeltdown:
		return "meltdown"
	}
	return "none"
}

const fireIgnitionTries = 10

// fireTryStart may set a random building alight. forced skips the roll.
func (s *Simulation) fireTryStart(forced bool) {
	if s.disaster != DisasterNone {
		return
	}
	stations := s.Counts.FireStations

	if !forced {
		prob := max(0, 4-stations) + 1
		if int(s.rng.Byte()) >= prob {
			return
		}
	}

	for try := 0; try < fireIgnitionTries; try++ {
		x := int(s.rng.Slow() & (city.Width - 1))
		y := int(s.rng.Slow() & (city.Height - 1))
		if s.Grid.At(x, y).Density().Fire == 0 {
			continue
		}
		s.burnBuilding(x, y)
		s.fireStations = stations
		s.disaster = DisasterFire
		s.Messages.Push(MsgFireStarted)
		s.recenter(x, y)
		slog.Info("fire started", "x", x, "y", y, "fire_stations", stations)
		return
	}
}

// burnBuilding destroys the footprint containing (x, y) and sets it on
// fire. A nuclear plant scatters radiation first.
func (s *Simulation) burnBuilding(x, y int) {
	nuclear := s.Grid.At(x, y).Kind == city.KindPowerNuclear
	ox, oy, w, h := s.Grid.Clear(x, y)
	if nuclear {
		s.spreadRadiation(ox+1, oy+1)
	}
	for dy := 0; dy < h; dy++ {
		for dx := 0; dx < w; dx++ {
			s.Grid.Set(ox+dx, oy+dy, city.Tile{Kind: city.KindFire})
		}
	}
}

// fireTick runs one tick of an active disaster: fire spreads to burnable
// neighbours, burning tiles may go out, and the disaster ends once nothing
// burns.
func (s *Simulation) fireTick() {
	s.fireMap = [city.Width * city.Height]uint8{}

	for y := 0; y < city.Height; y++ {
		for x := 0; x < city.Width; x++ {
			if s.Grid.At(x, y).Kind != city.KindFire {
				continue
			}
			for _, d := range [4]city.Point{stepUp, stepRight, stepDown, stepLeft} {
				nx, ny := x+d.X, y+d.Y
				if !city.InBounds(nx, ny) {
					continue
				}
				j := idx(nx, ny)
				s.fireMap[j] = uint8(min(int(s.fireMap[j])+s.Grid.At(nx, ny).Density().Fire, 255))
			}
		}
	}

	extinguish := min(255, 2*(s.fireStations+1))
	for y := 0; y < city.Height; y++ {
		for x := 0; x < city.Width; x++ {
			if s.Grid.At(x, y).Kind != city.KindFire {
				continue
			}
			if int(s.rng.Byte()) < extinguish {
				s.Grid.Set(x, y, city.Tile{Kind: city.KindDemolished})
			}
		}
	}

	for y := 0; y < city.Height; y++ {
		for x := 0; x < city.Width; x++ {
			p := int(s.fireMap[idx(x, y)])
			if p == 0 || s.Grid.At(x, y).Density().Fire == 0 {
				continue
			}
			if int(s.rng.Byte()) < p {
				s.burnBuilding(x, y)
			}
		}
	}

	for _, t := range s.Grid.Tiles {
		if t.Kind == city.KindFire {
			return
		}
	}
	slog.Info("fire is out", "date", s.Date.String())
	s.disaster = DisasterNone
	s.Counts = city.CountBuildings(s.Grid)
}

// ExtinguishProbability is the per-tick chance, out of 256, that one
// burning tile goes out.
func (s *Simulation) ExtinguishProbability() int {
	return min(255, 2*(s.fireStations+1))
}

func (s *Simulation) recenter(x, y int) {
	if s.OnRecenter != nil {
		s.OnRecenter(x, y)
	}
}
