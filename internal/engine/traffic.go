package engine

import (
	"log/slog"

	"github.com/talgya/mini-city/internal/city"
)

const (
	// TrafficMaxLevel is the congestion at which a road tile counts as jammed.
	TrafficMaxLevel = 256 / 6
	// TrafficJamWarning is the jammed share (percent) that triggers a warning.
	TrafficJamWarning = 30

	trafficCeiling = 255
)

var (
	roadCost  = [4]int{12, 15, 18, 21} // by city.Shape
	trainCost = [4]int{6, 7, 9, 10}
)

// trafficBaseCost is the cost of travelling over a network tile before the
// congestion penalty.
func (s *Simulation) trafficBaseCost(x, y int) int {
	t := s.Grid.At(x, y)
	road := t.Flags&city.FlagRoad != 0
	train := t.Flags&city.FlagTrain != 0
	power := t.Flags&city.FlagPower != 0
	switch {
	case road && train:
		return 22
	case t.IsBridge() && train:
		return 7
	case t.IsBridge():
		return 15
	case road && power:
		return 12
	case train && power:
		return 6
	case road:
		return roadCost[s.Grid.Links(x, y, city.FlagRoad).Shape()]
	default:
		return trainCost[s.Grid.Links(x, y, city.FlagTrain).Shape()]
	}
}

// simulateTraffic routes every residential building's population to job
// buildings over the road and rail network, leaving congestion on the
// tiles used and unmet demand on the buildings.
func (s *Simulation) simulateTraffic() {
	s.traffic = [city.Width * city.Height]uint8{}
	s.scratch = [city.Width * city.Height]uint8{}

	// Job buildings start with their full capacity at the origin.
	for y := 0; y < city.Height; y++ {
		for x := 0; x < city.Width; x++ {
			t := s.Grid.At(x, y)
			if !t.IsOrigin() || t.Flags&city.NetworkMask != 0 {
				continue
			}
			switch t.Kind.Category() {
			case city.Field, city.Forest, city.Water, city.Residential, city.Dock:
				continue
			}
			s.traffic[idx(x, y)] = uint8(min(t.Density().Population, trafficCeiling))
		}
	}

	for y := 0; y < city.Height; y++ {
		for x := 0; x < city.Width; x++ {
			t := s.Grid.At(x, y)
			if t.Kind.Category() == city.Residential && s.traffic[idx(x, y)] == 0 {
				s.trafficSource(x, y)
			}
		}
	}

	jams := 0
	for y := 0; y < city.Height; y++ {
		for x := 0; x < city.Width; x++ {
			i := idx(x, y)
			t := s.Grid.At(x, y)
			switch {
			case t.Flags&(city.FlagRoad|city.FlagTrain) != 0:
				if s.traffic[i] < TrafficMaxLevel {
					s.happy[i] |= HappyTraffic
				} else {
					jams++
				}
			case isOpenGround(t.Kind.Category()):
				s.happy[i] |= HappyTraffic
			default:
				ox, oy := s.Grid.Origin(x, y)
				if s.traffic[idx(ox, oy)] == 0 {
					s.happy[i] |= HappyTraffic
				}
			}
		}
	}

	s.trafficJamPercent = 0
	if n := s.Counts.Roads + s.Counts.TrainTracks; n > 0 {
		s.trafficJamPercent = jams * 100 / n
	}
	if s.trafficJamPercent > TrafficJamWarning {
		slog.Debug("traffic jammed", "percent", s.trafficJamPercent, "jammed_tiles", jams)
		s.Messages.ShowPersistent(MsgTrafficHigh)
	}
}

func isOpenGround(c city.Category) bool {
	return c == city.Field || c == city.Forest || c == city.Water || c == city.Dock
}

// trafficSource sends the population of the residential building at (x, y)
// out along the network.
func (s *Simulation) trafficSource(x, y int) {
	ox, oy, w, h := s.Grid.Footprint(x, y)
	remaining := s.Grid.At(ox, oy).Density().Population
	if remaining == 0 {
		return
	}

	for dy := 0; dy < h; dy++ {
		for dx := 0; dx < w; dx++ {
			s.traffic[idx(ox+dx, oy+dy)] = 1
		}
	}
	s.scratch = [city.Width * city.Height]uint8{}
	s.frontier.Reset()

	seed := func(px, py int) {
		if !city.InBounds(px, py) {
			return
		}
		if s.Grid.At(px, py).Flags&(city.FlagRoad|city.FlagTrain) == 0 {
			return
		}
		s.scratch[idx(px, py)] = 1
		s.frontier.Push(city.Point{X: px, Y: py})
	}
	for dx := 0; dx < w; dx++ {
		seed(ox+dx, oy-1)
	}
	for dx := 0; dx < w; dx++ {
		seed(ox+dx, oy+h)
	}
	for dy := 0; dy < h; dy++ {
		seed(ox-1, oy+dy)
	}
	for dy := 0; dy < h; dy++ {
		seed(ox+w, oy+dy)
	}

	s.frontier.Drain(func(p city.Point) bool {
		t := s.Grid.At(p.X, p.Y)
		if t.Flags&(city.FlagRoad|city.FlagTrain) != 0 {
			s.trafficExpand(p, remaining)
			return true
		}

		// A job building: take what it can still absorb.
		bx, by := s.Grid.Origin(p.X, p.Y)
		bi := idx(bx, by)
		avail := int(s.traffic[bi])
		if avail == 0 {
			return true
		}
		spent := min(avail, remaining)
		s.traffic[bi] -= uint8(spent)
		remaining -= spent
		s.trafficRetrace(p.X, p.Y, spent)
		return remaining > 0
	})

	s.traffic[idx(ox, oy)] = uint8(remaining)
}

// trafficExpand relaxes the neighbours of a network tile.
func (s *Simulation) trafficExpand(p city.Point, remaining int) {
	i := idx(p.X, p.Y)
	if int(s.traffic[i])+remaining > trafficCeiling {
		return
	}
	step := s.trafficBaseCost(p.X, p.Y) + int(s.traffic[i])>>4
	acc := int(s.scratch[i]) + step
	if acc > trafficCeiling {
		return
	}

	for _, d := range [4]city.Point{stepUp, stepRight, stepDown, stepLeft} {
		x, y := p.X+d.X, p.Y+d.Y
		if !city.InBounds(x, y) {
			continue
		}
		j := idx(x, y)
		if s.scratch[j] > 0 && int(s.scratch[j]) < acc {
			continue
		}
		t := s.Grid.At(x, y)
		switch c := t.Kind.Category(); c {
		case city.Residential, city.Dock:
			continue
		case city.Field, city.Forest, city.Water:
			if t.Flags&(city.FlagRoad|city.FlagTrain) == 0 {
				continue
			}
			if s.frontier.Push(city.Point{X: x, Y: y}) {
				s.scratch[j] = uint8(acc)
			}
		default:
			s.frontier.Push(city.Point{X: x, Y: y})
		}
	}
}

// trafficRetrace walks back from a reached building towards the source,
// always stepping to the neighbour with the lowest recorded cost (ties go
// up, down, left, right) and loading every network tile it crosses.
func (s *Simulation) trafficRetrace(x, y, amount int) {
	cost := func(cx, cy int) int {
		if !city.InBounds(cx, cy) {
			return trafficCeiling
		}
		if c := int(s.scratch[idx(cx, cy)]); c != 0 {
			return c
		}
		return trafficCeiling
	}

	for steps := 0; steps < city.Width*city.Height; steps++ {
		i := idx(x, y)
		if s.Grid.At(x, y).Flags&(city.FlagRoad|city.FlagTrain) != 0 {
			s.traffic[i] = uint8(min(int(s.traffic[i])+amount, trafficCeiling))
		}
		if s.scratch[i] == 1 {
			return
		}

		best, bx, by := trafficCeiling, -1, -1
		for _, d := range [4]city.Point{stepUp, stepDown, stepLeft, stepRight} {
			if c := cost(x+d.X, y+d.Y); c < best {
				best, bx, by = c, x+d.X, y+d.Y
			}
		}
		if bx < 0 {
			return
		}
		x, y = bx, by
	}
}
