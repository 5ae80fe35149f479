package engine

import "github.com/talgya/mini-city/internal/city"

// Power map layout: two tick-scoped flags over a 6-bit delivered level.
const (
	powerHandled uint8 = 0x80
	powerPlant   uint8 = 0x40
	powerLevel   uint8 = 0x3F
)

// plantOutput is the power budget of each plant type by month. Thermal
// plants dip in summer, solar peaks in summer and wind in winter.
var plantOutput = map[city.Kind][12]int{
	city.KindPowerCoal:    {3000, 2950, 2900, 2850, 2800, 2750, 2750, 2800, 2850, 2900, 2950, 3000},
	city.KindPowerOil:     {2000, 1950, 1900, 1850, 1800, 1750, 1750, 1800, 1850, 1900, 1950, 2000},
	city.KindPowerWind:    {200, 180, 160, 140, 120, 100, 100, 120, 140, 160, 180, 200},
	city.KindPowerSolar:   {1000, 1200, 1400, 1600, 1800, 2000, 2000, 1800, 1600, 1400, 1200, 1000},
	city.KindPowerNuclear: {5000, 4950, 4900, 4850, 4800, 4750, 4750, 4800, 4850, 4900, 4950, 5000},
	city.KindPowerFusion:  {10000, 9500, 9000, 8500, 8000, 7500, 7500, 8000, 8500, 9000, 9500, 10000},
}

// PlantOutput returns the budget a plant of kind k delivers in month m.
func PlantOutput(k city.Kind, month int) int {
	return plantOutput[k][month%12]
}

// simulatePower floods every plant's output through conducting tiles and
// sets the Power requirement on tiles whose full cost was met.
func (s *Simulation) simulatePower() {
	s.power = [city.Width * city.Height]uint8{}

	for y := 0; y < city.Height; y++ {
		for x := 0; x < city.Width; x++ {
			t := s.Grid.At(x, y)
			if t.Kind.Category() == city.PowerPlant && t.IsOrigin() {
				s.powerPlant(x, y, t.Kind)
			}
		}
	}

	// A building is powered only as a whole.
	for y := 0; y < city.Height; y++ {
		for x := 0; x < city.Width; x++ {
			t := s.Grid.At(x, y)
			if !t.IsOrigin() || t.Flags&city.NetworkMask != 0 || !t.Conducts() {
				continue
			}
			w, h := t.Kind.Size()
			if w*h == 1 {
				continue
			}
			powered := 0
			for dy := 0; dy < h; dy++ {
				for dx := 0; dx < w; dx++ {
					if s.happy[idx(x+dx, y+dy)]&HappyPower != 0 {
						powered++
					}
				}
			}
			if powered > 0 && powered < w*h {
				for dy := 0; dy < h; dy++ {
					for dx := 0; dx < w; dx++ {
						s.happy[idx(x+dx, y+dy)] &^= HappyPower
					}
				}
			}
		}
	}
}

func (s *Simulation) powerPlant(ox, oy int, k city.Kind) {
	budget := PlantOutput(k, s.Date.Month)

	for i := range s.power {
		s.power[i] &^= powerHandled
	}
	w, h := k.Size()
	for dy := 0; dy < h; dy++ {
		for dx := 0; dx < w; dx++ {
			s.power[idx(ox+dx, oy+dy)] |= powerPlant
		}
	}

	start := city.Point{X: ox + 1, Y: oy + 1}
	if k == city.KindPowerWind {
		start = city.Point{X: ox, Y: oy}
	}
	s.frontier.Reset()
	s.frontier.Push(start)
	s.power[idx(start.X, start.Y)] |= powerHandled

	s.frontier.Drain(func(p city.Point) bool {
		i := idx(p.X, p.Y)
		t := s.Grid.At(p.X, p.Y)

		if s.power[i]&powerPlant == 0 {
			ox, oy := s.Grid.Origin(p.X, p.Y)
			cost := s.Grid.At(ox, oy).Density().Energy
			level := int(s.power[i] & powerLevel)
			needed := cost - level
			switch {
			case cost == 0 || needed <= 0:
				// Nothing to pay here; the tile just carries power on.
			case needed > budget:
				s.power[i] += uint8(budget)
				budget = 0
			default:
				s.power[i] += uint8(needed)
				budget -= needed
				s.happy[i] |= HappyPower
			}
		}
		if budget <= 0 {
			return false
		}

		vertical := !t.HorizontalBridge()
		horizontal := !t.VerticalBridge()
		if vertical {
			s.powerVisit(p, stepUp)
		}
		if horizontal {
			s.powerVisit(p, stepRight)
		}
		if vertical {
			s.powerVisit(p, stepDown)
		}
		if horizontal {
			s.powerVisit(p, stepLeft)
		}
		return true
	})
}

func (s *Simulation) powerVisit(from, step city.Point) {
	x, y := from.X+step.X, from.Y+step.Y
	if !city.InBounds(x, y) {
		return
	}
	i := idx(x, y)
	if s.power[i]&powerHandled != 0 {
		return
	}
	t := s.Grid.At(x, y)
	if !t.Conducts() {
		return
	}
	if step.Y != 0 && t.HorizontalBridge() || step.X != 0 && t.VerticalBridge() {
		return
	}
	if s.frontier.Push(city.Point{X: x, Y: y}) {
		s.power[i] |= powerHandled
	}
}
