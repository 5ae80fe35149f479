package engine

import "github.com/talgya/mini-city/internal/city"

// Coverage radii, in tiles, around a service building's centre.
const (
	ServiceRadius    = 10
	ServiceRadiusBig = 14
)

type coverage [city.Width * city.Height]bool

// simulateServices derives the Services requirement from police, fire and
// hospital coverage and the Education requirement from schools.
func (s *Simulation) simulateServices() {
	s.applyCoverage(HappyServices, false, s.coverageOf(city.KindPolice, ServiceRadius))
	s.applyCoverage(HappyServices, true, s.coverageOf(city.KindFireDept, ServiceRadius))
	s.applyCoverage(HappyServices, true, s.coverageOf(city.KindHospital, ServiceRadius))

	s.applyCoverage(HappyEducation, false, s.coverageOf(city.KindSchool, ServiceRadius))
	s.applyCoverage(HappyEducation, true, s.coverageOf(city.KindHighSchool, ServiceRadiusBig))
}

// coverageOf marks every tile within radius of a powered building of kind k.
func (s *Simulation) coverageOf(k city.Kind, radius int) *coverage {
	var cov coverage
	w, h := k.Size()
	for y := 0; y < city.Height; y++ {
		for x := 0; x < city.Width; x++ {
			t := s.Grid.At(x, y)
			if t.Kind != k || !t.IsOrigin() {
				continue
			}
			cx, cy := x+w/2, y+h/2
			if s.happy[idx(cx, cy)]&HappyPower == 0 {
				continue
			}
			for dy := -radius; dy <= radius; dy++ {
				for dx := -radius; dx <= radius; dx++ {
					if dx*dx+dy*dy > radius*radius || !city.InBounds(cx+dx, cy+dy) {
						continue
					}
					cov[idx(cx+dx, cy+dy)] = true
				}
			}
		}
	}
	return &cov
}

// applyCoverage either replaces bit with the coverage or adds to it.
func (s *Simulation) applyCoverage(bit Happiness, add bool, cov *coverage) {
	for i, on := range cov {
		switch {
		case on:
			s.happy[i] |= bit
		case !add:
			s.happy[i] &^= bit
		}
	}
}
