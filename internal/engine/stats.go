package engine

import (
	"log/slog"

	"github.com/talgya/mini-city/internal/city"
)

// Class is the city's size class.
type Class uint8

const (
	ClassVillage Class = iota
	ClassTown
	ClassCity
	ClassMetropolis
	ClassCapital
)

var classNames = [...]string{"village", "town", "city", "metropolis", "capital"}

func (c Class) String() string {
	if int(c) < len(classNames) {
		return classNames[c]
	}
	return "unknown"
}

// Population thresholds per class.
const (
	townPopulation       = 500
	cityPopulation       = 1000
	metropolisPopulation = 3000
	capitalPopulation    = 6000
)

var classMessages = map[Class]MessageID{
	ClassTown:       MsgClassTown,
	ClassCity:       MsgClassCity,
	ClassMetropolis: MsgClassMetropolis,
	ClassCapital:    MsgClassCapital,
}

// Stats are the population figures recomputed every tick.
type Stats struct {
	Population  int   `json:"population"`
	Residential int   `json:"residential"`
	Commercial  int   `json:"commercial"`
	Industrial  int   `json:"industrial"`
	Other       int   `json:"other"`
	Class       Class `json:"class"`
}

// Demand is how much each zone type wants to expand, 0..7.
type Demand struct {
	Residential int `json:"residential"`
	Commercial  int `json:"commercial"`
	Industrial  int `json:"industrial"`
}

func (s *Simulation) updateStats() {
	var st Stats
	for y := 0; y < city.Height; y++ {
		for x := 0; x < city.Width; x++ {
			t := s.Grid.At(x, y)
			if !t.IsOrigin() || t.Flags&city.NetworkMask != 0 {
				continue
			}
			pop := t.Density().Population
			switch t.Kind.Category() {
			case city.Field, city.Forest, city.Water, city.Dock:
				continue
			case city.Residential:
				st.Residential += pop
			case city.Commercial:
				st.Commercial += pop
			case city.Industrial:
				st.Industrial += pop
			default:
				st.Other += pop
			}
		}
	}
	st.Population = st.Residential + st.Commercial + st.Industrial + st.Other
	st.Class = classFor(st.Population, s.Counts)

	if st.Class > s.Stats.Class {
		slog.Info("city class up", "class", st.Class.String(), "population", st.Population)
		if id, ok := classMessages[st.Class]; ok {
			s.Messages.ShowPersistent(id)
		}
	}
	s.Stats = st
}

func classFor(pop int, c city.BuildingCounts) Class {
	class := ClassVillage
	if pop >= townPopulation {
		class = ClassTown
	}
	if class == ClassTown && pop >= cityPopulation && c.Libraries > 0 {
		class = ClassCity
	}
	if class == ClassCity && pop >= metropolisPopulation &&
		c.Stadiums > 0 && c.Universities > 0 && c.Museums > 0 {
		class = ClassMetropolis
	}
	if class == ClassMetropolis && pop >= capitalPopulation && c.Airports > 0 && c.Ports > 0 {
		class = ClassCapital
	}
	return class
}

// updateDemand measures how much of each zone type is built up.
func (s *Simulation) updateDemand() {
	var used, empty [3]int
	slot := map[city.Category]int{city.Residential: 0, city.Commercial: 1, city.Industrial: 2}
	for _, t := range s.Grid.Tiles {
		i, ok := slot[t.Kind.Category()]
		if !ok {
			continue
		}
		if _, level := t.Growth(); level == 0 {
			empty[i]++
		} else {
			used[i]++
		}
	}
	d := [3]int{}
	for i := range d {
		d[i] = demandFor(used[i], empty[i])
	}
	s.Demand = Demand{Residential: d[0], Commercial: d[1], Industrial: d[2]}
}

func demandFor(used, empty int) int {
	if used+empty == 0 {
		return 7
	}
	ratio := min(0xFFFF, (used<<16)/(used+empty))
	return 7 - ratio>>13
}
