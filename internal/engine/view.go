package engine

import (
	"github.com/talgya/mini-city/internal/city"
)

// Status is a point-in-time summary of the city.
type Status struct {
	Name              string              `json:"name"`
	Date              Date                `json:"date"`
	DateText          string              `json:"date_text"`
	Ticks             uint64              `json:"ticks"`
	Money             int                 `json:"money"`
	Tax               int                 `json:"tax"`
	Technology        int                 `json:"technology"`
	Loan              Loan                `json:"loan"`
	Stats             Stats               `json:"stats"`
	ClassName         string              `json:"class_name"`
	Demand            Demand              `json:"demand"`
	Counts            city.BuildingCounts `json:"counts"`
	PollutionTotal    int                 `json:"pollution_total"`
	PollutionPercent  int                 `json:"pollution_percent"`
	TrafficJamPercent int                 `json:"traffic_jam_percent"`
	Disaster          string              `json:"disaster"`
	DisastersEnabled  bool                `json:"disasters_enabled"`
	GameOver          bool                `json:"game_over"`
}

func (s *Simulation) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Status{
		Name:              s.Name,
		Date:              s.Date,
		DateText:          s.Date.String(),
		Ticks:             s.Ticks,
		Money:             s.Money,
		Tax:               s.Tax,
		Technology:        s.Technology,
		Loan:              s.Loan,
		Stats:             s.Stats,
		ClassName:         s.Stats.Class.String(),
		Demand:            s.Demand,
		Counts:            s.Counts,
		PollutionTotal:    s.pollutionTotal,
		PollutionPercent:  s.pollutionPercent,
		TrafficJamPercent: s.trafficJamPercent,
		Disaster:          s.disaster.String(),
		DisastersEnabled:  s.DisastersEnabled,
		GameOver:          s.gameOver,
	}
}

// GameOver reports whether the treasury has failed for too long.
func (s *Simulation) GameOver() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gameOver
}

// ProjectBudget returns what the next quarter would book on the current map.
func (s *Simulation) ProjectBudget() Budget {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.calculateBudget()
}

// LastBudget returns the most recently applied quarter.
func (s *Simulation) LastBudget() Budget {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastBudget
}

// MapSnapshot returns a copy of the grid.
func (s *Simulation) MapSnapshot() *city.Grid {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Grid.Clone()
}

// Overlays are the per-tile maps a host can draw over the grid.
type Overlays struct {
	Happiness []uint8 `json:"happiness"`
	Traffic   []uint8 `json:"traffic"`
	Pollution []uint8 `json:"pollution"`
}

func (s *Simulation) Overlays() Overlays {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o := Overlays{
		Happiness: make([]uint8, len(s.happy)),
		Traffic:   append([]uint8(nil), s.traffic[:]...),
		Pollution: append([]uint8(nil), s.pollution[0][:]...),
	}
	for i, h := range s.happy {
		o.Happiness[i] = uint8(h)
	}
	return o
}

// TileInfo describes one tile and its overlays.
type TileInfo struct {
	X         int          `json:"x"`
	Y         int          `json:"y"`
	Tile      city.Tile    `json:"tile"`
	KindName  string       `json:"kind_name"`
	Category  string       `json:"category"`
	Density   city.Density `json:"density"`
	Happiness string       `json:"happiness"`
	Traffic   int          `json:"traffic"`
	Pollution int          `json:"pollution"`
}

func (s *Simulation) TileInfo(x, y int) (TileInfo, error) {
	if !city.InBounds(x, y) {
		return TileInfo{}, city.ErrOutOfBounds
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	t := s.Grid.At(x, y)
	i := idx(x, y)
	return TileInfo{
		X:         x,
		Y:         y,
		Tile:      t,
		KindName:  t.Kind.String(),
		Category:  t.Kind.Category().String(),
		Density:   t.Density(),
		Happiness: s.happy[i].String(),
		Traffic:   int(s.traffic[i]),
		Pollution: int(s.pollution[0][i]),
	}, nil
}

// HappinessAt returns the requirements met at (x, y) after the last tick.
func (s *Simulation) HappinessAt(x, y int) Happiness {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.happy.At(x, y)
}

// GraphSeries returns a copy of the history series.
func (s *Simulation) GraphSeries() Graphs {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Graphs
}

// DrainMessages hands the pending notifications to the host.
func (s *Simulation) DrainMessages() []MessageID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Messages.Drain()
}
