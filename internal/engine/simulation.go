// Simulation ties together all city systems and runs them each tick.
package engine

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/dustin/go-humanize"

	"github.com/talgya/mini-city/internal/city"
	"github.com/talgya/mini-city/internal/entropy"
)

// Defaults for a fresh city.
const (
	DefaultMoney     = 20000
	DefaultStartYear = 1950
)

// Simulation holds the complete city state. Step runs one tick; the edit
// and read methods are safe to call from other goroutines between ticks.
type Simulation struct {
	Name  string
	Grid  *city.Grid
	Date  Date
	Money int
	Tax   int // percent, 0..20

	Technology       int
	Loan             Loan
	DisastersEnabled bool
	Ticks            uint64 // ticks simulated since the city was founded

	Counts   city.BuildingCounts
	Stats    Stats
	Demand   Demand
	Graphs   Graphs
	Messages Messages

	// OnRecenter is called with the tile a disaster started on.
	OnRecenter func(x, y int)

	mu   sync.RWMutex
	busy atomic.Bool

	rng       *entropy.Source
	firstStep bool

	disaster        Disaster
	disasterRequest Disaster
	fireStations    int // captured when the disaster started

	negativeQuarters int
	gameOver         bool
	lastBudget       Budget

	happy     HappinessMap
	power     [city.Width * city.Height]uint8
	traffic   [city.Width * city.Height]uint8
	scratch   [city.Width * city.Height]uint8
	pollution [2]pollutionBuffer
	fireMap   [city.Width * city.Height]uint8
	command   [city.Width * city.Height]uint8
	frontier  Frontier

	trafficJamPercent int
	pollutionTotal    int
	pollutionPercent  int
}

// NewSimulation creates a simulation over g. The first Step re-derives all
// maps without growing anything or advancing the calendar.
func NewSimulation(name string, g *city.Grid, rng *entropy.Source) *Simulation {
	if rng == nil {
		rng = entropy.NewSeeded()
	}
	s := &Simulation{
		Name:             name,
		Grid:             g,
		Date:             Date{Month: January, Year: DefaultStartYear},
		Money:            DefaultMoney,
		Tax:              DefaultTax,
		DisastersEnabled: true,
		rng:              rng,
		firstStep:        true,
	}
	s.Graphs.Reset()
	s.Counts = city.CountBuildings(g)
	return s
}

// Step advances the city by one month.
func (s *Simulation) Step() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy.Store(true)
	defer s.busy.Store(false)

	s.step()
}

// Busy reports whether a tick is running.
func (s *Simulation) Busy() bool { return s.busy.Load() }

func (s *Simulation) step() {
	s.Ticks++

	if s.disaster != DisasterNone {
		s.fireTick()
		return
	}

	if !s.firstStep {
		s.createBuildings()
	}

	s.happy.clear()
	s.simulatePower()
	s.simulateTraffic()
	s.simulateServices()
	s.simulatePollution()
	s.flagBuildings()
	s.updateStats()
	s.updateDemand()

	if s.firstStep {
		s.firstStep = false
	} else {
		s.Date.Step()
		if s.Date.Month == January {
			s.advanceTechnology()
			s.Messages.ResetYearly()
			slog.Info("new year",
				"city", s.Name,
				"year", s.Date.Year,
				"population", humanize.Comma(int64(s.Stats.Population)),
				"money", humanize.Comma(int64(s.Money)),
				"class", s.Stats.Class.String(),
				"technology", s.Technology,
			)
		}
		if s.Date.QuarterStart() {
			s.applyBudget(s.calculateBudget())
		}
	}

	if s.disasterRequest != DisasterNone || s.DisastersEnabled {
		s.fireTryStart(s.disasterRequest == DisasterFire)
		s.meltdownTryStart(s.disasterRequest == DisasterMeltdown)
		s.disasterRequest = DisasterNone
	}

	s.decayRadiation()
	s.recordGraphs()
}

func (s *Simulation) recordGraphs() {
	s.Graphs.Population.Add(s.Stats.Population)
	s.Graphs.Residential.Add(s.Stats.Residential)
	s.Graphs.Commercial.Add(s.Stats.Commercial)
	s.Graphs.Industrial.Add(s.Stats.Industrial)
	s.Graphs.Funds.Add(s.Money)
}
