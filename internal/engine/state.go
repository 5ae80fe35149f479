package engine

import (
	"github.com/talgya/mini-city/internal/city"
	"github.com/talgya/mini-city/internal/entropy"
)

// State is everything a saved city needs to resume. The tick-scoped maps
// are re-derived by the first step after Restore, except traffic which is
// kept for display.
type State struct {
	Name             string
	Grid             city.Grid
	Date             Date
	Money            int
	Tax              int
	Technology       int
	Loan             Loan
	DisastersEnabled bool
	Ticks            uint64
	FastSeed         uint32
	SlowSeed         uint64
	Disaster         Disaster
	FireStations     int
	NegativeQuarters int
	GameOver         bool
	Graphs           Graphs
	MessagesShown    uint16
	Traffic          [city.Width * city.Height]uint8
}

// Export captures the simulation.
func (s *Simulation) Export() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return State{
		Name:             s.Name,
		Grid:             *s.Grid,
		Date:             s.Date,
		Money:            s.Money,
		Tax:              s.Tax,
		Technology:       s.Technology,
		Loan:             s.Loan,
		DisastersEnabled: s.DisastersEnabled,
		Ticks:            s.Ticks,
		FastSeed:         s.rng.FastSeed(),
		SlowSeed:         s.rng.SlowSeed(),
		Disaster:         s.disaster,
		FireStations:     s.fireStations,
		NegativeQuarters: s.negativeQuarters,
		GameOver:         s.gameOver,
		Graphs:           s.Graphs,
		MessagesShown:    s.Messages.Shown(),
		Traffic:          s.traffic,
	}
}

// Restore rebuilds a simulation from a saved state.
func Restore(st State) *Simulation {
	g := st.Grid
	s := NewSimulation(st.Name, &g, entropy.New(st.FastSeed, st.SlowSeed))
	s.Date = st.Date
	s.Money = st.Money
	s.Tax = st.Tax
	s.Technology = st.Technology
	s.Loan = st.Loan
	s.DisastersEnabled = st.DisastersEnabled
	s.Ticks = st.Ticks
	s.disaster = st.Disaster
	s.fireStations = st.FireStations
	s.negativeQuarters = st.NegativeQuarters
	s.gameOver = st.GameOver
	s.Graphs = st.Graphs
	s.Messages.SetShown(st.MessagesShown)
	s.traffic = st.Traffic
	return s
}
