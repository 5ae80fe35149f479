package engine

import (
	"log/slog"

	"github.com/talgya/mini-city/internal/city"
)

// Technology levels at which new plants unlock.
const (
	TechNuclear = 10
	TechFusion  = 40
	TechMax     = 40

	// techFailure is the chance, out of 256, that a breakthrough year fails.
	techFailure = 70
)

// advanceTechnology gives every university one research attempt.
func (s *Simulation) advanceTechnology() {
	for i := 0; i < s.Counts.Universities; i++ {
		if s.Technology >= TechMax {
			return
		}
		next := s.Technology + 1
		if next != TechNuclear && next != TechFusion {
			s.Technology = next
			continue
		}
		if s.rng.Byte() < techFailure {
			continue
		}
		s.Technology = next
		slog.Info("technology breakthrough", "level", next)
		if next == TechNuclear {
			s.Messages.ShowPersistent(MsgTechNuclear)
		} else {
			s.Messages.ShowPersistent(MsgTechFusion)
		}
	}
}

// available checks the unlock requirements of a kind.
func (s *Simulation) available(k city.Kind) error {
	switch k {
	case city.KindPowerNuclear:
		if s.Technology < TechNuclear {
			return ErrTechnology
		}
	case city.KindPowerFusion:
		if s.Technology < TechFusion {
			return ErrTechnology
		}
	case city.KindStadium, city.KindPort, city.KindAirport:
		if s.Stats.Class < ClassCity {
			return ErrClass
		}
	}
	return nil
}
