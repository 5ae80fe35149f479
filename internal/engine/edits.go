package engine

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/talgya/mini-city/internal/city"
)

// Edit rejections. A rejected edit changes nothing.
var (
	ErrBusy              = errors.New("engine: simulation is busy")
	ErrInsufficientFunds = errors.New("engine: not enough money")
	ErrTechnology        = errors.New("engine: technology not yet invented")
	ErrClass             = errors.New("engine: city is not big enough")
)

func (s *Simulation) lockEdit() error {
	if s.busy.Load() {
		return ErrBusy
	}
	s.mu.Lock()
	return nil
}

// Build places a building or zone with its top-left corner at (x, y).
func (s *Simulation) Build(k city.Kind, x, y int) error {
	if err := s.lockEdit(); err != nil {
		return err
	}
	defer s.mu.Unlock()

	if !city.Placeable(k) {
		return city.ErrNotPlaceable
	}
	if err := s.available(k); err != nil {
		return err
	}
	price := k.Info().Price
	if s.Money < price {
		return ErrInsufficientFunds
	}
	if err := s.Grid.CanPlace(k, x, y); err != nil {
		return fmt.Errorf("build %s at (%d,%d): %w", k, x, y, err)
	}
	s.Grid.Place(k, 0, x, y)
	s.Money -= price
	s.Counts = city.CountBuildings(s.Grid)
	slog.Debug("built", "kind", k.String(), "x", x, "y", y, "price", price)
	return nil
}

// BuildNetwork lays one road, rail or power line tile.
func (s *Simulation) BuildNetwork(x, y int, f city.Flags) error {
	if err := s.lockEdit(); err != nil {
		return err
	}
	defer s.mu.Unlock()

	price := city.NetworkPrice(f)
	if s.Money < price {
		return ErrInsufficientFunds
	}
	if err := s.Grid.PlaceNetwork(x, y, f); err != nil {
		return fmt.Errorf("network at (%d,%d): %w", x, y, err)
	}
	s.Money -= price
	s.Counts = city.CountBuildings(s.Grid)
	return nil
}

// Bulldoze clears (x, y) and everything sharing its footprint.
func (s *Simulation) Bulldoze(x, y int) error {
	if err := s.lockEdit(); err != nil {
		return err
	}
	defer s.mu.Unlock()

	if s.Money < city.PriceDemolish {
		return ErrInsufficientFunds
	}
	if err := s.Grid.Bulldoze(x, y); err != nil {
		return fmt.Errorf("bulldoze (%d,%d): %w", x, y, err)
	}
	s.Money -= city.PriceDemolish
	s.Counts = city.CountBuildings(s.Grid)
	return nil
}

// SetTax changes the tax rate, 0..20 percent.
func (s *Simulation) SetTax(percent int) error {
	if percent < 0 || percent > MaxTax {
		return ErrTax
	}
	if err := s.lockEdit(); err != nil {
		return err
	}
	defer s.mu.Unlock()
	s.Tax = percent
	return nil
}

// TakeLoan borrows one of the offered amounts.
func (s *Simulation) TakeLoan(amount int) error {
	payment, ok := loanOffers[amount]
	if !ok {
		return ErrLoanAmount
	}
	if err := s.lockEdit(); err != nil {
		return err
	}
	defer s.mu.Unlock()

	if s.Loan.Active() {
		return ErrLoanActive
	}
	s.Loan = Loan{Payments: LoanPayments, Amount: payment}
	s.Money += amount
	slog.Info("loan taken", "amount", amount, "payment", payment, "payments", LoanPayments)
	return nil
}

// RequestDisaster forces a disaster on the next tick. It reports false if
// one is already pending or under way.
func (s *Simulation) RequestDisaster(d Disaster) bool {
	if d == DisasterNone {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disasterRequest != DisasterNone || s.disaster != DisasterNone {
		return false
	}
	s.disasterRequest = d
	return true
}

// SetDisastersEnabled switches random disasters on or off.
func (s *Simulation) SetDisastersEnabled(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.DisastersEnabled = on
}
