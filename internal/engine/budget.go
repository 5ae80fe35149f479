package engine

import (
	"errors"
	"log/slog"

	"github.com/dustin/go-humanize"

	"github.com/talgya/mini-city/internal/city"
)

// Tax limits, in percent. 20% collects the full listed rate.
const (
	DefaultTax = 10
	MaxTax     = 20
)

// GameOverQuarters is how many broke quarters in a row end the game.
const GameOverQuarters = 4

// Budget is one quarter's ledger. Incomes and expenses are positive.
type Budget struct {
	RCI         int `json:"rci"`
	Other       int `json:"other"`
	Police      int `json:"police"`
	Fire        int `json:"fire"`
	Health      int `json:"health"`
	Education   int `json:"education"`
	Transport   int `json:"transport"`
	LoanPayment int `json:"loan_payment"`
	Result      int `json:"result"`
}

// Loan is an outstanding bank loan repaid in equal quarterly payments.
type Loan struct {
	Payments int `json:"payments"` // quarters left
	Amount   int `json:"amount"`   // per quarter
}

func (l Loan) Active() bool { return l.Payments > 0 }

// Loan offers. Both are repaid over LoanPayments quarters.
const LoanPayments = 21

var loanOffers = map[int]int{
	10000: 500,
	20000: 1000,
}

var (
	ErrLoanActive = errors.New("engine: a loan is already being repaid")
	ErrLoanAmount = errors.New("engine: no loan offered for that amount")
	ErrTax        = errors.New("engine: tax rate out of range")
)

// calculateBudget books every tile's money to its account and scales the
// tax accounts by the tax rate. It does not touch any state.
func (s *Simulation) calculateBudget() Budget {
	var acc [city.AccountCount]int
	for _, t := range s.Grid.Tiles {
		acc[city.AccountFor(t.Kind.Category())] += t.Money()
	}

	b := Budget{
		RCI:       acc[city.AccountRCI] * s.Tax / MaxTax,
		Other:     acc[city.AccountOther] * s.Tax / MaxTax,
		Police:    acc[city.AccountPolice],
		Fire:      acc[city.AccountFire],
		Health:    acc[city.AccountHealth],
		Education: acc[city.AccountEducation],
		Transport: acc[city.AccountTransport],
	}
	if s.Loan.Active() {
		b.LoanPayment = s.Loan.Amount
	}
	b.Result = b.RCI + b.Other - b.Police - b.Fire - b.Health - b.Education - b.Transport - b.LoanPayment
	return b
}

// applyBudget settles a quarter against the treasury.
func (s *Simulation) applyBudget(b Budget) {
	s.Money += b.Result
	s.lastBudget = b

	if s.Loan.Active() {
		s.Loan.Payments--
		if !s.Loan.Active() {
			s.Loan = Loan{}
			s.Messages.Push(MsgLoanFinished)
		}
	}

	if s.Money > 0 || b.Result > 0 {
		s.negativeQuarters = 0
	} else {
		s.negativeQuarters++
		switch {
		case s.negativeQuarters >= GameOverQuarters:
			if !s.gameOver {
				s.Messages.Push(MsgGameOver)
				s.Messages.Push(MsgGameOverFarewell)
				slog.Warn("game over", "date", s.Date.String(), "money", humanize.Comma(int64(s.Money)))
			}
			s.gameOver = true
		case s.Loan.Active():
			s.Messages.ShowPersistent(MsgMoneyNegativeCantLoan)
		default:
			s.Messages.ShowPersistent(MsgMoneyNegativeCanLoan)
		}
	}

	slog.Info("quarterly budget",
		"date", s.Date.String(),
		"result", humanize.Comma(int64(b.Result)),
		"money", humanize.Comma(int64(s.Money)),
		"tax", s.Tax,
	)
}
