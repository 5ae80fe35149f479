package engine

import "github.com/talgya/mini-city/internal/city"

// Happiness is the set of requirements a tile currently has met.
type Happiness uint8

const (
	HappyPower Happiness = 1 << iota
	HappyServices
	HappyEducation
	HappyPollution
	HappyTraffic

	HappyAll = HappyPower | HappyServices | HappyEducation | HappyPollution | HappyTraffic
)

// HappinessMap holds one requirement set per tile. It is rebuilt every tick.
type HappinessMap [city.Width * city.Height]Happiness

func (h *HappinessMap) At(x, y int) Happiness { return h[idx(x, y)] }

func (h *HappinessMap) clear() {
	*h = HappinessMap{}
}

func (h Happiness) Has(f Happiness) bool { return h&f == f }

func (h Happiness) String() string {
	b := []byte("-----")
	for i, c := range "PSETR" {
		if h&(1<<i) != 0 {
			b[i] = byte(c)
		}
	}
	return string(b)
}
