package engine

import (
	"log/slog"

	"github.com/talgya/mini-city/internal/city"
)

const (
	// PollutionMaxLevel is the highest pollution a sensitive tile tolerates.
	PollutionMaxLevel = 128
	// PollutionWarning is the total above which the city is warned.
	PollutionWarning = 0x030000

	pollutionFull = 255 * city.Width * city.Height
)

type pollutionBuffer = [city.Width * city.Height]uint8

// simulatePollution seeds one buffer from the grid and the traffic map,
// blurs it four times and derives the totals and the Pollution requirement.
func (s *Simulation) simulatePollution() {
	a, b := &s.pollution[0], &s.pollution[1]
	for i, t := range s.Grid.Tiles {
		if t.Flags&(city.FlagRoad|city.FlagTrain) != 0 {
			a[i] = s.traffic[i]
		} else {
			a[i] = uint8(t.Density().Pollution)
		}
	}

	blurPollution(a, b)
	blurPollution(b, a)
	blurPollution(a, b)
	blurPollution(b, a)

	total := 0
	for _, v := range a {
		total += int(v)
	}
	s.pollutionTotal = total
	s.pollutionPercent = total * 100 / pollutionFull

	if total > PollutionWarning {
		slog.Debug("pollution high", "total", total, "percent", s.pollutionPercent)
		s.Messages.ShowPersistent(MsgPollutionHigh)
	}

	for i, t := range s.Grid.Tiles {
		if ignoresPollution(t.Kind.Category()) || a[i] <= PollutionMaxLevel {
			s.happy[i] |= HappyPollution
		}
	}
}

// blurPollution spreads src into dst with a five-point kernel. A tile keeps
// the weight of every neighbour that lies off the grid, so the kernel never
// creates pollution, it only moves it.
func blurPollution(src, dst *pollutionBuffer) {
	for y := 0; y < city.Height; y++ {
		for x := 0; x < city.Width; x++ {
			sum, n := 0, 0
			if y > 0 {
				sum += int(src[idx(x, y-1)])
				n++
			}
			if x < city.Width-1 {
				sum += int(src[idx(x+1, y)])
				n++
			}
			if y < city.Height-1 {
				sum += int(src[idx(x, y+1)])
				n++
			}
			if x > 0 {
				sum += int(src[idx(x-1, y)])
				n++
			}
			dst[idx(x, y)] = uint8((sum + (5-n)*int(src[idx(x, y)])) / 5)
		}
	}
}

func ignoresPollution(c city.Category) bool {
	switch c {
	case city.Field, city.Forest, city.Water, city.Industrial, city.Police,
		city.FireDept, city.Hospital, city.Airport, city.Port, city.Dock,
		city.PowerPlant, city.Radiation:
		return true
	}
	return false
}
