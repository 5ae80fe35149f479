package engine

import (
	"testing"

	"github.com/talgya/mini-city/internal/city"
)

func TestForcedMeltdown(t *testing.T) {
	s := newTestSim(t)
	s.Grid.Place(city.KindPowerNuclear, 0, 30, 30)
	s.Counts = city.CountBuildings(s.Grid)

	var cx, cy int
	s.OnRecenter = func(x, y int) { cx, cy = x, y }

	s.meltdownTryStart(true)

	if s.disaster != DisasterMeltdown {
		t.Fatalf("disaster = %v", s.disaster)
	}
	if cx != 31 || cy != 31 {
		t.Fatalf("recentered on (%d,%d)", cx, cy)
	}
	for y := 30; y < 34; y++ {
		for x := 30; x < 34; x++ {
			if k := s.Grid.At(x, y).Kind; k != city.KindFire {
				t.Fatalf("plant tile (%d,%d) = %v, want fire", x, y, k)
			}
		}
	}

	radiation := 0
	for y := 0; y < city.Height; y++ {
		for x := 0; x < city.Width; x++ {
			if s.Grid.At(x, y).Kind.Category() != city.Radiation {
				continue
			}
			radiation++
			if x < 23 || x > 38 || y < 23 || y > 38 {
				t.Fatalf("radiation at (%d,%d) outside the fallout box", x, y)
			}
		}
	}
	if radiation < 1 || radiation > radiationDraws {
		t.Fatalf("%d radiation tiles", radiation)
	}

	if got := s.ExtinguishProbability(); got != 2 {
		t.Fatalf("extinguish probability = %d, want 2 with no fire stations", got)
	}
	if msgs := s.Messages.Drain(); len(msgs) != 1 || msgs[0] != MsgNuclearMeltdown {
		t.Fatalf("messages = %v", msgs)
	}

	for i := 0; i < 5000 && s.disaster != DisasterNone; i++ {
		s.fireTick()
	}
	if s.disaster != DisasterNone {
		t.Fatal("fire still burning after 5000 ticks")
	}
	if s.Counts.NuclearPlants != 0 {
		t.Fatalf("counts not refreshed: %+v", s.Counts)
	}
}

func TestForcedMeltdownWithoutPlant(t *testing.T) {
	s := newTestSim(t)
	s.meltdownTryStart(true)
	if s.disaster != DisasterNone {
		t.Fatal("meltdown without a nuclear plant")
	}
}

func TestForcedFireSpreadsThroughForest(t *testing.T) {
	s := newTestSim(t)
	for y := 0; y < city.Height; y++ {
		for x := 0; x < city.Width; x++ {
			s.Grid.Set(x, y, city.Tile{Kind: city.KindForest})
		}
	}
	recentered := false
	s.OnRecenter = func(int, int) { recentered = true }

	s.fireTryStart(true)

	if s.disaster != DisasterFire || !recentered {
		t.Fatalf("disaster = %v, recentered = %v", s.disaster, recentered)
	}
	if s.Messages.Pending() != 1 {
		t.Fatalf("pending messages = %d", s.Messages.Pending())
	}

	for i := 0; i < 100 && s.disaster != DisasterNone; i++ {
		s.fireTick()
	}
	for i, tile := range s.Grid.Tiles {
		switch tile.Kind {
		case city.KindForest, city.KindFire, city.KindDemolished:
		default:
			t.Fatalf("tile %d became %v", i, tile.Kind)
		}
	}
}

func TestFireNeedsSomethingToBurn(t *testing.T) {
	s := newTestSim(t)
	for i := 0; i < 20; i++ {
		s.fireTryStart(true)
	}
	if s.disaster != DisasterNone {
		t.Fatal("fire started on bare grass")
	}
}

func TestFireStationsRaiseExtinguishOdds(t *testing.T) {
	s := newTestSim(t)
	for y := 0; y < city.Height; y++ {
		for x := 0; x < city.Width; x++ {
			s.Grid.Set(x, y, city.Tile{Kind: city.KindForest})
		}
	}
	s.Grid.Place(city.KindFireDept, 0, 0, 0)
	s.Grid.Place(city.KindFireDept, 0, 10, 0)
	s.Counts = city.CountBuildings(s.Grid)

	s.fireTryStart(true)
	if s.disaster != DisasterFire {
		t.Fatal("nothing caught fire in a forest")
	}
	if got := s.ExtinguishProbability(); got != 6 {
		t.Fatalf("extinguish probability = %d, want 6", got)
	}
}

func TestRequestDisasterOnce(t *testing.T) {
	s := newTestSim(t)
	if s.RequestDisaster(DisasterNone) {
		t.Fatal("accepted a request for no disaster")
	}
	if !s.RequestDisaster(DisasterFire) {
		t.Fatal("first request rejected")
	}
	if s.RequestDisaster(DisasterMeltdown) {
		t.Fatal("second request accepted while one is pending")
	}

	s.Step()
	if s.disasterRequest != DisasterNone {
		t.Fatal("request not consumed")
	}
}

func TestRadiationDecays(t *testing.T) {
	s := newTestSim(t)
	s.Grid.Set(1, 1, city.Tile{Kind: city.KindRadiationGround})
	s.Grid.Set(2, 2, city.Tile{Kind: city.KindRadiationWater})
	for i := 0; i < 10000; i++ {
		s.decayRadiation()
		if s.Grid.At(1, 1).Kind == city.KindGrass && s.Grid.At(2, 2).Kind == city.KindWater {
			return
		}
	}
	t.Fatalf("radiation left: %v, %v", s.Grid.At(1, 1).Kind, s.Grid.At(2, 2).Kind)
}
