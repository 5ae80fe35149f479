package city

import (
	"errors"
	"testing"
)

func TestTypePacking(t *testing.T) {
	typ := MakeType(Commercial, FlagRoad|FlagPower|FlagVertical)
	if typ.Category() != Commercial {
		t.Fatalf("category = %v, want commercial", typ.Category())
	}
	if !typ.Has(FlagRoad | FlagPower) {
		t.Fatal("expected road and power flags")
	}
	if typ.HasAny(FlagTrain) {
		t.Fatal("unexpected train flag")
	}
	if Flags(typ)&FlagVertical != 0 {
		t.Fatal("orientation bit leaked into type")
	}
	if uint8(typ) != uint8(Commercial)|0x80|0x20 {
		t.Fatalf("type = %#x", uint8(typ))
	}
}

func TestTypeAtClampsOffGrid(t *testing.T) {
	g := NewGrid()
	g.Set(0, 0, Tile{Kind: KindWater})
	g.Set(Width-1, 0, Tile{Kind: KindGrass, Flags: FlagRoad})

	tests := []struct {
		name string
		x, y int
		want Type
	}{
		{"left of water corner", -1, 0, MakeType(Water, 0)},
		{"far above water corner", -5, -5, MakeType(Water, 0)},
		{"right of road drops flags", Width, 0, MakeType(Field, 0)},
		{"below grass", 10, Height + 3, MakeType(Field, 0)},
		{"in bounds keeps flags", Width - 1, 0, MakeType(Field, FlagRoad)},
	}
	for _, tt := range tests {
		if got := g.TypeAt(tt.x, tt.y); got != tt.want {
			t.Errorf("%s: TypeAt(%d,%d) = %#x, want %#x", tt.name, tt.x, tt.y, uint8(got), uint8(tt.want))
		}
	}
}

func TestDirShape(t *testing.T) {
	tests := []struct {
		d    Dir
		want Shape
	}{
		{0, ShapeStraight},
		{DirUp, ShapeStraight},
		{DirUp | DirDown, ShapeStraight},
		{DirLeft | DirRight, ShapeStraight},
		{DirUp | DirRight, ShapeCorner},
		{DirDown | DirLeft, ShapeCorner},
		{DirUp | DirRight | DirDown, ShapeTee},
		{DirUp | DirRight | DirDown | DirLeft, ShapeCross},
	}
	for _, tt := range tests {
		if got := tt.d.Shape(); got != tt.want {
			t.Errorf("Dir(%04b).Shape() = %d, want %d", tt.d, got, tt.want)
		}
	}
}

func TestPlaceAndFootprint(t *testing.T) {
	g := NewGrid()
	if err := g.CanPlace(KindPolice, 10, 10); err != nil {
		t.Fatalf("CanPlace: %v", err)
	}
	g.Place(KindPolice, 0, 10, 10)

	ox, oy, w, h := g.Footprint(12, 11)
	if ox != 10 || oy != 10 || w != 3 || h != 3 {
		t.Fatalf("footprint = (%d,%d %dx%d)", ox, oy, w, h)
	}
	if err := g.CanPlace(KindParkSmall, 11, 11); !errors.Is(err, ErrBlocked) {
		t.Fatalf("overlap: err = %v, want ErrBlocked", err)
	}
	if err := g.CanPlace(KindUniversity, Width-3, 0); !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("edge: err = %v, want ErrOutOfBounds", err)
	}
	if err := g.CanPlace(KindDock, 0, 0); !errors.Is(err, ErrNotPlaceable) {
		t.Fatalf("dock: err = %v, want ErrNotPlaceable", err)
	}
}

func TestPortClaimsDocks(t *testing.T) {
	g := NewGrid()
	for y := 0; y < Height; y++ {
		g.Set(5, y, Tile{Kind: KindWater})
	}
	if err := g.CanPlace(KindPort, 20, 20); !errors.Is(err, ErrBlocked) {
		t.Fatalf("inland port: err = %v, want ErrBlocked", err)
	}
	if err := g.CanPlace(KindPort, 6, 20); err != nil {
		t.Fatalf("CanPlace: %v", err)
	}
	g.Place(KindPort, 0, 6, 20)
	if c := CountBuildings(g); c.Ports != 1 || c.Docks != 3 {
		t.Fatalf("counts = %+v, want 1 port and 3 docks", c)
	}

	if err := g.Bulldoze(7, 21); err != nil {
		t.Fatalf("Bulldoze: %v", err)
	}
	if c := CountBuildings(g); c.Ports != 0 || c.Docks != 0 {
		t.Fatalf("after bulldoze counts = %+v", c)
	}
	if k := g.At(5, 21).Kind; k != KindWater {
		t.Fatalf("dock site = %v, want water", k)
	}
}

func TestPlaceNetwork(t *testing.T) {
	g := NewGrid()
	if err := g.PlaceNetwork(3, 3, FlagRoad); err != nil {
		t.Fatalf("road: %v", err)
	}
	if err := g.PlaceNetwork(3, 3, FlagRoad); !errors.Is(err, ErrBlocked) {
		t.Fatalf("second road: err = %v", err)
	}
	if err := g.PlaceNetwork(3, 3, FlagPower); err != nil {
		t.Fatalf("road+power: %v", err)
	}
	if err := g.PlaceNetwork(3, 3, FlagTrain); !errors.Is(err, ErrNetwork) {
		t.Fatalf("three networks: err = %v, want ErrNetwork", err)
	}
	if d := g.At(3, 3).Density(); d != (Density{Energy: 1, Fire: 12}) {
		t.Fatalf("road+power density = %+v", d)
	}
	if m := g.At(3, 3).Money(); m != 2 {
		t.Fatalf("road+power money = %d, want 2", m)
	}
}

func TestBridgeOrientation(t *testing.T) {
	g := NewGrid()
	g.Set(10, 10, Tile{Kind: KindWater})
	g.Set(10, 11, Tile{Kind: KindWater})
	if err := g.PlaceNetwork(10, 9, FlagRoad); err != nil {
		t.Fatal(err)
	}
	if err := g.PlaceNetwork(10, 10, FlagRoad); err != nil {
		t.Fatal(err)
	}
	if !g.At(10, 10).VerticalBridge() {
		t.Fatal("bridge under a north road should run vertically")
	}
	if err := g.PlaceNetwork(10, 10, FlagPower); !errors.Is(err, ErrNetwork) {
		t.Fatalf("network on bridge: err = %v", err)
	}

	g.Set(20, 20, Tile{Kind: KindWater})
	if err := g.PlaceNetwork(20, 20, FlagTrain); err != nil {
		t.Fatal(err)
	}
	if !g.At(20, 20).HorizontalBridge() {
		t.Fatal("isolated bridge should default to horizontal")
	}
	if err := g.Bulldoze(20, 20); err != nil {
		t.Fatal(err)
	}
	if g.At(20, 20) != (Tile{Kind: KindWater}) {
		t.Fatalf("bulldozed bridge = %+v", g.At(20, 20))
	}
}

func TestGrowthMasks(t *testing.T) {
	g := NewGrid()
	g.Grow(Residential, 2, 1, 4, 4)
	tests := []struct {
		x, y  int
		mask  uint8
		level int
	}{
		{4, 4, PosTL | PosTC | PosCL, 2},
		{5, 4, PosTC | PosTR | PosCR, 2},
		{4, 5, PosCL | PosBL | PosBC, 2},
		{5, 5, PosCR | PosBC | PosBR, 2},
	}
	for _, tt := range tests {
		mask, level := g.At(tt.x, tt.y).Growth()
		if mask != tt.mask || level != tt.level {
			t.Errorf("(%d,%d) growth = %08b/%d, want %08b/%d", tt.x, tt.y, mask, level, tt.mask, tt.level)
		}
	}

	if m, l := (Tile{Kind: KindZoneC}).Growth(); m != PosCC || l != 0 {
		t.Errorf("zone growth = %08b/%d", m, l)
	}
	if m, l := (Tile{Kind: KindI3, DX: 1, DY: 1}).Growth(); m != 0 || l != 3 {
		t.Errorf("3x3 growth = %08b/%d", m, l)
	}

	g.RevertToZone(5, 5)
	for _, p := range []Point{{4, 4}, {5, 4}, {4, 5}, {5, 5}} {
		if k := g.At(p.X, p.Y).Kind; k != KindZoneR {
			t.Fatalf("(%d,%d) = %v after revert, want zone", p.X, p.Y, k)
		}
	}
}

func TestCountBuildings(t *testing.T) {
	g := NewGrid()
	g.Place(KindFireDept, 0, 0, 0)
	g.Place(KindPowerNuclear, 0, 10, 0)
	g.Place(KindLibrary, 0, 20, 0)
	for x := 0; x < 8; x++ {
		if err := g.PlaceNetwork(x, 20, FlagRoad); err != nil {
			t.Fatal(err)
		}
	}
	for x := 4; x < 12; x++ {
		if err := g.PlaceNetwork(x, 20, FlagTrain); err != nil {
			t.Fatal(err)
		}
	}
	got := CountBuildings(g)
	want := BuildingCounts{FireStations: 1, NuclearPlants: 1, Libraries: 1, Roads: 8, TrainTracks: 8}
	if got != want {
		t.Fatalf("counts = %+v, want %+v", got, want)
	}
}

func TestAccountFor(t *testing.T) {
	tests := map[Category]Account{
		Field:       AccountTransport,
		Water:       AccountTransport,
		Residential: AccountRCI,
		Police:      AccountPolice,
		FireDept:    AccountFire,
		Park:        AccountHealth,
		Library:     AccountEducation,
		Stadium:     AccountOther,
		PowerPlant:  AccountOther,
	}
	for c, want := range tests {
		if got := AccountFor(c); got != want {
			t.Errorf("AccountFor(%v) = %v, want %v", c, got, want)
		}
	}
}

func TestGenerateDeterministic(t *testing.T) {
	cfg := DefaultGenConfig()
	cfg.Seed = 42
	a := Generate(cfg)
	b := Generate(cfg)
	if *a != *b {
		t.Fatal("same seed produced different maps")
	}

	counts := TerrainCounts(a)
	total := counts[KindWater] + counts[KindGrass] + counts[KindForest]
	if total != Width*Height {
		t.Fatalf("terrain counts %v do not cover the map", counts)
	}
	if counts[KindGrass] == 0 {
		t.Fatal("generated map has no buildable land")
	}

	wet := cfg
	wet.WaterOffset = 40
	if TerrainCounts(Generate(wet))[KindWater] < counts[KindWater] {
		t.Fatal("raising the water offset reduced water")
	}
}

func TestBulldozeRules(t *testing.T) {
	g := NewGrid()
	g.Set(0, 0, Tile{Kind: KindForest})
	if err := g.CanPlace(KindParkSmall, 0, 0); !errors.Is(err, ErrBlocked) {
		t.Fatalf("build on forest: %v", err)
	}
	if err := g.PlaceNetwork(1, 0, FlagRoad); err != nil {
		t.Fatal(err)
	}
	g.Set(2, 0, Tile{Kind: KindZoneR})
	g.Place(KindSchool, 0, 4, 4)

	tests := []struct {
		name string
		x, y int
		want Kind
		err  error
	}{
		{"forest", 0, 0, KindGrass, nil},
		{"road", 1, 0, KindGrass, nil},
		{"zone", 2, 0, KindGrass, nil},
		{"grass", 3, 0, KindGrass, ErrNothing},
		{"building", 5, 5, KindDemolished, nil},
		{"rubble", 4, 4, KindGrass, nil},
		{"off map", -1, 0, KindGrass, ErrOutOfBounds},
	}
	for _, tt := range tests {
		err := g.Bulldoze(tt.x, tt.y)
		if !errors.Is(err, tt.err) {
			t.Fatalf("%s: err = %v, want %v", tt.name, err, tt.err)
		}
		if tt.err == nil && g.At(tt.x, tt.y).Kind != tt.want {
			t.Fatalf("%s: left %v, want %v", tt.name, g.At(tt.x, tt.y).Kind, tt.want)
		}
	}
	// The rest of the school's footprint is rubble too.
	if g.At(6, 5).Kind != KindDemolished {
		t.Fatalf("school corner = %v", g.At(6, 5).Kind)
	}
	if err := g.CanPlace(KindParkSmall, 6, 5); err != nil {
		t.Fatalf("build on rubble: %v", err)
	}
}

func TestRevertToZone(t *testing.T) {
	g := NewGrid()
	g.Grow(Commercial, 2, 1, 10, 10)
	g.RevertToZone(11, 11)
	for y := 10; y < 12; y++ {
		for x := 10; x < 12; x++ {
			if k := g.At(x, y).Kind; k != KindZoneC {
				t.Fatalf("(%d,%d) = %v, want empty commercial zone", x, y, k)
			}
		}
	}
}
