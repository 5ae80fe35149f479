package city

import "fmt"

// Kind identifies what stands on a tile.
type Kind uint8

const (
	KindGrass Kind = iota
	KindForest
	KindWater
	KindDemolished

	KindZoneR
	KindZoneC
	KindZoneI

	KindPolice
	KindFireDept
	KindHospital
	KindParkSmall
	KindParkBig
	KindStadium
	KindSchool
	KindHighSchool
	KindUniversity
	KindMuseum
	KindLibrary
	KindAirport
	KindPort
	KindDock

	KindPowerCoal
	KindPowerOil
	KindPowerWind
	KindPowerSolar
	KindPowerNuclear
	KindPowerFusion

	KindR1
	KindR2
	KindR3
	KindC1
	KindC2
	KindC3
	KindI1
	KindI2
	KindI3

	KindFire
	KindRadiationGround
	KindRadiationWater

	kindCount
)

// Density holds the static attributes the simulation reads per tile.
// Population is read from a footprint's origin only.
type Density struct {
	Population int `json:"population"`
	Energy     int `json:"energy"`
	Pollution  int `json:"pollution"`
	Fire       int `json:"fire"`
}

// KindInfo is the static description of a kind.
type KindInfo struct {
	Name     string
	Category Category
	Width    int
	Height   int
	Price    int
	Level    int // growth size level; 0 for empty zones
	Density  [4]Density
	Money    [4]int
}

func same(d Density) [4]Density { return [4]Density{d, d, d, d} }
func flat(m int) [4]int         { return [4]int{m, m, m, m} }

func grown(pop [4]int, energy, pollution, fire int) [4]Density {
	var out [4]Density
	for i := range out {
		out[i] = Density{Population: pop[i], Energy: energy, Pollution: pollution, Fire: fire}
	}
	return out
}

var kinds = [kindCount]KindInfo{
	KindGrass:      {Name: "grass", Category: Field, Width: 1, Height: 1},
	KindForest:     {Name: "forest", Category: Forest, Width: 1, Height: 1, Density: same(Density{Fire: 12})},
	KindWater:      {Name: "water", Category: Water, Width: 1, Height: 1},
	KindDemolished: {Name: "demolished", Category: Field, Width: 1, Height: 1},

	KindZoneR: {Name: "zone_residential", Category: Residential, Width: 1, Height: 1, Price: 10,
		Density: same(Density{Energy: 1, Fire: 12}), Money: flat(1)},
	KindZoneC: {Name: "zone_commercial", Category: Commercial, Width: 1, Height: 1, Price: 12,
		Density: same(Density{Energy: 1, Fire: 12}), Money: flat(1)},
	KindZoneI: {Name: "zone_industrial", Category: Industrial, Width: 1, Height: 1, Price: 14,
		Density: same(Density{Energy: 1, Fire: 12}), Money: flat(1)},

	KindPolice: {Name: "police", Category: Police, Width: 3, Height: 3, Price: 500,
		Density: same(Density{9, 1, 0, 12}), Money: flat(10)},
	KindFireDept: {Name: "fire_dept", Category: FireDept, Width: 3, Height: 3, Price: 500,
		Density: same(Density{9, 1, 0, 6}), Money: flat(10)},
	KindHospital: {Name: "hospital", Category: Hospital, Width: 3, Height: 3, Price: 500,
		Density: same(Density{18, 1, 0, 12}), Money: flat(20)},
	KindParkSmall: {Name: "park_small", Category: Park, Width: 1, Height: 1, Price: 10,
		Density: same(Density{2, 1, 0, 12}), Money: flat(5)},
	KindParkBig: {Name: "park_big", Category: Park, Width: 3, Height: 3, Price: 100,
		Density: same(Density{18, 1, 0, 12}), Money: flat(5)},
	KindStadium: {Name: "stadium", Category: Stadium, Width: 5, Height: 4, Price: 5000,
		Density: same(Density{45, 20, 0, 32}), Money: flat(10)},
	KindSchool: {Name: "school", Category: School, Width: 3, Height: 2, Price: 100,
		Density: same(Density{12, 5, 0, 12}), Money: flat(5)},
	KindHighSchool: {Name: "high_school", Category: HighSchool, Width: 3, Height: 3, Price: 1000,
		Density: same(Density{18, 6, 0, 12}), Money: flat(10)},
	KindUniversity: {Name: "university", Category: University, Width: 5, Height: 5, Price: 7000,
		Density: same(Density{50, 7, 0, 12}), Money: flat(20)},
	KindMuseum: {Name: "museum", Category: Museum, Width: 4, Height: 3, Price: 3000,
		Density: same(Density{12, 6, 0, 12}), Money: flat(7)},
	KindLibrary: {Name: "library", Category: Library, Width: 3, Height: 2, Price: 500,
		Density: same(Density{6, 5, 0, 12}), Money: flat(6)},
	KindAirport: {Name: "airport", Category: Airport, Width: 5, Height: 3, Price: 10000,
		Density: same(Density{30, 10, 128, 20}), Money: flat(25)},
	KindPort: {Name: "port", Category: Port, Width: 3, Height: 3, Price: 1000,
		Density: same(Density{9, 8, 128, 20}), Money: flat(30)},
	KindDock: {Name: "dock", Category: Dock, Width: 1, Height: 1,
		Density: same(Density{0, 0, 32, 0})},

	KindPowerCoal: {Name: "power_coal", Category: PowerPlant, Width: 4, Height: 4, Price: 3000,
		Density: same(Density{16, 0, 255, 24})},
	KindPowerOil: {Name: "power_oil", Category: PowerPlant, Width: 4, Height: 4, Price: 5000,
		Density: same(Density{16, 0, 232, 24})},
	KindPowerWind: {Name: "power_wind", Category: PowerPlant, Width: 2, Height: 2, Price: 1000,
		Density: same(Density{4, 0, 0, 4})},
	KindPowerSolar: {Name: "power_solar", Category: PowerPlant, Width: 4, Height: 4, Price: 5000,
		Density: same(Density{16, 0, 0, 4})},
	KindPowerNuclear: {Name: "power_nuclear", Category: PowerPlant, Width: 4, Height: 4, Price: 10000,
		Density: same(Density{32, 0, 0, 4})},
	KindPowerFusion: {Name: "power_fusion", Category: PowerPlant, Width: 4, Height: 4, Price: 20000,
		Density: same(Density{48, 0, 0, 4})},

	KindR1: {Name: "residential_1", Category: Residential, Width: 1, Height: 1, Level: 1,
		Density: grown([4]int{6, 7, 7, 8}, 2, 0, 6), Money: [4]int{6, 7, 8, 8}},
	KindR2: {Name: "residential_2", Category: Residential, Width: 2, Height: 2, Level: 2,
		Density: grown([4]int{36, 40, 40, 40}, 3, 0, 8), Money: [4]int{10, 12, 13, 15}},
	KindR3: {Name: "residential_3", Category: Residential, Width: 3, Height: 3, Level: 3,
		Density: grown([4]int{99, 99, 99, 108}, 5, 0, 12), Money: [4]int{20, 21, 22, 24}},
	KindC1: {Name: "commercial_1", Category: Commercial, Width: 1, Height: 1, Level: 1,
		Density: grown([4]int{1, 1, 2, 2}, 2, 0, 8), Money: [4]int{8, 8, 9, 10}},
	KindC2: {Name: "commercial_2", Category: Commercial, Width: 2, Height: 2, Level: 2,
		Density: grown([4]int{8, 8, 12, 12}, 3, 0, 12), Money: [4]int{10, 12, 14, 16}},
	KindC3: {Name: "commercial_3", Category: Commercial, Width: 3, Height: 3, Level: 3,
		Density: grown([4]int{36, 36, 45, 45}, 5, 0, 16), Money: [4]int{23, 24, 25, 27}},
	KindI1: {Name: "industrial_1", Category: Industrial, Width: 1, Height: 1, Level: 1,
		Density: grown([4]int{1, 2, 2, 2}, 2, 128, 12), Money: [4]int{9, 9, 10, 11}},
	KindI2: {Name: "industrial_2", Category: Industrial, Width: 2, Height: 2, Level: 2,
		Density: grown([4]int{12, 12, 16, 16}, 6, 192, 16), Money: [4]int{14, 15, 17, 18}},
	KindI3: {Name: "industrial_3", Category: Industrial, Width: 3, Height: 3, Level: 3,
		Density: grown([4]int{45, 45, 45, 54}, 10, 255, 20), Money: [4]int{24, 26, 27, 30}},

	KindFire:            {Name: "fire", Category: Fire, Width: 1, Height: 1},
	KindRadiationGround: {Name: "radiation_ground", Category: Radiation, Width: 1, Height: 1},
	KindRadiationWater:  {Name: "radiation_water", Category: Radiation, Width: 1, Height: 1},
}

// Info returns the static description of k. Unknown kinds are a
// programming error.
func (k Kind) Info() KindInfo {
	if k >= kindCount {
		panic(fmt.Sprintf("city: unknown kind %d", uint8(k)))
	}
	return kinds[k]
}

// Valid reports whether k names a known kind.
func (k Kind) Valid() bool { return k < kindCount }

func (k Kind) Category() Category { return kinds[k].Category }
func (k Kind) String() string     { return kinds[k].Name }

// Size returns the footprint dimensions of k.
func (k Kind) Size() (w, h int) { return kinds[k].Width, kinds[k].Height }

// KindByName looks a kind up by its table name.
func KindByName(name string) (Kind, bool) {
	for k := Kind(0); k < kindCount; k++ {
		if kinds[k].Name == name {
			return k, true
		}
	}
	return 0, false
}

// ZoneKind returns the empty zone kind for a zonable category.
func ZoneKind(c Category) Kind {
	switch c {
	case Residential:
		return KindZoneR
	case Commercial:
		return KindZoneC
	case Industrial:
		return KindZoneI
	}
	panic(fmt.Sprintf("city: %s is not a zone category", c))
}

var grownKinds = map[Category][3]Kind{
	Residential: {KindR1, KindR2, KindR3},
	Commercial:  {KindC1, KindC2, KindC3},
	Industrial:  {KindI1, KindI2, KindI3},
}

// GrownKind returns the building a zone category grows into at level 1..3.
func GrownKind(c Category, level int) Kind {
	ks, ok := grownKinds[c]
	if !ok || level < 1 || level > 3 {
		panic(fmt.Sprintf("city: no %s building at level %d", c, level))
	}
	return ks[level-1]
}

// Network prices and the bulldozer fee.
const (
	PriceRoad      = 5
	PriceTrain     = 10
	PricePowerLine = 2
	PriceDemolish  = 5
)

// NetworkPrice returns the build price of one network tile.
func NetworkPrice(f Flags) int {
	switch f {
	case FlagRoad:
		return PriceRoad
	case FlagTrain:
		return PriceTrain
	case FlagPower:
		return PricePowerLine
	}
	panic(fmt.Sprintf("city: invalid network flag %#x", uint8(f)))
}

func networkDensity(t Tile) Density {
	switch {
	case t.Flags&FlagPower == 0:
		return Density{}
	case t.IsBridge():
		// Bridges never burn.
		return Density{Energy: 1}
	}
	return Density{Energy: 1, Fire: 12}
}

func networkMoney(t Tile) int {
	f := t.Flags & NetworkMask
	if t.IsBridge() {
		switch f {
		case FlagRoad:
			return 2
		case FlagTrain:
			return 4
		default:
			return 2
		}
	}
	switch f {
	case FlagRoad:
		return 1
	case FlagTrain:
		return 2
	case FlagPower:
		return 1
	case FlagRoad | FlagPower:
		return 2
	case FlagTrain | FlagRoad, FlagTrain | FlagPower:
		return 3
	}
	return 0
}
