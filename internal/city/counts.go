package city

// BuildingCounts summarises the buildings whose presence gates features,
// plus the network tile totals used by the traffic report.
type BuildingCounts struct {
	Airports      int `json:"airports"`
	Ports         int `json:"ports"`
	Docks         int `json:"docks"`
	FireStations  int `json:"fire_stations"`
	NuclearPlants int `json:"nuclear_plants"`
	Universities  int `json:"universities"`
	Stadiums      int `json:"stadiums"`
	Museums       int `json:"museums"`
	Libraries     int `json:"libraries"`
	Roads         int `json:"roads"`
	TrainTracks   int `json:"train_tracks"`
}

// CountBuildings scans the whole grid.
func CountBuildings(g *Grid) BuildingCounts {
	var c BuildingCounts
	g.Each(func(x, y int, t Tile) {
		if t.Flags&NetworkMask != 0 {
			if t.Flags&FlagRoad != 0 {
				c.Roads++
			}
			if t.Flags&FlagTrain != 0 {
				c.TrainTracks++
			}
			return
		}
		if !t.IsOrigin() {
			return
		}
		switch t.Kind {
		case KindAirport:
			c.Airports++
		case KindPort:
			c.Ports++
		case KindDock:
			c.Docks++
		case KindFireDept:
			c.FireStations++
		case KindPowerNuclear:
			c.NuclearPlants++
		case KindUniversity:
			c.Universities++
		case KindStadium:
			c.Stadiums++
		case KindMuseum:
			c.Museums++
		case KindLibrary:
			c.Libraries++
		}
	})
	return c
}
