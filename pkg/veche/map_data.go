package veche

import "sync"

// Regions of the standard map.
const (
	Novgorod RegionID = "novgorod"
	Ladoga   RegionID = "ladoga"
	Rusa     RegionID = "rusa"
	Pskov    RegionID = "pskov"
	Koporye  RegionID = "koporye"
	Izborsk  RegionID = "izborsk"
	Narva    RegionID = "narva"
	Livonia  RegionID = "livonia"
)

// RegionCount is the number of regions on the standard map.
const RegionCount = 8

var (
	stdMapOnce sync.Once
	stdMapInst *Map
)

// StandardMap returns the 8-region map of the Novgorod frontier. The map is built
// once and cached; callers must not mutate it.
func StandardMap() *Map {
	stdMapOnce.Do(func() {
		stdMapInst = buildStandardMap()
	})
	return stdMapInst
}

func buildStandardMap() *Map {
	m := &Map{
		Regions:     make(map[RegionID]*RegionInfo, RegionCount),
		Adjacencies: make(map[RegionID][]RegionID, RegionCount),
		Capital:     Novgorod,
	}

	region := func(id RegionID, name string, c Controller, home bool) {
		m.Regions[id] = &RegionInfo{ID: id, Name: name, InitialController: c, Home: home}
		m.order = append(m.order, id)
	}

	// addAdj adds a bidirectional border.
	addAdj := func(a, b RegionID) {
		m.Adjacencies[a] = append(m.Adjacencies[a], b)
		m.Adjacencies[b] = append(m.Adjacencies[b], a)
	}

	region(Novgorod, "Novgorod", Republic, false)
	region(Ladoga, "Ladoga", Republic, false)
	region(Rusa, "Staraya Russa", Republic, false)
	region(Pskov, "Pskov", Republic, false)
	region(Koporye, "Koporye", Republic, false)
	region(Izborsk, "Izborsk", Order, false)
	region(Narva, "Narva", Order, false)
	region(Livonia, "Livonia", Order, true)

	addAdj(Novgorod, Ladoga)
	addAdj(Novgorod, Rusa)
	addAdj(Novgorod, Pskov)
	addAdj(Novgorod, Koporye)
	addAdj(Ladoga, Koporye)
	addAdj(Koporye, Narva)
	addAdj(Pskov, Rusa)
	addAdj(Pskov, Izborsk)
	addAdj(Pskov, Narva)
	addAdj(Izborsk, Livonia)
	addAdj(Narva, Livonia)

	return m
}
