package veche

import "slices"

// RegionID identifies a region on the map.
type RegionID string

// RegionInfo is the static description of a region.
type RegionInfo struct {
	ID                RegionID
	Name              string
	InitialController Controller
	// Home marks the Order's permanent territory: always Order-held, never a target.
	Home bool
}

// Map holds the regions and the adjacency graph. It is read-only once built.
type Map struct {
	Regions     map[RegionID]*RegionInfo
	Adjacencies map[RegionID][]RegionID
	Capital     RegionID
	order       []RegionID
}

// RegionIDs returns all region IDs in declaration order.
func (m *Map) RegionIDs() []RegionID {
	return slices.Clone(m.order)
}

// Adjacent reports whether two regions share a border.
func (m *Map) Adjacent(a, b RegionID) bool {
	return slices.Contains(m.Adjacencies[a], b)
}

// Neighbors returns the regions bordering id.
func (m *Map) Neighbors(id RegionID) []RegionID {
	return slices.Clone(m.Adjacencies[id])
}

// IsHome reports whether id is the Order's permanent territory.
func (m *Map) IsHome(id RegionID) bool {
	info, ok := m.Regions[id]
	return ok && info.Home
}

// bordersSide reports whether id touches a region held by side.
func (m *Map) bordersSide(gs *GameState, id RegionID, side Controller) bool {
	for _, n := range m.Adjacencies[id] {
		if r, ok := gs.Regions[n]; ok && r.Controller == side {
			return true
		}
	}
	return false
}

// AttackTargets returns the Order-held regions the Republic may attack: those adjacent
// to a Republic region, excluding the Order's home territory.
func (m *Map) AttackTargets(gs *GameState) []RegionID {
	var targets []RegionID
	for _, id := range m.order {
		r, ok := gs.Regions[id]
		if !ok || r.Controller != Order || m.IsHome(id) {
			continue
		}
		if m.bordersSide(gs, id, Republic) {
			targets = append(targets, id)
		}
	}
	return targets
}

// OrderTargets returns the Republic regions exposed to an Order assault.
func (m *Map) OrderTargets(gs *GameState) []RegionID {
	var targets []RegionID
	for _, id := range m.order {
		r, ok := gs.Regions[id]
		if !ok || r.Controller != Republic {
			continue
		}
		if m.bordersSide(gs, id, Order) {
			targets = append(targets, id)
		}
	}
	return targets
}

// FortressTargets returns the Republic regions that do not have a fortress yet.
func (m *Map) FortressTargets(gs *GameState) []RegionID {
	var targets []RegionID
	for _, id := range m.order {
		r, ok := gs.Regions[id]
		if ok && r.Controller == Republic && !r.Fortress {
			targets = append(targets, id)
		}
	}
	return targets
}
