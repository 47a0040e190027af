package veche

// PhaseType is one of the four fixed stages of a round.
type PhaseType string

const (
	PhaseResources    PhaseType = "resources"
	PhaseConstruction PhaseType = "construction"
	PhaseEvents       PhaseType = "events"
	PhaseVeche        PhaseType = "veche"
)

// Phases returns the phase cycle in order. The cycle wraps from veche back to resources.
func Phases() []PhaseType {
	return []PhaseType{PhaseResources, PhaseConstruction, PhaseEvents, PhaseVeche}
}

// BuildingType is a kind of improvement that can be raised in a region.
type BuildingType string

const (
	Mill     BuildingType = "mill"
	Workshop BuildingType = "workshop"
	Church   BuildingType = "church"
	Market   BuildingType = "market"
)

// IsBuildingType reports whether b names a known building.
func IsBuildingType(b BuildingType) bool {
	switch b {
	case Mill, Workshop, Church, Market:
		return true
	}
	return false
}

// Item is a piece of equipment a player can buy.
type Item string

const (
	Weapons Item = "weapons"
	Armor   Item = "armor"
)

// Costs of construction-phase purchases.
const (
	BuildingCost  = 2.0
	EquipmentCost = 1.0
)

// StartingMoney is each player's purse at the start of a match.
const StartingMoney = 3.0

// Player is one seat's faction and holdings.
type Player struct {
	Faction      Faction `json:"faction"`
	Money        float64 `json:"money"`
	Weapons      int     `json:"weapons"`
	Armor        int     `json:"armor"`
	Improvements int     `json:"improvements"`
}

// Region is the mutable part of a map region.
type Region struct {
	Controller Controller           `json:"controller"`
	Fortress   bool                 `json:"fortress"`
	Buildings  map[BuildingType]int `json:"buildings,omitempty"`
}

// ConstructionFlags records what a player already did in the current construction phase.
type ConstructionFlags struct {
	Built  bool `json:"built"`
	Bought bool `json:"bought"`
}

// ConstructionActions holds the per-seat construction flags.
type ConstructionActions [PlayerCount]ConstructionFlags

// NewConstructionActions returns cleared construction flags.
func NewConstructionActions() ConstructionActions {
	return ConstructionActions{}
}

// Votes is a fixed per-seat ballot. A nil slot means the seat has not voted.
type Votes[T any] [PlayerCount]*T

// Cast reports whether the seat has voted.
func (v Votes[T]) Cast(seat int) bool {
	return v[seat] != nil
}

// Count returns the number of seats that have voted.
func (v Votes[T]) Count() int {
	n := 0
	for _, b := range v {
		if b != nil {
			n++
		}
	}
	return n
}

// With returns a copy of the ballot with the seat's vote set.
func (v Votes[T]) With(seat int, value T) Votes[T] {
	v[seat] = &value
	return v
}

func (v Votes[T]) clone() Votes[T] {
	for i, b := range v {
		if b != nil {
			c := *b
			v[i] = &c
		}
	}
	return v
}

// PlanningState tags an open voting window. The zero value means no window is open.
type PlanningState string

const (
	NotPlanning PlanningState = ""
	Planning    PlanningState = "planning"
)

// GameState is a complete snapshot of a match. Transitions never modify a GameState
// in place; every mutator works on a Clone.
type GameState struct {
	Phase               PhaseType           `json:"phase"`
	Turn                int                 `json:"turn"`
	CurrentPlayer       int                 `json:"current_player"`
	Players             [PlayerCount]Player `json:"players"`
	Regions             map[RegionID]Region `json:"regions"`
	SelectedRegion      RegionID            `json:"selected_region"`
	ConstructionActions ConstructionActions `json:"construction_actions"`
	ActiveEffects       []ActiveEffect      `json:"active_effects"`

	CurrentEvent       EventID         `json:"current_event,omitempty"`
	EventVotes         Votes[OptionID] `json:"event_votes"`
	EventResolved      bool            `json:"event_resolved"`
	EventImageRevealed bool            `json:"event_image_revealed"`
	LastEventResult    string          `json:"last_event_result"`
	DebugEventIndex    int             `json:"debug_event_index"`

	AttackPlanning   PlanningState `json:"attack_planning,omitempty"`
	AttackTarget     RegionID      `json:"attack_target,omitempty"`
	AttackVotes      Votes[bool]   `json:"attack_votes"`
	FortressPlanning PlanningState `json:"fortress_planning,omitempty"`
	FortressTarget   RegionID      `json:"fortress_target,omitempty"`
	FortressVotes    Votes[bool]   `json:"fortress_votes"`
	LastVecheResult  string        `json:"last_veche_result"`
}

// NewInitialState returns the canonical starting position: turn 1, resources phase,
// every faction seated with the starting purse and the map's initial controllers.
func NewInitialState() *GameState {
	return NewInitialStateFor(StandardMap())
}

// NewInitialStateFor builds the starting position for the given map.
func NewInitialStateFor(m *Map) *GameState {
	gs := &GameState{
		Phase:               PhaseResources,
		Turn:                1,
		Regions:             make(map[RegionID]Region, len(m.Regions)),
		SelectedRegion:      m.Capital,
		ConstructionActions: NewConstructionActions(),
		ActiveEffects:       []ActiveEffect{},
		DebugEventIndex:     -1,
	}
	for i, f := range AllFactions() {
		gs.Players[i] = Player{Faction: f, Money: StartingMoney}
	}
	for id, info := range m.Regions {
		gs.Regions[id] = Region{Controller: info.InitialController}
	}
	return gs
}

// Player returns the player at the given seat.
func (gs *GameState) Player(seat int) Player {
	return gs.Players[seat]
}

// RepublicRegionCount returns the number of regions held by the Republic.
func (gs *GameState) RepublicRegionCount() int {
	count := 0
	for _, r := range gs.Regions {
		if r.Controller == Republic {
			count++
		}
	}
	return count
}

// TotalMoney returns the sum of every player's purse.
func (gs *GameState) TotalMoney() float64 {
	total := 0.0
	for _, p := range gs.Players {
		total += p.Money
	}
	return total
}

// ProposalOpen reports whether an attack or fortress window is open.
func (gs *GameState) ProposalOpen() bool {
	return gs.AttackPlanning == Planning || gs.FortressPlanning == Planning
}

// Clone returns a deep copy of the GameState. Mutations to the clone
// do not affect the original.
func (gs *GameState) Clone() *GameState {
	c := *gs
	if gs.Regions != nil {
		c.Regions = make(map[RegionID]Region, len(gs.Regions))
		for id, r := range gs.Regions {
			if r.Buildings != nil {
				b := make(map[BuildingType]int, len(r.Buildings))
				for k, v := range r.Buildings {
					b[k] = v
				}
				r.Buildings = b
			}
			c.Regions[id] = r
		}
	}
	if gs.ActiveEffects != nil {
		c.ActiveEffects = make([]ActiveEffect, len(gs.ActiveEffects))
		copy(c.ActiveEffects, gs.ActiveEffects)
	}
	c.EventVotes = gs.EventVotes.clone()
	c.AttackVotes = gs.AttackVotes.clone()
	c.FortressVotes = gs.FortressVotes.clone()
	return &c
}
