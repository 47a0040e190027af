package veche

// Income constants: every player earns the base plus a share per Republic region
// and per own improvement, scaled by the faction's income modifier.
const (
	BaseIncome        = 0.5
	IncomePerRegion   = 0.25
	IncomePerBuilding = 0.25
)

// NextPhaseType returns the phase after p and whether the cycle wrapped to a new round.
func NextPhaseType(p PhaseType) (PhaseType, bool) {
	switch p {
	case PhaseResources:
		return PhaseConstruction, false
	case PhaseConstruction:
		return PhaseEvents, false
	case PhaseEvents:
		return PhaseVeche, false
	}
	return PhaseResources, true
}

// Income returns what the player at seat earns when the resources phase ends.
func Income(gs *GameState, seat int) float64 {
	p := gs.Players[seat]
	base := BaseIncome +
		IncomePerRegion*float64(gs.RepublicRegionCount()) +
		IncomePerBuilding*float64(p.Improvements)
	return base * IncomeModifier(gs.ActiveEffects, p.Faction)
}

// NextPhase returns a new state moved to the next phase. The exit effects of the
// phase being left run first, then the entry effects of the phase being entered.
func (e *Engine) NextPhase(gs *GameState) *GameState {
	next, wrapped := NextPhaseType(gs.Phase)
	ns := gs.Clone()

	switch gs.Phase {
	case PhaseResources:
		var income [PlayerCount]float64
		for i := range ns.Players {
			income[i] = Income(gs, i)
		}
		for i := range ns.Players {
			ns.Players[i].Money += income[i]
		}
	case PhaseConstruction:
		ns.CurrentPlayer = 0
		ns.SelectedRegion = e.m.Capital
		ns.ConstructionActions = NewConstructionActions()
	case PhaseEvents:
		clearEvent(ns)
		ns.LastEventResult = ""
	case PhaseVeche:
		ns.AttackPlanning, ns.AttackTarget, ns.AttackVotes = NotPlanning, "", Votes[bool]{}
		ns.FortressPlanning, ns.FortressTarget, ns.FortressVotes = NotPlanning, "", Votes[bool]{}
	}

	switch next {
	case PhaseEvents:
		clearEvent(ns)
		if e.deterministic {
			ns.DebugEventIndex = wrapIndex(ns.DebugEventIndex+1, e.catalog.Len())
		}
	case PhaseVeche:
		ns.LastVecheResult = ""
	case PhaseResources:
		if wrapped {
			ns.Turn++
			ns.ActiveEffects = DecayEffects(ns.ActiveEffects)
		}
	}

	ns.Phase = next
	return ns
}

func clearEvent(gs *GameState) {
	gs.CurrentEvent = ""
	gs.EventVotes = Votes[OptionID]{}
	gs.EventResolved = false
	gs.EventImageRevealed = false
}
