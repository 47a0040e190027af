package veche

import "testing"

// stateIn returns the initial state moved directly to the given phase.
func stateIn(phase PhaseType) *GameState {
	gs := NewInitialState()
	gs.Phase = phase
	return gs
}

// mustApply applies an action and fails the test on rejection.
func mustApply(t *testing.T, e *Engine, gs *GameState, a Action, player int, rv RandomValues) (*GameState, *Result) {
	t.Helper()
	ns, res, err := e.Apply(gs, a, player, rv)
	if err != nil {
		t.Fatalf("%s by seat %d: %v", a.Type, player, err)
	}
	return ns, res
}

// codeOf extracts the error code of an action error.
func codeOf(err error) ErrorCode {
	if ae, ok := err.(*ActionError); ok {
		return ae.Code
	}
	return ""
}

func yes() *bool { v := true; return &v }
func no() *bool  { v := false; return &v }

// fixedSource returns a Source that always yields v.
func fixedSource(v float64) Source {
	return func() float64 { return v }
}

// --- State model ---

func TestInitialStateSetup(t *testing.T) {
	gs := NewInitialState()
	if gs.Turn != 1 {
		t.Errorf("expected turn 1, got %d", gs.Turn)
	}
	if gs.Phase != PhaseResources {
		t.Errorf("expected resources phase, got %s", gs.Phase)
	}
	if len(gs.Regions) != RegionCount {
		t.Errorf("expected %d regions, got %d", RegionCount, len(gs.Regions))
	}
	if gs.SelectedRegion != Novgorod {
		t.Errorf("expected capital selected, got %s", gs.SelectedRegion)
	}
	for i, f := range AllFactions() {
		p := gs.Players[i]
		if p.Faction != f {
			t.Errorf("seat %d: expected %s, got %s", i, f, p.Faction)
		}
		if p.Money != StartingMoney {
			t.Errorf("seat %d: expected money %v, got %v", i, StartingMoney, p.Money)
		}
	}
	if gs.RepublicRegionCount() != 5 {
		t.Errorf("expected 5 Republic regions, got %d", gs.RepublicRegionCount())
	}
	if gs.Regions[Livonia].Controller != Order {
		t.Error("Livonia should start under the Order")
	}
	if gs.ProposalOpen() {
		t.Error("no proposal should be open at start")
	}
}

func TestFullMusterIs110(t *testing.T) {
	gs := NewInitialState()
	if got := MusterStrength(gs, []int{0, 1, 2}); got != 110 {
		t.Errorf("expected full muster 110, got %v", got)
	}
}

func TestGameState_Clone_Independent(t *testing.T) {
	gs := NewInitialState()
	gs.Regions[Novgorod] = Region{Controller: Republic, Buildings: map[BuildingType]int{Mill: 1}}
	gs.ActiveEffects = []ActiveEffect{{Type: EffectIncome, Target: TargetAll, Value: 0.1, TurnsRemaining: 2}}
	gs.AttackVotes = gs.AttackVotes.With(0, true)
	c := gs.Clone()

	c.Players[0].Money = 99
	if gs.Players[0].Money == 99 {
		t.Error("players should be independent of clone")
	}

	c.Regions[Novgorod].Buildings[Mill] = 5
	if gs.Regions[Novgorod].Buildings[Mill] != 1 {
		t.Error("region buildings should be independent of clone")
	}

	c.Regions[Pskov] = Region{Controller: Order}
	if gs.Regions[Pskov].Controller != Republic {
		t.Error("regions should be independent of clone")
	}

	c.ActiveEffects[0].TurnsRemaining = 9
	if gs.ActiveEffects[0].TurnsRemaining != 2 {
		t.Error("effects should be independent of clone")
	}

	*c.AttackVotes[0] = false
	if !*gs.AttackVotes[0] {
		t.Error("votes should be independent of clone")
	}
}

func TestVotes(t *testing.T) {
	var v Votes[bool]
	if v.Count() != 0 || v.Cast(1) {
		t.Fatal("empty ballot should have no votes")
	}
	w := v.With(1, false)
	if v.Cast(1) {
		t.Error("With must not modify the receiver")
	}
	if !w.Cast(1) || *w[1] {
		t.Error("expected seat 1 to have voted no")
	}
	if w.Count() != 1 {
		t.Errorf("expected 1 vote, got %d", w.Count())
	}
}

// --- Map ---

func TestStandardMapAdjacencyBidirectional(t *testing.T) {
	m := StandardMap()
	if len(m.Regions) != RegionCount {
		t.Fatalf("expected %d regions, got %d", RegionCount, len(m.Regions))
	}
	for from, adjs := range m.Adjacencies {
		for _, to := range adjs {
			if !m.Adjacent(to, from) {
				t.Errorf("adjacency %s -> %s has no reverse", from, to)
			}
		}
	}
}

func TestAttackTargetsInitial(t *testing.T) {
	m := StandardMap()
	gs := NewInitialState()
	got := m.AttackTargets(gs)
	want := []RegionID{Izborsk, Narva}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("expected %v, got %v", want, got)
		}
	}
}

func TestHomeTerritoryNeverTarget(t *testing.T) {
	m := StandardMap()
	gs := NewInitialState()
	// Republic takes both border regions; Livonia now borders only Republic land.
	gs.Regions[Izborsk] = Region{Controller: Republic}
	gs.Regions[Narva] = Region{Controller: Republic}
	for _, id := range m.AttackTargets(gs) {
		if id == Livonia {
			t.Fatal("Livonia must never be an attack target")
		}
	}
	if len(m.AttackTargets(gs)) != 0 {
		t.Errorf("expected no targets, got %v", m.AttackTargets(gs))
	}
}

func TestOrderAndFortressTargets(t *testing.T) {
	m := StandardMap()
	gs := NewInitialState()
	order := m.OrderTargets(gs)
	if len(order) != 2 || order[0] != Pskov || order[1] != Koporye {
		t.Errorf("expected [pskov koporye], got %v", order)
	}
	gs.Regions[Ladoga] = Region{Controller: Republic, Fortress: true}
	for _, id := range m.FortressTargets(gs) {
		if id == Ladoga {
			t.Error("fortified region should not be offered again")
		}
		if gs.Regions[id].Controller != Republic {
			t.Errorf("%s is not a Republic region", id)
		}
	}
}
