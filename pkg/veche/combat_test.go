package veche

import "testing"

func TestWinChanceTable(t *testing.T) {
	cases := []struct {
		diff float64
		want int
	}{
		{30, 95}, {20, 95}, {19, 85}, {15, 85}, {10, 70}, {5, 60}, {0, 50},
		{-1, 40}, {-5, 40}, {-10, 30}, {-15, 15}, {-16, 5}, {-100, 5},
	}
	for _, tc := range cases {
		if got := WinChance(tc.diff); got != tc.want {
			t.Errorf("WinChance(%v): expected %d, got %d", tc.diff, tc.want, got)
		}
	}
}

func TestWinChanceMonotonic(t *testing.T) {
	prev := WinChance(-50)
	for d := -50.0; d <= 50; d += 0.5 {
		c := WinChance(d)
		if c < prev {
			t.Fatalf("chance dropped from %d to %d at diff %v", prev, c, d)
		}
		prev = c
	}
}

func TestResolveBattleDeterministic(t *testing.T) {
	if b := ResolveBattle(110, 100, 0.99); b.Victory {
		t.Errorf("roll 0.99 at 70%% should lose, got %+v", b)
	}
	if b := ResolveBattle(110, 100, 0.0); !b.Victory {
		t.Errorf("roll 0.0 should win, got %+v", b)
	}
	b := ResolveBattle(110, 100, 0.1)
	if b.WinChance != 70 || !b.Victory {
		t.Errorf("expected a 70%% victory, got %+v", b)
	}
	for i := 0; i < 3; i++ {
		if ResolveBattle(95, 100, 0.42) != ResolveBattle(95, 100, 0.42) {
			t.Fatal("same inputs must give the same battle")
		}
	}
}

func TestPlayerStrength(t *testing.T) {
	p := Player{Faction: Boyars, Weapons: 1, Armor: 2}
	if got := PlayerStrength(p, nil); got != 55 {
		t.Errorf("expected 55, got %v", got)
	}
	effects := []ActiveEffect{{Type: EffectStrength, Target: string(Boyars), Value: -100, TurnsRemaining: 1}}
	if got := PlayerStrength(p, effects); got != 0 {
		t.Errorf("strength should floor at 0, got %v", got)
	}
	other := []ActiveEffect{{Type: EffectStrength, Target: string(Merchants), Value: 10, TurnsRemaining: 1}}
	if got := PlayerStrength(p, other); got != 55 {
		t.Errorf("merchant effect should not apply to boyars, got %v", got)
	}
}

func TestDefenderStrength(t *testing.T) {
	if got := DefenderStrength(Region{Controller: Order}); got != 100 {
		t.Errorf("expected 100, got %v", got)
	}
	if got := DefenderStrength(Region{Controller: Order, Fortress: true}); got != 110 {
		t.Errorf("expected 110, got %v", got)
	}
}

func TestEngineRollClamps(t *testing.T) {
	e := NewEngine(WithSource(fixedSource(0.5)))
	if got := e.roll(nil); got != 0.5 {
		t.Errorf("expected fallback 0.5, got %v", got)
	}
	over := 1.0
	if got := e.roll(&over); got >= 1 {
		t.Errorf("roll must stay below 1, got %v", got)
	}
	under := -0.3
	if got := e.roll(&under); got != 0 {
		t.Errorf("negative roll should clamp to 0, got %v", got)
	}
}
