package veche

// EffectType selects what an active effect modifies.
type EffectType string

const (
	EffectIncome   EffectType = "income"
	EffectStrength EffectType = "strength"
)

// TargetAll makes an effect apply to every faction.
const TargetAll = "all"

// ActiveEffect is a time-boxed modifier. Income values are multiplier deltas
// (0.25 = +25%), strength values are added to a player's strength.
type ActiveEffect struct {
	Type           EffectType `json:"type"`
	Target         string     `json:"target"`
	Value          float64    `json:"value"`
	TurnsRemaining int        `json:"turns_remaining"`
}

// AppliesTo reports whether the effect targets the faction.
func (e ActiveEffect) AppliesTo(f Faction) bool {
	return e.Target == TargetAll || e.Target == string(f)
}

// EffectSpec is the catalog form of an effect, turned into an ActiveEffect when it fires.
type EffectSpec struct {
	Type   EffectType `json:"type"`
	Target string     `json:"target"`
	Value  float64    `json:"value"`
	Turns  int        `json:"turns"`
}

// Activate returns the effect with its full duration.
func (s EffectSpec) Activate() ActiveEffect {
	return ActiveEffect{Type: s.Type, Target: s.Target, Value: s.Value, TurnsRemaining: s.Turns}
}

// DecayEffects returns a new ledger with every effect one round older.
// Effects that run out are dropped.
func DecayEffects(effects []ActiveEffect) []ActiveEffect {
	out := make([]ActiveEffect, 0, len(effects))
	for _, e := range effects {
		e.TurnsRemaining--
		if e.TurnsRemaining > 0 {
			out = append(out, e)
		}
	}
	return out
}

// IncomeModifier returns 1 plus the sum of income effects for the faction.
func IncomeModifier(effects []ActiveEffect, f Faction) float64 {
	return 1 + sumEffects(effects, EffectIncome, f)
}

// StrengthBonus returns the sum of strength effects for the faction.
func StrengthBonus(effects []ActiveEffect, f Faction) float64 {
	return sumEffects(effects, EffectStrength, f)
}

func sumEffects(effects []ActiveEffect, t EffectType, f Faction) float64 {
	total := 0.0
	for _, e := range effects {
		if e.Type == t && e.AppliesTo(f) {
			total += e.Value
		}
	}
	return total
}

func activateAll(effects []ActiveEffect, specs []EffectSpec) []ActiveEffect {
	for _, s := range specs {
		if s.Turns > 0 {
			effects = append(effects, s.Activate())
		}
	}
	return effects
}
