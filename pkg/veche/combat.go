package veche

import "fmt"

// Combat constants.
const (
	EquipmentBonus    = 5.0
	OrderBaseStrength = 100.0
	FortressBonus     = 10.0
)

// PlayerStrength returns the player's military strength under the active effects,
// floored at zero.
func PlayerStrength(p Player, effects []ActiveEffect) float64 {
	s := p.Faction.BaseStrength() +
		EquipmentBonus*float64(p.Weapons) +
		EquipmentBonus*float64(p.Armor) +
		StrengthBonus(effects, p.Faction)
	return max(s, 0)
}

// MusterStrength sums the strength of the given seats.
func MusterStrength(gs *GameState, seats []int) float64 {
	total := 0.0
	for _, seat := range seats {
		total += PlayerStrength(gs.Players[seat], gs.ActiveEffects)
	}
	return total
}

// DefenderStrength returns the Order's strength when holding the region.
func DefenderStrength(r Region) float64 {
	if r.Fortress {
		return OrderBaseStrength + FortressBonus
	}
	return OrderBaseStrength
}

// WinChance maps a strength differential to a win percentage. The table is
// monotonic: a larger advantage never lowers the chance.
func WinChance(diff float64) int {
	switch {
	case diff >= 20:
		return 95
	case diff >= 15:
		return 85
	case diff >= 10:
		return 70
	case diff >= 5:
		return 60
	case diff >= 0:
		return 50
	case diff >= -5:
		return 40
	case diff >= -10:
		return 30
	case diff >= -15:
		return 15
	}
	return 5
}

// Battle is the audited outcome of one fight, always seen from the Republic's side.
type Battle struct {
	RepublicStrength float64 `json:"republic_strength"`
	OrderStrength    float64 `json:"order_strength"`
	WinChance        int     `json:"win_chance"`
	Roll             float64 `json:"roll"`
	Victory          bool    `json:"victory"`
}

// ResolveBattle decides a fight with one sample in [0,1). The Republic wins when
// the sample scaled to [0,100) falls below the win chance.
func ResolveBattle(republic, order, roll float64) Battle {
	chance := WinChance(republic - order)
	return Battle{
		RepublicStrength: republic,
		OrderStrength:    order,
		WinChance:        chance,
		Roll:             roll,
		Victory:          roll*100 < float64(chance),
	}
}

func (b Battle) describe() string {
	return fmt.Sprintf("Republic %s vs Order %s, chance %d%%",
		formatAmount(b.RepublicStrength), formatAmount(b.OrderStrength), b.WinChance)
}

// battle is the effect of an executed attack proposal.
func (e *Engine) battle(ns *GameState, target RegionID, participants []int, rv RandomValues, res *Result) {
	region := ns.Regions[target]
	b := ResolveBattle(MusterStrength(ns, participants), DefenderStrength(region), e.roll(rv.BattleRoll))
	res.Battle = &b
	if b.Victory {
		region.Controller = Republic
		ns.Regions[target] = region
		res.Message = fmt.Sprintf("%s taken from the Order (%s)", target, b.describe())
		return
	}
	res.Message = fmt.Sprintf("the assault on %s failed (%s)", target, b.describe())
}

// orderAssault resolves an order_attack event: the Order strikes one exposed
// Republic region, defended by every player.
func (e *Engine) orderAssault(ns *GameState, ev Event, rv RandomValues, res *Result) {
	targets := e.m.OrderTargets(ns)
	if len(targets) == 0 {
		res.Message = fmt.Sprintf("%s: the Order finds no foothold", ev.Name)
		return
	}
	target := targets[pickIndex(e.roll(rv.TargetRoll), len(targets))]
	region := ns.Regions[target]

	defense := MusterStrength(ns, []int{0, 1, 2})
	if region.Fortress {
		defense += FortressBonus
	}
	b := ResolveBattle(defense, ev.OrderStrength, e.roll(rv.BattleRoll))
	res.Region = target
	res.Battle = &b
	if b.Victory {
		res.Message = fmt.Sprintf("%s: %s holds (%s)", ev.Name, target, b.describe())
		return
	}
	region.Controller = Order
	ns.Regions[target] = region
	res.Message = fmt.Sprintf("%s: %s falls to the Order (%s)", ev.Name, target, b.describe())
}
