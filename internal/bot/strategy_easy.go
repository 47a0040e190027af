package bot

import "github.com/freeeve/veche/pkg/veche"

// HeuristicStrategy plays a steady economic game: it improves its holdings while
// keeping a reserve, votes for the first option of every event, and funds any
// proposal whose share it can pay.
type HeuristicStrategy struct{}

func (HeuristicStrategy) Name() string { return "easy" }

// buildOrder is the sequence the heuristic bot cycles through when building.
var buildOrder = []veche.BuildingType{veche.Mill, veche.Market, veche.Workshop, veche.Church}

func (HeuristicStrategy) Decide(gs *veche.GameState, seat int, e *veche.Engine) (veche.Action, bool) {
	if gs.Phase == veche.PhaseConstruction {
		if gs.CurrentPlayer != seat {
			return veche.Action{}, false
		}
		p := gs.Players[seat]
		done := gs.ConstructionActions[seat]
		if !done.Built && veche.CanAfford(p.Money, veche.BuildingCost+Reserve) {
			if region, ok := republicRegion(gs, e.Map()); ok {
				return veche.Action{
					Type:         veche.ActionBuildBuilding,
					BuildingType: buildOrder[p.Improvements%len(buildOrder)],
					RegionName:   region,
				}, true
			}
		}
		if !done.Bought && veche.CanAfford(p.Money, veche.EquipmentCost+Reserve) {
			item := veche.Weapons
			if p.Armor < p.Weapons {
				item = veche.Armor
			}
			return veche.Action{Type: veche.ActionBuyEquipment, Item: item}, true
		}
		return veche.Action{Type: veche.ActionEndTurn}, true
	}

	money := gs.Players[seat].Money
	return pendingVote(gs, seat, e, func(share float64) bool { return veche.CanAfford(money, share) })
}
