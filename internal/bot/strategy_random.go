package bot

import "github.com/freeeve/veche/pkg/veche"

// RandomStrategy makes random but affordable choices. Used for soak testing.
type RandomStrategy struct{}

func (RandomStrategy) Name() string { return "random" }

func (RandomStrategy) Decide(gs *veche.GameState, seat int, e *veche.Engine) (veche.Action, bool) {
	if gs.Phase == veche.PhaseConstruction {
		if gs.CurrentPlayer != seat {
			return veche.Action{}, false
		}
		p := gs.Players[seat]
		done := gs.ConstructionActions[seat]
		choices := []veche.Action{{Type: veche.ActionEndTurn}}
		if !done.Built && veche.CanAfford(p.Money, veche.BuildingCost) {
			if region, ok := republicRegion(gs, e.Map()); ok {
				choices = append(choices, veche.Action{
					Type:         veche.ActionBuildBuilding,
					BuildingType: buildOrder[botIntn(len(buildOrder))],
					RegionName:   region,
				})
			}
		}
		if !done.Bought && veche.CanAfford(p.Money, veche.EquipmentCost) {
			item := veche.Weapons
			if botIntn(2) == 1 {
				item = veche.Armor
			}
			choices = append(choices, veche.Action{Type: veche.ActionBuyEquipment, Item: item})
		}
		return choices[botIntn(len(choices))], true
	}

	a, ok := pendingVote(gs, seat, e, func(share float64) bool {
		return veche.CanAfford(gs.Players[seat].Money, share) && botFloat64() < 0.5
	})
	if ok && a.Type == veche.ActionVoteEvent {
		ev, _ := e.Catalog().Lookup(gs.CurrentEvent)
		a.Option = ev.Options[botIntn(len(ev.Options))].ID
	}
	return a, ok
}
