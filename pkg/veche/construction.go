package veche

import "fmt"

func buildBuilding(gs *GameState, a Action, player int) (*GameState, *Result, error) {
	if a.BuildingType == "" {
		return gs, nil, reject(CodeMissingRequiredField, "building type is required")
	}
	if !IsBuildingType(a.BuildingType) {
		return gs, nil, reject(CodeInvalidArgument, "unknown building type %q", a.BuildingType)
	}
	target := a.RegionName
	if target == "" {
		target = gs.SelectedRegion
	}
	region, ok := gs.Regions[target]
	if !ok {
		return gs, nil, reject(CodeInvalidTarget, "unknown region %q", target)
	}
	if region.Controller != Republic {
		return gs, nil, reject(CodeInvalidTarget, "%s is held by the Order", target)
	}

	ns := gs.Clone()
	p := &ns.Players[player]
	p.Money = pay(p.Money, BuildingCost)
	p.Improvements++

	region = ns.Regions[target]
	if region.Buildings == nil {
		region.Buildings = make(map[BuildingType]int)
	}
	region.Buildings[a.BuildingType]++
	ns.Regions[target] = region
	ns.ConstructionActions[player].Built = true

	return ns, &Result{
		Type:    ResultBuildingBuilt,
		Region:  target,
		Message: fmt.Sprintf("the %s built a %s in %s", p.Faction, a.BuildingType, target),
	}, nil
}

func buyEquipment(gs *GameState, a Action, player int) (*GameState, *Result, error) {
	if a.Item == "" {
		return gs, nil, reject(CodeMissingRequiredField, "item is required")
	}
	if a.Item != Weapons && a.Item != Armor {
		return gs, nil, reject(CodeInvalidArgument, "unknown item %q", a.Item)
	}

	ns := gs.Clone()
	p := &ns.Players[player]
	p.Money = pay(p.Money, EquipmentCost)
	if a.Item == Weapons {
		p.Weapons++
	} else {
		p.Armor++
	}
	ns.ConstructionActions[player].Bought = true

	return ns, &Result{
		Type:    ResultEquipmentBought,
		Message: fmt.Sprintf("the %s bought %s", p.Faction, a.Item),
	}, nil
}

func checkConstructionTurn(gs *GameState, player int) error {
	if gs.Phase != PhaseConstruction {
		return reject(CodePhaseMismatch, "only allowed in the construction phase, not %s", gs.Phase)
	}
	if player != gs.CurrentPlayer {
		return reject(CodeTurnViolation, "it is seat %d's turn, not seat %d's", gs.CurrentPlayer, player)
	}
	return nil
}

// endTurn hands construction to the next seat, wrapping after the last one.
func endTurn(gs *GameState, player int) (*GameState, *Result, error) {
	if err := checkConstructionTurn(gs, player); err != nil {
		return gs, nil, err
	}
	ns := gs.Clone()
	ns.CurrentPlayer = (player + 1) % PlayerCount
	return ns, &Result{
		Type:    ResultTurnPassed,
		Message: fmt.Sprintf("seat %d passes to seat %d", player, ns.CurrentPlayer),
	}, nil
}

func selectRegion(gs *GameState, a Action, player int) (*GameState, *Result, error) {
	if err := checkConstructionTurn(gs, player); err != nil {
		return gs, nil, err
	}
	if a.RegionName == "" {
		return gs, nil, reject(CodeMissingRequiredField, "region is required")
	}
	if _, ok := gs.Regions[a.RegionName]; !ok {
		return gs, nil, reject(CodeInvalidTarget, "unknown region %q", a.RegionName)
	}
	ns := gs.Clone()
	ns.SelectedRegion = a.RegionName
	return ns, &Result{Type: ResultRegionSelected, Region: a.RegionName}, nil
}
