package veche

// Validate checks whether the seat may submit the action against the state.
// It is pure and runs before any mutation. Returns nil if valid, or an *ActionError.
//
// Only construction purchases and votes are checked here; the remaining actions
// are accepted and their mutators enforce their own preconditions.
func Validate(gs *GameState, a Action, player int) error {
	if player < 0 || player >= PlayerCount {
		return reject(CodeTurnViolation, "seat %d is not part of the match", player)
	}

	switch a.Type {
	case ActionBuildBuilding:
		return validatePurchase(gs, player, BuildingCost, gs.ConstructionActions[player].Built, "built")
	case ActionBuyEquipment:
		return validatePurchase(gs, player, EquipmentCost, gs.ConstructionActions[player].Bought, "bought equipment")
	case ActionVoteEvent:
		if gs.Phase != PhaseEvents {
			return reject(CodePhaseMismatch, "event votes are only accepted in the events phase, not %s", gs.Phase)
		}
		if gs.EventVotes.Cast(player) {
			return reject(CodeDuplicateAction, "seat %d already voted on this event", player)
		}
		if a.Option == "" {
			return reject(CodeMissingRequiredField, "vote option is required")
		}
		return nil
	case ActionVoteAttack:
		return validateProposalVote(gs.AttackPlanning, gs.AttackVotes, a, player, "attack")
	case ActionVoteFortress:
		return validateProposalVote(gs.FortressPlanning, gs.FortressVotes, a, player, "fortress")
	case ActionNextPhase, ActionEndTurn, ActionSelectRegion,
		ActionDrawEvent, ActionResolveEvent, ActionRevealEvent,
		ActionInitiateAttack, ActionExecuteAttack, ActionCancelAttack,
		ActionInitiateFortress, ActionExecuteFortress, ActionCancelFortress,
		ActionResetGame:
		return nil
	default:
		return reject(CodeUnknownAction, "unknown action %q", a.Type)
	}
}

func validatePurchase(gs *GameState, player int, cost float64, done bool, what string) error {
	if gs.Phase != PhaseConstruction {
		return reject(CodePhaseMismatch, "purchases are only allowed in the construction phase, not %s", gs.Phase)
	}
	if player != gs.CurrentPlayer {
		return reject(CodeTurnViolation, "it is seat %d's turn, not seat %d's", gs.CurrentPlayer, player)
	}
	if !CanAfford(gs.Players[player].Money, cost) {
		return reject(CodeInsufficientFunds, "need %s, have %s", formatAmount(cost), formatAmount(gs.Players[player].Money))
	}
	if done {
		return reject(CodeDuplicateAction, "seat %d already %s this turn", player, what)
	}
	return nil
}

func validateProposalVote(planning PlanningState, votes Votes[bool], a Action, player int, kind string) error {
	if planning != Planning {
		return reject(CodePhaseMismatch, "no %s proposal is open", kind)
	}
	if votes.Cast(player) {
		return reject(CodeDuplicateAction, "seat %d already voted on the %s", player, kind)
	}
	if a.Vote == nil {
		return reject(CodeMissingRequiredField, "vote is required")
	}
	return nil
}
