// Package bot fills empty seats with computer players.
package bot

import (
	"github.com/freeeve/veche/pkg/veche"
)

// Strategy picks the next action for a bot seat. ok is false when the bot has
// nothing to do in the current state; bots never advance the phase.
type Strategy interface {
	Name() string
	Decide(gs *veche.GameState, seat int, e *veche.Engine) (a veche.Action, ok bool)
}

// StrategyForDifficulty returns the strategy for a bot difficulty level.
func StrategyForDifficulty(difficulty string) Strategy {
	switch difficulty {
	case "random":
		return RandomStrategy{}
	default:
		return HeuristicStrategy{}
	}
}

// Reserve is the money a bot keeps back during construction so it can still
// fund its share of a full-muster proposal in the veche.
const Reserve = veche.ProposalPool / veche.PlayerCount

// pendingVote returns the vote action the seat still owes in the current state,
// or false when no vote is open for it. decide picks the ballot value.
func pendingVote(gs *veche.GameState, seat int, e *veche.Engine, decide func(share float64) bool) (veche.Action, bool) {
	switch gs.Phase {
	case veche.PhaseEvents:
		if gs.CurrentEvent == "" || gs.EventResolved || gs.EventVotes.Cast(seat) {
			return veche.Action{}, false
		}
		ev, ok := e.Catalog().Lookup(gs.CurrentEvent)
		if !ok || ev.Type != veche.EventVoting || len(ev.Options) == 0 {
			return veche.Action{}, false
		}
		return veche.Action{Type: veche.ActionVoteEvent, Option: ev.Options[0].ID}, true

	case veche.PhaseVeche:
		var (
			typ   veche.ActionType
			votes veche.Votes[bool]
		)
		switch {
		case gs.AttackPlanning == veche.Planning:
			typ, votes = veche.ActionVoteAttack, gs.AttackVotes
		case gs.FortressPlanning == veche.Planning:
			typ, votes = veche.ActionVoteFortress, gs.FortressVotes
		default:
			return veche.Action{}, false
		}
		if votes.Cast(seat) {
			return veche.Action{}, false
		}
		yes := 0
		for _, v := range votes {
			if v != nil && *v {
				yes++
			}
		}
		share := veche.ProposalPool / float64(yes+1)
		vote := decide(share)
		return veche.Action{Type: typ, Vote: &vote}, true
	}
	return veche.Action{}, false
}

// republicRegion returns the selected region if the Republic holds it, or else
// the first Republic region on the map.
func republicRegion(gs *veche.GameState, m *veche.Map) (veche.RegionID, bool) {
	if r, ok := gs.Regions[gs.SelectedRegion]; ok && r.Controller == veche.Republic {
		return gs.SelectedRegion, true
	}
	for _, id := range m.RegionIDs() {
		if gs.Regions[id].Controller == veche.Republic {
			return id, true
		}
	}
	return "", false
}
