package veche

import (
	"fmt"
	"slices"
)

// ProposalPool is the fixed cost of an executed proposal, split evenly among the
// seats that committed funding.
const ProposalPool = 6.0

// proposal is the propose -> vote -> execute/cancel machine shared by attacks and
// fortresses. window returns pointers into the state it is given, so it must only
// be called on a clone when writing.
type proposal struct {
	name      string
	window    func(gs *GameState) (*PlanningState, *RegionID, *Votes[bool])
	targets   func(m *Map, gs *GameState) []RegionID
	initiated ResultType
	executed  ResultType
	cancelled ResultType
	effect    func(e *Engine, ns *GameState, target RegionID, participants []int, rv RandomValues, res *Result)
}

var attackProposal = proposal{
	name: "attack",
	window: func(gs *GameState) (*PlanningState, *RegionID, *Votes[bool]) {
		return &gs.AttackPlanning, &gs.AttackTarget, &gs.AttackVotes
	},
	targets:   (*Map).AttackTargets,
	initiated: ResultAttackInitiated,
	executed:  ResultAttackExecuted,
	cancelled: ResultAttackCancelled,
	effect:    (*Engine).battle,
}

var fortressProposal = proposal{
	name: "fortress",
	window: func(gs *GameState) (*PlanningState, *RegionID, *Votes[bool]) {
		return &gs.FortressPlanning, &gs.FortressTarget, &gs.FortressVotes
	},
	targets:   (*Map).FortressTargets,
	initiated: ResultFortressInitiated,
	executed:  ResultFortressBuilt,
	cancelled: ResultFortressCancelled,
	effect:    raiseFortress,
}

func raiseFortress(_ *Engine, ns *GameState, target RegionID, _ []int, _ RandomValues, res *Result) {
	region := ns.Regions[target]
	region.Fortress = true
	ns.Regions[target] = region
	res.Message = fmt.Sprintf("a fortress now guards %s", target)
}

// initiate opens a voting window. Only one window, attack or fortress, may be open
// at a time. An empty target is picked among the legal ones with the target roll.
func (e *Engine) initiate(p proposal, gs *GameState, target RegionID, rv RandomValues) (*GameState, *Result, error) {
	if gs.Phase != PhaseVeche {
		return gs, nil, reject(CodePhaseMismatch, "proposals are only made in the veche phase, not %s", gs.Phase)
	}
	if gs.ProposalOpen() {
		return gs, nil, reject(CodeDuplicateAction, "a proposal is already open; execute or cancel it first")
	}
	legal := p.targets(e.m, gs)
	if target == "" {
		if len(legal) == 0 {
			return gs, nil, reject(CodeInvalidTarget, "no region can be chosen for a %s", p.name)
		}
		target = legal[pickIndex(e.roll(rv.TargetRoll), len(legal))]
	} else if !slices.Contains(legal, target) {
		return gs, nil, reject(CodeInvalidTarget, "%s is not a valid %s target", target, p.name)
	}

	ns := gs.Clone()
	planning, tgt, votes := p.window(ns)
	*planning = Planning
	*tgt = target
	*votes = Votes[bool]{}
	return ns, &Result{
		Type:    p.initiated,
		Region:  target,
		Message: fmt.Sprintf("the veche debates a %s on %s", p.name, target),
	}, nil
}

// vote records a seat's funding commitment. The validator has already checked that
// the window is open and the seat has not voted.
func (p proposal) vote(gs *GameState, seat int, yes bool) (*GameState, *Result, error) {
	ns := gs.Clone()
	_, target, votes := p.window(ns)
	*votes = votes.With(seat, yes)
	return ns, &Result{
		Type:    ResultVoteCast,
		Region:  *target,
		Message: fmt.Sprintf("seat %d voted on the %s", seat, p.name),
	}, nil
}

// execute resolves the open window. Funding is all-or-nothing: either every
// participant pays the same share of the pool or nobody pays anything.
func (e *Engine) execute(p proposal, gs *GameState, rv RandomValues) (*GameState, *Result, error) {
	planning, target, votes := p.window(gs)
	if *planning != Planning {
		return gs, nil, reject(CodePhaseMismatch, "no %s proposal is open", p.name)
	}

	var participants []int
	for seat, v := range *votes {
		if v != nil && *v {
			participants = append(participants, seat)
		}
	}

	ns := gs.Clone()
	if len(participants) == 0 {
		return p.close(ns, &Result{
			Type:    p.cancelled,
			Reason:  ReasonNoParticipants,
			Region:  *target,
			Message: fmt.Sprintf("nobody would fund the %s on %s", p.name, *target),
		})
	}

	share := ProposalPool / float64(len(participants))
	for _, seat := range participants {
		if !CanAfford(ns.Players[seat].Money, share) {
			return p.close(ns, &Result{
				Type:               p.cancelled,
				Reason:             ReasonInsufficientFunds,
				Region:             *target,
				Participants:       participants,
				CostPerParticipant: share,
				Message: fmt.Sprintf("the %s could not pay %s toward the %s on %s; the veche disperses",
					ns.Players[seat].Faction, formatAmount(share), p.name, *target),
			})
		}
	}
	for _, seat := range participants {
		ns.Players[seat].Money = pay(ns.Players[seat].Money, share)
	}

	res := &Result{
		Type:               p.executed,
		Region:             *target,
		Participants:       participants,
		CostPerParticipant: share,
	}
	p.effect(e, ns, *target, participants, rv, res)
	return p.close(ns, res)
}

// cancel closes the window without any financial effect. It is unconditional.
func (p proposal) cancel(gs *GameState) (*GameState, *Result, error) {
	_, target, _ := p.window(gs)
	ns := gs.Clone()
	return p.close(ns, &Result{
		Type:    p.cancelled,
		Reason:  ReasonCancelled,
		Region:  *target,
		Message: fmt.Sprintf("the %s proposal was withdrawn", p.name),
	})
}

func (p proposal) close(ns *GameState, res *Result) (*GameState, *Result, error) {
	planning, target, votes := p.window(ns)
	*planning = NotPlanning
	*target = ""
	*votes = Votes[bool]{}
	ns.LastVecheResult = res.Message
	return ns, res, nil
}
