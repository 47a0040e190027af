package veche

import "fmt"

func (e *Engine) currentEvent(gs *GameState) (Event, error) {
	if gs.Phase != PhaseEvents {
		return Event{}, reject(CodePhaseMismatch, "only allowed in the events phase, not %s", gs.Phase)
	}
	if gs.CurrentEvent == "" {
		return Event{}, reject(CodeMissingRequiredField, "no event has been drawn")
	}
	ev, ok := e.catalog.Lookup(gs.CurrentEvent)
	if !ok {
		return Event{}, reject(CodeInvalidArgument, "event %q is not in the catalog", gs.CurrentEvent)
	}
	return ev, nil
}

// drawEvent puts the next event on the table. In deterministic mode the index is
// owned by the phase controller, so it is read here but not advanced.
func (e *Engine) drawEvent(gs *GameState, rv RandomValues) (*GameState, *Result, error) {
	if gs.Phase != PhaseEvents {
		return gs, nil, reject(CodePhaseMismatch, "events are drawn in the events phase, not %s", gs.Phase)
	}
	if gs.CurrentEvent != "" {
		return gs, nil, reject(CodeDuplicateAction, "event %s is already on the table", gs.CurrentEvent)
	}

	var roll float64
	if !e.deterministic {
		roll = e.roll(rv.EventRoll)
	}
	ev, _ := Draw(e.catalog, e.deterministic, gs.DebugEventIndex, roll)

	ns := gs.Clone()
	clearEvent(ns)
	ns.CurrentEvent = ev.ID
	ns.LastEventResult = ""
	return ns, &Result{Type: ResultEventDrawn, Event: ev.ID, Message: ev.Name}, nil
}

func (e *Engine) voteEvent(gs *GameState, a Action, player int) (*GameState, *Result, error) {
	ev, err := e.currentEvent(gs)
	if err != nil {
		return gs, nil, err
	}
	if gs.EventResolved {
		return gs, nil, reject(CodeDuplicateAction, "event %s is already resolved", ev.ID)
	}
	if ev.Type != EventVoting {
		return gs, nil, reject(CodeInvalidArgument, "event %s is not put to a vote", ev.ID)
	}
	if _, ok := ev.Option(a.Option); !ok {
		return gs, nil, reject(CodeInvalidArgument, "event %s has no option %q", ev.ID, a.Option)
	}

	ns := gs.Clone()
	ns.EventVotes = ns.EventVotes.With(player, a.Option)
	return ns, &Result{Type: ResultEventVoteCast, Event: ev.ID, Option: a.Option}, nil
}

func (e *Engine) resolveEvent(gs *GameState, rv RandomValues) (*GameState, *Result, error) {
	ev, err := e.currentEvent(gs)
	if err != nil {
		return gs, nil, err
	}
	if gs.EventResolved {
		return gs, nil, reject(CodeDuplicateAction, "event %s is already resolved", ev.ID)
	}

	ns := gs.Clone()
	res := &Result{Type: ResultEventResolved, Event: ev.ID}
	switch ev.Type {
	case EventVoting:
		opt, ok := TallyEventVotes(ev, ns.EventVotes)
		if !ok {
			res.Message = fmt.Sprintf("%s: no votes were cast, nothing is done", ev.Name)
			break
		}
		applyOption(ns, opt)
		res.Option = opt.ID
		res.Message = fmt.Sprintf("%s: %s", ev.Name, opt.Text)
	case EventImmediate:
		ns.ActiveEffects = activateAll(ns.ActiveEffects, ev.Effects)
		res.Message = fmt.Sprintf("%s: %s", ev.Name, ev.Description)
	case EventOrderAttack:
		e.orderAssault(ns, ev, rv, res)
	}
	ns.EventResolved = true
	ns.LastEventResult = res.Message
	return ns, res, nil
}

func revealEvent(gs *GameState) (*GameState, *Result, error) {
	if gs.Phase != PhaseEvents {
		return gs, nil, reject(CodePhaseMismatch, "only allowed in the events phase, not %s", gs.Phase)
	}
	if gs.CurrentEvent == "" {
		return gs, nil, reject(CodeMissingRequiredField, "no event has been drawn")
	}
	ns := gs.Clone()
	ns.EventImageRevealed = true
	return ns, &Result{Type: ResultEventRevealed, Event: gs.CurrentEvent}, nil
}

// TallyEventVotes returns the option with the most votes. Ties go to the option
// listed first in the catalog. ok is false when nobody voted.
func TallyEventVotes(ev Event, votes Votes[OptionID]) (EventOption, bool) {
	counts := make(map[OptionID]int, len(ev.Options))
	for _, v := range votes {
		if v != nil {
			counts[*v]++
		}
	}
	best := 0
	var winner EventOption
	for _, o := range ev.Options {
		if c := counts[o.ID]; c > best {
			best = c
			winner = o
		}
	}
	return winner, best > 0
}

// applyOption pays out or charges every player and starts the option's effects.
// Charges never take a purse below zero.
func applyOption(ns *GameState, opt EventOption) {
	for i := range ns.Players {
		p := &ns.Players[i]
		p.Money += opt.Payout
		p.Money -= min(opt.Cost, p.Money)
	}
	ns.ActiveEffects = activateAll(ns.ActiveEffects, opt.Effects)
}
