package veche

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"
)

// Source produces samples in [0,1). The engine only consults it when an action
// needs randomness and RandomValues leaves the matching roll empty.
type Source func() float64

// Engine applies actions to game states. It owns the read-only map and event
// catalog; it holds no per-match state and is safe for concurrent use as long as
// its Source is.
type Engine struct {
	m             *Map
	catalog       *Catalog
	deterministic bool
	source        Source
}

// Option configures an Engine.
type Option func(*Engine)

// WithMap replaces the standard map.
func WithMap(m *Map) Option {
	return func(e *Engine) { e.m = m }
}

// WithCatalog replaces the standard event catalog.
func WithCatalog(c *Catalog) Option {
	return func(e *Engine) { e.catalog = c }
}

// WithDeterministic switches event drawing to sequential catalog order.
func WithDeterministic(on bool) Option {
	return func(e *Engine) { e.deterministic = on }
}

// WithSource sets the fallback random source.
func WithSource(s Source) Option {
	return func(e *Engine) { e.source = s }
}

// NewEngine returns an engine over the standard map and catalog.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		m:       StandardMap(),
		catalog: StandardCatalog(),
		source:  rand.Float64,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Map returns the engine's map.
func (e *Engine) Map() *Map { return e.m }

// Catalog returns the engine's event catalog.
func (e *Engine) Catalog() *Catalog { return e.catalog }

// Deterministic reports whether events are drawn sequentially.
func (e *Engine) Deterministic() bool { return e.deterministic }

// NewGame returns the starting state for the engine's map.
func (e *Engine) NewGame() *GameState {
	return NewInitialStateFor(e.m)
}

// Apply validates the action for the seat and returns the resulting state with a
// description of what happened. On error the input state is returned unchanged and
// the error is an *ActionError. The input state is never modified.
func (e *Engine) Apply(gs *GameState, a Action, player int, rv RandomValues) (*GameState, *Result, error) {
	if err := Validate(gs, a, player); err != nil {
		return gs, nil, err
	}
	ns, res, err := e.dispatch(gs, a, player, rv)
	if err != nil {
		return gs, nil, err
	}
	res.Player = player
	return ns, res, nil
}

func (e *Engine) dispatch(gs *GameState, a Action, player int, rv RandomValues) (*GameState, *Result, error) {
	switch a.Type {
	case ActionNextPhase:
		ns := e.NextPhase(gs)
		return ns, &Result{
			Type:    ResultPhaseChanged,
			Phase:   ns.Phase,
			Message: fmt.Sprintf("turn %d: %s phase", ns.Turn, ns.Phase),
		}, nil
	case ActionBuildBuilding:
		return buildBuilding(gs, a, player)
	case ActionBuyEquipment:
		return buyEquipment(gs, a, player)
	case ActionEndTurn:
		return endTurn(gs, player)
	case ActionSelectRegion:
		return selectRegion(gs, a, player)
	case ActionDrawEvent:
		return e.drawEvent(gs, rv)
	case ActionVoteEvent:
		return e.voteEvent(gs, a, player)
	case ActionResolveEvent:
		return e.resolveEvent(gs, rv)
	case ActionRevealEvent:
		return revealEvent(gs)
	case ActionInitiateAttack:
		return e.initiate(attackProposal, gs, a.TargetRegion, rv)
	case ActionVoteAttack:
		return attackProposal.vote(gs, player, *a.Vote)
	case ActionExecuteAttack:
		return e.execute(attackProposal, gs, rv)
	case ActionCancelAttack:
		return attackProposal.cancel(gs)
	case ActionInitiateFortress:
		return e.initiate(fortressProposal, gs, a.TargetRegion, rv)
	case ActionVoteFortress:
		return fortressProposal.vote(gs, player, *a.Vote)
	case ActionExecuteFortress:
		return e.execute(fortressProposal, gs, rv)
	case ActionCancelFortress:
		return fortressProposal.cancel(gs)
	case ActionResetGame:
		return e.NewGame(), &Result{Type: ResultGameReset, Message: "the game was reset"}, nil
	}
	return gs, nil, reject(CodeUnknownAction, "unknown action %q", a.Type)
}

// roll returns the supplied sample, or one from the fallback source, clamped to [0,1).
func (e *Engine) roll(v *float64) float64 {
	var r float64
	if v != nil {
		r = *v
	} else {
		r = e.source()
	}
	if r < 0 || math.IsNaN(r) {
		return 0
	}
	if r >= 1 {
		return math.Nextafter(1, 0)
	}
	return r
}

// formatAmount renders money and strength values with at most two decimals.
func formatAmount(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}

func cents(v float64) int64 {
	return int64(math.Round(v * 100))
}

// CanAfford reports whether money covers cost, both settled to the cent.
func CanAfford(money, cost float64) bool {
	return cents(money) >= cents(cost)
}

// pay deducts cost from money. A sub-cent shortfall left by float drift settles at zero.
func pay(money, cost float64) float64 {
	if money -= cost; money < 0 {
		return 0
	}
	return money
}
