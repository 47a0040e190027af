package veche

import "fmt"

// EventID identifies a catalog event.
type EventID string

// OptionID identifies one choice of a voting event.
type OptionID string

// EventType classifies how an event is resolved.
type EventType string

const (
	EventVoting      EventType = "voting"
	EventOrderAttack EventType = "order_attack"
	EventImmediate   EventType = "immediate"
)

// EventOption is one choice the players can vote for.
type EventOption struct {
	ID       OptionID `json:"id"`
	Text     string   `json:"text"`
	CostText string   `json:"cost_text,omitempty"`
	// Payout is credited to every player when the option wins.
	Payout float64 `json:"payout,omitempty"`
	// Cost is debited from every player, never below zero.
	Cost    float64      `json:"cost,omitempty"`
	Effects []EffectSpec `json:"effects,omitempty"`
}

// Event is a static catalog entry.
type Event struct {
	ID            EventID       `json:"id"`
	Name          string        `json:"name"`
	Type          EventType     `json:"type"`
	Description   string        `json:"description"`
	Options       []EventOption `json:"options,omitempty"`
	OrderStrength float64       `json:"order_strength,omitempty"`
	Effects       []EffectSpec  `json:"effects,omitempty"`
}

// Option returns the option with the given id.
func (e Event) Option(id OptionID) (EventOption, bool) {
	for _, o := range e.Options {
		if o.ID == id {
			return o, true
		}
	}
	return EventOption{}, false
}

// Catalog is an ordered, read-only list of events keyed by id.
type Catalog struct {
	events []Event
	index  map[EventID]int
}

// NewCatalog checks the events and builds a catalog.
func NewCatalog(events []Event) (*Catalog, error) {
	if len(events) == 0 {
		return nil, fmt.Errorf("event catalog is empty")
	}
	c := &Catalog{
		events: make([]Event, len(events)),
		index:  make(map[EventID]int, len(events)),
	}
	copy(c.events, events)
	for i, e := range events {
		if e.ID == "" {
			return nil, fmt.Errorf("event %d has no id", i)
		}
		if _, dup := c.index[e.ID]; dup {
			return nil, fmt.Errorf("duplicate event id %q", e.ID)
		}
		switch e.Type {
		case EventVoting:
			if len(e.Options) == 0 {
				return nil, fmt.Errorf("voting event %q has no options", e.ID)
			}
		case EventOrderAttack:
			if e.OrderStrength <= 0 {
				return nil, fmt.Errorf("order attack event %q has no order strength", e.ID)
			}
		case EventImmediate:
		default:
			return nil, fmt.Errorf("event %q has unknown type %q", e.ID, e.Type)
		}
		c.index[e.ID] = i
	}
	return c, nil
}

// Len returns the number of events.
func (c *Catalog) Len() int {
	return len(c.events)
}

// At returns the event at position i.
func (c *Catalog) At(i int) Event {
	return c.events[i]
}

// Lookup returns the event with the given id.
func (c *Catalog) Lookup(id EventID) (Event, bool) {
	i, ok := c.index[id]
	if !ok {
		return Event{}, false
	}
	return c.events[i], true
}

// Events returns the catalog in order.
func (c *Catalog) Events() []Event {
	out := make([]Event, len(c.events))
	copy(out, c.events)
	return out
}
