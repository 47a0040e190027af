package veche

// PlayerCount is the fixed number of seats in a match.
const PlayerCount = 3

// Faction identifies one of the three player factions inside the Republic.
type Faction string

const (
	Boyars    Faction = "boyars"
	Merchants Faction = "merchants"
	Commoners Faction = "commoners"
)

// AllFactions returns the factions in seat order.
func AllFactions() [PlayerCount]Faction {
	return [PlayerCount]Faction{Boyars, Merchants, Commoners}
}

// BaseStrength returns the faction's unequipped military strength.
func (f Faction) BaseStrength() float64 {
	switch f {
	case Boyars:
		return 40
	case Merchants, Commoners:
		return 35
	}
	return 0
}

// Controller is the side holding a region.
type Controller string

const (
	Republic Controller = "republic"
	Order    Controller = "order"
)

// Opponent returns the other side.
func (c Controller) Opponent() Controller {
	if c == Republic {
		return Order
	}
	return Republic
}
