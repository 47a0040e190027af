package veche

import "sync"

var (
	stdCatalogOnce sync.Once
	stdCatalogInst *Catalog
)

// StandardCatalog returns the built-in event catalog. It is built once and cached;
// callers must not mutate it.
func StandardCatalog() *Catalog {
	stdCatalogOnce.Do(func() {
		c, err := NewCatalog(standardEvents())
		if err != nil {
			panic("veche: invalid standard catalog: " + err.Error())
		}
		stdCatalogInst = c
	})
	return stdCatalogInst
}

func standardEvents() []Event {
	return []Event{
		{
			ID:          "hanseatic_embassy",
			Name:        "Hanseatic Embassy",
			Type:        EventVoting,
			Description: "Envoys from Lübeck ask to renew the privileges of the German court.",
			Options: []EventOption{
				{ID: "accept", Text: "Renew the privileges", CostText: "+1 to every treasury, income +20% for 2 rounds",
					Payout: 1, Effects: []EffectSpec{{Type: EffectIncome, Target: TargetAll, Value: 0.2, Turns: 2}}},
				{ID: "reject", Text: "Send the envoys home", CostText: "+0.5 to every treasury",
					Payout: 0.5},
			},
		},
		{
			ID:          "crop_failure",
			Name:        "Crop Failure",
			Type:        EventImmediate,
			Description: "Early frosts ruin the harvest across the land.",
			Effects:     []EffectSpec{{Type: EffectIncome, Target: TargetAll, Value: -0.25, Turns: 2}},
		},
		{
			ID:            "border_raid",
			Name:          "Border Raid",
			Type:          EventOrderAttack,
			Description:   "Knights of the Order cross the frontier in force.",
			OrderStrength: 90,
		},
		{
			ID:          "archbishop_blessing",
			Name:        "Blessing of the Archbishop",
			Type:        EventImmediate,
			Description: "The lord archbishop blesses the host at St. Sophia.",
			Effects:     []EffectSpec{{Type: EffectStrength, Target: TargetAll, Value: 10, Turns: 1}},
		},
		{
			ID:          "boyar_feud",
			Name:        "Boyar Feud",
			Type:        EventVoting,
			Description: "Two boyar clans take their quarrel to the veche.",
			Options: []EventOption{
				{ID: "support", Text: "Back the elder clan", CostText: "-1 from every treasury, boyars +10 strength for 2 rounds",
					Cost: 1, Effects: []EffectSpec{{Type: EffectStrength, Target: string(Boyars), Value: 10, Turns: 2}}},
				{ID: "mediate", Text: "Appoint mediators", CostText: "+0.5 to every treasury",
					Payout: 0.5},
			},
		},
		{
			ID:            "crusade",
			Name:          "Crusade",
			Type:          EventOrderAttack,
			Description:   "The Master of the Order proclaims a crusade against the schismatics.",
			OrderStrength: 120,
		},
		{
			ID:          "torzhok_fair",
			Name:        "Fair at Torzhok",
			Type:        EventVoting,
			Description: "Merchants ask the city to guard the caravans to the great fair.",
			Options: []EventOption{
				{ID: "escort", Text: "Send an escort", CostText: "+1 to every treasury, merchants income +50% for 1 round",
					Payout: 1, Effects: []EffectSpec{{Type: EffectIncome, Target: string(Merchants), Value: 0.5, Turns: 1}}},
				{ID: "decline", Text: "Let the merchants fend for themselves", CostText: "no effect"},
			},
		},
		{
			ID:          "pestilence",
			Name:        "Pestilence",
			Type:        EventImmediate,
			Description: "Plague reaches the city through the trading yards.",
			Effects: []EffectSpec{
				{Type: EffectStrength, Target: TargetAll, Value: -10, Turns: 2},
				{Type: EffectIncome, Target: string(Commoners), Value: -0.5, Turns: 1},
			},
		},
	}
}
