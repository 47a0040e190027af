package veche

// ActionType enumerates the actions a player can submit.
type ActionType string

const (
	ActionNextPhase        ActionType = "NEXT_PHASE"
	ActionBuildBuilding    ActionType = "BUILD_BUILDING"
	ActionBuyEquipment     ActionType = "BUY_EQUIPMENT"
	ActionEndTurn          ActionType = "END_TURN"
	ActionSelectRegion     ActionType = "SELECT_REGION"
	ActionDrawEvent        ActionType = "DRAW_EVENT"
	ActionVoteEvent        ActionType = "VOTE_EVENT"
	ActionResolveEvent     ActionType = "RESOLVE_EVENT"
	ActionRevealEvent      ActionType = "REVEAL_EVENT"
	ActionInitiateAttack   ActionType = "INITIATE_ATTACK"
	ActionVoteAttack       ActionType = "VOTE_ATTACK"
	ActionExecuteAttack    ActionType = "EXECUTE_ATTACK"
	ActionCancelAttack     ActionType = "CANCEL_ATTACK"
	ActionInitiateFortress ActionType = "INITIATE_FORTRESS"
	ActionVoteFortress     ActionType = "VOTE_FORTRESS"
	ActionExecuteFortress  ActionType = "EXECUTE_FORTRESS"
	ActionCancelFortress   ActionType = "CANCEL_FORTRESS"
	ActionResetGame        ActionType = "RESET_GAME"
)

// Action is the envelope received from a client.
type Action struct {
	Type         ActionType   `json:"type"`
	RegionName   RegionID     `json:"region_name,omitempty"`
	BuildingType BuildingType `json:"building_type,omitempty"`
	Item         Item         `json:"item,omitempty"`
	Vote         *bool        `json:"vote,omitempty"`
	Option       OptionID     `json:"option,omitempty"`
	TargetRegion RegionID     `json:"target_region,omitempty"`
}

// RandomValues carries externally supplied samples in [0,1). A nil value makes the
// engine fall back to its own source.
type RandomValues struct {
	BattleRoll *float64 `json:"battle_roll,omitempty"`
	EventRoll  *float64 `json:"event_roll,omitempty"`
	TargetRoll *float64 `json:"target_roll,omitempty"`
}

// Roll returns a pointer to v, for building RandomValues.
func Roll(v float64) *float64 {
	return &v
}

// ResultType is the kind of outcome broadcast after a successful action.
type ResultType string

const (
	ResultPhaseChanged      ResultType = "phase_changed"
	ResultBuildingBuilt     ResultType = "building_built"
	ResultEquipmentBought   ResultType = "equipment_bought"
	ResultTurnPassed        ResultType = "turn_passed"
	ResultRegionSelected    ResultType = "region_selected"
	ResultAttackInitiated   ResultType = "attack_initiated"
	ResultFortressInitiated ResultType = "fortress_initiated"
	ResultVoteCast          ResultType = "vote_cast"
	ResultAttackExecuted    ResultType = "attack_executed"
	ResultAttackCancelled   ResultType = "attack_cancelled"
	ResultFortressBuilt     ResultType = "fortress_built"
	ResultFortressCancelled ResultType = "fortress_cancelled"
	ResultEventDrawn        ResultType = "event_drawn"
	ResultEventVoteCast     ResultType = "event_vote_cast"
	ResultEventResolved     ResultType = "event_resolved"
	ResultEventRevealed     ResultType = "event_revealed"
	ResultGameReset         ResultType = "game_reset"
)

// Cancellation reasons reported in Result.Reason.
const (
	ReasonNoParticipants    = "no_participants"
	ReasonInsufficientFunds = "insufficient_funds"
	ReasonCancelled         = "cancelled"
	ReasonPhaseEnded        = "phase_ended"
)

// Result describes what an action did.
type Result struct {
	Type               ResultType `json:"type"`
	Player             int        `json:"player"`
	Reason             string     `json:"reason,omitempty"`
	Message            string     `json:"message,omitempty"`
	Phase              PhaseType  `json:"phase,omitempty"`
	Region             RegionID   `json:"region,omitempty"`
	Event              EventID    `json:"event,omitempty"`
	Option             OptionID   `json:"option,omitempty"`
	Participants       []int      `json:"participants,omitempty"`
	CostPerParticipant float64    `json:"cost_per_participant,omitempty"`
	Battle             *Battle    `json:"battle,omitempty"`
}
