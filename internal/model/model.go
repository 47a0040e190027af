package model

import (
	"encoding/json"
	"time"

	"github.com/freeeve/veche/pkg/veche"
)

// Match statuses.
const (
	StatusWaiting  = "waiting"
	StatusActive   = "active"
	StatusFinished = "finished"
)

// User represents a registered user.
type User struct {
	ID          string    `json:"id"`
	Provider    string    `json:"provider"`
	ProviderID  string    `json:"provider_id"`
	DisplayName string    `json:"display_name"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Match is one three-seat game of Veche.
type Match struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	CreatorID     string     `json:"creator_id"`
	Status        string     `json:"status"` // waiting, active, finished
	Deterministic bool       `json:"deterministic"`
	Seed          int64      `json:"-"`
	CreatedAt     time.Time  `json:"created_at"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
	FinishedAt    *time.Time `json:"finished_at,omitempty"`
	Seats         []Seat     `json:"seats,omitempty"`
}

// SeatOf returns the seat index held by the user, or -1.
func (m *Match) SeatOf(userID string) int {
	for _, s := range m.Seats {
		if s.UserID == userID {
			return s.Seat
		}
	}
	return -1
}

// Seat binds a user to one faction seat of a match.
type Seat struct {
	MatchID  string        `json:"match_id"`
	UserID   string        `json:"user_id"`
	Seat     int           `json:"seat"`
	Faction  veche.Faction `json:"faction"`
	IsBot    bool          `json:"is_bot"`
	JoinedAt time.Time     `json:"joined_at"`
}

// ActionRecord is one applied action in a match journal. Only accepted actions
// are journaled, together with the random values they consumed, so replaying the
// journal from the initial state reproduces the match exactly.
type ActionRecord struct {
	MatchID    string             `json:"match_id"`
	Seq        int                `json:"seq"`
	Seat       int                `json:"seat"`
	Action     veche.Action       `json:"action"`
	Random     veche.RandomValues `json:"random"`
	ResultType veche.ResultType   `json:"result_type"`
	CreatedAt  time.Time          `json:"created_at"`
}

// Snapshot is the persisted state of a match after the action with sequence Seq.
type Snapshot struct {
	MatchID   string          `json:"match_id"`
	Seq       int             `json:"seq"`
	State     json.RawMessage `json:"state"`
	Digest    string          `json:"digest"`
	CreatedAt time.Time       `json:"created_at"`
}
