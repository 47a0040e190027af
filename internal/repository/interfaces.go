package repository

import (
	"context"
	"errors"

	"github.com/freeeve/veche/internal/model"
)

// ErrConflict is returned when a write collides with a uniqueness constraint,
// such as a seat or user taken by a concurrent join.
var ErrConflict = errors.New("conflicting write")

// UserRepository defines user data operations.
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByProviderID(ctx context.Context, provider, providerID string) (*model.User, error)
	Upsert(ctx context.Context, provider, providerID, displayName, avatarURL string) (*model.User, error)
	UpdateDisplayName(ctx context.Context, id, displayName string) error
}

// MatchRepository defines match and seat data operations.
type MatchRepository interface {
	Create(ctx context.Context, name, creatorID string, deterministic bool, seed int64) (*model.Match, error)
	FindByID(ctx context.Context, id string) (*model.Match, error)
	ListOpen(ctx context.Context) ([]model.Match, error)
	ListByUser(ctx context.Context, userID string) ([]model.Match, error)
	ListActive(ctx context.Context) ([]model.Match, error)
	AddSeat(ctx context.Context, seat model.Seat) error
	SetStatus(ctx context.Context, matchID, status string) error
}

// JournalRepository stores the ordered action log and state snapshots of matches.
type JournalRepository interface {
	// Commit atomically appends rec and stores the snapshot taken after it.
	Commit(ctx context.Context, rec model.ActionRecord, snap model.Snapshot) error
	List(ctx context.Context, matchID string) ([]model.ActionRecord, error)
	// SaveSnapshot stores a snapshot with no journal record, such as seq 0 at match start.
	SaveSnapshot(ctx context.Context, snap model.Snapshot) error
	LatestSnapshot(ctx context.Context, matchID string) (*model.Snapshot, error)
}

// MatchCache holds live match state (Redis). A missing entry is not an error:
// GetState returns nil data.
type MatchCache interface {
	SetState(ctx context.Context, matchID string, seq int, state []byte) error
	GetState(ctx context.Context, matchID string) (seq int, state []byte, err error)
	DeleteMatch(ctx context.Context, matchID string) error
}
