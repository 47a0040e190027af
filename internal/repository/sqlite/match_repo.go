package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/freeeve/veche/internal/model"
	"github.com/freeeve/veche/internal/repository"
)

// MatchRepo handles match and match_seats database operations.
type MatchRepo struct {
	db *sql.DB
}

// NewMatchRepo creates a MatchRepo.
func NewMatchRepo(db *sql.DB) *MatchRepo {
	return &MatchRepo{db: db}
}

const matchColumns = `id, name, creator_id, status, deterministic, seed, created_at, started_at, finished_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMatch(row rowScanner) (model.Match, error) {
	var m model.Match
	var created int64
	var started, finished sql.NullInt64
	if err := row.Scan(&m.ID, &m.Name, &m.CreatorID, &m.Status, &m.Deterministic, &m.Seed,
		&created, &started, &finished); err != nil {
		return m, err
	}
	m.CreatedAt = fromMillis(created)
	m.StartedAt = fromNullMillis(started)
	m.FinishedAt = fromNullMillis(finished)
	return m, nil
}

// Create inserts a new match in waiting status.
func (r *MatchRepo) Create(ctx context.Context, name, creatorID string, deterministic bool, seed int64) (*model.Match, error) {
	id := uuid.NewString()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO matches (id, name, creator_id, status, deterministic, seed, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, name, creatorID, model.StatusWaiting, deterministic, seed, toMillis(time.Now()),
	)
	if err != nil {
		return nil, fmt.Errorf("create match: %w", err)
	}
	return r.FindByID(ctx, id)
}

// FindByID returns a match with its seats, or nil if it does not exist.
func (r *MatchRepo) FindByID(ctx context.Context, id string) (*model.Match, error) {
	m, err := scanMatch(r.db.QueryRowContext(ctx, `SELECT `+matchColumns+` FROM matches WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find match: %w", err)
	}
	seats, err := r.ListSeats(ctx, id)
	if err != nil {
		return nil, err
	}
	m.Seats = seats
	return &m, nil
}

// ListOpen returns matches still waiting for players.
func (r *MatchRepo) ListOpen(ctx context.Context) ([]model.Match, error) {
	return r.list(ctx, "list open matches",
		`SELECT `+matchColumns+` FROM matches WHERE status = 'waiting' ORDER BY created_at DESC LIMIT 50`)
}

// ListByUser returns the matches a user created or holds a seat in.
func (r *MatchRepo) ListByUser(ctx context.Context, userID string) ([]model.Match, error) {
	return r.list(ctx, "list user matches",
		`SELECT `+matchColumns+` FROM matches m
		 WHERE m.creator_id = ?1
		    OR EXISTS (SELECT 1 FROM match_seats s WHERE s.match_id = m.id AND s.user_id = ?1)
		 ORDER BY m.created_at DESC LIMIT 50`, userID)
}

// ListActive returns every match in progress.
func (r *MatchRepo) ListActive(ctx context.Context) ([]model.Match, error) {
	return r.list(ctx, "list active matches",
		`SELECT `+matchColumns+` FROM matches WHERE status = 'active' ORDER BY created_at`)
}

func (r *MatchRepo) list(ctx context.Context, what, query string, args ...any) ([]model.Match, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", what, err)
	}
	defer rows.Close()

	var matches []model.Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

// ListSeats returns the seats of a match in seat order.
func (r *MatchRepo) ListSeats(ctx context.Context, matchID string) ([]model.Seat, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT match_id, user_id, seat, faction, is_bot, joined_at
		 FROM match_seats WHERE match_id = ? ORDER BY seat`, matchID)
	if err != nil {
		return nil, fmt.Errorf("list seats: %w", err)
	}
	defer rows.Close()

	var seats []model.Seat
	for rows.Next() {
		var s model.Seat
		var joined int64
		if err := rows.Scan(&s.MatchID, &s.UserID, &s.Seat, &s.Faction, &s.IsBot, &joined); err != nil {
			return nil, fmt.Errorf("scan seat: %w", err)
		}
		s.JoinedAt = fromMillis(joined)
		seats = append(seats, s)
	}
	return seats, rows.Err()
}

// AddSeat seats a user. The (match, seat) and (match, user) pairs are unique.
func (r *MatchRepo) AddSeat(ctx context.Context, seat model.Seat) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO match_seats (match_id, user_id, seat, faction, is_bot, joined_at) VALUES (?, ?, ?, ?, ?, ?)`,
		seat.MatchID, seat.UserID, seat.Seat, seat.Faction, seat.IsBot, toMillis(time.Now()),
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("add seat %d: %w", seat.Seat, repository.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("add seat: %w", err)
	}
	return nil
}

// SetStatus moves a match to a new status, stamping the start or finish time.
func (r *MatchRepo) SetStatus(ctx context.Context, matchID, status string) error {
	now := toMillis(time.Now())
	var err error
	switch status {
	case model.StatusActive:
		_, err = r.db.ExecContext(ctx, `UPDATE matches SET status = ?, started_at = ? WHERE id = ?`, status, now, matchID)
	case model.StatusFinished:
		_, err = r.db.ExecContext(ctx, `UPDATE matches SET status = ?, finished_at = ? WHERE id = ?`, status, now, matchID)
	default:
		_, err = r.db.ExecContext(ctx, `UPDATE matches SET status = ? WHERE id = ?`, status, matchID)
	}
	if err != nil {
		return fmt.Errorf("set match status: %w", err)
	}
	return nil
}
