package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/freeeve/veche/internal/model"
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
	err := row.Scan(&m.ID, &m.Name, &m.CreatorID, &m.Status, &m.Deterministic, &m.Seed,
		&m.CreatedAt, &m.StartedAt, &m.FinishedAt)
	return m, err
}

// Create inserts a new match in waiting status.
func (r *MatchRepo) Create(ctx context.Context, name, creatorID string, deterministic bool, seed int64) (*model.Match, error) {
	m, err := scanMatch(r.db.QueryRowContext(ctx,
		`INSERT INTO matches (name, creator_id, deterministic, seed)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+matchColumns,
		name, creatorID, deterministic, seed,
	))
	if err != nil {
		return nil, fmt.Errorf("create match: %w", err)
	}
	return &m, nil
}

// FindByID returns a match with its seats, or nil if it does not exist.
func (r *MatchRepo) FindByID(ctx context.Context, id string) (*model.Match, error) {
	m, err := scanMatch(r.db.QueryRowContext(ctx,
		`SELECT `+matchColumns+` FROM matches WHERE id = $1`, id))
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
		 WHERE m.creator_id = $1
		    OR EXISTS (SELECT 1 FROM match_seats s WHERE s.match_id = m.id AND s.user_id = $1)
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
		 FROM match_seats WHERE match_id = $1 ORDER BY seat`, matchID)
	if err != nil {
		return nil, fmt.Errorf("list seats: %w", err)
	}
	defer rows.Close()

	var seats []model.Seat
	for rows.Next() {
		var s model.Seat
		if err := rows.Scan(&s.MatchID, &s.UserID, &s.Seat, &s.Faction, &s.IsBot, &s.JoinedAt); err != nil {
			return nil, fmt.Errorf("scan seat: %w", err)
		}
		seats = append(seats, s)
	}
	return seats, rows.Err()
}

// AddSeat seats a user. The (match, seat) and (match, user) pairs are unique.
func (r *MatchRepo) AddSeat(ctx context.Context, seat model.Seat) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO match_seats (match_id, user_id, seat, faction, is_bot) VALUES ($1, $2, $3, $4, $5)`,
		seat.MatchID, seat.UserID, seat.Seat, seat.Faction, seat.IsBot,
	)
	if err != nil {
		return fmt.Errorf("add seat: %w", conflict(err, fmt.Sprintf("seat %d", seat.Seat)))
	}
	return nil
}

// SetStatus moves a match to a new status, stamping the start or finish time.
func (r *MatchRepo) SetStatus(ctx context.Context, matchID, status string) error {
	var query string
	switch status {
	case model.StatusActive:
		query = `UPDATE matches SET status = $1, started_at = now() WHERE id = $2`
	case model.StatusFinished:
		query = `UPDATE matches SET status = $1, finished_at = now() WHERE id = $2`
	default:
		query = `UPDATE matches SET status = $1 WHERE id = $2`
	}
	if _, err := r.db.ExecContext(ctx, query, status, matchID); err != nil {
		return fmt.Errorf("set match status: %w", err)
	}
	return nil
}
