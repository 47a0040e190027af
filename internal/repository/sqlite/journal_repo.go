package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/freeeve/veche/internal/model"
	"github.com/freeeve/veche/internal/repository"
)

// JournalRepo handles the match_actions and match_snapshots tables.
type JournalRepo struct {
	db *sql.DB
}

// NewJournalRepo creates a JournalRepo.
func NewJournalRepo(db *sql.DB) *JournalRepo {
	return &JournalRepo{db: db}
}

// Commit writes one journal record together with the snapshot taken after it.
// Either both rows land or neither does. A sequence number already in the
// journal fails with repository.ErrConflict.
func (r *JournalRepo) Commit(ctx context.Context, rec model.ActionRecord, snap model.Snapshot) error {
	action, err := json.Marshal(rec.Action)
	if err != nil {
		return fmt.Errorf("marshal action: %w", err)
	}
	random, err := json.Marshal(rec.Random)
	if err != nil {
		return fmt.Errorf("marshal random values: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin commit: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO match_actions (match_id, seq, seat, action, random, result_type, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.MatchID, rec.Seq, rec.Seat, string(action), string(random), string(rec.ResultType), stamp(rec.CreatedAt),
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("append action %d: %w", rec.Seq, repository.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("append action: %w", err)
	}
	if err := saveSnapshot(ctx, tx, snap); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit action %d: %w", rec.Seq, err)
	}
	return nil
}

// List returns a match's journal in sequence order.
func (r *JournalRepo) List(ctx context.Context, matchID string) ([]model.ActionRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT match_id, seq, seat, action, random, result_type, created_at
		 FROM match_actions WHERE match_id = ? ORDER BY seq`, matchID)
	if err != nil {
		return nil, fmt.Errorf("list actions: %w", err)
	}
	defer rows.Close()

	var records []model.ActionRecord
	for rows.Next() {
		var rec model.ActionRecord
		var action, random string
		var created int64
		if err := rows.Scan(&rec.MatchID, &rec.Seq, &rec.Seat, &action, &random, &rec.ResultType, &created); err != nil {
			return nil, fmt.Errorf("scan action: %w", err)
		}
		if err := json.Unmarshal([]byte(action), &rec.Action); err != nil {
			return nil, fmt.Errorf("decode action %d: %w", rec.Seq, err)
		}
		if err := json.Unmarshal([]byte(random), &rec.Random); err != nil {
			return nil, fmt.Errorf("decode random values %d: %w", rec.Seq, err)
		}
		rec.CreatedAt = fromMillis(created)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// SaveSnapshot stores the state after the action with the snapshot's sequence number.
func (r *JournalRepo) SaveSnapshot(ctx context.Context, snap model.Snapshot) error {
	return saveSnapshot(ctx, r.db, snap)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func saveSnapshot(ctx context.Context, db execer, snap model.Snapshot) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO match_snapshots (match_id, seq, state, digest, created_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (match_id, seq) DO UPDATE SET state = excluded.state, digest = excluded.digest`,
		snap.MatchID, snap.Seq, string(snap.State), snap.Digest, stamp(snap.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// stamp keeps the caller's clock; zero times fall back to now.
func stamp(t time.Time) int64 {
	if t.IsZero() {
		t = time.Now()
	}
	return toMillis(t)
}

// LatestSnapshot returns the most recent snapshot, or nil if none exists.
func (r *JournalRepo) LatestSnapshot(ctx context.Context, matchID string) (*model.Snapshot, error) {
	var s model.Snapshot
	var state string
	var created int64
	err := r.db.QueryRowContext(ctx,
		`SELECT match_id, seq, state, digest, created_at
		 FROM match_snapshots WHERE match_id = ? ORDER BY seq DESC LIMIT 1`, matchID,
	).Scan(&s.MatchID, &s.Seq, &state, &s.Digest, &created)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest snapshot: %w", err)
	}
	s.State = json.RawMessage(state)
	s.CreatedAt = fromMillis(created)
	return &s, nil
}
