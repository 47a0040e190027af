package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/freeeve/veche/internal/model"
)

// JournalRepo handles the match_actions and match_snapshots tables.
type JournalRepo struct {
	db *sql.DB
}

// NewJournalRepo creates a JournalRepo.
func NewJournalRepo(db *sql.DB) *JournalRepo {
	return &JournalRepo{db: db}
}

// Commit writes one journal record together with the snapshot taken after it,
// in a single transaction. A sequence number already in the journal fails with
// repository.ErrConflict.
func (r *JournalRepo) Commit(ctx context.Context, rec model.ActionRecord, snap model.Snapshot) error {
	action, err := json.Marshal(rec.Action)
	if err != nil {
		return fmt.Errorf("marshal action: %w", err)
	}
	random, err := json.Marshal(rec.Random)
	if err != nil {
		return fmt.Errorf("marshal random values: %w", err)
	}
	return inTx(ctx, r.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO match_actions (match_id, seq, seat, action, random, result_type, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			rec.MatchID, rec.Seq, rec.Seat, action, random, rec.ResultType, stamp(rec.CreatedAt),
		)
		if err != nil {
			return fmt.Errorf("append action: %w", conflict(err, fmt.Sprintf("seq %d", rec.Seq)))
		}
		return saveSnapshot(ctx, tx, snap)
	})
}

// List returns a match's journal in sequence order.
func (r *JournalRepo) List(ctx context.Context, matchID string) ([]model.ActionRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT match_id, seq, seat, action, random, result_type, created_at
		 FROM match_actions WHERE match_id = $1 ORDER BY seq`, matchID)
	if err != nil {
		return nil, fmt.Errorf("list actions: %w", err)
	}
	defer rows.Close()

	var records []model.ActionRecord
	for rows.Next() {
		var rec model.ActionRecord
		var action, random []byte
		if err := rows.Scan(&rec.MatchID, &rec.Seq, &rec.Seat, &action, &random, &rec.ResultType, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan action: %w", err)
		}
		if err := json.Unmarshal(action, &rec.Action); err != nil {
			return nil, fmt.Errorf("decode action %d: %w", rec.Seq, err)
		}
		if err := json.Unmarshal(random, &rec.Random); err != nil {
			return nil, fmt.Errorf("decode random values %d: %w", rec.Seq, err)
		}
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
		`INSERT INTO match_snapshots (match_id, seq, state, digest, created_at) VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (match_id, seq) DO UPDATE SET state = EXCLUDED.state, digest = EXCLUDED.digest`,
		snap.MatchID, snap.Seq, []byte(snap.State), snap.Digest, stamp(snap.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

func stamp(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now()
	}
	return t
}

// LatestSnapshot returns the most recent snapshot, or nil if none exists.
func (r *JournalRepo) LatestSnapshot(ctx context.Context, matchID string) (*model.Snapshot, error) {
	var s model.Snapshot
	var state []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT match_id, seq, state, digest, created_at
		 FROM match_snapshots WHERE match_id = $1 ORDER BY seq DESC LIMIT 1`, matchID,
	).Scan(&s.MatchID, &s.Seq, &state, &s.Digest, &s.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest snapshot: %w", err)
	}
	s.State = json.RawMessage(state)
	return &s, nil
}
