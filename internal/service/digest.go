package service

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"lukechampine.com/blake3"

	"github.com/freeeve/veche/internal/model"
	"github.com/freeeve/veche/pkg/veche"
)

// StateDigest returns the hex BLAKE3 hash of a serialized game state.
// encoding/json sorts map keys, so equal states always hash the same.
func StateDigest(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// encodeState serializes a state and computes its digest.
func encodeState(gs *veche.GameState) ([]byte, string, error) {
	data, err := json.Marshal(gs)
	if err != nil {
		return nil, "", fmt.Errorf("marshal state: %w", err)
	}
	return data, StateDigest(data), nil
}

// ReplayJournal re-applies journaled actions to a fresh game. Records must be
// contiguous from seq 1; every record must still be accepted by the engine.
func ReplayJournal(e *veche.Engine, recs []model.ActionRecord) (*veche.GameState, error) {
	gs := e.NewGame()
	for i, rec := range recs {
		if rec.Seq != i+1 {
			return nil, fmt.Errorf("journal gap: expected seq %d, got %d", i+1, rec.Seq)
		}
		ns, res, err := e.Apply(gs, rec.Action, rec.Seat, rec.Random)
		if err != nil {
			return nil, fmt.Errorf("replay seq %d: %w", rec.Seq, err)
		}
		if rec.ResultType != "" && res.Type != rec.ResultType {
			return nil, fmt.Errorf("replay seq %d: expected %s, got %s", rec.Seq, rec.ResultType, res.Type)
		}
		gs = ns
	}
	return gs, nil
}

// ReplayReport compares a replayed journal with the stored snapshot.
type ReplayReport struct {
	MatchID      string `json:"match_id"`
	Actions      int    `json:"actions"`
	Digest       string `json:"digest"`
	StoredSeq    int    `json:"stored_seq"`
	StoredDigest string `json:"stored_digest"`
	Match        bool   `json:"match"`
}
