package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// Key patterns for Redis match state.
func stateKey(matchID string) string { return "match:" + matchID + ":state" }

const (
	fieldSeq   = "seq"
	fieldState = "state"
)

// SetState stores the live state JSON of a match, LZ4-compressed, together with
// the journal sequence number it corresponds to.
func (c *Client) SetState(ctx context.Context, matchID string, seq int, state []byte) error {
	packed, err := compress(state)
	if err != nil {
		return fmt.Errorf("compress state: %w", err)
	}
	return c.rdb.HSet(ctx, stateKey(matchID), fieldSeq, seq, fieldState, packed).Err()
}

// GetState returns the live state JSON and its sequence number. A match with no
// cached state returns nil data and no error.
func (c *Client) GetState(ctx context.Context, matchID string) (int, []byte, error) {
	vals, err := c.rdb.HMGet(ctx, stateKey(matchID), fieldSeq, fieldState).Result()
	if err == redis.Nil {
		return 0, nil, nil
	}
	if err != nil {
		return 0, nil, fmt.Errorf("get match state: %w", err)
	}
	seqVal, _ := vals[0].(string)
	packed, _ := vals[1].(string)
	if seqVal == "" || packed == "" {
		return 0, nil, nil
	}
	seq, err := strconv.Atoi(seqVal)
	if err != nil {
		return 0, nil, fmt.Errorf("parse state seq: %w", err)
	}
	state, err := decompress([]byte(packed))
	if err != nil {
		return 0, nil, fmt.Errorf("decompress state: %w", err)
	}
	return seq, state, nil
}

// DeleteMatch removes all cached data for a match.
func (c *Client) DeleteMatch(ctx context.Context, matchID string) error {
	return c.rdb.Del(ctx, stateKey(matchID)).Err()
}
