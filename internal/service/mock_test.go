package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/freeeve/veche/internal/model"
	"github.com/freeeve/veche/internal/repository"
)

type mockMatchRepo struct {
	matches map[string]*model.Match
	seats   map[string][]model.Seat
}

func newMockMatchRepo() *mockMatchRepo {
	return &mockMatchRepo{
		matches: make(map[string]*model.Match),
		seats:   make(map[string][]model.Seat),
	}
}

func (m *mockMatchRepo) Create(_ context.Context, name, creatorID string, deterministic bool, seed int64) (*model.Match, error) {
	match := &model.Match{
		ID:            fmt.Sprintf("match-%d", len(m.matches)+1),
		Name:          name,
		CreatorID:     creatorID,
		Status:        model.StatusWaiting,
		Deterministic: deterministic,
		Seed:          seed,
		CreatedAt:     time.Now(),
	}
	m.matches[match.ID] = match
	return match, nil
}

func (m *mockMatchRepo) FindByID(_ context.Context, id string) (*model.Match, error) {
	match, ok := m.matches[id]
	if !ok {
		return nil, nil
	}
	cp := *match
	cp.Seats = append([]model.Seat(nil), m.seats[id]...)
	return &cp, nil
}

func (m *mockMatchRepo) listWhere(keep func(*model.Match) bool) []model.Match {
	var result []model.Match
	for _, match := range m.matches {
		if keep(match) {
			result = append(result, *match)
		}
	}
	return result
}

func (m *mockMatchRepo) ListOpen(_ context.Context) ([]model.Match, error) {
	return m.listWhere(func(match *model.Match) bool { return match.Status == model.StatusWaiting }), nil
}

func (m *mockMatchRepo) ListActive(_ context.Context) ([]model.Match, error) {
	return m.listWhere(func(match *model.Match) bool { return match.Status == model.StatusActive }), nil
}

func (m *mockMatchRepo) ListByUser(_ context.Context, userID string) ([]model.Match, error) {
	return m.listWhere(func(match *model.Match) bool {
		for _, s := range m.seats[match.ID] {
			if s.UserID == userID {
				return true
			}
		}
		return false
	}), nil
}

func (m *mockMatchRepo) AddSeat(_ context.Context, seat model.Seat) error {
	for _, s := range m.seats[seat.MatchID] {
		if s.Seat == seat.Seat || s.UserID == seat.UserID {
			return repository.ErrConflict
		}
	}
	seat.JoinedAt = time.Now()
	m.seats[seat.MatchID] = append(m.seats[seat.MatchID], seat)
	return nil
}

func (m *mockMatchRepo) SetStatus(_ context.Context, matchID, status string) error {
	match, ok := m.matches[matchID]
	if !ok {
		return fmt.Errorf("match %s not found", matchID)
	}
	match.Status = status
	return nil
}

type mockUserRepo struct {
	users map[string]*model.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) FindByID(_ context.Context, id string) (*model.User, error) {
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

func (m *mockUserRepo) FindByProviderID(_ context.Context, provider, providerID string) (*model.User, error) {
	return m.users[provider+":"+providerID], nil
}

func (m *mockUserRepo) Upsert(_ context.Context, provider, providerID, displayName, avatarURL string) (*model.User, error) {
	key := provider + ":" + providerID
	if u, ok := m.users[key]; ok {
		if avatarURL != "" {
			u.AvatarURL = avatarURL
		}
		return u, nil
	}
	u := &model.User{
		ID:          fmt.Sprintf("user-%d", len(m.users)+1),
		Provider:    provider,
		ProviderID:  providerID,
		DisplayName: displayName,
		AvatarURL:   avatarURL,
	}
	m.users[key] = u
	return u, nil
}

func (m *mockUserRepo) UpdateDisplayName(_ context.Context, id, displayName string) error {
	for _, u := range m.users {
		if u.ID == id {
			u.DisplayName = displayName
			return nil
		}
	}
	return fmt.Errorf("user %s not found", id)
}

type mockJournal struct {
	records   map[string][]model.ActionRecord
	snapshots map[string][]model.Snapshot
	commitErr error
}

func newMockJournal() *mockJournal {
	return &mockJournal{
		records:   make(map[string][]model.ActionRecord),
		snapshots: make(map[string][]model.Snapshot),
	}
}

func (m *mockJournal) Commit(_ context.Context, rec model.ActionRecord, snap model.Snapshot) error {
	if m.commitErr != nil {
		return m.commitErr
	}
	for _, r := range m.records[rec.MatchID] {
		if r.Seq == rec.Seq {
			return fmt.Errorf("seq %d: %w", rec.Seq, repository.ErrConflict)
		}
	}
	m.records[rec.MatchID] = append(m.records[rec.MatchID], rec)
	m.snapshots[snap.MatchID] = append(m.snapshots[snap.MatchID], snap)
	return nil
}

func (m *mockJournal) List(_ context.Context, matchID string) ([]model.ActionRecord, error) {
	return append([]model.ActionRecord(nil), m.records[matchID]...), nil
}

func (m *mockJournal) SaveSnapshot(_ context.Context, snap model.Snapshot) error {
	m.snapshots[snap.MatchID] = append(m.snapshots[snap.MatchID], snap)
	return nil
}

func (m *mockJournal) LatestSnapshot(_ context.Context, matchID string) (*model.Snapshot, error) {
	snaps := m.snapshots[matchID]
	if len(snaps) == 0 {
		return nil, nil
	}
	latest := snaps[len(snaps)-1]
	return &latest, nil
}

type cachedState struct {
	seq  int
	data []byte
}

type mockCache struct {
	states map[string]cachedState
	// failSets makes the next n SetState calls fail.
	failSets  int
	deleteErr error
}

func newMockCache() *mockCache {
	return &mockCache{states: make(map[string]cachedState)}
}

func (m *mockCache) SetState(_ context.Context, matchID string, seq int, state []byte) error {
	if m.failSets > 0 {
		m.failSets--
		return errors.New("redis unavailable")
	}
	m.states[matchID] = cachedState{seq: seq, data: state}
	return nil
}

func (m *mockCache) GetState(_ context.Context, matchID string) (int, []byte, error) {
	st, ok := m.states[matchID]
	if !ok {
		return 0, nil, nil
	}
	return st.seq, st.data, nil
}

func (m *mockCache) DeleteMatch(_ context.Context, matchID string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.states, matchID)
	return nil
}

type broadcastEvent struct {
	matchID   string
	eventType string
	data      any
}

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []broadcastEvent
}

func (b *recordingBroadcaster) BroadcastMatchEvent(matchID, eventType string, data any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, broadcastEvent{matchID, eventType, data})
}

func (b *recordingBroadcaster) types() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.events))
	for i, e := range b.events {
		out[i] = e.eventType
	}
	return out
}
