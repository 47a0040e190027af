package service

import (
	"context"
	crand "crypto/rand"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/veche/internal/bot"
	"github.com/freeeve/veche/internal/model"
	"github.com/freeeve/veche/internal/repository"
	"github.com/freeeve/veche/pkg/veche"
)

var (
	ErrMatchNotFound   = errors.New("match not found")
	ErrMatchNotWaiting = errors.New("match is not waiting for players")
	ErrMatchFull       = errors.New("match already has 3 players")
	ErrMatchNotActive  = errors.New("match is not active")
	ErrAlreadyJoined   = errors.New("already joined this match")
	ErrNotInMatch      = errors.New("you are not in this match")
	ErrStateMissing    = errors.New("match state not found")
)

// DefaultMaxBotMoves caps the bot actions run after a single human action.
const DefaultMaxBotMoves = 64

// MatchService handles the match lifecycle and applies actions to live matches.
type MatchService struct {
	matchRepo   repository.MatchRepository
	userRepo    repository.UserRepository
	journal     repository.JournalRepository
	cache       repository.MatchCache // optional
	broadcaster Broadcaster

	engines     map[bool]*veche.Engine
	strategy    bot.Strategy
	maxBotMoves int
	newSeed     func() int64
	now         func() time.Time

	// matchLocks serializes mutations of a match. Actions from different
	// connections of the same match would otherwise race on the journal sequence.
	matchLocks sync.Map
}

// NewMatchService creates a MatchService. cache may be nil, in which case state
// is always read from the latest snapshot.
func NewMatchService(
	matchRepo repository.MatchRepository,
	userRepo repository.UserRepository,
	journal repository.JournalRepository,
	cache repository.MatchCache,
	broadcaster Broadcaster,
) *MatchService {
	if broadcaster == nil {
		broadcaster = NoopBroadcaster{}
	}
	return &MatchService{
		matchRepo:   matchRepo,
		userRepo:    userRepo,
		journal:     journal,
		cache:       cache,
		broadcaster: broadcaster,
		engines: map[bool]*veche.Engine{
			false: veche.NewEngine(),
			true:  veche.NewEngine(veche.WithDeterministic(true)),
		},
		strategy:    bot.HeuristicStrategy{},
		maxBotMoves: DefaultMaxBotMoves,
		newSeed:     randomSeed,
		now:         time.Now,
	}
}

// SetStrategy configures the strategy used for bot seats.
func (s *MatchService) SetStrategy(st bot.Strategy) {
	s.strategy = st
}

// SetMaxBotMoves configures how many bot actions may follow one human action.
func (s *MatchService) SetMaxBotMoves(n int) {
	s.maxBotMoves = n
}

func randomSeed() int64 {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return time.Now().UnixNano()
	}
	return int64(binary.LittleEndian.Uint64(b[:]))
}

// rollsFor derives the random values for the action with the given sequence
// number. Every value is filled so the journal alone replays the match.
func rollsFor(seed int64, seq int) veche.RandomValues {
	r := rand.New(rand.NewPCG(uint64(seed), uint64(seq)))
	return veche.RandomValues{
		BattleRoll: veche.Roll(r.Float64()),
		EventRoll:  veche.Roll(r.Float64()),
		TargetRoll: veche.Roll(r.Float64()),
	}
}

func (s *MatchService) lockFor(matchID string) *sync.Mutex {
	mu, _ := s.matchLocks.LoadOrStore(matchID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// Engine returns the engine used for matches with the given event mode.
func (s *MatchService) Engine(deterministic bool) *veche.Engine {
	return s.engines[deterministic]
}

// CreateMatch creates a match with the creator in seat 0. With fillBots the other
// seats go to bots and the match starts immediately.
func (s *MatchService) CreateMatch(ctx context.Context, name, creatorID string, fillBots, deterministic bool) (*model.Match, error) {
	m, err := s.matchRepo.Create(ctx, name, creatorID, deterministic, s.newSeed())
	if err != nil {
		return nil, err
	}
	factions := veche.AllFactions()
	if err := s.matchRepo.AddSeat(ctx, model.Seat{
		MatchID: m.ID,
		UserID:  creatorID,
		Seat:    0,
		Faction: factions[0],
	}); err != nil {
		return nil, fmt.Errorf("seat creator: %w", err)
	}

	if fillBots {
		for seat := 1; seat < veche.PlayerCount; seat++ {
			botUser, err := s.userRepo.Upsert(ctx, "bot", fmt.Sprintf("bot-%d", seat), fmt.Sprintf("Bot %d", seat), "")
			if err != nil {
				return nil, fmt.Errorf("create bot user %d: %w", seat, err)
			}
			if err := s.matchRepo.AddSeat(ctx, model.Seat{
				MatchID: m.ID,
				UserID:  botUser.ID,
				Seat:    seat,
				Faction: factions[seat],
				IsBot:   true,
			}); err != nil {
				return nil, fmt.Errorf("seat bot %d: %w", seat, err)
			}
		}
	}

	m, err = s.matchRepo.FindByID(ctx, m.ID)
	if err != nil {
		return nil, err
	}
	if len(m.Seats) == veche.PlayerCount {
		return s.start(ctx, m)
	}
	return m, nil
}

// JoinMatch seats a user in the next free seat of a waiting match. The match
// starts when the last seat is taken.
func (s *MatchService) JoinMatch(ctx context.Context, matchID, userID string) (*model.Match, error) {
	mu := s.lockFor(matchID)
	mu.Lock()
	defer mu.Unlock()

	m, err := s.matchRepo.FindByID(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrMatchNotFound
	}
	if m.Status != model.StatusWaiting {
		return nil, ErrMatchNotWaiting
	}
	if m.SeatOf(userID) >= 0 {
		return nil, ErrAlreadyJoined
	}
	seat := len(m.Seats)
	if seat >= veche.PlayerCount {
		return nil, ErrMatchFull
	}

	err = s.matchRepo.AddSeat(ctx, model.Seat{
		MatchID: matchID,
		UserID:  userID,
		Seat:    seat,
		Faction: veche.AllFactions()[seat],
	})
	if errors.Is(err, repository.ErrConflict) {
		return nil, ErrMatchFull
	}
	if err != nil {
		return nil, err
	}

	m, err = s.matchRepo.FindByID(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if len(m.Seats) == veche.PlayerCount {
		return s.start(ctx, m)
	}
	return m, nil
}

// start stores the initial state as snapshot 0 and activates the match.
func (s *MatchService) start(ctx context.Context, m *model.Match) (*model.Match, error) {
	gs := s.Engine(m.Deterministic).NewGame()
	data, digest, err := encodeState(gs)
	if err != nil {
		return nil, err
	}
	if err := s.journal.SaveSnapshot(ctx, model.Snapshot{
		MatchID:   m.ID,
		Seq:       0,
		State:     data,
		Digest:    digest,
		CreatedAt: s.now(),
	}); err != nil {
		return nil, err
	}
	s.cacheState(ctx, m.ID, 0, data)
	if err := s.matchRepo.SetStatus(ctx, m.ID, model.StatusActive); err != nil {
		return nil, err
	}

	m, err = s.matchRepo.FindByID(ctx, m.ID)
	if err != nil {
		return nil, err
	}
	log.Info().Str("matchId", m.ID).Bool("deterministic", m.Deterministic).Msg("Match started")
	s.broadcaster.BroadcastMatchEvent(m.ID, "match_started", map[string]any{
		"match": m,
		"state": gs,
	})
	return m, nil
}

// GetMatch returns a match with its seats.
func (s *MatchService) GetMatch(ctx context.Context, matchID string) (*model.Match, error) {
	m, err := s.matchRepo.FindByID(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrMatchNotFound
	}
	return m, nil
}

// ListOpen returns matches waiting for players.
func (s *MatchService) ListOpen(ctx context.Context) ([]model.Match, error) {
	return s.matchRepo.ListOpen(ctx)
}

// ListByUser returns the matches a user is seated in.
func (s *MatchService) ListByUser(ctx context.Context, userID string) ([]model.Match, error) {
	return s.matchRepo.ListByUser(ctx, userID)
}

// State returns the current state of a started match and the sequence number of
// the last action applied to it.
func (s *MatchService) State(ctx context.Context, matchID string) (int, *veche.GameState, error) {
	if _, err := s.GetMatch(ctx, matchID); err != nil {
		return 0, nil, err
	}
	return s.load(ctx, matchID)
}

// load reads live state from the cache, falling back to the latest snapshot.
func (s *MatchService) load(ctx context.Context, matchID string) (int, *veche.GameState, error) {
	var (
		seq  int
		data []byte
	)
	if s.cache != nil {
		var err error
		seq, data, err = s.cache.GetState(ctx, matchID)
		if err != nil {
			log.Warn().Err(err).Str("matchId", matchID).Msg("Cache read failed, using snapshot")
			data = nil
		}
	}
	if data == nil {
		snap, err := s.latest(ctx, matchID)
		if err != nil {
			return 0, nil, err
		}
		seq, data = snap.Seq, snap.State
		s.cacheState(ctx, matchID, seq, data)
	}
	return decodeState(seq, data)
}

// loadLatest reads the latest snapshot, which is authoritative, and repairs a
// cache entry that disagrees with it. Mutations always start from here.
func (s *MatchService) loadLatest(ctx context.Context, matchID string) (int, *veche.GameState, error) {
	snap, err := s.latest(ctx, matchID)
	if err != nil {
		return 0, nil, err
	}
	if s.cache != nil {
		cached, data, err := s.cache.GetState(ctx, matchID)
		if err != nil || data == nil || cached != snap.Seq {
			if err == nil && data != nil {
				log.Warn().Str("matchId", matchID).Int("cached", cached).Int("seq", snap.Seq).Msg("Stale cached state, resyncing")
			}
			s.cacheState(ctx, matchID, snap.Seq, snap.State)
		}
	}
	return decodeState(snap.Seq, snap.State)
}

func (s *MatchService) latest(ctx context.Context, matchID string) (*model.Snapshot, error) {
	snap, err := s.journal.LatestSnapshot(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, ErrStateMissing
	}
	return snap, nil
}

// cacheState writes live state to the cache. If the write fails the entry is
// dropped so readers fall back to the snapshot instead of an older state.
func (s *MatchService) cacheState(ctx context.Context, matchID string, seq int, data []byte) {
	if s.cache == nil {
		return
	}
	err := s.cache.SetState(ctx, matchID, seq, data)
	if err == nil {
		return
	}
	log.Warn().Err(err).Str("matchId", matchID).Int("seq", seq).Msg("Failed to cache state, evicting")
	if err := s.cache.DeleteMatch(ctx, matchID); err != nil {
		log.Error().Err(err).Str("matchId", matchID).Msg("Failed to evict cached state")
	}
}

func decodeState(seq int, data []byte) (int, *veche.GameState, error) {
	var gs veche.GameState
	if err := json.Unmarshal(data, &gs); err != nil {
		return 0, nil, fmt.Errorf("unmarshal state: %w", err)
	}
	return seq, &gs, nil
}

// run is a match being mutated under its lock.
type run struct {
	match  *model.Match
	engine *veche.Engine
	seq    int
	state  *veche.GameState
}

// ApplyAction applies a player's action to an active match, then lets bot seats
// respond. Rejected actions leave the match untouched and are not journaled.
func (s *MatchService) ApplyAction(ctx context.Context, matchID, userID string, a veche.Action) (*veche.Result, *veche.GameState, error) {
	m, err := s.GetMatch(ctx, matchID)
	if err != nil {
		return nil, nil, err
	}
	if m.Status != model.StatusActive {
		return nil, nil, ErrMatchNotActive
	}
	seat := m.SeatOf(userID)
	if seat < 0 {
		return nil, nil, ErrNotInMatch
	}

	mu := s.lockFor(matchID)
	mu.Lock()
	defer mu.Unlock()

	r, err := s.begin(ctx, m)
	if err != nil {
		return nil, nil, err
	}
	res, err := s.step(ctx, r, seat, a)
	if err != nil {
		return nil, nil, err
	}
	s.runBots(ctx, r)
	return res, r.state, nil
}

func (s *MatchService) begin(ctx context.Context, m *model.Match) (*run, error) {
	seq, gs, err := s.loadLatest(ctx, m.ID)
	if err != nil {
		return nil, err
	}
	return &run{match: m, engine: s.Engine(m.Deterministic), seq: seq, state: gs}, nil
}

// step applies one action and persists it: journal record and snapshot in one
// commit, then cache, then broadcast.
func (s *MatchService) step(ctx context.Context, r *run, seat int, a veche.Action) (*veche.Result, error) {
	seq := r.seq + 1
	rv := rollsFor(r.match.Seed, seq)
	ns, res, err := r.engine.Apply(r.state, a, seat, rv)
	if err != nil {
		return nil, err
	}

	data, digest, err := encodeState(ns)
	if err != nil {
		return nil, err
	}
	now := s.now()
	rec := model.ActionRecord{
		MatchID:    r.match.ID,
		Seq:        seq,
		Seat:       seat,
		Action:     a,
		Random:     rv,
		ResultType: res.Type,
		CreatedAt:  now,
	}
	snap := model.Snapshot{
		MatchID:   r.match.ID,
		Seq:       seq,
		State:     data,
		Digest:    digest,
		CreatedAt: now,
	}
	if err := s.journal.Commit(ctx, rec, snap); err != nil {
		return nil, err
	}
	s.cacheState(ctx, r.match.ID, seq, data)
	r.seq, r.state = seq, ns

	log.Debug().Str("matchId", r.match.ID).Int("seq", seq).Int("seat", seat).
		Str("action", string(a.Type)).Str("result", string(res.Type)).Msg("Action applied")
	s.broadcaster.BroadcastMatchEvent(r.match.ID, string(res.Type), map[string]any{
		"seq":    seq,
		"result": res,
		"state":  ns,
	})
	return res, nil
}

// runBots lets bot seats act until none has anything left to do.
func (s *MatchService) runBots(ctx context.Context, r *run) {
	if s.strategy == nil {
		return
	}
	for moves := 0; moves < s.maxBotMoves; moves++ {
		acted := false
		for _, seat := range r.match.Seats {
			if !seat.IsBot {
				continue
			}
			a, ok := s.strategy.Decide(r.state, seat.Seat, r.engine)
			if !ok {
				continue
			}
			if _, err := s.step(ctx, r, seat.Seat, a); err != nil {
				log.Error().Err(err).Str("matchId", r.match.ID).Int("seat", seat.Seat).
					Str("action", string(a.Type)).Msg("Bot action failed")
				return
			}
			acted = true
			break
		}
		if !acted {
			return
		}
	}
	log.Warn().Str("matchId", r.match.ID).Int("limit", s.maxBotMoves).Msg("Bot move limit reached")
}

// Journal returns the accepted actions of a match in order.
func (s *MatchService) Journal(ctx context.Context, matchID string) ([]model.ActionRecord, error) {
	if _, err := s.GetMatch(ctx, matchID); err != nil {
		return nil, err
	}
	return s.journal.List(ctx, matchID)
}

// Replay re-applies the journal of a match from the initial state and compares
// the resulting digest with the latest stored snapshot.
func (s *MatchService) Replay(ctx context.Context, matchID string) (*ReplayReport, error) {
	m, err := s.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	recs, err := s.journal.List(ctx, matchID)
	if err != nil {
		return nil, err
	}
	gs, err := ReplayJournal(s.Engine(m.Deterministic), recs)
	if err != nil {
		return nil, err
	}
	_, digest, err := encodeState(gs)
	if err != nil {
		return nil, err
	}

	report := &ReplayReport{MatchID: matchID, Actions: len(recs), Digest: digest}
	snap, err := s.journal.LatestSnapshot(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if snap != nil {
		report.StoredSeq = snap.Seq
		report.StoredDigest = snap.Digest
		report.Match = snap.Seq == len(recs) && snap.Digest == digest
	}
	if !report.Match {
		log.Warn().Str("matchId", matchID).Str("digest", digest).Str("stored", report.StoredDigest).
			Msg("Replay digest mismatch")
	}
	return report, nil
}

// Targets lists the regions each kind of move may currently aim at.
type Targets struct {
	Attack   []veche.RegionID `json:"attack"`
	Order    []veche.RegionID `json:"order"`
	Fortress []veche.RegionID `json:"fortress"`
}

// Targets returns the legal targets in the current state of a match.
func (s *MatchService) Targets(ctx context.Context, matchID string) (*Targets, error) {
	m, err := s.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	_, gs, err := s.load(ctx, matchID)
	if err != nil {
		return nil, err
	}
	mp := s.Engine(m.Deterministic).Map()
	return &Targets{
		Attack:   mp.AttackTargets(gs),
		Order:    mp.OrderTargets(gs),
		Fortress: mp.FortressTargets(gs),
	}, nil
}

// RecoverActiveMatches rehydrates the cache for all active matches from their
// latest snapshots. Called on server startup.
func (s *MatchService) RecoverActiveMatches(ctx context.Context) error {
	matches, err := s.matchRepo.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("list active matches: %w", err)
	}
	if len(matches) == 0 {
		log.Info().Msg("No active matches to recover")
		return nil
	}

	log.Info().Int("count", len(matches)).Msg("Recovering active matches after restart")

	for _, m := range matches {
		snap, err := s.journal.LatestSnapshot(ctx, m.ID)
		if err != nil {
			log.Error().Err(err).Str("matchId", m.ID).Msg("Failed to read snapshot during recovery")
			continue
		}
		if snap == nil {
			log.Warn().Str("matchId", m.ID).Msg("Active match has no snapshot, skipping")
			continue
		}
		s.cacheState(ctx, m.ID, snap.Seq, snap.State)
		log.Info().Str("matchId", m.ID).Int("seq", snap.Seq).Msg("Recovered match state")
	}
	return nil
}
