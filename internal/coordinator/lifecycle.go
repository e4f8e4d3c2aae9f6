package coordinator

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"tokenarena/internal/eventbus"
	"tokenarena/internal/models"
	"tokenarena/internal/websocket"
)

// Manager holds at most one live Coordinator per matchId within this
// process and enforces that only one match is ever started as Running.
type Manager struct {
	mu           sync.Mutex
	coordinators map[uint]*Coordinator
	deps         Deps
	matchDuration time.Duration
}

func NewManager(deps Deps, matchDuration time.Duration) *Manager {
	return &Manager{
		coordinators:  make(map[uint]*Coordinator),
		deps:          deps,
		matchDuration: matchDuration,
	}
}

// ErrConflictingMatch is returned wherever the admin surface would violate
// the fleet-wide "at most one running/pending match" rule; callers map it
// to 409.
var ErrConflictingMatch = fmt.Errorf("a match is already pending or running")

// CreateMatch inserts a new Pending match row. 409s (via ErrConflictingMatch)
// if any non-settled match already exists.
func (m *Manager) CreateMatch(ctx context.Context) (*models.Match, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, err := m.deps.MatchRepo.GetNonSettled(); err == nil && existing.ID != 0 {
		return nil, ErrConflictingMatch
	}

	now := time.Now().Unix()
	match := &models.Match{StartTs: now, EndTs: now + int64(m.matchDuration.Seconds()), Status: models.MatchPending}
	if err := m.deps.MatchRepo.Create(match); err != nil {
		return nil, fmt.Errorf("creating match row: %w", err)
	}
	return match, nil
}

// StartMatch starts a Pending match's Coordinator. 409s if another match is
// already Running.
func (m *Manager) StartMatch(ctx context.Context, matchID uint) (*Coordinator, error) {
	m.mu.Lock()
	if running, err := m.deps.MatchRepo.GetRunning(); err == nil && running.ID != 0 && running.ID != matchID {
		m.mu.Unlock()
		return nil, ErrConflictingMatch
	}

	match, err := m.deps.MatchRepo.GetByID(matchID)
	if err != nil {
		m.mu.Unlock()
		return nil, fmt.Errorf("loading match %d: %w", matchID, err)
	}

	coord := New(match.ID, match.StartTs, match.EndTs, m.deps, m.spawnSuccessor)
	m.coordinators[match.ID] = coord
	m.mu.Unlock()

	if err := coord.Start(ctx); err != nil {
		return nil, err
	}
	return coord, nil
}

// Get returns the live Coordinator for a matchId, if resident in this
// process.
func (m *Manager) Get(matchID uint) (*Coordinator, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.coordinators[matchID]
	return c, ok
}

func (m *Manager) spawnSuccessor(ctx context.Context, settledMatchID uint) {
	m.mu.Lock()
	delete(m.coordinators, settledMatchID)
	m.mu.Unlock()

	match, err := m.CreateMatch(ctx)
	if err != nil {
		if m.deps.Logger != nil {
			m.deps.Logger.Error("failed to create successor match", err, "settled_match_id", settledMatchID)
		}
		return
	}
	if _, err := m.StartMatch(ctx, match.ID); err != nil && m.deps.Logger != nil {
		m.deps.Logger.Error("failed to start successor match", err, "match_id", match.ID)
	}
}

// SubscribeLeaderboard wires tick.completed and match.settled events to the
// live websocket leaderboard hub, so clients get push updates without
// polling the relational store.
func SubscribeLeaderboard(eb eventbus.EventBusInterface) {
	eb.Subscribe(eventbus.EventTypeTickCompleted, func(raw []byte) {
		var event eventbus.TickCompletedEvent
		if err := json.Unmarshal(raw, &event); err != nil {
			return
		}
		websocket.BroadcastBalanceUpdate(event.Data.MatchID, event.Data.TickTs, event.Data.Values)
	})

	eb.Subscribe(eventbus.EventTypeMatchSettled, func(raw []byte) {
		var event eventbus.MatchSettledEvent
		if err := json.Unmarshal(raw, &event); err != nil {
			return
		}
		websocket.BroadcastMatchSettled(event.Data.MatchID, event.Data.ResultHash)
	})
}
