// Package coordinator implements the Match Coordinator (C5): the
// single-threaded tick loop that runs every participant's strategy once per
// tick, settles a match at its end time, and spawns its successor.
package coordinator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"tokenarena/internal/cache"
	"tokenarena/internal/eventbus"
	"tokenarena/internal/execution"
	"tokenarena/internal/logger"
	"tokenarena/internal/models"
	"tokenarena/internal/repositories"
	"tokenarena/internal/rules"
	"tokenarena/internal/snapshot"
)

// Coordinator owns exactly one match's lifecycle and live state.
type Coordinator struct {
	mu    sync.Mutex
	state *matchState

	snapshotGateway *snapshot.Gateway
	matchRepo       *repositories.MatchRepository
	participantRepo *repositories.ParticipantRepository
	winnerRepo      *repositories.WinnerRepository
	balanceProjRepo *repositories.BalanceProjectionRepository
	store           cache.Store
	eventBus        eventbus.EventBusInterface
	log             *logger.Logger

	tickMinDelay time.Duration
	tickJitter   time.Duration

	timer    *time.Timer
	onSettle func(ctx context.Context, matchID uint) // spawns the successor
}

// Deps bundles the Coordinator's shared collaborators.
type Deps struct {
	SnapshotGateway *snapshot.Gateway
	MatchRepo       *repositories.MatchRepository
	ParticipantRepo *repositories.ParticipantRepository
	WinnerRepo      *repositories.WinnerRepository
	BalanceProjRepo *repositories.BalanceProjectionRepository
	Store           cache.Store
	EventBus        eventbus.EventBusInterface
	Logger          *logger.Logger
	TickMinDelay    time.Duration
	TickJitter      time.Duration
}

// New builds a Coordinator for an existing match row. Call Start to load its
// roster and begin ticking.
func New(matchID uint, startTs, endTs int64, deps Deps, onSettle func(ctx context.Context, matchID uint)) *Coordinator {
	return &Coordinator{
		state:           newMatchState(matchID, startTs, endTs),
		snapshotGateway: deps.SnapshotGateway,
		matchRepo:       deps.MatchRepo,
		participantRepo: deps.ParticipantRepo,
		winnerRepo:      deps.WinnerRepo,
		balanceProjRepo: deps.BalanceProjRepo,
		store:           deps.Store,
		eventBus:        deps.EventBus,
		log:             deps.Logger,
		tickMinDelay:    deps.TickMinDelay,
		tickJitter:      deps.TickJitter,
		onSettle:        onSettle,
	}
}

// Start loads the participant roster from the persistent store, creates a
// fresh Portfolio per participant, and schedules the first tick 60s out.
func (c *Coordinator) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	participants, err := c.participantRepo.ListByMatch(c.state.MatchID)
	if err != nil {
		return fmt.Errorf("loading roster for match %d: %w", c.state.MatchID, err)
	}

	sort.Slice(participants, func(i, j int) bool {
		return strings.ToLower(participants[i].Owner) < strings.ToLower(participants[j].Owner)
	})

	for _, p := range participants {
		c.state.Roster = append(c.state.Roster, rosterEntry{
			ParticipantID: p.ID,
			Owner:         p.Owner,
			Strategy:      p.StrategyFromJSONB(),
		})
		c.state.Portfolios[p.ID] = models.NewPortfolio(strconv.FormatUint(uint64(p.ID), 10))
	}

	if err := c.matchRepo.UpdateStatus(c.state.MatchID, models.MatchRunning); err != nil {
		return fmt.Errorf("marking match %d running: %w", c.state.MatchID, err)
	}

	c.scheduleTick(c.tickMinDelay)
	return nil
}

// AddParticipant inserts a participant into a running match at the position
// implied by the stable sort, to be picked up on the next tick.
func (c *Coordinator) AddParticipant(p models.Participant) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := rosterEntry{ParticipantID: p.ID, Owner: p.Owner, Strategy: p.StrategyFromJSONB()}
	idx := sort.Search(len(c.state.Roster), func(i int) bool {
		return strings.ToLower(c.state.Roster[i].Owner) >= strings.ToLower(p.Owner)
	})
	c.state.Roster = append(c.state.Roster, rosterEntry{})
	copy(c.state.Roster[idx+1:], c.state.Roster[idx:])
	c.state.Roster[idx] = entry

	c.state.Portfolios[p.ID] = models.NewPortfolio(strconv.FormatUint(uint64(p.ID), 10))
}

func (c *Coordinator) scheduleTick(delay time.Duration) {
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(delay, func() {
		c.Tick(context.Background())
	})
}

func (c *Coordinator) nextTickDelay() time.Duration {
	return c.tickMinDelay + time.Duration(rand.Float64()*float64(c.tickJitter))
}

// Tick runs one full scan: settle if the match has ended, otherwise pull a
// fresh snapshot, evaluate every participant's strategy, apply intents, and
// reschedule. Errors are logged and swallowed so the timer stays alive; the
// next tick retries.
func (c *Coordinator) Tick(ctx context.Context) {
	c.mu.Lock()
	now := time.Now().Unix()
	pastEnd := now >= c.state.EndTs
	matchID := c.state.MatchID
	c.mu.Unlock()

	if pastEnd {
		if err := c.Settle(ctx); err != nil && c.log != nil {
			c.log.Error("settle failed", err, "match_id", matchID)
		}
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	snap, err := c.snapshotGateway.GetSnapshot(ctx, true)
	if err != nil {
		if c.log != nil {
			c.log.Error("tick snapshot fetch failed", err, "match_id", c.state.MatchID)
		}
		c.scheduleTick(c.nextTickDelay())
		return
	}

	priceByAddress := make(map[string]float64, len(snap.Tokens))
	for _, t := range snap.Tokens {
		priceByAddress[t.Address] = t.PriceNumeraire
	}

	values := make(map[string]float64, len(c.state.Roster))
	for _, entry := range c.state.Roster {
		portfolio := c.state.Portfolios[entry.ParticipantID]
		if portfolio == nil {
			continue
		}
		portfolio.ScanCount++

		seed := strconv.FormatUint(uint64(entry.ParticipantID), 10)
		intents := rules.Evaluate(entry.Strategy, portfolio, snap, now, seed)

		for _, intent := range intents {
			price, ok := priceByAddress[intent.TokenAddress]
			if !ok {
				continue // token vanished from this tick's snapshot
			}
			if _, err := execution.Apply(portfolio, intent, price, now); err != nil && c.log != nil {
				c.log.Debug("intent rejected", "participant_id", entry.ParticipantID, "error", err.Error())
			}
		}

		portfolio.UpdateUnrealized(priceByAddress)
		values[portfolio.ParticipantID] = portfolio.TotalValue(priceByAddress)
	}

	c.state.appendBalanceSnapshot(models.BalanceSnapshot{Ts: now, Values: values})
	c.state.LastTickTs = now

	if c.eventBus != nil {
		event := eventbus.NewTickCompletedEvent(c.state.MatchID, now, len(c.state.Roster), values)
		_ = c.eventBus.Publish(eventbus.EventTypeTickCompleted, event)
	}

	c.scheduleTick(c.nextTickDelay())
}

// Settle finalizes the match: computes final standings, persists winners,
// hashes the canonical results, marks the match settled, archives the full
// results to the blob store, and spawns the successor match.
func (c *Coordinator) Settle(ctx context.Context) error {
	c.mu.Lock()

	if c.timer != nil {
		c.timer.Stop()
	}
	c.state.Running = false

	snap, err := c.snapshotGateway.GetSnapshot(ctx, true)
	if err != nil {
		c.mu.Unlock()
		return fmt.Errorf("final snapshot for match %d: %w", c.state.MatchID, err)
	}
	priceByAddress := make(map[string]float64, len(snap.Tokens))
	for _, t := range snap.Tokens {
		priceByAddress[t.Address] = t.PriceNumeraire
	}

	type standing struct {
		ParticipantID uint
		Owner         string
		FinalValue    float64
		GainPct       float64
	}

	standings := make([]standing, 0, len(c.state.Roster))
	for _, entry := range c.state.Roster {
		portfolio := c.state.Portfolios[entry.ParticipantID]
		if portfolio == nil {
			continue
		}
		portfolio.UpdateUnrealized(priceByAddress)
		standings = append(standings, standing{
			ParticipantID: entry.ParticipantID,
			Owner:         entry.Owner,
			FinalValue:    portfolio.TotalValue(priceByAddress),
			GainPct:       portfolio.GainPct(priceByAddress),
		})
	}

	sort.Slice(standings, func(i, j int) bool { return standings[i].FinalValue > standings[j].FinalValue })

	matchID := c.state.MatchID
	c.mu.Unlock()

	if c.balanceProjRepo != nil {
		projections := make([]models.BalanceProjection, 0, len(standings))
		for _, s := range standings {
			projections = append(projections, models.BalanceProjection{
				MatchID:       matchID,
				ParticipantID: s.ParticipantID,
				Ts:            time.Now().Unix(),
				TotalValue:    s.FinalValue,
			})
		}
		if err := c.balanceProjRepo.CreateBatch(projections); err != nil && c.log != nil {
			c.log.Error("persisting balance projections failed", err, "match_id", matchID)
		}
	}

	for rank, s := range standings {
		prize := 0.0
		if rank == 0 {
			prize = models.CalculatePrize(s.GainPct)
		}
		winner := &models.Winner{
			MatchID:       matchID,
			ParticipantID: s.ParticipantID,
			Owner:         s.Owner,
			StartBalance:  models.StartBalance,
			EndBalance:    s.FinalValue,
			GainPct:       s.GainPct,
			Prize:         prize,
		}
		if err := c.winnerRepo.Create(winner); err != nil {
			return fmt.Errorf("persisting winner rank %d for match %d: %w", rank, matchID, err)
		}
	}

	resultHash, err := hashStandings(standings)
	if err != nil {
		return fmt.Errorf("hashing results for match %d: %w", matchID, err)
	}

	if err := c.matchRepo.Settle(matchID, resultHash); err != nil {
		return fmt.Errorf("marking match %d settled: %w", matchID, err)
	}

	if c.store != nil {
		raw, _ := json.Marshal(standings)
		_ = c.store.Set(ctx, fmt.Sprintf("results:match-%d", matchID), raw, 0)
	}

	if c.eventBus != nil {
		// successor id is unknown until onSettle spawns it; the websocket
		// hub only needs matchID + resultHash to refresh its view.
		event := eventbus.NewMatchSettledEvent(matchID, resultHash, 0)
		_ = c.eventBus.Publish(eventbus.EventTypeMatchSettled, event)
	}

	if c.onSettle != nil {
		c.onSettle(ctx, matchID)
	}

	return nil
}

// LatestValue returns a participant's most recent tick total-value reading,
// for the public leaderboard endpoint.
func (c *Coordinator) LatestValue(participantID uint) (float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := len(c.state.BalanceHistory) - 1; i >= 0; i-- {
		if v, ok := c.state.BalanceHistory[i].Values[strconv.FormatUint(uint64(participantID), 10)]; ok {
			return v, true
		}
	}
	return 0, false
}

// PortfolioOf returns a snapshot copy of one participant's live portfolio.
func (c *Coordinator) PortfolioOf(participantID uint) (models.Portfolio, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.state.Portfolios[participantID]
	if !ok {
		return models.Portfolio{}, false
	}
	cp := *p
	cp.Positions = append([]models.Position(nil), p.Positions...)
	cp.Orders = append([]models.Order(nil), p.Orders...)
	return cp, true
}

// Reset clears all in-memory state and restarts the coordinator, reloading
// the roster from the participant repository. Used administratively to
// recover from corrupted state.
func (c *Coordinator) Reset(ctx context.Context, startTs, endTs int64) error {
	c.mu.Lock()
	c.state = newMatchState(c.state.MatchID, startTs, endTs)
	c.mu.Unlock()
	return c.Start(ctx)
}

func hashStandings(standings interface{}) (string, error) {
	raw, err := json.Marshal(standings)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}
