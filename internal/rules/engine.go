// Package rules implements the deterministic strategy rule engine (C3):
// given a strategy, a portfolio, a market snapshot, the current time, and a
// seed, it produces an ordered list of trade intents. The engine touches no
// global state, no wall clock beyond the time it is given, and no random
// source beyond the seed — every apparent randomness is an explicit FNV-1a
// fold of its inputs.
package rules

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"tokenarena/internal/models"
)

// Side is the intent direction.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Intent is one proposed action against the execution engine.
type Intent struct {
	Side            Side
	TokenAddress    string
	Symbol          string
	AmountNumeraire float64
	Reason          string
}

// Evaluate runs the full universe-filter -> exit -> entry pipeline and
// returns the ordered intents for one participant's tick.
func Evaluate(strategy models.Strategy, portfolio *models.Portfolio, snapshot models.Snapshot, currentTime int64, seed string) []Intent {
	byAddress := snapshot.ByAddress()

	var intents []Intent
	intents = append(intents, evaluateExits(strategy, portfolio, byAddress, currentTime, seed)...)

	held := make(map[string]bool, len(portfolio.Positions))
	for _, p := range portfolio.Positions {
		held[p.TokenAddress] = true
	}
	// exits emitted above free up slots only on the *next* tick (the
	// portfolio mutation happens in the execution engine), so entry sizing
	// below still sees the pre-exit position count, matching §4.3 step 3's
	// "if len(positions) < maxPositions" gate evaluated against current state.
	if len(portfolio.Positions) < strategy.MaxPositions {
		universe := universeFilter(strategy, snapshot.Tokens)
		intents = append(intents, evaluateEntries(strategy, universe, held, portfolio, currentTime, seed)...)
	}

	return intents
}

// universeFilter applies the universe + blacklist gates, then progressive
// relaxation if the result would otherwise be empty.
func universeFilter(strategy models.Strategy, tokens []models.Token) []models.Token {
	pass := func(t models.Token, maxAge, minLiquidity, minHolders float64, blacklistOnly bool) bool {
		if strategy.RejectHoneypots && t.Honeypot {
			return false
		}
		if t.TaxPct > strategy.MaxTaxPct {
			return false
		}
		if blacklistOnly {
			return true
		}
		if strategy.RequireRenounced && !t.OwnershipRenounced {
			return false
		}
		if strategy.RequireLiquidityLocked && !t.LiquidityLocked {
			return false
		}
		if t.AgeMinutes > maxAge {
			return false
		}
		if t.LiquidityNum < minLiquidity {
			return false
		}
		if t.EstimatedHolders() < minHolders {
			return false
		}
		return true
	}

	filterWith := func(maxAge, minLiquidity, minHolders float64, blacklistOnly bool) []models.Token {
		var out []models.Token
		for _, t := range tokens {
			if pass(t, maxAge, minLiquidity, minHolders, blacklistOnly) {
				out = append(out, t)
			}
		}
		return out
	}

	if out := filterWith(strategy.MaxAgeMinutes, strategy.MinLiquidity, strategy.MinHolders, false); len(out) > 0 {
		return out
	}
	if out := filterWith(strategy.MaxAgeMinutes*10, strategy.MinLiquidity, strategy.MinHolders, false); len(out) > 0 {
		return out
	}
	if out := filterWith(strategy.MaxAgeMinutes*100, strategy.MinLiquidity/2, strategy.MinHolders/2, false); len(out) > 0 {
		return out
	}
	return filterWith(0, 0, 0, true)
}

func evaluateExits(strategy models.Strategy, portfolio *models.Portfolio, byAddress map[string]models.Token, currentTime int64, seed string) []Intent {
	var intents []Intent

	for i := range portfolio.Positions {
		pos := &portfolio.Positions[i]
		token, ok := byAddress[pos.TokenAddress]
		if !ok {
			continue // snapshot incomplete: hold
		}

		currentPrice := token.PriceNumeraire
		pnlPct := (currentPrice - pos.AvgPrice) / pos.AvgPrice * 100

		jitterSeed := hashFold(pos.Symbol, strconv.FormatInt(pos.EntryTs, 10))
		takeProfitPct := strategy.TakeProfitPct * (1 + signedUnitFloat(jitterSeed)*0.10)
		stopLossPct := strategy.StopLossPct * (1 + signedUnitFloat(jitterSeed^0xa5a5a5a5)*0.10)

		if currentPrice > pos.HighWatermark {
			pos.HighWatermark = currentPrice
		}

		reason := ""
		switch {
		case strategy.TrailingStopPct > 0 && currentPrice <= pos.HighWatermark*(1-strategy.TrailingStopPct/100):
			reason = "trailing_stop"
		case pnlPct >= takeProfitPct:
			reason = "take_profit"
		case pnlPct <= -stopLossPct:
			reason = "stop_loss"
		case strategy.TimeLimitMin > 0 && float64(currentTime-pos.EntryTs)/60 >= strategy.TimeLimitMin:
			reason = "time_limit"
		}

		if reason == "" {
			continue
		}

		intents = append(intents, Intent{
			Side:            SideSell,
			TokenAddress:    pos.TokenAddress,
			Symbol:          pos.Symbol,
			AmountNumeraire: pos.Quantity * currentPrice,
			Reason:          reason,
		})
	}

	return intents
}

func evaluateEntries(strategy models.Strategy, universe []models.Token, held map[string]bool, portfolio *models.Portfolio, currentTime int64, seed string) []Intent {
	type scored struct {
		token models.Token
		score float64
	}

	scores := make([]scored, 0, len(universe))
	for _, t := range universe {
		scores = append(scores, scored{token: t, score: score(strategy.EntrySignal, t)})
	}

	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].score != scores[j].score {
			return scores[i].score > scores[j].score
		}
		return hashFold(scores[i].token.Address, seed) > hashFold(scores[j].token.Address, seed)
	})

	threshold := strategy.Threshold
	if strategy.EntrySignal == models.SignalNewLaunch {
		threshold = 10 - strategy.Threshold
	}

	slots := strategy.MaxPositions - len(portfolio.Positions)
	var intents []Intent

	for _, s := range scores {
		if slots <= 0 {
			break
		}
		if s.score < threshold {
			continue
		}
		if held[s.token.Address] {
			continue
		}

		skipHash := hashFold(s.token.Address, seed, strconv.FormatInt(currentTime, 10))
		if skipHash%100 < 20 {
			continue
		}

		size := positionSize(portfolio.Balance, strategy.AllocationPerPosition, strategy.StopLossPct, s.score, threshold, strategy.MaxPositions, s.token.Address, seed)

		intents = append(intents, Intent{
			Side:            SideBuy,
			TokenAddress:    s.token.Address,
			Symbol:          s.token.Symbol,
			AmountNumeraire: size,
			Reason:          fmt.Sprintf("entry:%s", strategy.EntrySignal),
		})
		slots--
	}

	return intents
}

const numeraireUSDPeg = 300.0

func score(signal models.Signal, t models.Token) float64 {
	switch signal {
	case models.SignalMomentum:
		return t.PriceChange24h
	case models.SignalVolumeSpike:
		if t.LiquidityNum <= 0 {
			return 0
		}
		return t.VolumeUSD24h / (t.LiquidityNum * numeraireUSDPeg)
	case models.SignalNewLaunch:
		age := t.AgeMinutes
		if age > 1440 {
			age = 1440
		}
		return (1440 - age) / 1440 * 10
	case models.SignalSocialBuzz:
		return math.Log10(t.EstimatedHolders() + 1)
	default:
		return 0
	}
}
