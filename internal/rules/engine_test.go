package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokenarena/internal/models"
)

func snapshotWith(tokens ...models.Token) models.Snapshot {
	return models.Snapshot{Tokens: tokens, FetchedAt: 1000}
}

func TestEvaluateIsDeterministic(t *testing.T) {
	strategy := models.DefaultStrategy()
	portfolio := models.NewPortfolio("alice")
	snap := snapshotWith(models.Token{
		Address: "0xabc", Symbol: "ABC", PriceNumeraire: 1.0,
		LiquidityNum: 10, AgeMinutes: 60, VolumeUSD24h: 5000, PriceChange24h: 5,
	})

	a := Evaluate(strategy, portfolio, snap, 2000, "seed-1")
	b := Evaluate(strategy, portfolio, snap, 2000, "seed-1")
	assert.Equal(t, a, b, "same inputs must produce same intents")
}

func TestEvaluateDiffersAcrossSeeds(t *testing.T) {
	strategy := models.DefaultStrategy()
	strategy.Threshold = 0.5
	snap := snapshotWith(
		models.Token{Address: "0x1", Symbol: "A", PriceNumeraire: 1, LiquidityNum: 10, AgeMinutes: 60, VolumeUSD24h: 5000, PriceChange24h: 5},
		models.Token{Address: "0x2", Symbol: "B", PriceNumeraire: 1, LiquidityNum: 10, AgeMinutes: 60, VolumeUSD24h: 5000, PriceChange24h: 5},
	)

	differed := false
	var firstIntents []Intent
	for i, seed := range []string{"seed-a", "seed-b", "seed-c", "seed-d", "seed-e"} {
		p := models.NewPortfolio("bot")
		intents := Evaluate(strategy, p, snap, 2000, seed)
		if i == 0 {
			firstIntents = intents
			continue
		}
		if !equalIntents(firstIntents, intents) {
			differed = true
		}
	}
	assert.True(t, differed, "identical strategies on tied scores should diverge by seed")
}

func equalIntents(a, b []Intent) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestUniverseFilterProgressiveRelaxation(t *testing.T) {
	strategy := models.DefaultStrategy()
	strategy.MaxAgeMinutes = 1 // nothing will pass at face value
	strategy.MinLiquidity = 1000000
	strategy.MinHolders = 1000000

	tokens := []models.Token{
		{Address: "0x1", Symbol: "OLD", PriceNumeraire: 1, LiquidityNum: 5, AgeMinutes: 500, VolumeUSD24h: 100, TaxPct: 1},
	}

	out := universeFilter(strategy, tokens)
	require.Len(t, out, 1, "relaxation must fall back to blacklist-only gate rather than returning empty")
}

func TestUniverseFilterHonorsHoneypotEvenWhenRelaxed(t *testing.T) {
	strategy := models.DefaultStrategy()
	strategy.RejectHoneypots = true
	strategy.MaxAgeMinutes = 1
	strategy.MinLiquidity = 1000000

	tokens := []models.Token{
		{Address: "0x1", Symbol: "TRAP", PriceNumeraire: 1, LiquidityNum: 5, AgeMinutes: 500, Honeypot: true},
	}

	out := universeFilter(strategy, tokens)
	assert.Empty(t, out, "honeypot gate must survive progressive relaxation")
}

func TestExitTrailingStopFiresBeforeTakeProfit(t *testing.T) {
	strategy := models.DefaultStrategy()
	strategy.TrailingStopPct = 10
	strategy.TakeProfitPct = 500 // unreachable, isolates trailing-stop path

	portfolio := models.NewPortfolio("bot")
	portfolio.Positions = []models.Position{{
		TokenAddress: "0xabc", Symbol: "ABC", Quantity: 1, AvgPrice: 1.0,
		EntryTs: 0, HighWatermark: 2.0, // peaked at 2.0
	}}

	snap := snapshotWith(models.Token{Address: "0xabc", Symbol: "ABC", PriceNumeraire: 1.75, LiquidityNum: 10})

	intents := Evaluate(strategy, portfolio, snap, 100, "seed")
	require.Len(t, intents, 1)
	assert.Equal(t, SideSell, intents[0].Side)
	assert.Equal(t, "trailing_stop", intents[0].Reason)
}

func TestExitHoldsWhenTokenMissingFromSnapshot(t *testing.T) {
	strategy := models.DefaultStrategy()
	portfolio := models.NewPortfolio("bot")
	portfolio.Positions = []models.Position{{
		TokenAddress: "0xmissing", Symbol: "GONE", Quantity: 1, AvgPrice: 1.0, HighWatermark: 1.0,
	}}

	intents := Evaluate(strategy, portfolio, models.Snapshot{}, 100, "seed")
	assert.Empty(t, intents, "a position whose token vanished from the snapshot must hold, not force-sell")
}

func TestEntryRespectsMaxPositions(t *testing.T) {
	strategy := models.DefaultStrategy()
	strategy.MaxPositions = 1
	strategy.Threshold = 0.5

	portfolio := models.NewPortfolio("bot")
	portfolio.Positions = []models.Position{{TokenAddress: "0xheld", Symbol: "HELD", Quantity: 1, AvgPrice: 1}}

	snap := snapshotWith(models.Token{Address: "0xnew", Symbol: "NEW", PriceNumeraire: 1, LiquidityNum: 10, AgeMinutes: 60, VolumeUSD24h: 5000, PriceChange24h: 5})

	intents := Evaluate(strategy, portfolio, snap, 100, "seed")
	assert.Empty(t, intents, "portfolio already at maxPositions must not enter")
}
