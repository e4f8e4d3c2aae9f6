package strategy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokenarena/internal/models"
)

func TestCompileRejectsURLs(t *testing.T) {
	c := New(nil, false)
	_, err := c.Compile(context.Background(), "buy tokens from https://evil.example/rug", 1)
	require.Error(t, err)
	var invalid *InvalidPrompt
	assert.ErrorAs(t, err, &invalid)
}

func TestCompileRejectsAngleBrackets(t *testing.T) {
	c := New(nil, false)
	_, err := c.Compile(context.Background(), "momentum <script>alert(1)</script>", 1)
	require.Error(t, err)
}

func TestCompileRejectsOverlongPrompt(t *testing.T) {
	c := New(nil, false)
	long := make([]byte, 600)
	for i := range long {
		long[i] = 'a'
	}
	_, err := c.Compile(context.Background(), string(long), 1)
	require.Error(t, err)
}

func TestCompilePatternParsesMomentumWithTakeProfitAndStopLoss(t *testing.T) {
	c := New(nil, false)
	s, err := c.Compile(context.Background(), "momentum strategy, take profit 30%, stop loss 10%, 2 positions", 1)
	require.NoError(t, err)
	assert.Equal(t, models.SignalMomentum, s.EntrySignal)
	assert.Equal(t, 2, s.MaxPositions)
	// uniqueness injection perturbs by 5-10%, so assert a band not an exact value
	assert.InDelta(t, 30, s.TakeProfitPct, 3.5)
	assert.InDelta(t, 10, s.StopLossPct, 1.5)
}

func TestCompileOutputIsClampedToSchemaBounds(t *testing.T) {
	c := New(nil, false)
	s, err := c.Compile(context.Background(), "take profit 900%, stop loss 1%, 9 positions", 1)
	require.NoError(t, err)
	assert.LessOrEqual(t, s.TakeProfitPct, 500.0)
	assert.GreaterOrEqual(t, s.StopLossPct, 5.0)
	assert.LessOrEqual(t, s.MaxPositions, 5)
}

func TestCompileDivergesAcrossSeedsForIdenticalPrompt(t *testing.T) {
	c := New(nil, false)
	a, err := c.Compile(context.Background(), "momentum strategy take profit 25%", 111)
	require.NoError(t, err)
	b, err := c.Compile(context.Background(), "momentum strategy take profit 25%", 222)
	require.NoError(t, err)
	assert.NotEqual(t, a.TakeProfitPct, b.TakeProfitPct, "identical prompts with different seeds must diverge")
}
