package execution

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokenarena/internal/models"
	"tokenarena/internal/rules"
)

func TestApplyBuyCreatesPosition(t *testing.T) {
	p := models.NewPortfolio("bot")
	intent := rules.Intent{Side: rules.SideBuy, TokenAddress: "0xabc", Symbol: "ABC", AmountNumeraire: 0.1}

	order, err := Apply(p, intent, 1.0, 1000)
	require.NoError(t, err)
	assert.Equal(t, "buy", order.Side)
	assert.Len(t, p.Positions, 1)
	assert.InDelta(t, 1.0-0.1, p.Balance, 1e-9)
	assert.Equal(t, order.FillPrice, p.Positions[0].HighWatermark)
}

func TestApplyBuyInsufficientBalance(t *testing.T) {
	p := models.NewPortfolio("bot")
	intent := rules.Intent{Side: rules.SideBuy, TokenAddress: "0xabc", AmountNumeraire: 10.0}

	_, err := Apply(p, intent, 1.0, 1000)
	assert.ErrorIs(t, err, ErrInsufficientBalance)
}

func TestApplyBuyTooManyOrders(t *testing.T) {
	p := models.NewPortfolio("bot")
	p.OrderCount = models.MaxOrdersTotal
	intent := rules.Intent{Side: rules.SideBuy, TokenAddress: "0xabc", AmountNumeraire: 0.01}

	_, err := Apply(p, intent, 1.0, 1000)
	assert.ErrorIs(t, err, ErrTooManyOrders)
}

func TestApplyBuyAveragesPriceOnSecondFill(t *testing.T) {
	p := models.NewPortfolio("bot")
	intent := rules.Intent{Side: rules.SideBuy, TokenAddress: "0xabc", Symbol: "ABC", AmountNumeraire: 0.1}

	_, err := Apply(p, intent, 1.0, 1000)
	require.NoError(t, err)
	firstHigh := p.Positions[0].HighWatermark

	_, err = Apply(p, intent, 2.0, 1001)
	require.NoError(t, err)
	assert.Len(t, p.Positions, 1, "same address must upsert, not duplicate")
	assert.Greater(t, p.Positions[0].HighWatermark, firstHigh)
	// each fill spends 0.1 less the 0.25% fee, so the blended price is total cost over total quantity
	assert.InDelta(t, 2*0.1*(1-0.0025)/p.Positions[0].Quantity, p.Positions[0].AvgPrice, 1e-9)
}

func TestApplySellNoPosition(t *testing.T) {
	p := models.NewPortfolio("bot")
	intent := rules.Intent{Side: rules.SideSell, TokenAddress: "0xabc", AmountNumeraire: 0.1}

	_, err := Apply(p, intent, 1.0, 1000)
	assert.ErrorIs(t, err, ErrNoPosition)
}

func TestApplySellRemovesDustPosition(t *testing.T) {
	p := models.NewPortfolio("bot")
	buy := rules.Intent{Side: rules.SideBuy, TokenAddress: "0xabc", Symbol: "ABC", AmountNumeraire: 0.1}
	_, err := Apply(p, buy, 1.0, 1000)
	require.NoError(t, err)

	qty := p.Positions[0].Quantity
	sell := rules.Intent{Side: rules.SideSell, TokenAddress: "0xabc", AmountNumeraire: qty * 1.0}
	_, err = Apply(p, sell, 1.0, 1001)
	require.NoError(t, err)
	assert.Empty(t, p.Positions, "full sell must remove the position")
}

func TestApplySellCreditsBalanceAndRealizedPnL(t *testing.T) {
	p := models.NewPortfolio("bot")
	buy := rules.Intent{Side: rules.SideBuy, TokenAddress: "0xabc", Symbol: "ABC", AmountNumeraire: 0.2}
	_, err := Apply(p, buy, 1.0, 1000)
	require.NoError(t, err)

	balanceAfterBuy := p.Balance
	qty := p.Positions[0].Quantity
	sell := rules.Intent{Side: rules.SideSell, TokenAddress: "0xabc", AmountNumeraire: qty * 2.0}
	_, err = Apply(p, sell, 2.0, 1001)
	require.NoError(t, err)

	assert.Greater(t, p.Balance, balanceAfterBuy)
	assert.Greater(t, p.RealizedPnL, 0.0, "selling at double the entry price realizes a gain")
}

func TestTotalValueAndGainPct(t *testing.T) {
	p := models.NewPortfolio("bot")
	buy := rules.Intent{Side: rules.SideBuy, TokenAddress: "0xabc", Symbol: "ABC", AmountNumeraire: 0.5}
	_, err := Apply(p, buy, 1.0, 1000)
	require.NoError(t, err)

	prices := map[string]float64{"0xabc": 2.0}
	total := p.TotalValue(prices)
	assert.Greater(t, total, p.Balance)

	gain := p.GainPct(prices)
	assert.Greater(t, gain, 0.0)
}

func TestCalculatePrizeCapsAndFloors(t *testing.T) {
	assert.Equal(t, 0.0, models.CalculatePrize(-10))
	assert.InDelta(t, 0.2, models.CalculatePrize(20), 1e-9)
	assert.Equal(t, 5.0, models.CalculatePrize(600))
}
