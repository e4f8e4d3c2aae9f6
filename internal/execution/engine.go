// Package execution applies rule-engine intents to a portfolio against a
// snapshot's prices. It owns the simulated market model: fees, slippage,
// and the fixed cost constants the rule engine's sizing assumes.
package execution

import (
	"tokenarena/internal/models"
	"tokenarena/internal/rules"
)

const (
	feePct         = 0.0025 // 25 bps taker fee
	slippagePct    = 0.001  // 10 bps
	latencyMs      = 2000
	feeBufferPct   = 0.10 // 10% buffer required above the raw amount
)

// Apply executes one intent against a portfolio and returns the resulting
// Order, or a typed error if the intent cannot be filled.
func Apply(portfolio *models.Portfolio, intent rules.Intent, currentPrice float64, currentTime int64) (models.Order, error) {
	if intent.Side == rules.SideBuy {
		return applyBuy(portfolio, intent, currentPrice, currentTime)
	}
	return applySell(portfolio, intent, currentPrice, currentTime)
}

func applyBuy(portfolio *models.Portfolio, intent rules.Intent, currentPrice float64, currentTime int64) (models.Order, error) {
	if portfolio.OrderCount >= models.MaxOrdersTotal {
		return models.Order{}, ErrTooManyOrders
	}

	amount := intent.AmountNumeraire
	if amount > portfolio.Balance || amount*(1+feeBufferPct) > portfolio.Balance {
		return models.Order{}, ErrInsufficientBalance
	}

	fillPrice := currentPrice * (1 + slippagePct)
	fee := amount * feePct
	qty := (amount - fee) / fillPrice

	portfolio.Balance -= amount

	pos, idx := portfolio.PositionByAddress(intent.TokenAddress)
	if idx >= 0 {
		totalQty := pos.Quantity + qty
		pos.AvgPrice = (pos.Quantity*pos.AvgPrice + qty*fillPrice) / totalQty
		pos.Quantity = totalQty
		if fillPrice > pos.HighWatermark {
			pos.HighWatermark = fillPrice
		}
	} else {
		portfolio.Positions = append(portfolio.Positions, models.Position{
			TokenAddress:  intent.TokenAddress,
			Symbol:        intent.Symbol,
			Quantity:      qty,
			AvgPrice:      fillPrice,
			EntryTs:       currentTime,
			HighWatermark: fillPrice,
		})
	}

	portfolio.OrderCount++
	orderTime := currentTime + latencyMs/1000
	portfolio.LastOrderTs = orderTime

	order := models.Order{
		ID:            int64(portfolio.OrderCount),
		ParticipantID: portfolio.ParticipantID,
		Ts:            orderTime,
		TokenAddress:  intent.TokenAddress,
		Symbol:        intent.Symbol,
		Side:          string(rules.SideBuy),
		FillQuantity:  qty,
		FillPrice:     fillPrice,
		Fee:           fee,
		SlippageBps:   slippagePct * 10000,
	}
	portfolio.AppendOrder(order)
	return order, nil
}

func applySell(portfolio *models.Portfolio, intent rules.Intent, currentPrice float64, currentTime int64) (models.Order, error) {
	pos, idx := portfolio.PositionByAddress(intent.TokenAddress)
	if idx < 0 {
		return models.Order{}, ErrNoPosition
	}

	qtyToSell := intent.AmountNumeraire / currentPrice
	if qtyToSell > pos.Quantity {
		qtyToSell = pos.Quantity
	}
	if qtyToSell <= 0 {
		return models.Order{}, ErrInvalidQuantity
	}

	fillPrice := currentPrice * (1 - slippagePct)
	gross := qtyToSell * fillPrice
	fee := gross * feePct
	net := gross - fee

	portfolio.Balance += net
	portfolio.RealizedPnL += net - qtyToSell*pos.AvgPrice

	portfolio.OrderCount++
	orderTime := currentTime + latencyMs/1000
	portfolio.LastOrderTs = orderTime

	order := models.Order{
		ID:            int64(portfolio.OrderCount),
		ParticipantID: portfolio.ParticipantID,
		Ts:            orderTime,
		TokenAddress:  intent.TokenAddress,
		Symbol:        intent.Symbol,
		Side:          string(rules.SideSell),
		FillQuantity:  qtyToSell,
		FillPrice:     fillPrice,
		Fee:           fee,
		SlippageBps:   slippagePct * 10000,
	}
	portfolio.AppendOrder(order)

	pos.Quantity -= qtyToSell
	if pos.Quantity < models.DustThreshold {
		portfolio.RemovePosition(idx)
	}

	return order, nil
}
