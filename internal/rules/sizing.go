package rules

const minTradeSize = 0.01

// riskMultiplier is a piecewise-linear function of stopLossPct: tighter
// stops size down, looser stops size up.
func riskMultiplier(stopLossPct float64) float64 {
	switch {
	case stopLossPct <= 5:
		return 0.5
	case stopLossPct >= 50:
		return 1.5
	case stopLossPct <= 25:
		// 0.5 at 5, 1.0 at 25
		return 0.5 + (stopLossPct-5)/(25-5)*0.5
	default:
		// 1.0 at 25, 1.5 at 50
		return 1.0 + (stopLossPct-25)/(50-25)*0.5
	}
}

// confidenceMultiplier scales up to 1.5x as score clears threshold by a
// wider margin.
func confidenceMultiplier(score, threshold float64) float64 {
	if threshold <= 0 {
		return 1.0
	}
	margin := (score - threshold) / threshold
	if margin < 0 {
		margin = 0
	}
	mult := 1.0 + margin*0.5
	if mult > 1.5 {
		mult = 1.5
	}
	return mult
}

func diversificationMultiplier(maxPositions int) float64 {
	switch maxPositions {
	case 1:
		return 1.2
	case 2:
		return 1.1
	case 3:
		return 1.0
	case 4:
		return 0.8
	default:
		return 0.7
	}
}

// positionSize computes the Kelly-inspired candidate size per §4.3.
func positionSize(balance, allocationPerPosition, stopLossPct, score, threshold float64, maxPositions int, address, seed string) float64 {
	multiplier := riskMultiplier(stopLossPct) * confidenceMultiplier(score, threshold) * diversificationMultiplier(maxPositions)

	size := balance * multiplier * 0.15
	if alt := allocationPerPosition * multiplier; alt < size {
		size = alt
	}

	feeMargin := balance * 0.99
	if size > feeMargin {
		size = feeMargin
	}

	jitter := 1 + signedUnitFloat(hashFold("size", address, seed))*0.15
	size *= jitter

	if size < minTradeSize {
		size = minTradeSize
	}
	return size
}
