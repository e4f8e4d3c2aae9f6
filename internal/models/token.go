package models

// Token is a tradeable asset observed in one Snapshot. Tokens are values:
// the coordinator never retains one between ticks, only its Address.
type Token struct {
	Address          string  `json:"address"`
	Symbol           string  `json:"symbol"`
	PriceNumeraire   float64 `json:"price_numeraire"`
	LiquidityNum     float64 `json:"liquidity_numeraire"`
	AgeMinutes       float64 `json:"age_minutes"`
	VolumeUSD24h     float64 `json:"volume_usd_24h"`
	PriceChange24h   float64 `json:"price_change_24h"`
	TaxPct           float64 `json:"tax_pct"`
	Honeypot         bool    `json:"honeypot"`
	OwnershipRenounced bool  `json:"ownership_renounced"`
	LiquidityLocked  bool    `json:"liquidity_locked"`
}

// EstimatedHolders approximates holder count from traded volume, per the
// fetcher's transformation rule: max(volumeUSD/100, 20).
func (t Token) EstimatedHolders() float64 {
	h := t.VolumeUSD24h / 100
	if h < 20 {
		return 20
	}
	return h
}

// Snapshot is an ordered list of Tokens observed at one logical instant.
type Snapshot struct {
	Tokens    []Token `json:"tokens"`
	FetchedAt int64   `json:"fetched_at"` // unix seconds
	Stale     bool    `json:"stale"`
	Fallback  bool    `json:"fallback"`
}

// ByAddress indexes the snapshot's tokens for O(1) lookup. The rule engine
// reads prices through this map; positions are matched by address as well,
// never by symbol — symbols are not unique across pools.
func (s Snapshot) ByAddress() map[string]Token {
	m := make(map[string]Token, len(s.Tokens))
	for _, t := range s.Tokens {
		m[t.Address] = t
	}
	return m
}
