package models

// Signal is the entry trigger a strategy scores candidates on.
type Signal string

const (
	SignalMomentum    Signal = "momentum"
	SignalVolumeSpike Signal = "volume_spike"
	SignalNewLaunch   Signal = "new_launch"
	SignalSocialBuzz  Signal = "social_buzz"
)

// Strategy is the validated description the rule engine consumes. Field
// groups mirror the five DSL sections: universe filter, entry, risk, exits,
// blacklist.
type Strategy struct {
	// Universe filter
	MaxAgeMinutes float64 `json:"max_age_minutes"`
	MinLiquidity  float64 `json:"min_liquidity"`
	MinHolders    float64 `json:"min_holders"`

	// Entry
	EntrySignal           Signal  `json:"entry_signal"`
	Threshold             float64 `json:"threshold"`
	MaxPositions          int     `json:"max_positions"`
	AllocationPerPosition float64 `json:"allocation_per_position"`

	// Risk
	TakeProfitPct float64 `json:"take_profit_pct"`
	StopLossPct   float64 `json:"stop_loss_pct"`
	CooldownSec   float64 `json:"cooldown_sec"`

	// Exits
	TimeLimitMin    float64 `json:"time_limit_min"`
	TrailingStopPct float64 `json:"trailing_stop_pct"`

	// Blacklist
	MaxTaxPct              float64 `json:"max_tax_pct"`
	RejectHoneypots        bool    `json:"reject_honeypots"`
	RequireRenounced       bool    `json:"require_renounced"`
	RequireLiquidityLocked bool    `json:"require_liquidity_locked"`
}

// DefaultStrategy returns the schema defaults the pattern parser fills a
// description from before overriding fields it found keywords for.
func DefaultStrategy() Strategy {
	return Strategy{
		MaxAgeMinutes:         1440,
		MinLiquidity:          1,
		MinHolders:            20,
		EntrySignal:           SignalMomentum,
		Threshold:             2,
		MaxPositions:          3,
		AllocationPerPosition: 0.1,
		TakeProfitPct:         20,
		StopLossPct:           15,
		CooldownSec:           0,
		TimeLimitMin:          0,
		TrailingStopPct:       0,
		MaxTaxPct:             10,
		RejectHoneypots:       true,
		RequireRenounced:      false,
		RequireLiquidityLocked: false,
	}
}

// Clamp re-applies the schema bounds from section 3 of the strategy DSL,
// used after both pattern parsing and uniqueness-noise injection.
func (s Strategy) Clamp() Strategy {
	clampF := func(v, lo, hi float64) float64 {
		if v < lo {
			return lo
		}
		if v > hi {
			return hi
		}
		return v
	}
	s.MaxAgeMinutes = clampF(s.MaxAgeMinutes, 1, 10080)
	if s.MinLiquidity < 0 {
		s.MinLiquidity = 0
	}
	if s.MinHolders < 0 {
		s.MinHolders = 0
	}
	s.Threshold = clampF(s.Threshold, 0.5, 10)
	if s.MaxPositions < 1 {
		s.MaxPositions = 1
	}
	if s.MaxPositions > 5 {
		s.MaxPositions = 5
	}
	s.AllocationPerPosition = clampF(s.AllocationPerPosition, 0.01, 1.0)
	s.TakeProfitPct = clampF(s.TakeProfitPct, 5, 500)
	s.StopLossPct = clampF(s.StopLossPct, 5, 50)
	if s.CooldownSec < 0 {
		s.CooldownSec = 0
	}
	s.TimeLimitMin = clampF(s.TimeLimitMin, 0, 1440)
	s.TrailingStopPct = clampF(s.TrailingStopPct, 0, 30)
	return s
}
