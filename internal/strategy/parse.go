package strategy

import (
	"regexp"
	"strconv"
	"strings"

	"tokenarena/internal/models"
)

var (
	reTakeProfit    = regexp.MustCompile(`take[\s-]?profit[^\d]{0,10}(\d+(?:\.\d+)?)\s*%?`)
	reStopLoss      = regexp.MustCompile(`stop[\s-]?loss[^\d]{0,10}(\d+(?:\.\d+)?)\s*%?|stop[^\d]{0,10}(\d+(?:\.\d+)?)\s*%?`)
	reTrailingStop  = regexp.MustCompile(`trailing[\s-]?stop[^\d]{0,10}(\d+(?:\.\d+)?)\s*%?`)
	rePositions     = regexp.MustCompile(`(\d+)\s*position`)
	reAllocation    = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:bnb|numeraire)?\s*per\s*(?:position|trade)`)
	reLiquidity     = regexp.MustCompile(`liquidity[^\d]{0,10}(\d+(?:\.\d+)?)\s*k?\s*(?:bnb|numeraire)?`)
	reTimeLimit     = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*hour`)
	reAge           = regexp.MustCompile(`(?:age|younger than|older than)[^\d]{0,10}(\d+(?:\.\d+)?)\s*(hour|minute|day)`)
	reMaxTax        = regexp.MustCompile(`(?:max\s*tax|tax\s*(?:under|below|less than))[^\d]{0,10}(\d+(?:\.\d+)?)\s*%?`)
)

// patternParse extracts keyword signals and numeric phrases with regexes,
// overriding fields on top of the schema default.
func patternParse(prompt string) models.Strategy {
	s := models.DefaultStrategy()
	lower := strings.ToLower(prompt)

	switch {
	case strings.Contains(lower, "volume spike") || strings.Contains(lower, "volume"):
		s.EntrySignal = models.SignalVolumeSpike
	case strings.Contains(lower, "new launch") || strings.Contains(lower, "newly launched") || strings.Contains(lower, "fresh"):
		s.EntrySignal = models.SignalNewLaunch
	case strings.Contains(lower, "social") || strings.Contains(lower, "buzz") || strings.Contains(lower, "hype"):
		s.EntrySignal = models.SignalSocialBuzz
	case strings.Contains(lower, "momentum"):
		s.EntrySignal = models.SignalMomentum
	}

	if m := reTakeProfit.FindStringSubmatch(lower); m != nil {
		s.TakeProfitPct = parseFloat(m[1], s.TakeProfitPct)
	}
	if m := reStopLoss.FindStringSubmatch(lower); m != nil {
		if m[1] != "" {
			s.StopLossPct = parseFloat(m[1], s.StopLossPct)
		} else if m[2] != "" {
			s.StopLossPct = parseFloat(m[2], s.StopLossPct)
		}
	}
	if m := reTrailingStop.FindStringSubmatch(lower); m != nil {
		s.TrailingStopPct = parseFloat(m[1], s.TrailingStopPct)
	}
	if m := rePositions.FindStringSubmatch(lower); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			s.MaxPositions = n
		}
	}
	if m := reAllocation.FindStringSubmatch(lower); m != nil {
		s.AllocationPerPosition = parseFloat(m[1], s.AllocationPerPosition)
	}
	if m := reLiquidity.FindStringSubmatch(lower); m != nil {
		val := parseFloat(m[1], s.MinLiquidity)
		if strings.Contains(m[0], "k") {
			val *= 1000
		}
		s.MinLiquidity = val
	}
	if m := reTimeLimit.FindStringSubmatch(lower); m != nil {
		s.TimeLimitMin = parseFloat(m[1], 0) * 60
	}
	if m := reAge.FindStringSubmatch(lower); m != nil {
		val := parseFloat(m[1], s.MaxAgeMinutes)
		switch m[2] {
		case "day":
			val *= 1440
		case "hour":
			val *= 60
		}
		s.MaxAgeMinutes = val
	}
	if m := reMaxTax.FindStringSubmatch(lower); m != nil {
		s.MaxTaxPct = parseFloat(m[1], s.MaxTaxPct)
	}

	if strings.Contains(lower, "honeypot") && strings.Contains(lower, "avoid") {
		s.RejectHoneypots = true
	}
	if strings.Contains(lower, "renounced") {
		s.RequireRenounced = true
	}
	if strings.Contains(lower, "locked liquidity") || strings.Contains(lower, "liquidity locked") {
		s.RequireLiquidityLocked = true
	}

	return s
}

func parseFloat(s string, fallback float64) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fallback
	}
	return v
}
