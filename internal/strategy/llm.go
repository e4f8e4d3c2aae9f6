package strategy

import (
	"context"
	"encoding/json"
	"fmt"

	"tokenarena/internal/models"
	"tokenarena/pkg/llm"
)

const llmSystemPrompt = `You convert a trader's free-text strategy description into JSON matching this schema exactly, with no prose before or after:
{
  "max_age_minutes": number, "min_liquidity": number, "min_holders": number,
  "entry_signal": "momentum"|"volume_spike"|"new_launch"|"social_buzz",
  "threshold": number, "max_positions": number, "allocation_per_position": number,
  "take_profit_pct": number, "stop_loss_pct": number, "cooldown_sec": number,
  "time_limit_min": number, "trailing_stop_pct": number,
  "max_tax_pct": number, "reject_honeypots": bool, "require_renounced": bool, "require_liquidity_locked": bool
}`

// llmParse calls the compiler's OpenAI-compatible client with an
// instruction to emit strategy JSON only, then decodes it. It never falls
// back to a default on failure — callers surface ParseFailed.
func llmParse(ctx context.Context, client *llm.OpenAIClient, prompt string) (rawStrategy, error) {
	content, err := client.Chat(ctx, llmSystemPrompt, prompt, 0.2)
	if err != nil {
		return rawStrategy{}, fmt.Errorf("llm chat call: %w", err)
	}

	var parsed rawStrategy
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return rawStrategy{}, fmt.Errorf("llm returned non-conforming JSON: %w", err)
	}
	return parsed, nil
}

// rawStrategy mirrors models.Strategy's JSON shape for direct LLM decoding.
type rawStrategy struct {
	MaxAgeMinutes          float64 `json:"max_age_minutes"`
	MinLiquidity           float64 `json:"min_liquidity"`
	MinHolders             float64 `json:"min_holders"`
	EntrySignal            string  `json:"entry_signal"`
	Threshold              float64 `json:"threshold"`
	MaxPositions           int     `json:"max_positions"`
	AllocationPerPosition  float64 `json:"allocation_per_position"`
	TakeProfitPct          float64 `json:"take_profit_pct"`
	StopLossPct            float64 `json:"stop_loss_pct"`
	CooldownSec            float64 `json:"cooldown_sec"`
	TimeLimitMin           float64 `json:"time_limit_min"`
	TrailingStopPct        float64 `json:"trailing_stop_pct"`
	MaxTaxPct              float64 `json:"max_tax_pct"`
	RejectHoneypots        bool    `json:"reject_honeypots"`
	RequireRenounced       bool    `json:"require_renounced"`
	RequireLiquidityLocked bool    `json:"require_liquidity_locked"`
}

func (r rawStrategy) toStrategy() models.Strategy {
	return models.Strategy{
		MaxAgeMinutes:          r.MaxAgeMinutes,
		MinLiquidity:           r.MinLiquidity,
		MinHolders:             r.MinHolders,
		EntrySignal:            models.Signal(r.EntrySignal),
		Threshold:              r.Threshold,
		MaxPositions:           r.MaxPositions,
		AllocationPerPosition:  r.AllocationPerPosition,
		TakeProfitPct:          r.TakeProfitPct,
		StopLossPct:            r.StopLossPct,
		CooldownSec:            r.CooldownSec,
		TimeLimitMin:           r.TimeLimitMin,
		TrailingStopPct:        r.TrailingStopPct,
		MaxTaxPct:              r.MaxTaxPct,
		RejectHoneypots:        r.RejectHoneypots,
		RequireRenounced:       r.RequireRenounced,
		RequireLiquidityLocked: r.RequireLiquidityLocked,
	}
}
