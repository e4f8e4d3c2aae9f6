// Package dto holds request/response shapes for the admin and public API
// surfaces, kept separate from the GORM models they're projected from.
package dto

// CreateBotRequest is the public POST /bot payload. Owner is a trusted,
// pre-validated identity string — signature verification happens upstream
// of this service.
type CreateBotRequest struct {
	Owner  string `json:"owner" binding:"required"`
	Name   string `json:"name" binding:"required"`
	Prompt string `json:"prompt" binding:"required"`
}

type CreateBotResponse struct {
	ParticipantID uint   `json:"participant_id"`
	MatchID       uint   `json:"match_id"`
	Name          string `json:"name"`
}

type MarkPaidRequest struct {
	TxHash string `json:"tx_hash" binding:"required"`
}

type LeaderboardEntry struct {
	ParticipantID uint    `json:"participant_id"`
	Owner         string  `json:"owner"`
	Name          string  `json:"name"`
	Balance       float64 `json:"balance"`
	Status        string  `json:"status"` // "waiting" | "live"
}

type BotDetailResponse struct {
	ParticipantID uint            `json:"participant_id"`
	Owner         string          `json:"owner"`
	Name          string          `json:"name"`
	Balance       float64         `json:"balance"`
	Positions     []PositionView  `json:"positions"`
	Orders        []OrderView     `json:"orders"`
	RealizedPnL   float64         `json:"realized_pnl"`
}

type PositionView struct {
	TokenAddress  string  `json:"token_address"`
	Symbol        string  `json:"symbol"`
	Quantity      float64 `json:"quantity"`
	AvgPrice      float64 `json:"avg_price"`
	PnlUnrealized float64 `json:"pnl_unrealized"`
}

type OrderView struct {
	ID           int64   `json:"id"`
	Ts           int64   `json:"ts"`
	TokenAddress string  `json:"token_address"`
	Symbol       string  `json:"symbol"`
	Side         string  `json:"side"`
	FillQuantity float64 `json:"fill_quantity"`
	FillPrice    float64 `json:"fill_price"`
	Fee          float64 `json:"fee"`
}

type MatchSummary struct {
	ID         uint   `json:"id"`
	StartTs    int64  `json:"start_ts"`
	EndTs      int64  `json:"end_ts"`
	Status     string `json:"status"`
	ResultHash string `json:"result_hash,omitempty"`
}

type WinnerView struct {
	ParticipantID uint    `json:"participant_id"`
	Owner         string  `json:"owner"`
	EndBalance    float64 `json:"end_balance"`
	GainPct       float64 `json:"gain_pct"`
	Prize         float64 `json:"prize"`
	Paid          bool    `json:"paid"`
}

// APIUsageResponse reports the shared snapshot gateway's quota state.
// Status is "EXCEEDED" once usage reaches the monthly cap, else "NORMAL".
type APIUsageResponse struct {
	RateLimitPerMinute int    `json:"rate_limit_per_minute"`
	MonthlyCreditCap   int    `json:"monthly_credit_cap"`
	MonthlyCreditsUsed int64  `json:"monthly_credits_used"`
	Status             string `json:"status"`
}
