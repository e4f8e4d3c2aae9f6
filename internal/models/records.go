package models

import "gorm.io/gorm"

// OrderRecord is the table shape for a projection of one in-memory Order.
// The table is migrated, but settlement writes no rows into it; only
// BalanceProjection rows are written at settlement.
type OrderRecord struct {
	gorm.Model
	MatchID       uint    `gorm:"not null;index" json:"match_id"`
	ParticipantID uint    `gorm:"not null;index" json:"participant_id"`
	Ts            int64   `gorm:"not null" json:"ts"`
	TokenAddress  string  `gorm:"size:128;not null" json:"token_address"`
	Symbol        string  `gorm:"size:20;not null" json:"symbol"`
	Side          string  `gorm:"size:4;not null" json:"side"`
	FillQuantity  float64 `gorm:"type:decimal(24,8);not null" json:"fill_quantity"`
	FillPrice     float64 `gorm:"type:decimal(24,8);not null" json:"fill_price"`
	Fee           float64 `gorm:"type:decimal(18,8);not null" json:"fee"`
	SlippageBps   float64 `gorm:"type:decimal(10,4);not null" json:"slippage_bps"`
}

func (OrderRecord) TableName() string {
	return "order_records"
}

// BalanceProjection is a settlement-time projection of one balance-history
// entry for one participant.
type BalanceProjection struct {
	gorm.Model
	MatchID       uint    `gorm:"not null;index" json:"match_id"`
	ParticipantID uint    `gorm:"not null;index" json:"participant_id"`
	Ts            int64   `gorm:"not null" json:"ts"`
	TotalValue    float64 `gorm:"type:decimal(18,8);not null" json:"total_value"`
}

func (BalanceProjection) TableName() string {
	return "balance_projections"
}
