package models

import "gorm.io/gorm"

// Winner is one participant's final standing in a settled match. Money
// fields are float64, stored into decimal columns as they are; no rounding
// step is applied before persistence.
type Winner struct {
	gorm.Model
	MatchID       uint    `gorm:"not null;index" json:"match_id"`
	ParticipantID uint    `gorm:"not null;index" json:"participant_id"`
	Owner         string  `gorm:"size:128;not null;index" json:"owner"`
	StartBalance  float64 `gorm:"type:decimal(18,8);not null" json:"start_balance"`
	EndBalance    float64 `gorm:"type:decimal(18,8);not null" json:"end_balance"`
	GainPct       float64 `gorm:"type:decimal(10,4);not null" json:"gain_pct"`
	Prize         float64 `gorm:"type:decimal(18,8);not null;default:0" json:"prize"`
	Paid          bool    `gorm:"default:false" json:"paid"`
	PaidTx        string  `gorm:"size:128" json:"paid_tx,omitempty"`
}

func (Winner) TableName() string {
	return "winners"
}

// Burn is the external fee subsystem's ledger of verified entry-fee burns,
// consumed read-only via HasVerifiedBurnSince.
type Burn struct {
	gorm.Model
	Owner    string  `gorm:"size:128;not null;index" json:"owner"`
	TxHash   string  `gorm:"size:128;not null;uniqueIndex" json:"tx_hash"`
	Amount   float64 `gorm:"type:decimal(18,8);not null" json:"amount"`
	Verified bool    `gorm:"default:false;index" json:"verified"`
	Ts       int64   `gorm:"not null" json:"ts"`
}

func (Burn) TableName() string {
	return "burns"
}
