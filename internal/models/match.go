package models

import "gorm.io/gorm"

// MatchStatus tracks a Match through its lifecycle.
type MatchStatus string

const (
	MatchPending MatchStatus = "pending"
	MatchRunning MatchStatus = "running"
	MatchSettled MatchStatus = "settled"
)

// Match is the relational projection of one competition round.
type Match struct {
	gorm.Model
	StartTs    int64       `gorm:"not null" json:"start_ts"`
	EndTs      int64       `gorm:"not null" json:"end_ts"`
	Status     MatchStatus `gorm:"size:16;not null;default:pending;index" json:"status"`
	ResultHash string      `gorm:"size:64" json:"result_hash,omitempty"`
}

func (Match) TableName() string {
	return "matches"
}
