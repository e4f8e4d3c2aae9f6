package models

import (
	"encoding/json"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Participant is a registered competition entrant: one prompt, one compiled
// strategy, one match.
type Participant struct {
	gorm.Model
	Owner       string `gorm:"size:128;not null;index" json:"owner"`
	MatchID     uint   `gorm:"not null;index" json:"match_id"`
	Name        string `gorm:"size:64;not null" json:"name"`
	NameLower   string `gorm:"size:64;not null;uniqueIndex:idx_participant_name_lower" json:"-"`
	PromptRaw   string `gorm:"type:text;not null" json:"prompt_raw"`
	Strategy    JSONB  `gorm:"type:jsonb;not null" json:"strategy"`
	CreatedAtTs time.Time `json:"created_at_ts"`
}

func (Participant) TableName() string {
	return "participants"
}

// BeforeCreate lower-cases Name into NameLower so the unique index enforces
// case-insensitive uniqueness without a functional index.
func (p *Participant) BeforeCreate(tx *gorm.DB) error {
	p.NameLower = strings.ToLower(p.Name)
	p.CreatedAtTs = time.Now()
	return nil
}

func (p *Participant) BeforeUpdate(tx *gorm.DB) error {
	p.NameLower = strings.ToLower(p.Name)
	return nil
}

// StrategyFromJSONB decodes the persisted JSONB blob back into a Strategy.
func (p *Participant) StrategyFromJSONB() Strategy {
	var s Strategy
	b, _ := json.Marshal(map[string]interface{}(p.Strategy))
	_ = json.Unmarshal(b, &s)
	return s
}

// StrategyToJSONB encodes a Strategy into the JSONB column shape.
func StrategyToJSONB(s Strategy) JSONB {
	b, _ := json.Marshal(s)
	var m map[string]interface{}
	_ = json.Unmarshal(b, &m)
	return JSONB(m)
}
