// Package subscribers fans event-bus events into durable side effects that
// don't belong in the hot tick path itself.
package subscribers

import (
	"encoding/json"
	"log"
	"time"

	"gorm.io/gorm"

	"tokenarena/internal/eventbus"
)

// SettlementAuditLog is a durable record of one tick or settlement event,
// kept independent of SystemLog so it can be queried/retained on its own
// schedule.
type SettlementAuditLog struct {
	ID           uint   `gorm:"primaryKey"`
	MatchID      uint   `gorm:"index"`
	EventType    string `gorm:"type:varchar(50);index"`
	RawEventData string `gorm:"type:jsonb"`
	CreatedAt    time.Time `gorm:"index"`
}

func (SettlementAuditLog) TableName() string {
	return "settlement_audit_logs"
}

// SettlementAuditSubscriber persists tick.completed and match.settled
// events for audit and debugging without coupling the coordinator's hot
// path to a database write.
type SettlementAuditSubscriber struct {
	db *gorm.DB
}

func NewSettlementAuditSubscriber(db *gorm.DB) *SettlementAuditSubscriber {
	if err := db.AutoMigrate(&SettlementAuditLog{}); err != nil {
		log.Printf("[AUDIT][ERROR] failed to migrate settlement_audit_logs: %v", err)
	}
	return &SettlementAuditSubscriber{db: db}
}

// Subscribe registers this subscriber's handlers with the event bus.
func (s *SettlementAuditSubscriber) Subscribe(eb eventbus.EventBusInterface) {
	eb.Subscribe(eventbus.EventTypeTickCompleted, s.handleTickCompleted)
	eb.Subscribe(eventbus.EventTypeMatchSettled, s.handleMatchSettled)
	log.Println("[AUDIT] subscribed to tick.completed and match.settled")
}

func (s *SettlementAuditSubscriber) handleTickCompleted(data []byte) {
	var event eventbus.TickCompletedEvent
	if err := json.Unmarshal(data, &event); err != nil {
		log.Printf("[AUDIT][ERROR] failed to unmarshal tick.completed: %v", err)
		return
	}
	s.persist(event.Data.MatchID, eventbus.EventTypeTickCompleted, data)
}

func (s *SettlementAuditSubscriber) handleMatchSettled(data []byte) {
	var event eventbus.MatchSettledEvent
	if err := json.Unmarshal(data, &event); err != nil {
		log.Printf("[AUDIT][ERROR] failed to unmarshal match.settled: %v", err)
		return
	}
	s.persist(event.Data.MatchID, eventbus.EventTypeMatchSettled, data)
	log.Printf("[AUDIT] match %d settled, result_hash=%s", event.Data.MatchID, event.Data.ResultHash)
}

func (s *SettlementAuditSubscriber) persist(matchID uint, eventType string, raw []byte) {
	entry := SettlementAuditLog{
		MatchID:      matchID,
		EventType:    eventType,
		RawEventData: string(raw),
		CreatedAt:    time.Now(),
	}
	if err := s.db.Create(&entry).Error; err != nil {
		log.Printf("[AUDIT][ERROR] failed to persist %s for match %d: %v", eventType, matchID, err)
	}
}
