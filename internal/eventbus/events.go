package eventbus

import (
	"time"

	"github.com/google/uuid"
)

// TickCompletedEvent is published at the end of every coordinator tick,
// consumed by the websocket hub to push balance-snapshot deltas.
type TickCompletedEvent struct {
	EventID   string    `json:"event_id"`
	Type      string    `json:"type"`
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
	Data      struct {
		MatchID          uint               `json:"match_id"`
		TickTs           int64              `json:"tick_ts"`
		ParticipantCount int                `json:"participant_count"`
		Values           map[string]float64 `json:"values"`
	} `json:"data"`
}

// MatchSettledEvent is published once a match's winners have been persisted,
// before the settle callback creates a successor match; the coordinator
// publishes it with SuccessorID left at 0.
type MatchSettledEvent struct {
	EventID   string    `json:"event_id"`
	Type      string    `json:"type"`
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
	Data      struct {
		MatchID     uint   `json:"match_id"`
		ResultHash  string `json:"result_hash"`
		SuccessorID uint   `json:"successor_id"`
	} `json:"data"`
}

// ParticipantJoinedEvent describes a bot joining a match. Nothing in this
// module publishes it: bot creation adds the participant to the live
// coordinator without emitting an event.
type ParticipantJoinedEvent struct {
	EventID   string    `json:"event_id"`
	Type      string    `json:"type"`
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
	Data      struct {
		MatchID       uint   `json:"match_id"`
		ParticipantID uint   `json:"participant_id"`
		Owner         string `json:"owner"`
		Name          string `json:"name"`
	} `json:"data"`
}

const (
	EventTypeTickCompleted     = "tick.completed"
	EventTypeMatchSettled      = "match.settled"
	EventTypeParticipantJoined = "participant.joined"
	EventVersion1              = "v1"
)

// NewTickCompletedEvent builds a TickCompletedEvent ready to publish.
func NewTickCompletedEvent(matchID uint, tickTs int64, participantCount int, values map[string]float64) *TickCompletedEvent {
	event := &TickCompletedEvent{EventID: uuid.NewString(), Type: EventTypeTickCompleted, Version: EventVersion1, Timestamp: time.Now()}
	event.Data.MatchID = matchID
	event.Data.TickTs = tickTs
	event.Data.ParticipantCount = participantCount
	event.Data.Values = values
	return event
}

// NewMatchSettledEvent builds a MatchSettledEvent ready to publish.
func NewMatchSettledEvent(matchID uint, resultHash string, successorID uint) *MatchSettledEvent {
	event := &MatchSettledEvent{EventID: uuid.NewString(), Type: EventTypeMatchSettled, Version: EventVersion1, Timestamp: time.Now()}
	event.Data.MatchID = matchID
	event.Data.ResultHash = resultHash
	event.Data.SuccessorID = successorID
	return event
}

// NewParticipantJoinedEvent builds a ParticipantJoinedEvent ready to publish.
func NewParticipantJoinedEvent(matchID, participantID uint, owner, name string) *ParticipantJoinedEvent {
	event := &ParticipantJoinedEvent{EventID: uuid.NewString(), Type: EventTypeParticipantJoined, Version: EventVersion1, Timestamp: time.Now()}
	event.Data.MatchID = matchID
	event.Data.ParticipantID = participantID
	event.Data.Owner = owner
	event.Data.Name = name
	return event
}
