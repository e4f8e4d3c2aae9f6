package coordinator

import "tokenarena/internal/models"

// rosterEntry is a weak reference to a participant: the coordinator holds
// just enough to run the rule engine. The canonical record lives in the
// relational store.
type rosterEntry struct {
	ParticipantID uint
	Owner         string
	Strategy      models.Strategy
}

// matchState is the in-memory state one Coordinator exclusively owns. It is
// never shared across processes; only its persisted projections (Match,
// Winner, results blob) are.
type matchState struct {
	MatchID        uint
	StartTs        int64
	EndTs          int64
	Roster         []rosterEntry
	Portfolios     map[uint]*models.Portfolio
	Running        bool
	LastTickTs     int64
	BalanceHistory []models.BalanceSnapshot
}

func newMatchState(matchID uint, startTs, endTs int64) *matchState {
	return &matchState{
		MatchID:    matchID,
		StartTs:    startTs,
		EndTs:      endTs,
		Portfolios: make(map[uint]*models.Portfolio),
		Running:    true,
	}
}

func (s *matchState) appendBalanceSnapshot(snap models.BalanceSnapshot) {
	s.BalanceHistory = append(s.BalanceHistory, snap)
	if len(s.BalanceHistory) > models.MaxBalanceRing {
		s.BalanceHistory = s.BalanceHistory[len(s.BalanceHistory)-models.MaxBalanceRing:]
	}
}
