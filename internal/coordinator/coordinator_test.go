package coordinator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokenarena/internal/models"
)

func TestAppendBalanceSnapshotTruncatesToRingCap(t *testing.T) {
	state := newMatchState(1, 0, 1000)
	for i := 0; i < models.MaxBalanceRing+3; i++ {
		state.appendBalanceSnapshot(models.BalanceSnapshot{Ts: int64(i)})
	}
	require.Len(t, state.BalanceHistory, models.MaxBalanceRing)
	assert.Equal(t, int64(3), state.BalanceHistory[0].Ts, "oldest entries must be dropped first")
}

func TestAddParticipantInsertsInStableOwnerOrder(t *testing.T) {
	c := &Coordinator{state: newMatchState(1, 0, 1000)}
	c.state.Roster = []rosterEntry{{ParticipantID: 1, Owner: "alice"}, {ParticipantID: 3, Owner: "carol"}}
	c.state.Portfolios = make(map[uint]*models.Portfolio)

	c.AddParticipant(models.Participant{Owner: "bob"})

	require.Len(t, c.state.Roster, 3)
	assert.Equal(t, "alice", c.state.Roster[0].Owner)
	assert.Equal(t, "bob", c.state.Roster[1].Owner)
	assert.Equal(t, "carol", c.state.Roster[2].Owner)
}

func TestHashStandingsIsDeterministic(t *testing.T) {
	standings := []map[string]interface{}{{"owner": "alice", "final_value": 1.2}}
	a, err := hashStandings(standings)
	require.NoError(t, err)
	b, err := hashStandings(standings)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestNextTickDelayWithinConfiguredJitterWindow(t *testing.T) {
	c := &Coordinator{tickMinDelay: 60 * time.Second, tickJitter: 120 * time.Second}
	for i := 0; i < 50; i++ {
		d := c.nextTickDelay()
		assert.GreaterOrEqual(t, d, 60*time.Second)
		assert.Less(t, d, 180*time.Second)
	}
}
