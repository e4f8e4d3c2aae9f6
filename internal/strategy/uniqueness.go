package strategy

import (
	"hash/fnv"
	"strconv"

	"tokenarena/internal/models"
)

// injectUniqueness perturbs a handful of numeric fields by a deterministic
// +/-5-10% so two identical prompts produce slightly different strategies
// and diverge during play. Bot creation passes the FNV-64a hash of the
// lower-cased owner as seed.
func injectUniqueness(s models.Strategy, seed uint64) models.Strategy {
	jitter := func(v float64, salt string) float64 {
		h := fnv.New32a()
		h.Write([]byte(strconv.FormatUint(seed, 10)))
		h.Write([]byte(salt))
		unit := float64(h.Sum32()) / float64(^uint32(0)) // [0,1]
		pct := 0.05 + unit*0.05                          // 5-10%
		sign := 1.0
		if h.Sum32()%2 == 0 {
			sign = -1.0
		}
		return v * (1 + sign*pct)
	}

	s.Threshold = jitter(s.Threshold, "threshold")
	s.TakeProfitPct = jitter(s.TakeProfitPct, "take_profit")
	s.StopLossPct = jitter(s.StopLossPct, "stop_loss")
	s.AllocationPerPosition = jitter(s.AllocationPerPosition, "allocation")

	return s.Clamp()
}
