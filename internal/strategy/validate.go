package strategy

import "tokenarena/internal/models"

// validate clamps a parsed strategy to the schema bounds from the strategy
// description. Parsing may produce out-of-range values from adversarial or
// unusual prompts; this is the single place those get corrected.
func validate(s models.Strategy) models.Strategy {
	return s.Clamp()
}
