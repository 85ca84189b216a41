package learning

// Scorer converts a single step outcome into a bounded reinforcement
// score in [-2, 2] using the current pattern snapshot. Deterministic;
// reads the snapshot, mutates nothing.
type Scorer struct {
	store *Store
}

// NewScorer creates a Scorer over the given store.
func NewScorer(store *Store) *Scorer {
	return &Scorer{store: store}
}

// Score computes the reinforcement score for one outcome of the given
// step type. With no history the defaults are +1 for success and -1
// for failure. With history, rarity (low occurrence count) and impact
// (how expected the outcome was) stretch the base toward the bounds:
//
//	rarity = 1 - min(occurrences/100, 1)
//	impact = successRate        (success)
//	         1 - successRate    (failure)
//	score  = clamp(base * (1 + rarity*impact), -2, 2)
//
// Rare unexpected failures are penalized harder than rare expected
// successes are rewarded.
func (s *Scorer) Score(stepType string, success bool) float64 {
	base := 1.0
	if !success {
		base = -1.0
	}

	p := s.lookupPattern(stepType, success)
	if p == nil {
		return base
	}

	rarity := 1.0 - minF(float64(p.Occurrences)/100.0, 1.0)
	impact := p.SuccessRate
	if !success {
		impact = 1.0 - p.SuccessRate
	}

	return clamp(base*(1.0+rarity*impact), -2.0, 2.0)
}

// lookupPattern resolves the pattern the score derives from. Success
// maps directly to the step's success pattern. Failure has no error
// type at scoring time, so the dominant failure pattern for the step
// (highest occurrences) stands in for it.
func (s *Scorer) lookupPattern(stepType string, success bool) *LearningPattern {
	if success {
		return s.store.Pattern(stepType + "_" + ClassSuccess)
	}

	var best *LearningPattern
	for key, p := range s.store.Patterns() {
		if stepTypeFromKey(key) != stepType || classFromKey(key) == ClassSuccess {
			continue
		}
		if best == nil || p.Occurrences > best.Occurrences {
			best = p
		}
	}
	return best
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
