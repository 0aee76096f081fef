package game

// Rules configures the scoring weights applied to answers. The reference
// configuration awards 10 points for a correct answer and deducts 5 for an
// incorrect one, with the cumulative score floor-clamped at zero.
type Rules struct {
	CorrectDelta   int
	IncorrectDelta int
}

// DefaultRules returns the reference scoring configuration.
func DefaultRules() Rules {
	return Rules{
		CorrectDelta:   10,
		IncorrectDelta: 5,
	}
}

// Apply computes the new cumulative score for an answer. The result never goes
// below zero.
func (r Rules) Apply(score int, correct bool) int {
	if correct {
		return score + r.CorrectDelta
	}

	score -= r.IncorrectDelta
	if score < 0 {
		return 0
	}
	return score
}

// Tier is a named performance bracket derived from the final score.
type Tier string

const (
	TierMasterScientist   Tier = "MASTER SCIENTIST"
	TierExpertScientist   Tier = "EXPERT SCIENTIST"
	TierSkilledResearcher Tier = "SKILLED RESEARCHER"
	TierRisingScholar     Tier = "RISING SCHOLAR"
	TierExplorer          Tier = "EXPLORER"
)

// Tier bands as fractions of the attainable maximum, checked highest first
// with inclusive thresholds. For the reference bank (30 questions, 10 points
// each) these resolve to 270, 240, 200 and 150.
var tierBands = []struct {
	num, den int
	tier     Tier
}{
	{9, 10, TierMasterScientist},
	{4, 5, TierExpertScientist},
	{2, 3, TierSkilledResearcher},
	{1, 2, TierRisingScholar},
}

// ClassifyPerformance maps a final score to a tier. maxScore is the attainable
// maximum for the current bank (question count times the correct-answer
// credit), so the bands move with bank size instead of assuming 300.
func ClassifyPerformance(finalScore, maxScore int) Tier {
	for _, b := range tierBands {
		if finalScore >= maxScore*b.num/b.den {
			return b.tier
		}
	}
	return TierExplorer
}
