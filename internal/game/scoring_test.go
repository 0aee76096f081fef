package game_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osamahm/biosphere/internal/game"
)

func TestRules_Apply_NeverNegative(t *testing.T) {
	t.Parallel()

	r := game.DefaultRules()

	score := 0
	for _, correct := range []bool{false, false, true, false, false, false, true, false} {
		score = r.Apply(score, correct)
		require.GreaterOrEqual(t, score, 0)
	}
}

func TestRules_Apply(t *testing.T) {
	t.Parallel()

	r := game.DefaultRules()

	assert.Equal(t, 10, r.Apply(0, true))
	assert.Equal(t, 20, r.Apply(10, true))
	assert.Equal(t, 5, r.Apply(10, false))
	assert.Equal(t, 0, r.Apply(0, false))
	// Floor clamp: 3 - 5 clamps to 0, not -2.
	assert.Equal(t, 0, r.Apply(3, false))
}

func TestClassifyPerformance(t *testing.T) {
	t.Parallel()

	const maxScore = 300

	tests := map[string]struct {
		score int
		want  game.Tier
	}{
		"max score is highest tier":        {300, game.TierMasterScientist},
		"270 boundary belongs to highest":  {270, game.TierMasterScientist},
		"269 falls to second tier":         {269, game.TierExpertScientist},
		"240 boundary belongs to second":   {240, game.TierExpertScientist},
		"239 falls to third tier":          {239, game.TierSkilledResearcher},
		"200 boundary belongs to third":    {200, game.TierSkilledResearcher},
		"199 falls to fourth tier":         {199, game.TierRisingScholar},
		"150 boundary belongs to fourth":   {150, game.TierRisingScholar},
		"149 falls to baseline":            {149, game.TierExplorer},
		"zero is baseline":                 {0, game.TierExplorer},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, game.ClassifyPerformance(tt.score, maxScore))
		})
	}
}

func TestClassifyPerformance_ThresholdsFollowBankSize(t *testing.T) {
	t.Parallel()

	// 10 questions at 10 points each: bands at 90, 80, 66, 50.
	const maxScore = 100

	assert.Equal(t, game.TierMasterScientist, game.ClassifyPerformance(90, maxScore))
	assert.Equal(t, game.TierExpertScientist, game.ClassifyPerformance(89, maxScore))
	assert.Equal(t, game.TierExpertScientist, game.ClassifyPerformance(80, maxScore))
	assert.Equal(t, game.TierSkilledResearcher, game.ClassifyPerformance(66, maxScore))
	assert.Equal(t, game.TierRisingScholar, game.ClassifyPerformance(50, maxScore))
	assert.Equal(t, game.TierExplorer, game.ClassifyPerformance(49, maxScore))
}
