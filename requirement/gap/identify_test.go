package gap_test

import (
	"testing"

	"github.com/c360studio/intake/requirement"
	"github.com/c360studio/intake/requirement/gap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentify_EmptyRecordSurfacesEverything(t *testing.T) {
	record := requirement.Record{}
	metrics := requirement.Score(record, nil)

	gaps := gap.Identify(metrics, record)

	require.Len(t, gaps, 4)

	// Stable descending priority: problem first, interface last
	assert.Equal(t, requirement.DimensionProblem, gaps[0].Aspect)
	assert.Equal(t, 0.9, gaps[0].Priority)
	assert.Equal(t, requirement.DimensionFunctional, gaps[1].Aspect)
	assert.Equal(t, 0.8, gaps[1].Priority)
	assert.Equal(t, requirement.DimensionData, gaps[2].Aspect)
	assert.Equal(t, 0.6, gaps[2].Priority)
	assert.Equal(t, requirement.DimensionInterface, gaps[3].Aspect)
	assert.Equal(t, 0.5, gaps[3].Priority)

	for _, g := range gaps {
		assert.NotEmpty(t, g.Questions, "aspect %s must propose questions", g.Aspect)
	}
}

func TestIdentify_MissingSubSignalsBecomeQuestions(t *testing.T) {
	record := requirement.Record{
		ProblemDefinition: requirement.ProblemDefinition{
			PainPoint: "users lose track of tasks across tools",
		},
	}
	metrics := requirement.Score(record, nil)

	gaps := gap.Identify(metrics, record)
	require.NotEmpty(t, gaps)
	require.Equal(t, requirement.DimensionProblem, gaps[0].Aspect)

	// Pain point is covered; the remaining two sub-signals each get a question
	require.Len(t, gaps[0].Questions, 2)
	assert.Contains(t, gaps[0].Questions[0], "currently do")
	assert.Contains(t, gaps[0].Questions[1], "good solution")
}

func TestIdentify_ClearedDimensionsProduceNoGap(t *testing.T) {
	record := requirement.Record{
		ProblemDefinition: requirement.ProblemDefinition{
			PainPoint:        "users lose track of tasks across tools",
			CurrentIssue:     "sticky notes",
			ExpectedSolution: "one inbox",
		},
	}
	metrics := requirement.Score(record, nil)
	require.GreaterOrEqual(t, metrics.Problem.Score, gap.Threshold(requirement.DimensionProblem))

	gaps := gap.Identify(metrics, record)
	for _, g := range gaps {
		assert.NotEqual(t, requirement.DimensionProblem, g.Aspect)
	}
}

// Gap/score consistency: an empty gap list implies every dimension is at
// or above its minimum bar.
func TestIdentify_EmptyImpliesMinimumBarMet(t *testing.T) {
	record := requirement.Record{
		ProblemDefinition: requirement.ProblemDefinition{
			PainPoint:        "users lose track of tasks across tools",
			CurrentIssue:     "sticky notes",
			ExpectedSolution: "one inbox",
		},
		FunctionalLogic: requirement.FunctionalLogic{
			CoreFeatures: []requirement.Feature{
				{Name: "capture", InputOutput: "text in, task out", UserSteps: []string{"type"}},
			},
		},
		DataModel: requirement.DataModel{
			Entities:   []requirement.Entity{{Name: "Task"}},
			Operations: []string{"create"},
		},
		UserInterface: requirement.UserInterface{
			Pages:        []requirement.Page{{Name: "Inbox"}},
			Interactions: []requirement.Interaction{{Action: "add", Trigger: "click", Result: "saved"}},
		},
	}
	metrics := requirement.Score(record, nil)

	gaps := gap.Identify(metrics, record)
	require.Empty(t, gaps)

	for _, dim := range requirement.Dimensions {
		assert.GreaterOrEqual(t, metrics.DimensionScore(dim), requirement.MinimumBar(dim),
			"gap thresholds sit above minimum bars, so no gaps implies minimum met for %s", dim)
	}
}
