package engine

import (
	"testing"

	"github.com/c360studio/intake/requirement"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAssessment_FullPayload(t *testing.T) {
	content := "```json\n" + `{
		"canGenerate": true,
		"completenessScore": 0.85,
		"recommendedAction": "proceed_to_confirmation",
		"missingAspects": ["userInterface"],
		"questions": [
			{"question": "What screens do you picture?", "category": "interface"}
		],
		"record": {
			"problemDefinition": {"painPoint": "losing track of tasks"}
		}
	}` + "\n```"

	a, err := parseAssessment(content)

	require.NoError(t, err)
	assert.True(t, a.CanGenerate)
	assert.InDelta(t, 0.85, a.CompletenessScore, 1e-9)
	assert.Equal(t, ActionConfirm, a.RecommendedAction)
	assert.Equal(t, []string{"userInterface"}, a.MissingAspects)
	require.Len(t, a.Questions, 1)
	assert.Equal(t, requirement.CategoryInterface, a.Questions[0].Category)
	require.NotNil(t, a.Record)
	assert.Equal(t, "losing track of tasks", a.Record.ProblemDefinition.PainPoint)
}

func TestParseAssessment_MissingFieldsGetConservativeDefaults(t *testing.T) {
	a, err := parseAssessment(`{}`)

	require.NoError(t, err)
	assert.False(t, a.CanGenerate)
	assert.InDelta(t, 0.3, a.CompletenessScore, 1e-9)
	assert.Equal(t, ActionContinue, a.RecommendedAction)
	assert.Empty(t, a.Questions)
	assert.Nil(t, a.Record)
}

func TestParseAssessment_UnknownActionDefaulted(t *testing.T) {
	a, err := parseAssessment(`{"recommendedAction": "ship_it"}`)

	require.NoError(t, err)
	assert.Equal(t, ActionContinue, a.RecommendedAction)
}

func TestParseAssessment_ScoreClamped(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    float64
	}{
		{"above one", `{"completenessScore": 3.5}`, 1.0},
		{"negative", `{"completenessScore": -0.2}`, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := parseAssessment(tt.content)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, a.CompletenessScore, 1e-9)
		})
	}
}

func TestParseAssessment_QuestionsCappedAndCleaned(t *testing.T) {
	content := `{
		"questions": [
			{"question": "", "category": "data"},
			{"question": "First?", "category": "nonsense"},
			{"question": "Second?", "category": "functional"},
			{"question": "Third?", "category": "data"}
		]
	}`

	a, err := parseAssessment(content)

	require.NoError(t, err)
	require.Len(t, a.Questions, 2)
	assert.Equal(t, "First?", a.Questions[0].Text)
	assert.Equal(t, requirement.CategoryGeneral, a.Questions[0].Category)
	assert.Equal(t, requirement.CategoryFunctional, a.Questions[1].Category)
}

func TestParseAssessment_NoJSON(t *testing.T) {
	_, err := parseAssessment("I'm sorry, I can't help with that.")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no JSON")
}

func TestParseAssessment_TruncatedJSON(t *testing.T) {
	// A cut-off response extracts as a JSON fragment that won't unmarshal.
	_, err := parseAssessment(`{"canGenerate": true, "questions": [{"ques`)
	require.Error(t, err)
}
