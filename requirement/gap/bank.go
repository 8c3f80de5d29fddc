package gap

import "github.com/c360studio/intake/requirement"

// The deterministic question bank. These questions keep the session moving
// when the external model is down or returns garbage: the user never sees
// an error, worst case a generic question.
const (
	questionPainPoint        = "What specific problem or pain point are you trying to solve?"
	questionCurrentIssue     = "What do you currently do about this, and where does it fall short?"
	questionExpectedSolution = "What would a good solution look like for you?"

	questionCoreFeatures = "What are the main things a user should be able to do with this product?"
	questionInputOutput  = "For the most important feature, what does the user put in and what do they get back?"
	questionUserSteps    = "Walk me through the steps a user takes to complete the main task."

	questionEntities   = "What kinds of information does the product need to keep track of?"
	questionOperations = "What should users be able to do with that information: create, search, update, share?"

	questionPages        = "What screens or pages do you picture the product having?"
	questionInteractions = "When the user takes the main action, what should they see happen?"
	questionStyle        = "Should the look and feel be modern, minimal, professional, or playful?"

	// questionConfirmation is the general wrap-up once every dimension
	// has cleared its gap threshold.
	questionConfirmation = "Is there anything important we haven't covered that you want included?"
)

// bankQuestions lists every bank question per dimension, used when a
// dimension is under threshold but all its boolean sub-signals are set
// (the score is low for quantity reasons, e.g. a single feature).
var bankQuestions = map[requirement.Dimension][]string{
	requirement.DimensionProblem:    {questionPainPoint, questionCurrentIssue, questionExpectedSolution},
	requirement.DimensionFunctional: {questionCoreFeatures, questionInputOutput, questionUserSteps},
	requirement.DimensionData:       {questionEntities, questionOperations},
	requirement.DimensionInterface:  {questionPages, questionInteractions, questionStyle},
}

// FallbackQuestion is one deterministic question plus its category tag.
type FallbackQuestion struct {
	Text     string               `json:"text"`
	Category requirement.Category `json:"category"`
}

// NextFallback picks the round's questions without any model involvement.
// It walks dimensions in fixed order (problem, functional, data, interface)
// and returns the questions for the first one still under its gap
// threshold, one dimension at a time, so a round never mixes topics.
// When every dimension clears its threshold it returns the general
// confirmation question. The result is never empty.
func NextFallback(metrics requirement.Metrics, record requirement.Record) []FallbackQuestion {
	gaps := Identify(metrics, record)
	if len(gaps) == 0 {
		return []FallbackQuestion{{
			Text:     questionConfirmation,
			Category: requirement.CategoryGeneral,
		}}
	}

	// Highest-priority gap only; cap at two questions per round to keep
	// the conversation answerable.
	first := gaps[0]
	questions := first.Questions
	if len(questions) > 2 {
		questions = questions[:2]
	}

	category := requirement.CategoryForDimension(first.Aspect)
	out := make([]FallbackQuestion, 0, len(questions))
	for _, q := range questions {
		out = append(out, FallbackQuestion{Text: q, Category: category})
	}
	return out
}
