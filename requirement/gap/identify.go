// Package gap ranks what is still missing from a requirement record and
// provides the deterministic question bank used when the external model is
// unavailable or returns something unusable.
package gap

import (
	"sort"

	"github.com/c360studio/intake/requirement"
)

// Gap describes one under-covered dimension and the questions that would
// close it.
type Gap struct {
	Aspect    requirement.Dimension `json:"aspect"`
	Priority  float64               `json:"priority"`
	Questions []string              `json:"questions"`
}

// Gap thresholds: a dimension scoring at or above its threshold produces
// no gap. Looser than the minimum bar, so gaps surface improvement
// opportunities, not just blockers.
var gapThresholds = map[requirement.Dimension]float64{
	requirement.DimensionProblem:    0.7,
	requirement.DimensionFunctional: 0.6,
	requirement.DimensionData:       0.5,
	requirement.DimensionInterface:  0.5,
}

// Fixed priorities guarantee a stable ordering: problem-definition gaps
// always surface before interface gaps.
var gapPriorities = map[requirement.Dimension]float64{
	requirement.DimensionProblem:    0.9,
	requirement.DimensionFunctional: 0.8,
	requirement.DimensionData:       0.6,
	requirement.DimensionInterface:  0.5,
}

// Identify returns the gaps in the record, sorted descending by priority,
// ties broken by dimension declaration order. An empty result is the normal
// "ready" state: every dimension cleared its threshold.
func Identify(metrics requirement.Metrics, record requirement.Record) []Gap {
	var gaps []Gap

	for _, dim := range requirement.Dimensions {
		if metrics.DimensionScore(dim) >= gapThresholds[dim] {
			continue
		}
		questions := missingSignalQuestions(dim, metrics)
		if len(questions) == 0 {
			questions = bankQuestions[dim]
		}
		gaps = append(gaps, Gap{
			Aspect:    dim,
			Priority:  gapPriorities[dim],
			Questions: questions,
		})
	}

	// Dimensions iterate in declaration order, so a stable sort preserves
	// that order for equal priorities.
	sort.SliceStable(gaps, func(i, j int) bool {
		return gaps[i].Priority > gaps[j].Priority
	})

	return gaps
}

// Threshold returns the gap threshold for a dimension.
func Threshold(d requirement.Dimension) float64 {
	return gapThresholds[d]
}

// missingSignalQuestions emits a question per absent sub-signal.
func missingSignalQuestions(dim requirement.Dimension, m requirement.Metrics) []string {
	var questions []string

	switch dim {
	case requirement.DimensionProblem:
		if !m.Problem.HasPainPoint {
			questions = append(questions, questionPainPoint)
		}
		if !m.Problem.HasCurrentIssue {
			questions = append(questions, questionCurrentIssue)
		}
		if !m.Problem.HasExpectedSolution {
			questions = append(questions, questionExpectedSolution)
		}
	case requirement.DimensionFunctional:
		if !m.Functional.HasFeatures {
			questions = append(questions, questionCoreFeatures)
		}
		if !m.Functional.HasInputOutput {
			questions = append(questions, questionInputOutput)
		}
		if !m.Functional.HasUserSteps {
			questions = append(questions, questionUserSteps)
		}
	case requirement.DimensionData:
		if !m.Data.HasEntities {
			questions = append(questions, questionEntities)
		}
		if !m.Data.HasOperations {
			questions = append(questions, questionOperations)
		}
	case requirement.DimensionInterface:
		if !m.Interface.HasPages {
			questions = append(questions, questionPages)
		}
		if !m.Interface.HasInteractions {
			questions = append(questions, questionInteractions)
		}
		if !m.Interface.HasStyle {
			questions = append(questions, questionStyle)
		}
	}

	return questions
}
