package requirement

import (
	"strings"
	"unicode/utf8"
)

// Dimension weights for the overall score.
const (
	weightProblem    = 0.3
	weightFunctional = 0.3
	weightData       = 0.2
	weightInterface  = 0.2
)

// ProblemSignals holds the sub-signals feeding the problem-definition score.
type ProblemSignals struct {
	HasPainPoint        bool    `json:"hasPainPoint"`        // painPoint longer than 10 chars
	HasCurrentIssue     bool    `json:"hasCurrentIssue"`     // currentIssue longer than 5 chars
	HasExpectedSolution bool    `json:"hasExpectedSolution"` // expectedSolution longer than 5 chars
	Score               float64 `json:"score"`
}

// FunctionalSignals holds the sub-signals feeding the functional-logic score.
type FunctionalSignals struct {
	HasFeatures    bool    `json:"hasFeatures"`
	HasInputOutput bool    `json:"hasInputOutput"` // any feature with inputOutput longer than 5 chars
	HasUserSteps   bool    `json:"hasUserSteps"`
	FeatureCount   int     `json:"featureCount"`
	Score          float64 `json:"score"`
}

// DataSignals holds the sub-signals feeding the data-model score.
type DataSignals struct {
	HasEntities   bool    `json:"hasEntities"`
	HasOperations bool    `json:"hasOperations"`
	EntityCount   int     `json:"entityCount"`
	Score         float64 `json:"score"`
}

// InterfaceSignals holds the sub-signals feeding the interface score.
type InterfaceSignals struct {
	HasPages        bool    `json:"hasPages"`
	HasInteractions bool    `json:"hasInteractions"`
	HasStyle        bool    `json:"hasStyle"`
	Score           float64 `json:"score"`
}

// Metrics is the per-dimension completeness breakdown plus the weighted
// overall score. It is derived, recomputed every round, and never persisted
// independently of the record it was computed from.
type Metrics struct {
	Problem    ProblemSignals    `json:"problem"`
	Functional FunctionalSignals `json:"functional"`
	Data       DataSignals       `json:"data"`
	Interface  InterfaceSignals  `json:"interface"`
	Overall    float64           `json:"overall"`
}

// DimensionScore returns the derived score for a dimension.
func (m Metrics) DimensionScore(d Dimension) float64 {
	switch d {
	case DimensionProblem:
		return m.Problem.Score
	case DimensionFunctional:
		return m.Functional.Score
	case DimensionData:
		return m.Data.Score
	case DimensionInterface:
		return m.Interface.Score
	default:
		return 0
	}
}

// Score computes completeness metrics for a record snapshot and its QA log.
// Pure and deterministic: the same inputs always produce the same output.
//
// The per-dimension arithmetic encodes the product's quality bar and must
// not drift. The functional dimension's base terms plus feature bonus can
// nominally exceed 1.0 and clamp there.
func Score(record Record, _ Log) Metrics {
	m := Metrics{
		Problem:    scoreProblem(record.ProblemDefinition),
		Functional: scoreFunctional(record.FunctionalLogic),
		Data:       scoreData(record.DataModel),
		Interface:  scoreInterface(record.UserInterface),
	}

	m.Overall = weightProblem*m.Problem.Score +
		weightFunctional*m.Functional.Score +
		weightData*m.Data.Score +
		weightInterface*m.Interface.Score

	return m
}

// longerThan reports whether the trimmed text exceeds n characters.
func longerThan(s string, n int) bool {
	return utf8.RuneCountInString(strings.TrimSpace(s)) > n
}

func scoreProblem(p ProblemDefinition) ProblemSignals {
	s := ProblemSignals{
		HasPainPoint:        longerThan(p.PainPoint, 10),
		HasCurrentIssue:     longerThan(p.CurrentIssue, 5),
		HasExpectedSolution: longerThan(p.ExpectedSolution, 5),
	}
	if s.HasPainPoint {
		s.Score += 0.5
	}
	if s.HasCurrentIssue {
		s.Score += 0.3
	}
	if s.HasExpectedSolution {
		s.Score += 0.2
	}
	return s
}

func scoreFunctional(f FunctionalLogic) FunctionalSignals {
	s := FunctionalSignals{}

	for _, feature := range f.CoreFeatures {
		if !present(feature.Name) {
			continue // malformed entries earn no credit
		}
		s.FeatureCount++
		if longerThan(feature.InputOutput, 5) {
			s.HasInputOutput = true
		}
		if hasNonEmpty(feature.UserSteps) {
			s.HasUserSteps = true
		}
	}
	s.HasFeatures = s.FeatureCount > 0

	if s.HasFeatures {
		s.Score += 0.4
	}
	if s.HasInputOutput {
		s.Score += 0.3
	}
	if s.HasUserSteps {
		s.Score += 0.2
	}
	s.Score += min(float64(s.FeatureCount)*0.1, 0.3)

	s.Score = min(s.Score, 1.0)
	return s
}

func scoreData(d DataModel) DataSignals {
	s := DataSignals{}

	for _, entity := range d.Entities {
		if present(entity.Name) {
			s.EntityCount++
		}
	}
	s.HasEntities = s.EntityCount > 0
	s.HasOperations = hasNonEmpty(d.Operations)

	if s.HasEntities {
		s.Score += 0.5
	}
	if s.HasOperations {
		s.Score += 0.3
	}
	s.Score += min(float64(s.EntityCount)*0.1, 0.2)

	s.Score = min(s.Score, 1.0)
	return s
}

func scoreInterface(u UserInterface) InterfaceSignals {
	s := InterfaceSignals{
		HasStyle: u.StylePreference.IsValid(),
	}

	for _, page := range u.Pages {
		if present(page.Name) {
			s.HasPages = true
			break
		}
	}
	for _, in := range u.Interactions {
		if present(in.Action) {
			s.HasInteractions = true
			break
		}
	}

	// Terms sum to exactly 1.0, no clamp needed
	if s.HasPages {
		s.Score += 0.4
	}
	if s.HasInteractions {
		s.Score += 0.4
	}
	if s.HasStyle {
		s.Score += 0.2
	}
	return s
}

// hasNonEmpty reports whether any entry carries information.
func hasNonEmpty(items []string) bool {
	for _, s := range items {
		if present(s) {
			return true
		}
	}
	return false
}
