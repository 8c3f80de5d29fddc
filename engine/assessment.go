package engine

import (
	"encoding/json"
	"fmt"

	"github.com/c360studio/intake/llm"
	"github.com/c360studio/intake/requirement"
)

// Recommended action values the model may return.
const (
	ActionContinue = "continue_questioning"
	ActionConfirm  = "proceed_to_confirmation"
)

// Conservative defaults for missing or malformed assessment fields. When in
// doubt, keep asking: a wrongly-optimistic assessment would hand the user a
// document built from a half-empty record.
const (
	defaultCanGenerate       = false
	defaultCompletenessScore = 0.3
	defaultRecommendedAction = ActionContinue
)

// maxQuestionsPerRound caps how many questions one round may ask.
const maxQuestionsPerRound = 2

// Question is one question selected for the user this round.
type Question struct {
	Text     string               `json:"text"`
	Category requirement.Category `json:"category"`
}

// assessmentPayload is the raw JSON shape the model returns. Pointer fields
// distinguish "absent" from zero values so defaulting is per field.
type assessmentPayload struct {
	CanGenerate       *bool               `json:"canGenerate"`
	CompletenessScore *float64            `json:"completenessScore"`
	RecommendedAction string              `json:"recommendedAction"`
	MissingAspects    []string            `json:"missingAspects"`
	Questions         []payloadQuestion   `json:"questions"`
	Record            *requirement.Record `json:"record"`
}

type payloadQuestion struct {
	Question string `json:"question"`
	Category string `json:"category"`
}

// assessment is the validated, defaulted view of the model's response.
type assessment struct {
	CanGenerate       bool
	CompletenessScore float64
	RecommendedAction string
	MissingAspects    []string
	Questions         []Question
	Record            *requirement.Record
}

// parseAssessment extracts and validates the model's combined
// extract-and-assess response. The content is untrusted: JSON may be wrapped
// in markdown, fields may be missing, nested shapes may be wrong. Missing or
// out-of-range fields get conservative defaults rather than failing the
// round; only a response with no parseable JSON object at all is an error.
func parseAssessment(content string) (*assessment, error) {
	jsonContent := llm.ExtractJSON(content)
	if jsonContent == "" {
		return nil, fmt.Errorf("no JSON found in response")
	}

	var payload assessmentPayload
	if err := json.Unmarshal([]byte(jsonContent), &payload); err != nil {
		return nil, fmt.Errorf("parse JSON: %w", err)
	}

	a := &assessment{
		CanGenerate:       defaultCanGenerate,
		CompletenessScore: defaultCompletenessScore,
		RecommendedAction: defaultRecommendedAction,
		MissingAspects:    payload.MissingAspects,
		Record:            payload.Record,
	}

	if payload.CanGenerate != nil {
		a.CanGenerate = *payload.CanGenerate
	}
	if payload.CompletenessScore != nil {
		a.CompletenessScore = clamp01(*payload.CompletenessScore)
	}
	if payload.RecommendedAction == ActionContinue || payload.RecommendedAction == ActionConfirm {
		a.RecommendedAction = payload.RecommendedAction
	}

	for _, q := range payload.Questions {
		if q.Question == "" {
			continue
		}
		category := requirement.Category(q.Category)
		if !category.IsValid() {
			category = requirement.CategoryGeneral
		}
		a.Questions = append(a.Questions, Question{Text: q.Question, Category: category})
		if len(a.Questions) == maxQuestionsPerRound {
			break
		}
	}

	return a, nil
}

func clamp01(v float64) float64 {
	if v != v || v < 0 { // NaN or negative
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
