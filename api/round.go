package api

import (
	"time"

	"github.com/c360studio/intake/engine"
	"github.com/c360studio/intake/requirement"
)

// HistoryMessage is one turn of the prior conversation. Assistant messages
// are questions the engine asked; user messages are the answers.
type HistoryMessage struct {
	Role     string `json:"role"` // "assistant" or "user"
	Content  string `json:"content"`
	Category string `json:"category,omitempty"` // set on assistant messages
}

// RoundRequest is the request body for POST /api/sessions/{id}/rounds.
// The record travels with every request: the server is stateless and the
// client owns all cross-round state.
type RoundRequest struct {
	UserInput           string              `json:"userInput"`
	ConversationHistory []HistoryMessage    `json:"conversationHistory,omitempty"`
	CurrentRound        int                 `json:"currentRound"`
	Record              *requirement.Record `json:"record,omitempty"`
}

// RoundData is the success payload of a round.
type RoundData struct {
	Questions                   []engine.Question   `json:"questions"`
	CompletenessAssessment      engine.Assessment   `json:"completenessAssessment"`
	NextRoundStrategy           string              `json:"nextRoundStrategy"`
	ShouldProceedToConfirmation bool                `json:"shouldProceedToConfirmation"`
	Record                      requirement.Record  `json:"record"`
	Round                       int                 `json:"round"`
}

// RoundResponse is the envelope for all round endpoint responses.
type RoundResponse struct {
	Success bool       `json:"success"`
	Data    *RoundData `json:"data,omitempty"`
	Error   string     `json:"error,omitempty"`
}

// buildRoundInput converts the wire request into engine input. The
// conversation history is folded into the answered-question log, and the
// latest user input is paired with the last unanswered question. On the
// opening round the user input is the product idea itself, recorded as the
// session's original input.
func buildRoundInput(sessionID string, req RoundRequest) engine.RoundInput {
	var record requirement.Record
	if req.Record != nil {
		record = *req.Record
	}

	log, pending := buildLog(req.ConversationHistory)

	if pending != nil {
		log = log.Append(requirement.QAEntry{
			Question:  pending.Content,
			Answer:    req.UserInput,
			Category:  categoryOrGeneral(pending.Category),
			Timestamp: time.Now().UTC(),
		})
	} else if len(log) == 0 && record.Metadata.OriginalInput == "" {
		record.Metadata.OriginalInput = req.UserInput
	}

	return engine.RoundInput{
		SessionID: sessionID,
		UserInput: req.UserInput,
		Record:    record,
		Log:       log,
	}
}

// buildLog pairs assistant questions with the user answers that follow
// them. The last assistant message without an answer, if any, is returned
// as the pending question the current user input responds to.
func buildLog(history []HistoryMessage) (requirement.Log, *HistoryMessage) {
	var log requirement.Log
	var pending *HistoryMessage

	for i := range history {
		msg := history[i]
		switch msg.Role {
		case "assistant":
			pending = &history[i]
		case "user":
			if pending == nil {
				continue // answer with no question, nothing to pair
			}
			log = append(log, requirement.QAEntry{
				Question:  pending.Content,
				Answer:    msg.Content,
				Category:  categoryOrGeneral(pending.Category),
				Timestamp: time.Now().UTC(),
			})
			pending = nil
		}
	}

	return log, pending
}

func categoryOrGeneral(s string) requirement.Category {
	c := requirement.Category(s)
	if !c.IsValid() {
		return requirement.CategoryGeneral
	}
	return c
}

// buildRoundData shapes the engine result for the wire.
func buildRoundData(input engine.RoundInput, result engine.RoundResult) *RoundData {
	questions := result.Questions
	if questions == nil {
		questions = []engine.Question{}
	}

	return &RoundData{
		Questions:                   questions,
		CompletenessAssessment:      result.Assessment,
		NextRoundStrategy:           nextRoundStrategy(result),
		ShouldProceedToConfirmation: !result.Decision.ShouldContinue,
		Record:                      result.Record,
		Round:                       len(input.Log),
	}
}

// nextRoundStrategy names what the next round will focus on: the category
// of the first upcoming question, or "confirmation" once the policy stops.
func nextRoundStrategy(result engine.RoundResult) string {
	if !result.Decision.ShouldContinue {
		return "confirmation"
	}
	if len(result.Questions) > 0 {
		return string(result.Questions[0].Category)
	}
	return string(requirement.CategoryGeneral)
}
