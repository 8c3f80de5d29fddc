// Package engine orchestrates one question round: it calls the model to
// extract structured requirement fields and assess completeness in a single
// request, merges the result additively into the requirement record, scores
// the record, and runs the continuation policy.
//
// Model failures never escape a round. Exhausted retries, malformed JSON,
// and invalid extracted records all degrade to the deterministic question
// bank, so the caller always gets a usable result.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/c360studio/intake/llm"
	"github.com/c360studio/intake/model"
	"github.com/c360studio/intake/requirement"
	"github.com/c360studio/intake/requirement/gap"
)

// llmCompleter is the subset of the LLM client used by the engine.
// Extracted as an interface to enable testing with mock responses.
type llmCompleter interface {
	Complete(ctx context.Context, req llm.Request) (*llm.Response, error)
}

// Engine runs question rounds. It holds no session state: everything a
// round needs arrives in RoundInput and everything it produces leaves in
// RoundResult, so one Engine serves any number of concurrent sessions.
type Engine struct {
	client      llmCompleter
	capability  string
	temperature float64
	maxTokens   int
	logger      *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithCapability overrides the model capability used for assessment calls.
func WithCapability(capability string) Option {
	return func(e *Engine) {
		e.capability = capability
	}
}

// WithTemperature sets the sampling temperature for assessment calls.
func WithTemperature(t float64) Option {
	return func(e *Engine) {
		e.temperature = t
	}
}

// New creates an Engine backed by the given LLM client.
func New(client llmCompleter, opts ...Option) *Engine {
	e := &Engine{
		client:      client,
		capability:  string(model.CapabilityAssessment),
		temperature: 0.2, // extraction wants precision, not creativity
		maxTokens:   4096,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RoundInput is everything one round needs. Record and Log are snapshots
// owned by the caller; the engine never mutates them.
type RoundInput struct {
	// SessionID is an opaque correlation string. The engine only threads it
	// through to logs.
	SessionID string

	// UserInput is the user's latest raw message.
	UserInput string

	// Record is the requirement record collected so far.
	Record requirement.Record

	// Log is the answered-question history, one entry per answered question.
	Log requirement.Log
}

// Assessment is the round's completeness verdict, derived from the
// deterministic scorer and policy. The model's own assessment is advisory
// input only; this struct is what callers may trust.
type Assessment struct {
	CanGenerate       bool     `json:"canGenerate"`
	CompletenessScore float64  `json:"completenessScore"`
	RecommendedAction string   `json:"recommendedAction"`
	MissingAspects    []string `json:"missingAspects,omitempty"`
}

// RoundResult is everything one round produced.
type RoundResult struct {
	// Record is the updated requirement record. On a degraded round it is
	// the input record unchanged.
	Record requirement.Record

	// Metrics is the completeness breakdown for Record.
	Metrics requirement.Metrics

	// Decision is the continuation policy's verdict.
	Decision requirement.Decision

	// Assessment is the caller-facing summary of Metrics and Decision.
	Assessment Assessment

	// Questions to ask next. Empty exactly when Decision says stop.
	Questions []Question

	// UsedFallback reports whether the questions came from the
	// deterministic bank instead of the model.
	UsedFallback bool
}

// RunRound executes one full question round. Model-capability failures are
// handled internally and never returned; the only error case is an
// invariant violation in the input itself, which means caller-side
// corruption the engine must not paper over.
func (e *Engine) RunRound(ctx context.Context, input RoundInput) (RoundResult, error) {
	start := time.Now()
	defer func() {
		roundsTotal.Inc()
		roundDuration.Observe(time.Since(start).Seconds())
	}()

	if err := input.Record.Validate(); err != nil {
		return RoundResult{}, fmt.Errorf("input record invalid: %w", err)
	}
	if len(input.Log) > 10*requirement.MaxRounds {
		return RoundResult{}, fmt.Errorf("qa log length %d exceeds any reachable round count", len(input.Log))
	}

	logger := e.logger.With("session_id", input.SessionID, "round", len(input.Log))

	record := input.Record
	var modelQuestions []Question
	usedFallback := false

	a, err := e.assess(ctx, record, input.Log, input.UserInput)
	if err != nil {
		// Capability unavailable or output unusable. The round continues on
		// the deterministic path with the record as-is.
		logger.Warn("Model assessment unavailable, degrading to question bank", "error", err)
		usedFallback = true
	} else {
		modelQuestions = a.Questions
		record = e.mergeExtracted(logger, record, a.Record)
	}

	metrics := requirement.Score(record, input.Log)
	decision := requirement.Decide(metrics, input.Log)

	var questions []Question
	if decision.ShouldContinue {
		questions = modelQuestions
		if len(questions) == 0 {
			questions = fromBank(metrics, record)
			usedFallback = true
		}
	}

	if usedFallback {
		fallbackRoundsTotal.Inc()
	}

	logger.Info("Round complete",
		"overall", metrics.Overall,
		"should_continue", decision.ShouldContinue,
		"reason", decision.Reason,
		"questions", len(questions),
		"used_fallback", usedFallback)

	return RoundResult{
		Record:       record,
		Metrics:      metrics,
		Decision:     decision,
		Assessment:   summarize(metrics, decision),
		Questions:    questions,
		UsedFallback: usedFallback,
	}, nil
}

// assess makes the single combined extract-and-assess model call.
func (e *Engine) assess(ctx context.Context, record requirement.Record, log requirement.Log, userInput string) (*assessment, error) {
	temperature := e.temperature
	resp, err := e.client.Complete(ctx, llm.Request{
		Capability: e.capability,
		Messages: []llm.Message{
			{Role: "system", Content: assessmentSystemPrompt},
			{Role: "user", Content: buildUserPrompt(record, log, userInput)},
		},
		Temperature: &temperature,
		MaxTokens:   e.maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("assessment completion: %w", err)
	}

	e.logger.Debug("Assessment response received",
		"request_id", resp.RequestID,
		"model", resp.Model,
		"tokens", resp.Usage.TotalTokens)

	a, err := parseAssessment(resp.Content)
	if err != nil {
		return nil, fmt.Errorf("parse assessment: %w", err)
	}
	return a, nil
}

// mergeExtracted folds the model's extracted record into the current one.
// The merge is additive, and a merged record that fails validation is
// discarded wholesale: a prior valid record is never replaced by a
// corrupted one.
func (e *Engine) mergeExtracted(logger *slog.Logger, current requirement.Record, extracted *requirement.Record) requirement.Record {
	if extracted == nil {
		return current
	}

	merged := requirement.Merge(current, *extracted)
	if err := merged.Validate(); err != nil {
		logger.Error("Merged record failed validation, keeping prior record", "error", err)
		invariantAbortsTotal.Inc()
		return current
	}
	return merged
}

// fromBank converts the deterministic bank's questions into round questions.
func fromBank(metrics requirement.Metrics, record requirement.Record) []Question {
	fallback := gap.NextFallback(metrics, record)
	questions := make([]Question, 0, len(fallback))
	for _, q := range fallback {
		questions = append(questions, Question{Text: q.Text, Category: q.Category})
	}
	return questions
}

// summarize derives the caller-facing assessment from the deterministic
// scorer and policy outputs.
func summarize(metrics requirement.Metrics, decision requirement.Decision) Assessment {
	action := ActionConfirm
	if decision.ShouldContinue {
		action = ActionContinue
	}
	return Assessment{
		CanGenerate:       !decision.ShouldContinue,
		CompletenessScore: metrics.Overall,
		RecommendedAction: action,
		MissingAspects:    decision.MissingAspects,
	}
}
