// Package main implements a mock LLM server for exercising the intake
// engine without a real model. It serves OpenAI-compatible
// /v1/chat/completions responses from JSON fixture files, routing by the
// "model" field in the request, and can inject throttling and server
// errors to exercise the retry wrapper and the deterministic fallback
// path end to end.
//
// Usage:
//
//	mock-llm -fixtures /path/to/fixtures -port 11434
//	mock-llm -rate-limit-every 3          # every 3rd call returns 429
//	mock-llm -fail-every 5                # every 5th call returns 503
//
// Fixture files are JSON named by model (e.g., "qwen2.5:14b" requests load
// "qwen2.5:14b.json"). Numbered files ("m.1.json", "m.2.json") are served
// in sequence before the base file repeats, which drives multi-round
// sessions deterministically. With no fixtures, every model returns a
// canned low-completeness assessment, enough to keep a session looping.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// defaultAssessment is returned when no fixture matches: a conservative
// continue-questioning verdict with one generic question.
const defaultAssessment = `{
  "canGenerate": false,
  "completenessScore": 0.3,
  "recommendedAction": "continue_questioning",
  "questions": [
    {"question": "Can you tell me more about what you want to build?", "category": "general"}
  ]
}`

// --- OpenAI-compatible types ---

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
	MaxTokens   *int          `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	ID      string       `json:"id"`
	Object  string       `json:"object"`
	Created int64        `json:"created"`
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
	Usage   chatUsage    `json:"usage"`
}

type chatChoice struct {
	Index        int         `json:"index"`
	Message      chatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type chatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// --- Server ---

// faultConfig controls failure injection.
type faultConfig struct {
	// rateLimitEvery makes every Nth call return 429 (0 = never).
	rateLimitEvery int
	// failEvery makes every Nth call return 503 (0 = never).
	failEvery int
	// latency is added to every successful response.
	latency time.Duration
}

type server struct {
	fixtures map[string][]string // model name → ordered fixture contents
	faults   faultConfig
	calls    atomic.Int64 // total calls served

	// Per-model call counters for sequential fixture selection.
	modelCalls   map[string]*atomic.Int64
	modelCallsMu sync.Mutex // protects lazy init of modelCalls entries
}

func newServer(fixtures map[string][]string, faults faultConfig) *server {
	return &server{
		fixtures:   fixtures,
		faults:     faults,
		modelCalls: make(map[string]*atomic.Int64),
	}
}

// getModelCounter returns the call counter for a model, creating it lazily.
func (s *server) getModelCounter(model string) *atomic.Int64 {
	s.modelCallsMu.Lock()
	defer s.modelCallsMu.Unlock()
	if c, ok := s.modelCalls[model]; ok {
		return c
	}
	c := &atomic.Int64{}
	s.modelCalls[model] = c
	return c
}

func main() {
	fixtureDir := flag.String("fixtures", "", "directory containing fixture response files (optional)")
	port := flag.Int("port", 11434, "port to listen on")
	rateLimitEvery := flag.Int("rate-limit-every", 0, "return 429 on every Nth call (0 = never)")
	failEvery := flag.Int("fail-every", 0, "return 503 on every Nth call (0 = never)")
	latency := flag.Duration("latency", 0, "artificial latency per successful response")
	flag.Parse()

	// Allow env var override
	if envDir := os.Getenv("MOCK_LLM_FIXTURES"); envDir != "" && *fixtureDir == "" {
		*fixtureDir = envDir
	}

	fixtures := map[string][]string{}
	if *fixtureDir != "" {
		var err error
		fixtures, err = loadFixtures(*fixtureDir)
		if err != nil {
			log.Fatalf("Failed to load fixtures from %s: %v", *fixtureDir, err)
		}
		log.Printf("Loaded %d model(s) from %s", len(fixtures), *fixtureDir)
		for model, seq := range fixtures {
			log.Printf("  model: %s (%d fixture(s))", model, len(seq))
		}
	} else {
		log.Printf("No fixture directory, serving the built-in assessment for every model")
	}

	s := newServer(fixtures, faultConfig{
		rateLimitEvery: *rateLimitEvery,
		failEvery:      *failEvery,
		latency:        *latency,
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/v1/chat/completions", s.handleChatCompletions)
	mux.HandleFunc("/v1/models", s.handleModels)
	mux.HandleFunc("/stats", s.handleStats)

	addr := fmt.Sprintf(":%d", *port)
	log.Printf("Mock LLM server listening on %s (rate-limit-every=%d fail-every=%d)",
		addr, *rateLimitEvery, *failEvery)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *server) handleChatCompletions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	callNum := s.calls.Add(1)
	log.Printf("[call %d] model=%s messages=%d", callNum, req.Model, len(req.Messages))

	// Fault injection first: the client's retry and fallback behavior is
	// the thing these faults exist to exercise.
	if s.faults.rateLimitEvery > 0 && callNum%int64(s.faults.rateLimitEvery) == 0 {
		log.Printf("[call %d] injected 429", callNum)
		w.Header().Set("Retry-After", "1")
		http.Error(w, `{"error": {"type": "rate_limit_error", "message": "injected rate limit"}}`, http.StatusTooManyRequests)
		return
	}
	if s.faults.failEvery > 0 && callNum%int64(s.faults.failEvery) == 0 {
		log.Printf("[call %d] injected 503", callNum)
		http.Error(w, `{"error": {"type": "overloaded_error", "message": "injected failure"}}`, http.StatusServiceUnavailable)
		return
	}

	content := s.selectContent(req.Model)

	if s.faults.latency > 0 {
		time.Sleep(s.faults.latency)
	}

	resp := chatResponse{
		ID:      fmt.Sprintf("mock-%d", time.Now().UnixNano()),
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   req.Model,
		Choices: []chatChoice{
			{
				Index: 0,
				Message: chatMessage{
					Role:    "assistant",
					Content: content,
				},
				FinishReason: "stop",
			},
		},
		Usage: chatUsage{
			PromptTokens:     len(content) / 4, // rough estimate
			CompletionTokens: len(content) / 4,
			TotalTokens:      len(content) / 2,
		},
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
	log.Printf("[call %d] responded with %d bytes for model=%s", callNum, len(content), req.Model)
}

// selectContent picks the fixture for a model based on its per-model call
// count, falling back to the built-in assessment.
func (s *server) selectContent(model string) string {
	seq, ok := s.fixtures[model]
	if !ok {
		stripped := strings.TrimPrefix(model, "mock-")
		seq, ok = s.fixtures[stripped]
	}
	if !ok {
		return defaultAssessment
	}

	counter := s.getModelCounter(model)
	callIndex := int(counter.Add(1) - 1) // 0-indexed
	if callIndex >= len(seq) {
		callIndex = len(seq) - 1 // repeat last fixture
	}
	return seq[callIndex]
}

// handleModels returns the list of available mock models.
func (s *server) handleModels(w http.ResponseWriter, _ *http.Request) {
	type modelEntry struct {
		ID      string `json:"id"`
		Object  string `json:"object"`
		OwnedBy string `json:"owned_by"`
	}
	var models []modelEntry
	for name := range s.fixtures {
		models = append(models, modelEntry{
			ID:      name,
			Object:  "model",
			OwnedBy: "mock-llm",
		})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"object": "list",
		"data":   models,
	})
}

// handleStats returns call counts for test assertions.
func (s *server) handleStats(w http.ResponseWriter, _ *http.Request) {
	s.modelCallsMu.Lock()
	callsByModel := make(map[string]int64, len(s.modelCalls))
	for model, counter := range s.modelCalls {
		callsByModel[model] = counter.Load()
	}
	s.modelCallsMu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"total_calls":    s.calls.Load(),
		"calls_by_model": callsByModel,
	})
}

// numberedFileRe matches files like "assessor.1.json", "assessor.2.json".
var numberedFileRe = regexp.MustCompile(`^(.+)\.(\d+)\.json$`)

// loadFixtures reads JSON files from dir and returns a map of
// model→content sequence. Numbered files come first in numeric order, the
// base file last as the repeating fallback.
func loadFixtures(dir string) (map[string][]string, error) {
	baseFiles := make(map[string]string)             // model → content
	numberedFiles := make(map[string]map[int]string) // model → {index → content}

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !strings.HasSuffix(info.Name(), ".json") {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}

		if !json.Valid(data) {
			return fmt.Errorf("invalid JSON in %s", path)
		}

		content := string(data)

		if matches := numberedFileRe.FindStringSubmatch(info.Name()); matches != nil {
			model := matches[1]
			index, _ := strconv.Atoi(matches[2])
			if numberedFiles[model] == nil {
				numberedFiles[model] = make(map[int]string)
			}
			numberedFiles[model][index] = content
			return nil
		}

		model := strings.TrimSuffix(info.Name(), ".json")
		baseFiles[model] = content
		return nil
	})

	if err != nil {
		return nil, err
	}

	fixtures := make(map[string][]string)

	allModels := make(map[string]bool)
	for m := range baseFiles {
		allModels[m] = true
	}
	for m := range numberedFiles {
		allModels[m] = true
	}

	for model := range allModels {
		var seq []string

		if numbered, ok := numberedFiles[model]; ok {
			indices := make([]int, 0, len(numbered))
			for idx := range numbered {
				indices = append(indices, idx)
			}
			sort.Ints(indices)

			for _, idx := range indices {
				seq = append(seq, numbered[idx])
			}
		}

		if base, ok := baseFiles[model]; ok {
			seq = append(seq, base)
		}

		if len(seq) > 0 {
			fixtures[model] = seq
		}
	}

	if len(fixtures) == 0 {
		return nil, fmt.Errorf("no fixture files found in %s", dir)
	}

	return fixtures, nil
}
