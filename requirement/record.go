// Package requirement defines the structured requirement record collected
// over an adaptive question-and-answer session, the completeness scoring
// that drives the loop, and the continuation policy that decides when the
// record is good enough to hand off to document generation.
//
// All state is passed by value between rounds. Nothing in this package
// holds session state, which is what makes the engine safe to run behind
// any number of concurrent handlers.
package requirement

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Priority ranks a core feature.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// StylePreference is the user's visual direction for the product.
type StylePreference string

const (
	StyleModern       StylePreference = "modern"
	StyleMinimal      StylePreference = "minimal"
	StyleProfessional StylePreference = "professional"
	StylePlayful      StylePreference = "playful"
)

// IsValid checks if the style preference is a known value.
func (s StylePreference) IsValid() bool {
	switch s {
	case StyleModern, StyleMinimal, StyleProfessional, StylePlayful:
		return true
	}
	return false
}

// Complexity is a rough sizing of the product idea.
type Complexity string

const (
	ComplexitySimple  Complexity = "simple"
	ComplexityMedium  Complexity = "medium"
	ComplexityComplex Complexity = "complex"
)

// Dimension is one independently-scored facet of the requirement record.
type Dimension string

const (
	DimensionProblem    Dimension = "problemDefinition"
	DimensionFunctional Dimension = "functionalLogic"
	DimensionData       Dimension = "dataModel"
	DimensionInterface  Dimension = "userInterface"
)

// Dimensions lists all dimensions in declaration order. The order matters:
// it is the tie-break for gap sorting and the fixed order of the fallback
// question bank.
var Dimensions = []Dimension{
	DimensionProblem,
	DimensionFunctional,
	DimensionData,
	DimensionInterface,
}

// ProblemDefinition captures why the product should exist.
type ProblemDefinition struct {
	PainPoint        string `json:"painPoint"`
	CurrentIssue     string `json:"currentIssue"`
	ExpectedSolution string `json:"expectedSolution"`
}

// Feature is one core capability of the product.
type Feature struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	InputOutput string   `json:"inputOutput"`
	UserSteps   []string `json:"userSteps"`
	Priority    Priority `json:"priority"`
}

// FunctionalLogic captures what the product does.
type FunctionalLogic struct {
	CoreFeatures  []Feature `json:"coreFeatures"`
	DataFlow      string    `json:"dataFlow"`
	BusinessRules []string  `json:"businessRules"`
}

// Entity is one kind of data the product manages.
type Entity struct {
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Fields        []string `json:"fields"`
	Relationships []string `json:"relationships"`
}

// DataModel captures what the product stores.
type DataModel struct {
	Entities            []Entity `json:"entities"`
	Operations          []string `json:"operations"`
	StorageRequirements string   `json:"storageRequirements"`
}

// Page is one screen of the product.
type Page struct {
	Name        string   `json:"name"`
	Purpose     string   `json:"purpose"`
	KeyElements []string `json:"keyElements"`
}

// Interaction is one user-visible behavior.
type Interaction struct {
	Action  string `json:"action"`
	Trigger string `json:"trigger"`
	Result  string `json:"result"`
}

// UserInterface captures how the product looks and behaves.
type UserInterface struct {
	Pages           []Page          `json:"pages"`
	Interactions    []Interaction   `json:"interactions"`
	StylePreference StylePreference `json:"stylePreference"`
}

// Metadata carries session-level context about the record.
type Metadata struct {
	OriginalInput string     `json:"originalInput"`
	ProductType   string     `json:"productType"`
	Complexity    Complexity `json:"complexity"`
	TargetUsers   string     `json:"targetUsers"`
	Confidence    float64    `json:"confidence"`
	Completeness  float64    `json:"completeness"`
	Timestamp     time.Time  `json:"timestamp"`
}

// Record is the growing structured requirement document. It is mutated
// only through Merge, which is additive: within a round, list fields are
// append-or-replace only, and previously recorded entries are never
// silently dropped. The continuation policy's progress guarantee depends
// on information never regressing.
type Record struct {
	ProblemDefinition ProblemDefinition `json:"problemDefinition"`
	FunctionalLogic   FunctionalLogic   `json:"functionalLogic"`
	DataModel         DataModel         `json:"dataModel"`
	UserInterface     UserInterface     `json:"userInterface"`
	Metadata          Metadata          `json:"metadata"`
}

// present reports whether a string carries information. Empty and
// whitespace-only strings count as absent.
func present(s string) bool {
	return strings.TrimSpace(s) != ""
}

// Validate checks the record for shape violations that would corrupt
// downstream scoring. A failing record must not replace a previous valid
// one.
func (r *Record) Validate() error {
	if math.IsNaN(r.Metadata.Confidence) || math.IsInf(r.Metadata.Confidence, 0) {
		return fmt.Errorf("metadata confidence is not finite")
	}
	if r.Metadata.Confidence < 0 || r.Metadata.Confidence > 1 {
		return fmt.Errorf("metadata confidence %f outside [0,1]", r.Metadata.Confidence)
	}
	if math.IsNaN(r.Metadata.Completeness) || math.IsInf(r.Metadata.Completeness, 0) {
		return fmt.Errorf("metadata completeness is not finite")
	}
	if r.Metadata.Completeness < 0 || r.Metadata.Completeness > 1 {
		return fmt.Errorf("metadata completeness %f outside [0,1]", r.Metadata.Completeness)
	}
	if r.UserInterface.StylePreference != "" && !r.UserInterface.StylePreference.IsValid() {
		return fmt.Errorf("unknown style preference %q", r.UserInterface.StylePreference)
	}
	return nil
}
