package requirement

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMerge_ScalarsNeverClearedByEmpty(t *testing.T) {
	dst := Record{
		ProblemDefinition: ProblemDefinition{PainPoint: "existing pain point"},
	}
	src := Record{
		ProblemDefinition: ProblemDefinition{PainPoint: "   ", CurrentIssue: "new issue"},
	}

	merged := Merge(dst, src)

	assert.Equal(t, "existing pain point", merged.ProblemDefinition.PainPoint)
	assert.Equal(t, "new issue", merged.ProblemDefinition.CurrentIssue)
}

func TestMerge_ScalarReplacement(t *testing.T) {
	dst := Record{DataModel: DataModel{StorageRequirements: "local only"}}
	src := Record{DataModel: DataModel{StorageRequirements: "cloud sync required"}}

	merged := Merge(dst, src)
	assert.Equal(t, "cloud sync required", merged.DataModel.StorageRequirements)
}

func TestMerge_FeaturesByName(t *testing.T) {
	dst := Record{FunctionalLogic: FunctionalLogic{
		CoreFeatures: []Feature{{Name: "capture", Description: "quick add"}},
	}}
	src := Record{FunctionalLogic: FunctionalLogic{
		CoreFeatures: []Feature{
			{Name: "Capture", InputOutput: "text in, task out", UserSteps: []string{"type"}},
			{Name: "remind", Priority: PriorityHigh},
			{Description: "no name, no merge"},
		},
	}}

	merged := Merge(dst, src)

	require.Len(t, merged.FunctionalLogic.CoreFeatures, 2)

	capture := merged.FunctionalLogic.CoreFeatures[0]
	assert.Equal(t, "capture", capture.Name, "existing entry keeps its spelling")
	assert.Equal(t, "quick add", capture.Description)
	assert.Equal(t, "text in, task out", capture.InputOutput)
	assert.Equal(t, []string{"type"}, capture.UserSteps)

	assert.Equal(t, "remind", merged.FunctionalLogic.CoreFeatures[1].Name)
	assert.Equal(t, PriorityHigh, merged.FunctionalLogic.CoreFeatures[1].Priority)
}

func TestMerge_EntitiesAccumulateFields(t *testing.T) {
	dst := Record{DataModel: DataModel{
		Entities: []Entity{{Name: "Task", Fields: []string{"title"}}},
	}}
	src := Record{DataModel: DataModel{
		Entities: []Entity{{Name: "task", Fields: []string{"title", "due date"}, Relationships: []string{"belongs to Project"}}},
	}}

	merged := Merge(dst, src)

	require.Len(t, merged.DataModel.Entities, 1)
	assert.Equal(t, []string{"title", "due date"}, merged.DataModel.Entities[0].Fields)
	assert.Equal(t, []string{"belongs to Project"}, merged.DataModel.Entities[0].Relationships)
}

func TestMerge_StringListsDeduplicate(t *testing.T) {
	dst := Record{DataModel: DataModel{Operations: []string{"create", "search"}}}
	src := Record{DataModel: DataModel{Operations: []string{"Search", "delete", "  "}}}

	merged := Merge(dst, src)
	assert.Equal(t, []string{"create", "search", "delete"}, merged.DataModel.Operations)
}

func TestMerge_InteractionsAppendOnly(t *testing.T) {
	dst := Record{UserInterface: UserInterface{
		Interactions: []Interaction{{Action: "add", Trigger: "click", Result: "saved"}},
	}}
	src := Record{UserInterface: UserInterface{
		Interactions: []Interaction{
			{Action: "add", Trigger: "click", Result: "saved with animation"}, // duplicate key
			{Action: "complete", Trigger: "swipe", Result: "archived"},
			{Trigger: "hover"}, // no action, dropped
		},
	}}

	merged := Merge(dst, src)

	require.Len(t, merged.UserInterface.Interactions, 2)
	assert.Equal(t, "saved", merged.UserInterface.Interactions[0].Result, "existing entry wins")
}

func TestMerge_StylePreferenceValidation(t *testing.T) {
	dst := Record{UserInterface: UserInterface{StylePreference: StyleModern}}

	merged := Merge(dst, Record{UserInterface: UserInterface{StylePreference: "brutalist"}})
	assert.Equal(t, StyleModern, merged.UserInterface.StylePreference, "unknown style ignored")

	merged = Merge(dst, Record{UserInterface: UserInterface{StylePreference: StylePlayful}})
	assert.Equal(t, StylePlayful, merged.UserInterface.StylePreference)
}

func TestMerge_Metadata(t *testing.T) {
	now := time.Now()
	dst := Record{Metadata: Metadata{OriginalInput: "a todo app", Confidence: 0.4}}
	src := Record{Metadata: Metadata{
		OriginalInput: "should not replace",
		ProductType:   "productivity tool",
		Complexity:    ComplexityMedium,
		Confidence:    0.7,
		Timestamp:     now,
	}}

	merged := Merge(dst, src)

	assert.Equal(t, "a todo app", merged.Metadata.OriginalInput, "original input is set once")
	assert.Equal(t, "productivity tool", merged.Metadata.ProductType)
	assert.Equal(t, ComplexityMedium, merged.Metadata.Complexity)
	assert.Equal(t, 0.7, merged.Metadata.Confidence)
	assert.Equal(t, now, merged.Metadata.Timestamp)
}

func TestMerge_InputsLeftUntouched(t *testing.T) {
	dst := Record{DataModel: DataModel{Operations: []string{"create"}}}
	src := Record{DataModel: DataModel{Operations: []string{"delete"}}}

	_ = Merge(dst, src)

	assert.Equal(t, []string{"create"}, dst.DataModel.Operations)
	assert.Equal(t, []string{"delete"}, src.DataModel.Operations)
}

func TestRecord_Validate(t *testing.T) {
	valid := Record{}
	assert.NoError(t, valid.Validate())

	bad := Record{Metadata: Metadata{Confidence: 1.5}}
	assert.Error(t, bad.Validate())

	bad = Record{UserInterface: UserInterface{StylePreference: "brutalist"}}
	assert.Error(t, bad.Validate())
}
