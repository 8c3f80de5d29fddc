package requirement

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fullRecord returns a record clearing every recommended threshold.
func fullRecord() Record {
	return Record{
		ProblemDefinition: ProblemDefinition{
			PainPoint:        "users lose track of tasks across tools",
			CurrentIssue:     "sticky notes and three separate apps",
			ExpectedSolution: "one shared inbox for everything",
		},
		FunctionalLogic: FunctionalLogic{
			CoreFeatures: []Feature{
				{Name: "capture", InputOutput: "text in, task out", UserSteps: []string{"type", "save"}},
				{Name: "remind", InputOutput: "time in, notification out"},
			},
			DataFlow: "input flows to the inbox, reminders fan out",
		},
		DataModel: DataModel{
			Entities:   []Entity{{Name: "Task"}, {Name: "Project"}},
			Operations: []string{"create", "complete", "search"},
		},
		UserInterface: UserInterface{
			Pages:           []Page{{Name: "Inbox"}},
			Interactions:    []Interaction{{Action: "add task", Trigger: "click", Result: "task appears"}},
			StylePreference: StyleMinimal,
		},
	}
}

func logOfLength(n int, answer string) Log {
	log := make(Log, 0, n)
	for i := 0; i < n; i++ {
		log = append(log, QAEntry{
			Question:  fmt.Sprintf("question %d", i),
			Answer:    answer,
			Category:  CategoryGeneral,
			Timestamp: time.Now(),
		})
	}
	return log
}

func TestDecide_HardStopAtMaxRounds(t *testing.T) {
	// Rule 1 wins regardless of scores; even an empty record stops.
	metrics := Score(Record{}, nil)
	log := logOfLength(15, "short answer")

	decision := Decide(metrics, log)

	assert.False(t, decision.ShouldContinue)
	assert.Equal(t, ReasonMaxRounds, decision.Reason)
	assert.Equal(t, PriorityCritical, decision.Priority)
	assert.Equal(t, 1.0, decision.Confidence)
}

func TestDecide_InsufficientForPRD(t *testing.T) {
	// Scenario from the quality bar: pain point set, nothing else.
	record := Record{
		ProblemDefinition: ProblemDefinition{PainPoint: "users lose track of tasks across tools"},
	}
	metrics := Score(record, nil)
	require.InDelta(t, 0.5, metrics.Problem.Score, 1e-9)
	require.InDelta(t, 0.15, metrics.Overall, 1e-9)

	decision := Decide(metrics, nil)

	assert.True(t, decision.ShouldContinue)
	assert.Equal(t, ReasonInsufficient, decision.Reason)
	assert.Equal(t, PriorityCritical, decision.Priority)
	assert.Equal(t, 0.9, decision.Confidence)
	assert.Contains(t, decision.MissingAspects, string(DimensionProblem))
	assert.Contains(t, decision.MissingAspects, "overall")
}

func TestDecide_MinimumBarBeatsUserStopSignal(t *testing.T) {
	// "done" in an answer must not override the quality floor.
	metrics := Score(Record{}, nil)
	log := logOfLength(3, "I'm done, just generate it")

	decision := Decide(metrics, log)

	assert.True(t, decision.ShouldContinue)
	assert.Equal(t, ReasonInsufficient, decision.Reason)
}

func TestDecide_CanImprove(t *testing.T) {
	// Above minimum everywhere, below recommended somewhere, few rounds.
	record := fullRecord()
	record.ProblemDefinition.CurrentIssue = "" // problem drops to 0.7
	metrics := Score(record, nil)
	require.InDelta(t, 0.7, metrics.Problem.Score, 1e-9)

	decision := Decide(metrics, logOfLength(3, "a plain answer"))

	assert.True(t, decision.ShouldContinue)
	assert.Equal(t, ReasonCanImprove, decision.Reason)
	assert.Equal(t, PriorityImportant, decision.Priority)
	assert.Equal(t, 0.7, decision.Confidence)
}

func TestDecide_CanImproveGateClosesAtEightRounds(t *testing.T) {
	record := fullRecord()
	record.ProblemDefinition.CurrentIssue = "" // still below recommended
	metrics := Score(record, nil)

	decision := Decide(metrics, logOfLength(8, "a plain answer"))

	assert.False(t, decision.ShouldContinue)
	assert.Equal(t, ReasonMeetsBar, decision.Reason)
}

func TestDecide_MeetsBar(t *testing.T) {
	// Scenario: fully populated record, 5 rounds → stop, "meets bar".
	metrics := Score(fullRecord(), nil)

	decision := Decide(metrics, logOfLength(5, "a plain answer"))

	assert.False(t, decision.ShouldContinue)
	assert.Equal(t, ReasonMeetsBar, decision.Reason)
	assert.Equal(t, PriorityOptional, decision.Priority)
	assert.Equal(t, 0.8, decision.Confidence)
}

func TestDecide_UserStopSignal(t *testing.T) {
	metrics := Score(fullRecord(), nil)
	log := logOfLength(8, "that's enough, please generate now")

	decision := Decide(metrics, log)

	assert.False(t, decision.ShouldContinue)
	assert.Equal(t, ReasonUserConfirmed, decision.Reason)
	assert.Equal(t, 0.9, decision.Confidence)
}

func TestDecide_UserContinueSignal(t *testing.T) {
	metrics := Score(fullRecord(), nil)
	log := logOfLength(9, "I'd like to add more detail")

	decision := Decide(metrics, log)

	assert.True(t, decision.ShouldContinue)
	assert.Equal(t, ReasonUserRequested, decision.Reason)
	assert.Equal(t, 0.8, decision.Confidence)
}

func TestDecide_StopSignalBeatsContinueSignal(t *testing.T) {
	metrics := Score(fullRecord(), nil)
	log := logOfLength(8, "no more questions, I'm done")

	decision := Decide(metrics, log)

	assert.False(t, decision.ShouldContinue)
	assert.Equal(t, ReasonUserConfirmed, decision.Reason)
}

func TestDecide_ContinueSignalIgnoredAtTwelveRounds(t *testing.T) {
	metrics := Score(fullRecord(), nil)
	log := logOfLength(12, "keep going, more detail please")

	decision := Decide(metrics, log)

	assert.False(t, decision.ShouldContinue)
	assert.Equal(t, ReasonMeetsBar, decision.Reason)
}

// Termination: any session stops within MaxRounds, at the latest via the
// hard-stop rule at exactly round 15.
func TestDecide_TerminationWithinFifteenRounds(t *testing.T) {
	record := Record{} // minimal answers: scores never move
	log := Log{}

	var decision Decision
	for round := 1; round <= MaxRounds; round++ {
		log = log.Append(QAEntry{
			Question: fmt.Sprintf("q%d", round),
			Answer:   "hm",
			Category: CategoryGeneral,
		})
		decision = Decide(Score(record, log), log)
		if round < MaxRounds {
			require.True(t, decision.ShouldContinue, "round %d should continue", round)
		}
	}

	assert.False(t, decision.ShouldContinue)
	assert.Equal(t, ReasonMaxRounds, decision.Reason)
	assert.Equal(t, 1.0, decision.Confidence)
}
