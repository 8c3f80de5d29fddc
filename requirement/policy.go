package requirement

import "strings"

// DecisionPriority tags how strongly the policy holds its decision.
type DecisionPriority string

const (
	PriorityCritical  DecisionPriority = "critical"
	PriorityImportant DecisionPriority = "important"
	PriorityOptional  DecisionPriority = "optional"
)

// Decision is the continuation policy's verdict for one round.
// Produced fresh each round, never stored.
type Decision struct {
	ShouldContinue bool             `json:"shouldContinue"`
	Reason         string           `json:"reason"`
	Priority       DecisionPriority `json:"priority"`
	MissingAspects []string         `json:"missingAspects,omitempty"`
	Confidence     float64          `json:"confidence"`
}

// Decision reasons. Stable strings: the HTTP boundary and tests key off them.
const (
	ReasonMaxRounds     = "max rounds reached"
	ReasonInsufficient  = "insufficient for PRD"
	ReasonCanImprove    = "can improve"
	ReasonUserConfirmed = "user confirmed sufficiency"
	ReasonUserRequested = "user requested more"
	ReasonMeetsBar      = "meets bar"
)

// MaxRounds is the hard termination bound. It exists purely to guarantee
// the loop ends regardless of model behavior and must never be bypassed.
const MaxRounds = 15

const (
	// recommendedRoundLimit stops the recommended-bar gate from asking
	// past this many answered questions.
	recommendedRoundLimit = 8

	// userContinueLimit bounds explicit "keep going" requests.
	userContinueLimit = 12
)

// Minimum bar: the lowest per-dimension score still usable for document
// generation. No user or model signal may override this floor.
var minimumBar = map[Dimension]float64{
	DimensionProblem:    0.6,
	DimensionFunctional: 0.5,
	DimensionData:       0.3,
	DimensionInterface:  0.3,
}

const minimumOverall = 0.4

// Recommended bar: the score profile of a good-quality record. Below it
// the engine prefers, but does not require, another round.
var recommendedBar = map[Dimension]float64{
	DimensionProblem:    0.8,
	DimensionFunctional: 0.7,
	DimensionData:       0.6,
	DimensionInterface:  0.6,
}

const recommendedOverall = 0.7

// StopMarkers are the answer substrings read as "stop asking, generate".
// An enumerable list, not NLP: behavior has to stay testable.
var StopMarkers = []string{
	"done",
	"enough",
	"generate now",
	"that's all",
	"looks good",
}

// ContinueMarkers are the answer substrings read as "keep asking".
var ContinueMarkers = []string{
	"more",
	"continue",
	"detail",
}

// Decide runs the continuation policy over the current metrics and QA log.
// Rules are evaluated in strict order; the first match wins. The hard stop
// and the minimum-bar gate are evaluated before any user-preference signal
// gets a vote, so a confused model can't trap the user in an infinite loop
// and a premature "done" can't hand off an unusable record.
func Decide(metrics Metrics, log Log) Decision {
	// Rule 1: hard stop
	if len(log) >= MaxRounds {
		return Decision{
			ShouldContinue: false,
			Reason:         ReasonMaxRounds,
			Priority:       PriorityCritical,
			Confidence:     1.0,
		}
	}

	// Rule 2: minimum-bar gate
	if failing := belowMinimum(metrics); len(failing) > 0 {
		return Decision{
			ShouldContinue: true,
			Reason:         ReasonInsufficient,
			Priority:       PriorityCritical,
			MissingAspects: failing,
			Confidence:     0.9,
		}
	}

	// Rule 3: recommended-bar gate
	if !meetsRecommended(metrics) && len(log) < recommendedRoundLimit {
		return Decision{
			ShouldContinue: true,
			Reason:         ReasonCanImprove,
			Priority:       PriorityImportant,
			Confidence:     0.7,
		}
	}

	// Rule 4: explicit user stop signal (takes precedence over rule 5)
	if anyAnswerContains(log, StopMarkers) {
		return Decision{
			ShouldContinue: false,
			Reason:         ReasonUserConfirmed,
			Priority:       PriorityOptional,
			Confidence:     0.9,
		}
	}

	// Rule 5: explicit user continue signal
	if anyAnswerContains(log, ContinueMarkers) && len(log) < userContinueLimit {
		return Decision{
			ShouldContinue: true,
			Reason:         ReasonUserRequested,
			Priority:       PriorityOptional,
			Confidence:     0.8,
		}
	}

	// Rule 6: default
	return Decision{
		ShouldContinue: false,
		Reason:         ReasonMeetsBar,
		Priority:       PriorityOptional,
		Confidence:     0.8,
	}
}

// MinimumBar returns the minimum usable score for a dimension.
func MinimumBar(d Dimension) float64 {
	return minimumBar[d]
}

// belowMinimum returns the names of dimensions scoring below their minimum
// bar, in declaration order, plus "overall" when the weighted score fails.
func belowMinimum(m Metrics) []string {
	var failing []string
	for _, d := range Dimensions {
		if m.DimensionScore(d) < minimumBar[d] {
			failing = append(failing, string(d))
		}
	}
	if m.Overall < minimumOverall {
		failing = append(failing, "overall")
	}
	return failing
}

func meetsRecommended(m Metrics) bool {
	for _, d := range Dimensions {
		if m.DimensionScore(d) < recommendedBar[d] {
			return false
		}
	}
	return m.Overall >= recommendedOverall
}

// anyAnswerContains reports whether any answer text contains one of the
// markers. Matching is lowercase substring, deliberately dumb.
func anyAnswerContains(log Log, markers []string) bool {
	for _, entry := range log {
		answer := strings.ToLower(entry.Answer)
		for _, marker := range markers {
			if strings.Contains(answer, marker) {
				return true
			}
		}
	}
	return false
}
