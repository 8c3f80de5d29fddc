package engine

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/c360studio/intake/requirement"
)

// assessmentSystemPrompt instructs the model to extract structured
// requirement fields and assess completeness in a single call. The JSON
// format is spelled out in full because local models need the schema on
// every call.
const assessmentSystemPrompt = `You are a product requirements analyst guiding a user from a rough product idea to a structured requirement document.

## Your Objective

Given the requirement record collected so far, the question/answer history, and the user's latest message, do BOTH of the following in one response:

1. Extract any new structured requirement information from the user's latest message.
2. Assess how complete the record is and propose the next questions to ask.

## Extraction Rules

- Only include fields the user actually mentioned. Never invent details.
- Omit fields you would leave empty. Existing information is merged additively on our side, so you never need to repeat what is already in the record.
- Keep the user's own wording where possible.

## Output Format

Respond with ONLY a JSON object matching this structure:

` + "```json" + `
{
  "canGenerate": false,
  "completenessScore": 0.3,
  "recommendedAction": "continue_questioning",
  "missingAspects": ["dataModel"],
  "questions": [
    {"question": "What kinds of information does the product need to keep track of?", "category": "data"}
  ],
  "record": {
    "problemDefinition": {"painPoint": "", "currentIssue": "", "expectedSolution": ""},
    "functionalLogic": {"coreFeatures": [{"name": "", "description": "", "inputOutput": "", "userSteps": [], "priority": "medium"}], "dataFlow": "", "businessRules": []},
    "dataModel": {"entities": [{"name": "", "description": "", "fields": [], "relationships": []}], "operations": [], "storageRequirements": ""},
    "userInterface": {"pages": [{"name": "", "purpose": "", "keyElements": []}], "interactions": [{"action": "", "trigger": "", "result": ""}], "stylePreference": ""},
    "metadata": {"productType": "", "targetUsers": "", "complexity": "simple"}
  }
}
` + "```" + `

## Guidelines

- "recommendedAction" is "continue_questioning" or "proceed_to_confirmation".
- "completenessScore" is your overall estimate in [0, 1].
- Propose at most 2 questions, focused on the weakest aspect of the record.
- "category" is one of: painpoint, functional, data, interface, general.
- "stylePreference", when present, is one of: modern, minimal, professional, playful.`

// buildUserPrompt assembles the per-round user message: the record so far,
// the QA history, and the user's latest input.
func buildUserPrompt(record requirement.Record, log requirement.Log, userInput string) string {
	var b strings.Builder

	recordJSON, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		// Record is plain data; marshal can only fail on non-finite floats,
		// which Validate rejects upstream. Degrade to an empty record.
		recordJSON = []byte("{}")
	}

	b.WriteString("## Requirement Record So Far\n\n```json\n")
	b.Write(recordJSON)
	b.WriteString("\n```\n\n")

	if len(log) > 0 {
		b.WriteString("## Question/Answer History\n\n")
		for i, entry := range log {
			fmt.Fprintf(&b, "%d. Q (%s): %s\n   A: %s\n", i+1, entry.Category, entry.Question, entry.Answer)
		}
		b.WriteString("\n")
	}

	b.WriteString("## User's Latest Message\n\n")
	b.WriteString(userInput)

	return b.String()
}
