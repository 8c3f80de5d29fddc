package requirement

import "strings"

// Merge combines newly-extracted fields into an existing record and returns
// the result. The merge is strictly additive:
//
//   - a non-empty scalar from src replaces the existing value
//   - an empty scalar never clears an existing value
//   - list entries from src are appended, or replace an existing entry when
//     they share a name/key; existing entries are never dropped
//
// Both inputs are left untouched; the returned record is a fresh value.
func Merge(dst, src Record) Record {
	out := dst

	out.ProblemDefinition = mergeProblem(dst.ProblemDefinition, src.ProblemDefinition)
	out.FunctionalLogic = mergeFunctional(dst.FunctionalLogic, src.FunctionalLogic)
	out.DataModel = mergeData(dst.DataModel, src.DataModel)
	out.UserInterface = mergeInterface(dst.UserInterface, src.UserInterface)
	out.Metadata = mergeMetadata(dst.Metadata, src.Metadata)

	return out
}

// pick returns src when it carries information, otherwise dst.
func pick(dst, src string) string {
	if present(src) {
		return src
	}
	return dst
}

func mergeProblem(dst, src ProblemDefinition) ProblemDefinition {
	return ProblemDefinition{
		PainPoint:        pick(dst.PainPoint, src.PainPoint),
		CurrentIssue:     pick(dst.CurrentIssue, src.CurrentIssue),
		ExpectedSolution: pick(dst.ExpectedSolution, src.ExpectedSolution),
	}
}

func mergeFunctional(dst, src FunctionalLogic) FunctionalLogic {
	out := FunctionalLogic{
		CoreFeatures:  mergeFeatures(dst.CoreFeatures, src.CoreFeatures),
		DataFlow:      pick(dst.DataFlow, src.DataFlow),
		BusinessRules: appendStrings(dst.BusinessRules, src.BusinessRules),
	}
	return out
}

func mergeFeatures(dst, src []Feature) []Feature {
	out := make([]Feature, len(dst))
	copy(out, dst)

	for _, f := range src {
		if !present(f.Name) {
			continue // a feature without a name carries no mergeable identity
		}
		idx := -1
		for i, existing := range out {
			if sameKey(existing.Name, f.Name) {
				idx = i
				break
			}
		}
		if idx < 0 {
			out = append(out, f)
			continue
		}
		existing := out[idx]
		existing.Description = pick(existing.Description, f.Description)
		existing.InputOutput = pick(existing.InputOutput, f.InputOutput)
		existing.UserSteps = appendStrings(existing.UserSteps, f.UserSteps)
		if f.Priority != "" {
			existing.Priority = f.Priority
		}
		out[idx] = existing
	}
	return out
}

func mergeData(dst, src DataModel) DataModel {
	return DataModel{
		Entities:            mergeEntities(dst.Entities, src.Entities),
		Operations:          appendStrings(dst.Operations, src.Operations),
		StorageRequirements: pick(dst.StorageRequirements, src.StorageRequirements),
	}
}

func mergeEntities(dst, src []Entity) []Entity {
	out := make([]Entity, len(dst))
	copy(out, dst)

	for _, e := range src {
		if !present(e.Name) {
			continue
		}
		idx := -1
		for i, existing := range out {
			if sameKey(existing.Name, e.Name) {
				idx = i
				break
			}
		}
		if idx < 0 {
			out = append(out, e)
			continue
		}
		existing := out[idx]
		existing.Description = pick(existing.Description, e.Description)
		existing.Fields = appendStrings(existing.Fields, e.Fields)
		existing.Relationships = appendStrings(existing.Relationships, e.Relationships)
		out[idx] = existing
	}
	return out
}

func mergeInterface(dst, src UserInterface) UserInterface {
	out := UserInterface{
		Pages:           mergePages(dst.Pages, src.Pages),
		Interactions:    mergeInteractions(dst.Interactions, src.Interactions),
		StylePreference: dst.StylePreference,
	}
	if src.StylePreference.IsValid() {
		out.StylePreference = src.StylePreference
	}
	return out
}

func mergePages(dst, src []Page) []Page {
	out := make([]Page, len(dst))
	copy(out, dst)

	for _, p := range src {
		if !present(p.Name) {
			continue
		}
		idx := -1
		for i, existing := range out {
			if sameKey(existing.Name, p.Name) {
				idx = i
				break
			}
		}
		if idx < 0 {
			out = append(out, p)
			continue
		}
		existing := out[idx]
		existing.Purpose = pick(existing.Purpose, p.Purpose)
		existing.KeyElements = appendStrings(existing.KeyElements, p.KeyElements)
		out[idx] = existing
	}
	return out
}

func mergeInteractions(dst, src []Interaction) []Interaction {
	out := make([]Interaction, len(dst))
	copy(out, dst)

	for _, in := range src {
		if !present(in.Action) {
			continue
		}
		exists := false
		for _, existing := range out {
			if sameKey(existing.Action, in.Action) && sameKey(existing.Trigger, in.Trigger) {
				exists = true
				break
			}
		}
		if !exists {
			out = append(out, in)
		}
	}
	return out
}

func mergeMetadata(dst, src Metadata) Metadata {
	out := Metadata{
		// The founding input is set exactly once per session
		OriginalInput: dst.OriginalInput,
		ProductType:   pick(dst.ProductType, src.ProductType),
		TargetUsers:   pick(dst.TargetUsers, src.TargetUsers),
		Complexity:    dst.Complexity,
		Confidence:    dst.Confidence,
		Completeness:  dst.Completeness,
		Timestamp:     dst.Timestamp,
	}
	if !present(dst.OriginalInput) {
		out.OriginalInput = src.OriginalInput
	}
	if src.Complexity != "" {
		out.Complexity = src.Complexity
	}
	if src.Confidence > 0 && src.Confidence <= 1 {
		out.Confidence = src.Confidence
	}
	if src.Completeness > 0 && src.Completeness <= 1 {
		out.Completeness = src.Completeness
	}
	if !src.Timestamp.IsZero() {
		out.Timestamp = src.Timestamp
	}
	return out
}

// appendStrings appends entries from src that aren't already in dst.
// Whitespace-only entries are dropped.
func appendStrings(dst, src []string) []string {
	out := make([]string, len(dst))
	copy(out, dst)

	for _, s := range src {
		if !present(s) {
			continue
		}
		exists := false
		for _, existing := range out {
			if sameKey(existing, s) {
				exists = true
				break
			}
		}
		if !exists {
			out = append(out, s)
		}
	}
	return out
}

// sameKey compares two identifying strings case-insensitively, ignoring
// surrounding whitespace.
func sameKey(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
