// Package model provides capability-based model selection for the
// questioning engine. Callers specify what kind of work they need
// (extraction, assessment) rather than a concrete model name, and the
// registry resolves that to available endpoints with fallback chains.
package model

// Capability represents a semantic capability for model selection.
type Capability string

const (
	// CapabilityExtraction is for turning free-text answers into
	// structured requirement fields.
	CapabilityExtraction Capability = "extraction"

	// CapabilityAssessment is for completeness assessment and
	// follow-up question generation.
	CapabilityAssessment Capability = "assessment"

	// CapabilityFast is for cheap confirmation-style prompts.
	CapabilityFast Capability = "fast"
)

// IsValid checks if a capability string is a known capability.
func (c Capability) IsValid() bool {
	switch c {
	case CapabilityExtraction, CapabilityAssessment, CapabilityFast:
		return true
	}
	return false
}

// String returns the string representation of the capability.
func (c Capability) String() string {
	return string(c)
}

// ParseCapability converts a string to a Capability, returning empty for unknown values.
func ParseCapability(s string) Capability {
	cap := Capability(s)
	if cap.IsValid() {
		return cap
	}
	return ""
}
