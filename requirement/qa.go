package requirement

import "time"

// Category tags which dimension a question was probing.
type Category string

const (
	CategoryPainPoint  Category = "painpoint"
	CategoryFunctional Category = "functional"
	CategoryData       Category = "data"
	CategoryInterface  Category = "interface"
	CategoryGeneral    Category = "general"
)

// IsValid checks if the category is a known value.
func (c Category) IsValid() bool {
	switch c {
	case CategoryPainPoint, CategoryFunctional, CategoryData, CategoryInterface, CategoryGeneral:
		return true
	}
	return false
}

// CategoryForDimension maps a scored dimension to its question category.
func CategoryForDimension(d Dimension) Category {
	switch d {
	case DimensionProblem:
		return CategoryPainPoint
	case DimensionFunctional:
		return CategoryFunctional
	case DimensionData:
		return CategoryData
	case DimensionInterface:
		return CategoryInterface
	default:
		return CategoryGeneral
	}
}

// QAEntry is one answered question. Entries are created exactly once per
// answered question, never mutated, never deleted. The log is the ground
// truth the scorer can fall back to when a model-produced record is
// unavailable or invalid.
type QAEntry struct {
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Category  Category  `json:"category"`
	Timestamp time.Time `json:"timestamp"`
}

// Log is the append-only question/answer history of a session.
type Log []QAEntry

// Append returns a new log with the entry added. The receiver is left
// untouched so callers can safely hold old snapshots.
func (l Log) Append(entry QAEntry) Log {
	out := make(Log, len(l), len(l)+1)
	copy(out, l)
	return append(out, entry)
}

// Answers returns all answer texts in order.
func (l Log) Answers() []string {
	answers := make([]string, 0, len(l))
	for _, e := range l {
		answers = append(answers, e.Answer)
	}
	return answers
}

// CountByCategory returns how many entries probe each category.
func (l Log) CountByCategory() map[Category]int {
	counts := make(map[Category]int)
	for _, e := range l {
		counts[e.Category]++
	}
	return counts
}
