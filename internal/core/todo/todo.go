// Package todo defines the todo record, its validation at the create/edit
// boundary, the schema check for untrusted stored payloads, and the pure
// view derivation used by every caller that renders a list.
package todo

import "fmt"

// Priority ranks how urgent a todo is.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Priorities lists every priority from lowest to highest.
func Priorities() []Priority {
	return []Priority{PriorityLow, PriorityMedium, PriorityHigh}
}

// IsValid reports whether p is one of the known priorities.
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Weight returns the sort weight of p: high=3, medium=2, low=1.
// Unknown priorities weigh 0.
func (p Priority) Weight() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

// Label returns the display label for p.
func (p Priority) Label() string {
	switch p {
	case PriorityHigh:
		return "High"
	case PriorityMedium:
		return "Medium"
	case PriorityLow:
		return "Low"
	}
	return string(p)
}

// ParsePriority converts user input into a Priority.
func ParsePriority(s string) (Priority, error) {
	p := Priority(s)
	if !p.IsValid() {
		return "", fmt.Errorf("invalid priority %q: must be one of low, medium, high", s)
	}
	return p, nil
}

// Item is a single todo. It is the only persisted entity.
type Item struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Priority    Priority `json:"priority"`
	// DueDate is an ISO calendar date (YYYY-MM-DD). Empty means no due date
	// and is omitted from the serialized form.
	DueDate string `json:"dueDate,omitempty"`
}

// Due parses the item's due date. ok is false when the item has no due
// date or the stored value is not a calendar date.
func (i Item) Due() (Date, bool) {
	if i.DueDate == "" {
		return Date{}, false
	}
	d, err := ParseDate(i.DueDate)
	if err != nil {
		return Date{}, false
	}
	return d, true
}

// Input is everything needed to create an Item except its ID, which the
// collection assigns.
type Input struct {
	Title       string
	Description string
	Priority    Priority
	DueDate     string
}

// WithID builds the full record for in.
func (in Input) WithID(id string) Item {
	return Item{
		ID:          id,
		Title:       in.Title,
		Description: in.Description,
		Priority:    in.Priority,
		DueDate:     in.DueDate,
	}
}

// Seed returns the sample todos shown before anything has been persisted.
func Seed() []Item {
	return []Item{
		{
			ID:          "1",
			Title:       "Draft the product launch outline",
			Description: "Collect talking points, outline the launch email, and gather supporting assets.",
			Priority:    PriorityHigh,
			DueDate:     "2025-10-12",
		},
		{
			ID:          "2",
			Title:       "Plan next sprint goals",
			Description: "Review current progress, identify blockers, and pick top 3 focus areas for the week.",
			Priority:    PriorityMedium,
			DueDate:     "2025-11-15",
		},
		{
			ID:          "3",
			Title:       "Refresh knowledge base",
			Description: "Update onboarding docs with the latest workflow tips gathered from the team retro.",
			Priority:    PriorityLow,
		},
	}
}
