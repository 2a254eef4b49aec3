package todo

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/hay-kot/criterio"
)

// Field names reported by Draft.Validate.
const (
	FieldTitle   = "title"
	FieldDueDate = "dueDate"
)

// MinTitleLength is the shortest accepted title after trimming.
const MinTitleLength = 3

var (
	// ErrTitleEmpty is reported when the trimmed title is empty.
	ErrTitleEmpty = errors.New("give your todo a name")
	// ErrTitleTooShort is reported when the trimmed title is shorter than MinTitleLength.
	ErrTitleTooShort = errors.New("make it at least 3 characters to keep things clear")
	// ErrDueInPast is reported when the due date is before today.
	ErrDueInPast = errors.New("choose today or a future date")
	// ErrDueInvalid is reported when the due date is not a YYYY-MM-DD date.
	ErrDueInvalid = errors.New("use a YYYY-MM-DD date")
)

// Draft is the editable form of a todo as typed by a user. Nothing in a
// Draft is trusted until Validate passes.
type Draft struct {
	Title       string
	Description string
	DueDate     string
	Priority    Priority
}

// NewDraft returns an empty draft with the default priority.
func NewDraft() Draft {
	return Draft{Priority: PriorityMedium}
}

// DraftFromItem seeds an edit draft with the current values of item.
func DraftFromItem(item Item) Draft {
	return Draft{
		Title:       item.Title,
		Description: item.Description,
		DueDate:     item.DueDate,
		Priority:    item.Priority,
	}
}

// ValidateTitle checks a title on its own.
func ValidateTitle(title string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(title))
	switch {
	case n == 0:
		return ErrTitleEmpty
	case n < MinTitleLength:
		return ErrTitleTooShort
	}
	return nil
}

// ValidateDueDate checks a due date against the local calendar day of now.
// An empty value is valid.
func ValidateDueDate(due string, now time.Time) error {
	due = strings.TrimSpace(due)
	if due == "" {
		return nil
	}
	d, err := ParseDate(due)
	if err != nil {
		return ErrDueInvalid
	}
	if d.Before(Today(now)) {
		return ErrDueInPast
	}
	return nil
}

// Validate checks the draft and returns a criterio.FieldErrors describing
// every failing field, or nil. Both checks always run.
func (d Draft) Validate(now time.Time) error {
	var errs criterio.FieldErrorsBuilder
	if err := ValidateTitle(d.Title); err != nil {
		errs = errs.Append(FieldTitle, err)
	}
	if err := ValidateDueDate(d.DueDate, now); err != nil {
		errs = errs.Append(FieldDueDate, err)
	}
	return errs.ToError()
}

// Input returns the trimmed values of d ready for creation.
func (d Draft) Input() Input {
	priority := d.Priority
	if !priority.IsValid() {
		priority = PriorityMedium
	}
	return Input{
		Title:       strings.TrimSpace(d.Title),
		Description: strings.TrimSpace(d.Description),
		Priority:    priority,
		DueDate:     strings.TrimSpace(d.DueDate),
	}
}

// Apply returns item with the draft's values, keeping its ID.
func (d Draft) Apply(item Item) Item {
	return d.Input().WithID(item.ID)
}

// FieldMessages flattens a Validate error into field → message. It returns
// nil when err carries no field errors.
func FieldMessages(err error) map[string]string {
	var fieldErrs criterio.FieldErrors
	if !errors.As(err, &fieldErrs) {
		return nil
	}
	out := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		out[fe.Field] = fe.Err.Error()
	}
	return out
}
