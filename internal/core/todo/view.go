package todo

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// PriorityFilter narrows a view to one priority, or PriorityAll.
type PriorityFilter string

// PriorityAll disables priority filtering.
const PriorityAll PriorityFilter = "all"

// ParsePriorityFilter converts user input into a PriorityFilter. An empty
// string means PriorityAll.
func ParsePriorityFilter(s string) (PriorityFilter, error) {
	if s == "" || s == string(PriorityAll) {
		return PriorityAll, nil
	}
	if !Priority(s).IsValid() {
		return "", fmt.Errorf("invalid priority filter %q: must be one of all, low, medium, high", s)
	}
	return PriorityFilter(s), nil
}

// SortKey selects the order of a derived view.
type SortKey string

const (
	SortCreatedDesc  SortKey = "created-desc"
	SortCreatedAsc   SortKey = "created-asc"
	SortPriorityDesc SortKey = "priority-desc"
	SortPriorityAsc  SortKey = "priority-asc"
	SortTitleAsc     SortKey = "title-asc"
	SortTitleDesc    SortKey = "title-desc"
	SortDueAsc       SortKey = "due-asc"
	SortDueDesc      SortKey = "due-desc"
)

// DefaultSort is the sort key of a cleared view.
const DefaultSort = SortCreatedDesc

var sortLabels = map[SortKey]string{
	SortCreatedDesc:  "Newest first",
	SortCreatedAsc:   "Oldest first",
	SortPriorityDesc: "Priority high → low",
	SortPriorityAsc:  "Priority low → high",
	SortTitleAsc:     "Title A → Z",
	SortTitleDesc:    "Title Z → A",
	SortDueAsc:       "Due soonest",
	SortDueDesc:      "Due latest",
}

// SortKeys lists every sort key in menu order.
func SortKeys() []SortKey {
	return []SortKey{
		SortCreatedDesc,
		SortCreatedAsc,
		SortPriorityDesc,
		SortPriorityAsc,
		SortTitleAsc,
		SortTitleDesc,
		SortDueAsc,
		SortDueDesc,
	}
}

// Label returns the menu label for k.
func (k SortKey) Label() string {
	if l, ok := sortLabels[k]; ok {
		return l
	}
	return string(k)
}

// ParseSortKey converts user input into a SortKey. An empty string means
// DefaultSort.
func ParseSortKey(s string) (SortKey, error) {
	if s == "" {
		return DefaultSort, nil
	}
	k := SortKey(s)
	if _, ok := sortLabels[k]; !ok {
		return "", fmt.Errorf("invalid sort %q", s)
	}
	return k, nil
}

// ViewSpec is the caller-held filter and sort selection. It is never
// persisted.
type ViewSpec struct {
	Priority PriorityFilter
	// DueBefore is an inclusive upper bound; the zero Date disables it.
	DueBefore Date
	Search    string
	Sort      SortKey
}

// DefaultViewSpec returns a spec with no filters and the default sort.
func DefaultViewSpec() ViewSpec {
	return ViewSpec{Priority: PriorityAll, Sort: DefaultSort}
}

// Active reports whether any filter or a non-default sort is applied.
func (s ViewSpec) Active() bool {
	return (s.Priority != "" && s.Priority != PriorityAll) ||
		!s.DueBefore.IsZero() ||
		strings.TrimSpace(s.Search) != "" ||
		(s.Sort != "" && s.Sort != DefaultSort)
}

type indexed struct {
	item  Item
	index int
}

// Derive returns the items to display for spec. It never modifies items and
// its output depends only on its arguments.
func Derive(items []Item, spec ViewSpec) []Item {
	term := strings.ToLower(strings.TrimSpace(spec.Search))

	filtered := make([]indexed, 0, len(items))
	for i, item := range items {
		if !matches(item, term, spec) {
			continue
		}
		filtered = append(filtered, indexed{item: item, index: i})
	}

	slices.SortStableFunc(filtered, comparer(spec.Sort))

	out := make([]Item, len(filtered))
	for i, e := range filtered {
		out[i] = e.item
	}
	return out
}

func matches(item Item, term string, spec ViewSpec) bool {
	if term != "" {
		haystack := strings.ToLower(item.Title + "\n" + item.Description)
		if !strings.Contains(haystack, term) {
			return false
		}
	}

	if spec.Priority != "" && spec.Priority != PriorityAll && item.Priority != Priority(spec.Priority) {
		return false
	}

	if !spec.DueBefore.IsZero() {
		due, ok := item.Due()
		if !ok {
			return false
		}
		if spec.DueBefore.Before(due) {
			return false
		}
	}

	return true
}

func comparer(key SortKey) func(a, b indexed) int {
	switch key {
	case SortCreatedAsc:
		return func(a, b indexed) int { return cmpInt(a.index, b.index) }
	case SortPriorityAsc:
		return func(a, b indexed) int { return cmpInt(a.item.Priority.Weight(), b.item.Priority.Weight()) }
	case SortPriorityDesc:
		return func(a, b indexed) int { return cmpInt(b.item.Priority.Weight(), a.item.Priority.Weight()) }
	case SortTitleAsc, SortTitleDesc:
		// Collators keep scratch buffers, so each derivation gets its own.
		c := collate.New(language.Und, collate.Loose)
		if key == SortTitleDesc {
			return func(a, b indexed) int { return c.CompareString(b.item.Title, a.item.Title) }
		}
		return func(a, b indexed) int { return c.CompareString(a.item.Title, b.item.Title) }
	case SortDueAsc:
		return func(a, b indexed) int { return compareDue(a.item, b.item, false) }
	case SortDueDesc:
		return func(a, b indexed) int { return compareDue(a.item, b.item, true) }
	default:
		return func(a, b indexed) int { return cmpInt(b.index, a.index) }
	}
}

// compareDue orders by calendar day. Items without a usable date sort after
// every dated item in both directions.
func compareDue(a, b Item, desc bool) int {
	ad, aok := a.Due()
	bd, bok := b.Due()
	switch {
	case !aok && !bok:
		return 0
	case !aok:
		return 1
	case !bok:
		return -1
	}
	if desc {
		return bd.Compare(ad)
	}
	return ad.Compare(bd)
}
