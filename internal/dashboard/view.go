package dashboard

import (
	"slices"
	"sync"

	"github.com/colonyops/todo/internal/core/todo"
)

// View memoizes todo.Derive over a collection, keyed by the collection
// version and the view spec. The result is identical to calling Derive on
// Items every time.
type View struct {
	coll *Collection

	mu      sync.Mutex
	cached  bool
	version uint64
	spec    todo.ViewSpec
	result  []todo.Item
}

// NewView creates a memoized view over coll.
func NewView(coll *Collection) *View {
	return &View{coll: coll}
}

// Derive returns the filtered and sorted records for spec.
func (v *View) Derive(spec todo.ViewSpec) []todo.Item {
	items, version := v.coll.snapshot()

	v.mu.Lock()
	defer v.mu.Unlock()

	if v.cached && v.version == version && v.spec == spec {
		return slices.Clone(v.result)
	}

	v.result = todo.Derive(items, spec)
	v.version = version
	v.spec = spec
	v.cached = true
	return slices.Clone(v.result)
}
