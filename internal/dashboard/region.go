package dashboard

import "sync"

// State is what a display region is currently showing.
type State int

const (
	StateLoading State = iota
	StateReady
	StateEmpty
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateEmpty:
		return "empty"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Snapshot is a consistent copy of a region.
type Snapshot[T any] struct {
	State      State
	Value      T
	Err        error
	Generation uint64
}

// Region holds one independently updated part of the dashboard. Every fetch
// takes a token from Begin; only the holder of the newest token may settle
// the region, so a slow superseded response can never overwrite a newer one.
type Region[T any] struct {
	mu      sync.Mutex
	gen     uint64
	state   State
	value   T
	err     error
	isEmpty func(T) bool
}

// NewRegion returns a region in the loading state. isEmpty decides whether a
// committed value is shown as no-data; nil means never empty.
func NewRegion[T any](isEmpty func(T) bool) *Region[T] {
	return &Region[T]{isEmpty: isEmpty}
}

// Begin supersedes any in-flight fetch and puts the region back to loading.
func (r *Region[T]) Begin() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gen++
	var zero T
	r.state = StateLoading
	r.value = zero
	r.err = nil
	return r.gen
}

// Commit stores v if token is still current. It reports whether v was kept.
func (r *Region[T]) Commit(token uint64, v T) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if token != r.gen {
		return false
	}
	r.value = v
	r.err = nil
	r.state = StateReady
	if r.isEmpty != nil && r.isEmpty(v) {
		r.state = StateEmpty
	}
	return true
}

// Fail records err if token is still current. The previous value is not
// kept so a failed region never shows stale data.
func (r *Region[T]) Fail(token uint64, err error) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if token != r.gen {
		return false
	}
	var zero T
	r.value = zero
	r.err = err
	r.state = StateFailed
	return true
}

func (r *Region[T]) Snapshot() Snapshot[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Snapshot[T]{State: r.state, Value: r.value, Err: r.err, Generation: r.gen}
}
