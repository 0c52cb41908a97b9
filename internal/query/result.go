package query

import "time"

// Binding maps goal variables to values.
type Binding map[string]any

// InstantResult holds the goal answers at one frame.
type InstantResult struct {
	Label    string
	Bindings []Binding
}

// Holds reports whether the goal had at least one answer.
func (r InstantResult) Holds() bool { return len(r.Bindings) > 0 }

// Result is the per-frame outcome of a query over a temporal store.
type Result struct {
	Query    string
	Instants []InstantResult
	Duration time.Duration
}

// Always reports whether the goal holds at every frame. It is false for an
// empty store.
func (r *Result) Always() bool {
	if r == nil || len(r.Instants) == 0 {
		return false
	}
	for _, in := range r.Instants {
		if !in.Holds() {
			return false
		}
	}
	return true
}

// Eventually reports whether the goal holds at some frame.
func (r *Result) Eventually() bool {
	return r.FirstHolding() >= 0
}

// FirstHolding returns the index of the first frame where the goal holds,
// or -1.
func (r *Result) FirstHolding() int {
	if r == nil {
		return -1
	}
	for i, in := range r.Instants {
		if in.Holds() {
			return i
		}
	}
	return -1
}

// HoldsAt reports whether the goal holds at frame i. Out of range is false.
func (r *Result) HoldsAt(i int) bool {
	if r == nil || i < 0 || i >= len(r.Instants) {
		return false
	}
	return r.Instants[i].Holds()
}
