package feature

import (
	"errors"
	"fmt"

	"github.com/banshee-data/touchprobe/internal/fit"
)

// ErrContextUnderflow is returned by Pop when only the root set remains.
var ErrContextUnderflow = errors.New("feature context stack underflow")

// ContextStackError is a misuse of the context stack by the caller.
type ContextStackError struct {
	Op    string
	Depth int
	Err   error
}

func (e *ContextStackError) Error() string {
	return fmt.Sprintf("feature context %s at depth %d: %v", e.Op, e.Depth, e.Err)
}

func (e *ContextStackError) Unwrap() error { return e.Err }

// Set maps small integer IDs to Features and tracks the active one.
type Set struct {
	features map[int]*Feature
	activeID int
	fitter   *fit.Fitter
}

// NewSet returns an empty Set whose features use f.
func NewSet(f *fit.Fitter) *Set {
	return &Set{features: make(map[int]*Feature), fitter: f}
}

// Feature returns the feature with id, creating it on first access.
func (s *Set) Feature(id int) *Feature {
	if ft, ok := s.features[id]; ok {
		return ft
	}
	ft := New(s.fitter)
	s.features[id] = ft
	return ft
}

// Has reports whether id has been accessed in this set.
func (s *Set) Has(id int) bool {
	_, ok := s.features[id]
	return ok
}

// ActiveID returns the active feature ID.
func (s *Set) ActiveID() int { return s.activeID }

// SetActiveID selects the active feature.
func (s *Set) SetActiveID(id int) { s.activeID = id }

// Active returns the active feature, creating it if needed.
func (s *Set) Active() *Feature { return s.Feature(s.activeID) }

// ContextStack is a stack of feature Sets. It always holds the root set;
// every accessor acts on the topmost set only.
type ContextStack struct {
	frames []*Set
	fitter *fit.Fitter
}

// NewContextStack returns a stack holding only an empty root set. A nil
// fitter selects the package defaults.
func NewContextStack(f *fit.Fitter) *ContextStack {
	if f == nil {
		f = fit.Default()
	}
	return &ContextStack{frames: []*Set{NewSet(f)}, fitter: f}
}

func (c *ContextStack) top() *Set { return c.frames[len(c.frames)-1] }

// Depth returns the number of sets, at least 1.
func (c *ContextStack) Depth() int { return len(c.frames) }

// Push adds a new empty set on top.
func (c *ContextStack) Push() {
	c.frames = append(c.frames, NewSet(c.fitter))
}

// Pop discards the top set. Popping the root set is an error.
func (c *ContextStack) Pop() error {
	if len(c.frames) <= 1 {
		return &ContextStackError{Op: "pop", Depth: len(c.frames), Err: ErrContextUnderflow}
	}
	c.frames[len(c.frames)-1] = nil
	c.frames = c.frames[:len(c.frames)-1]
	return nil
}

// Feature returns feature id of the active set, creating it on first access.
func (c *ContextStack) Feature(id int) *Feature { return c.top().Feature(id) }

// ActiveFeature returns the active feature of the active set.
func (c *ContextStack) ActiveFeature() *Feature { return c.top().Active() }

// ActiveFeatureID returns the active feature ID of the active set.
func (c *ContextStack) ActiveFeatureID() int { return c.top().ActiveID() }

// SetActiveFeatureID selects the active feature of the active set.
func (c *ContextStack) SetActiveFeatureID(id int) { c.top().SetActiveID(id) }

// WithContext runs fn inside a freshly pushed set and pops it on every
// exit path, including a panic in fn. Frames fn leaves behind are
// discarded with it.
func (c *ContextStack) WithContext(fn func() error) error {
	c.Push()
	depth := len(c.frames)
	defer func() {
		for len(c.frames) >= depth {
			_ = c.Pop()
		}
	}()
	return fn()
}
