// internal/recipe/step.go
package recipe

import "sort"

// Key is a semantic property key of a step.
type Key string

const (
	KeyAction       Key = "Action"
	KeyActionTarget Key = "ActionTarget"
	KeyInitialValue Key = "InitialValue"
	KeySetpoint     Key = "Setpoint"
	KeySpeed        Key = "Speed"
	KeyDuration     Key = "Duration"
	KeyComment      Key = "Comment"

	// KeyStepStartTime is computed by the UI and never transmitted.
	KeyStepStartTime Key = "StepStartTime"
)

// Step is one recipe entry. It is immutable once built.
// Absent keys read as 0 / "".
type Step struct {
	props map[Key]Value
}

// NewStep copies props into a new Step.
func NewStep(props map[Key]Value) Step {
	cp := make(map[Key]Value, len(props))
	for k, v := range props {
		if v.Kind() == KindNone {
			continue
		}
		cp[k] = v
	}
	return Step{props: cp}
}

// Get returns the value stored under key.
func (s Step) Get(key Key) (Value, bool) {
	v, ok := s.props[key]
	return v, ok
}

// Keys returns the present keys in sorted order.
func (s Step) Keys() []Key {
	out := make([]Key, 0, len(s.props))
	for k := range s.props {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Len is the number of present keys.
func (s Step) Len() int { return len(s.props) }

func (s Step) Action() int32 { return s.Int(KeyAction) }

func (s Step) Int(key Key) int32 { return s.props[key].Int32() }

func (s Step) Float(key Key) float32 { return s.props[key].Float32() }

func (s Step) Text(key Key) string { return s.props[key].Str() }

// With returns a copy of s with key set to v.
func (s Step) With(key Key, v Value) Step {
	cp := make(map[Key]Value, len(s.props)+1)
	for k, old := range s.props {
		cp[k] = old
	}
	cp[key] = v
	return NewStep(cp)
}

// Recipe is an ordered snapshot of steps. Order defines execution sequence.
type Recipe struct {
	steps []Step
}

// New snapshots steps into a Recipe.
func New(steps []Step) Recipe {
	cp := make([]Step, len(steps))
	copy(cp, steps)
	return Recipe{steps: cp}
}

func (r Recipe) Len() int { return len(r.steps) }

func (r Recipe) Step(i int) Step { return r.steps[i] }

// Steps returns a copy of the step slice.
func (r Recipe) Steps() []Step {
	cp := make([]Step, len(r.steps))
	copy(cp, r.steps)
	return cp
}
