// internal/compare/compare.go
package compare

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/tamzrod/recipe-sync/internal/recipe"
)

// Tolerance is the maximum absolute difference at which two numbers are equal.
const Tolerance = 1e-4

// Mismatch describes the first difference between two recipes.
// Row is -1 when the step counts differ.
type Mismatch struct {
	Row      int
	Key      recipe.Key
	Expected string
	Actual   string
}

func (m *Mismatch) Error() string {
	if m.Row < 0 {
		return fmt.Sprintf("step count differs: expected=%s actual=%s", m.Expected, m.Actual)
	}
	return fmt.Sprintf("row %d key %s differs: expected=%s actual=%s", m.Row, m.Key, m.Expected, m.Actual)
}

type options struct {
	ignore map[recipe.Key]bool
}

// Option tunes a comparison.
type Option func(*options)

// Ignore excludes keys from the comparison in addition to StepStartTime.
func Ignore(keys ...recipe.Key) Option {
	return func(o *options) {
		for _, k := range keys {
			o.ignore[k] = true
		}
	}
}

// Recipes compares expected against actual and returns the first mismatch, or nil.
func Recipes(expected, actual recipe.Recipe, opts ...Option) *Mismatch {
	return Steps(expected.Steps(), actual.Steps(), opts...)
}

// Steps compares two step sequences row by row, stopping at the first mismatch.
func Steps(expected, actual []recipe.Step, opts ...Option) *Mismatch {
	o := options{ignore: map[recipe.Key]bool{recipe.KeyStepStartTime: true}}
	for _, fn := range opts {
		fn(&o)
	}

	if len(expected) != len(actual) {
		return &Mismatch{
			Row:      -1,
			Expected: fmt.Sprint(len(expected)),
			Actual:   fmt.Sprint(len(actual)),
		}
	}

	for row := range expected {
		for _, k := range unionKeys(expected[row], actual[row]) {
			if o.ignore[k] {
				continue
			}
			a, _ := expected[row].Get(k)
			b, _ := actual[row].Get(k)
			if !Values(a, b) {
				return &Mismatch{Row: row, Key: k, Expected: a.String(), Actual: b.String()}
			}
		}
	}
	return nil
}

// Values reports whether two property values are equal.
// An absent value (KindNone) reads as the default of the other side's kind.
func Values(a, b recipe.Value) bool {
	a, b = withDefault(a, b), withDefault(b, a)

	switch {
	case a.IsNumeric() && b.IsNumeric():
		return math.Abs(a.Float64()-b.Float64()) <= Tolerance
	case a.Kind() == recipe.KindText && b.Kind() == recipe.KindText:
		return strings.TrimSpace(a.Str()) == strings.TrimSpace(b.Str())
	default:
		return a == b
	}
}

func withDefault(v, other recipe.Value) recipe.Value {
	if v.Kind() != recipe.KindNone {
		return v
	}
	switch other.Kind() {
	case recipe.KindInt:
		return recipe.Int(0)
	case recipe.KindFloat:
		return recipe.Float(0)
	case recipe.KindText:
		return recipe.Text("")
	}
	return v
}

func unionKeys(a, b recipe.Step) []recipe.Key {
	seen := make(map[recipe.Key]bool, a.Len()+b.Len())
	var out []recipe.Key
	for _, k := range append(a.Keys(), b.Keys()...) {
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	sort.Slice(out, func(i, j int) bool { return keyOrder(out[i]) < keyOrder(out[j]) })
	return out
}

// keyOrder puts the well-known keys first in column order, other keys after.
func keyOrder(k recipe.Key) string {
	switch k {
	case recipe.KeyAction:
		return "0"
	case recipe.KeyActionTarget:
		return "1"
	case recipe.KeyInitialValue:
		return "2"
	case recipe.KeySetpoint:
		return "3"
	case recipe.KeySpeed:
		return "4"
	case recipe.KeyDuration:
		return "5"
	case recipe.KeyComment:
		return "6"
	}
	return "9" + string(k)
}
