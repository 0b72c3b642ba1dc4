// internal/recipe/recipe_test.go
package recipe

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/tamzrod/recipe-sync/internal/fault"
	"gotest.tools/v3/assert"
)

func TestStepDefaults(t *testing.T) {
	s := NewStep(map[Key]Value{
		KeyAction:       Int(ActionOpen),
		KeyActionTarget: Int(2),
	})

	assert.Equal(t, s.Action(), ActionOpen)
	assert.Equal(t, s.Int(KeyActionTarget), int32(2))
	assert.Equal(t, s.Float(KeySetpoint), float32(0))
	assert.Equal(t, s.Text(KeyComment), "")

	_, ok := s.Get(KeySetpoint)
	assert.Assert(t, !ok)
}

func TestStepIsImmutable(t *testing.T) {
	props := map[Key]Value{KeyAction: Int(ActionWait), KeySetpoint: Float(1)}
	s := NewStep(props)
	props[KeySetpoint] = Float(99)

	assert.Equal(t, s.Float(KeySetpoint), float32(1))

	s2 := s.With(KeySetpoint, Float(5))
	assert.Equal(t, s.Float(KeySetpoint), float32(1))
	assert.Equal(t, s2.Float(KeySetpoint), float32(5))
}

func TestCatalogBuildUsesShape(t *testing.T) {
	cat := DefaultCatalog()

	s, err := cat.Build(ActionWait, RawFields{Target: 7, Setpoint: 10, Speed: 3})
	assert.NilError(t, err)

	assert.Equal(t, s.Float(KeySetpoint), float32(10))
	_, hasTarget := s.Get(KeyActionTarget)
	_, hasSpeed := s.Get(KeySpeed)
	assert.Assert(t, !hasTarget)
	assert.Assert(t, !hasSpeed)
}

func TestCatalogBuildUnknownAction(t *testing.T) {
	_, err := DefaultCatalog().Build(999, RawFields{})
	assert.Assert(t, errors.Is(err, fault.Of(fault.UnsupportedAction)))
}

func TestNewCatalogRejectsDuplicates(t *testing.T) {
	_, err := NewCatalog([]ActionInfo{{ID: 1, Name: "A"}, {ID: 1, Name: "B"}})
	assert.ErrorContains(t, err, "duplicate action id")

	_, err = NewCatalog([]ActionInfo{{ID: 1, Name: "A"}, {ID: 2, Name: "a"}})
	assert.ErrorContains(t, err, "duplicate action name")
}

const sampleFile = `steps:
  - action: Close
    target: 1
  - action: open
    target: 2
    comment: main shutter
  - action: "3"
    setpoint: 10.5
`

func TestParseAndWrite(t *testing.T) {
	cat := DefaultCatalog()

	r, err := Parse(strings.NewReader(sampleFile), cat)
	assert.NilError(t, err)
	assert.Equal(t, r.Len(), 3)
	assert.Equal(t, r.Step(0).Action(), ActionClose)
	assert.Equal(t, r.Step(1).Text(KeyComment), "main shutter")
	assert.Equal(t, r.Step(2).Action(), ActionWait)
	assert.Equal(t, r.Step(2).Float(KeySetpoint), float32(10.5))

	var buf bytes.Buffer
	assert.NilError(t, Write(&buf, r, cat))

	back, err := Parse(&buf, cat)
	assert.NilError(t, err)
	assert.Equal(t, back.Len(), 3)
	assert.Equal(t, back.Step(1).Int(KeyActionTarget), int32(2))
	assert.Equal(t, back.Step(2).Float(KeySetpoint), float32(10.5))
}

func TestParseUnknownAction(t *testing.T) {
	_, err := Parse(strings.NewReader("steps:\n  - action: Explode\n"), DefaultCatalog())
	assert.ErrorContains(t, err, "step 1")
	assert.Equal(t, fault.KindOf(err), fault.UnsupportedAction)
}

func TestParseRejectsFieldOutsideShape(t *testing.T) {
	doc := "steps:\n  - action: Open\n    target: 1\n    setpoint: 5\n"
	_, err := Parse(strings.NewReader(doc), DefaultCatalog())
	assert.ErrorContains(t, err, "step 1: action Open does not take setpoint")

	doc = "steps:\n  - action: Wait\n    target: 3\n    setpoint: 5\n"
	_, err = Parse(strings.NewReader(doc), DefaultCatalog())
	assert.ErrorContains(t, err, "action Wait does not take target")
}

func TestParseEmpty(t *testing.T) {
	r, err := Parse(strings.NewReader(""), DefaultCatalog())
	assert.NilError(t, err)
	assert.Equal(t, r.Len(), 0)
}
