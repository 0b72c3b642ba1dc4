// internal/capacity/capacity.go
package capacity

import (
	"github.com/tamzrod/recipe-sync/internal/codec"
	"github.com/tamzrod/recipe-sync/internal/config"
	"github.com/tamzrod/recipe-sync/internal/fault"
)

// Footprint is the number of words each area needs for a recipe.
type Footprint struct {
	Int   int
	Float int
	Bool  int
}

// FootprintOf returns the register footprint of rows recipe rows.
func FootprintOf(rows int) Footprint {
	return Footprint{
		Int:   codec.IntWords(rows),
		Float: codec.FloatWords(rows),
		Bool:  codec.BoolWords(rows),
	}
}

// Check reports the first area (int, float, bool) whose configured size
// cannot hold rows recipe rows. No side effects.
func Check(rows int, s config.Settings) error {
	fp := FootprintOf(rows)

	if err := Fits("int", fp.Int, s.Int.Size); err != nil {
		return err
	}
	if err := Fits("float", fp.Float, s.Float.Size); err != nil {
		return err
	}
	return Fits("bool", fp.Bool, s.Bool.Size)
}

// Fits returns a CapacityExceeded error naming area when required > available.
func Fits(area string, required, available int) error {
	if required <= available {
		return nil
	}
	return fault.New(
		fault.CapacityExceeded,
		"%s area too small: required=%d words available=%d words",
		area, required, available,
	)
}
