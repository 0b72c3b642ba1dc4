// internal/codec/codec.go
package codec

import (
	"fmt"
	"math"

	"github.com/tamzrod/recipe-sync/internal/fault"
	"github.com/tamzrod/recipe-sync/internal/recipe"
)

// Registers are the three flat register arrays of one recipe.
type Registers struct {
	Ints   []uint16
	Floats []uint16
	Bools  []uint16
}

// Codec maps steps to registers and back.
// Stateless apart from the immutable action table.
type Codec struct {
	meta    recipe.Metadata
	builder recipe.Builder
}

// New creates a codec using meta for column shapes and builder for decoding.
func New(meta recipe.Metadata, builder recipe.Builder) *Codec {
	return &Codec{meta: meta, builder: builder}
}

// Encode converts steps into register arrays.
// Columns not used by a step's action are written as zero.
// Int columns must fit a signed 16-bit register; float ranges are not validated.
// No IO. No side effects.
func (c *Codec) Encode(steps []recipe.Step) (Registers, error) {
	rows := len(steps)
	regs := Registers{
		Ints:   make([]uint16, IntWords(rows)),
		Floats: make([]uint16, FloatWords(rows)),
		Bools:  make([]uint16, BoolWords(rows)),
	}

	for row, s := range steps {
		info, ok := c.meta.Lookup(s.Action())
		if !ok {
			return Registers{}, fault.New(fault.UnsupportedAction, "row %d: unsupported action id %d", row, s.Action())
		}

		ib := row * IntWordsPerRow
		w, err := intWord(row, recipe.KeyAction, s.Action())
		if err != nil {
			return Registers{}, err
		}
		regs.Ints[ib+ColAction] = w
		if info.Shape.Target {
			w, err := intWord(row, recipe.KeyActionTarget, s.Int(recipe.KeyActionTarget))
			if err != nil {
				return Registers{}, err
			}
			regs.Ints[ib+ColActionTarget] = w
		}

		fb := row * FloatWordsPerRow
		if info.Shape.InitialValue {
			putFloat(regs.Floats, fb, FieldInitialValue, s.Float(recipe.KeyInitialValue))
		}
		if info.Shape.Setpoint {
			putFloat(regs.Floats, fb, FieldSetpoint, s.Float(recipe.KeySetpoint))
		}
		if info.Shape.Speed {
			putFloat(regs.Floats, fb, FieldSpeed, s.Float(recipe.KeySpeed))
		}
		if info.Shape.Duration {
			putFloat(regs.Floats, fb, FieldDuration, s.Float(recipe.KeyDuration))
		}
	}

	return regs, nil
}

// intWord packs v as a two's complement register word.
func intWord(row int, key recipe.Key, v int32) (uint16, error) {
	if v < math.MinInt16 || v > math.MaxInt16 {
		return 0, fault.New(fault.CapacityExceeded, "row %d: %s %d outside the 16-bit register range", row, key, v)
	}
	return uint16(int16(v)), nil
}

// Decode reconstructs rowCount steps from int and float registers.
// Indexes beyond the arrays read as zero, to tolerate short controller responses.
func (c *Codec) Decode(ints, floats []uint16, rowCount int) ([]recipe.Step, error) {
	steps := make([]recipe.Step, 0, rowCount)

	for row := 0; row < rowCount; row++ {
		ib := row * IntWordsPerRow
		fb := row * FloatWordsPerRow

		id := int32(int16(wordAt(ints, ib+ColAction)))
		raw := recipe.RawFields{
			Target:       int32(int16(wordAt(ints, ib+ColActionTarget))),
			InitialValue: getFloat(floats, fb, FieldInitialValue),
			Setpoint:     getFloat(floats, fb, FieldSetpoint),
			Speed:        getFloat(floats, fb, FieldSpeed),
			Duration:     getFloat(floats, fb, FieldDuration),
		}

		s, err := c.builder.Build(id, raw)
		if err != nil {
			return nil, fmt.Errorf("codec: row %d: %w", row, err)
		}
		steps = append(steps, s)
	}

	return steps, nil
}

// ---- helpers (pure geometry) ----

// SplitFloat splits the IEEE-754 bit pattern of v into (low, high) words.
func SplitFloat(v float32) (lo, hi uint16) {
	bits := math.Float32bits(v)
	return uint16(bits), uint16(bits >> 16)
}

// JoinFloat reassembles a float from (low, high) words, NaN/Inf patterns verbatim.
func JoinFloat(lo, hi uint16) float32 {
	return math.Float32frombits(uint32(hi)<<16 | uint32(lo))
}

func putFloat(dst []uint16, rowBase, field int, v float32) {
	i := rowBase + field*WordsPerFloat
	dst[i], dst[i+1] = SplitFloat(v)
}

func getFloat(src []uint16, rowBase, field int) float32 {
	i := rowBase + field*WordsPerFloat
	return JoinFloat(wordAt(src, i), wordAt(src, i+1))
}

func wordAt(src []uint16, i int) uint16 {
	if i < 0 || i >= len(src) {
		return 0
	}
	return src[i]
}
