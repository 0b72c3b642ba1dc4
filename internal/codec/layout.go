// internal/codec/layout.go
package codec

// Recipe register layout.
// These values are a fixed contract with the controller firmware and MUST NOT be configurable.

// ---- INT AREA ----

// IntWordsPerRow is the number of int registers per recipe row.
const IntWordsPerRow = 2

// Int column offsets within a row.
const (
	ColAction       = 0
	ColActionTarget = 1
)

// ---- FLOAT AREA ----

// FloatFieldsPerRow is the number of logical float fields per row.
const FloatFieldsPerRow = 4

// WordsPerFloat is fixed by the IEEE-754 single precision bit pattern (low word first).
const WordsPerFloat = 2

// FloatWordsPerRow is the number of float registers per recipe row.
const FloatWordsPerRow = FloatFieldsPerRow * WordsPerFloat

// Float field indices within a row.
const (
	FieldInitialValue = 0
	FieldSetpoint     = 1
	FieldSpeed        = 2
	FieldDuration     = 3
)

// ---- BOOL AREA ----

// BoolColumns is the number of boolean columns per row.
// The area is reserved; no action defines boolean data yet.
const BoolColumns = 0

// BitsPerWord is the bool area packing density.
const BitsPerWord = 16

// IntWords returns the int area footprint of rows.
func IntWords(rows int) int { return rows * IntWordsPerRow }

// FloatWords returns the float area footprint of rows.
func FloatWords(rows int) int { return rows * FloatWordsPerRow }

// BoolWords returns the bool area footprint of rows, ceil(rows*BoolColumns/16).
func BoolWords(rows int) int {
	bits := rows * BoolColumns
	return (bits + BitsPerWord - 1) / BitsPerWord
}
