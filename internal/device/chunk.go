// internal/device/chunk.go
package device

import (
	"context"
	"fmt"
)

// MaxChunk is the register ceiling of a single request frame.
const MaxChunk = 123

// Chunk describes one request geometry.
// Geometry only: no semantics.
type Chunk struct {
	Address  uint16 // absolute register address
	Offset   int    // index into the source/destination array
	Quantity int
}

// PlanChunks splits [base, base+length) into consecutive chunks of at most limit registers.
// Chunks are contiguous, non-overlapping and cover the range exactly.
func PlanChunks(base uint16, length, limit int) []Chunk {
	if length <= 0 || limit <= 0 {
		return nil
	}

	out := make([]Chunk, 0, (length+limit-1)/limit)
	for off := 0; off < length; off += limit {
		n := limit
		if length-off < n {
			n = length - off
		}
		out = append(out, Chunk{
			Address:  base + uint16(off),
			Offset:   off,
			Quantity: n,
		})
	}
	return out
}

// writeChunked writes data starting at base in MaxChunk pieces.
// Cancellation is honored between chunks only.
func writeChunked(ctx context.Context, cli Client, area string, base uint16, data []uint16) error {
	for _, c := range PlanChunks(base, len(data), MaxChunk) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := cli.WriteRegisters(c.Address, data[c.Offset:c.Offset+c.Quantity]); err != nil {
			return transportErr(err, "write %s area addr=%d qty=%d", area, c.Address, c.Quantity)
		}
	}
	return nil
}

// readChunked reads length registers starting at base in MaxChunk pieces.
// A short response leaves the missing tail of its chunk as zero.
func readChunked(ctx context.Context, cli Client, area string, base uint16, length int) ([]uint16, error) {
	out := make([]uint16, length)

	for _, c := range PlanChunks(base, length, MaxChunk) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		regs, err := cli.ReadHoldingRegisters(c.Address, uint16(c.Quantity))
		if err != nil {
			return nil, transportErr(err, "read %s area addr=%d qty=%d", area, c.Address, c.Quantity)
		}
		if len(regs) > c.Quantity {
			return nil, fmt.Errorf("device: read %s area addr=%d: got %d registers, asked %d", area, c.Address, len(regs), c.Quantity)
		}
		copy(out[c.Offset:c.Offset+c.Quantity], regs)
	}
	return out, nil
}
