// internal/control/block.go
package control

import "fmt"

// Block is one read of the control block.
// It contains no logic and no memory of the past.
type Block struct {
	State    uint16
	Command  uint16
	RowCount uint16
}

// Decode converts control registers into a Block.
// Missing words read as zero.
// No IO. No side effects.
func Decode(regs []uint16) Block {
	var b Block
	if len(regs) > SlotState {
		b.State = regs[SlotState]
	}
	if len(regs) > SlotCommand {
		b.Command = regs[SlotCommand]
	}
	if len(regs) > SlotRowCount {
		b.RowCount = regs[SlotRowCount]
	}
	return b
}

// Encode converts a Block into the full control block.
// Layout is protocol-locked.
func Encode(b Block) []uint16 {
	regs := make([]uint16, BlockWords)

	regs[SlotState] = b.State
	regs[SlotCommand] = b.Command
	regs[SlotRowCount] = b.RowCount

	return regs
}

// ReadyForDownload reports whether the controller will answer recipe reads consistently.
func (b Block) ReadyForDownload() bool {
	return b.State == StateIdle || b.State == StateWritingBlocked
}

// StateName returns a readable name for a controller state value.
func StateName(v uint16) string {
	switch v {
	case StateIdle:
		return "idle"
	case StateWritingAllowed:
		return "writing-allowed"
	case StateWritingBlocked:
		return "writing-blocked"
	default:
		return fmt.Sprintf("unknown(%d)", v)
	}
}
