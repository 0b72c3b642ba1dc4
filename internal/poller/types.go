// internal/poller/types.go
package poller

import (
	"time"

	"github.com/tamzrod/recipe-sync/internal/control"
)

// Snapshot is one read of the controller's control block.
type Snapshot struct {
	Endpoint string
	At       time.Time

	Block control.Block
	Err   error // non-nil means the poll cycle failed; Block is zero
}

// Changed reports whether next differs from prev in health, state or row count.
// The command word is client-owned and ignored.
func Changed(prev, next Snapshot) bool {
	if (prev.Err == nil) != (next.Err == nil) {
		return true
	}
	if next.Err != nil {
		return prev.Err.Error() != next.Err.Error()
	}
	return prev.Block.State != next.Block.State || prev.Block.RowCount != next.Block.RowCount
}
