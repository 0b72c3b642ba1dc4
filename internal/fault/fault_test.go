// internal/fault/fault_test.go
package fault

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"gotest.tools/v3/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindOf(nil), Kind(0))
	assert.Equal(t, KindOf(errors.New("boom")), Internal)
	assert.Equal(t, KindOf(context.Canceled), OperationCanceled)
	assert.Equal(t, KindOf(fmt.Errorf("wrapped: %w", context.DeadlineExceeded)), OperationCanceled)

	err := fmt.Errorf("device: upload: %w", New(WritePermissionDenied, "denied after %d polls", 5))
	assert.Equal(t, KindOf(err), WritePermissionDenied)
}

func TestIsMatchesKind(t *testing.T) {
	err := fmt.Errorf("outer: %w", Wrap(ConnectionFailed, errors.New("refused"), "dial %s", "h:502"))

	assert.Assert(t, errors.Is(err, Of(ConnectionFailed)))
	assert.Assert(t, !errors.Is(err, Of(CapacityExceeded)))
	assert.Equal(t, err.Error(), "outer: dial h:502: refused")
}

func TestWrapNil(t *testing.T) {
	assert.Assert(t, Wrap(Internal, nil, "x") == nil)
}

func TestCode(t *testing.T) {
	e := From(errors.New("x"))
	assert.Equal(t, e.Code(), uint16(Internal))
	assert.Equal(t, From(New(VerificationMismatch, "row 1")).Code(), uint16(7))
}

func TestFromKeepsOuterContext(t *testing.T) {
	inner := New(CapacityExceeded, "int area too small")
	e := From(fmt.Errorf("device: controller reports 9 rows: %w", inner))

	assert.Equal(t, e.Kind, CapacityExceeded)
	assert.Equal(t, e.Error(), "device: controller reports 9 rows: int area too small")
	assert.Assert(t, errors.Is(e, Of(CapacityExceeded)))
}
