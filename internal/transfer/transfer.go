// internal/transfer/transfer.go
package transfer

import (
	"context"
	"io"
	"log"

	"github.com/google/uuid"

	"github.com/tamzrod/recipe-sync/internal/capacity"
	"github.com/tamzrod/recipe-sync/internal/codec"
	"github.com/tamzrod/recipe-sync/internal/compare"
	"github.com/tamzrod/recipe-sync/internal/config"
	"github.com/tamzrod/recipe-sync/internal/device"
	"github.com/tamzrod/recipe-sync/internal/fault"
	"github.com/tamzrod/recipe-sync/internal/recipe"
)

// Transfer is the user-facing entry point: upload-and-verify, download and
// connectivity checks against the controller described by its provider.
//
// Every returned error is a *fault.Error; callers only inspect Kind.
// Operations against the same endpoint never overlap.
type Transfer struct {
	provider config.Provider
	dial     device.Dialer
	codec    *codec.Codec
	log      *log.Logger
	guard    *guard

	sleep sleeper
	newID func() string
}

// New creates a Transfer. cat serves as both action metadata and step builder.
// A nil logger discards output.
func New(p config.Provider, dial device.Dialer, cat *recipe.Catalog, logger *log.Logger) *Transfer {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Transfer{
		provider: p,
		dial:     dial,
		codec:    codec.New(cat, cat),
		log:      logger,
		guard:    newGuard(),
		sleep:    sleepCtx,
		newID:    func() string { return uuid.New().String() },
	}
}

// ---- operations ----

// UploadAndVerify writes r to the controller, waits for it to settle and reads it back.
// It reports true only when the read-back matches r.
func (t *Transfer) UploadAndVerify(ctx context.Context, r recipe.Recipe) (bool, error) {
	op := t.newID()

	err := t.run(ctx, op, "upload", func(s config.Settings, sess *device.Session) error {
		if err := capacity.Check(r.Len(), s); err != nil {
			return err
		}
		// rows the controller cannot hold must fail before the handshake
		if _, err := t.codec.Encode(r.Steps()); err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := sess.Upload(ctx, r.Steps()); err != nil {
			return err
		}

		if err := t.sleep(ctx, s.Settle); err != nil {
			return err
		}

		back, err := sess.Download(ctx)
		if err != nil {
			return err
		}

		// comments never reach the controller
		if m := compare.Recipes(r, recipe.New(back), compare.Ignore(recipe.KeyComment)); m != nil {
			return fault.Wrap(fault.VerificationMismatch, m, "verification failed")
		}

		t.log.Printf("transfer: upload verified (op=%s endpoint=%s rows=%d)", op, s.Endpoint(), r.Len())
		return nil
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// Download reads the recipe currently stored in the controller.
func (t *Transfer) Download(ctx context.Context) (recipe.Recipe, error) {
	op := t.newID()

	var out recipe.Recipe
	err := t.run(ctx, op, "download", func(s config.Settings, sess *device.Session) error {
		steps, err := sess.Download(ctx)
		if err != nil {
			return err
		}
		out = recipe.New(steps)

		t.log.Printf("transfer: download complete (op=%s endpoint=%s rows=%d)", op, s.Endpoint(), out.Len())
		return nil
	})
	if err != nil {
		return recipe.Recipe{}, err
	}
	return out, nil
}

// CheckConnection probes the controller, retrying with backoff when configured.
// A nil error means the controller answered.
func (t *Transfer) CheckConnection(ctx context.Context) error {
	op := t.newID()
	return t.run(ctx, op, "check", func(config.Settings, *device.Session) error {
		return nil
	})
}

// ---- internal ----

// run resolves settings, takes the endpoint slot, probes and then calls fn.
func (t *Transfer) run(ctx context.Context, op, name string, fn func(config.Settings, *device.Session) error) error {
	if err := ctx.Err(); err != nil {
		return t.fail(op, name, "", err)
	}

	s, err := t.provider.Settings()
	if err != nil {
		return t.fail(op, name, "", fault.Wrap(fault.Internal, err, "settings"))
	}
	endpoint := s.Endpoint()

	release, err := t.guard.acquire(ctx, endpoint)
	if err != nil {
		return t.fail(op, name, endpoint, err)
	}
	defer release()

	t.log.Printf("transfer: %s started (op=%s endpoint=%s)", name, op, endpoint)

	sess := device.NewSession(s, t.dial, t.codec, t.log)

	if err := t.probe(ctx, op, sess); err != nil {
		return t.fail(op, name, endpoint, err)
	}
	if err := fn(s, sess); err != nil {
		return t.fail(op, name, endpoint, err)
	}
	return nil
}

// probe checks connectivity. Every non-cancellation failure becomes ConnectionFailed.
func (t *Transfer) probe(ctx context.Context, op string, sess *device.Session) error {
	s := sess.Settings()

	err := withBackoff(ctx, s.ProbeRetry, t.sleep, func(attempt int) error {
		err := sess.CheckConnection(ctx)
		if err != nil && fault.KindOf(err) != fault.OperationCanceled {
			t.log.Printf("transfer: probe failed (op=%s endpoint=%s attempt=%d): %v", op, s.Endpoint(), attempt, err)
		}
		return err
	})
	if err == nil {
		return nil
	}
	if fault.KindOf(err) == fault.OperationCanceled {
		return err
	}
	return fault.Wrap(fault.ConnectionFailed, err, "controller not reachable at %s", s.Endpoint())
}

// fail converts err into a *fault.Error and logs it.
func (t *Transfer) fail(op, name, endpoint string, err error) error {
	fe := fault.From(err)
	if fe.Kind == fault.OperationCanceled && fe.Msg == "" {
		fe = fault.Wrap(fault.OperationCanceled, err, "%s canceled", name)
	}

	t.log.Printf("transfer: %s failed (op=%s endpoint=%s kind=%s): %v", name, op, endpoint, fe.Kind, fe)
	return fe
}
