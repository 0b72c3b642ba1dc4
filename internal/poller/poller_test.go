// internal/poller/poller_test.go
package poller

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tamzrod/recipe-sync/internal/config"
	"github.com/tamzrod/recipe-sync/internal/control"
	"github.com/tamzrod/recipe-sync/internal/device"
)

type fakeClient struct {
	regs   []uint16
	fail   bool
	closed bool
	reads  int
}

func (f *fakeClient) ReadHoldingRegisters(addr, qty uint16) ([]uint16, error) {
	f.reads++
	if f.fail {
		return nil, errors.New("fail fc3")
	}
	return f.regs, nil
}

func (f *fakeClient) WriteRegisters(addr uint16, regs []uint16) error {
	return errors.New("poller must not write")
}

func (f *fakeClient) WriteRegister(addr, value uint16) error {
	return errors.New("poller must not write")
}

func (f *fakeClient) Close() error {
	f.closed = true
	return nil
}

type fakeDialer struct {
	clients []*fakeClient
	dials   int
	fail    bool
}

func (d *fakeDialer) dial(ctx context.Context, _ config.Settings) (device.Client, error) {
	d.dials++
	if d.fail {
		return nil, errors.New("connection refused")
	}
	c := d.clients[0]
	if len(d.clients) > 1 {
		d.clients = d.clients[1:]
	}
	return c, nil
}

func testConfig() Config {
	return Config{
		Settings: config.Settings{Host: "plc", Port: 502, Control: 40},
		Interval: time.Second,
	}
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(Config{}, (&fakeDialer{}).dial); err == nil {
		t.Fatalf("expected error for zero interval")
	}
	if _, err := New(testConfig(), nil); err == nil {
		t.Fatalf("expected error for nil dialer")
	}
}

func TestPollOnce_Success(t *testing.T) {
	cli := &fakeClient{regs: []uint16{control.StateWritingBlocked, control.CommandNotActive, 12}}
	d := &fakeDialer{clients: []*fakeClient{cli}}

	p, err := New(testConfig(), d.dial)
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}

	for i := 0; i < 3; i++ {
		snap := p.PollOnce(context.Background())
		if snap.Err != nil {
			t.Fatalf("PollOnce err=%v", snap.Err)
		}
		if snap.Block.State != control.StateWritingBlocked || snap.Block.RowCount != 12 {
			t.Fatalf("unexpected block %+v", snap.Block)
		}
		if snap.Endpoint != "plc:502" {
			t.Fatalf("endpoint=%q", snap.Endpoint)
		}
	}

	// connection reused while healthy
	if d.dials != 1 {
		t.Fatalf("expected 1 dial, got %d", d.dials)
	}
	if cli.reads != 3 {
		t.Fatalf("expected 3 reads, got %d", cli.reads)
	}
}

func TestPollOnce_FailureDropsClient(t *testing.T) {
	bad := &fakeClient{fail: true}
	good := &fakeClient{regs: []uint16{control.StateIdle, 0, 0}}
	d := &fakeDialer{clients: []*fakeClient{bad, good}}

	p, err := New(testConfig(), d.dial)
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}

	if snap := p.PollOnce(context.Background()); snap.Err == nil {
		t.Fatalf("expected error")
	}
	if !bad.closed {
		t.Fatalf("failed client must be closed")
	}

	snap := p.PollOnce(context.Background())
	if snap.Err != nil {
		t.Fatalf("reconnect poll err=%v", snap.Err)
	}
	if d.dials != 2 {
		t.Fatalf("expected redial, dials=%d", d.dials)
	}
}

func TestPollOnce_DialFailure(t *testing.T) {
	d := &fakeDialer{fail: true}
	p, _ := New(testConfig(), d.dial)

	snap := p.PollOnce(context.Background())
	if snap.Err == nil {
		t.Fatalf("expected dial error")
	}
	if snap.Block != (control.Block{}) {
		t.Fatalf("block must be zero on failure, got %+v", snap.Block)
	}
}

func TestChanged(t *testing.T) {
	idle := Snapshot{Block: control.Block{State: control.StateIdle, Command: 1, RowCount: 3}}
	idleCmd := Snapshot{Block: control.Block{State: control.StateIdle, Command: 2, RowCount: 3}}
	blocked := Snapshot{Block: control.Block{State: control.StateWritingBlocked, RowCount: 3}}
	down := Snapshot{Err: errors.New("timeout")}

	cases := []struct {
		name       string
		prev, next Snapshot
		want       bool
	}{
		{"same", idle, idle, false},
		{"command only", idle, idleCmd, false},
		{"state", idle, blocked, true},
		{"lost", idle, down, true},
		{"recovered", down, idle, true},
		{"still down", down, Snapshot{Err: errors.New("timeout")}, false},
	}
	for _, tc := range cases {
		if got := Changed(tc.prev, tc.next); got != tc.want {
			t.Fatalf("%s: got=%v want=%v", tc.name, got, tc.want)
		}
	}
}

func TestRun_EmitsAndCloses(t *testing.T) {
	cli := &fakeClient{regs: []uint16{control.StateIdle, 0, 0}}
	d := &fakeDialer{clients: []*fakeClient{cli}}

	cfg := testConfig()
	cfg.Interval = time.Millisecond
	p, _ := New(cfg, d.dial)

	ctx, cancel := context.WithCancel(context.Background())
	out := make(chan Snapshot)
	done := make(chan struct{})
	go func() {
		p.Run(ctx, out)
		close(done)
	}()

	for i := 0; i < 2; i++ {
		select {
		case snap := <-out:
			if snap.Err != nil {
				t.Fatalf("snapshot err=%v", snap.Err)
			}
		case <-time.After(time.Second):
			t.Fatalf("no snapshot")
		}
	}

	cancel()
	<-done
	if !cli.closed {
		t.Fatalf("Run must close the connection on exit")
	}
}
