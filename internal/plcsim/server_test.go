// internal/plcsim/server_test.go
package plcsim

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/goburrow/modbus"
	"gotest.tools/v3/assert"

	"github.com/tamzrod/recipe-sync/internal/config"
	"github.com/tamzrod/recipe-sync/internal/control"
)

func settingsFor(controlAddr uint16) config.Settings {
	return config.Settings{
		Transport: config.TransportTCP,
		Host:      "127.0.0.1",
		Port:      502,
		UnitID:    1,
		Timeout:   time.Second,
		Control:   controlAddr,
	}
}

// startServer runs a server on an ephemeral port until the test ends.
func startServer(t *testing.T, ctrl *Controller) string {
	t.Helper()

	srv := NewServer(ctrl, nil)
	assert.NilError(t, srv.Listen("127.0.0.1:0"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NilError(t, err)
		case <-time.After(2 * time.Second):
			t.Errorf("server did not stop")
		}
	})
	return srv.Addr()
}

func dialRaw(t *testing.T, addr string) modbus.Client {
	t.Helper()

	h := modbus.NewTCPClientHandler(addr)
	h.Timeout = time.Second
	h.SlaveId = 1
	assert.NilError(t, h.Connect())
	t.Cleanup(func() { _ = h.Close() })
	return modbus.NewClient(h)
}

// sendFrame writes one Modbus TCP request for unit 1 and returns the reply.
// The pdu is sent as is, so limits the goburrow client enforces can be crossed.
func sendFrame(t *testing.T, addr string, pdu []byte) []byte {
	t.Helper()

	conn, err := net.DialTimeout("tcp", addr, time.Second)
	assert.NilError(t, err)
	defer conn.Close()
	assert.NilError(t, conn.SetDeadline(time.Now().Add(2*time.Second)))

	adu := make([]byte, 7+len(pdu))
	binary.BigEndian.PutUint16(adu[0:2], 0x0101)
	binary.BigEndian.PutUint16(adu[4:6], uint16(1+len(pdu)))
	adu[6] = 1
	copy(adu[7:], pdu)
	_, err = conn.Write(adu)
	assert.NilError(t, err)

	// exception reply: MBAP(7) + fc + code
	reply := make([]byte, 9)
	_, err = io.ReadFull(conn, reply)
	assert.NilError(t, err)
	assert.Equal(t, binary.BigEndian.Uint16(reply[0:2]), uint16(0x0101))
	return reply
}

func TestServer_ReadWriteHolding(t *testing.T) {
	ctrl := NewController(base, nil)
	cli := dialRaw(t, startServer(t, ctrl))

	_, err := cli.WriteMultipleRegisters(300, 3, []byte{0, 1, 0xFF, 0xFE, 0x12, 0x34})
	assert.NilError(t, err)

	b, err := cli.ReadHoldingRegisters(300, 3)
	assert.NilError(t, err)
	assert.DeepEqual(t, b, []byte{0, 1, 0xFF, 0xFE, 0x12, 0x34})

	regs, _ := ctrl.Read(300, 3)
	assert.DeepEqual(t, regs, []uint16{1, 0xFFFE, 0x1234})
}

func TestServer_SingleWriteDrivesHandshake(t *testing.T) {
	ctrl := NewController(base, nil)
	cli := dialRaw(t, startServer(t, ctrl))

	_, err := cli.WriteSingleRegister(base+control.SlotCommand, control.CommandRequest)
	assert.NilError(t, err)

	b, err := cli.ReadHoldingRegisters(base+control.SlotState, 1)
	assert.NilError(t, err)
	assert.DeepEqual(t, b, []byte{0, byte(control.StateWritingAllowed)})
}

func TestServer_Exceptions(t *testing.T) {
	ctrl := NewController(base, nil)
	cli := dialRaw(t, startServer(t, ctrl))

	cases := []struct {
		name string
		call func() error
		code byte
	}{
		{"address out of range", func() error {
			_, err := cli.ReadHoldingRegisters(65530, 10)
			return err
		}, modbus.ExceptionCodeIllegalDataAddress},
		{"write out of range", func() error {
			_, err := cli.WriteMultipleRegisters(65535, 2, []byte{0, 1, 0, 2})
			return err
		}, modbus.ExceptionCodeIllegalDataAddress},
		{"unsupported function", func() error {
			_, err := cli.ReadInputRegisters(0, 1)
			return err
		}, modbus.ExceptionCodeIllegalFunction},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.call()

			var me *modbus.ModbusError
			assert.Assert(t, errors.As(err, &me), "expected modbus exception, got %v", err)
			assert.Equal(t, me.ExceptionCode, tc.code)
		})
	}
}

func TestServer_QuantityLimits(t *testing.T) {
	ctrl := NewController(base, nil)
	addr := startServer(t, ctrl)

	read := []byte{fcReadHolding, 0, 0, 0, maxReadQty + 1}
	reply := sendFrame(t, addr, read)
	assert.Equal(t, reply[7], byte(fcReadHolding|0x80))
	assert.Equal(t, reply[8], byte(modbus.ExceptionCodeIllegalDataValue))

	qty := maxWriteQty + 1
	write := make([]byte, 6+2*qty)
	write[0] = fcWriteMultiple
	binary.BigEndian.PutUint16(write[1:3], 300)
	binary.BigEndian.PutUint16(write[3:5], uint16(qty))
	write[5] = byte(2 * qty)
	for i := 0; i < qty; i++ {
		binary.BigEndian.PutUint16(write[6+2*i:], 0xAAAA)
	}
	reply = sendFrame(t, addr, write)
	assert.Equal(t, reply[7], byte(fcWriteMultiple|0x80))
	assert.Equal(t, reply[8], byte(modbus.ExceptionCodeIllegalDataValue))

	// rejected writes leave memory untouched
	regs, _ := ctrl.Read(300, 1)
	assert.DeepEqual(t, regs, []uint16{0})

	zero := []byte{fcReadHolding, 0, 0, 0, 0}
	reply = sendFrame(t, addr, zero)
	assert.Equal(t, reply[8], byte(modbus.ExceptionCodeIllegalDataValue))
}

func TestServer_CloseStopsListening(t *testing.T) {
	ctrl := NewController(base, nil)
	srv := NewServer(ctrl, nil)
	assert.NilError(t, srv.Listen("127.0.0.1:0"))

	done := make(chan error, 1)
	go func() { done <- srv.Serve(context.Background()) }()

	cli := dialRaw(t, srv.Addr())
	_, err := cli.ReadHoldingRegisters(base, 3)
	assert.NilError(t, err)

	assert.NilError(t, srv.Close())
	assert.NilError(t, srv.Close())
	select {
	case err := <-done:
		assert.NilError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatalf("Serve did not return after Close")
	}

	_, err = net.DialTimeout("tcp", srv.Addr(), 200*time.Millisecond)
	assert.Assert(t, err != nil, "listener still accepting after Close")
}

func TestServer_ServeBeforeListen(t *testing.T) {
	srv := NewServer(NewController(base, nil), nil)
	assert.ErrorContains(t, srv.Serve(context.Background()), "Serve before Listen")
}
