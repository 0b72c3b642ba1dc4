// internal/plcsim/server.go
package plcsim

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	"log"
	"net"
	"sync"

	"github.com/tbrandon/mbserver"
)

// Function codes and quantity limits served by the simulator.
const (
	fcReadHolding   = 0x03
	fcWriteSingle   = 0x06
	fcWriteMultiple = 0x10

	maxReadQty  = 125
	maxWriteQty = 123
)

// Server is a Modbus TCP front end for a Controller.
// Framing and connection handling come from mbserver; holding register
// function codes are routed to the controller so command writes run the
// state machine. Any unit id is answered.
type Server struct {
	ctrl  *Controller
	log   *log.Logger
	trace bool

	mb *mbserver.Server

	mu     sync.Mutex
	addr   string
	closed chan struct{}
	once   sync.Once
}

// NewServer creates a server for ctrl. A nil logger discards output.
func NewServer(ctrl *Controller, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	s := &Server{
		ctrl:   ctrl,
		log:    logger,
		mb:     mbserver.NewServer(),
		closed: make(chan struct{}),
	}

	s.mb.RegisterFunctionHandler(fcReadHolding, s.readHolding)
	s.mb.RegisterFunctionHandler(fcWriteSingle, s.writeSingle)
	s.mb.RegisterFunctionHandler(fcWriteMultiple, s.writeMultiple)
	return s
}

// SetTrace enables hex dumps of every request.
func (s *Server) SetTrace(on bool) { s.trace = on }

// Listen binds addr. Port 0 is resolved to a free port first, so Addr
// always reports where clients can connect.
func (s *Server) Listen(addr string) error {
	bound, err := resolvePort(addr)
	if err != nil {
		return err
	}
	if err := s.mb.ListenTCP(bound); err != nil {
		return err
	}

	s.mu.Lock()
	s.addr = bound
	s.mu.Unlock()
	s.log.Printf("plcsim: listening (addr=%s)", bound)
	return nil
}

// Addr returns the bound address, or "" before Listen.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Serve blocks until ctx is done or Close is called.
func (s *Server) Serve(ctx context.Context) error {
	if s.Addr() == "" {
		return errors.New("plcsim: Serve before Listen")
	}

	select {
	case <-ctx.Done():
		return s.Close()
	case <-s.closed:
		return nil
	}
}

// Close stops accepting connections. Safe to call more than once.
func (s *Server) Close() error {
	s.once.Do(func() {
		s.mb.Close()
		close(s.closed)
	})
	return nil
}

// ---- function handlers ----

func (s *Server) readHolding(_ *mbserver.Server, f mbserver.Framer) ([]byte, *mbserver.Exception) {
	data := s.request(f)
	if len(data) != 4 {
		return []byte{}, &mbserver.IllegalDataValue
	}
	addr := binary.BigEndian.Uint16(data[0:2])
	qty := binary.BigEndian.Uint16(data[2:4])
	if qty == 0 || qty > maxReadQty {
		return []byte{}, &mbserver.IllegalDataValue
	}

	regs, err := s.ctrl.Read(addr, qty)
	if err != nil {
		return []byte{}, &mbserver.IllegalDataAddress
	}

	out := make([]byte, 1+2*len(regs))
	out[0] = byte(2 * len(regs))
	for i, r := range regs {
		binary.BigEndian.PutUint16(out[1+2*i:], r)
	}
	return out, &mbserver.Success
}

func (s *Server) writeSingle(_ *mbserver.Server, f mbserver.Framer) ([]byte, *mbserver.Exception) {
	data := s.request(f)
	if len(data) != 4 {
		return []byte{}, &mbserver.IllegalDataValue
	}
	addr := binary.BigEndian.Uint16(data[0:2])
	value := binary.BigEndian.Uint16(data[2:4])

	if err := s.ctrl.Write(addr, []uint16{value}); err != nil {
		return []byte{}, &mbserver.IllegalDataAddress
	}
	return append([]byte(nil), data[:4]...), &mbserver.Success
}

func (s *Server) writeMultiple(_ *mbserver.Server, f mbserver.Framer) ([]byte, *mbserver.Exception) {
	data := s.request(f)
	if len(data) < 5 {
		return []byte{}, &mbserver.IllegalDataValue
	}
	addr := binary.BigEndian.Uint16(data[0:2])
	qty := binary.BigEndian.Uint16(data[2:4])
	byteCount := int(data[4])
	if qty == 0 || qty > maxWriteQty || byteCount != 2*int(qty) || len(data) != 5+byteCount {
		return []byte{}, &mbserver.IllegalDataValue
	}

	regs := make([]uint16, qty)
	for i := range regs {
		regs[i] = binary.BigEndian.Uint16(data[5+2*i:])
	}
	if err := s.ctrl.Write(addr, regs); err != nil {
		return []byte{}, &mbserver.IllegalDataAddress
	}
	return append([]byte(nil), data[:4]...), &mbserver.Success
}

func (s *Server) request(f mbserver.Framer) []byte {
	data := f.GetData()
	if s.trace {
		s.log.Printf("plcsim: rx fc=0x%02X data=%X", f.GetFunction(), data)
	}
	return data
}

// resolvePort replaces port 0 in addr with a port that is free right now.
func resolvePort(addr string) (string, error) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "", err
	}
	if port != "0" {
		return addr, nil
	}

	ln, err := net.Listen("tcp", net.JoinHostPort(host, "0"))
	if err != nil {
		return "", err
	}
	bound := ln.Addr().String()
	if err := ln.Close(); err != nil {
		return "", err
	}
	return bound, nil
}
