// Package device defines how the reader talks to a position tracker and the
// session lifecycle around that conversation. Real hardware and the
// simulator both sit behind Transport.
package device

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// TX:0008 asks for 3-D positions of stray markers.
const (
	CmdInit   = "INIT:"
	CmdStart  = "TSTART:"
	CmdStop   = "TSTOP:"
	CmdTX     = "TX:0008"
	TXPrefix  = "TX:"
	ReplyOK   = "OK"
	replyFail = "ERROR"
)

var (
	ErrNotConnected   = errors.New("device: not connected")
	ErrAlreadyStarted = errors.New("device: tracking already started")
	ErrNotStarted     = errors.New("device: tracking not started")
	ErrCommandFailed  = errors.New("device: command rejected")
)

// Handle identifies an open device. Simulated transports ignore it.
type Handle struct {
	Name string
}

type Transport interface {
	Command(ctx context.Context, h Handle, cmd string) (string, error)
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, h Handle, cmd string) (string, error)

func (f TransportFunc) Command(ctx context.Context, h Handle, cmd string) (string, error) {
	return f(ctx, h, cmd)
}

// Session tracks connect/start/stop/close around a Transport.
type Session struct {
	mu        sync.Mutex
	transport Transport
	handle    Handle
	connected bool
	started   bool
}

func NewSession(t Transport, name string) *Session {
	return &Session{transport: t, handle: Handle{Name: name}}
}

func (s *Session) Handle() Handle { return s.handle }

func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.connected {
		return nil
	}
	if err := s.send(ctx, CmdInit); err != nil {
		return fmt.Errorf("connect %s: %w", s.handle.Name, err)
	}
	s.connected = true
	return nil
}

func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return ErrNotConnected
	}
	if s.started {
		return ErrAlreadyStarted
	}
	if err := s.send(ctx, CmdStart); err != nil {
		return fmt.Errorf("start tracking: %w", err)
	}
	s.started = true
	return nil
}

func (s *Session) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return ErrNotStarted
	}
	s.started = false
	if err := s.send(ctx, CmdStop); err != nil {
		return fmt.Errorf("stop tracking: %w", err)
	}
	return nil
}

// Close stops tracking if needed and releases the transport when it is an
// io.Closer-like value.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	started := s.started
	s.mu.Unlock()

	var err error
	if started {
		err = s.Stop(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
	if c, ok := s.transport.(interface{ Close() error }); ok {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// Command forwards cmd while tracking is running.
func (s *Session) Command(ctx context.Context, cmd string) (string, error) {
	s.mu.Lock()
	started := s.started
	s.mu.Unlock()
	if !started {
		return "", ErrNotStarted
	}
	return s.transport.Command(ctx, s.handle, cmd)
}

// send must be called with mu held.
func (s *Session) send(ctx context.Context, cmd string) error {
	reply, err := s.transport.Command(ctx, s.handle, cmd)
	if err != nil {
		return err
	}
	if len(reply) >= len(replyFail) && reply[:len(replyFail)] == replyFail {
		return fmt.Errorf("%w: %s -> %s", ErrCommandFailed, cmd, reply)
	}
	return nil
}
