package device

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	serial "go.bug.st/serial"
)

var ErrReadTimeout = errors.New("device: serial read timeout")

// SerialTransport speaks the tracker's ASCII command set over a serial
// port. Commands and replies are terminated by a carriage return.
type SerialTransport struct {
	mu      sync.Mutex
	port    serial.Port
	buf     []byte // bytes read past the last reply
	dev     string
	baud    int
	timeout time.Duration
}

// OpenSerial opens dev at the given baud rate.
func OpenSerial(dev string, baud int, timeout time.Duration) (*SerialTransport, error) {
	p, err := serial.Open(dev, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial %s: %w", dev, err)
	}
	if err := p.SetReadTimeout(timeout); err != nil {
		p.Close()
		return nil, fmt.Errorf("set read timeout on %s: %w", dev, err)
	}
	t := newSerialTransport(p, dev, timeout)
	t.baud = baud
	return t, nil
}

func newSerialTransport(p serial.Port, dev string, timeout time.Duration) *SerialTransport {
	return &SerialTransport{port: p, dev: dev, timeout: timeout}
}

// Ports lists serial ports visible to the OS.
func Ports() ([]string, error) {
	return serial.GetPortsList()
}

func (s *SerialTransport) Command(ctx context.Context, _ Handle, cmd string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.port == nil {
		return "", errors.New("serial port not open")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if _, err := s.port.Write([]byte(cmd + "\r")); err != nil {
		return "", fmt.Errorf("write %q to %s: %w", cmd, s.dev, err)
	}

	reply, err := s.readReply(ctx)
	if err != nil {
		return "", fmt.Errorf("read reply to %q: %w", cmd, err)
	}
	return reply, nil
}

// readReply collects bytes up to the next carriage return. The port's read
// timeout bounds each read and an empty read means it expired; the context
// is checked between reads.
func (s *SerialTransport) readReply(ctx context.Context) (string, error) {
	chunk := make([]byte, 64)
	for {
		if i := bytes.IndexByte(s.buf, '\r'); i >= 0 {
			reply := string(s.buf[:i])
			s.buf = s.buf[i+1:]
			return reply, nil
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}
		n, err := s.port.Read(chunk)
		s.buf = append(s.buf, chunk[:n]...)
		if err != nil {
			return "", err
		}
		if n == 0 {
			s.buf = s.buf[:0]
			return "", fmt.Errorf("%w after %v", ErrReadTimeout, s.timeout)
		}
	}
}

func (s *SerialTransport) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.port == nil {
		return nil
	}
	err := s.port.Close()
	s.port = nil
	return err
}
