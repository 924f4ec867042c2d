package stream

import (
	"fmt"
	"path"
	"sort"
	"time"

	"go.bug.st/serial"
)

// DefaultBaudRate matches the PMS5003 and the logger's console output.
const DefaultBaudRate = 9600

// Serial is an exclusively owned serial connection. Nothing else may
// touch the port while a reader holds it.
type Serial struct {
	port serial.Port
	name string
}

// Open opens the named port. A zero baud rate selects DefaultBaudRate.
// The port starts in blocking mode; callers that poll against their own
// deadlines should set a poll timeout first.
func Open(name string, baudRate int) (*Serial, error) {
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}

	port, err := serial.Open(name, &serial.Mode{BaudRate: baudRate})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", name, err)
	}
	return &Serial{port: port, name: name}, nil
}

// SetPollTimeout bounds how long a single Read blocks. After the
// timeout Read returns (0, nil), letting the caller check its own
// deadline between polls.
func (s *Serial) SetPollTimeout(d time.Duration) error {
	if err := s.port.SetReadTimeout(d); err != nil {
		return fmt.Errorf("failed to set read timeout on %s: %w", s.name, err)
	}
	return nil
}

func (s *Serial) Read(p []byte) (int, error) { return s.port.Read(p) }
func (s *Serial) Write(p []byte) (int, error) { return s.port.Write(p) }
func (s *Serial) Close() error { return s.port.Close() }

// Name returns the port name the connection was opened with.
func (s *Serial) Name() string { return s.name }

// Ports returns the available serial port names, sorted.
func Ports() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}
	sort.Strings(ports)
	return ports, nil
}

// Detect returns the first available port matching the shell glob
// pattern (e.g. "/dev/cu.usbmodem*"), or fallback when nothing matches.
func Detect(pattern, fallback string) string {
	if pattern == "" {
		return fallback
	}
	ports, err := serial.GetPortsList()
	if err != nil {
		return fallback
	}
	sort.Strings(ports)
	for _, p := range ports {
		if ok, err := path.Match(pattern, p); err == nil && ok {
			return p
		}
	}
	return fallback
}
