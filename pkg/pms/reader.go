package pms

import (
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultTimeout is the per-frame read deadline. A healthy PMS5003
	// emits a frame roughly once a second, so two seconds covers one
	// missed emission.
	DefaultTimeout = 2 * time.Second

	defaultPoll = 10 * time.Millisecond
)

// Stream is the byte transport to the sensor. Read may return (0, nil)
// when no byte has arrived yet; serial ports opened with a short read
// timeout behave this way. The reader polls the stream and checks its
// own wall-clock deadline between reads.
type Stream interface {
	io.Reader
}

// Reader extracts validated frames from a byte stream. It owns the
// stream for the duration of ReadFrame; bytes consumed while hunting
// for the sync sequence are never replayed.
type Reader struct {
	stream  Stream
	timeout time.Duration
	poll    time.Duration
	log     *zap.Logger
}

// NewReader creates a frame reader over s. A non-positive timeout
// selects DefaultTimeout; a nil logger disables logging.
func NewReader(s Stream, timeout time.Duration, log *zap.Logger) *Reader {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Reader{
		stream:  s,
		timeout: timeout,
		poll:    defaultPoll,
		log:     log,
	}
}

// ReadFrame consumes bytes until one validated frame is decoded or the
// deadline passes. Failures are ErrFrameTimeout (sync never seen),
// ErrFrameIncomplete (stream underrun after sync) or ErrChecksum
// (corrupted payload); all of them leave the stream positioned after
// the bytes already consumed.
func (r *Reader) ReadFrame() (Frame, error) {
	deadline := time.Now().Add(r.timeout)

	if err := r.scanSync(deadline); err != nil {
		return Frame{}, err
	}

	var body [bodySize]byte
	if err := r.readFull(body[:], deadline); err != nil {
		return Frame{}, err
	}

	f, err := decodeBody(body[:])
	if err != nil {
		return Frame{}, err
	}
	r.log.Debug("frame accepted",
		zap.Uint16("pm1_0", f.PM1),
		zap.Uint16("pm2_5", f.PM25),
		zap.Uint16("pm10_0", f.PM10),
	)
	return f, nil
}

// scanSync consumes bytes until 0x42 0x4D is seen. When the byte after
// a candidate 0x42 is itself 0x42, that byte becomes the new candidate;
// scanning always continues from the position after the failed match
// since consumed bytes cannot be replayed.
func (r *Reader) scanSync(deadline time.Time) error {
	for {
		b, err := r.readByte(deadline)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrFrameTimeout, err)
		}
		if b != syncFirst {
			continue
		}
		for b == syncFirst {
			b, err = r.readByte(deadline)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrFrameTimeout, err)
			}
			if b == syncSecond {
				return nil
			}
		}
	}
}

func (r *Reader) readFull(p []byte, deadline time.Time) error {
	for i := range p {
		b, err := r.readByte(deadline)
		if err != nil {
			return fmt.Errorf("%w: %d of %d bytes after sync (%v)", ErrFrameIncomplete, i, len(p), err)
		}
		p[i] = b
	}
	return nil
}

// readByte polls the stream for a single byte until the deadline.
func (r *Reader) readByte(deadline time.Time) (byte, error) {
	var buf [1]byte
	for {
		n, err := r.stream.Read(buf[:])
		if n > 0 {
			return buf[0], nil
		}
		if err != nil {
			return 0, err
		}
		if !time.Now().Before(deadline) {
			return 0, errDeadline
		}
		time.Sleep(r.poll)
	}
}

var errDeadline = errors.New("deadline exceeded")
