package pms

import (
	"bytes"
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildFrame assembles a wire frame with a correct checksum from the 13
// data fields.
func buildFrame(fields [numFields]uint16) []byte {
	buf := make([]byte, 0, frameSize)
	buf = append(buf, syncFirst, syncSecond)
	for _, f := range fields {
		buf = binary.BigEndian.AppendUint16(buf, f)
	}
	var sum uint16
	for _, b := range buf {
		sum += uint16(b)
	}
	return binary.BigEndian.AppendUint16(buf, sum)
}

// emptyStream simulates a silent serial port: reads return promptly
// with no data, the way a port with a read timeout does.
type emptyStream struct{}

func (emptyStream) Read(p []byte) (int, error) { return 0, nil }

func TestReadFrame(t *testing.T) {
	frame := buildFrame([numFields]uint16{10, 25, 40, 11, 26, 41, 100, 80, 60, 40, 20, 10, 0})

	tests := []struct {
		name    string
		stream  []byte
		want    Frame
		wantErr error
	}{
		{
			name:   "aligned frame",
			stream: frame,
			want:   Frame{PM1: 10, PM25: 25, PM10: 40},
		},
		{
			name:   "garbage before frame",
			stream: append([]byte{0x00, 0xFF, 0x4D, 0x13}, frame...),
			want:   Frame{PM1: 10, PM25: 25, PM10: 40},
		},
		{
			name: "failed sync candidate resynchronizes",
			// 0x42 followed by a non-0x4D byte must not swallow the
			// real frame that follows.
			stream: append([]byte{0x42, 0x99, 0x13}, frame...),
			want:   Frame{PM1: 10, PM25: 25, PM10: 40},
		},
		{
			name: "repeated sync byte stays a candidate",
			// ...0x42 | 0x42 0x4D body...: the second 0x42 is the one
			// that pairs with 0x4D.
			stream: append([]byte{0x13, 0x42}, frame...),
			want:   Frame{PM1: 10, PM25: 25, PM10: 40},
		},
		{
			name:    "no sync before end of stream",
			stream:  bytes.Repeat([]byte{0x00, 0x4D, 0x37}, 40),
			wantErr: ErrFrameTimeout,
		},
		{
			name:    "stream ends mid body",
			stream:  frame[:12],
			wantErr: ErrFrameIncomplete,
		},
		{
			name:    "empty stream",
			stream:  nil,
			wantErr: ErrFrameTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReader(bytes.NewReader(tt.stream), time.Second, nil)
			got, err := r.ReadFrame()
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, Frame{}, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadFrame_ChecksumRejectsCorruptPayload(t *testing.T) {
	frame := buildFrame([numFields]uint16{10, 25, 40, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0})
	frame[5] ^= 0x01 // flip one payload bit

	r := NewReader(bytes.NewReader(frame), time.Second, nil)
	got, err := r.ReadFrame()
	require.ErrorIs(t, err, ErrChecksum)
	assert.Equal(t, Frame{}, got, "no field may be extracted from a corrupt frame")
}

func TestReadFrame_SilentSensorTimesOut(t *testing.T) {
	r := NewReader(emptyStream{}, 50*time.Millisecond, nil)

	start := time.Now()
	_, err := r.ReadFrame()
	elapsed := time.Since(start)

	require.ErrorIs(t, err, ErrFrameTimeout)
	assert.Less(t, elapsed, time.Second, "timeout must be bounded by the configured deadline")
}

func TestReadFrame_ConsecutiveFrames(t *testing.T) {
	first := buildFrame([numFields]uint16{1, 2, 3, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0})
	second := buildFrame([numFields]uint16{4, 5, 6, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0})
	r := NewReader(bytes.NewReader(append(first, second...)), time.Second, nil)

	got, err := r.ReadFrame()
	require.NoError(t, err)
	assert.Equal(t, Frame{PM1: 1, PM25: 2, PM10: 3}, got)

	got, err = r.ReadFrame()
	require.NoError(t, err)
	assert.Equal(t, Frame{PM1: 4, PM25: 5, PM10: 6}, got)
}

func TestSim(t *testing.T) {
	t.Run("produces frames", func(t *testing.T) {
		s := NewSim(1)
		for i := 0; i < 20; i++ {
			_, err := s.ReadFrame()
			require.NoError(t, err)
		}
	})

	t.Run("injects timeouts", func(t *testing.T) {
		s := NewSim(1)
		s.ErrorRate = 1
		_, err := s.ReadFrame()
		require.ErrorIs(t, err, ErrFrameTimeout)
	})
}
