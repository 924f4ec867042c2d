package pms

import (
	"encoding/binary"
	"fmt"
)

// Wire format of a PMS5003-class frame: two sync bytes (0x42 0x4D),
// fourteen big-endian uint16 fields of which the first three are the
// CF=1 mass concentrations, and a trailing big-endian uint16 checksum
// equal to the arithmetic sum of all preceding bytes mod 65536.
const (
	syncFirst  = 0x42
	syncSecond = 0x4D

	frameSize = 32            // full frame including the sync bytes
	bodySize  = frameSize - 2 // bytes following the sync sequence
	dataSize  = bodySize - 2  // body bytes covered by the checksum
	numFields = dataSize / 2
)

// Frame holds the particulate mass concentrations decoded from one
// validated sensor frame, in µg/m³ under CF=1 calibration. Only the
// first three wire fields are consumed; the remainder (atmospheric
// values and particle counts) are validated by the checksum but not
// extracted.
type Frame struct {
	PM1  uint16 // PM1.0
	PM25 uint16 // PM2.5
	PM10 uint16 // PM10.0
}

// decodeBody interprets the 30 bytes that follow the sync sequence.
// The checksum covers both sync bytes and the first 28 body bytes.
func decodeBody(body []byte) (Frame, error) {
	sum := uint16(syncFirst) + uint16(syncSecond)
	for _, b := range body[:dataSize] {
		sum += uint16(b)
	}
	if got := binary.BigEndian.Uint16(body[dataSize:bodySize]); got != sum {
		return Frame{}, fmt.Errorf("%w: received 0x%04X, computed 0x%04X", ErrChecksum, got, sum)
	}
	return Frame{
		PM1:  binary.BigEndian.Uint16(body[0:2]),
		PM25: binary.BigEndian.Uint16(body[2:4]),
		PM10: binary.BigEndian.Uint16(body[4:6]),
	}, nil
}
