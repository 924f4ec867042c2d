// Package record implements the output record format shared by the
// logger and its host-side companions: a fixed-order comma-separated
// field list followed by a two-hex-digit XOR checksum. This line-level
// checksum is a separate integrity domain from the sensor frame
// checksum in package pms.
package record

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const fieldCount = 7

var (
	// ErrFieldCount means the line does not carry exactly seven data
	// fields plus the checksum.
	ErrFieldCount = errors.New("record: wrong field count")
	// ErrChecksum means the trailing checksum does not match the field
	// list.
	ErrChecksum = errors.New("record: checksum mismatch")
)

// Record is one emitted measurement: the quorum-averaged particulate
// values paired with an environmental sample. JSON tags follow the
// upload field naming.
type Record struct {
	PM1         int     `json:"pm1_0"`
	PM25        int     `json:"pm2_5"`
	PM10        int     `json:"pm10_0"`
	Temperature float64 `json:"temp_c"`
	Pressure    float64 `json:"press_pa"`
	Humidity    float64 `json:"humidity_pct"`
	Altitude    float64 `json:"alt_m"`
}

// Fields renders the fixed-order field list without the checksum:
// particulates as integers, temperature/humidity/altitude with one
// decimal, pressure with two.
func (r Record) Fields() string {
	return fmt.Sprintf("%d,%d,%d,%.1f,%.2f,%.1f,%.1f",
		r.PM1, r.PM25, r.PM10, r.Temperature, r.Pressure, r.Humidity, r.Altitude)
}

// Encode renders the full record line: the field list plus the checksum
// as two uppercase hex digits.
func (r Record) Encode() string {
	fields := r.Fields()
	return fmt.Sprintf("%s,%02X", fields, Checksum(fields))
}

// Checksum XORs every character of a rendered field list except the
// comma separators.
func Checksum(fields string) byte {
	var sum byte
	for i := 0; i < len(fields); i++ {
		if fields[i] != ',' {
			sum ^= fields[i]
		}
	}
	return sum
}

// Parse verifies and decodes a record line produced by Encode or by the
// logger's serial output. The checksum is validated before any field is
// interpreted.
func Parse(line string) (Record, error) {
	parts := strings.Split(strings.TrimSpace(line), ",")
	if len(parts) != fieldCount+1 {
		return Record{}, fmt.Errorf("%w: got %d fields, want %d", ErrFieldCount, len(parts), fieldCount+1)
	}

	received, err := strconv.ParseUint(parts[fieldCount], 16, 8)
	if err != nil {
		return Record{}, fmt.Errorf("record: malformed checksum %q: %w", parts[fieldCount], err)
	}
	fields := strings.Join(parts[:fieldCount], ",")
	if computed := Checksum(fields); byte(received) != computed {
		return Record{}, fmt.Errorf("%w: received %02X, computed %02X", ErrChecksum, received, computed)
	}

	var r Record
	if r.PM1, err = strconv.Atoi(parts[0]); err != nil {
		return Record{}, fmt.Errorf("record: bad pm1.0 field %q: %w", parts[0], err)
	}
	if r.PM25, err = strconv.Atoi(parts[1]); err != nil {
		return Record{}, fmt.Errorf("record: bad pm2.5 field %q: %w", parts[1], err)
	}
	if r.PM10, err = strconv.Atoi(parts[2]); err != nil {
		return Record{}, fmt.Errorf("record: bad pm10.0 field %q: %w", parts[2], err)
	}
	if r.Temperature, err = strconv.ParseFloat(parts[3], 64); err != nil {
		return Record{}, fmt.Errorf("record: bad temperature field %q: %w", parts[3], err)
	}
	if r.Pressure, err = strconv.ParseFloat(parts[4], 64); err != nil {
		return Record{}, fmt.Errorf("record: bad pressure field %q: %w", parts[4], err)
	}
	if r.Humidity, err = strconv.ParseFloat(parts[5], 64); err != nil {
		return Record{}, fmt.Errorf("record: bad humidity field %q: %w", parts[5], err)
	}
	if r.Altitude, err = strconv.ParseFloat(parts[6], 64); err != nil {
		return Record{}, fmt.Errorf("record: bad altitude field %q: %w", parts[6], err)
	}
	return r, nil
}
