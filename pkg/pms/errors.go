package pms

import "errors"

var (
	// ErrFrameTimeout means the sync sequence was not seen before the
	// read deadline. The sensor is silent, disconnected, or still
	// warming up.
	ErrFrameTimeout = errors.New("pms: no frame sync before deadline")
	// ErrFrameIncomplete means the stream delivered fewer body bytes
	// than a frame requires after a sync sequence was found.
	ErrFrameIncomplete = errors.New("pms: short frame body")
	// ErrChecksum means the trailing checksum does not match the frame
	// contents. The whole frame is rejected; no field is trusted.
	ErrChecksum = errors.New("pms: frame checksum mismatch")
)
