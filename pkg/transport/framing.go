package transport

import (
	"bufio"
	"encoding/binary"
	"errors"
	"io"
)

// Framing constants.
const (
	// DefaultMaxMessageSize is the maximum frame payload size (64KB).
	DefaultMaxMessageSize = 64 * 1024

	// LengthPrefixSize is the size of the length field in ModePrefix.
	LengthPrefixSize = 4

	// streamDelimiter terminates every ModeStream frame. JSON payloads
	// are UTF-8 and can never contain this byte.
	streamDelimiter = 0x00
)

// Framing errors.
var (
	// ErrFrameTooLarge indicates a frame exceeds the maximum message size.
	ErrFrameTooLarge = errors.New("frame exceeds maximum message size")

	// ErrFrameTruncated indicates the connection closed mid-frame.
	ErrFrameTruncated = errors.New("frame truncated")

	// ErrPayloadEmpty indicates an attempt to write an empty payload
	// as a regular frame. Heartbeats use WriteHeartbeat.
	ErrPayloadEmpty = errors.New("payload is empty")
)

// Mode selects the byte-stream framing of a listener or connection.
type Mode uint8

const (
	// ModeStream frames envelopes with a trailing 0x00 sentinel byte.
	ModeStream Mode = iota

	// ModePrefix frames envelopes with a 4-byte big-endian length.
	ModePrefix
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeStream:
		return "stream"
	case ModePrefix:
		return "prefix"
	default:
		return "unknown"
	}
}

// Framer reads and writes Knut frames on one transport binding.
//
// ReadFrame returns an empty payload with a nil error when a heartbeat
// frame was received. Framers are not safe for concurrent use; the
// session serializes access.
type Framer interface {
	// ReadFrame reads one complete frame payload.
	ReadFrame() ([]byte, error)

	// WriteFrame writes one payload as a complete frame.
	WriteFrame(payload []byte) error

	// WriteHeartbeat writes the binding's liveness frame.
	WriteHeartbeat() error
}

// NewFramer creates a Framer for the given mode with the given maximum
// payload size. A maxSize of 0 uses DefaultMaxMessageSize.
func NewFramer(rw io.ReadWriter, mode Mode, maxSize int) Framer {
	if maxSize <= 0 {
		maxSize = DefaultMaxMessageSize
	}

	switch mode {
	case ModePrefix:
		return &PrefixFramer{rw: rw, maxSize: maxSize}
	default:
		return &StreamFramer{r: bufio.NewReader(rw), w: rw, maxSize: maxSize}
	}
}

// StreamFramer implements the null-terminated stream binding.
type StreamFramer struct {
	r       *bufio.Reader
	w       io.Writer
	maxSize int
}

// NewStreamFramer creates a StreamFramer with the default maximum size.
func NewStreamFramer(rw io.ReadWriter) *StreamFramer {
	return &StreamFramer{r: bufio.NewReader(rw), w: rw, maxSize: DefaultMaxMessageSize}
}

// ReadFrame reads bytes up to the next 0x00 sentinel. A sentinel with
// no preceding bytes is the heartbeat, returned as an empty payload.
func (f *StreamFramer) ReadFrame() ([]byte, error) {
	var payload []byte

	for {
		b, err := f.r.ReadByte()
		if err != nil {
			if err == io.EOF && len(payload) > 0 {
				return nil, ErrFrameTruncated
			}
			return nil, err
		}

		if b == streamDelimiter {
			return payload, nil
		}

		if len(payload) >= f.maxSize {
			return nil, ErrFrameTooLarge
		}
		payload = append(payload, b)
	}
}

// WriteFrame writes the payload followed by the sentinel byte.
func (f *StreamFramer) WriteFrame(payload []byte) error {
	if len(payload) == 0 {
		return ErrPayloadEmpty
	}
	if len(payload) > f.maxSize {
		return ErrFrameTooLarge
	}

	frame := make([]byte, 0, len(payload)+1)
	frame = append(frame, payload...)
	frame = append(frame, streamDelimiter)

	_, err := f.w.Write(frame)
	return err
}

// WriteHeartbeat writes a bare sentinel byte.
func (f *StreamFramer) WriteHeartbeat() error {
	_, err := f.w.Write([]byte{streamDelimiter})
	return err
}

// PrefixFramer implements the 4-byte big-endian length-prefixed binding.
type PrefixFramer struct {
	rw      io.ReadWriter
	maxSize int
}

// NewPrefixFramer creates a PrefixFramer with the default maximum size.
func NewPrefixFramer(rw io.ReadWriter) *PrefixFramer {
	return &PrefixFramer{rw: rw, maxSize: DefaultMaxMessageSize}
}

// ReadFrame reads the length prefix and then the payload. A zero
// length is the heartbeat, returned as an empty payload.
func (f *PrefixFramer) ReadFrame() ([]byte, error) {
	var lengthBuf [LengthPrefixSize]byte
	if _, err := io.ReadFull(f.rw, lengthBuf[:]); err != nil {
		if err == io.ErrUnexpectedEOF {
			return nil, ErrFrameTruncated
		}
		return nil, err
	}

	length := binary.BigEndian.Uint32(lengthBuf[:])
	if length == 0 {
		return nil, nil
	}
	if length > uint32(f.maxSize) {
		return nil, ErrFrameTooLarge
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(f.rw, payload); err != nil {
		return nil, ErrFrameTruncated
	}
	return payload, nil
}

// WriteFrame writes the length prefix followed by the payload.
func (f *PrefixFramer) WriteFrame(payload []byte) error {
	if len(payload) == 0 {
		return ErrPayloadEmpty
	}
	if len(payload) > f.maxSize {
		return ErrFrameTooLarge
	}

	frame := make([]byte, LengthPrefixSize+len(payload))
	binary.BigEndian.PutUint32(frame[:LengthPrefixSize], uint32(len(payload)))
	copy(frame[LengthPrefixSize:], payload)

	_, err := f.rw.Write(frame)
	return err
}

// WriteHeartbeat writes a zero-length prefix.
func (f *PrefixFramer) WriteHeartbeat() error {
	var lengthBuf [LengthPrefixSize]byte
	_, err := f.rw.Write(lengthBuf[:])
	return err
}
