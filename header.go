package mdec

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

const (
	// HeaderSize is the byte length of a frame header.
	HeaderSize = 8
	// Magic is the second header field of every STR frame.
	Magic = 0x3800
)

// FrameHeader starts every STR frame. All fields are little-endian 16-bit values.
type FrameHeader struct {
	// RunLengthCodeCount is half the number of MDEC codes in the frame rounded up to a multiple of 32.
	// Decoders do not need it.
	RunLengthCodeCount uint16
	Magic              uint16
	QuantScale         uint16
	Version            uint16
}

// ParseHeader reads and validates a frame header.
func ParseHeader(data []byte) (FrameHeader, error) {
	var h FrameHeader

	if len(data) < HeaderSize {
		return h, errors.Wrapf(ErrInvalidHeader, "%d bytes", len(data))
	}

	h.RunLengthCodeCount = binary.LittleEndian.Uint16(data[0:])
	h.Magic = binary.LittleEndian.Uint16(data[2:])
	h.QuantScale = binary.LittleEndian.Uint16(data[4:])
	h.Version = binary.LittleEndian.Uint16(data[6:])

	if h.Magic != Magic {
		return h, errors.Wrapf(ErrInvalidHeader, "magic 0x%04x", h.Magic)
	}
	if h.QuantScale > maxRun {
		return h, errors.Wrapf(ErrInvalidHeader, "quantization scale %d", h.QuantScale)
	}

	return h, nil
}

// IdentifyVersion returns the version a frame's header declares.
func IdentifyVersion(data []byte) (Version, error) {
	h, err := ParseHeader(data)
	if err != nil {
		return nil, err
	}

	return VersionByTag(h.Version)
}

// Bytes encodes the header.
func (h FrameHeader) Bytes() []byte {
	b := make([]byte, HeaderSize)
	h.put(b)

	return b
}

func (h FrameHeader) put(b []byte) {
	binary.LittleEndian.PutUint16(b[0:], h.RunLengthCodeCount)
	binary.LittleEndian.PutUint16(b[2:], h.Magic)
	binary.LittleEndian.PutUint16(b[4:], h.QuantScale)
	binary.LittleEndian.PutUint16(b[6:], h.Version)
}

// runLengthCodeCount computes the header field for a frame of codes MDEC codes.
func runLengthCodeCount(codes int) uint16 {
	half := (codes + 1) / 2

	return uint16((half + 31) &^ 31)
}

// isFrameHeader reports whether data starts with a header of a known version.
func isFrameHeader(data []byte) bool {
	if len(data) < HeaderSize {
		return false
	}

	if binary.LittleEndian.Uint16(data[2:]) != Magic || binary.LittleEndian.Uint16(data[4:]) > maxRun {
		return false
	}

	tag := binary.LittleEndian.Uint16(data[6:])

	return tag >= 1 && tag <= 3
}
