package mdec

import "github.com/pkg/errors"

var (
	// ErrEndOfStream is returned when the bit cursor runs out of data before a field is complete.
	ErrEndOfStream = errors.New("mdec: end of stream")
	// ErrReadCorruption is returned for an unknown variable-length code or a coefficient index past 63.
	ErrReadCorruption = errors.New("mdec: read corruption")
	// ErrTooMuchEnergy is returned by the compressor when a code cannot be represented in the bitstream.
	ErrTooMuchEnergy = errors.New("mdec: too much energy")

	ErrInvalidHeader      = errors.New("mdec: invalid frame header")
	ErrUnsupportedVersion = errors.New("mdec: unsupported bitstream version")
	ErrInvalidDimensions  = errors.New("mdec: invalid frame dimensions")
	ErrQuantScaleMismatch = errors.New("mdec: quantization scale differs from frame header")
)
