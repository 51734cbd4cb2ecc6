package mdec

import (
	"io"
	"time"

	"github.com/pkg/errors"
)

// DefaultFramerate is the frame rate of most STR videos.
const DefaultFramerate = 15.0

// FrameFunc callback function.
type FrameFunc func(stream *Stream, frame *Frame)

// Stream is a high-level interface that decodes a sequence of demuxed frames of one video.
//
// Frames are read from a Buffer one after another. Each frame must start with its FrameHeader
// at an even offset; padding between frames (sector slack, zero fill) is skipped.
//
// With Stream you have two options to decode video:
//
// 1. Decode() and just hand over the delta time since the last call.
// It will decode everything needed and call your callback (specified through SetFrameCallback()) any number of times.
//
// 2. Use DecodeFrame() to decode exactly one frame at a time.
type Stream struct {
	buf *Buffer
	dec *Decoder

	width  int
	height int
	strict bool

	time          float64
	frameTime     float64
	frameRate     float64
	framesDecoded int

	loop     bool
	hasEnded bool

	frameCallback FrameFunc
}

// NewStream creates a stream of width x height frames reading from r.
func NewStream(r io.Reader, width, height int) (*Stream, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.Wrapf(ErrInvalidDimensions, "%dx%d", width, height)
	}

	buf, err := NewBuffer(r)
	if err != nil {
		return nil, err
	}

	buf.SetLoadCallback(buf.LoadReaderCallback)

	return NewStreamBuffer(buf, width, height)
}

// NewStreamBuffer creates a stream over an existing buffer, e.g. one filled through Buffer.Write().
func NewStreamBuffer(buf *Buffer, width, height int) (*Stream, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.Wrapf(ErrInvalidDimensions, "%dx%d", width, height)
	}

	if !buf.findFrameHeader() {
		return nil, errors.Wrap(ErrInvalidHeader, "no frame found")
	}

	s := &Stream{}
	s.buf = buf
	s.width = width
	s.height = height
	s.frameRate = DefaultFramerate

	return s, nil
}

// Buffer returns the stream's buffer.
func (s *Stream) Buffer() *Buffer {
	return s.buf
}

// Version returns the version of the last decoded frame, nil before the first one.
func (s *Stream) Version() Version {
	if s.dec == nil {
		return nil
	}

	return s.dec.Version()
}

// Width returns the display width.
func (s *Stream) Width() int {
	return s.width
}

// Height returns the display height.
func (s *Stream) Height() int {
	return s.height
}

// Framerate returns the frame rate in frames per second.
func (s *Stream) Framerate() float64 {
	return s.frameRate
}

// SetFramerate sets the frame rate. STR frames carry no timing, it comes from the container.
func (s *Stream) SetFramerate(frameRate float64) {
	if frameRate > 0 {
		s.frameRate = frameRate
	}
}

// SetStrict requires every frame of a version with an end-of-frame pattern to carry it.
func (s *Stream) SetStrict(strict bool) {
	s.strict = strict
	if s.dec != nil {
		s.dec.SetStrict(strict)
	}
}

// SetFrameCallback sets a frame callback.
func (s *Stream) SetFrameCallback(callback FrameFunc) {
	s.frameCallback = callback
}

// Time returns the current internal time.
func (s *Stream) Time() time.Duration {
	return time.Duration(s.time * float64(time.Second))
}

// FramesDecoded returns the number of frames decoded since the last rewind.
func (s *Stream) FramesDecoded() int {
	return s.framesDecoded
}

// Rewind rewinds the stream back to the first frame.
func (s *Stream) Rewind() {
	s.buf.Rewind()

	s.time = 0
	s.frameTime = 0
	s.framesDecoded = 0
	s.hasEnded = false
}

// Loop returns looping.
func (s *Stream) Loop() bool {
	return s.loop
}

// SetLoop sets looping.
func (s *Stream) SetLoop(loop bool) {
	s.loop = loop
}

// HasEnded checks whether the stream has ended.
// If looping is enabled, this will always return false.
func (s *Stream) HasEnded() bool {
	return s.hasEnded
}

// Decode advances the internal timer by tick and decodes frames up to this time,
// calling the frame callback for each one. A frame-skip is not implemented, i.e. everything up to
// current time will be decoded. A corrupt frame is skipped and its error returned.
func (s *Stream) Decode(tick time.Duration) error {
	if s.frameCallback == nil {
		return nil
	}

	target := s.time + tick.Seconds()

	for s.frameTime < target {
		frame, err := s.decodeFrame()
		if err == io.EOF {
			s.handleEnd()

			return nil
		} else if err != nil {
			return err
		}

		s.frameCallback(s, frame)
	}

	s.time += tick.Seconds()

	return nil
}

// DecodeFrame decodes and returns the next frame. At the end of the stream it returns io.EOF
// (and rewinds if looping). A corrupt frame is skipped, so the following call continues with the next one.
// The returned Frame is valid until the next call to DecodeFrame().
func (s *Stream) DecodeFrame() (*Frame, error) {
	frame, err := s.decodeFrame()
	if err == io.EOF {
		s.handleEnd()

		return nil, err
	} else if err != nil {
		return nil, err
	}

	s.time = frame.Time

	return frame, nil
}

func (s *Stream) decodeFrame() (*Frame, error) {
	for {
		if !s.buf.findFrameHeader() {
			return nil, io.EOF
		}

		frame, err := s.decode(s.buf.Bytes())
		if err != nil {
			// Make sure the whole frame is in the buffer before giving up on it.
			if errors.Is(err, ErrEndOfStream) && s.buf.load() {
				continue
			}

			s.buf.skip(2)

			return nil, err
		}

		s.buf.skip(s.dec.BytesConsumed())

		frame.Time = s.frameTime
		s.framesDecoded++
		s.frameTime = float64(s.framesDecoded) / s.frameRate

		return frame, nil
	}
}

func (s *Stream) decode(data []byte) (*Frame, error) {
	if s.dec != nil {
		err := s.dec.Reset(data)
		if err == nil {
			return s.dec.Decode()
		} else if !errors.Is(err, ErrUnsupportedVersion) {
			return nil, err
		}
	}

	dec, err := NewDecoder(data, s.width, s.height)
	if err != nil {
		return nil, err
	}

	dec.SetStrict(s.strict)
	s.dec = dec

	return s.dec.Decode()
}

func (s *Stream) handleEnd() {
	if s.loop {
		s.Rewind()
	} else {
		s.hasEnded = true
	}
}
