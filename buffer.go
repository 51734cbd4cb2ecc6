package mdec

import (
	"io"

	"github.com/pkg/errors"
)

var (
	// BufferSize is the default size for buffer.
	BufferSize = 128 * 1024
)

// LoadFunc callback function.
type LoadFunc func(buffer *Buffer)

// Buffer holds the bytes of a sequence of demuxed frames, as produced by an STR demuxer.
// Frames start with a FrameHeader at an even offset and may be followed by padding.
type Buffer struct {
	reader io.Reader
	bytes  []byte

	index     int
	totalSize int

	hasEnded    bool
	discardRead bool

	available    []byte
	loadCallback LoadFunc
}

// NewBuffer creates a buffer instance.
func NewBuffer(r io.Reader) (*Buffer, error) {
	buf := &Buffer{}

	if r != nil {
		seeker, ok := r.(io.Seeker)
		if ok {
			cur, err := seeker.Seek(0, io.SeekCurrent)
			if err != nil {
				return nil, err
			}
			off, err := seeker.Seek(0, io.SeekEnd)
			if err != nil {
				return nil, err
			}
			buf.totalSize = int(off)
			_, err = seeker.Seek(cur, io.SeekStart)
			if err != nil {
				return nil, err
			}
		}
	}

	buf.reader = r
	buf.bytes = make([]byte, 0, BufferSize)
	buf.available = make([]byte, BufferSize)

	buf.discardRead = true

	return buf, nil
}

// Bytes returns a slice holding the unread portion of the buffer.
func (b *Buffer) Bytes() []byte {
	return b.bytes[b.index:]
}

// Index returns byte index.
func (b *Buffer) Index() int {
	return b.index
}

// Seekable returns true if reader is seekable.
func (b *Buffer) Seekable() bool {
	return b.reader != nil && b.totalSize > 0
}

// Write appends the contents of p to the buffer.
func (b *Buffer) Write(p []byte) int {
	if b.discardRead {
		b.discardReadBytes()
	}

	b.bytes = append(b.bytes, p...)

	b.hasEnded = false

	return len(p)
}

// SignalEnd marks the current byte length as the end of this buffer and signal that no
// more data is expected to be written to it. This function should be called
// just after the last Write().
func (b *Buffer) SignalEnd() {
	b.totalSize = len(b.bytes)
}

// SetLoadCallback sets a callback that is called whenever the buffer needs more data.
func (b *Buffer) SetLoadCallback(callback LoadFunc) {
	b.loadCallback = callback
}

// Rewind the buffer back to the beginning. When loading from io.ReadSeeker,
// this also seeks to the beginning.
func (b *Buffer) Rewind() {
	b.seek(0)
}

// Size returns the total size. For io.ReadSeeker, this returns the total size. For all other
// types it returns the number of bytes currently in the buffer.
func (b *Buffer) Size() int {
	if b.totalSize > 0 {
		return b.totalSize
	}

	return len(b.bytes)
}

// Remaining returns the number of remaining (yet unread) bytes in the buffer.
func (b *Buffer) Remaining() int {
	return len(b.bytes) - b.index
}

// HasEnded checks whether the read position of the buffer is at the end and no more data is expected.
func (b *Buffer) HasEnded() bool {
	return b.hasEnded
}

// LoadReaderCallback is a callback that is called whenever the buffer needs more data.
func (b *Buffer) LoadReaderCallback(buffer *Buffer) {
	if b.hasEnded {
		return
	}

	p := b.available

	n, err := io.ReadFull(b.reader, p)
	if err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			p = p[:n]
		} else if err == io.EOF {
			b.hasEnded = true

			return
		}
	}

	if n == 0 {
		b.hasEnded = true

		return
	}

	b.Write(p)
}

func (b *Buffer) seek(pos int) {
	b.hasEnded = false

	if b.reader != nil && b.totalSize > 0 {
		seeker := b.reader.(io.Seeker)
		_, _ = seeker.Seek(int64(pos), io.SeekStart)
		b.bytes = b.bytes[:0]

		b.index = 0
	} else if b.reader == nil {
		if pos != 0 {
			return
		}

		b.index = 0
	}
}

func (b *Buffer) discardReadBytes() {
	if b.index == len(b.bytes) {
		b.bytes = b.bytes[:0]

		b.index = 0
	} else if b.index > 0 {
		copy(b.bytes, b.bytes[b.index:])
		b.bytes = b.bytes[:len(b.bytes)-b.index]

		b.index = 0
	}
}

func (b *Buffer) has(count int) bool {
	if len(b.bytes)-b.index >= count {
		return true
	}

	if b.load() && len(b.bytes)-b.index >= count {
		return true
	}

	if b.totalSize != 0 && len(b.bytes) == b.totalSize || b.reader == nil && b.loadCallback == nil {
		b.hasEnded = true
	}

	return false
}

// load asks the callback for more data and reports whether any arrived.
func (b *Buffer) load() bool {
	if b.loadCallback == nil {
		return false
	}

	before := len(b.bytes) - b.index
	b.loadCallback(b)

	return len(b.bytes)-b.index > before
}

func (b *Buffer) skip(count int) {
	if b.has(count) {
		b.index += count
	} else {
		b.index = len(b.bytes)
	}
}

// findFrameHeader moves to the next plausible frame header and returns true if one was found.
func (b *Buffer) findFrameHeader() bool {
	b.index += b.index & 1

	for b.has(HeaderSize) {
		if isFrameHeader(b.bytes[b.index:]) {
			return true
		}

		b.index += 2
	}

	return false
}
