package mdec

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// BitOrder selects which end of a 16-bit word is consumed first.
type BitOrder int

const (
	// MSBFirst consumes bit 15 of every word first.
	MSBFirst BitOrder = iota
	// LSBFirst consumes bit 0 of every word first.
	LSBFirst
)

const wordBits = 16

// BitCursor reads a bitstream that is stored as a sequence of 16-bit words.
// All reads are bounds checked against the end offset given at construction,
// a failed read or skip leaves the cursor where it was.
type BitCursor struct {
	data      []byte
	byteOrder binary.ByteOrder
	bitOrder  BitOrder

	start int
	end   int
	pos   int // offset of the next word to load

	word     uint16
	wordLeft int // unconsumed bits in word

	bitsRead int
}

// NewBitCursor creates a cursor over data[start:end]. A trailing odd byte is not addressable.
func NewBitCursor(data []byte, start, end int, byteOrder binary.ByteOrder, bitOrder BitOrder) *BitCursor {
	if start < 0 {
		start = 0
	}
	if end > len(data) {
		end = len(data)
	}
	if end < start {
		end = start
	}

	end = start + (end-start)&^1

	return &BitCursor{
		data:      data,
		byteOrder: byteOrder,
		bitOrder:  bitOrder,
		start:     start,
		end:       end,
		pos:       start,
	}
}

// Reset moves the cursor back to the start offset.
func (c *BitCursor) Reset() {
	c.pos = c.start
	c.word = 0
	c.wordLeft = 0
	c.bitsRead = 0
}

// BitsRemaining returns the number of bits left before the end offset.
func (c *BitCursor) BitsRemaining() int {
	return c.wordLeft + ((c.end-c.pos)>>1)*wordBits
}

// BitsRead returns the number of bits consumed since the start offset.
func (c *BitCursor) BitsRead() int {
	return c.bitsRead
}

// ByteOffset returns the offset of the word holding the next unread bit.
func (c *BitCursor) ByteOffset() int {
	if c.wordLeft > 0 {
		return c.pos - 2
	}

	return c.pos
}

// Peek returns the next n bits without consuming them.
func (c *BitCursor) Peek(n int) (uint32, error) {
	if err := c.has(n); err != nil {
		return 0, err
	}

	value, _, _, _ := c.peek(n)

	return value, nil
}

// Skip consumes n bits, crossing as many words as needed.
func (c *BitCursor) Skip(n int) error {
	if n < 0 {
		return errors.Errorf("mdec: negative skip %d", n)
	}
	if n > c.BitsRemaining() {
		return errors.WithStack(ErrEndOfStream)
	}

	c.bitsRead += n

	if n <= c.wordLeft {
		c.wordLeft -= n

		return nil
	}

	n -= c.wordLeft
	c.wordLeft = 0

	c.pos += (n / wordBits) << 1
	if rem := n % wordBits; rem != 0 {
		c.word = c.loadWord(c.pos)
		c.pos += 2
		c.wordLeft = wordBits - rem
	}

	return nil
}

// ReadUnsigned consumes n bits and returns them as an unsigned value.
func (c *BitCursor) ReadUnsigned(n int) (uint32, error) {
	if err := c.has(n); err != nil {
		return 0, err
	}

	value, word, left, pos := c.peek(n)
	c.word, c.wordLeft, c.pos = word, left, pos
	c.bitsRead += n

	return value, nil
}

// ReadSigned consumes n bits and sign extends them, the top bit being the sign.
func (c *BitCursor) ReadSigned(n int) (int32, error) {
	value, err := c.ReadUnsigned(n)
	if err != nil {
		return 0, err
	}

	return signExtend(value, n), nil
}

func (c *BitCursor) read1() (int, error) {
	value, err := c.ReadUnsigned(1)

	return int(value), err
}

func (c *BitCursor) has(n int) error {
	if n < 0 || n > 32 {
		return errors.Errorf("mdec: invalid bit count %d", n)
	}
	if n > c.BitsRemaining() {
		return errors.WithStack(ErrEndOfStream)
	}

	return nil
}

// peek assembles n bits and returns the cursor state that consuming them would leave.
func (c *BitCursor) peek(n int) (value uint32, word uint16, left, pos int) {
	word, left, pos = c.word, c.wordLeft, c.pos

	got := 0
	for got < n {
		if left == 0 {
			word = c.loadWord(pos)
			pos += 2
			left = wordBits
		}

		take := n - got
		if take > left {
			take = left
		}
		mask := uint32(1)<<take - 1

		if c.bitOrder == MSBFirst {
			chunk := (uint32(word) >> (left - take)) & mask
			value = value<<take | chunk
		} else {
			chunk := (uint32(word) >> (wordBits - left)) & mask
			value |= chunk << got
		}

		left -= take
		got += take
	}

	return value, word, left, pos
}

func (c *BitCursor) loadWord(pos int) uint16 {
	return c.byteOrder.Uint16(c.data[pos : pos+2])
}

func signExtend(value uint32, n int) int32 {
	if n == 0 {
		return 0
	}

	shift := 32 - n

	return int32(value<<shift) >> shift
}
