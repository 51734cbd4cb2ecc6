package mdec

import "encoding/binary"

// BitWriter assembles a bitstream of 16-bit words, the write-side twin of BitCursor.
type BitWriter struct {
	buf       []byte // completed words
	byteOrder binary.ByteOrder
	bitOrder  BitOrder

	word    uint16 // word being assembled
	wordPos int    // bits written to word (0-15)

	bitsWritten int
}

// NewBitWriter creates a writer with the given word byte order and bit order.
func NewBitWriter(byteOrder binary.ByteOrder, bitOrder BitOrder) *BitWriter {
	return &BitWriter{
		byteOrder: byteOrder,
		bitOrder:  bitOrder,
	}
}

// WriteBits writes the low n bits of val (n <= 32).
// With MSBFirst the most significant of the n bits is written first, with LSBFirst the least.
func (w *BitWriter) WriteBits(val uint32, n int) {
	for n > 0 {
		take := wordBits - w.wordPos
		if take > n {
			take = n
		}
		mask := uint32(1)<<take - 1

		if w.bitOrder == MSBFirst {
			chunk := (val >> (n - take)) & mask
			w.word |= uint16(chunk << (wordBits - w.wordPos - take))
		} else {
			chunk := val & mask
			w.word |= uint16(chunk << w.wordPos)
			val >>= take
		}

		w.wordPos += take
		w.bitsWritten += take
		n -= take

		if w.wordPos == wordBits {
			w.flushWord()
		}
	}
}

// WriteSigned writes val as an n bit two's complement field.
func (w *BitWriter) WriteSigned(val int32, n int) {
	w.WriteBits(uint32(val)&(uint32(1)<<n-1), n)
}

// WriteCode writes a VLC bit pattern given as a string of '0' and '1'.
func (w *BitWriter) WriteCode(code string) {
	for i := 0; i < len(code); i++ {
		w.WriteBits(uint32(code[i]-'0'), 1)
	}
}

// BitsWritten returns the number of bits written so far.
func (w *BitWriter) BitsWritten() int {
	return w.bitsWritten
}

// Align pads the current word with zero bits.
func (w *BitWriter) Align() {
	if w.wordPos > 0 {
		w.bitsWritten += wordBits - w.wordPos
		w.flushWord()
	}
}

// Bytes aligns the stream to a word boundary and returns the written bytes.
func (w *BitWriter) Bytes() []byte {
	w.Align()

	return w.buf
}

func (w *BitWriter) flushWord() {
	var b [2]byte
	w.byteOrder.PutUint16(b[:], w.word)
	w.buf = append(w.buf, b[:]...)

	w.word = 0
	w.wordPos = 0
}
