package mdec

import "github.com/pkg/errors"

// Coefficient is a decoded coefficient at a zig-zag index.
type Coefficient struct {
	Index int
	Value int
}

// Block is one decoded 8x8 block before dequantization.
// Coefficients are in increasing zig-zag order, the first one is the DC at index 0.
type Block struct {
	QuantScale   int
	Coefficients []Coefficient
}

// Uncompressor turns a frame's bitstream back into MDEC codes.
// All state a version's DC coding needs is kept here, so separate streams need separate instances.
type Uncompressor struct {
	version Version
	header  FrameHeader
	cursor  *BitCursor
	dc      dcState

	block int // position in Cr, Cb, Y1..Y4
	index int // zig-zag index of the last code, -1 before a DC
	codes int
}

// NewUncompressor reads the frame header and selects the version it declares.
func NewUncompressor(data []byte) (*Uncompressor, error) {
	v, err := IdentifyVersion(data)
	if err != nil {
		return nil, err
	}

	return NewUncompressorVersion(data, v)
}

// NewUncompressorVersion decodes data as the given version. For versions with a header,
// the header is still parsed for the quantization scale but its version tag is not checked.
func NewUncompressorVersion(data []byte, v Version) (*Uncompressor, error) {
	u := &Uncompressor{
		version: v,
	}

	start := 0
	if v.HasHeader() {
		h, err := ParseHeader(data)
		if err != nil {
			return nil, err
		}

		u.header = h
		start = HeaderSize
	}

	u.cursor = NewBitCursor(data, start, len(data), v.ByteOrder(), v.BitOrder())
	u.Reset()

	return u, nil
}

// Version returns the bitstream version.
func (u *Uncompressor) Version() Version {
	return u.version
}

// Header returns the frame header, the zero value for headerless versions.
func (u *Uncompressor) Header() FrameHeader {
	return u.header
}

// Reset rewinds to the first block of the frame.
func (u *Uncompressor) Reset() {
	u.cursor.Reset()
	u.dc.reset(int(u.header.QuantScale))
	u.block = 0
	u.index = -1
	u.codes = 0
}

// CodesRead returns the number of codes read, end-of-block codes included.
func (u *Uncompressor) CodesRead() int {
	return u.codes
}

// BitsRemaining returns the number of unread bits.
func (u *Uncompressor) BitsRemaining() int {
	return u.cursor.BitsRemaining()
}

// ReadCode reads the next MDEC code. The first code of each block holds the quantization scale and DC,
// the last one is EndOfBlock.
func (u *Uncompressor) ReadCode(code *Code) error {
	if u.index < 0 {
		if err := u.version.readDC(u.cursor, &u.dc, u.block, code); err != nil {
			return errors.Wrapf(err, "block %d", u.block)
		}

		u.index = 0
		u.codes++

		return nil
	}

	eob, err := u.version.readAC(u.cursor, code)
	if err != nil {
		return errors.Wrapf(err, "block %d index %d", u.block, u.index)
	}
	u.codes++

	if eob {
		u.index = -1
		u.block = (u.block + 1) % blocksPerMacroblock

		return nil
	}

	u.index += code.Run + 1
	if u.index > 63 {
		return errors.Wrapf(ErrReadCorruption, "block %d: coefficient index %d past end of block", u.block, u.index)
	}

	return nil
}

// DecodeBlock reads one complete block.
func (u *Uncompressor) DecodeBlock(blk *Block) error {
	if u.index >= 0 {
		return errors.Errorf("mdec: block %d is partially read", u.block)
	}

	blk.Coefficients = blk.Coefficients[:0]

	var code Code
	if err := u.ReadCode(&code); err != nil {
		return err
	}

	blk.QuantScale = code.Run
	blk.Coefficients = append(blk.Coefficients, Coefficient{0, code.Level})

	for {
		if err := u.ReadCode(&code); err != nil {
			return err
		}

		if u.index < 0 {
			return nil
		}

		blk.Coefficients = append(blk.Coefficients, Coefficient{u.index, code.Level})
	}
}

// IsPadding reports whether the next bits are the version's end-of-frame pattern.
// Versions without one always report false.
func (u *Uncompressor) IsPadding() bool {
	pattern, n := u.version.endOfFrame()
	if n == 0 {
		return false
	}

	bits, err := u.cursor.Peek(n)

	return err == nil && bits == pattern
}

// SkipPadding consumes the end-of-frame pattern if it is next.
func (u *Uncompressor) SkipPadding() bool {
	if !u.IsPadding() {
		return false
	}

	_, n := u.version.endOfFrame()

	return u.cursor.Skip(n) == nil
}

// BytesConsumed returns the offset in the frame data just past the last word read, header included.
func (u *Uncompressor) BytesConsumed() int {
	return u.cursor.pos
}
