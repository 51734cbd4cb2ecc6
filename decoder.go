package mdec

import "github.com/pkg/errors"

const blocksPerMacroblock = 6

// Block positions within a macroblock, in bitstream order.
const (
	BlockCr = iota
	BlockCb
	BlockY1 // top left
	BlockY2 // top right
	BlockY3 // bottom left
	BlockY4 // bottom right
)

// Macroblock is a decoded 16x16 tile: six blocks of signed samples in Cr, Cb, Y1..Y4 order.
type Macroblock struct {
	// X and Y are the pixel position of the tile's top left corner.
	X, Y   int
	Blocks [blocksPerMacroblock][64]int32
}

// Decoder decodes MDEC frames of a fixed size into YCbCr frames.
type Decoder struct {
	unc *Uncompressor

	width    int
	height   int
	mbWidth  int
	mbHeight int
	mbCount  int

	lumaWidth   int
	chromaWidth int

	mbDecoded int
	strict    bool

	frame  Frame
	mb     Macroblock
	block  Block
	matrix [64]int32
}

// NewDecoder creates a decoder for one frame, selecting the version from the frame header.
func NewDecoder(data []byte, width, height int) (*Decoder, error) {
	v, err := IdentifyVersion(data)
	if err != nil {
		return nil, err
	}

	return NewDecoderVersion(data, v, width, height)
}

// NewDecoderVersion creates a decoder for one frame of the given version.
func NewDecoderVersion(data []byte, v Version, width, height int) (*Decoder, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.Wrapf(ErrInvalidDimensions, "%dx%d", width, height)
	}

	unc, err := NewUncompressorVersion(data, v)
	if err != nil {
		return nil, err
	}

	d := &Decoder{}
	d.unc = unc

	d.width = width
	d.height = height
	d.mbWidth = (width + 15) >> 4
	d.mbHeight = (height + 15) >> 4
	d.mbCount = d.mbWidth * d.mbHeight

	d.lumaWidth = d.mbWidth << 4
	d.chromaWidth = d.mbWidth << 3

	d.frame.init(width, height)
	d.block.Coefficients = make([]Coefficient, 0, 64)

	return d, nil
}

// Version returns the bitstream version.
func (d *Decoder) Version() Version {
	return d.unc.Version()
}

// Header returns the current frame header.
func (d *Decoder) Header() FrameHeader {
	return d.unc.Header()
}

// Width returns the display width.
func (d *Decoder) Width() int {
	return d.width
}

// Height returns the display height.
func (d *Decoder) Height() int {
	return d.height
}

// MacroblockCount returns the number of macroblocks in a frame.
func (d *Decoder) MacroblockCount() int {
	return d.mbCount
}

// SetStrict sets strict mode. When enabled, a frame of a version with an end-of-frame
// pattern must carry it after the last macroblock.
func (d *Decoder) SetStrict(strict bool) {
	d.strict = strict
}

// Reset loads the next frame of the same stream. The frame buffer is reused.
func (d *Decoder) Reset(data []byte) error {
	v := d.unc.Version()

	if v.HasHeader() {
		h, err := ParseHeader(data)
		if err != nil {
			return err
		}
		if h.Version != v.Tag() {
			return errors.Wrapf(ErrUnsupportedVersion, "stream is %s, frame has tag %d", v, h.Version)
		}
	}

	unc, err := NewUncompressorVersion(data, v)
	if err != nil {
		return err
	}

	d.unc = unc
	d.mbDecoded = 0

	return nil
}

// Decode decodes the whole frame, and the end-of-frame pattern that follows it if present. Macroblocks are placed in column-major order: every
// macroblock of a column from top to bottom, then the next column.
// On error the partially decoded frame is returned along with the error.
// The returned Frame is valid until the next call to Decode().
func (d *Decoder) Decode() (*Frame, error) {
	d.unc.Reset()
	d.mbDecoded = 0
	d.frame.clear()

	for d.mbDecoded < d.mbCount {
		if err := d.DecodeMacroblock(&d.mb); err != nil {
			return &d.frame, err
		}

		d.placeMacroblock(&d.mb)
	}

	if !d.unc.SkipPadding() && d.strict {
		if _, n := d.unc.Version().endOfFrame(); n > 0 {
			return &d.frame, errors.Wrap(ErrReadCorruption, "missing end of frame")
		}
	}

	return &d.frame, nil
}

// BytesConsumed returns how many bytes of the frame data the last Decode() used, header included.
// Anything after that is padding.
func (d *Decoder) BytesConsumed() int {
	return d.unc.BytesConsumed()
}

// DecodeMacroblock decodes the next macroblock of the frame into mb without placing it.
func (d *Decoder) DecodeMacroblock(mb *Macroblock) error {
	if d.mbDecoded >= d.mbCount {
		return errors.WithStack(ErrEndOfStream)
	}

	mb.X = (d.mbDecoded / d.mbHeight) << 4
	mb.Y = (d.mbDecoded % d.mbHeight) << 4

	for i := 0; i < blocksPerMacroblock; i++ {
		if err := d.unc.DecodeBlock(&d.block); err != nil {
			return errors.Wrapf(err, "macroblock %d (%d, %d)", d.mbDecoded, mb.X, mb.Y)
		}

		nonZero, single := Dequantize(&d.block, &d.matrix)
		idct(&d.matrix, &mb.Blocks[i], nonZero, single)
	}

	d.mbDecoded++

	return nil
}

// placeMacroblock copies a decoded macroblock into the frame.
func (d *Decoder) placeMacroblock(mb *Macroblock) {
	ci := (mb.Y>>1)*d.chromaWidth + (mb.X >> 1)
	putBlock(&mb.Blocks[BlockCr], d.frame.Cr.Data, ci, d.chromaWidth)
	putBlock(&mb.Blocks[BlockCb], d.frame.Cb.Data, ci, d.chromaWidth)

	li := mb.Y*d.lumaWidth + mb.X
	putBlock(&mb.Blocks[BlockY1], d.frame.Y.Data, li, d.lumaWidth)
	putBlock(&mb.Blocks[BlockY2], d.frame.Y.Data, li+8, d.lumaWidth)
	putBlock(&mb.Blocks[BlockY3], d.frame.Y.Data, li+8*d.lumaWidth, d.lumaWidth)
	putBlock(&mb.Blocks[BlockY4], d.frame.Y.Data, li+8*d.lumaWidth+8, d.lumaWidth)
}
