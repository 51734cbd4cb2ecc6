package mdec

import "github.com/pkg/errors"

// Compressor encodes MDEC codes into a frame bitstream of one version.
// It refuses any code the decoder could not reproduce exactly; after the first error
// the compressor is unusable and never returns a partial frame.
type Compressor struct {
	version    Version
	quantScale int

	w  *BitWriter
	dc dcState

	block int // position in Cr, Cb, Y1..Y4
	index int // zig-zag index of the last code, -1 before a DC

	codes       int
	macroblocks int

	out []byte
	err error
}

// NewCompressor creates a compressor. For versions with a frame header, every block must use quantScale.
func NewCompressor(v Version, quantScale int) (*Compressor, error) {
	if quantScale < 0 || quantScale > maxRun {
		return nil, errors.Wrapf(ErrInvalidHeader, "quantization scale %d", quantScale)
	}

	c := &Compressor{
		version:    v,
		quantScale: quantScale,
		w:          NewBitWriter(v.ByteOrder(), v.BitOrder()),
		index:      -1,
	}
	c.dc.reset(quantScale)

	return c, nil
}

// Compress encodes a complete frame of codes.
func Compress(v Version, quantScale int, codes []Code) ([]byte, error) {
	c, err := NewCompressor(v, quantScale)
	if err != nil {
		return nil, err
	}

	for _, code := range codes {
		if err := c.WriteCode(code); err != nil {
			return nil, err
		}
	}

	return c.Finish()
}

// Macroblocks returns the number of complete macroblocks written.
func (c *Compressor) Macroblocks() int {
	return c.macroblocks
}

// WriteCode writes the next MDEC code. The first code of each block holds the quantization scale and DC,
// EndOfBlock finishes the block.
func (c *Compressor) WriteCode(code Code) error {
	if c.err != nil {
		return c.err
	}
	if c.out != nil {
		return c.fail(errors.New("mdec: write after finish"))
	}

	if c.index < 0 {
		if !code.Valid() {
			return c.fail(errors.Wrapf(ErrTooMuchEnergy, "block %d: quantization scale %d dc %d", c.block, code.Run, code.Level))
		}
		if err := c.version.writeDC(c.w, &c.dc, c.block, code); err != nil {
			return c.fail(errors.Wrapf(err, "block %d", c.block))
		}

		c.index = 0
		c.codes++

		return nil
	}

	if code.IsEOD() {
		c.version.writeEndOfBlock(c.w)

		c.index = -1
		c.block = (c.block + 1) % blocksPerMacroblock
		if c.block == 0 {
			c.macroblocks++
		}
		c.codes++

		return nil
	}

	if !code.Valid() {
		return c.fail(errors.Wrapf(ErrTooMuchEnergy, "block %d: run %d level %d", c.block, code.Run, code.Level))
	}
	if c.index+code.Run+1 > 63 {
		return c.fail(errors.Wrapf(ErrTooMuchEnergy, "block %d: coefficient index %d past end of block", c.block, c.index+code.Run+1))
	}

	c.version.writeAC(c.w, code)

	c.index += code.Run + 1
	c.codes++

	return nil
}

// WriteBlock writes one block of quantized coefficients given in natural order, natural[0] being the DC.
func (c *Compressor) WriteBlock(natural *[64]int, quantScale int) error {
	if c.err != nil {
		return c.err
	}
	if c.index >= 0 {
		return c.fail(errors.Errorf("mdec: block %d is partially written", c.block))
	}

	if err := c.WriteCode(Code{Run: quantScale, Level: natural[0]}); err != nil {
		return err
	}

	run := 0
	for i := 1; i < 64; i++ {
		v := natural[zigZag[i]]
		if v == 0 {
			run++

			continue
		}

		if err := c.WriteCode(Code{Run: run, Level: v}); err != nil {
			return err
		}
		run = 0
	}

	return c.WriteCode(EndOfBlock)
}

// Finish terminates the frame and returns it, header included.
func (c *Compressor) Finish() ([]byte, error) {
	if c.err != nil {
		return nil, c.err
	}
	if c.out != nil {
		return c.out, nil
	}
	if c.index >= 0 || c.block != 0 {
		return nil, c.fail(errors.Errorf("mdec: frame ends inside macroblock %d", c.macroblocks))
	}

	if pattern, n := c.version.endOfFrame(); n > 0 {
		c.w.WriteBits(pattern, n)
	}

	body := c.w.Bytes()
	if body == nil {
		body = []byte{}
	}

	if !c.version.HasHeader() {
		c.out = body

		return c.out, nil
	}

	h := FrameHeader{
		RunLengthCodeCount: runLengthCodeCount(c.codes),
		Magic:              Magic,
		QuantScale:         uint16(c.quantScale),
		Version:            c.version.Tag(),
	}

	c.out = make([]byte, HeaderSize+len(body))
	h.put(c.out)
	copy(c.out[HeaderSize:], body)

	return c.out, nil
}

func (c *Compressor) fail(err error) error {
	c.err = err

	return err
}
