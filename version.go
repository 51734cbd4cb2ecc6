package mdec

import (
	"encoding/binary"
	"fmt"

	"github.com/pkg/errors"
)

// Version is one bitstream variant: its coefficient table, bit and byte order, DC coding rule
// and end-of-frame pattern. A stream uses a single version from start to end.
type Version interface {
	fmt.Stringer

	// Tag is the value of the version field in the frame header, 0 for headerless streams.
	Tag() uint16
	// HasHeader reports whether frames start with a FrameHeader.
	HasHeader() bool
	ByteOrder() binary.ByteOrder
	BitOrder() BitOrder
	// Table returns the AC coefficient table, nil when codes are stored verbatim.
	Table() *VlcTable

	readDC(c *BitCursor, s *dcState, block int, code *Code) error
	readAC(c *BitCursor, code *Code) (bool, error)
	writeDC(w *BitWriter, s *dcState, block int, code Code) error
	writeAC(w *BitWriter, code Code)
	writeEndOfBlock(w *BitWriter)
	endOfFrame() (pattern uint32, bits int)
}

// dcState is the per-frame state DC coding depends on.
type dcState struct {
	quantScale int
	predictor  [3]int // Cr, Cb, Y
}

func (s *dcState) reset(quantScale int) {
	s.quantScale = quantScale
	s.predictor = [3]int{}
}

var (
	// VersionRaw is a headerless stream of little-endian 16-bit MDEC words, as the hardware consumes them.
	VersionRaw Version = rawVersion{}

	// VersionSTRv1 is decoded exactly like VersionSTRv2.
	VersionSTRv1 Version = &strVersion{tag: 1}

	// VersionSTRv2 codes each DC as an absolute 10-bit value and takes the quantization scale from the header.
	VersionSTRv2 Version = &strVersion{tag: 2}

	// VersionSTRv3 codes each DC as a size-prefixed differential and ends frames with an end-of-frame code.
	VersionSTRv3 Version = &strVersion{tag: 3, differentialDC: true}
)

// VersionByTag returns the version a frame header tag selects.
func VersionByTag(tag uint16) (Version, error) {
	switch tag {
	case 1:
		return VersionSTRv1, nil
	case 2:
		return VersionSTRv2, nil
	case 3:
		return VersionSTRv3, nil
	}

	return nil, errors.Wrapf(ErrUnsupportedVersion, "tag %d", tag)
}

type rawVersion struct{}

func (rawVersion) String() string              { return "raw" }
func (rawVersion) Tag() uint16                 { return 0 }
func (rawVersion) HasHeader() bool             { return false }
func (rawVersion) ByteOrder() binary.ByteOrder { return binary.LittleEndian }
func (rawVersion) BitOrder() BitOrder          { return MSBFirst }
func (rawVersion) Table() *VlcTable            { return nil }

func (rawVersion) readDC(c *BitCursor, s *dcState, block int, code *Code) error {
	word, err := c.ReadUnsigned(16)
	if err != nil {
		return err
	}

	*code = CodeFromWord(uint16(word))

	return nil
}

func (rawVersion) readAC(c *BitCursor, code *Code) (bool, error) {
	word, err := c.ReadUnsigned(16)
	if err != nil {
		return false, err
	}

	*code = CodeFromWord(uint16(word))

	return code.IsEOD(), nil
}

func (rawVersion) writeDC(w *BitWriter, s *dcState, block int, code Code) error {
	w.WriteBits(uint32(code.Word()), 16)

	return nil
}

func (rawVersion) writeAC(w *BitWriter, code Code) {
	w.WriteBits(uint32(code.Word()), 16)
}

func (rawVersion) writeEndOfBlock(w *BitWriter) {
	w.WriteBits(EndOfData, 16)
}

func (rawVersion) endOfFrame() (uint32, int) {
	return 0, 0
}

// strVersion covers the VLC compressed frames found in STR files.
type strVersion struct {
	tag            uint16
	differentialDC bool
}

// endOfFrameV3 follows the last macroblock of a v3 frame. Neither DC size table starts with it.
const (
	endOfFrameV3     = 0x3FE // 1111111110
	endOfFrameV3Bits = 10
)

func (v *strVersion) String() string              { return fmt.Sprintf("STRv%d", v.tag) }
func (v *strVersion) Tag() uint16                 { return v.tag }
func (v *strVersion) HasHeader() bool             { return true }
func (v *strVersion) ByteOrder() binary.ByteOrder { return binary.LittleEndian }
func (v *strVersion) BitOrder() BitOrder          { return MSBFirst }
func (v *strVersion) Table() *VlcTable            { return acTable }

func (v *strVersion) readDC(c *BitCursor, s *dcState, block int, code *Code) error {
	code.Run = s.quantScale

	if !v.differentialDC {
		dc, err := c.ReadSigned(10)
		if err != nil {
			return err
		}
		code.Level = int(dc)

		return nil
	}

	ch, table := dcChannel(block)

	size, err := readVlc(c, table)
	if err != nil {
		return errors.Wrap(err, "dc size")
	}

	diff := 0
	if size > 0 {
		bits, err := c.ReadUnsigned(size)
		if err != nil {
			return err
		}

		diff = int(bits)
		if bits&(1<<(size-1)) == 0 {
			diff = int(bits) - (1 << size) + 1
		}
	}

	dc := s.predictor[ch] + diff*4
	if dc < minLevel || dc > maxLevel {
		return errors.Wrapf(ErrReadCorruption, "dc %d out of range", dc)
	}

	s.predictor[ch] = dc
	code.Level = dc

	return nil
}

func (v *strVersion) readAC(c *BitCursor, code *Code) (bool, error) {
	return acTable.readCode(c, code)
}

func (v *strVersion) writeDC(w *BitWriter, s *dcState, block int, code Code) error {
	if code.Run != s.quantScale {
		return errors.Wrapf(ErrQuantScaleMismatch, "block quantization scale %d, frame %d", code.Run, s.quantScale)
	}

	if !v.differentialDC {
		w.WriteSigned(int32(code.Level), 10)

		return nil
	}

	if code.Level%4 != 0 {
		return errors.Wrapf(ErrTooMuchEnergy, "dc %d is not a multiple of 4", code.Level)
	}

	ch, _ := dcChannel(block)

	diff := (code.Level - s.predictor[ch]) / 4
	size := bitLength(abs(diff))
	if size >= len(dcSizeSymbols) {
		return errors.Wrapf(ErrTooMuchEnergy, "dc differential %d", diff)
	}

	if ch == 2 {
		w.WriteCode(dcSizeLuminanceCodes[size])
	} else {
		w.WriteCode(dcSizeChrominanceCodes[size])
	}

	if size > 0 {
		bits := diff
		if diff < 0 {
			bits = diff + (1 << size) - 1
		}
		w.WriteBits(uint32(bits), size)
	}

	s.predictor[ch] = code.Level

	return nil
}

func (v *strVersion) writeAC(w *BitWriter, code Code) {
	acTable.writeCode(w, code)
}

func (v *strVersion) writeEndOfBlock(w *BitWriter) {
	acTable.writeEndOfBlock(w)
}

func (v *strVersion) endOfFrame() (uint32, int) {
	if v.differentialDC {
		return endOfFrameV3, endOfFrameV3Bits
	}

	return 0, 0
}

// dcChannel returns the predictor slot and size table of a block in Cr, Cb, Y1..Y4 order.
func dcChannel(block int) (int, []vlc) {
	if block < 2 {
		return block, dcSizeChrominance
	}

	return 2, dcSizeLuminance
}

func bitLength(x int) int {
	n := 0
	for x > 0 {
		n++
		x >>= 1
	}

	return n
}
