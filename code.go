package mdec

import (
	"fmt"

	"github.com/pkg/errors"
)

// EndOfData is the packed MDEC word that terminates a block.
const EndOfData = 0xFE00

const (
	maxRun   = 63
	minLevel = -512
	maxLevel = 511
)

// Code is one MDEC code: a 6-bit field and a signed 10-bit field.
// The first code of a block holds the quantization scale in Run and the DC coefficient in Level,
// every following code holds a zero run length and the coefficient value.
type Code struct {
	Run   int
	Level int
}

// EndOfBlock is the code equivalent of EndOfData.
var EndOfBlock = Code{Run: maxRun, Level: minLevel}

// CodeFromWord unpacks a 16-bit MDEC word.
func CodeFromWord(word uint16) Code {
	return Code{
		Run:   int(word >> 10),
		Level: int(signExtend(uint32(word&0x3FF), 10)),
	}
}

// Word packs the code into a 16-bit MDEC word.
func (c Code) Word() uint16 {
	return uint16(c.Run&0x3F)<<10 | uint16(c.Level&0x3FF)
}

// IsEOD reports whether the code is the end-of-block marker.
func (c Code) IsEOD() bool {
	return c.Run == maxRun && c.Level == minLevel
}

// Valid reports whether both fields fit their bit widths.
func (c Code) Valid() bool {
	return c.Run >= 0 && c.Run <= maxRun && c.Level >= minLevel && c.Level <= maxLevel
}

func (c Code) String() string {
	if c.IsEOD() {
		return "EOD"
	}

	return fmt.Sprintf("(%d, %d)", c.Run, c.Level)
}

// CodeReader is a source of MDEC codes, one block after another.
type CodeReader interface {
	ReadCode(code *Code) error
}

// CodeWriter is a sink of MDEC codes, one block after another.
type CodeWriter interface {
	WriteCode(code Code) error
}

// CodeSlice is an in-memory code stream.
type CodeSlice struct {
	Codes []Code
	pos   int
}

// ReadCode implements CodeReader.
func (s *CodeSlice) ReadCode(code *Code) error {
	if s.pos >= len(s.Codes) {
		return errors.WithStack(ErrEndOfStream)
	}

	*code = s.Codes[s.pos]
	s.pos++

	return nil
}

// WriteCode implements CodeWriter.
func (s *CodeSlice) WriteCode(code Code) error {
	s.Codes = append(s.Codes, code)

	return nil
}
