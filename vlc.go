package mdec

import "github.com/pkg/errors"

// vlc is one slot of a binary decode tree. Slots come in pairs, one per bit value.
// Index > 0 points to the pair for the next bit, Index == 0 marks a leaf holding Value
// and Index < 0 marks a bit pattern that no code starts with.
type vlc struct {
	Index int16
	Value int16
}

const (
	symEndOfBlock = -1
	symEscape     = -2
)

type vlcCode struct {
	code  string
	run   int
	level int
}

type runLevel struct {
	run   int
	level int
}

// VlcTable maps run/level pairs to prefix-free bit patterns, each followed by a sign bit.
// Pairs missing from the table are sent after the escape pattern as a 6-bit run and a 10-bit signed level.
type VlcTable struct {
	name       string
	codes      []vlcCode
	escape     string
	endOfBlock string

	tree    []vlc
	reverse map[runLevel]string
}

func newVlcTable(name, endOfBlock, escape string, codes []vlcCode) (*VlcTable, error) {
	t := &VlcTable{
		name:       name,
		codes:      codes,
		escape:     escape,
		endOfBlock: endOfBlock,
		reverse:    make(map[runLevel]string, len(codes)),
	}

	patterns := make([]string, 0, len(codes)+2)
	symbols := make([]int16, 0, len(codes)+2)

	patterns = append(patterns, endOfBlock, escape)
	symbols = append(symbols, symEndOfBlock, symEscape)

	for i, c := range codes {
		patterns = append(patterns, c.code)
		symbols = append(symbols, int16(i))

		key := runLevel{c.run, c.level}
		if _, ok := t.reverse[key]; ok {
			return nil, errors.Errorf("mdec: %s: duplicate entry for run %d level %d", name, c.run, c.level)
		}
		t.reverse[key] = c.code
	}

	var err error
	t.tree, err = buildVlcTree(patterns, symbols)
	if err != nil {
		return nil, errors.Wrap(err, name)
	}

	return t, nil
}

// Name returns the table name.
func (t *VlcTable) Name() string {
	return t.name
}

// Len returns the number of run/level entries, escape and end-of-block excluded.
func (t *VlcTable) Len() int {
	return len(t.codes)
}

// Lookup returns the bit pattern (without sign bit) of a run and absolute level.
func (t *VlcTable) Lookup(run, level int) (string, bool) {
	code, ok := t.reverse[runLevel{run, level}]

	return code, ok
}

// readCode decodes one AC code. It reports true when the end-of-block pattern was read.
func (t *VlcTable) readCode(c *BitCursor, code *Code) (bool, error) {
	sym, err := readVlc(c, t.tree)
	if err != nil {
		return false, errors.Wrapf(err, "%s coefficient", t.name)
	}

	switch sym {
	case symEndOfBlock:
		*code = EndOfBlock

		return true, nil
	case symEscape:
		run, err := c.ReadUnsigned(6)
		if err != nil {
			return false, err
		}
		level, err := c.ReadSigned(10)
		if err != nil {
			return false, err
		}

		code.Run = int(run)
		code.Level = int(level)

		return false, nil
	}

	e := t.codes[sym]

	sign, err := c.read1()
	if err != nil {
		return false, err
	}

	code.Run = e.run
	code.Level = e.level
	if sign != 0 {
		code.Level = -code.Level
	}

	return false, nil
}

// writeCode encodes one AC code, falling back to the escape pattern for pairs the table lacks.
func (t *VlcTable) writeCode(w *BitWriter, code Code) {
	level := abs(code.Level)

	if pattern, ok := t.reverse[runLevel{code.Run, level}]; ok && level != 0 {
		w.WriteCode(pattern)
		if code.Level < 0 {
			w.WriteBits(1, 1)
		} else {
			w.WriteBits(0, 1)
		}

		return
	}

	w.WriteCode(t.escape)
	w.WriteBits(uint32(code.Run), 6)
	w.WriteSigned(int32(code.Level), 10)
}

func (t *VlcTable) writeEndOfBlock(w *BitWriter) {
	w.WriteCode(t.endOfBlock)
}

// buildVlcTree turns a list of bit patterns into a decode tree, failing if one pattern prefixes another.
func buildVlcTree(patterns []string, symbols []int16) ([]vlc, error) {
	tree := []vlc{{-1, 0}, {-1, 0}}

	for k, pattern := range patterns {
		if pattern == "" {
			return nil, errors.New("empty pattern")
		}

		node := 0
		for i := 0; i < len(pattern); i++ {
			b := pattern[i]
			if b != '0' && b != '1' {
				return nil, errors.Errorf("pattern %q: invalid character %q", pattern, b)
			}

			slot := node + int(b-'0')

			if i == len(pattern)-1 {
				if tree[slot].Index != -1 {
					return nil, errors.Errorf("pattern %q collides with another code", pattern)
				}
				tree[slot] = vlc{0, symbols[k]}

				break
			}

			switch {
			case tree[slot].Index == 0:
				return nil, errors.Errorf("pattern %q has another code as prefix", pattern)
			case tree[slot].Index < 0:
				tree[slot].Index = int16(len(tree))
				tree = append(tree, vlc{-1, 0}, vlc{-1, 0})
			}

			node = int(tree[slot].Index)
		}
	}

	return tree, nil
}

// readVlc walks a decode tree one bit at a time.
func readVlc(c *BitCursor, table []vlc) (int, error) {
	var state vlc

	for {
		bit, err := c.read1()
		if err != nil {
			return 0, err
		}

		state = table[int(state.Index)+bit]
		if state.Index <= 0 {
			break
		}
	}

	if state.Index < 0 {
		return 0, errors.WithStack(ErrReadCorruption)
	}

	return int(state.Value), nil
}

func mustVlcTable(name, endOfBlock, escape string, codes []vlcCode) *VlcTable {
	t, err := newVlcTable(name, endOfBlock, escape, codes)
	if err != nil {
		panic(err)
	}

	return t
}

func mustVlcTree(patterns []string, symbols []int16) []vlc {
	tree, err := buildVlcTree(patterns, symbols)
	if err != nil {
		panic(err)
	}

	return tree
}

func abs(x int) int {
	if x < 0 {
		return -x
	}

	return x
}

// acTable is the MPEG-1 DCT coefficient table as used by the PlayStation STR bitstreams,
// with "10" as end of block and a 6+10 bit escape.
var acTable = mustVlcTable("ac", "10", "000001", acCodes)

var acCodes = []vlcCode{
	{"11", 0, 1},
	{"011", 1, 1},
	{"0100", 0, 2},
	{"0101", 2, 1},
	{"00101", 0, 3},
	{"00111", 3, 1},
	{"00110", 4, 1},
	{"000110", 1, 2},
	{"000111", 5, 1},
	{"000101", 6, 1},
	{"000100", 7, 1},
	{"0000110", 0, 4},
	{"0000100", 2, 2},
	{"0000111", 8, 1},
	{"0000101", 9, 1},
	{"00100110", 0, 5},
	{"00100001", 0, 6},
	{"00100101", 1, 3},
	{"00100100", 3, 2},
	{"00100111", 10, 1},
	{"00100011", 11, 1},
	{"00100010", 12, 1},
	{"00100000", 13, 1},
	{"0000001010", 0, 7},
	{"0000001100", 1, 4},
	{"0000001011", 2, 3},
	{"0000001111", 4, 2},
	{"0000001001", 5, 2},
	{"0000001110", 14, 1},
	{"0000001101", 15, 1},
	{"0000001000", 16, 1},
	{"000000011101", 0, 8},
	{"000000011000", 0, 9},
	{"000000010011", 0, 10},
	{"000000010000", 0, 11},
	{"000000011011", 1, 5},
	{"000000010100", 2, 4},
	{"000000011100", 3, 3},
	{"000000010010", 4, 3},
	{"000000011110", 6, 2},
	{"000000010101", 7, 2},
	{"000000010001", 8, 2},
	{"000000011111", 17, 1},
	{"000000011010", 18, 1},
	{"000000011001", 19, 1},
	{"000000010111", 20, 1},
	{"000000010110", 21, 1},
	{"0000000011010", 0, 12},
	{"0000000011001", 0, 13},
	{"0000000011000", 0, 14},
	{"0000000010111", 0, 15},
	{"0000000010110", 1, 6},
	{"0000000010101", 1, 7},
	{"0000000010100", 2, 5},
	{"0000000010011", 3, 4},
	{"0000000010010", 5, 3},
	{"0000000010001", 9, 2},
	{"0000000010000", 10, 2},
	{"0000000011111", 22, 1},
	{"0000000011110", 23, 1},
	{"0000000011101", 24, 1},
	{"0000000011100", 25, 1},
	{"0000000011011", 26, 1},
	{"00000000011111", 0, 16},
	{"00000000011110", 0, 17},
	{"00000000011101", 0, 18},
	{"00000000011100", 0, 19},
	{"00000000011011", 0, 20},
	{"00000000011010", 0, 21},
	{"00000000011001", 0, 22},
	{"00000000011000", 0, 23},
	{"00000000010111", 0, 24},
	{"00000000010110", 0, 25},
	{"00000000010101", 0, 26},
	{"00000000010100", 0, 27},
	{"00000000010011", 0, 28},
	{"00000000010010", 0, 29},
	{"00000000010001", 0, 30},
	{"00000000010000", 0, 31},
	{"000000000011000", 0, 32},
	{"000000000010111", 0, 33},
	{"000000000010110", 0, 34},
	{"000000000010101", 0, 35},
	{"000000000010100", 0, 36},
	{"000000000010011", 0, 37},
	{"000000000010010", 0, 38},
	{"000000000010001", 0, 39},
	{"000000000010000", 0, 40},
	{"000000000011111", 1, 8},
	{"000000000011110", 1, 9},
	{"000000000011101", 1, 10},
	{"000000000011100", 1, 11},
	{"000000000011011", 1, 12},
	{"000000000011010", 1, 13},
	{"000000000011001", 1, 14},
	{"0000000000010011", 1, 15},
	{"0000000000010010", 1, 16},
	{"0000000000010001", 1, 17},
	{"0000000000010000", 1, 18},
	{"0000000000010100", 6, 3},
	{"0000000000011010", 11, 2},
	{"0000000000011001", 12, 2},
	{"0000000000011000", 13, 2},
	{"0000000000010111", 14, 2},
	{"0000000000010110", 15, 2},
	{"0000000000010101", 16, 2},
	{"0000000000011111", 27, 1},
	{"0000000000011110", 28, 1},
	{"0000000000011101", 29, 1},
	{"0000000000011100", 30, 1},
	{"0000000000011011", 31, 1},
}

// DC differential sizes, indexed by size.
var (
	dcSizeLuminanceCodes   = []string{"100", "00", "01", "101", "110", "1110", "11110", "111110", "1111110"}
	dcSizeChrominanceCodes = []string{"00", "01", "10", "110", "1110", "11110", "111110", "1111110", "11111110"}

	dcSizeLuminance   = mustVlcTree(dcSizeLuminanceCodes, dcSizeSymbols)
	dcSizeChrominance = mustVlcTree(dcSizeChrominanceCodes, dcSizeSymbols)

	dcSizeSymbols = []int16{0, 1, 2, 3, 4, 5, 6, 7, 8}
)
