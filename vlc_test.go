package mdec

import (
	"encoding/binary"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCursor(w *BitWriter) *BitCursor {
	data := w.Bytes()

	return NewBitCursor(data, 0, len(data), binary.LittleEndian, MSBFirst)
}

func TestAcTable(t *testing.T) {
	assert.Equal(t, "ac", acTable.Name())
	assert.Equal(t, 111, acTable.Len())

	seen := make(map[string]bool)
	for _, c := range acTable.codes {
		assert.False(t, seen[c.code], "duplicate pattern %s", c.code)
		seen[c.code] = true

		got, ok := acTable.Lookup(c.run, c.level)
		require.True(t, ok)
		assert.Equal(t, c.code, got)

		assert.False(t, strings.HasPrefix(c.code, acTable.endOfBlock), "%s", c.code)
		assert.False(t, strings.HasPrefix(c.code, acTable.escape), "%s", c.code)
	}

	_, ok := acTable.Lookup(0, 41)
	assert.False(t, ok)
}

func TestAcTableRoundTrip(t *testing.T) {
	for _, c := range acTable.codes {
		for _, level := range []int{c.level, -c.level} {
			code := Code{c.run, level}

			w := NewBitWriter(binary.LittleEndian, MSBFirst)
			acTable.writeCode(w, code)
			assert.Equal(t, len(c.code)+1, w.BitsWritten())
			acTable.writeEndOfBlock(w)

			cur := newTestCursor(w)

			var got Code
			eob, err := acTable.readCode(cur, &got)
			require.NoError(t, err)
			assert.False(t, eob)
			assert.Equal(t, code, got)

			eob, err = acTable.readCode(cur, &got)
			require.NoError(t, err)
			assert.True(t, eob)
			assert.Equal(t, EndOfBlock, got)
		}
	}
}

func TestAcTableBits(t *testing.T) {
	w := NewBitWriter(binary.LittleEndian, MSBFirst)
	acTable.writeCode(w, Code{0, 1})
	acTable.writeEndOfBlock(w)

	// 110 10
	assert.Equal(t, []byte{0x00, 0xD0}, w.Bytes())

	w = NewBitWriter(binary.LittleEndian, MSBFirst)
	acTable.writeCode(w, Code{0, -1})

	// 111
	assert.Equal(t, []byte{0x00, 0xE0}, w.Bytes())
}

func TestAcEscape(t *testing.T) {
	tests := []Code{
		{63, 511},
		{0, -512},
		{62, -512},
		{0, 511},
		{0, 41},
		{31, -2},
		{5, 0},
	}

	for _, code := range tests {
		t.Run(code.String(), func(t *testing.T) {
			w := NewBitWriter(binary.LittleEndian, MSBFirst)
			acTable.writeCode(w, code)
			assert.Equal(t, len(acTable.escape)+16, w.BitsWritten())

			var got Code
			eob, err := acTable.readCode(newTestCursor(w), &got)
			require.NoError(t, err)
			assert.False(t, eob)
			assert.Equal(t, code, got)
		})
	}
}

func TestAcInvalidCode(t *testing.T) {
	w := NewBitWriter(binary.LittleEndian, MSBFirst)
	w.WriteBits(0, 14)
	w.WriteBits(0x3, 2)

	var got Code
	_, err := acTable.readCode(newTestCursor(w), &got)
	assert.True(t, errors.Is(err, ErrReadCorruption))
}

func TestAcTruncated(t *testing.T) {
	w := NewBitWriter(binary.LittleEndian, MSBFirst)
	w.WriteCode("000001")
	w.WriteBits(0x3F, 6)

	// the 10-bit level is cut short by the end of the data
	data := w.Bytes()
	c := NewBitCursor(data, 0, len(data), binary.LittleEndian, MSBFirst)

	var got Code
	_, err := acTable.readCode(c, &got)
	assert.True(t, errors.Is(err, ErrEndOfStream))
}

func TestBuildVlcTree(t *testing.T) {
	tests := []struct {
		name     string
		patterns []string
		ok       bool
	}{
		{"valid", []string{"0", "10", "11"}, true},
		{"prefix first", []string{"1", "10"}, false},
		{"prefix last", []string{"10", "1"}, false},
		{"duplicate", []string{"01", "01"}, false},
		{"empty", []string{""}, false},
		{"bad character", []string{"012"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			symbols := make([]int16, len(tt.patterns))
			for i := range symbols {
				symbols[i] = int16(i)
			}

			_, err := buildVlcTree(tt.patterns, symbols)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}

	_, err := newVlcTable("dup", "10", "000001", []vlcCode{{"11", 0, 1}, {"011", 0, 1}})
	assert.Error(t, err)
}

func TestDcSizeTables(t *testing.T) {
	tables := []struct {
		codes []string
		tree  []vlc
	}{
		{dcSizeLuminanceCodes, dcSizeLuminance},
		{dcSizeChrominanceCodes, dcSizeChrominance},
	}

	for _, tt := range tables {
		for size, code := range tt.codes {
			w := NewBitWriter(binary.LittleEndian, MSBFirst)
			w.WriteCode(code)

			got, err := readVlc(newTestCursor(w), tt.tree)
			require.NoError(t, err)
			assert.Equal(t, size, got)
		}

		// the v3 end-of-frame pattern must not decode as a size
		w := NewBitWriter(binary.LittleEndian, MSBFirst)
		w.WriteBits(endOfFrameV3, endOfFrameV3Bits)

		_, err := readVlc(newTestCursor(w), tt.tree)
		assert.True(t, errors.Is(err, ErrReadCorruption))
	}
}
