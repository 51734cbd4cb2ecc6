package mdec

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeWord(t *testing.T) {
	tests := []struct {
		code Code
		word uint16
	}{
		{EndOfBlock, EndOfData},
		{Code{5, -3}, 0x17FD},
		{Code{0, 0}, 0x0000},
		{Code{63, 511}, 0xFDFF},
		{Code{1, -512}, 0x0600},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.word, tt.code.Word(), "%v", tt.code)
		assert.Equal(t, tt.code, CodeFromWord(tt.word), "0x%04x", tt.word)
	}

	assert.True(t, CodeFromWord(EndOfData).IsEOD())
	assert.False(t, Code{63, 511}.IsEOD())
}

func TestCodeValid(t *testing.T) {
	assert.True(t, Code{0, -512}.Valid())
	assert.True(t, Code{63, 511}.Valid())
	assert.False(t, Code{64, 0}.Valid())
	assert.False(t, Code{-1, 0}.Valid())
	assert.False(t, Code{0, 512}.Valid())
	assert.False(t, Code{0, -513}.Valid())
}

func TestCodeString(t *testing.T) {
	assert.Equal(t, "EOD", EndOfBlock.String())
	assert.Equal(t, "(5, -3)", Code{5, -3}.String())
}

func TestCodeSlice(t *testing.T) {
	var s CodeSlice

	var w CodeWriter = &s
	require.NoError(t, w.WriteCode(Code{1, 2}))
	require.NoError(t, w.WriteCode(EndOfBlock))

	var r CodeReader = &s
	var got Code

	require.NoError(t, r.ReadCode(&got))
	assert.Equal(t, Code{1, 2}, got)
	require.NoError(t, r.ReadCode(&got))
	assert.Equal(t, EndOfBlock, got)

	err := r.ReadCode(&got)
	assert.True(t, errors.Is(err, ErrEndOfStream))
}
