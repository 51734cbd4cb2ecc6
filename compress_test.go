package mdec

import (
	"math/rand"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allVersions = []Version{VersionRaw, VersionSTRv1, VersionSTRv2, VersionSTRv3}

// randomCodes builds complete macroblocks of codes that every version can represent.
func randomCodes(rng *rand.Rand, v Version, quantScale, macroblocks int) []Code {
	var codes []Code

	for mb := 0; mb < macroblocks; mb++ {
		for b := 0; b < blocksPerMacroblock; b++ {
			qs := quantScale
			if v == VersionRaw {
				qs = rng.Intn(64)
			}

			dc := rng.Intn(1024) - 512
			if v == VersionSTRv3 {
				dc &^= 3
			}
			codes = append(codes, Code{qs, dc})

			index := 0
			for {
				run := rng.Intn(4)
				if rng.Intn(8) == 0 {
					run = rng.Intn(64)
				}
				if index+run+1 > 63 || rng.Intn(16) == 0 {
					break
				}

				level := rng.Intn(9) - 4
				if rng.Intn(4) == 0 {
					level = rng.Intn(1024) - 512
				}

				codes = append(codes, Code{run, level})
				index += run + 1
			}

			codes = append(codes, EndOfBlock)
		}
	}

	return codes
}

func newTestUncompressor(t *testing.T, data []byte, v Version) *Uncompressor {
	t.Helper()

	var u *Uncompressor
	var err error
	if v.HasHeader() {
		u, err = NewUncompressor(data)
	} else {
		u, err = NewUncompressorVersion(data, v)
	}
	require.NoError(t, err)
	require.Equal(t, v, u.Version())

	return u
}

func TestCompressRoundTrip(t *testing.T) {
	for _, v := range allVersions {
		t.Run(v.String(), func(t *testing.T) {
			rng := rand.New(rand.NewSource(int64(v.Tag()) + 1))

			for _, qs := range []int{0, 1, 17, 63} {
				codes := randomCodes(rng, v, qs, 12)

				data, err := Compress(v, qs, codes)
				require.NoError(t, err)

				u := newTestUncompressor(t, data, v)
				if v.HasHeader() {
					assert.Equal(t, uint16(qs), u.Header().QuantScale)
				}

				var code Code
				for i, want := range codes {
					require.NoError(t, u.ReadCode(&code), "code %d", i)
					require.Equal(t, want, code, "code %d", i)
				}
				assert.Equal(t, len(codes), u.CodesRead())

				if _, n := v.endOfFrame(); n > 0 {
					assert.True(t, u.IsPadding())
					assert.True(t, u.SkipPadding())
				}
				assert.Less(t, u.BitsRemaining(), 16)
				assert.Equal(t, len(data), u.BytesConsumed())
			}
		})
	}
}

func TestCompressHeader(t *testing.T) {
	codes := randomCodes(rand.New(rand.NewSource(7)), VersionSTRv2, 9, 3)

	data, err := Compress(VersionSTRv2, 9, codes)
	require.NoError(t, err)

	h, err := ParseHeader(data)
	require.NoError(t, err)
	assert.Equal(t, uint16(Magic), h.Magic)
	assert.Equal(t, uint16(9), h.QuantScale)
	assert.Equal(t, uint16(2), h.Version)
	assert.Equal(t, runLengthCodeCount(len(codes)), h.RunLengthCodeCount)
	assert.Zero(t, len(data)%2)

	raw, err := Compress(VersionRaw, 9, codes)
	require.NoError(t, err)
	assert.Len(t, raw, 2*len(codes))
	assert.Equal(t, []byte{0x00, 0xFE}, raw[len(raw)-2:])
}

func TestCompressGoldenV2(t *testing.T) {
	codes := []Code{{1, 5}, {0, 1}, {1, -1}, EndOfBlock}
	for i := 1; i < blocksPerMacroblock; i++ {
		codes = append(codes, Code{1, 0}, EndOfBlock)
	}

	data, err := Compress(VersionSTRv2, 1, codes)
	require.NoError(t, err)

	// 0000000101 110 0111 10, then five blocks of 0000000000 10
	want := []byte{0x73, 0x01, 0x04, 0xC0, 0x40, 0x00, 0x00, 0x04, 0x04, 0x40}
	assert.Equal(t, want, data[HeaderSize:])
}

func TestCompressGoldenV3(t *testing.T) {
	dcs := []int{4, 0, -4, -4, 0, 0}

	var codes []Code
	for _, dc := range dcs {
		codes = append(codes, Code{2, dc}, EndOfBlock)
	}

	data, err := Compress(VersionSTRv3, 2, codes)
	require.NoError(t, err)

	// 011 10 | 00 10 | 000 10 | 100 10 | 001 10 | 100 10 | 1111111110
	assert.Equal(t, []byte{0x0A, 0x71, 0x97, 0x46, 0x00, 0xFC}, data[HeaderSize:])

	u := newTestUncompressor(t, data, VersionSTRv3)
	blk := Block{}
	for i, dc := range dcs {
		require.NoError(t, u.DecodeBlock(&blk))
		assert.Equal(t, 2, blk.QuantScale)
		assert.Equal(t, []Coefficient{{0, dc}}, blk.Coefficients, "block %d", i)
	}
	assert.True(t, u.IsPadding())
}

func TestCompressEscapeBoundary(t *testing.T) {
	for _, v := range allVersions {
		t.Run(v.String(), func(t *testing.T) {
			codes := []Code{
				{4, -512}, {0, 511}, {0, -512}, {60, -512}, EndOfBlock,
				{4, 508}, {62, 511}, EndOfBlock,
				{4, 0}, EndOfBlock,
				{4, 0}, {0, 0}, {61, 1}, EndOfBlock,
				{4, 0}, EndOfBlock,
				{4, 0}, EndOfBlock,
			}

			data, err := Compress(v, 4, codes)
			require.NoError(t, err)

			u := newTestUncompressor(t, data, v)

			var code Code
			for i, want := range codes {
				require.NoError(t, u.ReadCode(&code))
				assert.Equal(t, want, code, "code %d", i)
			}
		})
	}
}

func TestCompressTooMuchEnergy(t *testing.T) {
	tests := []struct {
		name  string
		v     Version
		codes []Code
		err   error
	}{
		{"level 512", VersionSTRv2, []Code{{1, 0}, {0, 512}}, ErrTooMuchEnergy},
		{"level -513", VersionSTRv2, []Code{{1, 0}, {0, -513}}, ErrTooMuchEnergy},
		{"dc 512", VersionSTRv2, []Code{{1, 512}}, ErrTooMuchEnergy},
		{"run 64", VersionSTRv2, []Code{{1, 0}, {64, 1}}, ErrTooMuchEnergy},
		{"past block end", VersionSTRv2, []Code{{1, 0}, {62, 1}, {0, 1}}, ErrTooMuchEnergy},
		{"run 63", VersionRaw, []Code{{1, 0}, {63, 1}}, ErrTooMuchEnergy},
		{"v3 dc", VersionSTRv3, []Code{{1, 6}}, ErrTooMuchEnergy},
		{"scale mismatch", VersionSTRv2, []Code{{1, 0}, EndOfBlock, {2, 0}}, ErrQuantScaleMismatch},
		{"v1 scale mismatch", VersionSTRv1, []Code{{0, 0}}, ErrQuantScaleMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewCompressor(tt.v, 1)
			require.NoError(t, err)

			var last error
			for _, code := range tt.codes {
				if last = c.WriteCode(code); last != nil {
					break
				}
			}
			assert.True(t, errors.Is(last, tt.err), "got %v", last)

			// the error sticks and no partial frame comes out
			assert.Equal(t, last, c.WriteCode(EndOfBlock))
			out, err := c.Finish()
			assert.Nil(t, out)
			assert.Equal(t, last, err)
		})
	}
}

func TestCompressorErrors(t *testing.T) {
	_, err := NewCompressor(VersionSTRv2, 64)
	assert.True(t, errors.Is(err, ErrInvalidHeader))

	c, err := NewCompressor(VersionSTRv2, 1)
	require.NoError(t, err)
	require.NoError(t, c.WriteCode(Code{1, 0}))
	_, err = c.Finish()
	assert.Error(t, err)

	c, err = NewCompressor(VersionSTRv2, 1)
	require.NoError(t, err)
	out, err := c.Finish()
	require.NoError(t, err)
	assert.Len(t, out, HeaderSize)

	again, err := c.Finish()
	require.NoError(t, err)
	assert.Equal(t, out, again)
	assert.Error(t, c.WriteCode(Code{1, 0}))
}

func TestCompressWriteBlock(t *testing.T) {
	var blocks [blocksPerMacroblock][64]int
	blocks[BlockCr][0] = 12
	blocks[BlockCr][1] = -3
	blocks[BlockCr][63] = 1
	blocks[BlockY1][0] = -8
	blocks[BlockY1][8] = 200
	blocks[BlockY4][27] = -511

	c, err := NewCompressor(VersionSTRv3, 5)
	require.NoError(t, err)

	for i := range blocks {
		require.NoError(t, c.WriteBlock(&blocks[i], 5))
	}
	assert.Equal(t, 1, c.Macroblocks())

	data, err := c.Finish()
	require.NoError(t, err)

	u := newTestUncompressor(t, data, VersionSTRv3)

	var blk Block
	for i := range blocks {
		require.NoError(t, u.DecodeBlock(&blk))
		assert.Equal(t, 5, blk.QuantScale)

		var got [64]int
		for _, c := range blk.Coefficients {
			got[ZigZag(c.Index)] = c.Value
		}
		assert.Equal(t, blocks[i], got, "block %d", i)
	}
}

func TestUncompressCorruption(t *testing.T) {
	t.Run("invalid ac", func(t *testing.T) {
		w := NewBitWriter(VersionSTRv2.ByteOrder(), VersionSTRv2.BitOrder())
		w.WriteSigned(5, 10)
		w.WriteBits(0, 22)

		data := append(FrameHeader{Magic: Magic, QuantScale: 1, Version: 2}.Bytes(), w.Bytes()...)
		u := newTestUncompressor(t, data, VersionSTRv2)

		var code Code
		require.NoError(t, u.ReadCode(&code))
		assert.Equal(t, Code{1, 5}, code)

		err := u.ReadCode(&code)
		assert.True(t, errors.Is(err, ErrReadCorruption), "got %v", err)
	})

	t.Run("v3 dc range", func(t *testing.T) {
		w := NewBitWriter(VersionSTRv3.ByteOrder(), VersionSTRv3.BitOrder())
		w.WriteCode(dcSizeChrominanceCodes[8])
		w.WriteBits(0, 8)

		data := append(FrameHeader{Magic: Magic, QuantScale: 1, Version: 3}.Bytes(), w.Bytes()...)
		u := newTestUncompressor(t, data, VersionSTRv3)

		var code Code
		err := u.ReadCode(&code)
		assert.True(t, errors.Is(err, ErrReadCorruption), "got %v", err)
	})

	t.Run("past block end", func(t *testing.T) {
		codes := []Code{{1, 0}, {62, 1}, {0, 1}, EndOfBlock}

		w := NewBitWriter(VersionSTRv2.ByteOrder(), VersionSTRv2.BitOrder())
		var s dcState
		s.reset(1)
		require.NoError(t, VersionSTRv2.writeDC(w, &s, 0, codes[0]))
		for _, c := range codes[1:3] {
			VersionSTRv2.writeAC(w, c)
		}
		VersionSTRv2.writeEndOfBlock(w)

		data := append(FrameHeader{Magic: Magic, QuantScale: 1, Version: 2}.Bytes(), w.Bytes()...)
		u := newTestUncompressor(t, data, VersionSTRv2)

		var blk Block
		err := u.DecodeBlock(&blk)
		assert.True(t, errors.Is(err, ErrReadCorruption), "got %v", err)
	})

	t.Run("truncated", func(t *testing.T) {
		codes := randomCodes(rand.New(rand.NewSource(3)), VersionSTRv2, 3, 2)
		data, err := Compress(VersionSTRv2, 3, codes)
		require.NoError(t, err)

		u := newTestUncompressor(t, data[:len(data)/2], VersionSTRv2)

		var code Code
		for err == nil {
			err = u.ReadCode(&code)
		}
		assert.True(t, errors.Is(err, ErrEndOfStream), "got %v", err)
	})
}

func TestUncompressReset(t *testing.T) {
	codes := randomCodes(rand.New(rand.NewSource(11)), VersionSTRv3, 6, 2)
	data, err := Compress(VersionSTRv3, 6, codes)
	require.NoError(t, err)

	u := newTestUncompressor(t, data, VersionSTRv3)

	var first, again Block
	require.NoError(t, u.DecodeBlock(&first))
	require.NoError(t, u.DecodeBlock(&again))

	var code Code
	require.NoError(t, u.ReadCode(&code))
	assert.Error(t, u.DecodeBlock(&again))

	u.Reset()
	assert.Zero(t, u.CodesRead())

	require.NoError(t, u.DecodeBlock(&again))
	assert.Equal(t, first, again)
}
