package mdec

// zigZag maps a zig-zag scan index to its natural (row-major) position.
var zigZag = [64]byte{
	0, 1, 8, 16, 9, 2, 3, 10,
	17, 24, 32, 25, 18, 11, 4, 5,
	12, 19, 26, 33, 40, 48, 41, 34,
	27, 20, 13, 6, 7, 14, 21, 28,
	35, 42, 49, 56, 57, 50, 43, 36,
	29, 22, 15, 23, 30, 37, 44, 51,
	58, 59, 52, 45, 38, 31, 39, 46,
	53, 60, 61, 54, 47, 55, 62, 63,
}

// naturalToZigZag is the inverse of zigZag.
var naturalToZigZag = func() (inv [64]byte) {
	for i, n := range zigZag {
		inv[n] = byte(i)
	}

	return inv
}()

// quantMatrix is the matrix the MDEC is loaded with, in natural order.
// It is the MPEG-1 intra matrix except for the DC entry.
var quantMatrix = [64]int32{
	2, 16, 19, 22, 26, 27, 29, 34,
	16, 16, 22, 24, 27, 29, 34, 37,
	19, 22, 26, 27, 29, 34, 34, 38,
	22, 22, 26, 27, 29, 34, 37, 40,
	22, 26, 27, 29, 32, 35, 40, 48,
	26, 27, 29, 32, 35, 40, 48, 58,
	26, 27, 29, 34, 38, 46, 56, 69,
	27, 29, 35, 38, 46, 56, 69, 83,
}

// ZigZag returns the natural position of zig-zag index i.
func ZigZag(i int) int {
	return int(zigZag[i])
}

// NaturalToZigZag returns the zig-zag index of natural position n.
func NaturalToZigZag(n int) int {
	return int(naturalToZigZag[n])
}

// QuantMatrix returns a copy of the quantization matrix in natural order.
func QuantMatrix() [64]int32 {
	return quantMatrix
}

// Dequantize expands a decoded block into a natural-order coefficient matrix.
// The DC term is scaled by the matrix only, AC terms by the matrix and the block's quantization scale,
// with truncating division. It returns the number of non-zero results and, when there is exactly one,
// its natural position (-1 otherwise).
func Dequantize(blk *Block, out *[64]int32) (nonZero, single int) {
	*out = [64]int32{}

	scale := int64(blk.QuantScale)
	single = -1

	for _, c := range blk.Coefficients {
		n := zigZag[c.Index]

		var v int64
		if c.Index == 0 {
			v = int64(c.Value) * int64(quantMatrix[0])
		} else {
			v = 2 * int64(c.Value) * int64(quantMatrix[n]) * scale / 16
		}

		if v != 0 {
			nonZero++
			single = int(n)
		}
		out[n] = int32(v)
	}

	if nonZero != 1 {
		single = -1
	}

	return nonZero, single
}
