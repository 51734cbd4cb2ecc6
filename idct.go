package mdec

import "math"

// Inverse Discrete Cosine Transform (integer only)
//
// Every 1-D basis constant is scaled by 2^idctAxisBits, so a coefficient passing through
// the row and column transform is scaled by 2^idctConstBits. Inputs are scaled by
// 2^idctValBits and the sum is shifted right once at the very end. With no intermediate
// rounding the transform is linear in integers, which is what lets a single coefficient
// be looked up instead of transformed.
const (
	idctAxisBits  = 13
	idctConstBits = 2 * idctAxisBits
	idctValBits   = 2
	idctShift     = idctConstBits + idctValBits
)

// idctBasis[u][x] is c(u)/2 * cos((2x+1)*u*pi/16), c(0) = 1/sqrt(2), in fixed point.
var idctBasis = func() (b [8][8]int64) {
	for u := 0; u < 8; u++ {
		cu := 1.0
		if u == 0 {
			cu = 1 / math.Sqrt2
		}

		for x := 0; x < 8; x++ {
			v := cu / 2 * math.Cos(float64((2*x+1)*u)*math.Pi/16)
			b[u][x] = int64(math.Round(v * (1 << idctAxisBits)))
		}
	}

	return b
}()

// idctSingleTable[p] is the output of the transform for a unit coefficient at natural position p,
// before the final shift.
var idctSingleTable = func() (t [64][64]int64) {
	for v := 0; v < 8; v++ {
		for u := 0; u < 8; u++ {
			p := v*8 + u
			for y := 0; y < 8; y++ {
				for x := 0; x < 8; x++ {
					t[p][y*8+x] = idctBasis[v][y] * idctBasis[u][x]
				}
			}
		}
	}

	return t
}()

// IDCT transforms a natural-order dequantized block into signed samples.
// The output is not clamped.
func IDCT(in, out *[64]int32) {
	nonZero, single := 0, -1
	for n, v := range in {
		if v != 0 {
			nonZero++
			single = n
		}
	}

	idct(in, out, nonZero, single)
}

// idct picks the cheapest path for a block whose non-zero count is already known.
func idct(in, out *[64]int32, nonZero, single int) {
	switch nonZero {
	case 0:
		*out = [64]int32{}
	case 1:
		idctSingle(single, in[single], out)
	default:
		idctGeneral(in, out)
	}
}

func idctSingle(pos int, value int32, out *[64]int32) {
	scaled := int64(value) << idctValBits
	row := &idctSingleTable[pos]

	for i := range out {
		out[i] = int32((row[i] * scaled) >> idctShift)
	}
}

func idctGeneral(in, out *[64]int32) {
	var tmp [64]int64

	// Rows: horizontal frequencies to horizontal samples
	for v := 0; v < 64; v += 8 {
		r := in[v : v+8]
		if (r[0] | r[1] | r[2] | r[3] | r[4] | r[5] | r[6] | r[7]) == 0 {
			continue
		}

		for x := 0; x < 8; x++ {
			var sum int64
			for u := 0; u < 8; u++ {
				sum += idctBasis[u][x] * (int64(r[u]) << idctValBits)
			}
			tmp[v+x] = sum
		}
	}

	// Columns: vertical frequencies to vertical samples
	for x := 0; x < 8; x++ {
		for y := 0; y < 8; y++ {
			var sum int64
			for v := 0; v < 8; v++ {
				sum += idctBasis[v][y] * tmp[v*8+x]
			}
			out[y*8+x] = int32(sum >> idctShift)
		}
	}
}
