// Package mdec implements a decoder and encoder for the PlayStation MDEC video bitstream.
//
// PlayStation video frames (as found in STR files) are a run-length/VLC coded list of 8x8 DCT blocks,
// grouped into macroblocks of six blocks (Cr, Cb, Y1, Y2, Y3, Y4) that the console's MDEC chip
// dequantizes and inverse transforms. This package does the same in software.
//
// Sector reading and demuxing are not handled here: a frame is expected as one contiguous buffer,
// starting with its 8-byte FrameHeader, and its dimensions must be known up front.
//
// The simplest way to decode a frame is Decode(), which returns a Frame with Y, Cb and Cr planes.
// You can get image.YCbCr via YCbCr(), or convert to image.RGBA on the CPU via RGBA().
// For finer control, NewDecoder() decodes one macroblock at a time and NewUncompressor() exposes
// the raw MDEC codes of a frame.
//
// The Compressor goes the other way: it turns MDEC codes back into a bitstream that decodes to
// exactly the same codes, failing with ErrTooMuchEnergy rather than writing anything the decoder
// could not reproduce. This is what replacing video in a disc image needs.
//
// Bit-level decoding of a frame is sequential. Independent frames can be decoded in parallel
// with DecodeFrames(), each frame using its own Decoder.
package mdec

import (
	"context"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Decode decodes a single frame with a header-declared version.
func Decode(data []byte, width, height int) (*Frame, error) {
	d, err := NewDecoder(data, width, height)
	if err != nil {
		return nil, err
	}

	return d.Decode()
}

// DecodeFrames decodes independent frames of the same size concurrently, using at most
// workers goroutines (all CPUs if workers <= 0). Frames are returned in input order.
// The first error cancels the frames not yet started and is returned with the frame index.
func DecodeFrames(ctx context.Context, frames [][]byte, width, height, workers int) ([]*Frame, error) {
	out := make([]*Frame, len(frames))

	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}

	for i, data := range frames {
		i, data := i, data

		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			frame, err := Decode(data, width, height)
			if err != nil {
				return errors.Wrapf(err, "frame %d", i)
			}

			out[i] = frame

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return out, nil
}
