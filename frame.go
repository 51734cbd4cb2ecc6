package mdec

import (
	"image"
	"image/color"
	"image/draw"
	"unsafe"
)

// Frame represents a decoded video frame.
type Frame struct {
	Time float64

	Width  int
	Height int

	Y  Plane
	Cb Plane
	Cr Plane

	imYCbCr image.YCbCr
	imRGBA  image.RGBA
}

// Plane represents a decoded video plane.
// The byte length of the data is width * height. The luma plane (Y) is four times the byte length
// of each chroma plane (Cr, Cb). Plane sizes are rounded up to the nearest macroblock (16px),
// so they do *not* denote the size of the displayed frame.
type Plane struct {
	Width  int
	Height int
	Data   []byte
}

// NewFrame allocates a frame for the given display size.
func NewFrame(width, height int) *Frame {
	f := &Frame{}
	f.init(width, height)

	return f
}

// YCbCr returns frame as image.YCbCr, cropped to the display size.
func (f *Frame) YCbCr() *image.YCbCr {
	return &f.imYCbCr
}

// RGBA returns frame as image.RGBA.
func (f *Frame) RGBA() *image.RGBA {
	if f.imRGBA.Pix == nil {
		f.imRGBA = image.RGBA{
			Pix:    make([]byte, f.Width*f.Height*4),
			Stride: 4 * f.Width,
			Rect:   image.Rect(0, 0, f.Width, f.Height),
		}
	}

	b := f.imYCbCr.Bounds()
	draw.Draw(&f.imRGBA, b, &f.imYCbCr, b.Min, draw.Src)

	return &f.imRGBA
}

// Pixels returns frame as slice of color.RGBA.
func (f *Frame) Pixels() []color.RGBA {
	img := f.RGBA()

	return unsafe.Slice((*color.RGBA)(unsafe.Pointer(&img.Pix[0])), len(img.Pix)/4)
}

func (f *Frame) init(width, height int) {
	mbWidth := (width + 15) >> 4
	mbHeight := (height + 15) >> 4

	lumaWidth := mbWidth << 4
	lumaHeight := mbHeight << 4
	chromaWidth := mbWidth << 3
	chromaHeight := mbHeight << 3

	lumaSize := lumaWidth * lumaHeight
	chromaSize := chromaWidth * chromaHeight
	frameSize := lumaSize + 2*chromaSize

	base := make([]byte, frameSize)

	f.Width = width
	f.Height = height

	f.Y = Plane{lumaWidth, lumaHeight, base[0:lumaSize:lumaSize]}
	f.Cb = Plane{chromaWidth, chromaHeight, base[lumaSize : lumaSize+chromaSize : lumaSize+chromaSize]}
	f.Cr = Plane{chromaWidth, chromaHeight, base[lumaSize+chromaSize : frameSize : frameSize]}

	f.imYCbCr = image.YCbCr{
		Y:              f.Y.Data,
		Cb:             f.Cb.Data,
		Cr:             f.Cr.Data,
		SubsampleRatio: image.YCbCrSubsampleRatio420,
		YStride:        lumaWidth,
		CStride:        chromaWidth,
		Rect:           image.Rect(0, 0, width, height),
	}

	f.imRGBA = image.RGBA{}
}

// clear fills every plane with the zero sample (128).
func (f *Frame) clear() {
	for i := range f.Y.Data {
		f.Y.Data[i] = 128
	}
	for i := range f.Cb.Data {
		f.Cb.Data[i] = 128
	}
	for i := range f.Cr.Data {
		f.Cr.Data[i] = 128
	}
}

// putBlock stores signed samples at index, adding the 128 bias and clamping.
func putBlock(block *[64]int32, dest []byte, index, stride int) {
	for n := 0; n < 64; n += 8 {
		dest[index+0] = clamp(block[n+0] + 128)
		dest[index+1] = clamp(block[n+1] + 128)
		dest[index+2] = clamp(block[n+2] + 128)
		dest[index+3] = clamp(block[n+3] + 128)
		dest[index+4] = clamp(block[n+4] + 128)
		dest[index+5] = clamp(block[n+5] + 128)
		dest[index+6] = clamp(block[n+6] + 128)
		dest[index+7] = clamp(block[n+7] + 128)

		index += stride
	}
}

func clamp(n int32) byte {
	if n > 255 {
		return 255
	} else if n < 0 {
		return 0
	}

	return byte(n)
}
