package ffmpegcodec

import (
	"image"

	"golang.org/x/image/draw"
)

// scaleRGB resizes a packed rgb24 picture with bilinear filtering.
func scaleRGB(src []byte, sw, sh, dw, dh int) []byte {
	in := image.NewRGBA(image.Rect(0, 0, sw, sh))
	for i, j := 0, 0; i+2 < len(src) && j+3 < len(in.Pix); i, j = i+3, j+4 {
		in.Pix[j] = src[i]
		in.Pix[j+1] = src[i+1]
		in.Pix[j+2] = src[i+2]
		in.Pix[j+3] = 0xff
	}

	out := image.NewRGBA(image.Rect(0, 0, dw, dh))
	draw.BiLinear.Scale(out, out.Bounds(), in, in.Bounds(), draw.Src, nil)

	dst := make([]byte, dw*dh*3)
	for i, j := 0, 0; i+2 < len(dst); i, j = i+3, j+4 {
		dst[i] = out.Pix[j]
		dst[i+1] = out.Pix[j+1]
		dst[i+2] = out.Pix[j+2]
	}
	return dst
}
