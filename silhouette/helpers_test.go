package silhouette

import (
	"image"
)

// squareImage returns a transparent w x h image with an opaque black square
// covering [x0, x0+size) x [y0, y0+size).
func squareImage(w, h, x0, y0, size int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := y0; y < y0+size; y++ {
		for x := x0; x < x0+size; x++ {
			img.Pix[y*img.Stride+x*4+3] = 255
		}
	}
	return img
}

// whiteImage returns an opaque white w x h image.
func whiteImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	return img
}

// checkerboard returns a binary mask of block x block squares, set where
// (bx+by) is even.
func checkerboard(w, h, block int) *Binary {
	b := NewBinary(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			b.Set(x, y, (x/block+y/block)%2 == 0)
		}
	}
	return b
}
