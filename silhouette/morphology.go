package silhouette

import (
	"image"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// morph runs op with a cross shaped 3x3 element (4-connectivity). Pixels
// outside the image count as unset.
func morph(b *Binary, name string, op func(src gocv.Mat, dst *gocv.Mat, kernel gocv.Mat) error) (*Binary, error) {
	if b.Width == 0 || b.Height == 0 {
		return NewBinary(b.Width, b.Height), nil
	}

	src, err := b.paddedMat()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	kernel := gocv.GetStructuringElement(gocv.MorphCross, image.Pt(3, 3))
	defer kernel.Close()

	dst := gocv.NewMat()
	defer dst.Close()

	if err := op(src, &dst, kernel); err != nil {
		return nil, errors.Wrap(err, name)
	}
	return binaryFromPadded(dst)
}

// Erode keeps a pixel only when it and its four neighbours are set.
func Erode(b *Binary) (*Binary, error) {
	return morph(b, "erode", gocv.Erode)
}

// Dilate sets a pixel when it or any of its four neighbours is set.
func Dilate(b *Binary) (*Binary, error) {
	return morph(b, "dilate", gocv.Dilate)
}

// Open removes specks smaller than the structuring element.
func Open(b *Binary) (*Binary, error) {
	return morph(b, "open", func(src gocv.Mat, dst *gocv.Mat, kernel gocv.Mat) error {
		return gocv.MorphologyEx(src, dst, gocv.MorphOpen, kernel)
	})
}

// Close fills gaps smaller than the structuring element. It is composed
// from two passes so the dilation never leaks into the background ring.
func Close(b *Binary) (*Binary, error) {
	d, err := Dilate(b)
	if err != nil {
		return nil, err
	}
	return Erode(d)
}
