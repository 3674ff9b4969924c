package silhouette

import (
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// toMat copies m into a single channel CV_64F Mat.
func (m *Mask) toMat() (gocv.Mat, error) {
	mat := gocv.NewMatWithSize(m.Height, m.Width, gocv.MatTypeCV64F)
	data, err := mat.DataPtrFloat64()
	if err != nil {
		mat.Close()
		return gocv.Mat{}, errors.Wrap(err, "mask to mat")
	}
	copy(data, m.Values)
	return mat, nil
}

func maskFromMat(mat gocv.Mat) (*Mask, error) {
	data, err := mat.DataPtrFloat64()
	if err != nil {
		return nil, errors.Wrap(err, "mat to mask")
	}
	m := NewMask(mat.Cols(), mat.Rows())
	copy(m.Values, data)
	return m, nil
}

// paddedMat copies b into a CV_8U Mat (0/255) surrounded by a one pixel
// ring of background, so a 3x3 operation sees unset pixels outside b.
func (b *Binary) paddedMat() (gocv.Mat, error) {
	w := b.Width + 2
	mat := gocv.NewMatWithSize(b.Height+2, w, gocv.MatTypeCV8U)
	data, err := mat.DataPtrUint8()
	if err != nil {
		mat.Close()
		return gocv.Mat{}, errors.Wrap(err, "binary to mat")
	}

	clear(data)
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			if b.Bits[y*b.Width+x] {
				data[(y+1)*w+x+1] = 255
			}
		}
	}
	return mat, nil
}

// binaryFromPadded is the inverse of paddedMat.
func binaryFromPadded(mat gocv.Mat) (*Binary, error) {
	data, err := mat.DataPtrUint8()
	if err != nil {
		return nil, errors.Wrap(err, "mat to binary")
	}

	w := mat.Cols()
	b := NewBinary(w-2, mat.Rows()-2)
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			b.Bits[y*b.Width+x] = data[(y+1)*w+x+1] != 0
		}
	}
	return b, nil
}
