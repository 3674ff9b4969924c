package silhouette

import (
	"image"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// Mask is a per-pixel coverage grid in [0, 1], stored row-major.
type Mask struct {
	Width, Height int
	Values        []float64
}

func NewMask(width, height int) *Mask {
	return &Mask{Width: width, Height: height, Values: make([]float64, width*height)}
}

// AlphaMask normalizes the alpha channel of img to [0, 1].
func AlphaMask(img *image.NRGBA) *Mask {
	b := img.Bounds()
	m := NewMask(b.Dx(), b.Dy())
	for y := 0; y < m.Height; y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < m.Width; x++ {
			m.Values[y*m.Width+x] = float64(row[x*4+3]) / 255.0
		}
	}
	return m
}

func (m *Mask) At(x, y int) float64 {
	return m.Values[y*m.Width+x]
}

func (m *Mask) Set(x, y int, v float64) {
	m.Values[y*m.Width+x] = v
}

func (m *Mask) Clone() *Mask {
	c := NewMask(m.Width, m.Height)
	copy(c.Values, m.Values)
	return c
}

// Threshold marks the pixels strictly above t.
func (m *Mask) Threshold(t float64) *Binary {
	b := NewBinary(m.Width, m.Height)
	for i, v := range m.Values {
		b.Bits[i] = v > t
	}
	return b
}

// GaussianBlur blurs m with a Gaussian truncated at 4 sigma. Borders are
// mirrored (d c b a | a b c d | d c b a).
func GaussianBlur(m *Mask, sigma float64) (*Mask, error) {
	if sigma <= 0 || m.Width == 0 || m.Height == 0 {
		return m.Clone(), nil
	}

	src, err := m.toMat()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	dst := gocv.NewMat()
	defer dst.Close()

	k := 2*int(4*sigma+0.5) + 1
	if err := gocv.GaussianBlur(src, &dst, image.Pt(k, k), sigma, sigma, gocv.BorderReflect); err != nil {
		return nil, errors.Wrap(err, "gaussian blur")
	}
	return maskFromMat(dst)
}

// Binary is a hard subject/background mask, stored row-major.
type Binary struct {
	Width, Height int
	Bits          []bool
}

func NewBinary(width, height int) *Binary {
	return &Binary{Width: width, Height: height, Bits: make([]bool, width*height)}
}

func (b *Binary) At(x, y int) bool {
	if x < 0 || y < 0 || x >= b.Width || y >= b.Height {
		return false
	}
	return b.Bits[y*b.Width+x]
}

func (b *Binary) Set(x, y int, v bool) {
	b.Bits[y*b.Width+x] = v
}

// Mask converts b to 0/1 coverage.
func (b *Binary) Mask() *Mask {
	m := NewMask(b.Width, b.Height)
	for i, v := range b.Bits {
		if v {
			m.Values[i] = 1
		}
	}
	return m
}

// Count returns the number of set pixels.
func (b *Binary) Count() int {
	n := 0
	for _, v := range b.Bits {
		if v {
			n++
		}
	}
	return n
}
