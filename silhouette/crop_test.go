package silhouette

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCrop_SquareWithPadding(t *testing.T) {
	t.Parallel()

	src := squareImage(200, 200, 75, 75, 50)

	box, ok := DetectBBox(src)
	require.True(t, ok)
	assert.Equal(t, BBox{Top: 75, Bottom: 124, Left: 75, Right: 124}, box)
	assert.Equal(t, image.Rect(65, 65, 135, 135), box.Rect(10, DefaultMinSize, src.Bounds()))

	res := Crop(src, 10, DefaultMinSize)
	require.Equal(t, Applied, res.Outcome)
	assert.Equal(t, image.Rect(0, 0, 70, 70), res.Image.Bounds())
	assert.Zero(t, res.Image.(*image.NRGBA).NRGBAAt(9, 9).A)
	assert.Equal(t, uint8(255), res.Image.(*image.NRGBA).NRGBAAt(10, 10).A)
}

func TestCrop_PaddingClampedToBounds(t *testing.T) {
	t.Parallel()

	src := squareImage(100, 100, 0, 40, 60)
	res := Crop(src, 10, DefaultMinSize)
	require.Equal(t, Applied, res.Outcome)
	assert.Equal(t, image.Rect(0, 0, 70, 70), res.Image.Bounds())
}

func TestCrop_NothingDetected(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		img  *image.NRGBA
	}{
		{name: "fully transparent", img: image.NewNRGBA(image.Rect(0, 0, 80, 60))},
		{name: "faint alpha only", img: func() *image.NRGBA {
			img := image.NewNRGBA(image.Rect(0, 0, 80, 60))
			for i := 3; i < len(img.Pix); i += 4 {
				img.Pix[i] = 25
			}
			return img
		}()},
		{name: "near white opaque", img: func() *image.NRGBA {
			img := whiteImage(80, 60)
			img.SetNRGBA(10, 10, color.NRGBA{R: 240, G: 240, B: 240, A: 255})
			return img
		}()},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			res := Crop(tt.img, 10, DefaultMinSize)
			assert.Equal(t, Skipped, res.Outcome)
			assert.NoError(t, res.Err)
			assert.Same(t, tt.img, res.Image)
			assert.Equal(t, image.Rect(0, 0, 80, 60), res.Image.Bounds())
		})
	}
}

func TestCrop_OpaqueUsesBrightness(t *testing.T) {
	t.Parallel()

	src := whiteImage(120, 120)
	for y := 40; y < 100; y++ {
		for x := 30; x < 90; x++ {
			src.SetNRGBA(x, y, color.NRGBA{R: 20, G: 20, B: 20, A: 255})
		}
	}

	res := Crop(src, 5, DefaultMinSize)
	require.Equal(t, Applied, res.Outcome)
	assert.Equal(t, image.Rect(0, 0, 70, 70), res.Image.Bounds())
}

func TestCrop_MinSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		w, h    int
		x, y    int
		padding int
		minSize int
		want    image.Point
	}{
		{name: "single pixel centre", w: 120, h: 80, x: 60, y: 40, minSize: 50, want: image.Pt(50, 50)},
		{name: "single pixel corner", w: 120, h: 80, x: 0, y: 0, minSize: 50, want: image.Pt(50, 50)},
		{name: "single pixel far corner", w: 120, h: 80, x: 119, y: 79, padding: 3, minSize: 50, want: image.Pt(50, 50)},
		{name: "narrow source", w: 30, h: 200, x: 15, y: 100, minSize: 50, want: image.Pt(30, 50)},
		{name: "source smaller than min", w: 20, h: 20, x: 3, y: 3, minSize: 50, want: image.Pt(20, 20)},
		{name: "padding already large enough", w: 200, h: 200, x: 100, y: 100, padding: 40, minSize: 50, want: image.Pt(81, 81)},
		{name: "default min size", w: 100, h: 100, x: 50, y: 50, minSize: 0, want: image.Pt(50, 50)},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			src := squareImage(tt.w, tt.h, tt.x, tt.y, 1)
			res := Crop(src, tt.padding, tt.minSize)
			require.Equal(t, Applied, res.Outcome)

			size := res.Image.Bounds().Size()
			assert.Equal(t, tt.want, size)
			assert.LessOrEqual(t, size.X, tt.w)
			assert.LessOrEqual(t, size.Y, tt.h)
		})
	}
}

func TestCrop_KeepsSubjectInside(t *testing.T) {
	t.Parallel()

	src := squareImage(120, 80, 118, 2, 2)
	res := Crop(src, 0, DefaultMinSize)
	require.Equal(t, Applied, res.Outcome)

	out := res.Image.(*image.NRGBA)
	box, ok := DetectBBox(out)
	require.True(t, ok)
	assert.Equal(t, 4, (box.Right-box.Left+1)*(box.Bottom-box.Top+1))
}

func TestCrop_NilIsRecovered(t *testing.T) {
	t.Parallel()

	res := Crop(nil, 0, DefaultMinSize)
	assert.Equal(t, Recovered, res.Outcome)
	assert.Error(t, res.Err)
}

func TestCrop_MalformedImageIsRecovered(t *testing.T) {
	t.Parallel()

	src := &image.NRGBA{Pix: make([]uint8, 8), Stride: 40, Rect: image.Rect(0, 0, 10, 10)}
	res := Crop(src, 10, DefaultMinSize)
	assert.Equal(t, Recovered, res.Outcome)
	assert.Error(t, res.Err)
	assert.Same(t, src, res.Image)
}

func TestHasUsefulAlpha_OnlyReadsBounds(t *testing.T) {
	t.Parallel()

	// opaque top-left quarter of an otherwise clear image
	full := image.NewNRGBA(image.Rect(0, 0, 20, 20))
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			full.SetNRGBA(x, y, color.NRGBA{A: 255})
		}
	}

	tests := []struct {
		name string
		img  *image.NRGBA
		want bool
	}{
		{"opaque quarter", full.SubImage(image.Rect(0, 0, 10, 10)).(*image.NRGBA), false},
		{"offset opaque quarter", full.SubImage(image.Rect(2, 3, 8, 9)).(*image.NRGBA), false},
		{"straddles clear area", full.SubImage(image.Rect(5, 5, 15, 15)).(*image.NRGBA), true},
		{"whole image", full, true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, hasUsefulAlpha(tt.img))
		})
	}
}
