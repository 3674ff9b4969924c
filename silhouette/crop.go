package silhouette

import (
	"image"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/chaos-io/silhouette/util"
)

const (
	DefaultMinSize = 50

	// alpha above this counts as subject on images with transparency
	alphaCutoff = 25
	// mean brightness below this counts as subject on opaque images
	brightnessCutoff = 240
)

// BBox holds the inclusive min/max rows and columns of the subject.
type BBox struct {
	Top, Bottom, Left, Right int
}

// DetectBBox finds the subject of img. Images carrying transparency are
// read through their alpha channel, opaque ones through brightness.
func DetectBBox(img *image.NRGBA) (BBox, bool) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	useAlpha := hasUsefulAlpha(img)

	box := BBox{Top: h, Bottom: -1, Left: w, Right: -1}
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < w; x++ {
			p := row[x*4 : x*4+4 : x*4+4]
			var subject bool
			if useAlpha {
				subject = p[3] > alphaCutoff
			} else {
				subject = int(p[0])+int(p[1])+int(p[2]) < 3*brightnessCutoff
			}
			if !subject {
				continue
			}
			box.Top = min(box.Top, y)
			box.Bottom = max(box.Bottom, y)
			box.Left = min(box.Left, x)
			box.Right = max(box.Right, x)
		}
	}

	if box.Bottom < 0 {
		return BBox{}, false
	}
	return box, true
}

// Rect expands the box by padding, clamps it to bounds and grows any side
// shorter than minSize, as far as bounds allow.
func (b BBox) Rect(padding, minSize int, bounds image.Rectangle) image.Rectangle {
	padding = max(padding, 0)
	r := image.Rect(
		b.Left-padding, b.Top-padding,
		b.Right+1+padding, b.Bottom+1+padding,
	).Intersect(bounds)

	r.Min.X, r.Max.X = growSpan(r.Min.X, r.Max.X, minSize, bounds.Min.X, bounds.Max.X)
	r.Min.Y, r.Max.Y = growSpan(r.Min.Y, r.Max.Y, minSize, bounds.Min.Y, bounds.Max.Y)
	return r
}

func growSpan(lo, hi, size, floor, ceil int) (int, int) {
	if hi-lo >= size {
		return lo, hi
	}
	deficit := size - (hi - lo)
	lo -= deficit / 2
	hi += deficit - deficit/2

	if lo < floor {
		hi += floor - lo
		lo = floor
	}
	if hi > ceil {
		lo -= hi - ceil
		hi = ceil
	}
	return max(lo, floor), hi
}

// Crop cuts img down to its subject plus padding. When nothing is detected
// the input comes back with Outcome Skipped; failures give Recovered.
func Crop(img image.Image, padding, minSize int) (res Result) {
	if img == nil {
		return Result{Outcome: Recovered, Err: errors.New("crop: nil image")}
	}
	if minSize <= 0 {
		minSize = DefaultMinSize
	}

	defer func() {
		if r := recover(); r != nil {
			err := errors.Errorf("crop: %v", r)
			util.Logger.Error("subject crop failed, keeping uncropped image", zap.Error(err))
			res = Result{Image: img, Outcome: Recovered, Err: err}
		}
	}()

	src := toNRGBA(img)
	box, ok := DetectBBox(src)
	if !ok {
		util.Logger.Info("no subject detected, skipping crop")
		return Result{Image: img, Outcome: Skipped}
	}

	rect := box.Rect(padding, minSize, src.Bounds())
	util.Logger.Debug("cropping to subject",
		zap.Int("left", rect.Min.X), zap.Int("top", rect.Min.Y),
		zap.Int("width", rect.Dx()), zap.Int("height", rect.Dy()))

	return Result{Image: imaging.Crop(src, rect), Outcome: Applied}
}
