package silhouette

import (
	"image"
	"math"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/chaos-io/silhouette/util"
)

// Background is what the silhouette is composited on.
type Background string

const (
	White       Background = "white"
	Transparent Background = "transparent"
)

func ParseBackground(s string) (Background, error) {
	switch Background(strings.ToLower(s)) {
	case White:
		return White, nil
	case Transparent:
		return Transparent, nil
	}
	return "", errors.Errorf("unknown background %q (want white or transparent)", s)
}

const (
	MinBlurRadius     = 1
	MaxBlurRadius     = 8
	DefaultBlurRadius = 4

	vectorThreshold = 0.3
	vectorSigma     = 0.3

	softCutoff   = 0.05
	vectorCutoff = 0.1
)

// PIL's SMOOTH and SMOOTH_MORE kernels.
var (
	smoothKernel = [9]float64{
		1, 1, 1,
		1, 5, 1,
		1, 1, 1,
	}
	smoothMoreKernel = [25]float64{
		1, 1, 1, 1, 1,
		1, 5, 5, 5, 1,
		1, 5, 44, 5, 1,
		1, 5, 5, 5, 1,
		1, 1, 1, 1, 1,
	}
)

type FilterOptions struct {
	Background  Background
	Smooth      bool
	BlurRadius  int
	VectorStyle bool
}

// Cutoff is the mask value below which a transparent composite stays fully transparent.
func (o FilterOptions) Cutoff() float64 {
	if o.VectorStyle {
		return vectorCutoff
	}
	return softCutoff
}

// Filter renders the subject of img (its alpha channel) as a black silhouette.
// It never fails: on error the input is returned with Outcome Recovered.
func Filter(img image.Image, opts FilterOptions) (res Result) {
	if img == nil {
		return Result{Outcome: Recovered, Err: errors.New("filter: nil image")}
	}

	defer func() {
		if r := recover(); r != nil {
			err := errors.Errorf("filter: %v", r)
			util.Logger.Error("silhouette filter failed, keeping original image", zap.Error(err))
			res = Result{Image: img, Outcome: Recovered, Err: err}
		}
	}()

	src := toNRGBA(img)
	mask, err := BuildMask(AlphaMask(src), opts)
	if err != nil {
		util.Logger.Error("silhouette mask failed, keeping original image", zap.Error(err))
		return Result{Image: img, Outcome: Recovered, Err: err}
	}
	out := Composite(mask, opts.Background, opts.Cutoff())
	out = smoothComposite(out, mask, opts)

	return Result{Image: out, Outcome: Applied}
}

// BuildMask turns a raw alpha mask into the silhouette coverage for opts.
func BuildMask(alpha *Mask, opts FilterOptions) (*Mask, error) {
	switch {
	case opts.VectorStyle:
		util.Logger.Debug("vector style mask")
		bin := alpha.Threshold(vectorThreshold)
		var err error
		for _, op := range []func(*Binary) (*Binary, error){Open, Close, Erode, Dilate} {
			if bin, err = op(bin); err != nil {
				return nil, err
			}
		}
		return GaussianBlur(bin.Mask(), vectorSigma)
	case opts.Smooth:
		r := float64(clamp(opts.BlurRadius, MinBlurRadius, MaxBlurRadius))
		util.Logger.Debug("smoothing edges", zap.Float64("sigma", r))
		m := alpha
		for _, sigma := range []float64{r, r / 2, r / 4} {
			var err error
			if m, err = GaussianBlur(m, sigma); err != nil {
				return nil, err
			}
		}
		return m, nil
	default:
		return alpha.Threshold(0).Mask(), nil
	}
}

// Composite paints mask in black. On a white background the result is
// opaque with every channel at 255*(1-mask); on a transparent one the
// alpha follows the mask and pixels under cutoff are left fully clear.
func Composite(mask *Mask, bg Background, cutoff float64) *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, mask.Width, mask.Height))
	for i, v := range mask.Values {
		p := out.Pix[i*4 : i*4+4 : i*4+4]
		if bg == Transparent {
			if v < cutoff {
				continue
			}
			p[3] = toByte(v)
			continue
		}
		c := toByte(1 - v)
		p[0], p[1], p[2], p[3] = c, c, c, 255
	}
	return out
}

// smoothComposite softens the composite edges. Pixels whose mask is under
// the cutoff stay fully clear on a transparent background.
func smoothComposite(img *image.NRGBA, mask *Mask, opts FilterOptions) *image.NRGBA {
	normalize := &imaging.ConvolveOptions{Normalize: true}
	switch {
	case opts.VectorStyle:
		if opts.Background != Transparent {
			img = imaging.Convolve3x3(img, smoothKernel, normalize)
		}
	case opts.Smooth:
		if opts.Background == Transparent {
			img = imaging.Blur(img, 1.5)
			img = imaging.Blur(img, 0.8)
			clearBelow(img, mask, opts.Cutoff())
		} else {
			img = imaging.Convolve5x5(img, smoothMoreKernel, normalize)
			img = imaging.Convolve3x3(img, smoothKernel, normalize)
		}
	}
	return img
}

func clearBelow(img *image.NRGBA, mask *Mask, cutoff float64) {
	for i, v := range mask.Values {
		if v < cutoff {
			p := img.Pix[i*4 : i*4+4 : i*4+4]
			p[0], p[1], p[2], p[3] = 0, 0, 0, 0
		}
	}
}

func toByte(v float64) uint8 {
	return uint8(math.Round(math.Max(0, math.Min(1, v)) * 255))
}
