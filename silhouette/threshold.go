package silhouette

import (
	"image"

	"github.com/disintegration/imaging"
)

const DefaultThreshold = 128

// ThresholdAlpha builds a black image whose alpha is 255 where img is
// darker than threshold and 0 elsewhere.
func ThresholdAlpha(img image.Image, threshold int) *image.NRGBA {
	threshold = clamp(threshold, 0, 255)
	gray := imaging.Grayscale(img)
	out := image.NewNRGBA(gray.Rect)
	for i := 0; i < len(gray.Pix); i += 4 {
		if int(gray.Pix[i]) < threshold {
			out.Pix[i+3] = 255
		}
	}
	return out
}
