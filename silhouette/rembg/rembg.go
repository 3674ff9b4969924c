package rembg

import (
	"context"
	"image"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"

	"github.com/chaos-io/silhouette/util"
)

// ErrUnavailable means no background removal backend can be reached.
// Callers may fall back to a method that does not need one.
var ErrUnavailable = errors.New("background remover unavailable")

// Remover isolates the subject of an encoded image. The returned image has
// alpha 0 outside the subject.
type Remover interface {
	Remove(ctx context.Context, data []byte) (*image.NRGBA, error)
}

// New returns a Server remover for baseURL, or an Unavailable one when
// baseURL is empty.
func New(baseURL string, opts ...Option) Remover {
	if baseURL == "" {
		return Unavailable{Reason: "no rembg server configured"}
	}
	return NewServer(baseURL, opts...)
}

// Passthrough decodes the input and keeps whatever alpha it already has.
type Passthrough struct{}

func NewPassthrough() *Passthrough {
	return &Passthrough{}
}

func (p *Passthrough) Remove(_ context.Context, data []byte) (*image.NRGBA, error) {
	img, err := util.DecodeImage(data)
	if err != nil {
		return nil, err
	}
	return imaging.Clone(img), nil
}

// Unavailable always reports ErrUnavailable.
type Unavailable struct {
	Reason string
}

func (u Unavailable) Remove(context.Context, []byte) (*image.NRGBA, error) {
	if u.Reason == "" {
		return nil, ErrUnavailable
	}
	return nil, errors.Wrap(ErrUnavailable, u.Reason)
}
