package silhouette

import (
	"context"
	"image"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/chaos-io/silhouette/silhouette/rembg"
	"github.com/chaos-io/silhouette/util"
)

// Method selects how the subject is separated from the background.
type Method string

const (
	// MethodAuto uses the background remover.
	MethodAuto Method = "auto"
	// MethodSimple thresholds the grayscale image.
	MethodSimple Method = "simple"
)

func ParseMethod(s string) (Method, error) {
	switch Method(strings.ToLower(s)) {
	case MethodAuto:
		return MethodAuto, nil
	case MethodSimple:
		return MethodSimple, nil
	}
	return "", errors.Errorf("unknown method %q (want auto or simple)", s)
}

// Options are the processing parameters of one invocation.
type Options struct {
	Method      Method
	Background  Background
	Threshold   int
	Smooth      bool
	BlurRadius  int
	VectorStyle bool
	Crop        bool
	Padding     int
	MinSize     int
}

func DefaultOptions() Options {
	return Options{
		Method:      MethodAuto,
		Background:  White,
		Threshold:   DefaultThreshold,
		Smooth:      true,
		BlurRadius:  DefaultBlurRadius,
		VectorStyle: true,
		Padding:     10,
		MinSize:     DefaultMinSize,
	}
}

// Normalize fills unset fields and clamps the numeric ones into range.
// A zero Threshold or BlurRadius counts as unset and takes the default.
func (o Options) Normalize() Options {
	if o.Method == "" {
		o.Method = MethodAuto
	}
	if o.Background == "" {
		o.Background = White
	}
	if o.Threshold == 0 {
		o.Threshold = DefaultThreshold
	}
	o.Threshold = clamp(o.Threshold, 1, 255)
	if o.BlurRadius == 0 {
		o.BlurRadius = DefaultBlurRadius
	}
	o.BlurRadius = clamp(o.BlurRadius, MinBlurRadius, MaxBlurRadius)
	o.Padding = max(o.Padding, 0)
	if o.MinSize <= 0 {
		o.MinSize = DefaultMinSize
	}
	return o
}

func (o Options) filter() FilterOptions {
	return FilterOptions{
		Background:  o.Background,
		Smooth:      o.Smooth,
		BlurRadius:  o.BlurRadius,
		VectorStyle: o.VectorStyle,
	}
}

// Generator runs load -> extract -> filter -> crop -> save. It keeps no
// state between calls and is safe for concurrent use if its Remover is.
type Generator struct {
	Remover rembg.Remover
}

// NewGenerator returns a Generator using remover; nil means no model is
// available and auto requests fall back to thresholding.
func NewGenerator(remover rembg.Remover) *Generator {
	if remover == nil {
		remover = rembg.Unavailable{Reason: "no remover configured"}
	}
	return &Generator{Remover: remover}
}

// Generate writes the silhouette of input to output using opts.Method.
// An auto request whose remover is unavailable falls back to the simple method.
func (g *Generator) Generate(ctx context.Context, input, output string, opts Options) error {
	defer util.Trace("generate silhouette")()

	data, err := load(input)
	if err != nil {
		return err
	}
	img, err := g.Render(ctx, data, opts)
	if err != nil {
		return err
	}
	return save(img, output)
}

// CreateSilhouette is the model based entry point. It does not fall back.
func (g *Generator) CreateSilhouette(ctx context.Context, input, output string, opts Options) error {
	data, err := load(input)
	if err != nil {
		return err
	}
	img, err := g.fromModel(ctx, data, opts.Normalize())
	if err != nil {
		return err
	}
	return save(img, output)
}

// CreateSimpleSilhouette is the threshold based entry point.
func (g *Generator) CreateSimpleSilhouette(_ context.Context, input, output string, opts Options) error {
	data, err := load(input)
	if err != nil {
		return err
	}
	img, err := fromThreshold(data, opts.Normalize())
	if err != nil {
		return err
	}
	return save(img, output)
}

// Render produces the silhouette of an encoded image without touching disk.
func (g *Generator) Render(ctx context.Context, data []byte, opts Options) (image.Image, error) {
	opts = opts.Normalize()
	if opts.Method == MethodSimple {
		return fromThreshold(data, opts)
	}

	img, err := g.fromModel(ctx, data, opts)
	if errors.Is(err, rembg.ErrUnavailable) {
		util.Logger.Warn("background remover unavailable, falling back to simple method", zap.Error(err))
		return fromThreshold(data, opts)
	}
	return img, err
}

func (g *Generator) fromModel(ctx context.Context, data []byte, opts Options) (image.Image, error) {
	util.Logger.Info("removing background")
	cutout, err := g.Remover.Remove(ctx, data)
	if err != nil {
		return nil, errors.Wrap(err, "remove background")
	}
	return finish(cutout, opts), nil
}

func fromThreshold(data []byte, opts Options) (image.Image, error) {
	src, err := util.DecodeImage(data)
	if err != nil {
		return nil, err
	}
	util.Logger.Info("thresholding image", zap.Int("threshold", opts.Threshold))
	return finish(ThresholdAlpha(src, opts.Threshold), opts), nil
}

func finish(img *image.NRGBA, opts Options) image.Image {
	util.Logger.Info("creating silhouette",
		zap.String("background", string(opts.Background)),
		zap.Bool("smooth", opts.Smooth),
		zap.Bool("vector_style", opts.VectorStyle))

	res := Filter(img, opts.filter())
	if res.Err != nil {
		util.Logger.Warn("filter recovered", zap.Error(res.Err))
	}
	if !opts.Crop {
		return res.Image
	}

	cropped := Crop(res.Image, opts.Padding, opts.MinSize)
	util.Logger.Info("crop to subject", zap.Stringer("outcome", cropped.Outcome))
	return cropped.Image
}

func load(input string) ([]byte, error) {
	util.Logger.Info("loading image", zap.String("input", input))
	return util.ReadSource(input)
}

func save(img image.Image, output string) error {
	util.Logger.Info("saving silhouette", zap.String("output", output))
	if err := util.SaveImage(img, output); err != nil {
		return err
	}
	util.Logger.Info("silhouette created successfully")
	return nil
}
