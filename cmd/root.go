package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/chaos-io/silhouette/silhouette"
	"github.com/chaos-io/silhouette/silhouette/rembg"
	"github.com/chaos-io/silhouette/util"
)

// Version is the application version.
const Version = "0.1.0"

// generateFlags are the pipeline flags shared by the root and batch commands.
type generateFlags struct {
	method     string
	background string
	threshold  int
	noSmooth   bool
	blurRadius int
	noVector   bool
	crop       bool
	padding    int
	minSize    int
	rembgURL   string
	maxSide    int
}

func (f *generateFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.method, "method", string(silhouette.MethodAuto), "Extraction method: auto (background remover) or simple (threshold)")
	fs.StringVar(&f.background, "background", string(silhouette.White), "Background: white or transparent")
	fs.IntVar(&f.threshold, "threshold", silhouette.DefaultThreshold, "Darkness threshold for the simple method (1-255)")
	fs.BoolVar(&f.noSmooth, "no-smooth", false, "Disable edge smoothing")
	fs.IntVar(&f.blurRadius, "blur-radius", silhouette.DefaultBlurRadius, "Edge blur radius (1-8)")
	fs.BoolVar(&f.noVector, "no-vector", false, "Use soft gradient edges instead of vector style")
	fs.BoolVar(&f.crop, "crop", false, "Crop to the subject")
	fs.IntVar(&f.padding, "padding", 10, "Padding around the subject when cropping")
	fs.IntVar(&f.minSize, "min-size", silhouette.DefaultMinSize, "Minimum crop width and height")
	fs.StringVar(&f.rembgURL, "rembg-url", os.Getenv("REMBG_URL"), "rembg server URL (default $REMBG_URL)")
	fs.IntVar(&f.maxSide, "rembg-max-side", rembg.DefaultMaxSide, "Downscale uploads to the rembg server to this longest side")
}

func (f *generateFlags) options() (silhouette.Options, error) {
	method, err := silhouette.ParseMethod(f.method)
	if err != nil {
		return silhouette.Options{}, err
	}
	bg, err := silhouette.ParseBackground(f.background)
	if err != nil {
		return silhouette.Options{}, err
	}
	return silhouette.Options{
		Method:      method,
		Background:  bg,
		Threshold:   f.threshold,
		Smooth:      !f.noSmooth,
		BlurRadius:  f.blurRadius,
		VectorStyle: !f.noVector,
		Crop:        f.crop,
		Padding:     f.padding,
		MinSize:     f.minSize,
	}.Normalize(), nil
}

func (f *generateFlags) generator() *silhouette.Generator {
	return silhouette.NewGenerator(rembg.New(f.rembgURL, rembg.WithMaxSide(f.maxSide)))
}

func newRootCmd() *cobra.Command {
	var (
		flags   generateFlags
		logMode string
	)

	root := &cobra.Command{
		Use:   "silhouette <input> <output>",
		Short: "Turn the subject of a photo into a flat black silhouette",
		Example: `  silhouette input.jpg output.png
  silhouette input.jpg output.png --method simple
  silhouette input.jpg output.png --background transparent --crop`,
		Version:       Version,
		SilenceErrors: true,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return nil
			}
			return cobra.ExactArgs(2)(cmd, args)
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return util.InitLogger(logMode)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			util.Sync()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			cmd.SilenceUsage = true

			opts, err := flags.options()
			if err != nil {
				return err
			}
			return flags.generator().Generate(cmd.Context(), args[0], args[1], opts)
		},
	}

	flags.register(root.Flags())
	root.PersistentFlags().StringVar(&logMode, "log-mode", "debug", "Log mode: debug or release")
	root.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	root.AddCommand(newReverseCmd(), newServeCmd(), newBatchCmd())
	return root
}

func Execute() {
	// Ctrl+C cancels in-flight work.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
