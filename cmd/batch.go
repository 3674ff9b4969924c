package cmd

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chaos-io/silhouette/silhouette"
	"github.com/chaos-io/silhouette/util"
)

var imageExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".bmp": true,
	".gif": true, ".tiff": true, ".webp": true,
}

type batchJob struct {
	input, output string
}

func newBatchCmd() *cobra.Command {
	var (
		flags   generateFlags
		outDir  string
		workers int
	)

	cmd := &cobra.Command{
		Use:   "batch <dir>",
		Short: "Create silhouettes for every image in a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			opts, err := flags.options()
			if err != nil {
				return err
			}
			if outDir == "" {
				outDir = args[0]
			}
			jobs, err := findImages(args[0], outDir)
			if err != nil {
				return err
			}
			if len(jobs) == 0 {
				return errors.Errorf("no images found in %s", args[0])
			}
			return runBatch(cmd.Context(), flags.generator(), jobs, opts, workers)
		},
	}

	flags.register(cmd.Flags())
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Output directory (default: the input directory)")
	cmd.Flags().IntVarP(&workers, "workers", "w", runtime.NumCPU(), "Number of images processed in parallel")
	return cmd
}

// findImages lists the images directly inside dir. Outputs are named
// <stem>_silhouette.png; earlier outputs are not picked up again.
func findImages(dir, outDir string) ([]batchJob, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrap(err, "read input directory")
	}

	var jobs []batchJob
	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if e.IsDir() || !imageExts[ext] {
			continue
		}
		stem := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		if strings.HasSuffix(stem, "_silhouette") {
			continue
		}
		jobs = append(jobs, batchJob{
			input:  filepath.Join(dir, e.Name()),
			output: filepath.Join(outDir, stem+"_silhouette.png"),
		})
	}
	return jobs, nil
}

func runBatch(ctx context.Context, g *silhouette.Generator, jobs []batchJob, opts silhouette.Options, workers int) error {
	defer util.Trace("batch")()

	workers = max(1, min(workers, len(jobs)))
	bar := progressbar.NewOptions(len(jobs),
		progressbar.OptionSetDescription("Creating silhouettes"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
	)

	jobCh := make(chan batchJob)
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		failed int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobCh {
				if err := g.Generate(ctx, job.input, job.output, opts); err != nil {
					util.Logger.Error("failed to create silhouette", zap.String("input", job.input), zap.Error(err))
					mu.Lock()
					failed++
					mu.Unlock()
				}
				_ = bar.Add(1)
			}
		}()
	}

feed:
	for _, job := range jobs {
		select {
		case jobCh <- job:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobCh)
	wg.Wait()
	_ = bar.Finish()

	if err := ctx.Err(); err != nil {
		return err
	}
	if failed > 0 {
		return errors.Errorf("%d of %d images failed", failed, len(jobs))
	}
	return nil
}
