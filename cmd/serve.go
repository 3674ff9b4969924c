package cmd

import (
	"io"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chaos-io/silhouette/silhouette"
	"github.com/chaos-io/silhouette/silhouette/rembg"
	"github.com/chaos-io/silhouette/util"
	"github.com/chaos-io/silhouette/web"
)

func newServeCmd() *cobra.Command {
	var (
		configPath string
		addr       string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web interface",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			ctx := cmd.Context()

			cfg, err := web.Load(configPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			if err := util.InitLogger(cfg.Server.Mode); err != nil {
				return err
			}
			gin.SetMode(cfg.Server.Mode)

			if err := os.MkdirAll(cfg.Upload.Dir, 0o755); err != nil {
				return errors.Wrap(err, "create upload directory")
			}

			store := web.NewStore(ctx, cfg)
			if closer, ok := store.(io.Closer); ok {
				defer func() {
					_ = closer.Close()
				}()
			}

			sweeper, err := web.NewSweeper(store, cfg.Results.TTL, cfg.Results.Sweep)
			if err != nil {
				return err
			}
			sweeper.Start()
			defer sweeper.Stop()

			remover := rembg.New(cfg.Rembg.URL, rembg.WithMaxSide(cfg.Rembg.MaxSide))
			handler := web.NewHandler(cfg, silhouette.NewGenerator(remover), store)

			util.Logger.Info("starting silhouette server",
				zap.String("version", Version),
				zap.String("results_store", cfg.Results.Store),
				zap.Duration("results_ttl", cfg.Results.TTL),
				zap.Bool("rembg", cfg.Rembg.URL != ""))
			return web.Serve(ctx, cfg, web.NewRouter(cfg, handler))
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Path to a YAML config file")
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides server.addr)")
	return cmd
}
