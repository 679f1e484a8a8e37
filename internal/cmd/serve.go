package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/opmodel/extplugin/internal/config"
	"github.com/opmodel/extplugin/internal/output"
	"github.com/opmodel/extplugin/internal/pipeline"
	"github.com/opmodel/extplugin/internal/server"
	"github.com/opmodel/extplugin/internal/service"
	"github.com/opmodel/extplugin/internal/source"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the gateway and hot-load plugin packages",
		Long: `Run the gateway HTTP server. Packages are discovered by a periodic scan of
the configured source and by uploads to POST /admin/plugins/upload.

Sources:
  dir          Package files (*.zip) in extPlugin.path
  kubernetes   ConfigMaps labelled ` + "`extplugin.opmodel.dev/package=true`" + `

Examples:
  # Scan the default package directory
  extplugin serve

  # Scan a directory and react to file changes
  extplugin serve --path ./ext-lib --watch

  # Scan package ConfigMaps in a namespace
  extplugin serve --source kubernetes -n gateway`,
		RunE: runServe,
	}

	cmd.Flags().String("path", "", "Package directory (env: EXTPLUGIN_PATH)")
	cmd.Flags().Int("threads", 0, "Packages loaded in parallel per scan (env: EXTPLUGIN_THREADS)")
	cmd.Flags().Bool("watch", false, "Scan when package files change")
	cmd.Flags().String("source", "", "Package source: dir, kubernetes (env: EXTPLUGIN_SOURCE)")
	cmd.Flags().String("kubeconfig", "", "Path to kubeconfig file (env: EXTPLUGIN_KUBECONFIG)")
	cmd.Flags().String("context", "", "Kubernetes context to use (env: EXTPLUGIN_CONTEXT)")
	cmd.Flags().StringP("namespace", "n", "", "Namespace of package ConfigMaps (env: EXTPLUGIN_NAMESPACE)")
	cmd.Flags().String("label-selector", "", "Label selector of package ConfigMaps")
	cmd.Flags().String("addr", "", "Listen address (env: EXTPLUGIN_ADDR)")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	if err := validateConfig(cfg); err != nil {
		return err
	}

	gw, err := newGateway()
	if err != nil {
		return withExitCode(err)
	}
	src, err := newSource(cfg)
	if err != nil {
		return withExitCode(err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc := service.New(service.Config{
		Enabled:      cfg.ExtPlugin.Enabled,
		ThreadCount:  cfg.ExtPlugin.ThreadCount,
		InitialDelay: cfg.ExtPlugin.InitialDelay(),
		Interval:     cfg.ExtPlugin.Interval(),
		LoadTimeout:  cfg.ExtPlugin.LoadTimeout(),
	}, service.Deps{
		Registry:   gw.registry,
		Promoter:   gw.promoter,
		Dispatcher: gw.dispatcher,
		Consumers:  []pipeline.HandlerConsumer{gw.handlers},
		Source:     src,
	})

	srv := server.New(server.Options{
		Addr:           cfg.Server.Addr,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
	}, server.Deps{
		Dispatcher: gw.dispatcher,
		Handlers:   gw.handlers,
		Loader:     svc,
	})

	g, gctx := errgroup.WithContext(ctx)
	svc.Start(gctx)
	g.Go(func() error {
		svc.Wait()
		return nil
	})

	if cfg.ExtPlugin.Watch && cfg.Source.Kind == config.SourceKindDir {
		if err := os.MkdirAll(cfg.ExtPlugin.Path, 0o755); err != nil {
			return withExitCode(err)
		}
		w := source.NewWatcher(cfg.ExtPlugin.Path, source.DefaultDebounce, func(ctx context.Context) {
			svc.ScanOnce(ctx)
		})
		g.Go(func() error { return w.Run(gctx) })
	}

	g.Go(func() error { return srv.Run(gctx) })

	err = g.Wait()
	output.Info("shut down", "packages", len(svc.Entries()))
	return withExitCode(err)
}
