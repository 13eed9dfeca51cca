package commands

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/colinbendell/bank-statement-processor/internal/api"
	"github.com/colinbendell/bank-statement-processor/internal/metrics"
	"github.com/colinbendell/bank-statement-processor/internal/pipeline"
)

func newServeCommand(a *app, version string) *cobra.Command {
	var addr, categories string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the conversion API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr == "" {
				addr = a.cfg.Server.Addr
			}
			return a.runServe(cmd.Context(), addr, categories, version)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	cmd.Flags().StringVarP(&categories, "categories", "C", "", "categories training CSV")
	return cmd
}

func (a *app) runServe(ctx context.Context, addr, categories, version string) error {
	ix, err := a.loadIndex(categories, 0)
	if err != nil {
		return err
	}
	metrics.Register()

	h := &api.Handler{
		Processor: pipeline.New(a.cfg.ParserOptions()),
		Index:     ix,
		Fallback:  a.fallback(),
		Examples:  a.cfg.LLM.MaxExamples,
		Version:   version,
	}
	app := api.NewApp(h, a.log, a.cfg.Server.BodyLimitMB)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		a.log.Info().Str("addr", addr).Msg("starting API server")
		errCh <- app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.log.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return app.ShutdownWithContext(shutdownCtx)
}
