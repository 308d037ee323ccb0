package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/forPelevin/hlshorts/internal/httpapi"
	"github.com/forPelevin/hlshorts/internal/notify"
	"github.com/forPelevin/hlshorts/internal/pipeline"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(configPath *string) *cobra.Command {
	var bind string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Accept jobs over HTTP and report progress per requester",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(*configPath, bind)
		},
	}
	cmd.Flags().StringVar(&bind, "bind", "", "Listen address (overrides server.bind)")
	return cmd
}

func serve(configPath, bind string) error {
	cfg, logger, err := loadRuntime(configPath)
	if err != nil {
		return err
	}
	if bind == "" {
		bind = cfg.Server.Bind
	}

	bus := notify.NewBus(0)
	svc, err := pipeline.Init(cfg, logger, notify.Multi{notify.NewLog(logger), bus})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              bind,
		Handler:           httpapi.NewRouter(httpapi.NewApp(svc, bus, logger)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.WithField("bind", bind).Info("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down; waiting for running jobs")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		herr := srv.Shutdown(sctx)
		return errors.Join(herr, svc.Close())
	})
	return g.Wait()
}
