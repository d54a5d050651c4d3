package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/sells-group/postings-dashboard/internal/config"
	"github.com/sells-group/postings-dashboard/internal/fetcher"
	"github.com/sells-group/postings-dashboard/internal/metrics"
	"github.com/sells-group/postings-dashboard/internal/server"
)

const shutdownTimeout = 10 * time.Second

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if servePort != 0 {
			cfg.Server.Port = servePort
		}
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		handler, err := buildHandler(cfg)
		if err != nil {
			return err
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		zap.L().Info("starting server", zap.Int("port", cfg.Server.Port))
		return runServer(ctx, srv)
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// buildHandler wires the dashboard, metrics and optional fallback source
// into the HTTP router.
func buildHandler(c *config.Config) (http.Handler, error) {
	m := metrics.New()
	builder, err := newBuilder(c, m)
	if err != nil {
		return nil, err
	}

	var fallback fetcher.Source
	switch src, err := resolveSource("", c); {
	case err == nil:
		fallback = src
		zap.L().Info("fallback source configured", zap.String("source", src.Describe()))
	case !errors.Is(err, errNoSource):
		return nil, err
	}

	srv := server.New(builder, server.Options{
		MaxUploadBytes: int64(c.Server.MaxUploadMB) << 20,
		RateLimit:      rate.Limit(c.Server.RateLimit),
		RateBurst:      c.Server.RateBurst,
		CORSOrigins:    c.Server.CORSOrigins,
		Fallback:       fallback,
		Metrics:        m.Handler(),
	})
	return srv.Router(), nil
}

// runServer serves until ctx is cancelled, then shuts down gracefully.
func runServer(ctx context.Context, srv *http.Server) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return eris.Wrap(err, "server listen")
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		zap.L().Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
