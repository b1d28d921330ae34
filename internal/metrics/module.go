package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/j0lvera/askrelay/internal/config"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

type Params struct {
	fx.In

	Config *config.Config
	Logger zerolog.Logger
}

type Result struct {
	fx.Out

	Metrics *Metrics
}

// New creates the collectors and, when METRICS_ADDR is set, serves them.
func New(lc fx.Lifecycle, p Params) Result {
	m := NewMetrics()

	if p.Config.MetricsAddr == "" {
		return Result{Metrics: m}
	}

	server := &http.Server{
		Addr:              p.Config.MetricsAddr,
		Handler:           NewRouter(m),
		ReadHeaderTimeout: 5 * time.Second,
	}

	lc.Append(
		fx.Hook{
			OnStart: func(ctx context.Context) error {
				ln, err := net.Listen("tcp", server.Addr)
				if err != nil {
					return err
				}
				p.Logger.Info().Str("addr", ln.Addr().String()).Msg("starting metrics server...")
				go func() {
					if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
						p.Logger.Error().Err(err).Msg("metrics server stopped")
					}
				}()
				return nil
			},
			OnStop: func(ctx context.Context) error {
				p.Logger.Info().Msg("stopping metrics server...")
				return server.Shutdown(ctx)
			},
		},
	)

	return Result{Metrics: m}
}

func Module() fx.Option {
	return fx.Module(
		"metrics",
		fx.Provide(
			New,
		),
	)
}
