package bot

import (
	"context"
	"fmt"

	tbot "github.com/go-telegram/bot"
	"github.com/j0lvera/askrelay/internal/ai"
	"github.com/j0lvera/askrelay/internal/command"
	"github.com/j0lvera/askrelay/internal/config"
	"github.com/j0lvera/askrelay/internal/metrics"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

type Params struct {
	fx.In

	Config  *config.Config
	Relay   *ai.Relay
	Metrics *metrics.Metrics
	Logger  zerolog.Logger
}

type Result struct {
	fx.Out

	Bot     *tbot.Bot
	Handler *Handler
}

func New(lc fx.Lifecycle, p Params) (Result, error) {
	log := p.Logger.With().Str("component", "bot").Logger()

	dispatcher, err := command.NewDispatcher(p.Config.TriggerPrefix)
	if err != nil {
		return Result{}, err
	}

	source := NewTelegramSource(nil, log)

	opts := []tbot.Option{
		tbot.WithDefaultHandler(source.HandleUpdate),
		tbot.WithErrorsHandler(func(err error) {
			log.Error().Err(err).Msg("telegram polling error")
		}),
	}

	tg, err := tbot.New(p.Config.Token, opts...)
	if err != nil {
		return Result{}, fmt.Errorf("unable to create telegram bot: %w", err)
	}

	var deduper *Deduper
	if p.Config.DedupeTTL > 0 {
		deduper = NewDeduper(p.Config.DedupeTTL)
	}

	handler := NewHandler(
		dispatcher,
		p.Relay,
		NewTelegramSink(tg, log),
		WithAllowlist(command.NewAllowlist(p.Config.AllowedChatIDs)),
		WithModerator(command.NewModerator(p.Config.Moderation.Blocked)),
		WithDeduper(deduper),
		WithMetrics(p.Metrics),
		WithLogger(log),
	)
	source.handler = handler

	runCtx, cancel := context.WithCancel(context.Background())

	lc.Append(
		fx.Hook{
			OnStart: func(ctx context.Context) error {
				me, err := tg.GetMe(ctx)
				if err != nil {
					cancel()
					return fmt.Errorf("unable to fetch bot identity: %w", err)
				}
				source.SetSelfID(me.ID)

				log.Info().
					Str("username", me.Username).
					Str("trigger", dispatcher.Prefix()).
					Str("model", p.Config.Model).
					Msg("starting telegram bot...")
				go tg.Start(runCtx)
				return nil
			},
			OnStop: func(ctx context.Context) error {
				log.Info().Msg("stopping telegram bot...")
				cancel()
				deduper.Close()
				return nil
			},
		},
	)

	return Result{
		Bot:     tg,
		Handler: handler,
	}, nil
}

func Module() fx.Option {
	return fx.Module(
		"bot",
		fx.Provide(
			New,
		),
		fx.Invoke(
			func(bot *tbot.Bot) {},
		),
	)
}
