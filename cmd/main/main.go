package main

import (
	"github.com/j0lvera/askrelay/internal/ai"
	"github.com/j0lvera/askrelay/internal/bot"
	"github.com/j0lvera/askrelay/internal/config"
	"github.com/j0lvera/askrelay/internal/log"
	"github.com/j0lvera/askrelay/internal/metrics"
	"go.uber.org/fx"
)

func main() {

	fx.New(
		config.Module(),
		log.Module(),
		metrics.Module(),
		ai.Module(),
		bot.Module(),
		fx.WithLogger(log.NewEventLogger),
	).Run()
}
