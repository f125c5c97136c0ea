package main

import (
	"os"
	"time"

	"github.com/genesislabs/genesis-access-bot/internal/app"
	"github.com/genesislabs/genesis-access-bot/internal/config"
	"github.com/genesislabs/genesis-access-bot/internal/platform/logger"
	"github.com/genesislabs/genesis-access-bot/internal/platform/ui"
)

func main() {
	_ = logger.Init("logs/app.log")
	defer logger.Close()

	ui.StartUISystem()
	defer ui.StopUISystem()

	cfg := config.Load()

	if err := cfg.Validate(); err != nil {
		print(err.Error())
		os.Exit(1)
	}

	if err := app.New(cfg).Run(); err != nil {
		print(err.Error())
		os.Exit(1)
	}

	time.Sleep(1 * time.Second)
}
