package main

import (
	"github.com/SagarBarate/CleanNFT-sub001/internal/app"
	"github.com/SagarBarate/CleanNFT-sub001/internal/config"
	"github.com/SagarBarate/CleanNFT-sub001/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	if err := logger.Init(&logger.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		ServiceName: cfg.Service.Name,
	}); err != nil {
		panic(err)
	}
	defer logger.Sync()

	if err := app.New(cfg).Run(); err != nil {
		logger.Fatal("application error", "error", err)
	}
}
