package main // Entry point package

import (
	"log" // used only until the zap logger exists

	"github.com/joho/godotenv" // optional .env for local runs

	"github.com/iliyamo/bookyourshow/internal/app"
	"github.com/iliyamo/bookyourshow/internal/config"
)

func main() {
	_ = godotenv.Load() // a missing .env is fine; real env vars win

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	a, err := app.New(cfg)
	if err != nil {
		log.Fatalf("startup: %v", err)
	}

	if err := a.Run(); err != nil {
		log.Fatalf("run: %v", err)
	}
}
