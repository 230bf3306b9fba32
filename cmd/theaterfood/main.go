package main

import (
	"log"

	"github.com/geethamultiplex/theaterfood/internal/app"
	"github.com/geethamultiplex/theaterfood/internal/config"
	"github.com/geethamultiplex/theaterfood/pgk/logger"
)

func main() {
	lg, err := logger.New()
	if err != nil {
		log.Fatal(err)
	}
	defer lg.Sync()

	cfg, err := config.Read()
	if err != nil {
		lg.Fatal(err)
	}

	if err := app.Run(cfg, lg); err != nil {
		log.Fatal(err)
	}
}
