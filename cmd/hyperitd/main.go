package main

import (
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"hyperit/adapters/postgres"
	"hyperit/internal"
	"hyperit/internal/api"
	"hyperit/internal/config"
	"hyperit/ports"
)

func main() {
	_ = godotenv.Load()
	logger := internal.DefaultLogger

	cfg, err := config.Load()
	if err != nil {
		logger.Error("config: %v", err)
		os.Exit(1)
	}

	var archive ports.RunArchive
	if cfg.Archive.Enabled {
		repo, err := postgres.Connect(cfg.Archive.URL)
		if err != nil {
			logger.Error("archive: %v", err)
			os.Exit(1)
		}
		defer repo.Close()
		archive = repo
		logger.Info("run archive connected")
	} else {
		logger.Info("DATABASE_URL not set, run archive disabled")
	}

	srv := api.NewServer(archive)
	addr := ":" + cfg.Server.Port
	logger.Info("listening on %s", addr)
	if err := http.ListenAndServe(addr, srv); err != nil {
		logger.Error("server: %v", err)
		os.Exit(1)
	}
}
