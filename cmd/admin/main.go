package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"userhub/internal/admincli"
	"userhub/internal/logging"
	"userhub/internal/server/config"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	cli, err := admincli.New(cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer cli.Close()

	if err := cli.Run(ctx, os.Args[1:]); err != nil {
		log.Fatalf("%v", err)
	}
}
