package main

import (
	"context"
	"log"

	"github.com/ShubhamGupta2412/vaultboard/internal/server"
	"github.com/ShubhamGupta2412/vaultboard/internal/server/config"
)

func main() {

	ctx := context.Background()
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	app, err := server.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}

	if err := app.Run(ctx); err != nil {
		log.Fatalf("%v", err)
	}
}
