// Command server runs the FileDeck HTTP API and live update hub.
package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/filedeck/internal/buildinfo"
	"github.com/dmitrijs2005/filedeck/internal/config"
	"github.com/dmitrijs2005/filedeck/internal/server"
)

func main() {
	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()

	app, err := server.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("server init: %v", err)
	}
	if err := app.Run(ctx); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
