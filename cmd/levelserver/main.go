// levelserver serves level previews over WebSocket.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/lawnchairsociety/levelgen/internal/app"
	"github.com/lawnchairsociety/levelgen/internal/logger"
	"github.com/lawnchairsociety/levelgen/internal/preview"
)

func main() {
	configFile := flag.String("config", "data/levelgen.yaml", "Path to levelgen config YAML file")
	addr := flag.String("addr", "", "Listen address (overrides preview.address)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Load(ctx, app.LoadOptions{
		ConfigPath: *configFile,
		EnvFiles:   []string{".env"},
	})
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}
	defer a.Close(context.Background())

	if len(a.Levels) == 0 {
		log.Fatalf("No levels found in %s", a.Config.Paths.Levels)
	}

	address := a.Config.Preview.Address
	if *addr != "" {
		address = *addr
	}

	srv := preview.NewServer(a.Config.Preview, a.Options, a.Levels)
	for _, r := range a.Reporters() {
		srv.AddReporter(r)
	}

	if err := srv.ListenAndServe(ctx, address); err != nil {
		logger.Error("Preview server stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("Preview server shut down")
}
