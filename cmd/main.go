package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/yungbote/neurobridge-curriculum/internal/app"
	"github.com/yungbote/neurobridge-curriculum/internal/config"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		fmt.Printf("Failed to init app: %v\n", err)
		os.Exit(1)
	}

	runErr := a.Run(ctx)
	if runErr != nil {
		a.Log.Error("HTTP server stopped", "error", runErr)
	}

	closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.Close(closeCtx); err != nil {
		fmt.Printf("Shutdown finished with errors: %v\n", err)
	}
	if runErr != nil {
		os.Exit(1)
	}
}
