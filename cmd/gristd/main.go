// Command gristd runs the grist batch daemon.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"grist/internal/config"
	"grist/internal/daemonrun"
)

func main() {
	configFlag := flag.String("config", "", "configuration file path")
	logLevelFlag := flag.String("log-level", "", "override the configured log level")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	if err := daemonrun.Run(ctx, cfg, daemonrun.Options{LogLevel: *logLevelFlag}); err != nil {
		fmt.Fprintf(os.Stderr, "gristd: %v\n", err)
		os.Exit(1)
	}
}
