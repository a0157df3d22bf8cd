package main

import (
	"context"
	"flag"
	"log"
	"os"

	"hostmon-agent/internal/agent"
	"hostmon-agent/internal/config"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (overrides HOSTMON_CONFIG_FILE)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := agent.BuildLogger(cfg)
	a, err := agent.New(cfg, logger)
	if err != nil {
		logger.Error("agent initialization failed", "error", err)
		os.Exit(1)
	}

	if err := a.Run(context.Background()); err != nil {
		logger.Error("agent runtime failed", "error", err)
		os.Exit(1)
	}
}
