package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	racecmd "github.com/capesail/vendeeglobe/internal/cmd/race"
	"github.com/capesail/vendeeglobe/internal/platform/config"
)

func main() {
	cfg, err := racecmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("parse flags: %v", err)
	}
	log.SetPrefix("[RACE] ")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := racecmd.Run(ctx, cfg); err != nil {
		config.Exitf("failed to run race: %v", err)
	}
}
