package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"vending/internal/config"
	"vending/internal/engine"
	"vending/internal/net"
)

func main() {
	address := flag.String("address", "0.0.0.0", "Address to listen on")
	port := flag.Int("port", 9001, "Port to listen on")
	workers := flag.Uint("workers", net.DefaultNWorkers, "Number of clients served at once")
	timeout := flag.Duration("timeout", net.DefaultConnTimeout, "Idle timeout per client")
	stockFile := flag.String("stock", "", "Machine file (YAML); the demo machine when empty")
	debug := flag.Bool("debug", false, "Log rejected coins and selections")
	pretty := flag.Bool("pretty", false, "Human readable logs")
	flag.Parse()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	if *pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	machineConfig := config.Default()
	if *stockFile != "" {
		var err error
		if machineConfig, err = config.Load(*stockFile); err != nil {
			log.Fatal().Err(err).Str("file", *stockFile).Msg("unable to load machine")
		}
	}
	products, coins, err := machineConfig.Build()
	if err != nil {
		log.Fatal().Err(err).Msg("unable to build machine")
	}

	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGTERM,
		syscall.SIGINT,
	)
	defer stop()

	// Setup the TCP server and the machine it sells from.
	machine := engine.New(products, coins)
	srv := net.New(*address, *port, machine, *workers, *timeout)
	machine.SetReporter(srv)

	// Block on running the server.
	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("server stopped")
	}
	sales, revenue := srv.Stats()
	log.Info().Uint64("sales", sales).Str("revenue", revenue.String()).Msg("server stopped")
}
