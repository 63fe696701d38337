package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mama165/sdk-go/logs"
	"github.com/spf13/pflag"

	"github.com/omochice/chatsync/internal/config"
	"github.com/omochice/chatsync/internal/server"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := pflag.NewFlagSet("chatsync-server", pflag.ContinueOnError)
	configPath := fs.StringP("config", "c", os.Getenv("CHATSYNC_CONFIG"), "path to a YAML config file")
	applyFlags := config.BindServerFlags(fs)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := config.LoadServer(*configPath)
	if err != nil {
		return err
	}
	applyFlags(&cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := logs.GetLoggerFromString(cfg.LogLevel)
	srv := server.New(cfg.ListenAddress, log, cfg.OutgoingBuffer)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting server", "address", cfg.ListenAddress, "protocols", "tcp,websocket")
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	}

	srv.Stop()
	if err := <-errChan; err != nil && !errors.Is(err, server.ErrServerStopped) {
		return err
	}
	log.Info("Server stopped")
	return nil
}
