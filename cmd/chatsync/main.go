package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/spf13/pflag"

	"github.com/omochice/chatsync/internal/chat"
	"github.com/omochice/chatsync/internal/client"
	"github.com/omochice/chatsync/internal/config"
	"github.com/omochice/chatsync/internal/notify"
	"github.com/omochice/chatsync/internal/view"
)

// Exit codes for the client application.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

const dialTimeout = 10 * time.Second

func main() {
	code, err := run(os.Args[1:], os.Stdin, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "chatsync: %v\n", err)
	}
	os.Exit(code)
}

func run(args []string, stdin io.Reader, stdout io.Writer) (int, error) {
	fs := pflag.NewFlagSet("chatsync", pflag.ContinueOnError)
	configPath := fs.StringP("config", "c", os.Getenv("CHATSYNC_CONFIG"), "path to a YAML config file")
	applyFlags := config.BindClientFlags(fs)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK, nil
		}
		return exitConfig, err
	}

	cfg, err := config.LoadClient(*configPath)
	if err != nil {
		return exitConfig, err
	}
	applyFlags(&cfg)

	input := bufio.NewScanner(stdin)
	if cfg.Username == "" {
		fmt.Fprint(stdout, "Username: ")
		if input.Scan() {
			cfg.Username = strings.TrimSpace(input.Text())
		}
	}
	if err := cfg.Validate(); err != nil {
		return exitConfig, err
	}

	log := logs.GetLoggerFromString(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	conn, codec, err := client.Dial(dialCtx, cfg.ServerAddress)
	cancel()
	if err != nil {
		return exitRuntime, err
	}

	bus := notify.NewBus[chat.Notification](log)
	term := view.NewTerminal(stdout, view.Options{Self: cfg.Username, NoColor: cfg.NoColor})
	term.Attach(bus)

	session := client.New(conn, bus, client.Options{
		Username:   cfg.Username,
		Codec:      codec,
		BufferSize: cfg.BufferSize,
		Log:        log,
	})

	result := make(chan error, 1)
	go func() {
		result <- session.Run(ctx)
	}()

	lines := make(chan string)
	go func() {
		defer close(lines)
		for input.Scan() {
			select {
			case lines <- input.Text():
			case <-session.Done():
				return
			}
		}
	}()

	term.Printf("Connected to %s as %s. Type your messages (or 'quit' to exit):\n", cfg.ServerAddress, cfg.Username)

	for {
		select {
		case err := <-result:
			if err != nil {
				return exitRuntime, err
			}
			return exitOK, nil
		case text, ok := <-lines:
			if !ok {
				lines = nil
				session.Close()
				continue
			}
			text = strings.TrimSpace(text)
			if text == "" {
				continue
			}
			if text == "quit" || text == "exit" {
				lines = nil
				session.Close()
				continue
			}
			if err := session.Send(ctx, text); err != nil {
				log.Warn("Failed to send message", "error", err)
			}
		}
	}
}
