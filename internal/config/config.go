// Package config loads client and server settings. Values are layered:
// built-in defaults, then an optional YAML file, then environment variables
// (a .env file in the working directory is loaded first), then command line
// flags.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// Client configures the interactive chat client.
type Client struct {
	ServerAddress string `yaml:"server_address" env:"CHATSYNC_SERVER_ADDRESS" validate:"required,url"`
	Username      string `yaml:"username" env:"CHATSYNC_USERNAME" validate:"required,max=64"`
	LogLevel      string `yaml:"log_level" env:"CHATSYNC_LOG_LEVEL" validate:"oneof=DEBUG INFO WARN ERROR"`
	BufferSize    int    `yaml:"buffer_size" env:"CHATSYNC_BUFFER_SIZE" validate:"gte=1,lte=65536"`
	NoColor       bool   `yaml:"no_color" env:"CHATSYNC_NO_COLOR"`
}

// Server configures the relay server.
type Server struct {
	ListenAddress  string `yaml:"listen_address" env:"CHATSYNC_LISTEN_ADDRESS" validate:"required,hostname_port"`
	LogLevel       string `yaml:"log_level" env:"CHATSYNC_LOG_LEVEL" validate:"oneof=DEBUG INFO WARN ERROR"`
	OutgoingBuffer int    `yaml:"outgoing_buffer" env:"CHATSYNC_OUTGOING_BUFFER" validate:"gte=1,lte=65536"`
}

// DefaultClient returns the client defaults.
func DefaultClient() Client {
	return Client{
		ServerAddress: "ws://localhost:8080/",
		LogLevel:      "INFO",
		BufferSize:    64,
	}
}

// DefaultServer returns the server defaults.
func DefaultServer() Server {
	return Server{
		ListenAddress:  ":8080",
		LogLevel:       "INFO",
		OutgoingBuffer: 32,
	}
}

// LoadClient reads the client configuration. path may be empty. The result
// is not validated so that callers can fill in missing values first.
func LoadClient(path string) (Client, error) {
	cfg := DefaultClient()
	if err := load(path, &cfg); err != nil {
		return Client{}, err
	}
	cfg.LogLevel = normalizeLevel(cfg.LogLevel)
	return cfg, nil
}

// LoadServer reads the server configuration. path may be empty.
func LoadServer(path string) (Server, error) {
	cfg := DefaultServer()
	if err := load(path, &cfg); err != nil {
		return Server{}, err
	}
	cfg.LogLevel = normalizeLevel(cfg.LogLevel)
	return cfg, nil
}

// Validate checks every field of c.
func (c Client) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid client configuration: %w", err)
	}
	return nil
}

// Validate checks every field of s.
func (s Server) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("invalid server configuration: %w", err)
	}
	return nil
}

func load(path string, cfg any) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read config file: %w", err)
		}
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if _, err := env.UnmarshalFromEnviron(cfg); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	return nil
}

func normalizeLevel(level string) string {
	return strings.ToUpper(strings.TrimSpace(level))
}
