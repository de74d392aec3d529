package utils

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

type ServerConfig struct {
	Address string
}

type PlayerConfig struct {
	Name, Token string
}

type ConnectionConfig struct {
	RetryDelayMs  int
	ReadTimeoutMs int // 0 waits forever
}

type FeedConfig struct {
	Address string // empty disables the feed
}

type LogConfig struct {
	Level string
}

type Config struct {
	Server     ServerConfig
	Player     PlayerConfig
	Connection ConnectionConfig
	Feed       FeedConfig
	Log        LogConfig
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Address: "127.0.0.1:4000",
		},
		Player: PlayerConfig{
			Name: "Snekisnek",
		},
		Connection: ConnectionConfig{
			RetryDelayMs: 2000,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// ReadTOML loads fileName over the defaults, so keys missing from the file
// keep their default values.
func ReadTOML(fileName string) (*Config, error) {
	file, err := os.ReadFile(fileName)
	if err != nil {
		return nil, err
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(file, config); err != nil {
		return nil, fmt.Errorf("%s: %w", fileName, err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", fileName, err)
	}
	return config, nil
}

// ReadTOMLOrDefault is ReadTOML, except that a missing file yields the
// defaults.
func ReadTOMLOrDefault(fileName string) (*Config, error) {
	config, err := ReadTOML(fileName)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}
	return config, err
}

func (c *Config) Validate() error {
	if c.Server.Address == "" {
		return errors.New("server address is empty")
	}
	if c.Player.Name == "" {
		return errors.New("player name is empty")
	}
	if strings.Contains(c.Player.Name, "|") || strings.Contains(c.Player.Token, "|") {
		return errors.New("player name and token must not contain '|'")
	}
	if c.Connection.RetryDelayMs < 0 || c.Connection.ReadTimeoutMs < 0 {
		return errors.New("connection durations must not be negative")
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	return nil
}

func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.Connection.RetryDelayMs) * time.Millisecond
}

func (c *Config) ReadTimeout() time.Duration {
	return time.Duration(c.Connection.ReadTimeoutMs) * time.Millisecond
}

func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, fmt.Errorf("log level %q: %w", c.Log.Level, err)
	}
	return level, nil
}
