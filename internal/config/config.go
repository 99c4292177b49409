package config

import (
	"ctchen222/tictactoe-hub/internal/validator"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/urfave/cli/v3"
)

// Flag names.
const (
	FlagAddr             = "addr"
	FlagRedisConnString  = "redis"
	FlagOtelEnabled      = "otel"
	FlagOtelEndpoint     = "otel-endpoint"
	FlagLogLevel         = "log-level"
	FlagPermissiveMoves  = "permissive-moves"
	FlagLegacyErrorCodes = "legacy-error-codes"
	FlagSendBuffer       = "send-buffer"
	FlagBotThinkTime     = "bot-think-time"
)

// Config is the runtime configuration of the server.
type Config struct {
	Addr             string `validate:"required"`
	RedisConnString  string
	OtelEnabled      bool
	OtelEndpoint     string `validate:"required_if=OtelEnabled true"`
	LogLevel         string `validate:"oneof=debug info warn error"`
	PermissiveMoves  bool
	LegacyErrorCodes bool
	SendBuffer       int           `validate:"min=1,max=4096"`
	BotThinkTime     time.Duration `validate:"min=0"`
}

// Flags returns the command line flags, each also readable from the environment.
func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    FlagAddr,
			Value:   ":8090",
			Usage:   "address the HTTP server listens on",
			Sources: cli.EnvVars("HUB_ADDR"),
		},
		&cli.StringFlag{
			Name:    FlagRedisConnString,
			Usage:   "redis address or redis:// URL for lifecycle events; empty disables publishing",
			Sources: cli.EnvVars("REDIS_CONNSTRING"),
		},
		&cli.BoolFlag{
			Name:    FlagOtelEnabled,
			Usage:   "export traces, metrics and logs over OTLP",
			Sources: cli.EnvVars("OTEL_ENABLED"),
		},
		&cli.StringFlag{
			Name:    FlagOtelEndpoint,
			Value:   "otel-collector:4317",
			Usage:   "OTLP gRPC collector endpoint",
			Sources: cli.EnvVars("OTEL_EXPORTER_OTLP_ENDPOINT"),
		},
		&cli.StringFlag{
			Name:    FlagLogLevel,
			Value:   "info",
			Usage:   "debug, info, warn or error",
			Sources: cli.EnvVars("LOG_LEVEL"),
		},
		&cli.BoolFlag{
			Name:    FlagPermissiveMoves,
			Usage:   "accept any in-bounds move without turn, role or occupancy checks",
			Sources: cli.EnvVars("HUB_PERMISSIVE_MOVES"),
		},
		&cli.BoolFlag{
			Name:    FlagLegacyErrorCodes,
			Usage:   "send error code 401 for every failure",
			Sources: cli.EnvVars("HUB_LEGACY_ERROR_CODES"),
		},
		&cli.IntFlag{
			Name:    FlagSendBuffer,
			Value:   32,
			Usage:   "packets queued per connection before pushes are dropped",
			Sources: cli.EnvVars("HUB_SEND_BUFFER"),
		},
		&cli.DurationFlag{
			Name:    FlagBotThinkTime,
			Value:   time.Second,
			Usage:   "delay before a bot answers",
			Sources: cli.EnvVars("BOT_THINK_TIME"),
		},
	}
}

// FromCommand reads and validates the configuration from a parsed command.
func FromCommand(cmd *cli.Command) (Config, error) {
	cfg := Config{
		Addr:             cmd.String(FlagAddr),
		RedisConnString:  cmd.String(FlagRedisConnString),
		OtelEnabled:      cmd.Bool(FlagOtelEnabled),
		OtelEndpoint:     cmd.String(FlagOtelEndpoint),
		LogLevel:         strings.ToLower(cmd.String(FlagLogLevel)),
		PermissiveMoves:  cmd.Bool(FlagPermissiveMoves),
		LegacyErrorCodes: cmd.Bool(FlagLegacyErrorCodes),
		SendBuffer:       cmd.Int(FlagSendBuffer),
		BotThinkTime:     cmd.Duration(FlagBotThinkTime),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration with the shared validator.
func (c Config) Validate() error {
	if err := validator.GetValidator().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// SlogLevel converts LogLevel to a slog.Level, defaulting to Info.
func (c Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}
