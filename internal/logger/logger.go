package logger

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New builds the service logger. Development gets a human-readable console
// writer; every other environment logs JSON.
func New(env string) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	switch strings.ToLower(strings.TrimSpace(env)) {
	case "development", "dev", "local":
		out := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"}
		return zerolog.New(out).Level(zerolog.DebugLevel).With().Timestamp().Logger()
	default:
		return zerolog.New(os.Stdout).Level(zerolog.InfoLevel).With().Timestamp().Str("service", "carmate-contracts").Logger()
	}
}
