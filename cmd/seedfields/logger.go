package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// envLogLevel sets the log level when --log-level is not given.
const envLogLevel = "SEEDFIELDS_LOG_LEVEL"

func initLogger(w io.Writer, level zerolog.Level) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.RFC3339,
		NoColor:    color.NoColor,
	}
	logger := zerolog.New(output).Level(level).With().Timestamp().Str("app", "seedfields").Logger()
	log.Logger = logger
	return logger
}

// resolveLevel picks the level from the flag value, then from
// SEEDFIELDS_LOG_LEVEL, and defaults to warn.
func resolveLevel(flag string) (zerolog.Level, error) {
	if strings.TrimSpace(flag) != "" {
		level, ok := parseLevel(flag)
		if !ok {
			return zerolog.NoLevel, fmt.Errorf("invalid log level %q", flag)
		}
		return level, nil
	}
	if level, ok := parseLevel(os.Getenv(envLogLevel)); ok {
		return level, nil
	}
	return zerolog.WarnLevel, nil
}

func parseLevel(raw string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "trace":
		return zerolog.TraceLevel, true
	case "debug":
		return zerolog.DebugLevel, true
	case "info":
		return zerolog.InfoLevel, true
	case "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	case "disabled", "disable", "off", "none":
		return zerolog.Disabled, true
	default:
		return zerolog.NoLevel, false
	}
}
