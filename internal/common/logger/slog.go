package logger

import (
	"io"
	"log/slog"
	"strings"

	azlog "github.com/Azure/azure-sdk-for-go/sdk/azcore/log"
)

// SetupLogger configures a structured logger based on the provided configuration.
// Valid levels are: DEBUG, INFO, WARN, ERROR
// If debugMode is true, it overrides logLevel to DEBUG.
// The logger writes text records to w, normally os.Stderr.
func SetupLogger(w io.Writer, debugMode bool, logLevel string) *slog.Logger {
	level := ParseLogLevel(logLevel)

	if debugMode {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}

// ParseLogLevel converts a string log level to slog.Level.
// Defaults to WARN if an invalid level is provided so normal runs stay quiet.
func ParseLogLevel(levelStr string) slog.Level {
	switch strings.ToUpper(levelStr) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// BridgeAzureLog forwards azcore request, response and retry events to logger
// at DEBUG level. It returns a function that detaches the listener.
func BridgeAzureLog(logger *slog.Logger) func() {
	if logger == nil {
		return func() {}
	}
	azlog.SetEvents(azlog.EventRequest, azlog.EventResponse, azlog.EventRetryPolicy)
	azlog.SetListener(func(event azlog.Event, msg string) {
		logger.Debug(strings.TrimSpace(msg), "event", string(event))
	})
	return func() { azlog.SetListener(nil) }
}

// LogDebug logs a debug message if debug level is enabled
func LogDebug(logger *slog.Logger, msg string, args ...any) {
	if logger != nil {
		logger.Debug(msg, args...)
	}
}

// LogWarn logs a warning message
func LogWarn(logger *slog.Logger, msg string, args ...any) {
	if logger != nil {
		logger.Warn(msg, args...)
	}
}
