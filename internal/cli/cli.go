package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/vk/framewire/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
// Flag defaults come from the environment, so precedence is built-in
// defaults, then FW_* variables, then explicit flags.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	base, err := app.FromEnv()
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	flagSet := flag.NewFlagSet("framewire", flag.ContinueOnError)
	flagSet.SetOutput(output)

	// Custom usage/help text function
	flagSet.Usage = func() {
		fmt.Fprint(output, `
FrameWire - A tick-driven command pump for game engine integration.

Usage:
  framewire [options]

Options:
`)
		flagSet.PrintDefaults()
	}

	modulesPathFlag := flagSet.String("modules-path", base.ModulesPath, "Path to the directory containing module manifests.")
	optionsPathFlag := flagSet.String("options-path", base.OptionsPath, "Path to the persisted engine options document.")
	noDiskFlag := flagSet.Bool("no-disk", base.DiskDisabled, "Disable all disk persistence (options and journal).")
	fpsFlag := flagSet.Int("fps", base.FPS, "Ticks per second for the pump loop.")
	journalPathFlag := flagSet.String("journal-path", base.JournalPath, "Path to the SQLite execution journal. Empty is disabled.")
	consoleURLFlag := flagSet.String("console-url", base.ConsoleURL, "Socket.IO URL of the developer console. Empty is disabled.")
	healthPortFlag := flagSet.Int("healthcheck-port", base.HealthcheckPort, "Port for the HTTP health check server. 0 is disabled.")
	logFormatFlag := flagSet.String("log-format", base.LogFormat, "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", base.LogLevel, "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		ModulesPath:     *modulesPathFlag,
		OptionsPath:     *optionsPathFlag,
		DiskDisabled:    *noDiskFlag,
		FPS:             *fpsFlag,
		JournalPath:     *journalPathFlag,
		ConsoleURL:      *consoleURLFlag,
		HealthcheckPort: *healthPortFlag,
		LogFormat:       logFormat,
		LogLevel:        logLevel,
	})

	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
