package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/siegetools/recgame/internal/config"
	"github.com/siegetools/recgame/internal/logging"
	"github.com/siegetools/recgame/internal/monitor"
)

// CurrentVersion and BuildDate can be set at build time via ldflags.
var (
	CurrentVersion string = "0.1.0"
	BuildDate      string = "unknown"
)

var (
	// LogManager handles all slog-based logging
	LogManager *logging.Manager

	// Logger is the slog logger (convenience reference)
	Logger *slog.Logger

	LogFile *os.File

	SessionStartTime time.Time = time.Now()
)

func main() {
	if err := config.Load("."); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if err := setupLogging(); err != nil {
		fmt.Fprintln(os.Stderr, "error setting up logging:", err)
		os.Exit(2)
	}
	defer closeLogging()

	args := os.Args[1:]
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	var err error
	switch strings.ToLower(args[0]) {
	case "header":
		err = runHeader(args[1:])
	case "body":
		err = runBody(args[1:])
	case "extract":
		err = runExtract(args[1:])
	case "dump":
		err = runDump(args[1:])
	case "index":
		err = runIndex(args[1:])
	case "version":
		fmt.Printf("recgame %s (built %s)\n", CurrentVersion, BuildDate)
	default:
		fmt.Fprintln(os.Stderr, "unknown command:", args[0])
		usage()
		os.Exit(2)
	}
	if err != nil {
		Logger.Error("command failed", "command", args[0], "error", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: recgame <command> [args]

commands:
  header  <file>...          decode match-setup headers, one JSON document per file
  body    <file>...          decode body operations, one JSON line per operation
  extract <file>...          split containers into <stem>.header.bin and <stem>.body.bin
  dump    <file> [maxBytes]  hex dump of the split header and body blobs
  index   <path>...          decode recordings (directories are walked) into the catalog
  version                    print version`)
}

func setupLogging() error {
	LogManager = logging.NewManager()

	logsDir := config.GetString("logsDir")
	if err := os.MkdirAll(logsDir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(logsDir,
		fmt.Sprintf("recgame_%s.log", SessionStartTime.Format("20060102_150405")))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	LogFile = f
	LogManager.Setup(f, config.GetString("logLevel"))
	Logger = LogManager.Logger()
	return nil
}

func closeLogging() {
	if LogFile != nil {
		_ = LogFile.Close()
	}
}

// setupMonitor connects the telemetry manager when monitor.enabled is set.
// Returns nil when monitoring is off.
func setupMonitor() *monitor.Manager {
	if !config.GetBool("monitor.enabled") {
		return nil
	}

	backupDir := config.GetString("monitor.backupDir")
	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		Logger.Warn("creating metrics backup dir, telemetry disabled", "error", err)
		return nil
	}
	backupPath := filepath.Join(backupDir,
		fmt.Sprintf("metrics_%s.gz", SessionStartTime.Format("20060102_150405")))

	zl := zerolog.New(os.Stderr).With().Timestamp().Logger()
	m := monitor.NewManager(zl, backupPath)
	if err := m.Connect(); err != nil {
		Logger.Warn("connecting telemetry, continuing without it", "error", err)
		return nil
	}
	return m
}
