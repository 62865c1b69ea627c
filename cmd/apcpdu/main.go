// Command apcpdu reads and controls APC rack PDUs over SNMP or SSH.
//
// Usage:
//
//	apcpdu [global options] status [-d device]...
//	apcpdu [global options] test [-d device]...
//	apcpdu [global options] outlet -d device -p pdu -o outlet
//	apcpdu [global options] metric -d device -p pdu [-o outlet] metric...
//	apcpdu [global options] set-outlet -d device -p pdu -o outlet [--state on|off|reboot] [--name ...]
//	apcpdu [global options] reset -d device -p pdu -t device-peak|device-energy|outlets-energy|outlets-peak
//	apcpdu [global options] watch
//
// Devices come from the YAML inventory under
// APC_PDU_DEVICE_DEFINITIONS_DIRECTORY_PATH (see --config.devices).
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/jessevdk/go-flags"
	"github.com/lmittmann/tint"

	"github.com/vpbank/apc_pdu/pkg/apcpdu/app"
	"github.com/vpbank/apc_pdu/pkg/apcpdu/config"
	filetransport "github.com/vpbank/apc_pdu/transport/file"
)

// options are the global flags. Subcommands register themselves through the
// command tags.
type options struct {
	Log struct {
		Level  string `long:"log.level" default:"info" choice:"debug" choice:"info" choice:"warn" choice:"error" description:"log level"`
		Format string `long:"log.fmt" default:"json" choice:"json" choice:"text" description:"log format (text is colourised unless NO_COLOR is set)"`
	} `group:"Logging"`

	Config struct {
		Devices  string `long:"config.devices" description:"override APC_PDU_DEVICE_DEFINITIONS_DIRECTORY_PATH"`
		Defaults string `long:"config.defaults" description:"override APC_PDU_DEFAULTS_DIRECTORY_PATH"`
	} `group:"Configuration"`

	Output struct {
		File       string `long:"output.file" default:"-" description:"record file, - for stdout"`
		MaxBytes   int64  `long:"output.max.bytes" default:"0" description:"rotate the record file past this size (0 disables)"`
		MaxBackups int    `long:"output.max.backups" default:"5" description:"rotated files to keep (0 keeps all)"`
		Pretty     bool   `long:"output.pretty" description:"indent JSON records"`
	} `group:"Output"`

	CollectorID string `long:"collector.id" description:"collector instance ID (default: hostname)"`
	Workers     int    `long:"workers" default:"4" description:"devices polled concurrently"`

	Status    statusCommand    `command:"status" description:"poll devices once and write their status records"`
	Test      testCommand      `command:"test" description:"check that every PDU slot answers"`
	Outlet    outletCommand    `command:"outlet" description:"print the status of one outlet"`
	Metric    metricCommand    `command:"metric" description:"read individual chassis or outlet metrics"`
	SetOutlet setOutletCommand `command:"set-outlet" description:"switch or configure one outlet"`
	Reset     resetCommand     `command:"reset" description:"reset chassis or outlet counters"`
	Watch     watchCommand     `command:"watch" description:"poll every device at its interval until interrupted"`
}

// env is shared by every subcommand once the global flags are parsed.
type env struct {
	logger *slog.Logger
	app    *app.App
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		if flags.WroteHelp(err) {
			os.Exit(0)
		}
		// go-flags has already printed the error.
		os.Exit(1)
	}
}

func run(args []string) error {
	var (
		opts options
		e    env
	)
	opts.Status.env = &e
	opts.Test.env = &e
	opts.Outlet.env = &e
	opts.Metric.env = &e
	opts.SetOutlet.env = &e
	opts.Reset.env = &e
	opts.Watch.env = &e

	parser := flags.NewParser(&opts, flags.Default)
	parser.Name = "apcpdu"
	parser.CommandHandler = func(cmd flags.Commander, args []string) error {
		if cmd == nil {
			return nil
		}
		logger, err := buildLogger(opts.Log.Level, opts.Log.Format)
		if err != nil {
			return err
		}
		e.logger = logger
		e.app = app.New(appConfig(&opts), logger)
		return cmd.Execute(args)
	}

	_, err := parser.ParseArgs(args)
	return err
}

func appConfig(opts *options) app.Config {
	paths := config.PathsFromEnv()
	if opts.Config.Devices != "" {
		paths.Devices = opts.Config.Devices
	}
	if opts.Config.Defaults != "" {
		paths.Defaults = opts.Config.Defaults
	}
	return app.Config{
		ConfigPaths: paths,
		CollectorID: opts.CollectorID,
		Workers:     opts.Workers,
		PrettyPrint: opts.Output.Pretty,
		Output: filetransport.Output{
			FilePath:   opts.Output.File,
			MaxBytes:   opts.Output.MaxBytes,
			MaxBackups: opts.Output.MaxBackups,
		},
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

func buildLogger(level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		return nil, fmt.Errorf("unknown log level %q (expected debug|info|warn|error)", level)
	}

	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	case "text":
		handler = tint.NewHandler(os.Stderr, &tint.Options{
			Level:   lvl,
			NoColor: os.Getenv("NO_COLOR") != "",
		})
	default:
		return nil, fmt.Errorf("unknown log format %q (expected json|text)", format)
	}
	return slog.New(handler), nil
}
