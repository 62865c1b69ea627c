// Package app wires the PDU collector together and manages its lifecycle.
//
// Watch mode:
//
//	Scheduler → WorkerPool → [recordCh] → Formatter → Transport
//
// One-shot mode (Collect) polls the selected devices concurrently and
// writes their records through the same formatter and transport.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"golang.org/x/sync/errgroup"

	jsonformat "github.com/vpbank/apc_pdu/format/json"
	"github.com/vpbank/apc_pdu/models"
	"github.com/vpbank/apc_pdu/pkg/apcpdu/config"
	"github.com/vpbank/apc_pdu/pkg/apcpdu/pdu"
	"github.com/vpbank/apc_pdu/pkg/apcpdu/poller"
	"github.com/vpbank/apc_pdu/pkg/apcpdu/scheduler"
	filetransport "github.com/vpbank/apc_pdu/transport/file"
)

// ─────────────────────────────────────────────────────────────────────────────
// Configuration
// ─────────────────────────────────────────────────────────────────────────────

// Config holds the top-level settings. Zero-value fields fall back to
// defaults.
type Config struct {
	// ConfigPaths are the device inventory directories.
	// Use config.PathsFromEnv() to populate from environment variables.
	ConfigPaths config.Paths

	// CollectorID identifies this instance in every record. Default: hostname.
	CollectorID string

	// Workers is the number of devices polled concurrently. Default: 4.
	Workers int

	// BufferSize is the capacity of the record channel. Default: 256.
	BufferSize int

	// PrettyPrint enables indented JSON output.
	PrettyPrint bool

	// Output selects the record destination when TransportWriter is nil.
	Output filetransport.Output

	// TransportWriter overrides Output. It is not closed by the app.
	TransportWriter io.Writer

	// Open builds a PDU from its configuration. Default: pdu.New.
	Open poller.OpenFunc
}

func (c *Config) withDefaults() {
	if c.CollectorID == "" {
		name, _ := os.Hostname()
		if name == "" {
			name = "apcpdu"
		}
		c.CollectorID = name
	}
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.BufferSize <= 0 {
		c.BufferSize = 256
	}
	if c.Open == nil {
		c.Open = pdu.New
	}
}

// ErrUnknownDevice is returned for a device name absent from the inventory.
var ErrUnknownDevice = errors.New("unknown device")

// ─────────────────────────────────────────────────────────────────────────────
// App
// ─────────────────────────────────────────────────────────────────────────────

// App owns the loaded inventory and the output path.
type App struct {
	cfg    Config
	logger *slog.Logger

	loadedCfg *config.LoadedConfig

	formatter *jsonformat.JSONFormatter
	transport filetransport.Transport

	pdus       *poller.PDUPoller
	workerPool *poller.WorkerPool
	sched      *scheduler.Scheduler
	recordCh   chan models.StatusRecord

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New constructs an App. Nothing is loaded or started.
func New(cfg Config, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(noopWriter{}, nil))
	}
	cfg.withDefaults()
	return &App{
		cfg:    cfg,
		logger: logger,
	}
}

// Load reads the device inventory. Start, Collect and Device call it on
// first use.
func (a *App) Load() error {
	loaded, err := config.Load(a.cfg.ConfigPaths, a.logger)
	if err != nil {
		return fmt.Errorf("app: load config: %w", err)
	}
	a.loadedCfg = loaded
	a.logger.Info("app: configuration loaded", "devices", len(loaded.Devices))
	return nil
}

func (a *App) ensureLoaded() error {
	if a.loadedCfg != nil {
		return nil
	}
	return a.Load()
}

// Devices returns the configured device names, sorted.
func (a *App) Devices() ([]string, error) {
	if err := a.ensureLoaded(); err != nil {
		return nil, err
	}
	return a.loadedCfg.Names(), nil
}

// Device opens the named PDU. The caller closes it.
func (a *App) Device(name string) (*pdu.PDU, error) {
	if err := a.ensureLoaded(); err != nil {
		return nil, err
	}
	dc, ok := a.loadedCfg.Devices[name]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownDevice, name)
	}
	return a.cfg.Open(dc, a.logger)
}

func (a *App) openOutput() error {
	if a.transport != nil {
		return nil
	}
	a.formatter = jsonformat.New(jsonformat.Config{PrettyPrint: a.cfg.PrettyPrint}, a.logger)
	if a.cfg.TransportWriter != nil {
		a.transport = filetransport.New(filetransport.Config{Writer: a.cfg.TransportWriter}, a.logger)
		return nil
	}
	t, err := filetransport.Open(a.cfg.Output, a.logger)
	if err != nil {
		return fmt.Errorf("app: open output: %w", err)
	}
	a.transport = t
	return nil
}

func (a *App) emit(rec *models.StatusRecord) {
	data, err := a.formatter.Format(rec)
	if err != nil {
		a.logger.Warn("app: format error", "device", rec.Device, "error", err.Error())
		return
	}
	if err := a.transport.Send(data); err != nil {
		a.logger.Error("app: transport send error", "error", err.Error(), "bytes", len(data))
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// One-shot
// ─────────────────────────────────────────────────────────────────────────────

// Collect polls the named devices (all when names is empty) once and writes
// every record in device order. Devices that cannot be opened are reported
// in the joined error; the others are still written.
func (a *App) Collect(ctx context.Context, names ...string) error {
	if err := a.ensureLoaded(); err != nil {
		return err
	}
	if len(names) == 0 {
		names = a.loadedCfg.Names()
	}
	jobs := make([]poller.PollJob, 0, len(names))
	for _, name := range names {
		dc, ok := a.loadedCfg.Devices[name]
		if !ok {
			return fmt.Errorf("%w %q", ErrUnknownDevice, name)
		}
		jobs = append(jobs, poller.PollJob{Device: name, Config: dc})
	}
	if err := a.openOutput(); err != nil {
		return err
	}

	pdus := poller.NewPDUPoller(a.cfg.CollectorID, a.cfg.Open, a.logger)
	defer pdus.Close()

	results := make([][]models.StatusRecord, len(jobs))
	errs := make([]error, len(jobs))

	var g errgroup.Group
	g.SetLimit(a.cfg.Workers)
	for i, job := range jobs {
		g.Go(func() error {
			results[i], errs[i] = pdus.Poll(ctx, job)
			return nil
		})
	}
	_ = g.Wait()

	for i := range results {
		for j := range results[i] {
			a.emit(&results[i][j])
		}
	}
	return errors.Join(errs...)
}

// Close releases the output opened by Collect. Stop does this for watch
// mode.
func (a *App) Close() error {
	if a.transport == nil {
		return nil
	}
	err := a.transport.Close()
	a.transport = nil
	return err
}

// ─────────────────────────────────────────────────────────────────────────────
// Watch
// ─────────────────────────────────────────────────────────────────────────────

// Start loads the inventory if needed, builds the pipeline and starts
// polling every device at its interval. Stop (after cancelling ctx, or on
// its own) shuts it down.
func (a *App) Start(ctx context.Context) error {
	if err := a.ensureLoaded(); err != nil {
		return err
	}
	if err := a.openOutput(); err != nil {
		return err
	}

	a.recordCh = make(chan models.StatusRecord, a.cfg.BufferSize)
	a.pdus = poller.NewPDUPoller(a.cfg.CollectorID, a.cfg.Open, a.logger)
	a.workerPool = poller.NewWorkerPool(a.cfg.Workers, a.pdus, a.recordCh, a.logger)
	a.sched = scheduler.New(a.loadedCfg, a.workerPool, a.logger)

	pipeCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	a.startOutputStage()
	a.workerPool.Start(pipeCtx)

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.sched.Start(pipeCtx)
	}()

	a.logger.Info("app: pipeline running",
		"devices", a.sched.Entries(),
		"workers", a.cfg.Workers,
		"buffer_size", a.cfg.BufferSize,
	)
	return nil
}

// Stop shuts the pipeline down:
//  1. cancel the pipeline context
//  2. wait for the scheduler, then drain the worker pool
//  3. close recordCh and wait for the output stage
//  4. close the transport and every open PDU
func (a *App) Stop() {
	a.logger.Info("app: shutting down")

	if a.cancel != nil {
		a.cancel()
	}
	if a.sched != nil {
		a.sched.Stop()
	}
	if a.workerPool != nil {
		a.workerPool.Stop()
	}
	if a.recordCh != nil {
		close(a.recordCh)
	}
	a.wg.Wait()

	if err := a.Close(); err != nil {
		a.logger.Error("app: transport close error", "error", err.Error())
	}
	if a.pdus != nil {
		a.pdus.Close()
	}
	a.logger.Info("app: shutdown complete")
}

// Reload re-reads the inventory. New and changed devices are polled
// immediately; removed devices stop and their sessions are closed.
func (a *App) Reload() error {
	a.logger.Info("app: reloading configuration")
	newCfg, err := config.Load(a.cfg.ConfigPaths, a.logger)
	if err != nil {
		return fmt.Errorf("app: reload config: %w", err)
	}
	a.loadedCfg = newCfg
	if a.sched != nil {
		a.sched.Reload(newCfg)
	}
	if a.pdus != nil {
		a.pdus.Forget(newCfg.Devices)
	}
	a.logger.Info("app: configuration reloaded", "devices", len(newCfg.Devices))
	return nil
}

func (a *App) startOutputStage() {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		for rec := range a.recordCh {
			a.emit(&rec)
		}
	}()
}

type noopWriter struct{}

func (noopWriter) Write(p []byte) (int, error) { return len(p), nil }
