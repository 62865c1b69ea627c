// Package poller turns scheduled device jobs into status records. A job
// names one configured PDU; polling it reads every slot and yields one
// models.StatusRecord per slot.
package poller

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/vpbank/apc_pdu/models"
	"github.com/vpbank/apc_pdu/pkg/apcpdu/config"
	"github.com/vpbank/apc_pdu/pkg/apcpdu/pdu"
)

// PollJob is one poll of one configured device.
type PollJob struct {
	// Device is the key into config.LoadedConfig.Devices.
	Device string

	Config config.DeviceConfig
}

// Poller executes a poll job.
type Poller interface {
	Poll(ctx context.Context, job PollJob) ([]models.StatusRecord, error)
}

// OpenFunc builds a PDU from its configuration. pdu.New in production.
type OpenFunc func(cfg config.DeviceConfig, logger *slog.Logger) (*pdu.PDU, error)

// PDUPoller polls PDUs it opens on first use and keeps open until the
// device configuration changes or Close is called.
type PDUPoller struct {
	collectorID string
	open        OpenFunc
	logger      *slog.Logger
	now         func() time.Time

	mu      sync.Mutex
	devices map[string]*cached
}

type cached struct {
	cfg config.DeviceConfig
	pdu *pdu.PDU
}

// NewPDUPoller returns a poller stamping records with collectorID. A nil
// open defaults to pdu.New.
func NewPDUPoller(collectorID string, open OpenFunc, logger *slog.Logger) *PDUPoller {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(noopWriter{}, nil))
	}
	if open == nil {
		open = pdu.New
	}
	return &PDUPoller{
		collectorID: collectorID,
		open:        open,
		logger:      logger,
		now:         time.Now,
		devices:     make(map[string]*cached),
	}
}

// Poll reads every slot of the job's device. An error is returned only when
// the device cannot be opened; slot failures become records with
// PollStatus "error".
func (p *PDUPoller) Poll(ctx context.Context, job PollJob) ([]models.StatusRecord, error) {
	d, err := p.get(job)
	if err != nil {
		return nil, err
	}

	records := make([]models.StatusRecord, 0, d.Slots())
	for slot := 1; slot <= d.Slots(); slot++ {
		if ctx.Err() != nil {
			break
		}
		rec := Collect(ctx, d, slot, p.now)
		rec.Device = job.Device
		rec.CollectorID = p.collectorID
		records = append(records, rec)
	}

	p.logger.Debug("poll completed",
		"device", job.Device,
		"host", d.Host(),
		"records", len(records),
	)
	return records, nil
}

// Collect reads one slot of d into a status record. A chassis that does not
// answer yields PollError, a chassis with missing outlets PollPartial.
func Collect(ctx context.Context, d *pdu.PDU, slot int, now func() time.Time) models.StatusRecord {
	if now == nil {
		now = time.Now
	}
	started := now()
	rec := models.StatusRecord{
		Timestamp: started.UTC(),
		Host:      d.Host(),
		Pdu:       models.PduInfo{PduSlot: slot},
	}

	info, err := d.PduInfo(ctx, slot)
	rec.PollDurationMs = now().Sub(started).Milliseconds()
	switch {
	case err != nil:
		rec.PollStatus = models.PollError
	case len(info.Outlets) < d.OutletsPerPdu():
		rec.Pdu = info
		rec.PollStatus = models.PollPartial
	default:
		rec.Pdu = info
		rec.PollStatus = models.PollSuccess
	}
	return rec
}

// Close releases every open PDU.
func (p *PDUPoller) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for name, c := range p.devices {
		if err := c.pdu.Close(); err != nil {
			p.logger.Warn("poller: close device", "device", name, "error", err.Error())
		}
		delete(p.devices, name)
	}
}

// Forget closes and drops every cached PDU whose device is not in keep.
func (p *PDUPoller) Forget(keep map[string]config.DeviceConfig) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for name, c := range p.devices {
		if _, ok := keep[name]; ok {
			continue
		}
		_ = c.pdu.Close()
		delete(p.devices, name)
	}
}

func (p *PDUPoller) get(job PollJob) (*pdu.PDU, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if c, ok := p.devices[job.Device]; ok {
		if c.cfg == job.Config {
			return c.pdu, nil
		}
		_ = c.pdu.Close()
		delete(p.devices, job.Device)
	}

	d, err := p.open(job.Config, p.logger)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", job.Device, err)
	}
	p.devices[job.Device] = &cached{cfg: job.Config, pdu: d}
	return d, nil
}

type noopWriter struct{}

func (noopWriter) Write(p []byte) (int, error) { return len(p), nil }
