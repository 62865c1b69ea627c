// Package pdu is the caller-facing facade over a provider. A PDU addresses one
// NPS group (one management address with up to four chassis); an Outlet
// addresses one socket on one chassis.
//
// The fetch-all helpers (AllOutlets, FullStatus) skip outlets and slots that
// fail to answer, so a partially populated NPS group still yields a result.
package pdu

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/vpbank/apc_pdu/models"
	"github.com/vpbank/apc_pdu/pkg/apcpdu/metric"
	"github.com/vpbank/apc_pdu/pkg/apcpdu/pduerr"
	"github.com/vpbank/apc_pdu/pkg/apcpdu/provider"
	"github.com/vpbank/apc_pdu/snmp/oidmap"
)

const readOnlyProtocol = "protocol does not support write operations"

// PDU wraps a provider. It holds no state besides its configuration and is
// safe for use by one goroutine at a time per host (the provider's client
// serialises calls when a limiter is configured).
type PDU struct {
	provider provider.Provider
	slots    int
	backend  string
	logger   *slog.Logger

	closers []io.Closer
}

// NewPDU wraps p. slots is the number of NPS positions FullStatus visits
// (1..4); zero or out of range means all four.
func NewPDU(p provider.Provider, slots int, logger *slog.Logger) *PDU {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(noopWriter{}, nil))
	}
	if slots < 1 || slots > oidmap.MaxPduSlots {
		slots = oidmap.MaxPduSlots
	}
	return &PDU{
		provider: p,
		slots:    slots,
		logger:   logger.With("host", p.Host()),
	}
}

func (d *PDU) Host() string       { return d.provider.Host() }
func (d *PDU) OutletsPerPdu() int { return d.provider.OutletsPerPdu() }
func (d *PDU) Slots() int         { return d.slots }

// Backend names the transport in use, e.g. "binary" or "ssh". Empty when the
// PDU was built around a caller-supplied provider.
func (d *PDU) Backend() string { return d.backend }

// Provider returns the underlying provider.
func (d *PDU) Provider() provider.Provider { return d.provider }

// Writable reports whether outlet control, configuration and resets are
// available.
func (d *PDU) Writable() bool {
	_, ok := d.provider.(provider.WritableProvider)
	return ok && d.provider.Writable()
}

// Close releases transport resources held by the PDU.
func (d *PDU) Close() error {
	var errs []error
	for _, c := range d.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ─────────────────────────────────────────────────────────────────────────────
// Reads
// ─────────────────────────────────────────────────────────────────────────────

// DeviceMetric reads a single chassis metric.
func (d *PDU) DeviceMetric(ctx context.Context, m metric.DeviceMetric, pduSlot int) (metric.Value, error) {
	return d.provider.DeviceMetric(ctx, m, pduSlot)
}

// DeviceStatus reads every chassis metric of pduSlot in one batch.
func (d *PDU) DeviceStatus(ctx context.Context, pduSlot int) (models.DeviceStatus, error) {
	values, err := d.provider.DeviceMetricsBatch(ctx, pduSlot)
	if err != nil {
		return models.DeviceStatus{}, err
	}
	return deviceStatus(pduSlot, values), nil
}

// Outlet returns a handle to outlet number on pduSlot. Range checks happen on
// use.
func (d *PDU) Outlet(pduSlot, number int) *Outlet {
	return &Outlet{pdu: d, slot: pduSlot, number: number}
}

// AllOutlets reads the status of every outlet on pduSlot. Outlets that fail
// are left out.
func (d *PDU) AllOutlets(ctx context.Context, pduSlot int) []models.OutletStatus {
	var out []models.OutletStatus
	for n := 1; n <= d.OutletsPerPdu(); n++ {
		if ctx.Err() != nil {
			break
		}
		st, err := d.Outlet(pduSlot, n).Status(ctx)
		if err != nil {
			d.logger.Debug("pdu: skip outlet", "pdu", pduSlot, "outlet", n, "error", err.Error())
			continue
		}
		out = append(out, st)
	}
	return out
}

// PduInfo reads the chassis status and every answering outlet of pduSlot.
// It fails only when the chassis itself does not answer.
func (d *PDU) PduInfo(ctx context.Context, pduSlot int) (models.PduInfo, error) {
	dev, err := d.DeviceStatus(ctx, pduSlot)
	if err != nil {
		return models.PduInfo{}, err
	}
	return models.PduInfo{PduSlot: pduSlot, Device: dev, Outlets: d.AllOutlets(ctx, pduSlot)}, nil
}

// FullStatus reads every configured slot. Slots whose chassis does not
// answer (typically an empty NPS position) are left out.
func (d *PDU) FullStatus(ctx context.Context) []models.PduInfo {
	var out []models.PduInfo
	for slot := 1; slot <= d.slots; slot++ {
		info, err := d.PduInfo(ctx, slot)
		if err != nil {
			d.logger.Debug("pdu: skip slot", "pdu", slot, "error", err.Error())
			continue
		}
		out = append(out, info)
	}
	return out
}

// TestConnection reports whether the chassis power of pduSlot can be read.
func (d *PDU) TestConnection(ctx context.Context, pduSlot int) bool {
	_, err := d.provider.DeviceMetric(ctx, metric.DevicePower, pduSlot)
	if err != nil {
		d.logger.Debug("pdu: connection test failed", "pdu", pduSlot, "error", err.Error())
		return false
	}
	return true
}

// ─────────────────────────────────────────────────────────────────────────────
// Resets
// ─────────────────────────────────────────────────────────────────────────────

func (d *PDU) writable(op string) (provider.WritableProvider, error) {
	w, ok := d.provider.(provider.WritableProvider)
	if !ok {
		return nil, &pduerr.UnsupportedOperationError{Op: op, Msg: readOnlyProtocol}
	}
	return w, nil
}

func (d *PDU) ResetDevicePeakPower(ctx context.Context, pduSlot int) error {
	w, err := d.writable("reset device peak power")
	if err != nil {
		return err
	}
	return w.ResetDevicePeakPower(ctx, pduSlot)
}

func (d *PDU) ResetDeviceEnergy(ctx context.Context, pduSlot int) error {
	w, err := d.writable("reset device energy")
	if err != nil {
		return err
	}
	return w.ResetDeviceEnergy(ctx, pduSlot)
}

func (d *PDU) ResetOutletsEnergy(ctx context.Context, pduSlot int) error {
	w, err := d.writable("reset outlets energy")
	if err != nil {
		return err
	}
	return w.ResetOutletsEnergy(ctx, pduSlot)
}

func (d *PDU) ResetOutletsPeakPower(ctx context.Context, pduSlot int) error {
	w, err := d.writable("reset outlets peak power")
	if err != nil {
		return err
	}
	return w.ResetOutletsPeakPower(ctx, pduSlot)
}

type noopWriter struct{}

func (noopWriter) Write(p []byte) (int, error) { return len(p), nil }
