package provider

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vpbank/apc_pdu/pkg/apcpdu/client"
	"github.com/vpbank/apc_pdu/pkg/apcpdu/metric"
	"github.com/vpbank/apc_pdu/snmp/oidmap"
)

// SNMP is the SNMPv1 / SNMPv3 provider. Its state is fixed at construction:
// the client, the credentials (including the derived v3 security level) and
// the outlet count.
type SNMP struct {
	name          string
	client        client.Reader
	writer        client.Writer // nil when the client is read-only
	creds         client.Credentials
	outletsPerPdu int
	logger        *slog.Logger
}

var _ WritableProvider = (*SNMP)(nil)

func newSNMP(name string, c client.Reader, creds client.Credentials, outletsPerPdu int, logger *slog.Logger) *SNMP {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(noopWriter{}, nil))
	}
	if outletsPerPdu <= 0 {
		outletsPerPdu = DefaultOutletsPerPdu
	}
	w, _ := c.(client.Writer)
	return &SNMP{
		name:          name,
		client:        c,
		writer:        w,
		creds:         creds,
		outletsPerPdu: outletsPerPdu,
		logger:        logger.With("provider", name, "host", c.Host()),
	}
}

func (p *SNMP) Host() string       { return p.client.Host() }
func (p *SNMP) OutletsPerPdu() int { return p.outletsPerPdu }
func (p *SNMP) Writable() bool     { return p.writer != nil }

// Name is "snmpv1" or "snmpv3".
func (p *SNMP) Name() string { return p.name }

// SecurityLevel is the USM level in use; empty for SNMPv1.
func (p *SNMP) SecurityLevel() client.SecurityLevel { return p.creds.SecurityLevel }

// ─────────────────────────────────────────────────────────────────────────────
// Device metrics
// ─────────────────────────────────────────────────────────────────────────────

func (p *SNMP) DeviceMetric(ctx context.Context, m metric.DeviceMetric, pduSlot int) (metric.Value, error) {
	if err := checkSlot(pduSlot); err != nil {
		return metric.Value{}, err
	}
	oid := oidmap.DeviceOID(m, pduSlot)
	if oid == "" {
		return metric.Value{}, fmt.Errorf("unknown device metric %d", int(m))
	}

	raw, err := p.client.Get(ctx, oid, p.creds)
	if err != nil {
		return metric.Value{}, fmt.Errorf("device %s (pdu %d): %w", m, pduSlot, err)
	}
	v, err := decodeDevice(singleParsers, m, raw)
	if err != nil {
		return metric.Value{}, fmt.Errorf("device %s (pdu %d): %w", m, pduSlot, err)
	}
	return v, nil
}

// DeviceMetricsBatch fetches every device metric of a slot in one batch.
// A transport failure fails the whole call; a value that does not decode is
// left out of the map.
func (p *SNMP) DeviceMetricsBatch(ctx context.Context, pduSlot int) (map[metric.DeviceMetric]metric.Value, error) {
	if err := checkSlot(pduSlot); err != nil {
		return nil, err
	}

	all := metric.DeviceMetrics()
	oids := make([]string, len(all))
	for i, m := range all {
		oids[i] = oidmap.DeviceOID(m, pduSlot)
	}

	raw, err := p.client.GetBatch(ctx, oids, p.creds)
	if err != nil {
		return nil, fmt.Errorf("device batch (pdu %d): %w", pduSlot, err)
	}

	out := make(map[metric.DeviceMetric]metric.Value, len(all))
	for i, m := range all {
		v, err := decodeDevice(batchParsers, m, raw[oids[i]])
		if err != nil {
			p.logger.Warn("device metric not decoded", "metric", m.ID(), "pdu", pduSlot, "error", err)
			continue
		}
		out[m] = v
	}
	return out, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Outlet metrics
// ─────────────────────────────────────────────────────────────────────────────

func (p *SNMP) OutletMetric(ctx context.Context, m metric.OutletMetric, pduSlot, outlet int) (metric.Value, error) {
	if err := checkOutlet(pduSlot, outlet, p.outletsPerPdu); err != nil {
		return metric.Value{}, err
	}
	oid := oidmap.OutletOID(m, p.globalIndex(pduSlot, outlet))
	if oid == "" {
		return metric.Value{}, fmt.Errorf("unknown outlet metric %d", int(m))
	}

	raw, err := p.client.Get(ctx, oid, p.creds)
	if err != nil {
		return metric.Value{}, fmt.Errorf("outlet %s (pdu %d, outlet %d): %w", m, pduSlot, outlet, err)
	}
	v, err := decodeOutlet(singleParsers, m, raw)
	if err != nil {
		return metric.Value{}, fmt.Errorf("outlet %s (pdu %d, outlet %d): %w", m, pduSlot, outlet, err)
	}
	return v, nil
}

// OutletMetricsBatch fetches every outlet metric in one batch, with the same
// failure rules as DeviceMetricsBatch.
func (p *SNMP) OutletMetricsBatch(ctx context.Context, pduSlot, outlet int) (map[metric.OutletMetric]metric.Value, error) {
	if err := checkOutlet(pduSlot, outlet, p.outletsPerPdu); err != nil {
		return nil, err
	}

	global := p.globalIndex(pduSlot, outlet)
	all := metric.OutletMetrics()
	oids := make([]string, len(all))
	for i, m := range all {
		oids[i] = oidmap.OutletOID(m, global)
	}

	raw, err := p.client.GetBatch(ctx, oids, p.creds)
	if err != nil {
		return nil, fmt.Errorf("outlet batch (pdu %d, outlet %d): %w", pduSlot, outlet, err)
	}

	out := make(map[metric.OutletMetric]metric.Value, len(all))
	for i, m := range all {
		v, err := decodeOutlet(batchParsers, m, raw[oids[i]])
		if err != nil {
			p.logger.Warn("outlet metric not decoded", "metric", m.ID(), "pdu", pduSlot, "outlet", outlet, "error", err)
			continue
		}
		out[m] = v
	}
	return out, nil
}

func (p *SNMP) globalIndex(pduSlot, outlet int) int {
	return oidmap.GlobalOutletIndex(pduSlot, outlet, p.outletsPerPdu)
}

// noopWriter discards log output.
type noopWriter struct{}

func (noopWriter) Write(b []byte) (int, error) { return len(b), nil }
