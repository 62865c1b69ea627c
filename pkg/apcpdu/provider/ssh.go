package provider

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vpbank/apc_pdu/pkg/apcpdu/client"
	"github.com/vpbank/apc_pdu/pkg/apcpdu/metric"
	"github.com/vpbank/apc_pdu/pkg/apcpdu/pduerr"
	"github.com/vpbank/apc_pdu/snmp/oidmap"
)

const sshProviderName = "SSH"

// SSH reads the subset of metrics the APC CLI exposes. It is read-only;
// batches run one command per metric.
type SSH struct {
	cli           client.Commander
	outletsPerPdu int
	logger        *slog.Logger
}

var _ Provider = (*SSH)(nil)

func NewSSH(cli client.Commander, outletsPerPdu int, logger *slog.Logger) *SSH {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(noopWriter{}, nil))
	}
	if outletsPerPdu <= 0 {
		outletsPerPdu = DefaultOutletsPerPdu
	}
	return &SSH{
		cli:           cli,
		outletsPerPdu: outletsPerPdu,
		logger:        logger.With("provider", "ssh", "host", cli.Host()),
	}
}

func (p *SSH) Host() string       { return p.cli.Host() }
func (p *SSH) OutletsPerPdu() int { return p.outletsPerPdu }
func (p *SSH) Writable() bool     { return false }

// SupportsDeviceMetric reports whether m has a CLI command.
func (p *SSH) SupportsDeviceMetric(m metric.DeviceMetric) bool {
	_, ok := sshDeviceCommands[m]
	return ok
}

// SupportsOutletMetric reports whether m has a CLI command.
func (p *SSH) SupportsOutletMetric(m metric.OutletMetric) bool {
	_, ok := sshOutletCommands[m]
	return ok
}

func (p *SSH) DeviceMetric(ctx context.Context, m metric.DeviceMetric, pduSlot int) (metric.Value, error) {
	cmd, ok := sshDeviceCommands[m]
	if !ok {
		return metric.Value{}, &pduerr.UnsupportedMetricError{Metric: m.ID(), Scope: "device", Provider: sshProviderName}
	}
	if err := checkSlot(pduSlot); err != nil {
		return metric.Value{}, err
	}

	out, err := p.cli.Run(ctx, deviceCLI(cmd.reading, pduSlot))
	if err != nil {
		return metric.Value{}, fmt.Errorf("device %s (pdu %d): %w", m, pduSlot, err)
	}
	f, err := cmd.parse(out)
	if err != nil {
		return metric.Value{}, err
	}
	return metric.FloatValue(f), nil
}

// DeviceMetricsBatch returns every supported device metric. The commands go
// out as one CLI batch; any failure fails the call.
func (p *SSH) DeviceMetricsBatch(ctx context.Context, pduSlot int) (map[metric.DeviceMetric]metric.Value, error) {
	if err := checkSlot(pduSlot); err != nil {
		return nil, err
	}

	metrics := make([]metric.DeviceMetric, 0, len(sshDeviceCommands))
	commands := make([]string, 0, len(sshDeviceCommands))
	for _, m := range metric.DeviceMetrics() {
		if cmd, ok := sshDeviceCommands[m]; ok {
			metrics = append(metrics, m)
			commands = append(commands, deviceCLI(cmd.reading, pduSlot))
		}
	}

	outputs, err := p.cli.RunBatch(ctx, commands)
	if err != nil {
		return nil, fmt.Errorf("device batch (pdu %d): %w", pduSlot, err)
	}
	out := make(map[metric.DeviceMetric]metric.Value, len(metrics))
	for i, m := range metrics {
		f, err := sshDeviceCommands[m].parse(outputs[commands[i]])
		if err != nil {
			return nil, err
		}
		out[m] = metric.FloatValue(f)
	}
	return out, nil
}

func (p *SSH) OutletMetric(ctx context.Context, m metric.OutletMetric, pduSlot, outlet int) (metric.Value, error) {
	cmd, ok := sshOutletCommands[m]
	if !ok {
		return metric.Value{}, &pduerr.UnsupportedMetricError{Metric: m.ID(), Scope: "outlet", Provider: sshProviderName}
	}
	if err := checkOutlet(pduSlot, outlet, p.outletsPerPdu); err != nil {
		return metric.Value{}, err
	}

	global := oidmap.GlobalOutletIndex(pduSlot, outlet, p.outletsPerPdu)
	out, err := p.cli.Run(ctx, outletCLI(cmd.reading, global))
	if err != nil {
		return metric.Value{}, fmt.Errorf("outlet %s (pdu %d, outlet %d): %w", m, pduSlot, outlet, err)
	}
	return cmd.parse(out)
}

// OutletMetricsBatch returns every supported outlet metric.
func (p *SSH) OutletMetricsBatch(ctx context.Context, pduSlot, outlet int) (map[metric.OutletMetric]metric.Value, error) {
	if err := checkOutlet(pduSlot, outlet, p.outletsPerPdu); err != nil {
		return nil, err
	}

	global := oidmap.GlobalOutletIndex(pduSlot, outlet, p.outletsPerPdu)
	metrics := make([]metric.OutletMetric, 0, len(sshOutletCommands))
	commands := make([]string, 0, len(sshOutletCommands))
	for _, m := range metric.OutletMetrics() {
		if cmd, ok := sshOutletCommands[m]; ok {
			metrics = append(metrics, m)
			commands = append(commands, outletCLI(cmd.reading, global))
		}
	}

	outputs, err := p.cli.RunBatch(ctx, commands)
	if err != nil {
		return nil, fmt.Errorf("outlet batch (pdu %d, outlet %d): %w", pduSlot, outlet, err)
	}
	out := make(map[metric.OutletMetric]metric.Value, len(metrics))
	for i, m := range metrics {
		v, err := sshOutletCommands[m].parse(outputs[commands[i]])
		if err != nil {
			return nil, err
		}
		out[m] = v
	}
	return out, nil
}
