// Package provider turns metric requests into transport calls. A provider
// resolves the address of a metric, fetches the raw text through its client,
// decodes it and applies the metric's divisor:
//
//	string   → parsed text, unchanged
//	integer  → parsed number truncated, no divisor
//	enum     → parsed number mapped through the enum, unknown codes → default
//	numeric  → parsed number / divisor
//
// Three providers exist: SNMPv1 and SNMPv3 (NewSNMPv1, NewSNMPv3) share the
// SNMP type, and SSH talks to the APC CLI.
package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/vpbank/apc_pdu/pkg/apcpdu/metric"
	"github.com/vpbank/apc_pdu/snmp/oidmap"
)

// DefaultOutletsPerPdu is the outlet count of an AP8xxx chassis.
const DefaultOutletsPerPdu = 24

// ErrOutOfRange is wrapped by every slot / outlet validation failure.
var ErrOutOfRange = errors.New("index out of range")

// Provider reads metrics from one PDU address.
type Provider interface {
	Host() string
	OutletsPerPdu() int
	Writable() bool

	DeviceMetric(ctx context.Context, m metric.DeviceMetric, pduSlot int) (metric.Value, error)
	DeviceMetricsBatch(ctx context.Context, pduSlot int) (map[metric.DeviceMetric]metric.Value, error)
	OutletMetric(ctx context.Context, m metric.OutletMetric, pduSlot, outlet int) (metric.Value, error)
	OutletMetricsBatch(ctx context.Context, pduSlot, outlet int) (map[metric.OutletMetric]metric.Value, error)
}

// WritableProvider adds outlet configuration, outlet control and counter
// resets. Implementations whose Writable reports false fail every method
// with an UnsupportedOperationError before touching the network.
type WritableProvider interface {
	Provider

	SetOutletName(ctx context.Context, pduSlot, outlet int, name string) error
	SetOutletExternalLink(ctx context.Context, pduSlot, outlet int, link string) error
	SetOutletState(ctx context.Context, pduSlot, outlet int, cmd metric.OutletCommand) error
	SetOutletLowLoadThreshold(ctx context.Context, pduSlot, outlet, watts int) error
	SetOutletNearOverloadThreshold(ctx context.Context, pduSlot, outlet, watts int) error
	SetOutletOverloadThreshold(ctx context.Context, pduSlot, outlet, watts int) error

	ResetDevicePeakPower(ctx context.Context, pduSlot int) error
	ResetDeviceEnergy(ctx context.Context, pduSlot int) error
	ResetOutletsEnergy(ctx context.Context, pduSlot int) error
	ResetOutletsPeakPower(ctx context.Context, pduSlot int) error
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────────────────────

func checkSlot(pduSlot int) error {
	if pduSlot < 1 || pduSlot > oidmap.MaxPduSlots {
		return fmt.Errorf("pdu slot %d: %w (1..%d)", pduSlot, ErrOutOfRange, oidmap.MaxPduSlots)
	}
	return nil
}

func checkOutlet(pduSlot, outlet, outletsPerPdu int) error {
	if err := checkSlot(pduSlot); err != nil {
		return err
	}
	if outlet < 1 || outlet > outletsPerPdu {
		return fmt.Errorf("outlet %d: %w (1..%d)", outlet, ErrOutOfRange, outletsPerPdu)
	}
	return nil
}
