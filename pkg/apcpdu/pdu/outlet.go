package pdu

import (
	"context"

	"github.com/vpbank/apc_pdu/models"
	"github.com/vpbank/apc_pdu/pkg/apcpdu/metric"
)

// Outlet is one socket of one chassis.
type Outlet struct {
	pdu    *PDU
	slot   int
	number int
}

func (o *Outlet) PduSlot() int { return o.slot }
func (o *Outlet) Number() int  { return o.number }

// Writable reports whether the outlet can be renamed, switched or have its
// thresholds changed.
func (o *Outlet) Writable() bool { return o.pdu.Writable() }

// Metric reads a single outlet metric.
func (o *Outlet) Metric(ctx context.Context, m metric.OutletMetric) (metric.Value, error) {
	return o.pdu.provider.OutletMetric(ctx, m, o.slot, o.number)
}

// Status reads every outlet metric in one batch.
func (o *Outlet) Status(ctx context.Context) (models.OutletStatus, error) {
	values, err := o.pdu.provider.OutletMetricsBatch(ctx, o.slot, o.number)
	if err != nil {
		return models.OutletStatus{}, err
	}
	return outletStatus(o.number, values), nil
}

func (o *Outlet) Name(ctx context.Context) (string, error) {
	v, err := o.Metric(ctx, metric.OutletName)
	if err != nil {
		return "", err
	}
	return v.String(), nil
}

// Index is the physical position reported by the device.
func (o *Outlet) Index(ctx context.Context) (int, error) {
	v, err := o.Metric(ctx, metric.OutletIndex)
	return int(v.Int()), err
}

func (o *Outlet) State(ctx context.Context) (metric.PowerState, error) {
	v, err := o.Metric(ctx, metric.OutletState)
	if err != nil {
		return metric.PowerOff, err
	}
	return v.PowerState(), nil
}

// Current is in amperes.
func (o *Outlet) Current(ctx context.Context) (float64, error) {
	v, err := o.Metric(ctx, metric.OutletCurrent)
	return v.Float(), err
}

// Power is in watts.
func (o *Outlet) Power(ctx context.Context) (float64, error) {
	v, err := o.Metric(ctx, metric.OutletPower)
	return v.Float(), err
}

func (o *Outlet) PeakPower(ctx context.Context) (float64, error) {
	v, err := o.Metric(ctx, metric.OutletPeakPower)
	return v.Float(), err
}

// Energy is in kWh.
func (o *Outlet) Energy(ctx context.Context) (float64, error) {
	v, err := o.Metric(ctx, metric.OutletEnergy)
	return v.Float(), err
}

func (o *Outlet) OutletType(ctx context.Context) (string, error) {
	v, err := o.Metric(ctx, metric.OutletType)
	if err != nil {
		return "", err
	}
	return v.String(), nil
}

func (o *Outlet) ExternalLink(ctx context.Context) (string, error) {
	v, err := o.Metric(ctx, metric.OutletExternalLink)
	if err != nil {
		return "", err
	}
	return v.String(), nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Writes
// ─────────────────────────────────────────────────────────────────────────────

func (o *Outlet) SetName(ctx context.Context, name string) error {
	w, err := o.pdu.writable("set outlet name")
	if err != nil {
		return err
	}
	return w.SetOutletName(ctx, o.slot, o.number, name)
}

// SetState switches the outlet on, off or through a reboot cycle.
func (o *Outlet) SetState(ctx context.Context, cmd metric.OutletCommand) error {
	w, err := o.pdu.writable("set outlet state")
	if err != nil {
		return err
	}
	return w.SetOutletState(ctx, o.slot, o.number, cmd)
}

func (o *Outlet) SetExternalLink(ctx context.Context, link string) error {
	w, err := o.pdu.writable("set outlet external link")
	if err != nil {
		return err
	}
	return w.SetOutletExternalLink(ctx, o.slot, o.number, link)
}

// SetLowLoadThreshold and the two siblings take watts.
func (o *Outlet) SetLowLoadThreshold(ctx context.Context, watts int) error {
	w, err := o.pdu.writable("set outlet low load threshold")
	if err != nil {
		return err
	}
	return w.SetOutletLowLoadThreshold(ctx, o.slot, o.number, watts)
}

func (o *Outlet) SetNearOverloadThreshold(ctx context.Context, watts int) error {
	w, err := o.pdu.writable("set outlet near overload threshold")
	if err != nil {
		return err
	}
	return w.SetOutletNearOverloadThreshold(ctx, o.slot, o.number, watts)
}

func (o *Outlet) SetOverloadThreshold(ctx context.Context, watts int) error {
	w, err := o.pdu.writable("set outlet overload threshold")
	if err != nil {
		return err
	}
	return w.SetOutletOverloadThreshold(ctx, o.slot, o.number, watts)
}
