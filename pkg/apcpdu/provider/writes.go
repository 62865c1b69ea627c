package provider

import (
	"context"
	"fmt"
	"strconv"

	"github.com/vpbank/apc_pdu/pkg/apcpdu/metric"
	"github.com/vpbank/apc_pdu/pkg/apcpdu/pduerr"
	"github.com/vpbank/apc_pdu/snmp/oidmap"
)

const readOnlyClient = "SNMP client does not support write operations"

// ─────────────────────────────────────────────────────────────────────────────
// Outlet configuration
// ─────────────────────────────────────────────────────────────────────────────

func (p *SNMP) SetOutletName(ctx context.Context, pduSlot, outlet int, name string) error {
	return p.setOutletString(ctx, "set outlet name", metric.OutletName, pduSlot, outlet, name)
}

func (p *SNMP) SetOutletExternalLink(ctx context.Context, pduSlot, outlet int, link string) error {
	return p.setOutletString(ctx, "set outlet external link", metric.OutletExternalLink, pduSlot, outlet, link)
}

func (p *SNMP) SetOutletLowLoadThreshold(ctx context.Context, pduSlot, outlet, watts int) error {
	return p.setThreshold(ctx, oidmap.ThresholdLowLoad, pduSlot, outlet, watts)
}

func (p *SNMP) SetOutletNearOverloadThreshold(ctx context.Context, pduSlot, outlet, watts int) error {
	return p.setThreshold(ctx, oidmap.ThresholdNearOverload, pduSlot, outlet, watts)
}

func (p *SNMP) SetOutletOverloadThreshold(ctx context.Context, pduSlot, outlet, watts int) error {
	return p.setThreshold(ctx, oidmap.ThresholdOverload, pduSlot, outlet, watts)
}

// SetOutletState switches an outlet on, off or through a reboot cycle. The
// device may drop the session once it accepts the command; that is success.
func (p *SNMP) SetOutletState(ctx context.Context, pduSlot, outlet int, cmd metric.OutletCommand) error {
	const op = "set outlet state"
	if !p.Writable() {
		return &pduerr.UnsupportedOperationError{Op: op, Msg: readOnlyClient}
	}
	if err := checkOutlet(pduSlot, outlet, p.outletsPerPdu); err != nil {
		return err
	}
	if !cmd.Valid() {
		return fmt.Errorf("%s: invalid command %d", op, int(cmd))
	}
	oid := oidmap.OutletControlOID(p.globalIndex(pduSlot, outlet))
	return p.command(ctx, op, oid, strconv.Itoa(int(cmd)))
}

func (p *SNMP) setOutletString(ctx context.Context, op string, m metric.OutletMetric, pduSlot, outlet int, value string) error {
	if !p.Writable() {
		return &pduerr.UnsupportedOperationError{Op: op, Msg: readOnlyClient}
	}
	if err := checkOutlet(pduSlot, outlet, p.outletsPerPdu); err != nil {
		return err
	}
	oid := oidmap.OutletOID(m, p.globalIndex(pduSlot, outlet))
	if err := p.writer.Set(ctx, oid, oidmap.TypeString, value, p.creds); err != nil {
		return fmt.Errorf("%s (pdu %d, outlet %d): %w", op, pduSlot, outlet, err)
	}
	p.logger.Info(op, "pdu", pduSlot, "outlet", outlet, "value", value)
	return nil
}

func (p *SNMP) setThreshold(ctx context.Context, t oidmap.Threshold, pduSlot, outlet, watts int) error {
	op := "set outlet " + t.String() + " threshold"
	if !p.Writable() {
		return &pduerr.UnsupportedOperationError{Op: op, Msg: readOnlyClient}
	}
	if err := checkOutlet(pduSlot, outlet, p.outletsPerPdu); err != nil {
		return err
	}
	if watts < 0 {
		return fmt.Errorf("%s: negative threshold %d W", op, watts)
	}
	oid := oidmap.OutletThresholdOID(t, p.globalIndex(pduSlot, outlet))
	if err := p.writer.Set(ctx, oid, oidmap.TypeInteger, strconv.Itoa(watts), p.creds); err != nil {
		return fmt.Errorf("%s (pdu %d, outlet %d): %w", op, pduSlot, outlet, err)
	}
	p.logger.Info(op, "pdu", pduSlot, "outlet", outlet, "watts", watts)
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Counter resets
// ─────────────────────────────────────────────────────────────────────────────

func (p *SNMP) ResetDevicePeakPower(ctx context.Context, pduSlot int) error {
	return p.reset(ctx, oidmap.ResetDevicePeakPower, pduSlot)
}

func (p *SNMP) ResetDeviceEnergy(ctx context.Context, pduSlot int) error {
	return p.reset(ctx, oidmap.ResetDeviceEnergy, pduSlot)
}

func (p *SNMP) ResetOutletsEnergy(ctx context.Context, pduSlot int) error {
	return p.reset(ctx, oidmap.ResetOutletsEnergy, pduSlot)
}

func (p *SNMP) ResetOutletsPeakPower(ctx context.Context, pduSlot int) error {
	return p.reset(ctx, oidmap.ResetOutletsPeakPower, pduSlot)
}

func (p *SNMP) reset(ctx context.Context, r oidmap.Reset, pduSlot int) error {
	op := "reset " + r.String()
	if !p.Writable() {
		return &pduerr.UnsupportedOperationError{Op: op, Msg: readOnlyClient}
	}
	if err := checkSlot(pduSlot); err != nil {
		return err
	}
	return p.command(ctx, op, oidmap.DeviceResetOID(r, pduSlot), oidmap.ResetTriggerValue)
}

// command writes an integer trigger and treats the firmware's post-command
// disconnect as acknowledgement. Any other error is returned unchanged.
func (p *SNMP) command(ctx context.Context, op, oid, value string) error {
	err := p.writer.Set(ctx, oid, oidmap.TypeInteger, value, p.creds)
	switch {
	case err == nil:
		p.logger.Info(op, "oid", oid, "value", value)
		return nil
	case pduerr.IsBenignPostResetDisconnect(err):
		p.logger.Info(op, "oid", oid, "value", value, "note", "device closed the session after accepting")
		return nil
	default:
		return err
	}
}
