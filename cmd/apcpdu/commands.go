package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/vpbank/apc_pdu/pkg/apcpdu/metric"
	"github.com/vpbank/apc_pdu/pkg/apcpdu/pdu"
)

// Target selects one PDU slot of one configured device.
type Target struct {
	Device string `short:"d" long:"device" required:"yes" description:"device name from the inventory"`
	Pdu    int    `short:"p" long:"pdu" default:"1" description:"PDU slot (1-4)"`
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// open runs fn against the named device and closes it afterwards.
func (e *env) open(name string, fn func(d *pdu.PDU) error) error {
	d, err := e.app.Device(name)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := d.Close(); cerr != nil {
			e.logger.Warn("close device", "device", name, "error", cerr.Error())
		}
	}()
	return fn(d)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// ─────────────────────────────────────────────────────────────────────────────
// status
// ─────────────────────────────────────────────────────────────────────────────

type statusCommand struct {
	Devices []string `short:"d" long:"device" description:"device to poll (repeatable, default: all)"`

	env *env
}

func (c *statusCommand) Execute([]string) error {
	ctx, stop := signalContext()
	defer stop()

	err := c.env.app.Collect(ctx, c.Devices...)
	if cerr := c.env.app.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

// ─────────────────────────────────────────────────────────────────────────────
// test
// ─────────────────────────────────────────────────────────────────────────────

type testCommand struct {
	Devices []string `short:"d" long:"device" description:"device to test (repeatable, default: all)"`

	env *env
}

func (c *testCommand) Execute([]string) error {
	ctx, stop := signalContext()
	defer stop()

	names := c.Devices
	if len(names) == 0 {
		all, err := c.env.app.Devices()
		if err != nil {
			return err
		}
		names = all
	}

	failed := 0
	for _, name := range names {
		err := c.env.open(name, func(d *pdu.PDU) error {
			for slot := 1; slot <= d.Slots(); slot++ {
				result := "ok"
				if !d.TestConnection(ctx, slot) {
					result = "no answer"
					failed++
				}
				fmt.Printf("%s\t%s\tpdu %d\t%s\t%s\n", name, d.Host(), slot, d.Backend(), result)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d slot(s) did not answer", failed)
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// outlet
// ─────────────────────────────────────────────────────────────────────────────

type outletCommand struct {
	Target
	Outlet int `short:"o" long:"outlet" required:"yes" description:"outlet number within the PDU"`

	env *env
}

func (c *outletCommand) Execute([]string) error {
	ctx, stop := signalContext()
	defer stop()

	return c.env.open(c.Device, func(d *pdu.PDU) error {
		st, err := d.Outlet(c.Pdu, c.Outlet).Status(ctx)
		if err != nil {
			return err
		}
		return printJSON(st)
	})
}

// ─────────────────────────────────────────────────────────────────────────────
// metric
// ─────────────────────────────────────────────────────────────────────────────

type metricCommand struct {
	Target
	Outlet int `short:"o" long:"outlet" description:"read outlet metrics of this outlet instead of chassis metrics"`

	Args struct {
		IDs []string `positional-arg-name:"metric" required:"1" description:"metric id, e.g. power or peak_power"`
	} `positional-args:"yes"`

	env *env
}

func (c *metricCommand) Execute([]string) error {
	ctx, stop := signalContext()
	defer stop()

	read, err := metricReaders(c.Pdu, c.Outlet, c.Args.IDs)
	if err != nil {
		return err
	}
	return c.env.open(c.Device, func(d *pdu.PDU) error {
		values, err := readMetrics(ctx, d, read)
		if err != nil {
			return err
		}
		return printJSON(values)
	})
}

type metricReader struct {
	id   string
	read func(ctx context.Context, d *pdu.PDU) (metric.Value, error)
}

// metricReaders resolves ids before any device is opened. Outlet 0 selects
// chassis metrics.
func metricReaders(pduSlot, outlet int, ids []string) ([]metricReader, error) {
	readers := make([]metricReader, 0, len(ids))
	for _, id := range ids {
		if outlet == 0 {
			m, err := metric.ParseDeviceMetric(id)
			if err != nil {
				return nil, err
			}
			readers = append(readers, metricReader{m.ID(), func(ctx context.Context, d *pdu.PDU) (metric.Value, error) {
				return d.DeviceMetric(ctx, m, pduSlot)
			}})
			continue
		}
		m, err := metric.ParseOutletMetric(id)
		if err != nil {
			return nil, err
		}
		readers = append(readers, metricReader{m.ID(), func(ctx context.Context, d *pdu.PDU) (metric.Value, error) {
			return d.Outlet(pduSlot, outlet).Metric(ctx, m)
		}})
	}
	return readers, nil
}

func readMetrics(ctx context.Context, d *pdu.PDU, readers []metricReader) (map[string]metric.Value, error) {
	out := make(map[string]metric.Value, len(readers))
	for _, r := range readers {
		v, err := r.read(ctx, d)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", r.id, err)
		}
		out[r.id] = v
	}
	return out, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// set-outlet
// ─────────────────────────────────────────────────────────────────────────────

type setOutletCommand struct {
	Target
	Outlet int `short:"o" long:"outlet" required:"yes" description:"outlet number within the PDU"`

	State        string `long:"state" choice:"on" choice:"off" choice:"reboot" description:"switch the outlet"`
	Name         string `long:"name" description:"set the outlet name"`
	ExternalLink string `long:"link" description:"set the outlet external link"`
	LowLoad      int    `long:"low-load" default:"-1" description:"set the low load threshold (W)"`
	NearOverload int    `long:"near-overload" default:"-1" description:"set the near overload threshold (W)"`
	Overload     int    `long:"overload" default:"-1" description:"set the overload threshold (W)"`

	env *env
}

func (c *setOutletCommand) Execute([]string) error {
	ctx, stop := signalContext()
	defer stop()

	return c.env.open(c.Device, func(d *pdu.PDU) error {
		o := d.Outlet(c.Pdu, c.Outlet)
		var steps []func() error

		if c.Name != "" {
			steps = append(steps, func() error { return o.SetName(ctx, c.Name) })
		}
		if c.ExternalLink != "" {
			steps = append(steps, func() error { return o.SetExternalLink(ctx, c.ExternalLink) })
		}
		if c.LowLoad >= 0 {
			steps = append(steps, func() error { return o.SetLowLoadThreshold(ctx, c.LowLoad) })
		}
		if c.NearOverload >= 0 {
			steps = append(steps, func() error { return o.SetNearOverloadThreshold(ctx, c.NearOverload) })
		}
		if c.Overload >= 0 {
			steps = append(steps, func() error { return o.SetOverloadThreshold(ctx, c.Overload) })
		}
		if c.State != "" {
			cmd, err := metric.ParseOutletCommand(c.State)
			if err != nil {
				return err
			}
			steps = append(steps, func() error { return o.SetState(ctx, cmd) })
		}
		if len(steps) == 0 {
			return errors.New("nothing to set: pass --state, --name, --link or a threshold")
		}

		for _, step := range steps {
			if err := step(); err != nil {
				return err
			}
		}
		c.env.logger.Info("outlet updated", "device", c.Device, "pdu", c.Pdu, "outlet", c.Outlet)
		return nil
	})
}

// ─────────────────────────────────────────────────────────────────────────────
// reset
// ─────────────────────────────────────────────────────────────────────────────

type resetCommand struct {
	Target
	Targets []string `short:"t" long:"target" required:"yes" choice:"device-peak" choice:"device-energy" choice:"outlets-energy" choice:"outlets-peak" description:"counter to reset (repeatable)"`

	env *env
}

func (c *resetCommand) Execute([]string) error {
	ctx, stop := signalContext()
	defer stop()

	return c.env.open(c.Device, func(d *pdu.PDU) error {
		for _, t := range c.Targets {
			var err error
			switch t {
			case "device-peak":
				err = d.ResetDevicePeakPower(ctx, c.Pdu)
			case "device-energy":
				err = d.ResetDeviceEnergy(ctx, c.Pdu)
			case "outlets-energy":
				err = d.ResetOutletsEnergy(ctx, c.Pdu)
			case "outlets-peak":
				err = d.ResetOutletsPeakPower(ctx, c.Pdu)
			}
			if err != nil {
				return fmt.Errorf("reset %s: %w", t, err)
			}
			c.env.logger.Info("counter reset", "device", c.Device, "pdu", c.Pdu, "target", t)
		}
		return nil
	})
}

// ─────────────────────────────────────────────────────────────────────────────
// watch
// ─────────────────────────────────────────────────────────────────────────────

type watchCommand struct {
	env *env
}

func (c *watchCommand) Execute([]string) error {
	ctx, stop := signalContext()
	defer stop()

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	a := c.env.app
	if err := a.Start(ctx); err != nil {
		return fmt.Errorf("start: %w", err)
	}
	c.env.logger.Info("apcpdu: watching, press Ctrl-C to stop")

	for {
		select {
		case <-ctx.Done():
			c.env.logger.Info("apcpdu: received shutdown signal")
			a.Stop()
			return nil
		case <-hup:
			if err := a.Reload(); err != nil {
				c.env.logger.Error("apcpdu: reload failed, keeping current inventory", "error", err.Error())
			}
		}
	}
}
