package pdu_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vpbank/apc_pdu/pkg/apcpdu/config"
	"github.com/vpbank/apc_pdu/pkg/apcpdu/metric"
	"github.com/vpbank/apc_pdu/pkg/apcpdu/pdu"
	"github.com/vpbank/apc_pdu/pkg/apcpdu/pduerr"
	"github.com/vpbank/apc_pdu/pkg/apcpdu/provider"
)

var ctx = context.Background()

// readOnly answers reads from fixed tables. Slots missing from devices and
// outlets missing from outlets fail with a transport error.
type readOnly struct {
	outletsPerPdu int
	devices       map[int]map[metric.DeviceMetric]metric.Value
	outlets       map[[2]int]map[metric.OutletMetric]metric.Value
	deviceCalls   int
}

func (f *readOnly) Host() string       { return "10.0.0.5" }
func (f *readOnly) OutletsPerPdu() int { return f.outletsPerPdu }
func (f *readOnly) Writable() bool     { return false }

func noAnswer(what string) error {
	return pduerr.Transport("snmp get "+what, "request timeout")
}

func (f *readOnly) DeviceMetric(_ context.Context, m metric.DeviceMetric, slot int) (metric.Value, error) {
	f.deviceCalls++
	v, ok := f.devices[slot][m]
	if !ok {
		return metric.Value{}, noAnswer(m.ID())
	}
	return v, nil
}

func (f *readOnly) DeviceMetricsBatch(_ context.Context, slot int) (map[metric.DeviceMetric]metric.Value, error) {
	v, ok := f.devices[slot]
	if !ok {
		return nil, noAnswer(fmt.Sprintf("pdu %d", slot))
	}
	return v, nil
}

func (f *readOnly) OutletMetric(_ context.Context, m metric.OutletMetric, slot, outlet int) (metric.Value, error) {
	v, ok := f.outlets[[2]int{slot, outlet}][m]
	if !ok {
		return metric.Value{}, noAnswer(m.ID())
	}
	return v, nil
}

func (f *readOnly) OutletMetricsBatch(_ context.Context, slot, outlet int) (map[metric.OutletMetric]metric.Value, error) {
	v, ok := f.outlets[[2]int{slot, outlet}]
	if !ok {
		return nil, noAnswer(fmt.Sprintf("outlet %d", outlet))
	}
	return v, nil
}

// writable records every mutating call.
type writable struct {
	*readOnly
	calls []string
	err   error
}

func (f *writable) Writable() bool { return true }

func (f *writable) record(format string, args ...any) error {
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
	return f.err
}

func (f *writable) SetOutletName(_ context.Context, s, o int, name string) error {
	return f.record("name %d/%d %s", s, o, name)
}
func (f *writable) SetOutletExternalLink(_ context.Context, s, o int, link string) error {
	return f.record("link %d/%d %s", s, o, link)
}
func (f *writable) SetOutletState(_ context.Context, s, o int, cmd metric.OutletCommand) error {
	return f.record("state %d/%d %s", s, o, cmd)
}
func (f *writable) SetOutletLowLoadThreshold(_ context.Context, s, o, w int) error {
	return f.record("low %d/%d %d", s, o, w)
}
func (f *writable) SetOutletNearOverloadThreshold(_ context.Context, s, o, w int) error {
	return f.record("near %d/%d %d", s, o, w)
}
func (f *writable) SetOutletOverloadThreshold(_ context.Context, s, o, w int) error {
	return f.record("over %d/%d %d", s, o, w)
}
func (f *writable) ResetDevicePeakPower(_ context.Context, s int) error {
	return f.record("reset device peak %d", s)
}
func (f *writable) ResetDeviceEnergy(_ context.Context, s int) error {
	return f.record("reset device energy %d", s)
}
func (f *writable) ResetOutletsEnergy(_ context.Context, s int) error {
	return f.record("reset outlets energy %d", s)
}
func (f *writable) ResetOutletsPeakPower(_ context.Context, s int) error {
	return f.record("reset outlets peak %d", s)
}

var _ provider.WritableProvider = (*writable)(nil)

func hostDevice() map[metric.DeviceMetric]metric.Value {
	return map[metric.DeviceMetric]metric.Value{
		metric.DeviceModuleIndex:           metric.IntValue(1),
		metric.DevicePduIndex:              metric.IntValue(1),
		metric.DeviceName:                  metric.StringValue("Rack A"),
		metric.DeviceLoadStatus:            metric.EnumValue(3, "near_overload"),
		metric.DevicePower:                 metric.FloatValue(1000),
		metric.DevicePeakPower:             metric.FloatValue(1500),
		metric.DeviceEnergy:                metric.FloatValue(123.4),
		metric.DevicePowerFactor:           metric.FloatValue(0.85),
		metric.DeviceOutletCount:           metric.IntValue(24),
		metric.DeviceNearOverloadThreshold: metric.IntValue(85),
	}
}

func outlet(name string, on bool, amps float64) map[metric.OutletMetric]metric.Value {
	state := metric.EnumValue(1, "off")
	if on {
		state = metric.EnumValue(2, "on")
	}
	return map[metric.OutletMetric]metric.Value{
		metric.OutletName:    metric.StringValue(name),
		metric.OutletState:   state,
		metric.OutletCurrent: metric.FloatValue(amps),
		metric.OutletPower:   metric.FloatValue(amps * 230),
		metric.OutletEnergy:  metric.FloatValue(50.5),
	}
}

func fixture() *readOnly {
	return &readOnly{
		outletsPerPdu: 4,
		devices:       map[int]map[metric.DeviceMetric]metric.Value{1: hostDevice(), 2: hostDevice()},
		outlets: map[[2]int]map[metric.OutletMetric]metric.Value{
			{1, 1}: outlet("Web 01", true, 1.5),
			{1, 2}: outlet("Web 02", false, 0),
			{1, 4}: outlet("Storage", true, 2),
			{2, 1}: outlet("Guest 1", true, 0.5),
		},
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Reads
// ─────────────────────────────────────────────────────────────────────────────

func TestPDU_DeviceStatus(t *testing.T) {
	d := pdu.NewPDU(fixture(), 0, nil)

	st, err := d.DeviceStatus(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, st.PduSlot)
	assert.Equal(t, "Rack A", st.Name)
	assert.Equal(t, "near_overload", st.LoadStatus)
	assert.Equal(t, 1000.0, st.PowerW)
	assert.Equal(t, 1500.0, st.PeakPowerW)
	assert.Equal(t, 123.4, st.EnergyKWh)
	assert.Equal(t, 0.85, st.PowerFactor)
	assert.Equal(t, 24, st.OutletCount)
	assert.Equal(t, 85, st.NearOverloadThresholdPct)
	assert.Empty(t, st.PeakPowerTimestamp, "missing text readings stay empty")

	_, err = d.DeviceStatus(ctx, 3)
	assert.Error(t, err)
}

func TestPDU_AllOutletsSkipsFailures(t *testing.T) {
	d := pdu.NewPDU(fixture(), 0, nil)

	outlets := d.AllOutlets(ctx, 1)
	require.Len(t, outlets, 3)
	assert.Equal(t, []int{1, 2, 4}, []int{outlets[0].Number, outlets[1].Number, outlets[2].Number})
	assert.Equal(t, "Web 01", outlets[0].Name)
	assert.Equal(t, "on", outlets[0].State)
	assert.Equal(t, "off", outlets[1].State)
	assert.Equal(t, 1.5, outlets[0].CurrentA)
	assert.Equal(t, 50.5, outlets[2].EnergyKWh)

	assert.Empty(t, d.AllOutlets(ctx, 3))
}

func TestPDU_FullStatusSkipsEmptySlots(t *testing.T) {
	d := pdu.NewPDU(fixture(), 4, nil)

	infos := d.FullStatus(ctx)
	require.Len(t, infos, 2)
	assert.Equal(t, 1, infos[0].PduSlot)
	assert.Len(t, infos[0].Outlets, 3)
	assert.Equal(t, 2, infos[1].PduSlot)
	require.Len(t, infos[1].Outlets, 1)
	assert.Equal(t, "Guest 1", infos[1].Outlets[0].Name)

	// only the first slot is visited
	assert.Len(t, pdu.NewPDU(fixture(), 1, nil).FullStatus(ctx), 1)
}

func TestPDU_TestConnection(t *testing.T) {
	f := fixture()
	d := pdu.NewPDU(f, 0, nil)
	assert.True(t, d.TestConnection(ctx, 1))
	assert.False(t, d.TestConnection(ctx, 4))
	assert.Equal(t, 2, f.deviceCalls)
}

func TestOutlet_Reads(t *testing.T) {
	o := pdu.NewPDU(fixture(), 0, nil).Outlet(1, 1)
	assert.Equal(t, 1, o.PduSlot())
	assert.Equal(t, 1, o.Number())

	name, err := o.Name(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Web 01", name)

	state, err := o.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, metric.PowerOn, state)

	power, err := o.Power(ctx)
	require.NoError(t, err)
	assert.Equal(t, 345.0, power)

	_, err = o.PeakPower(ctx)
	assert.Error(t, err)

	missing := pdu.NewPDU(fixture(), 0, nil).Outlet(1, 3)
	name, err = missing.Name(ctx)
	assert.Error(t, err)
	assert.Empty(t, name)
	state, err = missing.State(ctx)
	assert.Error(t, err)
	assert.Equal(t, metric.PowerOff, state)
}

// ─────────────────────────────────────────────────────────────────────────────
// Writes
// ─────────────────────────────────────────────────────────────────────────────

func TestPDU_ReadOnlyProviderRejectsWrites(t *testing.T) {
	d := pdu.NewPDU(fixture(), 0, nil)
	assert.False(t, d.Writable())
	o := d.Outlet(1, 1)
	assert.False(t, o.Writable())

	calls := map[string]error{
		"set outlet name":                    o.SetName(ctx, "x"),
		"set outlet state":                   o.SetState(ctx, metric.CommandOff),
		"set outlet external link":           o.SetExternalLink(ctx, "http://x"),
		"set outlet low load threshold":      o.SetLowLoadThreshold(ctx, 1),
		"set outlet near overload threshold": o.SetNearOverloadThreshold(ctx, 1),
		"set outlet overload threshold":      o.SetOverloadThreshold(ctx, 1),
		"reset device peak power":            d.ResetDevicePeakPower(ctx, 1),
		"reset device energy":                d.ResetDeviceEnergy(ctx, 1),
		"reset outlets energy":               d.ResetOutletsEnergy(ctx, 1),
		"reset outlets peak power":           d.ResetOutletsPeakPower(ctx, 1),
	}
	for op, err := range calls {
		var uo *pduerr.UnsupportedOperationError
		if assert.True(t, errors.As(err, &uo), op) {
			assert.Equal(t, op, uo.Op)
		}
	}
}

func TestPDU_WritesDelegate(t *testing.T) {
	w := &writable{readOnly: fixture()}
	d := pdu.NewPDU(w, 0, nil)
	require.True(t, d.Writable())
	o := d.Outlet(2, 3)

	require.NoError(t, o.SetName(ctx, "Backup"))
	require.NoError(t, o.SetState(ctx, metric.CommandReboot))
	require.NoError(t, o.SetExternalLink(ctx, "https://cmdb/backup"))
	require.NoError(t, o.SetLowLoadThreshold(ctx, 5))
	require.NoError(t, o.SetNearOverloadThreshold(ctx, 800))
	require.NoError(t, o.SetOverloadThreshold(ctx, 1000))
	require.NoError(t, d.ResetDevicePeakPower(ctx, 1))
	require.NoError(t, d.ResetDeviceEnergy(ctx, 2))
	require.NoError(t, d.ResetOutletsEnergy(ctx, 3))
	require.NoError(t, d.ResetOutletsPeakPower(ctx, 4))

	assert.Equal(t, []string{
		"name 2/3 Backup",
		"state 2/3 reboot",
		"link 2/3 https://cmdb/backup",
		"low 2/3 5",
		"near 2/3 800",
		"over 2/3 1000",
		"reset device peak 1",
		"reset device energy 2",
		"reset outlets energy 3",
		"reset outlets peak 4",
	}, w.calls)

	w.err = errors.New("agent refused")
	assert.EqualError(t, o.SetName(ctx, "x"), "agent refused")
}

// ─────────────────────────────────────────────────────────────────────────────
// Factory
// ─────────────────────────────────────────────────────────────────────────────

func baseConfig() config.DeviceConfig {
	return config.DeviceConfig{
		Name:                  "rack-a",
		Host:                  "10.0.0.5",
		Port:                  161,
		Version:               config.VersionSNMPv1,
		Backend:               "library",
		Timeout:               1000,
		Retries:               3,
		OutletsPerPdu:         24,
		Slots:                 2,
		MaxConcurrentRequests: 1,
	}
}

func TestNew(t *testing.T) {
	t.Run("snmpv1 library", func(t *testing.T) {
		d, err := pdu.New(baseConfig(), nil)
		require.NoError(t, err)
		defer d.Close()
		assert.Equal(t, "library", d.Backend())
		assert.Equal(t, "10.0.0.5", d.Host())
		assert.Equal(t, 2, d.Slots())
		assert.True(t, d.Writable())
		assert.IsType(t, &provider.SNMP{}, d.Provider())
	})

	t.Run("snmpv3 native is read-only", func(t *testing.T) {
		cfg := baseConfig()
		cfg.Version = config.VersionSNMPv3
		cfg.Backend = "native"
		cfg.V3 = config.V3Credentials{Username: "monitor", AuthenticationPassphrase: "authpass1"}
		d, err := pdu.New(cfg, nil)
		require.NoError(t, err)
		defer d.Close()
		assert.Equal(t, "native", d.Backend())
		assert.False(t, d.Writable())
	})

	t.Run("ssh", func(t *testing.T) {
		cfg := baseConfig()
		cfg.Version = config.VersionSSH
		cfg.Port = 22
		cfg.SSH = config.SSHCredentials{Username: "apc", Password: "apc"}
		d, err := pdu.New(cfg, nil)
		require.NoError(t, err)
		assert.Equal(t, "ssh", d.Backend())
		assert.False(t, d.Writable())
		assert.NoError(t, d.Close())
	})

	t.Run("unknown backend", func(t *testing.T) {
		cfg := baseConfig()
		cfg.Backend = "pysnmp"
		_, err := pdu.New(cfg, nil)
		assert.ErrorContains(t, err, `unknown SNMP backend "pysnmp"`)
	})

	t.Run("unknown version", func(t *testing.T) {
		cfg := baseConfig()
		cfg.Version = "2c"
		_, err := pdu.New(cfg, nil)
		assert.ErrorContains(t, err, `unknown version "2c"`)
	})
}

// ─────────────────────────────────────────────────────────────────────────────
// SSH subset
// ─────────────────────────────────────────────────────────────────────────────

type cli map[string]string

func (c cli) Host() string { return "10.0.0.7" }

func (c cli) Run(_ context.Context, command string) (string, error) {
	if out, ok := c[command]; ok {
		return command + "\nE000: Success\n" + out + "\n\napc>", nil
	}
	return "", pduerr.Transport("ssh exec", "unexpected command %q", command)
}

func (c cli) RunBatch(ctx context.Context, commands []string) (map[string]string, error) {
	out := make(map[string]string, len(commands))
	for _, cmd := range commands {
		r, err := c.Run(ctx, cmd)
		if err != nil {
			return nil, err
		}
		out[cmd] = r
	}
	return out, nil
}

func TestPDU_DeviceStatusOverSSH(t *testing.T) {
	c := cli{
		"devReading power":     "1.2 kW",
		"devReading peakPower": "2.4 kW",
		"devReading energy":    "100.5 kWh",
		"devReading appower":   "1.3 kVA",
		"devReading pf":        "0.92",
	}
	d := pdu.NewPDU(provider.NewSSH(c, 24, nil), 0, nil)

	st, err := d.DeviceStatus(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1200.0, st.PowerW)
	assert.Equal(t, 2400.0, st.PeakPowerW)
	assert.Equal(t, 1300.0, st.ApparentPowerVA)
	assert.Empty(t, st.Name)
	assert.Empty(t, st.LoadStatus)

	err = d.ResetDeviceEnergy(ctx, 1)
	var uo *pduerr.UnsupportedOperationError
	assert.True(t, errors.As(err, &uo))
}

func TestOutlet_StatusOverSSHLeavesStateUnset(t *testing.T) {
	c := cli{
		"olName 1":              " 1: Server 1",
		"olReading 1 current":   " 1: sm51: 1.5 A",
		"olReading 1 power":     " 1: sm51: 150 W",
		"olReading 1 peakPower": " 1: sm51: 210 W",
		"olReading 1 energy":    " 1: sm51: 50.5 kWh",
	}
	d := pdu.NewPDU(provider.NewSSH(c, 24, nil), 0, nil)

	st, err := d.Outlet(1, 1).Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Server 1", st.Name)
	assert.Equal(t, 150.0, st.PowerW)
	assert.Empty(t, st.State)

	raw, err := json.Marshal(st)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), `"state"`)
}
