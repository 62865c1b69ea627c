package metric_test

import (
	"encoding/json"
	"testing"

	"github.com/vpbank/apc_pdu/pkg/apcpdu/metric"
)

func TestDeviceMetrics_Taxonomy(t *testing.T) {
	tests := []struct {
		m    metric.DeviceMetric
		id   string
		kind metric.Kind
		unit metric.Unit
	}{
		{metric.DeviceModuleIndex, "module_index", metric.KindInteger, metric.UnitNone},
		{metric.DeviceName, "name", metric.KindString, metric.UnitNone},
		{metric.DeviceLoadStatus, "load_status", metric.KindEnum, metric.UnitNone},
		{metric.DevicePower, "power", metric.KindNumeric, metric.UnitWatt},
		{metric.DevicePeakPower, "peak_power", metric.KindNumeric, metric.UnitWatt},
		{metric.DeviceEnergy, "energy", metric.KindNumeric, metric.UnitKilowattHour},
		{metric.DeviceApparentPower, "apparent_power", metric.KindNumeric, metric.UnitVoltAmpere},
		{metric.DevicePowerFactor, "power_factor", metric.KindNumeric, metric.UnitNone},
		{metric.DeviceLowLoadThreshold, "low_load_threshold", metric.KindInteger, metric.UnitPercent},
		{metric.DeviceOverloadRestriction, "overload_restriction", metric.KindInteger, metric.UnitNone},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			if got := tt.m.ID(); got != tt.id {
				t.Errorf("ID() = %q, want %q", got, tt.id)
			}
			if got := tt.m.Kind(); got != tt.kind {
				t.Errorf("Kind() = %s, want %s", got, tt.kind)
			}
			if got := tt.m.Unit(); got != tt.unit {
				t.Errorf("Unit() = %q, want %q", got, tt.unit)
			}
		})
	}

	if n := len(metric.DeviceMetrics()); n != 18 {
		t.Errorf("len(DeviceMetrics()) = %d, want 18", n)
	}
}

func TestOutletMetrics_Taxonomy(t *testing.T) {
	all := metric.OutletMetrics()
	if len(all) != 14 {
		t.Fatalf("len(OutletMetrics()) = %d, want 14", len(all))
	}

	writable := map[metric.OutletMetric]bool{
		metric.OutletName:         true,
		metric.OutletExternalLink: true,
	}
	for _, m := range all {
		if m.Writable() != writable[m] {
			t.Errorf("%s.Writable() = %v", m, m.Writable())
		}
		if m.Scope() != metric.ScopeOutlet {
			t.Errorf("%s.Scope() = %s", m, m.Scope())
		}
	}

	if metric.OutletState.Kind() != metric.KindEnum {
		t.Errorf("state kind = %s, want enum", metric.OutletState.Kind())
	}
	if metric.OutletCurrent.Unit() != metric.UnitAmpere {
		t.Errorf("current unit = %q, want A", metric.OutletCurrent.Unit())
	}
}

func TestParseMetric(t *testing.T) {
	d, err := metric.ParseDeviceMetric(" Peak_Power ")
	if err != nil || d != metric.DevicePeakPower {
		t.Errorf("ParseDeviceMetric = %v, %v", d, err)
	}
	o, err := metric.ParseOutletMetric("external_link")
	if err != nil || o != metric.OutletExternalLink {
		t.Errorf("ParseOutletMetric = %v, %v", o, err)
	}
	if _, err := metric.ParseDeviceMetric("voltage"); err == nil {
		t.Error("expected error for unknown device metric")
	}
}

func TestEnumDefaults(t *testing.T) {
	tests := []struct {
		raw  int64
		want metric.LoadStatus
	}{
		{1, metric.LoadNormal},
		{2, metric.LoadLow},
		{3, metric.LoadNearOverload},
		{4, metric.LoadOverload},
		{0, metric.LoadNormal},
		{99, metric.LoadNormal},
		{-1, metric.LoadNormal},
	}
	for _, tt := range tests {
		if got := metric.LoadStatusFrom(tt.raw); got != tt.want {
			t.Errorf("LoadStatusFrom(%d) = %s, want %s", tt.raw, got, tt.want)
		}
	}

	if got := metric.PowerStateFrom(2); got != metric.PowerOn {
		t.Errorf("PowerStateFrom(2) = %s", got)
	}
	if got := metric.PowerStateFrom(7); got != metric.PowerOff {
		t.Errorf("PowerStateFrom(7) = %s, want off", got)
	}

	v := metric.DeviceLoadStatus.EnumValue(99)
	if v.LoadStatus() != metric.LoadNormal || v.String() != "normal" {
		t.Errorf("EnumValue(99) = %+v", v)
	}
}

func TestParseOutletCommand(t *testing.T) {
	for in, want := range map[string]metric.OutletCommand{
		"on":     metric.CommandOn,
		"OFF":    metric.CommandOff,
		"reboot": metric.CommandReboot,
	} {
		got, err := metric.ParseOutletCommand(in)
		if err != nil || got != want {
			t.Errorf("ParseOutletCommand(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := metric.ParseOutletCommand("cycle"); err == nil {
		t.Error("expected error for unknown command")
	}
}

func TestValue_Accessors(t *testing.T) {
	f := metric.FloatValue(1000.5)
	if f.Float() != 1000.5 || f.Int() != 1000 || f.String() != "1000.5" {
		t.Errorf("float value accessors: %v %v %q", f.Float(), f.Int(), f.String())
	}

	i := metric.IntValue(24)
	if i.Float() != 24 || i.String() != "24" {
		t.Errorf("int value accessors: %v %q", i.Float(), i.String())
	}

	s := metric.StringValue("rack-a")
	if s.Float() != 0 || s.String() != "rack-a" {
		t.Errorf("string value accessors: %v %q", s.Float(), s.String())
	}

	if metric.FloatValue(1.5) != metric.FloatValue(1.5) {
		t.Error("values decoded alike must compare equal")
	}
}

func TestValue_MarshalJSON(t *testing.T) {
	in := map[string]metric.Value{
		"power": metric.FloatValue(12.5),
		"count": metric.IntValue(24),
		"name":  metric.StringValue("a"),
		"state": metric.OutletState.EnumValue(2),
	}
	b, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := `{"count":24,"name":"a","power":12.5,"state":"on"}`
	if string(b) != want {
		t.Errorf("got = %s, want %s", b, want)
	}
}
