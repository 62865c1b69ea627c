// Package metric defines the closed sets of readings an APC metered PDU
// exposes at device level and at outlet level. Each reading carries a fixed
// kind (how its raw value is decoded) and a display unit. The sets never
// change at runtime; address and divisor lookups live in snmp/oidmap.
package metric

import (
	"fmt"
	"strings"
)

// ─────────────────────────────────────────────────────────────────────────────
// Kind / Unit
// ─────────────────────────────────────────────────────────────────────────────

// Kind selects the decode path for a raw transport value.
type Kind int

const (
	// KindNumeric values are divided by the metric's divisor.
	KindNumeric Kind = iota
	// KindString values are returned as text.
	KindString
	// KindEnum values are mapped through the metric's enum with a default.
	KindEnum
	// KindInteger values are truncated to an integer; no divisor applies.
	KindInteger
)

func (k Kind) String() string {
	switch k {
	case KindNumeric:
		return "numeric"
	case KindString:
		return "string"
	case KindEnum:
		return "enum"
	case KindInteger:
		return "integer"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Unit is the display unit of a reading. Dimensionless readings use UnitNone.
type Unit string

const (
	UnitNone         Unit = ""
	UnitWatt         Unit = "W"
	UnitAmpere       Unit = "A"
	UnitKilowattHour Unit = "kWh"
	UnitVoltAmpere   Unit = "VA"
	UnitPercent      Unit = "%"
)

// Scope tells device-level and outlet-level metrics apart.
type Scope int

const (
	ScopeDevice Scope = iota
	ScopeOutlet
)

func (s Scope) String() string {
	if s == ScopeOutlet {
		return "outlet"
	}
	return "device"
}

type info struct {
	id       string
	kind     Kind
	unit     Unit
	writable bool
}

// ─────────────────────────────────────────────────────────────────────────────
// Device metrics
// ─────────────────────────────────────────────────────────────────────────────

// DeviceMetric identifies a reading of one PDU chassis (one NPS slot).
type DeviceMetric int

const (
	DeviceModuleIndex DeviceMetric = iota + 1
	DevicePduIndex
	DeviceName
	DeviceLoadStatus
	DevicePower
	DevicePeakPower
	DevicePeakPowerTimestamp
	DeviceEnergyResetTimestamp
	DeviceEnergy
	DeviceEnergyStartTimestamp
	DeviceApparentPower
	DevicePowerFactor
	DeviceOutletCount
	DevicePhaseCount
	DevicePeakPowerResetTimestamp
	DeviceLowLoadThreshold
	DeviceNearOverloadThreshold
	DeviceOverloadRestriction

	deviceMetricEnd
)

var deviceInfo = [deviceMetricEnd]info{
	DeviceModuleIndex:             {id: "module_index", kind: KindInteger},
	DevicePduIndex:                {id: "pdu_index", kind: KindInteger},
	DeviceName:                    {id: "name", kind: KindString},
	DeviceLoadStatus:              {id: "load_status", kind: KindEnum},
	DevicePower:                   {id: "power", kind: KindNumeric, unit: UnitWatt},
	DevicePeakPower:               {id: "peak_power", kind: KindNumeric, unit: UnitWatt},
	DevicePeakPowerTimestamp:      {id: "peak_power_timestamp", kind: KindString},
	DeviceEnergyResetTimestamp:    {id: "energy_reset_timestamp", kind: KindString},
	DeviceEnergy:                  {id: "energy", kind: KindNumeric, unit: UnitKilowattHour},
	DeviceEnergyStartTimestamp:    {id: "energy_start_timestamp", kind: KindString},
	DeviceApparentPower:           {id: "apparent_power", kind: KindNumeric, unit: UnitVoltAmpere},
	DevicePowerFactor:             {id: "power_factor", kind: KindNumeric},
	DeviceOutletCount:             {id: "outlet_count", kind: KindInteger},
	DevicePhaseCount:              {id: "phase_count", kind: KindInteger},
	DevicePeakPowerResetTimestamp: {id: "peak_power_reset_timestamp", kind: KindString},
	DeviceLowLoadThreshold:        {id: "low_load_threshold", kind: KindInteger, unit: UnitPercent},
	DeviceNearOverloadThreshold:   {id: "near_overload_threshold", kind: KindInteger, unit: UnitPercent},
	DeviceOverloadRestriction:     {id: "overload_restriction", kind: KindInteger},
}

// DeviceMetrics returns every device metric in table order.
func DeviceMetrics() []DeviceMetric {
	out := make([]DeviceMetric, 0, deviceMetricEnd-1)
	for m := DeviceModuleIndex; m < deviceMetricEnd; m++ {
		out = append(out, m)
	}
	return out
}

// Valid reports whether m is a member of the device metric set.
func (m DeviceMetric) Valid() bool { return m >= DeviceModuleIndex && m < deviceMetricEnd }

// ID is the stable snake_case identifier, e.g. "peak_power".
func (m DeviceMetric) ID() string {
	if !m.Valid() {
		return ""
	}
	return deviceInfo[m].id
}

func (m DeviceMetric) Kind() Kind {
	if !m.Valid() {
		return KindNumeric
	}
	return deviceInfo[m].kind
}

func (m DeviceMetric) Unit() Unit {
	if !m.Valid() {
		return UnitNone
	}
	return deviceInfo[m].unit
}

func (m DeviceMetric) Scope() Scope { return ScopeDevice }

func (m DeviceMetric) String() string {
	if !m.Valid() {
		return fmt.Sprintf("DeviceMetric(%d)", int(m))
	}
	return deviceInfo[m].id
}

// EnumValue maps a raw integer through the enum backing m. Out-of-range raw
// values fall back to the enum default.
func (m DeviceMetric) EnumValue(raw int64) Value {
	switch m {
	case DeviceLoadStatus:
		s := LoadStatusFrom(raw)
		return EnumValue(int64(s), s.String())
	default:
		return IntValue(raw)
	}
}

// ParseDeviceMetric resolves a device metric by its identifier.
func ParseDeviceMetric(id string) (DeviceMetric, error) {
	id = strings.ToLower(strings.TrimSpace(id))
	for m := DeviceModuleIndex; m < deviceMetricEnd; m++ {
		if deviceInfo[m].id == id {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown device metric %q", id)
}

// ─────────────────────────────────────────────────────────────────────────────
// Outlet metrics
// ─────────────────────────────────────────────────────────────────────────────

// OutletMetric identifies a reading of a single outlet.
type OutletMetric int

const (
	OutletModuleIndex OutletMetric = iota + 1
	OutletPduIndex
	OutletName
	OutletIndex
	OutletState
	OutletCurrent
	OutletPower
	OutletPeakPower
	OutletPeakPowerTimestamp
	OutletPeakPowerStartTime
	OutletEnergy
	OutletType
	OutletExternalLink
	OutletEnergyStartTime

	outletMetricEnd
)

var outletInfo = [outletMetricEnd]info{
	OutletModuleIndex:        {id: "module_index", kind: KindInteger},
	OutletPduIndex:           {id: "pdu_index", kind: KindInteger},
	OutletName:               {id: "name", kind: KindString, writable: true},
	OutletIndex:              {id: "index", kind: KindInteger},
	OutletState:              {id: "state", kind: KindEnum},
	OutletCurrent:            {id: "current", kind: KindNumeric, unit: UnitAmpere},
	OutletPower:              {id: "power", kind: KindNumeric, unit: UnitWatt},
	OutletPeakPower:          {id: "peak_power", kind: KindNumeric, unit: UnitWatt},
	OutletPeakPowerTimestamp: {id: "peak_power_timestamp", kind: KindString},
	OutletPeakPowerStartTime: {id: "peak_power_start_time", kind: KindString},
	OutletEnergy:             {id: "energy", kind: KindNumeric, unit: UnitKilowattHour},
	OutletType:               {id: "outlet_type", kind: KindString},
	OutletExternalLink:       {id: "external_link", kind: KindString, writable: true},
	OutletEnergyStartTime:    {id: "energy_start_time", kind: KindString},
}

// OutletMetrics returns every outlet metric in table order.
func OutletMetrics() []OutletMetric {
	out := make([]OutletMetric, 0, outletMetricEnd-1)
	for m := OutletModuleIndex; m < outletMetricEnd; m++ {
		out = append(out, m)
	}
	return out
}

func (m OutletMetric) Valid() bool { return m >= OutletModuleIndex && m < outletMetricEnd }

func (m OutletMetric) ID() string {
	if !m.Valid() {
		return ""
	}
	return outletInfo[m].id
}

func (m OutletMetric) Kind() Kind {
	if !m.Valid() {
		return KindNumeric
	}
	return outletInfo[m].kind
}

func (m OutletMetric) Unit() Unit {
	if !m.Valid() {
		return UnitNone
	}
	return outletInfo[m].unit
}

func (m OutletMetric) Scope() Scope { return ScopeOutlet }

// Writable reports whether the device accepts a set on this reading's column.
func (m OutletMetric) Writable() bool { return m.Valid() && outletInfo[m].writable }

func (m OutletMetric) String() string {
	if !m.Valid() {
		return fmt.Sprintf("OutletMetric(%d)", int(m))
	}
	return outletInfo[m].id
}

// EnumValue maps a raw integer through the enum backing m.
func (m OutletMetric) EnumValue(raw int64) Value {
	switch m {
	case OutletState:
		s := PowerStateFrom(raw)
		return EnumValue(int64(s), s.String())
	default:
		return IntValue(raw)
	}
}

// ParseOutletMetric resolves an outlet metric by its identifier.
func ParseOutletMetric(id string) (OutletMetric, error) {
	id = strings.ToLower(strings.TrimSpace(id))
	for m := OutletModuleIndex; m < outletMetricEnd; m++ {
		if outletInfo[m].id == id {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown outlet metric %q", id)
}
