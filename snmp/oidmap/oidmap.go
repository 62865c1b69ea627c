// Package oidmap is the address map for APC AP8xxx metered/switched rack PDUs
// (PowerNet-MIB rPDU2 tables). Every address is a pure function of a metric
// and an index:
//
//	device tables   <base>.<suffix>.<pduSlot>
//	outlet tables   <base>.<suffix>.<globalOutletIndex>
//
// In Network Port Sharing mode up to four chassis answer on one address and
// outlets are numbered contiguously across them; see GlobalOutletIndex.
package oidmap

import (
	"strconv"

	"github.com/vpbank/apc_pdu/pkg/apcpdu/metric"
)

// Table bases.
const (
	DeviceStatusBase         = ".1.3.6.1.4.1.318.1.1.26.4.3.1" // rPDU2DeviceStatusEntry
	DeviceConfigBase         = ".1.3.6.1.4.1.318.1.1.26.4.1.1" // rPDU2DeviceConfigEntry
	OutletSwitchedStatusBase = ".1.3.6.1.4.1.318.1.1.26.9.2.3.1"
	OutletControlBase        = ".1.3.6.1.4.1.318.1.1.26.9.2.4.1"
	OutletMeteredConfigBase  = ".1.3.6.1.4.1.318.1.1.26.9.4.1.1"
	OutletMeteredStatusBase  = ".1.3.6.1.4.1.318.1.1.26.9.4.3.1"
)

// SNMP set type tags as understood by snmpset.
const (
	TypeInteger = "i"
	TypeString  = "s"
)

// MaxPduSlots is the number of chassis positions in an NPS group.
const MaxPduSlots = 4

// ─────────────────────────────────────────────────────────────────────────────
// Device metrics
// ─────────────────────────────────────────────────────────────────────────────

type entry struct {
	suffix  int
	divisor float64
}

var deviceTable = map[metric.DeviceMetric]entry{
	metric.DeviceModuleIndex:             {1, 1},
	metric.DevicePduIndex:                {2, 1},
	metric.DeviceName:                    {3, 1},
	metric.DeviceLoadStatus:              {4, 1},
	metric.DevicePower:                   {5, 0.1}, // hundredths of kW -> W
	metric.DevicePeakPower:               {6, 0.1},
	metric.DevicePeakPowerTimestamp:      {7, 1},
	metric.DeviceEnergyResetTimestamp:    {8, 1},
	metric.DeviceEnergy:                  {9, 10}, // tenths of kWh
	metric.DeviceEnergyStartTimestamp:    {10, 1},
	metric.DeviceApparentPower:           {11, 0.1},
	metric.DevicePowerFactor:             {12, 100},
	metric.DeviceOutletCount:             {13, 1},
	metric.DevicePhaseCount:              {14, 1},
	metric.DevicePeakPowerResetTimestamp: {15, 1},
	metric.DeviceLowLoadThreshold:        {16, 1},
	metric.DeviceNearOverloadThreshold:   {17, 1},
	metric.DeviceOverloadRestriction:     {18, 1},
}

// DeviceOID returns the status-table address of m for the given NPS slot.
// It returns "" for a metric outside the device set.
func DeviceOID(m metric.DeviceMetric, pduSlot int) string {
	e, ok := deviceTable[m]
	if !ok {
		return ""
	}
	return join(DeviceStatusBase, e.suffix, pduSlot)
}

// DeviceDivisor is the scale factor for m: typed = raw / divisor.
func DeviceDivisor(m metric.DeviceMetric) float64 {
	if e, ok := deviceTable[m]; ok {
		return e.divisor
	}
	return 1
}

// ─────────────────────────────────────────────────────────────────────────────
// Outlet metrics
// ─────────────────────────────────────────────────────────────────────────────

var outletTable = map[metric.OutletMetric]entry{
	metric.OutletModuleIndex:        {1, 1},
	metric.OutletPduIndex:           {2, 1},
	metric.OutletName:               {3, 1},
	metric.OutletIndex:              {4, 1},
	metric.OutletState:              {5, 1}, // switched status table, see OutletOID
	metric.OutletCurrent:            {6, 10}, // tenths of A
	metric.OutletPower:              {7, 1},
	metric.OutletPeakPower:          {8, 1},
	metric.OutletPeakPowerTimestamp: {9, 1},
	metric.OutletPeakPowerStartTime: {10, 1},
	metric.OutletEnergy:             {11, 10}, // tenths of kWh
	metric.OutletType:               {12, 1},
	metric.OutletExternalLink:       {13, 1},
	metric.OutletEnergyStartTime:    {14, 1},
}

// OutletOID returns the address of m for a global outlet index. The power
// state lives in the switched status table; every other column is metered.
func OutletOID(m metric.OutletMetric, globalIndex int) string {
	e, ok := outletTable[m]
	if !ok {
		return ""
	}
	if m == metric.OutletState {
		return join(OutletSwitchedStatusBase, e.suffix, globalIndex)
	}
	return join(OutletMeteredStatusBase, e.suffix, globalIndex)
}

// OutletDivisor is the scale factor for m: typed = raw / divisor.
func OutletDivisor(m metric.OutletMetric) float64 {
	if e, ok := outletTable[m]; ok {
		return e.divisor
	}
	return 1
}

// GlobalOutletIndex maps (slot, outlet) to the table index shared by all
// chassis of an NPS group.
func GlobalOutletIndex(pduSlot, outletNumber, outletsPerPdu int) int {
	return (pduSlot-1)*outletsPerPdu + outletNumber
}

// ─────────────────────────────────────────────────────────────────────────────
// Write-only addresses
// ─────────────────────────────────────────────────────────────────────────────

// Threshold selects a per-outlet power threshold column.
type Threshold int

const (
	ThresholdLowLoad      Threshold = 7
	ThresholdNearOverload Threshold = 8
	ThresholdOverload     Threshold = 9
)

func (t Threshold) String() string {
	switch t {
	case ThresholdLowLoad:
		return "low_load"
	case ThresholdNearOverload:
		return "near_overload"
	case ThresholdOverload:
		return "overload"
	default:
		return "Threshold(" + strconv.Itoa(int(t)) + ")"
	}
}

// Reset selects a counter-reset trigger column of the device config table.
type Reset int

const (
	ResetDevicePeakPower  Reset = 10
	ResetDeviceEnergy     Reset = 11
	ResetOutletsEnergy    Reset = 12
	ResetOutletsPeakPower Reset = 13
)

func (r Reset) String() string {
	switch r {
	case ResetDevicePeakPower:
		return "device_peak_power"
	case ResetDeviceEnergy:
		return "device_energy"
	case ResetOutletsEnergy:
		return "outlets_energy"
	case ResetOutletsPeakPower:
		return "outlets_peak_power"
	default:
		return "Reset(" + strconv.Itoa(int(r)) + ")"
	}
}

// ResetTriggerValue is written to a reset column to trigger the reset.
const ResetTriggerValue = "2"

const outletControlSuffix = 5

// OutletControlOID is where on/off/reboot commands are written.
func OutletControlOID(globalIndex int) string {
	return join(OutletControlBase, outletControlSuffix, globalIndex)
}

// OutletThresholdOID is the metered config column for threshold t.
func OutletThresholdOID(t Threshold, globalIndex int) string {
	return join(OutletMeteredConfigBase, int(t), globalIndex)
}

// DeviceResetOID is the reset trigger column r for a chassis.
func DeviceResetOID(r Reset, pduSlot int) string {
	return join(DeviceConfigBase, int(r), pduSlot)
}

func join(base string, suffix, index int) string {
	return base + "." + strconv.Itoa(suffix) + "." + strconv.Itoa(index)
}
