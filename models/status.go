// Package models defines the status records produced by the PDU facade and
// consumed by the formatter and the output sinks. Nothing here depends on any
// other internal package.
package models

import "time"

// DeviceStatus is the chassis-level snapshot of one NPS slot. Readings a
// provider cannot produce (the SSH CLI exposes only a subset) are left at
// their zero value.
type DeviceStatus struct {
	PduSlot     int    `json:"pdu_slot"`
	ModuleIndex int    `json:"module_index"`
	PduIndex    int    `json:"pdu_index"`
	Name        string `json:"name"`
	LoadStatus  string `json:"load_status"`

	PowerW                  float64 `json:"power_w"`
	PeakPowerW              float64 `json:"peak_power_w"`
	PeakPowerTimestamp      string  `json:"peak_power_timestamp,omitempty"`
	PeakPowerResetTimestamp string  `json:"peak_power_reset_timestamp,omitempty"`
	EnergyKWh               float64 `json:"energy_kwh"`
	EnergyResetTimestamp    string  `json:"energy_reset_timestamp,omitempty"`
	EnergyStartTimestamp    string  `json:"energy_start_timestamp,omitempty"`
	ApparentPowerVA         float64 `json:"apparent_power_va"`
	PowerFactor             float64 `json:"power_factor"`

	OutletCount int `json:"outlet_count"`
	PhaseCount  int `json:"phase_count"`

	LowLoadThresholdPct      int `json:"low_load_threshold_pct"`
	NearOverloadThresholdPct int `json:"near_overload_threshold_pct"`
	OverloadRestriction      int `json:"overload_restriction"`
}

// OutletStatus is the snapshot of one outlet. Number is the outlet position on
// its chassis (1..outlets per PDU), not the global table index.
type OutletStatus struct {
	Number      int    `json:"number"`
	ModuleIndex int    `json:"module_index"`
	PduIndex    int    `json:"pdu_index"`
	Index       int    `json:"index"`
	Name        string `json:"name"`
	State       string `json:"state,omitempty"` // "on" | "off", empty when unread

	CurrentA           float64 `json:"current_a"`
	PowerW             float64 `json:"power_w"`
	PeakPowerW         float64 `json:"peak_power_w"`
	PeakPowerTimestamp string  `json:"peak_power_timestamp,omitempty"`
	PeakPowerStartTime string  `json:"peak_power_start_time,omitempty"`
	EnergyKWh          float64 `json:"energy_kwh"`
	EnergyStartTime    string  `json:"energy_start_time,omitempty"`

	OutletType   string `json:"outlet_type,omitempty"`
	ExternalLink string `json:"external_link,omitempty"`
}

// PduInfo groups a chassis with the outlets that answered.
type PduInfo struct {
	PduSlot int            `json:"pdu_slot"`
	Device  DeviceStatus   `json:"device"`
	Outlets []OutletStatus `json:"outlets"`
}

// Poll outcomes recorded in StatusRecord.PollStatus.
const (
	PollSuccess = "success"
	PollPartial = "partial" // some outlets were skipped
	PollError   = "error"
)

// StatusRecord is the payload emitted per PDU slot per polling cycle.
type StatusRecord struct {
	Timestamp      time.Time `json:"timestamp"`
	Host           string    `json:"host"`
	Device         string    `json:"device,omitempty"` // configuration key
	CollectorID    string    `json:"collector_id,omitempty"`
	Pdu            PduInfo   `json:"pdu"`
	PollDurationMs int64     `json:"poll_duration_ms"`
	PollStatus     string    `json:"poll_status"`
}
