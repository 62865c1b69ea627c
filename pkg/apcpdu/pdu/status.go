package pdu

import (
	"github.com/vpbank/apc_pdu/models"
	"github.com/vpbank/apc_pdu/pkg/apcpdu/metric"
)

// text returns the text of a reading, or "" when the batch lacks it.
func text[K comparable](v map[K]metric.Value, k K) string {
	if x, ok := v[k]; ok {
		return x.String()
	}
	return ""
}

// deviceStatus builds the DTO from a batch. Missing readings stay zero.
func deviceStatus(pduSlot int, v map[metric.DeviceMetric]metric.Value) models.DeviceStatus {
	st := models.DeviceStatus{
		PduSlot:                  pduSlot,
		ModuleIndex:              int(v[metric.DeviceModuleIndex].Int()),
		PduIndex:                 int(v[metric.DevicePduIndex].Int()),
		Name:                     text(v, metric.DeviceName),
		PowerW:                   v[metric.DevicePower].Float(),
		PeakPowerW:               v[metric.DevicePeakPower].Float(),
		PeakPowerTimestamp:       text(v, metric.DevicePeakPowerTimestamp),
		PeakPowerResetTimestamp:  text(v, metric.DevicePeakPowerResetTimestamp),
		EnergyKWh:                v[metric.DeviceEnergy].Float(),
		EnergyResetTimestamp:     text(v, metric.DeviceEnergyResetTimestamp),
		EnergyStartTimestamp:     text(v, metric.DeviceEnergyStartTimestamp),
		ApparentPowerVA:          v[metric.DeviceApparentPower].Float(),
		PowerFactor:              v[metric.DevicePowerFactor].Float(),
		OutletCount:              int(v[metric.DeviceOutletCount].Int()),
		PhaseCount:               int(v[metric.DevicePhaseCount].Int()),
		LowLoadThresholdPct:      int(v[metric.DeviceLowLoadThreshold].Int()),
		NearOverloadThresholdPct: int(v[metric.DeviceNearOverloadThreshold].Int()),
		OverloadRestriction:      int(v[metric.DeviceOverloadRestriction].Int()),
	}
	if ls, ok := v[metric.DeviceLoadStatus]; ok {
		st.LoadStatus = ls.LoadStatus().String()
	}
	return st
}

// outletStatus builds the DTO from a batch. State stays empty when the batch
// has no state reading.
func outletStatus(number int, v map[metric.OutletMetric]metric.Value) models.OutletStatus {
	st := models.OutletStatus{
		Number:             number,
		ModuleIndex:        int(v[metric.OutletModuleIndex].Int()),
		PduIndex:           int(v[metric.OutletPduIndex].Int()),
		Index:              int(v[metric.OutletIndex].Int()),
		Name:               text(v, metric.OutletName),
		CurrentA:           v[metric.OutletCurrent].Float(),
		PowerW:             v[metric.OutletPower].Float(),
		PeakPowerW:         v[metric.OutletPeakPower].Float(),
		PeakPowerTimestamp: text(v, metric.OutletPeakPowerTimestamp),
		PeakPowerStartTime: text(v, metric.OutletPeakPowerStartTime),
		EnergyKWh:          v[metric.OutletEnergy].Float(),
		EnergyStartTime:    text(v, metric.OutletEnergyStartTime),
		OutletType:         text(v, metric.OutletType),
		ExternalLink:       text(v, metric.OutletExternalLink),
	}
	if ps, ok := v[metric.OutletState]; ok {
		st.State = ps.PowerState().String()
	}
	return st
}
