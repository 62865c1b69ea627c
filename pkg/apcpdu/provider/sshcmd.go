package provider

import (
	"strconv"

	"github.com/vpbank/apc_pdu/pkg/apcpdu/metric"
)

// CLI vocabulary of the APC NMC shell.

type deviceCommand struct {
	reading string
	parse   func(string) (float64, error)
}

var sshDeviceCommands = map[metric.DeviceMetric]deviceCommand{
	metric.DevicePower:         {"power", ParseDevicePower},
	metric.DevicePeakPower:     {"peakPower", ParseDevicePower},
	metric.DeviceEnergy:        {"energy", ParseDeviceEnergy},
	metric.DeviceApparentPower: {"appower", ParseApparentPower},
	metric.DevicePowerFactor:   {"pf", ParsePowerFactor},
}

// deviceCLI addresses the host chassis with devReading and NPS guests with
// phReading <slot>.
func deviceCLI(reading string, pduSlot int) string {
	if pduSlot == 1 {
		return "devReading " + reading
	}
	return "phReading " + strconv.Itoa(pduSlot) + " " + reading
}

type outletCommand struct {
	reading string // empty for olName
	parse   func(string) (metric.Value, error)
}

var sshOutletCommands = map[metric.OutletMetric]outletCommand{
	metric.OutletName:      {"", stringReading(ParseOutletName)},
	metric.OutletCurrent:   {"current", floatReading(ParseOutletCurrent)},
	metric.OutletPower:     {"power", floatReading(ParseOutletPower)},
	metric.OutletPeakPower: {"peakPower", floatReading(ParseOutletPower)},
	metric.OutletEnergy:    {"energy", floatReading(ParseOutletEnergy)},
}

func outletCLI(reading string, globalIndex int) string {
	if reading == "" {
		return "olName " + strconv.Itoa(globalIndex)
	}
	return "olReading " + strconv.Itoa(globalIndex) + " " + reading
}

func floatReading(parse func(string) (float64, error)) func(string) (metric.Value, error) {
	return func(out string) (metric.Value, error) {
		f, err := parse(out)
		if err != nil {
			return metric.Value{}, err
		}
		return metric.FloatValue(f), nil
	}
}

func stringReading(parse func(string) (string, error)) func(string) (metric.Value, error) {
	return func(out string) (metric.Value, error) {
		s, err := parse(out)
		if err != nil {
			return metric.Value{}, err
		}
		return metric.StringValue(s), nil
	}
}
