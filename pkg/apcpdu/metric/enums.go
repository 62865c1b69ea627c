package metric

import (
	"fmt"
	"strings"
)

// LoadStatus is the chassis load state reported by the device.
type LoadStatus int

const (
	LoadNormal       LoadStatus = 1
	LoadLow          LoadStatus = 2
	LoadNearOverload LoadStatus = 3
	LoadOverload     LoadStatus = 4
)

// LoadStatusFrom decodes a raw integer. Unknown values decode to LoadNormal.
func LoadStatusFrom(raw int64) LoadStatus {
	switch s := LoadStatus(raw); s {
	case LoadNormal, LoadLow, LoadNearOverload, LoadOverload:
		return s
	default:
		return LoadNormal
	}
}

func (s LoadStatus) String() string {
	switch s {
	case LoadNormal:
		return "normal"
	case LoadLow:
		return "low_load"
	case LoadNearOverload:
		return "near_overload"
	case LoadOverload:
		return "overload"
	default:
		return fmt.Sprintf("LoadStatus(%d)", int(s))
	}
}

// PowerState is the switched state of an outlet.
type PowerState int

const (
	PowerOff PowerState = 1
	PowerOn  PowerState = 2
)

// PowerStateFrom decodes a raw integer. Unknown values decode to PowerOff.
func PowerStateFrom(raw int64) PowerState {
	if raw == int64(PowerOn) {
		return PowerOn
	}
	return PowerOff
}

func (s PowerState) String() string {
	switch s {
	case PowerOff:
		return "off"
	case PowerOn:
		return "on"
	default:
		return fmt.Sprintf("PowerState(%d)", int(s))
	}
}

// OutletCommand is the value written to the outlet control column.
type OutletCommand int

const (
	CommandOn     OutletCommand = 1
	CommandOff    OutletCommand = 2
	CommandReboot OutletCommand = 3
)

func (c OutletCommand) String() string {
	switch c {
	case CommandOn:
		return "on"
	case CommandOff:
		return "off"
	case CommandReboot:
		return "reboot"
	default:
		return fmt.Sprintf("OutletCommand(%d)", int(c))
	}
}

// Valid reports whether c is one of the three known commands.
func (c OutletCommand) Valid() bool { return c >= CommandOn && c <= CommandReboot }

// ParseOutletCommand accepts "on", "off" or "reboot" in any case.
func ParseOutletCommand(s string) (OutletCommand, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on":
		return CommandOn, nil
	case "off":
		return CommandOff, nil
	case "reboot":
		return CommandReboot, nil
	default:
		return 0, fmt.Errorf("unknown outlet command %q (expected on|off|reboot)", s)
	}
}
