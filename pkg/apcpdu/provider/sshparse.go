package provider

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/vpbank/apc_pdu/pkg/apcpdu/pduerr"
)

// APC CLI replies echo the command, print a status line such as
// "E000: Success" and a payload that is either a bare reading ("0.5 kW") or
// an outlet line ("1: sm51: 1.5 A", " 1: Server 1").

// reading matches a number followed by one of units at the end of a line,
// optionally prefixed by "N:" and one "label:" field.
func reading(units string) *regexp.Regexp {
	return regexp.MustCompile(`(?mi)^\s*(?:\d+:\s*)?(?:[^:\n]*:\s*)?(\d+(?:\.\d+)?)\s*(` + units + `)\s*$`)
}

var (
	rePower       = reading(`kW|W`)
	reApparent    = reading(`kVA|VA`)
	reEnergy      = reading(`kWh`)
	reCurrent     = reading(`A`)
	rePowerFactor = regexp.MustCompile(`(?m)^\s*(?:\d+:\s*)?(?:[^:\n]*:\s*)?(\d+(?:\.\d+)?)\s*$`)
	reOutletName  = regexp.MustCompile(`(?m)^\s*\d+:\s*(.*\S)\s*$`)
)

// ParseDevicePower returns watts from a W or kW reading.
func ParseDevicePower(output string) (float64, error) {
	return scaled(rePower, "device power", output)
}

// ParseApparentPower returns volt-amperes from a VA or kVA reading.
func ParseApparentPower(output string) (float64, error) {
	return scaled(reApparent, "apparent power", output)
}

// ParseDeviceEnergy returns kWh.
func ParseDeviceEnergy(output string) (float64, error) {
	return plain(reEnergy, "device energy", output)
}

// ParsePowerFactor returns the bare power factor.
func ParsePowerFactor(output string) (float64, error) {
	return plain(rePowerFactor, "power factor", output)
}

func ParseOutletName(output string) (string, error) {
	m := reOutletName.FindStringSubmatch(output)
	if m == nil {
		return "", pduerr.Parse("outlet name", output)
	}
	return strings.TrimSpace(m[1]), nil
}

func ParseOutletCurrent(output string) (float64, error) {
	return plain(reCurrent, "outlet current", output)
}

func ParseOutletPower(output string) (float64, error) {
	return scaled(rePower, "outlet power", output)
}

func ParseOutletEnergy(output string) (float64, error) {
	return plain(reEnergy, "outlet energy", output)
}

func plain(re *regexp.Regexp, what, output string) (float64, error) {
	m := re.FindStringSubmatch(output)
	if m == nil {
		return 0, pduerr.Parse(what, output)
	}
	f, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, pduerr.Parse(what, output)
	}
	return f, nil
}

// scaled applies ×1000 when the unit carries a k prefix.
func scaled(re *regexp.Regexp, what, output string) (float64, error) {
	m := re.FindStringSubmatch(output)
	if m == nil {
		return 0, pduerr.Parse(what, output)
	}
	f, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, pduerr.Parse(what, output)
	}
	if strings.HasPrefix(strings.ToLower(m[2]), "k") {
		f *= 1000
	}
	return f, nil
}
