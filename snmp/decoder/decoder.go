// Package decoder converts raw SNMP response text into numbers and strings.
//
// Two textual shapes reach it:
//
//	type-tagged   INTEGER: 1234        STRING: "Rack A"     (single gets, library clients)
//	quiet value   1234                 "Rack A"             (snmpget -Oqv batch output)
//
// The single-value parsers expect the tagged shape; the batch parsers expect
// the quiet shape and fall back to the tagged parsers when a tag is present.
// All functions are pure and safe for concurrent use.
package decoder

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/vpbank/apc_pdu/pkg/apcpdu/pduerr"
)

var taggedInt = regexp.MustCompile(`:\s*(-?\d+)`)

const stringTag = "STRING:"

// ─────────────────────────────────────────────────────────────────────────────
// Single-value parsers
// ─────────────────────────────────────────────────────────────────────────────

// ParseNumeric extracts the first signed integer following a "TYPE:" tag. A
// bare numeric token is accepted as well. Anything else is a ParseError.
func ParseNumeric(raw string) (float64, error) {
	if m := taggedInt.FindStringSubmatch(raw); m != nil {
		if n, err := strconv.ParseInt(m[1], 10, 64); err == nil {
			return float64(n), nil
		}
	}
	if f, ok := parseFloat(strings.TrimSpace(raw)); ok {
		return f, nil
	}
	return 0, pduerr.Parse("SNMP value", raw)
}

// ParseString strips an optional STRING: tag and surrounding quotes. It never
// fails; empty input yields "".
func ParseString(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, stringTag)
	s = strings.TrimSpace(s)
	return strings.Trim(s, `"`)
}

// ─────────────────────────────────────────────────────────────────────────────
// Batch parsers
// ─────────────────────────────────────────────────────────────────────────────

// ParseNumericBatch parses a quiet value; decimals are allowed.
func ParseNumericBatch(raw string) (float64, error) {
	s := strings.Trim(strings.TrimSpace(raw), `"`)
	if f, ok := parseFloat(s); ok {
		return f, nil
	}
	return ParseNumeric(raw)
}

// ParseStringBatch trims and unquotes a quiet value.
func ParseStringBatch(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, stringTag) {
		return ParseString(s)
	}
	return strings.Trim(s, `"`)
}

// parseFloat accepts finite decimal numbers only.
func parseFloat(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
