// Package pduerr defines the error taxonomy shared by the transport clients,
// the response parsers and the protocol providers.
//
//	TransportError            connection, timeout, auth, object-not-found, batch length mismatch
//	ParseError                raw response did not match the expected pattern
//	UnsupportedOperationError write attempted on a read-only transport
//	UnsupportedMetricError    metric outside a provider's vocabulary
//
// All four are returned as pointers and support errors.As.
package pduerr

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel causes carried inside TransportError.Err.
var (
	ErrTimeout           = errors.New("timeout")
	ErrObjectNotFound    = errors.New("object not found")
	ErrBinaryNotFound    = errors.New("binary not found")
	ErrNoClientAvailable = errors.New("no SNMP client available")
)

// ─────────────────────────────────────────────────────────────────────────────
// TransportError
// ─────────────────────────────────────────────────────────────────────────────

// TransportError reports a failure below the parser: the request never
// produced a trustworthy raw value.
type TransportError struct {
	Op  string // e.g. "snmp get", "snmp set", "ssh exec"
	Msg string
	Err error
}

func (e *TransportError) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(" failed")
	}
	if e.Msg != "" {
		if b.Len() > 0 {
			b.WriteString(": ")
		}
		b.WriteString(e.Msg)
	}
	if e.Err != nil {
		if b.Len() > 0 {
			b.WriteString(": ")
		}
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *TransportError) Unwrap() error { return e.Err }

// Transport builds a TransportError with a formatted message.
func Transport(op, format string, args ...any) error {
	return &TransportError{Op: op, Msg: fmt.Sprintf(format, args...)}
}

// WrapTransport wraps err as a TransportError. A nil err yields nil; an err
// that already is a TransportError is returned unchanged.
func WrapTransport(op string, err error) error {
	if err == nil {
		return nil
	}
	var te *TransportError
	if errors.As(err, &te) {
		return err
	}
	return &TransportError{Op: op, Err: err}
}

// ─────────────────────────────────────────────────────────────────────────────
// ParseError
// ─────────────────────────────────────────────────────────────────────────────

// ParseError carries the offending raw text for diagnosis.
type ParseError struct {
	What string
	Raw  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("could not parse %s from: %q", e.What, e.Raw)
}

func Parse(what, raw string) error { return &ParseError{What: what, Raw: raw} }

// ─────────────────────────────────────────────────────────────────────────────
// Unsupported operations / metrics
// ─────────────────────────────────────────────────────────────────────────────

// UnsupportedOperationError is returned before any network call when a
// mutating operation reaches a read-only transport.
type UnsupportedOperationError struct {
	Op  string
	Msg string
}

func (e *UnsupportedOperationError) Error() string {
	if e.Op == "" {
		return e.Msg
	}
	return e.Op + ": " + e.Msg
}

// UnsupportedMetricError is returned when a provider cannot produce a metric.
type UnsupportedMetricError struct {
	Metric   string
	Scope    string
	Provider string
}

func (e *UnsupportedMetricError) Error() string {
	return fmt.Sprintf("%s metric %q not available via %s", e.Scope, e.Metric, e.Provider)
}

// ─────────────────────────────────────────────────────────────────────────────
// Post-reset disconnect
// ─────────────────────────────────────────────────────────────────────────────

// benignDisconnect is the message surfaced when APC firmware closes the
// session right after accepting a reset or control command.
const benignDisconnect = "no message received from host"

// IsBenignPostResetDisconnect reports whether err is the transport failure
// APC firmware produces after a reset/control set has been accepted. Only
// reset and outlet-control paths may treat it as success.
func IsBenignPostResetDisconnect(err error) bool {
	var te *TransportError
	if !errors.As(err, &te) {
		return false
	}
	return strings.Contains(strings.ToLower(te.Error()), benignDisconnect)
}
