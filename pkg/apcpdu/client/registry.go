package client

import (
	"fmt"
	"log/slog"

	"github.com/vpbank/apc_pdu/pkg/apcpdu/pduerr"
)

// Backend names accepted by New.
const (
	BackendAuto    = "auto"
	BackendBinary  = "binary"
	BackendLibrary = "library"
	BackendNative  = "native"
)

// Candidates returns every SNMP backend for host in priority order: binary
// (true batch, external process), library, native.
func Candidates(host string, opts Options, logger *slog.Logger) []Backend {
	return []Backend{
		NewBinary(host, opts, logger),
		NewLibrary(host, opts, logger),
		NewNative(host, opts, logger),
	}
}

// Select returns the first available candidate.
func Select(candidates ...Backend) (Backend, error) {
	for _, c := range candidates {
		if c.Available() {
			return c, nil
		}
	}
	return nil, pduerr.ErrNoClientAvailable
}

// New builds the SNMP backend named by backend. "auto" or "" selects by
// priority; a named backend that is unavailable is an error.
func New(backend, host string, opts Options, logger *slog.Logger) (Backend, error) {
	var c Backend
	switch backend {
	case BackendAuto, "":
		return Select(Candidates(host, opts, logger)...)
	case BackendBinary:
		c = NewBinary(host, opts, logger)
	case BackendLibrary:
		c = NewLibrary(host, opts, logger)
	case BackendNative:
		c = NewNative(host, opts, logger)
	default:
		return nil, fmt.Errorf("unknown SNMP backend %q", backend)
	}
	if !c.Available() {
		return nil, fmt.Errorf("%s backend: %w", backend, pduerr.ErrNoClientAvailable)
	}
	return c, nil
}
