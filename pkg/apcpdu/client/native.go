package client

import (
	"context"
	"log/slog"

	"github.com/gosnmp/gosnmp"
)

// Native is the read-only single-OID backend. Batches are emulated with one
// session per OID, so callers must not assume a single round trip.
type Native struct {
	lib *Library
}

var _ Backend = (*Native)(nil)

// NewNative returns a read-only gosnmp client for host.
func NewNative(host string, opts Options, logger *slog.Logger) *Native {
	return NewNativeWithHandler(host, opts, gosnmp.NewHandler, logger)
}

// NewNativeWithHandler is NewNative with a custom handler constructor.
func NewNativeWithHandler(host string, opts Options, newHandler func() gosnmp.Handler, logger *slog.Logger) *Native {
	return &Native{lib: NewLibraryWithHandler(host, opts, newHandler, logger)}
}

func (c *Native) Name() string    { return "native" }
func (c *Native) Host() string    { return c.lib.host }
func (c *Native) Available() bool { return true }

func (c *Native) Get(ctx context.Context, oid string, creds Credentials) (string, error) {
	return c.lib.Get(ctx, oid, creds)
}

// GetBatch issues one Get per OID in order and stops at the first failure.
func (c *Native) GetBatch(ctx context.Context, oids []string, creds Credentials) (map[string]string, error) {
	results := make(map[string]string, len(oids))
	for _, oid := range oids {
		v, err := c.Get(ctx, oid, creds)
		if err != nil {
			return nil, err
		}
		results[oid] = v
	}
	return results, nil
}
