package client

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/gosnmp/gosnmp"
	"github.com/vpbank/apc_pdu/pkg/apcpdu/pduerr"
	"github.com/vpbank/apc_pdu/snmp/decoder"
	"github.com/vpbank/apc_pdu/snmp/oidmap"
)

// Library is the gosnmp backend. Every call opens a fresh session; batches go
// out as one GET PDU per MaxOids chunk.
type Library struct {
	host       string
	opts       Options
	logger     *slog.Logger
	newHandler func() gosnmp.Handler
}

var _ Writer = (*Library)(nil)
var _ Backend = (*Library)(nil)

// NewLibrary returns a gosnmp-backed client for host.
func NewLibrary(host string, opts Options, logger *slog.Logger) *Library {
	return NewLibraryWithHandler(host, opts, gosnmp.NewHandler, logger)
}

// NewLibraryWithHandler is NewLibrary with a custom handler constructor.
func NewLibraryWithHandler(host string, opts Options, newHandler func() gosnmp.Handler, logger *slog.Logger) *Library {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(noopWriter{}, nil))
	}
	return &Library{
		host:       host,
		opts:       opts.withDefaults(DefaultSNMPPort),
		logger:     logger,
		newHandler: newHandler,
	}
}

func (c *Library) Name() string    { return "library" }
func (c *Library) Host() string    { return c.host }
func (c *Library) Available() bool { return true }

// Get fetches one OID and renders it as type-tagged text.
func (c *Library) Get(ctx context.Context, oid string, creds Credentials) (string, error) {
	out, err := c.GetBatch(ctx, []string{oid}, creds)
	if err != nil {
		return "", err
	}
	return out[oid], nil
}

// GetBatch fetches all oids, one round trip per MaxOids chunk. Results are
// correlated by position; a short or NoSuchObject response fails the call.
func (c *Library) GetBatch(ctx context.Context, oids []string, creds Credentials) (map[string]string, error) {
	if len(oids) == 0 {
		return map[string]string{}, nil
	}

	release, err := c.opts.Limiter.Acquire(ctx, c.host)
	if err != nil {
		return nil, pduerr.WrapTransport("snmp get", err)
	}
	defer release()

	h, err := openSession(c.newHandler, c.host, c.opts, creds)
	if err != nil {
		return nil, err
	}
	defer func() { _ = h.Close() }()

	chunk := h.MaxOids()
	if chunk <= 0 {
		chunk = defaultMaxOids
	}

	results := make(map[string]string, len(oids))
	for start := 0; start < len(oids); start += chunk {
		if err := ctx.Err(); err != nil {
			return nil, pduerr.WrapTransport("snmp get", err)
		}
		end := min(start+chunk, len(oids))
		part := oids[start:end]

		pkt, err := h.Get(part)
		if err != nil {
			return nil, wrapGosnmpError("snmp get", err)
		}
		if err := checkPacket("snmp get", pkt); err != nil {
			return nil, err
		}
		if len(pkt.Variables) != len(part) {
			return nil, pduerr.Transport("snmp get", "expected %d values, got %d", len(part), len(pkt.Variables))
		}
		for i, pdu := range pkt.Variables {
			if decoder.IsErrorType(pdu.Type) {
				return nil, &pduerr.TransportError{Op: "snmp get", Msg: part[i], Err: pduerr.ErrObjectNotFound}
			}
			if decoder.NormaliseOID(pdu.Name) != decoder.NormaliseOID(part[i]) {
				return nil, pduerr.Transport("snmp get", "value %d is for %s, requested %s", i+1, pdu.Name, part[i])
			}
			results[part[i]] = decoder.FormatVarbind(pdu)
		}
	}

	c.logger.Debug("snmp get", "host", c.host, "oids", len(oids))
	return results, nil
}

// Set writes one value. typeTag is "i" (Integer) or "s" (OctetString).
func (c *Library) Set(ctx context.Context, oid, typeTag, value string, creds Credentials) error {
	pdu, err := setPDU(oid, typeTag, value)
	if err != nil {
		return err
	}

	release, err := c.opts.Limiter.Acquire(ctx, c.host)
	if err != nil {
		return pduerr.WrapTransport("snmp set", err)
	}
	defer release()

	h, err := openSession(c.newHandler, c.host, c.opts, creds)
	if err != nil {
		return err
	}
	defer func() { _ = h.Close() }()

	pkt, err := h.Set([]gosnmp.SnmpPDU{pdu})
	if err != nil {
		return wrapGosnmpError("snmp set", err)
	}
	if err := checkPacket("snmp set", pkt); err != nil {
		return err
	}

	c.logger.Debug("snmp set", "host", c.host, "oid", oid, "type", typeTag)
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

func setPDU(oid, typeTag, value string) (gosnmp.SnmpPDU, error) {
	switch typeTag {
	case oidmap.TypeInteger:
		n, err := strconv.Atoi(value)
		if err != nil {
			return gosnmp.SnmpPDU{}, fmt.Errorf("snmp set %s: integer value %q: %w", oid, value, err)
		}
		return gosnmp.SnmpPDU{Name: oid, Type: gosnmp.Integer, Value: n}, nil
	case oidmap.TypeString:
		return gosnmp.SnmpPDU{Name: oid, Type: gosnmp.OctetString, Value: value}, nil
	default:
		return gosnmp.SnmpPDU{}, fmt.Errorf("snmp set %s: unsupported type %q", oid, typeTag)
	}
}

// checkPacket turns a non-zero error-status into a TransportError. SNMPv1
// agents report a missing OID as noSuchName rather than a NoSuchObject
// varbind.
func checkPacket(op string, pkt *gosnmp.SnmpPacket) error {
	if pkt == nil {
		return pduerr.Transport(op, "empty response")
	}
	switch pkt.Error {
	case gosnmp.NoError:
		return nil
	case gosnmp.NoSuchName:
		return &pduerr.TransportError{Op: op, Msg: fmt.Sprintf("error-index %d", pkt.ErrorIndex), Err: pduerr.ErrObjectNotFound}
	default:
		return pduerr.Transport(op, "agent returned %v (error-index %d)", pkt.Error, pkt.ErrorIndex)
	}
}

func isTimeout(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "timeout")
}

func wrapGosnmpError(op string, err error) error {
	if isTimeout(err) {
		return &pduerr.TransportError{Op: op, Msg: err.Error(), Err: pduerr.ErrTimeout}
	}
	return pduerr.WrapTransport(op, err)
}

// noopWriter discards log output.
type noopWriter struct{}

func (noopWriter) Write(b []byte) (int, error) { return len(b), nil }
