package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/vpbank/apc_pdu/pkg/apcpdu/pduerr"
)

const (
	snmpgetBinary = "snmpget"
	snmpsetBinary = "snmpset"
)

// Runner executes a command and returns its combined stdout and stderr.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Binary shells out to the net-snmp command line tools. Batches are a single
// snmpget with -Oqv output, one value per line in request order.
type Binary struct {
	host   string
	opts   Options
	run    Runner
	logger *slog.Logger
}

var _ Writer = (*Binary)(nil)
var _ Backend = (*Binary)(nil)

// NewBinary returns a net-snmp binary client for host.
func NewBinary(host string, opts Options, logger *slog.Logger) *Binary {
	return NewBinaryWithRunner(host, opts, execRunner, logger)
}

// NewBinaryWithRunner is NewBinary with a custom command runner.
func NewBinaryWithRunner(host string, opts Options, run Runner, logger *slog.Logger) *Binary {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(noopWriter{}, nil))
	}
	return &Binary{
		host:   host,
		opts:   opts.withDefaults(DefaultSNMPPort),
		run:    run,
		logger: logger,
	}
}

func (c *Binary) Name() string { return "binary" }
func (c *Binary) Host() string { return c.host }

// Available reports whether snmpget is on PATH.
func (c *Binary) Available() bool {
	_, err := exec.LookPath(snmpgetBinary)
	return err == nil
}

func (c *Binary) Get(ctx context.Context, oid string, creds Credentials) (string, error) {
	out, err := c.GetBatch(ctx, []string{oid}, creds)
	if err != nil {
		return "", err
	}
	return out[oid], nil
}

// GetBatch runs one snmpget for all oids. The output line count must match
// the OID count exactly; a mismatch is never partially trusted.
func (c *Binary) GetBatch(ctx context.Context, oids []string, creds Credentials) (map[string]string, error) {
	if len(oids) == 0 {
		return map[string]string{}, nil
	}

	args := append(c.authArgs(creds), c.commonArgs()...)
	args = append(args, "-Oqv", c.target())
	args = append(args, oids...)

	output, err := c.execute(ctx, "snmp get", snmpgetBinary, args)
	if err != nil {
		return nil, err
	}

	lines := splitLines(output)
	if len(lines) != len(oids) {
		return nil, pduerr.Transport("snmp get", "expected %d values, got %d", len(oids), len(lines))
	}

	results := make(map[string]string, len(oids))
	for i, oid := range oids {
		results[oid] = lines[i]
	}
	return results, nil
}

// Set runs snmpset for one OID. The echoed varbind is not inspected; net-snmp
// reports a rejected set on its own diagnostic lines.
func (c *Binary) Set(ctx context.Context, oid, typeTag, value string, creds Credentials) error {
	args := append(c.authArgs(creds), c.commonArgs()...)
	args = append(args, c.target(), oid, typeTag, value)

	_, err := c.execute(ctx, "snmp set", snmpsetBinary, args)
	return err
}

// ─────────────────────────────────────────────────────────────────────────────
// Command execution
// ─────────────────────────────────────────────────────────────────────────────

func (c *Binary) execute(ctx context.Context, op, name string, args []string) (string, error) {
	release, err := c.opts.Limiter.Acquire(ctx, c.host)
	if err != nil {
		return "", pduerr.WrapTransport(op, err)
	}
	defer release()

	// net-snmp enforces timeout and retries itself; the deadline only
	// guards against a wedged process.
	deadline := c.opts.Timeout*time.Duration(c.opts.Retries+1) + 5*time.Second
	ctx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	c.logger.Debug("executing", "binary", name, "host", c.host)

	raw, runErr := c.run(ctx, name, args...)
	output := strings.TrimSpace(string(raw))

	if errors.Is(runErr, exec.ErrNotFound) || (runErr != nil && binaryMissing(output, name)) {
		return "", &pduerr.TransportError{Op: op, Msg: name, Err: pduerr.ErrBinaryNotFound}
	}
	if err := diagnose(op, output); err != nil {
		return "", err
	}
	if runErr != nil {
		if output == "" {
			return "", pduerr.WrapTransport(op, fmt.Errorf("'%s' execution failed: %w", name, runErr))
		}
		return "", pduerr.Transport(op, "'%s' execution failed: %v: %s", name, runErr, output)
	}
	return output, nil
}

// diagnose looks for net-snmp diagnostic lines. Only whole lines with a known
// prefix count, so device values such as a quoted outlet name never match.
func diagnose(op, output string) error {
	var timeout, notFound, failed bool
	for _, line := range splitLines(output) {
		switch {
		case strings.HasPrefix(line, "Timeout:"), strings.HasPrefix(line, "No Response from"):
			timeout = true
		case strings.HasPrefix(line, "No Such Object available"),
			strings.HasPrefix(line, "No Such Instance currently exists"),
			strings.HasPrefix(line, "Reason:") && strings.Contains(line, "noSuchName"):
			notFound = true
		case strings.HasPrefix(line, "Error in packet"), strings.HasPrefix(line, "Reason:"):
			failed = true
		}
	}
	switch {
	case timeout:
		return &pduerr.TransportError{Op: op, Msg: output, Err: pduerr.ErrTimeout}
	case notFound:
		return &pduerr.TransportError{Op: op, Msg: output, Err: pduerr.ErrObjectNotFound}
	case failed:
		return pduerr.Transport(op, "%s", output)
	}
	return nil
}

func binaryMissing(output, name string) bool {
	return strings.Contains(output, "not found") && strings.Contains(output, name)
}

func (c *Binary) target() string {
	if c.opts.Port == DefaultSNMPPort {
		return c.host
	}
	return c.host + ":" + strconv.Itoa(c.opts.Port)
}

func (c *Binary) commonArgs() []string {
	secs := int(math.Ceil(c.opts.Timeout.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return []string{"-t", strconv.Itoa(secs), "-r", strconv.Itoa(c.opts.Retries)}
}

func (c *Binary) authArgs(creds Credentials) []string {
	if creds.Version != Version3 {
		return []string{"-v1", "-c", creds.Community}
	}

	level := creds.SecurityLevel
	if level == "" {
		level = NoAuthNoPriv
	}
	args := []string{"-v3", "-l", string(level), "-u", creds.User}
	if level == AuthNoPriv || level == AuthPriv {
		args = append(args, "-a", netsnmpAuthProto(creds.AuthProtocol), "-A", creds.AuthPassphrase)
	}
	if level == AuthPriv {
		args = append(args, "-x", netsnmpPrivProto(creds.PrivProtocol), "-X", creds.PrivPassphrase)
	}
	return args
}

func netsnmpAuthProto(s string) string {
	switch strings.ToLower(s) {
	case "md5":
		return "MD5"
	case "sha224":
		return "SHA-224"
	case "sha256":
		return "SHA-256"
	case "sha384":
		return "SHA-384"
	case "sha512":
		return "SHA-512"
	default:
		return "SHA"
	}
}

func netsnmpPrivProto(s string) string {
	switch strings.ToLower(s) {
	case "des":
		return "DES"
	case "aes192":
		return "AES-192"
	case "aes256":
		return "AES-256"
	case "aes192c":
		return "AES-192-C"
	case "aes256c":
		return "AES-256-C"
	default:
		return "AES"
	}
}

func splitLines(output string) []string {
	if output == "" {
		return nil
	}
	lines := strings.Split(output, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	return lines
}
