package client

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"sync"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/vpbank/apc_pdu/pkg/apcpdu/pduerr"
)

// Commander runs APC CLI commands and returns their raw output. RunBatch
// returns outputs keyed by command and fails as a whole.
type Commander interface {
	Host() string
	Run(ctx context.Context, command string) (string, error)
	RunBatch(ctx context.Context, commands []string) (map[string]string, error)
}

// SSHConfig holds the login for an SSH client.
type SSHConfig struct {
	User     string
	Password string

	// KnownHostsFile enables host key verification. Empty accepts any key,
	// which is how NMC appliances with regenerated keys are usually reached.
	KnownHostsFile string
}

// SSH runs one command per session over a lazily dialled connection. The
// connection is dropped and redialled after any session failure.
type SSH struct {
	host   string
	cfg    SSHConfig
	opts   Options
	logger *slog.Logger

	mu   sync.Mutex
	conn *ssh.Client
}

var _ Commander = (*SSH)(nil)

// NewSSH returns an SSH client for host. No connection is made until the
// first Run.
func NewSSH(host string, cfg SSHConfig, opts Options, logger *slog.Logger) *SSH {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(noopWriter{}, nil))
	}
	return &SSH{
		host:   host,
		cfg:    cfg,
		opts:   opts.withDefaults(DefaultSSHPort),
		logger: logger,
	}
}

func (c *SSH) Host() string { return c.host }

// Run executes command and returns its combined output.
func (c *SSH) Run(ctx context.Context, command string) (string, error) {
	release, err := c.opts.Limiter.Acquire(ctx, c.host)
	if err != nil {
		return "", pduerr.WrapTransport("ssh exec", err)
	}
	defer release()

	c.mu.Lock()
	defer c.mu.Unlock()

	conn, err := c.connect(ctx)
	if err != nil {
		return "", err
	}

	sess, err := conn.NewSession()
	if err != nil {
		c.reset()
		return "", pduerr.WrapTransport("ssh exec", fmt.Errorf("open session: %w", err))
	}
	defer func() { _ = sess.Close() }()

	type result struct {
		out []byte
		err error
	}
	done := make(chan result, 1)
	go func() {
		out, err := sess.CombinedOutput(command)
		done <- result{out, err}
	}()

	select {
	case r := <-done:
		if r.err != nil && len(r.out) == 0 {
			c.reset()
			return "", pduerr.WrapTransport("ssh exec", fmt.Errorf("%q: %w", command, r.err))
		}
		c.logger.Debug("ssh exec", "host", c.host, "command", command, "bytes", len(r.out))
		return string(r.out), nil
	case <-ctx.Done():
		c.reset()
		return "", pduerr.WrapTransport("ssh exec", ctx.Err())
	}
}

// RunBatch runs commands one after another; there is no multi-command round
// trip on the APC CLI.
func (c *SSH) RunBatch(ctx context.Context, commands []string) (map[string]string, error) {
	out := make(map[string]string, len(commands))
	for _, cmd := range commands {
		v, err := c.Run(ctx, cmd)
		if err != nil {
			return nil, err
		}
		out[cmd] = v
	}
	return out, nil
}

// Close drops the cached connection.
func (c *SSH) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

func (c *SSH) connect(ctx context.Context) (*ssh.Client, error) {
	if c.conn != nil {
		return c.conn, nil
	}

	hostKey := ssh.InsecureIgnoreHostKey()
	if c.cfg.KnownHostsFile != "" {
		cb, err := knownhosts.New(c.cfg.KnownHostsFile)
		if err != nil {
			return nil, pduerr.WrapTransport("ssh connect", fmt.Errorf("known hosts %s: %w", c.cfg.KnownHostsFile, err))
		}
		hostKey = cb
	}

	config := &ssh.ClientConfig{
		User: c.cfg.User,
		Auth: []ssh.AuthMethod{
			ssh.Password(c.cfg.Password),
			// NMC firmware prompts through keyboard-interactive.
			ssh.KeyboardInteractive(func(_, _ string, questions []string, _ []bool) ([]string, error) {
				answers := make([]string, len(questions))
				for i := range answers {
					answers[i] = c.cfg.Password
				}
				return answers, nil
			}),
		},
		HostKeyCallback: hostKey,
		Timeout:         c.opts.Timeout,
	}

	addr := net.JoinHostPort(c.host, strconv.Itoa(c.opts.Port))
	d := net.Dialer{Timeout: c.opts.Timeout}
	raw, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, pduerr.WrapTransport("ssh connect", err)
	}
	sc, chans, reqs, err := ssh.NewClientConn(raw, addr, config)
	if err != nil {
		_ = raw.Close()
		return nil, pduerr.WrapTransport("ssh connect", fmt.Errorf("%s@%s: %w", c.cfg.User, addr, err))
	}

	c.conn = ssh.NewClient(sc, chans, reqs)
	c.logger.Debug("ssh connected", "host", c.host, "port", c.opts.Port)
	return c.conn, nil
}

func (c *SSH) reset() {
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
}
