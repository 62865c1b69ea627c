package pdu

import (
	"fmt"
	"log/slog"

	"github.com/vpbank/apc_pdu/pkg/apcpdu/client"
	"github.com/vpbank/apc_pdu/pkg/apcpdu/config"
	"github.com/vpbank/apc_pdu/pkg/apcpdu/provider"
)

// New builds a PDU from a resolved device configuration: version "1" and "3"
// get an SNMP provider over the configured backend, "ssh" gets the CLI
// provider.
func New(cfg config.DeviceConfig, logger *slog.Logger) (*PDU, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(noopWriter{}, nil))
	}
	logger = logger.With("device", cfg.Name)

	limiter := client.NewHostLimiter(cfg.MaxConcurrentRequests)
	opts := client.Options{
		Port:    cfg.Port,
		Timeout: cfg.TimeoutDuration(),
		Retries: cfg.Retries,
		Limiter: limiter,
	}
	if cfg.Retries == 0 {
		opts.Retries = client.NoRetries
	}

	if cfg.Version == config.VersionSSH {
		cli := client.NewSSH(cfg.Host, client.SSHConfig{
			User:           cfg.SSH.Username,
			Password:       cfg.SSH.Password,
			KnownHostsFile: cfg.SSH.KnownHostsFile,
		}, opts, logger)
		d := NewPDU(provider.NewSSH(cli, cfg.OutletsPerPdu, logger), cfg.Slots, logger)
		d.backend = "ssh"
		d.closers = append(d.closers, cli, limiterCloser{limiter})
		return d, nil
	}

	backend, err := client.New(cfg.Backend, cfg.Host, opts, logger)
	if err != nil {
		limiter.Close()
		return nil, fmt.Errorf("device %q: %w", cfg.Name, err)
	}

	var p provider.Provider
	switch cfg.Version {
	case config.VersionSNMPv1:
		p = provider.NewSNMPv1(backend, cfg.Community, cfg.OutletsPerPdu, logger)
	case config.VersionSNMPv3:
		p = provider.NewSNMPv3(backend, provider.V3Auth{
			User:           cfg.V3.Username,
			AuthPassphrase: cfg.V3.AuthenticationPassphrase,
			PrivPassphrase: cfg.V3.PrivacyPassphrase,
			AuthProtocol:   cfg.V3.AuthenticationProtocol,
			PrivProtocol:   cfg.V3.PrivacyProtocol,
		}, cfg.OutletsPerPdu, logger)
	default:
		limiter.Close()
		return nil, fmt.Errorf("device %q: unknown version %q", cfg.Name, cfg.Version)
	}

	d := NewPDU(p, cfg.Slots, logger)
	d.backend = backend.Name()
	d.closers = append(d.closers, limiterCloser{limiter})
	logger.Debug("pdu: created", "host", cfg.Host, "version", cfg.Version, "backend", d.backend)
	return d, nil
}

type limiterCloser struct{ l *client.HostLimiter }

func (c limiterCloser) Close() error {
	c.l.Close()
	return nil
}
