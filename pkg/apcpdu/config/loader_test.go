package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vpbank/apc_pdu/pkg/apcpdu/config"
)

func tmpDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}

// ── PathsFromEnv ─────────────────────────────────────────────────────────────

func TestPathsFromEnv_Defaults(t *testing.T) {
	t.Setenv("APC_PDU_DEVICE_DEFINITIONS_DIRECTORY_PATH", "")
	t.Setenv("APC_PDU_DEFAULTS_DIRECTORY_PATH", "")
	p := config.PathsFromEnv()
	if p.Devices != "/etc/apc_pdu/devices" {
		t.Errorf("Devices = %q", p.Devices)
	}
	if p.Defaults != "/etc/apc_pdu/defaults" {
		t.Errorf("Defaults = %q", p.Defaults)
	}
}

func TestPathsFromEnv_Override(t *testing.T) {
	t.Setenv("APC_PDU_DEVICE_DEFINITIONS_DIRECTORY_PATH", "/custom/devices")
	p := config.PathsFromEnv()
	if p.Devices != "/custom/devices" {
		t.Errorf("Devices = %q, want /custom/devices", p.Devices)
	}
}

// ── Device loading ────────────────────────────────────────────────────────────

var deviceYAML = `
rack-a:
  host: 10.0.0.5
  version: 1
  community: private
  backend: binary
  slots: 2

rack-b:
  host: 10.0.0.6
  version: 3
  timeout: 2500
  v3_credentials:
    username: monitor
    authentication_protocol: sha256
    authentication_passphrase: authpass1
    privacy_passphrase: privpass1

rack-c:
  host: 10.0.0.7
  version: ssh
  ssh:
    username: apc
    password: apc
  outlets_per_pdu: 8
`

func TestLoad_Devices(t *testing.T) {
	devDir := tmpDir(t, map[string]string{"devices.yml": deviceYAML})
	cfg, err := config.Load(config.Paths{Devices: devDir, Defaults: t.TempDir()}, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := cfg.Names(); strings.Join(got, ",") != "rack-a,rack-b,rack-c" {
		t.Fatalf("names = %v", got)
	}

	a := cfg.Devices["rack-a"]
	if a.Host != "10.0.0.5" || a.Port != 161 || a.Version != "1" {
		t.Errorf("rack-a = %+v", a)
	}
	if a.Community != "private" || a.Backend != "binary" || a.Slots != 2 {
		t.Errorf("rack-a = %+v", a)
	}
	if a.Timeout != 1000 || a.Retries != 3 || a.OutletsPerPdu != 24 || a.PollInterval != 60 {
		t.Errorf("rack-a fallbacks = %+v", a)
	}

	b := cfg.Devices["rack-b"]
	if b.Version != "3" || b.V3.Username != "monitor" || b.V3.AuthenticationProtocol != "sha256" {
		t.Errorf("rack-b = %+v", b)
	}
	if b.TimeoutDuration() != 2500*time.Millisecond {
		t.Errorf("rack-b timeout = %v", b.TimeoutDuration())
	}
	if b.Backend != "auto" || b.Slots != 4 {
		t.Errorf("rack-b fallbacks = %+v", b)
	}

	c := cfg.Devices["rack-c"]
	if c.Port != 22 {
		t.Errorf("ssh port = %d, want 22", c.Port)
	}
	if c.SSH.Username != "apc" || c.OutletsPerPdu != 8 {
		t.Errorf("rack-c = %+v", c)
	}
}

func TestLoad_HostDefaultsToName(t *testing.T) {
	devDir := tmpDir(t, map[string]string{"d.yaml": "pdu01.example.com:\n  slots: 1\n"})
	cfg, err := config.Load(config.Paths{Devices: devDir, Defaults: t.TempDir()}, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if h := cfg.Devices["pdu01.example.com"].Host; h != "pdu01.example.com" {
		t.Errorf("host = %q", h)
	}
}

// ── Device defaults ───────────────────────────────────────────────────────────

var defaultsYAML = `
default:
  timeout: 3000
  retries: 1
  version: 3
  v3_credentials:
    username: fleet
    authentication_passphrase: fleetpass
  poll_interval: 30
  max_concurrent_requests: 2
`

func TestLoad_ExplicitZeroRetries(t *testing.T) {
	devDir := tmpDir(t, map[string]string{"d.yml": "rack-e:\n  host: 10.0.0.9\n  retries: 0\nrack-f:\n  host: 10.0.0.10\n"})
	defDir := tmpDir(t, map[string]string{"defaults.yml": defaultsYAML})
	cfg, err := config.Load(config.Paths{Devices: devDir, Defaults: defDir}, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if r := cfg.Devices["rack-e"].Retries; r != 0 {
		t.Errorf("rack-e retries = %d, want explicit 0", r)
	}
	if r := cfg.Devices["rack-f"].Retries; r != 1 {
		t.Errorf("rack-f retries = %d, want 1 from defaults", r)
	}
}

func TestLoad_NegativeRetriesRejected(t *testing.T) {
	devDir := tmpDir(t, map[string]string{"d.yml": "rack-g:\n  host: 10.0.0.11\n  retries: -2\n"})
	_, err := config.Load(config.Paths{Devices: devDir, Defaults: t.TempDir()}, nil)
	if err == nil || !strings.Contains(err.Error(), "retries -2 must not be negative") {
		t.Errorf("err = %v, want negative retries rejected", err)
	}
}

func TestLoad_DefaultsApplied(t *testing.T) {
	devDir := tmpDir(t, map[string]string{"d.yml": "rack-d:\n  host: 10.0.0.8\n  retries: 5\n"})
	defDir := tmpDir(t, map[string]string{"defaults.yml": defaultsYAML})
	cfg, err := config.Load(config.Paths{Devices: devDir, Defaults: defDir}, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	d := cfg.Devices["rack-d"]
	if d.Timeout != 3000 {
		t.Errorf("timeout = %d, want 3000 from defaults", d.Timeout)
	}
	if d.Retries != 5 {
		t.Errorf("retries = %d, want 5 from device", d.Retries)
	}
	if d.Version != "3" || d.V3.Username != "fleet" {
		t.Errorf("v3 from defaults = %+v", d)
	}
	if d.PollIntervalDuration() != 30*time.Second || d.MaxConcurrentRequests != 2 {
		t.Errorf("defaults = %+v", d)
	}
}

// ── Validation ────────────────────────────────────────────────────────────────

var invalidYAML = `
no-user:
  host: 10.0.0.9
  version: 3
bad-version:
  host: 10.0.0.10
  version: 2c
bad-backend:
  host: 10.0.0.11
  backend: pysnmp
too-many-slots:
  host: 10.0.0.12
  slots: 5
`

func TestLoad_ValidationErrorsAccumulate(t *testing.T) {
	devDir := tmpDir(t, map[string]string{"bad.yml": invalidYAML})
	_, err := config.Load(config.Paths{Devices: devDir, Defaults: t.TempDir()}, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	msg := err.Error()
	for _, want := range []string{
		"4 error(s)",
		`device "no-user": v3_credentials.username is required`,
		`device "bad-version": unknown version "2c"`,
		`device "bad-backend": unknown backend "pysnmp"`,
		`device "too-many-slots": slots 5 out of range`,
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("error %q missing %q", msg, want)
		}
	}
}

func TestLoad_MalformedFileSkipped(t *testing.T) {
	devDir := tmpDir(t, map[string]string{
		"good.yml":   "rack-a:\n  host: 10.0.0.5\n",
		"broken.yml": "rack-b: [unterminated\n",
	})
	cfg, err := config.Load(config.Paths{Devices: devDir, Defaults: t.TempDir()}, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Devices) != 1 {
		t.Errorf("devices = %d, want 1", len(cfg.Devices))
	}
}

func TestLoad_MissingDirectoriesAreIgnored(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope")
	cfg, err := config.Load(config.Paths{Devices: missing, Defaults: missing}, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Devices) != 0 {
		t.Errorf("devices = %d, want 0", len(cfg.Devices))
	}
}
