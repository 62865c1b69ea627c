// Package config loads the PDU inventory from YAML.
//
// Two directory trees are read, located through environment variables:
//
//	APC_PDU_DEVICE_DEFINITIONS_DIRECTORY_PATH  → Devices map
//	APC_PDU_DEFAULTS_DIRECTORY_PATH            → DeviceDefaults
//
// A device file maps a device name to its settings:
//
//	rack-a:
//	  host: 10.0.0.5
//	  version: 3
//	  backend: library
//	  v3_credentials:
//	    username: monitor
//	    authentication_passphrase: secret
//	  slots: 2
package config

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ─────────────────────────────────────────────────────────────────────────────
// Paths
// ─────────────────────────────────────────────────────────────────────────────

// Paths holds the directory locations for every configuration tree.
type Paths struct {
	Devices  string // APC_PDU_DEVICE_DEFINITIONS_DIRECTORY_PATH
	Defaults string // APC_PDU_DEFAULTS_DIRECTORY_PATH
}

// PathsFromEnv reads each path from its environment variable, falling back to
// the documented default when the variable is unset or empty.
func PathsFromEnv() Paths {
	return Paths{
		Devices:  envOr("APC_PDU_DEVICE_DEFINITIONS_DIRECTORY_PATH", "/etc/apc_pdu/devices"),
		Defaults: envOr("APC_PDU_DEFAULTS_DIRECTORY_PATH", "/etc/apc_pdu/defaults"),
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// ─────────────────────────────────────────────────────────────────────────────
// LoadedConfig
// ─────────────────────────────────────────────────────────────────────────────

// DeviceDefaults is the merged `default:` block of every defaults file.
type DeviceDefaults = rawDeviceEntry

// LoadedConfig is the parsed inventory.
type LoadedConfig struct {
	// Devices maps device name → resolved DeviceConfig (defaults merged in).
	Devices map[string]DeviceConfig

	DeviceDefault DeviceDefaults
}

// Names returns the device names in sorted order.
func (c *LoadedConfig) Names() []string {
	names := make([]string, 0, len(c.Devices))
	for n := range c.Devices {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ─────────────────────────────────────────────────────────────────────────────
// Load
// ─────────────────────────────────────────────────────────────────────────────

// Load reads both directories and returns the resolved inventory. Listing and
// validation errors are accumulated and returned together so operators see
// every problem at once; a file that is not valid YAML is skipped with a
// warning.
//
// A missing directory is skipped silently.
func Load(paths Paths, logger *slog.Logger) (*LoadedConfig, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(noopWriter{}, nil))
	}

	var errs []string

	defaults, err := loadDeviceDefaults(paths.Defaults, logger)
	if err != nil {
		errs = append(errs, err.Error())
	}

	devices, err := loadDevices(paths.Devices, defaults, logger)
	if err != nil {
		errs = append(errs, err.Error())
	}

	for _, name := range sortedKeys(devices) {
		for _, problem := range validateDevice(devices[name]) {
			errs = append(errs, fmt.Sprintf("device %q: %s", name, problem))
		}
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("config: %d error(s):\n  %s", len(errs), strings.Join(errs, "\n  "))
	}

	return &LoadedConfig{
		Devices:       devices,
		DeviceDefault: defaults,
	}, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Device defaults
// ─────────────────────────────────────────────────────────────────────────────

type rawDefaults struct {
	Default rawDeviceEntry `yaml:"default"`
}

func loadDeviceDefaults(dir string, logger *slog.Logger) (DeviceDefaults, error) {
	var zero DeviceDefaults
	files, err := yamlFiles(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return zero, nil
		}
		return zero, fmt.Errorf("list defaults dir %q: %w", dir, err)
	}

	var merged DeviceDefaults
	for _, path := range files {
		var raw rawDefaults
		if err := decodeFile(path, &raw); err != nil {
			logger.Warn("config: skip malformed defaults file", "file", path, "error", err.Error())
			continue
		}
		merged = mergeDefaults(merged, raw.Default)
		logger.Debug("config: loaded device defaults", "file", path)
	}
	return merged, nil
}

// mergeDefaults fills zero fields in dst with values from src. Earlier files
// win.
func mergeDefaults(dst DeviceDefaults, src rawDeviceEntry) DeviceDefaults {
	if dst.Port == 0 {
		dst.Port = src.Port
	}
	if dst.Version == "" {
		dst.Version = src.Version
	}
	if dst.Backend == "" {
		dst.Backend = src.Backend
	}
	if dst.Timeout == 0 {
		dst.Timeout = src.Timeout
	}
	if dst.Retries == nil {
		dst.Retries = src.Retries
	}
	if dst.Community == "" {
		dst.Community = src.Community
	}
	if dst.V3Credentials == (V3Credentials{}) {
		dst.V3Credentials = src.V3Credentials
	}
	if dst.SSH == (SSHCredentials{}) {
		dst.SSH = src.SSH
	}
	if dst.OutletsPerPdu == 0 {
		dst.OutletsPerPdu = src.OutletsPerPdu
	}
	if dst.Slots == 0 {
		dst.Slots = src.Slots
	}
	if dst.PollInterval == 0 {
		dst.PollInterval = src.PollInterval
	}
	if dst.MaxConcurrentRequests == 0 {
		dst.MaxConcurrentRequests = src.MaxConcurrentRequests
	}
	return dst
}

// ─────────────────────────────────────────────────────────────────────────────
// Devices
// ─────────────────────────────────────────────────────────────────────────────

func loadDevices(dir string, defaults DeviceDefaults, logger *slog.Logger) (map[string]DeviceConfig, error) {
	result := make(map[string]DeviceConfig)
	files, err := yamlFiles(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return result, nil
		}
		return result, fmt.Errorf("list devices dir %q: %w", dir, err)
	}

	for _, path := range files {
		var raw map[string]rawDeviceEntry
		if err := decodeFile(path, &raw); err != nil {
			logger.Warn("config: skip malformed device file", "file", path, "error", err.Error())
			continue
		}
		for name, entry := range raw {
			if _, dup := result[name]; dup {
				logger.Warn("config: device redefined", "device", name, "file", path)
			}
			result[name] = resolveDevice(name, entry, defaults)
		}
		logger.Debug("config: loaded device file", "file", path, "count", len(raw))
	}
	return result, nil
}

func firstInt(vals ...int) int {
	for _, v := range vals {
		if v != 0 {
			return v
		}
	}
	return 0
}

// firstSet returns the first non-nil value, so an explicit zero is kept.
func firstSet(def int, vals ...*int) int {
	for _, v := range vals {
		if v != nil {
			return *v
		}
	}
	return def
}

func firstString(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// resolveDevice merges a raw device entry with defaults, producing a
// fully-resolved DeviceConfig.
func resolveDevice(name string, e rawDeviceEntry, d DeviceDefaults) DeviceConfig {
	version := strings.ToLower(firstString(e.Version, d.Version, DefaultVersion))
	version = strings.TrimPrefix(version, "v")

	defaultPort := DefaultSNMPPort
	if version == VersionSSH {
		defaultPort = DefaultSSHPort
	}

	v3 := e.V3Credentials
	if v3 == (V3Credentials{}) {
		v3 = d.V3Credentials
	}
	ssh := e.SSH
	if ssh == (SSHCredentials{}) {
		ssh = d.SSH
	}

	host := e.Host
	if host == "" {
		host = name
	}

	return DeviceConfig{
		Name:                  name,
		Host:                  host,
		Port:                  firstInt(e.Port, d.Port, defaultPort),
		Version:               version,
		Backend:               strings.ToLower(firstString(e.Backend, d.Backend, DefaultBackend)),
		Timeout:               firstInt(e.Timeout, d.Timeout, DefaultTimeoutMs),
		Retries:               firstSet(DefaultRetries, e.Retries, d.Retries),
		Community:             firstString(e.Community, d.Community),
		V3:                    v3,
		SSH:                   ssh,
		OutletsPerPdu:         firstInt(e.OutletsPerPdu, d.OutletsPerPdu, DefaultOutletsPerPdu),
		Slots:                 firstInt(e.Slots, d.Slots, DefaultSlots),
		PollInterval:          firstInt(e.PollInterval, d.PollInterval, DefaultPollInterval),
		MaxConcurrentRequests: firstInt(e.MaxConcurrentRequests, d.MaxConcurrentRequests, DefaultMaxConcurrent),
	}
}

var knownBackends = map[string]bool{"auto": true, "binary": true, "library": true, "native": true}

func validateDevice(d DeviceConfig) []string {
	var problems []string
	switch d.Version {
	case VersionSNMPv1:
	case VersionSNMPv3:
		if d.V3.Username == "" {
			problems = append(problems, "v3_credentials.username is required for version 3")
		}
	case VersionSSH:
		if d.SSH.Username == "" {
			problems = append(problems, "ssh.username is required for version ssh")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown version %q (expected 1, 3 or ssh)", d.Version))
	}
	if d.Version != VersionSSH && !knownBackends[d.Backend] {
		problems = append(problems, fmt.Sprintf("unknown backend %q", d.Backend))
	}
	if d.Slots < 1 || d.Slots > DefaultSlots {
		problems = append(problems, fmt.Sprintf("slots %d out of range 1..%d", d.Slots, DefaultSlots))
	}
	if d.Retries < 0 {
		problems = append(problems, fmt.Sprintf("retries %d must not be negative", d.Retries))
	}
	if d.OutletsPerPdu < 1 {
		problems = append(problems, fmt.Sprintf("outlets_per_pdu %d must be positive", d.OutletsPerPdu))
	}
	return problems
}

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

func sortedKeys(m map[string]DeviceConfig) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// yamlFiles returns all *.yml / *.yaml files under dir, sorted by path.
func yamlFiles(dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(p))
		if ext == ".yml" || ext == ".yaml" {
			paths = append(paths, p)
		}
		return nil
	})
	return paths, err
}

// decodeFile opens path and unmarshals the YAML content into out.
func decodeFile(path string, out interface{}) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(false)
	return dec.Decode(out)
}

type noopWriter struct{}

func (noopWriter) Write(p []byte) (int, error) { return len(p), nil }
