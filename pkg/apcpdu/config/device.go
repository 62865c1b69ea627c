package config

import "time"

// Protocols accepted in the `version` field.
const (
	VersionSNMPv1 = "1"
	VersionSNMPv3 = "3"
	VersionSSH    = "ssh"
)

// Hard-coded fallbacks applied after device values and defaults files.
const (
	DefaultSNMPPort      = 161
	DefaultSSHPort       = 22
	DefaultTimeoutMs     = 1000
	DefaultRetries       = 3
	DefaultVersion       = VersionSNMPv1
	DefaultOutletsPerPdu = 24
	DefaultSlots         = 4
	DefaultBackend       = "auto"
	DefaultPollInterval  = 60
	DefaultMaxConcurrent = 1
)

// DeviceConfig is the fully-resolved configuration of one NPS group (one
// management address). Zero-valued YAML fields are filled from the defaults
// files and then from the hard-coded fallbacks.
type DeviceConfig struct {
	// Name is the key of the device in its YAML file.
	Name string

	// Host is the management address of the host PDU.
	Host string

	// Port is the UDP port for SNMP or the TCP port for SSH.
	Port int

	// Version selects the provider: "1", "3" or "ssh".
	Version string

	// Backend selects the SNMP transport: auto, binary, library or native.
	// Ignored for ssh.
	Backend string

	// Timeout is the per-request timeout in milliseconds.
	Timeout int

	// Retries is handed to the transport, which retries on its own. Zero
	// disables retries.
	Retries int

	// Community is the SNMPv1 community (default "public").
	Community string

	// V3 is the SNMPv3 USM user.
	V3 V3Credentials

	// SSH is the CLI login.
	SSH SSHCredentials

	// OutletsPerPdu is the outlet count of each chassis.
	OutletsPerPdu int

	// Slots is how many NPS positions are polled (1..4).
	Slots int

	// PollInterval is the watch interval in seconds.
	PollInterval int

	// MaxConcurrentRequests bounds in-flight requests to this host.
	MaxConcurrentRequests int
}

// TimeoutDuration returns Timeout as a time.Duration.
func (d DeviceConfig) TimeoutDuration() time.Duration {
	return time.Duration(d.Timeout) * time.Millisecond
}

// PollIntervalDuration returns PollInterval as a time.Duration.
func (d DeviceConfig) PollIntervalDuration() time.Duration {
	return time.Duration(d.PollInterval) * time.Second
}

// V3Credentials holds the SNMPv3 security parameters. The security level is
// derived from which passphrases are set.
type V3Credentials struct {
	// Username is the SNMPv3 security name.
	Username string `yaml:"username"`

	// AuthenticationProtocol is one of: md5, sha, sha224, sha256, sha384, sha512.
	AuthenticationProtocol string `yaml:"authentication_protocol"`

	AuthenticationPassphrase string `yaml:"authentication_passphrase"`

	// PrivacyProtocol is one of: des, aes, aes192, aes256, aes192c, aes256c.
	PrivacyProtocol string `yaml:"privacy_protocol"`

	PrivacyPassphrase string `yaml:"privacy_passphrase"`
}

// SSHCredentials is the NMC CLI login.
type SSHCredentials struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`

	// KnownHostsFile enables host key checking when set.
	KnownHostsFile string `yaml:"known_hosts_file"`
}

// rawDeviceEntry maps 1-to-1 with the device YAML schema.
type rawDeviceEntry struct {
	Host                  string         `yaml:"host"`
	Port                  int            `yaml:"port"`
	Version               string         `yaml:"version"`
	Backend               string         `yaml:"backend"`
	Timeout               int            `yaml:"timeout"`
	Retries               *int           `yaml:"retries"`
	Community             string         `yaml:"community"`
	V3Credentials         V3Credentials  `yaml:"v3_credentials"`
	SSH                   SSHCredentials `yaml:"ssh"`
	OutletsPerPdu         int            `yaml:"outlets_per_pdu"`
	Slots                 int            `yaml:"slots"`
	PollInterval          int            `yaml:"poll_interval"`
	MaxConcurrentRequests int            `yaml:"max_concurrent_requests"`
}
