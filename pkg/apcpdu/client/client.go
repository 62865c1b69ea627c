// Package client is the transport layer under the PDU providers. It offers
// interchangeable SNMP backends and an SSH command runner:
//
//	binary   snmpget / snmpset processes        true batch, writable
//	library  gosnmp, one PDU per batch          true batch, writable
//	native   gosnmp, one PDU per OID            emulated batch, read-only
//	ssh      golang.org/x/crypto/ssh sessions   emulated batch, read-only
//
// Every SNMP backend returns values as net-snmp style text so the decoder
// parsers apply uniformly. Writability is expressed by the Writer interface
// and resolved once by the caller.
package client

import (
	"context"
	"time"
)

// Version is the SNMP protocol version used on the wire.
type Version string

const (
	Version1 Version = "1"
	Version3 Version = "3"
)

// SecurityLevel is the SNMPv3 USM level in net-snmp spelling.
type SecurityLevel string

const (
	NoAuthNoPriv SecurityLevel = "noAuthNoPriv"
	AuthNoPriv   SecurityLevel = "authNoPriv"
	AuthPriv     SecurityLevel = "authPriv"
)

// Credentials are passed with every call. For Version1 only Community is
// used; for Version3 the USM fields are used and SecurityLevel decides which
// of the passphrases are sent.
type Credentials struct {
	Version   Version
	Community string

	User           string
	SecurityLevel  SecurityLevel
	AuthProtocol   string // md5, sha, sha224, sha256, sha384, sha512
	AuthPassphrase string
	PrivProtocol   string // des, aes, aes192, aes256, aes192c, aes256c
	PrivPassphrase string
}

// Options are the per-backend transport settings. The backend applies its
// own retry and timeout handling with these values.
type Options struct {
	Port    int
	Timeout time.Duration

	// Retries of zero means DefaultRetries; use NoRetries to disable them.
	Retries int

	// Limiter serialises calls per host when several clients share a
	// device. Nil disables it.
	Limiter *HostLimiter
}

const (
	DefaultSNMPPort = 161
	DefaultSSHPort  = 22
	DefaultTimeout  = time.Second
	DefaultRetries  = 3

	NoRetries = -1
)

func (o Options) withDefaults(port int) Options {
	if o.Port <= 0 {
		o.Port = port
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	switch {
	case o.Retries == 0:
		o.Retries = DefaultRetries
	case o.Retries < 0:
		o.Retries = 0
	}
	return o
}

// Reader fetches raw SNMP values. Get returns the type-tagged text of one
// OID; GetBatch returns a map keyed by the requested OIDs.
type Reader interface {
	Host() string
	Get(ctx context.Context, oid string, creds Credentials) (string, error)
	GetBatch(ctx context.Context, oids []string, creds Credentials) (map[string]string, error)
}

// Writer is a Reader that can also set values. typeTag is an snmpset type
// letter ("i" or "s").
type Writer interface {
	Reader
	Set(ctx context.Context, oid, typeTag, value string, creds Credentials) error
}

// Backend is a Reader that can report whether it is usable on this host.
type Backend interface {
	Reader
	Name() string
	Available() bool
}
