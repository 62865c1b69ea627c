package provider

import (
	"log/slog"

	"github.com/vpbank/apc_pdu/pkg/apcpdu/client"
)

// V3Auth is the USM user of an SNMPv3 provider.
type V3Auth struct {
	User           string
	AuthPassphrase string
	PrivPassphrase string
	AuthProtocol   string // default sha
	PrivProtocol   string // default aes
}

// DeriveSecurityLevel picks the USM level from the passphrases present. A
// privacy passphrase without an authentication passphrase is ignored.
func DeriveSecurityLevel(authPassphrase, privPassphrase string) client.SecurityLevel {
	switch {
	case authPassphrase != "" && privPassphrase != "":
		return client.AuthPriv
	case authPassphrase != "":
		return client.AuthNoPriv
	default:
		return client.NoAuthNoPriv
	}
}

// NewSNMPv3 returns a USM provider. The security level is derived once here.
func NewSNMPv3(c client.Reader, auth V3Auth, outletsPerPdu int, logger *slog.Logger) *SNMP {
	if auth.AuthProtocol == "" {
		auth.AuthProtocol = "sha"
	}
	if auth.PrivProtocol == "" {
		auth.PrivProtocol = "aes"
	}
	creds := client.Credentials{
		Version:        client.Version3,
		User:           auth.User,
		SecurityLevel:  DeriveSecurityLevel(auth.AuthPassphrase, auth.PrivPassphrase),
		AuthProtocol:   auth.AuthProtocol,
		AuthPassphrase: auth.AuthPassphrase,
		PrivProtocol:   auth.PrivProtocol,
		PrivPassphrase: auth.PrivPassphrase,
	}
	return newSNMP("snmpv3", c, creds, outletsPerPdu, logger)
}
