package client

import (
	"fmt"
	"strings"

	"github.com/gosnmp/gosnmp"
	"github.com/vpbank/apc_pdu/pkg/apcpdu/pduerr"
)

// ─────────────────────────────────────────────────────────────────────────────
// Session factory: host, Options and Credentials to gosnmp.Handler
// ─────────────────────────────────────────────────────────────────────────────

// defaultMaxOids caps varbinds per request; AP8xxx firmware rejects larger
// v1 PDUs with tooBig.
const defaultMaxOids = 32

// openSession configures a fresh handler from newHandler and connects it.
// The caller must Close the returned handler.
func openSession(newHandler func() gosnmp.Handler, host string, opts Options, creds Credentials) (gosnmp.Handler, error) {
	h := newHandler()
	h.SetTarget(host)
	h.SetPort(uint16(opts.Port))
	h.SetRetries(opts.Retries)
	h.SetTimeout(opts.Timeout)
	h.SetMaxOids(defaultMaxOids)

	switch creds.Version {
	case Version1, "":
		h.SetVersion(gosnmp.Version1)
		h.SetCommunity(creds.Community)
	case Version3:
		if creds.User == "" {
			return nil, pduerr.Transport("snmp session", "username is required for SNMPv3")
		}
		h.SetVersion(gosnmp.Version3)
		h.SetSecurityModel(gosnmp.UserSecurityModel)
		h.SetMsgFlags(snmpv3MsgFlags(creds.SecurityLevel))
		h.SetSecurityParameters(usmParameters(creds))
	default:
		return nil, pduerr.Transport("snmp session", "unsupported SNMP version %q", creds.Version)
	}

	if err := h.Connect(); err != nil {
		return nil, pduerr.WrapTransport("snmp connect", fmt.Errorf("%s:%d: %w", host, opts.Port, err))
	}
	return h, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// SNMPv3 helpers
// ─────────────────────────────────────────────────────────────────────────────

func snmpv3MsgFlags(level SecurityLevel) gosnmp.SnmpV3MsgFlags {
	switch level {
	case AuthPriv:
		return gosnmp.AuthPriv
	case AuthNoPriv:
		return gosnmp.AuthNoPriv
	default:
		return gosnmp.NoAuthNoPriv
	}
}

// usmParameters only carries the secrets the security level uses.
func usmParameters(creds Credentials) *gosnmp.UsmSecurityParameters {
	p := &gosnmp.UsmSecurityParameters{
		UserName:               creds.User,
		AuthenticationProtocol: gosnmp.NoAuth,
		PrivacyProtocol:        gosnmp.NoPriv,
	}
	if creds.SecurityLevel == AuthNoPriv || creds.SecurityLevel == AuthPriv {
		p.AuthenticationProtocol = mapAuthProto(creds.AuthProtocol)
		p.AuthenticationPassphrase = creds.AuthPassphrase
	}
	if creds.SecurityLevel == AuthPriv {
		p.PrivacyProtocol = mapPrivProto(creds.PrivProtocol)
		p.PrivacyPassphrase = creds.PrivPassphrase
	}
	return p
}

func mapAuthProto(s string) gosnmp.SnmpV3AuthProtocol {
	switch strings.ToLower(s) {
	case "md5":
		return gosnmp.MD5
	case "sha", "":
		return gosnmp.SHA
	case "sha224":
		return gosnmp.SHA224
	case "sha256":
		return gosnmp.SHA256
	case "sha384":
		return gosnmp.SHA384
	case "sha512":
		return gosnmp.SHA512
	default:
		return gosnmp.NoAuth
	}
}

func mapPrivProto(s string) gosnmp.SnmpV3PrivProtocol {
	switch strings.ToLower(s) {
	case "des":
		return gosnmp.DES
	case "aes", "":
		return gosnmp.AES
	case "aes192":
		return gosnmp.AES192
	case "aes256":
		return gosnmp.AES256
	case "aes192c":
		return gosnmp.AES192C
	case "aes256c":
		return gosnmp.AES256C
	default:
		return gosnmp.NoPriv
	}
}
