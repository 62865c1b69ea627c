package provider

import (
	"log/slog"

	"github.com/vpbank/apc_pdu/pkg/apcpdu/client"
)

// DefaultCommunity is used when NewSNMPv1 gets an empty community.
const DefaultCommunity = "public"

// NewSNMPv1 returns a community-based provider. It is writable iff c is a
// client.Writer.
func NewSNMPv1(c client.Reader, community string, outletsPerPdu int, logger *slog.Logger) *SNMP {
	if community == "" {
		community = DefaultCommunity
	}
	creds := client.Credentials{Version: client.Version1, Community: community}
	return newSNMP("snmpv1", c, creds, outletsPerPdu, logger)
}
