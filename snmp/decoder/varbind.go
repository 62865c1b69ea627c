package decoder

import (
	"fmt"
	"math"
	"net"
	"strings"

	"github.com/gosnmp/gosnmp"
)

// ─────────────────────────────────────────────────────────────────────────────
// Varbind rendering
// ─────────────────────────────────────────────────────────────────────────────

// FormatVarbind renders a gosnmp variable binding in the net-snmp type-tagged
// form consumed by ParseNumeric / ParseString, e.g. `INTEGER: 42` or
// `STRING: "Outlet 1"`. Error types render as their exception text.
func FormatVarbind(pdu gosnmp.SnmpPDU) string {
	switch pdu.Type {
	case gosnmp.Integer:
		n, err := toInt64(pdu.Value)
		if err != nil {
			return fmt.Sprintf("INTEGER: %v", pdu.Value)
		}
		return fmt.Sprintf("INTEGER: %d", n)
	case gosnmp.OctetString, gosnmp.ObjectDescription:
		return `STRING: "` + toDisplayString(pdu.Value) + `"`
	case gosnmp.Counter32, gosnmp.Gauge32, gosnmp.Counter64, gosnmp.Uinteger32, gosnmp.TimeTicks:
		n, err := toUint64(pdu.Value)
		if err != nil {
			return fmt.Sprintf("%s: %v", PDUTypeString(pdu.Type), pdu.Value)
		}
		return fmt.Sprintf("%s: %d", PDUTypeString(pdu.Type), n)
	case gosnmp.IPAddress:
		return "IpAddress: " + toIPString(pdu.Value)
	case gosnmp.ObjectIdentifier:
		return fmt.Sprintf("OID: %v", pdu.Value)
	case gosnmp.NoSuchObject:
		return "No Such Object available on this agent at this OID"
	case gosnmp.NoSuchInstance:
		return "No Such Instance currently exists at this OID"
	case gosnmp.EndOfMibView:
		return "No more variables left in this MIB View"
	case gosnmp.Null:
		return "NULL"
	default:
		return fmt.Sprintf("%s: %v", PDUTypeString(pdu.Type), pdu.Value)
	}
}

// PDUTypeString returns the net-snmp tag for a gosnmp Asn1BER type.
func PDUTypeString(t gosnmp.Asn1BER) string {
	switch t {
	case gosnmp.Integer:
		return "INTEGER"
	case gosnmp.OctetString:
		return "STRING"
	case gosnmp.Null:
		return "NULL"
	case gosnmp.ObjectIdentifier:
		return "OID"
	case gosnmp.IPAddress:
		return "IpAddress"
	case gosnmp.Counter32:
		return "Counter32"
	case gosnmp.Gauge32:
		return "Gauge32"
	case gosnmp.TimeTicks:
		return "Timeticks"
	case gosnmp.Opaque:
		return "Opaque"
	case gosnmp.Counter64:
		return "Counter64"
	case gosnmp.Uinteger32:
		return "UInteger32"
	case gosnmp.NoSuchObject:
		return "NoSuchObject"
	case gosnmp.NoSuchInstance:
		return "NoSuchInstance"
	case gosnmp.EndOfMibView:
		return "EndOfMibView"
	default:
		return fmt.Sprintf("Unknown(0x%02X)", uint8(t))
	}
}

// IsErrorType reports whether the varbind carries an SNMP exception rather
// than a value.
func IsErrorType(t gosnmp.Asn1BER) bool {
	return t == gosnmp.NoSuchObject || t == gosnmp.NoSuchInstance || t == gosnmp.EndOfMibView
}

// NormaliseOID returns oid with exactly one leading dot, the form used by the
// address map and as batch result keys.
func NormaliseOID(oid string) string {
	return "." + strings.TrimLeft(oid, ".")
}

// ─────────────────────────────────────────────────────────────────────────────
// Low-level conversion helpers
// ─────────────────────────────────────────────────────────────────────────────

// toInt64 converts the raw gosnmp value to int64.
// gosnmp returns integers as int / int32 / int64 depending on the PDU.
func toInt64(v interface{}) (int64, error) {
	switch x := v.(type) {
	case int:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case int64:
		return x, nil
	case uint:
		return int64(x), nil
	case uint32:
		return int64(x), nil
	case uint64:
		if x > math.MaxInt64 {
			return 0, fmt.Errorf("uint64 value %d overflows int64", x)
		}
		return int64(x), nil
	default:
		return 0, fmt.Errorf("cannot convert %T to int64", v)
	}
}

// toUint64 converts counter and gauge values.
func toUint64(v interface{}) (uint64, error) {
	switch x := v.(type) {
	case uint:
		return uint64(x), nil
	case uint32:
		return uint64(x), nil
	case uint64:
		return x, nil
	case int:
		if x < 0 {
			return 0, fmt.Errorf("negative value %d", x)
		}
		return uint64(x), nil
	case int64:
		if x < 0 {
			return 0, fmt.Errorf("negative value %d", x)
		}
		return uint64(x), nil
	default:
		return 0, fmt.Errorf("cannot convert %T to uint64", v)
	}
}

// toDisplayString strips the trailing NULs some APC firmware appends.
func toDisplayString(v interface{}) string {
	switch x := v.(type) {
	case string:
		return strings.TrimRight(x, "\x00")
	case []byte:
		return strings.TrimRight(string(x), "\x00")
	default:
		return fmt.Sprintf("%v", v)
	}
}

func toIPString(v interface{}) string {
	switch x := v.(type) {
	case string:
		if b := []byte(x); len(b) == 4 {
			return net.IP(b).String()
		}
		return x
	case []byte:
		if len(x) == 4 || len(x) == 16 {
			return net.IP(x).String()
		}
		return fmt.Sprintf("%x", x)
	default:
		return fmt.Sprintf("%v", v)
	}
}
