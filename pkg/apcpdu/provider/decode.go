package provider

import (
	"github.com/vpbank/apc_pdu/pkg/apcpdu/metric"
	"github.com/vpbank/apc_pdu/snmp/decoder"
	"github.com/vpbank/apc_pdu/snmp/oidmap"
)

// parsers is either the single-value or the batch parser pair.
type parsers struct {
	numeric func(string) (float64, error)
	str     func(string) string
}

var (
	singleParsers = parsers{numeric: decoder.ParseNumeric, str: decoder.ParseString}
	batchParsers  = parsers{numeric: decoder.ParseNumericBatch, str: decoder.ParseStringBatch}
)

func decode(p parsers, kind metric.Kind, divisor float64, enum func(int64) metric.Value, raw string) (metric.Value, error) {
	if kind == metric.KindString {
		return metric.StringValue(p.str(raw)), nil
	}
	n, err := p.numeric(raw)
	if err != nil {
		return metric.Value{}, err
	}
	switch kind {
	case metric.KindInteger:
		return metric.IntValue(int64(n)), nil
	case metric.KindEnum:
		return enum(int64(n)), nil
	default:
		return metric.FloatValue(n / divisor), nil
	}
}

func decodeDevice(p parsers, m metric.DeviceMetric, raw string) (metric.Value, error) {
	return decode(p, m.Kind(), oidmap.DeviceDivisor(m), m.EnumValue, raw)
}

func decodeOutlet(p parsers, m metric.OutletMetric, raw string) (metric.Value, error) {
	return decode(p, m.Kind(), oidmap.OutletDivisor(m), m.EnumValue, raw)
}
