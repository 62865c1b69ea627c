package provider_test

import (
	"context"
	"strings"

	"github.com/vpbank/apc_pdu/pkg/apcpdu/client"
	"github.com/vpbank/apc_pdu/pkg/apcpdu/pduerr"
)

// fakeReader serves raw values from a map and counts round trips.
type fakeReader struct {
	values map[string]string
	err    error

	gets      int
	batches   int
	lastCreds client.Credentials
}

func (f *fakeReader) Host() string { return "10.0.0.5" }

func (f *fakeReader) Get(_ context.Context, oid string, creds client.Credentials) (string, error) {
	f.gets++
	f.lastCreds = creds
	if f.err != nil {
		return "", f.err
	}
	v, ok := f.values[oid]
	if !ok {
		return "", &pduerr.TransportError{Op: "snmp get", Msg: oid, Err: pduerr.ErrObjectNotFound}
	}
	return v, nil
}

func (f *fakeReader) GetBatch(_ context.Context, oids []string, creds client.Credentials) (map[string]string, error) {
	f.batches++
	f.lastCreds = creds
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string]string, len(oids))
	for _, oid := range oids {
		v, ok := f.values[oid]
		if !ok {
			return nil, &pduerr.TransportError{Op: "snmp get", Msg: oid, Err: pduerr.ErrObjectNotFound}
		}
		out[oid] = v
	}
	return out, nil
}

type setCall struct {
	oid, typeTag, value string
}

// fakeWriter records sets and replies with setErr.
type fakeWriter struct {
	*fakeReader
	setErr error
	sets   []setCall
}

func (f *fakeWriter) Set(_ context.Context, oid, typeTag, value string, _ client.Credentials) error {
	f.sets = append(f.sets, setCall{oid, typeTag, value})
	return f.setErr
}

// fakeCLI answers APC CLI commands from a map.
type fakeCLI struct {
	replies map[string]string
	err     error
	ran     []string
	batches int
}

func (f *fakeCLI) Host() string { return "10.0.0.5" }

func (f *fakeCLI) Run(_ context.Context, command string) (string, error) {
	f.ran = append(f.ran, command)
	if f.err != nil {
		return "", f.err
	}
	if r, ok := f.replies[command]; ok {
		return r, nil
	}
	return command + "\nE102: Parameter Error\n\napc>", nil
}

func (f *fakeCLI) RunBatch(ctx context.Context, commands []string) (map[string]string, error) {
	f.batches++
	out := make(map[string]string, len(commands))
	for _, cmd := range commands {
		r, err := f.Run(ctx, cmd)
		if err != nil {
			return nil, err
		}
		out[cmd] = r
	}
	return out, nil
}

func cliReply(command, payload string) string {
	if strings.HasPrefix(command, "ol") {
		return command + "\n" + payload + "\nE000: Success\n\napc>"
	}
	return command + "\nE000: Success\n" + payload + "\n\napc>"
}
