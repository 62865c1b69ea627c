package file_test

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/vpbank/apc_pdu/transport/file"
)

var _ file.Transport = (*file.WriterTransport)(nil)

func record(slot int) []byte {
	return []byte(fmt.Sprintf(`{"host":"10.0.0.5","pdu":{"pdu_slot":%d},"poll_status":"success"}`, slot))
}

func TestSend_OneRecordPerLine(t *testing.T) {
	var buf bytes.Buffer
	tr := file.New(file.Config{Writer: &buf}, nil)

	for slot := 1; slot <= 3; slot++ {
		if err := tr.Send(record(slot)); err != nil {
			t.Fatalf("Send(%d): %v", slot, err)
		}
	}

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d: %q", len(lines), buf.String())
	}
	for i, line := range lines {
		if want := string(record(i + 1)); line != want {
			t.Errorf("line[%d] = %q, want %q", i, line, want)
		}
	}
}

func TestSend_CustomNewline(t *testing.T) {
	var buf bytes.Buffer
	tr := file.New(file.Config{Writer: &buf, Newline: "\r\n"}, nil)
	if err := tr.Send(record(1)); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if !strings.HasSuffix(buf.String(), "\r\n") {
		t.Errorf("expected CRLF newline, got %q", buf.String())
	}
}

func TestNew_ZeroConfig(t *testing.T) {
	if tr := file.New(file.Config{}, nil); tr == nil {
		t.Fatal("expected non-nil transport")
	}
}

func TestSend_ConcurrentRecordsDoNotInterleave(t *testing.T) {
	var buf bytes.Buffer
	tr := file.New(file.Config{Writer: &buf}, nil)

	const n = 100
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(slot int) {
			defer wg.Done()
			_ = tr.Send(record(slot%4 + 1))
		}(i)
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if len(lines) != n {
		t.Fatalf("expected %d lines, got %d", n, len(lines))
	}
	for i, line := range lines {
		if !strings.HasPrefix(line, `{"host"`) || !strings.HasSuffix(line, `}`) {
			t.Errorf("line[%d] interleaved: %q", i, line)
		}
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestSend_WriteError(t *testing.T) {
	tr := file.New(file.Config{Writer: failingWriter{}}, nil)
	err := tr.Send(record(1))
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Errorf("err = %v, want wrapped write error", err)
	}
}

type closeRecorder struct {
	bytes.Buffer
	closed bool
}

func (c *closeRecorder) Close() error {
	c.closed = true
	return nil
}

func TestClose_OwnsWriterOnlyWhenAsked(t *testing.T) {
	w := &closeRecorder{}
	if err := file.New(file.Config{Writer: w}, nil).Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
	if w.closed {
		t.Error("borrowed writer must stay open")
	}

	if err := file.New(file.Config{Writer: w, CloseWriter: true}, nil).Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
	if !w.closed {
		t.Error("owned writer must be closed")
	}
}
