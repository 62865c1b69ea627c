// Package file is the output sink for status records: one formatted record
// per line, written to stdout or to a size-rotated file.
//
//	format/json → transport/file
package file

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
)

// Transport delivers one formatted record. Close flushes and releases the
// destination.
type Transport interface {
	Send(data []byte) error
	Close() error
}

// Config controls WriterTransport behaviour.
type Config struct {
	// Writer is the destination. nil defaults to os.Stdout.
	Writer io.Writer

	// Newline appended after each record. Default "\n".
	Newline string

	// CloseWriter makes Close close Writer when it is an io.Closer.
	CloseWriter bool
}

// WriterTransport writes each record followed by a newline. It is safe for
// concurrent use; records never interleave.
type WriterTransport struct {
	mu     sync.Mutex
	w      io.Writer
	nl     []byte
	close  bool
	logger *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *WriterTransport {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(noopWriter{}, nil))
	}
	w := cfg.Writer
	if w == nil {
		w = os.Stdout
	}
	nl := cfg.Newline
	if nl == "" {
		nl = "\n"
	}
	return &WriterTransport{
		w:      w,
		nl:     []byte(nl),
		close:  cfg.CloseWriter,
		logger: logger,
	}
}

// Output selects where records go.
type Output struct {
	// FilePath is the record file. Empty or "-" writes to stdout.
	FilePath string

	// MaxBytes rotates the file past this size; 0 never rotates.
	MaxBytes int64

	// MaxBackups rotated files are kept; 0 keeps all.
	MaxBackups int
}

// Open returns a transport for out. A file destination is owned by the
// returned transport and closed with it.
func Open(out Output, logger *slog.Logger) (*WriterTransport, error) {
	if out.FilePath == "" || out.FilePath == "-" {
		return New(Config{Writer: os.Stdout}, logger), nil
	}
	rf, err := NewRotatingFile(RotateConfig{
		FilePath:   out.FilePath,
		MaxBytes:   out.MaxBytes,
		MaxBackups: out.MaxBackups,
	}, logger)
	if err != nil {
		return nil, err
	}
	return New(Config{Writer: rf, CloseWriter: true}, logger), nil
}

// Send writes data and the newline under one lock.
func (t *WriterTransport) Send(data []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, err := t.w.Write(data); err != nil {
		t.logger.Error("transport/file: write failed", "error", err.Error(), "bytes", len(data))
		return fmt.Errorf("transport/file: write: %w", err)
	}
	if _, err := t.w.Write(t.nl); err != nil {
		t.logger.Error("transport/file: newline write failed", "error", err.Error())
		return fmt.Errorf("transport/file: write newline: %w", err)
	}

	t.logger.Debug("transport/file: sent record", "bytes", len(data))
	return nil
}

// Close closes the destination only when the transport owns it.
func (t *WriterTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.close {
		return nil
	}
	if c, ok := t.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

type noopWriter struct{}

func (noopWriter) Write(p []byte) (int, error) { return len(p), nil }
