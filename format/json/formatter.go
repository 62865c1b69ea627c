// Package json encodes status records as JSON lines.
//
//	pdu.FullStatus → models.StatusRecord → format/json → transport/file
//
// The json tags live on the model types, so formatting is a single
// json.Marshal call with optional indentation.
package json

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/vpbank/apc_pdu/models"
)

// Formatter serialises a status record.
type Formatter interface {
	Format(rec *models.StatusRecord) ([]byte, error)
}

// Config controls JSONFormatter behaviour.
type Config struct {
	// PrettyPrint emits indented JSON. Leave false when records are written
	// one per line.
	PrettyPrint bool

	// Indent defaults to two spaces when empty and PrettyPrint is set.
	Indent string
}

// JSONFormatter implements Formatter. It is safe for concurrent use.
type JSONFormatter struct {
	cfg    Config
	logger *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *JSONFormatter {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(noopWriter{}, nil))
	}
	if cfg.PrettyPrint && cfg.Indent == "" {
		cfg.Indent = "  "
	}
	return &JSONFormatter{cfg: cfg, logger: logger}
}

// Format serialises rec:
//
//	{
//	  "timestamp": "2026-02-26T10:30:00.123Z",
//	  "host": "10.0.0.5",
//	  "pdu": { "pdu_slot": 1, "device": { … }, "outlets": [ … ] },
//	  "poll_duration_ms": 412,
//	  "poll_status": "success"
//	}
func (f *JSONFormatter) Format(rec *models.StatusRecord) ([]byte, error) {
	if rec == nil {
		return nil, fmt.Errorf("format/json: record must not be nil")
	}

	var (
		data []byte
		err  error
	)
	if f.cfg.PrettyPrint {
		data, err = json.MarshalIndent(rec, "", f.cfg.Indent)
	} else {
		data, err = json.Marshal(rec)
	}
	if err != nil {
		f.logger.Error("format/json: marshal failed", "host", rec.Host, "pdu", rec.Pdu.PduSlot, "error", err.Error())
		return nil, fmt.Errorf("format/json: marshal: %w", err)
	}

	f.logger.Debug("format/json: formatted record",
		"host", rec.Host,
		"pdu", rec.Pdu.PduSlot,
		"outlets", len(rec.Pdu.Outlets),
		"bytes", len(data),
	)
	return data, nil
}

type noopWriter struct{}

func (noopWriter) Write(p []byte) (int, error) { return len(p), nil }
