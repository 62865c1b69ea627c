package file

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// RotateConfig controls size-based rotation of a record file.
type RotateConfig struct {
	// FilePath is the active file (required).
	FilePath string

	// MaxBytes rotates before a write would push the file past this size.
	// Zero disables rotation.
	MaxBytes int64

	// MaxBackups is the number of rotated files kept. Zero keeps all.
	MaxBackups int
}

// RotatingFile is an io.WriteCloser that renames the active file to
// <path>.1 (shifting older backups up) once it reaches MaxBytes. A record is
// never split across two files.
type RotatingFile struct {
	mu     sync.Mutex
	cfg    RotateConfig
	file   *os.File
	size   int64
	logger *slog.Logger
}

// NewRotatingFile opens cfg.FilePath for appending, creating parent
// directories as needed.
func NewRotatingFile(cfg RotateConfig, logger *slog.Logger) (*RotatingFile, error) {
	if cfg.FilePath == "" {
		return nil, fmt.Errorf("transport/file: rotate: FilePath is required")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(noopWriter{}, nil))
	}
	dir := filepath.Dir(cfg.FilePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("transport/file: rotate: mkdir %s: %w", dir, err)
	}

	rf := &RotatingFile{cfg: cfg, logger: logger}
	if err := rf.open(); err != nil {
		return nil, err
	}
	return rf, nil
}

func (rf *RotatingFile) Write(p []byte) (int, error) {
	rf.mu.Lock()
	defer rf.mu.Unlock()

	if rf.cfg.MaxBytes > 0 && rf.size > 0 && rf.size+int64(len(p)) > rf.cfg.MaxBytes {
		if err := rf.rotate(); err != nil {
			// keep appending to whatever is open rather than drop records
			rf.logger.Error("transport/file: rotate failed", "file", rf.cfg.FilePath, "error", err.Error())
		}
	}
	if rf.file == nil {
		return 0, fmt.Errorf("transport/file: %s is not open", rf.cfg.FilePath)
	}
	n, err := rf.file.Write(p)
	rf.size += int64(n)
	return n, err
}

func (rf *RotatingFile) Close() error {
	rf.mu.Lock()
	defer rf.mu.Unlock()
	if rf.file == nil {
		return nil
	}
	err := rf.file.Close()
	rf.file = nil
	return err
}

func (rf *RotatingFile) open() error {
	f, err := os.OpenFile(rf.cfg.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("transport/file: rotate: open %s: %w", rf.cfg.FilePath, err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("transport/file: rotate: stat %s: %w", rf.cfg.FilePath, err)
	}
	rf.file = f
	rf.size = info.Size()
	return nil
}

func (rf *RotatingFile) backup(i int) string {
	return fmt.Sprintf("%s.%d", rf.cfg.FilePath, i)
}

// rotate shifts <path>.N → <path>.N+1 down to <path> → <path>.1, drops
// backups beyond MaxBackups and reopens <path>.
func (rf *RotatingFile) rotate() error {
	if err := rf.file.Close(); err != nil {
		rf.logger.Warn("transport/file: rotate: close", "error", err.Error())
	}
	rf.file = nil

	var from int
	if rf.cfg.MaxBackups > 0 {
		_ = os.Remove(rf.backup(rf.cfg.MaxBackups))
		from = rf.cfg.MaxBackups - 1
	} else {
		from = rf.highestBackup()
	}
	for i := from; i >= 1; i-- {
		_ = os.Rename(rf.backup(i), rf.backup(i+1))
	}
	if err := os.Rename(rf.cfg.FilePath, rf.backup(1)); err != nil && !os.IsNotExist(err) {
		rf.logger.Warn("transport/file: rotate: rename", "error", err.Error())
	}

	rf.logger.Info("transport/file: rotated", "file", rf.cfg.FilePath)
	rf.size = 0
	return rf.open()
}

// highestBackup returns the largest N for which <path>.N exists.
func (rf *RotatingFile) highestBackup() int {
	n := 0
	for {
		if _, err := os.Stat(rf.backup(n + 1)); err != nil {
			return n
		}
		n++
	}
}
