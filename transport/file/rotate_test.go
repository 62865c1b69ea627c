package file_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vpbank/apc_pdu/transport/file"
)

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(b)
}

func TestRotatingFile_BasicWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "status.json")
	rf, err := file.NewRotatingFile(file.RotateConfig{FilePath: path}, nil)
	if err != nil {
		t.Fatalf("NewRotatingFile: %v", err)
	}
	if _, err := rf.Write([]byte("hello\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := rf.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if got := readFile(t, path); got != "hello\n" {
		t.Errorf("content = %q", got)
	}
}

func TestRotatingFile_RotatesOnSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "status.json")
	rf, err := file.NewRotatingFile(file.RotateConfig{FilePath: path, MaxBytes: 10}, nil)
	if err != nil {
		t.Fatalf("NewRotatingFile: %v", err)
	}
	defer rf.Close()

	for _, rec := range []string{"aaaaaaaa\n", "bbbbbbbb\n", "cccccccc\n"} {
		if _, err := rf.Write([]byte(rec)); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}

	if got := readFile(t, path); got != "cccccccc\n" {
		t.Errorf("active = %q", got)
	}
	if got := readFile(t, path+".1"); got != "bbbbbbbb\n" {
		t.Errorf(".1 = %q", got)
	}
	if got := readFile(t, path+".2"); got != "aaaaaaaa\n" {
		t.Errorf(".2 = %q", got)
	}
}

func TestRotatingFile_PrunesOldBackups(t *testing.T) {
	path := filepath.Join(t.TempDir(), "status.json")
	rf, err := file.NewRotatingFile(file.RotateConfig{FilePath: path, MaxBytes: 5, MaxBackups: 2}, nil)
	if err != nil {
		t.Fatalf("NewRotatingFile: %v", err)
	}
	defer rf.Close()

	for _, rec := range []string{"1111\n", "2222\n", "3333\n", "4444\n", "5555\n"} {
		if _, err := rf.Write([]byte(rec)); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}

	if got := readFile(t, path); got != "5555\n" {
		t.Errorf("active = %q", got)
	}
	if got := readFile(t, path+".1"); got != "4444\n" {
		t.Errorf(".1 = %q", got)
	}
	if got := readFile(t, path+".2"); got != "3333\n" {
		t.Errorf(".2 = %q", got)
	}
	if _, err := os.Stat(path + ".3"); !os.IsNotExist(err) {
		t.Errorf(".3 should not exist, stat err = %v", err)
	}
}

func TestRotatingFile_RequiresFilePath(t *testing.T) {
	if _, err := file.NewRotatingFile(file.RotateConfig{}, nil); err == nil {
		t.Error("expected error for empty FilePath")
	}
}

func TestRotatingFile_CreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "status.json")
	rf, err := file.NewRotatingFile(file.RotateConfig{FilePath: path}, nil)
	if err != nil {
		t.Fatalf("NewRotatingFile: %v", err)
	}
	_ = rf.Close()
	if _, err := os.Stat(path); err != nil {
		t.Errorf("file not created: %v", err)
	}
}

func TestOpen_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "status.json")
	tr, err := file.Open(file.Output{FilePath: path, MaxBytes: 1 << 20}, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := tr.Send([]byte(`{"host":"10.0.0.5"}`)); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if err := tr.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if got := readFile(t, path); strings.TrimSpace(got) != `{"host":"10.0.0.5"}` {
		t.Errorf("content = %q", got)
	}
}

func TestOpen_Stdout(t *testing.T) {
	for _, p := range []string{"", "-"} {
		tr, err := file.Open(file.Output{FilePath: p}, nil)
		if err != nil {
			t.Fatalf("Open(%q): %v", p, err)
		}
		if err := tr.Close(); err != nil {
			t.Errorf("Close(%q): %v", p, err)
		}
	}
}
