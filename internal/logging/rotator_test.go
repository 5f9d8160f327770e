package logging

import (
	"os"
	"path/filepath"
	"testing"
)

func TestShouldRotate(t *testing.T) {
	r := NewRotator("debug.log", 1, 3)

	tests := []struct {
		size     int64
		expected bool
	}{
		{0, false},
		{512 * 1024, false},
		{1024*1024 - 1, false},
		{1024 * 1024, true},
		{5 * 1024 * 1024, true},
	}

	for _, tt := range tests {
		if got := r.ShouldRotate(tt.size); got != tt.expected {
			t.Errorf("ShouldRotate(%d) = %v, want %v", tt.size, got, tt.expected)
		}
	}
}

func TestRotateShiftsBackups(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "debug.log")

	writeLog := func(path, content string) {
		t.Helper()
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("WriteFile(%s) error = %v", path, err)
		}
	}

	writeLog(base, "current")
	writeLog(base+".1", "backup1")
	writeLog(base+".2", "backup2")

	r := NewRotator(base, 1, 3)
	if err := r.Rotate(); err != nil {
		t.Fatalf("Rotate() error = %v", err)
	}

	expect := map[string]string{
		base + ".1": "current",
		base + ".2": "backup1",
		base + ".3": "backup2",
	}
	for path, want := range expect {
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("ReadFile(%s) error = %v", path, err)
		}
		if string(data) != want {
			t.Errorf("%s = %q, want %q", path, data, want)
		}
	}

	if _, err := os.Stat(base); !os.IsNotExist(err) {
		t.Error("current file should have been renamed away")
	}
}

func TestRotateDropsOldestBackup(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "debug.log")

	os.WriteFile(base, []byte("current"), 0644)
	os.WriteFile(base+".1", []byte("b1"), 0644)
	os.WriteFile(base+".2", []byte("b2"), 0644)

	r := NewRotator(base, 1, 2)
	if err := r.Rotate(); err != nil {
		t.Fatalf("Rotate() error = %v", err)
	}

	if _, err := os.Stat(base + ".3"); !os.IsNotExist(err) {
		t.Error("rotation should not create backups beyond maxBackups")
	}
	data, _ := os.ReadFile(base + ".2")
	if string(data) != "b1" {
		t.Errorf("oldest kept backup = %q, want %q", data, "b1")
	}
}

func TestRotateZeroBackups(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "debug.log")
	os.WriteFile(base, []byte("current"), 0644)

	r := NewRotator(base, 1, 0)
	if err := r.Rotate(); err != nil {
		t.Fatalf("Rotate() error = %v", err)
	}

	if _, err := os.Stat(base); !os.IsNotExist(err) {
		t.Error("maxBackups=0 should simply delete the current file")
	}
	if _, err := os.Stat(base + ".1"); !os.IsNotExist(err) {
		t.Error("maxBackups=0 should keep no backups")
	}
}

func TestRotateMissingCurrentFile(t *testing.T) {
	dir := t.TempDir()
	r := NewRotator(filepath.Join(dir, "debug.log"), 1, 3)

	if err := r.Rotate(); err != nil {
		t.Errorf("Rotate() with no files should be a no-op, got error %v", err)
	}
}
