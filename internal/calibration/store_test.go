package calibration

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/relabs-tech/inertial_gestures/internal/imu"
)

func TestFileStore_MissingFileIsZero(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "nope.json"))
	v, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !v.Equal(imu.Vector3D{}) {
		t.Errorf("expected zero offset, got %+v", v)
	}
}

func TestFileStore_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calibration", "accel.json")
	s := NewFileStore(path)
	s.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }

	if err := s.Save(imu.New(-0.02, 0.015, 0.9)); err != nil {
		t.Fatalf("Save: %v", err)
	}

	v, err := NewFileStore(path).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !v.Equal(imu.New(-0.02, 0.015, 0)) {
		t.Errorf("expected z dropped and x/y kept, got %+v", v)
	}

	rec, err := s.Record()
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if rec.CalibrationAt != "2026-03-01T12:00:00Z" || rec.SchemaVersion != 1 {
		t.Errorf("unexpected record %+v", rec)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("temp file left behind: %v", err)
	}
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFileStore(path).Load(); err == nil {
		t.Error("expected parse error")
	}
}

func TestMemoryStore(t *testing.T) {
	var m MemoryStore
	if err := m.Save(imu.New(0.1, 0.2, 0.3)); err != nil {
		t.Fatal(err)
	}
	v, _ := m.Load()
	if !v.Equal(imu.New(0.1, 0.2, 0)) || m.Saves() != 1 {
		t.Errorf("unexpected memory store state: %+v saves=%d", v, m.Saves())
	}
}
