// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package calibration

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/relabs-tech/inertial_gestures/internal/imu"
)

// Record is the on-disk calibration format. Z is never calibrated.
type Record struct {
	SchemaVersion int     `json:"schema_version"`
	OffsetX       float64 `json:"offset_x"`
	OffsetY       float64 `json:"offset_y"`
	CalibrationAt string  `json:"calibration_at,omitempty"` // RFC3339
}

// FileStore keeps the zero-g offset in a JSON file.
type FileStore struct {
	path string
	now  func() time.Time
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, now: time.Now}
}

func (s *FileStore) Path() string { return s.path }

// Record reads the calibration file. A missing file yields a zero record.
func (s *FileStore) Record() (Record, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return Record{SchemaVersion: 1}, nil
	}
	if err != nil {
		return Record{}, fmt.Errorf("read calibration file: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("parse calibration file %s: %w", s.path, err)
	}
	return rec, nil
}

// Load returns the stored offset, or zero when nothing was saved yet.
func (s *FileStore) Load() (imu.Vector3D, error) {
	rec, err := s.Record()
	if err != nil {
		return imu.Vector3D{}, err
	}
	return imu.New(rec.OffsetX, rec.OffsetY, 0), nil
}

// Save writes the offset atomically (temp file + rename).
func (s *FileStore) Save(offset imu.Vector3D) error {
	rec := Record{
		SchemaVersion: 1,
		OffsetX:       offset.X(),
		OffsetY:       offset.Y(),
		CalibrationAt: s.now().Format(time.RFC3339),
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal calibration: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create calibration dir: %w", err)
		}
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write calibration file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace calibration file: %w", err)
	}
	return nil
}

// MemoryStore keeps the offset in memory only.
type MemoryStore struct {
	mu     sync.Mutex
	offset imu.Vector3D
	saves  int
}

func (m *MemoryStore) Load() (imu.Vector3D, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.offset, nil
}

func (m *MemoryStore) Save(offset imu.Vector3D) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.offset = imu.New(offset.X(), offset.Y(), 0)
	m.saves++
	return nil
}

// Saves returns how many times Save was called.
func (m *MemoryStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}
