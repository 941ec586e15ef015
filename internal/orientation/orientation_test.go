package orientation

import (
	"math"
	"testing"

	"github.com/relabs-tech/inertial_gestures/internal/accel"
	"github.com/relabs-tech/inertial_gestures/internal/imu"
)

func TestFromAccel(t *testing.T) {
	cases := []struct {
		name        string
		v           imu.Vector3D
		roll, pitch float64
	}{
		{"upright z", imu.New(0, 0, 1), 0, 0},
		{"roll 90", imu.New(0, 1, 0), 90, 0},
		{"pitch -90", imu.New(1, 0, 0), 0, -90},
		{"pitch 45", imu.New(-1, 0, 1), 0, 45},
	}
	for _, c := range cases {
		got := FromAccel(c.v)
		if math.Abs(got.Roll-c.roll) > 1e-9 || math.Abs(got.Pitch-c.pitch) > 1e-9 {
			t.Errorf("%s: got %+v, want roll=%v pitch=%v", c.name, got, c.roll, c.pitch)
		}
	}
}

func TestFromReadingUsesAverage(t *testing.T) {
	r := accel.Reading{
		Raw:      imu.New(1, 0, 0),
		Averaged: imu.New(0, 0, 1),
	}
	if got := FromReading(r); got.Roll != 0 || got.Pitch != 0 {
		t.Fatalf("expected level tilt, got %+v", got)
	}
}

func TestLevel(t *testing.T) {
	if !FromAccel(imu.New(0, 0, -1)).Level(5) {
		t.Fatalf("face-down gravity should count as level")
	}
	if FromAccel(imu.New(0.5, 0, -1)).Level(5) {
		t.Fatalf("tilted vector reported level")
	}
}
