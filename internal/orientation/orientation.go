package orientation

import (
	"math"

	"github.com/relabs-tech/inertial_gestures/internal/accel"
	"github.com/relabs-tech/inertial_gestures/internal/imu"
)

// Tilt is the inclination of the device derived from gravity, in degrees.
type Tilt struct {
	Roll  float64 `json:"roll"`
	Pitch float64 `json:"pitch"`
}

// FromAccel computes roll and pitch from an accelerometer vector (any unit).
//
// Uses simple tilt formulas:
//
//	roll  = atan2(ay, az)
//	pitch = atan2(-ax, sqrt(ay² + az²))
func FromAccel(v imu.Vector3D) Tilt {
	rollRad := math.Atan2(v.Y(), v.Z())
	pitchRad := math.Atan2(-v.X(), math.Sqrt(v.Y()*v.Y()+v.Z()*v.Z()))

	return Tilt{
		Roll:  rollRad * 180.0 / math.Pi,
		Pitch: pitchRad * 180.0 / math.Pi,
	}
}

// FromReading uses the averaged vector, which is steady enough to display.
func FromReading(r accel.Reading) Tilt {
	return FromAccel(r.Averaged)
}

// Level reports whether both angles are within maxDeg of zero. Gravity
// along -Z reads roll ±180, which is folded back to zero.
func (t Tilt) Level(maxDeg float64) bool {
	roll := math.Abs(t.Roll)
	if roll > 90 {
		roll = 180 - roll
	}
	return roll <= maxDeg && math.Abs(t.Pitch) <= maxDeg
}
