package imu

import "fmt"

// Counts per g for the four MPU9250 accelerometer full-scale settings.
var countsPerG = [4]float64{16384, 8192, 4096, 2048}

// IMURaw represents a single raw accelerometer sample in sensor counts.
type IMURaw struct {
	Source string `json:"source"`

	Ax int16 `json:"ax"`
	Ay int16 `json:"ay"`
	Az int16 `json:"az"`
}

// ToG converts the sample to g using the accelerometer range selector
// (0=±2g, 1=±4g, 2=±8g, 3=±16g).
func (r IMURaw) ToG(accelRange byte) (Vector3D, error) {
	if int(accelRange) >= len(countsPerG) {
		return Vector3D{}, fmt.Errorf("accel range must be 0-3, got %d", accelRange)
	}
	scale := countsPerG[accelRange]
	return New(float64(r.Ax)/scale, float64(r.Ay)/scale, float64(r.Az)/scale), nil
}

// IMURawSource is anything that can read accelerometer counts on demand.
type IMURawSource interface {
	ReadRaw() (IMURaw, error)
}
