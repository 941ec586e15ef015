// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package shake recognises shake gestures in a stream of noise-filtered
// accelerometer samples.
//
// The detector alternates between a still state, where it keeps a short
// history used to estimate gravity, and a shaking state, where it buffers
// the gravitation-removed signal, counts each strong sample's dominant axis
// in a 3-bin histogram and looks for enough back-and-forth movement on the
// winning axis.
package shake

import (
	"fmt"
	"math"

	"github.com/relabs-tech/inertial_gestures/internal/imu"
)

// Detector is the shake state machine. It is not safe for concurrent use;
// the owner serialises calls to Process.
type Detector struct {
	th Thresholds

	state          State
	stillReference imu.Vector3D

	// stillSignal is oldest first and read newest first.
	stillSignal  []imu.Vector3D
	shakeSignal  []imu.Vector3D
	histogram    [3]int
	stillCounter int
}

// NewDetector creates a detector in the still state.
func NewDetector(th Thresholds) (*Detector, error) {
	if err := th.Validate(); err != nil {
		return nil, fmt.Errorf("shake thresholds: %w", err)
	}
	return &Detector{
		th:             th,
		stillReference: th.initialStillReference(),
		stillSignal:    make([]imu.Vector3D, 0, 2*th.MaximumStillVectorsNeededForAverage),
	}, nil
}

func (d *Detector) Thresholds() Thresholds { return d.th }

func (d *Detector) State() State { return d.state }

// StillReference is the current gravity estimate.
func (d *Detector) StillReference() imu.Vector3D { return d.stillReference }

// Histogram returns the per-axis counts of strong shake samples.
func (d *Detector) Histogram() [3]int { return d.histogram }

func (d *Detector) ShakeSignalLen() int { return len(d.shakeSignal) }

func (d *Detector) StillSignalLen() int { return len(d.stillSignal) }

// Reset returns to the still state and clears both signals. The still
// reference is kept.
func (d *Detector) Reset() {
	d.state = StateStill
	d.stillSignal = d.stillSignal[:0]
	d.clearShakeSignal()
	d.stillCounter = 0
}

// Process consumes one gravitation-inclusive sample and reports a gesture
// when one completes on this tick.
func (d *Detector) Process(current imu.Vector3D) (Gesture, bool) {
	isShake := math.Abs(d.stillReference.Magnitude()-current.Magnitude()) > d.th.ShakeMagnitudeThreshold

	switch {
	case d.state == StateStill && isShake:
		d.state = StateShaking
		d.clearShakeSignal()
		d.updateStillReference()
		d.addToShakeSignal(current)
		return Gesture{}, false

	case d.state == StateStill:
		d.addToStillSignal(current)
		return Gesture{}, false

	case isShake:
		d.addToShakeSignal(current)
		d.stillCounter = 0
		return d.emit()

	default:
		d.addToShakeSignal(current)
		d.stillCounter++
		if d.stillCounter <= d.th.StillCounterThreshold {
			return Gesture{}, false
		}
		d.settle()
		g, ok := d.emit()
		d.state = StateStill
		return g, ok
	}
}

// emit evaluates the shake signal and clears it when a gesture fires.
func (d *Detector) emit() (Gesture, bool) {
	axis, ok := d.evaluate()
	if !ok {
		return Gesture{}, false
	}
	d.clearShakeSignal()
	return Gesture{Axis: axis}, true
}

// settle moves the trailing still samples of the shake signal back into
// the still history, restoring gravity, and resets the still counter.
func (d *Detector) settle() {
	n := min(d.th.StillCounterThreshold, len(d.shakeSignal))
	tail := d.shakeSignal[len(d.shakeSignal)-n:]

	d.stillSignal = d.stillSignal[:0]
	for _, v := range tail {
		d.addToStillSignal(v.Add(d.stillReference))
	}
	d.shakeSignal = d.shakeSignal[:len(d.shakeSignal)-n]
	d.stillCounter = 0
}

// evaluate picks the dominant histogram axis and checks it for enough sign
// changes. It does not modify the detector.
func (d *Detector) evaluate() (Axis, bool) {
	x, y, z := d.histogram[AxisX], d.histogram[AxisY], d.histogram[AxisZ]
	minimum := d.th.MinimumShakeVectorsNeededForShake

	var axis Axis
	switch {
	case x >= y && x >= z && x >= minimum:
		axis = AxisX
	case y >= x && y >= z && y >= minimum:
		axis = AxisY
	case z >= x && z >= y && z >= minimum:
		axis = AxisZ
	default:
		return 0, false
	}

	if countSignChanges(d.shakeSignal, axis) < d.th.MinimumRequiredMovesForShake {
		return 0, false
	}
	return axis, true
}

// countSignChanges counts transitions between positive and negative values
// of one axis, skipping zeros.
func countSignChanges(signal []imu.Vector3D, axis Axis) int {
	changes := 0
	prev := 0
	for _, v := range signal {
		sign := 0
		switch c := v.Axis(int(axis)); {
		case c > 0:
			sign = 1
		case c < 0:
			sign = -1
		}
		if sign == 0 {
			continue
		}
		if prev != 0 && sign != prev {
			changes++
		}
		prev = sign
	}
	return changes
}

// classify returns the axis with the largest absolute component, preferring
// X then Y on ties.
func classify(v imu.Vector3D) Axis {
	a := v.Abs()
	switch {
	case a.X() >= a.Y() && a.X() >= a.Z():
		return AxisX
	case a.Y() >= a.X() && a.Y() >= a.Z():
		return AxisY
	default:
		return AxisZ
	}
}

func (d *Detector) addToShakeSignal(current imu.Vector3D) {
	if len(d.shakeSignal) >= d.th.MaximumShakeVectors {
		d.uncount(d.shakeSignal[0])
		copy(d.shakeSignal, d.shakeSignal[1:])
		d.shakeSignal = d.shakeSignal[:len(d.shakeSignal)-1]
	}

	v := current.Sub(d.stillReference)
	d.shakeSignal = append(d.shakeSignal, v)
	if v.Magnitude() < d.th.WeakMagnitudeThreshold {
		return
	}
	d.histogram[classify(v)]++
}

// uncount removes a dropped shake sample from the histogram.
func (d *Detector) uncount(v imu.Vector3D) {
	if v.Magnitude() < d.th.WeakMagnitudeThreshold {
		return
	}
	d.histogram[classify(v)]--
}

func (d *Detector) addToStillSignal(v imu.Vector3D) {
	limit := 2 * d.th.MaximumStillVectorsNeededForAverage
	if len(d.stillSignal) >= limit {
		copy(d.stillSignal, d.stillSignal[1:])
		d.stillSignal = d.stillSignal[:len(d.stillSignal)-1]
	}
	d.stillSignal = append(d.stillSignal, v)
}

func (d *Detector) clearShakeSignal() {
	d.shakeSignal = d.shakeSignal[:0]
	d.histogram = [3]int{}
}

// updateStillReference averages the most recent still samples whose
// magnitude is close to the current reference. Too little evidence leaves
// the reference unchanged.
func (d *Detector) updateStillReference() {
	var sum imu.Vector3D
	count := 0
	refMag := d.stillReference.Magnitude()
	for i := len(d.stillSignal) - 1; i >= 0; i-- {
		v := d.stillSignal[i]
		if math.Abs(refMag-v.Magnitude()) >= d.th.StillMagnitudeThreshold {
			continue
		}
		sum = sum.Add(v)
		count++
		if count >= d.th.MaximumStillVectorsNeededForAverage {
			break
		}
	}
	if count >= d.th.MinimumStillVectorsNeededForAverage {
		d.stillReference = sum.Div(float64(count))
	}
}
