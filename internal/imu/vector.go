// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package imu

import (
	"encoding/json"
	"math"
)

// Vector3D is an immutable 3-axis value, in g for accelerometer data.
// The magnitude is computed once at construction, so values built with
// New (or returned by any method) always carry a consistent Magnitude.
type Vector3D struct {
	x, y, z float64
	mag     float64
}

// New creates a vector from its components.
func New(x, y, z float64) Vector3D {
	return Vector3D{x: x, y: y, z: z, mag: math.Sqrt(x*x + y*y + z*z)}
}

func (v Vector3D) X() float64 { return v.x }
func (v Vector3D) Y() float64 { return v.y }
func (v Vector3D) Z() float64 { return v.z }

// Magnitude returns the Euclidean norm.
func (v Vector3D) Magnitude() float64 { return v.mag }

// Axis returns the component for axis index 0 (X), 1 (Y) or 2 (Z).
func (v Vector3D) Axis(i int) float64 {
	switch i {
	case 0:
		return v.x
	case 1:
		return v.y
	default:
		return v.z
	}
}

func (v Vector3D) Add(o Vector3D) Vector3D { return New(v.x+o.x, v.y+o.y, v.z+o.z) }
func (v Vector3D) Sub(o Vector3D) Vector3D { return New(v.x-o.x, v.y-o.y, v.z-o.z) }

// Mul multiplies element-wise.
func (v Vector3D) Mul(o Vector3D) Vector3D { return New(v.x*o.x, v.y*o.y, v.z*o.z) }

func (v Vector3D) Scale(k float64) Vector3D { return New(v.x*k, v.y*k, v.z*k) }

// Div divides every component by k. Callers never pass zero; the window
// sizes and counts used as divisors are validated to be positive.
func (v Vector3D) Div(k float64) Vector3D { return New(v.x/k, v.y/k, v.z/k) }

// Abs returns the per-component absolute value.
func (v Vector3D) Abs() Vector3D { return New(math.Abs(v.x), math.Abs(v.y), math.Abs(v.z)) }

// Equal compares components by value.
func (v Vector3D) Equal(o Vector3D) bool {
	return v.x == o.x && v.y == o.y && v.z == o.z
}

// WithinTolerance reports whether every component differs by at most eps.
func (v Vector3D) WithinTolerance(o Vector3D, eps float64) bool {
	return math.Abs(v.x-o.x) <= eps && math.Abs(v.y-o.y) <= eps && math.Abs(v.z-o.z) <= eps
}

type vectorJSON struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (v Vector3D) MarshalJSON() ([]byte, error) {
	return json.Marshal(vectorJSON{X: v.x, Y: v.y, Z: v.z})
}

func (v *Vector3D) UnmarshalJSON(b []byte) error {
	var raw vectorJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*v = New(raw.X, raw.Y, raw.Z)
	return nil
}
