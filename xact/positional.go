// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package xact

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Listener is the point of view sounds are positioned against.
type Listener struct {
	Position mgl32.Vec3
	Forward  mgl32.Vec3
	Up       mgl32.Vec3
	Velocity mgl32.Vec3
}

// DefaultListener sits at the origin looking down -Z with +Y up.
func DefaultListener() Listener {
	return Listener{Forward: mgl32.Vec3{0, 0, -1}, Up: mgl32.Vec3{0, 1, 0}}
}

// Emitter is the source of a positioned sound.
type Emitter struct {
	Position mgl32.Vec3
	Forward  mgl32.Vec3
	Up       mgl32.Vec3
	Velocity mgl32.Vec3
}

// Apply3D positions the cue. It drives the reserved Distance and
// OrientationAngle cue variables, in world units and degrees, and pans the
// sound toward the emitter.
func (c *Cue) Apply3D(listener Listener, emitter Emitter) {
	dir := emitter.Position.Sub(listener.Position)
	dist := dir.Len()
	c.setReserved(VarDistance, dist)
	if dist > 0 {
		dir = dir.Mul(1 / dist)
	}

	forward, right := listener.axes()
	slope := clamp(dir.Dot(forward), -1, 1)
	c.setReserved(VarOrientationAngle, mgl32.RadToDeg(math32.Acos(slope)))

	c.pan = clamp(dir.Dot(right), -1, 1)
	if c.current != nil {
		c.current.setPan(c.pan)
	}
}

// axes returns the unit forward and right vectors. A listener without a
// forward vector, or with forward parallel to up, uses DefaultListener's.
func (l Listener) axes() (forward, right mgl32.Vec3) {
	const eps = 1e-6
	if l.Forward.Len() > eps {
		forward = l.Forward.Normalize()
		if right = forward.Cross(l.Up); right.Len() > eps {
			return forward, right.Normalize()
		}
	}
	d := DefaultListener()
	return d.Forward, d.Forward.Cross(d.Up)
}

// authoredPan converts a pan angle in degrees, 0 ahead and 90 to the
// right, to a stereo position.
func authoredPan(angle float32) float32 {
	return math32.Sin(mgl32.DegToRad(angle))
}
