// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package xact

import "github.com/chewxy/math32"

// RpcParameter is the playback parameter a curve drives.
type RpcParameter uint16

const (
	RpcVolume RpcParameter = iota
	RpcPitch
	RpcReverbSend
	RpcFilterFrequency
	RpcFilterQFactor

	// RpcNumParameters is the first DSP parameter; curves at or above it
	// drive reverb settings.
	RpcNumParameters
)

// String returns the parameter name.
func (p RpcParameter) String() string {
	switch p {
	case RpcVolume:
		return "Volume"
	case RpcPitch:
		return "Pitch"
	case RpcReverbSend:
		return "ReverbSend"
	case RpcFilterFrequency:
		return "FilterFrequency"
	case RpcFilterQFactor:
		return "FilterQFactor"
	default:
		return "DSP"
	}
}

// RpcPointType shapes the segment that starts at a point.
type RpcPointType uint8

const (
	RpcLinear RpcPointType = iota
	RpcFast
	RpcSlow
	RpcSinCos
)

// RpcPoint is one control point.
type RpcPoint struct {
	Position float32
	Value    float32
	Type     RpcPointType
}

// RpcCurve maps a variable to a parameter with a piecewise curve.
type RpcCurve struct {
	// FileOffset is where the curve starts in the settings bank; sounds
	// reference curves by this offset.
	FileOffset uint32

	// Variable indexes the engine's global variables when IsGlobal is set
	// and the cue variables otherwise.
	Variable int
	IsGlobal bool

	Parameter RpcParameter

	// Points are sorted by Position.
	Points []RpcPoint
}

// Evaluate returns the curve value at position. The curve is flat before
// the first and after the last point. Where two points share a position
// the curve takes the earlier point's value there and follows the later
// point beyond it.
func (c *RpcCurve) Evaluate(position float32) float32 {
	if len(c.Points) == 0 {
		return 0
	}
	first := c.Points[0]
	if position <= first.Position {
		return first.Value
	}
	last := c.Points[len(c.Points)-1]
	if position >= last.Position {
		return last.Value
	}

	second := first
	for _, p := range c.Points[1:] {
		second = p
		if p.Position >= position {
			break
		}
		first = p
	}

	span := second.Position - first.Position
	if span <= 0 {
		return second.Value
	}
	t := shape(first.Type, (position-first.Position)/span)
	return first.Value + (second.Value-first.Value)*t
}

// shape bends a normalized segment offset.
func shape(kind RpcPointType, t float32) float32 {
	switch kind {
	case RpcFast:
		return 1 - (1-t)*(1-t)
	case RpcSlow:
		return t * t
	case RpcSinCos:
		return (1 - math32.Cos(t*math32.Pi)) / 2
	default:
		return t
	}
}

// DspParameter is one reverb setting driven by global curves.
type DspParameter struct {
	Value float32
	Min   float32
	Max   float32
}

// set stores value clamped to the parameter's range.
func (p *DspParameter) set(value float32) {
	if p.Min < p.Max {
		value = clamp(value, p.Min, p.Max)
	}
	p.Value = value
}

// rpcResult is the combined effect of every curve bound to a sound.
type rpcResult struct {
	volume    float32
	pitch     float32
	reverb    float32
	frequency float32
	qFactor   float32
	hasFreq   bool
	hasQ      bool
}

func neutralRPC() rpcResult {
	return rpcResult{volume: 1, reverb: 1}
}

// accumulate folds one evaluated curve into r. Volume and reverb send are
// in hundredths of a dB and multiply; pitch is in cents/10 and adds.
func (r *rpcResult) accumulate(p RpcParameter, value float32) {
	switch p {
	case RpcVolume:
		r.volume *= decibelsToLinear(value / 100)
	case RpcPitch:
		r.pitch += value / 1000
	case RpcReverbSend:
		r.reverb *= decibelsToLinear(value / 100)
	case RpcFilterFrequency:
		r.frequency, r.hasFreq = value, true
	case RpcFilterQFactor:
		r.qFactor, r.hasQ = value, true
	}
}

// finish clamps the accumulated values to playable ranges.
func (r *rpcResult) finish() {
	r.pitch = clamp(r.pitch, -1, 1)
	r.volume = max(r.volume, 0)
}
