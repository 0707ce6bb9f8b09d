// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package xact

import "github.com/chewxy/math32"

// volumeFromByte decodes the authoring tool's 8-bit volume curve, which
// spans -96 dB at 0 to about +6 dB at 255, into linear gain.
func volumeFromByte(b uint8) float32 {
	const (
		lo    = -96.0
		hi    = 67.7385212334047
		scale = 80.1748600297963
		exp   = 0.432254984608615
	)
	db := (lo-hi)/(1+math32.Pow(float32(b)/scale, exp)) + hi
	return decibelsToLinear(db)
}

// decibelsToLinear converts a gain in dB to a linear factor.
func decibelsToLinear(db float32) float32 {
	return math32.Pow(10, db/20)
}

func clamp(v, lo, hi float32) float32 {
	return min(max(v, lo), hi)
}
