// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package xact

import (
	"fmt"
	"math/rand/v2"

	"github.com/gogpu/contentcore/diag"
)

// EventKind identifies a clip event in a sound bank.
type EventKind uint8

const (
	EventStop                         EventKind = 0
	EventPlayWave                     EventKind = 1
	EventPlayWaveTrackVariation       EventKind = 3
	EventPlayWaveEffectVariation      EventKind = 4
	EventPlayWaveTrackEffectVariation EventKind = 6
	EventPitch                        EventKind = 7
	EventVolume                       EventKind = 8
	EventMarker                       EventKind = 9
	EventPitchRepeating               EventKind = 17
	EventVolumeRepeating              EventKind = 18
	EventMarkerRepeating              EventKind = 19
)

// String returns the event kind name.
func (k EventKind) String() string {
	switch k {
	case EventStop:
		return "Stop"
	case EventPlayWave:
		return "PlayWave"
	case EventPlayWaveTrackVariation:
		return "PlayWaveTrackVariation"
	case EventPlayWaveEffectVariation:
		return "PlayWaveEffectVariation"
	case EventPlayWaveTrackEffectVariation:
		return "PlayWaveTrackEffectVariation"
	case EventPitch, EventPitchRepeating:
		return "Pitch"
	case EventVolume, EventVolumeRepeating:
		return "Volume"
	case EventMarker, EventMarkerRepeating:
		return "Marker"
	default:
		return fmt.Sprintf("EventKind(%d)", uint8(k))
	}
}

// Supported reports whether the runtime can play events of this kind.
func (k EventKind) Supported() bool {
	switch k {
	case EventPlayWave, EventPlayWaveTrackVariation,
		EventPlayWaveEffectVariation, EventPlayWaveTrackEffectVariation:
		return true
	}
	return false
}

func (k EventKind) known() bool {
	switch k {
	case EventStop, EventPitch, EventVolume, EventMarker,
		EventPitchRepeating, EventVolumeRepeating, EventMarkerRepeating:
		return true
	}
	return k.Supported()
}

// VariationType selects the next track of a play-wave event.
type VariationType uint8

const (
	Ordered VariationType = iota
	OrderedFromRandom
	Random
	RandomNoImmediateRepeats
	Shuffle
)

// String returns the variation name.
func (v VariationType) String() string {
	switch v {
	case Ordered:
		return "Ordered"
	case OrderedFromRandom:
		return "OrderedFromRandom"
	case Random:
		return "Random"
	case RandomNoImmediateRepeats:
		return "RandomNoImmediateRepeats"
	case Shuffle:
		return "Shuffle"
	default:
		return "Unknown"
	}
}

// loopInfinite is the loop count that never stops.
const loopInfinite = 255

// varRange is a random range: base plus a uniform draw in [0, span).
type varRange struct {
	base float32
	span float32
}

func (v *varRange) draw(r *rand.Rand) float32 {
	return v.base + r.Float32()*v.span
}

// eventDef is an immutable clip event read from a sound bank.
type eventDef struct {
	kind         EventKind
	timeStamp    float32
	randomOffset float32

	loopCount     int
	panEnabled    bool
	panAngle      float32
	panArc        float32
	waveBanks     []int
	tracks        []int
	weights       []int
	totalWeight   int
	variation     VariationType
	newWaveOnLoop bool

	volumeVar *varRange
	pitchVar  *varRange
	freqVar   *varRange
	qVar      *varRange
}

// draw picks a track index by weight, uniformly when there are no weights.
func (d *eventDef) draw(r *rand.Rand) int {
	n := len(d.tracks)
	if d.totalWeight <= 0 || n == 1 {
		return r.IntN(n)
	}
	v := r.IntN(d.totalWeight)
	for i, w := range d.weights {
		if v < w {
			return i
		}
		v -= w
	}
	return n - 1
}

func readEvent(r *reader) (eventDef, error) {
	info := r.u32()
	d := eventDef{
		kind:         EventKind(info & 0x1f),
		timeStamp:    float32((info>>5)&0xffff) / 1000,
		randomOffset: float32(r.u16()) / 1000,
	}
	if !d.kind.known() {
		return d, fmt.Errorf("%w: unknown clip event %d at %#x", diag.ErrFormat, uint8(d.kind), r.pos)
	}
	if !d.kind.Supported() {
		return d, fmt.Errorf("%w: %s clip event", diag.ErrNotImplemented, d.kind)
	}

	r.skip(1)
	flags := r.u8()
	d.panEnabled = flags&0x02 != 0

	switch d.kind {
	case EventPlayWave, EventPlayWaveEffectVariation:
		d.tracks = []int{int(r.u16())}
		d.waveBanks = []int{int(r.u8())}
	}
	d.loopCount = int(r.u8())
	d.panAngle = float32(r.u16()) / 100
	d.panArc = float32(r.u16()) / 100

	switch d.kind {
	case EventPlayWaveEffectVariation:
		d.readEffectVariation(r)
	case EventPlayWaveTrackVariation:
		if err := d.readTrackTable(r); err != nil {
			return d, err
		}
	case EventPlayWaveTrackEffectVariation:
		d.readEffectVariation(r)
		if err := d.readTrackTable(r); err != nil {
			return d, err
		}
	}
	return d, r.err
}

func (d *eventDef) readEffectVariation(r *reader) {
	minPitch := float32(r.i16()) / 1000
	maxPitch := float32(r.i16()) / 1000
	minVol := volumeFromByte(r.u8())
	maxVol := volumeFromByte(r.u8())
	minFreq := r.f32() / 1000
	maxFreq := r.f32() / 1000
	minQ := r.f32()
	maxQ := r.f32()
	r.skip(1)
	flags := r.u8()
	if flags&0x10 != 0 {
		d.pitchVar = &varRange{minPitch, maxPitch - minPitch}
	}
	if flags&0x20 != 0 {
		d.volumeVar = &varRange{minVol, maxVol - minVol}
	}
	if flags&0x40 != 0 {
		d.freqVar = &varRange{minFreq, maxFreq - minFreq}
		d.qVar = &varRange{minQ, maxQ - minQ}
	}
}

func (d *eventDef) readTrackTable(r *reader) error {
	n := int(r.u16())
	more := r.u8()
	d.newWaveOnLoop = more&0x40 != 0
	d.variation = VariationType(r.u16() & 0xf)
	r.skip(4)
	if d.variation > Shuffle {
		return fmt.Errorf("%w: variation type %d", diag.ErrNotImplemented, d.variation)
	}
	if n == 0 && r.err == nil {
		return fmt.Errorf("%w: play-wave event without tracks", diag.ErrFormat)
	}
	d.tracks = make([]int, 0, n)
	d.waveBanks = make([]int, 0, n)
	d.weights = make([]int, 0, n)
	for range n {
		d.tracks = append(d.tracks, int(r.u16()))
		d.waveBanks = append(d.waveBanks, int(r.u8()))
		lo, hi := int(r.u8()), int(r.u8())
		w := max(hi-lo, 0)
		d.weights = append(d.weights, w)
		d.totalWeight += w
	}
	return r.err
}
