// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package sfx

import (
	"math"
	"sync"

	"github.com/faiface/beep"
	"github.com/faiface/beep/effects"
)

// State is the playback state of an instance.
type State uint8

const (
	Stopped State = iota
	Playing
	Paused
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Stopped:
		return "Stopped"
	case Playing:
		return "Playing"
	case Paused:
		return "Paused"
	default:
		return "Unknown"
	}
}

// resampleQuality is the beep resampler quality used for pitch shifts.
const resampleQuality = 4

// Instance plays one SoundEffect. Its methods are safe to call while the
// pool streamer runs on the audio thread.
type Instance struct {
	pool   *Pool
	effect *SoundEffect

	mu     sync.Mutex
	state  State
	looped bool
	volume float32
	pitch  float32
	pan    float32

	src       *loopSource
	resampler *beep.Resampler
	gain      *effects.Volume
	panner    *effects.Pan

	// queued is guarded by pool.mu.
	queued bool
}

func newInstance(p *Pool, e *SoundEffect) *Instance {
	return &Instance{pool: p, effect: e, volume: 1}
}

// Effect returns the sound effect the instance plays.
func (i *Instance) Effect() *SoundEffect { return i.effect }

// Play starts playback from the beginning, or resumes a paused instance.
func (i *Instance) Play() {
	i.mu.Lock()
	switch i.state {
	case Playing:
		i.mu.Unlock()
		return
	case Stopped:
		i.rewind()
	}
	i.state = Playing
	i.mu.Unlock()
	i.pool.enqueue(i)
}

// Pause suspends playback. The instance keeps its position.
func (i *Instance) Pause() {
	i.mu.Lock()
	if i.state == Playing {
		i.state = Paused
	}
	i.mu.Unlock()
}

// Resume continues a paused instance.
func (i *Instance) Resume() {
	i.mu.Lock()
	if i.state == Paused {
		i.state = Playing
	}
	i.mu.Unlock()
}

// Stop halts playback immediately.
func (i *Instance) Stop() {
	i.mu.Lock()
	i.state = Stopped
	i.mu.Unlock()
}

// State returns the current playback state.
func (i *Instance) State() State {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.state
}

// SetLooped makes the instance restart at the end instead of stopping.
func (i *Instance) SetLooped(looped bool) {
	i.mu.Lock()
	i.looped = looped
	i.mu.Unlock()
}

// IsLooped reports whether the instance loops.
func (i *Instance) IsLooped() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.looped
}

// SetVolume sets the linear gain. Negative values are treated as silence.
func (i *Instance) SetVolume(v float32) {
	i.mu.Lock()
	i.volume = max(v, 0)
	i.mu.Unlock()
}

// Volume returns the linear gain.
func (i *Instance) Volume() float32 {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.volume
}

// SetPitch sets the pitch shift in octaves, clamped to [-1, 1].
func (i *Instance) SetPitch(octaves float32) {
	i.mu.Lock()
	i.pitch = min(max(octaves, -1), 1)
	i.mu.Unlock()
}

// Pitch returns the pitch shift in octaves.
func (i *Instance) Pitch() float32 {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.pitch
}

// SetPan positions the sound between left (-1) and right (1).
func (i *Instance) SetPan(pan float32) {
	i.mu.Lock()
	i.pan = min(max(pan, -1), 1)
	i.mu.Unlock()
}

// Pan returns the stereo position.
func (i *Instance) Pan() float32 {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.pan
}

// rewind rebuilds the streamer chain at the first frame. Callers hold mu.
func (i *Instance) rewind() {
	i.src = &loopSource{inst: i, s: i.effect.stream()}
	i.resampler = beep.ResampleRatio(resampleQuality, i.ratio(), i.src)
	i.gain = &effects.Volume{Streamer: i.resampler, Base: 2}
	i.panner = &effects.Pan{Streamer: i.gain}
}

// ratio converts the pitch and the effect's sample rate to the pool rate.
func (i *Instance) ratio() float64 {
	r := math.Exp2(float64(i.pitch))
	return r * float64(i.effect.format.SampleRate) / float64(i.pool.rate)
}

// Stream implements beep.Streamer. It is called by the pool mixer with the
// pool lock held.
func (i *Instance) Stream(samples [][2]float64) (n int, ok bool) {
	i.mu.Lock()
	defer i.mu.Unlock()

	switch i.state {
	case Stopped:
		i.queued = false
		return 0, false
	case Paused:
		clear(samples)
		return len(samples), true
	}

	i.resampler.SetRatio(i.ratio())
	i.gain.Silent = i.volume <= 0
	if !i.gain.Silent {
		i.gain.Volume = math.Log2(float64(i.volume))
	}
	i.panner.Pan = float64(i.pan)

	n, ok = i.panner.Stream(samples)
	if !ok {
		i.state = Stopped
		i.queued = false
	}
	return n, ok
}

// Err implements beep.Streamer.
func (i *Instance) Err() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.src == nil {
		return nil
	}
	return i.src.s.Err()
}

// loopSource restarts its streamer while the owning instance loops. It runs
// with the instance lock held.
type loopSource struct {
	inst *Instance
	s    beep.StreamSeeker
}

func (l *loopSource) Stream(samples [][2]float64) (n int, ok bool) {
	for n < len(samples) {
		sn, sok := l.s.Stream(samples[n:])
		n += sn
		if sok && sn > 0 {
			continue
		}
		if !l.inst.looped || l.s.Len() == 0 {
			break
		}
		if err := l.s.Seek(0); err != nil {
			break
		}
	}
	return n, n > 0
}

func (l *loopSource) Err() error { return l.s.Err() }
