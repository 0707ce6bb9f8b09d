// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package xact

import (
	"github.com/gogpu/contentcore/sfx"
)

// clip schedules the events of one clip of a complex sound.
type clip struct {
	def     *clipDef
	sound   *Sound
	time    float32
	playing bool
	events  []*playWaveEvent
}

func newClip(s *Sound, def *clipDef) *clip {
	c := &clip{def: def, sound: s}
	for i := range def.events {
		c.events = append(c.events, newPlayWaveEvent(c, &def.events[i]))
	}
	return c
}

func (c *clip) play() {
	c.time = 0
	c.playing = true
	for _, ev := range c.events {
		ev.schedule()
	}
	c.update(0)
}

// update fires due events and advances playing ones. It reports whether
// anything in the clip is still pending or audible.
func (c *clip) update(dt float32) bool {
	if !c.playing {
		return false
	}
	c.time += dt
	active := false
	for _, ev := range c.events {
		if !ev.fired {
			if c.time < ev.fireAt {
				active = true
				continue
			}
			ev.play()
		}
		if ev.update() {
			active = true
		}
	}
	c.playing = active
	return active
}

func (c *clip) apply(gain, pitch, pan float32) {
	for _, ev := range c.events {
		ev.apply(gain*c.def.volume, pitch, pan)
	}
}

func (c *clip) pause() {
	for _, ev := range c.events {
		if ev.voice != nil {
			ev.voice.Pause()
		}
	}
}

func (c *clip) resume() {
	for _, ev := range c.events {
		if ev.voice != nil {
			ev.voice.Resume()
		}
	}
}

func (c *clip) stop() {
	for _, ev := range c.events {
		ev.stop()
	}
	c.playing = false
}

// playWaveEvent plays one wave, chosen from the event's tracks, and loops
// it as authored.
type playWaveEvent struct {
	def  *eventDef
	clip *clip

	fireAt    float32
	fired     bool
	wavIndex  int
	loopIndex int
	voice     *sfx.Instance

	trackVolume float32
	trackPitch  float32
	frequency   float32
	qFactor     float32

	// last values pushed by the sound, reused for re-triggered waves.
	gain, pitch, pan float32
}

func newPlayWaveEvent(c *clip, def *eventDef) *playWaveEvent {
	ev := &playWaveEvent{def: def, clip: c, wavIndex: -1, trackVolume: 1, gain: 1}
	if def.variation == OrderedFromRandom && len(def.tracks) > 0 {
		ev.wavIndex = c.sound.engine.rand.IntN(len(def.tracks)) - 1
	}
	return ev
}

// schedule arms the event for the clip's next play.
func (ev *playWaveEvent) schedule() {
	ev.release()
	ev.fired = false
	ev.loopIndex = 0
	ev.fireAt = ev.def.timeStamp
	if ev.def.randomOffset > 0 {
		ev.fireAt += ev.clip.sound.engine.rand.Float32() * ev.def.randomOffset
	}
}

func (ev *playWaveEvent) play() {
	ev.fired = true
	ev.trigger(true)
}

// pick chooses the next track by the event's variation type.
func (ev *playWaveEvent) pick() {
	n := len(ev.def.tracks)
	rng := ev.clip.sound.engine.rand
	switch ev.def.variation {
	case Ordered, OrderedFromRandom:
		ev.wavIndex = (ev.wavIndex + 1) % n
	case Random:
		ev.wavIndex = ev.def.draw(rng)
	case RandomNoImmediateRepeats:
		last := ev.wavIndex
		ev.wavIndex = ev.def.draw(rng)
		if n > 1 && ev.wavIndex == last {
			ev.wavIndex = ev.def.draw(rng)
		}
	default:
		// Shuffle has no playlist yet and draws uniformly.
		ev.wavIndex = rng.IntN(n)
	}
}

// trigger starts a wave, picking a new track when pickNew is set.
func (ev *playWaveEvent) trigger(pickNew bool) {
	if pickNew || ev.wavIndex < 0 {
		ev.pick()
	}
	ev.release()

	bank := ev.clip.sound.cue.bank
	ev.voice = bank.instance(ev.def.waveBanks[ev.wavIndex], ev.def.tracks[ev.wavIndex])
	if ev.voice == nil {
		return
	}

	rng := ev.clip.sound.engine.rand
	if v := ev.def.volumeVar; v != nil {
		ev.trackVolume = v.draw(rng)
	}
	if v := ev.def.pitchVar; v != nil {
		ev.trackPitch = v.draw(rng)
	}
	if v := ev.def.freqVar; v != nil {
		ev.frequency = v.draw(rng)
		ev.qFactor = ev.def.qVar.draw(rng)
	}
	ev.voice.SetLooped(ev.def.loopCount == loopInfinite && len(ev.def.tracks) == 1)
	ev.apply(ev.gain, ev.pitch, ev.pan)
	ev.voice.Play()
}

// update handles a wave that stopped on its own: it either loops or
// finishes. It reports whether the event is still audible.
func (ev *playWaveEvent) update() bool {
	if ev.voice == nil {
		return false
	}
	if ev.voice.State() != sfx.Stopped {
		return true
	}
	if ev.def.loopCount != loopInfinite && ev.loopIndex >= ev.def.loopCount {
		ev.release()
		return false
	}
	ev.loopIndex++
	ev.trigger(ev.def.newWaveOnLoop)
	return ev.voice != nil
}

func (ev *playWaveEvent) apply(gain, pitch, pan float32) {
	ev.gain, ev.pitch, ev.pan = gain, pitch, pan
	if ev.voice == nil {
		return
	}
	ev.voice.SetVolume(gain * ev.trackVolume)
	ev.voice.SetPitch(pitch + ev.trackPitch)
	if ev.def.panEnabled && pan == 0 {
		pan = authoredPan(ev.def.panAngle)
	}
	ev.voice.SetPan(pan)
}

func (ev *playWaveEvent) stop() {
	ev.fired = true
	ev.release()
}

func (ev *playWaveEvent) release() {
	if ev.voice == nil {
		return
	}
	ev.voice.Stop()
	ev.clip.sound.engine.pool.Release(ev.voice)
	ev.voice = nil
}
