// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package xact

import (
	"github.com/chewxy/math32"

	"github.com/gogpu/contentcore/sfx"
)

type soundState uint8

const (
	soundStopped soundState = iota
	soundPlaying
	soundPaused
)

// fade is a volume envelope. level is the current factor.
type fade struct {
	level    float32
	from, to float32
	duration float32
	elapsed  float32
	curve    CrossfadeType
	active   bool
	stop     bool
}

func steady() fade { return fade{level: 1} }

func (f *fade) start(from, to, duration float32, curve CrossfadeType, stop bool) {
	*f = fade{level: from, from: from, to: to, duration: duration, curve: curve, active: true, stop: stop}
	if duration <= 0 {
		f.level, f.active = to, false
	}
}

// advance moves the envelope by dt and reports whether a stopping fade
// has completed.
func (f *fade) advance(dt float32) bool {
	if !f.active {
		return false
	}
	f.elapsed += dt
	t := min(f.elapsed/f.duration, 1)
	f.level = f.from + (f.to-f.from)*crossfade(f.curve, t)
	if t < 1 {
		return false
	}
	f.active = false
	return f.stop
}

func crossfade(curve CrossfadeType, t float32) float32 {
	switch curve {
	case CrossfadeLogarithmic:
		return t * t
	case CrossfadeEqualPower:
		return math32.Sin(t * math32.Pi / 2)
	default:
		return t
	}
}

// Sound is one playing instance of a bank sound, owned by a cue.
type Sound struct {
	def    *soundDef
	cue    *Cue
	engine *Engine

	state soundState
	seq   uint64
	clips []*clip
	voice *sfx.Instance

	rpc  rpcResult
	pan  float32
	fade fade
}

func newSound(c *Cue, def *soundDef) *Sound {
	s := &Sound{def: def, cue: c, engine: c.engine, rpc: neutralRPC(), fade: steady()}
	for i := range def.clips {
		s.clips = append(s.clips, newClip(s, &def.clips[i]))
	}
	return s
}

func (s *Sound) category() *categoryState {
	if s.def.category < 0 || s.def.category >= len(s.engine.categories) {
		return nil
	}
	return &s.engine.categories[s.def.category]
}

// IsPlaying reports whether the sound is playing or fading out.
func (s *Sound) IsPlaying() bool { return s.state == soundPlaying }

// IsComplex reports whether the sound is built from clips.
func (s *Sound) IsComplex() bool { return s.def.complex }

// Filter returns the filter frequency and Q factor set by curves.
func (s *Sound) Filter() (frequency, q float32, ok bool) {
	return s.rpc.frequency, s.rpc.qFactor, s.rpc.hasFreq || s.rpc.hasQ
}

// ReverbSend returns the linear reverb send level set by curves.
func (s *Sound) ReverbSend() float32 { return s.rpc.reverb }

// loudness is the sound's own gain, used to find the quietest instance.
func (s *Sound) loudness() float32 {
	return s.def.volume * s.rpc.volume * s.fade.level
}

// play starts the sound, first making room in a full category. It does
// nothing when the category refuses the sound or no instance is free.
func (s *Sound) play(rpc rpcResult) {
	s.rpc = rpc
	s.fade = steady()

	cat := s.category()
	if cat != nil && cat.limited() && cat.activeCount() >= cat.maxInstances {
		victim := cat.victim(s)
		if victim == nil {
			s.engine.log.Debug("xact: category full", "category", cat.name, "behavior", cat.instanceBehavior.String())
			return
		}
		// The stop cuts the fade-out short; the slot is needed now.
		victim.fade.start(victim.fade.level, 0, cat.fadeOut, cat.crossfade, true)
		victim.stop(Immediate)
		s.fade.start(0, 1, cat.fadeIn, cat.crossfade, false)
	}

	s.seq = s.engine.nextSeq()
	s.state = soundPlaying
	if cat != nil {
		cat.add(s)
	}

	if s.def.complex {
		for _, c := range s.clips {
			c.play()
		}
		s.apply()
		return
	}

	if s.voice != nil {
		s.voice.Stop()
		s.engine.pool.Release(s.voice)
	}
	s.voice = s.cue.bank.instance(s.def.waveBank, s.def.track)
	if s.voice == nil {
		s.finish()
		return
	}
	s.apply()
	s.voice.Play()
}

// update advances clips and fades by dt seconds.
func (s *Sound) update(dt float32) {
	if s.state != soundPlaying {
		return
	}
	if s.fade.advance(dt) {
		s.stop(Immediate)
		return
	}
	if s.def.complex {
		active := false
		for _, c := range s.clips {
			if c.update(dt) {
				active = true
			}
		}
		if !active {
			s.finish()
			return
		}
	} else if s.voice == nil || s.voice.State() == sfx.Stopped {
		s.finish()
		return
	}
	s.apply()
}

// setRPC stores the evaluated curves and pushes them to the instances.
func (s *Sound) setRPC(r rpcResult) {
	s.rpc = r
	if s.state != soundStopped {
		s.apply()
	}
}

func (s *Sound) setPan(pan float32) {
	s.pan = pan
	if s.state != soundStopped {
		s.apply()
	}
}

// gain is the volume shared by every instance of the sound.
func (s *Sound) gain() float32 {
	g := s.def.volume * s.rpc.volume * s.fade.level
	if cat := s.category(); cat != nil {
		g *= cat.volume
	}
	return g
}

func (s *Sound) apply() {
	gain, pitch := s.gain(), s.def.pitch+s.rpc.pitch
	if s.def.complex {
		for _, c := range s.clips {
			c.apply(gain, pitch, s.pan)
		}
		return
	}
	if s.voice != nil {
		s.voice.SetVolume(gain)
		s.voice.SetPitch(pitch)
		s.voice.SetPan(s.pan)
	}
}

func (s *Sound) pause() {
	if s.state != soundPlaying {
		return
	}
	s.state = soundPaused
	for _, c := range s.clips {
		c.pause()
	}
	if s.voice != nil {
		s.voice.Pause()
	}
}

func (s *Sound) resume() {
	if s.state != soundPaused {
		return
	}
	s.state = soundPlaying
	for _, c := range s.clips {
		c.resume()
	}
	if s.voice != nil {
		s.voice.Resume()
	}
}

// stop ends the sound. AsAuthored fades out over the category's fade-out
// time first.
func (s *Sound) stop(opts StopOptions) {
	if s.state == soundStopped {
		return
	}
	if opts == AsAuthored {
		if cat := s.category(); cat != nil && cat.fadeOut > 0 {
			s.resume()
			if !s.fade.stop {
				s.fade.start(s.fade.level, 0, cat.fadeOut, cat.crossfade, true)
			}
			return
		}
	}
	for _, c := range s.clips {
		c.stop()
	}
	if s.voice != nil {
		s.voice.Stop()
	}
	s.finish()
}

// finish releases the sound's instances and leaves its category.
func (s *Sound) finish() {
	s.state = soundStopped
	if s.voice != nil {
		s.engine.pool.Release(s.voice)
		s.voice = nil
	}
	if cat := s.category(); cat != nil {
		cat.remove(s)
	}
}
