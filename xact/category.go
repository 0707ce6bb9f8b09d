// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package xact

import "slices"

// MaxInstanceBehavior selects what happens when a category is full.
type MaxInstanceBehavior uint8

const (
	FailToPlay MaxInstanceBehavior = iota
	Queue
	ReplaceOldest
	ReplaceQuietest
	ReplaceLowestPriority
)

// String returns the behavior name.
func (b MaxInstanceBehavior) String() string {
	switch b {
	case FailToPlay:
		return "FailToPlay"
	case Queue:
		return "Queue"
	case ReplaceOldest:
		return "ReplaceOldest"
	case ReplaceQuietest:
		return "ReplaceQuietest"
	case ReplaceLowestPriority:
		return "ReplaceLowestPriority"
	default:
		return "Unknown"
	}
}

// CrossfadeType is the curve used for category fades.
type CrossfadeType uint8

const (
	CrossfadeLinear CrossfadeType = iota
	CrossfadeLogarithmic
	CrossfadeEqualPower
)

// StopOptions controls how sounds stop.
type StopOptions uint8

const (
	// AsAuthored fades out over the category's fade-out time.
	AsAuthored StopOptions = iota
	// Immediate stops without a fade.
	Immediate
)

// unlimitedInstances disables instance limiting.
const unlimitedInstances = 0xff

// categoryState is the engine-owned state behind a Category value.
type categoryState struct {
	name             string
	maxInstances     int
	fadeIn           float32
	fadeOut          float32
	crossfade        CrossfadeType
	instanceBehavior MaxInstanceBehavior
	volume           float32
	background       bool
	public           bool

	// sounds are the playing instances, oldest first.
	sounds []*Sound
}

func readCategory(r *reader, name string) categoryState {
	c := categoryState{name: name}
	c.maxInstances = int(r.u8())
	c.fadeIn = float32(r.u16()) / 1000
	c.fadeOut = float32(r.u16()) / 1000
	flags := r.u8()
	c.crossfade = CrossfadeType(flags & 0x7)
	c.instanceBehavior = MaxInstanceBehavior(flags >> 3)
	r.skip(2)
	c.volume = volumeFromByte(r.u8())
	vis := r.u8()
	c.background = vis&0x1 != 0
	c.public = vis&0x2 != 0
	return c
}

func (c *categoryState) limited() bool {
	return c.maxInstances != unlimitedInstances
}

// activeCount counts playing and paused sounds. Paused sounds hold their
// slot so that resuming never exceeds the limit.
func (c *categoryState) activeCount() int {
	n := 0
	for _, s := range c.sounds {
		if s.state != soundStopped {
			n++
		}
	}
	return n
}

func (c *categoryState) playingCount() int {
	n := 0
	for _, s := range c.sounds {
		if s.IsPlaying() {
			n++
		}
	}
	return n
}

func (c *categoryState) add(s *Sound) {
	if !slices.Contains(c.sounds, s) {
		c.sounds = append(c.sounds, s)
	}
}

func (c *categoryState) remove(s *Sound) {
	if i := slices.Index(c.sounds, s); i >= 0 {
		c.sounds = slices.Delete(c.sounds, i, i+1)
	}
}

// victim picks the instance to replace under the category's behavior, or
// nil when nothing may be replaced.
func (c *categoryState) victim(incoming *Sound) *Sound {
	var pick *Sound
	for _, s := range c.sounds {
		if s.state == soundStopped {
			continue
		}
		switch c.instanceBehavior {
		case FailToPlay:
			return nil
		case ReplaceQuietest:
			if pick == nil || s.loudness() < pick.loudness() {
				pick = s
			}
		case ReplaceLowestPriority:
			// Priority 0 is the most important.
			if s.def.priority < incoming.def.priority {
				continue
			}
			if pick == nil || s.def.priority > pick.def.priority {
				pick = s
			}
		default:
			// Queue has no queueing support and replaces like
			// ReplaceOldest. sounds is kept oldest first.
			return s
		}
	}
	return pick
}

// Category is a handle to one of the engine's categories.
type Category struct {
	engine *Engine
	index  int
}

func (c Category) state() *categoryState {
	return &c.engine.categories[c.index]
}

// Name returns the category name.
func (c Category) Name() string { return c.state().name }

// MaxInstances returns the instance limit; 255 means unlimited.
func (c Category) MaxInstances() int { return c.state().maxInstances }

// Behavior returns the instance limiting behavior.
func (c Category) Behavior() MaxInstanceBehavior { return c.state().instanceBehavior }

// Volume returns the linear category volume.
func (c Category) Volume() float32 { return c.state().volume }

// SetVolume sets the linear category volume. Playing sounds pick it up on
// the next Engine.Update.
func (c Category) SetVolume(v float32) {
	c.state().volume = max(v, 0)
}

// IsBackgroundMusic reports whether the category holds music the player may
// replace with their own.
func (c Category) IsBackgroundMusic() bool { return c.state().background }

// PlayingInstanceCount returns the number of playing sounds.
func (c Category) PlayingInstanceCount() int { return c.state().playingCount() }

// IsPlaying reports whether any sound in the category plays.
func (c Category) IsPlaying() bool { return c.PlayingInstanceCount() > 0 }

// Pause pauses every playing sound.
func (c Category) Pause() {
	for _, s := range c.state().sounds {
		s.pause()
	}
}

// Resume resumes every paused sound.
func (c Category) Resume() {
	for _, s := range c.state().sounds {
		s.resume()
	}
}

// Stop stops every sound in the category.
func (c Category) Stop(opts StopOptions) {
	for _, s := range slices.Clone(c.state().sounds) {
		s.stop(opts)
	}
}
