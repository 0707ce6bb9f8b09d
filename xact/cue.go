// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package xact

import (
	"fmt"
	"slices"
)

// CueState is the lifecycle state of a cue.
type CueState uint8

const (
	CuePrepared CueState = iota
	CuePlaying
	CuePaused
	CueStopping
	CueStopped
	CueDisposed
)

// String returns the state name.
func (s CueState) String() string {
	switch s {
	case CuePrepared:
		return "Prepared"
	case CuePlaying:
		return "Playing"
	case CuePaused:
		return "Paused"
	case CueStopping:
		return "Stopping"
	case CueStopped:
		return "Stopped"
	case CueDisposed:
		return "Disposed"
	default:
		return "Unknown"
	}
}

// Cue is one playback request. It resolves to one of its candidate sounds
// when played.
type Cue struct {
	bank   *SoundBank
	engine *Engine
	def    *cueDef

	state     CueState
	variables []Variable
	sounds    []*Sound
	current   *Sound
	pan       float32
}

func newCue(sb *SoundBank, def *cueDef) *Cue {
	c := &Cue{
		bank:      sb,
		engine:    sb.engine,
		def:       def,
		variables: slices.Clone(sb.engine.cueVariables),
	}
	for _, s := range def.sounds {
		c.sounds = append(c.sounds, newSound(c, s))
	}
	return c
}

// Name returns the cue name.
func (c *Cue) Name() string { return c.def.name }

// State returns the lifecycle state.
func (c *Cue) State() CueState { return c.state }

func (c *Cue) IsPrepared() bool { return c.state == CuePrepared }
func (c *Cue) IsPlaying() bool  { return c.state == CuePlaying || c.state == CueStopping }
func (c *Cue) IsPaused() bool   { return c.state == CuePaused }
func (c *Cue) IsStopping() bool { return c.state == CueStopping }
func (c *Cue) IsStopped() bool  { return c.state == CueStopped }
func (c *Cue) IsDisposed() bool { return c.state == CueDisposed }

// Sound returns the sound chosen by the last Play, or nil.
func (c *Cue) Sound() *Sound { return c.current }

// Play registers the cue with the engine and starts one of its sounds,
// drawn by the cue's variation weights. A cue may be played again once it
// has stopped. A cue at its FailToPlay instance limit returns
// ErrInstanceLimit and stays stopped.
func (c *Cue) Play() error {
	switch c.state {
	case CueDisposed:
		return ErrDisposed
	case CuePlaying, CuePaused, CueStopping:
		return fmt.Errorf("%w: play while %s", ErrInvalidState, c.state)
	}
	if len(c.sounds) == 0 {
		return fmt.Errorf("%w: cue %q has no sounds", ErrInvalidState, c.def.name)
	}
	if !c.admit() {
		c.state = CueStopped
		return fmt.Errorf("%w: cue %q already plays %d instances", ErrInstanceLimit, c.def.name, c.def.limit)
	}

	c.engine.activate(c)
	c.current = c.sounds[c.choose()]
	c.current.setPan(c.pan)
	c.current.play(c.evaluate(c.current))
	c.state = CuePlaying
	c.def.playing = append(c.def.playing, c)
	return nil
}

// admit applies the cue's own instance limit.
func (c *Cue) admit() bool {
	d := c.def
	if d.limit == unlimitedInstances || len(d.playing) < d.limit {
		return true
	}
	if d.behavior == FailToPlay || len(d.playing) == 0 {
		return false
	}
	d.playing[0].Stop(Immediate)
	return true
}

// choose draws a sound index by weight, uniformly when no weights are set.
func (c *Cue) choose() int {
	rng := c.engine.rand
	var total float32
	for _, w := range c.def.weights {
		total += w
	}
	if total <= 0 || len(c.sounds) == 1 {
		return rng.IntN(len(c.sounds))
	}
	v := rng.Float32() * total
	for i, w := range c.def.weights {
		if v < w {
			return i
		}
		v -= w
	}
	return len(c.sounds) - 1
}

// Pause pauses a playing cue.
func (c *Cue) Pause() {
	if c.state != CuePlaying {
		return
	}
	c.current.pause()
	c.state = CuePaused
}

// Resume continues a paused cue.
func (c *Cue) Resume() {
	if c.state != CuePaused {
		return
	}
	c.current.resume()
	c.state = CuePlaying
}

// Stop stops the cue. AsAuthored lets the category fade the sound out.
func (c *Cue) Stop(opts StopOptions) {
	switch c.state {
	case CuePlaying, CuePaused, CueStopping:
	default:
		return
	}
	c.current.stop(opts)
	if c.current.IsPlaying() {
		c.state = CueStopping
		return
	}
	c.finish()
}

func (c *Cue) finish() {
	c.state = CueStopped
	if i := slices.Index(c.def.playing, c); i >= 0 {
		c.def.playing = slices.Delete(c.def.playing, i, i+1)
	}
}

// Dispose stops the cue immediately and detaches it from its engine.
func (c *Cue) Dispose() {
	if c.state == CueDisposed {
		return
	}
	c.Stop(Immediate)
	c.state = CueDisposed
}

// GetVariable returns a cue variable.
func (c *Cue) GetVariable(name string) (float32, error) {
	i := findVariable(c.variables, name)
	if i < 0 {
		return 0, fmt.Errorf("%w: cue variable %q", ErrNotFound, name)
	}
	return c.variables[i].Value, nil
}

// SetVariable sets a cue variable, clamped to its range.
func (c *Cue) SetVariable(name string, value float32) error {
	if c.state == CueDisposed {
		return ErrDisposed
	}
	i := findVariable(c.variables, name)
	if i < 0 {
		return fmt.Errorf("%w: cue variable %q", ErrNotFound, name)
	}
	if c.variables[i].IsReadOnly() {
		return fmt.Errorf("%w: %q", ErrReadOnly, name)
	}
	c.variables[i].set(value)
	return nil
}

// setReserved writes a runtime-driven variable when the project defines it.
func (c *Cue) setReserved(name string, value float32) {
	if i := findVariable(c.variables, name); i >= 0 {
		c.variables[i].set(value)
	}
}

// update advances the current sound and re-applies its curves.
func (c *Cue) update(dt float32) {
	if c.current == nil || c.state == CueDisposed || c.state == CueStopped {
		return
	}
	c.current.update(dt)
	if c.current.state == soundStopped {
		c.finish()
		return
	}
	c.current.setRPC(c.evaluate(c.current))
}

// evaluate runs every curve bound to s against the global and cue
// variables.
func (c *Cue) evaluate(s *Sound) rpcResult {
	e := c.engine
	r := neutralRPC()
	for _, i := range s.def.curves {
		curve := &e.curves[i]
		if curve.Parameter >= RpcNumParameters || curve.Variable < 0 {
			continue
		}
		var v float32
		if curve.IsGlobal {
			v = e.globals[curve.Variable].Value
		} else if curve.Variable < len(c.variables) {
			v = c.variables[curve.Variable].Value
		}
		r.accumulate(curve.Parameter, curve.Evaluate(v))
	}
	r.finish()
	return r
}
