// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package sfx

import (
	"slices"
	"sync"

	"github.com/faiface/beep"
)

// DefaultMaxInstances caps a pool created with a non-positive limit.
const DefaultMaxInstances = 256

// Pool owns a bounded set of instances and mixes the playing ones.
type Pool struct {
	rate beep.SampleRate
	max  int

	mu    sync.Mutex
	live  []*Instance
	mixer beep.Mixer
}

// NewPool creates a pool mixing at rate with at most maxInstances live
// instances.
func NewPool(rate beep.SampleRate, maxInstances int) *Pool {
	if maxInstances <= 0 {
		maxInstances = DefaultMaxInstances
	}
	return &Pool{rate: rate, max: maxInstances}
}

// SampleRate returns the mixing rate.
func (p *Pool) SampleRate() beep.SampleRate { return p.rate }

// Cap returns the instance limit.
func (p *Pool) Cap() int { return p.max }

// Acquire returns a stopped instance for e, or nil when the pool is
// exhausted. Exhaustion is not an error: the caller simply skips playback.
func (p *Pool) Acquire(e *SoundEffect) *Instance {
	if e == nil {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.live) >= p.max {
		return nil
	}
	inst := newInstance(p, e)
	p.live = append(p.live, inst)
	return inst
}

// Release stops inst and returns its slot to the pool.
func (p *Pool) Release(inst *Instance) {
	if inst == nil || inst.pool != p {
		return
	}
	inst.Stop()
	p.mu.Lock()
	defer p.mu.Unlock()
	if i := slices.Index(p.live, inst); i >= 0 {
		p.live = slices.Delete(p.live, i, i+1)
	}
}

// Len returns the number of acquired instances.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.live)
}

// Playing returns the number of instances currently in the mix.
func (p *Pool) Playing() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mixer.Len()
}

func (p *Pool) enqueue(inst *Instance) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if inst.queued {
		return
	}
	inst.queued = true
	p.mixer.Add(inst)
}

// Streamer returns the mix of every playing instance. It never drains;
// with nothing playing it streams silence.
func (p *Pool) Streamer() beep.Streamer {
	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		p.mu.Lock()
		defer p.mu.Unlock()
		return p.mixer.Stream(samples)
	})
}
