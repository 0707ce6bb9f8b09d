// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package xact

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/contentcore/sfx"
)

func TestCategoryReplaceOldest(t *testing.T) {
	p := newProject(t, 8)
	music, err := p.engine.GetCategory("Music")
	require.NoError(t, err)

	a := p.cue(t, "musicA")
	b := p.cue(t, "musicB")
	require.NoError(t, a.Play())
	assert.Equal(t, 1, music.PlayingInstanceCount())

	require.NoError(t, b.Play())
	assert.Equal(t, 1, music.PlayingInstanceCount())
	assert.False(t, a.Sound().IsPlaying())
	assert.Nil(t, a.Sound().voice, "replaced sound releases its instance")
	assert.True(t, b.Sound().IsPlaying())
	assert.Equal(t, float32(0), b.Sound().fade.level, "replacement fades in")

	p.engine.Update(300 * time.Millisecond)
	assert.True(t, a.IsStopped())
	assert.True(t, b.IsPlaying())
	assert.Equal(t, float32(1), b.Sound().fade.level)
	assert.Equal(t, 1, music.PlayingInstanceCount())
	assert.Equal(t, 1, p.pool.Len())
}

func TestCategoryFailToPlay(t *testing.T) {
	p := newProject(t, 8)
	fx, err := p.engine.GetCategory("Effects")
	require.NoError(t, err)

	a := p.cue(t, "fxA")
	b := p.cue(t, "fxB")
	require.NoError(t, a.Play())
	require.NoError(t, b.Play())
	assert.Equal(t, 1, fx.PlayingInstanceCount())
	assert.True(t, a.Sound().IsPlaying())
	assert.False(t, b.Sound().IsPlaying())

	p.engine.Update(frame)
	assert.True(t, a.IsPlaying())
	assert.True(t, b.IsStopped())
}

func TestCategoryPauseResumeStop(t *testing.T) {
	p := newProject(t, 8)
	cat, err := p.engine.GetCategory("Default")
	require.NoError(t, err)

	a := p.cue(t, "simple")
	b := p.cue(t, "loopForever")
	require.NoError(t, a.Play())
	require.NoError(t, b.Play())
	assert.Equal(t, 2, cat.PlayingInstanceCount())
	assert.True(t, cat.IsPlaying())

	cat.Pause()
	assert.False(t, cat.IsPlaying())
	assert.Equal(t, sfx.Paused, a.Sound().voice.State())
	p.engine.Update(frame)
	assert.Equal(t, 2, p.engine.ActiveCues(), "paused sounds keep their cues")

	cat.Resume()
	assert.Equal(t, 2, cat.PlayingInstanceCount())

	cat.Stop(Immediate)
	assert.False(t, cat.IsPlaying())
	p.engine.Update(frame)
	assert.True(t, a.IsStopped())
	assert.True(t, b.IsStopped())
}

func TestCategoryPausedSoundHoldsItsSlot(t *testing.T) {
	p := newProject(t, 8)
	music, err := p.engine.GetCategory("Music")
	require.NoError(t, err)

	a := p.cue(t, "musicA")
	b := p.cue(t, "musicB")
	require.NoError(t, a.Play())
	music.Pause()
	assert.Equal(t, 0, music.PlayingInstanceCount())

	require.NoError(t, b.Play())
	music.Resume()
	assert.Equal(t, 1, music.PlayingInstanceCount())
	assert.False(t, a.Sound().IsPlaying())
	assert.True(t, b.Sound().IsPlaying())

	p.engine.Update(frame)
	assert.True(t, a.IsStopped())
	assert.LessOrEqual(t, music.PlayingInstanceCount(), music.MaxInstances())
}

func TestCategoryVolume(t *testing.T) {
	p := newProject(t, 8)
	cat, err := p.engine.GetCategory("Default")
	require.NoError(t, err)

	c := p.cue(t, "simple")
	require.NoError(t, c.Play())
	full := c.Sound().voice.Volume()

	cat.SetVolume(0.5)
	assert.Equal(t, float32(0.5), cat.Volume())
	p.engine.Update(frame)
	assert.InDelta(t, full*0.5/volumeFromByte(unityVolume), c.Sound().voice.Volume(), 1e-4)

	cat.SetVolume(-1)
	assert.Equal(t, float32(0), cat.Volume())
}

func playingSound(priority uint8, volume float32) *Sound {
	return &Sound{
		def:   &soundDef{priority: priority, volume: volume},
		state: soundPlaying,
		rpc:   neutralRPC(),
		fade:  steady(),
	}
}

func TestCategoryVictim(t *testing.T) {
	oldest := playingSound(2, 0.9)
	quiet := playingSound(0, 0.1)
	low := playingSound(5, 0.5)
	stopped := playingSound(9, 0.01)
	stopped.state = soundStopped
	sounds := []*Sound{stopped, oldest, quiet, low}

	tests := []struct {
		behavior MaxInstanceBehavior
		incoming *Sound
		want     *Sound
	}{
		{FailToPlay, playingSound(0, 1), nil},
		{Queue, playingSound(0, 1), oldest},
		{ReplaceOldest, playingSound(0, 1), oldest},
		{ReplaceQuietest, playingSound(0, 1), quiet},
		{ReplaceLowestPriority, playingSound(1, 1), low},
		{ReplaceLowestPriority, playingSound(6, 1), nil},
	}
	for _, tt := range tests {
		t.Run(tt.behavior.String(), func(t *testing.T) {
			c := categoryState{maxInstances: 1, instanceBehavior: tt.behavior, sounds: sounds}
			assert.Same(t, tt.want, c.victim(tt.incoming))
		})
	}
}

func TestCategoryUnlimited(t *testing.T) {
	c := categoryState{maxInstances: unlimitedInstances}
	assert.False(t, c.limited())
	c.maxInstances = 0
	assert.True(t, c.limited())
}

func TestCrossfadeCurves(t *testing.T) {
	assert.InDelta(t, 0.5, crossfade(CrossfadeLinear, 0.5), 1e-6)
	assert.InDelta(t, 0.25, crossfade(CrossfadeLogarithmic, 0.5), 1e-6)
	assert.InDelta(t, 0.7071, crossfade(CrossfadeEqualPower, 0.5), 1e-4)

	f := steady()
	f.start(1, 0, 1, CrossfadeLinear, true)
	assert.False(t, f.advance(0.5))
	assert.InDelta(t, 0.5, f.level, 1e-6)
	assert.True(t, f.advance(0.5))
	assert.Equal(t, float32(0), f.level)

	f.start(0, 1, 0, CrossfadeLinear, false)
	assert.Equal(t, float32(1), f.level)
	assert.False(t, f.active)
}
