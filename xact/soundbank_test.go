// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package xact

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/contentcore/diag"
)

func TestNewSoundBank(t *testing.T) {
	p := newProject(t, 16)
	sb := p.sounds

	assert.Equal(t, SoundBankVersion, sb.Version())
	assert.Equal(t, []string{"Waves"}, sb.WaveBankNames())

	names := sb.CueNames()
	require.Len(t, names, 16)
	assert.Equal(t, "simple", names[0])
	assert.Equal(t, "weighted", names[13])
	assert.Equal(t, "single", names[15])

	_, err := sb.GetCue("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSoundBankSoundDefinitions(t *testing.T) {
	p := newProject(t, 16)

	simple := p.cue(t, "simple")
	require.Len(t, simple.sounds, 1)
	def := simple.sounds[0].def
	assert.False(t, def.complex)
	assert.Equal(t, catDefault, def.category)
	assert.Equal(t, 0, def.track)
	assert.Equal(t, 0, def.waveBank)
	assert.InDelta(t, 1, def.volume, 0.01)
	assert.Empty(t, def.curves)

	rpc := p.cue(t, "rpc")
	assert.Equal(t, []int{curveIntensity}, rpc.sounds[0].def.curves)

	loop := p.cue(t, "loopForever")
	ls := loop.sounds[0].def
	require.True(t, ls.complex)
	require.Len(t, ls.clips, 1)
	require.Len(t, ls.clips[0].events, 1)
	ev := ls.clips[0].events[0]
	assert.Equal(t, EventPlayWave, ev.kind)
	assert.Equal(t, loopInfinite, ev.loopCount)
	assert.Equal(t, []int{0}, ev.tracks)

	ordered := p.cue(t, "ordered")
	ov := ordered.sounds[0].def.clips[0].events[0]
	assert.Equal(t, EventPlayWaveTrackVariation, ov.kind)
	assert.Equal(t, []int{0, 1, 0}, ov.tracks)
	assert.Equal(t, Ordered, ov.variation)
	assert.Equal(t, 3*255, ov.totalWeight)

	delayed := p.cue(t, "delayed")
	assert.InDelta(t, 0.1, delayed.sounds[0].def.clips[0].events[0].timeStamp, 1e-6)
}

func TestSoundBankSharesSoundsByOffset(t *testing.T) {
	p := newProject(t, 16)
	simple := p.cue(t, "simple")
	weighted := p.cue(t, "weighted")
	require.Len(t, weighted.sounds, 2)
	assert.Same(t, simple.sounds[0].def, weighted.sounds[0].def)
	assert.Equal(t, []float32{0, 1}, weighted.def.weights)
}

func TestSoundBankCompactWaveVariation(t *testing.T) {
	p := newProject(t, 16)
	c := p.cue(t, "compactWave")
	require.Len(t, c.sounds, 1)
	def := c.sounds[0].def
	assert.Equal(t, 1, def.track)
	assert.Equal(t, -1, def.offset)
	assert.Equal(t, unlimitedInstances, c.def.limit)
}

func TestSoundBankComplexCueTrailer(t *testing.T) {
	p := newProject(t, 16)
	c := p.cue(t, "single")
	assert.Equal(t, 1, c.def.limit)
	assert.Equal(t, FailToPlay, c.def.behavior)

	// A zero limit in the trailer means the cue is not limited.
	w := p.cue(t, "weighted")
	assert.Equal(t, unlimitedInstances, w.def.limit)
}

func TestSoundBankUnsupportedEventIsPerCue(t *testing.T) {
	data, curves := testSettings().build()
	var logs bytes.Buffer
	e, err := NewEngine(data, WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))
	require.NoError(t, err)
	sb, err := e.NewSoundBank(testSoundBank(curves).build())
	require.NoError(t, err)

	_, err = sb.GetCue("broken")
	assert.ErrorIs(t, err, diag.ErrNotImplemented)
	assert.Contains(t, logs.String(), "cue not playable")

	_, err = sb.GetCue("simple")
	assert.NoError(t, err)
}

func TestSoundBankUnknownVariationTable(t *testing.T) {
	_, curves := testSettings().build()
	data := testSoundBank(curves).build()
	off := findVariationTable(t, data, "single")
	data[off+2] = 6 << 3

	bank, err := newTestEngine(t).NewSoundBank(data)
	require.NoError(t, err)
	_, err = bank.GetCue("single")
	assert.ErrorIs(t, err, diag.ErrNotImplemented)
	_, err = bank.GetCue("weighted")
	assert.NoError(t, err)
}

// findVariationTable returns the variation table offset of a complex cue
// by walking the complex cue records.
func findVariationTable(t *testing.T, data []byte, name string) int {
	t.Helper()
	sb, err := newTestEngine(t).NewSoundBank(data)
	require.NoError(t, err)
	r := newReader("", data)
	r.seek(19)
	numSimple := int(r.u16())
	r.seek(38)
	complexOff := int(r.u32())
	for i, n := range sb.cueNames[numSimple:] {
		if n != name {
			continue
		}
		r.seek(complexOff + i*15 + 1)
		off := int(r.u32())
		require.NoError(t, r.err)
		return off
	}
	t.Fatalf("no complex cue %q", name)
	return 0
}

func TestNewSoundBankBadSignature(t *testing.T) {
	_, curves := testSettings().build()
	data := testSoundBank(curves).build()
	data[3] = 0
	e := newTestEngine(t)
	_, err := e.NewSoundBank(data)
	assert.ErrorIs(t, err, diag.ErrFormat)
}

func TestSoundBankClose(t *testing.T) {
	p := newProject(t, 16)
	c := p.cue(t, "loopForever")
	require.NoError(t, c.Play())

	require.NoError(t, p.sounds.Close())
	assert.True(t, c.IsStopped())
	_, err := p.sounds.GetCue("simple")
	assert.ErrorIs(t, err, ErrInvalidState)
}
