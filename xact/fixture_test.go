// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package xact

import (
	"encoding/binary"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gogpu/contentcore/sfx"
)

// bin builds little-endian bank images.
type bin struct{ b []byte }

func (w *bin) pos() int            { return len(w.b) }
func (w *bin) u8(v uint8)          { w.b = append(w.b, v) }
func (w *bin) u16(v uint16)        { w.b = binary.LittleEndian.AppendUint16(w.b, v) }
func (w *bin) u32(v uint32)        { w.b = binary.LittleEndian.AppendUint32(w.b, v) }
func (w *bin) f32(v float32)       { w.u32(math.Float32bits(v)) }
func (w *bin) raw(p []byte)        { w.b = append(w.b, p...) }
func (w *bin) zeros(n int)         { w.raw(make([]byte, n)) }
func (w *bin) cstr(s string)       { w.raw([]byte(s)); w.u8(0) }
func (w *bin) patch16(at, v int)   { binary.LittleEndian.PutUint16(w.b[at:], uint16(v)) }
func (w *bin) patch32(at, v int)   { binary.LittleEndian.PutUint32(w.b[at:], uint32(v)) }
func (w *bin) fixed(s string, n int) {
	p := make([]byte, n)
	copy(p, s)
	w.raw(p)
}

// unityVolume is the volume byte closest to 0 dB.
const unityVolume = 180

type fxCategory struct {
	name     string
	max      uint8
	fadeIn   uint16
	fadeOut  uint16
	behavior MaxInstanceBehavior
}

type fxVariable struct {
	name          string
	flags         uint8
	init, lo, hi  float32
}

type fxCurve struct {
	variable uint16
	param    RpcParameter
	points   []RpcPoint
}

type fxSettings struct {
	version    uint16
	categories []fxCategory
	variables  []fxVariable
	curves     []fxCurve
	dsp        []DspParameter
}

// build writes a settings bank and returns the file offset of every curve.
func (s fxSettings) build() ([]byte, []uint32) {
	var w bin
	w.u32(engineMagic)
	w.u16(1)
	w.u16(s.version)
	w.u16(0)
	w.zeros(8)
	w.u8(3)
	w.u16(uint16(len(s.categories)))
	w.u16(uint16(len(s.variables)))
	w.u16(0x16)
	w.u16(0x16)
	w.u16(uint16(len(s.curves)))
	w.u16(0)
	w.u16(uint16(len(s.dsp)))
	table := w.pos()
	w.zeros(11 * 4)
	slot := func(i int) { w.patch32(table+4*i, w.pos()) }

	slot(6)
	for _, c := range s.categories {
		w.cstr(c.name)
	}
	slot(0)
	for _, c := range s.categories {
		w.u8(c.max)
		w.u16(c.fadeIn)
		w.u16(c.fadeOut)
		w.u8(uint8(c.behavior) << 3)
		w.u16(0)
		w.u8(unityVolume)
		w.u8(0x2)
	}
	slot(7)
	for _, v := range s.variables {
		w.cstr(v.name)
	}
	slot(1)
	for _, v := range s.variables {
		w.u8(v.flags)
		w.f32(v.init)
		w.f32(v.lo)
		w.f32(v.hi)
	}
	slot(8)
	var offsets []uint32
	for _, c := range s.curves {
		offsets = append(offsets, uint32(w.pos()))
		w.u16(c.variable)
		w.u8(uint8(len(c.points)))
		w.u16(uint16(c.param))
		for _, p := range c.points {
			w.f32(p.Position)
			w.f32(p.Value)
			w.u8(uint8(p.Type))
		}
	}
	slot(10)
	for _, p := range s.dsp {
		w.f32(p.Value)
		w.f32(p.Min)
		w.f32(p.Max)
		w.u16(0)
	}
	return w.b, offsets
}

// encodeFormat packs a mini wave format for banks of version > 1.
func encodeFormat(w WaveFormat) uint32 {
	f := uint32(w.Codec)&0x3 |
		uint32(w.Channels&0x7)<<2 |
		uint32(w.SampleRate&(1<<18-1))<<5 |
		uint32(w.BlockAlign&0xff)<<23
	if w.BitsPerSample == 16 {
		f |= 1 << 31
	}
	return f
}

type fxWave struct {
	format WaveFormat
	data   []byte
}

func pcm16(channels, rate int) WaveFormat {
	return WaveFormat{Codec: CodecPCM, Channels: channels, SampleRate: rate, BlockAlign: 2 * channels, BitsPerSample: 16}
}

// tone returns n bytes of a constant non-zero 16-bit signal.
func tone(n int) []byte {
	p := make([]byte, n)
	for i := 0; i+1 < n; i += 2 {
		binary.LittleEndian.PutUint16(p[i:], 12000)
	}
	return p
}

func buildWaveBank(name string, flags uint32, signature string, waves []fxWave) []byte {
	const version = 46
	var w bin
	w.raw([]byte(signature))
	w.u32(version)
	w.u32(44)
	segs := w.pos()
	w.zeros(5 * 8)
	seg := func(i, off, n int) {
		w.patch32(segs+8*i, off)
		w.patch32(segs+8*i+4, n)
	}

	bank := w.pos()
	w.u32(flags)
	w.u32(uint32(len(waves)))
	w.fixed(name, 64)
	w.u32(24)
	w.u32(64)
	w.u32(4)
	compact := flags&waveFlagCompact != 0
	if compact {
		w.u32(encodeFormat(waves[0].format))
	}
	seg(0, bank, w.pos()-bank)

	offsets := make([]int, len(waves))
	off := 0
	for i, wv := range waves {
		offsets[i] = off
		off += (len(wv.data) + 3) &^ 3
	}

	meta := w.pos()
	for i, wv := range waves {
		if compact {
			w.u32(uint32(offsets[i] / 4))
			continue
		}
		w.u32(0)
		w.u32(encodeFormat(wv.format))
		w.u32(uint32(offsets[i]))
		w.u32(uint32(len(wv.data)))
		w.u32(0)
		w.u32(0)
	}
	seg(1, meta, w.pos()-meta)

	data := w.pos()
	for _, wv := range waves {
		w.raw(wv.data)
		w.zeros((4 - len(wv.data)%4) % 4)
	}
	seg(4, data, w.pos()-data)
	return w.b
}

type fxEvent struct {
	kind          EventKind
	timeStamp     uint16
	loop          uint8
	track         uint16
	tracks        []uint16
	weights       []uint8
	variation     VariationType
	newWaveOnLoop bool
}

type fxSound struct {
	category uint16
	priority uint8
	track    uint16
	curves   []uint32
	clips    [][]fxEvent
}

type fxVariation struct {
	sound    int
	min, max uint8
}

type fxCue struct {
	name     string
	sound    int
	table    []fxVariation
	waves    []uint16
	limit    uint8
	behavior MaxInstanceBehavior
}

func (c fxCue) complex() bool { return c.table != nil || c.waves != nil }

type fxSoundBank struct {
	version   uint16
	waveBanks []string
	sounds    []fxSound
	cues      []fxCue
}

func (b fxSoundBank) build() []byte {
	var simple, complexCues []fxCue
	for _, c := range b.cues {
		if c.complex() {
			complexCues = append(complexCues, c)
		} else {
			simple = append(simple, c)
		}
	}

	var w bin
	w.u32(soundBankMagic)
	w.u16(1)
	w.u16(b.version)
	w.u16(0)
	w.zeros(8)
	w.u8(1)
	w.u16(uint16(len(simple)))
	w.u16(uint16(len(complexCues)))
	w.u16(0)
	w.u16(uint16(len(b.cues)))
	w.u8(uint8(len(b.waveBanks)))
	w.u16(uint16(len(b.sounds)))
	nameLen := w.pos()
	w.u16(0)
	w.u16(0)
	table := w.pos()
	w.zeros(10 * 4)
	slot := func(i int) { w.patch32(table+4*i, w.pos()) }

	slot(6)
	for _, n := range b.waveBanks {
		w.fixed(n, 64)
	}
	slot(2)
	start := w.pos()
	for _, c := range append(append([]fxCue{}, simple...), complexCues...) {
		w.cstr(c.name)
	}
	w.patch16(nameLen, w.pos()-start)

	clipOffsets := make([][]int, len(b.sounds))
	for i, s := range b.sounds {
		for _, events := range s.clips {
			clipOffsets[i] = append(clipOffsets[i], w.pos())
			writeClip(&w, events)
		}
	}

	slot(9)
	soundOffsets := make([]int, len(b.sounds))
	for i, s := range b.sounds {
		soundOffsets[i] = w.pos()
		var flags uint8
		if s.clips != nil {
			flags |= 0x01
		}
		if len(s.curves) > 0 {
			flags |= 0x02
		}
		w.u8(flags)
		w.u16(s.category)
		w.u8(unityVolume)
		w.u16(0)
		w.u8(s.priority)
		w.u16(0)
		if s.clips != nil {
			w.u8(uint8(len(s.clips)))
		} else {
			w.u16(s.track)
			w.u8(0)
		}
		if len(s.curves) > 0 {
			w.u16(uint16(3 + 4*len(s.curves)))
			w.u8(uint8(len(s.curves)))
			for _, off := range s.curves {
				w.u32(off)
			}
		}
		for _, off := range clipOffsets[i] {
			w.u8(unityVolume)
			w.u32(uint32(off))
			w.u32(0)
		}
	}

	tables := make([]int, len(complexCues))
	for i, c := range complexCues {
		tables[i] = w.pos()
		if c.table != nil {
			w.u16(uint16(len(c.table)))
			w.u16(1 << 3)
			w.zeros(4)
			for _, v := range c.table {
				w.u32(uint32(soundOffsets[v.sound]))
				w.u8(v.min)
				w.u8(v.max)
			}
			continue
		}
		w.u16(uint16(len(c.waves)))
		w.u16(4 << 3)
		w.zeros(4)
		for _, t := range c.waves {
			w.u16(t)
			w.u8(0)
		}
	}

	slot(0)
	for _, c := range simple {
		w.u8(0)
		w.u32(uint32(soundOffsets[c.sound]))
	}
	slot(1)
	for i, c := range complexCues {
		w.u8(0)
		w.u32(uint32(tables[i]))
		w.u32(0)
		w.u8(c.limit)
		w.u16(0)
		w.u16(0)
		w.u8(uint8(c.behavior) << 3)
	}
	return w.b
}

func writeClip(w *bin, events []fxEvent) {
	w.u8(uint8(len(events)))
	for _, ev := range events {
		w.u32(uint32(ev.kind) | uint32(ev.timeStamp)<<5)
		w.u16(0)
		switch ev.kind {
		case EventPlayWave:
			w.u8(0)
			w.u8(0)
			w.u16(ev.track)
			w.u8(0)
			w.u8(ev.loop)
			w.u16(0)
			w.u16(0)
		case EventPlayWaveTrackVariation:
			w.u8(0)
			w.u8(0)
			w.u8(ev.loop)
			w.u16(0)
			w.u16(0)
			w.u16(uint16(len(ev.tracks)))
			var more uint8
			if ev.newWaveOnLoop {
				more = 0x40
			}
			w.u8(more)
			w.u16(uint16(ev.variation))
			w.zeros(4)
			for i, t := range ev.tracks {
				w.u16(t)
				w.u8(0)
				w.u8(0)
				weight := uint8(255)
				if ev.weights != nil {
					weight = ev.weights[i]
				}
				w.u8(weight)
			}
		}
	}
}

// Indices into the test project's tables.
const (
	catDefault = iota
	catMusic
	catEffects
)

const (
	curveIntensity = iota
	curveReverb
)

// testSettings is a small project: three categories, global and cue
// variables, one volume curve and one reverb curve.
func testSettings() fxSettings {
	return fxSettings{
		version: EngineVersion,
		categories: []fxCategory{
			{name: "Default", max: unlimitedInstances},
			{name: "Music", max: 1, fadeIn: 250, fadeOut: 500, behavior: ReplaceOldest},
			{name: "Effects", max: 1, behavior: FailToPlay},
		},
		variables: []fxVariable{
			{name: "Volume", flags: varPublic, init: 0, lo: 0, hi: 100},
			{name: VarDistance, flags: varPublic | varCue | varReserved, lo: 0, hi: 10000},
			{name: VarOrientationAngle, flags: varPublic | varCue | varReserved, lo: 0, hi: 180},
			{name: "Intensity", flags: varPublic | varCue, lo: 0, hi: 100},
			{name: "Locked", flags: varPublic | varReadOnly, init: 7, lo: 0, hi: 10},
		},
		curves: []fxCurve{
			{variable: 3, param: RpcVolume, points: []RpcPoint{{0, 0, RpcLinear}, {100, -600, RpcLinear}}},
			{variable: 0, param: RpcNumParameters, points: []RpcPoint{{0, 0, RpcLinear}, {100, 50, RpcLinear}}},
		},
		dsp: []DspParameter{{Value: 0, Min: 0, Max: 100}},
	}
}

func testWaves() []fxWave {
	return []fxWave{
		{format: pcm16(1, 22050), data: tone(128)},
		{format: pcm16(2, 44100), data: tone(128)},
		{format: WaveFormat{Codec: CodecADPCM, Channels: 1, SampleRate: 22050, BlockAlign: 36}, data: tone(64)},
	}
}

func testSoundBank(curves []uint32) fxSoundBank {
	playWave := func(loop uint8) [][]fxEvent {
		return [][]fxEvent{{{kind: EventPlayWave, loop: loop}}}
	}
	return fxSoundBank{
		version:   SoundBankVersion,
		waveBanks: []string{"Waves"},
		sounds: []fxSound{
			0:  {category: catDefault},
			1:  {category: catMusic},
			2:  {category: catMusic, track: 1},
			3:  {category: catDefault, clips: playWave(loopInfinite)},
			4:  {category: catDefault, clips: playWave(0)},
			5:  {category: catDefault, clips: playWave(2)},
			6:  {category: catDefault, clips: [][]fxEvent{{{kind: EventPlayWaveTrackVariation, tracks: []uint16{0, 1, 0}, variation: Ordered}}}},
			7:  {category: catDefault, clips: [][]fxEvent{{{kind: EventVolume}}}},
			8:  {category: catDefault, curves: []uint32{curves[curveIntensity]}},
			9:  {category: catDefault, clips: [][]fxEvent{{{kind: EventPlayWave, timeStamp: 100}}}},
			10: {category: catEffects},
			11: {category: catEffects, track: 1},
			12: {category: catDefault, track: 2},
		},
		cues: []fxCue{
			{name: "simple", sound: 0},
			{name: "musicA", sound: 1},
			{name: "musicB", sound: 2},
			{name: "loopForever", sound: 3},
			{name: "once", sound: 4},
			{name: "loopTwice", sound: 5},
			{name: "ordered", sound: 6},
			{name: "broken", sound: 7},
			{name: "rpc", sound: 8},
			{name: "delayed", sound: 9},
			{name: "fxA", sound: 10},
			{name: "fxB", sound: 11},
			{name: "adpcm", sound: 12},
			{name: "weighted", table: []fxVariation{{sound: 0, min: 0, max: 0}, {sound: 2, min: 0, max: 255}}},
			{name: "compactWave", waves: []uint16{1}, limit: unlimitedInstances},
			{name: "single", table: []fxVariation{{sound: 0, max: 255}}, limit: 1, behavior: FailToPlay},
		},
	}
}

type project struct {
	engine *Engine
	waves  *WaveBank
	sounds *SoundBank
	pool   *sfx.Pool
}

func newProject(t *testing.T, poolSize int) *project {
	t.Helper()
	settings, curves := testSettings().build()
	pool := sfx.NewPool(44100, poolSize)
	e, err := NewEngine(settings, WithPool(pool), WithRand(rand.New(rand.NewPCG(1, 2))))
	require.NoError(t, err)
	wb, err := e.NewWaveBank(buildWaveBank("Waves", 0, "WBND", testWaves()))
	require.NoError(t, err)
	sb, err := e.NewSoundBank(testSoundBank(curves).build())
	require.NoError(t, err)
	return &project{engine: e, waves: wb, sounds: sb, pool: pool}
}

func (p *project) cue(t *testing.T, name string) *Cue {
	t.Helper()
	c, err := p.sounds.GetCue(name)
	require.NoError(t, err)
	return c
}

// event returns the first play-wave event of a complex cue's sound.
func event(c *Cue) *playWaveEvent {
	return c.current.clips[0].events[0]
}
