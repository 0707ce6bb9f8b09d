// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package xact

import (
	"bytes"
	"fmt"
	"slices"

	"github.com/gogpu/contentcore/diag"
	"github.com/gogpu/contentcore/sfx"
)

const (
	// soundBankMagic is "SDBK".
	soundBankMagic = 0x4B424453

	// SoundBankVersion is the sound bank format this package reads.
	SoundBankVersion = 43
)

// soundDef is an immutable sound read from a sound bank.
type soundDef struct {
	offset   int
	complex  bool
	category int
	volume   float32
	pitch    float32
	priority uint8
	track    int
	waveBank int
	curves   []int
	reverb   bool
	clips    []clipDef
	err      error
}

type clipDef struct {
	volume float32
	events []eventDef
}

// cueDef is an immutable cue: one or more weighted candidate sounds plus
// its own instance limit.
type cueDef struct {
	name    string
	sounds  []*soundDef
	weights []float32

	limit    int
	fadeIn   float32
	fadeOut  float32
	behavior MaxInstanceBehavior

	err error

	// playing holds the live cues of this definition, oldest first.
	playing []*Cue
}

// SoundBank holds the cues of one sound bank file.
type SoundBank struct {
	engine        *Engine
	name          string
	version       int
	waveBankNames []string
	cueNames      []string
	cues          map[string]*cueDef
	sounds        map[int]*soundDef
	closed        bool
}

// OpenSoundBank reads a sound bank file.
func (e *Engine) OpenSoundBank(name string) (*SoundBank, error) {
	data, err := e.readFile(name)
	if err != nil {
		return nil, err
	}
	return e.loadSoundBank(name, data)
}

// NewSoundBank parses a sound bank image.
func (e *Engine) NewSoundBank(data []byte) (*SoundBank, error) {
	return e.loadSoundBank("soundbank", data)
}

func (e *Engine) loadSoundBank(file string, data []byte) (*SoundBank, error) {
	if e.closed {
		return nil, ErrEngineClosed
	}
	sb := &SoundBank{
		engine: e,
		name:   file,
		cues:   make(map[string]*cueDef),
		sounds: make(map[int]*soundDef),
	}
	if err := sb.load(file, data); err != nil {
		return nil, diag.AsBuildError(diag.KindFormat, file, err)
	}
	return sb, nil
}

func (sb *SoundBank) load(file string, data []byte) error {
	log := sb.engine.log
	r := newReader(file, data)
	if r.u32() != soundBankMagic {
		return fmt.Errorf("%w: %s: sound bank signature not recognized", diag.ErrFormat, file)
	}
	r.skip(2) // tool version
	sb.version = int(r.u16())
	if sb.version != SoundBankVersion {
		log.Warn("xact: unexpected sound bank version",
			"file", file, "version", sb.version, "want", SoundBankVersion)
	}
	r.skip(2 + 8 + 1) // crc, last modified, platform

	numSimple := int(r.u16())
	numComplex := int(r.u16())
	r.skip(4) // unknown, total cues
	numWaveBanks := int(r.u8())
	r.skip(2) // sounds
	nameTableLen := int(r.u16())
	r.skip(2)

	simpleOff := int(r.u32())
	complexOff := int(r.u32())
	namesOff := int(r.u32())
	r.skip(4 * 3) // unknown, variation tables, unknown
	waveBankNamesOff := int(r.u32())
	r.skip(4 * 3) // cue name hash table, hash values, sounds

	r.seek(waveBankNamesOff)
	for range numWaveBanks {
		sb.waveBankNames = append(sb.waveBankNames, r.fixedName(64))
	}

	r.seek(namesOff)
	table := r.take(nameTableLen)
	for _, n := range bytes.Split(table, []byte{0}) {
		sb.cueNames = append(sb.cueNames, decodeName(n))
	}
	if r.err != nil {
		return r.err
	}
	if len(sb.cueNames) < numSimple+numComplex {
		return fmt.Errorf("%w: %s: %d cue names for %d cues", diag.ErrFormat, file, len(sb.cueNames), numSimple+numComplex)
	}
	sb.cueNames = sb.cueNames[:numSimple+numComplex]

	if numSimple > 0 {
		r.seek(simpleOff)
	}
	for i := range numSimple {
		r.skip(1) // flags
		off := int(r.u32())
		if r.err != nil {
			return r.err
		}
		c := &cueDef{name: sb.cueNames[i], limit: unlimitedInstances}
		s := sb.sound(data, off)
		c.sounds, c.weights, c.err = []*soundDef{s}, []float32{0}, s.err
		sb.cues[c.name] = c
	}

	if numComplex > 0 {
		r.seek(complexOff)
	}
	for i := range numComplex {
		c := &cueDef{name: sb.cueNames[numSimple+i]}
		flags := r.u8()
		if flags&0x04 != 0 {
			off := int(r.u32())
			r.skip(4)
			if r.err != nil {
				return r.err
			}
			s := sb.sound(data, off)
			c.sounds, c.weights, c.err = []*soundDef{s}, []float32{0}, s.err
		} else {
			off := int(r.u32())
			r.skip(4) // transition table
			if r.err != nil {
				return r.err
			}
			c.err = sb.variationTable(c, data, off)
		}
		c.limit = int(r.u8())
		if c.limit == 0 {
			c.limit = unlimitedInstances
		}
		c.fadeIn = float32(r.u16()) / 1000
		c.fadeOut = float32(r.u16()) / 1000
		c.behavior = MaxInstanceBehavior(r.u8() >> 3)
		sb.cues[c.name] = c
	}
	if r.err != nil {
		return r.err
	}

	for _, name := range sb.cueNames {
		if err := sb.cues[name].err; err != nil {
			log.Warn("xact: cue not playable", "file", file, "cue", name, "err", err)
		}
	}
	log.Debug("xact: sound bank loaded",
		"file", file, "cues", len(sb.cueNames), "sounds", len(sb.sounds), "waveBanks", sb.waveBankNames)
	return nil
}

// variationTable reads the candidate sounds of a complex cue.
func (sb *SoundBank) variationTable(c *cueDef, data []byte, off int) error {
	r := newReader(sb.name, data)
	r.seek(off)
	n := int(r.u16())
	flags := r.u16()
	r.skip(4)
	kind := (flags >> 3) & 0x7

	for range n {
		var (
			s *soundDef
			w float32
		)
		switch kind {
		case 0: // wave
			track, bank := int(r.u16()), int(r.u8())
			lo, hi := r.u8(), r.u8()
			s = sb.waveSound(bank, track)
			w = float32(int(hi)-int(lo)) / 255
		case 1: // sound with byte weights
			at := int(r.u32())
			lo, hi := r.u8(), r.u8()
			s = sb.sound(data, at)
			w = float32(int(hi)-int(lo)) / 255
		case 3: // sound with float weights
			at := int(r.u32())
			lo, hi := r.f32(), r.f32()
			r.skip(4)
			s = sb.sound(data, at)
			w = hi - lo
		case 4: // compact wave
			track, bank := int(r.u16()), int(r.u8())
			s = sb.waveSound(bank, track)
		default:
			return fmt.Errorf("%w: variation table type %d in cue %q", diag.ErrNotImplemented, kind, c.name)
		}
		if r.err != nil {
			return r.err
		}
		if s.err != nil {
			return s.err
		}
		c.sounds = append(c.sounds, s)
		c.weights = append(c.weights, max(w, 0))
	}
	if len(c.sounds) == 0 {
		return fmt.Errorf("%w: cue %q has an empty variation table", diag.ErrFormat, c.name)
	}
	return nil
}

// waveSound is a simple sound synthesized for a wave variation entry.
func (sb *SoundBank) waveSound(bank, track int) *soundDef {
	return &soundDef{offset: -1, volume: 1, track: track, waveBank: bank}
}

// sound reads the sound at off once and caches it.
func (sb *SoundBank) sound(data []byte, off int) *soundDef {
	if s, ok := sb.sounds[off]; ok {
		return s
	}
	s := &soundDef{offset: off}
	sb.sounds[off] = s
	s.err = sb.readSound(s, data, off)
	return s
}

func (sb *SoundBank) readSound(s *soundDef, data []byte, off int) error {
	e := sb.engine
	r := newReader(sb.name, data)
	r.seek(off)

	flags := r.u8()
	s.complex = flags&0x01 != 0
	hasCurves := flags&0x0e != 0
	s.reverb = flags&0x10 != 0

	s.category = int(r.u16())
	if s.category >= len(e.categories) {
		s.category = -1
	}
	s.volume = volumeFromByte(r.u8())
	s.pitch = float32(r.i16()) / 1000
	s.priority = r.u8()
	r.skip(2) // filter

	numClips := 0
	if s.complex {
		numClips = int(r.u8())
	} else {
		s.track = int(r.u16())
		s.waveBank = int(r.u8())
	}

	if hasCurves {
		start := r.pos
		length := int(r.u16())
		n := int(r.u8())
		for range n {
			at := r.u32()
			if i, ok := e.curveAt(at); ok {
				s.curves = append(s.curves, i)
			} else if r.err == nil {
				e.log.Warn("xact: sound references unknown curve", "sound", off, "offset", at)
			}
		}
		r.seek(start + length)
	}
	if s.reverb {
		r.skip(7)
	}

	for range numClips {
		volume := volumeFromByte(r.u8())
		at := int(r.u32())
		r.skip(4) // filter
		if r.err != nil {
			return r.err
		}
		clip, err := sb.readClip(data, at)
		if err != nil {
			return fmt.Errorf("sound at %#x: %w", off, err)
		}
		clip.volume = volume
		s.clips = append(s.clips, clip)
	}
	return r.err
}

func (sb *SoundBank) readClip(data []byte, off int) (clipDef, error) {
	r := newReader(sb.name, data)
	r.seek(off)
	n := int(r.u8())
	c := clipDef{volume: 1, events: make([]eventDef, 0, n)}
	for range n {
		ev, err := readEvent(r)
		if err != nil {
			return c, err
		}
		c.events = append(c.events, ev)
	}
	return c, r.err
}

// Name returns the file name the bank was read from.
func (sb *SoundBank) Name() string { return sb.name }

// Version returns the sound bank format version.
func (sb *SoundBank) Version() int { return sb.version }

// CueNames returns the cue names in file order.
func (sb *SoundBank) CueNames() []string { return slices.Clone(sb.cueNames) }

// WaveBankNames returns the wave banks the bank's sounds play from.
func (sb *SoundBank) WaveBankNames() []string { return slices.Clone(sb.waveBankNames) }

// GetCue returns a new prepared cue. Cues whose sounds use unsupported
// events or codecs fail here without affecting the rest of the bank.
func (sb *SoundBank) GetCue(name string) (*Cue, error) {
	if sb.closed {
		return nil, fmt.Errorf("%w: sound bank %s is closed", ErrInvalidState, sb.name)
	}
	def, ok := sb.cues[name]
	if !ok {
		return nil, fmt.Errorf("%w: cue %q", ErrNotFound, name)
	}
	if def.err != nil {
		return nil, fmt.Errorf("cue %q: %w", name, def.err)
	}
	return newCue(sb, def), nil
}

// PlayCue plays a cue and forgets it.
func (sb *SoundBank) PlayCue(name string) error {
	c, err := sb.GetCue(name)
	if err != nil {
		return err
	}
	return c.Play()
}

// PlayCue3D plays a positioned cue and forgets it.
func (sb *SoundBank) PlayCue3D(name string, listener Listener, emitter Emitter) error {
	c, err := sb.GetCue(name)
	if err != nil {
		return err
	}
	c.Apply3D(listener, emitter)
	return c.Play()
}

// Close stops every cue of the bank. Later GetCue calls fail.
func (sb *SoundBank) Close() error {
	for _, def := range sb.cues {
		for _, c := range slices.Clone(def.playing) {
			c.Stop(Immediate)
		}
	}
	sb.closed = true
	return nil
}

// instance acquires a pooled instance for a track. A missing wave bank,
// an undecodable wave or an exhausted pool yields nil.
func (sb *SoundBank) instance(bank, track int) *sfx.Instance {
	e := sb.engine
	if bank < 0 || bank >= len(sb.waveBankNames) {
		e.log.Warn("xact: wave bank index out of range", "bank", bank, "soundBank", sb.name)
		return nil
	}
	wb, ok := e.waveBanks[sb.waveBankNames[bank]]
	if !ok {
		e.log.Warn("xact: wave bank not loaded", "waveBank", sb.waveBankNames[bank])
		return nil
	}
	effect, err := wb.SoundEffect(track)
	if err != nil {
		e.log.Warn("xact: wave not playable", "waveBank", wb.name, "track", track, "err", err)
		return nil
	}
	inst := e.pool.Acquire(effect)
	if inst == nil {
		e.log.Debug("xact: sound pool exhausted", "waveBank", wb.name, "track", track)
	}
	return inst
}
