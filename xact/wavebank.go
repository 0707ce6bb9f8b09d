// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package xact

import (
	"fmt"

	"github.com/gogpu/contentcore/diag"
	"github.com/gogpu/contentcore/sfx"
)

// Wave bank flags.
const (
	waveFlagStreaming = 0x00000001
	waveFlagCompact   = 0x00020000
)

// Codec is the mini wave format codec tag.
type Codec uint8

const (
	CodecPCM Codec = iota
	CodecXMA
	CodecADPCM
	CodecWMA
)

// String returns the codec name.
func (c Codec) String() string {
	switch c {
	case CodecPCM:
		return "PCM"
	case CodecXMA:
		return "XMA"
	case CodecADPCM:
		return "ADPCM"
	case CodecWMA:
		return "WMA"
	default:
		return "Unknown"
	}
}

// WaveFormat is a decoded mini wave format.
type WaveFormat struct {
	Codec         Codec
	Channels      int
	SampleRate    int
	BlockAlign    int
	BitsPerSample int
}

// decodeFormat unpacks a mini wave format. Version 1 banks use a one-bit
// codec tag; later versions use two bits. The top bit selects 16-bit PCM.
func decodeFormat(version int, f uint32) WaveFormat {
	var w WaveFormat
	if version == 1 {
		w.Codec = Codec(f & 0x1)
		w.Channels = int(f>>1) & 0x7
		w.SampleRate = int(f>>5) & (1<<18 - 1)
		w.BlockAlign = int(f>>23) & 0xff
	} else {
		w.Codec = Codec(f & 0x3)
		w.Channels = int(f>>2) & 0x7
		w.SampleRate = int(f>>5) & (1<<18 - 1)
		w.BlockAlign = int(f>>23) & 0xff
	}
	w.BitsPerSample = 8
	if f>>31 != 0 {
		w.BitsPerSample = 16
	}
	return w
}

// WaveEntry is one wave in a bank.
type WaveEntry struct {
	Format     WaveFormat
	Offset     int
	Length     int
	LoopStart  int
	LoopLength int

	effect *sfx.SoundEffect
	err    error
}

// Err returns the decode failure for this entry, if any.
func (w *WaveEntry) Err() error { return w.err }

// WaveBank holds the decoded waves of one wave bank file.
type WaveBank struct {
	engine    *Engine
	name      string
	version   int
	flags     uint32
	streaming bool
	entries   []WaveEntry
}

// OpenWaveBank reads a wave bank file and registers it with the engine.
func (e *Engine) OpenWaveBank(name string) (*WaveBank, error) {
	data, err := e.readFile(name)
	if err != nil {
		return nil, err
	}
	return e.loadWaveBank(name, data)
}

// NewWaveBank parses a wave bank image and registers it with the engine
// under its bank name.
func (e *Engine) NewWaveBank(data []byte) (*WaveBank, error) {
	return e.loadWaveBank("wavebank", data)
}

func (e *Engine) loadWaveBank(file string, data []byte) (*WaveBank, error) {
	if e.closed {
		return nil, ErrEngineClosed
	}
	wb := &WaveBank{engine: e}
	if err := wb.load(file, data); err != nil {
		return nil, diag.AsBuildError(diag.KindFormat, file, err)
	}
	e.register(wb)
	return wb, nil
}

type segment struct{ offset, length int }

func (wb *WaveBank) load(file string, data []byte) error {
	log := wb.engine.log
	r := newReader(file, data)
	if string(r.take(4)) != "WBND" {
		log.Warn("xact: wave bank signature missing", "file", file)
	}
	wb.version = int(r.u32())

	last := 4
	if wb.version <= 3 {
		last = 3
	}
	if wb.version >= 42 {
		r.skip(4) // header version
	}
	var segs [5]segment
	for i := 0; i <= last; i++ {
		segs[i] = segment{int(r.u32()), int(r.u32())}
	}
	r.seek(segs[0].offset)

	wb.flags = r.u32()
	count := int(r.u32())
	if wb.version == 2 || wb.version == 3 {
		wb.name = r.fixedName(16)
	} else {
		wb.name = r.fixedName(64)
	}
	wb.streaming = wb.flags&waveFlagStreaming != 0

	metaSize, alignment, metaOff := 20, 0, 0
	if wb.version != 1 {
		metaSize = int(r.u32())
		r.skip(4) // name element size
		alignment = int(r.u32())
		metaOff = segs[1].offset
	}
	compact := wb.flags&waveFlagCompact != 0
	var compactFormat uint32
	if compact {
		compactFormat = r.u32()
	}

	playOff := segs[last].offset
	if playOff == 0 {
		playOff = metaOff + count*metaSize
	}
	if r.err != nil {
		return r.err
	}
	if count < 0 || count > len(data) {
		return fmt.Errorf("%w: %s: entry count %d", diag.ErrFormat, file, count)
	}

	r.seek(metaOff)
	wb.entries = make([]WaveEntry, count)
	if compact {
		for i := range wb.entries {
			v := r.u32()
			wb.entries[i].Format = decodeFormat(wb.version, compactFormat)
			wb.entries[i].Offset = int(v&(1<<21-1)) * alignment
		}
		for i := range wb.entries {
			next := segs[last].length
			if i+1 < count {
				next = wb.entries[i+1].Offset
			}
			wb.entries[i].Length = next - wb.entries[i].Offset
		}
	} else {
		for i := range wb.entries {
			w := &wb.entries[i]
			var format uint32
			if wb.version == 1 {
				format = r.u32()
				w.Offset = int(r.u32())
				w.Length = int(r.u32())
				w.LoopStart = int(r.u32())
				w.LoopLength = int(r.u32())
			} else {
				start := r.pos
				r.skip(4) // flags and duration
				if metaSize >= 8 {
					format = r.u32()
				}
				if metaSize >= 12 {
					w.Offset = int(r.u32())
				}
				if metaSize >= 16 {
					w.Length = int(r.u32())
				}
				if metaSize >= 20 {
					w.LoopStart = int(r.u32())
				}
				if metaSize >= 24 {
					w.LoopLength = int(r.u32())
				}
				r.seek(start + metaSize)
			}
			if metaSize < 24 && w.Length != 0 {
				w.Length = segs[last].length
			}
			w.Format = decodeFormat(wb.version, format)
		}
	}
	if r.err != nil {
		return r.err
	}

	for i := range wb.entries {
		wb.decode(i, data, playOff)
	}
	log.Debug("xact: wave bank loaded",
		"file", file, "bank", wb.name, "version", wb.version,
		"entries", count, "streaming", wb.streaming)
	return nil
}

// decode builds the sound effect for entry i. Failures are kept on the
// entry so the rest of the bank stays usable.
func (wb *WaveBank) decode(i int, data []byte, playOff int) {
	w := &wb.entries[i]
	start, end := playOff+w.Offset, playOff+w.Offset+w.Length
	if w.Length < 0 || start < 0 || end > len(data) {
		w.err = fmt.Errorf("%w: wave %d of %s: data %#x+%d outside file", diag.ErrFormat, i, wb.name, start, w.Length)
		return
	}
	if w.Format.Codec != CodecPCM {
		w.err = fmt.Errorf("%w: wave %d of %s: %s codec", diag.ErrNotImplemented, i, wb.name, w.Format.Codec)
		wb.engine.log.Warn("xact: wave not decoded", "bank", wb.name, "track", i, "codec", w.Format.Codec.String())
		return
	}
	name := fmt.Sprintf("%s:%d", wb.name, i)
	w.effect, w.err = sfx.NewSoundEffect(name, data[start:end], w.Format.SampleRate, w.Format.Channels, w.Format.BitsPerSample)
}

// Name returns the bank name sound banks refer to.
func (wb *WaveBank) Name() string { return wb.name }

// Version returns the file format version.
func (wb *WaveBank) Version() int { return wb.version }

// IsStreaming reports whether the bank was authored for streaming.
func (wb *WaveBank) IsStreaming() bool { return wb.streaming }

// Len returns the number of waves.
func (wb *WaveBank) Len() int { return len(wb.entries) }

// Entry returns wave i.
func (wb *WaveBank) Entry(i int) (*WaveEntry, bool) {
	if i < 0 || i >= len(wb.entries) {
		return nil, false
	}
	return &wb.entries[i], true
}

// SoundEffect returns the decoded sound for track i.
func (wb *WaveBank) SoundEffect(i int) (*sfx.SoundEffect, error) {
	w, ok := wb.Entry(i)
	if !ok {
		return nil, fmt.Errorf("%w: track %d in wave bank %q", ErrNotFound, i, wb.name)
	}
	if w.err != nil {
		return nil, w.err
	}
	return w.effect, nil
}
