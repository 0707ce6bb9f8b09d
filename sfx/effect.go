// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package sfx plays decoded sound effects through pooled instances.
//
// A [SoundEffect] holds decoded samples. A [Pool] hands out a bounded number
// of [Instance] values that stream a sound effect with their own volume,
// pitch and pan. The pool mixes every playing instance into one
// beep.Streamer that the host hands to its speaker:
//
//	pool := sfx.NewPool(44100, 64)
//	speaker.Init(44100, 4410)
//	speaker.Play(pool.Streamer())
//
//	if inst := pool.Acquire(effect); inst != nil {
//	    inst.Play()
//	}
package sfx

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/wav"
)

// SoundEffect is a decoded, immutable sound.
type SoundEffect struct {
	name   string
	format beep.Format
	buf    *beep.Buffer
}

// NewSoundEffect decodes raw little-endian PCM. bitsPerSample must be 8
// (unsigned) or 16 (signed).
func NewSoundEffect(name string, pcm []byte, sampleRate, channels, bitsPerSample int) (*SoundEffect, error) {
	switch {
	case sampleRate <= 0:
		return nil, fmt.Errorf("sfx: %s: invalid sample rate %d", name, sampleRate)
	case channels < 1 || channels > 2:
		return nil, fmt.Errorf("sfx: %s: unsupported channel count %d", name, channels)
	case bitsPerSample != 8 && bitsPerSample != 16:
		return nil, fmt.Errorf("sfx: %s: unsupported sample size %d bits", name, bitsPerSample)
	}
	frame := channels * bitsPerSample / 8
	pcm = pcm[:len(pcm)-len(pcm)%frame]

	var riff bytes.Buffer
	riff.Grow(44 + len(pcm))
	writeRIFF(&riff, len(pcm), sampleRate, channels, bitsPerSample)
	riff.Write(pcm)
	return Decode(name, &riff)
}

// Decode reads a RIFF/WAVE stream.
func Decode(name string, r io.Reader) (*SoundEffect, error) {
	s, format, err := wav.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("sfx: %s: %w", name, err)
	}
	defer s.Close()

	buf := beep.NewBuffer(format)
	buf.Append(s)
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("sfx: %s: %w", name, err)
	}
	return &SoundEffect{name: name, format: format, buf: buf}, nil
}

func writeRIFF(w io.Writer, dataLen, sampleRate, channels, bits int) {
	frame := channels * bits / 8
	hdr := struct {
		Riff          [4]byte
		Size          uint32
		Wave          [4]byte
		Fmt           [4]byte
		FmtSize       uint32
		FormatTag     uint16
		Channels      uint16
		SampleRate    uint32
		ByteRate      uint32
		BlockAlign    uint16
		BitsPerSample uint16
		Data          [4]byte
		DataSize      uint32
	}{
		Riff:          [4]byte{'R', 'I', 'F', 'F'},
		Size:          uint32(36 + dataLen),
		Wave:          [4]byte{'W', 'A', 'V', 'E'},
		Fmt:           [4]byte{'f', 'm', 't', ' '},
		FmtSize:       16,
		FormatTag:     1,
		Channels:      uint16(channels),
		SampleRate:    uint32(sampleRate),
		ByteRate:      uint32(sampleRate * frame),
		BlockAlign:    uint16(frame),
		BitsPerSample: uint16(bits),
		Data:          [4]byte{'d', 'a', 't', 'a'},
		DataSize:      uint32(dataLen),
	}
	_ = binary.Write(w, binary.LittleEndian, &hdr)
}

// Name returns the name the effect was created with.
func (s *SoundEffect) Name() string { return s.name }

// Format returns the decoded sample format.
func (s *SoundEffect) Format() beep.Format { return s.format }

// SampleRate returns the sample rate in Hz.
func (s *SoundEffect) SampleRate() int { return int(s.format.SampleRate) }

// Channels returns 1 for mono and 2 for stereo.
func (s *SoundEffect) Channels() int { return s.format.NumChannels }

// BitsPerSample returns the source sample size.
func (s *SoundEffect) BitsPerSample() int { return s.format.Precision * 8 }

// Frames returns the number of sample frames.
func (s *SoundEffect) Frames() int { return s.buf.Len() }

// Duration returns the playback length at the original pitch.
func (s *SoundEffect) Duration() time.Duration {
	return s.format.SampleRate.D(s.buf.Len())
}

// stream returns a fresh streamer positioned at the first frame.
func (s *SoundEffect) stream() beep.StreamSeeker {
	return s.buf.Streamer(0, s.buf.Len())
}
