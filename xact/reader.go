// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package xact

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"golang.org/x/text/encoding/charmap"

	"github.com/gogpu/contentcore/diag"
)

// reader walks a bank image with explicit seeks. The first failure sticks
// and every later read returns zero.
type reader struct {
	name string
	buf  []byte
	pos  int
	err  error
}

func newReader(name string, data []byte) *reader {
	return &reader{name: name, buf: data}
}

func (r *reader) fail(format string, args ...any) {
	if r.err == nil {
		r.err = fmt.Errorf("%w: %s: %s", diag.ErrFormat, r.name, fmt.Sprintf(format, args...))
	}
}

// seek moves to an absolute offset.
func (r *reader) seek(off int) {
	if r.err != nil {
		return
	}
	if off < 0 || off > len(r.buf) {
		r.fail("offset %#x outside %d-byte file", off, len(r.buf))
		return
	}
	r.pos = off
}

func (r *reader) skip(n int) { r.seek(r.pos + n) }

func (r *reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || r.pos+n > len(r.buf) {
		r.fail("unexpected end of data at offset %#x", r.pos)
		return nil
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b
}

func (r *reader) u8() uint8 {
	if b := r.take(1); b != nil {
		return b[0]
	}
	return 0
}

func (r *reader) u16() uint16 {
	if b := r.take(2); b != nil {
		return binary.LittleEndian.Uint16(b)
	}
	return 0
}

func (r *reader) u32() uint32 {
	if b := r.take(4); b != nil {
		return binary.LittleEndian.Uint32(b)
	}
	return 0
}

func (r *reader) i16() int16   { return int16(r.u16()) }
func (r *reader) i32() int32   { return int32(r.u32()) }
func (r *reader) f32() float32 { return math.Float32frombits(r.u32()) }

// fixedName reads a zero-padded name field of n bytes.
func (r *reader) fixedName(n int) string {
	return decodeName(r.take(n))
}

// names reads count zero-terminated names.
func (r *reader) names(count int) []string {
	out := make([]string, 0, count)
	for range count {
		if r.err != nil {
			break
		}
		end := bytes.IndexByte(r.buf[r.pos:], 0)
		if end < 0 {
			r.fail("unterminated name at offset %#x", r.pos)
			break
		}
		out = append(out, decodeName(r.take(end)))
		r.skip(1)
	}
	return out
}

// decodeName converts an ANSI name to UTF-8, dropping zero padding.
func decodeName(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	s, err := charmap.Windows1252.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(s)
}
