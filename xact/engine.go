// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package xact

import (
	"fmt"
	"io/fs"
	"log/slog"
	"math/rand/v2"
	"os"
	"slices"
	"time"

	"github.com/gogpu/contentcore/diag"
	"github.com/gogpu/contentcore/internal/logging"
	"github.com/gogpu/contentcore/sfx"
)

const (
	// engineMagic is "XGFS".
	engineMagic = 0x46534758

	// EngineVersion is the settings bank format this package reads.
	EngineVersion = 42

	// DefaultSampleRate is the mixing rate of the default pool.
	DefaultSampleRate = 44100
)

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine's logger. The package logger is used otherwise.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithPool sets the pool sound instances are acquired from.
func WithPool(p *sfx.Pool) Option {
	return func(e *Engine) { e.pool = p }
}

// WithRand sets the random source for variation and jitter.
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) { e.rand = r }
}

// WithFS makes the Open functions read from fsys instead of the OS.
func WithFS(fsys fs.FS) Option {
	return func(e *Engine) { e.fsys = fsys }
}

// Engine holds the global audio state of one settings bank: categories,
// global variables and RPC curves. It also owns the wave banks registered
// by name and the list of active cues.
//
// An Engine is driven from one goroutine; Update must be called once per
// frame.
type Engine struct {
	log  *slog.Logger
	pool *sfx.Pool
	rand *rand.Rand
	fsys fs.FS

	version    int
	categories []categoryState
	catIndex   map[string]int

	globals      []Variable
	cueVariables []Variable

	curves       []RpcCurve
	curveOffsets map[uint32]int
	reverbCurves []int
	reverb       []DspParameter

	waveBanks map[string]*WaveBank
	active    []*Cue
	playSeq   uint64
	closed    bool
}

// OpenEngine reads a settings bank file.
func OpenEngine(name string, opts ...Option) (*Engine, error) {
	e := newEngine(opts)
	data, err := e.readFile(name)
	if err != nil {
		return nil, err
	}
	if err := e.load(name, data); err != nil {
		return nil, err
	}
	return e, nil
}

// NewEngine parses a settings bank image.
func NewEngine(data []byte, opts ...Option) (*Engine, error) {
	e := newEngine(opts)
	if err := e.load("settings", data); err != nil {
		return nil, err
	}
	return e, nil
}

func newEngine(opts []Option) *Engine {
	e := &Engine{
		catIndex:     make(map[string]int),
		curveOffsets: make(map[uint32]int),
		waveBanks:    make(map[string]*WaveBank),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.log = logging.Or(e.log)
	if e.pool == nil {
		e.pool = sfx.NewPool(DefaultSampleRate, sfx.DefaultMaxInstances)
	}
	if e.rand == nil {
		e.rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return e
}

func (e *Engine) readFile(name string) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if e.fsys != nil {
		data, err = fs.ReadFile(e.fsys, name)
	} else {
		data, err = os.ReadFile(name)
	}
	if err != nil {
		return nil, diag.NewBuildError(diag.KindIO, name, diag.Position{File: name}, err, "%v", err)
	}
	return data, nil
}

func (e *Engine) load(name string, data []byte) error {
	r := newReader(name, data)
	if r.u32() != engineMagic {
		return diag.NewBuildError(diag.KindFormat, name, diag.Position{File: name}, diag.ErrFormat,
			"settings bank signature not recognized")
	}
	r.skip(2) // tool version
	e.version = int(r.u16())
	if e.version != EngineVersion {
		e.log.Warn("xact: unexpected settings bank version",
			"file", name, "version", e.version, "want", EngineVersion)
	}
	r.skip(2 + 8 + 1) // crc, last modified, platform

	numCats := int(r.u16())
	numVars := int(r.u16())
	r.skip(4)
	numCurves := int(r.u16())
	r.skip(2) // DSP presets
	numDsp := int(r.u16())

	catsOff := int(r.u32())
	varsOff := int(r.u32())
	r.skip(4 * 4) // category and variable name index tables
	catNamesOff := int(r.u32())
	varNamesOff := int(r.u32())
	curvesOff := int(r.u32())
	r.skip(4) // DSP presets
	dspOff := int(r.u32())

	r.seek(catNamesOff)
	catNames := r.names(numCats)
	r.seek(catsOff)
	e.categories = make([]categoryState, 0, numCats)
	for i := range catNames {
		e.categories = append(e.categories, readCategory(r, catNames[i]))
		e.catIndex[catNames[i]] = i
	}

	r.seek(varNamesOff)
	varNames := r.names(numVars)
	r.seek(varsOff)
	all := make([]Variable, 0, numVars)
	for _, n := range varNames {
		v := Variable{Name: n, Flags: r.u8(), Init: r.f32(), Min: r.f32(), Max: r.f32()}
		v.Value = v.Init
		all = append(all, v)
		if v.IsGlobal() {
			e.globals = append(e.globals, v)
		} else {
			e.cueVariables = append(e.cueVariables, v)
		}
	}

	if numCurves > 0 {
		r.seek(curvesOff)
	}
	for range numCurves {
		c := RpcCurve{FileOffset: uint32(r.pos)}
		vi := int(r.u16())
		n := int(r.u8())
		c.Parameter = RpcParameter(r.u16())
		c.Points = make([]RpcPoint, n)
		for j := range c.Points {
			c.Points[j] = RpcPoint{Position: r.f32(), Value: r.f32(), Type: RpcPointType(r.u8())}
		}
		if r.err != nil {
			break
		}
		if vi >= len(all) {
			r.fail("curve at %#x references variable %d of %d", c.FileOffset, vi, len(all))
			break
		}
		v := all[vi]
		c.IsGlobal = v.IsGlobal()
		if c.IsGlobal {
			c.Variable = findVariable(e.globals, v.Name)
		} else {
			c.Variable = findVariable(e.cueVariables, v.Name)
		}
		if c.Parameter >= RpcNumParameters && c.IsGlobal {
			e.reverbCurves = append(e.reverbCurves, len(e.curves))
		}
		e.curveOffsets[c.FileOffset] = len(e.curves)
		e.curves = append(e.curves, c)
	}

	if numDsp > 0 {
		r.seek(dspOff)
		e.reverb = make([]DspParameter, numDsp)
		for i := range e.reverb {
			e.reverb[i] = DspParameter{Value: r.f32(), Min: r.f32(), Max: r.f32()}
			r.skip(2)
		}
	}

	if r.err != nil {
		return diag.AsBuildError(diag.KindFormat, name, r.err)
	}
	e.log.Debug("xact: settings bank loaded",
		"file", name,
		"categories", len(e.categories),
		"variables", len(all),
		"curves", len(e.curves))
	return nil
}

// Version returns the settings bank format version.
func (e *Engine) Version() int { return e.version }

// Pool returns the pool sound instances are acquired from.
func (e *Engine) Pool() *sfx.Pool { return e.pool }

// Update advances every active cue by dt and applies global curves. It
// must be called once per frame.
func (e *Engine) Update(dt time.Duration) {
	sec := float32(dt.Seconds())
	e.active = slices.DeleteFunc(e.active, func(c *Cue) bool {
		c.update(sec)
		return c.IsStopped() || c.IsDisposed()
	})

	for _, i := range e.reverbCurves {
		c := &e.curves[i]
		p := int(c.Parameter - RpcNumParameters)
		if p < len(e.reverb) && c.Variable >= 0 {
			e.reverb[p].set(c.Evaluate(e.globals[c.Variable].Value))
		}
	}
}

// ActiveCues returns the number of cues Update is driving.
func (e *Engine) ActiveCues() int { return len(e.active) }

func (e *Engine) activate(c *Cue) {
	if !slices.Contains(e.active, c) {
		e.active = append(e.active, c)
	}
}

// Categories returns a handle for every category in file order.
func (e *Engine) Categories() []Category {
	out := make([]Category, len(e.categories))
	for i := range out {
		out[i] = Category{engine: e, index: i}
	}
	return out
}

// GetCategory returns the named category.
func (e *Engine) GetCategory(name string) (Category, error) {
	i, ok := e.catIndex[name]
	if !ok {
		return Category{}, fmt.Errorf("%w: category %q", ErrNotFound, name)
	}
	return Category{engine: e, index: i}, nil
}

// Variables returns a copy of the global variables.
func (e *Engine) Variables() []Variable { return slices.Clone(e.globals) }

// CueVariables returns a copy of the per-cue variable templates.
func (e *Engine) CueVariables() []Variable { return slices.Clone(e.cueVariables) }

// GetGlobalVariable returns the value of a global variable.
func (e *Engine) GetGlobalVariable(name string) (float32, error) {
	i := findVariable(e.globals, name)
	if i < 0 {
		return 0, fmt.Errorf("%w: global variable %q", ErrNotFound, name)
	}
	return e.globals[i].Value, nil
}

// SetGlobalVariable sets a global variable, clamped to its range.
func (e *Engine) SetGlobalVariable(name string, value float32) error {
	i := findVariable(e.globals, name)
	if i < 0 {
		return fmt.Errorf("%w: global variable %q", ErrNotFound, name)
	}
	if e.globals[i].IsReadOnly() {
		return fmt.Errorf("%w: %q", ErrReadOnly, name)
	}
	e.globals[i].set(value)
	return nil
}

// Curves returns the RPC curves in file order.
func (e *Engine) Curves() []RpcCurve { return slices.Clone(e.curves) }

// curveAt resolves a curve by its settings bank offset.
func (e *Engine) curveAt(offset uint32) (int, bool) {
	i, ok := e.curveOffsets[offset]
	return i, ok
}

// ReverbParameters returns the current DSP reverb settings.
func (e *Engine) ReverbParameters() []DspParameter { return slices.Clone(e.reverb) }

// WaveBank returns a registered wave bank by name.
func (e *Engine) WaveBank(name string) (*WaveBank, bool) {
	wb, ok := e.waveBanks[name]
	return wb, ok
}

func (e *Engine) register(wb *WaveBank) {
	e.waveBanks[wb.name] = wb
}

// Close stops every active cue and drops the wave bank registry.
func (e *Engine) Close() error {
	if e.closed {
		return nil
	}
	for _, c := range e.active {
		c.Stop(Immediate)
	}
	e.active = nil
	clear(e.waveBanks)
	e.closed = true
	return nil
}

// nextSeq orders sound starts so categories can find the oldest instance.
func (e *Engine) nextSeq() uint64 {
	e.playSeq++
	return e.playSeq
}
