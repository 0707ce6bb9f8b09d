// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package main

import (
	"io"

	"gopkg.in/yaml.v3"

	"github.com/gogpu/contentcore/xact"
)

type report struct {
	Settings  settingsDump   `yaml:"settings"`
	WaveBanks []waveBankDump `yaml:"waveBanks,omitempty"`
	SoundBank *soundBankDump `yaml:"soundBank,omitempty"`
}

type settingsDump struct {
	Version      int            `yaml:"version"`
	Categories   []categoryDump `yaml:"categories"`
	Globals      []variableDump `yaml:"globals"`
	CueVariables []variableDump `yaml:"cueVariables"`
	Curves       []curveDump    `yaml:"curves,omitempty"`
	Reverb       []float32      `yaml:"reverb,omitempty"`
}

type categoryDump struct {
	Name         string  `yaml:"name"`
	MaxInstances int     `yaml:"maxInstances"`
	Behavior     string  `yaml:"behavior"`
	Volume       float32 `yaml:"volume"`
	Music        bool    `yaml:"music,omitempty"`
}

type variableDump struct {
	Name     string  `yaml:"name"`
	Init     float32 `yaml:"init"`
	Min      float32 `yaml:"min"`
	Max      float32 `yaml:"max"`
	ReadOnly bool    `yaml:"readOnly,omitempty"`
	Reserved bool    `yaml:"reserved,omitempty"`
}

type curveDump struct {
	Offset    uint32       `yaml:"offset"`
	Variable  string       `yaml:"variable"`
	Parameter string       `yaml:"parameter"`
	Points    [][2]float32 `yaml:"points,flow"`
}

type waveBankDump struct {
	Name      string     `yaml:"name"`
	Version   int        `yaml:"version"`
	Streaming bool       `yaml:"streaming,omitempty"`
	Waves     []waveDump `yaml:"waves"`
}

type waveDump struct {
	Codec      string `yaml:"codec"`
	Channels   int    `yaml:"channels"`
	SampleRate int    `yaml:"sampleRate"`
	Bits       int    `yaml:"bits"`
	Length     int    `yaml:"length"`
	Error      string `yaml:"error,omitempty"`
}

type soundBankDump struct {
	Version   int       `yaml:"version"`
	WaveBanks []string  `yaml:"waveBanks"`
	Cues      []cueDump `yaml:"cues"`
}

type cueDump struct {
	Name  string `yaml:"name"`
	Error string `yaml:"error,omitempty"`
}

func dumpEngine(e *xact.Engine) settingsDump {
	d := settingsDump{Version: e.Version()}
	for _, c := range e.Categories() {
		d.Categories = append(d.Categories, categoryDump{
			Name:         c.Name(),
			MaxInstances: c.MaxInstances(),
			Behavior:     c.Behavior().String(),
			Volume:       c.Volume(),
			Music:        c.IsBackgroundMusic(),
		})
	}
	globals, cueVars := e.Variables(), e.CueVariables()
	d.Globals = dumpVariables(globals)
	d.CueVariables = dumpVariables(cueVars)

	for _, c := range e.Curves() {
		cd := curveDump{Offset: c.FileOffset, Parameter: c.Parameter.String()}
		vars := cueVars
		if c.IsGlobal {
			vars = globals
		}
		if c.Variable >= 0 && c.Variable < len(vars) {
			cd.Variable = vars[c.Variable].Name
		}
		for _, p := range c.Points {
			cd.Points = append(cd.Points, [2]float32{p.Position, p.Value})
		}
		d.Curves = append(d.Curves, cd)
	}
	for _, p := range e.ReverbParameters() {
		d.Reverb = append(d.Reverb, p.Value)
	}
	return d
}

func dumpVariables(vars []xact.Variable) []variableDump {
	out := make([]variableDump, 0, len(vars))
	for _, v := range vars {
		out = append(out, variableDump{
			Name:     v.Name,
			Init:     v.Init,
			Min:      v.Min,
			Max:      v.Max,
			ReadOnly: v.IsReadOnly(),
			Reserved: v.IsReserved(),
		})
	}
	return out
}

func dumpWaveBank(wb *xact.WaveBank) waveBankDump {
	d := waveBankDump{Name: wb.Name(), Version: wb.Version(), Streaming: wb.IsStreaming()}
	for i := range wb.Len() {
		w, _ := wb.Entry(i)
		wd := waveDump{
			Codec:      w.Format.Codec.String(),
			Channels:   w.Format.Channels,
			SampleRate: w.Format.SampleRate,
			Bits:       w.Format.BitsPerSample,
			Length:     w.Length,
		}
		if err := w.Err(); err != nil {
			wd.Error = err.Error()
		}
		d.Waves = append(d.Waves, wd)
	}
	return d
}

func dumpSoundBank(sb *xact.SoundBank) *soundBankDump {
	d := &soundBankDump{Version: sb.Version(), WaveBanks: sb.WaveBankNames()}
	for _, name := range sb.CueNames() {
		cd := cueDump{Name: name}
		if _, err := sb.GetCue(name); err != nil {
			cd.Error = err.Error()
		}
		d.Cues = append(d.Cues, cd)
	}
	return d
}

func writeYAML(w io.Writer, r report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return err
	}
	return enc.Close()
}
