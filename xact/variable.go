// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package xact

// Variable flags as stored in the settings bank.
const (
	varPublic   = 0x1
	varReadOnly = 0x2
	varCue      = 0x4
	varReserved = 0x8
)

// Variable is a named runtime parameter. Global variables live on the
// engine; cue variables are copied into every cue.
type Variable struct {
	Name  string
	Flags uint8
	Init  float32
	Min   float32
	Max   float32
	Value float32
}

// IsPublic reports whether the variable is visible to game code.
func (v *Variable) IsPublic() bool { return v.Flags&varPublic != 0 }

// IsReadOnly reports whether game code may not write the variable.
func (v *Variable) IsReadOnly() bool { return v.Flags&varReadOnly != 0 }

// IsGlobal reports whether the variable is shared by all cues.
func (v *Variable) IsGlobal() bool { return v.Flags&varCue == 0 }

// IsReserved reports whether the runtime drives the variable itself, such
// as Distance or OrientationAngle.
func (v *Variable) IsReserved() bool { return v.Flags&varReserved != 0 }

// set stores value clamped to the variable's range.
func (v *Variable) set(value float32) {
	if v.Min < v.Max {
		value = clamp(value, v.Min, v.Max)
	}
	v.Value = value
}

func findVariable(vars []Variable, name string) int {
	for i := range vars {
		if vars[i].Name == name {
			return i
		}
	}
	return -1
}

// Reserved cue variable names driven by Apply3D.
const (
	VarDistance         = "Distance"
	VarOrientationAngle = "OrientationAngle"
)
