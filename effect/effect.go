// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package effect

import (
	"fmt"

	"github.com/gogpu/contentcore/fx"
)

// Stage is a programmable pipeline stage.
type Stage uint8

const (
	StageVertex Stage = iota
	StagePixel
)

func (s Stage) String() string {
	switch s {
	case StageVertex:
		return "vertex"
	case StagePixel:
		return "pixel"
	default:
		return fmt.Sprintf("Stage(%d)", s)
	}
}

// ParameterClass is the shape of a parameter.
type ParameterClass uint8

const (
	ClassScalar ParameterClass = iota
	ClassVector
	ClassMatrixRows
	ClassMatrixColumns
	ClassObject
	ClassStruct
)

var classNames = [...]string{"SCALAR", "VECTOR", "MATRIX_ROWS", "MATRIX_COLUMNS", "OBJECT", "STRUCT"}

func (c ParameterClass) String() string {
	if int(c) < len(classNames) {
		return classNames[c]
	}
	return fmt.Sprintf("ParameterClass(%d)", c)
}

// ParameterType is the element type of a parameter.
type ParameterType uint8

const (
	TypeVoid ParameterType = iota
	TypeBool
	TypeInt
	TypeFloat
	TypeString
	TypeTexture
	TypeTexture1D
	TypeTexture2D
	TypeTexture3D
	TypeTextureCube
)

var typeNames = [...]string{"VOID", "BOOL", "INT", "FLOAT", "STRING", "TEXTURE", "TEXTURE1D", "TEXTURE2D", "TEXTURE3D", "TEXTURECUBE"}

func (t ParameterType) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return fmt.Sprintf("ParameterType(%d)", t)
}

// IsNumeric reports whether values of the type carry inline data.
func (t ParameterType) IsNumeric() bool {
	return t == TypeBool || t == TypeInt || t == TypeFloat
}

// Parameter is one named slot of the effect parameter table or of a
// constant buffer.
type Parameter struct {
	Name     string
	Semantic string
	Class    ParameterClass
	Type     ParameterType
	Rows     uint8
	Columns  uint8

	// Elements holds one parameter per array element.
	Elements []*Parameter
	// Members holds the struct members.
	Members []*Parameter

	BufferOffset int

	// Data is the little-endian initial value, 4 bytes per component.
	Data []byte
}

// ElementCount returns the array length or 0 for a non-array.
func (p *Parameter) ElementCount() int {
	return len(p.Elements)
}

// SameShape reports whether q describes the same type as p.
func (p *Parameter) SameShape(q *Parameter) bool {
	return p.Class == q.Class &&
		p.Type == q.Type &&
		p.Rows == q.Rows &&
		p.Columns == q.Columns &&
		p.ElementCount() == q.ElementCount()
}

// ConstantBufferData is one uniform block. ParameterIndex is filled by the
// linker and maps each parameter to the effect parameter table.
type ConstantBufferData struct {
	Name            string
	Size            int
	ParameterIndex  []int
	ParameterOffset []int
	Parameters      []*Parameter
}

// SameAs reports whether two buffers share name, size and parameter layout.
func (cb *ConstantBufferData) SameAs(other *ConstantBufferData) bool {
	if cb.Name != other.Name || cb.Size != other.Size || len(cb.Parameters) != len(other.Parameters) {
		return false
	}
	for i, p := range cb.Parameters {
		q := other.Parameters[i]
		if p.Name != q.Name ||
			p.Rows != q.Rows ||
			p.Columns != q.Columns ||
			p.Class != q.Class ||
			p.Type != q.Type ||
			cb.ParameterOffset[i] != other.ParameterOffset[i] {
			return false
		}
	}
	return true
}

// SamplerType is the dimensionality of a sampled texture.
type SamplerType uint8

const (
	Sampler2D SamplerType = iota
	SamplerCube
	SamplerVolume
	Sampler1D
)

// ParameterType returns the texture parameter type bound to the sampler.
func (t SamplerType) ParameterType() ParameterType {
	switch t {
	case Sampler1D:
		return TypeTexture1D
	case SamplerCube:
		return TypeTextureCube
	case SamplerVolume:
		return TypeTexture3D
	default:
		return TypeTexture2D
	}
}

// Sampler is a texture/sampler binding reflected from a shader.
type Sampler struct {
	Type        SamplerType
	TextureSlot int
	SamplerSlot int

	// SamplerName is the combined sampler name seen by text backends.
	SamplerName string

	// ParameterName is the effect parameter the texture is bound to.
	ParameterName string

	// Parameter is the index into the effect parameter table.
	Parameter int

	// State is nil when the effect declares no sampler_state for it.
	State *fx.SamplerState
}

// VertexElementUsage identifies the semantic of a vertex input.
type VertexElementUsage uint8

const (
	UsagePosition VertexElementUsage = iota
	UsageColor
	UsageTextureCoordinate
	UsageNormal
	UsageBinormal
	UsageTangent
	UsageBlendIndices
	UsageBlendWeight
	UsageDepth
	UsageFog
	UsagePointSize
	UsageSample
	UsageTessellateFactor
)

// Attribute is one vertex shader input.
type Attribute struct {
	Name     string
	Usage    VertexElementUsage
	Index    int
	Location int
}

// ShaderData is one compiled program with its reflection data.
type ShaderData struct {
	Stage Stage

	// Bytecode is the debug build and the identity used for dedup.
	Bytecode []byte

	// StrippedBytecode is the build written to release output.
	StrippedBytecode []byte

	Samplers []Sampler

	// ConstantBuffers indexes Object.ConstantBuffers.
	ConstantBuffers []int

	Attributes []Attribute

	// SharedIndex is the position in Object.Shaders.
	SharedIndex int
}

// StateOperation is the pass state a shader binds to.
type StateOperation uint8

const (
	OperationVertexShader StateOperation = iota
	OperationPixelShader
)

// StateType tells how a pass state is evaluated.
type StateType uint8

const (
	StateConstant StateType = iota
	StateExpression
)

// PassState binds a shader to a pass.
type PassState struct {
	Operation StateOperation
	Type      StateType
	Index     int
}

// Pass is one linked pass. VertexShader and PixelShader are -1 when the
// pass does not bind that stage.
type Pass struct {
	Name         string
	States       []PassState
	VertexShader int
	PixelShader  int

	Blend        *fx.BlendState
	DepthStencil *fx.DepthStencilState
	Rasterizer   *fx.RasterizerState
}

// Technique is one linked technique.
type Technique struct {
	Name   string
	Passes []*Pass
}

// Object is the linked effect, ready for serialization.
type Object struct {
	Techniques      []*Technique
	Parameters      []*Parameter
	Shaders         []*ShaderData
	ConstantBuffers []*ConstantBufferData
}

// ParameterIndex returns the index of the named parameter, or -1.
func (o *Object) ParameterIndex(name string) int {
	for i, p := range o.Parameters {
		if p.Name == name {
			return i
		}
	}
	return -1
}
