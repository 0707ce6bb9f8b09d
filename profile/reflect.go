// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package profile

import (
	"sort"
	"strconv"
	"strings"

	"github.com/gogpu/naga/ir"

	"github.com/gogpu/contentcore/effect"
)

// reflection is what an entry point uses from the module.
type reflection struct {
	globals []ir.GlobalVariableHandle
	pairs   []samplePair
}

// samplePair is one texture sampled with one sampler.
type samplePair struct {
	texture ir.GlobalVariableHandle
	sampler ir.GlobalVariableHandle
}

// reflectEntryPoint walks the entry point and every function it calls.
func reflectEntryPoint(m *ir.Module, ep *ir.EntryPoint) reflection {
	used := make(map[ir.GlobalVariableHandle]bool)
	paired := make(map[samplePair]bool)
	visited := make(map[ir.FunctionHandle]bool)

	var walk func(fn *ir.Function)
	walk = func(fn *ir.Function) {
		for _, e := range fn.Expressions {
			switch k := e.Kind.(type) {
			case ir.ExprGlobalVariable:
				used[k.Variable] = true
			case ir.ExprImageSample:
				tex, ok1 := globalOf(fn, k.Image)
				samp, ok2 := globalOf(fn, k.Sampler)
				if ok1 && ok2 {
					paired[samplePair{texture: tex, sampler: samp}] = true
				}
			}
		}
		calls(fn.Body, func(h ir.FunctionHandle) {
			if visited[h] || int(h) >= len(m.Functions) {
				return
			}
			visited[h] = true
			walk(&m.Functions[h])
		})
	}
	walk(&ep.Function)

	var r reflection
	for h := range used {
		r.globals = append(r.globals, h)
	}
	sort.Slice(r.globals, func(i, j int) bool { return r.globals[i] < r.globals[j] })
	for p := range paired {
		r.pairs = append(r.pairs, p)
	}
	sort.Slice(r.pairs, func(i, j int) bool {
		if r.pairs[i].texture != r.pairs[j].texture {
			return r.pairs[i].texture < r.pairs[j].texture
		}
		return r.pairs[i].sampler < r.pairs[j].sampler
	})
	return r
}

func globalOf(fn *ir.Function, h ir.ExpressionHandle) (ir.GlobalVariableHandle, bool) {
	if int(h) >= len(fn.Expressions) {
		return 0, false
	}
	g, ok := fn.Expressions[h].Kind.(ir.ExprGlobalVariable)
	return g.Variable, ok
}

// calls reports every function called from block, nested blocks included.
func calls(block ir.Block, visit func(ir.FunctionHandle)) {
	for _, st := range block {
		switch k := st.Kind.(type) {
		case ir.StmtCall:
			visit(k.Function)
		case ir.StmtBlock:
			calls(k.Block, visit)
		case ir.StmtIf:
			calls(k.Accept, visit)
			calls(k.Reject, visit)
		case ir.StmtLoop:
			calls(k.Body, visit)
			calls(k.Continuing, visit)
		case ir.StmtSwitch:
			for _, c := range k.Cases {
				calls(c.Body, visit)
			}
		}
	}
}

// constantBuffers builds one buffer per uniform global and interns it.
func constantBuffers(ctx *effect.LinkContext, m *ir.Module, r reflection) []int {
	var indices []int
	for _, h := range r.globals {
		g := &m.GlobalVariables[h]
		if g.Space != ir.SpaceUniform {
			continue
		}
		cb := &effect.ConstantBufferData{Name: g.Name}
		if st, ok := m.Types[g.Type].Inner.(ir.StructType); ok {
			cb.Size = int(st.Span)
			for _, mem := range st.Members {
				p := parameter(m, mem.Name, mem.Type)
				p.BufferOffset = int(mem.Offset)
				cb.Parameters = append(cb.Parameters, p)
				cb.ParameterOffset = append(cb.ParameterOffset, int(mem.Offset))
			}
		} else {
			cb.Size = int(ir.TypeSize(m, g.Type))
			cb.Parameters = []*effect.Parameter{parameter(m, g.Name, g.Type)}
			cb.ParameterOffset = []int{0}
		}
		indices = append(indices, ctx.InternConstantBuffer(cb))
	}
	return indices
}

// parameter describes a uniform value of type h.
func parameter(m *ir.Module, name string, h ir.TypeHandle) *effect.Parameter {
	p := &effect.Parameter{Name: name}
	switch t := m.Types[h].Inner.(type) {
	case ir.ScalarType:
		p.Class, p.Type, p.Rows, p.Columns = effect.ClassScalar, scalarType(t.Kind), 1, 1
	case ir.VectorType:
		p.Class, p.Type, p.Rows, p.Columns = effect.ClassVector, scalarType(t.Scalar.Kind), 1, uint8(t.Size)
	case ir.MatrixType:
		p.Class, p.Type = effect.ClassMatrixColumns, scalarType(t.Scalar.Kind)
		p.Rows, p.Columns = uint8(t.Rows), uint8(t.Columns)
	case ir.ArrayType:
		elem := parameter(m, "", t.Base)
		p.Class, p.Type, p.Rows, p.Columns = elem.Class, elem.Type, elem.Rows, elem.Columns
		if t.Size.Constant != nil {
			for range *t.Size.Constant {
				p.Elements = append(p.Elements, parameter(m, "", t.Base))
			}
		}
	case ir.StructType:
		p.Class, p.Type = effect.ClassStruct, effect.TypeVoid
		for _, mem := range t.Members {
			p.Members = append(p.Members, parameter(m, mem.Name, mem.Type))
		}
	default:
		p.Class, p.Type = effect.ClassObject, effect.TypeVoid
	}
	return p
}

func scalarType(k ir.ScalarKind) effect.ParameterType {
	switch k {
	case ir.ScalarBool:
		return effect.TypeBool
	case ir.ScalarSint, ir.ScalarUint, ir.ScalarAbstractInt:
		return effect.TypeInt
	default:
		return effect.TypeFloat
	}
}

// samplers describes every sampled texture. Slots number textures and
// samplers in declaration order. combined lists the names a backend gave
// merged texture-sampler uniforms, if it merges them.
func samplers(ctx *effect.LinkContext, m *ir.Module, r reflection, combined []string) []effect.Sampler {
	slot := func(list []ir.GlobalVariableHandle, h ir.GlobalVariableHandle) int {
		for i, x := range list {
			if x == h {
				return i
			}
		}
		return len(list)
	}
	var textures, samps []ir.GlobalVariableHandle
	for _, p := range r.pairs {
		if slot(textures, p.texture) == len(textures) {
			textures = append(textures, p.texture)
		}
		if slot(samps, p.sampler) == len(samps) {
			samps = append(samps, p.sampler)
		}
	}
	sort.Slice(samps, func(i, j int) bool { return samps[i] < samps[j] })

	out := make([]effect.Sampler, 0, len(r.pairs))
	for _, p := range r.pairs {
		tex := &m.GlobalVariables[p.texture]
		samp := &m.GlobalVariables[p.sampler]

		s := effect.Sampler{
			Type:          samplerType(m, tex.Type),
			TextureSlot:   slot(textures, p.texture),
			SamplerSlot:   slot(samps, p.sampler),
			SamplerName:   samp.Name,
			ParameterName: tex.Name,
		}
		if name := tex.Name + "_" + samp.Name; contains(combined, name) {
			s.SamplerName = name
		}
		if info, ok := ctx.Info.Sampler(samp.Name); ok {
			if info.TextureName != "" {
				s.ParameterName = info.TextureName
			}
			s.State = info.State
		}
		out = append(out, s)
	}
	return out
}

func samplerType(m *ir.Module, h ir.TypeHandle) effect.SamplerType {
	img, ok := m.Types[h].Inner.(ir.ImageType)
	if !ok {
		return effect.Sampler2D
	}
	switch img.Dim {
	case ir.Dim1D:
		return effect.Sampler1D
	case ir.Dim3D:
		return effect.SamplerVolume
	case ir.DimCube:
		return effect.SamplerCube
	default:
		return effect.Sampler2D
	}
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}

// attributes lists the vertex inputs of a vertex entry point, ordered by
// location.
func attributes(m *ir.Module, ep *ir.EntryPoint) []effect.Attribute {
	var out []effect.Attribute
	add := func(name string, b *ir.Binding) bool {
		if b == nil {
			return false
		}
		loc, ok := (*b).(ir.LocationBinding)
		if !ok {
			return false
		}
		usage, index := usageOf(name)
		out = append(out, effect.Attribute{Name: name, Usage: usage, Index: index, Location: int(loc.Location)})
		return true
	}
	for _, arg := range ep.Function.Arguments {
		if add(arg.Name, arg.Binding) {
			continue
		}
		if st, ok := m.Types[arg.Type].Inner.(ir.StructType); ok {
			for _, mem := range st.Members {
				add(mem.Name, mem.Binding)
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Location < out[j].Location })
	return out
}

var usagePrefixes = []struct {
	prefix string
	usage  effect.VertexElementUsage
}{
	{"position", effect.UsagePosition},
	{"pos", effect.UsagePosition},
	{"colour", effect.UsageColor},
	{"color", effect.UsageColor},
	{"normal", effect.UsageNormal},
	{"binormal", effect.UsageBinormal},
	{"bitangent", effect.UsageBinormal},
	{"tangent", effect.UsageTangent},
	{"blendindices", effect.UsageBlendIndices},
	{"joints", effect.UsageBlendIndices},
	{"blendweight", effect.UsageBlendWeight},
	{"weights", effect.UsageBlendWeight},
	{"psize", effect.UsagePointSize},
	{"pointsize", effect.UsagePointSize},
	{"fog", effect.UsageFog},
	{"depth", effect.UsageDepth},
	{"sample", effect.UsageSample},
}

// usageOf derives a vertex element usage from an input name such as
// "position", "color1" or "in_texcoord0". Unknown names are texture
// coordinates.
func usageOf(name string) (effect.VertexElementUsage, int) {
	stem := strings.ToLower(name)
	stem = strings.TrimPrefix(stem, "in_")
	stem = strings.TrimPrefix(stem, "a_")

	digits := len(stem)
	for digits > 0 && stem[digits-1] >= '0' && stem[digits-1] <= '9' {
		digits--
	}
	index, _ := strconv.Atoi(stem[digits:])
	stem = strings.TrimRight(stem[:digits], "_")

	for _, u := range usagePrefixes {
		if strings.HasPrefix(stem, u.prefix) {
			return u.usage, index
		}
	}
	return effect.UsageTextureCoordinate, index
}
