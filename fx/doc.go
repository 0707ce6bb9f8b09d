// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package fx parses the effect layer of an effect file.
//
// An effect file is WGSL shader code interleaved with technique blocks and
// sampler_state declarations:
//
//	sampler2D DiffuseSampler = sampler_state {
//	    Texture = <Diffuse>;
//	    MinFilter = Linear;
//	    AddressU = Clamp;
//	};
//
//	technique Basic {
//	    pass P0 {
//	        VertexShader = compile vs_3_0 vs_main();
//	        PixelShader = compile ps_3_0 fs_main();
//	        AlphaBlendEnable = true;
//	    }
//	}
//
// Parse evaluates those blocks into a ShaderInfo and produces CleanSource,
// a copy of the input in which every effect block is blanked out so the
// remainder can be handed to a shader compiler with unchanged positions.
//
// Errors of the whole file are collected into SourceErrors rather than
// stopping at the first one.
package fx
