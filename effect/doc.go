// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package effect links parsed effects into a compiled effect object and
// serializes it.
//
// Compile walks the techniques of an fx.ShaderInfo, asks a ShaderProfile to
// compile each pass's shaders, folds byte-identical shaders and
// structurally equal constant buffers into shared entries, and builds the
// flat parameter table. Marshal writes the result in the MGFX layout; Read
// decodes it again.
package effect
