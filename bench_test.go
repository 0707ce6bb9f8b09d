// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package contentcore

import (
	"runtime"
	"testing"

	"github.com/gogpu/contentcore/effect"
	"github.com/gogpu/contentcore/fx"
	"github.com/gogpu/contentcore/preprocess"
	"github.com/gogpu/contentcore/profile"
)

// ---------------------------------------------------------------------------
// End-to-End: effect builds per platform
// ---------------------------------------------------------------------------

// BenchmarkBuildEffect benchmarks the full pipeline from effect source to
// serialized effect for every platform family.
func BenchmarkBuildEffect(b *testing.B) {
	for _, platform := range []string{"vulkan", "opengl", "webgl", "directx", "metal"} {
		b.Run(platform, func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(colorEffect)))
			b.ResetTimer()

			var result *EffectResult
			for i := 0; i < b.N; i++ {
				var err error
				result, err = BuildEffect("color.fx", []byte(colorEffect), Options{Platform: platform, FS: includes})
				if err != nil {
					b.Fatalf("build failed: %v", err)
				}
			}
			runtime.KeepAlive(result)
		})
	}
}

// ---------------------------------------------------------------------------
// Per-stage benchmarks
// ---------------------------------------------------------------------------

// BenchmarkParseEffect benchmarks the preprocessor and grammar parser.
func BenchmarkParseEffect(b *testing.B) {
	pre := preprocess.New(preprocess.Options{FS: includes})
	b.ReportAllocs()
	b.SetBytes(int64(len(colorEffect)))
	b.ResetTimer()

	var info *fx.ShaderInfo
	for i := 0; i < b.N; i++ {
		res, err := pre.Process("color.fx", colorEffect)
		if err != nil {
			b.Fatalf("preprocess failed: %v", err)
		}
		info, err = fx.Parse("color.fx", res.Text)
		if err != nil {
			b.Fatalf("parse failed: %v", err)
		}
	}
	runtime.KeepAlive(info)
}

// BenchmarkMarshal benchmarks serialization of a linked effect.
func BenchmarkMarshal(b *testing.B) {
	res, err := BuildEffect("color.fx", []byte(colorEffect), Options{Platform: "vulkan", FS: includes})
	if err != nil {
		b.Fatalf("build failed: %v", err)
	}
	opts := effect.WriteOptions{FormatID: profile.FormatSPIRV, Source: "color.fx"}
	b.ReportAllocs()
	b.ResetTimer()

	var data []byte
	for i := 0; i < b.N; i++ {
		data, err = effect.Marshal(res.Object, opts)
		if err != nil {
			b.Fatalf("marshal failed: %v", err)
		}
	}
	runtime.KeepAlive(data)
}
