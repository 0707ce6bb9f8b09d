// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package xact plays XACT audio projects.
//
// A project is three kinds of files. The settings bank (.xgs) defines
// categories, variables and RPC curves and becomes the [Engine]. Sound
// banks (.xsb) define cues. Wave banks (.xwb) hold the audio data and
// register with the engine under their bank name.
//
//	engine, err := xact.OpenEngine("Content/Game.xgs")
//	waves, err := engine.OpenWaveBank("Content/Waves.xwb")
//	sounds, err := engine.OpenSoundBank("Content/Sounds.xsb")
//
//	cue, err := sounds.GetCue("explosion")
//	cue.Play()
//	for running {
//	    engine.Update(frameTime)
//	}
//
// Audio is produced by the engine's [sfx.Pool]; hand its Streamer to a
// speaker. When the pool is exhausted new sounds are skipped silently.
//
// The engine is not safe for concurrent use. Drive it, and every bank
// and cue created from it, from one goroutine.
package xact
