// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package xact

import "errors"

var (
	// ErrNotFound reports an unknown cue, category or variable name.
	ErrNotFound = errors.New("xact: not found")

	// ErrReadOnly reports a write to a read-only variable.
	ErrReadOnly = errors.New("xact: variable is read-only")

	// ErrDisposed reports use of a disposed cue.
	ErrDisposed = errors.New("xact: cue is disposed")

	// ErrInvalidState reports a cue operation that its state does not allow.
	ErrInvalidState = errors.New("xact: invalid cue state")

	// ErrInstanceLimit reports a cue rejected by its own instance limit.
	ErrInstanceLimit = errors.New("xact: cue instance limit reached")

	// ErrEngineClosed reports a load against a closed engine.
	ErrEngineClosed = errors.New("xact: engine is closed")
)
