// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package main

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
)

func spirvWords(words ...uint32) []byte {
	out := make([]byte, 0, 4*len(words))
	for _, w := range words {
		out = binary.LittleEndian.AppendUint32(out, w)
	}
	return out
}

func TestDescribeSPIRV(t *testing.T) {
	data := spirvWords(
		spirvMagic, 0x00010300, 0, 9, 0,
		2<<16|17, 1, // OpCapability Shader
		4<<16|opVariable, 1, 2, 3,
		5<<16|opFunction, 4, 5, 0, 6,
		1<<16|56, // OpFunctionEnd
	)
	assert.Equal(t,
		"SPIR-V 1.3 bound=9 instructions=4 entry points=0 functions=1 variables=1",
		describeSPIRV(data))
}

func TestDescribeSPIRVRejects(t *testing.T) {
	assert.Equal(t, "truncated SPIR-V", describeSPIRV([]byte{1, 2, 3}))
	assert.Contains(t, describeSPIRV(spirvWords(1, 2, 3, 4, 5)), "invalid SPIR-V magic")
	assert.Contains(t, describeSPIRV(spirvWords(spirvMagic, 0, 0, 1, 0, 9<<16|17)), "invalid word count")
}
