// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package main

import (
	"encoding/binary"
	"fmt"
)

const spirvMagic = 0x07230203

// Opcodes worth counting in a summary.
const (
	opEntryPoint = 15
	opFunction   = 54
	opVariable   = 59
)

// describeSPIRV summarizes a SPIR-V module header and its instruction
// stream.
func describeSPIRV(data []byte) string {
	if len(data) < 20 {
		return "truncated SPIR-V"
	}
	if magic := binary.LittleEndian.Uint32(data[0:4]); magic != spirvMagic {
		return fmt.Sprintf("invalid SPIR-V magic 0x%08X", magic)
	}
	version := binary.LittleEndian.Uint32(data[4:8])
	bound := binary.LittleEndian.Uint32(data[12:16])

	var insts, entries, funcs, vars int
	for offset := 20; offset+4 <= len(data); {
		word := binary.LittleEndian.Uint32(data[offset:])
		wordCount := int(word >> 16)
		if wordCount == 0 || offset+wordCount*4 > len(data) {
			return fmt.Sprintf("invalid word count %d at offset 0x%X", wordCount, offset)
		}
		switch word & 0xFFFF {
		case opEntryPoint:
			entries++
		case opFunction:
			funcs++
		case opVariable:
			vars++
		}
		insts++
		offset += wordCount * 4
	}
	return fmt.Sprintf("SPIR-V %d.%d bound=%d instructions=%d entry points=%d functions=%d variables=%d",
		(version>>16)&0xFF, (version>>8)&0xFF, bound, insts, entries, funcs, vars)
}
