// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package effect

import "hash/fnv"

// ComputeKey returns the effect key of a serialized body: 32-bit FNV-1a
// followed by an avalanche mix on the signed value.
func ComputeKey(body []byte) int32 {
	h := fnv.New32a()
	_, _ = h.Write(body)
	hash := int32(h.Sum32())

	hash += hash << 13
	hash ^= hash >> 7
	hash += hash << 3
	hash ^= hash >> 17
	hash += hash << 5
	return hash
}
