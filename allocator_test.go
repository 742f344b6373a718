// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

package goboardcheck

import (
	"testing"
)

func TestArenaAllocWordRounding(t *testing.T) {
	arena := NewArena(64, DefaultRamStart)

	block := arena.Alloc(5)
	if block == nil {
		t.Fatal("Alloc(5) failed on an empty arena")
	}
	if block.SizeBytes() != 8 {
		t.Errorf("Alloc(5) size: got %d want 8", block.SizeBytes())
	}
	if block.Addr() != DefaultRamStart {
		t.Errorf("first block addr: got 0x%08x want 0x%08x", block.Addr(), uint32(DefaultRamStart))
	}
}

func TestArenaExhaustion(t *testing.T) {
	arena := NewArena(16, DefaultRamStart)

	if arena.Alloc(0) != nil {
		t.Error("Alloc(0) should fail")
	}

	first := arena.Alloc(16)
	if first == nil {
		t.Fatal("Alloc(16) failed")
	}
	if arena.Alloc(4) != nil {
		t.Error("allocation from a full arena should fail")
	}

	arena.Free(first)

	if arena.Alloc(16) == nil {
		t.Error("full-size allocation should succeed again after Free")
	}
}

func TestArenaCoalescesFreedChunks(t *testing.T) {
	arena := NewArena(64, DefaultRamStart)

	a := arena.Alloc(16)
	b := arena.Alloc(16)
	c := arena.Alloc(32)

	arena.Free(c)
	arena.Free(a)
	arena.Free(b)

	// out-of-order frees must still merge back into one chunk
	if arena.Alloc(64) == nil {
		t.Error("expected the whole arena to be allocatable after frees")
	}
}

func TestArenaBlockWordAccess(t *testing.T) {
	arena := NewArena(32, DefaultRamStart)

	block := arena.Alloc(32)
	if block.Words() != 8 {
		t.Fatalf("Words(): got %d want 8", block.Words())
	}

	block.SetWord(3, 0xDEADBEEF)
	if got := block.Word(3); got != 0xDEADBEEF {
		t.Errorf("Word(3): got 0x%08x want 0xDEADBEEF", got)
	}
}

func TestMmapArena(t *testing.T) {
	arena, err := NewMmapArena(4096, DefaultRamStart)
	if err != nil {
		t.Fatalf("NewMmapArena: %v", err)
	}
	defer arena.Close()

	block := arena.Alloc(4096)
	if block == nil {
		t.Fatal("Alloc over mapped arena failed")
	}

	block.SetWord(0, 0x01234567)
	if block.Word(0) != 0x01234567 {
		t.Error("mapped arena did not hold written word")
	}

	arena.Free(block)

	if err := arena.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}
