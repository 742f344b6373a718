// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

package goboardcheck

import (
	"encoding/binary"
	"sort"

	"golang.org/x/sys/unix"
)

// DefaultRamStart is where Cortex-M devices map their SRAM.
const DefaultRamStart = 0x20000000

// Allocator hands out word-aligned blocks of the RAM under test.
type Allocator interface {
	Alloc(sizeBytes uint32) *MemBlock
	Free(block *MemBlock)
	WordSize() uint32
}

// MemBlock is an owned, contiguous range of allocator memory. While live its
// contents belong to whoever holds the handle; the RAM checker overwrites
// them completely.
type MemBlock struct {
	data []byte
	addr uint32
}

func (b *MemBlock) Addr() uint32 {
	return b.addr
}

func (b *MemBlock) SizeBytes() uint32 {
	return uint32(len(b.data))
}

func (b *MemBlock) Words() uint32 {
	return uint32(len(b.data)) / TargetWordBytes
}

func (b *MemBlock) Word(index uint32) uint32 {
	return binary.LittleEndian.Uint32(b.data[index*TargetWordBytes:])
}

func (b *MemBlock) SetWord(index uint32, value uint32) {
	binary.LittleEndian.PutUint32(b.data[index*TargetWordBytes:], value)
}

type chunk struct {
	start uint32 // byte offset into the arena
	size  uint32
}

// Arena is a first-fit allocator over one contiguous slice standing in for
// the board RAM. Freed chunks are coalesced with their neighbours on the
// next allocation, so repeated probe/release cycles see the full arena
// again.
type Arena struct {
	mem    []byte
	base   uint32
	freed  []chunk
	mapped bool
}

// NewArena returns an arena of sizeBytes rounded down to a whole word,
// addressed from base.
func NewArena(sizeBytes uint32, base uint32) *Arena {
	sizeBytes -= sizeBytes % TargetWordBytes

	return &Arena{
		mem:   make([]byte, sizeBytes),
		base:  base,
		freed: []chunk{{0, sizeBytes}},
	}
}

// NewMmapArena backs the arena with an anonymous mapping instead of a Go
// slice, so the probe exercises memory the runtime never touches. Release
// it with Close.
func NewMmapArena(sizeBytes uint32, base uint32) (*Arena, error) {
	sizeBytes -= sizeBytes % TargetWordBytes

	mem, err := unix.Mmap(-1, 0, int(sizeBytes), unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, err
	}

	return &Arena{
		mem:    mem,
		base:   base,
		freed:  []chunk{{0, sizeBytes}},
		mapped: true,
	}, nil
}

func (a *Arena) Close() error {
	if a.mapped {
		a.mapped = false
		return unix.Munmap(a.mem)
	}

	return nil
}

func (a *Arena) WordSize() uint32 {
	return TargetWordBytes
}

func (a *Arena) SizeBytes() uint32 {
	return uint32(len(a.mem))
}

// coalesce merges adjacent free chunks in place.
func (a *Arena) coalesce() {
	if len(a.freed) < 2 {
		return
	}

	sort.Slice(a.freed, func(i, j int) bool {
		return a.freed[i].start < a.freed[j].start
	})

	merged := a.freed[:1]

	for _, c := range a.freed[1:] {
		top := &merged[len(merged)-1]

		if top.start+top.size == c.start {
			top.size += c.size
		} else {
			merged = append(merged, c)
		}
	}

	a.freed = merged
}

func (a *Arena) Alloc(sizeBytes uint32) *MemBlock {
	if sizeBytes == 0 {
		return nil
	}

	// round up to a whole word, like any embedded allocator would
	sizeBytes = (sizeBytes + TargetWordBytes - 1) / TargetWordBytes * TargetWordBytes

	a.coalesce()

	for i, c := range a.freed {
		if c.size >= sizeBytes {
			tail := chunk{c.start + sizeBytes, c.size - sizeBytes}

			if tail.size > 0 {
				a.freed[i] = tail
			} else {
				a.freed = append(a.freed[:i], a.freed[i+1:]...)
			}

			return &MemBlock{
				data: a.mem[c.start : c.start+sizeBytes],
				addr: a.base + c.start,
			}
		}
	}

	return nil
}

func (a *Arena) Free(block *MemBlock) {
	if block == nil || len(block.data) == 0 {
		return
	}

	a.freed = append(a.freed, chunk{block.addr - a.base, block.SizeBytes()})
	block.data = nil
}
