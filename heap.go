// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

package goboardcheck

// ProbeLargestAllocation asks the allocator for the largest block it will
// hand out, starting at targetSizeBytes and backing off one machine word per
// failed attempt. A plain linear backoff is deliberate: it cannot be fooled
// by fragmentation the way a bisection can, it is just slow in the worst
// case.
//
// Returns the block and its exact size, or nil and 0 when even the smallest
// request fails.
func ProbeLargestAllocation(a Allocator, targetSizeBytes uint32) (*MemBlock, uint32) {
	sizeBytes := int64(targetSizeBytes)

	var block *MemBlock = nil

	for block == nil && sizeBytes > 0 {
		block = a.Alloc(uint32(sizeBytes))

		if block == nil {
			sizeBytes -= int64(a.WordSize())
		}
	}

	if sizeBytes < 0 || block == nil {
		sizeBytes = 0
	}

	return block, uint32(sizeBytes)
}

/**
  ProbeTotalHeap measures how much heap the allocator can hand out in total,
  capped per request at capBytes. The allocator may be unable to satisfy one
  giant request, so blocks are chained: after the first block succeeds and
  passes the RAM check, further blocks are allocated until the allocator is
  exhausted.

  The chain is kept as an explicit slice of block handles, but each chained
  block's start address is still recorded into the first block's word slots
  for diagnostic visibility, and the chain never grows past the number of
  pointer slots the first block can hold. Teardown releases the chained
  blocks in strict reverse allocation order, the first block last.

  Returns the number of bytes successfully allocated and checked.
*/
func ProbeTotalHeap(a Allocator, capBytes uint32) uint32 {
	var totalHeapSizeBytes uint32 = 0

	firstBlock, firstSizeBytes := ProbeLargestAllocation(a, capBytes)

	if firstBlock == nil {
		return 0
	}

	CheckRam(firstBlock)

	totalHeapSizeBytes += firstSizeBytes

	maxSlots := firstSizeBytes / a.WordSize()
	chain := make([]*MemBlock, 0, maxSlots)

	laterSizeBytes := capBytes

	for slot := uint32(0); slot < maxSlots && laterSizeBytes > 0; slot++ {
		block, sizeBytes := ProbeLargestAllocation(a, laterSizeBytes)

		if block == nil {
			break
		}

		firstBlock.SetWord(slot, block.Addr())

		CheckRam(block)

		totalHeapSizeBytes += sizeBytes
		laterSizeBytes = capBytes
		chain = append(chain, block)
	}

	// later blocks first; their addresses live in the first block, which
	// must stay valid until they are gone
	for i := len(chain) - 1; i >= 0; i-- {
		a.Free(chain[i])
	}

	a.Free(firstBlock)

	return totalHeapSizeBytes
}
