// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

package goboardcheck

import (
	"github.com/boljen/go-bitmap"
)

// WordRange is the word-granular view the RAM checker walks. MemBlock
// implements it; tests substitute ranges with injected faults.
type WordRange interface {
	Addr() uint32
	Words() uint32
	Word(index uint32) uint32
	SetWord(index uint32, value uint32)
}

// CheckResult describes the outcome of one RAM check. StuckBits holds the
// bit positions that differed at the first failing word, so a single stuck
// data line shows up as exactly one set bit.
type CheckResult struct {
	Checked     bool
	Passed      bool
	FailAddress uint32
	Expected    uint32
	Actual      uint32
	StuckBits   bitmap.Bitmap
}

// nextWalking advances a walking-ones pattern by one position, wrapping
// back to bit 0 after bit 31.
func nextWalking(value uint32) uint32 {
	value <<= 1
	if value == 0 {
		value = 1
	}

	return value
}

/**
  CheckRam runs a walking-ones march over the given range and reports any
  mismatch through the logger. The range contents are destroyed.

  The first (non-inverted) pass only sensitizes the cells: it writes the
  pattern and advances over the range without comparing. Only the inverted
  pass reads back and compares, stopping at the first bad word. The check is
  advisory; a failure is logged, never escalated.
*/
func CheckRam(mem WordRange) CheckResult {
	result := CheckResult{Passed: true}

	if mem == nil || mem.Words() == 0 {
		return result
	}

	words := mem.Words()
	result.Checked = true

	logger.Infof("*** Checking RAM, from 0x%08x to 0x%08x.", mem.Addr(),
		mem.Addr()+words*TargetWordBytes)

	// walking 1 write pass
	value := uint32(1)
	for index := uint32(0); index < words; index++ {
		mem.SetWord(index, value)
		value = nextWalking(value)
	}

	// sensitizing read pass: re-derive the sequence and advance the cursor
	// over the whole range without comparing
	cursor := uint32(0)
	value = 1
	for ; cursor < words; cursor++ {
		value = nextWalking(value)
	}

	if cursor >= words {
		// inverted walking 1 write pass
		value = 1
		for index := uint32(0); index < words; index++ {
			mem.SetWord(index, ^value)
			value = nextWalking(value)
		}

		// inverted read pass, stops at the first mismatch
		cursor = 0
		value = 1
		for ; cursor < words && mem.Word(cursor) == ^value; cursor++ {
			value = nextWalking(value)
		}
	}

	if cursor < words {
		result.Passed = false
		result.FailAddress = mem.Addr() + cursor*TargetWordBytes
		result.Expected = ^value
		result.Actual = mem.Word(cursor)
		result.StuckBits = stuckBitMask(result.Expected, result.Actual)

		logger.Errorf("!!! RAM check failure at location 0x%08x (contents 0x%08x).",
			result.FailAddress, result.Actual)
		logStuckBits(result.StuckBits)
	}

	return result
}

func stuckBitMask(expected uint32, actual uint32) bitmap.Bitmap {
	mask := bitmap.New(32)

	diff := expected ^ actual
	for bit := 0; bit < 32; bit++ {
		if (diff>>bit)&1 == 1 {
			mask.Set(bit, true)
		}
	}

	return mask
}

func logStuckBits(mask bitmap.Bitmap) {
	for bit := 0; bit < mask.Len(); bit++ {
		if mask.Get(bit) {
			logger.Debugf("    bit %d differs from expected pattern", bit)
		}
	}
}
