// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

package goboardcheck

import (
	"testing"
	"time"
)

func TestFlipperTogglesPin(t *testing.T) {
	pin := &TogglePin{}
	flipper := NewFlipper()

	flipper.AttachUs(func(count uint32) { pin.Toggle() }, 1000)

	time.Sleep(50 * time.Millisecond)

	ticks := flipper.Detach()

	if ticks == 0 {
		t.Fatal("no ticks delivered in 50ms at 1ms interval")
	}
	if pin.Flips() != ticks {
		t.Errorf("pin flipped %d times for %d ticks", pin.Flips(), ticks)
	}
}

func TestFlipperDetachStopsCallbacks(t *testing.T) {
	pin := &TogglePin{}
	flipper := NewFlipper()

	flipper.AttachUs(func(count uint32) { pin.Toggle() }, 1000)
	time.Sleep(20 * time.Millisecond)
	flipper.Detach()

	flips := pin.Flips()
	time.Sleep(20 * time.Millisecond)

	if pin.Flips() != flips {
		t.Error("pin kept flipping after Detach")
	}
}

func TestFlipperDetachWithoutAttach(t *testing.T) {
	flipper := NewFlipper()

	if ticks := flipper.Detach(); ticks != 0 {
		t.Errorf("Detach without Attach: got %d ticks want 0", ticks)
	}
}

func TestFlipperJitterStats(t *testing.T) {
	flipper := NewFlipper()

	flipper.AttachUs(func(count uint32) {}, 1000)
	time.Sleep(50 * time.Millisecond)
	flipper.Detach()

	mean, _ := flipper.JitterUs()

	// a host scheduler won't hit 1000us exactly, but the mean should be in
	// the right neighbourhood
	if mean < 500 || mean > 20000 {
		t.Errorf("mean interval %f us implausible for a 1000 us ticker", mean)
	}
}

func TestFlipperRearm(t *testing.T) {
	pin := &TogglePin{}
	flipper := NewFlipper()

	flipper.AttachUs(func(count uint32) { pin.Toggle() }, 1000)
	time.Sleep(20 * time.Millisecond)

	first := flipper.Detach()

	flipper.AttachUs(func(count uint32) { pin.Toggle() }, 1000)
	time.Sleep(20 * time.Millisecond)

	second := flipper.Detach()

	if first == 0 || second == 0 {
		t.Errorf("rearm failed: first %d ticks, second %d ticks", first, second)
	}
}
