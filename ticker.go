// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

package goboardcheck

import (
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"
)

// DigitalPin is one output the flipper can toggle.
type DigitalPin interface {
	Toggle()
}

// TickCallback receives the number of ticks elapsed since AttachUs. The pin
// flipper ignores it, it is there for callbacks that care.
type TickCallback func(count uint32)

// Flipper arms a periodic callback at a microsecond interval, the software
// stand-in for the hardware us-ticker the bench test exercised. One flipper
// drives one callback; re-attach after Detach to rearm.
type Flipper struct {
	mutex       sync.Mutex
	ticker      *time.Ticker
	done        chan struct{}
	wg          sync.WaitGroup
	count       uint32
	intervalsUs []float64
	lastTick    time.Time
}

func NewFlipper() *Flipper {
	return &Flipper{}
}

// AttachUs arms the callback every intervalUs microseconds until Detach.
func (f *Flipper) AttachUs(callback TickCallback, intervalUs int64) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	if f.ticker != nil {
		logger.Warn("flipper already attached, detach it first")
		return
	}

	f.count = 0
	f.intervalsUs = nil
	f.lastTick = time.Now()
	f.ticker = time.NewTicker(time.Duration(intervalUs) * time.Microsecond)
	f.done = make(chan struct{})

	f.wg.Add(1)

	go func(ticker *time.Ticker, done chan struct{}) {
		defer f.wg.Done()

		for {
			select {
			case now := <-ticker.C:
				f.mutex.Lock()
				f.count++
				count := f.count
				f.intervalsUs = append(f.intervalsUs,
					float64(now.Sub(f.lastTick).Microseconds()))
				f.lastTick = now
				f.mutex.Unlock()

				callback(count)

			case <-done:
				return
			}
		}
	}(f.ticker, f.done)
}

// Detach disarms the callback and returns the number of ticks delivered.
func (f *Flipper) Detach() uint32 {
	f.mutex.Lock()

	if f.ticker == nil {
		f.mutex.Unlock()
		return 0
	}

	f.ticker.Stop()
	close(f.done)
	f.ticker = nil
	f.mutex.Unlock()

	f.wg.Wait()

	f.mutex.Lock()
	defer f.mutex.Unlock()

	return f.count
}

// JitterUs reports mean and standard deviation of the observed tick
// intervals in microseconds. Only meaningful after Detach.
func (f *Flipper) JitterUs() (float64, float64) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	if len(f.intervalsUs) == 0 {
		return 0, 0
	}

	mean, stddev := stat.MeanStdDev(f.intervalsUs, nil)

	return mean, stddev
}

// TogglePin is a DigitalPin backed by a boolean, with the current level
// readable for tests and diagnostics.
type TogglePin struct {
	mutex sync.Mutex
	level bool
	flips uint32
}

func (p *TogglePin) Toggle() {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.level = !p.level
	p.flips++
}

func (p *TogglePin) Level() bool {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	return p.level
}

func (p *TogglePin) Flips() uint32 {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	return p.flips
}
