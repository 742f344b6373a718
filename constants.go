// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

package goboardcheck

// Cortex-M System Control Block. The word offsets mirror the SCB layout;
// VTOR and SCR are not populated on every core, so the inspector skips them.
const (
	scbBaseAddress = 0xE000ED00

	scbCpuIdOffset = 0 // CPUID base register
	scbIcsrOffset  = 1 // interrupt control and state
	scbAircrOffset = 3 // application interrupt and reset control
	scbCcrOffset   = 5 // configuration and control
	scbShpr2Offset = 6 // system handler priority 2
	scbShpr3Offset = 7 // system handler priority 3
	scbShcsrOffset = 8 // system handler control and state
)

// machine word on a Cortex-M target
const TargetWordBytes = 4

// DefaultSystemRamBytes is the heap probe cap when no target device is given.
const DefaultSystemRamBytes = 20480

const (
	DefaultBaudRate       = 9600
	DefaultFlipIntervalUs = 100
	DefaultFlipWindowSecs = 2
)

// st-link usb ids
const (
	AllSupportedVIds = 0xFFFF
	AllSupportedPIds = 0xFFFF
)

const (
	cmdGetVersion     = 0xF1
	cmdDebug          = 0xF2
	cmdGetCurrentMode = 0xF5
)

const (
	debugReadMem32Bit     = 0x07
	debugApiV2Enter       = 0x30
	debugEnterSwdNoReset  = 0xa3
	debugApiV2ReadIdCodes = 0x31
	debugExit             = 0x21
)

const (
	debugErrOk    = 0x80
	debugErrFault = 0x81
	swdApWait     = 0x10
	swdDpWait     = 0x14
)

const (
	cmdBufferSize  = 16
	dataBufferSize = 4096

	maximumWaitRetries = 8
)
