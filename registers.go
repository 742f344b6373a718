// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

package goboardcheck

import (
	"unsafe"
)

// RegisterReader is the capability the CPU inspector needs: word reads from
// the target address space. The ST-Link probe provides the real one, tests
// and offline runs use a RegisterBank.
type RegisterReader interface {
	ReadWord(addr uint32) (uint32, error)
}

// RegisterBank is an in-memory register file keyed by absolute address.
type RegisterBank map[uint32]uint32

func (b RegisterBank) ReadWord(addr uint32) (uint32, error) {
	if value, ok := b[addr]; ok {
		return value, nil
	}

	return 0, NewProbeError("read of unmapped register address", ErrorFail)
}

// CpuReport is a snapshot of the System Control Block registers of interest
// plus the endianness of the host running the check.
type CpuReport struct {
	CpuId uint32
	Icsr  uint32
	Aircr uint32
	Ccr   uint32
	Shpr2 uint32
	Shpr3 uint32
	Shcsr uint32

	HostLittleEndian bool
}

// Implementer returns the implementer code from CPUID (0x41 is ARM).
func (r *CpuReport) Implementer() uint8 {
	return uint8(r.CpuId >> 24)
}

// PartNumber returns the primary part number from CPUID, e.g. 0xC24 for a
// Cortex-M4.
func (r *CpuReport) PartNumber() uint16 {
	return uint16((r.CpuId >> 4) & 0xfff)
}

// IsCortexM3M4 mirrors the check the st-link layer uses to pick the 4096
// byte autoincrement range.
func (r *CpuReport) IsCortexM3M4() bool {
	family := (r.CpuId >> 4) & 0xf

	return family == 3 || family == 4
}

func hostEndianness() Endian {
	var x uint32 = 0x01234567

	if (*(*[4]byte)(unsafe.Pointer(&x)))[0] == 0x67 {
		return littleEndian
	}

	return bigEndian
}

/**
  InspectCpu reads the System Control Block registers of interest through
  the given reader and logs them for human inspection. VTOR and SCR are not
  present on every core and are skipped.
*/
func InspectCpu(reader RegisterReader) (*CpuReport, error) {
	report := &CpuReport{
		HostLittleEndian: hostEndianness() == littleEndian,
	}

	logger.Info("*** Printing stuff of interest about the CPU.")
	logger.Infof("Host is %s.", hostEndianness().toString())

	registers := []struct {
		name   string
		offset uint32
		target *uint32
	}{
		{"CPUID", scbCpuIdOffset, &report.CpuId},
		{"ICSR", scbIcsrOffset, &report.Icsr},
		{"AIRCR", scbAircrOffset, &report.Aircr},
		{"CCR", scbCcrOffset, &report.Ccr},
		{"SHPR2", scbShpr2Offset, &report.Shpr2},
		{"SHPR3", scbShpr3Offset, &report.Shpr3},
		{"SHCSR", scbShcsrOffset, &report.Shcsr},
	}

	for _, reg := range registers {
		value, err := reader.ReadWord(scbBaseAddress + reg.offset*TargetWordBytes)

		if err != nil {
			return nil, err
		}

		*reg.target = value

		logger.Infof("%s: 0x%08x.", reg.name, value)
	}

	if report.IsCortexM3M4() {
		logger.Debug("Cortex M3/M4 part detected")
	}

	return report, nil
}

// StackProbeAddress returns the address of a fresh stack variable, for the
// "last stack entry" diagnostic line.
func StackProbeAddress() uintptr {
	var probe uint32

	return uintptr(unsafe.Pointer(&probe))
}
