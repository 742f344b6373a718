// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

package goboardcheck

import (
	"testing"
)

func cortexM4Bank() RegisterBank {
	return RegisterBank{
		0xE000ED00: 0x410FC241, // CPUID, Cortex-M4 r0p1
		0xE000ED04: 0x00400000, // ICSR
		0xE000ED0C: 0xFA050200, // AIRCR
		0xE000ED14: 0x00000200, // CCR
		0xE000ED18: 0x00000000, // SHPR2
		0xE000ED1C: 0x00200000, // SHPR3
		0xE000ED24: 0x00070000, // SHCSR
	}
}

func TestInspectCpuReadsSystemControlBlock(t *testing.T) {
	report, err := InspectCpu(cortexM4Bank())
	if err != nil {
		t.Fatalf("InspectCpu: %v", err)
	}

	if report.CpuId != 0x410FC241 {
		t.Errorf("CpuId: got 0x%08x want 0x410FC241", report.CpuId)
	}
	if report.Aircr != 0xFA050200 {
		t.Errorf("Aircr: got 0x%08x want 0xFA050200", report.Aircr)
	}
	if report.Shcsr != 0x00070000 {
		t.Errorf("Shcsr: got 0x%08x want 0x00070000", report.Shcsr)
	}
}

func TestCpuReportDecoding(t *testing.T) {
	report := &CpuReport{CpuId: 0x410FC241}

	if got := report.Implementer(); got != 0x41 {
		t.Errorf("Implementer: got 0x%02x want 0x41 (ARM)", got)
	}
	if got := report.PartNumber(); got != 0xC24 {
		t.Errorf("PartNumber: got 0x%03x want 0xC24", got)
	}
	if !report.IsCortexM3M4() {
		t.Error("Cortex-M4 CPUID not recognized as M3/M4")
	}

	m0 := &CpuReport{CpuId: 0x410CC200}
	if m0.IsCortexM3M4() {
		t.Error("Cortex-M0 CPUID misread as M3/M4")
	}
}

func TestInspectCpuUnmappedRegister(t *testing.T) {
	bank := cortexM4Bank()
	delete(bank, 0xE000ED0C)

	if _, err := InspectCpu(bank); err == nil {
		t.Error("expected an error for an unmapped register")
	}
}

func TestGetTargetInformation(t *testing.T) {
	info := GetTargetInformation("STM32F070CB")
	if info == nil {
		t.Fatal("known device not found")
	}
	if info.RamStart != 0x20000000 || info.RamSize != 0x4000 {
		t.Errorf("STM32F070CB: got [0x%x, 0x%x]", info.RamStart, info.RamSize)
	}

	if GetTargetInformation("STM32F999ZZ") != nil {
		t.Error("unknown device should return nil")
	}
}
