// File: internal/bitmap/features.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Runtime detection of hardware bit-scan and population-count support.

package bitmap

import (
	"runtime"

	"golang.org/x/sys/cpu"
)

// Features describes how the bit primitives execute on this machine.
type Features struct {
	Arch        string
	Portable    bool // purego build: loop fallbacks in use
	HardwarePop bool // native population count instruction present
	HardwareBSF bool // native trailing-zero / bit-scan instruction present
}

// Detect reports the bit primitive features for the running CPU.
func Detect() Features {
	f := Features{Arch: runtime.GOARCH, Portable: portable}
	switch runtime.GOARCH {
	case "amd64", "386":
		f.HardwarePop = cpu.X86.HasPOPCNT
		// BSF is baseline on x86; TZCNT comes with BMI1.
		f.HardwareBSF = true
	case "arm64":
		// CNT (via SIMD) and RBIT+CLZ are baseline on ARMv8.
		f.HardwarePop = cpu.ARM64.HasASIMD
		f.HardwareBSF = true
	case "ppc64", "ppc64le":
		f.HardwarePop = cpu.PPC64.IsPOWER8
		f.HardwareBSF = cpu.PPC64.IsPOWER9
	case "s390x":
		f.HardwarePop = true
		f.HardwareBSF = true
	}
	if f.Portable {
		f.HardwarePop, f.HardwareBSF = false, false
	}
	return f
}
