/*
Copyright (C) 2026  exprsearch contributors

	This program is free software: you can redistribute it and/or modify
	it under the terms of the GNU General Public License as published by
	the Free Software Foundation, either version 3 of the License, or
	(at your option) any later version.

	This program is distributed in the hope that it will be useful,
	but WITHOUT ANY WARRANTY; without even the implied warranty of
	MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
	GNU General Public License for more details.

	You should have received a copy of the GNU General Public License
	along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

//go:build arm64

package jitarena

import "unsafe"

// icacheFlushRange is implemented in icache_arm64.s: it runs the standard
// ARM64 cache-maintenance sequence (DC CVAU + IC IVAU per cache line,
// bracketed by DSB/ISB) over [base, base+n), so that code written through
// the data cache becomes visible to instruction fetch.
//
//go:noescape
func icacheFlushRange(base unsafe.Pointer, n uintptr)

// flushInstructionCache invalidates the instruction cache over the
// written range. AArch64 does not guarantee instruction-cache/data-cache
// coherency after a plain memory write, unlike amd64; skipping this step
// is a documented source of "runs sometimes, SIGILLs sometimes" bugs in
// ARM JITs.
func flushInstructionCache(code []byte) {
	if len(code) == 0 {
		return
	}
	icacheFlushRange(unsafe.Pointer(&code[0]), uintptr(len(code)))
}
