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

// Package jitarena implements the W^X executable-memory arena: a
// page-aligned mmap'd region that is filled while writable, then toggled
// to executable before its first call.
package jitarena

import (
	"fmt"
	"syscall"

	"github.com/docker/go-units"
)

const pageSize = 4096

// state tracks which half of the W^X toggle the arena is currently in.
type state int

const (
	stateWritable state = iota
	stateExecutable
	stateReleased
)

// Arena is a single mmap'd, page-aligned executable-memory region. It is
// filled once while writable, then made executable exactly once; a buffer
// is never rewritten after that point, and a single Arena is never
// concurrently mutated from two threads — callers needing to compile
// concurrently use one Arena per compiled buffer.
type Arena struct {
	mem   []byte
	used  int
	st    state
}

// New allocates size bytes (rounded up to a page) of read+write mapped
// memory. Allocation failure is fatal to the process: mmap failing means
// the host is out of address space or mapping capacity, which nothing
// here can recover from.
func New(size int) *Arena {
	rounded := (size + pageSize - 1) &^ (pageSize - 1)
	if rounded == 0 {
		rounded = pageSize
	}
	mem, err := syscall.Mmap(-1, 0, rounded, syscall.PROT_READ|syscall.PROT_WRITE, syscall.MAP_ANON|syscall.MAP_PRIVATE)
	if err != nil {
		panic(fmt.Sprintf("jitarena: mmap %s failed: %v", units.BytesSize(float64(rounded)), err))
	}
	a := &Arena{mem: mem}
	register(a)
	return a
}

// Write appends code bytes to the arena. It panics if called after the
// arena has been made executable or released, and if the write would
// overrun the mapped region (the caller is expected to size the arena
// generously up front; there is no growth-on-demand, since a buffer is
// filled completely once).
func (a *Arena) Write(code []byte) {
	if a.st != stateWritable {
		panic("jitarena: write after finalization")
	}
	if a.used+len(code) > len(a.mem) {
		panic("jitarena: arena overflow")
	}
	copy(a.mem[a.used:], code)
	a.used += len(code)
}

// Bytes returns the arena's backing storage, valid only while writable,
// for code emitters that want to patch already-written bytes (branch
// fixups) rather than appending.
func (a *Arena) Bytes() []byte {
	if a.st != stateWritable {
		panic("jitarena: Bytes() after finalization")
	}
	return a.mem[:a.used]
}

// MakeExecutable toggles the arena from writable to executable: it
// mprotects the region to read+execute, then invalidates the instruction
// cache over the written range on architectures where that matters
// (AArch64; a no-op on amd64, whose instruction cache is coherent with
// data writes). This must be called exactly once, after all Write calls
// and before the arena's entry point is ever invoked — calling the entry
// point first is a finalization-misuse programmer error handled by
// package jit, not here.
func (a *Arena) MakeExecutable() {
	if a.st != stateWritable {
		panic("jitarena: MakeExecutable called twice")
	}
	enterExecuteMode()
	if err := syscall.Mprotect(a.mem, syscall.PROT_READ|syscall.PROT_EXEC); err != nil {
		panic(fmt.Sprintf("jitarena: mprotect exec failed: %v", err))
	}
	flushInstructionCache(a.mem[:a.used])
	a.st = stateExecutable
}

// Len reports how many bytes have been written so far.
func (a *Arena) Len() int { return a.used }

// Base returns the address of the start of the mapped region. Valid in
// either state; used by package jit to materialize the callable entry
// point once the arena is executable.
func (a *Arena) Base() uintptr {
	if len(a.mem) == 0 {
		return 0
	}
	return uintptr(unsafePointer(a.mem))
}

// Release unmaps the arena. It is idempotent; no code in the arena may be
// called after Release returns.
func (a *Arena) Release() error {
	if a.st == stateReleased {
		return nil
	}
	a.st = stateReleased
	unregister(a)
	mem := a.mem
	a.mem = nil
	if mem == nil {
		return nil
	}
	return syscall.Munmap(mem)
}
