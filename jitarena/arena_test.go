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

package jitarena

import "testing"

func TestArenaWriteThenExecuteLifecycle(t *testing.T) {
	a := New(64)
	a.Write([]byte{0x90, 0x90, 0xC3}) // two NOPs and a RET, amd64
	if a.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", a.Len())
	}
	a.MakeExecutable()
	if err := a.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
}

func TestArenaWriteAfterExecutePanics(t *testing.T) {
	a := New(64)
	a.Write([]byte{0xC3})
	a.MakeExecutable()
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic writing to a finalized arena")
		}
		a.Release()
	}()
	a.Write([]byte{0x90})
}

func TestArenaReleaseIsIdempotent(t *testing.T) {
	a := New(64)
	a.Write([]byte{0xC3})
	a.MakeExecutable()
	if err := a.Release(); err != nil {
		t.Fatalf("first Release: %v", err)
	}
	if err := a.Release(); err != nil {
		t.Fatalf("second Release: %v", err)
	}
}

func TestArenaRoundsUpToPageSize(t *testing.T) {
	a := New(1)
	if len(a.mem) != pageSize {
		t.Fatalf("len(mem) = %d, want %d", len(a.mem), pageSize)
	}
	a.Release()
}
