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

//go:build darwin && arm64

package jitarena

import "golang.org/x/sys/unix"

// enterExecuteMode switches the calling thread's JIT write protection on
// (pthread_jit_write_protect_np). New maps arenas without MAP_JIT, so
// this toggle does not govern an arena's pages; their switch from
// writable to executable is the mprotect in MakeExecutable.
func enterExecuteMode() {
	unix.PthreadJitWriteProtectNp(true)
}
