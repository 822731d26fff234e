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

//go:build !(darwin && arm64)

package jitarena

// enterExecuteMode is a no-op everywhere except darwin/arm64: only Apple
// silicon hardware-enforces per-thread W^X beyond what mprotect already
// states, via pthread_jit_write_protect_np.
func enterExecuteMode() {}
