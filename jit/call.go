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

package jit

// callNative bridges from Go into a compiled buffer using the host C
// calling convention (System V AMD64 / AAPCS64), implemented in
// call_amd64.s and call_arm64.s respectively. Reinterpreting the entry
// pointer as a Go func value would call through Go's internal register
// ABI instead of the C ABI the buffers are emitted against; the small
// assembly trampoline keeps the boundary exact.
//
//go:noescape
func callNative(entry uintptr, px, py *int64) int64
