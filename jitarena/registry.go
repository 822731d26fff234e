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

import (
	"sync"

	"github.com/docker/go-units"
)

// live tracks every arena that has been mapped and not yet released, so
// a signal-driven shutdown can unmap everything that is still resident
// and the CLI can report how much executable memory a run holds.
var live sync.Map // *Arena -> struct{}

func register(a *Arena)   { live.Store(a, struct{}{}) }
func unregister(a *Arena) { live.Delete(a) }

// ReleaseAll unmaps every still-live arena. Intended for process-exit
// hooks; concurrent compilation must have stopped by the time this runs.
func ReleaseAll() {
	live.Range(func(k, _ any) bool {
		k.(*Arena).Release()
		return true
	})
}

// LiveStats reports the number of still-mapped arenas and their total
// mapped size, formatted for humans.
func LiveStats() (count int, total string) {
	var bytes int64
	live.Range(func(k, _ any) bool {
		count++
		bytes += int64(len(k.(*Arena).mem))
		return true
	})
	return count, units.BytesSize(float64(bytes))
}
