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

import (
	"github.com/carli2/exprsearch/expr"
	"github.com/carli2/exprsearch/jitarena"
)

// lower is implemented once per architecture (jit_amd64.go, jit_arm64.go,
// each //go:build gated) and must emit a self-contained leaf function into
// w: on entry PX/PY hold the incoming pointer arguments, on exit the
// result must be in the ABI return register. lower never calls
// w.resolveFixups; Compile does that once lowering is complete.
var lower func(w *writer, e *expr.Expr)

// maxExprDepth bounds the fixed-register-stack depth every backend relies
// on. The enumerator in package forest bounds syntactic length, and with
// it register demand: at the default MaxCacheLength of 7 the deepest
// right-nested chain (x|y^x&y) uses exactly four slots. A tree that needs
// more makes the backend's alloc panic.
const maxExprDepth = 4

// Compile lowers e into native machine code, finalizes a fresh
// jitarena.Arena for it, and attaches the resulting callable to e via
// e.SetNative. It is safe to call concurrently on distinct *expr.Expr
// values; each call uses its own Arena, so two buffers compiled
// concurrently never share a writable mapping.
func Compile(e *expr.Expr) {
	w := newWriter()
	lower(w, e)
	w.resolveFixups()

	arena := jitarena.New(len(w.buf))
	arena.Write(w.buf)
	arena.MakeExecutable()
	entry := arena.Base()

	e.SetNative(func(x, y *int64) int64 {
		return callNative(entry, x, y)
	}, arena)
}
