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

// Package equiv decides whether two expressions behave identically on a
// fixed probe grid, and computes a stable hash over that behavior so
// package forest can deduplicate by semantics rather than syntax. A
// seeded streaming hasher is fed the observed behavior tuples in a fixed
// traversal order, so equal behavior always yields equal hashes.
package equiv

import (
	"encoding/binary"
	"hash/maphash"

	"github.com/carli2/exprsearch/expr"
)

// ProbeMin/ProbeMax bound the square probe grid {(x0,y0) | x0,y0 ∈
// [ProbeMin..ProbeMax]}, 81 points. Widening the grid lowers the chance
// of two genuinely-distinct expressions agreeing everywhere on it, at
// quadratic cost per hash.
const (
	ProbeMin int64 = -4
	ProbeMax int64 = 4
)

// seed is process-wide and stable for the life of the program, exactly
// like fastDictSeed: hashes are only ever compared within one run.
var seed maphash.Seed

func init() {
	seed = maphash.MakeSeed()
}

// probeResult is one point's observed behavior: the expression's return
// value, the post-state of (x, y), and whether evaluation went fatal.
type probeResult struct {
	ret   int64
	x, y  int64
	fatal bool
}

// probe evaluates e at a single point, preferring the compiled entry
// point when present and falling back to the reference evaluator
// otherwise. The grid values are copied into fresh locals first so a
// side-effecting expression never contaminates the caller's (x0, y0).
func probe(e *expr.Expr, x0, y0 int64) probeResult {
	x, y := x0, y0
	if e.Native != nil {
		ret := e.Native(&x, &y)
		return probeResult{ret: ret, x: x, y: y}
	}
	var fatal bool
	ret := expr.Eval(e, &x, &y, &fatal)
	return probeResult{ret: ret, x: x, y: y, fatal: fatal}
}

// writeResult feeds one probe outcome into h in a fixed byte layout so
// that identical behavior always produces identical bytes.
func writeResult(h *maphash.Hash, r probeResult) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(r.ret))
	h.Write(b[:])
	binary.LittleEndian.PutUint64(b[:], uint64(r.x))
	h.Write(b[:])
	binary.LittleEndian.PutUint64(b[:], uint64(r.y))
	h.Write(b[:])
	if r.fatal {
		h.WriteByte(1)
	} else {
		h.WriteByte(0)
	}
}

// Hash computes the semantic-equivalence key for e: the probe grid is
// walked in a fixed order (x0 outer, y0 inner) and every (return, x',
// y', fatal) tuple is fed into the same seeded hasher, so hash(a) ==
// hash(b) whenever Equal(a, b).
func Hash(e *expr.Expr) uint64 {
	var h maphash.Hash
	h.SetSeed(seed)
	for x0 := ProbeMin; x0 <= ProbeMax; x0++ {
		for y0 := ProbeMin; y0 <= ProbeMax; y0++ {
			writeResult(&h, probe(e, x0, y0))
		}
	}
	return h.Sum64()
}

// Equal reports whether a and b agree on every point of the probe grid:
// equal return values, equal post-state, and equal fatal-ness. Two
// expressions that disagree anywhere are, by definition, not dedup
// candidates.
func Equal(a, b *expr.Expr) bool {
	for x0 := ProbeMin; x0 <= ProbeMax; x0++ {
		for y0 := ProbeMin; y0 <= ProbeMax; y0++ {
			ra := probe(a, x0, y0)
			rb := probe(b, x0, y0)
			if ra != rb {
				return false
			}
		}
	}
	return true
}
