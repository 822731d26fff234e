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

// Package search runs the outer pair search: an all-pairs pass over the
// cached statement forest, then a DFS extension beyond its cached length
// for runs configured with a longer MaxLength, against a swept range of
// initial (x, y) values.
package search

import (
	"sync"

	"github.com/carli2/hybridsort"
	"github.com/google/btree"
	"github.com/jtolds/gls"
	"golang.org/x/sync/errgroup"

	"github.com/carli2/exprsearch/expr"
	"github.com/carli2/exprsearch/forest"
)

// Params configures one search run. AssignOps must be the same table the
// forest was built with, so DFS-synthesized statements beyond
// MaxCacheLength use operators the forest itself would have generated.
type Params struct {
	Answer                               []int64
	InitXMin, InitXMax, InitYMin, InitYMax int64
	MaxLength                             int
	UseJIT                                bool
	AssignOps                             []expr.Op
}

// Match is one accepted (x0, y0, S_x, S_y) combination: iterating S_x
// then S_y (pointer-swapped) from (x0, y0) reproduces Answer exactly.
type Match struct {
	X0, Y0 int64
	Sx, Sy *expr.Expr
}

// Search runs the full C8 driver: collects the cached statements plus
// the DFS extension, then checks every (S_x, S_y, x0, y0) combination.
// Result order is unspecified; use SortByBTree or
// SortByHybrid if a caller needs a deterministic order.
func Search(f *forest.Forest, p Params) []Match {
	candidates := collectStatements(f, p.MaxLength, p.AssignOps)

	var mu sync.Mutex
	var matches []Match
	var eg errgroup.Group

	for i, sx := range candidates {
		i, sx := i, sx
		eg.Go(func() error {
			shardMgr.SetValues(gls.Values{shardIDKey: i}, func() {
				local := searchOneX(sx, candidates, p)
				if len(local) == 0 {
					return
				}
				mu.Lock()
				matches = append(matches, local...)
				mu.Unlock()
			})
			return nil
		})
	}
	_ = eg.Wait()
	return matches
}

var shardMgr = gls.NewContextManager()

const shardIDKey = "exprsearch-search-shard-id"

// searchOneX pairs one S_x against every candidate S_y and every initial
// value in range; the outer statement is the sharding axis.
func searchOneX(sx *expr.Expr, candidates []*expr.Expr, p Params) []Match {
	var out []Match
	for _, sy := range candidates {
		for x0 := p.InitXMin; x0 <= p.InitXMax; x0++ {
			for y0 := p.InitYMin; y0 <= p.InitYMax; y0++ {
				if matchPair(sx, sy, x0, y0, p.Answer, p.UseJIT) {
					out = append(out, Match{X0: x0, Y0: y0, Sx: sx, Sy: sy})
				}
			}
		}
	}
	return out
}

// matchPair runs the match procedure for one fixed (x0, y0): step
// S_x (native x/y roles), then S_y with pointers swapped so its own Var
// node reads/writes the y slot, and require x == Answer[i] after every
// full step.
func matchPair(sx, sy *expr.Expr, x0, y0 int64, answer []int64, useJIT bool) bool {
	x, y := x0, y0
	for i := 0; i < len(answer); i++ {
		if _, fatal := evalStep(sx, &x, &y, useJIT); fatal {
			return false
		}
		if _, fatal := evalStep(sy, &y, &x, useJIT); fatal {
			return false
		}
		if x != answer[i] {
			return false
		}
	}
	return true
}

// evalStep runs one statement, preferring its compiled entry point when
// useJIT is set and one is attached; fatal is only ever meaningful in
// reference mode, since the JIT returns 0 and continues without a fatal
// signal.
func evalStep(s *expr.Expr, px, py *int64, useJIT bool) (result int64, fatal bool) {
	if useJIT && s.Native != nil {
		return s.Native(px, py), false
	}
	result = expr.Eval(s, px, py, &fatal)
	return result, fatal
}

// collectStatements gathers every cached statement up to f.MaxLength(),
// then synthesizes additional x-targeted statements for lengths beyond
// the cache (up to maxLength) by wrapping cached expressions with an
// assignment operator directly: statements beyond the cache depth are
// built on the fly from cached right-hand sides rather than from a
// deeper, regenerated forest.
func collectStatements(f *forest.Forest, maxLength int, assignOps []expr.Op) []*expr.Expr {
	var out []*expr.Expr
	for n := 1; n <= f.MaxLength(); n++ {
		for _, s := range f.Statements(n) {
			out = append(out, s.Expr)
		}
	}

	for lx := f.MaxLength() + 1; lx <= maxLength; lx++ {
		for _, op := range assignOps {
			k := expr.TextLen(op)
			n := lx - k
			if n < 1 || n > f.MaxLength() {
				continue
			}
			for _, r := range f.Expressions(n) {
				out = append(out, expr.NewAssign(op, expr.NewVar(), r.Expr))
			}
		}
	}
	return out
}

// matchKey orders matches for SortByBTree: by x0, then y0, then the
// textual length of each statement; lessMatch breaks remaining ties by
// the printed statements so distinct matches never compare equal.
func matchKey(m Match) (x0, y0 int64, lx, ly int) {
	return m.X0, m.Y0, m.Sx.Length, m.Sy.Length
}

func lessMatch(a, b Match) bool {
	ax, ay, alx, aly := matchKey(a)
	bx, by, blx, bly := matchKey(b)
	if ax != bx {
		return ax < bx
	}
	if ay != by {
		return ay < by
	}
	if alx != blx {
		return alx < blx
	}
	if aly != bly {
		return aly < bly
	}
	if sa, sb := expr.FormatX(a.Sx), expr.FormatX(b.Sx); sa != sb {
		return sa < sb
	}
	return expr.FormatY(a.Sy) < expr.FormatY(b.Sy)
}

// SortByBTree orders matches deterministically using an in-memory
// ordered index rather than sorting a slice by hand, giving C9 a stable
// print order when not using the hybridsort path.
func SortByBTree(matches []Match) []Match {
	tr := btree.NewG(32, lessMatch)
	for _, m := range matches {
		tr.ReplaceOrInsert(m)
	}
	out := make([]Match, 0, len(matches))
	tr.Ascend(func(m Match) bool {
		out = append(out, m)
		return true
	})
	return out
}

// SortByHybrid is the alternate deterministic-order code path: same
// ordering as SortByBTree, exercised through a different sort algorithm.
func SortByHybrid(matches []Match) []Match {
	out := make([]Match, len(matches))
	copy(out, matches)
	hybridsort.Sort(out, lessMatch)
	return out
}
