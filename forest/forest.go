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

// Package forest builds the length-indexed expression forest (E_1..E_n)
// and the statement forest derived from it, bottom-up, applying the
// precedence-ordered canonical-form pruning table from package expr and
// deduplicating through package equiv. Each length's set is append-only
// while it is being built and read-only once the next length starts, the
// discipline NonLockingReadMap is built for.
package forest

import (
	"github.com/jtolds/gls"
	"github.com/launix-de/NonLockingReadMap"
	"golang.org/x/sync/errgroup"

	"github.com/carli2/exprsearch/equiv"
	"github.com/carli2/exprsearch/expr"
	"github.com/carli2/exprsearch/jit"
)

// Entry is one slot in a length-indexed set: the semantic-equivalence
// hash that keys it, and the expression it represents. ComputeSize/GetKey
// satisfy NonLockingReadMap's KeyGetter constraint.
type Entry struct {
	Hash uint64
	Expr *expr.Expr
}

func (e *Entry) GetKey() uint64    { return e.Hash }
func (e *Entry) ComputeSize() uint { return 32 + uint(e.Expr.Length) }

type exprSet = NonLockingReadMap.NonLockingReadMap[Entry, uint64]

// Config controls generation. The zero value is not usable; build one
// with DefaultConfig or fill in every field explicitly.
type Config struct {
	Literals       []int64
	MaxCacheLength int
	UseParens      bool
	PruneConstExpr bool
	UseJIT         bool
	UseMultithread bool

	BinaryOps  []expr.Op
	UnaryOps   []expr.Op
	AssignOps  []expr.Op
	IncDecOps  []expr.Op

	// OnLengthDone, when non-nil, is invoked after E_n and S_n are fully
	// populated and before generation of length n+1 starts. Progress
	// reporting only; the callback must not mutate the forest.
	OnLengthDone func(n, exprs, stmts int)
}

// DefaultConfig enables every operator package expr knows about; callers
// restrict BinaryOps/UnaryOps/AssignOps/IncDecOps to narrow the search.
func DefaultConfig() Config {
	return Config{
		Literals:       []int64{1, 2, 3},
		MaxCacheLength: 7,
		UseParens:      true,
		PruneConstExpr: true,
		UseJIT:         true,
		UseMultithread: true,
		BinaryOps:      expr.BinaryOperators,
		UnaryOps:       expr.UnaryPrefixOperators,
		AssignOps:      expr.AssignOperators,
		IncDecOps:      expr.IncDecOperators,
	}
}

// Forest holds the length-indexed expression sets (E_1..E_MaxCacheLength)
// and the statement sets derived from them. Index 0 is
// always empty; lengths run from 1.
type Forest struct {
	cfg Config
	e   []*exprSet
	s   []*exprSet
}

// Expressions returns every expression of exactly length n, or nil if n
// is out of range.
func (f *Forest) Expressions(n int) []*Entry {
	if n < 1 || n >= len(f.e) {
		return nil
	}
	return f.e[n].GetAll()
}

// Statements returns every x-targeted statement `x op= R` with
// TextLen(op) + R.Length == n, or nil if n is out of range. The target x
// itself is not counted, so each returned Expr.Length is n+1.
func (f *Forest) Statements(n int) []*Entry {
	if n < 1 || n >= len(f.s) {
		return nil
	}
	return f.s[n].GetAll()
}

// MaxLength is the highest length this forest was built up to.
func (f *Forest) MaxLength() int { return f.cfg.MaxCacheLength }

// Build generates E_1..E_cfg.MaxCacheLength and the parallel statement
// sets, bottom-up, one length at a time: length n only ever reads
// E_1..E_{n-1} (already published) while generating E_n; a set is only
// ever appended to while its own length is being built.
func Build(cfg Config) *Forest {
	f := &Forest{cfg: cfg}
	f.e = make([]*exprSet, cfg.MaxCacheLength+1)
	f.s = make([]*exprSet, cfg.MaxCacheLength+1)
	for n := 1; n <= cfg.MaxCacheLength; n++ {
		em := NonLockingReadMap.New[Entry, uint64]()
		f.e[n] = &em
		sm := NonLockingReadMap.New[Entry, uint64]()
		f.s[n] = &sm
	}

	f.insertE(1, expr.NewVar())
	f.insertE(1, expr.NewVarY())
	for _, lit := range cfg.Literals {
		f.insertE(1, expr.NewLiteral(lit))
	}

	if cfg.OnLengthDone != nil {
		cfg.OnLengthDone(1, len(f.Expressions(1)), 0)
	}
	for n := 2; n <= cfg.MaxCacheLength; n++ {
		f.generateLength(n)
		f.generateStatements(n)
		if cfg.OnLengthDone != nil {
			cfg.OnLengthDone(n, len(f.Expressions(n)), len(f.Statements(n)))
		}
	}
	return f
}

// insertE compiles e (if configured), hashes it, and inserts it into
// E_n, discarding e (and releasing any compiled buffer) if a
// semantically equal expression is already present.
func (f *Forest) insertE(n int, e *expr.Expr) {
	if f.cfg.UseJIT {
		jit.Compile(e)
	}
	h := equiv.Hash(e)
	if existing := f.e[n].Get(h); existing != nil {
		e.Release()
		return
	}
	f.e[n].Set(&Entry{Hash: h, Expr: e})
}

func (f *Forest) insertS(n int, stmt *expr.Expr) {
	if f.cfg.UseJIT {
		jit.Compile(stmt)
	}
	h := equiv.Hash(stmt)
	if existing := f.s[n].Get(h); existing != nil {
		stmt.Release()
		return
	}
	f.s[n].Set(&Entry{Hash: h, Expr: stmt})
}

// generateLength populates E_n from E_1..E_{n-1}, applying the
// generation rules in order: inc/dec at n==3, binary splits for n>2, unary-prefix wrapping
// for n>1, and parens for n>2 when enabled.
func (f *Forest) generateLength(n int) {
	if n == 3 {
		for _, v := range f.Expressions(1) {
			if !expr.IsVariable(v.Expr.Op) {
				continue
			}
			for _, op := range f.cfg.IncDecOps {
				f.insertE(n, expr.NewUnary(op, v.Expr))
			}
		}
	}

	if n > 2 {
		f.generateBinarySplits(n)
	}

	if n > 1 {
		for _, op := range f.cfg.UnaryOps {
			k := expr.TextLen(op)
			if n-k < 1 {
				continue
			}
			for _, r := range f.Expressions(n - k) {
				if r.Expr.Op < 0xC0 {
					continue // must itself be unary-prefix-or-tighter
				}
				f.insertE(n, expr.NewUnary(op, r.Expr))
			}
		}
	}

	if f.cfg.UseParens && n > 2 {
		for _, r := range f.Expressions(n - 2) {
			f.insertE(n, expr.NewParens(r.Expr))
		}
	}
}

// generateBinarySplits enumerates, for every enabled binary operator B
// and every length split n_l + k + n_r = n, the candidate (L, B, R)
// forms, data-parallel across the outer n_l shard.
func (f *Forest) generateBinarySplits(n int) {
	type shard struct {
		b      expr.Op
		k      int
		nl, nr int
	}
	var shards []shard
	for _, b := range f.cfg.BinaryOps {
		k := expr.TextLen(b)
		for nl := 1; nl <= n-k-1; nl++ {
			nr := n - k - nl
			if nr < 1 {
				continue
			}
			shards = append(shards, shard{b, k, nl, nr})
		}
	}

	run := func(s shard) { f.genBinaryShard(n, s.b, s.nl, s.nr) }

	if !f.cfg.UseMultithread {
		for _, s := range shards {
			run(s)
		}
		return
	}

	var eg errgroup.Group
	for i, s := range shards {
		i, s := i, s
		eg.Go(func() error {
			// shardMgr.SetValues attaches the shard index to this
			// goroutine's call stack; nothing in this package reads it
			// back or recovers panics with it. The work itself still runs
			// synchronously inside the errgroup goroutine so eg.Wait
			// actually blocks on it.
			shardMgr.SetValues(gls.Values{shardIDKey: i}, func() { run(s) })
			return nil
		})
	}
	_ = eg.Wait()
}

var shardMgr = gls.NewContextManager()

const shardIDKey = "exprsearch-shard-id"

// genBinaryShard builds every canonical (L, B, R) for one operator and
// one length split, enforcing the precedence-threshold table and the
// constant-folding prune before handing candidates to insertE.
func (f *Forest) genBinaryShard(n int, b expr.Op, nl, nr int) {
	leftMin, rightMin, excludeRightOne := expr.CanonicalThreshold(b)
	lefts := f.Expressions(nl)
	rights := f.Expressions(nr)
	for _, l := range lefts {
		if l.Expr.Op < leftMin {
			continue
		}
		for _, r := range rights {
			if r.Expr.Op < rightMin {
				continue
			}
			if excludeRightOne && r.Expr.Op == expr.Literal && r.Expr.Literal == 1 {
				continue
			}
			if f.cfg.PruneConstExpr && l.Expr.Op == expr.Literal && r.Expr.Op == expr.Literal {
				continue
			}
			f.insertE(n, expr.NewBinary(b, l.Expr, r.Expr))
		}
	}
}

// generateStatements wraps every R in E_{n-k} with each enabled
// assignment operator of textual length k, targeting x (the
// pointer-swap convention at search time gives y-side semantics without
// a second, parallel y-statement forest).
func (f *Forest) generateStatements(n int) {
	for _, op := range f.cfg.AssignOps {
		k := expr.TextLen(op)
		if n-k < 1 {
			continue
		}
		for _, r := range f.Expressions(n - k) {
			f.insertS(n, expr.NewAssign(op, expr.NewVar(), r.Expr))
		}
	}
}
