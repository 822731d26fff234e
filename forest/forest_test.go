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

package forest

import (
	"testing"

	"github.com/carli2/exprsearch/equiv"
	"github.com/carli2/exprsearch/expr"
)

func smallConfig() Config {
	cfg := DefaultConfig()
	cfg.MaxCacheLength = 5
	cfg.UseJIT = false // keep the unit test independent of the native backend
	cfg.UseMultithread = false
	return cfg
}

func TestBuildLengthOneHasVariablesAndLiterals(t *testing.T) {
	f := Build(smallConfig())
	e1 := f.Expressions(1)
	if len(e1) != 2+len(smallConfig().Literals) {
		t.Fatalf("E_1 has %d entries, want %d (x, y, %d literals)", len(e1), 2+len(smallConfig().Literals), len(smallConfig().Literals))
	}
}

func TestBuildDedupsTrivialIdentity(t *testing.T) {
	f := Build(smallConfig())
	// x*1 has syntactic length 3 and is pruned by the right-child-literal-1
	// exclusion rule. Plain x has length 1 and never lives in E_3, but E_3
	// does hold length-3 identities of x (x|x, x&x, (x), ...); dedup must
	// keep exactly one of them, and that one must not be x*1 itself.
	xTimes1 := expr.NewBinary(expr.Mul, expr.NewVar(), expr.NewLiteral(1))
	matches := 0
	for _, e := range f.Expressions(xTimes1.Length) {
		if equiv.Equal(e.Expr, xTimes1) {
			matches++
			if e.Expr.Op == expr.Mul && e.Expr.Right.Op == expr.Literal && e.Expr.Right.Literal == 1 {
				t.Fatalf("x*1 was generated despite the right-child-literal-1 exclusion")
			}
		}
	}
	if matches != 1 {
		t.Fatalf("E_%d holds %d entries equal to x*1, want exactly 1", xTimes1.Length, matches)
	}
}

func TestBuildDedupSoundness(t *testing.T) {
	f := Build(smallConfig())
	for n := 1; n <= f.MaxLength(); n++ {
		entries := f.Expressions(n)
		for i := range entries {
			for j := i + 1; j < len(entries); j++ {
				if equiv.Equal(entries[i].Expr, entries[j].Expr) {
					t.Fatalf("E_%d contains two semantically-equal entries", n)
				}
			}
		}
	}
}

func TestStatementsTargetX(t *testing.T) {
	f := Build(smallConfig())
	for n := 1; n <= f.MaxLength(); n++ {
		for _, s := range f.Statements(n) {
			if s.Expr.Left == nil || s.Expr.Left.Op != expr.Var {
				t.Fatalf("statement of length %d does not target x: %#v", n, s.Expr)
			}
		}
	}
}
