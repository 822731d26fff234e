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

package search

import (
	"testing"

	"github.com/carli2/exprsearch/expr"
	"github.com/carli2/exprsearch/forest"
)

// TestSearchFindsFibonacci: x=1, y=1 : x += y ; y += x must be found
// against the Fibonacci sequence with the default small config.
func TestSearchFindsFibonacci(t *testing.T) {
	fcfg := forest.DefaultConfig()
	fcfg.MaxCacheLength = 7
	fcfg.UseJIT = false // exercise the reference evaluator path only
	fcfg.UseMultithread = false
	fcfg.Literals = []int64{1, 2, 3}
	f := forest.Build(fcfg)

	p := Params{
		Answer:    []int64{1, 1, 2, 3, 5, 8, 13, 21, 34, 55, 89, 144},
		InitXMin:  -1,
		InitXMax:  1,
		InitYMin:  -1,
		InitYMax:  1,
		MaxLength: 10,
		UseJIT:    false,
		AssignOps: fcfg.AssignOps,
	}

	matches := Search(f, p)
	found := false
	for _, m := range matches {
		if m.X0 == 1 && m.Y0 == 1 && isAddEqY(m.Sx) && isAddEqX(m.Sy) {
			found = true
			break
		}
	}
	if !found {
		t.Fatalf("expected to find x=1,y=1: x+=y ; y+=x among %d matches", len(matches))
	}
}

func isAddEqY(s *expr.Expr) bool {
	return s.Op == expr.AddEq && s.Right.Op == expr.VarY
}

func isAddEqX(s *expr.Expr) bool {
	return s.Op == expr.AddEq && s.Right.Op == expr.Var
}

func TestMatchPairDivByZeroRejectsReferenceMode(t *testing.T) {
	sx := expr.NewAssign(expr.DivEq, expr.NewVar(), expr.NewLiteral(0))
	sy := expr.NewAssign(expr.AddEq, expr.NewVar(), expr.NewVarY())
	if matchPair(sx, sy, 10, 0, []int64{10}, false) {
		t.Fatalf("a fatal first step must reject the pair in reference mode")
	}
}
