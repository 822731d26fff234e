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

package equiv

import (
	"testing"

	"github.com/carli2/exprsearch/expr"
)

func lit(v int64) *expr.Expr                     { return expr.NewLiteral(v) }
func varX() *expr.Expr                           { return expr.NewVar() }
func bin(op expr.Op, l, r *expr.Expr) *expr.Expr { return expr.NewBinary(op, l, r) }

func TestEqualTrivialIdentities(t *testing.T) {
	cases := []struct {
		name string
		a, b *expr.Expr
	}{
		{"x+0 == x", bin(expr.Add, varX(), lit(0)), varX()},
		{"x*1 == x", bin(expr.Mul, varX(), lit(1)), varX()},
		{"x|x == x", bin(expr.BitOr, varX(), varX()), varX()},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if !Equal(c.a, c.b) {
				t.Fatalf("%s: expected semantic equality", c.name)
			}
			if Hash(c.a) != Hash(c.b) {
				t.Fatalf("%s: expected equal hashes", c.name)
			}
		})
	}
}

func TestNotEqualDistinctBehavior(t *testing.T) {
	a := bin(expr.Add, varX(), lit(1))
	b := bin(expr.Add, varX(), lit(2))
	if Equal(a, b) {
		t.Fatalf("x+1 and x+2 must disagree somewhere on the probe grid")
	}
}

func TestHashIdempotent(t *testing.T) {
	e := bin(expr.Mul, bin(expr.Add, varX(), lit(1)), lit(3))
	if Hash(e) != Hash(e) {
		t.Fatalf("hashing the same expression twice must be stable")
	}
}
