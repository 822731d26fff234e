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

package expr

import (
	"math"
	"testing"
)

func lit(v int64) *Expr          { return NewLiteral(v) }
func varX() *Expr                { return NewVar() }
func varY() *Expr                { return NewVarY() }
func bin(op Op, l, r *Expr) *Expr { return NewBinary(op, l, r) }
func un(op Op, r *Expr) *Expr     { return NewUnary(op, r) }

func evalFresh(t *testing.T, e *Expr, x, y int64) (result int64, nx, ny int64, fatal bool) {
	t.Helper()
	result = Eval(e, &x, &y, &fatal)
	return result, x, y, fatal
}

func TestEvalArithmeticWrapping(t *testing.T) {
	r, _, _, fatal := evalFresh(t, bin(Add, varX(), lit(1)), math.MaxInt64, 0)
	if fatal || r != math.MinInt64 {
		t.Fatalf("MaxInt64+1 = %d, fatal=%v, want wraparound to MinInt64", r, fatal)
	}

	r, _, _, fatal = evalFresh(t, bin(Sub, varX(), lit(1)), math.MinInt64, 0)
	if fatal || r != math.MaxInt64 {
		t.Fatalf("MinInt64-1 = %d, fatal=%v, want wraparound to MaxInt64", r, fatal)
	}

	r, _, _, fatal = evalFresh(t, un(Neg, varX()), math.MinInt64, 0)
	if fatal || r != math.MinInt64 {
		t.Fatalf("neg(MinInt64) = %d, fatal=%v, want MinInt64 (wrapping negate)", r, fatal)
	}
}

func TestEvalDivByZero(t *testing.T) {
	r, nx, _, fatal := evalFresh(t, NewAssign(DivEq, varX(), lit(0)), 10, 0)
	if !fatal || r != 0 || nx != 10 {
		t.Fatalf("x/=0: result=%d nx=%d fatal=%v, want result=0 nx=10(unchanged) fatal=true", r, nx, fatal)
	}
}

func TestEvalDivOverflow(t *testing.T) {
	r, nx, _, fatal := evalFresh(t, NewAssign(DivEq, varX(), lit(-1)), math.MinInt64, 0)
	if !fatal || r != 0 || nx != math.MinInt64 {
		t.Fatalf("MinInt64/=-1: result=%d nx=%d fatal=%v, want fatal non-mutating", r, nx, fatal)
	}
}

func TestEvalPlainDivByZeroNonAssign(t *testing.T) {
	r, _, _, fatal := evalFresh(t, bin(Div, varX(), lit(0)), 10, 0)
	if !fatal || r != 0 {
		t.Fatalf("x/0: result=%d fatal=%v, want result=0 fatal=true", r, fatal)
	}
}

func TestEvalPostIncValueIdentity(t *testing.T) {
	// (x++) + x, for x=5, must be 11 and leave x=6 (left-then-right order).
	e := bin(Add, un(PostInc, varX()), varX())
	r, nx, _, fatal := evalFresh(t, e, 5, 0)
	if fatal || r != 11 || nx != 6 {
		t.Fatalf("(x++)+x at x=5: result=%d nx=%d fatal=%v, want 11/6/false", r, nx, fatal)
	}
}

func TestEvalPreIncValueIdentity(t *testing.T) {
	e := un(PreInc, varX())
	r, nx, _, fatal := evalFresh(t, e, 5, 0)
	if fatal || r != 6 || nx != 6 {
		t.Fatalf("++x at x=5: result=%d nx=%d fatal=%v, want 6/6/false", r, nx, fatal)
	}
}

func TestEvalPowNegativeExponent(t *testing.T) {
	cases := []struct {
		base, exp, want int64
		fatal           bool
	}{
		{0, -1, 0, true},
		{1, -5, 1, false},
		{-1, -3, -1, false}, // odd exponent
		{-1, -4, 1, false},  // even exponent
		{2, -1, 0, false},
		{-2, -1, 0, false},
	}
	for _, c := range cases {
		r, _, _, fatal := evalFresh(t, bin(Pow, lit(c.base), lit(c.exp)), 0, 0)
		if fatal != c.fatal || (!fatal && r != c.want) {
			t.Fatalf("%d**%d: result=%d fatal=%v, want %d/%v", c.base, c.exp, r, fatal, c.want, c.fatal)
		}
	}
}

func TestEvalPowPositiveExponent(t *testing.T) {
	cases := []struct{ base, exp, want int64 }{
		{2, 10, 1024},
		{3, 0, 1},
		{-2, 3, -8},
		{-2, 4, 16},
	}
	for _, c := range cases {
		r, _, _, fatal := evalFresh(t, bin(Pow, lit(c.base), lit(c.exp)), 0, 0)
		if fatal || r != c.want {
			t.Fatalf("%d**%d: result=%d fatal=%v, want %d/false", c.base, c.exp, r, fatal, c.want)
		}
	}
}

func TestEvalAssignToY(t *testing.T) {
	r, _, ny, fatal := evalFresh(t, NewAssign(AddEq, varY(), lit(3)), 0, 4)
	if fatal || r != 7 || ny != 7 {
		t.Fatalf("y+=3 at y=4: result=%d ny=%d fatal=%v, want 7/7/false", r, ny, fatal)
	}
}

func TestEvalIncDecOnY(t *testing.T) {
	r, _, ny, fatal := evalFresh(t, un(PostDec, varY()), 0, 4)
	if fatal || r != 4 || ny != 3 {
		t.Fatalf("y-- at y=4: result=%d ny=%d fatal=%v, want 4/3/false", r, ny, fatal)
	}
}

func TestEvalAssignTargetMustBeVariable(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic: NewAssign with non-variable left operand")
		}
	}()
	NewAssign(AddEq, lit(1), lit(2))
}

func TestEvalParensPassThrough(t *testing.T) {
	r, _, _, fatal := evalFresh(t, NewParens(varX()), 7, 0)
	if fatal || r != 7 {
		t.Fatalf("(x) at x=7: result=%d fatal=%v, want 7/false", r, fatal)
	}
}
