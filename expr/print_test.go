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

import "testing"

func TestFormatBasicForms(t *testing.T) {
	cases := []struct {
		e    *Expr
		want string
	}{
		{NewAssign(AddEq, varX(), varY()), "x+=y"},
		{NewAssign(AssignEq, varX(), lit(-3)), "x=-3"},
		{bin(Add, varX(), lit(1)), "x+1"},
		{bin(Mul, NewParens(bin(Add, varX(), varY())), lit(2)), "(x+y)*2"},
		{un(Neg, varX()), "-x"},
		{un(Not, varY()), "!y"},
		{un(BitNot, varX()), "~x"},
		{un(PreInc, varX()), "++x"},
		{un(PostDec, varY()), "y--"},
		{bin(Pow, varX(), varY()), "x**y"},
		{NewParens(varX()), "(x)"},
	}
	for _, c := range cases {
		if got := FormatX(c.e); got != c.want {
			t.Errorf("FormatX = %q, want %q", got, c.want)
		}
	}
}

func TestFormatSwappedNames(t *testing.T) {
	// The y-side statement prints with the names swapped, so its own Var
	// node (the y slot at call time) reads as y.
	s := NewAssign(AddEq, varX(), varY())
	if got := FormatY(s); got != "y+=x" {
		t.Fatalf("FormatY = %q, want %q", got, "y+=x")
	}
}

func TestFormatInsertsNeededParens(t *testing.T) {
	// A looser child under a tighter parent must be wrapped on output even
	// without an explicit Parens node (DFS-synthesized statements can carry
	// such shapes).
	e := bin(Mul, bin(Add, varX(), varY()), lit(2))
	if got := FormatX(e); got != "(x+y)*2" {
		t.Fatalf("FormatX = %q, want %q", got, "(x+y)*2")
	}
	// Right-associative power: equal precedence on the left wraps, on the
	// right it does not.
	p := bin(Pow, bin(Pow, varX(), lit(2)), lit(3))
	if got := FormatX(p); got != "(x**2)**3" {
		t.Fatalf("FormatX = %q, want %q", got, "(x**2)**3")
	}
	q := bin(Pow, varX(), bin(Pow, lit(2), lit(3)))
	if got := FormatX(q); got != "x**2**3" {
		t.Fatalf("FormatX = %q, want %q", got, "x**2**3")
	}
}

func TestFormatAssignmentOperandsUnwrapped(t *testing.T) {
	s := NewAssign(MulEq, varX(), bin(Add, varX(), varY()))
	if got := FormatX(s); got != "x*=x+y" {
		t.Fatalf("FormatX = %q, want %q", got, "x*=x+y")
	}
}
