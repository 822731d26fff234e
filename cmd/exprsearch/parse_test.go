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

package main

import (
	"testing"

	"github.com/carli2/exprsearch/expr"
)

func TestParseStatementRoundTrip(t *testing.T) {
	cases := []struct {
		in, out string
	}{
		{"x += y", "x+=y"},
		{"x = y + 2 * x", "x=y+2*x"},
		{"x = (y + 1) * 2", "x=(y+1)*2"},
		{"x <<= 2", "x<<=2"},
		{"x = y--", "x=y--"},
		{"x = ++y", "x=++y"},
		{"x = -y", "x=-y"},
		{"x = ~x & 3", "x=~x&3"},
		{"x = x ** 2", "x=x**2"},
		{"x = y == 1", "x=y==1"},
	}
	for _, c := range cases {
		s, err := ParseStatement(c.in)
		if err != nil {
			t.Fatalf("ParseStatement(%q): %v", c.in, err)
		}
		if got := expr.FormatX(s); got != c.out {
			t.Errorf("ParseStatement(%q) prints %q, want %q", c.in, got, c.out)
		}
	}
}

func TestParseStatementAgreesWithEval(t *testing.T) {
	s, err := ParseStatement("x = (y + 1) * 2")
	if err != nil {
		t.Fatal(err)
	}
	x, y := int64(0), int64(3)
	var fatal bool
	r := expr.Eval(s, &x, &y, &fatal)
	if fatal || r != 8 || x != 8 || y != 3 {
		t.Fatalf("x=(y+1)*2 at y=3: r=%d x=%d y=%d fatal=%v, want 8/8/3/false", r, x, y, fatal)
	}
}

func TestParsePairSwapsSecondStatement(t *testing.T) {
	sx, sy, err := ParsePair("x += y ; y += x")
	if err != nil {
		t.Fatal(err)
	}
	if sx.Left.Op != expr.Var || sy.Left.Op != expr.Var {
		t.Fatal("both statements must come back in the statement-on-x convention")
	}
	if got := expr.FormatX(sx); got != "x+=y" {
		t.Errorf("sx prints %q, want %q", got, "x+=y")
	}
	// sy prints with swapped names so its operands show their active roles
	if got := expr.FormatY(sy); got != "y+=x" {
		t.Errorf("sy prints %q, want %q", got, "y+=x")
	}
}

func TestParsePairRejectsWrongTargets(t *testing.T) {
	if _, _, err := ParsePair("x += y ; x += y"); err == nil {
		t.Fatal("second statement targeting x must be rejected")
	}
	if _, _, err := ParsePair("y += x ; y += x"); err == nil {
		t.Fatal("first statement targeting y must be rejected")
	}
}

func TestParseStatementRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "x", "x ==", "x += ", "z += 1", "x += 1 extra"} {
		if _, err := ParseStatement(in); err == nil {
			t.Errorf("ParseStatement(%q) accepted invalid input", in)
		}
	}
}

func TestParseIncDecRequiresVariable(t *testing.T) {
	if _, err := ParseStatement("x = ++1"); err == nil {
		t.Fatal("++ on a literal must be rejected")
	}
}
