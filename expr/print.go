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
	"strconv"
	"strings"
)

// Format renders e as C source text. varNames maps the Var and VarY
// slots to their display names; the search driver prints the y-side
// statement with the names swapped so operands appear in their active
// roles.
func Format(e *Expr, varNames [2]string) string {
	var b strings.Builder
	formatNode(&b, e, varNames, 0, false, false)
	return b.String()
}

// FormatX and FormatY are the two name orders the output format uses:
// a statement built against the x slot prints as-is, the same statement
// called with swapped pointers prints with the names swapped.
func FormatX(e *Expr) string { return Format(e, [2]string{"x", "y"}) }
func FormatY(e *Expr) string { return Format(e, [2]string{"y", "x"}) }

// precedence is the binding strength used only for output
// parenthesization. Genuine binary operators are ranked; everything else
// (leaves, unary forms, assignments, Parens) binds tightest and never
// gets wrapped.
func precedence(op Op) int {
	switch op {
	case Or:
		return 1
	case And:
		return 2
	case BitOr:
		return 3
	case BitXor:
		return 4
	case BitAnd:
		return 5
	case Eq, Neq:
		return 6
	case Lt, Leq, Gt, Geq:
		return 7
	case BitShl, BitShr:
		return 8
	case Add, Sub:
		return 9
	case Mul, Div, Mod:
		return 10
	case Pow:
		return 11
	}
	return 100
}

// needsParens reports whether a child expression must be wrapped when
// printed under parent. Assignment and Parens parents never wrap their
// operands. Pow is right-associative, so an equal-precedence left child
// still wraps while an equal-precedence right child does not.
func needsParens(child, parent Op, isRight bool) bool {
	if IsAssignment(parent) || parent == Parens {
		return false
	}
	cp, pp := precedence(child), precedence(parent)
	if cp < pp {
		return true
	}
	if parent == Pow && !isRight && cp == pp {
		return true
	}
	return false
}

func formatNode(b *strings.Builder, e *Expr, varNames [2]string, parent Op, hasParent, isRight bool) {
	wrap := hasParent && needsParens(e.Op, parent, isRight)
	if wrap {
		b.WriteByte('(')
	}

	if e.Left != nil {
		formatNode(b, e.Left, varNames, e.Op, true, false)
	}

	switch e.Op {
	case Literal:
		b.WriteString(strconv.FormatInt(e.Literal, 10))
	case Var:
		b.WriteString(varNames[0])
	case VarY:
		b.WriteString(varNames[1])
	case Parens:
		b.WriteByte('(')
	case PostInc, PostDec:
		// glyph goes after the operand
	default:
		b.WriteString(Info(e.Op).Glyph)
	}

	if e.Right != nil {
		formatNode(b, e.Right, varNames, e.Op, true, true)
		if e.Op == Parens {
			b.WriteByte(')')
		}
	}

	switch e.Op {
	case PostInc:
		b.WriteString("++")
	case PostDec:
		b.WriteString("--")
	}

	if wrap {
		b.WriteByte(')')
	}
}
