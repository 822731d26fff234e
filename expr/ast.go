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

// NativeFunc is the fixed ABI every compiled expression is reduced to:
// two pointers to the live x/y storage, one signed 64-bit result. Package
// jit is the only producer of values of this type; expr never depends on
// jit to avoid a cycle, it only carries the callable around.
type NativeFunc func(x, y *int64) int64

// Released is implemented by whatever owns the executable memory backing
// a NativeFunc, so that Expr.Release can give it back without expr needing
// to import the arena package.
type Released interface {
	Release() error
}

// Expr is an immutable expression tree node. Nodes are never mutated after
// construction; child references are shared, so the same subtree may be
// reachable from many parents (the forest in package forest relies on
// this to avoid deep copies).
type Expr struct {
	Op      Op
	Literal int64
	Left    *Expr // nil for unary/leaf nodes
	Right   *Expr // nil for Var/VarY/Literal

	// Length is the total textual length of this subtree, in source
	// characters: one per variable or literal, the glyph width per
	// operator, two for enclosing parens. Computed once at construction.
	Length int

	// Native is the compiled entry point for this node, set once by
	// package jit and never reassigned. Nil means "not compiled" (either
	// JIT is disabled, or compilation has not happened yet); callers
	// must fall back to Eval in that case.
	Native NativeFunc

	// arena owns the executable memory backing Native, if any. It is an
	// Released rather than a concrete arena type to avoid expr depending
	// on jitarena.
	arena Released
}

// NewLiteral constructs a literal leaf.
func NewLiteral(v int64) *Expr {
	return &Expr{Op: Literal, Literal: v, Length: 1}
}

// NewVar constructs the x variable reference leaf.
func NewVar() *Expr { return &Expr{Op: Var, Length: 1} }

// NewVarY constructs the y variable reference leaf.
func NewVarY() *Expr { return &Expr{Op: VarY, Length: 1} }

// NewUnary constructs a unary-prefix or inc/dec node. For inc/dec nodes,
// right must be exactly Var or VarY; there is no implicit default target,
// so anything else is rejected at construction.
func NewUnary(op Op, right *Expr) *Expr {
	if op == PreInc || op == PreDec || op == PostInc || op == PostDec {
		if !IsVariable(right.Op) {
			panic("exprsearch/expr: inc/dec operand must be Var or VarY")
		}
	}
	return &Expr{Op: op, Right: right, Length: right.Length + TextLen(op)}
}

// NewParens wraps e in a parenthesization marker.
func NewParens(e *Expr) *Expr {
	return &Expr{Op: Parens, Right: e, Length: e.Length + TextLen(Parens)}
}

// NewBinary constructs a binary operator node.
func NewBinary(op Op, left, right *Expr) *Expr {
	return &Expr{Op: op, Left: left, Right: right, Length: left.Length + TextLen(op) + right.Length}
}

// NewAssign constructs a compound-assignment statement. left must be
// exactly Var or VarY; any other shape is an operator-table-mismatch
// programmer error and panics.
func NewAssign(op Op, left, right *Expr) *Expr {
	if !IsAssignment(op) {
		panic("exprsearch/expr: NewAssign requires a compound-assignment operator")
	}
	if !IsVariable(left.Op) {
		panic("exprsearch/expr: assignment target must be Var or VarY")
	}
	return &Expr{Op: op, Left: left, Right: right, Length: left.Length + TextLen(op) + right.Length}
}

// Release gives back the executable memory backing Native, if any. It is
// idempotent and safe to call on an Expr with no compiled entry point.
func (e *Expr) Release() error {
	if e.arena == nil {
		return nil
	}
	a := e.arena
	e.arena = nil
	e.Native = nil
	return a.Release()
}

// SetNative attaches a compiled entry point and its owning arena. Called
// exactly once per node by package jit; Native is treated as immutable
// thereafter by every other reader.
func (e *Expr) SetNative(fn NativeFunc, arena Released) {
	e.Native = fn
	e.arena = arena
}
