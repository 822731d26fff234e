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

// Package expr defines the expression AST, the operator table, and the
// reference evaluator that serves as the JIT's oracle.
package expr

// Op is an operator code. Its numerical value encodes the operator's
// precedence class: lower codes bind looser. This ordering is load-bearing
// for the bottom-up generator in package forest, which prunes non-canonical
// left/right child combinations purely by comparing Op byte values.
type Op byte

const (
	AssignEq  Op = 0x00
	BitOrEq   Op = 0x01
	BitXorEq  Op = 0x02
	BitAndEq  Op = 0x03
	BitShlEq  Op = 0x04
	BitShrEq  Op = 0x05
	AddEq     Op = 0x06
	SubEq     Op = 0x07
	MulEq     Op = 0x08
	DivEq     Op = 0x09
	ModEq     Op = 0x0A

	Or  Op = 0x20
	And Op = 0x30

	BitOr  Op = 0x40
	BitXor Op = 0x50
	BitAnd Op = 0x60

	Eq  Op = 0x70
	Neq Op = 0x71

	Lt  Op = 0x80
	Leq Op = 0x81
	Gt  Op = 0x82
	Geq Op = 0x83

	BitShl Op = 0x90
	BitShr Op = 0x91

	Add Op = 0xA0
	Sub Op = 0xA1

	Mul Op = 0xB0
	Div Op = 0xB1
	Mod Op = 0xB2
	Pow Op = 0xB3

	Neg    Op = 0xC0
	BitNot Op = 0xC1
	Not    Op = 0xC2
	PreInc Op = 0xC3
	PreDec Op = 0xC4

	PostInc Op = 0xD0
	PostDec Op = 0xD1

	Parens Op = 0xE0

	Var  Op = 0xF0
	VarY Op = 0xF1

	Literal Op = 0xFF
)

// OpInfo describes one entry of the operator table: its code (whose value
// carries the precedence class), textual glyph, arity, and textual length
// (in source characters). The printer, the forest's length bookkeeping
// and snapshot decoding read glyphs, lengths and arities from this table;
// the JIT backends dispatch on the operator code with their own switch
// statements and do not read it.
type OpInfo struct {
	Op     Op
	Glyph  string
	Arity  int // 1 = unary, 2 = binary
	TextLen int // number of source characters the glyph occupies
}

// opTable maps every Op to its entry; Info and Lookup look entries up by Op.
var opTable = map[Op]OpInfo{
	AssignEq: {AssignEq, "=", 2, 1},
	BitOrEq:  {BitOrEq, "|=", 2, 2},
	BitXorEq: {BitXorEq, "^=", 2, 2},
	BitAndEq: {BitAndEq, "&=", 2, 2},
	BitShlEq: {BitShlEq, "<<=", 2, 3},
	BitShrEq: {BitShrEq, ">>=", 2, 3},
	AddEq:    {AddEq, "+=", 2, 2},
	SubEq:    {SubEq, "-=", 2, 2},
	MulEq:    {MulEq, "*=", 2, 2},
	DivEq:    {DivEq, "/=", 2, 2},
	ModEq:    {ModEq, "%=", 2, 2},

	Or:  {Or, "||", 2, 2},
	And: {And, "&&", 2, 2},

	BitOr:  {BitOr, "|", 2, 1},
	BitXor: {BitXor, "^", 2, 1},
	BitAnd: {BitAnd, "&", 2, 1},

	Eq:  {Eq, "==", 2, 2},
	Neq: {Neq, "!=", 2, 2},

	Lt:  {Lt, "<", 2, 1},
	Leq: {Leq, "<=", 2, 2},
	Gt:  {Gt, ">", 2, 1},
	Geq: {Geq, ">=", 2, 2},

	BitShl: {BitShl, "<<", 2, 2},
	BitShr: {BitShr, ">>", 2, 2},

	Add: {Add, "+", 2, 1},
	Sub: {Sub, "-", 2, 1},

	Mul: {Mul, "*", 2, 1},
	Div: {Div, "/", 2, 1},
	Mod: {Mod, "%", 2, 1},
	Pow: {Pow, "**", 2, 2},

	Neg:    {Neg, "-", 1, 1},
	BitNot: {BitNot, "~", 1, 1},
	Not:    {Not, "!", 1, 1},
	PreInc: {PreInc, "++", 1, 2},
	PreDec: {PreDec, "--", 1, 2},

	PostInc: {PostInc, "++", 1, 2},
	PostDec: {PostDec, "--", 1, 2},

	Parens: {Parens, "()", 1, 2},

	Var:  {Var, "x", 0, 1},
	VarY: {VarY, "y", 0, 1},

	Literal: {Literal, "", 0, 1},
}

// Info returns the operator table entry for op. It panics on an unknown
// code: an unrecognized Op value is always a construction bug, never a
// runtime data condition.
func Info(op Op) OpInfo {
	info, ok := opTable[op]
	if !ok {
		panic("exprsearch/expr: unknown operator code")
	}
	return info
}

// Lookup is the non-panicking variant of Info, for callers decoding
// operator codes from external data (a forest snapshot, parsed input)
// where an unknown byte is a data condition rather than a bug.
func Lookup(op Op) (OpInfo, bool) {
	info, ok := opTable[op]
	return info, ok
}

// TextLen returns the number of source characters op contributes, not
// counting its operands. Variables and literals occupy one character;
// Parens contributes 2 for the enclosing punctuation.
func TextLen(op Op) int {
	return Info(op).TextLen
}

// IsAssignment reports whether op is one of the compound-assignment
// operators. Per the operator table, assignment operators occupy the
// contiguous low range < 0x10; this predicate must never be satisfied by
// any operator introduced outside that range.
func IsAssignment(op Op) bool {
	return op < 0x10
}

// IsVariable reports whether op references one of the two mutable
// variables directly.
func IsVariable(op Op) bool {
	return op == Var || op == VarY
}

// BinaryOperators lists every binary (non-assignment, non-unary) operator
// in ascending precedence-code order, the order the generator walks them in.
var BinaryOperators = []Op{
	Or, And,
	BitOr, BitXor, BitAnd,
	Eq, Neq,
	Lt, Leq, Gt, Geq,
	BitShl, BitShr,
	Add, Sub,
	Mul, Div, Mod, Pow,
}

// AssignOperators lists every compound-assignment operator.
var AssignOperators = []Op{
	AssignEq, BitOrEq, BitXorEq, BitAndEq, BitShlEq, BitShrEq,
	AddEq, SubEq, MulEq, DivEq, ModEq,
}

// UnaryPrefixOperators lists every unary-prefix operator (excluding
// inc/dec, which the forest generator treats specially since they only
// apply to variables).
var UnaryPrefixOperators = []Op{Neg, BitNot, Not}

// IncDecOperators lists the four increment/decrement operators.
var IncDecOperators = []Op{PreInc, PreDec, PostInc, PostDec}

// canonicalThreshold gives, for a binary operator B, the minimum operator
// code its left child's top operator must carry, and the minimum code its
// right child's top operator must carry, for (L, B, R) to be a canonical
// (non-redundant) generated form: the left child must bind at least as
// tight as B, the right child strictly tighter (the next class up).
type canonicalThreshold struct {
	left  Op
	right Op
	// rightExcludesLiteralOne is set for the multiplicative class, where
	// a right child that is the literal 1 is additionally excluded
	// (x*1 is already covered by x itself, post semantic dedup, but the
	// generator avoids manufacturing it at all to save work).
	rightExcludesLiteralOne bool
}

var canonicalThresholds = map[Op]canonicalThreshold{
	Or:     {Or, And, false},
	And:    {And, BitOr, false},
	BitOr:  {BitOr, BitXor, false},
	BitXor: {BitXor, BitAnd, false},
	BitAnd: {BitAnd, Eq, false},
	Eq:     {Eq, Lt, false},
	Neq:    {Eq, Lt, false},
	Lt:     {Lt, BitShl, false},
	Leq:    {Lt, BitShl, false},
	Gt:     {Lt, BitShl, false},
	Geq:    {Lt, BitShl, false},
	BitShl: {BitShl, Add, false},
	BitShr: {BitShl, Add, false},
	Add:    {Add, Mul, false},
	Sub:    {Add, Mul, false},
	Mul:    {Mul, Neg, true},
	Div:    {Mul, Neg, true},
	Mod:    {Mul, Neg, true},
	Pow:    {Mul, Neg, true},
}

// CanonicalThreshold reports the minimum left-child and right-child
// operator codes required for b to be generated in canonical form, and
// whether a literal-1 right child is additionally excluded.
func CanonicalThreshold(b Op) (leftMin, rightMin Op, excludeRightLiteralOne bool) {
	t, ok := canonicalThresholds[b]
	if !ok {
		panic("exprsearch/expr: no canonical threshold for operator")
	}
	return t.left, t.right, t.rightExcludesLiteralOne
}
