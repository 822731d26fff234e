//go:build arm64

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

package jit

import "github.com/carli2/exprsearch/expr"

// AAPCS64: first two integer args in X0, X1; return in X0. call_arm64.s
// follows this exactly, so generated code finds px in X0 and py in X1 on
// entry and must leave the result in X0.
//
// X2-X5 are the fixed expression-register stack (free set, matching
// maxExprDepth). X6-X9 are scratch helpers for division/power sequences.
// X18 (platform register on some ABIs) and X19-X30 (callee-saved, X28 in
// particular doubling as the Go runtime's goroutine pointer) are never
// touched — this is a leaf function, and nothing here needs them.
type areg byte

const (
	xzr areg = 31
)

const (
	regPXa = areg(0)
	regPYa = areg(1)
)

var freeRegsARM = [maxExprDepth]areg{2, 3, 4, 5}

const (
	tmp6 areg = 6
	tmp7 areg = 7
	tmp8 areg = 8
	tmp9 areg = 9
)

func init() { lower = lowerARM64 }

func lowerARM64(w *writer, e *expr.Expr) {
	c := &arm64Compiler{w: w}
	result := c.gen(e)
	c.mov(0, result)
	w.emitU32(0xD65F03C0) // RET
}

type arm64Compiler struct {
	w   *writer
	top int
}

func (c *arm64Compiler) alloc() areg {
	if c.top >= len(freeRegsARM) {
		panic("jit: expression exceeds fixed register stack depth")
	}
	r := freeRegsARM[c.top]
	c.top++
	return r
}

func (c *arm64Compiler) drop() { c.top-- }

// --- instruction emitters ------------------------------------------------

func (c *arm64Compiler) movImm64(dst areg, v uint64) {
	c.w.emitU32(0xD2800000 | (uint32(v&0xFFFF) << 5) | uint32(dst))
	for hw := 1; hw < 4; hw++ {
		chunk := uint32((v >> (16 * uint(hw))) & 0xFFFF)
		c.w.emitU32(0xF2800000 | (uint32(hw) << 21) | (chunk << 5) | uint32(dst))
	}
}

func (c *arm64Compiler) loadMem(dst, base areg) {
	c.w.emitU32(0xF9400000 | (uint32(base) << 5) | uint32(dst))
}

func (c *arm64Compiler) storeMem(base, src areg) {
	c.w.emitU32(0xF9000000 | (uint32(base) << 5) | uint32(src))
}

func (c *arm64Compiler) mov(dst, src areg) {
	if dst == src {
		return
	}
	c.w.emitU32(0xAA0003E0 | (uint32(src) << 16) | uint32(dst))
}

func (c *arm64Compiler) addReg(dst, a, b areg) {
	c.w.emitU32(0x8B000000 | (uint32(b) << 16) | (uint32(a) << 5) | uint32(dst))
}
func (c *arm64Compiler) subReg(dst, a, b areg) {
	c.w.emitU32(0xCB000000 | (uint32(b) << 16) | (uint32(a) << 5) | uint32(dst))
}
func (c *arm64Compiler) andReg(dst, a, b areg) {
	c.w.emitU32(0x8A000000 | (uint32(b) << 16) | (uint32(a) << 5) | uint32(dst))
}
func (c *arm64Compiler) orrReg(dst, a, b areg) {
	c.w.emitU32(0xAA000000 | (uint32(b) << 16) | (uint32(a) << 5) | uint32(dst))
}
func (c *arm64Compiler) eorReg(dst, a, b areg) {
	c.w.emitU32(0xCA000000 | (uint32(b) << 16) | (uint32(a) << 5) | uint32(dst))
}
func (c *arm64Compiler) mulReg(dst, a, b areg) {
	c.w.emitU32(0x9B007C00 | (uint32(b) << 16) | (uint32(a) << 5) | uint32(dst))
}
func (c *arm64Compiler) sdivReg(dst, a, b areg) {
	c.w.emitU32(0x9AC00C00 | (uint32(b) << 16) | (uint32(a) << 5) | uint32(dst))
}
func (c *arm64Compiler) msubReg(dst, rn, rm, ra areg) {
	c.w.emitU32(0x9B008000 | (uint32(rm) << 16) | (uint32(ra) << 10) | (uint32(rn) << 5) | uint32(dst))
}
func (c *arm64Compiler) lslvReg(dst, a, b areg) {
	c.w.emitU32(0x9AC02000 | (uint32(b) << 16) | (uint32(a) << 5) | uint32(dst))
}
func (c *arm64Compiler) asrvReg(dst, a, b areg) {
	c.w.emitU32(0x9AC02800 | (uint32(b) << 16) | (uint32(a) << 5) | uint32(dst))
}
func (c *arm64Compiler) negReg(dst, src areg) {
	c.w.emitU32(0xCB0003E0 | (uint32(src) << 16) | uint32(dst))
}
func (c *arm64Compiler) mvnReg(dst, src areg) {
	c.w.emitU32(0xAA2003E0 | (uint32(src) << 16) | uint32(dst))
}

// cmpImm, cmnImm: imm is an unsigned 12-bit immediate (0..4095).
func (c *arm64Compiler) cmpImm(a areg, imm uint32) {
	c.w.emitU32(0xF100001F | (imm << 10) | (uint32(a) << 5))
}
func (c *arm64Compiler) cmnImm(a areg, imm uint32) {
	c.w.emitU32(0xB100001F | (imm << 10) | (uint32(a) << 5))
}
func (c *arm64Compiler) subImm(dst, a areg, imm uint32) {
	c.w.emitU32(0xD1000000 | (imm << 10) | (uint32(a) << 5) | uint32(dst))
}
func (c *arm64Compiler) cmpReg(a, b areg) {
	c.w.emitU32(0xEB00001F | (uint32(b) << 16) | (uint32(a) << 5))
}

// condition codes
const (
	condEQ uint32 = 0x0
	condNE uint32 = 0x1
	condLT uint32 = 0xB
	condGE uint32 = 0xA
	condLE uint32 = 0xD
	condGT uint32 = 0xC
	condAL uint32 = 0xE
)

func invertCond(cond uint32) uint32 { return cond ^ 1 }

func (c *arm64Compiler) cset(dst areg, cond uint32) {
	c.w.emitU32(0x9A9F07E0 | (invertCond(cond) << 12) | uint32(dst))
}

// branchCond/branchAlways both use the 19-bit imm field at bits[23:5],
// resolved through the writer's fixupRelInstrWords scheme shared with
// conditional branches and CBZ/CBNZ-shaped instructions.
func (c *arm64Compiler) branchCond(cond uint32, label int) {
	c.w.addFixup(label, 4, fixupRelInstrWords)
	c.w.emitU32(0x54000000 | cond)
}
func (c *arm64Compiler) branchAlways(label int) {
	c.branchCond(condAL, label)
}

// --- variable target resolution ---------------------------------------

func targetBaseARM(e *expr.Expr) areg {
	switch e.Op {
	case expr.Var:
		return regPXa
	case expr.VarY:
		return regPYa
	default:
		panic("jit: assignment/inc-dec target is not Var or VarY")
	}
}

// --- code generation ------------------------------------------------------

func (c *arm64Compiler) gen(e *expr.Expr) areg {
	switch e.Op {
	case expr.Literal:
		r := c.alloc()
		c.movImm64(r, uint64(e.Literal))
		return r
	case expr.Var:
		r := c.alloc()
		c.loadMem(r, regPXa)
		return r
	case expr.VarY:
		r := c.alloc()
		c.loadMem(r, regPYa)
		return r
	case expr.Parens:
		return c.gen(e.Right)
	case expr.Neg:
		r := c.gen(e.Right)
		c.negReg(r, r)
		return r
	case expr.BitNot:
		r := c.gen(e.Right)
		c.mvnReg(r, r)
		return r
	case expr.Not:
		r := c.gen(e.Right)
		c.cmpImm(r, 0)
		c.cset(r, condEQ)
		return r
	case expr.PreInc, expr.PreDec, expr.PostInc, expr.PostDec:
		return c.genIncDec(e)
	}
	if expr.IsAssignment(e.Op) {
		return c.genAssign(e)
	}
	return c.genBinary(e)
}

func (c *arm64Compiler) genIncDec(e *expr.Expr) areg {
	base := targetBaseARM(e.Right)
	r := c.alloc()
	c.loadMem(r, base)
	switch e.Op {
	case expr.PreInc:
		c.addOne(r, r)
		c.storeMem(base, r)
	case expr.PreDec:
		c.subOne(r, r)
		c.storeMem(base, r)
	case expr.PostInc:
		c.addOne(tmp6, r)
		c.storeMem(base, tmp6)
	case expr.PostDec:
		c.subOne(tmp6, r)
		c.storeMem(base, tmp6)
	}
	return r
}

// addOne/subOne: dst = src +- 1, via ADD/SUB immediate (#1 always fits imm12).
func (c *arm64Compiler) addOne(dst, src areg) {
	c.w.emitU32(0x91000400 | (uint32(src) << 5) | uint32(dst))
}
func (c *arm64Compiler) subOne(dst, src areg) {
	c.subImm(dst, src, 1)
}

func (c *arm64Compiler) genBinary(e *expr.Expr) areg {
	l := c.gen(e.Left)
	r := c.gen(e.Right)
	defer c.drop()

	switch e.Op {
	case expr.Or:
		c.orrReg(l, l, r)
		c.cmpImm(l, 0)
		c.cset(l, condNE)
		return l
	case expr.And:
		c.cmpImm(l, 0)
		c.cset(l, condNE)
		c.cmpImm(r, 0)
		c.cset(r, condNE)
		c.andReg(l, l, r)
		return l
	case expr.BitOr:
		c.orrReg(l, l, r)
		return l
	case expr.BitXor:
		c.eorReg(l, l, r)
		return l
	case expr.BitAnd:
		c.andReg(l, l, r)
		return l
	case expr.Eq:
		c.cmpReg(l, r)
		c.cset(l, condEQ)
		return l
	case expr.Neq:
		c.cmpReg(l, r)
		c.cset(l, condNE)
		return l
	case expr.Lt:
		c.cmpReg(l, r)
		c.cset(l, condLT)
		return l
	case expr.Leq:
		c.cmpReg(l, r)
		c.cset(l, condLE)
		return l
	case expr.Gt:
		c.cmpReg(l, r)
		c.cset(l, condGT)
		return l
	case expr.Geq:
		c.cmpReg(l, r)
		c.cset(l, condGE)
		return l
	case expr.BitShl:
		c.lslvReg(l, l, r)
		return l
	case expr.BitShr:
		c.asrvReg(l, l, r)
		return l
	case expr.Add:
		c.addReg(l, l, r)
		return l
	case expr.Sub:
		c.subReg(l, l, r)
		return l
	case expr.Mul:
		c.mulReg(l, l, r)
		return l
	case expr.Div, expr.Mod:
		c.genDivMod(l, r, e.Op == expr.Div)
		return l
	case expr.Pow:
		c.genPow(l, r)
		return l
	}
	panic("jit: unhandled binary operator")
}

// genDivMod: ARM64's SDIV already returns 0 for a zero divisor, but MSUB
// would still compute a nonzero remainder in that case, so both Div and
// Mod check divisor==0 explicitly. INT64_MIN/-1 is guarded the same way
// as amd64, since SDIV silently wraps it instead of trapping.
func (c *arm64Compiler) genDivMod(l, r areg, wantQuotient bool) {
	retZero := c.w.reserveLabel()
	doDivide := c.w.reserveLabel()
	done := c.w.reserveLabel()

	c.cmpImm(r, 0)
	c.branchCond(condEQ, retZero)
	c.cmnImm(r, 1) // r == -1?
	c.branchCond(condNE, doDivide)
	c.movImm64(tmp6, uint64(minInt64))
	c.cmpReg(l, tmp6)
	c.branchCond(condEQ, retZero)

	c.w.markLabel(doDivide)
	c.sdivReg(tmp6, l, r)
	if wantQuotient {
		c.mov(l, tmp6)
	} else {
		c.msubReg(l, tmp6, r, l)
	}
	c.branchAlways(done)

	c.w.markLabel(retZero)
	c.movImm64(l, 0)

	c.w.markLabel(done)
}

const minInt64 = -1 << 63

// genPow mirrors the reference evaluator's own overflow check (divide the
// product back by the base and compare) rather than relying on a
// hardware overflow flag, since AArch64 multiply carries none.
func (c *arm64Compiler) genPow(base, exp areg) {
	negCase := c.w.reserveLabel()
	done := c.w.reserveLabel()
	loopTop := c.w.reserveLabel()
	loopDone := c.w.reserveLabel()
	overflow := c.w.reserveLabel()
	skipCheck := c.w.reserveLabel()

	acc, counter, prod, quot := tmp6, tmp7, tmp8, tmp9

	c.cmpImm(exp, 0)
	c.branchCond(condLT, negCase)

	c.movImm64(acc, 1)
	c.mov(counter, exp)
	c.w.markLabel(loopTop)
	c.cmpImm(counter, 0)
	c.branchCond(condEQ, loopDone)
	c.mulReg(prod, acc, base)
	c.cmpImm(base, 0)
	c.branchCond(condEQ, skipCheck)
	c.sdivReg(quot, prod, base)
	c.cmpReg(quot, acc)
	c.branchCond(condNE, overflow)
	c.w.markLabel(skipCheck)
	c.mov(acc, prod)
	c.subOne(counter, counter)
	c.branchAlways(loopTop)

	c.w.markLabel(overflow)
	c.movImm64(acc, 0)
	c.branchAlways(done)

	c.w.markLabel(loopDone)
	c.branchAlways(done)

	c.w.markLabel(negCase)
	zeroBase := c.w.reserveLabel()
	oneBase := c.w.reserveLabel()
	negOneBase := c.w.reserveLabel()
	evenExp := c.w.reserveLabel()
	c.cmpImm(base, 0)
	c.branchCond(condEQ, zeroBase)
	c.cmpImm(base, 1)
	c.branchCond(condEQ, oneBase)
	c.cmnImm(base, 1)
	c.branchCond(condEQ, negOneBase)
	c.movImm64(acc, 0)
	c.branchAlways(done)

	c.w.markLabel(zeroBase)
	c.movImm64(acc, 0)
	c.branchAlways(done)
	c.w.markLabel(oneBase)
	c.movImm64(acc, 1)
	c.branchAlways(done)
	c.w.markLabel(negOneBase)
	c.movImm64(quot, 1)
	c.andReg(quot, exp, quot)
	c.cmpImm(quot, 0)
	c.branchCond(condEQ, evenExp)
	c.movImm64(acc, uint64(int64(-1)))
	c.branchAlways(done)
	c.w.markLabel(evenExp)
	c.movImm64(acc, 1)

	c.w.markLabel(done)
	c.mov(base, acc)
}

// genAssign lowers a compound assignment: evaluate the RHS first, then
// load/combine/store the target, and leave the stored value as the
// expression's own result.
func (c *arm64Compiler) genAssign(e *expr.Expr) areg {
	base := targetBaseARM(e.Left)
	rhs := c.gen(e.Right)

	if e.Op == expr.AssignEq {
		c.storeMem(base, rhs)
		return rhs
	}

	tgt := c.alloc()
	defer c.drop()
	c.loadMem(tgt, base)

	if e.Op == expr.DivEq || e.Op == expr.ModEq {
		skipStore := c.w.reserveLabel()
		doDivide := c.w.reserveLabel()
		done := c.w.reserveLabel()

		c.cmpImm(rhs, 0)
		c.branchCond(condEQ, skipStore)
		c.cmnImm(rhs, 1)
		c.branchCond(condNE, doDivide)
		c.movImm64(tmp6, uint64(minInt64))
		c.cmpReg(tgt, tmp6)
		c.branchCond(condEQ, skipStore)

		c.w.markLabel(doDivide)
		c.sdivReg(tmp7, tgt, rhs)
		if e.Op == expr.DivEq {
			c.mov(tgt, tmp7)
		} else {
			c.msubReg(tgt, tmp7, rhs, tgt)
		}
		c.storeMem(base, tgt)
		c.mov(rhs, tgt)
		c.branchAlways(done)

		c.w.markLabel(skipStore)
		c.movImm64(rhs, 0)

		c.w.markLabel(done)
		return rhs
	}

	switch e.Op {
	case expr.BitOrEq:
		c.orrReg(tgt, tgt, rhs)
	case expr.BitXorEq:
		c.eorReg(tgt, tgt, rhs)
	case expr.BitAndEq:
		c.andReg(tgt, tgt, rhs)
	case expr.BitShlEq:
		c.lslvReg(tgt, tgt, rhs)
	case expr.BitShrEq:
		c.asrvReg(tgt, tgt, rhs)
	case expr.AddEq:
		c.addReg(tgt, tgt, rhs)
	case expr.SubEq:
		c.subReg(tgt, tgt, rhs)
	case expr.MulEq:
		c.mulReg(tgt, tgt, rhs)
	default:
		panic("jit: unhandled assignment operator")
	}
	c.storeMem(base, tgt)
	c.mov(rhs, tgt)
	return rhs
}
