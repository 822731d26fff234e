//go:build amd64

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

import (
	"math"

	"github.com/carli2/exprsearch/expr"
)

// System V AMD64: first two integer args in RDI, RSI; return in RAX. Our
// trampoline (call_amd64.s) follows this exactly, so the generated code
// finds px in RDI and py in RSI on entry and must leave the result in RAX.
//
// Register budget: RDI/RSI are pinned to px/py for the whole function.
// R8-R11 are the fixed expression-register stack (free set); RAX, RCX,
// RDX are reserved as division/shift helpers. R12-R15 and RBX are never
// touched: on amd64 those are callee-saved by the host C convention, and
// R14 in particular is the Go runtime's goroutine pointer under its
// internal register ABI — clobbering it here would corrupt the calling
// goroutine the moment this buffer is entered from Go.
type reg byte

const (
	rAX reg = 0
	rCX reg = 1
	rDX reg = 2
	rBX reg = 3
	rSP reg = 4
	rBP reg = 5
	rSI reg = 6
	rDI reg = 7
	r8  reg = 8
	r9  reg = 9
	r10 reg = 10
	r11 reg = 11
)

const (
	regPX = rDI
	regPY = rSI
)

var freeRegs = [maxExprDepth]reg{r8, r9, r10, r11}

func init() { lower = lowerAMD64 }

func lowerAMD64(w *writer, e *expr.Expr) {
	c := &amd64Compiler{w: w}
	result := c.gen(e)
	c.movRegReg(rAX, result)
	w.emitByte(0xC3) // RET
}

type amd64Compiler struct {
	w   *writer
	top int
}

func (c *amd64Compiler) alloc() reg {
	if c.top >= len(freeRegs) {
		panic("jit: expression exceeds fixed register stack depth")
	}
	r := freeRegs[c.top]
	c.top++
	return r
}

func (c *amd64Compiler) drop() { c.top-- }

// --- encoding helpers -------------------------------------------------

func rex(w, r, x, b bool) byte {
	v := byte(0x40)
	if w {
		v |= 0x08
	}
	if r {
		v |= 0x04
	}
	if x {
		v |= 0x02
	}
	if b {
		v |= 0x01
	}
	return v
}

func (c *amd64Compiler) emitModRMReg(op []byte, dst, src reg) {
	// <op> r/m64, r64 style: reg field = src, r/m field = dst (register direct).
	r := rex(true, src >= 8, false, dst >= 8)
	c.w.emitByte(r)
	c.w.emitBytes(op...)
	c.w.emitByte(0xC0 | (byte(src&7) << 3) | byte(dst&7))
}

// movRegReg: dst = src.
func (c *amd64Compiler) movRegReg(dst, src reg) {
	if dst == src {
		return
	}
	c.emitModRMReg([]byte{0x89}, dst, src)
}

func (c *amd64Compiler) movImm64(dst reg, v uint64) {
	r := rex(true, false, false, dst >= 8)
	c.w.emitByte(r)
	c.w.emitByte(0xB8 | byte(dst&7))
	c.w.emitU64(v)
}

// loadMem: dst = [base] (disp 0).
func (c *amd64Compiler) loadMem(dst, base reg) {
	c.memOp(0x8B, dst, base)
}

// storeMem: [base] = src.
func (c *amd64Compiler) storeMem(base, src reg) {
	c.memOp(0x89, src, base)
}

func (c *amd64Compiler) memOp(opcode byte, reg_, base reg) {
	r := rex(true, reg_ >= 8, false, base >= 8)
	c.w.emitByte(r)
	c.w.emitByte(opcode)
	modrm := (byte(reg_&7) << 3) | byte(base&7)
	if base&7 == 4 { // RSP/R12 needs SIB
		c.w.emitBytes(modrm, 0x24)
	} else {
		c.w.emitByte(modrm)
	}
}

func (c *amd64Compiler) aluRegReg(opcode byte, dst, src reg) {
	c.emitModRMReg([]byte{opcode}, dst, src)
}

func (c *amd64Compiler) addRegReg(dst, src reg) { c.aluRegReg(0x01, dst, src) }
func (c *amd64Compiler) subRegReg(dst, src reg) { c.aluRegReg(0x29, dst, src) }
func (c *amd64Compiler) andRegReg(dst, src reg) { c.aluRegReg(0x21, dst, src) }
func (c *amd64Compiler) orRegReg(dst, src reg)  { c.aluRegReg(0x09, dst, src) }
func (c *amd64Compiler) xorRegReg(dst, src reg) { c.aluRegReg(0x31, dst, src) }
func (c *amd64Compiler) cmpRegReg(a, b reg)     { c.aluRegReg(0x39, a, b) }
func (c *amd64Compiler) testRegReg(a, b reg)    { c.aluRegReg(0x85, a, b) }

func (c *amd64Compiler) imulRegReg(dst, src reg) {
	r := rex(true, dst >= 8, false, src >= 8)
	c.w.emitBytes(r, 0x0F, 0xAF, 0xC0|(byte(dst&7)<<3)|byte(src&7))
}

func (c *amd64Compiler) negReg(dst reg) {
	r := rex(true, false, false, dst >= 8)
	c.w.emitBytes(r, 0xF7, 0xD8|byte(dst&7))
}

func (c *amd64Compiler) notReg(dst reg) {
	r := rex(true, false, false, dst >= 8)
	c.w.emitBytes(r, 0xF7, 0xD0|byte(dst&7))
}

func (c *amd64Compiler) addImm32(dst reg, imm int32) { c.aluImm32(0xC0, dst, imm) }
func (c *amd64Compiler) subImm32(dst reg, imm int32) { c.aluImm32(0xE8, dst, imm) }
func (c *amd64Compiler) cmpImm32(dst reg, imm int32) { c.aluImm32(0xF8, dst, imm) }

// aluImm32 emits REX.W 81 /n id — ADD/SUB/CMP r64, sign-extended imm32.
// modrmBase selects the opcode extension (/0 ADD=0xC0, /5 SUB=0xE8, /7 CMP=0xF8).
func (c *amd64Compiler) aluImm32(modrmBase byte, dst reg, imm int32) {
	r := rex(true, false, false, dst >= 8)
	c.w.emitByte(r)
	c.w.emitByte(0x81)
	c.w.emitByte(modrmBase | byte(dst&7))
	c.w.emitU32(uint32(imm))
}

// condition codes for Jcc/SETcc
const (
	ccO  byte = 0x0
	ccE  byte = 0x4
	ccNE byte = 0x5
	ccL  byte = 0xC
	ccGE byte = 0xD
	ccLE byte = 0xE
	ccG  byte = 0xF
)

func (c *amd64Compiler) setcc(dst reg, cc byte) {
	// SETcc r/m8, then MOVZX r64, r8 to zero-extend into the full register.
	r8rex := rex(false, false, false, dst >= 8)
	if r8rex != 0x40 || dst >= 4 {
		c.w.emitByte(r8rex)
	}
	c.w.emitBytes(0x0F, 0x90|cc, 0xC0|byte(dst&7))
	r := rex(true, dst >= 8, false, dst >= 8)
	c.w.emitBytes(r, 0x0F, 0xB6, 0xC0|(byte(dst&7)<<3)|byte(dst&7))
}

// boolNormalize sets dst to 1 if dst != 0, else 0.
func (c *amd64Compiler) boolNormalize(dst reg) {
	c.testRegReg(dst, dst)
	c.setcc(dst, ccNE)
}

func (c *amd64Compiler) jmp(label int) {
	c.w.emitByte(0xE9)
	c.w.addFixup(label, 4, fixupRelByte)
	c.w.emitU32(0)
}

func (c *amd64Compiler) jcc(cc byte, label int) {
	c.w.emitBytes(0x0F, 0x80|cc)
	c.w.addFixup(label, 4, fixupRelByte)
	c.w.emitU32(0)
}

// shiftCL emits <op> dst, CL — SHL=/4(0xE0), SAR=/7(0xF8).
func (c *amd64Compiler) shiftCL(modrmBase byte, dst reg) {
	r := rex(true, false, false, dst >= 8)
	c.w.emitBytes(r, 0xD3, modrmBase|byte(dst&7))
}

func (c *amd64Compiler) shlCL(dst reg) { c.shiftCL(0xE0, dst) }
func (c *amd64Compiler) sarCL(dst reg) { c.shiftCL(0xF8, dst) }

func (c *amd64Compiler) cqo() { c.w.emitBytes(0x48, 0x99) }

// idiv dst, divisor — REX.W F7 /7.
func (c *amd64Compiler) idivReg(divisor reg) {
	r := rex(true, false, false, divisor >= 8)
	c.w.emitBytes(r, 0xF7, 0xF8|byte(divisor&7))
}

func (c *amd64Compiler) xorSelf(dst reg) { c.xorRegReg(dst, dst) }

// --- variable target resolution ---------------------------------------

func targetBase(e *expr.Expr) reg {
	switch e.Op {
	case expr.Var:
		return regPX
	case expr.VarY:
		return regPY
	default:
		panic("jit: assignment/inc-dec target is not Var or VarY")
	}
}

// --- code generation ----------------------------------------------------

func (c *amd64Compiler) gen(e *expr.Expr) reg {
	switch e.Op {
	case expr.Literal:
		r := c.alloc()
		c.movImm64(r, uint64(e.Literal))
		return r
	case expr.Var:
		r := c.alloc()
		c.loadMem(r, regPX)
		return r
	case expr.VarY:
		r := c.alloc()
		c.loadMem(r, regPY)
		return r
	case expr.Parens:
		return c.gen(e.Right)
	case expr.Neg:
		r := c.gen(e.Right)
		c.negReg(r)
		return r
	case expr.BitNot:
		r := c.gen(e.Right)
		c.notReg(r)
		return r
	case expr.Not:
		r := c.gen(e.Right)
		c.testRegReg(r, r)
		c.setcc(r, ccE)
		return r
	case expr.PreInc, expr.PreDec, expr.PostInc, expr.PostDec:
		return c.genIncDec(e)
	}
	if expr.IsAssignment(e.Op) {
		return c.genAssign(e)
	}
	return c.genBinary(e)
}

func (c *amd64Compiler) genIncDec(e *expr.Expr) reg {
	base := targetBase(e.Right)
	r := c.alloc()
	c.loadMem(r, base)
	switch e.Op {
	case expr.PreInc:
		c.addImm32(r, 1)
		c.storeMem(base, r)
	case expr.PreDec:
		c.subImm32(r, 1)
		c.storeMem(base, r)
	case expr.PostInc:
		c.movRegReg(rAX, r)
		c.addImm32(rAX, 1)
		c.storeMem(base, rAX)
	case expr.PostDec:
		c.movRegReg(rAX, r)
		c.subImm32(rAX, 1)
		c.storeMem(base, rAX)
	}
	return r
}

func (c *amd64Compiler) genBinary(e *expr.Expr) reg {
	l := c.gen(e.Left)
	r := c.gen(e.Right)
	defer c.drop()

	switch e.Op {
	case expr.Or:
		c.orRegReg(l, r)
		c.boolNormalize(l)
		return l
	case expr.And:
		c.boolNormalize(l)
		c.boolNormalize(r)
		c.andRegReg(l, r)
		return l
	case expr.BitOr:
		c.orRegReg(l, r)
		return l
	case expr.BitXor:
		c.xorRegReg(l, r)
		return l
	case expr.BitAnd:
		c.andRegReg(l, r)
		return l
	case expr.Eq:
		c.cmpRegReg(l, r)
		c.setcc(l, ccE)
		return l
	case expr.Neq:
		c.cmpRegReg(l, r)
		c.setcc(l, ccNE)
		return l
	case expr.Lt:
		c.cmpRegReg(l, r)
		c.setcc(l, ccL)
		return l
	case expr.Leq:
		c.cmpRegReg(l, r)
		c.setcc(l, ccLE)
		return l
	case expr.Gt:
		c.cmpRegReg(l, r)
		c.setcc(l, ccG)
		return l
	case expr.Geq:
		c.cmpRegReg(l, r)
		c.setcc(l, ccGE)
		return l
	case expr.BitShl:
		c.movRegReg(rCX, r)
		c.shlCL(l)
		return l
	case expr.BitShr:
		c.movRegReg(rCX, r)
		c.sarCL(l)
		return l
	case expr.Add:
		c.addRegReg(l, r)
		return l
	case expr.Sub:
		c.subRegReg(l, r)
		return l
	case expr.Mul:
		c.imulRegReg(l, r)
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

// genDivMod emits the fast-path guard: zero divisor or
// INT64_MIN/-1 overflow yields 0 without trapping, result left in l.
func (c *amd64Compiler) genDivMod(l, r reg, wantQuotient bool) {
	retZero := c.w.reserveLabel()
	doDivide := c.w.reserveLabel()
	done := c.w.reserveLabel()

	c.testRegReg(r, r)
	c.jcc(ccE, retZero)

	c.cmpImm32(r, -1)
	c.jcc(ccNE, doDivide)

	c.movImm64(rDX, uint64(math.MinInt64))
	c.cmpRegReg(l, rDX)
	c.jcc(ccE, retZero)

	c.w.markLabel(doDivide)
	c.movRegReg(rAX, l)
	c.cqo()
	c.idivReg(r)
	if wantQuotient {
		c.movRegReg(l, rAX)
	} else {
		c.movRegReg(l, rDX)
	}
	c.jmp(done)

	c.w.markLabel(retZero)
	c.xorSelf(l)

	c.w.markLabel(done)
}

// genPow matches the reference evaluator case for case: exp>=0 is iterated
// multiplication with hardware overflow detection (IMUL sets OF on
// truncation); exp<0 special-cases base 0 (fatal->0), base 1 (->1),
// base -1 (parity->+-1), any other base (->0).
func (c *amd64Compiler) genPow(base, exp reg) {
	negCase := c.w.reserveLabel()
	done := c.w.reserveLabel()
	loopTop := c.w.reserveLabel()
	loopDone := c.w.reserveLabel()
	overflow := c.w.reserveLabel()

	c.testRegReg(exp, exp)
	c.jcc(ccL, negCase)

	// exp >= 0: acc := 1 (in rAX-backed scratch via `base`'s partner? use
	// rDX as the loop accumulator since base/exp occupy the two pushed
	// slots and must not be clobbered until the loop concludes).
	c.movImm64(rDX, 1)
	c.movRegReg(rCX, exp) // loop counter
	c.w.markLabel(loopTop)
	c.testRegReg(rCX, rCX)
	c.jcc(ccE, loopDone)
	c.movRegReg(rAX, rDX)
	c.imulRegReg(rAX, base)
	c.jcc(ccO, overflow)
	c.movRegReg(rDX, rAX)
	c.subImm32(rCX, 1)
	c.jmp(loopTop)

	c.w.markLabel(overflow)
	c.xorSelf(rDX)
	c.jmp(done)

	c.w.markLabel(loopDone)
	c.jmp(done)

	c.w.markLabel(negCase)
	// base == 0 -> fatal in the oracle; the JIT returns 0 without trapping.
	zeroBase := c.w.reserveLabel()
	oneBase := c.w.reserveLabel()
	negOneBase := c.w.reserveLabel()
	negOneEven := c.w.reserveLabel()
	c.testRegReg(base, base)
	c.jcc(ccE, zeroBase)
	c.cmpImm32(base, 1)
	c.jcc(ccE, oneBase)
	c.cmpImm32(base, -1)
	c.jcc(ccE, negOneBase)
	// any other base with a negative exponent -> 0
	c.movImm64(rDX, 0)
	c.jmp(done)

	c.w.markLabel(zeroBase)
	c.movImm64(rDX, 0)
	c.jmp(done)
	c.w.markLabel(oneBase)
	c.movImm64(rDX, 1)
	c.jmp(done)
	c.w.markLabel(negOneBase)
	c.movRegReg(rAX, exp)
	c.andImm32(rAX, 1)
	c.testRegReg(rAX, rAX)
	c.jcc(ccE, negOneEven)
	c.movImm64(rDX, uint64(int64(-1)))
	c.jmp(done)
	c.w.markLabel(negOneEven)
	c.movImm64(rDX, 1)

	c.w.markLabel(done)
	c.movRegReg(base, rDX)
}

func (c *amd64Compiler) andImm32(dst reg, imm int32) {
	r := rex(true, false, false, dst >= 8)
	c.w.emitBytes(r, 0x81, 0xE0|byte(dst&7))
	c.w.emitU32(uint32(imm))
}

// genAssign lowers a compound assignment: evaluate the RHS first, then
// load/combine/store the target, and leave the stored value as the
// expression's own result.
func (c *amd64Compiler) genAssign(e *expr.Expr) reg {
	base := targetBase(e.Left)
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

		c.testRegReg(rhs, rhs)
		c.jcc(ccE, skipStore)
		c.cmpImm32(rhs, -1)
		c.jcc(ccNE, doDivide)
		c.movImm64(rAX, uint64(math.MinInt64))
		c.cmpRegReg(tgt, rAX)
		c.jcc(ccE, skipStore)

		c.w.markLabel(doDivide)
		c.movRegReg(rAX, tgt)
		c.cqo()
		c.idivReg(rhs)
		if e.Op == expr.DivEq {
			c.movRegReg(tgt, rAX)
		} else {
			c.movRegReg(tgt, rDX)
		}
		c.storeMem(base, tgt)
		c.movRegReg(rhs, tgt)
		c.jmp(done)

		c.w.markLabel(skipStore)
		c.xorSelf(rhs)

		c.w.markLabel(done)
		return rhs
	}

	switch e.Op {
	case expr.BitOrEq:
		c.orRegReg(tgt, rhs)
	case expr.BitXorEq:
		c.xorRegReg(tgt, rhs)
	case expr.BitAndEq:
		c.andRegReg(tgt, rhs)
	case expr.BitShlEq:
		c.movRegReg(rCX, rhs)
		c.shlCL(tgt)
	case expr.BitShrEq:
		c.movRegReg(rCX, rhs)
		c.sarCL(tgt)
	case expr.AddEq:
		c.addRegReg(tgt, rhs)
	case expr.SubEq:
		c.subRegReg(tgt, rhs)
	case expr.MulEq:
		c.imulRegReg(tgt, rhs)
	default:
		panic("jit: unhandled assignment operator")
	}
	c.storeMem(base, tgt)
	c.movRegReg(rhs, tgt)
	return rhs
}
