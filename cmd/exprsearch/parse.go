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
	"fmt"
	"strconv"
	"strings"

	packrat "github.com/launix-de/go-packrat/v2"

	"github.com/carli2/exprsearch/expr"
)

// The surface grammar mirrors expr.Format: one precedence level per
// Kleene parser, folded left-associatively, with a proxy parser closing
// the recursion from primary back up to the full expression. `**` sits
// on the multiplicative level and folds left like `*`, while expr.Format
// prints it as tighter and right-associative, so a right-nested power
// printed by Format parses back left-nested. Statements are `x <assign-op> <expression>` and a REPL
// line may carry a semicolon-separated pair of them.

// proxyParser is a forward declaration: primary needs the full
// expression parser before it exists.
type proxyParser struct {
	target packrat.Parser
}

func (p *proxyParser) Match(s *packrat.Scanner) *packrat.Node {
	return p.target.Match(s)
}

type grammar struct {
	number packrat.Parser
	varX   packrat.Parser
	varY   packrat.Parser
	parens packrat.Parser
	prefix packrat.Parser
	postfix packrat.Parser

	levels map[packrat.Parser]struct{} // the Kleene fold levels

	stmt packrat.Parser
	pair packrat.Parser
	one  packrat.Parser
}

var binaryGlyphs = map[string]expr.Op{
	"||": expr.Or, "&&": expr.And,
	"|": expr.BitOr, "^": expr.BitXor, "&": expr.BitAnd,
	"==": expr.Eq, "!=": expr.Neq,
	"<": expr.Lt, "<=": expr.Leq, ">": expr.Gt, ">=": expr.Geq,
	"<<": expr.BitShl, ">>": expr.BitShr,
	"+": expr.Add, "-": expr.Sub,
	"*": expr.Mul, "/": expr.Div, "%": expr.Mod, "**": expr.Pow,
}

var assignGlyphs = map[string]expr.Op{
	"=": expr.AssignEq, "|=": expr.BitOrEq, "^=": expr.BitXorEq,
	"&=": expr.BitAndEq, "<<=": expr.BitShlEq, ">>=": expr.BitShrEq,
	"+=": expr.AddEq, "-=": expr.SubEq, "*=": expr.MulEq,
	"/=": expr.DivEq, "%=": expr.ModEq,
}

func atom(s string) packrat.Parser { return packrat.NewAtomParser(s, false, true) }

func newGrammar() *grammar {
	g := &grammar{levels: make(map[packrat.Parser]struct{})}

	exprRef := &proxyParser{}
	unaryRef := &proxyParser{}

	g.number = packrat.NewRegexParser(`[0-9]+`, false, true)
	g.varX = atom("x")
	g.varY = atom("y")
	g.parens = packrat.NewAndParser(atom("("), exprRef, atom(")"))
	primary := packrat.NewOrParser(g.number, g.varX, g.varY, g.parens)

	// longest glyphs first, so ++ is never read as two unary minuses' twin
	prefixOp := packrat.NewOrParser(atom("++"), atom("--"), atom("-"), atom("~"), atom("!"))
	g.prefix = packrat.NewAndParser(prefixOp, unaryRef)
	g.postfix = packrat.NewAndParser(primary, packrat.NewMaybeParser(packrat.NewOrParser(atom("++"), atom("--"))))
	unary := packrat.NewOrParser(g.prefix, g.postfix)
	unaryRef.target = unary

	level := func(sub packrat.Parser, seps ...string) packrat.Parser {
		parsers := make([]packrat.Parser, len(seps))
		for i, s := range seps {
			parsers[i] = atom(s)
		}
		var sep packrat.Parser
		if len(parsers) == 1 {
			sep = parsers[0]
		} else {
			sep = packrat.NewOrParser(parsers...)
		}
		k := packrat.NewKleeneParser(sub, sep)
		g.levels[k] = struct{}{}
		return k
	}

	mul := level(unary, "**", "*", "/", "%")
	add := level(mul, "+", "-")
	shift := level(add, "<<", ">>")
	rel := level(shift, "<=", ">=", "<", ">")
	eq := level(rel, "==", "!=")
	band := level(eq, "&")
	bxor := level(band, "^")
	bor := level(bxor, "|")
	and := level(bor, "&&")
	or := level(and, "||")
	exprRef.target = or

	assignOp := packrat.NewOrParser(
		atom("<<="), atom(">>="),
		atom("+="), atom("-="), atom("*="), atom("/="), atom("%="),
		atom("&="), atom("|="), atom("^="),
		atom("="),
	)
	g.stmt = packrat.NewAndParser(packrat.NewOrParser(g.varX, g.varY), assignOp, or)
	g.pair = packrat.NewAndParser(g.stmt, atom(";"), g.stmt, packrat.NewEndParser(true))
	g.one = packrat.NewAndParser(g.stmt, packrat.NewEndParser(true))
	return g
}

var surface = newGrammar()

// build converts a parse node back into the AST, folding each Kleene
// level left-associatively.
func (g *grammar) build(n *packrat.Node) (*expr.Expr, error) {
	switch n.Parser {
	case g.number:
		v, err := strconv.ParseInt(strings.TrimSpace(n.Matched), 10, 64)
		if err != nil {
			return nil, err
		}
		return expr.NewLiteral(v), nil
	case g.varX:
		return expr.NewVar(), nil
	case g.varY:
		return expr.NewVarY(), nil
	case g.parens:
		inner, err := g.build(n.Children[1])
		if err != nil {
			return nil, err
		}
		return expr.NewParens(inner), nil
	case g.prefix:
		glyph := strings.TrimSpace(n.Children[0].Matched)
		operand, err := g.build(n.Children[1])
		if err != nil {
			return nil, err
		}
		switch glyph {
		case "-":
			return expr.NewUnary(expr.Neg, operand), nil
		case "~":
			return expr.NewUnary(expr.BitNot, operand), nil
		case "!":
			return expr.NewUnary(expr.Not, operand), nil
		case "++", "--":
			if !expr.IsVariable(operand.Op) {
				return nil, fmt.Errorf("parse: %s requires a variable operand", glyph)
			}
			if glyph == "++" {
				return expr.NewUnary(expr.PreInc, operand), nil
			}
			return expr.NewUnary(expr.PreDec, operand), nil
		}
		return nil, fmt.Errorf("parse: unknown prefix operator %q", glyph)
	case g.postfix:
		operand, err := g.build(n.Children[0])
		if err != nil {
			return nil, err
		}
		maybe := n.Children[1]
		if len(maybe.Children) == 0 {
			return operand, nil
		}
		glyph := strings.TrimSpace(maybe.Children[0].Matched)
		if !expr.IsVariable(operand.Op) {
			return nil, fmt.Errorf("parse: %s requires a variable operand", glyph)
		}
		if glyph == "++" {
			return expr.NewUnary(expr.PostInc, operand), nil
		}
		return expr.NewUnary(expr.PostDec, operand), nil
	}

	if _, isLevel := g.levels[n.Parser]; isLevel {
		e, err := g.build(n.Children[0])
		if err != nil {
			return nil, err
		}
		for i := 1; i+1 < len(n.Children); i += 2 {
			glyph := strings.TrimSpace(n.Children[i].Matched)
			op, ok := binaryGlyphs[glyph]
			if !ok {
				return nil, fmt.Errorf("parse: unknown binary operator %q", glyph)
			}
			right, err := g.build(n.Children[i+1])
			if err != nil {
				return nil, err
			}
			e = expr.NewBinary(op, e, right)
		}
		return e, nil
	}

	// Or/proxy wrappers: descend into the single matched alternative.
	if len(n.Children) == 1 {
		return g.build(n.Children[0])
	}
	return nil, fmt.Errorf("parse: unexpected node shape (%d children)", len(n.Children))
}

func (g *grammar) buildStmt(n *packrat.Node) (*expr.Expr, error) {
	target, err := g.build(n.Children[0])
	if err != nil {
		return nil, err
	}
	glyph := strings.TrimSpace(n.Children[1].Matched)
	op, ok := assignGlyphs[glyph]
	if !ok {
		return nil, fmt.Errorf("parse: unknown assignment operator %q", glyph)
	}
	rhs, err := g.build(n.Children[2])
	if err != nil {
		return nil, err
	}
	return expr.NewAssign(op, target, rhs), nil
}

// ParseStatement parses one `x <op>= <expression>` line.
func ParseStatement(line string) (*expr.Expr, error) {
	scanner := packrat.NewScanner(line, packrat.SkipWhitespaceRegex)
	node, err := packrat.Parse(surface.one, scanner)
	if err != nil {
		return nil, err
	}
	return surface.buildStmt(node.Children[0])
}

// ParsePair parses `<stmt> ; <stmt>`. The first statement must target x
// and the second must target y; the second is returned already rewritten
// into the statement-on-x convention (its variables swapped), ready to
// be called with swapped pointers by the driver.
func ParsePair(line string) (sx, sy *expr.Expr, err error) {
	scanner := packrat.NewScanner(line, packrat.SkipWhitespaceRegex)
	node, err := packrat.Parse(surface.pair, scanner)
	if err != nil {
		return nil, nil, err
	}
	sx, err = surface.buildStmt(node.Children[0])
	if err != nil {
		return nil, nil, err
	}
	sy, err = surface.buildStmt(node.Children[2])
	if err != nil {
		return nil, nil, err
	}
	if sx.Left.Op != expr.Var {
		return nil, nil, fmt.Errorf("parse: first statement must target x")
	}
	if sy.Left.Op != expr.VarY {
		return nil, nil, fmt.Errorf("parse: second statement must target y")
	}
	return sx, swapVars(sy), nil
}

// swapVars rebuilds e with Var and VarY exchanged. Parsing the y-side
// statement in its printed role and then swapping yields the
// statement-on-x form the forest and driver use everywhere.
func swapVars(e *expr.Expr) *expr.Expr {
	switch e.Op {
	case expr.Var:
		return expr.NewVarY()
	case expr.VarY:
		return expr.NewVar()
	case expr.Literal:
		return expr.NewLiteral(e.Literal)
	case expr.Parens:
		return expr.NewParens(swapVars(e.Right))
	}
	if expr.IsAssignment(e.Op) {
		return expr.NewAssign(e.Op, swapVars(e.Left), swapVars(e.Right))
	}
	if e.Left == nil {
		return expr.NewUnary(e.Op, swapVars(e.Right))
	}
	return expr.NewBinary(e.Op, swapVars(e.Left), swapVars(e.Right))
}
