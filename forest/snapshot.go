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

package forest

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/launix-de/NonLockingReadMap"
	"github.com/pierrec/lz4/v4"

	"github.com/carli2/exprsearch/expr"
)

// Snapshot format: an lz4 stream carrying a postfix-free prefix encoding
// of every cached expression and statement, grouped by length. Hashes
// and compiled entry points are not persisted — the semantic hash is
// seeded per-process and machine code is arena-bound, so both are
// rebuilt on load. A snapshot is only a way to skip the generation work,
// not the compilation work.
const snapshotMagic = "EXSF1"

// Save writes the forest to w as an lz4-compressed snapshot.
func (f *Forest) Save(w io.Writer) error {
	zw := lz4.NewWriter(w)
	bw := bufio.NewWriter(zw)

	if _, err := bw.WriteString(snapshotMagic); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, int64(f.cfg.MaxCacheLength)); err != nil {
		return err
	}
	for n := 1; n <= f.cfg.MaxCacheLength; n++ {
		if err := writeSet(bw, f.Expressions(n)); err != nil {
			return err
		}
		if err := writeSet(bw, f.Statements(n)); err != nil {
			return err
		}
	}

	if err := bw.Flush(); err != nil {
		return err
	}
	return zw.Close()
}

func writeSet(w *bufio.Writer, entries []*Entry) error {
	if err := binary.Write(w, binary.LittleEndian, int64(len(entries))); err != nil {
		return err
	}
	for _, e := range entries {
		if err := writeExpr(w, e.Expr); err != nil {
			return err
		}
	}
	return nil
}

func writeExpr(w *bufio.Writer, e *expr.Expr) error {
	if err := w.WriteByte(byte(e.Op)); err != nil {
		return err
	}
	if e.Op == expr.Literal {
		return binary.Write(w, binary.LittleEndian, e.Literal)
	}
	if e.Left != nil {
		if err := writeExpr(w, e.Left); err != nil {
			return err
		}
	}
	if e.Right != nil {
		if err := writeExpr(w, e.Right); err != nil {
			return err
		}
	}
	return nil
}

// Load rebuilds a forest from a snapshot written by Save. cfg drives
// recompilation (UseJIT) and must carry the same MaxCacheLength the
// snapshot was built with; a mismatch is rejected rather than silently
// truncated or padded, since the search driver's DFS extension keys off
// the cache depth.
func Load(r io.Reader, cfg Config) (*Forest, error) {
	br := bufio.NewReader(lz4.NewReader(r))

	magic := make([]byte, len(snapshotMagic))
	if _, err := io.ReadFull(br, magic); err != nil {
		return nil, err
	}
	if string(magic) != snapshotMagic {
		return nil, fmt.Errorf("forest: not a snapshot file")
	}
	var maxLen int64
	if err := binary.Read(br, binary.LittleEndian, &maxLen); err != nil {
		return nil, err
	}
	if int(maxLen) != cfg.MaxCacheLength {
		return nil, fmt.Errorf("forest: snapshot cache length %d does not match configured %d", maxLen, cfg.MaxCacheLength)
	}

	f := &Forest{cfg: cfg}
	f.e = make([]*exprSet, cfg.MaxCacheLength+1)
	f.s = make([]*exprSet, cfg.MaxCacheLength+1)
	for n := 1; n <= cfg.MaxCacheLength; n++ {
		em := NonLockingReadMap.New[Entry, uint64]()
		f.e[n] = &em
		sm := NonLockingReadMap.New[Entry, uint64]()
		f.s[n] = &sm
	}

	for n := 1; n <= cfg.MaxCacheLength; n++ {
		if err := readSet(br, func(e *expr.Expr) { f.insertE(n, e) }); err != nil {
			return nil, err
		}
		if err := readSet(br, func(e *expr.Expr) { f.insertS(n, e) }); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func readSet(r *bufio.Reader, insert func(*expr.Expr)) error {
	var count int64
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return err
	}
	for i := int64(0); i < count; i++ {
		e, err := readExpr(r)
		if err != nil {
			return err
		}
		insert(e)
	}
	return nil
}

func readExpr(r *bufio.Reader) (*expr.Expr, error) {
	b, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	op := expr.Op(b)
	info, ok := expr.Lookup(op)
	if !ok {
		return nil, fmt.Errorf("forest: snapshot carries unknown operator code 0x%02X", b)
	}

	switch op {
	case expr.Literal:
		var v int64
		if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
			return nil, err
		}
		return expr.NewLiteral(v), nil
	case expr.Var:
		return expr.NewVar(), nil
	case expr.VarY:
		return expr.NewVarY(), nil
	case expr.Parens:
		right, err := readExpr(r)
		if err != nil {
			return nil, err
		}
		return expr.NewParens(right), nil
	}

	if expr.IsAssignment(op) {
		left, err := readExpr(r)
		if err != nil {
			return nil, err
		}
		right, err := readExpr(r)
		if err != nil {
			return nil, err
		}
		if !expr.IsVariable(left.Op) {
			return nil, fmt.Errorf("forest: snapshot assignment target is not a variable")
		}
		return expr.NewAssign(op, left, right), nil
	}

	switch info.Arity {
	case 1:
		right, err := readExpr(r)
		if err != nil {
			return nil, err
		}
		if (op == expr.PreInc || op == expr.PreDec || op == expr.PostInc || op == expr.PostDec) && !expr.IsVariable(right.Op) {
			return nil, fmt.Errorf("forest: snapshot inc/dec operand is not a variable")
		}
		return expr.NewUnary(op, right), nil
	case 2:
		left, err := readExpr(r)
		if err != nil {
			return nil, err
		}
		right, err := readExpr(r)
		if err != nil {
			return nil, err
		}
		return expr.NewBinary(op, left, right), nil
	}
	return nil, fmt.Errorf("forest: snapshot carries non-decodable operator 0x%02X", b)
}
