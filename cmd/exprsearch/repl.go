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
	"io"
	"strings"

	"github.com/chzyer/readline"

	"github.com/carli2/exprsearch/equiv"
	"github.com/carli2/exprsearch/expr"
	"github.com/carli2/exprsearch/jit"
)

const newprompt = "\033[32m>\033[0m "
const resultprompt = "\033[31m=\033[0m "

// Repl is the interactive differential-testing surface: type one
// statement to compare the JIT against the oracle over the whole probe
// grid, or a `stmt_x ; stmt_y` pair to run it against the configured
// target sequence.
func Repl(cfg Config) {
	l, err := readline.NewEx(&readline.Config{
		Prompt:            newprompt,
		HistoryFile:       ".exprsearch-history.tmp",
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		panic(err)
	}
	defer l.Close()
	l.CaptureExitSignal()

	for {
		line, err := l.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				break
			}
			continue
		} else if err == io.EOF {
			break
		} else if err != nil {
			panic(err)
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		func() {
			defer func() {
				if r := recover(); r != nil {
					fmt.Println("error:", r)
				}
			}()
			if strings.Contains(line, ";") {
				replPair(line, cfg)
			} else {
				replStatement(line, cfg)
			}
		}()
	}
}

func replStatement(line string, cfg Config) {
	s, err := ParseStatement(line)
	if err != nil {
		fmt.Println("parse error:", err)
		return
	}
	if cfg.UseJIT {
		jit.Compile(s)
		defer s.Release()
	}

	mismatches := 0
	for x0 := equiv.ProbeMin; x0 <= equiv.ProbeMax; x0++ {
		for y0 := equiv.ProbeMin; y0 <= equiv.ProbeMax; y0++ {
			x, y := x0, y0
			var fatal bool
			want := expr.Eval(s, &x, &y, &fatal)

			if s.Native == nil {
				continue
			}
			xj, yj := x0, y0
			got := s.Native(&xj, &yj)
			if fatal {
				// the JIT signals fatal points by returning 0 and moving on
				if got != 0 {
					mismatches++
					fmt.Printf("  (%d,%d): oracle fatal, jit returned %d\n", x0, y0, got)
				}
				continue
			}
			if got != want || xj != x || yj != y {
				mismatches++
				fmt.Printf("  (%d,%d): oracle %d (x'=%d y'=%d), jit %d (x'=%d y'=%d)\n",
					x0, y0, want, x, y, got, xj, yj)
			}
		}
	}

	points := int(equiv.ProbeMax-equiv.ProbeMin+1) * int(equiv.ProbeMax-equiv.ProbeMin+1)
	fmt.Print(resultprompt)
	if s.Native == nil {
		fmt.Printf("%s  (oracle only, jit disabled)  hash=%016x\n", expr.FormatX(s), equiv.Hash(s))
	} else if mismatches == 0 {
		fmt.Printf("%s  jit == oracle on all %d probe points  hash=%016x\n", expr.FormatX(s), points, equiv.Hash(s))
	} else {
		fmt.Printf("%s  %d/%d probe points disagree\n", expr.FormatX(s), mismatches, points)
	}
}

func replPair(line string, cfg Config) {
	sx, sy, err := ParsePair(line)
	if err != nil {
		fmt.Println("parse error:", err)
		return
	}
	if cfg.UseJIT {
		jit.Compile(sx)
		jit.Compile(sy)
		defer sx.Release()
		defer sy.Release()
	}

	found := 0
	for x0 := cfg.InitXMin; x0 <= cfg.InitXMax; x0++ {
		for y0 := cfg.InitYMin; y0 <= cfg.InitYMax; y0++ {
			if pairMatches(sx, sy, x0, y0, cfg) {
				found++
				fmt.Printf("%sx=%d, y=%d : %s ; %s\n", resultprompt, x0, y0, expr.FormatX(sx), expr.FormatY(sy))
			}
		}
	}
	if found == 0 {
		fmt.Printf("%sno initial values in [%d..%d]x[%d..%d] reproduce the target\n",
			resultprompt, cfg.InitXMin, cfg.InitXMax, cfg.InitYMin, cfg.InitYMax)
	}
}

// pairMatches is the driver's step loop: run sx, then sy with swapped
// pointers, and require x to track the target after every full step.
func pairMatches(sx, sy *expr.Expr, x0, y0 int64, cfg Config) bool {
	x, y := x0, y0
	for i := 0; i < len(cfg.Answer); i++ {
		if stepFatal(sx, &x, &y, cfg.UseJIT) {
			return false
		}
		if stepFatal(sy, &y, &x, cfg.UseJIT) {
			return false
		}
		if x != cfg.Answer[i] {
			return false
		}
	}
	return true
}

func stepFatal(s *expr.Expr, px, py *int64, useJIT bool) bool {
	if useJIT && s.Native != nil {
		s.Native(px, py)
		return false
	}
	var fatal bool
	expr.Eval(s, px, py, &fatal)
	return fatal
}
