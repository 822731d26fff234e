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

/*
	exprsearch enumerates C-like integer expressions over two variables,
	JIT-compiles each candidate, and reports the (stmt_x ; stmt_y) pairs
	whose iterated evaluation reproduces a target integer sequence.
*/
package main

import (
	"fmt"
	"os"

	"github.com/dc0d/onexit"
	"github.com/google/uuid"

	"github.com/carli2/exprsearch/expr"
	"github.com/carli2/exprsearch/forest"
	"github.com/carli2/exprsearch/jitarena"
	"github.com/carli2/exprsearch/search"
)

func usage() {
	fmt.Fprint(os.Stderr, `usage: exprsearch [options]
  --config FILE      apply Key = value overrides from FILE
  --follow           keep running; rerun the search when --config FILE changes
  --repl             interactive differential-testing prompt instead of a search
  --watch ADDR       serve websocket progress events on ADDR (path /watch)
  --cache-file FILE  reuse/persist the expression forest as an lz4 snapshot
  --sort MODE        match output order: btree (default) or hybrid
  --no-jit           evaluate with the reference interpreter only
`)
}

func main() {
	fmt.Print(`exprsearch Copyright (C) 2026  exprsearch contributors
    This program comes with ABSOLUTELY NO WARRANTY;
    This is free software, and you are welcome to redistribute it
    under certain conditions;
`)

	cfg := DefaultConfig()
	var configPath string
	follow := false
	repl := false

	args := os.Args[1:]
	value := func(i int) string {
		if i+1 >= len(args) {
			fmt.Fprintf(os.Stderr, "%s wants a value\n", args[i])
			os.Exit(2)
		}
		return args[i+1]
	}
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--config":
			configPath = value(i)
			i++
		case "--follow":
			follow = true
		case "--repl":
			repl = true
		case "--watch":
			cfg.WatchAddr = value(i)
			i++
		case "--cache-file":
			cfg.CacheFile = value(i)
			i++
		case "--sort":
			cfg.SortMode = value(i)
			i++
		case "--no-jit":
			cfg.UseJIT = false
		case "--help", "-h":
			usage()
			return
		default:
			fmt.Fprintf(os.Stderr, "unknown argument %q\n", args[i])
			usage()
			os.Exit(2)
		}
	}

	if configPath != "" {
		var err error
		cfg, err = LoadConfigFile(configPath, cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "config: %v\n", err)
			os.Exit(1)
		}
	}

	// an interrupted run still unmaps its executable pages
	onexit.Register(jitarena.ReleaseAll)

	if repl {
		Repl(cfg)
		return
	}

	runID := uuid.New()
	fmt.Printf("run %s\n", runID)

	var progress *progressServer
	if cfg.WatchAddr != "" {
		progress = newProgressServer(cfg.WatchAddr)
	}

	runSearch(cfg, progress)

	if follow && configPath != "" {
		updates, err := WatchConfigFile(configPath, cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "config watch: %v\n", err)
			os.Exit(1)
		}
		for next := range updates {
			fmt.Printf("config changed, rerunning\n")
			runSearch(next, progress)
		}
	}
}

func runSearch(cfg Config, progress *progressServer) {
	f := buildForest(cfg, progress)

	count, mapped := jitarena.LiveStats()
	fmt.Printf("forest ready: %d compiled buffers, %s executable memory\n", count, mapped)

	matches := search.Search(f, search.Params{
		Answer:    cfg.Answer,
		InitXMin:  cfg.InitXMin,
		InitXMax:  cfg.InitXMax,
		InitYMin:  cfg.InitYMin,
		InitYMax:  cfg.InitYMax,
		MaxLength: cfg.MaxLength,
		UseJIT:    cfg.UseJIT,
		AssignOps: expr.AssignOperators,
	})

	if cfg.SortMode == "hybrid" {
		matches = search.SortByHybrid(matches)
	} else {
		matches = search.SortByBTree(matches)
	}

	for _, m := range matches {
		fmt.Printf("x=%d, y=%d : %s ; %s\n", m.X0, m.Y0, expr.FormatX(m.Sx), expr.FormatY(m.Sy))
		if progress != nil {
			progress.Broadcast(matchEvent{
				Event: "match",
				X0:    m.X0,
				Y0:    m.Y0,
				StmtX: expr.FormatX(m.Sx),
				StmtY: expr.FormatY(m.Sy),
			})
		}
	}
	fmt.Printf("%d matches\n", len(matches))
}

// buildForest regenerates the forest, or reloads it from the configured
// snapshot when one is present. A fresh build is persisted back to the
// snapshot path so the next run skips generation.
func buildForest(cfg Config, progress *progressServer) *forest.Forest {
	fcfg := forest.DefaultConfig()
	fcfg.Literals = cfg.Literals
	fcfg.MaxCacheLength = cfg.MaxCacheLength
	fcfg.UseParens = cfg.UseParens
	fcfg.PruneConstExpr = cfg.PruneConstExpr
	fcfg.UseJIT = cfg.UseJIT
	fcfg.UseMultithread = cfg.UseMultithread
	fcfg.OnLengthDone = func(n, exprs, stmts int) {
		fmt.Printf("length %d: %d expressions, %d statements\n", n, exprs, stmts)
		if progress != nil {
			progress.Broadcast(lengthEvent{Event: "length", Length: n, Expressions: exprs, Statements: stmts})
		}
	}

	if cfg.CacheFile != "" {
		if file, err := os.Open(cfg.CacheFile); err == nil {
			f, err := forest.Load(file, fcfg)
			file.Close()
			if err == nil {
				fmt.Printf("forest reloaded from %s\n", cfg.CacheFile)
				return f
			}
			fmt.Fprintf(os.Stderr, "cache %s unusable (%v), regenerating\n", cfg.CacheFile, err)
		}
	}

	f := forest.Build(fcfg)

	if cfg.CacheFile != "" {
		file, err := os.Create(cfg.CacheFile)
		if err == nil {
			err = f.Save(file)
			file.Close()
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "cache %s not written: %v\n", cfg.CacheFile, err)
		}
	}
	return f
}
