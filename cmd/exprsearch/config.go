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
	"os"
	"strconv"
	"strings"

	"github.com/fsnotify/fsnotify"
	packrat "github.com/launix-de/go-packrat/v2"
)

// Config is the full run configuration: the search parameters the core
// consumes plus the CLI's own surface toggles. The literal defaults are
// the canonical Fibonacci hunt.
type Config struct {
	Answer []int64

	InitXMin, InitXMax int64
	InitYMin, InitYMax int64

	MaxLength      int
	MaxCacheLength int

	UseJIT         bool
	UseParens      bool
	PruneConstExpr bool
	UseMultithread bool

	Literals []int64

	// CLI-only surface.
	CacheFile string // forest snapshot path; empty disables persistence
	WatchAddr string // websocket progress listen address; empty disables
	SortMode  string // "btree" (default) or "hybrid"
}

func DefaultConfig() Config {
	return Config{
		Answer:         []int64{1, 1, 2, 3, 5, 8, 13, 21, 34, 55, 89, 144},
		InitXMin:       -1,
		InitXMax:       1,
		InitYMin:       -1,
		InitYMax:       1,
		MaxLength:      10,
		MaxCacheLength: 7,
		UseJIT:         true,
		UseParens:      true,
		PruneConstExpr: true,
		UseMultithread: true,
		Literals:       []int64{1, 2, 3},
		SortMode:       "btree",
	}
}

// Config files are `Key = value` lines; values are integers, booleans,
// or bracketed integer lists. Same packrat machinery as the statement
// surface, one tiny grammar.
type configGrammar struct {
	ident   packrat.Parser
	number  packrat.Parser
	boolean packrat.Parser
	list    packrat.Parser
	entry   packrat.Parser
	file    packrat.Parser
}

func newConfigGrammar() *configGrammar {
	g := &configGrammar{}
	g.ident = packrat.NewRegexParser(`[A-Za-z]+`, false, true)
	g.number = packrat.NewRegexParser(`-?[0-9]+`, false, true)
	g.boolean = packrat.NewOrParser(atom("true"), atom("false"))
	g.list = packrat.NewAndParser(atom("["), packrat.NewKleeneParser(g.number, atom(",")), atom("]"))
	g.entry = packrat.NewAndParser(g.ident, atom("="), packrat.NewOrParser(g.list, g.boolean, g.number))
	g.file = packrat.NewAndParser(packrat.NewKleeneParser(g.entry, packrat.NewEmptyParser()), packrat.NewEndParser(true))
	return g
}

var configSurface = newConfigGrammar()

// ParseConfig applies the `Key = value` entries in src on top of base.
// Unknown keys are rejected: a typo silently ignored would make a run
// search the wrong space.
func ParseConfig(src string, base Config) (Config, error) {
	scanner := packrat.NewScanner(src, packrat.SkipWhitespaceAndCommentsRegex)
	node, err := packrat.Parse(configSurface.file, scanner)
	if err != nil {
		return base, err
	}
	cfg := base
	entries := node.Children[0]
	for _, child := range entries.Children {
		if child.Parser != configSurface.entry {
			continue // Kleene's empty separator nodes
		}
		if err := applyEntry(&cfg, child); err != nil {
			return base, err
		}
	}
	return cfg, nil
}

func applyEntry(cfg *Config, n *packrat.Node) error {
	key := strings.TrimSpace(n.Children[0].Matched)
	value := n.Children[2]

	asInt := func() (int64, error) {
		return strconv.ParseInt(strings.TrimSpace(flatten(value).Matched), 10, 64)
	}
	asBool := func() (bool, error) {
		switch strings.TrimSpace(flatten(value).Matched) {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
		return false, fmt.Errorf("config: %s wants a boolean", key)
	}
	asList := func() ([]int64, error) {
		lv := flatten(value)
		if lv.Parser != configSurface.list {
			return nil, fmt.Errorf("config: %s wants an integer list", key)
		}
		var out []int64
		items := lv.Children[1]
		for _, c := range items.Children {
			if c.Parser != configSurface.number {
				continue
			}
			v, err := strconv.ParseInt(strings.TrimSpace(c.Matched), 10, 64)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	}

	var err error
	switch key {
	case "Answer":
		cfg.Answer, err = asList()
	case "Literals":
		cfg.Literals, err = asList()
	case "InitXMin":
		cfg.InitXMin, err = asInt()
	case "InitXMax":
		cfg.InitXMax, err = asInt()
	case "InitYMin":
		cfg.InitYMin, err = asInt()
	case "InitYMax":
		cfg.InitYMax, err = asInt()
	case "MaxLength":
		var v int64
		v, err = asInt()
		cfg.MaxLength = int(v)
	case "MaxCacheLength":
		var v int64
		v, err = asInt()
		cfg.MaxCacheLength = int(v)
	case "UseJIT":
		cfg.UseJIT, err = asBool()
	case "UseParens":
		cfg.UseParens, err = asBool()
	case "PruneConstExpr":
		cfg.PruneConstExpr, err = asBool()
	case "UseMultithread":
		cfg.UseMultithread, err = asBool()
	default:
		return fmt.Errorf("config: unknown key %q", key)
	}
	return err
}

// flatten unwraps Or/wrapper nodes down to the node whose parser carries
// the value.
func flatten(n *packrat.Node) *packrat.Node {
	for len(n.Children) == 1 && n.Parser != configSurface.list {
		switch n.Parser {
		case configSurface.number, configSurface.ident:
			return n
		}
		n = n.Children[0]
	}
	return n
}

// LoadConfigFile reads and applies path on top of base.
func LoadConfigFile(path string, base Config) (Config, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return base, err
	}
	return ParseConfig(string(src), base)
}

// WatchConfigFile re-parses path whenever it changes and delivers the
// resulting config. The caller reruns the search per delivery; parse
// errors are reported and skipped so a half-saved file never kills a
// running watch.
func WatchConfigFile(path string, base Config) (<-chan Config, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return nil, err
	}
	updates := make(chan Config)
	go func() {
		defer watcher.Close()
		defer close(updates)
		for {
			select {
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				cfg, err := LoadConfigFile(path, base)
				if err != nil {
					fmt.Fprintf(os.Stderr, "config reload: %v\n", err)
					continue
				}
				updates <- cfg
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				fmt.Fprintf(os.Stderr, "config watch: %v\n", err)
			}
		}
	}()
	return updates, nil
}
