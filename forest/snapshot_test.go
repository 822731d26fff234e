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
	"bytes"
	"testing"

	"github.com/carli2/exprsearch/equiv"
)

func TestSnapshotRoundTrip(t *testing.T) {
	cfg := smallConfig()
	f := Build(cfg)

	var buf bytes.Buffer
	if err := f.Save(&buf); err != nil {
		t.Fatalf("Save: %v", err)
	}

	g, err := Load(&buf, cfg)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	for n := 1; n <= cfg.MaxCacheLength; n++ {
		if got, want := len(g.Expressions(n)), len(f.Expressions(n)); got != want {
			t.Fatalf("E_%d after reload has %d entries, want %d", n, got, want)
		}
		if got, want := len(g.Statements(n)), len(f.Statements(n)); got != want {
			t.Fatalf("S_%d after reload has %d entries, want %d", n, got, want)
		}
		// Every reloaded expression must be semantically present in the
		// original set; dedup on load must not conflate distinct entries.
		for _, ge := range g.Expressions(n) {
			found := false
			for _, fe := range f.Expressions(n) {
				if equiv.Equal(ge.Expr, fe.Expr) {
					found = true
					break
				}
			}
			if !found {
				t.Fatalf("E_%d reloaded an expression not present before the round trip", n)
			}
		}
	}
}

func TestSnapshotRejectsCacheLengthMismatch(t *testing.T) {
	cfg := smallConfig()
	f := Build(cfg)

	var buf bytes.Buffer
	if err := f.Save(&buf); err != nil {
		t.Fatalf("Save: %v", err)
	}

	other := cfg
	other.MaxCacheLength = cfg.MaxCacheLength + 1
	if _, err := Load(&buf, other); err == nil {
		t.Fatal("Load accepted a snapshot with a mismatched cache length")
	}
}

func TestSnapshotRejectsGarbage(t *testing.T) {
	if _, err := Load(bytes.NewReader([]byte("not an lz4 stream")), smallConfig()); err == nil {
		t.Fatal("Load accepted garbage input")
	}
}
