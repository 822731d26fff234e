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

import "testing"

func TestParseConfigOverrides(t *testing.T) {
	src := `
MaxLength = 12
MaxCacheLength = 6
UseJIT = false
InitXMin = -2
Answer = [1, 2, 4, 8]
Literals = [1, 2]
`
	cfg, err := ParseConfig(src, DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.MaxLength != 12 || cfg.MaxCacheLength != 6 || cfg.UseJIT || cfg.InitXMin != -2 {
		t.Fatalf("scalar overrides not applied: %+v", cfg)
	}
	if len(cfg.Answer) != 4 || cfg.Answer[3] != 8 {
		t.Fatalf("Answer override not applied: %v", cfg.Answer)
	}
	if len(cfg.Literals) != 2 {
		t.Fatalf("Literals override not applied: %v", cfg.Literals)
	}
	// untouched keys keep their defaults
	if !cfg.UseParens || cfg.InitXMax != 1 {
		t.Fatalf("defaults clobbered: %+v", cfg)
	}
}

func TestParseConfigRejectsUnknownKey(t *testing.T) {
	if _, err := ParseConfig("MaxLenght = 12\n", DefaultConfig()); err == nil {
		t.Fatal("a misspelled key must be rejected, not ignored")
	}
}

func TestParseConfigEmptyIsDefault(t *testing.T) {
	cfg, err := ParseConfig("", DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.MaxLength != DefaultConfig().MaxLength {
		t.Fatalf("empty config changed defaults: %+v", cfg)
	}
}
