// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"os"
	"reflect"
	"strings"
	"testing"
)

func TestSplitNonEmptyTrimsAndDropsBlanks(t *testing.T) {
	got := splitNonEmpty(" a, b ,,c")
	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestRunNarrowsScanAndPrintsPushdowns(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "planfmt-*.txt")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if err := run("a,b,c", "a", f); err != nil {
		t.Fatal(err)
	}
	if _, err := f.Seek(0, 0); err != nil {
		t.Fatal(err)
	}
	raw, err := os.ReadFile(f.Name())
	if err != nil {
		t.Fatal(err)
	}
	out := string(raw)
	if !strings.Contains(out, "before:") || !strings.Contains(out, "after (changed=true):") {
		t.Fatalf("expected before/after sections, got:\n%s", out)
	}
	if !strings.Contains(out, "columns:") {
		t.Fatalf("expected the narrowed pushdown columns to be printed, got:\n%s", out)
	}
}
