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

package optimize

import (
	"testing"

	"github.com/sneller-io/columnar/logical"
	"github.com/sneller-io/columnar/logical/logicaltest"
)

// TestUnpivotRestrictedToDeclaredColumns covers spec case (h) /
// scenario S8: the synthesized child projection is restricted to
// Unpivot's own declared ids ∪ values, never to columns the outer
// Project references that Unpivot doesn't itself declare (those come
// from Unpivot's own VarName/ValueName output columns, not its input).
func TestUnpivotRestrictedToDeclaredColumns(t *testing.T) {
	scan := logicaltest.PhysicalScan("id", "k1", "k2", "unused")
	u := logical.NewUnpivot(scan, logicaltest.Cols("id"), logicaltest.Cols("k1", "k2"), "var", "value")
	p := logicaltest.MustProject(u, logicaltest.Cols("id", "value"))

	out, err := TryOptimize(p)
	if err != nil {
		t.Fatal(err)
	}
	if !out.Changed {
		t.Fatal("expected Unpivot push-down to fire (unused is not declared)")
	}

	var src *logical.Source
	cur := out.Data
	for src == nil {
		switch n := cur.(type) {
		case *logical.Project:
			cur = n.Input
		case *logical.Unpivot:
			cur = n.Input
		case *logical.Source:
			src = n
		}
	}
	got := map[string]bool{}
	for _, c := range logicaltest.PushdownColumns(src) {
		got[c] = true
	}
	if got["unused"] {
		t.Fatal("expected unused (non-declared) column to be dropped")
	}
	if !got["id"] || !got["k1"] || !got["k2"] {
		t.Fatalf("expected id/k1/k2 to survive, got %v", got)
	}
}

// TestConcatPushesBothSidesIndependently covers spec case (i): the
// same required set reaches both of Concat's inputs since they share a
// schema.
func TestConcatPushesBothSidesIndependently(t *testing.T) {
	left := logicaltest.PhysicalScan("a", "b")
	right := logicaltest.PhysicalScan("a", "b")
	c, err := logical.NewConcat(left, right)
	if err != nil {
		t.Fatal(err)
	}
	p := logicaltest.MustProject(c, logicaltest.Cols("a"))

	out, err := TryOptimize(p)
	if err != nil {
		t.Fatal(err)
	}
	if !out.Changed {
		t.Fatal("expected Concat push-down to fire")
	}
	concat, ok := findConcat(out.Data)
	if !ok {
		t.Fatalf("expected a Concat to survive, got %s", out.Data)
	}
	leftSrc := findSourceIn(t, concat.Input)
	rightSrc := findSourceIn(t, concat.Other)
	for _, s := range [][]string{logicaltest.PushdownColumns(leftSrc), logicaltest.PushdownColumns(rightSrc)} {
		if len(s) != 1 || s[0] != "a" {
			t.Fatalf("expected [a] pushed to both sides, got %v", s)
		}
	}
}

func findConcat(p logical.Plan) (*logical.Concat, bool) {
	for {
		switch n := p.(type) {
		case *logical.Concat:
			return n, true
		case *logical.Project:
			p = n.Input
		default:
			return nil, false
		}
	}
}

func findSourceIn(t *testing.T, p logical.Plan) *logical.Source {
	t.Helper()
	for {
		switch n := p.(type) {
		case *logical.Source:
			return n
		case *logical.Project:
			p = n.Input
		default:
			t.Fatalf("expected a Project-over-Source chain, found %s", n)
		}
	}
}

// TestDistinctAllColumnsCannotNarrow covers the nil-Columns half of
// spec case (k): a Distinct over every column requires its whole input
// and the push-down must not fire.
func TestDistinctAllColumnsCannotNarrow(t *testing.T) {
	scan := logicaltest.PhysicalScan("a", "b")
	d := logical.NewDistinct(scan, nil)
	p := logicaltest.MustProject(d, logicaltest.Cols("a"))

	out, err := TryOptimize(p)
	if err != nil {
		t.Fatal(err)
	}
	if got := logicaltest.PushdownColumns(findSourceIn(t, findDistinct(t, out.Data).Input)); got != nil {
		t.Fatalf("expected no pushdown narrowing under a whole-row Distinct, got %v", got)
	}
}

func findDistinct(t *testing.T, p logical.Plan) *logical.Distinct {
	t.Helper()
	for {
		switch n := p.(type) {
		case *logical.Distinct:
			return n
		case *logical.Project:
			p = n.Input
		default:
			t.Fatalf("expected a Project-over-Distinct chain, found %s", n)
		}
	}
}

// TestDistinctExplicitColumnsNarrows covers the explicit-column half of
// spec case (k).
func TestDistinctExplicitColumnsNarrows(t *testing.T) {
	scan := logicaltest.PhysicalScan("a", "b", "c")
	d := logical.NewDistinct(scan, logicaltest.Cols("a", "b"))
	p := logicaltest.MustProject(d, logicaltest.Cols("a"))

	out, err := TryOptimize(p)
	if err != nil {
		t.Fatal(err)
	}
	if !out.Changed {
		t.Fatal("expected Distinct push-down to fire")
	}
	src := findSourceIn(t, findDistinct(t, out.Data).Input)
	got := map[string]bool{}
	for _, c := range logicaltest.PushdownColumns(src) {
		got[c] = true
	}
	if got["c"] {
		t.Fatal("expected c (not in Distinct's own columns) to be dropped")
	}
	if !got["a"] || !got["b"] {
		t.Fatalf("expected a and b to survive (Distinct's own key columns), got %v", got)
	}
}

// TestSemiJoinNarrowsOnlyRightSide covers §4.2.2's standalone
// join pruning: only the right side of a Semi join narrows, since the
// left side's columns remain observable in the join's own output.
func TestSemiJoinNarrowsOnlyRightSide(t *testing.T) {
	left := logicaltest.PhysicalScan("id", "name")
	right := logicaltest.PhysicalScan("id", "extra")
	j := logicaltest.EquiJoin(left, right, "id", "id", logical.SemiJoin)

	out, err := TryOptimize(j)
	if err != nil {
		t.Fatal(err)
	}
	if !out.Changed {
		t.Fatal("expected standalone Semi join pruning to fire")
	}
	join := out.Data.(*logical.Join)
	leftSrc := findSourceIn(t, join.Left)
	rightSrc := findSourceIn(t, join.Right)
	if got := logicaltest.PushdownColumns(leftSrc); got != nil {
		t.Fatalf("expected left side untouched, got %v", got)
	}
	got := map[string]bool{}
	for _, c := range logicaltest.PushdownColumns(rightSrc) {
		got[c] = true
	}
	if got["extra"] {
		t.Fatal("expected extra (not a join key) to be dropped from the right side")
	}
	if !got["id"] {
		t.Fatalf("expected id (the join key) to survive, got %v", got)
	}
}
