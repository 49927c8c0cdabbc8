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

package logical

import "testing"

func TestNewConcatRejectsMismatchedSchemas(t *testing.T) {
	if _, err := NewConcat(scan("a", "b"), scan("a", "c")); err == nil {
		t.Fatal("expected an error for mismatched Concat schemas")
	}
	if _, err := NewConcat(scan("a", "b"), scan("a", "b")); err != nil {
		t.Fatalf("expected matching schemas to be accepted, got %v", err)
	}
}

func TestJoinSchemaSemiAntiKeepOnlyLeft(t *testing.T) {
	left, right := scan("id", "name"), scan("rid", "extra")
	keys := NewJoinKeySet()
	keys.Insert(NewColumn("id"), NewColumn("rid"))

	semi := NewJoin(left, right, keys, SemiJoin)
	if !semi.Schema().EqualNames(left.Schema()) {
		t.Fatalf("expected Semi join schema to equal left's, got %s", semi.Schema())
	}

	inner := NewJoin(left, right, keys, InnerJoin)
	got := inner.Schema().Names()
	want := []string{"id", "name", "rid", "extra"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestJoinRequiredColumnsSplitsByKeySide(t *testing.T) {
	left, right := scan("id", "name"), scan("id", "extra")
	keys := NewJoinKeySet()
	keys.Insert(NewColumn("id"), NewColumn("id"))
	j := NewJoin(left, right, keys, InnerJoin)

	req := j.RequiredColumns()
	if !req[0]["id"] || req[0]["name"] {
		t.Fatalf("unexpected left required set: %v", req[0])
	}
	if !req[1]["id"] || req[1]["extra"] {
		t.Fatalf("unexpected right required set: %v", req[1])
	}
}

func TestDistinctRequiredColumnsNilVsExplicit(t *testing.T) {
	s := scan("a", "b", "c")
	all := NewDistinct(s, nil)
	req := all.RequiredColumns()[0]
	if !req["a"] || !req["b"] || !req["c"] {
		t.Fatalf("expected a whole-row Distinct to require every column, got %v", req)
	}

	explicit := NewDistinct(s, []Expr{NewColumn("a")})
	req = explicit.RequiredColumns()[0]
	if !req["a"] || req["b"] || req["c"] {
		t.Fatalf("expected an explicit-column Distinct to require only its own columns, got %v", req)
	}
}

func TestIntersectRequiresFullSchemaBothSides(t *testing.T) {
	left, right := scan("a", "b"), scan("a", "b")
	i := NewIntersect(left, right)
	req := i.RequiredColumns()
	if !req[0]["a"] || !req[0]["b"] || !req[1]["a"] || !req[1]["b"] {
		t.Fatalf("expected Intersect to require the full schema on both sides, got %v", req)
	}
}
