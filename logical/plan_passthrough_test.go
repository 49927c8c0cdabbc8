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

func TestNewLimitRejectsNegativeCount(t *testing.T) {
	if _, err := NewLimit(scan("a"), -1); err == nil {
		t.Fatal("expected an error for a negative Limit count")
	}
	if _, err := NewLimit(scan("a"), 0); err != nil {
		t.Fatalf("expected zero to be a valid Limit count, got %v", err)
	}
}

func TestNewTopNRejectsNegativeCount(t *testing.T) {
	if _, err := NewTopN(scan("a"), []Expr{NewColumn("a")}, -1); err == nil {
		t.Fatal("expected an error for a negative TopN count")
	}
}

func TestNewSampleRejectsOutOfRangeFraction(t *testing.T) {
	if _, err := NewSample(scan("a"), -0.1); err == nil {
		t.Fatal("expected an error for a negative Sample fraction")
	}
	if _, err := NewSample(scan("a"), 1.1); err == nil {
		t.Fatal("expected an error for a Sample fraction above 1")
	}
	if _, err := NewSample(scan("a"), 0.5); err != nil {
		t.Fatalf("expected 0.5 to be valid, got %v", err)
	}
}

func TestPassThroughOperatorsPreserveSchema(t *testing.T) {
	src := scan("a", "b")
	cases := []Plan{
		NewFilter(src, NewColumn("a")),
		NewSort(src, []Expr{NewColumn("a")}),
		NewExplode(src, []Expr{NewColumn("a")}),
		NewRepartition(src, "spec"),
		NewShard(src, "spec"),
	}
	for _, p := range cases {
		if !p.Schema().EqualNames(src.Schema()) {
			t.Fatalf("%T: expected schema to pass through unchanged, got %s", p, p.Schema())
		}
	}
}

func TestFilterRequiredColumnsIsPredicateOnly(t *testing.T) {
	f := NewFilter(scan("a", "b"), NewFunction(">", false, NewColumn("a"), NewLiteral(1)))
	req := f.RequiredColumns()[0]
	if !req["a"] || req["b"] {
		t.Fatalf("unexpected required set: %v", req)
	}
}

func TestLimitAndSampleAndRepartitionRequireNoColumns(t *testing.T) {
	s := scan("a", "b")
	l, err := NewLimit(s, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(l.RequiredColumns()[0]) != 0 {
		t.Fatalf("expected Limit to require no columns, got %v", l.RequiredColumns()[0])
	}
	sm, err := NewSample(s, 0.1)
	if err != nil {
		t.Fatal(err)
	}
	if len(sm.RequiredColumns()[0]) != 0 {
		t.Fatalf("expected Sample to require no columns, got %v", sm.RequiredColumns()[0])
	}
	if len(NewRepartition(s, "x").RequiredColumns()[0]) != 0 {
		t.Fatal("expected Repartition to require no columns")
	}
	if len(NewShard(s, "x").RequiredColumns()[0]) != 0 {
		t.Fatal("expected Shard to require no columns")
	}
}

func TestUnpivotSchemaAndDeclaredColumns(t *testing.T) {
	u := NewUnpivot(scan("id", "k1", "k2"), []Expr{NewColumn("id")}, []Expr{NewColumn("k1"), NewColumn("k2")}, "key", "value")
	gotSchema := u.Schema().Names()
	wantSchema := []string{"id", "key", "value"}
	if len(gotSchema) != len(wantSchema) {
		t.Fatalf("got %v, want %v", gotSchema, wantSchema)
	}
	for i := range wantSchema {
		if gotSchema[i] != wantSchema[i] {
			t.Fatalf("got %v, want %v", gotSchema, wantSchema)
		}
	}
	declared := u.DeclaredColumns()
	if !declared["id"] || !declared["k1"] || !declared["k2"] {
		t.Fatalf("expected ids and values declared, got %v", declared)
	}
}
