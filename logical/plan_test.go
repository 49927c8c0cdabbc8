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

import (
	"reflect"
	"testing"
)

func scan(names ...string) *Source {
	return NewSource(MustSchema(names...), InMemorySource{CacheKey: "t"})
}

func TestNewProjectRejectsEmptyList(t *testing.T) {
	if _, err := NewProject(scan("a"), nil); err == nil {
		t.Fatal("expected an error for an empty projection list")
	}
}

func TestProjectSchemaOrderMatchesProjectionOrder(t *testing.T) {
	p, err := NewProject(scan("a", "b"), []Expr{NewColumn("b"), NewColumn("a")})
	if err != nil {
		t.Fatal(err)
	}
	got := p.Schema().Names()
	want := []string{"b", "a"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestProjectRequiredColumnsOneSetPerSingleChild(t *testing.T) {
	p, err := NewProject(scan("a", "b", "c"), []Expr{
		NewFunction("+", false, NewColumn("a"), NewColumn("b")),
	})
	if err != nil {
		t.Fatal(err)
	}
	req := p.RequiredColumns()
	if len(req) != 1 {
		t.Fatalf("expected exactly one required-set (one child), got %d", len(req))
	}
	if !req[0]["a"] || !req[0]["b"] || req[0]["c"] {
		t.Fatalf("unexpected required set: %v", req[0])
	}
}

func TestUDFProjectSchemaAppendsUDFLast(t *testing.T) {
	u := NewUDFProject(scan("a", "b"), NewAlias(NewFunction("f", true, NewColumn("a")), "u"), []Expr{NewColumn("a"), NewColumn("b")})
	got := u.Schema().Names()
	want := []string{"a", "b", "u"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestAggregateSchemaGroupByBeforeAggregations(t *testing.T) {
	a := NewAggregate(
		scan("a", "b"),
		[]Expr{NewAlias(NewFunction("sum", false, NewColumn("b")), "total")},
		[]Expr{NewColumn("a")},
	)
	got := a.Schema().Names()
	want := []string{"a", "total"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestAggregateRequiredColumnsCoversBothGroupByAndAggregations(t *testing.T) {
	a := NewAggregate(
		scan("a", "b", "c"),
		[]Expr{NewAlias(NewFunction("sum", false, NewColumn("b")), "total")},
		[]Expr{NewColumn("a")},
	)
	req := a.RequiredColumns()[0]
	if !req["a"] || !req["b"] || req["c"] {
		t.Fatalf("unexpected required set: %v", req)
	}
}

func TestSourceHasNoChildrenOrRequiredColumns(t *testing.T) {
	s := scan("a", "b")
	if len(s.Children()) != 0 {
		t.Fatal("expected Source to have no children")
	}
	if s.RequiredColumns() != nil {
		t.Fatal("expected Source to have no required columns")
	}
}

func TestWithNewChildrenRejectsWrongArity(t *testing.T) {
	p, err := NewProject(scan("a"), []Expr{NewColumn("a")})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.WithNewChildren(nil); err == nil {
		t.Fatal("expected an error rebuilding Project with zero children")
	}
	if _, err := p.WithNewChildren([]Plan{scan("a"), scan("b")}); err == nil {
		t.Fatal("expected an error rebuilding Project with two children")
	}
}
