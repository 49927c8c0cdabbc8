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
	"reflect"
	"testing"

	"github.com/sneller-io/columnar/logical"
)

func TestSchemaOrderSubsetFollowsSchemaNotRequiredSetOrder(t *testing.T) {
	schema := logical.MustSchema("c", "a", "b")
	got := schemaOrderSubset(schema, map[string]bool{"a": true, "c": true})
	want := []string{"c", "a"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestInsertProjectionNoOpWhenRequiredCoversWholeSchema(t *testing.T) {
	input := logical.NewSource(logical.MustSchema("a", "b"), logical.InMemorySource{CacheKey: "t"})
	out, inserted, err := insertProjection(input, map[string]bool{"a": true, "b": true})
	if err != nil {
		t.Fatal(err)
	}
	if inserted {
		t.Fatal("expected no projection to be inserted when required covers the whole schema")
	}
	if out != input {
		t.Fatal("expected the original input to be returned unchanged")
	}
}

func TestInsertProjectionNarrowsWhenRequiredIsStrictSubset(t *testing.T) {
	input := logical.NewSource(logical.MustSchema("a", "b", "c"), logical.InMemorySource{CacheKey: "t"})
	out, inserted, err := insertProjection(input, map[string]bool{"b": true})
	if err != nil {
		t.Fatal(err)
	}
	if !inserted {
		t.Fatal("expected a projection to be inserted")
	}
	proj, ok := out.(*logical.Project)
	if !ok {
		t.Fatalf("expected a *logical.Project, got %T", out)
	}
	if len(proj.Projections) != 1 || proj.Projections[0].Name() != "b" {
		t.Fatalf("expected exactly one projection for column b, got %v", proj.Projections)
	}
}
