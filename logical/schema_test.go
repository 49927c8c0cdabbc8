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

func TestNewSchemaRejectsDuplicateNames(t *testing.T) {
	_, err := NewSchema(NewField("a"), NewField("a"))
	if err == nil {
		t.Fatal("expected an error for a duplicate field name")
	}
}

func TestSchemaNamesPreservesOrder(t *testing.T) {
	s := MustSchema("c", "a", "b")
	got := s.Names()
	want := []string{"c", "a", "b"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestSchemaSubsetPreservesSchemaOrderNotArgOrder(t *testing.T) {
	s := MustSchema("a", "b", "c")
	got := s.Subset(map[string]bool{"c": true, "a": true})
	var names []string
	for _, f := range got {
		names = append(names, f.Name)
	}
	want := []string{"a", "c"}
	if !reflect.DeepEqual(names, want) {
		t.Fatalf("got %v, want %v", names, want)
	}
}

func TestSchemaEqualNamesIsOrderSensitive(t *testing.T) {
	a := MustSchema("a", "b")
	b := MustSchema("b", "a")
	if a.EqualNames(b) {
		t.Fatal("expected reordered schemas to compare unequal")
	}
	if !a.EqualNames(MustSchema("a", "b")) {
		t.Fatal("expected identical schemas to compare equal")
	}
}

func TestSchemaEqualIsStricterThanEqualNames(t *testing.T) {
	nullable, err := NewSchema(Field{Name: "a", Nullable: true})
	if err != nil {
		t.Fatal(err)
	}
	required, err := NewSchema(Field{Name: "a", Nullable: false})
	if err != nil {
		t.Fatal(err)
	}
	if !nullable.EqualNames(required) {
		t.Fatal("expected EqualNames to ignore nullability")
	}
	if nullable.Equal(required) {
		t.Fatal("expected Equal to notice the nullability mismatch")
	}
	if !nullable.Equal(MustSchema("a")) {
		t.Fatal("expected Equal to match two identically-shaped schemas")
	}
}

func TestSchemaFingerprintStableAndDiscriminating(t *testing.T) {
	a := MustSchema("a", "b")
	a2 := MustSchema("a", "b")
	b := MustSchema("b", "a")
	if a.Fingerprint() != a2.Fingerprint() {
		t.Fatal("expected equal schemas to fingerprint identically")
	}
	if a.Fingerprint() == b.Fingerprint() {
		t.Fatal("expected reordered schemas to fingerprint differently")
	}
}

func TestSchemaHasAndField(t *testing.T) {
	s := MustSchema("a", "b")
	if !s.Has("a") || s.Has("z") {
		t.Fatal("Has behaved unexpectedly")
	}
	if f, ok := s.Field("b"); !ok || f.Name != "b" {
		t.Fatalf("Field lookup failed: %v %v", f, ok)
	}
	if _, ok := s.Field("z"); ok {
		t.Fatal("expected lookup of missing field to fail")
	}
}
