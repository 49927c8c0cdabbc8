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
	"fmt"
	"strings"

	"github.com/dchest/siphash"
	"golang.org/x/exp/slices"
)

// Field describes one output column: its name, whether it may be
// null, and an opaque metadata bag a source or a UDF can attach
// (provenance, original Arrow type name, and similar bookkeeping the
// engine passes through without interpreting).
type Field struct {
	Name     string
	Nullable bool
	Metadata map[string]string
}

// NewField builds a nullable-by-default field, matching the scan
// sources this engine consumes, which rarely promise non-null columns.
func NewField(name string) Field {
	return Field{Name: name, Nullable: true}
}

func (f Field) String() string { return f.Name }

func (f Field) equalShape(o Field) bool {
	return f.Name == o.Name && f.Nullable == o.Nullable
}

// Schema is an ordered, name-unique list of Fields: a logical plan
// operator's output row shape.
type Schema struct {
	fields []Field
}

// NewSchema builds a Schema from fields in order, rejecting duplicate
// names.
func NewSchema(fields ...Field) (Schema, error) {
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		if seen[f.Name] {
			return Schema{}, errSchema(nil, "duplicate field %q", f.Name)
		}
		seen[f.Name] = true
	}
	return Schema{fields: append([]Field(nil), fields...)}, nil
}

// MustSchema is NewSchema for call sites (tests, fixtures) that already
// know the names are unique.
func MustSchema(names ...string) Schema {
	fields := make([]Field, len(names))
	for i, n := range names {
		fields[i] = NewField(n)
	}
	s, err := NewSchema(fields...)
	if err != nil {
		panic(err)
	}
	return s
}

// Fields returns the schema's fields in order. Callers must not mutate
// the returned slice.
func (s Schema) Fields() []Field { return s.fields }

// Len returns the number of fields.
func (s Schema) Len() int { return len(s.fields) }

// Names returns the ordered field names.
func (s Schema) Names() []string {
	out := make([]string, len(s.fields))
	for i, f := range s.fields {
		out[i] = f.Name
	}
	return out
}

// Has reports whether name is a field of this schema.
func (s Schema) Has(name string) bool {
	for _, f := range s.fields {
		if f.Name == name {
			return true
		}
	}
	return false
}

// Field looks up a field by name.
func (s Schema) Field(name string) (Field, bool) {
	for _, f := range s.fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// EqualNames reports whether s and o have the same ordered name list,
// the schema-preservation check the optimizer's tests rely on.
func (s Schema) EqualNames(o Schema) bool {
	return slices.EqualFunc(s.fields, o.fields, func(a, b Field) bool { return a.Name == b.Name })
}

// Equal reports whether s and o have the same ordered fields, down to
// nullability — a stricter check than EqualNames, used where an
// operator requires its inputs to share a schema outright rather than
// just the same column names.
func (s Schema) Equal(o Schema) bool {
	return slices.EqualFunc(s.fields, o.fields, Field.equalShape)
}

// Subset returns the fields of s whose name is in names, preserving s's
// own field order (not the order of names) — the same order the
// push-down rule's schemaOrderSubset gives a synthesized projection.
func (s Schema) Subset(names map[string]bool) []Field {
	out := make([]Field, 0, len(names))
	for _, f := range s.fields {
		if names[f.Name] {
			out = append(out, f)
		}
	}
	return out
}

func (s Schema) String() string {
	return "[" + strings.Join(s.Names(), ",") + "]"
}

// fingerprintKey0/1 are a fixed process-wide siphash key pair:
// Fingerprint is used only to detect "did this schema change between
// two optimizer passes", not as a security boundary, so a constant key
// is sufficient and keeps the hash reproducible across runs for
// golden tests.
const (
	fingerprintKey0 = 0x736e656c6c65722d
	fingerprintKey1 = 0x636f6c756d6e6172
)

// Fingerprint hashes the ordered field-name list with siphash so a
// fixed-point check can compare schemas cheaply instead of doing a
// deep-equality walk on every optimizer re-entry.
func (s Schema) Fingerprint() uint64 {
	buf := []byte(strings.Join(s.Names(), "\x00"))
	return siphash.Hash(fingerprintKey0, fingerprintKey1, buf)
}

var _ = fmt.Stringer(Schema{})
