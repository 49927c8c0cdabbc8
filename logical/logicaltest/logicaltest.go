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

// Package logicaltest holds fixture builders and assertion helpers
// shared by logical and optimize's own tests.
package logicaltest

import (
	"testing"

	"github.com/sneller-io/columnar/logical"
	"github.com/sneller-io/columnar/tree"
)

// Scan builds a Source over an in-memory table with the given column
// names, the shape most push-down-rule fixtures start from when they
// don't care about scan pushdowns specifically.
func Scan(names ...string) *logical.Source {
	return logical.NewSource(logical.MustSchema(names...), logical.InMemorySource{CacheKey: "fixture"})
}

// PhysicalScan builds a Source over a physical (external) scan with no
// pushdown populated yet — the shape Scan-push-down fixtures (case (c))
// start from.
func PhysicalScan(names ...string) *logical.Source {
	return logical.NewSource(logical.MustSchema(names...), logical.NewPhysicalSource(logical.Pushdowns{}))
}

// Col is a short alias for logical.NewColumn, used to keep fixture
// construction on one line.
func Col(name string) logical.Expr { return logical.NewColumn(name) }

// Cols builds one Column expression per name.
func Cols(names ...string) []logical.Expr {
	out := make([]logical.Expr, len(names))
	for i, n := range names {
		out[i] = Col(n)
	}
	return out
}

// Add builds a two-argument "+" Function, the stand-in computation
// used throughout the push-down fixtures (S5, S6, S7).
func Add(left logical.Expr, n int) logical.Expr {
	return logical.NewFunction("+", false, left, logical.NewLiteral(n))
}

// As aliases e under name.
func As(e logical.Expr, name string) logical.Expr { return logical.NewAlias(e, name) }

// UDF builds a single-argument UDF call Function.
func UDF(name string, arg logical.Expr) logical.Expr {
	return logical.NewFunction(name, true, arg)
}

// MustProject panics on construction error, for fixture code that
// already knows its projection list is well-formed.
func MustProject(input logical.Plan, projections []logical.Expr) *logical.Project {
	p, err := logical.NewProject(input, projections)
	if err != nil {
		panic(err)
	}
	return p
}

// PushdownColumns returns the pushdown column list of src's Info,
// or nil if src is not a PhysicalSource — a common assertion target
// across the scan-push-down scenarios (S6, S7, S8, S9).
func PushdownColumns(src *logical.Source) []string {
	phys, ok := src.Info.(logical.PhysicalSource)
	if !ok {
		return nil
	}
	return phys.Pushdowns.Columns
}

// AssertSchemaPreserved fails t unless before and after report the same
// ordered field-name list (spec §8 property 9).
func AssertSchemaPreserved(t *testing.T, before, after logical.Plan) {
	t.Helper()
	if !before.Schema().EqualNames(after.Schema()) {
		t.Fatalf("schema changed: before=%s after=%s", before.Schema(), after.Schema())
	}
}

// AssertOptimized runs f (typically optimize.TryOptimize — passed in
// by the caller rather than imported here, since optimize's own tests
// import this package and importing optimize back would cycle) against
// input and asserts the result's plan shape matches want exactly and
// that Changed matches wantChanged, mirroring Daft's
// assert_optimized_plan_with_rules_eq test harness
// (push_down_projection.rs's test module).
func AssertOptimized(t *testing.T, f func(logical.Plan) (tree.Transformed[logical.Plan], error), input, want logical.Plan, wantChanged bool) {
	t.Helper()
	got, err := f(input)
	if err != nil {
		t.Fatalf("optimize: %v", err)
	}
	if got.Changed != wantChanged {
		t.Fatalf("Changed = %v, want %v", got.Changed, wantChanged)
	}
	render := func(p logical.Plan) string {
		s := ""
		_, _ = tree.Apply[logical.Plan](p, func(n logical.Plan) (tree.Signal, error) {
			s += n.String() + "\n"
			return tree.Continue, nil
		})
		return s
	}
	if g, w := render(got.Data), render(want); g != w {
		t.Fatalf("plan mismatch:\n got:\n%swant:\n%s", g, w)
	}
}

// EquiJoin builds a Join with a single equality key between left and
// right, the shape most join push-down fixtures need.
func EquiJoin(left, right logical.Plan, leftKey, rightKey string, typ logical.JoinType) *logical.Join {
	keys := logical.NewJoinKeySet()
	keys.Insert(Col(leftKey), Col(rightKey))
	return logical.NewJoin(left, right, keys, typ)
}
