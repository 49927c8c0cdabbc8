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

	"golang.org/x/exp/slices"

	"github.com/sneller-io/columnar/tree"
)

// Expr is a scalar expression node: the leaves of a Project/Filter/
// Aggregate plan. Every concrete Expr implements ApplyChildren/
// MapChildren by delegating to tree.ApplyShaped/tree.MapShaped over its
// own Children()/WithNewChildren() pair, so Expr satisfies tree.Node[Expr]
// directly and every traversal in the tree package applies to it with
// no adapter.
type Expr interface {
	fmt.Stringer
	tree.Node[Expr]
	tree.Shaped[Expr]
	// Name is the output column name this expression would produce if
	// used bare in a projection list (no Alias above it).
	Name() string

	isExpr()
}

func (c Column) ApplyChildren(f func(Expr) (tree.Signal, error)) (tree.Signal, error) {
	return tree.ApplyShaped[Expr](c, f)
}
func (c Column) MapChildren(f func(Expr) (tree.Transformed[Expr], error)) (tree.Transformed[Expr], error) {
	return tree.MapShaped[Expr](c, f)
}
func (Column) isExpr() {}

func (l Literal) ApplyChildren(f func(Expr) (tree.Signal, error)) (tree.Signal, error) {
	return tree.ApplyShaped[Expr](l, f)
}
func (l Literal) MapChildren(f func(Expr) (tree.Transformed[Expr], error)) (tree.Transformed[Expr], error) {
	return tree.MapShaped[Expr](l, f)
}
func (Literal) isExpr() {}

func (a *Alias) ApplyChildren(f func(Expr) (tree.Signal, error)) (tree.Signal, error) {
	return tree.ApplyShaped[Expr](a, f)
}
func (a *Alias) MapChildren(f func(Expr) (tree.Transformed[Expr], error)) (tree.Transformed[Expr], error) {
	return tree.MapShaped[Expr](a, f)
}
func (*Alias) isExpr() {}

func (fn *Function) ApplyChildren(f func(Expr) (tree.Signal, error)) (tree.Signal, error) {
	return tree.ApplyShaped[Expr](fn, f)
}
func (fn *Function) MapChildren(f func(Expr) (tree.Transformed[Expr], error)) (tree.Transformed[Expr], error) {
	return tree.MapShaped[Expr](fn, f)
}
func (*Function) isExpr() {}

// Column references a named input column.
type Column struct {
	ColumnName string
}

func NewColumn(name string) Column { return Column{ColumnName: name} }

func (c Column) Name() string             { return c.ColumnName }
func (c Column) Children() []Expr         { return nil }
func (c Column) String() string           { return c.ColumnName }
func (c Column) WithNewChildren(children []Expr) (Expr, error) {
	if len(children) != 0 {
		return nil, errValue(c, "Column takes no children")
	}
	return c, nil
}

// Literal is a constant scalar value. Value is opaque to this package
// (evaluation is out of scope); it exists so Literal.String() can
// render something in Describe output and golden tests.
type Literal struct {
	Value any
}

func NewLiteral(v any) Literal { return Literal{Value: v} }

func (l Literal) Name() string     { return "literal" }
func (l Literal) Children() []Expr { return nil }
func (l Literal) String() string   { return fmt.Sprintf("%v", l.Value) }
func (l Literal) WithNewChildren(children []Expr) (Expr, error) {
	if len(children) != 0 {
		return nil, errValue(l, "Literal takes no children")
	}
	return l, nil
}

// Alias renames the output of Inner to AliasName (a SQL "AS").
type Alias struct {
	Inner     Expr
	AliasName string
}

func NewAlias(inner Expr, name string) *Alias { return &Alias{Inner: inner, AliasName: name} }

func (a *Alias) Name() string     { return a.AliasName }
func (a *Alias) Children() []Expr { return []Expr{a.Inner} }
func (a *Alias) String() string   { return fmt.Sprintf("%s AS %s", a.Inner, a.AliasName) }
func (a *Alias) WithNewChildren(children []Expr) (Expr, error) {
	if len(children) != 1 {
		return nil, errValue(a, "Alias takes exactly one child")
	}
	return &Alias{Inner: children[0], AliasName: a.AliasName}, nil
}

// Function is the catch-all shape for every non-leaf, non-alias
// expression: arithmetic, comparisons, scalar builtins, and UDF calls.
// IsComputation counts every Function as a computation, whatever its
// FuncName.
type Function struct {
	FuncName string
	Args     []Expr
	// IsUDF marks a Function as a user-defined-function call, the only
	// distinction UDFProject's own push-down handling needs (see
	// logical/optimize's UDF interaction cases).
	IsUDF bool
}

func NewFunction(name string, isUDF bool, args ...Expr) *Function {
	return &Function{FuncName: name, Args: args, IsUDF: isUDF}
}

func (f *Function) Name() string     { return f.FuncName }
func (f *Function) Children() []Expr { return f.Args }
func (f *Function) String() string {
	parts := make([]string, len(f.Args))
	for i, a := range f.Args {
		parts[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", f.FuncName, strings.Join(parts, ", "))
}
func (f *Function) WithNewChildren(children []Expr) (Expr, error) {
	return &Function{FuncName: f.FuncName, Args: children, IsUDF: f.IsUDF}, nil
}

// RequiredColumns returns the set of leaf Column names referenced
// anywhere inside e.
func RequiredColumns(e Expr) map[string]bool {
	out := map[string]bool{}
	_, _ = tree.Apply[Expr](e, func(n Expr) (tree.Signal, error) {
		if c, ok := n.(Column); ok {
			out[c.ColumnName] = true
		}
		return tree.Continue, nil
	})
	return out
}

// IsBareColumn reports whether e is exactly Column(name), with no
// wrapping Alias or Function — the "no-op" shape the projection rule's
// elision case (spec case (a)) and merge-duplication checks look for.
func IsBareColumn(e Expr) (name string, ok bool) {
	c, ok := e.(Column)
	if !ok {
		return "", false
	}
	return c.ColumnName, true
}

// IsComputation reports whether e performs any computation at all, as
// opposed to being a bare column reference or a rename-only alias of
// one. Used by the UDF inlining case (spec case (f)) to decide whether
// the outer projection list is "no computation".
func IsComputation(e Expr) bool {
	switch v := e.(type) {
	case Column:
		return false
	case *Alias:
		return IsComputation(v.Inner)
	default:
		return true
	}
}

// Substitute walks e replacing every bare Column(name) found in byName
// with its mapped replacement expression; used by the projection merge
// (case (b)) and the UDF inline (case (f)) to splice an upstream
// projection's expressions into a downstream one.
func Substitute(e Expr, byName map[string]Expr) (Expr, error) {
	t, err := tree.TransformDown[Expr](e, func(n Expr) (tree.Transformed[Expr], error) {
		if c, ok := n.(Column); ok {
			if repl, found := byName[c.ColumnName]; found {
				return tree.New(repl, true, tree.Jump), nil
			}
		}
		return tree.No(n), nil
	})
	if err != nil {
		return nil, err
	}
	return t.Data, nil
}

// ExprsByName builds a name -> expression map from a projection list,
// as the merge/inline cases need.
func ExprsByName(exprs []Expr) map[string]Expr {
	m := make(map[string]Expr, len(exprs))
	for _, e := range exprs {
		m[e.Name()] = e
	}
	return m
}

// ColumnRefs builds bare Column(name) expressions for names, in the
// order names appears, deduplicating repeats. Used to materialize a
// required-name set back into an expression list for a synthesized
// projection.
func ColumnRefs(names []string) []Expr {
	seen := make(map[string]bool, len(names))
	out := make([]Expr, 0, len(names))
	for _, n := range names {
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, NewColumn(n))
	}
	return out
}

// SortedNames returns the keys of set in sorted order — a deterministic
// column order derived purely from a required-name set (not from any
// schema), e.g. for diagnostics. The push-down rule does not call it.
func SortedNames(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for n := range set {
		out = append(out, n)
	}
	slices.Sort(out)
	return out
}
