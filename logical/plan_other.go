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

	"github.com/sneller-io/columnar/tree"
)

// fullyRequired reports the whole of s as a single required-column set,
// the shape every fixed/opaque operator below uses: it cannot push
// anything past itself, so it requires everything its input produces.
func fullyRequired(s Schema) map[string]bool {
	out := make(map[string]bool, s.Len())
	for _, name := range s.Names() {
		out[name] = true
	}
	return out
}

// Pivot rotates GroupBy-grouped rows so that distinct values of
// PivotColumn become output columns holding ValueColumn. The resulting
// schema depends on data, not just on the plan shape, so it is fixed
// at construction time; an outer Project can never push a narrower
// requirement through it (spec case (l)), but Pivot's own required
// columns (GroupBy, PivotColumn, ValueColumn) may still be a strict
// subset of its input schema, which the stand-alone pruning pass
// (spec §4.2.2) can exploit directly.
type Pivot struct {
	unary
	OutSchema   Schema
	GroupBy     []Expr
	PivotColumn Expr
	ValueColumn Expr
}

func NewPivot(input Plan, outSchema Schema, groupBy []Expr, pivotColumn, valueColumn Expr) *Pivot {
	return &Pivot{unary{input}, outSchema, groupBy, pivotColumn, valueColumn}
}

func (p *Pivot) isPlan()        {}
func (p *Pivot) Schema() Schema { return p.OutSchema }
func (p *Pivot) RequiredColumns() []map[string]bool {
	required := requiredOf(append(append([]Expr{}, p.GroupBy...), p.PivotColumn, p.ValueColumn)...)
	return unaryRequired(required)
}
func (p *Pivot) String() string {
	return fmt.Sprintf("PIVOT %s VALUE %s GROUP BY %s", p.PivotColumn, p.ValueColumn, exprListString(p.GroupBy))
}
func (p *Pivot) WithNewChildren(children []Plan) (Plan, error) {
	if len(children) != 1 {
		return nil, errValue(p, "Pivot takes exactly one child")
	}
	return &Pivot{unary{children[0]}, p.OutSchema, p.GroupBy, p.PivotColumn, p.ValueColumn}, nil
}
func (p *Pivot) ApplyChildren(f func(Plan) (tree.Signal, error)) (tree.Signal, error) {
	return tree.ApplyShaped[Plan](p, f)
}
func (p *Pivot) MapChildren(f func(Plan) (tree.Transformed[Plan], error)) (tree.Transformed[Plan], error) {
	return tree.MapShaped[Plan](p, f)
}

// Window computes one or more window-function expressions (each seeing
// the full partition), and so is opaque to push-down like Pivot.
type Window struct {
	unary
	Exprs []Expr
}

func NewWindow(input Plan, exprs []Expr) *Window { return &Window{unary{input}, exprs} }

func (w *Window) isPlan() {}
func (w *Window) Schema() Schema {
	fields := append([]Field{}, w.Input.Schema().Fields()...)
	for _, e := range w.Exprs {
		fields = append(fields, NewField(e.Name()))
	}
	s, err := NewSchema(fields...)
	if err != nil {
		panic(err)
	}
	return s
}
func (w *Window) RequiredColumns() []map[string]bool {
	return unaryRequired(fullyRequired(w.Input.Schema()))
}
func (w *Window) String() string { return fmt.Sprintf("WINDOW %s", exprListString(w.Exprs)) }
func (w *Window) WithNewChildren(children []Plan) (Plan, error) {
	if len(children) != 1 {
		return nil, errValue(w, "Window takes exactly one child")
	}
	return &Window{unary{children[0]}, w.Exprs}, nil
}
func (w *Window) ApplyChildren(f func(Plan) (tree.Signal, error)) (tree.Signal, error) {
	return tree.ApplyShaped[Plan](w, f)
}
func (w *Window) MapChildren(f func(Plan) (tree.Transformed[Plan], error)) (tree.Transformed[Plan], error) {
	return tree.MapShaped[Plan](w, f)
}

// MonotonicallyIncreasingID appends an OutputName column holding a
// strictly increasing per-row id; it needs every input row in its
// original order, so it is opaque to push-down.
type MonotonicallyIncreasingID struct {
	unary
	OutputName string
}

func NewMonotonicallyIncreasingID(input Plan, outputName string) *MonotonicallyIncreasingID {
	return &MonotonicallyIncreasingID{unary{input}, outputName}
}

func (m *MonotonicallyIncreasingID) isPlan() {}
func (m *MonotonicallyIncreasingID) Schema() Schema {
	s, err := NewSchema(append(append([]Field{}, m.Input.Schema().Fields()...), NewField(m.OutputName))...)
	if err != nil {
		panic(err)
	}
	return s
}
func (m *MonotonicallyIncreasingID) RequiredColumns() []map[string]bool {
	return unaryRequired(fullyRequired(m.Input.Schema()))
}
func (m *MonotonicallyIncreasingID) String() string {
	return fmt.Sprintf("MONOTONICALLY_INCREASING_ID AS %s", m.OutputName)
}
func (m *MonotonicallyIncreasingID) WithNewChildren(children []Plan) (Plan, error) {
	if len(children) != 1 {
		return nil, errValue(m, "MonotonicallyIncreasingID takes exactly one child")
	}
	return &MonotonicallyIncreasingID{unary{children[0]}, m.OutputName}, nil
}
func (m *MonotonicallyIncreasingID) ApplyChildren(f func(Plan) (tree.Signal, error)) (tree.Signal, error) {
	return tree.ApplyShaped[Plan](m, f)
}
func (m *MonotonicallyIncreasingID) MapChildren(f func(Plan) (tree.Transformed[Plan], error)) (tree.Transformed[Plan], error) {
	return tree.MapShaped[Plan](m, f)
}

// Sink is the terminal write/output node of a plan. It is a
// programmer error for a Sink to appear under a Project (case (l));
// the rule panics with FatalError rather than trying to push columns
// through a node with no defined schema contract of its own.
type Sink struct {
	unary
	Name string
}

func NewSink(input Plan, name string) *Sink { return &Sink{unary{input}, name} }

func (s *Sink) isPlan()        {}
func (s *Sink) Schema() Schema { return s.Input.Schema() }
func (s *Sink) RequiredColumns() []map[string]bool {
	return unaryRequired(fullyRequired(s.Input.Schema()))
}
func (s *Sink) String() string { return fmt.Sprintf("SINK %s", s.Name) }
func (s *Sink) WithNewChildren(children []Plan) (Plan, error) {
	if len(children) != 1 {
		return nil, errValue(s, "Sink takes exactly one child")
	}
	return &Sink{unary{children[0]}, s.Name}, nil
}
func (s *Sink) ApplyChildren(f func(Plan) (tree.Signal, error)) (tree.Signal, error) {
	return tree.ApplyShaped[Plan](s, f)
}
func (s *Sink) MapChildren(f func(Plan) (tree.Transformed[Plan], error)) (tree.Transformed[Plan], error) {
	return tree.MapShaped[Plan](s, f)
}

// Union is a plan-construction-time artifact that an earlier pass
// (out of scope here) is expected to have already rewritten away into
// Concat plus any needed dedup. Reaching one inside the push-down rule
// is a fatal programmer error (spec §9 Open Question (i)).
type Union struct {
	Input Plan
	Other Plan
}

func NewUnion(input, other Plan) *Union { return &Union{Input: input, Other: other} }

func (u *Union) isPlan()        {}
func (u *Union) Schema() Schema { return u.Input.Schema() }
func (u *Union) Children() []Plan { return []Plan{u.Input, u.Other} }
func (u *Union) RequiredColumns() []map[string]bool {
	all := fullyRequired(u.Input.Schema())
	return []map[string]bool{all, all}
}
func (u *Union) String() string { return "UNION" }
func (u *Union) WithNewChildren(children []Plan) (Plan, error) {
	if len(children) != 2 {
		return nil, errValue(u, "Union takes exactly two children")
	}
	return &Union{Input: children[0], Other: children[1]}, nil
}
func (u *Union) ApplyChildren(f func(Plan) (tree.Signal, error)) (tree.Signal, error) {
	return tree.ApplyShaped[Plan](u, f)
}
func (u *Union) MapChildren(f func(Plan) (tree.Transformed[Plan], error)) (tree.Transformed[Plan], error) {
	return tree.MapShaped[Plan](u, f)
}

// SubqueryAlias renames Input's whole output under Alias. Like Union,
// an earlier pass is expected to have already resolved it away by
// qualifying column references directly; reaching one here is fatal.
type SubqueryAlias struct {
	unary
	Alias string
}

func NewSubqueryAlias(input Plan, alias string) *SubqueryAlias { return &SubqueryAlias{unary{input}, alias} }

func (s *SubqueryAlias) isPlan()        {}
func (s *SubqueryAlias) Schema() Schema { return s.Input.Schema() }
func (s *SubqueryAlias) RequiredColumns() []map[string]bool {
	return unaryRequired(fullyRequired(s.Input.Schema()))
}
func (s *SubqueryAlias) String() string { return fmt.Sprintf("SUBQUERY AS %s", s.Alias) }
func (s *SubqueryAlias) WithNewChildren(children []Plan) (Plan, error) {
	if len(children) != 1 {
		return nil, errValue(s, "SubqueryAlias takes exactly one child")
	}
	return &SubqueryAlias{unary{children[0]}, s.Alias}, nil
}
func (s *SubqueryAlias) ApplyChildren(f func(Plan) (tree.Signal, error)) (tree.Signal, error) {
	return tree.ApplyShaped[Plan](s, f)
}
func (s *SubqueryAlias) MapChildren(f func(Plan) (tree.Transformed[Plan], error)) (tree.Transformed[Plan], error) {
	return tree.MapShaped[Plan](s, f)
}
