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

// Package logical implements the logical query plan tree and the
// column-pruning push-down rule that rewrites it.
package logical

import (
	"fmt"
	"strings"

	"github.com/sneller-io/columnar/tree"
)

// Plan is one node of a logical query plan. Every concrete Plan
// implements ApplyChildren/MapChildren by delegating to
// tree.ApplyShaped/tree.MapShaped over its own Children()/
// WithNewChildren() pair, so Plan satisfies tree.Node[Plan] directly and
// every traversal in the tree package applies to it with no adapter,
// exactly as for Expr.
type Plan interface {
	fmt.Stringer
	tree.Node[Plan]
	tree.Shaped[Plan]

	// Schema is the ordered output field list.
	Schema() Schema

	// RequiredColumns returns, for each child input in Children()
	// order, the set of column names this node reads from that input.
	// A leaf (Source) returns an empty slice.
	RequiredColumns() []map[string]bool

	isPlan()
}

func unaryRequired(set map[string]bool) []map[string]bool {
	return []map[string]bool{set}
}

func mergeRequired(sets ...map[string]bool) map[string]bool {
	out := map[string]bool{}
	for _, s := range sets {
		for name := range s {
			out[name] = true
		}
	}
	return out
}

func requiredOf(exprs ...Expr) map[string]bool {
	out := map[string]bool{}
	for _, e := range exprs {
		for name := range RequiredColumns(e) {
			out[name] = true
		}
	}
	return out
}

func exprListString(exprs []Expr) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = e.String()
	}
	return strings.Join(parts, ", ")
}

// Source is a leaf scanning either in-memory data or an external
// table through Info's Pushdowns.
type Source struct {
	SchemaOut Schema
	Info      SourceInfo
}

// NewSource builds a Source over an already-resolved SourceInfo.
func NewSource(schema Schema, info SourceInfo) *Source {
	return &Source{SchemaOut: schema, Info: info}
}

func (s *Source) isPlan()                  {}
func (s *Source) Schema() Schema           { return s.SchemaOut }
func (s *Source) Children() []Plan         { return nil }
func (s *Source) RequiredColumns() []map[string]bool { return nil }
func (s *Source) String() string {
	return fmt.Sprintf("SCAN %s %s", s.SchemaOut, s.Info)
}
func (s *Source) WithNewChildren(children []Plan) (Plan, error) {
	if len(children) != 0 {
		return nil, errValue(s, "Source takes no children")
	}
	return s, nil
}
func (s *Source) ApplyChildren(f func(Plan) (tree.Signal, error)) (tree.Signal, error) {
	return tree.ApplyShaped[Plan](s, f)
}
func (s *Source) MapChildren(f func(Plan) (tree.Transformed[Plan], error)) (tree.Transformed[Plan], error) {
	return tree.MapShaped[Plan](s, f)
}

// Project evaluates Projections against Input, producing one output
// column per entry, named Projections[i].Name().
type Project struct {
	Input       Plan
	Projections []Expr
}

// NewProject validates that Projections carries at least one entry
// (an empty projection list has no well-defined schema).
func NewProject(input Plan, projections []Expr) (*Project, error) {
	if len(projections) == 0 {
		return nil, errValue(nil, "Project requires at least one projection")
	}
	return &Project{Input: input, Projections: projections}, nil
}

func (p *Project) isPlan() {}
func (p *Project) Schema() Schema {
	fields := make([]Field, len(p.Projections))
	for i, e := range p.Projections {
		fields[i] = NewField(e.Name())
	}
	s, err := NewSchema(fields...)
	if err != nil {
		// Duplicate output names are a construction-time error the
		// optimizer must never introduce; surviving to here is a bug.
		panic(err)
	}
	return s
}
func (p *Project) Children() []Plan { return []Plan{p.Input} }
func (p *Project) RequiredColumns() []map[string]bool {
	return unaryRequired(requiredOf(p.Projections...))
}
func (p *Project) String() string {
	return fmt.Sprintf("PROJECT %s", exprListString(p.Projections))
}
func (p *Project) WithNewChildren(children []Plan) (Plan, error) {
	if len(children) != 1 {
		return nil, errValue(p, "Project takes exactly one child")
	}
	return &Project{Input: children[0], Projections: p.Projections}, nil
}
func (p *Project) ApplyChildren(f func(Plan) (tree.Signal, error)) (tree.Signal, error) {
	return tree.ApplyShaped[Plan](p, f)
}
func (p *Project) MapChildren(f func(Plan) (tree.Transformed[Plan], error)) (tree.Transformed[Plan], error) {
	return tree.MapShaped[Plan](p, f)
}

// UDFProject evaluates a single UDF call expression alongside a list of
// passthrough expressions carried unchanged from Input.
type UDFProject struct {
	Input        Plan
	UDF          Expr
	Passthrough  []Expr
}

func NewUDFProject(input Plan, udf Expr, passthrough []Expr) *UDFProject {
	return &UDFProject{Input: input, UDF: udf, Passthrough: passthrough}
}

func (u *UDFProject) isPlan() {}
func (u *UDFProject) Schema() Schema {
	fields := make([]Field, 0, len(u.Passthrough)+1)
	for _, e := range u.Passthrough {
		fields = append(fields, NewField(e.Name()))
	}
	fields = append(fields, NewField(u.UDF.Name()))
	s, err := NewSchema(fields...)
	if err != nil {
		panic(err)
	}
	return s
}
func (u *UDFProject) Children() []Plan { return []Plan{u.Input} }
func (u *UDFProject) RequiredColumns() []map[string]bool {
	return unaryRequired(requiredOf(append(append([]Expr{}, u.Passthrough...), u.UDF)...))
}
func (u *UDFProject) String() string {
	return fmt.Sprintf("UDF_PROJECT %s, passthrough [%s]", u.UDF, exprListString(u.Passthrough))
}
func (u *UDFProject) WithNewChildren(children []Plan) (Plan, error) {
	if len(children) != 1 {
		return nil, errValue(u, "UDFProject takes exactly one child")
	}
	return &UDFProject{Input: children[0], UDF: u.UDF, Passthrough: u.Passthrough}, nil
}
func (u *UDFProject) ApplyChildren(f func(Plan) (tree.Signal, error)) (tree.Signal, error) {
	return tree.ApplyShaped[Plan](u, f)
}
func (u *UDFProject) MapChildren(f func(Plan) (tree.Transformed[Plan], error)) (tree.Transformed[Plan], error) {
	return tree.MapShaped[Plan](u, f)
}

// Aggregate groups Input rows by GroupBy and computes Aggregations over
// each group. Aggregations and GroupBy are both Expr so an aggregation
// such as sum(x) as total is just a Function wrapped in an Alias, the
// same shape a Project uses.
type Aggregate struct {
	Input        Plan
	Aggregations []Expr
	GroupBy      []Expr
}

func NewAggregate(input Plan, aggregations, groupBy []Expr) *Aggregate {
	return &Aggregate{Input: input, Aggregations: aggregations, GroupBy: groupBy}
}

func (a *Aggregate) isPlan() {}
func (a *Aggregate) Schema() Schema {
	fields := make([]Field, 0, len(a.GroupBy)+len(a.Aggregations))
	for _, e := range a.GroupBy {
		fields = append(fields, NewField(e.Name()))
	}
	for _, e := range a.Aggregations {
		fields = append(fields, NewField(e.Name()))
	}
	s, err := NewSchema(fields...)
	if err != nil {
		panic(err)
	}
	return s
}
func (a *Aggregate) Children() []Plan { return []Plan{a.Input} }
func (a *Aggregate) RequiredColumns() []map[string]bool {
	return unaryRequired(requiredOf(append(append([]Expr{}, a.Aggregations...), a.GroupBy...)...))
}
func (a *Aggregate) String() string {
	return fmt.Sprintf("AGGREGATE %s GROUP BY %s", exprListString(a.Aggregations), exprListString(a.GroupBy))
}
func (a *Aggregate) WithNewChildren(children []Plan) (Plan, error) {
	if len(children) != 1 {
		return nil, errValue(a, "Aggregate takes exactly one child")
	}
	return &Aggregate{Input: children[0], Aggregations: a.Aggregations, GroupBy: a.GroupBy}, nil
}
func (a *Aggregate) ApplyChildren(f func(Plan) (tree.Signal, error)) (tree.Signal, error) {
	return tree.ApplyShaped[Plan](a, f)
}
func (a *Aggregate) MapChildren(f func(Plan) (tree.Transformed[Plan], error)) (tree.Transformed[Plan], error) {
	return tree.MapShaped[Plan](a, f)
}
