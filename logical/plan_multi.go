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

// Concat unions Input and Other row-wise; both sides must share the
// same output schema.
type Concat struct {
	Input Plan
	Other Plan
}

func NewConcat(input, other Plan) (*Concat, error) {
	if !input.Schema().Equal(other.Schema()) {
		return nil, errSchema(nil, "Concat requires both sides to share a schema, got %s and %s",
			input.Schema(), other.Schema())
	}
	return &Concat{Input: input, Other: other}, nil
}

func (c *Concat) isPlan()        {}
func (c *Concat) Schema() Schema { return c.Input.Schema() }
func (c *Concat) Children() []Plan { return []Plan{c.Input, c.Other} }
func (c *Concat) RequiredColumns() []map[string]bool {
	// Each side is required in full by the other branch's own
	// traversal; the push-down rule computes per-side combined sets
	// itself (case (i)), so the node-level contract just reports an
	// empty floor for each side.
	return []map[string]bool{{}, {}}
}
func (c *Concat) String() string { return "CONCAT" }
func (c *Concat) WithNewChildren(children []Plan) (Plan, error) {
	if len(children) != 2 {
		return nil, errValue(c, "Concat takes exactly two children")
	}
	return &Concat{Input: children[0], Other: children[1]}, nil
}
func (c *Concat) ApplyChildren(f func(Plan) (tree.Signal, error)) (tree.Signal, error) {
	return tree.ApplyShaped[Plan](c, f)
}
func (c *Concat) MapChildren(f func(Plan) (tree.Transformed[Plan], error)) (tree.Transformed[Plan], error) {
	return tree.MapShaped[Plan](c, f)
}

// JoinType is the join semantics Join applies to Left/Right.
type JoinType int

const (
	InnerJoin JoinType = iota
	LeftJoin
	RightJoin
	OuterJoin
	SemiJoin
	AntiJoin
)

func (t JoinType) String() string {
	switch t {
	case InnerJoin:
		return "INNER"
	case LeftJoin:
		return "LEFT"
	case RightJoin:
		return "RIGHT"
	case OuterJoin:
		return "OUTER"
	case SemiJoin:
		return "SEMI"
	case AntiJoin:
		return "ANTI"
	default:
		return fmt.Sprintf("JoinType(%d)", int(t))
	}
}

// Join matches Left and Right rows on Keys's equality pairs.
type Join struct {
	Left, Right Plan
	Keys        *JoinKeySet
	Type        JoinType
}

func NewJoin(left, right Plan, keys *JoinKeySet, typ JoinType) *Join {
	return &Join{Left: left, Right: right, Keys: keys, Type: typ}
}

func (j *Join) isPlan() {}
func (j *Join) Schema() Schema {
	if j.Type == SemiJoin || j.Type == AntiJoin {
		// Semi/anti joins filter Left by Right's existence; the
		// output carries only Left's columns.
		return j.Left.Schema()
	}
	fields := append([]Field{}, j.Left.Schema().Fields()...)
	fields = append(fields, j.Right.Schema().Fields()...)
	s, err := NewSchema(fields...)
	if err != nil {
		panic(err)
	}
	return s
}
func (j *Join) Children() []Plan { return []Plan{j.Left, j.Right} }

// RequiredColumns returns (leftRequired, rightRequired): each side's
// join-key column references, evaluated against that side.
func (j *Join) RequiredColumns() []map[string]bool {
	left, right := map[string]bool{}, map[string]bool{}
	for _, p := range j.Keys.Pairs() {
		for name := range RequiredColumns(p.Left) {
			left[name] = true
		}
		for name := range RequiredColumns(p.Right) {
			right[name] = true
		}
	}
	return []map[string]bool{left, right}
}
func (j *Join) String() string {
	return fmt.Sprintf("%s JOIN ON %s", j.Type, j.Keys)
}
func (j *Join) WithNewChildren(children []Plan) (Plan, error) {
	if len(children) != 2 {
		return nil, errValue(j, "Join takes exactly two children")
	}
	return &Join{Left: children[0], Right: children[1], Keys: j.Keys, Type: j.Type}, nil
}
func (j *Join) ApplyChildren(f func(Plan) (tree.Signal, error)) (tree.Signal, error) {
	return tree.ApplyShaped[Plan](j, f)
}
func (j *Join) MapChildren(f func(Plan) (tree.Transformed[Plan], error)) (tree.Transformed[Plan], error) {
	return tree.MapShaped[Plan](j, f)
}

// Distinct de-duplicates rows. If Columns is nil, the operator is
// distinct over every output column (and so, per case (k), it
// implicitly requires everything its input produces); if Columns is
// non-nil, only those columns participate in de-duplication.
type Distinct struct {
	unary
	Columns []Expr
}

func NewDistinct(input Plan, columns []Expr) *Distinct { return &Distinct{unary{input}, columns} }

func (d *Distinct) isPlan()        {}
func (d *Distinct) Schema() Schema { return d.Input.Schema() }
func (d *Distinct) RequiredColumns() []map[string]bool {
	if d.Columns == nil {
		required := map[string]bool{}
		for _, name := range d.Input.Schema().Names() {
			required[name] = true
		}
		return unaryRequired(required)
	}
	return unaryRequired(requiredOf(d.Columns...))
}
func (d *Distinct) String() string {
	if d.Columns == nil {
		return "DISTINCT *"
	}
	return fmt.Sprintf("DISTINCT %s", exprListString(d.Columns))
}
func (d *Distinct) WithNewChildren(children []Plan) (Plan, error) {
	if len(children) != 1 {
		return nil, errValue(d, "Distinct takes exactly one child")
	}
	return &Distinct{unary{children[0]}, d.Columns}, nil
}
func (d *Distinct) ApplyChildren(f func(Plan) (tree.Signal, error)) (tree.Signal, error) {
	return tree.ApplyShaped[Plan](d, f)
}
func (d *Distinct) MapChildren(f func(Plan) (tree.Transformed[Plan], error)) (tree.Transformed[Plan], error) {
	return tree.MapShaped[Plan](d, f)
}

// Intersect keeps rows present in both Input and Other. It is a fixed/
// opaque operator for push-down purposes (spec case (l)): it needs its
// full input schema on both sides to compare rows.
type Intersect struct {
	Input Plan
	Other Plan
}

func NewIntersect(input, other Plan) *Intersect { return &Intersect{Input: input, Other: other} }

func (i *Intersect) isPlan()        {}
func (i *Intersect) Schema() Schema { return i.Input.Schema() }
func (i *Intersect) Children() []Plan { return []Plan{i.Input, i.Other} }
func (i *Intersect) RequiredColumns() []map[string]bool {
	all := map[string]bool{}
	for _, name := range i.Input.Schema().Names() {
		all[name] = true
	}
	return []map[string]bool{all, all}
}
func (i *Intersect) String() string { return "INTERSECT" }
func (i *Intersect) WithNewChildren(children []Plan) (Plan, error) {
	if len(children) != 2 {
		return nil, errValue(i, "Intersect takes exactly two children")
	}
	return &Intersect{Input: children[0], Other: children[1]}, nil
}
func (i *Intersect) ApplyChildren(f func(Plan) (tree.Signal, error)) (tree.Signal, error) {
	return tree.ApplyShaped[Plan](i, f)
}
func (i *Intersect) MapChildren(f func(Plan) (tree.Transformed[Plan], error)) (tree.Transformed[Plan], error) {
	return tree.MapShaped[Plan](i, f)
}
