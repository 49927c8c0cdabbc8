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

// unary is embedded by every pass-through operator (Filter, Sort,
// Limit, ...): it holds the sole child and gives every embedder
// Children/WithNewChildren for free, the way Nonterminal does for the
// teacher's single-input plan ops. Schema() and RequiredColumns() stay
// per-operator since each reads different expressions.
type unary struct {
	Input Plan
}

func (u unary) Children() []Plan { return []Plan{u.Input} }

// Filter keeps rows where Predicate is truthy.
type Filter struct {
	unary
	Predicate Expr
}

func NewFilter(input Plan, predicate Expr) *Filter { return &Filter{unary{input}, predicate} }

func (f *Filter) isPlan()        {}
func (f *Filter) Schema() Schema { return f.Input.Schema() }
func (f *Filter) RequiredColumns() []map[string]bool {
	return unaryRequired(requiredOf(f.Predicate))
}
func (f *Filter) String() string { return fmt.Sprintf("FILTER %s", f.Predicate) }
func (f *Filter) WithNewChildren(children []Plan) (Plan, error) {
	if len(children) != 1 {
		return nil, errValue(f, "Filter takes exactly one child")
	}
	return &Filter{unary{children[0]}, f.Predicate}, nil
}
func (f *Filter) ApplyChildren(fn func(Plan) (tree.Signal, error)) (tree.Signal, error) {
	return tree.ApplyShaped[Plan](f, fn)
}
func (f *Filter) MapChildren(fn func(Plan) (tree.Transformed[Plan], error)) (tree.Transformed[Plan], error) {
	return tree.MapShaped[Plan](f, fn)
}

// Sort orders rows by Keys.
type Sort struct {
	unary
	Keys []Expr
}

func NewSort(input Plan, keys []Expr) *Sort { return &Sort{unary{input}, keys} }

func (s *Sort) isPlan()        {}
func (s *Sort) Schema() Schema { return s.Input.Schema() }
func (s *Sort) RequiredColumns() []map[string]bool {
	return unaryRequired(requiredOf(s.Keys...))
}
func (s *Sort) String() string { return fmt.Sprintf("SORT BY %s", exprListString(s.Keys)) }
func (s *Sort) WithNewChildren(children []Plan) (Plan, error) {
	if len(children) != 1 {
		return nil, errValue(s, "Sort takes exactly one child")
	}
	return &Sort{unary{children[0]}, s.Keys}, nil
}
func (s *Sort) ApplyChildren(f func(Plan) (tree.Signal, error)) (tree.Signal, error) {
	return tree.ApplyShaped[Plan](s, f)
}
func (s *Sort) MapChildren(f func(Plan) (tree.Transformed[Plan], error)) (tree.Transformed[Plan], error) {
	return tree.MapShaped[Plan](s, f)
}

// Limit caps output at Count rows.
type Limit struct {
	unary
	Count int64
}

func NewLimit(input Plan, count int64) (*Limit, error) {
	if count < 0 {
		return nil, errValue(nil, "Limit count must be non-negative, got %d", count)
	}
	return &Limit{unary{input}, count}, nil
}

func (l *Limit) isPlan()        {}
func (l *Limit) Schema() Schema { return l.Input.Schema() }
func (l *Limit) RequiredColumns() []map[string]bool {
	return unaryRequired(map[string]bool{})
}
func (l *Limit) String() string { return fmt.Sprintf("LIMIT %d", l.Count) }
func (l *Limit) WithNewChildren(children []Plan) (Plan, error) {
	if len(children) != 1 {
		return nil, errValue(l, "Limit takes exactly one child")
	}
	return &Limit{unary{children[0]}, l.Count}, nil
}
func (l *Limit) ApplyChildren(f func(Plan) (tree.Signal, error)) (tree.Signal, error) {
	return tree.ApplyShaped[Plan](l, f)
}
func (l *Limit) MapChildren(f func(Plan) (tree.Transformed[Plan], error)) (tree.Transformed[Plan], error) {
	return tree.MapShaped[Plan](l, f)
}

// TopN is Sort+Limit fused: the N rows with the smallest/largest Keys.
type TopN struct {
	unary
	Keys  []Expr
	Count int64
}

func NewTopN(input Plan, keys []Expr, count int64) (*TopN, error) {
	if count < 0 {
		return nil, errValue(nil, "TopN count must be non-negative, got %d", count)
	}
	return &TopN{unary{input}, keys, count}, nil
}

func (t *TopN) isPlan()        {}
func (t *TopN) Schema() Schema { return t.Input.Schema() }
func (t *TopN) RequiredColumns() []map[string]bool {
	return unaryRequired(requiredOf(t.Keys...))
}
func (t *TopN) String() string {
	return fmt.Sprintf("TOP %d BY %s", t.Count, exprListString(t.Keys))
}
func (t *TopN) WithNewChildren(children []Plan) (Plan, error) {
	if len(children) != 1 {
		return nil, errValue(t, "TopN takes exactly one child")
	}
	return &TopN{unary{children[0]}, t.Keys, t.Count}, nil
}
func (t *TopN) ApplyChildren(f func(Plan) (tree.Signal, error)) (tree.Signal, error) {
	return tree.ApplyShaped[Plan](t, f)
}
func (t *TopN) MapChildren(f func(Plan) (tree.Transformed[Plan], error)) (tree.Transformed[Plan], error) {
	return tree.MapShaped[Plan](t, f)
}

// Sample keeps a Fraction of rows at random.
type Sample struct {
	unary
	Fraction float64
}

func NewSample(input Plan, fraction float64) (*Sample, error) {
	if fraction < 0 || fraction > 1 {
		return nil, errValue(nil, "Sample fraction must be in [0,1], got %v", fraction)
	}
	return &Sample{unary{input}, fraction}, nil
}

func (s *Sample) isPlan()        {}
func (s *Sample) Schema() Schema { return s.Input.Schema() }
func (s *Sample) RequiredColumns() []map[string]bool {
	return unaryRequired(map[string]bool{})
}
func (s *Sample) String() string { return fmt.Sprintf("SAMPLE %v", s.Fraction) }
func (s *Sample) WithNewChildren(children []Plan) (Plan, error) {
	if len(children) != 1 {
		return nil, errValue(s, "Sample takes exactly one child")
	}
	return &Sample{unary{children[0]}, s.Fraction}, nil
}
func (s *Sample) ApplyChildren(f func(Plan) (tree.Signal, error)) (tree.Signal, error) {
	return tree.ApplyShaped[Plan](s, f)
}
func (s *Sample) MapChildren(f func(Plan) (tree.Transformed[Plan], error)) (tree.Transformed[Plan], error) {
	return tree.MapShaped[Plan](s, f)
}

// Explode fans out one row per element of each of Columns (a SQL
// UNNEST/lateral-view-explode).
type Explode struct {
	unary
	Columns []Expr
}

func NewExplode(input Plan, columns []Expr) *Explode { return &Explode{unary{input}, columns} }

func (e *Explode) isPlan() {}
func (e *Explode) Schema() Schema {
	// Exploding preserves the input schema shape; only cardinality
	// changes. A richer model would mark the exploded fields
	// non-nullable-element, out of scope here.
	return e.Input.Schema()
}
func (e *Explode) RequiredColumns() []map[string]bool {
	return unaryRequired(requiredOf(e.Columns...))
}
func (e *Explode) String() string { return fmt.Sprintf("EXPLODE %s", exprListString(e.Columns)) }
func (e *Explode) WithNewChildren(children []Plan) (Plan, error) {
	if len(children) != 1 {
		return nil, errValue(e, "Explode takes exactly one child")
	}
	return &Explode{unary{children[0]}, e.Columns}, nil
}
func (e *Explode) ApplyChildren(f func(Plan) (tree.Signal, error)) (tree.Signal, error) {
	return tree.ApplyShaped[Plan](e, f)
}
func (e *Explode) MapChildren(f func(Plan) (tree.Transformed[Plan], error)) (tree.Transformed[Plan], error) {
	return tree.MapShaped[Plan](e, f)
}

// Repartition reshuffles rows across Spec's target partitioning;
// Shard distributes rows across Spec's shard count. Both are
// schema-preserving, column-set-blind pass-throughs for push-down
// purposes — they differ only in what downstream execution does with
// Spec, which is out of scope here.
type Repartition struct {
	unary
	Spec string
}

func NewRepartition(input Plan, spec string) *Repartition { return &Repartition{unary{input}, spec} }

func (r *Repartition) isPlan()        {}
func (r *Repartition) Schema() Schema { return r.Input.Schema() }
func (r *Repartition) RequiredColumns() []map[string]bool {
	return unaryRequired(map[string]bool{})
}
func (r *Repartition) String() string { return fmt.Sprintf("REPARTITION %s", r.Spec) }
func (r *Repartition) WithNewChildren(children []Plan) (Plan, error) {
	if len(children) != 1 {
		return nil, errValue(r, "Repartition takes exactly one child")
	}
	return &Repartition{unary{children[0]}, r.Spec}, nil
}
func (r *Repartition) ApplyChildren(f func(Plan) (tree.Signal, error)) (tree.Signal, error) {
	return tree.ApplyShaped[Plan](r, f)
}
func (r *Repartition) MapChildren(f func(Plan) (tree.Transformed[Plan], error)) (tree.Transformed[Plan], error) {
	return tree.MapShaped[Plan](r, f)
}

type Shard struct {
	unary
	Spec string
}

func NewShard(input Plan, spec string) *Shard { return &Shard{unary{input}, spec} }

func (s *Shard) isPlan()        {}
func (s *Shard) Schema() Schema { return s.Input.Schema() }
func (s *Shard) RequiredColumns() []map[string]bool {
	return unaryRequired(map[string]bool{})
}
func (s *Shard) String() string { return fmt.Sprintf("SHARD %s", s.Spec) }
func (s *Shard) WithNewChildren(children []Plan) (Plan, error) {
	if len(children) != 1 {
		return nil, errValue(s, "Shard takes exactly one child")
	}
	return &Shard{unary{children[0]}, s.Spec}, nil
}
func (s *Shard) ApplyChildren(f func(Plan) (tree.Signal, error)) (tree.Signal, error) {
	return tree.ApplyShaped[Plan](s, f)
}
func (s *Shard) MapChildren(f func(Plan) (tree.Transformed[Plan], error)) (tree.Transformed[Plan], error) {
	return tree.MapShaped[Plan](s, f)
}

// Unpivot turns Values columns into VarName/ValueName rows (a SQL
// UNPIVOT), carrying Ids along unchanged.
type Unpivot struct {
	unary
	Ids       []Expr
	Values    []Expr
	VarName   string
	ValueName string
}

func NewUnpivot(input Plan, ids, values []Expr, varName, valueName string) *Unpivot {
	return &Unpivot{unary{input}, ids, values, varName, valueName}
}

func (u *Unpivot) isPlan() {}
func (u *Unpivot) Schema() Schema {
	fields := make([]Field, 0, len(u.Ids)+2)
	for _, e := range u.Ids {
		fields = append(fields, NewField(e.Name()))
	}
	fields = append(fields, NewField(u.VarName), NewField(u.ValueName))
	s, err := NewSchema(fields...)
	if err != nil {
		panic(err)
	}
	return s
}
func (u *Unpivot) RequiredColumns() []map[string]bool {
	return unaryRequired(requiredOf(append(append([]Expr{}, u.Ids...), u.Values...)...))
}

// DeclaredColumns returns the set of input column names Unpivot reads
// directly (its ids ∪ values), used by the optimizer to restrict a
// synthesized push-down projection to columns Unpivot can actually
// consume.
func (u *Unpivot) DeclaredColumns() map[string]bool {
	return requiredOf(append(append([]Expr{}, u.Ids...), u.Values...)...)
}
func (u *Unpivot) String() string {
	return fmt.Sprintf("UNPIVOT ids=[%s] values=[%s] AS (%s, %s)",
		exprListString(u.Ids), exprListString(u.Values), u.VarName, u.ValueName)
}
func (u *Unpivot) WithNewChildren(children []Plan) (Plan, error) {
	if len(children) != 1 {
		return nil, errValue(u, "Unpivot takes exactly one child")
	}
	return &Unpivot{unary{children[0]}, u.Ids, u.Values, u.VarName, u.ValueName}, nil
}
func (u *Unpivot) ApplyChildren(f func(Plan) (tree.Signal, error)) (tree.Signal, error) {
	return tree.ApplyShaped[Plan](u, f)
}
func (u *Unpivot) MapChildren(f func(Plan) (tree.Transformed[Plan], error)) (tree.Transformed[Plan], error) {
	return tree.MapShaped[Plan](u, f)
}
