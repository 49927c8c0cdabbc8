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
	"github.com/sneller-io/columnar/logical"
	"github.com/sneller-io/columnar/tree"
)

// tryStandaloneUDFProject implements the UDFProject half of spec
// §4.2.2: insert a synthesized Project below it whenever it requires
// strictly fewer columns than its child produces, even with no Project
// sitting above it.
func tryStandaloneUDFProject(u *logical.UDFProject) (tree.Transformed[logical.Plan], error) {
	newChild, inserted, err := insertProjection(u.Input, u.RequiredColumns()[0])
	if err != nil {
		return tree.Transformed[logical.Plan]{}, err
	}
	if !inserted {
		return tree.No[logical.Plan](u), nil
	}
	newU := logical.NewUDFProject(newChild, u.UDF, u.Passthrough)
	return reenter(newU)
}

// tryStandaloneAggregate implements the Aggregate half of spec §4.2.2.
func tryStandaloneAggregate(a *logical.Aggregate) (tree.Transformed[logical.Plan], error) {
	newChild, inserted, err := insertProjection(a.Input, a.RequiredColumns()[0])
	if err != nil {
		return tree.Transformed[logical.Plan]{}, err
	}
	if !inserted {
		return tree.No[logical.Plan](a), nil
	}
	newA := logical.NewAggregate(newChild, a.Aggregations, a.GroupBy)
	return reenter(newA)
}

// tryStandalonePivot implements the Pivot half of spec §4.2.2: Pivot's
// own GroupBy/PivotColumn/ValueColumn set may be narrower than its
// input even though no outer Project can narrow it further (case (l)).
func tryStandalonePivot(p *logical.Pivot) (tree.Transformed[logical.Plan], error) {
	newChild, inserted, err := insertProjection(p.Input, p.RequiredColumns()[0])
	if err != nil {
		return tree.Transformed[logical.Plan]{}, err
	}
	if !inserted {
		return tree.No[logical.Plan](p), nil
	}
	newP := logical.NewPivot(newChild, p.OutSchema, p.GroupBy, p.PivotColumn, p.ValueColumn)
	return reenter(newP)
}

// tryStandaloneJoin implements the Join half of spec §4.2.2: only
// Semi/Anti joins qualify, and only their right input narrows — the
// left input's width stays observable through the join's own output
// schema.
func tryStandaloneJoin(j *logical.Join) (tree.Transformed[logical.Plan], error) {
	if j.Type != logical.SemiJoin && j.Type != logical.AntiJoin {
		return tree.No[logical.Plan](j), nil
	}
	required := j.RequiredColumns()[1]
	newRight, inserted, err := insertProjection(j.Right, required)
	if err != nil {
		return tree.Transformed[logical.Plan]{}, err
	}
	if !inserted {
		return tree.No[logical.Plan](j), nil
	}
	newJ := logical.NewJoin(j.Left, newRight, j.Keys, j.Type)
	return reenter(newJ)
}
