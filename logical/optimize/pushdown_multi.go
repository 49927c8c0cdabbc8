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

// pushUnpivot implements spec case (h): like the pass-through case, but
// the combined set is further restricted to the columns Unpivot
// actually declares (its ids ∪ values) since anything else couldn't
// have come from its input regardless.
func pushUnpivot(p *logical.Project, u *logical.Unpivot) (tree.Transformed[logical.Plan], error) {
	combined := mergeSets(p.RequiredColumns()[0], u.RequiredColumns()[0])
	declared := u.DeclaredColumns()
	restricted := map[string]bool{}
	for name := range combined {
		if declared[name] {
			restricted[name] = true
		}
	}
	newChild, inserted, err := insertProjection(u.Input, restricted)
	if err != nil {
		return tree.Transformed[logical.Plan]{}, err
	}
	if !inserted {
		return tree.No[logical.Plan](p), nil
	}
	newU := logical.NewUnpivot(newChild, u.Ids, u.Values, u.VarName, u.ValueName)
	newP, err := logical.NewProject(newU, p.Projections)
	if err != nil {
		return tree.Transformed[logical.Plan]{}, err
	}
	return reenter(newP)
}

// pushConcat implements spec case (i): apply the pass-through
// projection synthesis to both sides with the same combined set (both
// sides of a Concat share a schema).
func pushConcat(p *logical.Project, c *logical.Concat) (tree.Transformed[logical.Plan], error) {
	combined := p.RequiredColumns()[0]
	newLeft, leftChanged, err := insertProjection(c.Input, combined)
	if err != nil {
		return tree.Transformed[logical.Plan]{}, err
	}
	newRight, rightChanged, err := insertProjection(c.Other, combined)
	if err != nil {
		return tree.Transformed[logical.Plan]{}, err
	}
	if !leftChanged && !rightChanged {
		return tree.No[logical.Plan](p), nil
	}
	newC, err := logical.NewConcat(newLeft, newRight)
	if err != nil {
		return tree.Transformed[logical.Plan]{}, err
	}
	newP, err := logical.NewProject(newC, p.Projections)
	if err != nil {
		return tree.Transformed[logical.Plan]{}, err
	}
	return reenter(newP)
}

// pushJoinUnderProject implements spec case (j): push each side of a
// Join independently, combining the join's own per-side key
// requirement with whatever of that side's schema the outer Project
// still needs.
func pushJoinUnderProject(p *logical.Project, j *logical.Join) (tree.Transformed[logical.Plan], error) {
	outerRequired := p.RequiredColumns()[0]
	joinRequired := j.RequiredColumns()
	return rewriteJoinSides(p.Projections, j, outerRequired, joinRequired)
}

// rewriteJoinSides narrows Left/Right independently against the side's
// own schema intersected with outerRequired, then (if it actually
// narrowed either side) rebuilds the Join and — when projections is
// non-nil — wraps it back in a Project.
func rewriteJoinSides(projections []logical.Expr, j *logical.Join, outerRequired map[string]bool, joinRequired []map[string]bool) (tree.Transformed[logical.Plan], error) {
	leftCombined := sideCombined(j.Left.Schema(), joinRequired[0], outerRequired)
	rightCombined := sideCombined(j.Right.Schema(), joinRequired[1], outerRequired)

	newLeft, leftChanged, err := insertProjection(j.Left, leftCombined)
	if err != nil {
		return tree.Transformed[logical.Plan]{}, err
	}
	newRight, rightChanged, err := insertProjection(j.Right, rightCombined)
	if err != nil {
		return tree.Transformed[logical.Plan]{}, err
	}
	if !leftChanged && !rightChanged {
		return tree.No[logical.Plan](j), nil
	}
	newJ := logical.NewJoin(newLeft, newRight, j.Keys, j.Type)
	var newPlan logical.Plan = newJ
	if projections != nil {
		newP, err := logical.NewProject(newJ, projections)
		if err != nil {
			return tree.Transformed[logical.Plan]{}, err
		}
		newPlan = newP
	}
	return reenter(newPlan)
}

// sideCombined is side_req ∪ (side.schema ∩ outerRequired), spec case
// (j)'s per-side formula.
func sideCombined(sideSchema logical.Schema, sideRequired, outerRequired map[string]bool) map[string]bool {
	out := map[string]bool{}
	for name := range sideRequired {
		out[name] = true
	}
	for _, name := range sideSchema.Names() {
		if outerRequired[name] {
			out[name] = true
		}
	}
	return out
}

// pushDistinct implements spec case (k): an explicit-column Distinct
// pushes (P.required ∪ Distinct.required) below it; a Distinct over all
// columns needs its entire input and cannot be narrowed.
func pushDistinct(p *logical.Project, d *logical.Distinct) (tree.Transformed[logical.Plan], error) {
	if d.Columns == nil {
		return tree.No[logical.Plan](p), nil
	}
	combined := mergeSets(p.RequiredColumns()[0], d.RequiredColumns()[0])
	newChild, inserted, err := insertProjection(d.Input, combined)
	if err != nil {
		return tree.Transformed[logical.Plan]{}, err
	}
	if !inserted {
		return tree.No[logical.Plan](p), nil
	}
	newD := logical.NewDistinct(newChild, d.Columns)
	newP, err := logical.NewProject(newD, p.Projections)
	if err != nil {
		return tree.Transformed[logical.Plan]{}, err
	}
	return reenter(newP)
}
