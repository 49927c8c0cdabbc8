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

// Package optimize implements the projection push-down rule: a single
// rewrite pass over a logical.Plan tree that drops no-op projections,
// merges adjacent projections, prunes columns at column-consuming
// operators, and pushes required column sets down through pass-through
// operators by inserting synthesized projections.
package optimize

import (
	"github.com/sneller-io/columnar/logical"
	"github.com/sneller-io/columnar/tree"
)

// TryOptimize applies the push-down rule to p, returning the rewritten
// plan and whether anything changed. It is driven as a single
// transform_down pass; a caller that wants a full fixed point (e.g. to
// combine this rule with others) re-invokes TryOptimize until it
// reports Changed=false, per the design note on fixed-point rewriting.
func TryOptimize(p logical.Plan) (tree.Transformed[logical.Plan], error) {
	return tree.TransformDown[logical.Plan](p, tryNode)
}

// tryNode is the rule's single entry point, re-entered locally by every
// rewrite below so that a chain of newly-enabled local rewrites
// resolves within one outer transform_down visit rather than waiting
// for the driver's next pass (§4.2.3).
func tryNode(p logical.Plan) (tree.Transformed[logical.Plan], error) {
	switch n := p.(type) {
	case *logical.Project:
		return tryProject(n)
	case *logical.UDFProject:
		return tryStandaloneUDFProject(n)
	case *logical.Aggregate:
		return tryStandaloneAggregate(n)
	case *logical.Pivot:
		return tryStandalonePivot(n)
	case *logical.Join:
		return tryStandaloneJoin(n)
	default:
		return tree.No[logical.Plan](p), nil
	}
}

// reenter re-invokes tryNode on a freshly produced plan and forces
// Changed=true on the result: the caller already performed a structural
// rewrite to reach newPlan, so the result is changed regardless of
// whether tryNode finds anything further to do to it.
func reenter(newPlan logical.Plan) (tree.Transformed[logical.Plan], error) {
	res, err := tryNode(newPlan)
	if err != nil {
		return tree.Transformed[logical.Plan]{}, err
	}
	res.Changed = true
	return res, nil
}

// schemaOrderSubset returns the names in schema present in required, in
// schema order — the stable ordering the design notes prefer for every
// synthesized push-down projection (§9 Open Question (ii)).
func schemaOrderSubset(schema logical.Schema, required map[string]bool) []string {
	names := schema.Names()
	out := make([]string, 0, len(required))
	for _, n := range names {
		if required[n] {
			out = append(out, n)
		}
	}
	return out
}

// insertProjection wraps input in a synthesized Project over names (in
// schema order), unless names already covers the whole of input's
// schema, in which case input is returned unchanged with inserted=false.
func insertProjection(input logical.Plan, required map[string]bool) (out logical.Plan, inserted bool, err error) {
	if len(required) >= input.Schema().Len() {
		return input, false, nil
	}
	names := schemaOrderSubset(input.Schema(), required)
	proj, err := logical.NewProject(input, logical.ColumnRefs(names))
	if err != nil {
		return nil, false, err
	}
	return proj, true, nil
}
