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

// passThrough is the uniform shape spec case (g) operates on: a single
// child, the set of columns this node itself reads from that child,
// and a way to rebuild the node over a new child.
type passThrough struct {
	input    logical.Plan
	required map[string]bool
	rebuild  func(newChild logical.Plan) (logical.Plan, error)
}

func unionRequired(exprs ...logical.Expr) map[string]bool {
	out := map[string]bool{}
	for _, e := range exprs {
		for name := range logical.RequiredColumns(e) {
			out[name] = true
		}
	}
	return out
}

// asPassThrough recognizes the pass-through operator kinds of spec case
// (g): Sort, Shard, Repartition, Limit, TopN, Filter, Sample, Explode.
func asPassThrough(u logical.Plan) (passThrough, bool) {
	switch n := u.(type) {
	case *logical.Sort:
		return passThrough{n.Input, unionRequired(n.Keys...), func(c logical.Plan) (logical.Plan, error) {
			return logical.NewSort(c, n.Keys), nil
		}}, true
	case *logical.Shard:
		return passThrough{n.Input, map[string]bool{}, func(c logical.Plan) (logical.Plan, error) {
			return logical.NewShard(c, n.Spec), nil
		}}, true
	case *logical.Repartition:
		return passThrough{n.Input, map[string]bool{}, func(c logical.Plan) (logical.Plan, error) {
			return logical.NewRepartition(c, n.Spec), nil
		}}, true
	case *logical.Limit:
		return passThrough{n.Input, map[string]bool{}, func(c logical.Plan) (logical.Plan, error) {
			return logical.NewLimit(c, n.Count)
		}}, true
	case *logical.TopN:
		return passThrough{n.Input, unionRequired(n.Keys...), func(c logical.Plan) (logical.Plan, error) {
			return logical.NewTopN(c, n.Keys, n.Count)
		}}, true
	case *logical.Filter:
		return passThrough{n.Input, unionRequired(n.Predicate), func(c logical.Plan) (logical.Plan, error) {
			return logical.NewFilter(c, n.Predicate), nil
		}}, true
	case *logical.Sample:
		return passThrough{n.Input, map[string]bool{}, func(c logical.Plan) (logical.Plan, error) {
			return logical.NewSample(c, n.Fraction)
		}}, true
	case *logical.Explode:
		return passThrough{n.Input, unionRequired(n.Columns...), func(c logical.Plan) (logical.Plan, error) {
			return logical.NewExplode(c, n.Columns), nil
		}}, true
	default:
		return passThrough{}, false
	}
}

// pushThroughPassThrough implements spec case (g): combine what p and
// the pass-through node itself require from its child, and insert a
// synthesized projection below it when that combined set is strictly
// narrower than the child's full schema.
func pushThroughPassThrough(p *logical.Project, pt passThrough) (tree.Transformed[logical.Plan], error) {
	combined := mergeSets(p.RequiredColumns()[0], pt.required)
	newChild, inserted, err := insertProjection(pt.input, combined)
	if err != nil {
		return tree.Transformed[logical.Plan]{}, err
	}
	if !inserted {
		return tree.No[logical.Plan](p), nil
	}
	newU, err := pt.rebuild(newChild)
	if err != nil {
		return tree.Transformed[logical.Plan]{}, err
	}
	newP, err := logical.NewProject(newU, p.Projections)
	if err != nil {
		return tree.Transformed[logical.Plan]{}, err
	}
	return reenter(newP)
}

func mergeSets(sets ...map[string]bool) map[string]bool {
	out := map[string]bool{}
	for _, s := range sets {
		for name := range s {
			out[name] = true
		}
	}
	return out
}
