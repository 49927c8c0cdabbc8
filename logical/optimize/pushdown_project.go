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

// tryProject is try_node's dispatch for a Project root, implementing
// spec cases (a) through (l).
func tryProject(p *logical.Project) (tree.Transformed[logical.Plan], error) {
	u := p.Input
	if isNoOpProjection(p.Projections, u.Schema()) {
		return elideNoOp(u)
	}

	if pt, ok := asPassThrough(u); ok {
		return pushThroughPassThrough(p, pt)
	}

	switch uu := u.(type) {
	case *logical.Source:
		return pushIntoSource(p, uu)
	case *logical.Project:
		return mergeOrPruneProject(p, uu)
	case *logical.UDFProject:
		return interactUDFProject(p, uu)
	case *logical.Aggregate:
		return pruneUpstreamAggregate(p, uu)
	case *logical.Unpivot:
		return pushUnpivot(p, uu)
	case *logical.Concat:
		return pushConcat(p, uu)
	case *logical.Join:
		return pushJoinUnderProject(p, uu)
	case *logical.Distinct:
		return pushDistinct(p, uu)
	case *logical.Intersect, *logical.Pivot, *logical.MonotonicallyIncreasingID, *logical.Window:
		// Fixed/opaque operators (case (l)): no push-down possible.
		return tree.No[logical.Plan](p), nil
	case *logical.Sink:
		panic(errFatalAt(p, "Sink found under a Project"))
	case *logical.Union, *logical.SubqueryAlias:
		panic(errFatalAt(p, "Union/SubqueryAlias should have been eliminated before this rule runs"))
	default:
		return tree.No[logical.Plan](p), nil
	}
}

func errFatalAt(p logical.Plan, msg string) error {
	return logical.NewFatalError(p, msg)
}

// isNoOpProjection implements spec case (a)'s test: projs has exactly
// one bare Column(name) per schema field, in schema order.
func isNoOpProjection(projs []logical.Expr, schema logical.Schema) bool {
	names := schema.Names()
	if len(projs) != len(names) {
		return false
	}
	for i, e := range projs {
		name, ok := logical.IsBareColumn(e)
		if !ok || name != names[i] {
			return false
		}
	}
	return true
}

// elideNoOp drops a no-op Project entirely, re-entering on its input so
// any rewrite already enabled one level down still runs (spec case (a)).
func elideNoOp(u logical.Plan) (tree.Transformed[logical.Plan], error) {
	res, err := tryNode(u)
	if err != nil {
		return tree.Transformed[logical.Plan]{}, err
	}
	if res.Changed {
		return res, nil
	}
	return tree.Yes[logical.Plan](u), nil
}

// pushIntoSource implements spec case (c): narrow a physical scan's
// pushdown column list to exactly what p requires, only when doing so
// is strictly narrower than whatever the scan already has pushed down
// (its existing Pushdowns.Columns if any, else its full declared
// schema) — comparing against the declared schema alone would make the
// rule re-fire forever on a scan it already narrowed, since the
// schema's width never changes.
func pushIntoSource(p *logical.Project, src *logical.Source) (tree.Transformed[logical.Plan], error) {
	phys, ok := src.Info.(logical.PhysicalSource)
	if !ok {
		switch src.Info.(type) {
		case logical.PlaceHolderSource:
			panic(errFatalAt(p, "PlaceHolder source reached by the optimizer"))
		default:
			// Only an external (physical) scan accepts a pushdown; an
			// in-memory source has nothing to narrow.
			return tree.No[logical.Plan](p), nil
		}
	}
	required := p.RequiredColumns()[0]
	currentWidth := src.SchemaOut.Len()
	if phys.Pushdowns.Columns != nil {
		currentWidth = len(phys.Pushdowns.Columns)
	}
	if len(required) >= currentWidth {
		return tree.No[logical.Plan](p), nil
	}
	cols := schemaOrderSubset(src.SchemaOut, required)
	pd := phys.Pushdowns
	pd.Columns = cols
	pd, err := pd.WithPrunedColumnStats()
	if err != nil {
		return tree.Transformed[logical.Plan]{}, err
	}
	newSrc := logical.NewSource(src.SchemaOut, logical.PhysicalSource{ScanID: phys.ScanID, Pushdowns: pd})
	newP, err := logical.NewProject(newSrc, p.Projections)
	if err != nil {
		return tree.Transformed[logical.Plan]{}, err
	}
	return reenter(newP)
}

// mergeOrPruneProject implements spec cases (b) and (d): merge P into
// its upstream Project when no computed upstream column would be
// duplicated, otherwise prune unused upstream projections.
func mergeOrPruneProject(p *logical.Project, u *logical.Project) (tree.Transformed[logical.Plan], error) {
	computedUp := map[string]bool{}
	for _, e := range u.Projections {
		if _, ok := logical.IsBareColumn(e); !ok {
			computedUp[e.Name()] = true
		}
	}
	if !hasDuplicateReference(p.Projections, computedUp) {
		merged, err := substituteAll(p.Projections, logical.ExprsByName(u.Projections))
		if err != nil {
			return tree.Transformed[logical.Plan]{}, err
		}
		newP, err := logical.NewProject(u.Input, merged)
		if err != nil {
			return tree.Transformed[logical.Plan]{}, err
		}
		return reenter(newP)
	}
	required := p.RequiredColumns()[0]
	pruned, changed := pruneByName(u.Projections, required)
	if !changed {
		return tree.No[logical.Plan](p), nil
	}
	newU, err := logical.NewProject(u.Input, pruned)
	if err != nil {
		return tree.Transformed[logical.Plan]{}, err
	}
	newP, err := logical.NewProject(newU, p.Projections)
	if err != nil {
		return tree.Transformed[logical.Plan]{}, err
	}
	return reenter(newP)
}

// hasDuplicateReference reports whether any name in computed is
// referenced by more than one expression across exprs — the check that
// forbids duplicating expensive computation during a projection merge
// or a UDF inline (spec cases (b), (f), and scenario S10).
func hasDuplicateReference(exprs []logical.Expr, computed map[string]bool) bool {
	counts := map[string]int{}
	for _, e := range exprs {
		for name := range logical.RequiredColumns(e) {
			if computed[name] {
				counts[name]++
				if counts[name] > 1 {
					return true
				}
			}
		}
	}
	return false
}

func substituteAll(exprs []logical.Expr, byName map[string]logical.Expr) ([]logical.Expr, error) {
	out := make([]logical.Expr, len(exprs))
	for i, e := range exprs {
		sub, err := logical.Substitute(e, byName)
		if err != nil {
			return nil, err
		}
		out[i] = sub
	}
	return out, nil
}

// pruneByName drops any expr whose Name() is not in required, reporting
// whether anything was actually dropped.
func pruneByName(exprs []logical.Expr, required map[string]bool) ([]logical.Expr, bool) {
	kept := make([]logical.Expr, 0, len(exprs))
	for _, e := range exprs {
		if required[e.Name()] {
			kept = append(kept, e)
		}
	}
	return kept, len(kept) != len(exprs)
}

// pruneUpstreamAggregate implements spec case (e): drop Aggregations
// not required downstream, always keeping every GroupBy expression.
func pruneUpstreamAggregate(p *logical.Project, agg *logical.Aggregate) (tree.Transformed[logical.Plan], error) {
	required := p.RequiredColumns()[0]
	kept, changed := pruneByName(agg.Aggregations, required)
	if !changed {
		return tree.No[logical.Plan](p), nil
	}
	newAgg := logical.NewAggregate(agg.Input, kept, agg.GroupBy)
	newP, err := logical.NewProject(newAgg, p.Projections)
	if err != nil {
		return tree.Transformed[logical.Plan]{}, err
	}
	return reenter(newP)
}

// interactUDFProject implements spec case (f): eliminate a UDFProject
// whose output is unused, inline it when projs is pure passthrough with
// no duplicated reference, or else prune its unused passthroughs.
func interactUDFProject(p *logical.Project, u *logical.UDFProject) (tree.Transformed[logical.Plan], error) {
	required := p.RequiredColumns()[0]
	udfName := u.UDF.Name()

	if !required[udfName] {
		newU, err := logical.NewProject(u.Input, u.Passthrough)
		if err != nil {
			return tree.Transformed[logical.Plan]{}, err
		}
		newP, err := logical.NewProject(newU, p.Projections)
		if err != nil {
			return tree.Transformed[logical.Plan]{}, err
		}
		return reenter(newP)
	}

	noComputation := true
	for _, e := range p.Projections {
		if logical.IsComputation(e) {
			noComputation = false
			break
		}
	}
	computedUp := map[string]bool{udfName: true}
	for _, e := range u.Passthrough {
		if _, ok := logical.IsBareColumn(e); !ok {
			computedUp[e.Name()] = true
		}
	}
	if noComputation && !hasDuplicateReference(p.Projections, computedUp) {
		byName := logical.ExprsByName(append(append([]logical.Expr{}, u.Passthrough...), u.UDF))
		merged, err := substituteAll(p.Projections, byName)
		if err != nil {
			return tree.Transformed[logical.Plan]{}, err
		}
		if udfExpr, idx, others, found := extractUDFCall(merged); found {
			// UDFProject.Schema() always emits [...Passthrough, UDF], so
			// this inlining is only order-preserving when the UDF call
			// already sits last in merged; otherwise fall through to the
			// prune branch below, which keeps p's own column order by
			// construction (it re-wraps in p.Projections unchanged).
			if idx == len(merged)-1 {
				newU := logical.NewUDFProject(u.Input, udfExpr, others)
				return reenter(newU)
			}
		} else {
			newP, err := logical.NewProject(u.Input, merged)
			if err != nil {
				return tree.Transformed[logical.Plan]{}, err
			}
			return reenter(newP)
		}
	}

	kept, changed := pruneByName(u.Passthrough, required)
	if !changed {
		return tree.No[logical.Plan](p), nil
	}
	newU := logical.NewUDFProject(u.Input, u.UDF, kept)
	newP, err := logical.NewProject(newU, p.Projections)
	if err != nil {
		return tree.Transformed[logical.Plan]{}, err
	}
	return reenter(newP)
}

// extractUDFCall finds the first expression in merged that still
// contains a UDF call and splits it out along with its original index,
// the re-classification step spec case (f) requires after inlining.
func extractUDFCall(merged []logical.Expr) (udf logical.Expr, idx int, others []logical.Expr, found bool) {
	for i, e := range merged {
		if containsUDFCall(e) {
			others = make([]logical.Expr, 0, len(merged)-1)
			others = append(others, merged[:i]...)
			others = append(others, merged[i+1:]...)
			return e, i, others, true
		}
	}
	return nil, -1, nil, false
}

func containsUDFCall(e logical.Expr) bool {
	found, _ := tree.Exists[logical.Expr](e, func(n logical.Expr) bool {
		fn, ok := n.(*logical.Function)
		return ok && fn.IsUDF
	})
	return found
}
