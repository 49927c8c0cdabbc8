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

package tree

// ApplyUntilStop runs f over items left-to-right, stopping short on the
// first Stop (or error). It returns the Signal from the last invocation
// of f, or Continue if items is empty.
func ApplyUntilStop[N any](items []N, f func(N) (Signal, error)) (Signal, error) {
	sig := Signal(Continue)
	for _, item := range items {
		s, err := f(item)
		if err != nil {
			return 0, err
		}
		sig = s
		if sig == Stop {
			return Stop, nil
		}
	}
	return sig, nil
}

// MapUntilStopAndCollect maps f over items left-to-right, short-
// circuiting (passing remaining items through unchanged) once some
// invocation of f returns Stop. The resulting Transformed.Changed is
// true if any invocation of f reported Changed; Signal is the last
// Signal produced by f, or Continue if items is empty.
func MapUntilStopAndCollect[N any](items []N, f func(N) (Transformed[N], error)) (Transformed[[]N], error) {
	out := make([]N, len(items))
	sig := Signal(Continue)
	changed := false
	for i, item := range items {
		if sig == Stop {
			out[i] = item
			continue
		}
		r, err := f(item)
		if err != nil {
			return Transformed[[]N]{}, err
		}
		sig = r.Signal
		changed = changed || r.Changed
		out[i] = r.Data
	}
	return New(out, changed, sig), nil
}

// MapAndCollect maps f over every item, never short-circuiting on Stop.
// It is used where the caller wants the side effects of f to run on
// every sibling regardless of an intermediate Stop (e.g. when Stop is
// being used purely to prune descent, not to abort the sibling walk).
func MapAndCollect[N any](items []N, f func(N) (Transformed[N], error)) (Transformed[[]N], error) {
	out := make([]N, len(items))
	sig := Signal(Continue)
	changed := false
	for i, item := range items {
		r, err := f(item)
		if err != nil {
			return Transformed[[]N]{}, err
		}
		sig = r.Signal
		changed = changed || r.Changed
		out[i] = r.Data
	}
	return New(out, changed, sig), nil
}

// Shaped is the common shape for tree nodes held behind a shared handle
// (e.g. a pointer receiver): a plain Children accessor and a
// WithNewChildren constructor that validates and rebuilds the node.
// Types satisfying Shaped[N] get ApplyChildren/MapChildren for free via
// ApplyShaped/MapShaped below.
type Shaped[N any] interface {
	// Children returns this node's children in order. A leaf returns
	// nil or an empty slice.
	Children() []N
	// WithNewChildren reconstructs this node with new children,
	// validating arity and any other invariant the node enforces.
	WithNewChildren(children []N) (N, error)
}

// ApplyShaped implements Node[N].ApplyChildren for any N satisfying
// Shaped[N].
func ApplyShaped[N Shaped[N]](n N, f func(N) (Signal, error)) (Signal, error) {
	return ApplyUntilStop(n.Children(), f)
}

// MapShaped implements Node[N].MapChildren for any N satisfying
// Shaped[N]. It is the sole place the "unchanged subtree" fast path
// (never reallocate a parent whose children did not change) is
// implemented for this shape.
func MapShaped[N Shaped[N]](n N, f func(N) (Transformed[N], error)) (Transformed[N], error) {
	children := n.Children()
	if len(children) == 0 {
		return No(n), nil
	}
	mapped, err := MapUntilStopAndCollect(children, f)
	if err != nil {
		return Transformed[N]{}, err
	}
	if !mapped.Changed {
		return New(n, false, mapped.Signal), nil
	}
	return MapData(mapped, n.WithNewChildren)
}

// Detachable is the other common shape: a node that can only be rebuilt
// by detaching itself from its children (returning the stem and the
// children separately) and later reattaching a (possibly new) set of
// children. This is useful for concrete (non-pointer, non-shared) node
// values that cannot expose a live Children() slice without first being
// split apart.
type Detachable[N any] interface {
	// TakeChildren detaches n from its children, returning the
	// childless stem and the detached children in order.
	TakeChildren() (stem N, children []N)
	// WithNewChildren reattaches children (replacing whatever was
	// detached) to the stem, validating arity.
	WithNewChildren(children []N) (N, error)
}

// ApplyDetachable implements Node[N].ApplyChildren for any N satisfying
// Detachable[N].
func ApplyDetachable[N Detachable[N]](n N, f func(N) (Signal, error)) (Signal, error) {
	_, children := n.TakeChildren()
	return ApplyUntilStop(children, f)
}

// MapDetachable implements Node[N].MapChildren for any N satisfying
// Detachable[N].
func MapDetachable[N Detachable[N]](n N, f func(N) (Transformed[N], error)) (Transformed[N], error) {
	stem, children := n.TakeChildren()
	if len(children) == 0 {
		return No(n), nil
	}
	mapped, err := MapUntilStopAndCollect(children, f)
	if err != nil {
		return Transformed[N]{}, err
	}
	if !mapped.Changed {
		return New(n, false, mapped.Signal), nil
	}
	return MapData(mapped, stem.WithNewChildren)
}
