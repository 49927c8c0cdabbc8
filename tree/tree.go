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

// Package tree provides a small generic algebra for visiting and
// rewriting recursive node values (logical plans, physical plans,
// expression trees) without each caller writing its own recursion.
//
// A type N satisfies Node[N] by supplying two primitives: ApplyChildren
// (inspect children) and MapChildren (replace children). The package
// derives Visit, Apply, Exists, Rewrite, TransformDown, TransformUp, and
// TransformDownUp from those two primitives alone; callers never need to
// hand-write recursion over their own tree shape.
//
// Two helpers are provided for the common ways a type ends up supplying
// ApplyChildren/MapChildren: Shaped, for types with a plain
// Children()/WithNewChildren() pair (most logical-plan and expression
// nodes), and Detachable, for types that can only be rebuilt by
// detaching their children and reattaching a new set.
package tree

// Signal controls how a traversal proceeds after visiting a node.
type Signal int

const (
	// Continue descends into children (top-down) or ascends to the
	// parent (bottom-up).
	Continue Signal = iota
	// Jump skips this node's children in a top-down walk but continues
	// with siblings; in a bottom-up walk it skips ancestor f_up calls
	// until the next unvisited subtree.
	Jump
	// Stop aborts the walk immediately; the caller receives whatever
	// state was accumulated before the Stop.
	Stop
)

func (s Signal) String() string {
	switch s {
	case Continue:
		return "Continue"
	case Jump:
		return "Jump"
	case Stop:
		return "Stop"
	default:
		return "Signal(?)"
	}
}

// Descend applies f when s permits recursing into a node's children.
// Jump is absorbed (turned into Continue for the caller one level up)
// without calling f; Stop short-circuits without calling f.
func (s Signal) Descend(f func() (Signal, error)) (Signal, error) {
	switch s {
	case Continue:
		return f()
	case Jump:
		return Continue, nil
	default: // Stop
		return s, nil
	}
}

// Sibling applies f when s permits moving on to the next sibling.
func (s Signal) Sibling(f func() (Signal, error)) (Signal, error) {
	switch s {
	case Continue, Jump:
		return f()
	default: // Stop
		return s, nil
	}
}

// Ascend applies f when s permits running the parent's post-order step.
func (s Signal) Ascend(f func() (Signal, error)) (Signal, error) {
	switch s {
	case Continue:
		return f()
	default: // Jump, Stop
		return s, nil
	}
}

// Transformed is the envelope every rewriting traversal produces: the
// (possibly new) data, whether anything changed, and how the recursion
// that produced it wants to proceed. Changed is monotonic under
// composition: every combinator in this package ORs incoming Changed
// into its result, and none of them ever clears it once set.
type Transformed[T any] struct {
	Data    T
	Changed bool
	Signal  Signal
}

// New builds a Transformed value directly.
func New[T any](data T, changed bool, signal Signal) Transformed[T] {
	return Transformed[T]{Data: data, Changed: changed, Signal: signal}
}

// Yes wraps changed data, continuing the walk.
func Yes[T any](data T) Transformed[T] {
	return Transformed[T]{Data: data, Changed: true, Signal: Continue}
}

// No wraps unchanged data, continuing the walk.
func No[T any](data T) Transformed[T] {
	return Transformed[T]{Data: data, Changed: false, Signal: Continue}
}

// Or returns t if it reports Changed, otherwise other. Useful for rules
// that re-enter themselves after a local rewrite and want to report the
// innermost Changed result but fall back to a default "yes, this level
// changed" wrapper.
func (t Transformed[T]) Or(other Transformed[T]) Transformed[T] {
	if t.Changed {
		return t
	}
	return other
}

// UpdateData applies f to the payload, keeping Changed/Signal as-is.
func UpdateData[T, U any](t Transformed[T], f func(T) U) Transformed[U] {
	return Transformed[U]{Data: f(t.Data), Changed: t.Changed, Signal: t.Signal}
}

// MapData applies a fallible f to the payload, keeping Changed/Signal.
func MapData[T, U any](t Transformed[T], f func(T) (U, error)) (Transformed[U], error) {
	data, err := f(t.Data)
	if err != nil {
		return Transformed[U]{}, err
	}
	return Transformed[U]{Data: data, Changed: t.Changed, Signal: t.Signal}, nil
}

// TransformData chains t into a function that itself produces a
// Transformed, OR-ing the Changed flags together.
func TransformData[T, U any](t Transformed[T], f func(T) (Transformed[U], error)) (Transformed[U], error) {
	out, err := f(t.Data)
	if err != nil {
		return Transformed[U]{}, err
	}
	out.Changed = out.Changed || t.Changed
	return out, nil
}

// MapYesNo maps t's payload through yesOp if Changed, or noOp otherwise.
func MapYesNo[T, U any](t Transformed[T], yesOp, noOp func(T) U) Transformed[U] {
	if t.Changed {
		return Yes(yesOp(t.Data))
	}
	return No(noOp(t.Data))
}

// TransformChildren runs f (which rewrites this node's children) only
// when the current Signal is Continue; a Jump is absorbed into Continue
// for the ascent, a Stop is passed through untouched.
func (t Transformed[T]) TransformChildren(f func(T) (Transformed[T], error)) (Transformed[T], error) {
	switch t.Signal {
	case Continue:
		out, err := f(t.Data)
		if err != nil {
			return Transformed[T]{}, err
		}
		out.Changed = out.Changed || t.Changed
		return out, nil
	case Jump:
		t.Signal = Continue
		return t, nil
	default: // Stop
		return t, nil
	}
}

// TransformSibling runs f for a sibling unless the current Signal is
// Stop.
func (t Transformed[T]) TransformSibling(f func(T) (Transformed[T], error)) (Transformed[T], error) {
	switch t.Signal {
	case Continue, Jump:
		out, err := f(t.Data)
		if err != nil {
			return Transformed[T]{}, err
		}
		out.Changed = out.Changed || t.Changed
		return out, nil
	default: // Stop
		return t, nil
	}
}

// TransformParent runs f (the post-order step on the parent) only when
// the current Signal is Continue.
func (t Transformed[T]) TransformParent(f func(T) (Transformed[T], error)) (Transformed[T], error) {
	switch t.Signal {
	case Continue:
		out, err := f(t.Data)
		if err != nil {
			return Transformed[T]{}, err
		}
		out.Changed = out.Changed || t.Changed
		return out, nil
	default: // Jump, Stop
		return t, nil
	}
}

// Node is the contract every tree-walked type must satisfy: iterate and
// rewrite exactly one level of children. The package's traversals are
// defined generically over any N that is Node[N]; implementers never
// need to hand-write recursion.
type Node[N any] interface {
	// ApplyChildren visits each child left-to-right with f, threading
	// the Signal using the sibling rule (Continue/Jump proceed, Stop
	// aborts immediately).
	ApplyChildren(f func(N) (Signal, error)) (Signal, error)

	// MapChildren rewrites each child left-to-right with f. If no
	// child reports Changed, MapChildren must return the receiver
	// unchanged (the framework never reconstructs an unchanged
	// parent); otherwise it reconstructs the parent from the new
	// children.
	MapChildren(f func(N) (Transformed[N], error)) (Transformed[N], error)
}

func noSignal[N any](N) (Signal, error) { return Continue, nil }

func noRewrite[N any](n N) (Transformed[N], error) { return No(n), nil }

// Visitor is a pair of inspecting callbacks. Either may be left nil, in
// which case it behaves as "no change, Continue".
type Visitor[N any] struct {
	Down func(N) (Signal, error)
	Up   func(N) (Signal, error)
}

// Rewriter is a pair of rewriting callbacks. Either may be left nil, in
// which case it behaves as "no change, Continue".
type Rewriter[N any] struct {
	Down func(N) (Transformed[N], error)
	Up   func(N) (Transformed[N], error)
}

// Visit performs a depth-first walk of n, calling v.Down before
// descending into children and v.Up after all children have been
// visited. See Signal for how Jump/Stop abbreviate the schedule.
func Visit[N Node[N]](n N, v Visitor[N]) (Signal, error) {
	down, up := v.Down, v.Up
	if down == nil {
		down = noSignal[N]
	}
	if up == nil {
		up = noSignal[N]
	}
	s, err := down(n)
	if err != nil {
		return 0, err
	}
	s, err = s.Descend(func() (Signal, error) {
		return n.ApplyChildren(func(c N) (Signal, error) {
			return Visit(c, v)
		})
	})
	if err != nil {
		return 0, err
	}
	return s.Ascend(func() (Signal, error) { return up(n) })
}

// Apply is Visit with a no-op Up callback: f is applied to n and then,
// if it returns Continue, to each child in turn (a top-down walk).
func Apply[N Node[N]](n N, f func(N) (Signal, error)) (Signal, error) {
	return Visit(n, Visitor[N]{Down: f})
}

// Exists reports whether pred is true for any node in the tree rooted
// at n, short-circuiting (via Stop) on the first match.
func Exists[N Node[N]](n N, pred func(N) bool) (bool, error) {
	found := false
	_, err := Apply(n, func(x N) (Signal, error) {
		if pred(x) {
			found = true
			return Stop, nil
		}
		return Continue, nil
	})
	return found, err
}

// Rewrite performs a combined top-down/bottom-up rewrite of n using
// r.Down before descending and r.Up after ascending.
func Rewrite[N Node[N]](n N, r Rewriter[N]) (Transformed[N], error) {
	return TransformDownUp(n, r.Down, r.Up)
}

// TransformDown rewrites n using f in pre-order: f runs on a node
// before it runs on that node's children. A Jump returned from f prunes
// descent into that node's children.
func TransformDown[N Node[N]](n N, f func(N) (Transformed[N], error)) (Transformed[N], error) {
	if f == nil {
		f = noRewrite[N]
	}
	t, err := f(n)
	if err != nil {
		return Transformed[N]{}, err
	}
	return t.TransformChildren(func(d N) (Transformed[N], error) {
		return d.MapChildren(func(c N) (Transformed[N], error) {
			return TransformDown(c, f)
		})
	})
}

// TransformUp rewrites n using f in post-order: f runs on a node's
// children before it runs on that node.
func TransformUp[N Node[N]](n N, f func(N) (Transformed[N], error)) (Transformed[N], error) {
	if f == nil {
		f = noRewrite[N]
	}
	mapped, err := n.MapChildren(func(c N) (Transformed[N], error) {
		return TransformUp(c, f)
	})
	if err != nil {
		return Transformed[N]{}, err
	}
	return mapped.TransformParent(f)
}

// Transform is a synonym for TransformUp, matching the teacher's own
// Rewrite-vs-Transform naming split (rewrite uses visitor objects,
// transform uses closures).
func Transform[N Node[N]](n N, f func(N) (Transformed[N], error)) (Transformed[N], error) {
	return TransformUp(n, f)
}

// TransformDownUp rewrites n using fDown in pre-order and fUp in
// post-order in a single combined pass. Starting f_up right where
// f_down jumps makes this faster than calling TransformDown followed by
// TransformUp separately.
func TransformDownUp[N Node[N]](n N, fDown, fUp func(N) (Transformed[N], error)) (Transformed[N], error) {
	if fDown == nil {
		fDown = noRewrite[N]
	}
	if fUp == nil {
		fUp = noRewrite[N]
	}
	t, err := fDown(n)
	if err != nil {
		return Transformed[N]{}, err
	}
	t, err = t.TransformChildren(func(d N) (Transformed[N], error) {
		return d.MapChildren(func(c N) (Transformed[N], error) {
			return TransformDownUp(c, fDown, fUp)
		})
	})
	if err != nil {
		return Transformed[N]{}, err
	}
	return t.TransformParent(fUp)
}
