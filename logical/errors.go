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

import "fmt"

// ValueError reports structural misuse of a plan or expression
// constructor: an empty Project list, a negative Limit count, and
// similar caller mistakes that do not depend on a schema.
type ValueError struct {
	At  fmt.Stringer
	Msg string
}

func (e *ValueError) Error() string {
	if e.At != nil {
		return fmt.Sprintf("%s: %s", e.At, e.Msg)
	}
	return e.Msg
}

func errValue(at fmt.Stringer, format string, args ...any) *ValueError {
	return &ValueError{At: at, Msg: fmt.Sprintf(format, args...)}
}

// SchemaMismatch reports that WithNewChildren (or a plan constructor)
// rejected a rebuild because the proposed children's schemas are
// incompatible with the operator's invariants.
type SchemaMismatch struct {
	At  fmt.Stringer
	Msg string
}

func (e *SchemaMismatch) Error() string {
	if e.At != nil {
		return fmt.Sprintf("%s: schema mismatch: %s", e.At, e.Msg)
	}
	return fmt.Sprintf("schema mismatch: %s", e.Msg)
}

func errSchema(at fmt.Stringer, format string, args ...any) *SchemaMismatch {
	return &SchemaMismatch{At: at, Msg: fmt.Sprintf(format, args...)}
}

// TypeError reports that a rewrite would produce an ill-typed
// expression (for example, inlining a computed expression into a
// position where its output type cannot satisfy the consumer).
type TypeError struct {
	At  fmt.Stringer
	Msg string
}

func (e *TypeError) Error() string {
	if e.At != nil {
		return fmt.Sprintf("%q is ill-typed: %s", e.At, e.Msg)
	}
	return e.Msg
}

func errType(at fmt.Stringer, format string, args ...any) *TypeError {
	return &TypeError{At: at, Msg: fmt.Sprintf(format, args...)}
}

// FatalError marks a condition that should be unreachable if earlier
// passes did their job: a PlaceHolder source reached by the optimizer,
// a Union/SubqueryAlias surviving into this rule, or a Sink found
// under a Project. These are bugs in the caller, not user errors.
type FatalError struct {
	At  fmt.Stringer
	Msg string
}

func (e *FatalError) Error() string {
	if e.At != nil {
		return fmt.Sprintf("fatal: %s: %s", e.At, e.Msg)
	}
	return fmt.Sprintf("fatal: %s", e.Msg)
}

func errFatal(at fmt.Stringer, format string, args ...any) *FatalError {
	return &FatalError{At: at, Msg: fmt.Sprintf(format, args...)}
}

// NewFatalError is errFatal exported for the optimize package, which
// needs to raise the same "this should be unreachable" condition from
// outside this package's own rewrite code.
func NewFatalError(at fmt.Stringer, msg string) *FatalError {
	return errFatal(at, "%s", msg)
}
