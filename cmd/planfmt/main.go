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

// Command planfmt prints a logical plan before and after the column
// push-down rule runs, along with the resulting scan pushdown hints as
// YAML — a quick way to eyeball what the rule did to a given scan
// schema and projection list without wiring up a full query front end.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/sneller-io/columnar/logical"
	"github.com/sneller-io/columnar/logical/optimize"
)

func main() {
	schemaFlag := flag.String("schema", "a,b,c", "comma-separated scan column names")
	projectFlag := flag.String("project", "a", "comma-separated projected column names")
	flag.Parse()

	if err := run(*schemaFlag, *projectFlag, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(schemaSpec, projectSpec string, out *os.File) error {
	schema := logical.MustSchema(splitNonEmpty(schemaSpec)...)
	src := logical.NewSource(schema, logical.NewPhysicalSource(logical.Pushdowns{}))

	projected := splitNonEmpty(projectSpec)
	plan, err := logical.NewProject(src, logical.ColumnRefs(projected))
	if err != nil {
		return fmt.Errorf("building plan: %w", err)
	}

	fmt.Fprintf(out, "before:\n  %s\n", describe(plan))

	result, err := optimize.TryOptimize(plan)
	if err != nil {
		return fmt.Errorf("optimizing: %w", err)
	}
	fmt.Fprintf(out, "after (changed=%v):\n  %s\n", result.Changed, describe(result.Data))

	phys, pushdowns, ok := findPhysicalPushdowns(result.Data)
	if !ok {
		return nil
	}
	raw, err := pushdowns.MarshalYAML()
	if err != nil {
		return fmt.Errorf("marshaling pushdowns: %w", err)
	}
	fmt.Fprintf(out, "scan %s pushdowns:\n%s", phys.ScanID, indent(string(raw)))
	return nil
}

// describe walks p's single-input chain (the only shape this demo
// ever produces) and joins each node's String() with " <- ".
func describe(p logical.Plan) string {
	var parts []string
	for {
		parts = append(parts, p.String())
		children := p.Children()
		if len(children) != 1 {
			break
		}
		p = children[0]
	}
	return strings.Join(parts, " <- ")
}

func findPhysicalPushdowns(p logical.Plan) (logical.PhysicalSource, logical.Pushdowns, bool) {
	for {
		if src, ok := p.(*logical.Source); ok {
			if phys, ok := src.Info.(logical.PhysicalSource); ok {
				return phys, phys.Pushdowns, true
			}
			return logical.PhysicalSource{}, logical.Pushdowns{}, false
		}
		children := p.Children()
		if len(children) != 1 {
			return logical.PhysicalSource{}, logical.Pushdowns{}, false
		}
		p = children[0]
	}
}

func splitNonEmpty(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func indent(s string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, l := range lines {
		lines[i] = "  " + l
	}
	return strings.Join(lines, "\n") + "\n"
}
