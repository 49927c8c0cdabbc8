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

import "testing"

func TestPushdownsYAMLRoundTrip(t *testing.T) {
	limit := int64(10)
	p := Pushdowns{
		Columns:          []string{"a", "b"},
		PartitionFilters: []string{"region = 'us'"},
		Limit:            &limit,
		Sharder:          "hash(a)",
	}
	raw, err := p.MarshalYAML()
	if err != nil {
		t.Fatal(err)
	}
	got, err := UnmarshalPushdownsYAML(raw)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Columns) != 2 || got.Columns[0] != "a" || got.Columns[1] != "b" {
		t.Fatalf("Columns didn't round-trip: %v", got.Columns)
	}
	if got.Sharder != p.Sharder {
		t.Fatalf("Sharder didn't round-trip: %q", got.Sharder)
	}
	if got.Limit == nil || *got.Limit != limit {
		t.Fatalf("Limit didn't round-trip: %v", got.Limit)
	}
}

func TestColumnStatsRoundTripAndPrune(t *testing.T) {
	packed, err := PackColumnStats([]ColumnStat{
		{Column: "a", Min: "0", Max: "100"},
		{Column: "b", Min: "x", Max: "z"},
	})
	if err != nil {
		t.Fatal(err)
	}
	p := Pushdowns{Columns: []string{"a"}, CompressedStats: packed}

	stats, err := p.ColumnStats()
	if err != nil {
		t.Fatal(err)
	}
	if len(stats) != 1 || stats[0].Column != "a" {
		t.Fatalf("expected stats pruned to just column a, got %v", stats)
	}
	if stats[0].Min != "0" || stats[0].Max != "100" {
		t.Fatalf("expected Min/Max to survive the zstd/yaml round trip distinctly, got min=%q max=%q", stats[0].Min, stats[0].Max)
	}
}

func TestWithPrunedColumnStatsDropsUnreferencedColumns(t *testing.T) {
	packed, err := PackColumnStats([]ColumnStat{
		{Column: "a", Min: "0", Max: "9"},
		{Column: "b", Min: "0", Max: "9"},
	})
	if err != nil {
		t.Fatal(err)
	}
	p := Pushdowns{Columns: []string{"a", "b"}, CompressedStats: packed}
	p.Columns = []string{"a"}

	pruned, err := p.WithPrunedColumnStats()
	if err != nil {
		t.Fatal(err)
	}
	stats, err := pruned.ColumnStats()
	if err != nil {
		t.Fatal(err)
	}
	if len(stats) != 1 || stats[0].Column != "a" {
		t.Fatalf("expected only column a's stats to survive, got %v", stats)
	}
}

func TestPhysicalSourceStampsUniqueScanIDs(t *testing.T) {
	a := NewPhysicalSource(Pushdowns{})
	b := NewPhysicalSource(Pushdowns{})
	if a.ScanID == b.ScanID {
		t.Fatal("expected distinct scan handles for distinct physical sources")
	}
}
