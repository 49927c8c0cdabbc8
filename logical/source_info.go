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

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"sigs.k8s.io/yaml"
)

// Pushdowns is the scan-facing hint bag a Source carries: what the
// optimizer (and any later physical planner) has determined the scan
// itself can do on the engine's behalf. The push-down rule only ever
// populates Columns, and only in schema order.
type Pushdowns struct {
	Columns          []string `json:"columns,omitempty"`
	PartitionFilters []string `json:"partitionFilters,omitempty"`
	PredicateFilters []string `json:"predicateFilters,omitempty"`
	Limit            *int64   `json:"limit,omitempty"`
	Sharder          string   `json:"sharder,omitempty"`

	// CompressedStats is an optional zstd-packed blob of per-column
	// min/max statistics. It is decoded lazily by ColumnStats; column
	// pruning drops entries for columns no longer in Columns so a
	// pruned scan doesn't carry stats for columns it no longer reads.
	CompressedStats []byte `json:"compressedStats,omitempty"`
}

// MarshalYAML renders p as YAML, used by cmd/planfmt to golden-dump a
// scan's pushdown hints alongside its schema.
func (p Pushdowns) MarshalYAML() ([]byte, error) {
	return yaml.Marshal(p)
}

// UnmarshalPushdownsYAML parses a YAML-encoded Pushdowns value.
func UnmarshalPushdownsYAML(data []byte) (Pushdowns, error) {
	var p Pushdowns
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Pushdowns{}, err
	}
	return p, nil
}

// ColumnStat is one column's packed min/max summary.
type ColumnStat struct {
	Column string `json:"column"`
	Min    string `json:"min"`
	Max    string `json:"max"`
}

// PackColumnStats zstd-compresses stats for storage in
// Pushdowns.CompressedStats.
func PackColumnStats(stats []ColumnStat) ([]byte, error) {
	raw, err := yaml.Marshal(stats)
	if err != nil {
		return nil, err
	}
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	defer enc.Close()
	return enc.EncodeAll(raw, nil), nil
}

// ColumnStats decodes Pushdowns.CompressedStats, dropping any stat for
// a column no longer present in Columns (if Columns is non-nil).
func (p Pushdowns) ColumnStats() ([]ColumnStat, error) {
	if len(p.CompressedStats) == 0 {
		return nil, nil
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	raw, err := dec.DecodeAll(p.CompressedStats, nil)
	if err != nil {
		return nil, err
	}
	var stats []ColumnStat
	if err := yaml.Unmarshal(raw, &stats); err != nil {
		return nil, err
	}
	if p.Columns == nil {
		return stats, nil
	}
	keep := make(map[string]bool, len(p.Columns))
	for _, c := range p.Columns {
		keep[c] = true
	}
	out := stats[:0]
	for _, s := range stats {
		if keep[s.Column] {
			out = append(out, s)
		}
	}
	return out, nil
}

// WithPrunedColumnStats returns a copy of p with CompressedStats
// re-packed to drop columns no longer in Columns. Used by the
// optimizer (spec case (c)) after it narrows a scan's pushdown columns.
func (p Pushdowns) WithPrunedColumnStats() (Pushdowns, error) {
	stats, err := p.ColumnStats()
	if err != nil {
		return Pushdowns{}, err
	}
	if stats == nil {
		p.CompressedStats = nil
		return p, nil
	}
	packed, err := PackColumnStats(stats)
	if err != nil {
		return Pushdowns{}, err
	}
	p.CompressedStats = packed
	return p, nil
}

// SourceInfo is the sealed union of what a Source node scans: data
// already resident in memory, a physical scan with pushdowns, or a
// placeholder standing in for a not-yet-resolved source (reaching one
// during optimization is a fatal programmer error, per spec case (l)).
type SourceInfo interface {
	fmt.Stringer
	isSourceInfo()
}

// InMemorySource describes a source backed by data already materialized
// in the engine's partition cache.
type InMemorySource struct {
	CacheKey string
}

func (InMemorySource) isSourceInfo() {}
func (s InMemorySource) String() string { return fmt.Sprintf("InMemory(%s)", s.CacheKey) }

// PhysicalSource describes an external scan: a stable ScanID (so the
// planner can identify the same physical source across optimizer
// re-entries) and its Pushdowns.
type PhysicalSource struct {
	ScanID    uuid.UUID
	Pushdowns Pushdowns
}

func (PhysicalSource) isSourceInfo() {}
func (s PhysicalSource) String() string {
	return fmt.Sprintf("Physical(%s, columns=%v)", s.ScanID, s.Pushdowns.Columns)
}

// NewPhysicalSource stamps a fresh scan handle, the way the engine's
// partition keys are derived from stable identifiers rather than
// reused across unrelated scans.
func NewPhysicalSource(pushdowns Pushdowns) PhysicalSource {
	return PhysicalSource{ScanID: uuid.New(), Pushdowns: pushdowns}
}

// PlaceHolderSource stands in for a source not yet resolved by an
// earlier planning pass. The push-down rule panics with FatalError if
// it reaches one (spec §6.3, case (l)).
type PlaceHolderSource struct {
	SourceID int
}

func (PlaceHolderSource) isSourceInfo() {}
func (s PlaceHolderSource) String() string { return fmt.Sprintf("PlaceHolder(%d)", s.SourceID) }
