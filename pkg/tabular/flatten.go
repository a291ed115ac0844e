// Package tabular reshapes nested indicator payloads into flat records for
// tabular analysis.
package tabular

import (
	"iter"
	"maps"
	"slices"
)

// Record is a single row keyed by column name.
type Record map[string]any

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	if r == nil {
		return Record{}
	}
	return maps.Clone(r)
}

// OuterPolicy selects which outer fields are merged into each unnested row.
type OuterPolicy struct {
	all    bool
	fields []string
}

// AllOuter keeps every outer field except the nested container itself.
func AllOuter() OuterPolicy {
	return OuterPolicy{all: true}
}

// OnlyOuter keeps only the listed outer fields. Fields absent from the outer
// record are skipped.
func OnlyOuter(fields ...string) OuterPolicy {
	return OuterPolicy{fields: slices.Clone(fields)}
}

func (p OuterPolicy) apply(dst, src Record, container string) {
	if p.all {
		for k, v := range src {
			if k == container {
				continue
			}
			dst[k] = v
		}
		return
	}
	for _, k := range p.fields {
		if k == container {
			continue
		}
		if v, ok := src[k]; ok {
			dst[k] = v
		}
	}
}

// Unnest yields one row per element of record[container]. Each row carries
// nestedFields taken from the element plus the outer fields chosen by policy.
// Nested values win when a name appears on both sides. A nested field missing
// from an element is emitted as nil so rows stay rectangular.
//
// The sequence is lazy and never mutates record.
func Unnest(record Record, nestedFields []string, container string, policy OuterPolicy) iter.Seq[Record] {
	return func(yield func(Record) bool) {
		for _, item := range nestedItems(record[container]) {
			row := make(Record, len(record)+len(nestedFields))
			policy.apply(row, record, container)
			for _, f := range nestedFields {
				row[f] = item[f]
			}
			if !yield(row) {
				return
			}
		}
	}
}

// UnnestAll collects Unnest into a slice.
func UnnestAll(record Record, nestedFields []string, container string, policy OuterPolicy) []Record {
	return slices.Collect(Unnest(record, nestedFields, container, policy))
}

// nestedItems normalizes the shapes a decoded container can take.
func nestedItems(v any) []map[string]any {
	switch items := v.(type) {
	case []Record:
		out := make([]map[string]any, 0, len(items))
		for _, it := range items {
			out = append(out, it)
		}
		return out
	case []map[string]any:
		return items
	case []any:
		out := make([]map[string]any, 0, len(items))
		for _, it := range items {
			switch m := it.(type) {
			case map[string]any:
				out = append(out, m)
			case Record:
				out = append(out, m)
			}
		}
		return out
	default:
		return nil
	}
}

// Group is one keyed bucket of records. A slice of groups keeps the outer
// ordering explicit, which a Go map cannot.
type Group struct {
	Key     string
	Records []Record
}

// Rekey flattens groups into one slice, outer order first then inner order,
// tagging every row with keyField set to its group key. Rows are copies; the
// input groups are left untouched.
func Rekey(groups []Group, keyField string) []Record {
	n := 0
	for _, g := range groups {
		n += len(g.Records)
	}

	out := make([]Record, 0, n)
	for _, g := range groups {
		for _, rec := range g.Records {
			row := rec.Clone()
			row[keyField] = g.Key
			out = append(out, row)
		}
	}
	return out
}

// Columns returns the union of record keys in first-seen order. Keys new to a
// given record are appended in sorted order so the result is deterministic.
func Columns(records []Record) []string {
	seen := make(map[string]bool)
	var cols []string
	for _, rec := range records {
		var fresh []string
		for k := range rec {
			if !seen[k] {
				seen[k] = true
				fresh = append(fresh, k)
			}
		}
		slices.Sort(fresh)
		cols = append(cols, fresh...)
	}
	return cols
}
