package geosearch

import (
	"bytes"
	"encoding/json"
	"iter"
	"slices"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/indicator-cli/pkg/tabular"
)

// ValueFields are the per-observation fields kept when flattening.
var ValueFields = []string{"actual_value", "date"}

const responsesField = "responses"

// ResolvedIndicator is an indicator's metadata plus its actual values.
type ResolvedIndicator struct {
	IndicatorMetadata `yaml:",inline"`
	Responses         []tabular.Record `json:"responses" yaml:"responses"`
}

// Record returns the indicator as a single nested record, the shape
// tabular.Unnest expects.
func (r ResolvedIndicator) Record() tabular.Record {
	return tabular.Record{
		"source_name":    r.SourceName,
		"indicator_name": r.IndicatorName,
		"uom":            r.UOM,
		responsesField:   r.Responses,
	}
}

// Rows unnests the indicator's actual values, one row per observation.
func (r ResolvedIndicator) Rows() []tabular.Record {
	return tabular.UnnestAll(r.Record(), ValueFields, responsesField, tabular.AllOuter())
}

// ResultSet maps a key (search key or tag) to its resolved indicator and
// remembers insertion order. Setting an existing key replaces its value in
// place.
type ResultSet struct {
	keys    []string
	entries map[string]ResolvedIndicator
}

// NewResultSet returns an empty result set.
func NewResultSet() *ResultSet {
	return &ResultSet{entries: make(map[string]ResolvedIndicator)}
}

// Set stores v under key.
func (rs *ResultSet) Set(key string, v ResolvedIndicator) {
	if rs.entries == nil {
		rs.entries = make(map[string]ResolvedIndicator)
	}
	if _, ok := rs.entries[key]; !ok {
		rs.keys = append(rs.keys, key)
	}
	rs.entries[key] = v
}

// Get returns the indicator stored under key.
func (rs *ResultSet) Get(key string) (ResolvedIndicator, bool) {
	v, ok := rs.entries[key]
	return v, ok
}

// Keys returns the keys in insertion order.
func (rs *ResultSet) Keys() []string { return slices.Clone(rs.keys) }

// Len returns the number of entries.
func (rs *ResultSet) Len() int { return len(rs.keys) }

// All iterates entries in insertion order.
func (rs *ResultSet) All() iter.Seq2[string, ResolvedIndicator] {
	return func(yield func(string, ResolvedIndicator) bool) {
		for _, k := range rs.keys {
			if !yield(k, rs.entries[k]) {
				return
			}
		}
	}
}

// Flatten unnests every entry and tags each row with its key under keyField.
func (rs *ResultSet) Flatten(keyField string) []tabular.Record {
	groups := make([]tabular.Group, 0, rs.Len())
	for k, v := range rs.All() {
		groups = append(groups, tabular.Group{Key: k, Records: v.Rows()})
	}
	return tabular.Rekey(groups, keyField)
}

// MarshalJSON encodes the set as a JSON object in insertion order.
func (rs *ResultSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range rs.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, eris.Wrap(err, "geosearch: marshal result key")
		}
		vb, err := json.Marshal(rs.entries[k])
		if err != nil {
			return nil, eris.Wrapf(err, "geosearch: marshal result %s", k)
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalYAML encodes the set as a YAML mapping in insertion order.
func (rs *ResultSet) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for k, v := range rs.All() {
		var val yaml.Node
		if err := val.Encode(v); err != nil {
			return nil, eris.Wrapf(err, "geosearch: encode result %s", k)
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k},
			&val,
		)
	}
	return node, nil
}
