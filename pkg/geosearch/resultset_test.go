package geosearch

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/indicator-cli/pkg/tabular"
)

func indicator(name string, values ...tabular.Record) ResolvedIndicator {
	return ResolvedIndicator{
		IndicatorMetadata: IndicatorMetadata{SourceName: "abs", IndicatorName: name, UOM: "pct"},
		Responses:         values,
	}
}

func TestResultSet_InsertionOrder(t *testing.T) {
	t.Parallel()

	rs := NewResultSet()
	rs.Set("b", indicator("b"))
	rs.Set("a", indicator("a"))
	rs.Set("c", indicator("c"))

	assert.Equal(t, []string{"b", "a", "c"}, rs.Keys())
	assert.Equal(t, 3, rs.Len())

	var seen []string
	for k := range rs.All() {
		seen = append(seen, k)
	}
	assert.Equal(t, []string{"b", "a", "c"}, seen)
}

func TestResultSet_OverwriteKeepsPosition(t *testing.T) {
	t.Parallel()

	rs := NewResultSet()
	rs.Set("x", indicator("first"))
	rs.Set("y", indicator("other"))
	rs.Set("x", indicator("second"))

	assert.Equal(t, []string{"x", "y"}, rs.Keys())
	got, ok := rs.Get("x")
	require.True(t, ok)
	assert.Equal(t, "second", got.IndicatorName)
}

func TestResultSet_ZeroValue(t *testing.T) {
	t.Parallel()

	var rs ResultSet
	rs.Set("k", indicator("k"))
	assert.Equal(t, 1, rs.Len())

	_, ok := rs.Get("missing")
	assert.False(t, ok)
}

func TestResultSet_MarshalJSON(t *testing.T) {
	t.Parallel()

	rs := NewResultSet()
	rs.Set("z key", indicator("z", tabular.Record{"actual_value": 1.5, "date": "2020"}))
	rs.Set("a key", indicator("a"))

	b, err := json.Marshal(rs)
	require.NoError(t, err)

	want := `{"z key":{"source_name":"abs","indicator_name":"z","uom":"pct","responses":[{"actual_value":1.5,"date":"2020"}]},` +
		`"a key":{"source_name":"abs","indicator_name":"a","uom":"pct","responses":null}}`
	assert.JSONEq(t, want, string(b))

	// Key order is preserved in the raw output.
	assert.Less(t, strings.Index(string(b), "z key"), strings.Index(string(b), "a key"))
}

func TestResultSet_MarshalYAML(t *testing.T) {
	t.Parallel()

	rs := NewResultSet()
	rs.Set("second", indicator("s"))
	rs.Set("first", indicator("f"))

	b, err := yaml.Marshal(rs)
	require.NoError(t, err)

	out := string(b)
	assert.Contains(t, out, "indicator_name: s")
	assert.Less(t, strings.Index(out, "second:"), strings.Index(out, "first:"))
}

func TestResultSet_Flatten(t *testing.T) {
	t.Parallel()

	rs := NewResultSet()
	rs.Set("Retail", indicator("turnover",
		tabular.Record{"actual_value": 1.0, "date": "2020", "model": "Actual"},
		tabular.Record{"actual_value": 2.0, "date": "2021"},
	))
	rs.Set("Office", indicator("vacancy", tabular.Record{"actual_value": 3.0, "date": "2020"}))

	rows := rs.Flatten(FolderField)

	require.Len(t, rows, 3)
	assert.Equal(t, tabular.Record{
		"actual_value":   1.0,
		"date":           "2020",
		"source_name":    "abs",
		"indicator_name": "turnover",
		"uom":            "pct",
		"folder_name":    "Retail",
	}, rows[0])
	assert.Equal(t, "Retail", rows[1]["folder_name"])
	assert.Equal(t, 2.0, rows[1]["actual_value"])
	assert.Equal(t, "Office", rows[2]["folder_name"])
	assert.Equal(t, "vacancy", rows[2]["indicator_name"])
}
