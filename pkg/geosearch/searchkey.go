package geosearch

import "strings"

// minKeyTokens is the number of trailing tokens ParseSearchKey reads.
const minKeyTokens = 4

// IndicatorMetadata is the identity encoded positionally in a search key.
type IndicatorMetadata struct {
	SourceName    string `json:"source_name" yaml:"source_name"`
	IndicatorName string `json:"indicator_name" yaml:"indicator_name"`
	UOM           string `json:"uom" yaml:"uom"`
}

// ParseSearchKey extracts indicator metadata from a search key. The key is
// split on single spaces after "ann %" is collapsed to "ann%", and the 4th,
// 3rd and 2nd tokens from the end become source, indicator and unit.
func ParseSearchKey(key string) (IndicatorMetadata, error) {
	tokens := strings.Split(strings.ReplaceAll(key, "ann %", "ann%"), " ")
	n := len(tokens)
	if n < minKeyTokens {
		return IndicatorMetadata{}, &KeyParseError{Key: key, Tokens: n}
	}
	return IndicatorMetadata{
		SourceName:    tokens[n-4],
		IndicatorName: tokens[n-3],
		UOM:           tokens[n-2],
	}, nil
}
