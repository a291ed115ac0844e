package geosearch

import "fmt"

// ValidationError reports a rejected query argument. It is returned before any
// request is sent.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("geosearch: invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// Decode stages reported by DecodeError.
const (
	// StageAsset is the datascience asset lookup, outside the two-stage search.
	StageAsset = iota
	// StageSearch is the geosearch call returning search keys.
	StageSearch
	// StageResolve is the simple-lookup call resolving one search key.
	StageResolve
)

// DecodeError reports a response body that could not be parsed or lacked the
// expected shape.
type DecodeError struct {
	Stage    int
	Endpoint string
	Body     string
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("geosearch: stage %d decode %s: %v", e.Stage, e.Endpoint, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// KeyParseError reports a search key with too few tokens to carry metadata.
type KeyParseError struct {
	Key    string
	Tokens int
}

func (e *KeyParseError) Error() string {
	return fmt.Sprintf("geosearch: search key %q has %d tokens, need at least %d", e.Key, e.Tokens, minKeyTokens)
}

// StatusError reports a non-2xx response.
type StatusError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("geosearch: %s returned status %d: %s", e.Endpoint, e.StatusCode, e.Body)
}
