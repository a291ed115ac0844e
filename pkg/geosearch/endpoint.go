package geosearch

import "strings"

const (
	pathGeosearch    = "ui_geosearch_query"
	pathSimpleLookup = "ui_data_simple_query"
	pathDataScience  = "datascience/"
)

type endpointKind int

const (
	kindGeosearch endpointKind = iota
	kindSimpleLookup
	kindDataScience
)

// Endpoint identifies one of the remote service's query endpoints. The zero
// value is the geosearch endpoint.
type Endpoint struct {
	kind endpointKind
	name string
}

// Geosearch is the radius / national search endpoint.
func Geosearch() Endpoint { return Endpoint{kind: kindGeosearch} }

// SimpleLookup resolves a search key into its actual values.
func SimpleLookup() Endpoint { return Endpoint{kind: kindSimpleLookup} }

// DataScience addresses a named datascience endpoint.
func DataScience(name string) Endpoint { return Endpoint{kind: kindDataScience, name: name} }

// ResolveEndpoint maps the legacy flag pair onto an Endpoint. A non-empty ds
// always wins over simple.
func ResolveEndpoint(simple bool, ds string) Endpoint {
	switch {
	case ds != "":
		return DataScience(ds)
	case simple:
		return SimpleLookup()
	default:
		return Geosearch()
	}
}

// Path returns the endpoint's path relative to the service root.
func (e Endpoint) Path() string {
	switch e.kind {
	case kindDataScience:
		return pathDataScience + e.name
	case kindSimpleLookup:
		return pathSimpleLookup
	default:
		return pathGeosearch
	}
}

func (e Endpoint) String() string { return e.Path() }

// Settings is the resolved (base URL, port, path) triple for one endpoint.
type Settings struct {
	BaseURL string
	Port    string
	Path    string
}

// URL renders the full request URL. The port is omitted when empty.
func (s Settings) URL() string {
	base := strings.TrimRight(s.BaseURL, "/")
	if s.Port != "" {
		base += ":" + s.Port
	}
	return base + "/" + strings.TrimLeft(s.Path, "/")
}
