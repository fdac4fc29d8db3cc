package domain

// EndpointInfo describes how the API serves a resource type
type EndpointInfo struct {
	// Path relative to the API host, e.g. "v2/itemstats"
	Path    string
	Version string

	// Requests must carry the API key
	Authenticated bool
	// Responses depend on the requested language
	Localized bool
	// The bulk endpoint accepts ids=all
	SupportsAll bool
	// The endpoint accepts page and page_size
	Paged bool
}

// Endpoint is implemented by every resource type the client can fetch.
//
// Endpoint must return the same value for the zero value of the type, as the
// client calls it before any data is available.
type Endpoint interface {
	Endpoint() EndpointInfo
}

// IDEndpoint is a resource addressable by id, individually or in bulk
type IDEndpoint[I comparable] interface {
	Endpoint
	ResourceID() I
}

func SingleItemPath(info EndpointInfo, escapedID string) string {
	return info.Path + "/" + escapedID
}
