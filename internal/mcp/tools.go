package mcp

// Tool names.
const (
	ToolSearch = "rfc_search"
	ToolShow   = "rfc_show"
	ToolStatus = "rfc_status"
)

// SearchInput is the input of rfc_search.
type SearchInput struct {
	Terms []string `json:"terms" jsonschema:"keywords that must all appear, e.g. [\"tls\", \"handshake\"]"`
	Body  bool     `json:"body,omitempty" jsonschema:"also match document bodies, not only titles"`
	Limit int      `json:"limit,omitempty" jsonschema:"maximum number of results, default 20"`
}

// SearchOutput is the output of rfc_search.
type SearchOutput struct {
	Results []SearchResult `json:"results" jsonschema:"matching RFCs, best first"`
}

// SearchResult is one rfc_search hit.
type SearchResult struct {
	Number     int     `json:"number" jsonschema:"RFC number"`
	Title      string  `json:"title" jsonschema:"title and authors from the RFC index"`
	Published  string  `json:"published,omitempty" jsonschema:"publication month, e.g. September 1981"`
	Status     string  `json:"status,omitempty" jsonschema:"publication status, e.g. INTERNET STANDARD"`
	Score      float64 `json:"score" jsonschema:"relevance score"`
	Field      string  `json:"field" jsonschema:"where the terms matched: title or content"`
	Downloaded bool    `json:"downloaded" jsonschema:"true if the document text is available to rfc_show"`
}

// ShowInput is the input of rfc_show.
type ShowInput struct {
	Number int `json:"number" jsonschema:"RFC number, e.g. 793"`
}

// ShowOutput is the output of rfc_show. The document text is returned as
// text content.
type ShowOutput struct {
	Number    int               `json:"number"`
	Title     string            `json:"title"`
	Published string            `json:"published,omitempty"`
	Flags     map[string]string `json:"flags,omitempty"`
	Bytes     int               `json:"bytes"`
}

// StatusInput is the input of rfc_status (no parameters).
type StatusInput struct{}

// StatusOutput is the output of rfc_status.
type StatusOutput struct {
	CacheDir   string `json:"cache_dir"`
	Backend    string `json:"backend"`
	Known      int    `json:"known"`
	Downloaded int    `json:"downloaded"`
	Searchable int    `json:"searchable"`
	Latest     int    `json:"latest"`
	LastSync   string `json:"last_sync,omitempty"`
}
