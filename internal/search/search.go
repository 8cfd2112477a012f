package search

// ResultType identifies the kind of entity in a search result.
type ResultType string

const (
	ResultAsset ResultType = "asset"
	ResultEntry ResultType = "entry"
)

// Result is a single search hit returned to the caller.
type Result struct {
	Type       ResultType `json:"type"`
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Snippet    string     `json:"snippet"`
	StageID    string     `json:"stageId,omitempty"`
	CategoryID string     `json:"categoryId,omitempty"`
}

// Query describes a search request.
type Query struct {
	Text       string
	FilterType ResultType // empty = all types
	Limit      int
	Offset     int
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

// AssetRecord is the data we index for a library asset.
type AssetRecord struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	CategoryID string `json:"categoryId"`
}

// EntryRecord is the data we index for a committed stat entry.
type EntryRecord struct {
	ID      string `json:"id"`
	Nick    string `json:"nick"`
	StageID string `json:"stageId"`
}
