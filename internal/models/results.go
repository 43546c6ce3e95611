package models

import "encoding/json"

// SearchQuery is a single fuzzy search input row.
type SearchQuery struct {
	Query   string `json:"query"`   // Free-text place or business query.
	Context string `json:"context"` // Address the search is anchored to.
}

// SearchResultItem is the output of a single fuzzy search row.
type SearchResultItem struct {
	OriginalSearch SearchQuery     `json:"original_search"`
	FoundResults   json.RawMessage `json:"found_results"`
}

// GeocodeResultItem is the output of a single geocode loop row.
type GeocodeResultItem struct {
	OriginalAddress string          `json:"original_address"`
	APIResult       json.RawMessage `json:"api_result"`
}
