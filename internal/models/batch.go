package models

// BatchRequestItem is a single geocode sub-request inside a batch call.
// Query is a sub-path relative to the versioned batch endpoint, e.g. "/geocode/Kyiv.json?limit=1".
type BatchRequestItem struct {
	Query string `json:"query"`
}

// BatchPayload is the request body of a batch call.
type BatchPayload struct {
	BatchItems []BatchRequestItem `json:"batchItems"`
}

// Empty reports whether the payload carries no sub-requests.
func (p BatchPayload) Empty() bool {
	return len(p.BatchItems) == 0
}
