package handlers

import "github.com/abrezinsky/jeopardy/internal/services"

// CacheStatsResponse is the response for the admin cache endpoint
type CacheStatsResponse struct {
	*services.CacheStats
	SourceURL string `json:"source_url,omitempty"`
}

// CacheClearResponse reports how many stored categories were removed
type CacheClearResponse struct {
	Removed int64 `json:"removed"`
}
