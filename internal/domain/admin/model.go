package admin

// Decision is the backend acknowledgement of an application review.
type Decision struct {
	Message string `json:"message"`
	UserID  string `json:"userId"`
}

// UserUsage is one row of the top-users table.
type UserUsage struct {
	UserID        string  `json:"user_id"`
	UserName      string  `json:"user_name"`
	TotalRequests int64   `json:"total_requests"`
	TotalCost     float64 `json:"total_cost"`
}

// PhaseUsage aggregates API usage of one phase over all time.
type PhaseUsage struct {
	Phase         int     `json:"phase"`
	TotalRequests int64   `json:"total_requests"`
	TotalCost     float64 `json:"total_cost"`
	TotalTokens   int64   `json:"total_tokens"`
}

// PhaseDaily aggregates today's usage of one phase.
type PhaseDaily struct {
	Phase    int     `json:"phase"`
	Requests int64   `json:"requests"`
	Cost     float64 `json:"cost"`
}

// CacheStats reports prompt cache effectiveness.
type CacheStats struct {
	TotalCachedRequests int64   `json:"total_cached_requests"`
	TotalCacheHitRate   float64 `json:"total_cache_hit_rate"`
	TodayCachedRequests int64   `json:"today_cached_requests"`
	TodayCacheHitRate   float64 `json:"today_cache_hit_rate"`
}

// APIStats is the platform-wide cost telemetry.
type APIStats struct {
	TotalRequests   int64        `json:"total_requests"`
	TotalCost       float64      `json:"total_cost"`
	TotalTokens     int64        `json:"total_tokens"`
	TodayRequests   int64        `json:"today_requests"`
	TodayCost       float64      `json:"today_cost"`
	TopUsers        []UserUsage  `json:"top_users"`
	PhaseStats      []PhaseUsage `json:"phase_stats"`
	TodayPhaseStats []PhaseDaily `json:"today_phase_stats"`
	CacheStats      *CacheStats  `json:"cache_stats,omitempty"`
}
