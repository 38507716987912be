package audit

// Event describes one remote call made by the metrics client.
type Event struct {
	Operation  string `json:"op"`
	Method     string `json:"method"`
	URL        string `json:"url"`
	RequestID  string `json:"request_id"`
	Kind       string `json:"kind,omitempty"`
	Error      string `json:"error,omitempty"`
	Timestamp  int64  `json:"ts"`
	DurationMs int64  `json:"duration_ms"`
	Status     int    `json:"status,omitempty"`
	Attempts   int    `json:"attempts"`
}
