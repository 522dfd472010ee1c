package report

type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

type TypeCount struct {
	LeaveType string `json:"leave_type"`
	Count     int64  `json:"count"`
}

type DashboardResponse struct {
	TotalUsers      int64         `json:"total_users"`
	ActiveUsers     int64         `json:"active_users"`
	TotalRequests   int64         `json:"total_requests"`
	PendingRequests int64         `json:"pending_requests"`
	ByStatus        []StatusCount `json:"by_status"`
	ByType          []TypeCount   `json:"by_type"`
	GeneratedAt     string        `json:"generated_at"`
}
