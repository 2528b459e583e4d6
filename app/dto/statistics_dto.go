package dto

// CallsSummaryResponse aggregates all finished calls
type CallsSummaryResponse struct {
	TotalCalls           int64   `json:"total_calls"`
	AnsweredCalls        int64   `json:"answered_calls"`
	AvgDurationSeconds   float64 `json:"avg_duration_seconds"`
	TotalDurationSeconds int64   `json:"total_duration_seconds"`
}

// OperatorStatsItem aggregates finished calls for one operator
type OperatorStatsItem struct {
	OperatorName           string  `json:"operator_name"`
	CallCount              int64   `json:"call_count"`
	AvgCallDurationSeconds float64 `json:"avg_call_duration_seconds"`
}
