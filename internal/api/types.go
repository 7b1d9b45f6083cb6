package api

import "reelsync/internal/selector"

// RunSummary describes one running pipeline.
type RunSummary struct {
	Name    string `json:"name"`
	Pending int    `json:"pending"`
}

// RunsResponse lists the running pipelines.
type RunsResponse struct {
	Runs []RunSummary `json:"runs"`
}

// SelectionsResponse lists the pending selections of a run.
type SelectionsResponse struct {
	Run     string             `json:"run"`
	Pending []selector.Request `json:"pending"`
}

// HealthResponse reports server liveness.
type HealthResponse struct {
	Status string `json:"status"`
	Runs   int    `json:"runs"`
}
