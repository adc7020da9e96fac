package httpapi

import (
	"github.com/kasuganosora/gridsource/pkg/resource/application"
	"github.com/kasuganosora/gridsource/pkg/resource/domain"
)

// RowsResponse is the body of a successful rows request
type RowsResponse struct {
	Rows     []domain.Row `json:"rows"`
	RowCount int64        `json:"rowCount"`
}

// DatasetsResponse lists the registered datasets
type DatasetsResponse struct {
	Datasets []application.Info `json:"datasets"`
}

// GenerateRequest asks a dataset to append generated rows
type GenerateRequest struct {
	Count int `json:"count"`
}

// GenerateResponse reports the rows written by a generate request
type GenerateResponse struct {
	Inserted int64 `json:"inserted"`
	RowCount int64 `json:"rowCount"`
}

// UpdateRowRequest sets one field of one row
type UpdateRowRequest struct {
	Field string      `json:"field"`
	Value interface{} `json:"value"`
}

// UpdateRowResponse carries the row as stored after the update
type UpdateRowResponse struct {
	Row domain.Row `json:"row"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      int    `json:"code"`
	RequestID string `json:"requestId,omitempty"`
}

// HealthResponse represents a health check response
type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Datasets int    `json:"datasets"`
}
