// internal/workers/generation/record-batch/models.go
package recordbatch

import "time"

type Input struct {
	StyleID    string `json:"styleId"`
	ClientKey  string `json:"clientKey"`
	Demo       bool   `json:"demo"`
	Status     string `json:"status"`
	ImageCount int    `json:"imageCount"`
	ErrorCode  string `json:"errorCode,omitempty"`
	DurationMS int64  `json:"durationMs"`
}

type Output struct {
	BatchID   string    `json:"batchId"`
	CreatedAt time.Time `json:"createdAt"`
}
