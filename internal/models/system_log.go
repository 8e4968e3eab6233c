package models

import "time"

// SystemLog stores structured error logs in the document store.
type SystemLog struct {
	ID        string                 `json:"id"`
	Timestamp time.Time              `json:"timestamp"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	TraceID   string                 `json:"trace_id,omitempty"`
	UserID    *string                `json:"user_id,omitempty"`
	Action    string                 `json:"action,omitempty"`
	Error     string                 `json:"error,omitempty"`
	Extra     map[string]interface{} `json:"extra,omitempty"`
}
