package models

import "encoding/json"

// Envelope is the wrapper every successful API response comes in as
// {"success": true, "data": ..., "pagination": ...}. Error responses may
// instead carry a top level message or a nested error message.
type Envelope struct {
	Success    bool            `json:"success"`
	Data       json.RawMessage `json:"data,omitempty"`
	Pagination *Pagination     `json:"pagination,omitempty"`
	Message    string          `json:"message,omitempty"`
	Error      *ErrorBody      `json:"error,omitempty"`
}

// ErrorBody holds the nested error shape some endpoints return
type ErrorBody struct {
	Message string `json:"message"`
}

// Pagination holds the optional paging block on list responses
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

// ErrorMessage returns the most specific error message present in the
// envelope, preferring the nested error over the top level message.
func (e Envelope) ErrorMessage() string {
	if e.Error != nil && e.Error.Message != "" {
		return e.Error.Message
	}
	return e.Message
}

// DecodeInto unmarshals the envelope data payload into v
func (e Envelope) DecodeInto(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// HealthCheckResponse holds the health check response body
type HealthCheckResponse struct {
	Alive bool `json:"alive"`
}
