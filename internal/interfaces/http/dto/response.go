// Package dto holds the request and response shapes of the admin API.
package dto

// Response is the envelope of every admin API response
type Response struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
}

// ErrorInfo describes a failed request
type ErrorInfo struct {
	Code      string             `json:"code"`
	Message   string             `json:"message"`
	RequestID string             `json:"request_id,omitempty"`
	TraceID   string             `json:"trace_id,omitempty"`
	Details   []ValidationDetail `json:"details,omitempty"`
}

// ValidationDetail names one invalid field
type ValidationDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// NewSuccessResponse creates a success response
func NewSuccessResponse(data any) Response {
	return Response{Success: true, Data: data}
}

// NewErrorResponse creates an error response
func NewErrorResponse(code, message string) Response {
	return Response{
		Success: false,
		Error:   &ErrorInfo{Code: code, Message: message},
	}
}

// WithCorrelation attaches the request and trace ids to an error response
func (r Response) WithCorrelation(requestID, traceID string) Response {
	if r.Error != nil {
		info := *r.Error
		info.RequestID = requestID
		info.TraceID = traceID
		r.Error = &info
	}
	return r
}

// NewValidationErrorResponse creates a 400 body listing invalid fields
func NewValidationErrorResponse(message string, details []ValidationDetail) Response {
	resp := NewErrorResponse(ErrCodeValidation, message)
	resp.Error.Details = details
	return resp
}
