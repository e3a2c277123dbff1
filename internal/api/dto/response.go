package dto

import (
	"sort"

	"github.com/spec-kit/complaint-service/internal/service"
)

// FieldError is one entry of a validation error list.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Envelope is the uniform response shape for every endpoint.
type Envelope struct {
	Success    bool              `json:"success"`
	Message    string            `json:"message,omitempty"`
	Data       any               `json:"data,omitempty"`
	Errors     []FieldError      `json:"errors,omitempty"`
	Pagination *service.PageInfo `json:"pagination,omitempty"`
}

// OK wraps data in a success envelope.
func OK(data any) Envelope {
	return Envelope{Success: true, Data: data}
}

// OKMessage wraps data and a message in a success envelope.
func OKMessage(message string, data any) Envelope {
	return Envelope{Success: true, Message: message, Data: data}
}

// OKPage wraps a list page with its pagination metadata.
func OKPage(data any, info service.PageInfo) Envelope {
	return Envelope{Success: true, Data: data, Pagination: &info}
}

// Fail builds an error envelope; details become a sorted field error list.
func Fail(message string, details map[string]any) Envelope {
	env := Envelope{Success: false, Message: message}
	if len(details) == 0 {
		return env
	}
	fields := make([]string, 0, len(details))
	for field := range details {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		msg, _ := details[field].(string)
		env.Errors = append(env.Errors, FieldError{Field: field, Message: msg})
	}
	return env
}
