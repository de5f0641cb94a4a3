package docsign

import "github.com/go-openapi/swag"

// Result is the envelope every exposed operation returns to its transport:
// a success flag plus either data or a failure message, never a raw fault.
type Result struct {
	OK    *bool       `json:"ok"`
	Data  interface{} `json:"data,omitempty"`
	Error *string     `json:"error,omitempty"`
}

func OKResult(data interface{}) *Result {
	return &Result{OK: swag.Bool(true), Data: data}
}

func ErrResult(err error) *Result {
	return &Result{OK: swag.Bool(false), Error: swag.String(err.Error())}
}
