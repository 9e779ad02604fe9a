package printify

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/nikolayk812/podstore/internal/domain"
)

// Category groups provider failures by what the caller may do about them.
type Category string

const (
	CategoryAuth       Category = "auth"
	CategoryRateLimit  Category = "rate_limit"
	CategoryValidation Category = "validation"
	CategoryNotFound   Category = "not_found"
	CategoryServer     Category = "server"
	CategoryNetwork    Category = "network"
)

// codeOrderProcessing is returned with a 400 when an order cannot be processed.
const codeOrderProcessing = 8502

type APIError struct {
	Status   int
	Category Category
	Code     int
	Message  string
	Err      error
}

func (e *APIError) Error() string {
	var b strings.Builder
	b.WriteString("printify: ")
	b.WriteString(string(e.Category))
	if e.Status > 0 {
		fmt.Fprintf(&b, " (HTTP %d)", e.Status)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *APIError) Unwrap() error {
	return e.Err
}

func (e *APIError) Is(target error) bool {
	return target == domain.ErrNotFound && e.Category == CategoryNotFound
}

// Retryable reports whether a bounded retry may help. Client errors and rate
// limiting are never retried.
func (e *APIError) Retryable() bool {
	return e.Category == CategoryServer || e.Category == CategoryNetwork
}

// AsAPIError unwraps err to a provider error.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

type errorBody struct {
	Message string          `json:"message"`
	Code    int             `json:"code"`
	Errors  json.RawMessage `json:"errors"`
}

func (b errorBody) reason() string {
	if len(b.Errors) == 0 {
		return ""
	}
	var obj struct {
		Reason string `json:"reason"`
	}
	if err := json.Unmarshal(b.Errors, &obj); err == nil {
		return obj.Reason
	}
	return ""
}

func newStatusError(status int, body []byte) *APIError {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		eb.Message = strings.TrimSpace(string(body))
	}

	e := &APIError{Status: status, Code: eb.Code}

	switch {
	case status == http.StatusBadRequest && eb.Code == codeOrderProcessing:
		e.Category = CategoryValidation
		e.Message = "order processing error: " + firstNonEmpty(eb.reason(), eb.Message)
	case status == http.StatusBadRequest:
		e.Category = CategoryValidation
		e.Message = "bad request: " + firstNonEmpty(eb.Message, "request could not be parsed")
	case status == http.StatusUnprocessableEntity:
		e.Category = CategoryValidation
		e.Message = "validation error: " + firstNonEmpty(eb.Message, "invalid data provided")
	case status == http.StatusUnauthorized:
		e.Category = CategoryAuth
		e.Message = "unauthorized: invalid API token"
	case status == http.StatusForbidden:
		e.Category = CategoryAuth
		e.Message = "forbidden: insufficient permissions"
	case status == http.StatusNotFound:
		e.Category = CategoryNotFound
		e.Message = "requested resource does not exist"
	case status == http.StatusTooManyRequests:
		e.Category = CategoryRateLimit
		e.Message = "too many requests"
	case status >= 500:
		e.Category = CategoryServer
		e.Message = firstNonEmpty(eb.Message, http.StatusText(status))
	default:
		e.Category = CategoryValidation
		e.Message = firstNonEmpty(eb.Message, http.StatusText(status))
	}

	return e
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
