package httpapi

import (
	"errors"
	"log"
	"net/http"

	"github.com/nikolayk812/podstore/internal/domain"
	"github.com/nikolayk812/podstore/internal/printify"
)

// writeErr renders err with the status its kind maps to. Server-side failures
// are logged; the client sees only the classified message.
func writeErr(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		log.Printf("[http] %s %s status=%d err=%v", r.Method, r.URL.Path, status, err)
	}
	writeJSON(w, status, errorBody(err, status))
}

func statusOf(err error) int {
	if errors.Is(err, domain.ErrPaymentIncomplete) {
		return http.StatusPaymentRequired
	}

	switch domain.KindOf(err) {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindConflict:
		return http.StatusConflict
	case domain.KindReconciliation:
		return http.StatusAccepted
	case domain.KindUpstream:
		return upstreamStatus(err)
	default:
		return http.StatusInternalServerError
	}
}

func upstreamStatus(err error) int {
	apiErr, ok := printify.AsAPIError(err)
	if !ok {
		return http.StatusBadGateway
	}

	switch apiErr.Category {
	case printify.CategoryRateLimit:
		return http.StatusTooManyRequests
	case printify.CategoryValidation:
		return http.StatusUnprocessableEntity
	case printify.CategoryNotFound:
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}

func errorBody(err error, status int) ErrorResponse {
	if errors.Is(err, domain.ErrPaymentIncomplete) {
		return ErrorResponse{Message: "Payment has not completed yet."}
	}

	var de *domain.Error
	if !errors.As(err, &de) {
		return ErrorResponse{Message: http.StatusText(status)}
	}

	body := ErrorResponse{Message: de.Msg, Field: de.Field, Line: de.Line}
	if apiErr, ok := printify.AsAPIError(err); ok && apiErr.Message != "" && status < http.StatusInternalServerError {
		body.Message = apiErr.Message
	}
	if body.Message == "" {
		body.Message = http.StatusText(status)
	}
	return body
}
