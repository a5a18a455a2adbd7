// Package problem writes RFC 7807 problem details and maps domain errors to
// HTTP statuses.
package problem

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	domainwinery "github.com/envino/wine-api/internal/domain/winery"
	"github.com/envino/wine-api/internal/logger"
)

const ContentType = "application/problem+json"

const (
	ValidationDetail = "One or more validation errors occurred"
	InternalTitle    = "Internal Server Error"
	InternalDetail   = "An error occurred while processing your request. Please try again"
)

// typeURIs are the RFC 9110 section links for the statuses this API returns.
var typeURIs = map[int]string{
	http.StatusBadRequest:          "https://tools.ietf.org/html/rfc9110#section-15.5.1",
	http.StatusNotFound:            "https://tools.ietf.org/html/rfc9110#section-15.5.5",
	http.StatusConflict:            "https://tools.ietf.org/html/rfc9110#section-15.5.10",
	http.StatusUnprocessableEntity: "https://tools.ietf.org/html/rfc9110#section-15.5.21",
	http.StatusInternalServerError: "https://tools.ietf.org/html/rfc9110#section-15.6.1",
}

// Details is the problem details body. Errors is only set for validation failures.
type Details struct {
	Type      string              `json:"type,omitempty"`
	Title     string              `json:"title,omitempty"`
	Status    int                 `json:"status"`
	Detail    string              `json:"detail,omitempty"`
	Instance  string              `json:"instance,omitempty"`
	RequestID string              `json:"requestId,omitempty"`
	Errors    map[string][]string `json:"errors,omitempty"`
}

// New fills type and title from status.
func New(status int, detail string) Details {
	return Details{
		Type:   typeURIs[status],
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
	}
}

// Write aborts the request with d.
func Write(c *gin.Context, d Details) {
	if d.Instance == "" {
		d.Instance = c.Request.URL.Path
	}
	if d.RequestID == "" {
		d.RequestID = c.GetString(logger.RequestIDKey)
	}
	c.Header("Content-Type", ContentType)
	c.AbortWithStatusJSON(d.Status, d)
}

// Validation writes a 400 with the per-field messages.
func Validation(c *gin.Context, fields map[string][]string) {
	d := New(http.StatusBadRequest, ValidationDetail)
	d.Errors = fields
	Write(c, d)
}

// Internal writes the generic 500 body. The cause is never exposed.
func Internal(c *gin.Context) {
	d := New(http.StatusInternalServerError, InternalDetail)
	d.Title = InternalTitle
	Write(c, d)
}

// FromError classifies err and writes the matching problem. Unknown errors
// are logged and rendered as 500.
func FromError(c *gin.Context, err error) {
	var validationErr *domainwinery.ValidationError
	switch {
	case errors.As(err, &validationErr):
		Validation(c, validationErr.Fields)
	case errors.Is(err, domainwinery.ErrInvalidID):
		Write(c, New(http.StatusBadRequest, err.Error()))
	case errors.Is(err, domainwinery.ErrNotFound):
		Write(c, New(http.StatusNotFound, userMessage[*domainwinery.NotFoundError](err)))
	case errors.Is(err, domainwinery.ErrAlreadyExists):
		Write(c, New(http.StatusConflict, userMessage[*domainwinery.AlreadyExistsError](err)))
	default:
		_ = c.Error(err)
		logger.FromContext(c.Request.Context()).Error("unhandled error", zap.Error(err))
		Internal(c)
	}
}

// userMessage unwraps to the typed domain error so the detail does not carry
// service-layer wrapping prefixes.
func userMessage[T error](err error) string {
	var target T
	if errors.As(err, &target) {
		return target.Error()
	}
	return err.Error()
}
