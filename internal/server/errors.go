package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	apikeydomain "github.com/smallbiznis/credora/internal/apikey/domain"
	customerdomain "github.com/smallbiznis/credora/internal/customer/domain"
	dashboarddomain "github.com/smallbiznis/credora/internal/dashboard/domain"
	feedbackdomain "github.com/smallbiznis/credora/internal/feedback/domain"
	invoicedomain "github.com/smallbiznis/credora/internal/invoice/domain"
	projectdomain "github.com/smallbiznis/credora/internal/project/domain"
	ratingdomain "github.com/smallbiznis/credora/internal/rating/domain"
	receiptdomain "github.com/smallbiznis/credora/internal/receipt/domain"
	"github.com/smallbiznis/credora/pkg/db/pagination"
)

// HeaderOrg is rejected on API-key authenticated routes; organization
// identity comes from the key, never from the request.
const HeaderOrg = "X-Org-Id"

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrNotFound           = errors.New("not_found")
	ErrServiceUnavailable = errors.New("service_unavailable")
)

// apiError is the wire shape of every non-2xx response.
type apiError struct {
	status  int
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func (e *apiError) Error() string { return e.Code }

func invalidRequestError() error {
	return &apiError{
		status:  http.StatusBadRequest,
		Code:    "invalid_request",
		Message: "request body or query is malformed",
	}
}

func newValidationError(field, code, message string) error {
	return &apiError{
		status:  http.StatusBadRequest,
		Code:    code,
		Message: message,
		Field:   field,
	}
}

// AbortWithError maps domain errors onto HTTP statuses and writes the
// error envelope. Unrecognized errors become opaque 500s.
func AbortWithError(c *gin.Context, err error) {
	var apiErr *apiError
	if errors.As(err, &apiErr) {
		c.AbortWithStatusJSON(apiErr.status, gin.H{"error": apiErr})
		return
	}

	status := http.StatusInternalServerError
	code := "internal_error"
	message := "internal server error"

	switch {
	case errors.Is(err, ErrUnauthorized):
		status = http.StatusUnauthorized
		code = "unauthorized"
		message = "missing or invalid credentials"
	case errors.Is(err, ErrNotFound), isNotFoundError(err):
		status = http.StatusNotFound
		code = "not_found"
		message = "resource not found"
	case errors.Is(err, ErrServiceUnavailable):
		status = http.StatusServiceUnavailable
		code = "service_unavailable"
		message = "service temporarily unavailable"
	case isValidationError(err):
		status = http.StatusBadRequest
		code = err.Error()
		message = "request validation failed"
	case isConflictError(err):
		status = http.StatusConflict
		code = err.Error()
		message = "request conflicts with resource state"
	}

	c.AbortWithStatusJSON(status, gin.H{"error": &apiError{
		status:  status,
		Code:    code,
		Message: message,
	}})
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, customerdomain.ErrCustomerNotFound),
		errors.Is(err, invoicedomain.ErrInvoiceNotFound),
		errors.Is(err, receiptdomain.ErrReceiptNotFound),
		errors.Is(err, projectdomain.ErrProjectNotFound),
		errors.Is(err, feedbackdomain.ErrFeedbackNotFound),
		errors.Is(err, ratingdomain.ErrCustomerNotFound),
		errors.Is(err, apikeydomain.ErrKeyNotFound):
		return true
	default:
		return false
	}
}

func isValidationError(err error) bool {
	switch {
	case isCustomerValidationError(err),
		errors.Is(err, pagination.ErrInvalidPageToken),
		errors.Is(err, customerdomain.ErrInvalidOrganization),
		errors.Is(err, invoicedomain.ErrInvalidOrganization),
		errors.Is(err, invoicedomain.ErrInvalidCustomer),
		errors.Is(err, invoicedomain.ErrInvalidInvoiceID),
		errors.Is(err, invoicedomain.ErrInvalidAmount),
		errors.Is(err, receiptdomain.ErrInvalidOrganization),
		errors.Is(err, receiptdomain.ErrInvalidCustomer),
		errors.Is(err, receiptdomain.ErrInvalidReceiptID),
		errors.Is(err, receiptdomain.ErrInvalidAmount),
		errors.Is(err, projectdomain.ErrInvalidOrganization),
		errors.Is(err, projectdomain.ErrInvalidCustomer),
		errors.Is(err, projectdomain.ErrInvalidProjectID),
		errors.Is(err, projectdomain.ErrInvalidName),
		errors.Is(err, feedbackdomain.ErrInvalidOrganization),
		errors.Is(err, feedbackdomain.ErrInvalidCustomer),
		errors.Is(err, feedbackdomain.ErrInvalidFeedbackID),
		errors.Is(err, feedbackdomain.ErrInvalidSubject),
		errors.Is(err, ratingdomain.ErrInvalidOrganization),
		errors.Is(err, ratingdomain.ErrInvalidCustomer),
		errors.Is(err, dashboarddomain.ErrInvalidOrganization),
		errors.Is(err, apikeydomain.ErrInvalidName):
		return true
	default:
		return false
	}
}

func isConflictError(err error) bool {
	switch {
	case errors.Is(err, invoicedomain.ErrInvoiceNotDraft),
		errors.Is(err, invoicedomain.ErrInvoiceNotPayable),
		errors.Is(err, invoicedomain.ErrInvoiceFinalized),
		errors.Is(err, receiptdomain.ErrReceiptFinalized),
		errors.Is(err, projectdomain.ErrProjectNotActive),
		errors.Is(err, feedbackdomain.ErrFeedbackNotDraft),
		errors.Is(err, feedbackdomain.ErrFeedbackFinalized):
		return true
	default:
		return false
	}
}

// parseOptionalTime parses a date or RFC 3339 query parameter. endOfDay
// shifts date-only values to the last instant of that day so "to" filters
// are inclusive.
func parseOptionalTime(raw string, endOfDay bool) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		ts = ts.UTC()
		return &ts, nil
	}
	ts, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, err
	}
	ts = ts.UTC()
	if endOfDay {
		ts = ts.Add(24*time.Hour - time.Nanosecond)
	}
	return &ts, nil
}
