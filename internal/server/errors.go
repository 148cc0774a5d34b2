package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	consumptiondomain "github.com/hydrosuite/aquabill/internal/consumption/domain"
	customerdomain "github.com/hydrosuite/aquabill/internal/customer/domain"
	invoicedomain "github.com/hydrosuite/aquabill/internal/invoice/domain"
	meterdomain "github.com/hydrosuite/aquabill/internal/meter/domain"
	meterrequestdomain "github.com/hydrosuite/aquabill/internal/meterrequest/domain"
	notificationdomain "github.com/hydrosuite/aquabill/internal/notification/domain"
	tariffdomain "github.com/hydrosuite/aquabill/internal/tariff/domain"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrConflict       = errors.New("conflict")
	ErrInternal       = errors.New("internal_error")
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		code := validationErrorCode(err)
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(code),
				},
			},
		}
	}

	switch {
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: conflictMessage(err),
		}
	case isUnprocessableError(err):
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    "unprocessable",
			Message: err.Error(),
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, ErrInternal):
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

// classifyErrorForLog feeds the request logger without leaking internals.
func classifyErrorForLog(err error) (string, string) {
	status, payload := mapError(err)
	switch {
	case status >= http.StatusInternalServerError:
		return "internal", payload.Type
	case status >= http.StatusBadRequest:
		return "client", payload.Type
	default:
		return "", payload.Type
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return true
	case isCustomerValidationError(err),
		isTariffValidationError(err),
		isConsumptionValidationError(err),
		isInvoiceValidationError(err),
		isMeterValidationError(err),
		isMeterRequestValidationError(err),
		isNotificationValidationError(err):
		return true
	default:
		return false
	}
}

func isConflictError(err error) bool {
	switch {
	case errors.Is(err, ErrConflict),
		errors.Is(err, customerdomain.ErrCustomerExists),
		errors.Is(err, meterrequestdomain.ErrDuplicateContact),
		errors.Is(err, meterrequestdomain.ErrAlreadyDecided),
		errors.Is(err, meterdomain.ErrAlreadyDecided),
		errors.Is(err, invoicedomain.ErrAlreadyIssued),
		errors.Is(err, consumptiondomain.ErrPeriodAlreadySet),
		errors.Is(err, tariffdomain.ErrBracketInUse):
		return true
	default:
		return false
	}
}

func conflictMessage(err error) string {
	switch {
	case errors.Is(err, invoicedomain.ErrAlreadyIssued):
		return "invoice already issued for this consumption"
	case errors.Is(err, meterrequestdomain.ErrDuplicateContact):
		return "a request or account already exists for this contact"
	default:
		return "conflict"
	}
}

// Unprocessable requests are well-formed but rejected by billing rules.
func isUnprocessableError(err error) bool {
	switch {
	case errors.Is(err, consumptiondomain.ErrReadingNotHigher),
		errors.Is(err, consumptiondomain.ErrDeadlinePassed),
		errors.Is(err, tariffdomain.ErrNoBracket),
		errors.Is(err, meterdomain.ErrNoActiveMeter):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, customerdomain.ErrNotFound),
		errors.Is(err, tariffdomain.ErrNotFound),
		errors.Is(err, consumptiondomain.ErrNotFound),
		errors.Is(err, invoicedomain.ErrNotFound),
		errors.Is(err, meterdomain.ErrNotFound),
		errors.Is(err, meterrequestdomain.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func isCustomerValidationError(err error) bool {
	switch err {
	case customerdomain.ErrInvalidName,
		customerdomain.ErrInvalidEmail,
		customerdomain.ErrInvalidNIF,
		customerdomain.ErrInvalidID:
		return true
	default:
		return false
	}
}

func isTariffValidationError(err error) bool {
	switch err {
	case tariffdomain.ErrInvalidID,
		tariffdomain.ErrInvalidRange,
		tariffdomain.ErrInvalidPrice,
		tariffdomain.ErrOverlap:
		return true
	default:
		return false
	}
}

func isConsumptionValidationError(err error) bool {
	switch err {
	case consumptiondomain.ErrInvalidID,
		consumptiondomain.ErrInvalidCustomer,
		consumptiondomain.ErrInvalidReading:
		return true
	default:
		return false
	}
}

func isInvoiceValidationError(err error) bool {
	switch err {
	case invoicedomain.ErrInvalidID,
		invoicedomain.ErrInvalidCustomer:
		return true
	default:
		return false
	}
}

func isMeterValidationError(err error) bool {
	switch err {
	case meterdomain.ErrInvalidID,
		meterdomain.ErrInvalidCustomer,
		meterdomain.ErrInvalidSerial:
		return true
	default:
		return false
	}
}

func isMeterRequestValidationError(err error) bool {
	switch err {
	case meterrequestdomain.ErrInvalidID,
		meterrequestdomain.ErrInvalidName,
		meterrequestdomain.ErrInvalidEmail,
		meterrequestdomain.ErrInvalidNIF,
		meterrequestdomain.ErrInvalidContact:
		return true
	default:
		return false
	}
}

func isNotificationValidationError(err error) bool {
	switch err {
	case notificationdomain.ErrInvalidMessage,
		notificationdomain.ErrInvalidCustomer:
		return true
	default:
		return false
	}
}

func validationErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	default:
		return err.Error()
	}
}

func validationErrorField(code string) string {
	if code == "invalid_request" {
		return "request"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}

func validationErrorMessage(code string) string {
	switch code {
	case "invalid_request":
		return "invalid request"
	default:
		return "invalid value"
	}
}
