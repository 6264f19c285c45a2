package dto

import (
	"net/http"

	appconstruction "github.com/egp/construction-control/internal/application/construction"
	"github.com/egp/construction-control/internal/domain/construction"
	"github.com/egp/construction-control/internal/domain/shared"
)

// Transport-level error codes. Domain codes travel unchanged.
const (
	ErrCodeInternal        = "INTERNAL_ERROR"
	ErrCodeValidation      = "VALIDATION_ERROR"
	ErrCodeBadRequest      = "BAD_REQUEST"
	ErrCodeInvalidJSON     = "INVALID_JSON"
	ErrCodeUnauthorized    = "UNAUTHORIZED"
	ErrCodeTokenExpired    = "TOKEN_EXPIRED"
	ErrCodeInvalidToken    = "INVALID_TOKEN"
	ErrCodeForbidden       = "FORBIDDEN"
	ErrCodeRequestTooLarge = "REQUEST_TOO_LARGE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal: http.StatusInternalServerError,

	// input
	ErrCodeValidation:           http.StatusBadRequest,
	ErrCodeBadRequest:           http.StatusBadRequest,
	ErrCodeInvalidJSON:          http.StatusBadRequest,
	shared.ErrInvalidInput.Code: http.StatusBadRequest,
	ErrCodeRequestTooLarge:      http.StatusRequestEntityTooLarge,

	// auth
	ErrCodeUnauthorized:                   http.StatusUnauthorized,
	ErrCodeTokenExpired:                   http.StatusUnauthorized,
	ErrCodeInvalidToken:                   http.StatusUnauthorized,
	ErrCodeForbidden:                      http.StatusForbidden,
	construction.CodeDispatchNotPermitted: http.StatusForbidden,

	// resources
	shared.ErrNotFound.Code:                   http.StatusNotFound,
	construction.CodeLineNotFound:             http.StatusNotFound,
	construction.CodeBoardMemberNotFound:      http.StatusNotFound,
	shared.ErrAlreadyExists.Code:              http.StatusConflict,
	shared.ErrConcurrencyConflict.Code:        http.StatusConflict,
	appconstruction.ErrDuplicateDispatch.Code: http.StatusConflict,

	// business rules
	construction.CodeMissingWarehouse:          http.StatusUnprocessableEntity,
	construction.CodeMissingVendor:             http.StatusUnprocessableEntity,
	construction.CodeOpenBatchExists:           http.StatusUnprocessableEntity,
	construction.CodeAllQuantitiesSatisfied:    http.StatusUnprocessableEntity,
	construction.CodeDeleteOfFinalizedContract: http.StatusUnprocessableEntity,
	construction.CodeInvalidStateTransition:    http.StatusUnprocessableEntity,
	construction.CodeInvalidQuantity:           http.StatusUnprocessableEntity,
	construction.CodeBatchClosed:               http.StatusUnprocessableEntity,
	shared.ErrInvalidState.Code:                http.StatusUnprocessableEntity,
}

// GetHTTPStatus returns the HTTP status for an error code, 500 when unknown
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
