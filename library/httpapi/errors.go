package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/AntonStoeckl/library-ledger-go/ledger"
	"github.com/AntonStoeckl/library-ledger-go/library/auth"
)

const (
	codeUnauthenticated    = "unauthenticated"
	codeInvalidToken       = "invalid_token"
	codeInvalidCredentials = "invalid_credentials"
	codeRouteNotFound      = "route_not_found"
	codeMethodNotAllowed   = "method_not_allowed"
)

var (
	errUnauthenticated  = errors.New("access token required")
	errRouteNotFound    = errors.New("route not found")
	errMethodNotAllowed = errors.New("method not allowed")
)

// messages holds the client facing text per code. Codes without an entry show the error itself.
var messages = map[string]string{
	ledger.CodeBookNotFound:      "Book not found",
	ledger.CodeBorrowingNotFound: "Borrowing record not found",
	ledger.CodeUserNotFound:      "User not found",
	ledger.CodeBookUnavailable:   "Book not available",
	ledger.CodeAlreadyBorrowed:   "You already have this book borrowed",
	ledger.CodeAlreadyReturned:   "Book already returned",
	ledger.CodeDuplicateISBN:     "Book with this ISBN already exists",
	ledger.CodeDuplicateEmail:    "User already exists",
	ledger.CodeNotAuthorized:     "Access denied",
	ledger.CodeInternal:          "Server error",
	ledger.CodeInconsistentState: "Inventory is inconsistent, the operation was recorded and needs reconciliation",
	ledger.CodeTransientConflict: "Please retry, the request collided with a concurrent change",
	ledger.CodeTimeout:           "Request timed out",
	codeUnauthenticated:          "Access token required",
	codeInvalidToken:             "Invalid token",
	codeInvalidCredentials:       "Invalid credentials",
	codeRouteNotFound:            "Route not found",
	codeMethodNotAllowed:         "Method not allowed",
}

// classify maps err to its HTTP status and code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusBadRequest, codeInvalidCredentials
	case errors.Is(err, errUnauthenticated):
		return http.StatusUnauthorized, codeUnauthenticated
	case errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized, codeInvalidToken
	case errors.Is(err, errRouteNotFound):
		return http.StatusNotFound, codeRouteNotFound
	case errors.Is(err, errMethodNotAllowed):
		return http.StatusMethodNotAllowed, codeMethodNotAllowed
	}

	code := ledger.ErrorCode(err)

	switch code {
	case ledger.CodeInconsistentState:
		return http.StatusInternalServerError, code
	case ledger.CodeBookNotFound, ledger.CodeBorrowingNotFound, ledger.CodeUserNotFound, ledger.CodeNotFound:
		return http.StatusNotFound, code
	case ledger.CodeNotAuthorized:
		return http.StatusForbidden, code
	case ledger.CodeDuplicateISBN, ledger.CodeDuplicateEmail,
		ledger.CodeBookHasActiveBorrowings, ledger.CodeUserHasActiveBorrowings:
		return http.StatusConflict, code
	case ledger.CodeBookUnavailable, ledger.CodeAlreadyBorrowed, ledger.CodeAlreadyReturned,
		ledger.CodeInvalidInput, ledger.CodeTotalCopiesBelowActiveLoans:
		return http.StatusBadRequest, code
	case ledger.CodeTransientConflict, ledger.CodeStorageUnavailable, ledger.CodeCanceled:
		return http.StatusServiceUnavailable, code
	case ledger.CodeTimeout:
		return http.StatusGatewayTimeout, code
	default:
		return http.StatusInternalServerError, ledger.CodeInternal
	}
}

func (a *API) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)

	message, ok := messages[code]
	if !ok {
		message = err.Error()
	}

	a.logError(r.Context(), status, code, err)

	if writeErr := writeJSON(w, status, errorResponse{Message: message, Code: code}); writeErr != nil {
		a.logger.WarnContext(r.Context(), "writing error response failed", "error", writeErr.Error())
	}
}

func (a *API) logError(ctx context.Context, status int, code string, err error) {
	args := []any{"status", status, "error_code", code, "error", err.Error()}

	switch {
	case code == ledger.CodeInconsistentState:
		a.logger.ErrorContext(ctx, "INCONSISTENT STATE: counters disagree with the borrowing ledger", args...)
	case status >= http.StatusInternalServerError && !errors.Is(err, context.Canceled):
		a.logger.ErrorContext(ctx, "request failed", args...)
	default:
		a.logger.DebugContext(ctx, "request rejected", args...)
	}
}

func invalidID(raw string) error {
	return fmt.Errorf("%w: %q is not a valid id", ledger.ErrInvalidInput, raw)
}

func invalidQueryParam(name, raw string) error {
	return fmt.Errorf("%w: query parameter %s=%q is invalid", ledger.ErrInvalidInput, name, raw)
}
