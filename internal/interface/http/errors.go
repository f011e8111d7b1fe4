package handlers

import (
	"errors"
	"net/http"

	"github.com/sikshyalaya/backend/internal/application"
)

// statusFor maps service errors onto HTTP statuses. Anything unmapped is a 500
// with a generic message so internals never leak to clients.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, application.ErrInvalidRefresh):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, application.ErrAccountLocked):
		return http.StatusLocked, err.Error()
	case errors.Is(err, application.ErrNotVerified):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, application.ErrEmailTaken),
		errors.Is(err, application.ErrInvalidCredentials),
		errors.Is(err, application.ErrAlreadyVerified),
		errors.Is(err, application.ErrInvalidCode),
		errors.Is(err, application.ErrPaymentIncomplete),
		errors.Is(err, application.ErrInvalidAmount),
		errors.Is(err, application.ErrVerificationFailed),
		errors.Is(err, application.ErrSignatureMismatch),
		errors.Is(err, application.ErrLessonNotFound):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, application.ErrUserNotFound),
		errors.Is(err, application.ErrCourseNotFound),
		errors.Is(err, application.ErrRefreshNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, application.ErrPaymentInFlight):
		return http.StatusConflict, err.Error()
	case errors.Is(err, application.ErrEnrollmentNotSynced):
		return http.StatusInternalServerError, err.Error()
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}
