package application

import "errors"

// Service-level sentinel errors. Handlers map these onto HTTP statuses; the
// services themselves never see gin.
var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountLocked      = errors.New("account temporarily locked")
	ErrNotVerified        = errors.New("email not verified")
	ErrAlreadyVerified    = errors.New("email already verified")
	ErrInvalidCode        = errors.New("invalid or expired verification code")
	ErrInvalidRefresh     = errors.New("invalid refresh token")
	ErrRefreshNotFound    = errors.New("refresh token not found")

	ErrUserNotFound   = errors.New("user not found")
	ErrCourseNotFound = errors.New("course not found")
	ErrLessonNotFound = errors.New("lesson not found in course")

	ErrPaymentInFlight     = errors.New("payment already being processed")
	ErrInvalidAmount       = errors.New("invalid payment amount")
	ErrVerificationFailed  = errors.New("transaction could not be verified")
	ErrSignatureMismatch   = errors.New("payment signature mismatch")
	ErrPaymentIncomplete   = errors.New("payment status is not complete")
	ErrEnrollmentNotSynced = errors.New("payment verified but failed to update records")
)
