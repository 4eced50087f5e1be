package errors

// Error codes for standardized error responses.
const (
	// Authentication
	ErrCodeUnauthorized       = "unauthorized"
	ErrCodeInvalidToken       = "invalid_token"
	ErrCodeTokenExpired       = "token_expired"
	ErrCodeRegistrationFailed = "registration_failed"
	ErrCodeLoginFailed        = "login_failed"
	ErrCodeRefreshFailed      = "refresh_failed"
	ErrCodeEmailTaken         = "email_taken"

	// Validation
	ErrCodeInvalidRequest = "invalid_request"

	// Resources
	ErrCodeNotFound        = "not_found"
	ErrCodeProfileNotFound = "profile_not_found"

	// Business logic
	ErrCodeUpdateFailed           = "update_failed"
	ErrCodeLeaderboardFetchFailed = "leaderboard_fetch_failed"

	// Server
	ErrCodeInternalError      = "internal_error"
	ErrCodeServiceUnavailable = "service_unavailable"
)
