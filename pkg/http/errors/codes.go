package errors

// Error codes for standardized error responses
const (
	// Authentication errors
	ErrCodeUnauthorized           = "unauthorized"
	ErrCodeInvalidToken           = "invalid_token"
	ErrCodeAuthenticationRequired = "authentication_required"
	ErrCodeLoginFailed            = "login_failed"
	ErrCodeAuthDisabled           = "auth_disabled"

	// Validation errors
	ErrCodeInvalidRequest   = "invalid_request"
	ErrCodeValidationFailed = "validation_failed"

	// Resource errors
	ErrCodeNotFound         = "not_found"
	ErrCodeQuestionNotFound = "question_not_found"
	ErrCodeDraftNotFound    = "draft_not_found"
	ErrCodeAlreadyExists    = "already_exists"

	// Storage errors
	ErrCodeStorageError = "storage_error"
	ErrCodeStoreCorrupt = "store_corrupt"

	// Server errors
	ErrCodeInternalError      = "internal_error"
	ErrCodeServiceUnavailable = "service_unavailable"
)
