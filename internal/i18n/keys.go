// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Common
	KeyInternalError      = "error.internal"
	KeyRateLimited        = "error.rate_limited"
	KeyInvalidID          = "error.invalid_id"
	KeyServiceUnavailable = "error.service_unavailable"

	// Authentication
	KeyAuthRequired           = "auth.required"
	KeyAuthInvalidToken       = "auth.invalid_token"
	KeyAuthInvalidCredentials = "auth.invalid_credentials"
	KeyAuthUserExists         = "auth.user_exists"
	KeyAuthLoginSuccess       = "auth.login_success"
	KeyAuthRegisterSuccess    = "auth.register_success"
	KeyAdminAccessDenied      = "auth.admin_required"

	// Users
	KeyUserNotFound       = "user.not_found"
	KeyUserProfileUpdated = "user.profile_updated"
	KeyUserDeactivated    = "user.deactivated"
	KeyUserForbidden      = "user.forbidden"

	// Admin
	KeyAdminUserSuspended   = "admin.user_suspended"
	KeyAdminUserReactivated = "admin.user_reactivated"
	KeyAdminSelfStatus      = "admin.self_status"
	KeyAdminProtectedUser   = "admin.protected_user"

	// Books
	KeyBookCreated      = "book.created"
	KeyBookUpdated      = "book.updated"
	KeyBookDeleted      = "book.deleted"
	KeyBookNotFound     = "book.not_found"
	KeyBookExists       = "book.exists"
	KeyBookCoverUpdated = "book.cover_updated"

	// Reviews
	KeyReviewCreated      = "review.created"
	KeyReviewUpdated      = "review.updated"
	KeyReviewDeleted      = "review.deleted"
	KeyReviewNotFound     = "review.not_found"
	KeyReviewExists       = "review.exists"
	KeyReviewForbidden    = "review.forbidden"
	KeyReviewVoted        = "review.voted"
	KeyReviewAlreadyVoted = "review.already_voted"

	// Validation
	KeyValidationFailed = "validation.failed"
	KeyValidationBody   = "validation.invalid_body"

	// File Upload
	KeyFileUploadFailed = "file.upload_failed"
	KeyFileInvalidType  = "file.invalid_type"
	KeyFileTooLarge     = "file.too_large"
	KeyFileRequired     = "file.required"
)
