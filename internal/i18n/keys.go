// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Common
	KeySuccess       = "success"
	KeyInternalError = "error.internal"
	KeyAccessDenied  = "error.access_denied"
	KeyRateLimited   = "error.rate_limited"
	KeyConflict      = "error.conflict"

	// Authentication
	KeyAuthRequired           = "auth.required"
	KeyAuthInvalidToken       = "auth.invalid_token"
	KeyAuthInvalidCredentials = "auth.invalid_credentials"
	KeyAuthLoginSuccess       = "auth.login_success"
	KeyAuthLogoutSuccess      = "auth.logout_success"
	KeyAuthRegisterSuccess    = "auth.register_success"
	KeyAuthResetCodeSent      = "auth.reset_code_sent"
	KeyAuthResetCodeInvalid   = "auth.reset_code_invalid"
	KeyAuthPasswordReset      = "auth.password_reset"
	KeyAuthRefreshMissing     = "auth.refresh_missing"

	// Users
	KeyUserNotFound = "user.not_found"
	KeyUserExists   = "user.exists"

	// Businesses
	KeyBusinessCreated  = "business.created"
	KeyBusinessExists   = "business.exists"
	KeyBusinessNotFound = "business.not_found"
	KeyBusinessRequired = "business.required"

	// Products
	KeyProductCreated  = "product.created"
	KeyProductUpdated  = "product.updated"
	KeyProductDeleted  = "product.deleted"
	KeyProductNotFound = "product.not_found"
	KeyProductImages   = "product.images_uploaded"

	// Categories and attributes
	KeyCategoryCreated      = "category.created"
	KeyAttributeNameCreated = "attribute_name.created"

	// Sales
	KeySaleRecorded          = "sale.recorded"
	KeySaleInvalidItem       = "sale.invalid_item"
	KeyPaymentMethodNotFound = "payment_method.not_found"

	// Validation
	KeyValidationRequired = "validation.required"
	KeyValidationInvalid  = "validation.invalid"

	// File Upload
	KeyFileUploadFailed = "file.upload_failed"
	KeyFileInvalidType  = "file.invalid_type"
	KeyFileTooLarge     = "file.too_large"
)
