// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Common
	KeyInternalError     = "internal.error"
	KeyInvalidInput      = "validation.invalid"
	KeyInvalidID         = "validation.invalid_id"
	KeyValidationFailed  = "validation.failed"
	KeyRateLimitExceeded = "rate_limit.exceeded"

	// Authentication
	KeyAuthRequired           = "auth.required"
	KeyAuthInvalidToken       = "auth.invalid_token"
	KeyAuthInvalidCredentials = "auth.invalid_credentials"
	KeyAuthUserInactive       = "auth.user_inactive"
	KeyAuthEmailTaken         = "auth.email_taken"
	KeyAuthUsernameTaken      = "auth.username_taken"
	KeyAuthSellerRequired     = "auth.seller_required"
	KeyAuthLoginSuccess       = "auth.login_success"
	KeyAuthRegisterSuccess    = "auth.register_success"
	KeyAuthDeactivated        = "auth.deactivated"

	// Users
	KeyUserNotFound = "user.not_found"

	// Products
	KeyProductCreated       = "product.created"
	KeyProductUpdated       = "product.updated"
	KeyProductDeleted       = "product.deleted"
	KeyProductNotFound      = "product.not_found"
	KeyProductNotOwner      = "product.not_owner"
	KeyProductInvalidPrice  = "product.invalid_price"
	KeyProductInvalidStock  = "product.invalid_stock"
	KeyProductNameRequired  = "product.name_required"
	KeyProductImageUploaded = "product.image_uploaded"
	KeyStockInsufficient    = "stock.insufficient"

	// Cart
	KeyCartItemAdded    = "cart.item_added"
	KeyCartItemUpdated  = "cart.item_updated"
	KeyCartItemRemoved  = "cart.item_removed"
	KeyCartCleared      = "cart.cleared"
	KeyCartItemNotFound = "cart.item_not_found"
	KeyCartEmpty        = "cart.empty"
	KeyCartInvalidQty   = "cart.invalid_quantity"

	// Orders
	KeyOrderCreated           = "order.created"
	KeyOrderNotFound          = "order.not_found"
	KeyOrderNoItems           = "order.no_items"
	KeyOrderInvalidQuantity   = "order.invalid_quantity"
	KeyOrderInvalidPrice      = "order.invalid_price"
	KeyOrderAddressTooShort   = "order.address_too_short"
	KeyOrderPriceMismatch     = "order.price_mismatch"
	KeyOrderInvalidTransition = "order.invalid_transition"

	// Payments
	KeyPaymentSuccess        = "payment.success"
	KeyPaymentFailed         = "payment.failed"
	KeyPaymentMethodRequired = "payment.method_required"

	// Files
	KeyFileUploadFailed = "file.upload_failed"
	KeyFileInvalidType  = "file.invalid_type"
	KeyFileTooLarge     = "file.too_large"
	KeyFileRequired     = "file.required"
)
