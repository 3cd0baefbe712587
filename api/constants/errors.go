package constants

// ============================================================================
// AUTHENTICATION & SESSION ERRORS
// ============================================================================

const (
	ErrMissingUserID  = "user_id is required in the request"
	ErrInvalidSession = "Your session has expired or is invalid. Please login again"
	ErrUnauthorized   = "You are not authorized to perform this action"
)

// ============================================================================
// VALIDATION ERRORS - Sellers
// ============================================================================

const (
	ErrSellerNotFound      = "Seller not found in the system"
	ErrSellerRequired      = "Seller name is required"
	ErrSellerAlreadyExists = "Seller with name %s already exists in the system"
)

// ============================================================================
// VALIDATION ERRORS - Plans
// ============================================================================

const (
	ErrPlanNotFound      = "Plan not found in the system"
	ErrPlanRequired      = "Plan name is required"
	ErrPlanAlreadyExists = "Plan with name %s already exists in the system"
	ErrInvalidPlanPrice  = "Invalid plan price specified"
)

// ============================================================================
// VALIDATION ERRORS - Zones
// ============================================================================

const (
	ErrZoneNotFound      = "Zone not found in the system"
	ErrZoneRequired      = "Zone name is required"
	ErrZoneAlreadyExists = "Zone with name %s already exists in the system"
)

// ============================================================================
// COMMISSION & RATE ERRORS
// ============================================================================

const (
	ErrRuleNotFound      = "Commission rule not found for this seller"
	ErrConfigLoadFailed  = "Failed to load commission configuration"
	ErrRateUnavailable   = "No BCV rate available yet. Trigger a refresh or wait for the next cycle"
	ErrRateRefreshFailed = "BCV rate refresh failed. All sources were unreachable"
)

// ============================================================================
// FILE UPLOAD ERRORS
// ============================================================================

const (
	ErrEmptyFile        = "Uploaded file is empty"
	ErrNoFilesInRequest = "No files found in the request"
	ErrDuplicateFile    = "This exact file was already uploaded"
)

// ============================================================================
// INPUT VALIDATION ERRORS
// ============================================================================

const (
	ErrInvalidMonth = "Invalid month. Expected format: YYYY-MM"
)
