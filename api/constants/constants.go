package constants

// Content types and headers
const (
	ContentTypeJSON      = "application/json"
	ContentTypeMultipart = "multipart/form-data"
	HeaderContentType    = "Content-Type"
)

// Request body keys
const (
	KeyUserID = "user_id"
)

// Date formats
const (
	DateTimeFormat = "2006-01-02 15:04:05"
	DateFormat     = "2006-01-02"
	DateFormatISO  = "2006-01-02T15:04:05"
	MonthFormat    = "2006-01"
)

// Processing statuses for the maker-checker workflow on master records.
const (
	StatusPendingApproval = "PENDING_APPROVAL"
	StatusApproved        = "APPROVED"
	StatusRejected        = "REJECTED"
	StatusPendingDelete   = "PENDING_DELETE_APPROVAL"
)

// Upload statuses for uploadedsalesfiles.
const (
	UploadStatusProcessed = "PROCESSED"
	UploadStatusDuplicate = "DUPLICATE_FILE"
)
