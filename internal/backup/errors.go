package backup

import "github.com/stallbook/stallbook/internal/shared"

// Error codes returned by this package.
const (
	CodeInvalidFormat = "INVALID_BACKUP_FORMAT"
	CodeCreateError   = "BACKUP_CREATE_ERROR"
	CodeRestoreError  = "BACKUP_RESTORE_ERROR"
	CodeTooLarge      = "BACKUP_TOO_LARGE"
	CodeUserNotFound  = "USER_NOT_FOUND"
)

var (
	// ErrExportFailed is returned when any read of an export fails.
	ErrExportFailed = &shared.CodedError{Code: CodeCreateError, Message: "backup export failed"}
	// ErrRestoreFailed is returned when the restore transaction rolled back.
	ErrRestoreFailed = &shared.CodedError{Code: CodeRestoreError, Message: "backup restore failed; existing data was left unchanged"}
)
