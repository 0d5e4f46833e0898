package server

const (
	// Validation (1xxx)
	ErrCodeInvalidArgument = 1000
	ErrCodeInvalidJSON     = 1001
	ErrCodeRequestTooLarge = 1002
	ErrCodeInvalidID       = 1004
	ErrCodeMissingRequired = 1009
	ErrCodeDuplicateID     = 1015
	ErrCodeMissingFile     = 1016

	// Domain state (2xxx)
	ErrCodeRecordNotFound = 2001
	ErrCodeBlobNotFound   = 2003

	// Limits & availability (3xxx)
	ErrCodeCapacityExhausted = 3004
	ErrCodeUnavailable       = 3005

	// Internal/system (4xxx)
	ErrCodeInternal     = 4001
	ErrCodeStoreFailure = 4002
	ErrCodeCorruptBlob  = 4006
	ErrCodePurgeFailed  = 4007
)

func defaultErrorCodeByStatus(status int) int {
	switch status {
	case 400:
		return ErrCodeInvalidArgument
	case 404:
		return ErrCodeRecordNotFound
	case 500:
		return ErrCodeInternal
	case 503:
		return ErrCodeUnavailable
	case 507:
		return ErrCodeCapacityExhausted
	default:
		return 0
	}
}
