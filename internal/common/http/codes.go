package http

const (
	CodeUnknown          = "UNKNOWN"
	CodeInternal         = "INTERNAL_ERROR"
	CodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	CodeNotFound         = "NOT_FOUND"
	CodeInvalidJSON      = "INVALID_JSON"
	CodeBodyTooLarge     = "REQUEST_TOO_LARGE"
)
