package errors

const (
	HttpInternalError          = "internal_error"
	HttpInvalidDocumentError   = "invalid_document"
	HttpInvalidExpressionError = "invalid_expression"
	HttpCompilationError       = "compilation_error"
	HttpInvalidRecordError     = "invalid_record"
	HttpJobNotFoundError       = "job_not_found"
	HttpDuplicateJobError      = "duplicate_job"
)

// ErrorResponse is the error response body for job API errors.
type ErrorResponse struct {
	ErrorType string      `json:"error_type"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
}
