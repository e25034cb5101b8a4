package jobs

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/aevon-lab/flowrule/internal/core/aggregation"
	httperr "github.com/aevon-lab/flowrule/internal/core/errors"
	"github.com/aevon-lab/flowrule/internal/core/storage"
	"github.com/aevon-lab/flowrule/internal/core/transform"
	"github.com/aevon-lab/flowrule/internal/schema"
	"github.com/gin-gonic/gin"
)

const (
	msgReadBodyFailed = "Failed to read request body"
	msgBodyTooLarge   = "Request body exceeds maximum allowed size"
	msgInvalidRecords = "Body must be a JSON object with a records array"
	msgInvalidLimit   = "limit must be a positive integer"
	msgPersistFailed  = "Failed to persist job"
	msgLoadFailed     = "Failed to load job"
	msgDuplicateJob   = "Job already exists"
	msgJobNotFound    = "Job not found"
)

// jobError carries the structured HTTP error shape from a helper back to the handler.
type jobError struct {
	statusCode int
	errorType  string
	message    string
	details    interface{}
}

func (e *jobError) Error() string {
	return e.message
}

// detailer is implemented by errors that expose structured fields.
type detailer interface {
	Details() map[string]interface{}
}

// RegisterRoutes registers the job routes.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.POST("/v1/jobs/validate", s.ValidateHandler)
	r.POST("/v1/jobs", s.SubmitHandler)
	r.GET("/v1/jobs", s.ListHandler)
	r.GET("/v1/jobs/:id", s.GetHandler)
	r.POST("/v1/jobs/:id/apply", s.ApplyHandler)
}

// ValidateHandler builds a job document and returns the resulting plan without storing it.
func (s *Service) ValidateHandler(c *gin.Context) {
	body, jerr := s.readBody(c)
	if jerr != nil {
		writeError(c, jerr)
		return
	}

	job, err := s.Build(c.Request.Context(), body)
	if err != nil {
		writeError(c, classify(err))
		return
	}

	c.JSON(http.StatusOK, job)
}

// SubmitHandler validates and stores a job document.
func (s *Service) SubmitHandler(c *gin.Context) {
	body, jerr := s.readBody(c)
	if jerr != nil {
		writeError(c, jerr)
		return
	}

	job, err := s.Submit(c.Request.Context(), body)
	if err != nil {
		jerr := classify(err)
		if jerr.statusCode == http.StatusInternalServerError {
			slog.Error("Failed to persist job", "error", err)
			jerr.message = msgPersistFailed
		}
		writeError(c, jerr)
		return
	}

	c.JSON(http.StatusCreated, job)
}

// ListHandler returns stored jobs, newest first. Accepts an optional limit query parameter.
func (s *Service) ListHandler(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(c, &jobError{
				statusCode: http.StatusBadRequest,
				errorType:  httperr.HttpInvalidDocumentError,
				message:    msgInvalidLimit,
			})
			return
		}
		limit = n
	}

	jobs, err := s.List(c.Request.Context(), limit)
	if err != nil {
		slog.Error("Failed to list jobs", "error", err)
		writeError(c, &jobError{
			statusCode: http.StatusInternalServerError,
			errorType:  httperr.HttpInternalError,
			message:    msgLoadFailed,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"jobs":  jobs,
		"count": len(jobs),
	})
}

// GetHandler returns one stored job.
func (s *Service) GetHandler(c *gin.Context) {
	job, err := s.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		jerr := classify(err)
		if jerr.statusCode == http.StatusInternalServerError {
			slog.Error("Failed to load job", "job_id", c.Param("id"), "error", err)
			jerr.message = msgLoadFailed
		}
		writeError(c, jerr)
		return
	}

	c.JSON(http.StatusOK, job)
}

// applyRequest is the body of ApplyHandler.
type applyRequest struct {
	Records []map[string]any `json:"records"`
}

// ApplyHandler runs a stored job over sample records and returns the
// transformed rows and their aggregates.
func (s *Service) ApplyHandler(c *gin.Context) {
	body, jerr := s.readBody(c)
	if jerr != nil {
		writeError(c, jerr)
		return
	}

	// Keep numbers exact: records convert json.Number to decimals.
	var req applyRequest
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil || req.Records == nil {
		slog.Warn("Invalid apply body received", "error", err, "payload_size", len(body))
		writeError(c, &jobError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpInvalidRecordError,
			message:    msgInvalidRecords,
		})
		return
	}

	preview, err := s.Apply(c.Request.Context(), c.Param("id"), req.Records)
	if err != nil {
		jerr := classify(err)
		if jerr.statusCode == http.StatusInternalServerError {
			slog.Error("Failed to apply job", "job_id", c.Param("id"), "error", err)
			jerr.message = msgLoadFailed
		}
		writeError(c, jerr)
		return
	}

	c.JSON(http.StatusOK, preview)
}

// readBody reads the request body up to the configured maximum size.
func (s *Service) readBody(c *gin.Context) ([]byte, *jobError) {
	maxBytes := int64(s.maxBodySizeBytes)
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBytes+1)) // +1 to detect oversized requests
	if err != nil {
		slog.Error("Failed to read request body", "error", err)
		return nil, &jobError{
			statusCode: http.StatusInternalServerError,
			errorType:  httperr.HttpInternalError,
			message:    msgReadBodyFailed,
		}
	}

	if int64(len(body)) > maxBytes {
		slog.Warn("Request body exceeds maximum size", "size", len(body), "max", maxBytes)
		return nil, &jobError{
			statusCode: http.StatusRequestEntityTooLarge,
			errorType:  httperr.HttpInvalidDocumentError,
			message:    msgBodyTooLarge,
			details: map[string]interface{}{
				"max_size_mb": maxBytes / (1024 * 1024),
			},
		}
	}
	return body, nil
}

// classify maps a service error to its HTTP shape.
func classify(err error) *jobError {
	var (
		exprErr   *aggregation.InvalidExpressionError
		compErr   *transform.CompilationError
		defErr    *schema.DefinitionError
		recordErr *RecordError
	)

	switch {
	case errors.Is(err, storage.ErrNotFound):
		return &jobError{statusCode: http.StatusNotFound, errorType: httperr.HttpJobNotFoundError, message: msgJobNotFound}

	case errors.Is(err, storage.ErrDuplicate):
		return &jobError{statusCode: http.StatusConflict, errorType: httperr.HttpDuplicateJobError, message: msgDuplicateJob}

	case errors.As(err, &recordErr):
		details := map[string]interface{}{"index": recordErr.Index}
		var layoutErr *schema.RecordError
		if errors.As(err, &layoutErr) {
			details["errors"] = layoutErr.Errors
		}
		return &jobError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpInvalidRecordError,
			message:    err.Error(),
			details:    details,
		}

	case errors.As(err, &exprErr):
		return withDetails(http.StatusBadRequest, httperr.HttpInvalidExpressionError, exprErr)

	case errors.As(err, &compErr):
		return withDetails(http.StatusBadRequest, httperr.HttpCompilationError, compErr)

	case errors.As(err, &defErr):
		return withDetails(http.StatusBadRequest, httperr.HttpInvalidDocumentError, defErr)

	case errors.Is(err, ErrInvalidDocument), errors.Is(err, schema.ErrUnsupportedFormat):
		return &jobError{statusCode: http.StatusBadRequest, errorType: httperr.HttpInvalidDocumentError, message: err.Error()}
	}

	return &jobError{statusCode: http.StatusInternalServerError, errorType: httperr.HttpInternalError, message: err.Error()}
}

func withDetails(status int, errorType string, err error) *jobError {
	jerr := &jobError{statusCode: status, errorType: errorType, message: err.Error()}
	if d, ok := err.(detailer); ok {
		jerr.details = d.Details()
	}
	return jerr
}

// writeError serializes a jobError as the JSON HTTP response.
func writeError(c *gin.Context, err *jobError) {
	c.JSON(err.statusCode, httperr.ErrorResponse{
		ErrorType: err.errorType,
		Message:   err.message,
		Details:   err.details,
	})
}
