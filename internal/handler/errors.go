package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"gamecatalog/backend/internal/store"
	"gamecatalog/backend/internal/validation"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Message string            `json:"message" example:"Game not found"`
	Errors  validation.Errors `json:"errors,omitempty"`
}

// MessageResponse is the body of a request that only reports an outcome.
type MessageResponse struct {
	Message string `json:"message" example:"Game deleted successfully"`
}

// storeMessages names the outcomes a store error can map to.
type storeMessages struct {
	NotFound string
	Conflict string
	Failure  string
}

func respondError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Message: message})
}

func respondValidation(c *gin.Context, errs validation.Errors) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Message: "Validation failed", Errors: errs})
}

func respondInvalidID(c *gin.Context, field, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{
		Message: message,
		Errors:  validation.Errors{{Field: field, Message: message}},
	})
}

// respondStoreError maps a storage error to 404, 409 or 500.
func respondStoreError(c *gin.Context, err error, m storeMessages) {
	switch {
	case store.IsNotFound(err) && m.NotFound != "":
		respondError(c, http.StatusNotFound, m.NotFound)
	case store.IsDuplicateKey(err) && m.Conflict != "":
		respondError(c, http.StatusConflict, m.Conflict)
	default:
		_ = c.Error(err)
		slog.ErrorContext(c.Request.Context(), m.Failure, "error", err, "path", c.Request.URL.Path)
		respondError(c, http.StatusInternalServerError, m.Failure)
	}
}

// bindJSON decodes the request body into dst. An empty body decodes to the
// zero value. Decoding problems come back as violations.
func bindJSON(c *gin.Context, dst interface{}) validation.Errors {
	err := c.ShouldBindJSON(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}

	var typeErr *json.UnmarshalTypeError
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &typeErr):
		field := typeErr.Field
		if field == "" {
			field = "body"
		}
		return validation.Errors{{Field: field, Message: "must be of type " + typeErr.Type.String()}}
	case errors.As(err, &maxErr):
		return validation.Errors{{Field: "body", Message: "Request body too large"}}
	default:
		return validation.Errors{{Field: "body", Message: "Malformed JSON body"}}
	}
}
