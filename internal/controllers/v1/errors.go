package v1

import (
	"errors"
	"net/http"

	"github.com/allocato/backend/internal/engine"
	"github.com/allocato/backend/internal/models"
)

type httpError struct {
	Error string `json:"error" example:"An ID specified in the query string was not a valid UUID"`
}

// status returns the appropriate status for an error from the models or
// engine packages
func status(err error) int {
	if errors.Is(err, models.ErrGeneral) || errors.Is(err, engine.ErrZeroSum) {
		return http.StatusInternalServerError
	}

	if errors.Is(err, models.ErrResourceNotFound) || errors.Is(err, engine.ErrBatchNotFound) {
		return http.StatusNotFound
	}

	if errors.Is(err, engine.ErrBatchNotDraft) ||
		errors.Is(err, engine.ErrAlreadyRolledBack) ||
		errors.Is(err, engine.ErrRunInProgress) {
		return http.StatusConflict
	}

	return http.StatusBadRequest
}

var (
	errPeriodNotSet    = errors.New("the periodStart and periodEnd parameters must be set")
	errPeriodBackwards = errors.New("periodEnd cannot be before periodStart")
)
