package v1

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/shenikar/incident-response-core/internal/ledger"
	"github.com/shenikar/incident-response-core/internal/lifecycle"
	"github.com/shenikar/incident-response-core/internal/repository"
)

// errorKind is the small closed set of error classes the API surfaces,
// matching spec.md §7's error-kind table.
type errorKind string

const (
	kindInvalidInput     errorKind = "INVALID_INPUT"
	kindForbidden        errorKind = "FORBIDDEN"
	kindInvalidState     errorKind = "INVALID_STATE"
	kindConflict         errorKind = "CONFLICT"
	kindCapacityExceeded errorKind = "CAPACITY_EXCEEDED"
	kindNotFound         errorKind = "NOT_FOUND"
	kindTimeout          errorKind = "TIMEOUT"
	kindInternal         errorKind = "INTERNAL"
)

// writeError classifies err and writes the matching JSON error body and
// HTTP status, logging anything that maps to INTERNAL at error level.
func writeError(c *gin.Context, log *logrus.Entry, err error) {
	status, kind := classifyError(err)
	if kind == kindInternal {
		log.WithError(err).Error("unhandled error")
	}
	c.JSON(status, gin.H{"error": err.Error(), "kind": kind})
}

func classifyError(err error) (int, errorKind) {
	switch {
	case errors.Is(err, lifecycle.ErrForbidden):
		return http.StatusForbidden, kindForbidden
	case errors.Is(err, lifecycle.ErrInvalidState):
		return http.StatusConflict, kindInvalidState
	case errors.Is(err, lifecycle.ErrStaleSnapshot):
		return http.StatusConflict, kindConflict
	case errors.Is(err, lifecycle.ErrNoCandidates):
		return http.StatusConflict, kindCapacityExceeded
	case errors.Is(err, ledger.ErrCapacityExceeded):
		return http.StatusConflict, kindCapacityExceeded
	case errors.Is(err, repository.ErrConflict):
		return http.StatusConflict, kindConflict
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, kindNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, kindTimeout
	default:
		return http.StatusInternalServerError, kindInternal
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg, "kind": kindInvalidInput})
}
