package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"rideledger/internal/repository"
	"rideledger/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	c.JSON(code, ErrorResponse{Error: err.Error()})
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	// Not found errors. A failed match is reported as 404: there is no
	// matchable driver resource to serve the request.
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, service.ErrNoDriverAvailable):
		return http.StatusNotFound

	// Validation errors - Bad Request. Cancelling a completed ride is a 400
	// to mirror the on-chain RideAlreadyCompleted rejection.
	case errors.Is(err, service.ErrInvalidRider),
		errors.Is(err, service.ErrInvalidRideID),
		errors.Is(err, service.ErrInvalidDriverID),
		errors.Is(err, service.ErrInvalidPickupLocation),
		errors.Is(err, service.ErrInvalidDropLocation),
		errors.Is(err, service.ErrInvalidCancelledBy),
		errors.Is(err, service.ErrRideAlreadyCompleted):
		return http.StatusBadRequest

	// Conflict errors
	case errors.Is(err, service.ErrInvalidRideState):
		return http.StatusConflict

	// Submission and persistence failures
	default:
		return http.StatusInternalServerError
	}
}
