package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rideledger/internal/domain"
	"rideledger/internal/service"
)

// RideHandler handles HTTP requests for rides.
type RideHandler struct {
	rideService *service.RideService
}

// NewRideHandler creates a new RideHandler.
func NewRideHandler(rideService *service.RideService) *RideHandler {
	return &RideHandler{rideService: rideService}
}

// Coordinates is a latitude/longitude pair in request bodies.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// CreateRideRequest is the HTTP request body for creating a ride.
type CreateRideRequest struct {
	Rider  string      `json:"rider"`
	Pickup Coordinates `json:"pickup"`
	Drop   Coordinates `json:"drop"`
}

// CancelRideRequest is the HTTP request body for cancelling a ride.
type CancelRideRequest struct {
	RideID      string `json:"rideId"`
	CancelledBy string `json:"cancelledBy"`
}

// AcceptRideRequest is the HTTP request body for accepting a ride.
type AcceptRideRequest struct {
	RideID string `json:"rideId"`
	Driver string `json:"driver"`
}

// CompleteRideRequest is the HTTP request body for completing a ride.
type CompleteRideRequest struct {
	RideID string `json:"rideId"`
}

// RideView is the HTTP representation of a ride.
type RideView struct {
	RideID      string      `json:"rideId"`
	Rider       string      `json:"rider"`
	Driver      string      `json:"driver,omitempty"`
	Pickup      Coordinates `json:"pickup"`
	Drop        Coordinates `json:"drop"`
	DistanceKm  float64     `json:"distance_km"`
	Fare        float64     `json:"fare"`
	Status      string      `json:"status"`
	CancelledBy string      `json:"cancelled_by,omitempty"`
	CreatedAt   string      `json:"created_at"`
	UpdatedAt   string      `json:"updated_at"`
}

// RideResponse wraps a ride with a human-readable message.
type RideResponse struct {
	Message string   `json:"message"`
	Ride    RideView `json:"ride"`
}

// CreateRide handles POST /create-ride
func (h *RideHandler) CreateRide(c *gin.Context) {
	var req CreateRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	ride, err := h.rideService.CreateRide(c.Request.Context(), service.CreateRideRequest{
		Rider:     req.Rider,
		PickupLat: req.Pickup.Lat,
		PickupLng: req.Pickup.Lng,
		DropLat:   req.Drop.Lat,
		DropLng:   req.Drop.Lng,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, RideResponse{
		Message: "Ride created successfully",
		Ride:    toRideView(ride),
	})
}

// CancelRide handles POST /cancel-ride
func (h *RideHandler) CancelRide(c *gin.Context) {
	var req CancelRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	ride, err := h.rideService.CancelRide(c.Request.Context(), service.CancelRideRequest{
		RideID:      req.RideID,
		CancelledBy: domain.CancelledBy(req.CancelledBy),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, RideResponse{
		Message: "Ride cancelled successfully by " + req.CancelledBy,
		Ride:    toRideView(ride),
	})
}

// AcceptRide handles POST /accept-ride
func (h *RideHandler) AcceptRide(c *gin.Context) {
	var req AcceptRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	ride, err := h.rideService.AcceptRide(c.Request.Context(), req.RideID, req.Driver)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, RideResponse{
		Message: "Ride accepted successfully",
		Ride:    toRideView(ride),
	})
}

// CompleteRide handles POST /complete-ride
func (h *RideHandler) CompleteRide(c *gin.Context) {
	var req CompleteRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	ride, err := h.rideService.CompleteRide(c.Request.Context(), req.RideID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, RideResponse{
		Message: "Ride completed successfully",
		Ride:    toRideView(ride),
	})
}

// GetRide handles GET /rides/:id
func (h *RideHandler) GetRide(c *gin.Context) {
	ride, err := h.rideService.GetRide(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toRideView(ride))
}

// GetAll handles GET /rides
func (h *RideHandler) GetAll(c *gin.Context) {
	rides, err := h.rideService.ListRides(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]RideView, 0, len(rides))
	for _, r := range rides {
		response = append(response, toRideView(r))
	}

	c.JSON(http.StatusOK, response)
}

func toRideView(ride *domain.Ride) RideView {
	return RideView{
		RideID:      ride.ID,
		Rider:       ride.Rider,
		Driver:      ride.Driver,
		Pickup:      Coordinates{Lat: ride.PickupLat, Lng: ride.PickupLng},
		Drop:        Coordinates{Lat: ride.DropLat, Lng: ride.DropLng},
		DistanceKm:  ride.DistanceKm,
		Fare:        ride.Fare,
		Status:      string(ride.Status),
		CancelledBy: string(ride.CancelledBy),
		CreatedAt:   ride.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:   ride.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}
