package handler

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"rideledger/internal/domain"
	internalRedis "rideledger/internal/redis"
	"rideledger/internal/repository"
)

// UserHandler handles HTTP requests for users. Registration is the credential
// collaborator at the edge of the system: the core only consults role and
// availability.
type UserHandler struct {
	userRepo     repository.UserRepository
	availability internalRedis.AvailabilityStoreInterface
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userRepo repository.UserRepository, availability internalRedis.AvailabilityStoreInterface) *UserHandler {
	return &UserHandler{userRepo: userRepo, availability: availability}
}

// RegisterRequest is the HTTP request body for user registration.
type RegisterRequest struct {
	Name      string `json:"name"`
	Contact   string `json:"contact"`
	UserType  string `json:"userType"`
	Password  string `json:"password"`
	PublicKey string `json:"publicKey,omitempty"`
}

// UserResponse is the HTTP response for user data.
type UserResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Contact   string `json:"contact"`
	UserType  string `json:"userType"`
	Available bool   `json:"available"`
}

// Register handles POST /register
func (h *UserHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	if req.Name == "" || req.Contact == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "name, contact and password are required"})
		return
	}

	role, ok := parseRole(req.UserType)
	if !ok {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "userType must be Driver or Rider"})
		return
	}

	existing, err := h.userRepo.GetByContact(c.Request.Context(), req.Contact)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		respondError(c, err)
		return
	}
	if existing != nil {
		c.JSON(http.StatusConflict, ErrorResponse{Error: "user already registered"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		respondError(c, err)
		return
	}

	user := &domain.User{
		ID:           uuid.New().String(),
		Name:         req.Name,
		Contact:      req.Contact,
		Role:         role,
		PublicKey:    req.PublicKey,
		PasswordHash: string(hash),
		Available:    role == domain.UserRoleDriver,
		CreatedAt:    time.Now(),
	}

	if err := h.userRepo.Create(c.Request.Context(), user); err != nil {
		respondError(c, err)
		return
	}

	if user.Available && h.availability != nil {
		if err := h.availability.MarkAvailable(c.Request.Context(), user.ID); err != nil {
			log.Printf("driver %s: failed to seed availability mirror: %v", user.ID, err)
		}
	}

	c.JSON(http.StatusCreated, gin.H{"message": "User registered successfully"})
}

// GetAll handles GET /users
func (h *UserHandler) GetAll(c *gin.Context) {
	users, err := h.userRepo.GetAll(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]UserResponse, 0, len(users))
	for _, u := range users {
		response = append(response, UserResponse{
			ID:        u.ID,
			Name:      u.Name,
			Contact:   u.Contact,
			UserType:  string(u.Role),
			Available: u.Available,
		})
	}

	c.JSON(http.StatusOK, response)
}

func parseRole(userType string) (domain.UserRole, bool) {
	switch userType {
	case "Driver", "DRIVER", "driver":
		return domain.UserRoleDriver, true
	case "Rider", "RIDER", "rider":
		return domain.UserRoleRider, true
	default:
		return "", false
	}
}
