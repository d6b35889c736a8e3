package v1

import (
	"errors"
	"net/http"
	"time"

	"blogapi/api/v1/request"
	"blogapi/api/v1/response"
	"blogapi/internal/metrics"
	myvalidator "blogapi/internal/validator"
	"blogapi/middleware"
	"blogapi/model"
	"blogapi/service"

	"github.com/gin-gonic/gin"
)

const dateLayout = "2006-01-02"

// postCacheFlusher drops cached post bodies. They embed the author's
// username and email, so profile updates must flush them.
type postCacheFlusher interface {
	InvalidateAll()
}

// UserAPI exposes HTTP handlers for registration, login and profile update.
type UserAPI struct {
	service *service.UserService
	cache   postCacheFlusher // nil disables flushing
}

// NewUserAPI wires the service layer into the HTTP handlers.
func NewUserAPI(s *service.UserService, cache postCacheFlusher) *UserAPI {
	return &UserAPI{service: s, cache: cache}
}

// Register handles new account creation. No token is issued here; login is
// the only token-issuing path.
func (u *UserAPI) Register(c *gin.Context) {
	var req request.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		metrics.IncAuth("register", "bad_request")
		c.JSON(http.StatusBadRequest, gin.H{
			"message": "Validation error",
			"errors":  myvalidator.Messages(err),
		})
		return
	}

	dob, _ := time.Parse(dateLayout, req.DateOfBirth) // format checked by binding
	user := &model.User{
		Username:    req.Username,
		Email:       req.Email,
		DateOfBirth: dob,
		Gender:      req.Gender,
		PhoneNumber: req.PhoneNumber,
	}
	if err := u.service.Register(user, req.Password); err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			metrics.IncAuth("register", "exists")
			c.JSON(http.StatusBadRequest, gin.H{"message": "User already exists"})
			return
		}
		metrics.IncAuth("register", "internal_error")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	metrics.IncAuth("register", "success")
	c.JSON(http.StatusCreated, gin.H{"message": "User registered successfully"})
}

// Login validates credentials and returns a bearer token with the user
// summary. Unknown email and wrong password produce identical responses.
func (u *UserAPI) Login(c *gin.Context) {
	var req request.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		metrics.IncAuth("login", "bad_request")
		c.JSON(http.StatusBadRequest, gin.H{
			"message": "Validation error",
			"errors":  myvalidator.Messages(err),
		})
		return
	}

	token, user, err := u.service.Login(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			metrics.IncAuth("login", "invalid_credentials")
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid credentials"})
			return
		}
		metrics.IncAuth("login", "internal_error")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	metrics.IncAuth("login", "success")
	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  response.NewUserSummary(user),
	})
}

// UpdateProfile applies the supplied subset of profile fields for the
// authenticated user.
func (u *UserAPI) UpdateProfile(c *gin.Context) {
	userID := c.GetUint64(middleware.UserIDKey)

	var req request.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		metrics.IncAuth("update", "bad_request")
		c.JSON(http.StatusBadRequest, gin.H{
			"message": "Validation error",
			"errors":  myvalidator.Messages(err),
		})
		return
	}

	fields := service.ProfileUpdate{
		Username:    req.Username,
		Email:       req.Email,
		Gender:      req.Gender,
		PhoneNumber: req.PhoneNumber,
	}
	if req.DateOfBirth != "" {
		dob, _ := time.Parse(dateLayout, req.DateOfBirth)
		fields.DateOfBirth = &dob
	}

	user, err := u.service.UpdateProfile(userID, fields)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			metrics.IncAuth("update", "not_found")
			c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
		case errors.Is(err, service.ErrEmailTaken):
			metrics.IncAuth("update", "exists")
			c.JSON(http.StatusBadRequest, gin.H{"message": "User already exists"})
		default:
			metrics.IncAuth("update", "internal_error")
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		}
		return
	}
	if u.cache != nil {
		u.cache.InvalidateAll()
	}
	metrics.IncAuth("update", "success")
	c.JSON(http.StatusOK, gin.H{
		"message": "Profile updated successfully",
		"user":    response.NewUserSummary(user),
	})
}
