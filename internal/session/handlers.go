package session

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type initRequest struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

// Controller serves the /session endpoints.
type Controller struct {
	manager     *Manager
	csrfEnabled bool
}

// NewController creates a session controller. csrfEnabled controls whether
// /session/csrf hands out tokens.
func NewController(manager *Manager, csrfEnabled bool) *Controller {
	return &Controller{manager: manager, csrfEnabled: csrfEnabled}
}

// RegisterRoutes registers the session routes on group.
func (sc *Controller) RegisterRoutes(group *gin.RouterGroup) {
	group.POST("/session", sc.Init)
	group.GET("/session", sc.Get)
	group.DELETE("/session", sc.Clear)
	group.GET("/session/csrf", sc.CSRF)
}

// Init stores the client identity in a fresh session.
func (sc *Controller) Init(c *gin.Context) {
	var req initRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "code": "validation"})
		return
	}
	req.UserID = strings.TrimSpace(req.UserID)
	if req.UserID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId is required", "code": "validation"})
		return
	}

	identity, err := sc.manager.Init(c.Request.Context(), req.UserID, strings.TrimSpace(req.Username))
	if err != nil {
		log.Printf("Internal error (init session): %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error", "code": "internal"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Session initialised", "data": identity})
}

// Get returns the stored identity.
func (sc *Controller) Get(c *gin.Context) {
	identity, err := sc.manager.Identity(c.Request.Context())
	if errors.Is(err, ErrNoIdentity) {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found", "code": "not_found"})
		return
	}
	c.JSON(http.StatusOK, identity)
}

// Clear destroys the session.
func (sc *Controller) Clear(c *gin.Context) {
	if err := sc.manager.Clear(c.Request.Context()); err != nil {
		log.Printf("Internal error (clear session): %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error", "code": "internal"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Session cleared"})
}

// CSRF returns a token for the X-CSRF-Token header.
func (sc *Controller) CSRF(c *gin.Context) {
	token := CSRFToken(c)
	if !sc.csrfEnabled || token == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "CSRF protection is disabled", "code": "not_found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"csrfToken": token, "header": CSRFTokenHeader})
}
