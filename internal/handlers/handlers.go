package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"meetman/internal/notifier"
	"meetman/internal/services"
)

// Package-wide collaborators, wired once at startup.
var (
	log               *logrus.Logger
	engine            *notifier.Service
	emailService      *services.EmailService
	attachmentService *services.AttachmentService
	searchService     *services.SearchService
)

// Init wires the handler package's collaborators. attachments may be
// nil when Cloudinary is not configured; the upload endpoints then
// report 503.
func Init(logger *logrus.Logger, n *notifier.Service, email *services.EmailService, attachments *services.AttachmentService, search *services.SearchService) {
	log = logger
	engine = n
	emailService = email
	attachmentService = attachments
	searchService = search
}

// handleError provides a consistent way to handle and log errors
func handleError(c *gin.Context, status int, message string, err error) {
	log.WithError(err).Error(message)
	c.JSON(status, gin.H{"error": message})
}

// HomeHandler handles requests to the root path "/"
func HomeHandler(c *gin.Context) {
	c.String(http.StatusOK, "Meeting Manager API")
}

// HealthHandler is a simple health check endpoint
func HealthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   "Meeting Manager API is running",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
