// Package server exposes the application over HTTP. Authentication
// proper lives in front of this service; the API trusts the owner key
// forwarded in the X-Owner-ID header and rejects requests without one
// before any business logic runs.
package server

import (
	"errors"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/minamikusatsuhifuka-maker/keiridocs-app/internal/apperrors"
	"github.com/minamikusatsuhifuka-maker/keiridocs-app/internal/container"
	"github.com/minamikusatsuhifuka-maker/keiridocs-app/internal/logging"
)

// OwnerHeader carries the authenticated owner key set by the fronting
// auth layer.
const OwnerHeader = "X-Owner-ID"

const ownerKey = "owner_id"

// Server is the HTTP front of the application.
type Server struct {
	e      *gin.Engine
	c      *container.Container
	logger logging.Logger
}

// New builds the server and its routes.
func New(c *container.Container) *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		e:      gin.New(),
		c:      c,
		logger: c.Logger(),
	}
	s.initRoutes()
	return s
}

// Run blocks serving HTTP on addr.
func (s *Server) Run(addr string) error {
	return s.e.Run(addr)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.e
}

func (s *Server) initRoutes() {
	s.e.Use(gin.Recovery())
	s.e.Use(cors.Default())

	g := s.e.Group("/api/v1")
	g.Use(s.requireOwner)

	g.GET("/documents", s.handleListDocuments)
	g.POST("/documents", s.handleRegisterDocument)
	g.PATCH("/documents/:id", s.handleUpdateDocument)
	g.DELETE("/documents/:id", s.handleDeleteDocument)

	g.GET("/mail/pending", s.handleListPendingMail)
	g.POST("/mail/approve", s.handleApproveMail)
	g.POST("/mail/reject", s.handleRejectMail)

	g.POST("/export", s.handleExport)

	g.GET("/rules", s.handleListRules)
	g.POST("/rules", s.handleCreateRule)
	g.DELETE("/rules/:id", s.handleDeleteRule)

	g.GET("/types", s.handleListTypes)
}

// requireOwner rejects requests without an owner key before any
// business logic runs.
func (s *Server) requireOwner(c *gin.Context) {
	owner := c.GetHeader(OwnerHeader)
	if owner == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing owner"})
		return
	}
	c.Set(ownerKey, owner)
	c.Next()
}

func owner(c *gin.Context) string {
	return c.GetString(ownerKey)
}

var badRequest = gin.H{"error": "bad request"}

var internalServerError = gin.H{"error": "internal server error"}

// fail maps the application error taxonomy onto HTTP statuses.
func (s *Server) fail(c *gin.Context, err error) {
	var validationErr *apperrors.ValidationError
	var notFoundErr *apperrors.NotFoundError
	var protectedErr *apperrors.ProtectedError
	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Error()})
	case errors.As(err, &notFoundErr):
		c.JSON(http.StatusNotFound, gin.H{"error": notFoundErr.Error()})
	case errors.As(err, &protectedErr):
		c.JSON(http.StatusConflict, gin.H{"error": protectedErr.Error()})
	default:
		s.logger.WithError(err).Error("Request failed")
		c.JSON(http.StatusInternalServerError, internalServerError)
	}
}
