package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/openmrp/replan/pkg/application/dto"
	"github.com/openmrp/replan/pkg/application/services/planner"
	"github.com/openmrp/replan/pkg/domain/entities"
)

// Server exposes the planning engine over HTTP. It owns no state beyond its
// collaborators; each request is planned independently.
type Server struct {
	planner *planner.Planner
	policy  entities.OptimizationParams
	logger  *logrus.Logger
}

// NewServer wires the HTTP surface around a planner. The policy is the
// configured base every request overlays its own settings on.
func NewServer(p *planner.Planner, policy entities.OptimizationParams, logger *logrus.Logger) *Server {
	return &Server{planner: p, policy: policy, logger: logger}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", s.health)

	v1 := router.Group("/api/v1")
	v1.POST("/plan", s.plan)

	return router
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// plan handles POST /api/v1/plan. Validation failures are 400 with the
// offending field; planning itself never fails on valid input, so anything
// else is a 500.
func (s *Server) plan(c *gin.Context) {
	var req dto.PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request body: " + err.Error()})
		return
	}

	domain, err := req.ToDomainWith(s.policy)
	if err != nil {
		s.respondError(c, err)
		return
	}

	result, err := s.planner.PlanBatches(c.Request.Context(), domain)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromResult(result))
}

func (s *Server) respondError(c *gin.Context, err error) {
	var verr *entities.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error(), "field": verr.Field})
		return
	}
	if s.logger != nil {
		s.logger.WithError(err).Error("planning request failed")
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
