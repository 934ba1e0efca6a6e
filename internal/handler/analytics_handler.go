package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/edupulse/feedback-api/internal/models"
	"github.com/edupulse/feedback-api/internal/service"
	appErrors "github.com/edupulse/feedback-api/pkg/errors"
	"github.com/edupulse/feedback-api/pkg/response"
)

// AnalyticsHandler exposes the professor-scoped dashboard endpoints.
type AnalyticsHandler struct {
	analytics *service.AnalyticsService
}

// NewAnalyticsHandler constructs the analytics handler.
func NewAnalyticsHandler(analytics *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

// ProfessorOverview godoc
// @Summary Professor dashboard overview
// @Description Summary of the authenticated professor's active classrooms. Admins may inspect any professor via professor_id.
// @Tags Professor
// @Produce json
// @Param professor_id query string false "Professor ID (admin only)"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /professor/overview [get]
func (h *AnalyticsHandler) ProfessorOverview(c *gin.Context) {
	if h.analytics == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	professorID := claims.UserID
	if requested := c.Query("professor_id"); requested != "" {
		if claims.Role != models.RoleAdmin {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "only admins may inspect other professors"))
			return
		}
		professorID = requested
	}

	start := time.Now()
	report, cacheHit, err := h.analytics.ProfessorOverview(c.Request.Context(), professorID)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondReport(c, start, cacheHit, report)
}
