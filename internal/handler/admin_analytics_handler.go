package handler

import (
	"fmt"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/edupulse/feedback-api/internal/dto"
	"github.com/edupulse/feedback-api/internal/service"
	appErrors "github.com/edupulse/feedback-api/pkg/errors"
	"github.com/edupulse/feedback-api/pkg/export"
	"github.com/edupulse/feedback-api/pkg/response"
	"github.com/edupulse/feedback-api/pkg/storage"
)

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

type reportPrewarmer interface {
	EnqueueAll()
}

// AdminAnalyticsHandler exposes the admin analytics and moderation endpoints.
type AdminAnalyticsHandler struct {
	analytics *service.AnalyticsService
	cache     *service.CacheService
	archive   *storage.Archive
	signer    *storage.DownloadSigner
	prewarm   reportPrewarmer
	csv       csvRenderer
	pdf       pdfRenderer
}

// AdminAnalyticsDeps carries the optional collaborators of the admin handler.
// Archive and Signer enable shareable export downloads, Prewarm recomputes
// cached reports after a purge. Any of them may be nil.
type AdminAnalyticsDeps struct {
	Archive *storage.Archive
	Signer  *storage.DownloadSigner
	Prewarm reportPrewarmer
}

// NewAdminAnalyticsHandler constructs the admin analytics handler.
func NewAdminAnalyticsHandler(analytics *service.AnalyticsService, cache *service.CacheService, deps ...AdminAnalyticsDeps) *AdminAnalyticsHandler {
	h := &AdminAnalyticsHandler{
		analytics: analytics,
		cache:     cache,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
	}
	if len(deps) > 0 {
		h.archive = deps[0].Archive
		h.signer = deps[0].Signer
		h.prewarm = deps[0].Prewarm
	}
	return h
}

// Overview godoc
// @Summary System overview
// @Description Platform-wide counts, feedback totals and sentiment summary
// @Tags Admin Analytics
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/analytics/overview [get]
func (h *AdminAnalyticsHandler) Overview(c *gin.Context) {
	start := time.Now()
	report, cacheHit, err := h.analytics.Overview(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	respondReport(c, start, cacheHit, report)
}

// Professors godoc
// @Summary Ranked professor analytics
// @Description Per-professor rollups sorted by the requested metric
// @Tags Admin Analytics
// @Produce json
// @Param sort_by query string false "Sort field" default(average_rating)
// @Param sort_order query string false "Sort order" Enums(asc, desc)
// @Param limit query int false "Row limit"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/analytics/professors [get]
func (h *AdminAnalyticsHandler) Professors(c *gin.Context) {
	sortBy, err := service.ParseSortField(c.Query("sort_by"))
	if err != nil {
		response.Error(c, err)
		return
	}
	order, err := service.ParseSortOrder(c.Query("sort_order"))
	if err != nil {
		response.Error(c, err)
		return
	}
	limit, err := intQuery(c, "limit")
	if err != nil {
		response.Error(c, err)
		return
	}

	start := time.Now()
	entries, cacheHit, err := h.analytics.ProfessorAnalytics(c.Request.Context(), service.ProfessorAnalyticsParams{
		Limit:     limit,
		SortBy:    sortBy,
		SortOrder: order,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	respondReport(c, start, cacheHit, entries)
}

// Classrooms godoc
// @Summary Classroom analytics
// @Description Per-classroom rollups, optionally filtered by status
// @Tags Admin Analytics
// @Produce json
// @Param status query string false "Classroom status" Enums(active, archived)
// @Param limit query int false "Row limit"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/analytics/classrooms [get]
func (h *AdminAnalyticsHandler) Classrooms(c *gin.Context) {
	limit, err := intQuery(c, "limit")
	if err != nil {
		response.Error(c, err)
		return
	}

	start := time.Now()
	entries, cacheHit, err := h.analytics.ClassroomAnalytics(c.Request.Context(), service.ClassroomAnalyticsParams{
		Status: c.Query("status"),
		Limit:  limit,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	respondReport(c, start, cacheHit, entries)
}

// Subjects godoc
// @Summary Subject analytics
// @Description Per-subject rollups sorted by average rating
// @Tags Admin Analytics
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/analytics/subjects [get]
func (h *AdminAnalyticsHandler) Subjects(c *gin.Context) {
	start := time.Now()
	entries, cacheHit, err := h.analytics.SubjectAnalytics(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	respondReport(c, start, cacheHit, entries)
}

// Engagement godoc
// @Summary Student engagement
// @Description Enrollment and activity metrics with rating histogram and most active students
// @Tags Admin Analytics
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/analytics/engagement [get]
func (h *AdminAnalyticsHandler) Engagement(c *gin.Context) {
	start := time.Now()
	report, cacheHit, err := h.analytics.StudentEngagement(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	respondReport(c, start, cacheHit, report)
}

// Trends godoc
// @Summary System trends
// @Description Daily registration, classroom, feedback and sentiment series
// @Tags Admin Analytics
// @Produce json
// @Param days query int false "Lookback window in days" default(30)
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/analytics/trends [get]
func (h *AdminAnalyticsHandler) Trends(c *gin.Context) {
	days, err := intQuery(c, "days")
	if err != nil {
		response.Error(c, err)
		return
	}

	start := time.Now()
	report, cacheHit, err := h.analytics.Trends(c.Request.Context(), days)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondReport(c, start, cacheHit, report)
}

// Moderation godoc
// @Summary Moderation queue
// @Description Low-rated classroom flags and recent negative feedback
// @Tags Admin Analytics
// @Produce json
// @Param limit query int false "Row limit"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/analytics/moderation [get]
func (h *AdminAnalyticsHandler) Moderation(c *gin.Context) {
	limit, err := intQuery(c, "limit")
	if err != nil {
		response.Error(c, err)
		return
	}

	start := time.Now()
	report, cacheHit, err := h.analytics.Moderation(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondReport(c, start, cacheHit, report)
}

// AIInsights godoc
// @Summary AI insight coverage
// @Description Summarizer coverage counts plus classrooms carrying AI output
// @Tags Admin Analytics
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/analytics/ai-insights [get]
func (h *AdminAnalyticsHandler) AIInsights(c *gin.Context) {
	start := time.Now()
	report, cacheHit, err := h.analytics.AIInsights(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	respondReport(c, start, cacheHit, report)
}

// Export godoc
// @Summary Export analytics snapshot
// @Description Composed report in json, csv or pdf form
// @Tags Admin Analytics
// @Produce json
// @Param format query string false "Output format" Enums(json, csv, pdf) default(json)
// @Param archive query bool false "Store the file and return a signed download link instead of the raw bytes"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/analytics/export [get]
func (h *AdminAnalyticsHandler) Export(c *gin.Context) {
	format := c.DefaultQuery("format", "json")
	switch format {
	case "json", "csv", "pdf":
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported format %q", format)))
		return
	}
	archived := c.Query("archive") == "true"
	if archived {
		if format == "json" {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "archive requires format=csv or format=pdf"))
			return
		}
		if h.archive == nil || h.signer == nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "export archiving is not configured"))
			return
		}
	}

	start := time.Now()
	report, err := h.analytics.Export(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	if format == "json" {
		respondReport(c, start, false, report)
		return
	}

	dataset := buildExportDataset(report)
	filename := "feedback-analytics-" + report.GeneratedAt.Format("20060102-150405") + "." + format

	var (
		payload     []byte
		contentType string
	)
	switch format {
	case "csv":
		payload, err = h.csv.Render(dataset)
		contentType = "text/csv"
	case "pdf":
		payload, err = h.pdf.Render(dataset, "Feedback Analytics Report")
		contentType = "application/pdf"
	}
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export"))
		return
	}

	if archived {
		h.respondArchived(c, filename, payload)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Header("Content-Type", contentType)
	c.Data(http.StatusOK, contentType, payload)
}

func (h *AdminAnalyticsHandler) respondArchived(c *gin.Context, filename string, payload []byte) {
	relPath, err := h.archive.Store(filename, payload)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to archive export"))
		return
	}
	token, expiresAt, err := h.signer.Sign(relPath)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download link"))
		return
	}
	response.JSON(c, http.StatusOK, gin.H{
		"file":         filename,
		"download_url": "/admin/analytics/export/download?token=" + token,
		"expires_at":   expiresAt.UTC(),
	})
}

// Download godoc
// @Summary Download an archived export
// @Description Serves a previously archived export file. The token from the archive response is the only credential required.
// @Tags Admin Analytics
// @Param token query string true "Signed download token"
// @Success 200
// @Failure 401 {object} response.Envelope
// @Router /admin/analytics/export/download [get]
func (h *AdminAnalyticsHandler) Download(c *gin.Context) {
	if h.archive == nil || h.signer == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "export archiving is not configured"))
		return
	}
	relPath, err := h.signer.Verify(c.Query("token"))
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid download token"))
		return
	}
	payload, err := h.archive.Read(relPath)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "archived export not found"))
		return
	}
	contentType := "application/octet-stream"
	switch {
	case strings.HasSuffix(relPath, ".csv"):
		contentType = "text/csv"
	case strings.HasSuffix(relPath, ".pdf"):
		contentType = "application/pdf"
	}
	c.Header("Content-Disposition", `attachment; filename="`+path.Base(relPath)+`"`)
	c.Data(http.StatusOK, contentType, payload)
}

// PurgeCache godoc
// @Summary Purge report cache
// @Description Drops every cached report snapshot, typically after a bulk data load
// @Tags Admin Analytics
// @Success 204
// @Security BearerAuth
// @Router /admin/analytics/cache [delete]
func (h *AdminAnalyticsHandler) PurgeCache(c *gin.Context) {
	if err := h.cache.Invalidate(c.Request.Context(), "reports*"); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to purge cache"))
		return
	}
	if h.prewarm != nil {
		h.prewarm.EnqueueAll()
	}
	response.NoContent(c)
}

// buildExportDataset flattens the professor rollup section into the tabular
// shape the CSV and PDF renderers consume.
func buildExportDataset(report *dto.ExportReport) export.Dataset {
	headers := []string{"Professor", "Email", "Classrooms", "Students", "Ratings", "Avg Rating", "Positive %", "Completion %"}
	rows := make([]map[string]string, 0, len(report.ProfessorAnalytics))
	for _, entry := range report.ProfessorAnalytics {
		rows = append(rows, map[string]string{
			"Professor":    entry.Name,
			"Email":        entry.Email,
			"Classrooms":   strconv.Itoa(entry.TotalClassrooms),
			"Students":     strconv.Itoa(entry.TotalStudents),
			"Ratings":      strconv.Itoa(entry.TotalRatings),
			"Avg Rating":   strconv.FormatFloat(entry.AverageRating, 'f', 2, 64),
			"Positive %":   strconv.FormatFloat(entry.PositivePercentage, 'f', 2, 64),
			"Completion %": strconv.FormatFloat(entry.FeedbackCompletionRate, 'f', 2, 64),
		})
	}
	return export.Dataset{Headers: headers, Rows: rows}
}
