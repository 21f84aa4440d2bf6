// Package httpapi exposes attendance marking sessions over HTTP.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"rollcall/internal/academy"
	"rollcall/internal/attendance"
	"rollcall/internal/auth"
	"rollcall/internal/journal"
)

// Directory is the read side of the academy API used outside marking sessions.
type Directory interface {
	ListSessions(ctx context.Context, page, size int) (attendance.SessionPage, error)
	AttendanceLogs(ctx context.Context, studentID string, year, month int) ([]attendance.LogEntry, error)
}

// Journal lists recorded submissions.
type Journal interface {
	ListBySession(ctx context.Context, sessionID string, limit int) ([]journal.Entry, error)
}

// HealthCheck reports one dependency's health.
type HealthCheck func(ctx context.Context) bool

// Handler serves the marking API.
type Handler struct {
	desk    *attendance.Desk
	dir     Directory
	journal Journal // nil when no database is configured
	checks  map[string]HealthCheck
	log     *zap.Logger
	now     func() time.Time
}

// New creates a handler.
func New(desk *attendance.Desk, dir Directory, j Journal, checks map[string]HealthCheck, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{desk: desk, dir: dir, journal: j, checks: checks, log: log, now: time.Now}
}

// Register mounts the routes. Everything under /v1 goes through mw.
func (h *Handler) Register(r gin.IRouter, mw ...gin.HandlerFunc) {
	r.GET("/healthz", h.Healthz)

	v1 := r.Group("/v1", mw...)
	v1.GET("/sessions", h.ListSessions)
	v1.GET("/sessions/:id/submissions", h.ListSubmissions)

	roster := v1.Group("/sessions/:id/roster")
	roster.POST("", h.OpenRoster)
	roster.GET("", h.GetRoster)
	roster.DELETE("", h.CancelRoster)
	roster.POST("/students/:studentId/toggle", h.Toggle)
	roster.PUT("/students/:studentId/remarks", h.SetRemarks)
	roster.POST("/mark-all", h.MarkAll)
	roster.POST("/confirmations/:actionId", h.Resolve)
	roster.POST("/submit", h.Submit)

	v1.GET("/students/:studentId/attendance", h.StudentHistory)
}

// Healthz reports dependency health; any failing check turns the status 503.
func (h *Handler) Healthz(c *gin.Context) {
	status := http.StatusOK
	body := gin.H{"status": "ok"}
	for name, check := range h.checks {
		ok := check(c.Request.Context())
		body[name] = ok
		if !ok {
			status = http.StatusServiceUnavailable
			body["status"] = "degraded"
		}
	}
	c.JSON(status, body)
}

// ListSessions proxies one page of sessions so the dashboard can refresh
// counts after a submission.
func (h *Handler) ListSessions(c *gin.Context) {
	page := queryInt(c, "page", 0)
	size := queryInt(c, "size", 20)
	res, err := h.dir.ListSessions(c.Request.Context(), page, size)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// OpenRoster takes (or re-takes) attendance for a session.
func (h *Handler) OpenRoster(c *gin.Context) {
	r, err := h.desk.Open(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, newRosterView(r, ""))
}

// GetRoster returns the open roster; ?q= narrows the rows shown.
func (h *Handler) GetRoster(c *gin.Context) {
	r, err := h.desk.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newRosterView(r, c.Query("q")))
}

// CancelRoster discards the roster without submitting.
func (h *Handler) CancelRoster(c *gin.Context) {
	if err := h.desk.Cancel(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Toggle flips one student's mark. 202 means a confirmation is needed.
func (h *Handler) Toggle(c *gin.Context) {
	r, pending, err := h.desk.Toggle(c.Request.Context(), c.Param("id"), c.Param("studentId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.respondPending(c, r, pending)
}

type remarksRequest struct {
	Remarks *string `json:"remarks" binding:"required"`
}

// SetRemarks replaces one student's remarks.
func (h *Handler) SetRemarks(c *gin.Context) {
	var req remarksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	r, err := h.desk.SetRemarks(c.Request.Context(), c.Param("id"), c.Param("studentId"), *req.Remarks)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newRosterView(r, ""))
}

type markAllRequest struct {
	Present *bool `json:"present" binding:"required"`
}

// MarkAll marks every student present or absent.
func (h *Handler) MarkAll(c *gin.Context) {
	var req markAllRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	r, pending, err := h.desk.MarkAll(c.Request.Context(), c.Param("id"), *req.Present)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.respondPending(c, r, pending)
}

type resolveRequest struct {
	Confirm *bool `json:"confirm" binding:"required"`
}

// Resolve answers a pending confirmation.
func (h *Handler) Resolve(c *gin.Context) {
	var req resolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	r, applied, err := h.desk.Resolve(c.Request.Context(), c.Param("id"), c.Param("actionId"), *req.Confirm)
	if err != nil {
		h.fail(c, err)
		return
	}
	view := newRosterView(r, "")
	view.Applied = &applied
	c.JSON(http.StatusOK, view)
}

// Submit sends the roster to the academy API.
func (h *Handler) Submit(c *gin.Context) {
	submittedBy := ""
	if claims, ok := auth.FromContext(c); ok {
		submittedBy = claims.Subject
	}
	sessionID := c.Param("id")
	if err := h.desk.Submit(c.Request.Context(), sessionID, submittedBy); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "submitted", "session_id": sessionID})
}

// ListSubmissions returns the journal of a session.
func (h *Handler) ListSubmissions(c *gin.Context) {
	if h.journal == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "submission journal not configured"})
		return
	}
	entries, err := h.journal.ListBySession(c.Request.Context(), c.Param("id"), queryInt(c, "limit", 50))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"submissions": entries})
}

// StudentHistory returns a student's month of attendance with totals.
// Year and month default to the current month.
func (h *Handler) StudentHistory(c *gin.Context) {
	now := h.now()
	year := queryInt(c, "year", now.Year())
	month := queryInt(c, "month", int(now.Month()))
	if month < 1 || month > 12 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "month must be between 1 and 12"})
		return
	}
	logs, err := h.dir.AttendanceLogs(c.Request.Context(), c.Param("studentId"), year, month)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"student_id": c.Param("studentId"),
		"year":       year,
		"month":      month,
		"logs":       logs,
		"stats":      attendance.Summarize(logs),
	})
}

func (h *Handler) respondPending(c *gin.Context, r *attendance.Roster, pending *attendance.PendingAction) {
	view := newRosterView(r, "")
	if pending != nil {
		c.JSON(http.StatusAccepted, view)
		return
	}
	c.JSON(http.StatusOK, view)
}

// fail maps an error to a status code and a user-visible message.
func (h *Handler) fail(c *gin.Context, err error) {
	var (
		subErr   *attendance.SubmissionError
		existErr *attendance.ExistingRecordFetchError
		apiErr   *academy.APIError
	)
	switch {
	case errors.Is(err, attendance.ErrRosterNotFound), errors.Is(err, attendance.ErrUnknownStudent),
		errors.Is(err, attendance.ErrNoPendingAction):
		c.JSON(http.StatusNotFound, gin.H{"error": message(err)})
	case errors.Is(err, attendance.ErrMissingSession):
		c.JSON(http.StatusBadRequest, gin.H{"error": message(err)})
	case errors.Is(err, attendance.ErrEmptyRoster), errors.Is(err, attendance.ErrSubmitting),
		errors.Is(err, attendance.ErrNotLoaded):
		c.JSON(http.StatusConflict, gin.H{"error": message(err)})
	case errors.As(err, &subErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": subErr.Message()})
	case errors.As(err, &existErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to load existing attendance"})
	case academy.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.As(err, &apiErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": apiErr.Error()})
	default:
		h.log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func message(err error) string {
	return strings.TrimPrefix(err.Error(), "attendance: ")
}

func queryInt(c *gin.Context, key string, fallback int) int {
	if v := c.Query(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}
