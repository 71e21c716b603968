// Package handler exposes the attendance services over HTTP.
package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"attendtrack/internal/attendance"
	"attendtrack/internal/auth"
	"attendtrack/internal/dates"
	"attendtrack/internal/model"
	"attendtrack/internal/motivation"
	"attendtrack/internal/schedule"
	"attendtrack/internal/semester"
)

type Handler struct {
	attendance *attendance.Service
	semester   *semester.Service
	motivation *motivation.Service
	loc        *time.Location
	log        *slog.Logger
}

func New(att *attendance.Service, sem *semester.Service, mot *motivation.Service, loc *time.Location, log *slog.Logger) *Handler {
	if loc == nil {
		loc = time.Local
	}
	if log == nil {
		log = slog.Default()
	}
	return &Handler{attendance: att, semester: sem, motivation: mot, loc: loc, log: log}
}

// Register mounts the API on an authenticated group.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("/config", h.GetConfig)
	rg.PUT("/config", h.PutConfig)
	rg.GET("/schedule", h.GetSchedule)
	rg.GET("/records", h.ListRecords)
	rg.PUT("/records", h.SetRecordStatus)
	rg.DELETE("/records/:id", h.DeleteRecord)
	rg.GET("/calendar", h.Calendar)
	rg.GET("/stats", h.Stats)
	rg.GET("/trend", h.Trend)
	rg.GET("/alerts", h.Alerts)
	rg.POST("/projection", h.Projection)
	rg.GET("/motivation", h.Motivation)
}

// ---------- Semester config ----------

func (h *Handler) GetConfig(c *gin.Context) {
	cfg, err := h.semester.Get(c.Request.Context(), auth.UserID(c))
	if err != nil {
		if model.IsStore(err) {
			h.log.Warn("store_read_failed", "op", "get_config", "user_id", auth.UserID(c), "error", err)
			c.JSON(http.StatusOK, gin.H{"configured": false, "degraded": true})
			return
		}
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"configured": true, "config": cfg})
}

func (h *Handler) PutConfig(c *gin.Context) {
	var req model.SemesterConfig
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	saved, err := h.semester.Save(c.Request.Context(), auth.UserID(c), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"configured": true, "config": saved})
}

// ---------- Schedule & records ----------

// GetSchedule returns the day plan for ?date= (today when omitted).
func (h *Handler) GetSchedule(c *gin.Context) {
	day := dates.Today(h.loc)
	if s := c.Query("date"); s != "" {
		d, err := dates.ParseIn(s, h.loc)
		if err != nil {
			h.writeError(c, model.NewValidationError("date", "Date must be a valid YYYY-MM-DD date"))
			return
		}
		day = d
	}
	plan, degraded, err := h.attendance.DayPlan(c.Request.Context(), auth.UserID(c), day)
	if err != nil {
		if !degradedNotConfigured(err, degraded) {
			h.writeError(c, err)
			return
		}
		plan = schedule.DayPlan{Date: dates.FormatLocalDate(day), DayOfWeek: schedule.DayOfWeek(day), Periods: []schedule.PlannedPeriod{}}
	}
	c.JSON(http.StatusOK, gin.H{"plan": plan, "degraded": degraded})
}

func (h *Handler) ListRecords(c *gin.Context) {
	rng, err := rangeQuery(c)
	if err != nil {
		h.writeError(c, err)
		return
	}
	recs, degraded := h.attendance.Records(c.Request.Context(), auth.UserID(c), rng)
	c.JSON(http.StatusOK, gin.H{"records": recs, "degraded": degraded})
}

type setStatusRequest struct {
	SubjectID string  `json:"subjectId" binding:"required"`
	Date      string  `json:"date" binding:"required"`
	Status    string  `json:"status" binding:"required"`
	Notes     *string `json:"notes"`
}

// SetRecordStatus sets one (subject, date) cell. Status "pending" clears it.
// A failed write answers with the reverted cell.
func (h *Handler) SetRecordStatus(c *gin.Context) {
	var req setStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cell, err := h.attendance.SetStatus(c.Request.Context(), auth.UserID(c), req.SubjectID, req.Date, model.PeriodStatus(req.Status), req.Notes)
	if err != nil {
		if cell != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "could not save attendance", "cell": cell})
			return
		}
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cell": cell})
}

func (h *Handler) DeleteRecord(c *gin.Context) {
	if err := h.attendance.DeleteRecord(c.Request.Context(), auth.UserID(c), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ---------- Statistics ----------

func (h *Handler) Calendar(c *gin.Context) {
	rng, err := rangeQuery(c)
	if err != nil {
		h.writeError(c, err)
		return
	}
	days, degraded := h.attendance.Calendar(c.Request.Context(), auth.UserID(c), rng)
	c.JSON(http.StatusOK, gin.H{"days": days, "degraded": degraded})
}

func (h *Handler) Stats(c *gin.Context) {
	sum, degraded, err := h.attendance.Summary(c.Request.Context(), auth.UserID(c))
	if err != nil && !degradedNotConfigured(err, degraded) {
		h.writeError(c, err)
		return
	}
	if sum.Subjects == nil {
		sum.Subjects = []attendance.SubjectStats{}
	}
	c.JSON(http.StatusOK, gin.H{
		"subjects":  sum.Subjects,
		"overall":   sum.Overall,
		"attended":  sum.Attended,
		"missed":    sum.Missed,
		"cancelled": sum.Excused,
		"degraded":  degraded,
	})
}

func (h *Handler) Trend(c *gin.Context) {
	weeks, degraded, err := h.attendance.Trend(c.Request.Context(), auth.UserID(c))
	if err != nil && !degradedNotConfigured(err, degraded) {
		h.writeError(c, err)
		return
	}
	if weeks == nil {
		weeks = []attendance.TrendPoint{}
	}
	c.JSON(http.StatusOK, gin.H{"weeks": weeks, "degraded": degraded})
}

func (h *Handler) Alerts(c *gin.Context) {
	alerts, degraded, err := h.attendance.Alerts(c.Request.Context(), auth.UserID(c))
	if err != nil && !degradedNotConfigured(err, degraded) {
		h.writeError(c, err)
		return
	}
	if alerts == nil {
		alerts = []attendance.SubjectAlert{}
	}
	c.JSON(http.StatusOK, gin.H{"alerts": alerts, "degraded": degraded})
}

type projectionRequest struct {
	UpcomingAttended int `json:"upcomingAttended" binding:"min=0"`
	UpcomingTotal    int `json:"upcomingTotal" binding:"min=0"`
}

func (h *Handler) Projection(c *gin.Context) {
	var req projectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p, degraded, err := h.attendance.Projection(c.Request.Context(), auth.UserID(c), req.UpcomingAttended, req.UpcomingTotal)
	if err != nil {
		if !degradedNotConfigured(err, degraded) {
			h.writeError(c, err)
			return
		}
		p = attendance.Projection{UpcomingAttended: req.UpcomingAttended, UpcomingTotal: req.UpcomingTotal}
	}
	c.JSON(http.StatusOK, gin.H{"projection": p, "degraded": degraded})
}

// ---------- Motivation ----------

// Motivation returns today's message; ?force=true regenerates it.
func (h *Handler) Motivation(c *gin.Context) {
	force, _ := strconv.ParseBool(c.Query("force"))
	userID := auth.UserID(c)

	var prompt motivation.Prompt
	if sum, _, err := h.attendance.Summary(c.Request.Context(), userID); err == nil {
		prompt = motivation.Prompt{
			Percentage: sum.Overall.Percentage,
			Total:      sum.Attended + sum.Missed,
			Attended:   sum.Attended,
		}
	}
	c.JSON(http.StatusOK, h.motivation.Message(c.Request.Context(), userID, prompt, force))
}

// ---------- helpers ----------

func (h *Handler) writeError(c *gin.Context, err error) {
	var ve *model.ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": ve.Reason, "field": ve.Field})
	case errors.Is(err, model.ErrNotConfigured):
		c.JSON(http.StatusNotFound, gin.H{"error": "semester not configured", "configured": false})
	case model.IsStore(err):
		c.JSON(http.StatusBadGateway, gin.H{"error": "storage unavailable"})
	default:
		h.log.Error("request_failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// degradedNotConfigured reports a config read that failed in the store, which
// is served as an empty result rather than a 404.
func degradedNotConfigured(err error, degraded bool) bool {
	return degraded && errors.Is(err, model.ErrNotConfigured)
}

// rangeQuery reads optional ?from= and ?to= YYYY-MM-DD bounds.
func rangeQuery(c *gin.Context) (*model.DateRange, error) {
	from, to := c.Query("from"), c.Query("to")
	if from == "" && to == "" {
		return nil, nil
	}
	for field, v := range map[string]string{"from": from, "to": to} {
		if v == "" {
			continue
		}
		if _, err := dates.Parse(v); err != nil {
			return nil, model.NewValidationError(field, "Dates must be in YYYY-MM-DD format")
		}
	}
	if from != "" && to != "" && from > to {
		return nil, model.NewValidationError("from", "Start date must not be after end date")
	}
	return &model.DateRange{From: from, To: to}, nil
}
