package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tphakala/wildlife-alert/internal/alerts"
	"github.com/tphakala/wildlife-alert/internal/datastore"
	"github.com/tphakala/wildlife-alert/internal/logger"
)

const maxListLimit = 500

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	Code          int    `json:"code"`
	CorrelationID string `json:"correlation_id"`
}

// CreateAlertRequest is the body of POST /api/v1/alerts.
type CreateAlertRequest struct {
	Label     string `json:"label"`
	ImagePath string `json:"image_path"`
	Message   string `json:"message"`
	Notify    bool   `json:"notify"`
}

// StatusRequest is the body of PATCH /api/v1/alerts/status.
type StatusRequest struct {
	ImagePath    string `json:"image_path"`
	TelegramSent *bool  `json:"telegram_sent,omitempty"`
	Synced       *bool  `json:"synced,omitempty"`
}

// FailureView describes one failed pipeline step.
type FailureView struct {
	Category string `json:"category"`
	Message  string `json:"message"`
}

// AlertResponse is the reply to POST /api/v1/alerts.
type AlertResponse struct {
	AlertID    uint          `json:"alert_id,omitempty"`
	Timestamp  string        `json:"timestamp"`
	CloudURL   string        `json:"cloud_url,omitempty"`
	PublicID   string        `json:"public_id,omitempty"`
	DocumentID string        `json:"document_id,omitempty"`
	Location   string        `json:"location"`
	Latitude   *float64      `json:"latitude"`
	Longitude  *float64      `json:"longitude"`
	Notified   bool          `json:"notified"`
	Degraded   bool          `json:"degraded"`
	Failures   []FailureView `json:"failures"`
	TraceID    string        `json:"trace_id"`
}

// NewAlertResponse converts a pipeline outcome into its JSON view.
func NewAlertResponse(out *alerts.Outcome) AlertResponse {
	resp := AlertResponse{
		AlertID:    out.AlertID,
		Timestamp:  out.Timestamp,
		CloudURL:   out.CloudURL,
		PublicID:   out.PublicID,
		DocumentID: out.DocumentID,
		Location:   out.Location,
		Latitude:   out.Latitude,
		Longitude:  out.Longitude,
		Notified:   out.Notified,
		Degraded:   out.Degraded(),
		Failures:   make([]FailureView, 0, len(out.Failures)),
		TraceID:    out.TraceID,
	}
	for _, f := range out.Failures {
		resp.Failures = append(resp.Failures, FailureView{Category: string(f.Category), Message: f.Error()})
	}
	return resp
}

// handleError logs err and writes an ErrorResponse.
func (s *Server) handleError(c echo.Context, err error, message string, code int) error {
	resp := ErrorResponse{
		Message:       message,
		Code:          code,
		CorrelationID: c.Response().Header().Get(echo.HeaderXRequestID),
	}
	if err != nil {
		resp.Error = err.Error()
	} else {
		resp.Error = message
	}

	log := s.logger.WithContext(c.Request().Context())
	if code >= http.StatusInternalServerError {
		log.Error("API error", logger.String("message", message), logger.Int("code", code), logger.Error(err))
	} else {
		log.Debug("API request rejected", logger.String("message", message), logger.Int("code", code))
	}
	return c.JSON(code, resp)
}

// healthCheck handles GET /api/v1/health.
func (s *Server) healthCheck(c echo.Context) error {
	uptime := time.Since(s.startTime)
	status, code, database := "healthy", http.StatusOK, "unknown"

	if s.database != nil {
		database = "ok"
		if err := s.database.Ping(c.Request().Context()); err != nil {
			status, code, database = "unhealthy", http.StatusServiceUnavailable, "error"
			s.logger.Warn("health check failed", logger.Error(err))
		}
	}

	return c.JSON(code, map[string]any{
		"status":         status,
		"database":       database,
		"notifications":  s.notificationsEnabled(),
		"uptime":         uptime.Round(time.Second).String(),
		"uptime_seconds": uptime.Seconds(),
		"timestamp":      time.Now().Format(time.RFC3339),
	})
}

// listAlerts handles GET /api/v1/alerts?limit=N.
func (s *Server) listAlerts(c echo.Context) error {
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return s.handleError(c, err, "limit must be a non-negative integer", http.StatusBadRequest)
		}
		limit = min(n, maxListLimit)
	}

	items, err := s.alerts.GetLatestAlerts(c.Request().Context(), limit)
	if err != nil {
		return s.handleError(c, err, "failed to read alerts", http.StatusInternalServerError)
	}
	if items == nil {
		items = []datastore.AlertSummary{}
	}
	return c.JSON(http.StatusOK, map[string]any{
		"alerts": items,
		"count":  len(items),
	})
}

// createAlert handles POST /api/v1/alerts. Step failures are reported in
// the body; the request itself still succeeds.
func (s *Server) createAlert(c echo.Context) error {
	var req CreateAlertRequest
	if err := c.Bind(&req); err != nil {
		return s.handleError(c, err, "invalid request body", http.StatusBadRequest)
	}
	req.Label = strings.TrimSpace(req.Label)
	req.ImagePath = strings.TrimSpace(req.ImagePath)
	if req.Label == "" || req.ImagePath == "" {
		return s.handleError(c, nil, "label and image_path are required", http.StatusBadRequest)
	}

	var n alerts.Notifier
	if req.Notify && s.notifier != nil {
		n = s.notifier
	}
	out := s.alerts.Process(c.Request().Context(), n, req.Label, req.ImagePath, req.Message)
	return c.JSON(http.StatusCreated, NewAlertResponse(&out))
}

// updateAlertStatus handles PATCH /api/v1/alerts/status.
func (s *Server) updateAlertStatus(c echo.Context) error {
	var req StatusRequest
	if err := c.Bind(&req); err != nil {
		return s.handleError(c, err, "invalid request body", http.StatusBadRequest)
	}
	if strings.TrimSpace(req.ImagePath) == "" {
		return s.handleError(c, nil, "image_path is required", http.StatusBadRequest)
	}

	rows, err := s.alerts.UpdateAlertStatus(c.Request().Context(), req.ImagePath,
		datastore.StatusUpdate{TelegramSent: req.TelegramSent, Synced: req.Synced})
	if err != nil {
		return s.handleError(c, err, "failed to update alert status", http.StatusInternalServerError)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"image_path":    req.ImagePath,
		"rows_affected": rows,
	})
}

// notificationsEnabled reports whether alerts would actually be delivered.
// A notifier without credentials is wired but disabled.
func (s *Server) notificationsEnabled() bool {
	if s.notifier == nil {
		return false
	}
	if n, ok := s.notifier.(interface{ Enabled() bool }); ok {
		return n.Enabled()
	}
	return true
}
