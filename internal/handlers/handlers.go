package handlers

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"ad-ranking-system/internal/ledger"
	"ad-ranking-system/internal/middleware"
	"ad-ranking-system/internal/models"
	"ad-ranking-system/internal/session"

	"github.com/gin-gonic/gin"
)

type sessionRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

// CreateSession logs a user in: it starts a session with a fresh ranking
// seed and makes sure the user has a preference document.
func (s *Server) CreateSession(c *gin.Context) {
	var req sessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sess, err := s.sessions.Start(c.Request.Context(), req.UserID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if err := s.prefs.Init(c.Request.Context(), sess.UserID); err != nil {
		s.logger.WithError(err).WithField("user_id", sess.UserID).Warn("Failed to init preferences")
	}

	c.SetCookie(middleware.SessionCookie, sess.Token, int(s.sessionTTL.Seconds()), "/", "", false, true)
	c.JSON(http.StatusCreated, sess)
}

func (s *Server) EndSession(c *gin.Context) {
	token := middleware.SessionToken(c)
	if token == "" {
		c.JSON(http.StatusForbidden, gin.H{"error": "not logged in"})
		return
	}
	if err := s.sessions.End(c.Request.Context(), token); err != nil {
		s.respondError(c, err)
		return
	}
	c.SetCookie(middleware.SessionCookie, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) GetAdMetrics(c *gin.Context) {
	global, err := s.counters.Global(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}

	type adMetrics struct {
		models.AdMetrics
		CTRPercent float64 `json:"ctr_percent"`
	}
	out := make([]adMetrics, 0, len(global))
	for _, m := range global {
		out = append(out, adMetrics{AdMetrics: m, CTRPercent: roundPercent(m.CTRPercent())})
	}
	sortByAdID(out, func(m adMetrics) uint { return m.AdID })

	c.JSON(http.StatusOK, gin.H{"metrics": out})
}

func (s *Server) GetMetricsSnapshot(c *gin.Context) {
	snap, err := s.counters.Snapshot(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// MyLedger returns the requester's per-user ledger. It is built from the
// event log and may trail the counters in /metrics/ads.
func (s *Server) MyLedger(c *gin.Context) {
	rows, err := s.ledger.Rows(userID(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	if rows == nil {
		rows = []ledger.Row{}
	}
	c.JSON(http.StatusOK, gin.H{"rows": rows})
}

func (s *Server) LedgerUsers(c *gin.Context) {
	users, err := s.ledger.Users()
	if err != nil {
		s.respondError(c, err)
		return
	}
	if users == nil {
		users = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

func (s *Server) Health(c *gin.Context) {
	status, state, dbStatus := http.StatusOK, "healthy", "ok"

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if sqlDB, err := s.db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
		status, state, dbStatus = http.StatusServiceUnavailable, "degraded", "unreachable"
	}

	c.JSON(status, gin.H{
		"status":     state,
		"database":   dbStatus,
		"queue_size": s.eventQueue.Len(),
		"timestamp":  time.Now().Unix(),
		"version":    "1.0.0",
	})
}

// respondError maps service errors onto status codes. Unexpected errors
// are logged and hidden from the client.
func (s *Server) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": "not logged in"})
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": models.ErrNotFound.Error()})
	case errors.Is(err, models.ErrInvalidAd), errors.Is(err, session.ErrInvalidUser), errors.Is(err, ledger.ErrInvalidUser):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		s.logger.WithError(err).WithField("path", c.FullPath()).Error("Request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// userID is the requester's user id, empty when anonymous.
func userID(c *gin.Context) string {
	if sess := middleware.CurrentSession(c); sess.Authenticated() {
		return sess.UserID
	}
	return ""
}

func adID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ad id"})
		return 0, false
	}
	return uint(id), true
}

func roundPercent(v float64) float64 {
	return math.Round(v*100) / 100
}
