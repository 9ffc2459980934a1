package handlers

import (
	"net/http"
	"sort"
	"strconv"

	"ad-ranking-system/internal/middleware"
	"ad-ranking-system/internal/models"
	"ad-ranking-system/internal/ranking"
	"ad-ranking-system/internal/services"

	"github.com/gin-gonic/gin"
)

// GetAds returns the requester's ranked ads. Anonymous requesters get the
// CTR order.
func (s *Server) GetAds(c *gin.Context) {
	req := services.RankRequest{}
	if sess := middleware.CurrentSession(c); sess.Authenticated() {
		req.UserID = sess.UserID
		req.SessionSeed = sess.Seed
	}

	ads, err := s.ranking.RankedAds(c.Request.Context(), req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ads": ads})
}

// GetCatalog lists the active ads unranked, for browsing.
func (s *Server) GetCatalog(c *gin.Context) {
	ads, err := s.ads.ListActive(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ads": ads})
}

func (s *Server) LikeAd(c *gin.Context) {
	id, ok := adID(c)
	if !ok {
		return
	}
	prefs, err := s.engagement.Like(c.Request.Context(), userID(c), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "preferences": prefs})
}

func (s *Server) DislikeAd(c *gin.Context) {
	id, ok := adID(c)
	if !ok {
		return
	}
	prefs, err := s.engagement.Dislike(c.Request.Context(), userID(c), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "preferences": prefs})
}

func (s *Server) ClickAd(c *gin.Context) {
	id, ok := adID(c)
	if !ok {
		return
	}
	if err := s.engagement.Click(c.Request.Context(), userID(c), id); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) GetRecommendations(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit parameter"})
			return
		}
		limit = n
	}
	page := ranking.PageContext{
		CurrentPage: c.Query("page"),
		Interests:   c.Query("interests"),
	}

	recs, err := s.recommend.Recommend(c.Request.Context(), userID(c), page, limit)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recommendations": recs})
}

func (s *Server) RecommendClick(c *gin.Context) {
	id, ok := adID(c)
	if !ok {
		return
	}
	if err := s.recommend.RecordClick(c.Request.Context(), userID(c), id); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) RecommendDislike(c *gin.Context) {
	id, ok := adID(c)
	if !ok {
		return
	}
	if err := s.recommend.RecordDislike(c.Request.Context(), userID(c), id); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) PublishAd(c *gin.Context) {
	var req models.PublishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ad, err := s.engagement.Publish(c.Request.Context(), userID(c), req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ad)
}

func (s *Server) MyAds(c *gin.Context) {
	ads, err := s.engagement.MyAds(c.Request.Context(), userID(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ads": ads})
}

func (s *Server) ToggleAd(c *gin.Context) {
	id, ok := adID(c)
	if !ok {
		return
	}
	active, err := s.engagement.Toggle(c.Request.Context(), userID(c), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "is_active": active})
}

func (s *Server) DeleteAd(c *gin.Context) {
	id, ok := adID(c)
	if !ok {
		return
	}
	if err := s.engagement.Delete(c.Request.Context(), userID(c), id); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func sortByAdID[T any](items []T, id func(T) uint) {
	sort.Slice(items, func(i, j int) bool { return id(items[i]) < id(items[j]) })
}
