package handlers

import (
	"time"

	"ad-ranking-system/internal/config"
	"ad-ranking-system/internal/events"
	"ad-ranking-system/internal/ledger"
	"ad-ranking-system/internal/middleware"
	"ad-ranking-system/internal/repository"
	"ad-ranking-system/internal/services"
	"ad-ranking-system/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type Server struct {
	db         *gorm.DB
	logger     *logrus.Logger
	sessions   *session.Store
	ledger     *ledger.Ledger
	ads        *repository.AdRepository
	prefs      *repository.PreferencesRepository
	counters   *repository.MetricsRepository
	ranking    *services.RankingService
	engagement *services.EngagementService
	recommend  *services.RecommendService
	eventQueue *services.EventQueue

	admins      []string
	corsOrigins []string
	sessionTTL  time.Duration
}

// NewServer wires the repositories and services. Engagement events go
// through an in-process queue to publisher, which eventually lands them in
// userLedger; the queue's processor is started by the caller.
func NewServer(db *gorm.DB, sessions *session.Store, publisher events.Publisher, userLedger *ledger.Ledger, logger *logrus.Logger, cfg *config.Config) *Server {
	eventQueue := services.NewEventQueue(publisher, logger, cfg.EventQueueSize)

	ads := repository.NewAdRepository(db)
	prefs := repository.NewPreferencesRepository(db, logger)
	counters := repository.NewMetricsRepository(db, logger)

	return &Server{
		db:         db,
		logger:     logger,
		sessions:   sessions,
		ledger:     userLedger,
		ads:        ads,
		prefs:      prefs,
		counters:   counters,
		ranking:    services.NewRankingService(ads, prefs, counters, eventQueue, logger, cfg.RankLimit),
		engagement: services.NewEngagementService(ads, prefs, counters, eventQueue, logger, cfg.CatalogExport),
		recommend:  services.NewRecommendService(ads, counters, eventQueue, logger, cfg.RecommendLimit),
		eventQueue: eventQueue,

		admins:      cfg.AdminUsers,
		corsOrigins: cfg.CORSOrigins,
		sessionTTL:  cfg.SessionTTL,
	}
}

func (s *Server) GetEventQueue() *services.EventQueue {
	return s.eventQueue
}

// Router builds the gin engine with every route mounted.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.LoggingMiddleware(s.logger))
	r.Use(middleware.CORSMiddleware(s.corsOrigins))

	api := r.Group("/api/v1")
	api.Use(middleware.SessionMiddleware(s.sessions, s.logger))
	{
		api.POST("/sessions", s.CreateSession)
		api.DELETE("/sessions", s.EndSession)

		api.GET("/ads", s.GetAds)
		api.GET("/catalog", s.GetCatalog)
		api.POST("/ads/:id/click", s.ClickAd)
		api.GET("/metrics/ads", s.GetAdMetrics)

		user := api.Group("")
		user.Use(middleware.RequireSession())
		{
			user.POST("/ads/:id/like", s.LikeAd)
			user.POST("/ads/:id/dislike", s.DislikeAd)
			user.GET("/recommendations", s.GetRecommendations)
			user.POST("/recommendations/:id/click", s.RecommendClick)
			user.POST("/recommendations/:id/dislike", s.RecommendDislike)

			user.POST("/ads", s.PublishAd)
			user.GET("/my-ads", s.MyAds)
			user.GET("/my-ledger", s.MyLedger)
			user.POST("/ads/:id/toggle", s.ToggleAd)
			user.DELETE("/ads/:id", s.DeleteAd)
		}

		admin := api.Group("/admin")
		admin.Use(middleware.RequireAdmin(s.admins))
		{
			admin.GET("/metrics", s.GetMetricsSnapshot)
			admin.GET("/ledger", s.LedgerUsers)
		}
	}

	r.GET("/health", s.Health)
	r.GET("/metrics", PrometheusHandler())
	return r
}
