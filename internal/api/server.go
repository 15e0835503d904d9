package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"portfolio-site/internal/auth"
	"portfolio-site/internal/config"
	"portfolio-site/internal/contact"
	"portfolio-site/internal/db"
	"portfolio-site/internal/ledger"
	"portfolio-site/internal/limiter"
	"portfolio-site/internal/notify"
	"portfolio-site/internal/redis"
	"portfolio-site/internal/visitor"
)

const sessionCookie = "_pp_sess"

type Server struct {
	log     *slog.Logger
	db      *db.DB
	redis   *redis.Client
	cfg     config.Config
	router  *gin.Engine
	login   *auth.Guard
	contact *contact.Guard
	visits  *visitor.Recorder
}

func NewServer(log *slog.Logger, dbConn *db.DB, redisClient *redis.Client, cfg config.Config) *Server {
	store := ledger.New(dbConn)
	lim := limiter.New(store, log)
	mailer := notify.NewMailer(notify.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPPassword,
		From:     cfg.FromEmail,
		To:       cfg.AdminEmail,
	}, log)

	s := &Server{
		log:     log,
		db:      dbConn,
		redis:   redisClient,
		cfg:     cfg,
		router:  gin.New(),
		login:   auth.NewGuard(store, lim, log, cfg.SecretKey, cfg.AdminPassword),
		contact: contact.NewGuard(store, lim, mailer, log),
		visits:  visitor.New(store, log),
	}

	gin.SetMode(gin.ReleaseMode)
	r := s.router
	r.Use(gin.Recovery())
	r.Use(s.corsMiddleware())
	r.Use(s.loggingMiddleware())
	r.Use(s.rateLimitMiddleware())

	r.LoadHTMLGlob("web/templates/*.html")
	r.Static("/static", "./web/static")

	// public pages
	r.GET("/", s.index)
	r.GET("/project/:slug", s.projectDetail)
	r.POST("/api/contact", s.contactAPI)
	r.GET("/health", s.health)

	// custom admin panel
	r.GET("/admin-panel/login", s.adminLogin)
	r.POST("/admin-panel/login", s.adminLogin)
	r.GET("/admin-panel/logout", s.adminLogout)

	panel := r.Group("/admin-panel")
	panel.Use(s.adminRequired())
	{
		panel.GET("/", s.adminDashboard)
		panel.GET("/visitors", s.adminVisitors)
		panel.GET("/messages", s.adminMessages)
		panel.GET("/updates", s.adminUpdates)
	}

	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) ctx(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), 10*time.Second)
}
