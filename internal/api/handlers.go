package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"portfolio-site/internal/contact"
	"portfolio-site/internal/models"
	"portfolio-site/internal/security"
)

// projectTemplates maps the public project slugs to their templates. Unknown
// slugs 404.
var projectTemplates = map[string]string{
	"inventory-system": "project-inventory-system.html",
	"joint-force":      "project-joint-force.html",
	"example":          "project-example.html",
}

// trackVisit records the page view. Failures stay inside the recorder; the
// page renders either way.
func (s *Server) trackVisit(c *gin.Context) {
	ctx, cancel := s.ctx(c)
	defer cancel()
	s.visits.Record(ctx,
		security.ClientIPFromRequest(c.Request),
		c.Request.URL.Path,
		c.Request.Referer(),
		c.Request.UserAgent(),
	)
}

// siteSettings loads the singleton settings row. Zero-value settings on
// error: the public pages must render even when the database is down.
func (s *Server) siteSettings(c *gin.Context) models.SiteSettings {
	var st models.SiteSettings
	ctx, cancel := s.ctx(c)
	defer cancel()
	err := s.db.Pool.QueryRow(ctx,
		`SELECT site_title, hero_title, hero_subtitle, about_text,
		        github_url, linkedin_url, twitter_url, email
		 FROM site_settings WHERE id = 1`,
	).Scan(&st.SiteTitle, &st.HeroTitle, &st.HeroSubtitle, &st.AboutText,
		&st.GitHubURL, &st.LinkedInURL, &st.TwitterURL, &st.Email)
	if err != nil {
		s.log.Warn("site_settings_load_failed", "error", err)
	}
	return st
}

func (s *Server) index(c *gin.Context) {
	s.trackVisit(c)
	c.HTML(http.StatusOK, "index.html", gin.H{"site": s.siteSettings(c)})
}

func (s *Server) projectDetail(c *gin.Context) {
	s.trackVisit(c)
	tmpl, ok := projectTemplates[c.Param("slug")]
	if !ok {
		c.HTML(http.StatusNotFound, "404.html", gin.H{})
		return
	}
	c.HTML(http.StatusOK, tmpl, gin.H{"site": s.siteSettings(c)})
}

func (s *Server) contactAPI(c *gin.Context) {
	var sub contact.Submission
	if err := c.ShouldBindJSON(&sub); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid JSON."})
		return
	}

	ctx, cancel := s.ctx(c)
	defer cancel()

	ip := security.ClientIPFromRequest(c.Request)
	_, err := s.contact.Submit(ctx, ip, sub)

	var verr *contact.ValidationError
	switch {
	case err == nil:
		// accepted, or a honeypot catch masked as success
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Message sent successfully!"})
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": verr.Reason})
	case errors.Is(err, contact.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, gin.H{"success": false, "error": "Too many messages. Please wait a few minutes."})
	default:
		s.log.Error("contact_save_failed", "ip", ip, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Database error."})
	}
}

func (s *Server) health(c *gin.Context) {
	ctx, cancel := s.ctx(c)
	defer cancel()

	dbStatus := "connected"
	if err := s.db.Pool.Ping(ctx); err != nil {
		dbStatus = "unavailable"
	}
	redisStatus := "connected"
	if s.redis == nil {
		redisStatus = "disabled"
	} else if err := s.redis.RDB().Ping(ctx).Err(); err != nil {
		redisStatus = "unavailable"
	}

	status := http.StatusOK
	if dbStatus != "connected" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"database": dbStatus, "redis": redisStatus})
}
