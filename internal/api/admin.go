package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"portfolio-site/internal/auth"
	"portfolio-site/internal/models"
	"portfolio-site/internal/security"
)

const dashboardCacheKey = "dashboard:stats"

// adminLogin renders the login state machine: locked (no password prompt),
// open with an optional error, or a successful attempt that issues the
// session cookie. The lock check always runs first.
func (s *Server) adminLogin(c *gin.Context) {
	ctx, cancel := s.ctx(c)
	defer cancel()

	ip := security.ClientIPFromRequest(c.Request)

	if st := s.login.Status(ctx, ip); st.State == auth.StateLocked {
		c.HTML(http.StatusOK, "admin_login.html", gin.H{
			"locked":       true,
			"minutes_left": st.MinutesLeft,
		})
		return
	}

	if c.Request.Method == http.MethodPost {
		password := c.PostForm("password")
		remember := c.PostForm("remember") == "on"

		res := s.login.Attempt(ctx, ip, password, remember)
		switch res.State {
		case auth.StateAuthenticated:
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(sessionCookie, res.Token, int(res.MaxAge.Seconds()), "/", "", false, true)
			c.Redirect(http.StatusFound, "/admin-panel/")
			return
		case auth.StateLocked:
			c.HTML(http.StatusOK, "admin_login.html", gin.H{
				"locked":       true,
				"minutes_left": res.MinutesLeft,
			})
			return
		default:
			c.HTML(http.StatusOK, "admin_login.html", gin.H{"error": res.Error})
			return
		}
	}

	c.HTML(http.StatusOK, "admin_login.html", gin.H{})
}

func (s *Server) adminLogout(c *gin.Context) {
	c.SetCookie(sessionCookie, "", -1, "/", "", false, true)
	c.Redirect(http.StatusFound, "/admin-panel/login")
}

type dashboardStats struct {
	TotalVisits   int64                   `json:"total_visits"`
	TodayVisits   int64                   `json:"today_visits"`
	TotalMessages int64                   `json:"total_messages"`
	Unread        int64                   `json:"unread"`
	ChartLabels   []string                `json:"chart_labels"`
	ChartValues   []int64                 `json:"chart_values"`
	Recent        []models.ContactMessage `json:"recent_messages"`
}

func (s *Server) adminDashboard(c *gin.Context) {
	ctx, cancel := s.ctx(c)
	defer cancel()

	var stats dashboardStats
	if s.redis != nil {
		if cached, err := s.redis.Get(ctx, dashboardCacheKey); err == nil && cached != "" {
			if json.Unmarshal([]byte(cached), &stats) == nil {
				s.renderDashboard(c, stats)
				return
			}
		}
	}

	now := time.Now()
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	err := s.db.Pool.QueryRow(ctx,
		`SELECT
			(SELECT COUNT(*) FROM site_visitors),
			(SELECT COUNT(*) FROM site_visitors WHERE visited_at >= $1),
			(SELECT COUNT(*) FROM contact_messages),
			(SELECT COUNT(*) FROM contact_messages WHERE is_read = FALSE)`,
		todayStart,
	).Scan(&stats.TotalVisits, &stats.TodayVisits, &stats.TotalMessages, &stats.Unread)
	if err != nil {
		s.log.Error("dashboard_stats_failed", "error", err)
		s.renderDashboard(c, dashboardStats{ChartLabels: []string{}, ChartValues: []int64{}})
		return
	}

	stats.ChartLabels, stats.ChartValues = s.visitChart(c, now)

	rows, err := s.db.Pool.Query(ctx,
		`SELECT id, name, email, subject, message, is_read, created_at
		 FROM contact_messages ORDER BY created_at DESC LIMIT 5`)
	if err == nil {
		defer rows.Close()
		for rows.Next() {
			var m models.ContactMessage
			if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.Subject, &m.Message, &m.IsRead, &m.CreatedAt); err == nil {
				stats.Recent = append(stats.Recent, m)
			}
		}
	}

	if s.redis != nil {
		if buf, err := json.Marshal(stats); err == nil {
			_ = s.redis.Set(ctx, dashboardCacheKey, string(buf), time.Minute)
		}
	}

	s.renderDashboard(c, stats)
}

func (s *Server) renderDashboard(c *gin.Context, stats dashboardStats) {
	labels, _ := json.Marshal(stats.ChartLabels)
	values, _ := json.Marshal(stats.ChartValues)
	c.HTML(http.StatusOK, "admin_dashboard.html", gin.H{
		"total_visits":    stats.TotalVisits,
		"today_visits":    stats.TodayVisits,
		"total_messages":  stats.TotalMessages,
		"unread":          stats.Unread,
		"chart_labels":    string(labels),
		"chart_values":    string(values),
		"recent_messages": stats.Recent,
	})
}

// visitChart returns day labels and visit counts for the trailing 7 days,
// oldest first.
func (s *Server) visitChart(c *gin.Context, now time.Time) ([]string, []int64) {
	ctx, cancel := s.ctx(c)
	defer cancel()

	labels := make([]string, 0, 7)
	values := make([]int64, 0, 7)

	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, -6)
	counts := make(map[string]int64, 7)

	rows, err := s.db.Pool.Query(ctx,
		`SELECT date_trunc('day', visited_at)::date::text, COUNT(*)
		 FROM site_visitors WHERE visited_at >= $1
		 GROUP BY 1`, start)
	if err == nil {
		defer rows.Close()
		for rows.Next() {
			var day string
			var n int64
			if err := rows.Scan(&day, &n); err == nil {
				counts[day] = n
			}
		}
	} else {
		s.log.Warn("visit_chart_failed", "error", err)
	}

	for i := 0; i < 7; i++ {
		day := start.AddDate(0, 0, i)
		labels = append(labels, day.Format("Mon"))
		values = append(values, counts[day.Format("2006-01-02")])
	}
	return labels, values
}

func (s *Server) adminVisitors(c *gin.Context) {
	ctx, cancel := s.ctx(c)
	defer cancel()

	visitors := []models.SiteVisitor{}
	rows, err := s.db.Pool.Query(ctx,
		`SELECT id, COALESCE(ip_address, ''), page, referrer, user_agent, sent_contact, visited_at
		 FROM site_visitors ORDER BY visited_at DESC LIMIT 200`)
	if err != nil {
		s.log.Error("visitors_query_failed", "error", err)
	} else {
		defer rows.Close()
		for rows.Next() {
			var v models.SiteVisitor
			if err := rows.Scan(&v.ID, &v.IPAddress, &v.Page, &v.Referrer, &v.UserAgent, &v.SentContact, &v.VisitedAt); err == nil {
				visitors = append(visitors, v)
			}
		}
	}

	c.HTML(http.StatusOK, "admin_visitors.html", gin.H{"visitors": visitors})
}

func (s *Server) adminMessages(c *gin.Context) {
	ctx, cancel := s.ctx(c)
	defer cancel()

	messages := []models.ContactMessage{}
	rows, err := s.db.Pool.Query(ctx,
		`SELECT id, name, email, subject, message, COALESCE(ip_address, ''), is_read, created_at
		 FROM contact_messages ORDER BY created_at DESC`)
	if err != nil {
		s.log.Error("messages_query_failed", "error", err)
	} else {
		defer rows.Close()
		for rows.Next() {
			var m models.ContactMessage
			if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.Subject, &m.Message, &m.IPAddress, &m.IsRead, &m.CreatedAt); err == nil {
				messages = append(messages, m)
			}
		}

		// opening the screen marks everything read, in bulk
		if _, err := s.db.Pool.Exec(ctx, `UPDATE contact_messages SET is_read = TRUE WHERE is_read = FALSE`); err != nil {
			s.log.Warn("messages_mark_read_failed", "error", err)
		} else if s.redis != nil {
			_ = s.redis.Del(ctx, dashboardCacheKey)
		}
	}

	c.HTML(http.StatusOK, "admin_messages.html", gin.H{"messages": messages})
}

func (s *Server) adminUpdates(c *gin.Context) {
	ctx, cancel := s.ctx(c)
	defer cancel()

	updates := []models.SiteUpdate{}
	rows, err := s.db.Pool.Query(ctx,
		`SELECT id, version, summary, changed_files, author, COALESCE(machine_ip, ''), deployed_at
		 FROM site_updates ORDER BY deployed_at DESC`)
	if err != nil {
		s.log.Error("updates_query_failed", "error", err)
	} else {
		defer rows.Close()
		for rows.Next() {
			var u models.SiteUpdate
			if err := rows.Scan(&u.ID, &u.Version, &u.Summary, &u.ChangedFiles, &u.Author, &u.MachineIP, &u.DeployedAt); err == nil {
				updates = append(updates, u)
			}
		}
	}

	c.HTML(http.StatusOK, "admin_updates.html", gin.H{"updates": updates})
}
