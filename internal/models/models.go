package models

import "time"

type ContactMessage struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	IPAddress string    `json:"ip_address"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

type SiteVisitor struct {
	ID          int64     `json:"id"`
	IPAddress   string    `json:"ip_address"`
	Page        string    `json:"page"`
	Referrer    string    `json:"referrer"`
	UserAgent   string    `json:"user_agent"`
	SentContact bool      `json:"sent_contact"`
	VisitedAt   time.Time `json:"visited_at"`
}

type SiteUpdate struct {
	ID           int64     `json:"id"`
	Version      string    `json:"version"`
	Summary      string    `json:"summary"`
	ChangedFiles string    `json:"changed_files,omitempty"`
	Author       string    `json:"author,omitempty"`
	MachineIP    string    `json:"machine_ip,omitempty"`
	DeployedAt   time.Time `json:"deployed_at"`
}

// SiteSettings is a singleton row (id always 1).
type SiteSettings struct {
	SiteTitle    string `json:"site_title"`
	HeroTitle    string `json:"hero_title"`
	HeroSubtitle string `json:"hero_subtitle"`
	AboutText    string `json:"about_text,omitempty"`
	GitHubURL    string `json:"github_url,omitempty"`
	LinkedInURL  string `json:"linkedin_url,omitempty"`
	TwitterURL   string `json:"twitter_url,omitempty"`
	Email        string `json:"email,omitempty"`
}
