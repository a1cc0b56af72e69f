package models

import (
	"fmt"
	"strings"
	"time"
)

// SourceConfig represents a monitored content source: a YouTube channel, an
// RSS/Atom feed, a WordPress site or a tenant upload directory.
type SourceConfig struct {
	ID       string     `json:"id"` // src_{uuid}
	TenantID string     `json:"tenant_id"`
	Type     SourceType `json:"type"`
	Name     string     `json:"name"`

	// Location is the source address: channel id (video), feed URL
	// (article), site base URL (page) or directory path (document).
	Location string `json:"location"`

	Enabled       bool       `json:"enabled"`
	LastCheckedAt *time.Time `json:"last_checked_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Validate validates the source configuration
func (s *SourceConfig) Validate() error {
	if strings.TrimSpace(s.TenantID) == "" {
		return fmt.Errorf("tenant_id is required")
	}
	if !s.Type.IsValid() {
		return fmt.Errorf("invalid source type: %s", s.Type)
	}
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if strings.TrimSpace(s.Location) == "" {
		return fmt.Errorf("location is required")
	}
	return nil
}
