package entity

import (
	"time"

	"smart-planner/core/entity"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// CalendarConnection stores a user's link to an external calendar provider
type CalendarConnection struct {
	entity.BaseEntity
	UserID         uuid.UUID  `db:"user_id" json:"user_id"`
	Provider       string     `db:"provider" json:"provider"` // "google"
	ProviderEmail  string     `db:"provider_email" json:"provider_email"`
	AccessToken    string     `db:"access_token" json:"-"`
	RefreshToken   string     `db:"refresh_token" json:"-"`
	TokenExpiresAt *time.Time `db:"token_expires_at" json:"token_expires_at,omitempty"`
	IsActive       bool       `db:"is_active" json:"is_active"`
}

// Token rebuilds the stored oauth2 token
func (c CalendarConnection) Token() *oauth2.Token {
	t := &oauth2.Token{
		AccessToken:  c.AccessToken,
		RefreshToken: c.RefreshToken,
		TokenType:    "Bearer",
	}
	if c.TokenExpiresAt != nil {
		t.Expiry = *c.TokenExpiresAt
	}
	return t
}
