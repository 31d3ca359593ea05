package identity

import (
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the JWT payload issued by the platform's auth service.
type Claims struct {
	UserID int64  `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// User is the authenticated viewer on whose behalf commands are sent.
type User struct {
	ID   int64
	Role string
}

// Provider holds the current user derived from the configured bearer token.
// The agent only reads claims; signature verification is the backend's job.
type Provider struct {
	mu   sync.RWMutex
	user *User
}

// NewProvider returns a provider with no user set.
func NewProvider() *Provider {
	return &Provider{}
}

// SetToken parses the bearer token and installs its user.
func (p *Provider) SetToken(token string) error {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return err
	}
	if claims.UserID == 0 {
		return errors.New("identity: token has no user id")
	}
	if claims.ExpiresAt != nil && claims.ExpiresAt.Before(time.Now()) {
		return errors.New("identity: token expired")
	}

	p.mu.Lock()
	p.user = &User{ID: claims.UserID, Role: claims.Role}
	p.mu.Unlock()
	return nil
}

// Clear drops the current user.
func (p *Provider) Clear() {
	p.mu.Lock()
	p.user = nil
	p.mu.Unlock()
}

// Current returns the current user, if any.
func (p *Provider) Current() (User, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.user == nil {
		return User{}, false
	}
	return *p.user, true
}
