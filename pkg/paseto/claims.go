package pasetotoken

import (
	"time"

	"github.com/google/uuid"
)

type TokenType string

const TokenTypeAccess TokenType = "access"

// Claims is a verified access token. It satisfies reqctx.AuthClaims.
type Claims struct {
	Type      TokenType
	UserID    uuid.UUID
	SessionID *uuid.UUID
	Role      string
	Name      string
	Locale    string

	Issuer    string
	Audience  string
	TokenID   string
	Subject   string
	IssuedAt  time.Time
	NotBefore time.Time
	ExpiresAt time.Time
}

func (c *Claims) GetUserID() uuid.UUID     { return c.UserID }
func (c *Claims) GetSessionID() *uuid.UUID { return c.SessionID }
func (c *Claims) GetRole() string          { return c.Role }
func (c *Claims) GetName() string          { return c.Name }
func (c *Claims) GetLocale() string        { return c.Locale }
func (c *Claims) GetTokenType() string     { return string(c.Type) }
func (c *Claims) IsExpired() bool          { return time.Now().After(c.ExpiresAt) }
