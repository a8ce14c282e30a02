// Package pasetotoken issues and verifies the v4 access tokens that carry a
// caller's user id, role, display name, session and preferred locale.
package pasetotoken

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	paseto "aidanwoods.dev/go-paseto"
	"github.com/google/uuid"
)

const defaultAccessTTL = 15 * time.Minute

// custom claim names
const (
	claimType    = "typ"
	claimUser    = "uid"
	claimRole    = "rol"
	claimName    = "nam"
	claimSession = "sid"
	claimLocale  = "loc"
)

type Config struct {
	Mode      Mode
	Issuer    string
	Audience  string
	AccessTTL time.Duration
	Implicit  []byte
}

type Manager struct {
	cfg    Config
	keys   Keys
	parser paseto.Parser
}

func New(cfg Config, keys Keys) (*Manager, error) {
	switch {
	case cfg.Mode != keys.Mode:
		return nil, ErrConfig{Msg: fmt.Sprintf("config mode %q does not match key mode %q", cfg.Mode, keys.Mode)}
	case cfg.Issuer == "":
		return nil, ErrConfig{Msg: "issuer is required"}
	case cfg.Audience == "":
		return nil, ErrConfig{Msg: "audience is required"}
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = defaultAccessTTL
	}

	p := paseto.NewParser()
	p.AddRule(paseto.IssuedBy(cfg.Issuer))
	p.AddRule(paseto.ForAudience(cfg.Audience))
	p.AddRule(paseto.NotExpired())

	return &Manager{cfg: cfg, keys: keys, parser: p}, nil
}

// Subject identifies who an access token is issued to.
type Subject struct {
	UserID    uuid.UUID
	Role      string
	Name      string
	Locale    string
	SessionID *uuid.UUID
}

func (m *Manager) IssueAccess(sub Subject) (string, error) {
	if sub.UserID == uuid.Nil {
		return "", ErrConfig{Msg: "subject user id is empty"}
	}
	now := time.Now()

	tok := paseto.NewToken()
	tok.SetIssuer(m.cfg.Issuer)
	tok.SetAudience(m.cfg.Audience)
	tok.SetJti(newTokenID())
	tok.SetSubject(sub.UserID.String())
	tok.SetIssuedAt(now)
	tok.SetNotBefore(now)
	tok.SetExpiration(now.Add(m.cfg.AccessTTL))

	tok.SetString(claimType, string(TokenTypeAccess))
	tok.SetString(claimUser, sub.UserID.String())
	tok.SetString(claimRole, sub.Role)
	setOptional(&tok, claimName, sub.Name)
	setOptional(&tok, claimLocale, sub.Locale)
	if sub.SessionID != nil {
		tok.SetString(claimSession, sub.SessionID.String())
	}

	return m.keys.seal(tok, m.cfg.Implicit)
}

// AccessTTL is the lifetime of issued access tokens.
func (m *Manager) AccessTTL() time.Duration { return m.cfg.AccessTTL }

// Verify checks signature or encryption, issuer, audience and expiry, then
// decodes the claims.
func (m *Manager) Verify(raw string) (*Claims, error) {
	tok, err := m.keys.open(m.parser, raw, m.cfg.Implicit)
	if err != nil {
		if _, isCfg := err.(ErrConfig); isCfg {
			return nil, err
		}
		return nil, ErrInvalidToken{Err: err}
	}

	claims, err := m.decode(tok)
	if err != nil {
		return nil, ErrInvalidToken{Err: err}
	}
	if claims.Type != TokenTypeAccess {
		return nil, ErrInvalidToken{Err: ErrWrongTokenType}
	}
	return claims, nil
}

func (m *Manager) decode(tok *paseto.Token) (*Claims, error) {
	out := &Claims{Issuer: m.cfg.Issuer, Audience: m.cfg.Audience}
	var err error

	if out.TokenID, err = tok.GetJti(); err != nil {
		return nil, err
	}
	if out.Subject, err = tok.GetSubject(); err != nil {
		return nil, err
	}
	if out.IssuedAt, err = tok.GetIssuedAt(); err != nil {
		return nil, err
	}
	if out.NotBefore, err = tok.GetNotBefore(); err != nil {
		return nil, err
	}
	if out.ExpiresAt, err = tok.GetExpiration(); err != nil {
		return nil, err
	}

	typ, err := tok.GetString(claimType)
	if err != nil {
		return nil, err
	}
	out.Type = TokenType(typ)

	uidStr, err := tok.GetString(claimUser)
	if err != nil {
		return nil, err
	}
	if out.UserID, err = uuid.Parse(uidStr); err != nil {
		return nil, fmt.Errorf("uid claim: %w", err)
	}
	if out.Role, err = tok.GetString(claimRole); err != nil {
		return nil, err
	}

	out.Name, _ = tok.GetString(claimName)
	out.Locale, _ = tok.GetString(claimLocale)

	if sidStr, err := tok.GetString(claimSession); err == nil {
		sid, err := uuid.Parse(sidStr)
		if err != nil {
			return nil, fmt.Errorf("sid claim: %w", err)
		}
		out.SessionID = &sid
	}
	return out, nil
}

func setOptional(tok *paseto.Token, key, val string) {
	if val != "" {
		tok.SetString(key, val)
	}
}

func newTokenID() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
