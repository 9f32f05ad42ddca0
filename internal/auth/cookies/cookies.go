// Package cookies carries access and refresh tokens in HTTP cookies.
package cookies

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aussiebroadwan/daybook/pkg/httpx"
)

const (
	AccessName  = "access_token"
	RefreshName = "refresh_token"
)

// Config controls the cookie attributes.
type Config struct {
	// Secure should only be false for local development over plain HTTP.
	Secure   bool
	SameSite http.SameSite
	Domain   string

	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Transport maps the two token kinds to cookies. It is stateless and safe for
// concurrent use.
type Transport struct {
	cfg Config
	now func() time.Time
}

// New builds a Transport. A zero SameSite defaults to Lax.
func New(cfg Config) *Transport {
	if cfg.SameSite == 0 {
		cfg.SameSite = http.SameSiteLaxMode
	}
	return &Transport{cfg: cfg, now: time.Now}
}

// ParseSameSite accepts "lax", "strict" or "none".
func ParseSameSite(s string) (http.SameSite, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "lax":
		return http.SameSiteLaxMode, nil
	case "strict":
		return http.SameSiteStrictMode, nil
	case "none":
		return http.SameSiteNoneMode, nil
	default:
		return 0, fmt.Errorf("cookies: unknown SameSite mode %q", s)
	}
}

// Set writes both token cookies and marks the response uncacheable.
func (t *Transport) Set(w http.ResponseWriter, access, refresh string) {
	httpx.NoCache(w)
	http.SetCookie(w, t.cookie(AccessName, access, t.cfg.AccessTTL))
	http.SetCookie(w, t.cookie(RefreshName, refresh, t.cfg.RefreshTTL))
}

// Clear expires both cookies.
func (t *Transport) Clear(w http.ResponseWriter) {
	httpx.NoCache(w)
	for _, name := range []string{AccessName, RefreshName} {
		c := t.cookie(name, "", 0)
		c.MaxAge = -1
		c.Expires = time.Unix(0, 0).UTC()
		http.SetCookie(w, c)
	}
}

// AccessToken reads the access cookie. Empty values count as absent.
func (t *Transport) AccessToken(r *http.Request) (string, bool) {
	return read(r, AccessName)
}

// RefreshToken reads the refresh cookie. Empty values count as absent.
func (t *Transport) RefreshToken(r *http.Request) (string, bool) {
	return read(r, RefreshName)
}

func (t *Transport) cookie(name, value string, ttl time.Duration) *http.Cookie {
	c := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   t.cfg.Domain,
		HttpOnly: true,
		Secure:   t.cfg.Secure,
		SameSite: t.cfg.SameSite,
	}
	if ttl > 0 {
		c.MaxAge = int(ttl.Seconds())
		c.Expires = t.now().Add(ttl).UTC()
	}
	return c
}

func read(r *http.Request, name string) (string, bool) {
	c, err := r.Cookie(name)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}
