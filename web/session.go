package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionCookieName is the cookie carrying the signed session token.
const SessionCookieName = "bookexchange_session"

// Flash categories understood by the templates.
const (
	FlashSuccess = "success"
	FlashInfo    = "info"
	FlashDanger  = "danger"
)

// Flash is a one-shot notice shown on the next rendered page.
type Flash struct {
	Category string `json:"category"`
	Message  string `json:"message"`
}

// Session is the per-client state carried in the signed cookie: the
// authenticated user, if any, and pending flash messages.
type Session struct {
	UserID   int64
	Username string
	Flashes  []Flash
}

// Authenticated reports whether a user is logged in.
func (s *Session) Authenticated() bool {
	return s.UserID > 0 && s.Username != ""
}

// Login marks the session as belonging to the given user.
func (s *Session) Login(userID int64, username string) {
	s.UserID = userID
	s.Username = username
}

// Logout returns the session to the anonymous state.
func (s *Session) Logout() {
	s.UserID = 0
	s.Username = ""
}

// AddFlash queues a message for the next rendered page.
func (s *Session) AddFlash(category, message string) {
	s.Flashes = append(s.Flashes, Flash{Category: category, Message: message})
}

// PopFlashes returns and clears the pending flash messages.
func (s *Session) PopFlashes() []Flash {
	f := s.Flashes
	s.Flashes = nil
	return f
}

type sessionClaims struct {
	UserID   int64   `json:"uid,omitempty"`
	Username string  `json:"usr,omitempty"`
	Flashes  []Flash `json:"fl,omitempty"`
	jwt.RegisteredClaims
}

// SessionManager encodes sessions as HS256-signed tokens in a cookie.
// A token that fails verification is treated as an anonymous session.
type SessionManager struct {
	secret []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

// NewSessionManager creates a session manager signing with secret.
func NewSessionManager(secret string, ttl time.Duration, secure bool) *SessionManager {
	return &SessionManager{
		secret: []byte(secret),
		ttl:    ttl,
		secure: secure,
		now:    time.Now,
	}
}

// Encode signs s into a token string.
func (m *SessionManager) Encode(s *Session) (string, error) {
	now := m.now().UTC()
	claims := &sessionClaims{
		UserID:   s.UserID,
		Username: s.Username,
		Flashes:  s.Flashes,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			Issuer:    "bookexchange",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign session: %w", err)
	}
	return signed, nil
}

// Decode verifies a token and returns the session it carries.
func (m *SessionManager) Decode(tokenString string) (*Session, error) {
	token, err := jwt.ParseWithClaims(tokenString, &sessionClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now), jwt.WithIssuer("bookexchange"))
	if err != nil {
		return nil, fmt.Errorf("parse session: %w", err)
	}

	claims, ok := token.Claims.(*sessionClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid session claims")
	}

	return &Session{
		UserID:   claims.UserID,
		Username: claims.Username,
		Flashes:  claims.Flashes,
	}, nil
}

// Load reads the session from the request cookie. A missing or invalid
// cookie yields an empty, anonymous session.
func (m *SessionManager) Load(r *http.Request) *Session {
	c, err := r.Cookie(SessionCookieName)
	if err != nil {
		return &Session{}
	}
	s, err := m.Decode(c.Value)
	if err != nil {
		return &Session{}
	}
	return s
}

// Save writes s back to the client. It must run before the response header.
func (m *SessionManager) Save(w http.ResponseWriter, s *Session) error {
	value, err := m.Encode(s)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Middleware loads the session for each request and stores it in the context.
func (m *SessionManager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := WithSession(r.Context(), m.Load(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type sessionKey struct{}

// WithSession returns a context carrying s.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFromContext returns the request's session, or a fresh anonymous
// session when none was stored.
func SessionFromContext(ctx context.Context) *Session {
	if s, ok := ctx.Value(sessionKey{}).(*Session); ok {
		return s
	}
	return &Session{}
}
