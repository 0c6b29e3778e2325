package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dalemusser/clinsync/internal/domain/models"
	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Session keys                                                                |
*─────────────────────────────────────────────────────────────────────────────*/

const (
	isAuthKey   = "is_authenticated"
	orgIDKey    = "org_id"
	orgNameKey  = "org_name"
	orgEmailKey = "org_email"
	intakeKey   = "intake_id"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Session manager                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

// SessionManager owns the cookie store that carries the signed-in
// organization between requests.
type SessionManager struct {
	store *sessions.CookieStore
	name  string
	log   *zap.Logger
}

// NewSessionManager builds the cookie store. In production (secure=true)
// cookies are Secure + SameSite=None; over plain-http dev they are Lax.
func NewSessionManager(sessionKey, name, domain string, maxAge time.Duration, secure bool, logger *zap.Logger) (*SessionManager, error) {
	if sessionKey == "" {
		return nil, fmt.Errorf("session key is empty; provide ≥32 random chars")
	}
	if len(sessionKey) < 32 {
		logger.Warn("session key is short; 32+ chars recommended",
			zap.Int("length", len(sessionKey)))
	}
	if name == "" {
		name = "clinsync-session"
	}

	store := sessions.NewCookieStore([]byte(sessionKey))
	opts := &sessions.Options{
		Domain:   domain,
		Path:     "/",
		Secure:   secure,
		HttpOnly: true,
	}
	if secure {
		opts.SameSite = http.SameSiteNoneMode
	} else {
		opts.SameSite = http.SameSiteLaxMode
	}
	store.Options = opts
	if maxAge > 0 {
		store.MaxAge(int(maxAge.Seconds()))
	}

	logger.Info("session store initialized",
		zap.String("name", name),
		zap.Bool("secure", secure),
		zap.String("domain", domain))

	return &SessionManager{store: store, name: name, log: logger}, nil
}

// Store exposes the underlying cookie store.
func (sm *SessionManager) Store() *sessions.CookieStore { return sm.store }

// GetSession returns the request's session. On error a fresh session is
// still returned so callers can overwrite a stale cookie.
func (sm *SessionManager) GetSession(r *http.Request) (*sessions.Session, error) {
	return sm.store.Get(r, sm.name)
}

// session is GetSession with the decode-error handling every caller wants.
func (sm *SessionManager) session(r *http.Request) *sessions.Session {
	sess, err := sm.GetSession(r)
	if err != nil {
		if scErr, ok := err.(securecookie.Error); ok && scErr.IsDecode() {
			sm.log.Warn("session cookie invalid, using fresh session", zap.Error(err))
		} else {
			sm.log.Error("session store error, using fresh session", zap.Error(err))
		}
	}
	return sess
}

// SignIn stores org in the session cookie.
func (sm *SessionManager) SignIn(w http.ResponseWriter, r *http.Request, org models.Organization) error {
	sess := sm.session(r)
	sess.Values[isAuthKey] = true
	sess.Values[orgIDKey] = org.ID
	sess.Values[orgNameKey] = org.Name
	sess.Values[orgEmailKey] = org.Email
	return sess.Save(r, w)
}

// SignOut expires the session cookie.
func (sm *SessionManager) SignOut(w http.ResponseWriter, r *http.Request) error {
	sess := sm.session(r)
	opts := sm.store.Options
	if opts != nil {
		copied := *opts
		sess.Options = &copied
	}
	sess.Options.MaxAge = -1
	for k := range sess.Values {
		delete(sess.Values, k)
	}
	return sess.Save(r, w)
}

// IntakeID returns the volunteer-intake draft id for this browser, creating
// and saving one when absent.
func (sm *SessionManager) IntakeID(w http.ResponseWriter, r *http.Request) (string, error) {
	sess := sm.session(r)
	if id, ok := sess.Values[intakeKey].(string); ok && id != "" {
		return id, nil
	}
	id := uuid.NewString()
	sess.Values[intakeKey] = id
	if err := sess.Save(r, w); err != nil {
		return "", err
	}
	return id, nil
}

// AddFlash queues a one-shot message for the next page render.
func (sm *SessionManager) AddFlash(w http.ResponseWriter, r *http.Request, msg string) error {
	sess := sm.session(r)
	sess.AddFlash(msg)
	return sess.Save(r, w)
}

// Flashes pops queued messages. The session is saved only when something
// was queued.
func (sm *SessionManager) Flashes(w http.ResponseWriter, r *http.Request) []string {
	sess := sm.session(r)
	raw := sess.Flashes()
	if len(raw) == 0 {
		return nil
	}
	if err := sess.Save(r, w); err != nil {
		sm.log.Warn("save session after reading flashes", zap.Error(err))
	}
	out := make([]string, 0, len(raw))
	for _, f := range raw {
		if s, ok := f.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

/*─────────────────────────────────────────────────────────────────────────────*
| Current organization                                                        |
*─────────────────────────────────────────────────────────────────────────────*/

type ctxKey string

const currentOrgKey ctxKey = "currentOrg"

// CurrentOrg returns the organization injected by LoadSessionOrg.
func CurrentOrg(r *http.Request) (models.Organization, bool) {
	org, ok := r.Context().Value(currentOrgKey).(models.Organization)
	return org, ok && !org.IsZero()
}

// WithTestOrg injects org into the request context. Intended for tests.
func WithTestOrg(r *http.Request, org models.Organization) *http.Request {
	return withOrg(r, org)
}

// LoadSessionOrg injects the signed-in organization into the context.
func (sm *SessionManager) LoadSessionOrg(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := sm.GetSession(r)
		if err == nil {
			if isAuth, _ := sess.Values[isAuthKey].(bool); isAuth {
				org := models.Organization{
					ID:    getString(sess, orgIDKey),
					Name:  getString(sess, orgNameKey),
					Email: getString(sess, orgEmailKey),
				}
				if !org.IsZero() {
					r = withOrg(r, org)
				}
			}
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSignedIn ensures an organization is in context (set by
// LoadSessionOrg). If not signed in:
//   - HTMX: sends HX-Redirect to /login?return=...
//   - HTML: 303 redirect to /login?return=...
//   - API:  401 Unauthorized with a plain error body.
func (sm *SessionManager) RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentOrg(r); ok {
			next.ServeHTTP(w, r)
			return
		}

		ret := url.QueryEscape(r.URL.RequestURI())

		if r.Header.Get("HX-Request") == "true" {
			w.Header().Set("HX-Redirect", "/login?return="+ret)
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if wantsHTML(r) {
			http.Redirect(w, r, "/login?return="+ret, http.StatusSeeOther)
			return
		}
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	})
}

// helpers

func withOrg(r *http.Request, org models.Organization) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentOrgKey, org))
}

func getString(s *sessions.Session, key string) string {
	if v, ok := s.Values[key].(string); ok {
		return v
	}
	return ""
}

func wantsHTML(r *http.Request) bool {
	if r.Header.Get("HX-Request") == "true" {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}
